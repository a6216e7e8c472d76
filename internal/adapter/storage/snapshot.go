// internal/adapter/storage/snapshot.go

package storage

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"viralboard/internal/logging"
)

const snapshotDateLayout = "20060102"

// TableLister discovers snapshot tables
type TableLister interface {
	ListTables(ctx context.Context, schema, prefix string) ([]string, error)
	TableExists(ctx context.Context, schema, table string) (bool, error)
}

// SnapshotRequest narrows which snapshot to read. A zero request selects the
// most recent snapshot.
type SnapshotRequest struct {
	Date     *time.Time
	Lookback int
}

func (r SnapshotRequest) probing() bool {
	return r.Date != nil || r.Lookback > 0
}

// strategy returns a table name, or false to pass to the next strategy
type strategy func(ctx context.Context, req SnapshotRequest) (string, bool)

// SnapshotSelector picks a dated prediction snapshot table by naming
// convention (prefix_YYYYMMDD). Discovery errors never escape; the selector
// falls back to the latest alias table.
type SnapshotSelector struct {
	lister TableLister
	schema string
	prefix string
	latest string
	now    func() time.Time
	log    zerolog.Logger
}

// NewSnapshotSelector creates a new snapshot selector
func NewSnapshotSelector(lister TableLister, schema, prefix, latest string) *SnapshotSelector {
	return &SnapshotSelector{
		lister: lister,
		schema: schema,
		prefix: prefix,
		latest: latest,
		now:    time.Now,
		log:    logging.With("snapshot_selector"),
	}
}

// Select returns the table to read for req
func (s *SnapshotSelector) Select(ctx context.Context, req SnapshotRequest) string {
	strategies := []strategy{
		s.latestByEnumeration,
		s.probeByDate,
		s.fixedDefault,
	}
	for _, try := range strategies {
		if table, ok := try(ctx, req); ok {
			return table
		}
	}
	return s.latest
}

// TableFor returns the snapshot table name for date
func (s *SnapshotSelector) TableFor(date time.Time) string {
	return s.prefix + "_" + date.Format(snapshotDateLayout)
}

func (s *SnapshotSelector) latestByEnumeration(ctx context.Context, req SnapshotRequest) (string, bool) {
	if req.probing() {
		return "", false
	}

	tables, err := s.lister.ListTables(ctx, s.schema, s.prefix)
	if err != nil {
		s.log.Warn().Err(err).Msg("snapshot enumeration failed, using default table")
		return "", false
	}

	var best string
	var bestDate time.Time
	for _, name := range tables {
		date, ok := s.parseSnapshotDate(name)
		if !ok {
			continue
		}
		if best == "" || date.After(bestDate) {
			best, bestDate = name, date
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

func (s *SnapshotSelector) probeByDate(ctx context.Context, req SnapshotRequest) (string, bool) {
	if !req.probing() {
		return "", false
	}

	anchor := s.now()
	if req.Date != nil {
		anchor = *req.Date
	}
	lookback := req.Lookback
	if lookback < 0 {
		lookback = 0
	}

	for offset := 0; offset <= lookback; offset++ {
		table := s.TableFor(anchor.AddDate(0, 0, -offset))
		exists, err := s.lister.TableExists(ctx, s.schema, table)
		if err != nil {
			s.log.Debug().Err(err).Str("table", table).Msg("snapshot probe failed")
			continue
		}
		if exists {
			return table, true
		}
	}
	return "", false
}

func (s *SnapshotSelector) fixedDefault(context.Context, SnapshotRequest) (string, bool) {
	return s.latest, true
}

// parseSnapshotDate extracts the date suffix from prefix_YYYYMMDD
func (s *SnapshotSelector) parseSnapshotDate(name string) (time.Time, bool) {
	suffix := strings.TrimPrefix(name, s.prefix+"_")
	if suffix == name || len(suffix) != len(snapshotDateLayout) {
		return time.Time{}, false
	}
	date, err := time.Parse(snapshotDateLayout, suffix)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}
