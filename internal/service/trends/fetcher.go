// internal/service/trends/fetcher.go

package trends

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/rs/zerolog"

	"viralboard/internal/domain/trend"
	"viralboard/internal/logging"
	"viralboard/internal/metrics"
)

// timestampColumn keys rows when merging batch frames
const timestampColumn = "__timestamp"

// BatchFetcher implements trend.Fetcher on top of a per-call limited API.
// Keyword lists longer than the API cap are split into batches sharing the
// first keyword as an anchor; each later batch is rescaled so its anchor
// mean matches the first batch's before the frames are merged on timestamp.
//
// The rescale assumes every API call normalizes to its own maximum of 100.
type BatchFetcher struct {
	api trend.API
	log zerolog.Logger
}

var _ trend.Fetcher = (*BatchFetcher)(nil)

// NewBatchFetcher creates a new batch fetcher
func NewBatchFetcher(api trend.API) *BatchFetcher {
	return &BatchFetcher{
		api: api,
		log: logging.With("trend_fetcher"),
	}
}

// Fetch returns one table with a column per requested keyword in input
// order; a repeated keyword is queried once and repeated in the output.
// Without keywords it compares trend.DefaultComparison. It returns nil when
// no batch produced data, and the first API error otherwise.
func (f *BatchFetcher) Fetch(ctx context.Context, keywords []string, tf trend.Timeframe) (*trend.Table, error) {
	if len(keywords) == 0 {
		keywords = trend.DefaultComparison()
	}
	requested := nonEmpty(keywords)
	keywords = dedupe(requested)
	if len(keywords) == 0 {
		return nil, trend.ErrNoKeywords
	}
	if tf == "" {
		tf = trend.LastSevenDays
	}

	batches := trend.PlanBatches(keywords)
	metrics.TrendBatches.Observe(float64(len(batches)))

	if len(batches) == 1 {
		table, err := f.api.InterestOverTime(ctx, batches[0].Keywords, tf)
		if err != nil {
			return nil, err
		}
		if table.Empty() {
			return nil, nil
		}
		return finalize(toFrame(table), requested)
	}

	anchor := keywords[0]
	var merged *dataframe.DataFrame
	var baseline float64
	haveBaseline := false

	for i, batch := range batches {
		table, err := f.api.InterestOverTime(ctx, batch.Keywords, tf)
		if err != nil {
			return nil, fmt.Errorf("batch %d of %d: %w", i+1, len(batches), err)
		}
		if table.Empty() {
			f.log.Debug().Int("batch", i+1).Strs("keywords", batch.Keywords).Msg("batch returned no data")
			continue
		}

		if i == 0 {
			frame := toFrame(table)
			merged = &frame
			if table.HasColumn(anchor) {
				baseline = table.Mean(anchor)
				haveBaseline = true
			}
			continue
		}

		if !haveBaseline || !table.HasColumn(anchor) {
			f.log.Debug().Int("batch", i+1).Str("anchor", anchor).Msg("cannot align batch to anchor, skipping")
			continue
		}

		scale := 0.0
		if batchMean := table.Mean(anchor); batchMean != 0 {
			scale = baseline / batchMean
		}

		scaled := toFrame(table.Scale(scale).Drop(anchor))
		joined := merged.OuterJoin(scaled, timestampColumn)
		if joined.Err != nil {
			return nil, fmt.Errorf("failed to merge batch %d: %w", i+1, joined.Err)
		}
		merged = &joined
	}

	if merged == nil {
		return nil, nil
	}
	return finalize(*merged, requested)
}

// toFrame converts a table to a frame keyed by RFC 3339 UTC timestamps
func toFrame(t *trend.Table) dataframe.DataFrame {
	stamps := make([]string, len(t.Index))
	for i, ts := range t.Index {
		stamps[i] = ts.UTC().Format(time.RFC3339)
	}

	cols := make([]series.Series, 0, len(t.Columns)+1)
	cols = append(cols, series.New(stamps, series.String, timestampColumn))
	for i, name := range t.Columns {
		cols = append(cols, series.New(t.Data[i], series.Float, name))
	}
	return dataframe.New(cols...)
}

// finalize sorts by timestamp, coerces missing values to 0 and lays the
// columns out in keywords order, zero-filling keywords with no column.
func finalize(df dataframe.DataFrame, keywords []string) (*trend.Table, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	df = df.Arrange(dataframe.Sort(timestampColumn))
	if df.Err != nil {
		return nil, df.Err
	}

	records := df.Col(timestampColumn).Records()
	index := make([]time.Time, len(records))
	for i, r := range records {
		ts, err := time.Parse(time.RFC3339, r)
		if err != nil {
			return nil, fmt.Errorf("invalid merged timestamp %q: %w", r, err)
		}
		index[i] = ts
	}

	merged := &trend.Table{Index: index}
	for _, name := range df.Names() {
		if name == timestampColumn {
			continue
		}
		values := df.Col(name).Float()
		for r, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				values[r] = 0
			}
		}
		merged.Columns = append(merged.Columns, name)
		merged.Data = append(merged.Data, values)
	}

	return merged.Select(keywords), nil
}

func nonEmpty(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// dedupe drops repeated keywords, keeping first occurrences
func dedupe(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}
