// internal/adapter/storage/warehouse.go

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"viralboard/internal/metrics"
)

// Querier is the subset of *pgxpool.Pool the stores use
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Ping(ctx context.Context) error
}

var _ Querier = (*pgxpool.Pool)(nil)

// Catalog answers table discovery questions against information_schema
type Catalog struct {
	db Querier
}

// NewCatalog creates a new catalog
func NewCatalog(db Querier) *Catalog {
	return &Catalog{db: db}
}

// ListTables returns the tables in schema whose name starts with prefix_
func (c *Catalog) ListTables(ctx context.Context, schema, prefix string) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		AND table_name LIKE $2
		ORDER BY table_name
	`

	start := time.Now()
	rows, err := c.db.Query(ctx, query, schema, likePrefix(prefix))
	if err != nil {
		observe("list_tables", start, err)
		return nil, fmt.Errorf("error listing tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			observe("list_tables", start, err)
			return nil, fmt.Errorf("error scanning table name: %w", err)
		}
		tables = append(tables, name)
	}
	err = rows.Err()
	observe("list_tables", start, err)
	if err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}

	return tables, nil
}

// TableExists reports whether schema.table exists
func (c *Catalog) TableExists(ctx context.Context, schema, table string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.tables
			WHERE table_schema = $1
			AND table_name = $2
		)
	`

	start := time.Now()
	var exists bool
	err := c.db.QueryRow(ctx, query, schema, table).Scan(&exists)
	observe("table_exists", start, err)
	if err != nil {
		return false, fmt.Errorf("error checking table %s.%s: %w", schema, table, err)
	}
	return exists, nil
}

// likePrefix builds a LIKE pattern matching prefix_ literally
func likePrefix(prefix string) string {
	escaped := make([]rune, 0, len(prefix)+3)
	for _, r := range prefix {
		if r == '_' || r == '%' || r == '\\' {
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, r)
	}
	return string(escaped) + `\_%`
}

func observe(operation string, start time.Time, err error) {
	metrics.WarehouseQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.WarehouseQueryErrors.WithLabelValues(operation).Inc()
	}
}
