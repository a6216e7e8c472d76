// internal/domain/trend/fetcher.go

package trend

import (
	"context"
)

// API is the external trend source. One call accepts at most
// MaxKeywordsPerRequest keywords and returns nil when there is no data.
type API interface {
	InterestOverTime(ctx context.Context, keywords []string, tf Timeframe) (*Table, error)
}

// Fetcher produces a single aligned interest table for any number of
// keywords. A nil table with a nil error means no data.
type Fetcher interface {
	Fetch(ctx context.Context, keywords []string, tf Timeframe) (*Table, error)
}
