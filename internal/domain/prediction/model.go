// internal/domain/prediction/model.go

package prediction

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a title has no matching row
var ErrNotFound = errors.New("not found")

// Prediction is one ranked row of model output from a snapshot table
type Prediction struct {
	UID              string   `json:"uid"`
	Title            string   `json:"title"`
	Type             *string  `json:"type"`
	Country          *string  `json:"country"`
	Language         *string  `json:"language"`
	IMDbRating       *float64 `json:"imdb_rating"`
	TMDBPopularity   *float64 `json:"tmdb_popularity"`
	TMDBVoteCount    *float64 `json:"tmdb_vote_count"`
	TMDBVoteAverage  *float64 `json:"tmdb_vote_average"`
	LogBudget        *float64 `json:"log_budget"`
	LogRevenue       *float64 `json:"log_revenue"`
	ReleaseYear      *int     `json:"release_year"`
	DurationVal      *float64 `json:"duration_val"`
	PredictedViral   *int     `json:"predicted_future_viral_14d"`
	ViralProb        float64  `json:"viral_prob"`
	ViralProbability float64  `json:"viral_probability"`
}

// Ranking is the top-N result of one snapshot read
type Ranking struct {
	Snapshot    string       `json:"snapshot"`
	Predictions []Prediction `json:"predictions"`
}

// Titles returns the prediction titles in rank order
func (r *Ranking) Titles(n int) []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, n)
	for _, p := range r.Predictions {
		if len(out) == n {
			break
		}
		out = append(out, p.Title)
	}
	return out
}

// TitleDetails is the feature row for a single title
type TitleDetails struct {
	UID               string   `json:"uid"`
	Title             string   `json:"title"`
	Type              *string  `json:"type"`
	Country           *string  `json:"country"`
	Language          *string  `json:"language"`
	ReleaseYear       *int     `json:"release_year"`
	IMDbRating        *float64 `json:"imdb_rating"`
	Genres            *string  `json:"genres"`
	DateAdded         *string  `json:"date_added"`
	TMDBPopularity    *float64 `json:"tmdb_popularity"`
	TMDBVoteCount     *float64 `json:"tmdb_vote_count"`
	TMDBVoteAverage   *float64 `json:"tmdb_vote_average"`
	Budget            *int64   `json:"budget"`
	Revenue           *int64   `json:"revenue"`
	WeeksOnTop10      *int     `json:"weeks_on_top10"`
	BestRank          *int     `json:"best_rank"`
	OnTop10TotalViews *int64   `json:"on_top10_total_views"`
	OnTop10TotalHours *int64   `json:"on_top10_total_hours"`
	Views2023         *int64   `json:"views_2023"`
	Hours2023         *int64   `json:"hours_2023"`
	Views2024         *int64   `json:"views_2024"`
	Hours2024         *int64   `json:"hours_2024"`
	Views2025         *int64   `json:"views_2025"`
	Hours2025         *int64   `json:"hours_2025"`
	FutureViral14d    *int     `json:"future_viral_14d"`
}

// Query selects which snapshot to read and how many rows to return
type Query struct {
	Date     *time.Time
	Lookback int
	Limit    int
}

// Source reads model output and title features from the warehouse.
// Absent results are reported as nil with a nil error.
type Source interface {
	TopPredictions(ctx context.Context, q Query) (*Ranking, error)
	AllTitles(ctx context.Context) ([]string, error)
	TitleDetails(ctx context.Context, title string) (*TitleDetails, error)
	TitleViralRate(ctx context.Context, title string) (*float64, error)
	Ping(ctx context.Context) error
}
