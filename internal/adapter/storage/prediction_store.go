// internal/adapter/storage/prediction_store.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v4"

	"viralboard/internal/domain/prediction"
)

const defaultTopLimit = 10

// PredictionStore implements prediction.Source over the warehouse
type PredictionStore struct {
	db               Querier
	selector         *SnapshotSelector
	predictionSchema string
	latestTable      string
	featureSchema    string
	featureTable     string
}

// PredictionStoreConfig names the warehouse tables the store reads
type PredictionStoreConfig struct {
	PredictionSchema string
	FeatureSchema    string
	FeatureTable     string
	LatestTable      string
}

// NewPredictionStore creates a new prediction store
func NewPredictionStore(db Querier, selector *SnapshotSelector, cfg PredictionStoreConfig) *PredictionStore {
	return &PredictionStore{
		db:               db,
		selector:         selector,
		predictionSchema: cfg.PredictionSchema,
		latestTable:      cfg.LatestTable,
		featureSchema:    cfg.FeatureSchema,
		featureTable:     cfg.FeatureTable,
	}
}

var _ prediction.Source = (*PredictionStore)(nil)

// viralProbExpr extracts the label=1 probability from the probs array
const viralProbExpr = `(
	SELECT (p->>'prob')::float8
	FROM jsonb_array_elements(predicted_future_viral_14d_probs) AS p
	WHERE (p->>'label')::int = 1
	LIMIT 1
)`

// TopPredictions returns the highest viral probability rows of the selected
// snapshot, or nil when the snapshot has none.
func (s *PredictionStore) TopPredictions(ctx context.Context, q prediction.Query) (*prediction.Ranking, error) {
	table := s.selector.Select(ctx, SnapshotRequest{Date: q.Date, Lookback: q.Lookback})
	limit := q.Limit
	if limit <= 0 {
		limit = defaultTopLimit
	}

	query := fmt.Sprintf(`
		WITH prob_extracted AS (
			SELECT
				uid::text, title, type, country, language,
				imdb_rating::float8, tmdb_popularity::float8,
				tmdb_vote_count::float8, tmdb_vote_average::float8,
				log_budget::float8, log_revenue::float8,
				release_year::int4, duration_val::float8,
				predicted_future_viral_14d::int4,
				%s AS viral_prob
			FROM %s
			WHERE predicted_future_viral_14d_probs IS NOT NULL
		)
		SELECT *
		FROM prob_extracted
		WHERE viral_prob IS NOT NULL
		ORDER BY viral_prob DESC
		LIMIT $1
	`, viralProbExpr, pgx.Identifier{s.predictionSchema, table}.Sanitize())

	start := time.Now()
	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		observe("top_predictions", start, err)
		return nil, fmt.Errorf("error reading predictions from %s: %w", table, err)
	}
	defer rows.Close()

	var predictions []prediction.Prediction
	for rows.Next() {
		var p prediction.Prediction
		err := rows.Scan(
			&p.UID,
			&p.Title,
			&p.Type,
			&p.Country,
			&p.Language,
			&p.IMDbRating,
			&p.TMDBPopularity,
			&p.TMDBVoteCount,
			&p.TMDBVoteAverage,
			&p.LogBudget,
			&p.LogRevenue,
			&p.ReleaseYear,
			&p.DurationVal,
			&p.PredictedViral,
			&p.ViralProb,
		)
		if err != nil {
			observe("top_predictions", start, err)
			return nil, fmt.Errorf("error scanning prediction: %w", err)
		}
		p.ViralProbability = toPercent(p.ViralProb)
		predictions = append(predictions, p)
	}
	err = rows.Err()
	observe("top_predictions", start, err)
	if err != nil {
		return nil, fmt.Errorf("error iterating predictions: %w", err)
	}

	if len(predictions) == 0 {
		return nil, nil
	}
	return &prediction.Ranking{Snapshot: table, Predictions: predictions}, nil
}

// AllTitles returns every distinct title in the feature table
func (s *PredictionStore) AllTitles(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT title
		FROM %s
		WHERE title IS NOT NULL
		ORDER BY title
	`, s.featureIdent())

	start := time.Now()
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		observe("all_titles", start, err)
		return nil, fmt.Errorf("error listing titles: %w", err)
	}
	defer rows.Close()

	titles := []string{}
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			observe("all_titles", start, err)
			return nil, fmt.Errorf("error scanning title: %w", err)
		}
		titles = append(titles, title)
	}
	err = rows.Err()
	observe("all_titles", start, err)
	if err != nil {
		return nil, fmt.Errorf("error iterating titles: %w", err)
	}

	return titles, nil
}

// TitleDetails returns the feature row for title, or nil when unknown
func (s *PredictionStore) TitleDetails(ctx context.Context, title string) (*prediction.TitleDetails, error) {
	query := fmt.Sprintf(`
		SELECT
			uid::text, title, type, country, language,
			release_year::int4,
			rating::float8 AS imdb_rating,
			genres,
			date_added::text,
			popularity::float8 AS tmdb_popularity,
			vote_count::float8 AS tmdb_vote_count,
			vote_average::float8 AS tmdb_vote_average,
			budget::int8, revenue::int8,
			weeks_on_top10::int4, best_rank::int4,
			on_top10_total_views::int8, on_top10_total_hours::int8,
			views_2023::int8, hours_2023::int8,
			views_2024::int8, hours_2024::int8,
			views_2025::int8, hours_2025::int8,
			future_viral_14d::int4
		FROM %s
		WHERE title = $1
		LIMIT 1
	`, s.featureIdent())

	var d prediction.TitleDetails
	start := time.Now()
	err := s.db.QueryRow(ctx, query, title).Scan(
		&d.UID,
		&d.Title,
		&d.Type,
		&d.Country,
		&d.Language,
		&d.ReleaseYear,
		&d.IMDbRating,
		&d.Genres,
		&d.DateAdded,
		&d.TMDBPopularity,
		&d.TMDBVoteCount,
		&d.TMDBVoteAverage,
		&d.Budget,
		&d.Revenue,
		&d.WeeksOnTop10,
		&d.BestRank,
		&d.OnTop10TotalViews,
		&d.OnTop10TotalHours,
		&d.Views2023,
		&d.Hours2023,
		&d.Views2024,
		&d.Hours2024,
		&d.Views2025,
		&d.Hours2025,
		&d.FutureViral14d,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		observe("title_details", start, nil)
		return nil, nil
	}
	observe("title_details", start, err)
	if err != nil {
		return nil, fmt.Errorf("error querying title %q: %w", title, err)
	}

	return &d, nil
}

// TitleViralRate returns the title's viral probability in percent from the
// latest snapshot, or nil when the title has no prediction.
func (s *PredictionStore) TitleViralRate(ctx context.Context, title string) (*float64, error) {
	query := fmt.Sprintf(`
		SELECT %s AS viral_prob
		FROM %s
		WHERE title = $1
		AND predicted_future_viral_14d_probs IS NOT NULL
		LIMIT 1
	`, viralProbExpr, pgx.Identifier{s.predictionSchema, s.latestTable}.Sanitize())

	var prob *float64
	start := time.Now()
	err := s.db.QueryRow(ctx, query, title).Scan(&prob)
	if errors.Is(err, pgx.ErrNoRows) {
		observe("title_viral_rate", start, nil)
		return nil, nil
	}
	observe("title_viral_rate", start, err)
	if err != nil {
		return nil, fmt.Errorf("error querying viral rate for %q: %w", title, err)
	}
	if prob == nil {
		return nil, nil
	}

	rate := toPercent(*prob)
	return &rate, nil
}

// Ping checks warehouse connectivity
func (s *PredictionStore) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.db.Ping(ctx)
	observe("ping", start, err)
	return err
}

func (s *PredictionStore) featureIdent() string {
	return pgx.Identifier{s.featureSchema, s.featureTable}.Sanitize()
}

// toPercent converts a probability to a percentage rounded to one decimal
func toPercent(p float64) float64 {
	return math.Round(p*1000) / 10
}
