// internal/service/dashboard/service.go

package dashboard

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"viralboard/internal/adapter/events"
	"viralboard/internal/cache"
	"viralboard/internal/domain/prediction"
	"viralboard/internal/domain/trend"
	"viralboard/internal/logging"
)

// Config contains configuration for the dashboard service
type Config struct {
	TrendsTTL           time.Duration
	PredictionsTTL      time.Duration
	TitleLookupTTL      time.Duration
	ModelPerformanceTTL time.Duration

	// TopTitles is how many predicted titles feed the trend panel
	TopTitles int
	// DefaultSelection is how many panel keywords are pre-selected for charts
	DefaultSelection int
}

// DefaultConfig returns the default dashboard configuration
func DefaultConfig() Config {
	return Config{
		TrendsTTL:           time.Hour,
		PredictionsTTL:      time.Hour,
		TitleLookupTTL:      30 * time.Minute,
		ModelPerformanceTTL: 24 * time.Hour,
		TopTitles:           5,
		DefaultSelection:    3,
	}
}

// Service assembles dashboard views from the prediction warehouse and the
// trend fetcher. Every upstream call goes through the memo table.
type Service struct {
	fetcher trend.Fetcher
	source  prediction.Source
	memo    *cache.Memo
	events  *events.Publisher
	cfg     Config
	log     zerolog.Logger
}

// NewService creates a new dashboard service
func NewService(
	fetcher trend.Fetcher,
	source prediction.Source,
	memo *cache.Memo,
	publisher *events.Publisher,
	cfg Config,
) *Service {
	if cfg.TopTitles <= 0 {
		cfg.TopTitles = 5
	}
	if cfg.DefaultSelection <= 0 {
		cfg.DefaultSelection = 3
	}
	return &Service{
		fetcher: fetcher,
		source:  source,
		memo:    memo,
		events:  publisher,
		cfg:     cfg,
		log:     logging.With("dashboard"),
	}
}

// TrendPanel is a multi-keyword comparison with its latest-row ranking
type TrendPanel struct {
	Keywords       []string        `json:"keywords"`
	Source         string          `json:"source"`
	Snapshot       string          `json:"snapshot,omitempty"`
	Timeframe      trend.Timeframe `json:"timeframe"`
	TimeframeLabel string          `json:"timeframe_label"`
	Selected       []string        `json:"selected"`
	Table          *trend.Table    `json:"table"`
	Ranking        []trend.Score   `json:"ranking"`
	Notices        []Notice        `json:"notices"`
}

// Panel keyword sources
const (
	SourcePredictions = "predictions"
	SourceDefault     = "default"
	SourceCustom      = "custom"
)

// TopTrends builds the headline panel: the top predicted titles, or the
// built-in list when no predictions are available, compared over the last
// seven days.
func (s *Service) TopTrends(ctx context.Context) TrendPanel {
	panel := TrendPanel{Source: SourcePredictions, Notices: []Notice{}}

	ranking, err := s.topPredictions(ctx, prediction.Query{})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to read predictions")
		panel.Notices = append(panel.Notices, failure("failed to read predictions: %v", err))
	}

	keywords := ranking.Titles(s.cfg.TopTitles)
	if len(keywords) == 0 {
		n := s.cfg.TopTitles
		if n > len(trend.DefaultKeywords) {
			n = len(trend.DefaultKeywords)
		}
		keywords = append([]string(nil), trend.DefaultKeywords[:n]...)
		panel.Source = SourceDefault
		panel.Notices = append(panel.Notices, warning("no predictions available, showing default titles"))
	} else {
		panel.Snapshot = ranking.Snapshot
	}

	s.fillPanel(ctx, &panel, keywords, trend.LastSevenDays)
	return panel
}

// CompareTrends builds a panel for caller-chosen keywords. A nil keyword
// list compares trend.DefaultComparison; a list with nothing but blanks is
// trend.ErrNoKeywords.
func (s *Service) CompareTrends(ctx context.Context, keywords []string, tf trend.Timeframe) (TrendPanel, error) {
	panel := TrendPanel{Source: SourceCustom, Notices: []Notice{}}

	if keywords == nil {
		keywords = trend.DefaultComparison()
		panel.Source = SourceDefault
		panel.Notices = append(panel.Notices, info("no titles chosen, comparing popular titles"))
	}
	keywords = CleanKeywords(keywords)
	if len(keywords) == 0 {
		return TrendPanel{}, trend.ErrNoKeywords
	}

	s.fillPanel(ctx, &panel, keywords, tf)
	return panel, nil
}

func (s *Service) fillPanel(ctx context.Context, panel *TrendPanel, keywords []string, tf trend.Timeframe) {
	panel.Keywords = keywords
	panel.Timeframe = tf
	panel.TimeframeLabel = tf.Label()
	panel.Selected = keywords
	if len(keywords) > s.cfg.DefaultSelection {
		panel.Selected = keywords[:s.cfg.DefaultSelection]
	}

	table, err := s.trends(ctx, keywords, tf)
	switch {
	case err != nil:
		s.log.Error().Err(err).Strs("keywords", keywords).Msg("trend fetch failed")
		panel.Notices = append(panel.Notices, failure("trend API error: %v", err))
	case table == nil:
		panel.Notices = append(panel.Notices, warning("no trend data for the selected titles"))
	default:
		panel.Table = table
		panel.Ranking = table.LatestRanking(keywords)
	}
}

// KeywordTrend is one keyword's series with summary figures
type KeywordTrend struct {
	Keyword        string          `json:"keyword"`
	Timeframe      trend.Timeframe `json:"timeframe"`
	TimeframeLabel string          `json:"timeframe_label"`
	Table          *trend.Table    `json:"table"`
	Mean           float64         `json:"mean"`
	Max            float64         `json:"max"`
	Notices        []Notice        `json:"notices"`
}

// KeywordTrend fetches a single keyword over tf
func (s *Service) KeywordTrend(ctx context.Context, keyword string, tf trend.Timeframe) (KeywordTrend, error) {
	keyword = CleanKeyword(keyword)
	if keyword == "" {
		return KeywordTrend{}, trend.ErrNoKeywords
	}

	out := KeywordTrend{
		Keyword:        keyword,
		Timeframe:      tf,
		TimeframeLabel: tf.Label(),
		Notices:        []Notice{},
	}

	table, err := s.trends(ctx, []string{keyword}, tf)
	switch {
	case err != nil:
		s.log.Error().Err(err).Str("keyword", keyword).Msg("keyword trend fetch failed")
		out.Notices = append(out.Notices, failure("trend API error: %v", err))
	case table == nil:
		out.Notices = append(out.Notices, warning("no data for %q", keyword))
	default:
		out.Table = table
		out.Mean = round1(table.Mean(keyword))
		out.Max = table.Max(keyword)
	}
	return out, nil
}

// ShowTrendScore returns the mean last-seven-days interest for title,
// rounded to one decimal. Failures and missing data score 0.
func (s *Service) ShowTrendScore(ctx context.Context, title string) float64 {
	title = CleanKeyword(title)
	if title == "" {
		return 0
	}

	score, _, err := cache.Do(s.memo, "trends.score", s.cfg.TitleLookupTTL, []interface{}{title},
		func() (float64, error) {
			table, err := s.fetcher.Fetch(ctx, []string{title}, trend.LastSevenDays)
			if err != nil {
				return 0, err
			}
			return round1(table.Mean(title)), nil
		})
	if err != nil {
		s.log.Warn().Err(err).Str("title", title).Msg("trend score unavailable")
		return 0
	}
	return score
}

// PredictionList is a ranked prediction read
type PredictionList struct {
	Ranking *prediction.Ranking `json:"ranking"`
	Notices []Notice            `json:"notices"`
}

// TopPredictions reads the ranked predictions for q
func (s *Service) TopPredictions(ctx context.Context, q prediction.Query) PredictionList {
	out := PredictionList{Notices: []Notice{}}

	ranking, err := s.topPredictions(ctx, q)
	switch {
	case err != nil:
		s.log.Error().Err(err).Msg("failed to read predictions")
		out.Notices = append(out.Notices, failure("failed to read predictions: %v", err))
	case ranking == nil:
		out.Notices = append(out.Notices, warning("no predictions available"))
	default:
		out.Ranking = ranking
	}
	return out
}

// TitleList is the searchable title catalogue
type TitleList struct {
	Query   string   `json:"query,omitempty"`
	Titles  []string `json:"titles"`
	Total   int      `json:"total"`
	Notices []Notice `json:"notices"`
}

// Titles lists known titles, filtered by a case-insensitive substring when
// query is non-empty.
func (s *Service) Titles(ctx context.Context, query string) TitleList {
	out := TitleList{Query: CleanKeyword(query), Titles: []string{}, Notices: []Notice{}}

	titles, _, err := cache.Do(s.memo, "titles.all", s.cfg.PredictionsTTL, nil,
		func() ([]string, error) {
			return s.source.AllTitles(ctx)
		})
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list titles")
		out.Notices = append(out.Notices, failure("failed to list titles: %v", err))
		return out
	}

	out.Total = len(titles)
	if out.Query == "" {
		out.Titles = titles
		return out
	}

	fold := cases.Fold()
	needle := fold.String(out.Query)
	for _, title := range titles {
		if strings.Contains(fold.String(norm.NFC.String(title)), needle) {
			out.Titles = append(out.Titles, title)
		}
	}
	return out
}

// TitleDetail is a title's feature row and its predicted viral rate
type TitleDetail struct {
	Details    *prediction.TitleDetails `json:"details"`
	ViralRate  *float64                 `json:"viral_rate"`
	TrendScore float64                  `json:"trend_score"`
	Notices    []Notice                 `json:"notices"`
}

// TitleDetail returns details for title, or prediction.ErrNotFound when the
// warehouse has no row for it.
func (s *Service) TitleDetail(ctx context.Context, title string) (TitleDetail, error) {
	title = strings.TrimSpace(title)
	out := TitleDetail{Notices: []Notice{}}

	details, _, err := cache.Do(s.memo, "titles.details", s.cfg.TitleLookupTTL, []interface{}{title},
		func() (*prediction.TitleDetails, error) {
			return s.source.TitleDetails(ctx, title)
		})
	if err != nil {
		s.log.Error().Err(err).Str("title", title).Msg("title lookup failed")
		out.Notices = append(out.Notices, failure("lookup failed: %v", err))
		return out, nil
	}
	if details == nil {
		return out, prediction.ErrNotFound
	}
	out.Details = details

	rate, _, err := cache.Do(s.memo, "titles.viral_rate", s.cfg.TitleLookupTTL, []interface{}{title},
		func() (*float64, error) {
			return s.source.TitleViralRate(ctx, title)
		})
	if err != nil {
		s.log.Warn().Err(err).Str("title", title).Msg("viral rate lookup failed")
		out.Notices = append(out.Notices, warning("viral rate unavailable"))
	}
	out.ViralRate = rate
	out.TrendScore = s.ShowTrendScore(ctx, title)

	return out, nil
}

// FeatureImportance returns the model's feature importances
func (s *Service) FeatureImportance() []prediction.FeatureImportance {
	fi, _, _ := cache.Do(s.memo, "model.features", s.cfg.PredictionsTTL, nil,
		func() ([]prediction.FeatureImportance, error) {
			return prediction.FeatureImportances(), nil
		})
	return fi
}

// ModelPerformance returns evaluation figures per model
func (s *Service) ModelPerformance() map[string]prediction.ModelMetrics {
	perf, _, _ := cache.Do(s.memo, "model.performance", s.cfg.ModelPerformanceTTL, nil,
		func() (map[string]prediction.ModelMetrics, error) {
			return prediction.ModelPerformance(), nil
		})
	return perf
}

// Estimate scores a hypothetical title
func (s *Service) Estimate(in prediction.EstimateInput) prediction.Estimate {
	return prediction.EstimateTitle(in)
}

// Health reports dependency status
type Health struct {
	Status       string    `json:"status"`
	Warehouse    string    `json:"warehouse"`
	Events       bool      `json:"events"`
	CacheEntries int       `json:"cache_entries"`
	Time         time.Time `json:"time"`
}

// Health pings the warehouse
func (s *Service) Health(ctx context.Context) Health {
	h := Health{
		Status:       "ok",
		Warehouse:    "ok",
		Events:       s.events.Enabled(),
		CacheEntries: s.memo.Len(),
		Time:         time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := s.source.Ping(ctx); err != nil {
		s.log.Warn().Err(err).Msg("warehouse ping failed")
		h.Status = "degraded"
		h.Warehouse = "unavailable"
	}
	return h
}

func (s *Service) trends(ctx context.Context, keywords []string, tf trend.Timeframe) (*trend.Table, error) {
	table, hit, err := cache.Do(s.memo, "trends.fetch", s.cfg.TrendsTTL, []interface{}{keywords, tf},
		func() (*trend.Table, error) {
			return s.fetcher.Fetch(ctx, keywords, tf)
		})
	if err == nil && !hit && table != nil {
		s.publish(events.Event{
			Type:      events.TypeTrendsRefreshed,
			Keywords:  keywords,
			Timeframe: string(tf),
			Rows:      table.Len(),
		})
	}
	return table, err
}

func (s *Service) topPredictions(ctx context.Context, q prediction.Query) (*prediction.Ranking, error) {
	date := ""
	if q.Date != nil {
		date = q.Date.Format("2006-01-02")
	}
	ranking, hit, err := cache.Do(s.memo, "predictions.top", s.cfg.PredictionsTTL, []interface{}{date, q.Lookback, q.Limit},
		func() (*prediction.Ranking, error) {
			return s.source.TopPredictions(ctx, q)
		})
	if err == nil && !hit && ranking != nil {
		s.publish(events.Event{
			Type:     events.TypePredictionsRefreshed,
			Snapshot: ranking.Snapshot,
			Rows:     len(ranking.Predictions),
		})
	}
	return ranking, err
}

func (s *Service) publish(evt events.Event) {
	if err := s.events.Publish(evt); err != nil {
		s.log.Warn().Err(err).Str("type", evt.Type).Msg("failed to publish event")
	}
}

// CleanKeyword normalizes a user-entered keyword: NFC form, surrounding
// space trimmed, inner whitespace runs collapsed.
func CleanKeyword(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// CleanKeywords cleans each keyword and drops empties and repeats
func CleanKeywords(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = CleanKeyword(kw)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
