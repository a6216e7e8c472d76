// internal/service/dashboard/service_test.go

package dashboard

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"viralboard/internal/cache"
	"viralboard/internal/domain/prediction"
	"viralboard/internal/domain/trend"
)

type fakeFetcher struct {
	tables map[string]*trend.Table
	err    error
	calls  int
}

func (f *fakeFetcher) Fetch(ctx context.Context, keywords []string, tf trend.Timeframe) (*trend.Table, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.tables[strings.Join(keywords, ",")], nil
}

type fakeSource struct {
	ranking   *prediction.Ranking
	rankErr   error
	titles    []string
	details   map[string]*prediction.TitleDetails
	rates     map[string]float64
	pingErr   error
	rankCalls int
}

func (f *fakeSource) TopPredictions(ctx context.Context, q prediction.Query) (*prediction.Ranking, error) {
	f.rankCalls++
	return f.ranking, f.rankErr
}

func (f *fakeSource) AllTitles(ctx context.Context) ([]string, error) {
	return f.titles, nil
}

func (f *fakeSource) TitleDetails(ctx context.Context, title string) (*prediction.TitleDetails, error) {
	return f.details[title], nil
}

func (f *fakeSource) TitleViralRate(ctx context.Context, title string) (*float64, error) {
	if r, ok := f.rates[title]; ok {
		return &r, nil
	}
	return nil, nil
}

func (f *fakeSource) Ping(ctx context.Context) error {
	return f.pingErr
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestService(fetcher trend.Fetcher, source prediction.Source) (*Service, *clock) {
	c := &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewService(fetcher, source, cache.NewMemoWithClock(c.Now), nil, DefaultConfig()), c
}

func rankingOf(titles ...string) *prediction.Ranking {
	r := &prediction.Ranking{Snapshot: "prediction_20250115"}
	for _, t := range titles {
		r.Predictions = append(r.Predictions, prediction.Prediction{Title: t})
	}
	return r
}

func trendTable(keywords []string, last []float64) *trend.Table {
	t := &trend.Table{
		Index:   []time.Time{time.Unix(0, 0), time.Unix(3600, 0)},
		Columns: keywords,
	}
	for i := range keywords {
		t.Data = append(t.Data, []float64{1, last[i]})
	}
	return t
}

func hasNotice(notices []Notice, level NoticeLevel) bool {
	for _, n := range notices {
		if n.Level == level {
			return true
		}
	}
	return false
}

func TestTopTrends_UsesTopPredictions(t *testing.T) {
	keywords := []string{"T1", "T2", "T3", "T4", "T5"}
	fetcher := &fakeFetcher{tables: map[string]*trend.Table{
		"T1,T2,T3,T4,T5": trendTable(keywords, []float64{10, 50, 30, 50, 0}),
	}}
	source := &fakeSource{ranking: rankingOf("T1", "T2", "T3", "T4", "T5", "T6", "T7")}
	svc, _ := newTestService(fetcher, source)

	panel := svc.TopTrends(context.Background())

	if panel.Source != SourcePredictions || panel.Snapshot != "prediction_20250115" {
		t.Errorf("source: got %q snapshot %q", panel.Source, panel.Snapshot)
	}
	if strings.Join(panel.Keywords, ",") != "T1,T2,T3,T4,T5" {
		t.Errorf("keywords: got %v", panel.Keywords)
	}
	if strings.Join(panel.Selected, ",") != "T1,T2,T3" {
		t.Errorf("selected: got %v", panel.Selected)
	}
	if panel.Timeframe != trend.LastSevenDays {
		t.Errorf("timeframe: got %q", panel.Timeframe)
	}
	if len(panel.Notices) != 0 {
		t.Errorf("unexpected notices: %+v", panel.Notices)
	}

	want := []string{"T2", "T4", "T3", "T1", "T5"}
	for i, score := range panel.Ranking {
		if score.Keyword != want[i] || score.Rank != i+1 {
			t.Errorf("rank %d: got %+v, want %s", i+1, score, want[i])
		}
	}
}

func TestTopTrends_MemoizedWithinTTL(t *testing.T) {
	keywords := []string{"T1", "T2"}
	fetcher := &fakeFetcher{tables: map[string]*trend.Table{
		"T1,T2": trendTable(keywords, []float64{1, 2}),
	}}
	source := &fakeSource{ranking: rankingOf("T1", "T2")}
	svc, clk := newTestService(fetcher, source)

	first := svc.TopTrends(context.Background())
	clk.now = clk.now.Add(30 * time.Minute)
	second := svc.TopTrends(context.Background())

	if fetcher.calls != 1 || source.rankCalls != 1 {
		t.Errorf("expected one upstream call each, got fetch=%d rank=%d", fetcher.calls, source.rankCalls)
	}
	if len(first.Ranking) != len(second.Ranking) || first.Ranking[0] != second.Ranking[0] {
		t.Errorf("memoized results differ: %+v vs %+v", first.Ranking, second.Ranking)
	}

	clk.now = clk.now.Add(31 * time.Minute)
	svc.TopTrends(context.Background())
	if fetcher.calls != 2 || source.rankCalls != 2 {
		t.Errorf("expected one refetch after expiry, got fetch=%d rank=%d", fetcher.calls, source.rankCalls)
	}
}

func TestTopTrends_FallsBackToDefaultTitles(t *testing.T) {
	fetcher := &fakeFetcher{}
	svc, _ := newTestService(fetcher, &fakeSource{})

	panel := svc.TopTrends(context.Background())

	if panel.Source != SourceDefault {
		t.Errorf("source: got %q", panel.Source)
	}
	if strings.Join(panel.Keywords, ",") != strings.Join(trend.DefaultKeywords[:5], ",") {
		t.Errorf("keywords: got %v", panel.Keywords)
	}
	if !hasNotice(panel.Notices, NoticeWarning) {
		t.Errorf("expected a fallback warning, got %+v", panel.Notices)
	}
	if panel.Table != nil {
		t.Error("expected no table when the fetcher has no data")
	}
}

func TestCompareTrends_DefaultsWhenNoKeywords(t *testing.T) {
	defaults := trend.DefaultComparison()
	fetcher := &fakeFetcher{tables: map[string]*trend.Table{
		strings.Join(defaults, ","): trendTable(defaults, []float64{5, 4, 3, 2, 1}),
	}}
	svc, _ := newTestService(fetcher, &fakeSource{})

	panel, err := svc.CompareTrends(context.Background(), nil, trend.LastMonth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if panel.Source != SourceDefault {
		t.Errorf("source: got %q", panel.Source)
	}
	if strings.Join(panel.Keywords, ",") != strings.Join(defaults, ",") {
		t.Errorf("keywords: got %v", panel.Keywords)
	}
	if !hasNotice(panel.Notices, NoticeInfo) {
		t.Errorf("expected an info notice, got %+v", panel.Notices)
	}
	if panel.Table == nil || len(panel.Ranking) != len(defaults) {
		t.Errorf("expected a ranked table, got %+v", panel.Ranking)
	}

	if _, err := svc.CompareTrends(context.Background(), []string{" ", ""}, trend.LastMonth); !errors.Is(err, trend.ErrNoKeywords) {
		t.Errorf("blank keywords: expected ErrNoKeywords, got %v", err)
	}
}

func TestTopTrends_PredictionErrorBecomesNotice(t *testing.T) {
	svc, _ := newTestService(&fakeFetcher{}, &fakeSource{rankErr: errors.New("permission denied")})

	panel := svc.TopTrends(context.Background())

	if !hasNotice(panel.Notices, NoticeError) || !hasNotice(panel.Notices, NoticeWarning) {
		t.Errorf("expected error and fallback notices, got %+v", panel.Notices)
	}
	if panel.Source != SourceDefault {
		t.Errorf("source: got %q", panel.Source)
	}
}

func TestTopTrends_FetchFailureIsNotMemoized(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("429 too many requests")}
	svc, _ := newTestService(fetcher, &fakeSource{ranking: rankingOf("T1")})

	panel := svc.TopTrends(context.Background())
	if !hasNotice(panel.Notices, NoticeError) {
		t.Errorf("expected error notice, got %+v", panel.Notices)
	}

	svc.TopTrends(context.Background())
	if fetcher.calls != 2 {
		t.Errorf("failed fetch should be retried, got %d calls", fetcher.calls)
	}
}

func TestCompareTrends_RejectsEmptyKeywords(t *testing.T) {
	svc, _ := newTestService(&fakeFetcher{}, &fakeSource{})
	if _, err := svc.CompareTrends(context.Background(), []string{" ", ""}, trend.LastMonth); !errors.Is(err, trend.ErrNoKeywords) {
		t.Errorf("expected ErrNoKeywords, got %v", err)
	}
}

func TestKeywordTrend_Summary(t *testing.T) {
	fetcher := &fakeFetcher{tables: map[string]*trend.Table{
		"Squid Game": {
			Index:   []time.Time{time.Unix(0, 0), time.Unix(1, 0), time.Unix(2, 0)},
			Columns: []string{"Squid Game"},
			Data:    [][]float64{{1, 2, 2}},
		},
	}}
	svc, _ := newTestService(fetcher, &fakeSource{})

	got, err := svc.KeywordTrend(context.Background(), "  Squid   Game ", trend.LastThreeMonths)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Keyword != "Squid Game" {
		t.Errorf("keyword: got %q", got.Keyword)
	}
	if got.Mean != 1.7 || got.Max != 2 {
		t.Errorf("summary: got mean=%v max=%v", got.Mean, got.Max)
	}
	if got.TimeframeLabel != "Last 3 months" {
		t.Errorf("label: got %q", got.TimeframeLabel)
	}
}

func TestKeywordTrend_NoDataWarns(t *testing.T) {
	svc, _ := newTestService(&fakeFetcher{}, &fakeSource{})

	got, err := svc.KeywordTrend(context.Background(), "Obscure", trend.LastSevenDays)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Table != nil || !hasNotice(got.Notices, NoticeWarning) {
		t.Errorf("expected warning without table, got %+v", got)
	}
}

func TestShowTrendScore_FailureScoresZero(t *testing.T) {
	svc, _ := newTestService(&fakeFetcher{err: errors.New("boom")}, &fakeSource{})
	if got := svc.ShowTrendScore(context.Background(), "Wednesday"); got != 0 {
		t.Errorf("got %v, want 0", got)
	}
}

func TestShowTrendScore_RoundsMean(t *testing.T) {
	fetcher := &fakeFetcher{tables: map[string]*trend.Table{
		"Wednesday": {
			Index:   []time.Time{time.Unix(0, 0), time.Unix(1, 0), time.Unix(2, 0)},
			Columns: []string{"Wednesday"},
			Data:    [][]float64{{40, 41, 41}},
		},
	}}
	svc, _ := newTestService(fetcher, &fakeSource{})

	if got := svc.ShowTrendScore(context.Background(), "Wednesday"); got != 40.7 {
		t.Errorf("got %v, want 40.7", got)
	}
	svc.ShowTrendScore(context.Background(), "Wednesday")
	if fetcher.calls != 1 {
		t.Errorf("expected memoized score, got %d calls", fetcher.calls)
	}
}

func TestTitles_CaseFoldedSearch(t *testing.T) {
	source := &fakeSource{titles: []string{"Dark", "Straße", "Stranger Things", "The Crown"}}
	svc, _ := newTestService(&fakeFetcher{}, source)

	got := svc.Titles(context.Background(), "STRASSE")
	if len(got.Titles) != 1 || got.Titles[0] != "Straße" {
		t.Errorf("fold search: got %v", got.Titles)
	}

	got = svc.Titles(context.Background(), "stranger")
	if len(got.Titles) != 1 || got.Titles[0] != "Stranger Things" {
		t.Errorf("substring search: got %v", got.Titles)
	}

	got = svc.Titles(context.Background(), "")
	if len(got.Titles) != 4 || got.Total != 4 {
		t.Errorf("unfiltered: got %v (total %d)", got.Titles, got.Total)
	}
}

func TestTitleDetail(t *testing.T) {
	source := &fakeSource{
		details: map[string]*prediction.TitleDetails{"Dark": {Title: "Dark"}},
		rates:   map[string]float64{"Dark": 12.5},
	}
	svc, _ := newTestService(&fakeFetcher{}, source)

	got, err := svc.TitleDetail(context.Background(), "Dark")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Details == nil || got.ViralRate == nil || *got.ViralRate != 12.5 {
		t.Errorf("got %+v", got)
	}

	if _, err := svc.TitleDetail(context.Background(), "Missing"); !errors.Is(err, prediction.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHealth_DegradedWhenWarehouseDown(t *testing.T) {
	svc, _ := newTestService(&fakeFetcher{}, &fakeSource{pingErr: errors.New("connection refused")})

	h := svc.Health(context.Background())
	if h.Status != "degraded" || h.Warehouse != "unavailable" {
		t.Errorf("got %+v", h)
	}
	if h.Events {
		t.Error("events should be disabled without a broker")
	}
}

func TestCleanKeywords(t *testing.T) {
	got := CleanKeywords([]string{" Dark ", "Dark", "", "The  Crown", "Café"})
	want := []string{"Dark", "The Crown", "Café"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("got %q, want %q", got, want)
	}
}
