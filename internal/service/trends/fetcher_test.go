// internal/service/trends/fetcher_test.go

package trends

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"viralboard/internal/domain/trend"
)

type fakeAPI struct {
	responses map[string]*trend.Table
	errs      map[string]error
	calls     [][]string
}

func (f *fakeAPI) InterestOverTime(ctx context.Context, keywords []string, tf trend.Timeframe) (*trend.Table, error) {
	f.calls = append(f.calls, append([]string(nil), keywords...))
	key := strings.Join(keywords, ",")
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	return f.responses[key], nil
}

var base = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func hours(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = base.Add(time.Duration(i) * time.Hour)
	}
	return out
}

func table(index []time.Time, cols map[string][]float64, order ...string) *trend.Table {
	t := &trend.Table{Index: index}
	for _, name := range order {
		t.Columns = append(t.Columns, name)
		t.Data = append(t.Data, cols[name])
	}
	return t
}

func column(t *testing.T, tbl *trend.Table, name string) []float64 {
	t.Helper()
	values, ok := tbl.Column(name)
	if !ok {
		t.Fatalf("missing column %q in %v", name, tbl.Columns)
	}
	return values
}

func assertValues(t *testing.T, name string, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %v, want %v", name, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s[%d]: got %v, want %v", name, i, got[i], want[i])
		}
	}
}

var sevenKeywords = []string{"A", "B", "C", "D", "E", "F", "G"}

func batchOne() *trend.Table {
	return table(hours(3), map[string][]float64{
		"A": {10, 20, 30},
		"B": {1, 1, 1},
		"C": {2, 2, 2},
		"D": {3, 3, 3},
		"E": {4, 4, 4},
	}, "A", "B", "C", "D", "E")
}

func TestFetch_RescalesLaterBatchesByAnchor(t *testing.T) {
	api := &fakeAPI{responses: map[string]*trend.Table{
		"A,B,C,D,E": batchOne(),
		"A,F,G": table(hours(3), map[string][]float64{
			"A": {5, 10, 15},
			"F": {1, 2, 3},
			"G": {4, 4, 4},
		}, "A", "F", "G"),
	}}

	got, err := NewBatchFetcher(api).Fetch(context.Background(), sevenKeywords, trend.LastSevenDays)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected a table")
	}

	if len(api.calls) != 2 {
		t.Fatalf("expected 2 API calls, got %d", len(api.calls))
	}
	if strings.Join(got.Columns, ",") != "A,B,C,D,E,F,G" {
		t.Errorf("columns: got %v", got.Columns)
	}
	if got.Len() != 3 {
		t.Fatalf("rows: got %d, want 3", got.Len())
	}

	// scale = mean(10,20,30) / mean(5,10,15) = 2
	assertValues(t, "A", column(t, got, "A"), []float64{10, 20, 30})
	assertValues(t, "F", column(t, got, "F"), []float64{2, 4, 6})
	assertValues(t, "G", column(t, got, "G"), []float64{8, 8, 8})
}

func TestFetch_OuterMergeFillsMissingRowsWithZero(t *testing.T) {
	api := &fakeAPI{responses: map[string]*trend.Table{
		"A,B,C,D,E": batchOne(),
		"A,F,G": table(hours(4), map[string][]float64{
			"A": {20, 20, 20, 20},
			"F": {10, 10, 10, 10},
			"G": {0, 0, 0, 50},
		}, "A", "F", "G"),
	}}

	got, err := NewBatchFetcher(api).Fetch(context.Background(), sevenKeywords, trend.LastSevenDays)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Len() != 4 {
		t.Fatalf("rows: got %d, want 4", got.Len())
	}
	if !got.Index[3].Equal(base.Add(3 * time.Hour)) {
		t.Errorf("last timestamp: got %v", got.Index[3])
	}

	// scale = 20 / 20 = 1
	assertValues(t, "A", column(t, got, "A"), []float64{10, 20, 30, 0})
	assertValues(t, "F", column(t, got, "F"), []float64{10, 10, 10, 10})
	assertValues(t, "G", column(t, got, "G"), []float64{0, 0, 0, 50})
}

func TestFetch_ZeroAnchorMeanZeroesBatch(t *testing.T) {
	api := &fakeAPI{responses: map[string]*trend.Table{
		"A,B,C,D,E": batchOne(),
		"A,F,G": table(hours(3), map[string][]float64{
			"A": {0, 0, 0},
			"F": {50, 60, 70},
			"G": {1, 2, 3},
		}, "A", "F", "G"),
	}}

	got, err := NewBatchFetcher(api).Fetch(context.Background(), sevenKeywords, trend.LastSevenDays)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertValues(t, "F", column(t, got, "F"), []float64{0, 0, 0})
	assertValues(t, "G", column(t, got, "G"), []float64{0, 0, 0})
}

func TestFetch_EmptyLaterBatchIsZeroFilled(t *testing.T) {
	api := &fakeAPI{responses: map[string]*trend.Table{
		"A,B,C,D,E": batchOne(),
	}}

	got, err := NewBatchFetcher(api).Fetch(context.Background(), sevenKeywords, trend.LastSevenDays)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Columns) != 7 {
		t.Fatalf("columns: got %v", got.Columns)
	}
	assertValues(t, "F", column(t, got, "F"), []float64{0, 0, 0})
	assertValues(t, "B", column(t, got, "B"), []float64{1, 1, 1})
}

func TestFetch_EmptyFirstBatchHasNoBaseline(t *testing.T) {
	api := &fakeAPI{responses: map[string]*trend.Table{
		"A,F,G": table(hours(3), map[string][]float64{
			"A": {5, 10, 15},
			"F": {1, 2, 3},
			"G": {4, 4, 4},
		}, "A", "F", "G"),
	}}

	got, err := NewBatchFetcher(api).Fetch(context.Background(), sevenKeywords, trend.LastSevenDays)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil table, got %v", got.Columns)
	}
}

func TestFetch_AllBatchesEmpty(t *testing.T) {
	api := &fakeAPI{}

	got, err := NewBatchFetcher(api).Fetch(context.Background(), sevenKeywords, trend.LastSevenDays)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil table, got %+v", got)
	}
	if len(api.calls) != 2 {
		t.Errorf("expected every batch to be attempted, got %d calls", len(api.calls))
	}
}

func TestFetch_PropagatesAPIError(t *testing.T) {
	quota := errors.New("quota exceeded")
	api := &fakeAPI{
		responses: map[string]*trend.Table{"A,B,C,D,E": batchOne()},
		errs:      map[string]error{"A,F,G": quota},
	}

	got, err := NewBatchFetcher(api).Fetch(context.Background(), sevenKeywords, trend.LastSevenDays)
	if !errors.Is(err, quota) {
		t.Fatalf("expected quota error, got %v", err)
	}
	if got != nil {
		t.Error("expected no table on error")
	}
}

func TestFetch_SingleBatchReordersAndSorts(t *testing.T) {
	unsorted := []time.Time{base.Add(2 * time.Hour), base, base.Add(time.Hour)}
	api := &fakeAPI{responses: map[string]*trend.Table{
		"A,B,C": table(unsorted, map[string][]float64{
			"C": {3, 1, 2},
			"A": {30, 10, 20},
		}, "C", "A"),
	}}

	got, err := NewBatchFetcher(api).Fetch(context.Background(), []string{"A", "B", "C"}, trend.LastSevenDays)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(got.Columns, ",") != "A,B,C" {
		t.Errorf("columns: got %v", got.Columns)
	}
	if !got.Index[0].Equal(base) {
		t.Errorf("rows not sorted: first is %v", got.Index[0])
	}
	assertValues(t, "A", column(t, got, "A"), []float64{10, 20, 30})
	assertValues(t, "B", column(t, got, "B"), []float64{0, 0, 0})
	assertValues(t, "C", column(t, got, "C"), []float64{1, 2, 3})
}

func TestFetch_SingleBatchEmptyIsAbsent(t *testing.T) {
	api := &fakeAPI{responses: map[string]*trend.Table{
		"A": {Columns: []string{"A"}, Data: [][]float64{{}}},
	}}

	got, err := NewBatchFetcher(api).Fetch(context.Background(), []string{"A"}, trend.LastSevenDays)
	if err != nil || got != nil {
		t.Errorf("expected (nil, nil), got (%v, %v)", got, err)
	}
}

func TestFetch_DefaultsToPopularTitles(t *testing.T) {
	defaults := trend.DefaultComparison()
	cols := make(map[string][]float64, len(defaults))
	for i, kw := range defaults {
		cols[kw] = []float64{float64(i + 1)}
	}
	api := &fakeAPI{responses: map[string]*trend.Table{
		strings.Join(defaults, ","): table(hours(1), cols, defaults...),
	}}

	got, err := NewBatchFetcher(api).Fetch(context.Background(), nil, trend.LastSevenDays)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected a table for the default titles")
	}
	if len(api.calls) != 1 || len(api.calls[0]) != trend.MaxKeywordsPerRequest {
		t.Errorf("API calls: got %v", api.calls)
	}
	if strings.Join(got.Columns, ",") != strings.Join(defaults, ",") {
		t.Errorf("columns: got %v, want %v", got.Columns, defaults)
	}
	assertValues(t, defaults[4], column(t, got, defaults[4]), []float64{5})
}

func TestFetch_BlankKeywords(t *testing.T) {
	api := &fakeAPI{}
	_, err := NewBatchFetcher(api).Fetch(context.Background(), []string{"", ""}, trend.LastSevenDays)
	if !errors.Is(err, trend.ErrNoKeywords) {
		t.Errorf("expected ErrNoKeywords, got %v", err)
	}
	if len(api.calls) != 0 {
		t.Errorf("no API call expected, got %v", api.calls)
	}
}

func TestFetch_DuplicateKeywordsQueriedOnce(t *testing.T) {
	api := &fakeAPI{responses: map[string]*trend.Table{
		"A,B": table(hours(1), map[string][]float64{"A": {1}, "B": {2}}, "A", "B"),
	}}

	got, err := NewBatchFetcher(api).Fetch(context.Background(), []string{"A", "B", "A"}, trend.LastSevenDays)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(api.calls[0], ",") != "A,B" {
		t.Errorf("API called with %v", api.calls[0])
	}
	if strings.Join(got.Columns, ",") != "A,B,A" {
		t.Errorf("columns: got %v, want [A B A]", got.Columns)
	}
	assertValues(t, "A", got.Data[2], []float64{1})
}
