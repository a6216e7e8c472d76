// internal/domain/trend/model.go

package trend

import (
	"errors"
	"math"
	"sort"
	"time"
)

// MaxKeywordsPerRequest is the trend API's per-call keyword cap
const MaxKeywordsPerRequest = 5

var (
	ErrNoKeywords       = errors.New("no keywords requested")
	ErrTooManyKeywords  = errors.New("too many keywords for a single trend request")
	ErrInvalidTimeframe = errors.New("unsupported timeframe")
)

// Timeframe is a relative date range understood by the trend API
type Timeframe string

const (
	LastSevenDays    Timeframe = "now 7-d"
	LastMonth        Timeframe = "today 1-m"
	LastThreeMonths  Timeframe = "today 3-m"
	LastTwelveMonths Timeframe = "today 12-m"
)

// Timeframes lists the supported timeframes in display order
var Timeframes = []Timeframe{LastSevenDays, LastMonth, LastThreeMonths, LastTwelveMonths}

var timeframeLabels = map[Timeframe]string{
	LastSevenDays:    "Last 7 days",
	LastMonth:        "Last 1 month",
	LastThreeMonths:  "Last 3 months",
	LastTwelveMonths: "Last 12 months",
}

// ParseTimeframe validates s. An empty string selects LastSevenDays.
func ParseTimeframe(s string) (Timeframe, error) {
	if s == "" {
		return LastSevenDays, nil
	}
	tf := Timeframe(s)
	if _, ok := timeframeLabels[tf]; !ok {
		return "", ErrInvalidTimeframe
	}
	return tf, nil
}

// Label returns a human readable name
func (tf Timeframe) Label() string {
	return timeframeLabels[tf]
}

// DefaultKeywords is the built-in popular title list used when no
// predictions are available
var DefaultKeywords = []string{
	"Stranger Things", "Wednesday", "Squid Game", "The Crown", "Bridgerton",
	"Black Mirror", "Money Heist", "Ozark", "The Witcher", "Lucifer",
}

// DefaultComparison returns the first MaxKeywordsPerRequest default titles,
// the comparison used when a caller names no keywords
func DefaultComparison() []string {
	return append([]string(nil), DefaultKeywords[:MaxKeywordsPerRequest]...)
}

// Table is a timestamp-indexed set of interest series, one column per keyword.
// Data[c][r] is the value of column c at Index[r].
type Table struct {
	Index   []time.Time `json:"index"`
	Columns []string    `json:"columns"`
	Data    [][]float64 `json:"data"`
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Index)
}

// Empty reports whether the table has no rows or no columns
func (t *Table) Empty() bool {
	return t == nil || len(t.Index) == 0 || len(t.Columns) == 0
}

// Column returns the values for name
func (t *Table) Column(name string) ([]float64, bool) {
	if t == nil {
		return nil, false
	}
	for i, c := range t.Columns {
		if c == name {
			return t.Data[i], true
		}
	}
	return nil, false
}

// HasColumn reports whether name is a column
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// Mean returns the arithmetic mean of a column, or 0 when absent or empty
func (t *Table) Mean(name string) float64 {
	values, ok := t.Column(name)
	if !ok || len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Max returns the largest value of a column, or 0 when absent or empty
func (t *Table) Max(name string) float64 {
	values, ok := t.Column(name)
	if !ok || len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// Scale returns a copy with every value multiplied by factor
func (t *Table) Scale(factor float64) *Table {
	out := &Table{
		Index:   append([]time.Time(nil), t.Index...),
		Columns: append([]string(nil), t.Columns...),
		Data:    make([][]float64, len(t.Data)),
	}
	for c, col := range t.Data {
		scaled := make([]float64, len(col))
		for r, v := range col {
			scaled[r] = v * factor
		}
		out.Data[c] = scaled
	}
	return out
}

// Drop returns a copy without the named column
func (t *Table) Drop(name string) *Table {
	out := &Table{Index: append([]time.Time(nil), t.Index...)}
	for i, c := range t.Columns {
		if c == name {
			continue
		}
		out.Columns = append(out.Columns, c)
		out.Data = append(out.Data, append([]float64(nil), t.Data[i]...))
	}
	return out
}

// Select returns a copy restricted to names, in that order. Names that are
// not columns become all-zero columns.
func (t *Table) Select(names []string) *Table {
	out := &Table{
		Index:   append([]time.Time(nil), t.Index...),
		Columns: append([]string(nil), names...),
		Data:    make([][]float64, len(names)),
	}
	for i, name := range names {
		if values, ok := t.Column(name); ok {
			out.Data[i] = append([]float64(nil), values...)
		} else {
			out.Data[i] = make([]float64, len(t.Index))
		}
	}
	return out
}

// Score is one keyword's value in a ranking
type Score struct {
	Rank    int     `json:"rank"`
	Keyword string  `json:"keyword"`
	Value   float64 `json:"value"`
}

// LatestRanking ranks keywords by their value in the last row. Keywords
// without a column score 0. Ties keep keyword order.
func (t *Table) LatestRanking(keywords []string) []Score {
	scores := make([]Score, len(keywords))
	last := t.Len() - 1
	for i, kw := range keywords {
		v := 0.0
		if values, ok := t.Column(kw); ok && last >= 0 {
			v = values[last]
			if math.IsNaN(v) {
				v = 0
			}
		}
		scores[i] = Score{Keyword: kw, Value: v}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Value > scores[j].Value
	})
	for i := range scores {
		scores[i].Rank = i + 1
	}
	return scores
}

// Batch is one trend API call's keyword set
type Batch struct {
	Keywords []string
	Anchor   string
}

// PlanBatches splits keywords into API-sized batches. The first batch holds
// the first five keywords; every later batch repeats the anchor (the first
// keyword) followed by up to four unseen keywords.
func PlanBatches(keywords []string) []Batch {
	if len(keywords) == 0 {
		return nil
	}
	anchor := keywords[0]
	if len(keywords) <= MaxKeywordsPerRequest {
		return []Batch{{Keywords: append([]string(nil), keywords...), Anchor: anchor}}
	}

	batches := []Batch{{Keywords: append([]string(nil), keywords[:MaxKeywordsPerRequest]...), Anchor: anchor}}
	step := MaxKeywordsPerRequest - 1
	for idx := MaxKeywordsPerRequest; idx < len(keywords); idx += step {
		end := idx + step
		if end > len(keywords) {
			end = len(keywords)
		}
		batch := append([]string{anchor}, keywords[idx:end]...)
		batches = append(batches, Batch{Keywords: batch, Anchor: anchor})
	}
	return batches
}
