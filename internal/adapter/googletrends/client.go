// internal/adapter/googletrends/client.go

package googletrends

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"viralboard/internal/domain/trend"
	"viralboard/internal/logging"
	"viralboard/internal/metrics"
)

const (
	explorePath   = "/trends/api/explore"
	multilinePath = "/trends/api/widgetdata/multiline"
	timeseriesID  = "TIMESERIES"
	userAgent     = "viralboard/1.0"
)

// Config contains configuration for the trend API client
type Config struct {
	BaseURL           string
	Language          string
	TZOffset          int
	Geo               string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
	RetryDelay        time.Duration
}

// Client implements trend.API against the public trends endpoints
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[*trend.Table]
	warmup     sync.Once
	log        zerolog.Logger
}

// statusError carries a non-200 response status
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("trend API returned status %d: %s", e.code, e.body)
}

// NewClient creates a new trend API client
func NewClient(cfg Config) *Client {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}

	// cookiejar.New only fails on a bad PublicSuffixList, and none is passed.
	jar, _ := cookiejar.New(nil)

	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Jar:     jar,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		log:     logging.With("trend_api"),
	}

	name := "trend-api"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	c.breaker = gobreaker.NewCircuitBreaker[*trend.Table](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return c
}

// InterestOverTime returns relative interest (0-100) for up to five keywords.
// A nil table with a nil error means the API had no data.
func (c *Client) InterestOverTime(ctx context.Context, keywords []string, tf trend.Timeframe) (*trend.Table, error) {
	if len(keywords) == 0 {
		return nil, trend.ErrNoKeywords
	}
	if len(keywords) > trend.MaxKeywordsPerRequest {
		return nil, fmt.Errorf("%w: %d > %d", trend.ErrTooManyKeywords, len(keywords), trend.MaxKeywordsPerRequest)
	}

	table, err := c.breaker.Execute(func() (*trend.Table, error) {
		var out *trend.Table
		err := c.withRetry(ctx, func() error {
			var err error
			out, err = c.interestOverTime(ctx, keywords, tf)
			return err
		})
		return out, err
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.TrendRequests.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("trend API unavailable: %w", err)
	case err != nil:
		metrics.TrendRequests.WithLabelValues("failure").Inc()
		return nil, err
	case table == nil:
		metrics.TrendRequests.WithLabelValues("empty").Inc()
		return nil, nil
	}

	metrics.TrendRequests.WithLabelValues("success").Inc()
	return table, nil
}

type comparisonItem struct {
	Keyword string `json:"keyword"`
	Time    string `json:"time"`
	Geo     string `json:"geo"`
}

type exploreRequest struct {
	ComparisonItem []comparisonItem `json:"comparisonItem"`
	Category       int              `json:"category"`
	Property       string           `json:"property"`
}

type exploreResponse struct {
	Widgets []struct {
		ID      string          `json:"id"`
		Token   string          `json:"token"`
		Request json.RawMessage `json:"request"`
	} `json:"widgets"`
}

type multilineResponse struct {
	Default struct {
		TimelineData []struct {
			Time      string        `json:"time"`
			Value     []interface{} `json:"value"`
			IsPartial bool          `json:"isPartial"`
		} `json:"timelineData"`
	} `json:"default"`
}

func (c *Client) interestOverTime(ctx context.Context, keywords []string, tf trend.Timeframe) (*trend.Table, error) {
	c.warmup.Do(func() { c.fetchCookies(ctx) })

	items := make([]comparisonItem, len(keywords))
	for i, kw := range keywords {
		items[i] = comparisonItem{Keyword: kw, Time: string(tf), Geo: c.cfg.Geo}
	}
	payload, err := json.Marshal(exploreRequest{ComparisonItem: items, Property: ""})
	if err != nil {
		return nil, fmt.Errorf("failed to encode explore request: %w", err)
	}

	var explore exploreResponse
	if err := c.getJSON(ctx, explorePath, url.Values{"req": {string(payload)}}, &explore); err != nil {
		return nil, fmt.Errorf("explore request failed: %w", err)
	}

	var token string
	var widgetReq json.RawMessage
	for _, w := range explore.Widgets {
		if w.ID == timeseriesID {
			token, widgetReq = w.Token, w.Request
			break
		}
	}
	if token == "" {
		return nil, fmt.Errorf("explore response has no %s widget", timeseriesID)
	}

	var series multilineResponse
	params := url.Values{"req": {string(widgetReq)}, "token": {token}}
	if err := c.getJSON(ctx, multilinePath, params, &series); err != nil {
		return nil, fmt.Errorf("interest over time request failed: %w", err)
	}

	points := series.Default.TimelineData
	if len(points) == 0 {
		return nil, nil
	}

	table := &trend.Table{
		Columns: append([]string(nil), keywords...),
		Data:    make([][]float64, len(keywords)),
	}
	seen := make(map[int64]bool, len(points))
	for _, p := range points {
		secs, err := strconv.ParseInt(p.Time, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q: %w", p.Time, err)
		}
		if seen[secs] {
			continue
		}
		seen[secs] = true

		table.Index = append(table.Index, time.Unix(secs, 0).UTC())
		for i := range keywords {
			v := 0.0
			if i < len(p.Value) {
				v = toFloat(p.Value[i])
			}
			table.Data[i] = append(table.Data[i], v)
		}
	}

	return table, nil
}

// fetchCookies primes the cookie jar the explore endpoint expects. Failure
// is not fatal; the explore call reports its own errors.
func (c *Client) fetchCookies(ctx context.Context) {
	u := c.cfg.BaseURL + "/?geo=" + url.QueryEscape(c.cfg.Geo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Msg("cookie warm-up failed")
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	params.Set("hl", c.cfg.Language)
	params.Set("tz", strconv.Itoa(c.cfg.TZOffset))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return &statusError{code: resp.StatusCode, body: snippet}
	}

	payload, err := stripPrefix(body)
	if err != nil {
		return &decodeError{err: err}
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return &decodeError{err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// stripPrefix removes the anti-JSON-hijacking prefix (")]}'") that precedes
// every payload.
func stripPrefix(body []byte) ([]byte, error) {
	for i, b := range body {
		if b == '{' {
			return body[i:], nil
		}
	}
	return nil, errors.New("malformed response: no JSON object found")
}

// toFloat coerces a decoded JSON value; anything non-numeric becomes 0
func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	}
	return 0
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
