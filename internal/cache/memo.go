// internal/cache/memo.go

// Package cache provides the memoization service used by the dashboard.
// Entries map (function identity, argument tuple) to a value with an expiry
// time. Expired entries are removed lazily on access; nothing runs in the
// background.
package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"viralboard/internal/metrics"
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Memo is a process-wide TTL memoization table
type Memo struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemo creates an empty memo table using the wall clock
func NewMemo() *Memo {
	return NewMemoWithClock(time.Now)
}

// NewMemoWithClock creates an empty memo table with an injected clock
func NewMemoWithClock(now func() time.Time) *Memo {
	return &Memo{
		entries: make(map[string]entry),
		now:     now,
	}
}

// Key builds the lookup key for a function identity and its arguments
func Key(function string, args ...interface{}) string {
	encoded, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%s|%#v", function, args)
	}
	return function + "|" + string(encoded)
}

// Get returns the cached value for key. An expired entry is evicted and
// reported as a miss.
func (m *Memo) Get(key string) (interface{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl
func (m *Memo) Set(key string, value interface{}, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry{value: value, expiresAt: m.now().Add(ttl)}
}

// Len returns the number of stored entries, expired or not
func (m *Memo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Do returns the memoized result of compute for (function, args), calling
// compute on a miss. Errors are returned to the caller and never stored, so
// the next call retries. The boolean reports a cache hit.
func Do[T any](m *Memo, function string, ttl time.Duration, args []interface{}, compute func() (T, error)) (T, bool, error) {
	key := Key(function, args...)

	if cached, ok := m.Get(key); ok {
		if v, ok := cached.(T); ok {
			metrics.CacheLookups.WithLabelValues(function, "hit").Inc()
			return v, true, nil
		}
	}
	metrics.CacheLookups.WithLabelValues(function, "miss").Inc()

	v, err := compute()
	if err != nil {
		var zero T
		return zero, false, err
	}

	m.Set(key, v, ttl)
	return v, false, nil
}
