// internal/adapter/googletrends/retry.go

package googletrends

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// retryable reports whether err is worth another attempt: throttling,
// server errors and transport failures are, other statuses and decode
// errors are not.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	var de *decodeError
	return !errors.As(err, &de)
}

// decodeError marks a response that arrived but could not be parsed
type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// withRetry runs fn up to MaxRetries+1 times, doubling the delay between
// attempts.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	delay := c.cfg.RetryDelay
	var err error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			c.log.Debug().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("retrying trend request")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		if err = fn(); err == nil || !retryable(err) {
			return err
		}
	}
	return err
}
