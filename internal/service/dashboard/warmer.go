// internal/service/dashboard/warmer.go

package dashboard

import (
	"context"
	"sync"
	"time"
)

// Warmer periodically rebuilds the headline trend panel so the first
// visitor after an expiry does not wait on the trend API. Ticks that land
// inside the TTL are memo hits.
type Warmer struct {
	svc      *Service
	interval time.Duration
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewWarmer creates a new warmer
func NewWarmer(svc *Service, interval time.Duration) *Warmer {
	return &Warmer{
		svc:      svc,
		interval: interval,
	}
}

// Start runs one warm-up immediately and then one per interval until Stop
func (w *Warmer) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		w.warm(ctx)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.warm(ctx)
			}
		}
	}()
}

func (w *Warmer) warm(ctx context.Context) {
	panel := w.svc.TopTrends(ctx)
	w.svc.log.Debug().
		Str("source", panel.Source).
		Int("keywords", len(panel.Keywords)).
		Int("notices", len(panel.Notices)).
		Msg("trend panel warmed")
}

// Stop signals the loop and waits for it to finish or for ctx to expire
func (w *Warmer) Stop(ctx context.Context) error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()

	c := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(c)
	}()

	select {
	case <-c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
