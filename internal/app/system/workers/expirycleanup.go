// internal/app/system/workers/expirycleanup.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Expirer removes records whose window closed before now. The cooldown and
// reset-token stores implement it.
type Expirer interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ExpiryCleanup sweeps expired records on a fixed interval. Mongo's TTL
// monitor does the same job eventually; the sweep keeps the window tight
// and makes the removals visible in the logs.
type ExpiryCleanup struct {
	targets  map[string]Expirer
	log      *zap.Logger
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewExpiryCleanup creates the worker. targets is keyed by a name used in
// log lines, e.g. "cooldowns".
func NewExpiryCleanup(targets map[string]Expirer, logger *zap.Logger, interval time.Duration) *ExpiryCleanup {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ExpiryCleanup{
		targets:  targets,
		log:      logger,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *ExpiryCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("expiry cleanup worker started",
		zap.Duration("interval", w.interval),
		zap.Int("targets", len(w.targets)))
}

// Stop signals the worker and waits for it. Safe to call more than once.
func (w *ExpiryCleanup) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("expiry cleanup worker stopped")
}

func (w *ExpiryCleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

// sweep runs one pass over every target and returns the total removed.
func (w *ExpiryCleanup) sweep() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := w.now()
	var total int64
	for name, t := range w.targets {
		n, err := t.DeleteExpired(ctx, now)
		if err != nil {
			w.log.Error("failed to delete expired records", zap.String("target", name), zap.Error(err))
			continue
		}
		if n > 0 {
			w.log.Info("deleted expired records", zap.String("target", name), zap.Int64("count", n))
		}
		total += n
	}
	return total
}
