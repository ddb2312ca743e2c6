// internal/app/system/workers/sweeper.go
package workers

import (
	"sync"
	"time"

	"github.com/dalemusser/eventportal/internal/app/system/ttlstore"
	"go.uber.org/zap"
)

// Sweeper is a background worker that evicts expired entries from an
// in-memory TTL store (token blacklist, rate-limit counters).
type Sweeper struct {
	name     string
	store    ttlstore.Sweeper
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSweeper creates a sweeper for store.
//
// Parameters:
//   - name: label used in log lines ("blacklist", "ratelimit")
//   - store: the store to sweep
//   - logger: zap logger for logging
//   - interval: how often to sweep (hourly for the blacklist, five minutes for counters)
func NewSweeper(name string, store ttlstore.Sweeper, logger *zap.Logger, interval time.Duration) *Sweeper {
	return &Sweeper{
		name:     name,
		store:    store,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Interval reports how often the sweeper runs.
func (w *Sweeper) Interval() time.Duration { return w.interval }

// Start begins the background sweep loop.
func (w *Sweeper) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("sweeper started",
		zap.String("store", w.name),
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish. Safe to call twice.
func (w *Sweeper) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("sweeper stopped", zap.String("store", w.name))
}

func (w *Sweeper) run() {
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

func (w *Sweeper) sweep() {
	if n := w.store.Sweep(); n > 0 {
		w.log.Debug("swept expired entries", zap.String("store", w.name), zap.Int("count", n))
	}
}
