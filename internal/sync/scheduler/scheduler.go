// Package scheduler drives background sync: a periodic pass while online, a
// stats refresh tick, and an immediate pass whenever connectivity returns.
package scheduler

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/jchang/syncdesk/internal/connectivity"
	"github.com/jchang/syncdesk/internal/logging"
	"github.com/jchang/syncdesk/internal/sync"
)

// Config tunes the scheduler intervals. Zero intervals disable the
// corresponding ticker.
type Config struct {
	SyncInterval  time.Duration
	StatsInterval time.Duration
}

// DefaultConfig returns the default scheduler intervals.
func DefaultConfig() Config {
	return Config{
		SyncInterval:  5 * time.Minute,
		StatsInterval: 30 * time.Second,
	}
}

// Scheduler owns the background goroutine that triggers sync passes.
type Scheduler struct {
	engine  *sync.Engine
	monitor *connectivity.Monitor
	cfg     Config

	stopCh   chan struct{}
	stopOnce stdsync.Once
	wg       stdsync.WaitGroup
	subID    int

	// kick wakes the loop for an immediate pass, used on reconnect. Buffered
	// so the connectivity callback never blocks.
	kick chan struct{}
}

// New creates a scheduler. Call Start to begin background syncing.
func New(engine *sync.Engine, monitor *connectivity.Monitor, cfg Config) *Scheduler {
	return &Scheduler{
		engine:  engine,
		monitor: monitor,
		cfg:     cfg,
		stopCh:  make(chan struct{}),
		kick:    make(chan struct{}, 1),
	}
}

// Start launches the background loop and subscribes to connectivity
// transitions so a reconnect triggers an immediate sync pass.
func (s *Scheduler) Start(ctx context.Context) {
	s.subID = s.monitor.Subscribe(func(state connectivity.State) {
		if state.Online {
			select {
			case s.kick <- struct{}{}:
			default:
			}
		}
	})

	s.wg.Add(1)
	go s.run(ctx)

	logging.Info("Sync scheduler started",
		map[string]interface{}{
			"sync_interval":  s.cfg.SyncInterval.String(),
			"stats_interval": s.cfg.StatsInterval.String(),
		})
}

// Stop halts the background loop and waits for an in-flight pass to finish.
// Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.monitor.Unsubscribe(s.subID)
		close(s.stopCh)
	})
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	syncTicker := newTicker(s.cfg.SyncInterval)
	defer syncTicker.Stop()
	statsTicker := newTicker(s.cfg.StatsInterval)
	defer statsTicker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-s.kick:
			s.trigger(ctx)
		case <-syncTicker.C:
			s.trigger(ctx)
		case <-statsTicker.C:
			if _, err := s.engine.Stats().Recompute(); err != nil {
				logging.Warn("Stats refresh failed",
					map[string]interface{}{"error": err.Error()})
			}
		}
	}
}

func (s *Scheduler) trigger(ctx context.Context) {
	if !s.monitor.IsOnline() {
		return
	}
	if _, err := s.engine.TriggerSync(ctx); err != nil {
		logging.Warn("Background sync pass failed",
			map[string]interface{}{"error": err.Error()})
	}
}

// newTicker returns a ticker that never fires when the interval is zero.
func newTicker(d time.Duration) *time.Ticker {
	if d <= 0 {
		t := time.NewTicker(time.Hour)
		t.Stop()
		return t
	}
	return time.NewTicker(d)
}
