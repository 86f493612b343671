package sync

import (
	stdsync "sync"
	"sync/atomic"

	"github.com/jchang/syncdesk/internal/models"
	"github.com/jchang/syncdesk/internal/queue"
)

// StatsAggregator maintains the SyncStats snapshot served to callers. Success
// and failure totals are running counters since process start; pending counts
// are recomputed from the queue. Reads never block a sync pass.
type StatsAggregator struct {
	queue *queue.Queue

	successful atomic.Int64
	failed     atomic.Int64

	mu     stdsync.RWMutex
	cached models.SyncStats
}

// NewStatsAggregator creates an aggregator over the given queue.
func NewStatsAggregator(q *queue.Queue) *StatsAggregator {
	return &StatsAggregator{queue: q}
}

// RecordSuccess counts one successfully replayed action.
func (s *StatsAggregator) RecordSuccess() {
	s.successful.Add(1)
}

// RecordFailure counts one terminally failed action. Retryable failures are
// not counted until the retry budget is exhausted.
func (s *StatsAggregator) RecordFailure() {
	s.failed.Add(1)
}

// Recompute refreshes the cached snapshot from the queue and returns it.
func (s *StatsAggregator) Recompute() (models.SyncStats, error) {
	counts, err := s.queue.CountByStatus()
	if err != nil {
		return s.Snapshot(), err
	}

	stats := models.SyncStats{
		TotalActions:    s.queue.TotalEnqueued(),
		SuccessfulSyncs: int(s.successful.Load()),
		FailedSyncs:     int(s.failed.Load()),
		PendingActions:  counts[models.ActionStatusPending] + counts[models.ActionStatusProcessing],
	}

	s.mu.Lock()
	s.cached = stats
	s.mu.Unlock()
	return stats, nil
}

// Snapshot returns the last computed stats without touching the store. Used
// when a sync is already in flight and the caller must not block.
func (s *StatsAggregator) Snapshot() models.SyncStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cached
}
