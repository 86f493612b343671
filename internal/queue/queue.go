// Package queue provides the durable action queue for offline mutations.
// Every queued action survives process restarts; retry bookkeeping and
// backoff scheduling live here so the sync engine stays a pure consumer.
package queue

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jchang/syncdesk/internal/db"
	"github.com/jchang/syncdesk/internal/errors"
	"github.com/jchang/syncdesk/internal/logging"
	"github.com/jchang/syncdesk/internal/models"
	"github.com/jchang/syncdesk/internal/uuid"
)

// Config tunes retry budgets and backoff. A zero BackoffBase disables the
// delay so failed actions become eligible again immediately; a zero
// MaxRetries falls back to models.DefaultMaxRetries.
type Config struct {
	MaxRetries  int
	BackoffBase time.Duration
	BackoffCap  time.Duration
}

// DefaultConfig returns the default queue configuration.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  models.DefaultMaxRetries,
		BackoffBase: 30 * time.Second,
		BackoffCap:  time.Hour,
	}
}

// Queue is the ordered, durable holding area for pending mutations.
type Queue struct {
	store *db.Store
	cfg   Config

	// mu serializes status transitions so two sync passes can never race
	// the same action through markProcessing.
	mu sync.Mutex

	// totalEnqueued counts actions enqueued since process start. SyncStats
	// approximates "all ever enqueued" with this running counter.
	totalEnqueued atomic.Int64

	nowFn func() time.Time
}

// New creates a Queue backed by the given store.
func New(store *db.Store, cfg Config) *Queue {
	return &Queue{
		store: store,
		cfg:   cfg,
		nowFn: time.Now,
	}
}

// Request describes an action to enqueue. ID, status and retry bookkeeping
// are assigned by the queue.
type Request struct {
	Type       models.ActionType
	EntityType models.EntityType
	EntityID   string
	Payload    []byte
	MaxRetries int // 0 means the queue's configured budget
}

// Enqueue persists a new pending action and returns it. Insertion order is
// preserved for actions sharing the same entity ID.
func (q *Queue) Enqueue(req Request) (*models.Action, error) {
	if !models.ValidActionType(req.Type) {
		return nil, errors.New(errors.ErrActionInvalid, "unknown action type: "+string(req.Type))
	}
	if !models.ValidEntityType(req.EntityType) {
		return nil, errors.New(errors.ErrActionInvalid, "unknown entity type: "+string(req.EntityType))
	}
	if req.EntityID == "" {
		return nil, errors.New(errors.ErrActionInvalid, "entity ID is required")
	}

	maxRetries := req.MaxRetries
	if maxRetries <= 0 {
		maxRetries = q.cfg.MaxRetries
	}
	if maxRetries <= 0 {
		maxRetries = models.DefaultMaxRetries
	}

	now := q.nowFn().Unix()
	action := &models.Action{
		ID:         models.UUID(uuid.New()),
		Type:       req.Type,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Payload:    req.Payload,
		RetryCount: 0,
		MaxRetries: maxRetries,
		Status:     models.ActionStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := q.store.InsertAction(action); err != nil {
		return nil, err
	}

	q.totalEnqueued.Add(1)

	logging.Debug("Enqueued action",
		map[string]interface{}{
			"action_id":   action.ID,
			"action_type": action.Type,
			"entity_id":   action.EntityID,
		})

	return action, nil
}

// ListPending returns all pending actions ordered by created_at ascending,
// including actions still inside their backoff window. Eligibility is decided
// per entity group in ReadyGroups, never per action.
func (q *Queue) ListPending() ([]*models.Action, error) {
	return q.store.ListActions(models.ActionStatusPending)
}

// ReadyGroups partitions the pending actions into per-entity FIFO groups and
// returns only the groups whose head action is eligible now. A head still in
// its backoff window holds back its whole group: replaying a later action
// while the head waits would break per-entity ordering.
func (q *Queue) ReadyGroups() ([][]*models.Action, error) {
	pending, err := q.ListPending()
	if err != nil {
		return nil, err
	}

	now := q.nowFn().Unix()
	groups := GroupByEntity(pending)
	ready := groups[:0]
	for _, group := range groups {
		if group[0].NextRetryAt <= now {
			ready = append(ready, group)
		}
	}
	return ready, nil
}

// ListByStatus returns all actions in the given statuses (all when empty).
func (q *Queue) ListByStatus(statuses ...models.ActionStatus) ([]*models.Action, error) {
	return q.store.ListActions(statuses...)
}

// GroupByEntity partitions actions into per-entity groups, preserving the
// global order within each group and ordering groups by their oldest action.
// Replay order across different entities is unspecified; within one entity
// it is strict FIFO.
func GroupByEntity(actions []*models.Action) [][]*models.Action {
	index := make(map[string]int)
	var groups [][]*models.Action

	for _, a := range actions {
		i, ok := index[a.EntityID]
		if !ok {
			i = len(groups)
			index[a.EntityID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], a)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i][0].CreatedAt < groups[j][0].CreatedAt
	})
	return groups
}

// MarkProcessing transitions a pending action to processing. Calling it on
// an action that is not pending is a programming error and panics: it means
// two sync passes are racing the same action.
func (q *Queue) MarkProcessing(id string) (*models.Action, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	action, err := q.store.GetAction(id)
	if err != nil {
		return nil, err
	}

	errors.MustTransition(action.Status == models.ActionStatusPending,
		"markProcessing on action %s in status %s", id, action.Status)

	action.Status = models.ActionStatusProcessing
	action.UpdatedAt = q.nowFn().Unix()
	if err := q.store.UpdateAction(action); err != nil {
		return nil, err
	}
	return action, nil
}

// MarkCompleted removes a successfully replayed action from the queue.
// Completed actions are not archived.
func (q *Queue) MarkCompleted(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	action, err := q.store.GetAction(id)
	if err != nil {
		return err
	}

	errors.MustTransition(action.Status == models.ActionStatusProcessing,
		"markCompleted on action %s in status %s", id, action.Status)

	return q.store.DeleteAction(id)
}

// MarkFailed records a failed replay attempt.
//
// With incrementRetry (retryable failure): while the retry budget lasts the
// action returns to pending with its next attempt delayed by capped
// exponential backoff; once retryCount reaches maxRetries and the replay
// still fails, the action becomes terminally failed.
//
// Without incrementRetry (non-retryable failure): the action becomes failed
// immediately without consuming the budget.
//
// Returns the action's resulting status.
func (q *Queue) MarkFailed(id string, incrementRetry bool, cause error) (models.ActionStatus, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	action, err := q.store.GetAction(id)
	if err != nil {
		return "", err
	}

	now := q.nowFn()
	action.UpdatedAt = now.Unix()
	if cause != nil {
		action.LastError = cause.Error()
	}

	if incrementRetry && !action.RetriesExhausted() {
		action.RetryCount++
		action.Status = models.ActionStatusPending
		action.NextRetryAt = now.Add(q.backoff(action.RetryCount)).Unix()

		logging.Debug("Action scheduled for retry",
			map[string]interface{}{
				"action_id":   action.ID,
				"retry_count": action.RetryCount,
				"max_retries": action.MaxRetries,
			})
	} else {
		action.Status = models.ActionStatusFailed
		action.NextRetryAt = 0

		logging.Warn("Action failed terminally",
			map[string]interface{}{
				"action_id":   action.ID,
				"retry_count": action.RetryCount,
				"error":       action.LastError,
			})
	}

	if err := q.store.UpdateAction(action); err != nil {
		return "", err
	}
	return action.Status, nil
}

// backoff computes the delay before retry attempt n (n >= 1).
func (q *Queue) backoff(n int) time.Duration {
	if q.cfg.BackoffBase <= 0 {
		return 0
	}
	d := q.cfg.BackoffBase << uint(n-1)
	if q.cfg.BackoffCap > 0 && d > q.cfg.BackoffCap {
		d = q.cfg.BackoffCap
	}
	return d
}

// Remove deletes an action regardless of status.
func (q *Queue) Remove(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.store.DeleteAction(id)
}

// RetryAllFailed resets all failed actions to pending without touching their
// retry counts, clearing any backoff delay. Returns the number reset.
func (q *Queue) RetryAllFailed() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	failed, err := q.store.ListActions(models.ActionStatusFailed)
	if err != nil {
		return 0, err
	}

	now := q.nowFn().Unix()
	count := 0
	for _, action := range failed {
		action.Status = models.ActionStatusPending
		action.NextRetryAt = 0
		action.UpdatedAt = now
		if err := q.store.UpdateAction(action); err != nil {
			return count, err
		}
		count++
	}

	if count > 0 {
		logging.Info("Reset failed actions for retry",
			map[string]interface{}{"count": count})
	}
	return count, nil
}

// CountByStatus returns the number of actions per status.
func (q *Queue) CountByStatus() (map[models.ActionStatus]int, error) {
	return q.store.CountActionsByStatus()
}

// TotalEnqueued returns the running count of actions enqueued since start.
func (q *Queue) TotalEnqueued() int {
	return int(q.totalEnqueued.Load())
}
