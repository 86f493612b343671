// Package sync replays queued actions against the remote API. The engine is
// single-flight: at most one sync pass runs at a time, and actions targeting
// the same entity are replayed strictly in enqueue order.
package sync

import (
	"context"
	stdsync "sync"

	"golang.org/x/sync/errgroup"

	"github.com/jchang/syncdesk/internal/connectivity"
	"github.com/jchang/syncdesk/internal/docs"
	"github.com/jchang/syncdesk/internal/errors"
	"github.com/jchang/syncdesk/internal/logging"
	"github.com/jchang/syncdesk/internal/models"
	"github.com/jchang/syncdesk/internal/queue"
	"github.com/jchang/syncdesk/internal/remote"
)

// DefaultConcurrency bounds how many entity groups are replayed in parallel.
const DefaultConcurrency = 4

// ClientFunc resolves the remote client for a sync pass. Resolution happens
// per pass so credential changes take effect without restarting the engine.
type ClientFunc func() (remote.Client, error)

// EventHandler receives engine lifecycle notifications. Implementations must
// not block; the engine calls them inline during the sync pass.
type EventHandler interface {
	OnSyncStarted()
	OnActionCompleted(action *models.Action)
	OnActionFailed(action *models.Action, terminal bool, cause error)
	OnConflict(documentID string)
	OnSyncFinished(stats models.SyncStats)
}

type noopHandler struct{}

func (noopHandler) OnSyncStarted()                             {}
func (noopHandler) OnActionCompleted(*models.Action)           {}
func (noopHandler) OnActionFailed(*models.Action, bool, error) {}
func (noopHandler) OnConflict(string)                          {}
func (noopHandler) OnSyncFinished(models.SyncStats)            {}

// Engine drains the action queue against the remote API.
type Engine struct {
	queue       *queue.Queue
	docs        *docs.Repository
	monitor     *connectivity.Monitor
	stats       *StatsAggregator
	clientFn    ClientFunc
	events      EventHandler
	concurrency int

	// mu guards the single-flight flag. A TriggerSync that arrives while a
	// pass is running returns the cached stats instead of joining the pass.
	mu      stdsync.Mutex
	syncing bool
}

// NewEngine creates a sync engine. concurrency <= 0 selects the default.
func NewEngine(q *queue.Queue, d *docs.Repository, m *connectivity.Monitor,
	stats *StatsAggregator, clientFn ClientFunc, concurrency int) *Engine {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Engine{
		queue:       q,
		docs:        d,
		monitor:     m,
		stats:       stats,
		clientFn:    clientFn,
		events:      noopHandler{},
		concurrency: concurrency,
	}
}

// SetEventHandler installs the lifecycle handler. Call before the first sync.
func (e *Engine) SetEventHandler(h EventHandler) {
	if h != nil {
		e.events = h
	}
}

// IsSyncing reports whether a sync pass is currently running.
func (e *Engine) IsSyncing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncing
}

// Stats returns the engine's stats aggregator.
func (e *Engine) Stats() *StatsAggregator {
	return e.stats
}

// RetryFailedActions resets all terminally failed actions to pending and
// immediately runs a sync pass over them. Retry counts are preserved, so
// another failure makes them terminal again right away.
func (e *Engine) RetryFailedActions(ctx context.Context) (models.SyncStats, error) {
	if _, err := e.queue.RetryAllFailed(); err != nil {
		return e.stats.Snapshot(), err
	}
	return e.TriggerSync(ctx)
}

// TriggerSync runs one sync pass and returns the resulting stats.
//
// It is a no-op while offline and single-flight while online: a concurrent
// call returns the current (possibly stale) stats immediately rather than
// starting a second pass or waiting for the running one.
func (e *Engine) TriggerSync(ctx context.Context) (models.SyncStats, error) {
	e.mu.Lock()
	if e.syncing {
		e.mu.Unlock()
		return e.stats.Snapshot(), nil
	}
	e.syncing = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.syncing = false
		e.mu.Unlock()
	}()

	if !e.monitor.IsOnline() {
		logging.Debug("Sync skipped: offline", nil)
		stats, _ := e.stats.Recompute()
		return stats, nil
	}

	client, err := e.clientFn()
	if err != nil {
		stats, _ := e.stats.Recompute()
		return stats, err
	}

	e.events.OnSyncStarted()
	logging.Info("Sync pass started", nil)

	// Each entity's actions replay strictly in order inside one goroutine;
	// different entities replay concurrently. An entity whose head action is
	// still in its backoff window is skipped whole, so order holds across
	// passes too.
	groups, err := e.queue.ReadyGroups()
	if err != nil {
		return e.stats.Snapshot(), err
	}

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for _, group := range groups {
		group := group
		g.Go(func() error {
			return e.drainGroup(ctx, client, group)
		})
	}
	drainErr := g.Wait()

	stats, statsErr := e.stats.Recompute()
	if drainErr == nil {
		drainErr = statsErr
	}

	e.events.OnSyncFinished(stats)
	logging.Info("Sync pass finished",
		map[string]interface{}{
			"pending": stats.PendingActions,
			"failed":  stats.FailedSyncs,
		})

	return stats, drainErr
}

// drainGroup replays one entity's actions in order. A terminal failure lets
// the rest of the group proceed; an action that goes back to pending stops
// the group so FIFO order is preserved for the next pass.
func (e *Engine) drainGroup(ctx context.Context, client remote.Client, group []*models.Action) error {
	for _, action := range group {
		if err := ctx.Err(); err != nil {
			return err
		}

		proceed, err := e.processAction(ctx, client, action)
		if err != nil {
			return err
		}
		if !proceed {
			return nil
		}
	}
	return nil
}

// processAction replays a single action. The returned bool tells the caller
// whether the rest of the entity group may proceed; the error is reserved for
// local storage failures, which abort the pass.
func (e *Engine) processAction(ctx context.Context, client remote.Client, action *models.Action) (bool, error) {
	a, err := e.queue.MarkProcessing(action.ID.String())
	if err != nil {
		return false, err
	}

	ack, callErr := e.dispatch(ctx, client, a)
	if callErr == nil {
		return true, e.completeAction(a, ack)
	}

	if errors.Retryable(callErr) {
		status, err := e.queue.MarkFailed(a.ID.String(), true, callErr)
		if err != nil {
			return false, err
		}
		if status == models.ActionStatusPending {
			// Backoff scheduled. Stop the group here: replaying a later
			// action for this entity would break FIFO order.
			e.events.OnActionFailed(a, false, callErr)
			return false, nil
		}
		e.stats.RecordFailure()
		e.events.OnActionFailed(a, true, callErr)
		return true, nil
	}

	// Non-retryable: validation rejection or version conflict. Replaying
	// cannot succeed until the underlying data changes, so the action fails
	// without burning retries and the document is flagged for resolution.
	if a.EntityType == models.EntityDocument {
		if err := e.docs.MarkConflict(a.EntityID); err != nil {
			return false, err
		}
		if errors.Is(callErr, errors.ErrSyncConflict) {
			e.events.OnConflict(a.EntityID)
		}
	}
	if _, err := e.queue.MarkFailed(a.ID.String(), false, callErr); err != nil {
		return false, err
	}
	e.stats.RecordFailure()
	e.events.OnActionFailed(a, true, callErr)
	return true, nil
}

// completeAction records a successful replay: the action leaves the queue and
// the affected document (if any) becomes synced at the acknowledged version.
func (e *Engine) completeAction(a *models.Action, ack *remote.Ack) error {
	if err := e.queue.MarkCompleted(a.ID.String()); err != nil {
		return err
	}

	if a.EntityType == models.EntityDocument && a.Type != models.ActionDelete {
		if err := e.docs.MarkSynced(a.EntityID, ack.Version); err != nil {
			return err
		}
	}

	e.stats.RecordSuccess()
	e.events.OnActionCompleted(a)
	return nil
}

// dispatch invokes the remote call matching the action type. A payload that
// fails to decode is a non-retryable failure: it will never decode better on
// a retry.
func (e *Engine) dispatch(ctx context.Context, client remote.Client, a *models.Action) (*remote.Ack, error) {
	switch a.Type {
	case models.ActionCreate:
		p, err := a.DocumentPayloadOf()
		if err != nil {
			return nil, errors.Wrap(errors.ErrSyncNonRetryable, "bad action payload", err)
		}
		return client.CreateDocument(ctx, *p)

	case models.ActionUpdate:
		p, err := a.DocumentPayloadOf()
		if err != nil {
			return nil, errors.Wrap(errors.ErrSyncNonRetryable, "bad action payload", err)
		}
		return client.UpdateDocument(ctx, *p)

	case models.ActionDelete:
		return client.DeleteDocument(ctx, a.EntityID)

	case models.ActionFormSubmission:
		p, err := a.FormPayloadOf()
		if err != nil {
			return nil, errors.Wrap(errors.ErrSyncNonRetryable, "bad action payload", err)
		}
		return client.SubmitForm(ctx, *p)

	case models.ActionDocumentUpload:
		p, err := a.UploadPayloadOf()
		if err != nil {
			return nil, errors.Wrap(errors.ErrSyncNonRetryable, "bad action payload", err)
		}
		return client.UploadDocument(ctx, *p)

	default:
		return nil, errors.New(errors.ErrSyncNonRetryable, "unknown action type: "+string(a.Type))
	}
}
