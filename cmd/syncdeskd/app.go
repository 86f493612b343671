package main

import (
	"net/http"
	"os"

	"github.com/jchang/syncdesk/cmd/syncdeskd/handlers"
	"github.com/jchang/syncdesk/internal/config"
	"github.com/jchang/syncdesk/internal/connectivity"
	"github.com/jchang/syncdesk/internal/db"
	"github.com/jchang/syncdesk/internal/docs"
	"github.com/jchang/syncdesk/internal/queue"
	"github.com/jchang/syncdesk/internal/remote"
	syncpkg "github.com/jchang/syncdesk/internal/sync"
	"github.com/jchang/syncdesk/internal/sync/scheduler"
)

// app wires the data layer together for the daemon commands.
type app struct {
	cfg       *config.Config
	database  *db.DB
	store     *db.Store
	queue     *queue.Queue
	docs      *docs.Repository
	monitor   *connectivity.Monitor
	engine    *syncpkg.Engine
	scheduler *scheduler.Scheduler
	hub       *Hub
	machineID string
}

func newApp(cfg *config.Config) (*app, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	database.SetQuota(cfg.QuotaBytes)

	migrator := db.NewMigrator(database.DB)
	if err := migrator.Initialize(); err != nil {
		database.Close()
		return nil, err
	}
	if err := migrator.Up(); err != nil {
		database.Close()
		return nil, err
	}

	store := db.NewStore(database)
	q := queue.New(store, queue.Config{
		MaxRetries:  cfg.Sync.MaxRetries,
		BackoffBase: cfg.Sync.BackoffBase,
		BackoffCap:  cfg.Sync.BackoffCap,
	})
	repo := docs.NewRepository(store, q)

	// The daemon assumes online until a platform integration reports
	// otherwise; a dead network just surfaces as retryable sync failures.
	monitor := connectivity.NewMonitor(true)

	machineID := machineID()
	timeouts := remote.Timeouts{
		Create: cfg.Sync.RequestTimeout,
		Update: cfg.Sync.RequestTimeout,
		Delete: cfg.Sync.RequestTimeout,
		Form:   cfg.Sync.RequestTimeout,
		Upload: cfg.Sync.UploadTimeout,
	}
	clientFn := func() (remote.Client, error) {
		cred, err := store.GetRemoteCredential()
		if err != nil {
			return nil, err
		}
		return remote.NewFromCredential(cred, machineID, timeouts)
	}

	stats := syncpkg.NewStatsAggregator(q)
	engine := syncpkg.NewEngine(q, repo, monitor, stats, clientFn, cfg.Sync.Concurrency)

	hub := NewHub()
	engine.SetEventHandler(hub)

	sched := scheduler.New(engine, monitor, scheduler.Config{
		SyncInterval:  cfg.Sync.SyncInterval,
		StatsInterval: cfg.Sync.StatsInterval,
	})

	return &app{
		cfg:       cfg,
		database:  database,
		store:     store,
		queue:     q,
		docs:      repo,
		monitor:   monitor,
		engine:    engine,
		scheduler: sched,
		hub:       hub,
		machineID: machineID,
	}, nil
}

func (a *app) Close() {
	a.store.Close()
	a.database.Close()
}

func (a *app) routes() http.Handler {
	mux := http.NewServeMux()

	docHandler := handlers.NewDocumentHandler(a.docs)
	mux.HandleFunc("POST /api/v1/documents", docHandler.Create)
	mux.HandleFunc("GET /api/v1/documents", docHandler.List)
	mux.HandleFunc("GET /api/v1/documents/{id}", docHandler.Get)
	mux.HandleFunc("PATCH /api/v1/documents/{id}", docHandler.Update)
	mux.HandleFunc("DELETE /api/v1/documents/{id}", docHandler.Delete)
	mux.HandleFunc("POST /api/v1/documents/{id}/resolve", docHandler.ResolveConflict)

	syncHandler := handlers.NewSyncHandler(a.engine, a.queue, a.store, a.monitor, a.machineID)
	mux.HandleFunc("POST /api/v1/sync/now", syncHandler.TriggerSync)
	mux.HandleFunc("POST /api/v1/sync/retry-failed", syncHandler.RetryFailed)
	mux.HandleFunc("GET /api/v1/sync/stats", syncHandler.GetStats)
	mux.HandleFunc("GET /api/v1/sync/status", syncHandler.GetStatus)
	mux.HandleFunc("GET /api/v1/sync/credentials", syncHandler.GetCredentials)
	mux.HandleFunc("POST /api/v1/sync/credentials", syncHandler.SetCredentials)
	mux.HandleFunc("DELETE /api/v1/sync/credentials", syncHandler.DeleteCredentials)
	mux.HandleFunc("POST /api/v1/connectivity", syncHandler.SetConnectivity)

	actionHandler := handlers.NewActionHandler(a.queue)
	mux.HandleFunc("POST /api/v1/actions", actionHandler.Enqueue)
	mux.HandleFunc("GET /api/v1/actions", actionHandler.List)

	mux.HandleFunc("GET /api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"syncdeskd"}`))
	})

	mux.HandleFunc("GET /ws", HandleWebSocket(a.hub))

	return mux
}

// machineID derives the stable identifier used for API key encryption.
func machineID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "default"
	}
	return host
}
