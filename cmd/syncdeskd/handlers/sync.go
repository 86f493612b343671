package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jchang/syncdesk/internal/connectivity"
	"github.com/jchang/syncdesk/internal/crypto"
	"github.com/jchang/syncdesk/internal/db"
	"github.com/jchang/syncdesk/internal/errors"
	"github.com/jchang/syncdesk/internal/models"
	"github.com/jchang/syncdesk/internal/queue"
	"github.com/jchang/syncdesk/internal/sync"
)

// SyncHandler serves sync configuration, status and manual triggers.
type SyncHandler struct {
	engine    *sync.Engine
	queue     *queue.Queue
	store     *db.Store
	monitor   *connectivity.Monitor
	machineID string
}

// NewSyncHandler creates a SyncHandler.
func NewSyncHandler(engine *sync.Engine, q *queue.Queue, store *db.Store,
	monitor *connectivity.Monitor, machineID string) *SyncHandler {
	if machineID == "" {
		machineID = "default"
	}
	return &SyncHandler{
		engine:    engine,
		queue:     q,
		store:     store,
		monitor:   monitor,
		machineID: machineID,
	}
}

// TriggerSync handles POST /api/v1/sync/now. While a pass is already running
// this returns immediately with the current stats.
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.TriggerSync(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// RetryFailed handles POST /api/v1/sync/retry-failed: failed actions go back
// to pending and a sync pass runs over them immediately.
func (h *SyncHandler) RetryFailed(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.RetryFailedActions(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// GetStats handles GET /api/v1/sync/stats.
func (h *SyncHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Stats().Recompute()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// GetStatus handles GET /api/v1/sync/status: the derived human-readable
// state plus stats and storage usage.
func (h *SyncHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Stats().Recompute()
	if err != nil {
		respondError(w, err)
		return
	}
	storage, err := h.store.EstimateUsage()
	if err != nil {
		respondError(w, err)
		return
	}

	online := h.monitor.IsOnline()
	syncing := h.engine.IsSyncing()
	message, health := sync.DeriveStatus(online, syncing, stats)

	respondJSON(w, http.StatusOK, sync.Status{
		Online:  online,
		Syncing: syncing,
		Message: message,
		Health:  health,
		Stats:   stats,
		Storage: storage,
	})
}

// SetConnectivity handles POST /api/v1/connectivity. Platform integrations
// report transitions here; the daemon never probes the network itself.
func (h *SyncHandler) SetConnectivity(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Online bool `json:"online"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	h.monitor.SetOnline(request.Online)
	respondJSON(w, http.StatusOK, map[string]interface{}{"online": request.Online})
}

// GetCredentials handles GET /api/v1/sync/credentials with the key redacted.
func (h *SyncHandler) GetCredentials(w http.ResponseWriter, r *http.Request) {
	cred, err := h.store.GetRemoteCredential()
	if errors.Is(err, errors.ErrSyncNotConfigured) {
		respondJSON(w, http.StatusOK, map[string]interface{}{"configured": false})
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"configured": true,
		"base_url":   cred.BaseURL,
		"api_key":    "***REDACTED***",
		"updated_at": cred.UpdatedAt,
	})
}

// SetCredentials handles POST /api/v1/sync/credentials. The API key is
// encrypted with a machine-bound secret before it touches the store.
func (h *SyncHandler) SetCredentials(w http.ResponseWriter, r *http.Request) {
	var request struct {
		BaseURL string `json:"base_url"`
		APIKey  string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if request.BaseURL == "" {
		http.Error(w, "base_url is required", http.StatusBadRequest)
		return
	}
	if request.APIKey == "" {
		http.Error(w, "api_key is required", http.StatusBadRequest)
		return
	}

	encrypted, err := crypto.EncryptAPIKey(request.APIKey, h.machineID)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.store.DisableAllRemoteCredentials(); err != nil {
		respondError(w, err)
		return
	}

	cred := &models.RemoteCredential{
		BaseURL:         request.BaseURL,
		APIKeyEncrypted: encrypted,
		IsEnabled:       true,
	}
	if err := h.store.SaveRemoteCredential(cred); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "success"})
}

// DeleteCredentials handles DELETE /api/v1/sync/credentials.
func (h *SyncHandler) DeleteCredentials(w http.ResponseWriter, r *http.Request) {
	cred, err := h.store.GetRemoteCredential()
	if errors.Is(err, errors.ErrSyncNotConfigured) {
		respondJSON(w, http.StatusOK, map[string]interface{}{"status": "success"})
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.store.DeleteRemoteCredential(cred.ID.String()); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "success"})
}
