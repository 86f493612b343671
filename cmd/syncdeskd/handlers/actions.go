package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jchang/syncdesk/internal/models"
	"github.com/jchang/syncdesk/internal/queue"
)

// ActionHandler exposes the action queue: generic enqueue for non-document
// mutations (form submissions, uploads) and queue inspection.
type ActionHandler struct {
	queue *queue.Queue
}

// NewActionHandler creates an ActionHandler.
func NewActionHandler(q *queue.Queue) *ActionHandler {
	return &ActionHandler{queue: q}
}

// Enqueue handles POST /api/v1/actions.
func (h *ActionHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Type       string          `json:"type"`
		EntityType string          `json:"entity_type"`
		EntityID   string          `json:"entity_id"`
		Payload    json.RawMessage `json:"payload"`
		MaxRetries int             `json:"max_retries"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	action, err := h.queue.Enqueue(queue.Request{
		Type:       models.ActionType(request.Type),
		EntityType: models.EntityType(request.EntityType),
		EntityID:   request.EntityID,
		Payload:    request.Payload,
		MaxRetries: request.MaxRetries,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, action)
}

// List handles GET /api/v1/actions with an optional status filter.
func (h *ActionHandler) List(w http.ResponseWriter, r *http.Request) {
	var statuses []models.ActionStatus
	if s := r.URL.Query().Get("status"); s != "" {
		statuses = append(statuses, models.ActionStatus(s))
	}

	actions, err := h.queue.ListByStatus(statuses...)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"actions": actions,
		"count":   len(actions),
	})
}
