package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jchang/syncdesk/internal/db"
	"github.com/jchang/syncdesk/internal/docs"
	"github.com/jchang/syncdesk/internal/models"
)

// DocumentHandler serves document CRUD over REST.
type DocumentHandler struct {
	repo *docs.Repository
}

// NewDocumentHandler creates a DocumentHandler.
func NewDocumentHandler(repo *docs.Repository) *DocumentHandler {
	return &DocumentHandler{repo: repo}
}

// Create handles POST /api/v1/documents.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Title   string `json:"title"`
		DocType string `json:"doc_type"`
		Content []byte `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	doc := &models.Document{
		Title:   request.Title,
		DocType: models.DocType(request.DocType),
		Content: request.Content,
	}
	if _, err := h.repo.Save(doc); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, doc)
}

// Get handles GET /api/v1/documents/{id}.
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.repo.Get(r.PathValue("id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// List handles GET /api/v1/documents with optional doc_type and sync_status
// filters.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := db.DocumentFilter{
		DocType:    models.DocType(r.URL.Query().Get("doc_type")),
		SyncStatus: models.SyncStatus(r.URL.Query().Get("sync_status")),
	}

	documents, err := h.repo.List(filter)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"documents": documents,
		"count":     len(documents),
	})
}

// Update handles PATCH /api/v1/documents/{id}. Absent fields are left as-is.
func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Title   *string `json:"title"`
		Content *[]byte `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	doc, err := h.repo.Update(r.PathValue("id"), docs.Patch{
		Title:   request.Title,
		Content: request.Content,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// Delete handles DELETE /api/v1/documents/{id}.
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.PathValue("id")); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "deleted"})
}

// ResolveConflict handles POST /api/v1/documents/{id}/resolve.
func (h *DocumentHandler) ResolveConflict(w http.ResponseWriter, r *http.Request) {
	var request struct {
		KeepLocal bool `json:"keep_local"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	doc, err := h.repo.ResolveConflict(r.PathValue("id"), request.KeepLocal)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}
