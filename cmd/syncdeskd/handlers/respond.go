// Package handlers provides the REST API handlers for the syncdesk daemon.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jchang/syncdesk/internal/errors"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError maps the error taxonomy to HTTP statuses so clients can react
// without parsing messages.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := errors.ErrInternal

	if appErr, ok := err.(*errors.AppError); ok {
		code = appErr.Code
		switch appErr.Code {
		case errors.ErrNotFound, errors.ErrDocumentNotFound, errors.ErrActionNotFound:
			status = http.StatusNotFound
		case errors.ErrInvalid, errors.ErrValidation, errors.ErrDocumentInvalid, errors.ErrActionInvalid:
			status = http.StatusBadRequest
		case errors.ErrStorageQuota:
			status = http.StatusInsufficientStorage
		case errors.ErrSyncNotConfigured:
			status = http.StatusPreconditionFailed
		case errors.ErrSyncConflict:
			status = http.StatusConflict
		}
	}

	respondJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"code":    code,
			"message": err.Error(),
		},
	})
}
