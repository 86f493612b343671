// Package models provides data model definitions for the syncdesk core.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ActionType identifies the mutation an action replays against the remote API.
type ActionType string

const (
	ActionCreate         ActionType = "create"
	ActionUpdate         ActionType = "update"
	ActionDelete         ActionType = "delete"
	ActionFormSubmission ActionType = "form_submission"
	ActionDocumentUpload ActionType = "document_upload"
)

// ValidActionType reports whether t is a supported action type.
func ValidActionType(t ActionType) bool {
	switch t {
	case ActionCreate, ActionUpdate, ActionDelete, ActionFormSubmission, ActionDocumentUpload:
		return true
	}
	return false
}

// EntityType identifies the kind of entity an action targets.
type EntityType string

const (
	EntityDocument EntityType = "document"
	EntityTask     EntityType = "task"
	EntityDeadline EntityType = "deadline"
	EntityProfile  EntityType = "profile"
	EntityForm     EntityType = "form"
)

// ValidEntityType reports whether t is a supported entity type.
func ValidEntityType(t EntityType) bool {
	switch t {
	case EntityDocument, EntityTask, EntityDeadline, EntityProfile, EntityForm:
		return true
	}
	return false
}

// ActionStatus tracks an action through the queue.
type ActionStatus string

const (
	ActionStatusPending    ActionStatus = "pending"
	ActionStatusProcessing ActionStatus = "processing"
	ActionStatusCompleted  ActionStatus = "completed"
	ActionStatusFailed     ActionStatus = "failed"
)

// DefaultMaxRetries is applied when an action is enqueued without an
// explicit retry budget.
const DefaultMaxRetries = 3

// Action is a durable record of one intended mutation against the remote
// system. Actions sharing an EntityID must be replayed in enqueue order.
type Action struct {
	ID          UUID            `db:"id" json:"id"`
	Type        ActionType      `db:"action_type" json:"type"`
	EntityType  EntityType      `db:"entity_type" json:"entity_type"`
	EntityID    string          `db:"entity_id" json:"entity_id"`
	Payload     json.RawMessage `db:"payload" json:"payload"`
	RetryCount  int             `db:"retry_count" json:"retry_count"`
	MaxRetries  int             `db:"max_retries" json:"max_retries"`
	Status      ActionStatus    `db:"status" json:"status"`
	LastError   string          `db:"last_error" json:"last_error,omitempty"`
	NextRetryAt int64           `db:"next_retry_at" json:"next_retry_at"`
	CreatedAt   int64           `db:"created_at" json:"created_at"`
	UpdatedAt   int64           `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for Action.
func (Action) TableName() string {
	return "actions"
}

// CreatedAtTime returns the CreatedAt as time.Time.
func (a *Action) CreatedAtTime() time.Time {
	return time.Unix(a.CreatedAt, 0)
}

// RetriesExhausted reports whether the action has consumed its retry budget.
func (a *Action) RetriesExhausted() bool {
	return a.RetryCount >= a.MaxRetries
}

// =====================================================
// Action Payloads
// =====================================================
//
// Payload is stored as raw JSON but every action type has a checked shape.
// Encode/decode helpers keep replay handlers strongly typed.

// DocumentPayload carries the full document state for create/update/delete
// actions. Updates carry complete state, not a diff, so replay stays
// idempotent.
type DocumentPayload struct {
	DocumentID UUID    `json:"document_id"`
	Title      string  `json:"title"`
	DocType    DocType `json:"doc_type"`
	Content    []byte  `json:"content,omitempty"`
	Size       int64   `json:"size"`
	Version    int     `json:"version"`
}

// FormSubmissionPayload carries a submitted form's field values.
type FormSubmissionPayload struct {
	FormID string            `json:"form_id"`
	Fields map[string]string `json:"fields"`
}

// UploadPayload carries a file upload destined for remote blob storage.
type UploadPayload struct {
	DocumentID UUID   `json:"document_id"`
	Filename   string `json:"filename"`
	MimeType   string `json:"mime_type"`
	Data       []byte `json:"data"`
}

// EncodePayload marshals a typed payload for storage on an Action.
func EncodePayload(v interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode action payload: %w", err)
	}
	return data, nil
}

// DocumentPayloadOf decodes the payload of a document create/update/delete
// action.
func (a *Action) DocumentPayloadOf() (*DocumentPayload, error) {
	if a.Type != ActionCreate && a.Type != ActionUpdate && a.Type != ActionDelete {
		return nil, fmt.Errorf("action %s has no document payload (type %s)", a.ID, a.Type)
	}
	var p DocumentPayload
	if err := json.Unmarshal(a.Payload, &p); err != nil {
		return nil, fmt.Errorf("failed to decode document payload: %w", err)
	}
	return &p, nil
}

// FormPayloadOf decodes the payload of a form_submission action.
func (a *Action) FormPayloadOf() (*FormSubmissionPayload, error) {
	if a.Type != ActionFormSubmission {
		return nil, fmt.Errorf("action %s has no form payload (type %s)", a.ID, a.Type)
	}
	var p FormSubmissionPayload
	if err := json.Unmarshal(a.Payload, &p); err != nil {
		return nil, fmt.Errorf("failed to decode form payload: %w", err)
	}
	return &p, nil
}

// UploadPayloadOf decodes the payload of a document_upload action.
func (a *Action) UploadPayloadOf() (*UploadPayload, error) {
	if a.Type != ActionDocumentUpload {
		return nil, fmt.Errorf("action %s has no upload payload (type %s)", a.ID, a.Type)
	}
	var p UploadPayload
	if err := json.Unmarshal(a.Payload, &p); err != nil {
		return nil, fmt.Errorf("failed to decode upload payload: %w", err)
	}
	return &p, nil
}
