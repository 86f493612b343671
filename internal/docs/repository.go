// Package docs provides CRUD operations on documents with sync-status
// bookkeeping. Every local mutation is paired with a queued action so the
// sync engine can replay it against the remote API later.
package docs

import (
	"time"

	"github.com/jchang/syncdesk/internal/db"
	"github.com/jchang/syncdesk/internal/errors"
	"github.com/jchang/syncdesk/internal/logging"
	"github.com/jchang/syncdesk/internal/models"
	"github.com/jchang/syncdesk/internal/queue"
	"github.com/jchang/syncdesk/internal/uuid"
)

// Repository provides document CRUD with sync bookkeeping.
type Repository struct {
	store *db.Store
	queue *queue.Queue
}

// NewRepository creates a document repository over the given store and queue.
func NewRepository(store *db.Store, q *queue.Queue) *Repository {
	return &Repository{store: store, queue: q}
}

// Save persists a new document and enqueues its create action. The document
// starts at version 1 with status local_only; it moves to synced (or
// conflict) when the sync engine replays the create.
func (r *Repository) Save(doc *models.Document) (models.UUID, error) {
	if doc.Title == "" {
		return "", errors.New(errors.ErrDocumentInvalid, "title is required")
	}
	if !models.ValidDocType(doc.DocType) {
		return "", errors.New(errors.ErrDocumentInvalid, "unknown document type: "+string(doc.DocType))
	}

	if err := r.checkQuota(int64(len(doc.Content))); err != nil {
		return "", err
	}

	now := time.Now().Unix()
	doc.ID = models.UUID(uuid.New())
	doc.Size = int64(len(doc.Content))
	doc.Version = 1
	doc.RemoteVersion = 0
	doc.SyncStatus = models.SyncStatusLocalOnly
	doc.CreatedAt = now
	doc.LastModified = now

	if err := r.store.PutDocument(doc); err != nil {
		return "", err
	}

	if err := r.enqueueDocumentAction(models.ActionCreate, doc); err != nil {
		return "", err
	}

	logging.Info("Document saved",
		map[string]interface{}{"document_id": doc.ID, "doc_type": doc.DocType})

	return doc.ID, nil
}

// Patch holds the updatable fields of a document. Nil fields are left
// untouched.
type Patch struct {
	Title   *string
	Content *[]byte
}

// Update applies a partial update, bumps the version, marks the document
// pending (even if it was synced) and enqueues an update action carrying the
// full new state so replay stays idempotent.
func (r *Repository) Update(id string, patch Patch) (*models.Document, error) {
	doc, err := r.store.GetDocument(id)
	if err != nil {
		return nil, err
	}

	// Conflict is terminal until ResolveConflict; an ordinary update would
	// queue a full-state replay that overwrites the diverged remote copy.
	if doc.SyncStatus == models.SyncStatusConflict {
		return nil, errors.New(errors.ErrSyncConflict,
			"document is in conflict and must be resolved before editing: "+id)
	}

	if patch.Title != nil {
		doc.Title = *patch.Title
	}
	if patch.Content != nil {
		doc.Content = *patch.Content
		doc.Size = int64(len(doc.Content))
		if err := r.checkQuota(doc.Size); err != nil {
			return nil, err
		}
	}

	doc.Touch()
	doc.SyncStatus = models.SyncStatusPending

	if err := r.store.PutDocument(doc); err != nil {
		return nil, err
	}

	if err := r.enqueueDocumentAction(models.ActionUpdate, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

// Get retrieves a document by ID.
func (r *Repository) Get(id string) (*models.Document, error) {
	return r.store.GetDocument(id)
}

// List returns a snapshot of documents matching the filter.
func (r *Repository) List(filter db.DocumentFilter) ([]*models.Document, error) {
	return r.store.ListDocuments(filter)
}

// Delete enqueues a delete action and then removes the local copy
// immediately. The local delete is optimistic: if the remote delete later
// fails the action is retried, but the local copy does not reappear.
func (r *Repository) Delete(id string) error {
	doc, err := r.store.GetDocument(id)
	if err != nil {
		return err
	}

	if err := r.enqueueDocumentAction(models.ActionDelete, doc); err != nil {
		return err
	}

	if err := r.store.DeleteDocument(id); err != nil {
		return err
	}

	logging.Info("Document deleted locally",
		map[string]interface{}{"document_id": id})

	return nil
}

// MarkSynced records a successful replay: the document becomes synced and
// the remote-confirmed version is stored. A missing document (already
// deleted locally) is not an error.
func (r *Repository) MarkSynced(id string, remoteVersion int) error {
	doc, err := r.store.GetDocument(id)
	if errors.Is(err, errors.ErrDocumentNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	doc.SyncStatus = models.SyncStatusSynced
	doc.RemoteVersion = remoteVersion
	doc.LastModified = time.Now().Unix()
	return r.store.PutDocument(doc)
}

// MarkConflict records that the remote copy diverged from what the client
// expected. Conflict is terminal until ResolveConflict is called; the engine
// must not silently overwrite remote state.
func (r *Repository) MarkConflict(id string) error {
	doc, err := r.store.GetDocument(id)
	if errors.Is(err, errors.ErrDocumentNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	doc.SyncStatus = models.SyncStatusConflict
	doc.LastModified = time.Now().Unix()
	return r.store.PutDocument(doc)
}

// ResolveConflict is the external resolution entry point. With keepLocal the
// local state is re-queued as an update and the document returns to pending;
// otherwise the remote version is accepted as authoritative and the document
// becomes synced. Merge policy beyond these two outcomes is the caller's
// responsibility.
func (r *Repository) ResolveConflict(id string, keepLocal bool) (*models.Document, error) {
	doc, err := r.store.GetDocument(id)
	if err != nil {
		return nil, err
	}
	if doc.SyncStatus != models.SyncStatusConflict {
		return nil, errors.New(errors.ErrInvalid, "document is not in conflict: "+id)
	}

	if keepLocal {
		doc.Touch()
		doc.SyncStatus = models.SyncStatusPending
		if err := r.store.PutDocument(doc); err != nil {
			return nil, err
		}
		if err := r.enqueueDocumentAction(models.ActionUpdate, doc); err != nil {
			return nil, err
		}
	} else {
		doc.SyncStatus = models.SyncStatusSynced
		doc.Version = doc.RemoteVersion
		doc.LastModified = time.Now().Unix()
		if err := r.store.PutDocument(doc); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

// enqueueDocumentAction queues a create/update/delete action carrying the
// document's full state.
func (r *Repository) enqueueDocumentAction(actionType models.ActionType, doc *models.Document) error {
	payload, err := models.EncodePayload(models.DocumentPayload{
		DocumentID: doc.ID,
		Title:      doc.Title,
		DocType:    doc.DocType,
		Content:    doc.Content,
		Size:       doc.Size,
		Version:    doc.Version,
	})
	if err != nil {
		return err
	}

	_, err = r.queue.Enqueue(queue.Request{
		Type:       actionType,
		EntityType: models.EntityDocument,
		EntityID:   doc.ID.String(),
		Payload:    payload,
	})
	return err
}

// checkQuota fails with a StorageError when adding extra bytes would exceed
// the configured quota.
func (r *Repository) checkQuota(extra int64) error {
	exceeded, err := r.store.QuotaExceeded(extra)
	if err != nil {
		return err
	}
	if exceeded {
		return errors.New(errors.ErrStorageQuota, "local storage quota exceeded")
	}
	return nil
}
