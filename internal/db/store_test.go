package db

import (
	"testing"

	"github.com/jchang/syncdesk/internal/errors"
	"github.com/jchang/syncdesk/internal/models"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()

	database, err := Open(dir)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	migrator := NewMigrator(database.DB)
	if err := migrator.Initialize(); err != nil {
		t.Fatalf("Failed to initialize migrations: %v", err)
	}
	if err := migrator.Up(); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	return NewStore(database), dir
}

func sampleDocument(id string) *models.Document {
	return &models.Document{
		ID:           models.UUID(id),
		Title:        "Visa application",
		DocType:      models.DocTypePDF,
		Content:      []byte("content"),
		Size:         7,
		Version:      1,
		SyncStatus:   models.SyncStatusLocalOnly,
		CreatedAt:    1700000000,
		LastModified: 1700000000,
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)

	doc := sampleDocument("11111111-1111-4111-8111-111111111111")
	if err := store.PutDocument(doc); err != nil {
		t.Fatalf("PutDocument failed: %v", err)
	}

	got, err := store.GetDocument(doc.ID.String())
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if got.Title != doc.Title {
		t.Errorf("Title = %q, want %q", got.Title, doc.Title)
	}
	if got.SyncStatus != models.SyncStatusLocalOnly {
		t.Errorf("SyncStatus = %q, want local_only", got.SyncStatus)
	}
	if string(got.Content) != "content" {
		t.Errorf("Content = %q, want %q", got.Content, "content")
	}
}

func TestDocumentSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	database, err := Open(dir)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	migrator := NewMigrator(database.DB)
	if err := migrator.Initialize(); err != nil {
		t.Fatalf("Failed to initialize migrations: %v", err)
	}
	if err := migrator.Up(); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	store := NewStore(database)
	doc := sampleDocument("22222222-2222-4222-8222-222222222222")
	if err := store.PutDocument(doc); err != nil {
		t.Fatalf("PutDocument failed: %v", err)
	}

	// Simulate a process restart.
	store.Close()
	if err := database.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	database, err = Open(dir)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer database.Close()

	store = NewStore(database)
	got, err := store.GetDocument(doc.ID.String())
	if err != nil {
		t.Fatalf("GetDocument after reopen failed: %v", err)
	}
	if got.Title != doc.Title || got.Version != 1 {
		t.Errorf("Document corrupted after reopen: %+v", got)
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.GetDocument("33333333-3333-4333-8333-333333333333")
	if !errors.Is(err, errors.ErrDocumentNotFound) {
		t.Errorf("Expected DOCUMENT_NOT_FOUND, got %v", err)
	}
}

func TestPutDocumentIsUpsert(t *testing.T) {
	store, _ := newTestStore(t)

	doc := sampleDocument("44444444-4444-4444-8444-444444444444")
	if err := store.PutDocument(doc); err != nil {
		t.Fatalf("First put failed: %v", err)
	}

	doc.Title = "Renamed"
	doc.Version = 2
	doc.SyncStatus = models.SyncStatusPending
	if err := store.PutDocument(doc); err != nil {
		t.Fatalf("Second put failed: %v", err)
	}

	got, err := store.GetDocument(doc.ID.String())
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if got.Title != "Renamed" || got.Version != 2 || got.SyncStatus != models.SyncStatusPending {
		t.Errorf("Upsert did not overwrite: %+v", got)
	}
}

func TestListDocumentsFiltered(t *testing.T) {
	store, _ := newTestStore(t)

	pdf := sampleDocument("55555555-5555-4555-8555-555555555555")
	note := sampleDocument("66666666-6666-4666-8666-666666666666")
	note.DocType = models.DocTypeNote
	note.SyncStatus = models.SyncStatusSynced

	for _, doc := range []*models.Document{pdf, note} {
		if err := store.PutDocument(doc); err != nil {
			t.Fatalf("PutDocument failed: %v", err)
		}
	}

	all, err := store.ListDocuments(DocumentFilter{})
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(all))
	}

	notes, err := store.ListDocuments(DocumentFilter{DocType: models.DocTypeNote})
	if err != nil {
		t.Fatalf("ListDocuments with filter failed: %v", err)
	}
	if len(notes) != 1 || notes[0].ID != note.ID {
		t.Errorf("DocType filter returned wrong set: %d documents", len(notes))
	}

	synced, err := store.ListDocuments(DocumentFilter{SyncStatus: models.SyncStatusSynced})
	if err != nil {
		t.Fatalf("ListDocuments with status filter failed: %v", err)
	}
	if len(synced) != 1 || synced[0].ID != note.ID {
		t.Errorf("SyncStatus filter returned wrong set: %d documents", len(synced))
	}
}

func TestDeleteDocument(t *testing.T) {
	store, _ := newTestStore(t)

	doc := sampleDocument("77777777-7777-4777-8777-777777777777")
	if err := store.PutDocument(doc); err != nil {
		t.Fatalf("PutDocument failed: %v", err)
	}
	if err := store.DeleteDocument(doc.ID.String()); err != nil {
		t.Fatalf("DeleteDocument failed: %v", err)
	}
	if _, err := store.GetDocument(doc.ID.String()); !errors.Is(err, errors.ErrDocumentNotFound) {
		t.Errorf("Expected DOCUMENT_NOT_FOUND after delete, got %v", err)
	}
	if err := store.DeleteDocument(doc.ID.String()); !errors.Is(err, errors.ErrDocumentNotFound) {
		t.Errorf("Expected DOCUMENT_NOT_FOUND on double delete, got %v", err)
	}
}

func sampleAction(id, entityID string, createdAt int64) *models.Action {
	return &models.Action{
		ID:         models.UUID(id),
		Type:       models.ActionCreate,
		EntityType: models.EntityDocument,
		EntityID:   entityID,
		Payload:    []byte(`{}`),
		MaxRetries: 3,
		Status:     models.ActionStatusPending,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

func TestActionOrderPreservedAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	database, err := Open(dir)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	migrator := NewMigrator(database.DB)
	if err := migrator.Initialize(); err != nil {
		t.Fatalf("Failed to initialize migrations: %v", err)
	}
	if err := migrator.Up(); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}
	store := NewStore(database)

	// Same created_at on purpose: insertion order must break the tie.
	ids := []string{
		"aaaaaaa1-0000-4000-8000-000000000001",
		"aaaaaaa2-0000-4000-8000-000000000002",
		"aaaaaaa3-0000-4000-8000-000000000003",
	}
	for _, id := range ids {
		if err := store.InsertAction(sampleAction(id, "entity-1", 1700000000)); err != nil {
			t.Fatalf("InsertAction failed: %v", err)
		}
	}

	store.Close()
	database.Close()

	database, err = Open(dir)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer database.Close()
	store = NewStore(database)

	actions, err := store.ListActions(models.ActionStatusPending)
	if err != nil {
		t.Fatalf("ListActions failed: %v", err)
	}
	if len(actions) != len(ids) {
		t.Fatalf("Expected %d actions, got %d", len(ids), len(actions))
	}
	for i, action := range actions {
		if action.ID.String() != ids[i] {
			t.Errorf("Position %d: got %s, want %s", i, action.ID, ids[i])
		}
	}
}

func TestUpdateActionRewritesBookkeeping(t *testing.T) {
	store, _ := newTestStore(t)

	action := sampleAction("bbbbbbb1-0000-4000-8000-000000000001", "entity-1", 1700000000)
	if err := store.InsertAction(action); err != nil {
		t.Fatalf("InsertAction failed: %v", err)
	}

	action.RetryCount = 2
	action.Status = models.ActionStatusFailed
	action.LastError = "remote server error: HTTP 500"
	action.NextRetryAt = 1700000600
	if err := store.UpdateAction(action); err != nil {
		t.Fatalf("UpdateAction failed: %v", err)
	}

	got, err := store.GetAction(action.ID.String())
	if err != nil {
		t.Fatalf("GetAction failed: %v", err)
	}
	if got.RetryCount != 2 || got.Status != models.ActionStatusFailed {
		t.Errorf("Bookkeeping not persisted: %+v", got)
	}
	if got.LastError != "remote server error: HTTP 500" {
		t.Errorf("LastError = %q", got.LastError)
	}
}

func TestCountActionsByStatus(t *testing.T) {
	store, _ := newTestStore(t)

	pending := sampleAction("ccccccc1-0000-4000-8000-000000000001", "e1", 1700000000)
	failed := sampleAction("ccccccc2-0000-4000-8000-000000000002", "e2", 1700000001)
	failed.Status = models.ActionStatusFailed

	for _, a := range []*models.Action{pending, failed} {
		if err := store.InsertAction(a); err != nil {
			t.Fatalf("InsertAction failed: %v", err)
		}
	}

	counts, err := store.CountActionsByStatus()
	if err != nil {
		t.Fatalf("CountActionsByStatus failed: %v", err)
	}
	if counts[models.ActionStatusPending] != 1 || counts[models.ActionStatusFailed] != 1 {
		t.Errorf("Unexpected counts: %v", counts)
	}
}

func TestRemoteCredentialLifecycle(t *testing.T) {
	store, _ := newTestStore(t)

	if _, err := store.GetRemoteCredential(); !errors.Is(err, errors.ErrSyncNotConfigured) {
		t.Fatalf("Expected SYNC_NOT_CONFIGURED, got %v", err)
	}

	cred := &models.RemoteCredential{
		BaseURL:         "https://api.example.com",
		APIKeyEncrypted: "ciphertext",
		IsEnabled:       true,
	}
	if err := store.SaveRemoteCredential(cred); err != nil {
		t.Fatalf("SaveRemoteCredential failed: %v", err)
	}

	got, err := store.GetRemoteCredential()
	if err != nil {
		t.Fatalf("GetRemoteCredential failed: %v", err)
	}
	if got.BaseURL != cred.BaseURL {
		t.Errorf("BaseURL = %q", got.BaseURL)
	}

	if err := store.DisableAllRemoteCredentials(); err != nil {
		t.Fatalf("DisableAllRemoteCredentials failed: %v", err)
	}
	if _, err := store.GetRemoteCredential(); !errors.Is(err, errors.ErrSyncNotConfigured) {
		t.Errorf("Expected SYNC_NOT_CONFIGURED after disable, got %v", err)
	}
}

func TestEstimateUsage(t *testing.T) {
	store, _ := newTestStore(t)

	usage, err := store.EstimateUsage()
	if err != nil {
		t.Fatalf("EstimateUsage failed: %v", err)
	}
	if usage.UsedBytes <= 0 {
		t.Errorf("UsedBytes = %d, want > 0", usage.UsedBytes)
	}
}
