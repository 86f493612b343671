package errors

import (
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrDocumentNotFound, "document not found: abc")
	want := "[DOCUMENT_NOT_FOUND] document not found: abc"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	wrapped := Wrap(ErrStorage, "failed to read document", fmt.Errorf("disk I/O error"))
	if wrapped.Error() != "[STORAGE_ERROR] failed to read document: disk I/O error" {
		t.Errorf("Error() = %q", wrapped.Error())
	}
}

func TestIsMatchesNestedCodes(t *testing.T) {
	inner := New(ErrSyncConflict, "remote version conflict")
	outer := Wrap(ErrInternal, "sync pass failed", inner)

	if !Is(outer, ErrSyncConflict) {
		t.Error("Is should match a nested code")
	}
	if !Is(outer, ErrInternal) {
		t.Error("Is should match the outer code")
	}
	if Is(outer, ErrSyncRetryable) {
		t.Error("Is matched an absent code")
	}
	if Is(nil, ErrInternal) {
		t.Error("Is(nil) should be false")
	}
	if Is(fmt.Errorf("plain"), ErrInternal) {
		t.Error("Is matched a plain error")
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(New(ErrSyncRetryable, "HTTP 500")) {
		t.Error("SYNC_RETRYABLE must be retryable")
	}
	if !Retryable(New(ErrSyncTimeout, "deadline exceeded")) {
		t.Error("SYNC_TIMEOUT must be retryable")
	}
	if Retryable(New(ErrSyncConflict, "version conflict")) {
		t.Error("SYNC_CONFLICT must not be retryable")
	}
	if Retryable(New(ErrSyncNonRetryable, "HTTP 422")) {
		t.Error("SYNC_NON_RETRYABLE must not be retryable")
	}
}

func TestMustTransition(t *testing.T) {
	MustTransition(true, "never fires")

	defer func() {
		if recover() == nil {
			t.Error("Expected panic on violated precondition")
		}
	}()
	MustTransition(false, "action %s in status %s", "a1", "completed")
}
