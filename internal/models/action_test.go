package models

import (
	"testing"
)

func TestRetriesExhausted(t *testing.T) {
	a := &Action{RetryCount: 2, MaxRetries: 3}
	if a.RetriesExhausted() {
		t.Error("Budget not yet exhausted at 2/3")
	}
	a.RetryCount = 3
	if !a.RetriesExhausted() {
		t.Error("Budget exhausted at 3/3")
	}
}

func TestDocumentPayloadRoundTrip(t *testing.T) {
	payload, err := EncodePayload(DocumentPayload{
		DocumentID: "11111111-1111-4111-8111-111111111111",
		Title:      "Tax form",
		DocType:    DocTypeForm,
		Version:    2,
	})
	if err != nil {
		t.Fatalf("EncodePayload failed: %v", err)
	}

	action := &Action{Type: ActionUpdate, Payload: payload}
	decoded, err := action.DocumentPayloadOf()
	if err != nil {
		t.Fatalf("DocumentPayloadOf failed: %v", err)
	}
	if decoded.Title != "Tax form" || decoded.Version != 2 {
		t.Errorf("Decoded payload = %+v", decoded)
	}
}

func TestPayloadDecodersCheckActionType(t *testing.T) {
	action := &Action{Type: ActionFormSubmission, Payload: []byte(`{}`)}

	if _, err := action.DocumentPayloadOf(); err == nil {
		t.Error("DocumentPayloadOf accepted a form_submission action")
	}
	if _, err := action.UploadPayloadOf(); err == nil {
		t.Error("UploadPayloadOf accepted a form_submission action")
	}
	if _, err := action.FormPayloadOf(); err != nil {
		t.Errorf("FormPayloadOf rejected its own type: %v", err)
	}
}

func TestTouchBumpsVersion(t *testing.T) {
	doc := &Document{Version: 1, LastModified: 0}
	doc.Touch()
	if doc.Version != 2 {
		t.Errorf("Version = %d, want 2", doc.Version)
	}
	if doc.LastModified == 0 {
		t.Error("LastModified not updated")
	}
}

func TestValidators(t *testing.T) {
	if !ValidDocType(DocTypePDF) || ValidDocType("spreadsheet") {
		t.Error("ValidDocType misclassified")
	}
	if !ValidActionType(ActionDelete) || ValidActionType("rename") {
		t.Error("ValidActionType misclassified")
	}
	if !ValidEntityType(EntityForm) || ValidEntityType("invoice") {
		t.Error("ValidEntityType misclassified")
	}
}
