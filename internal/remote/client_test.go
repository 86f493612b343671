package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jchang/syncdesk/internal/errors"
	"github.com/jchang/syncdesk/internal/models"
)

func testPayload() models.DocumentPayload {
	return models.DocumentPayload{
		DocumentID: "11111111-1111-4111-8111-111111111111",
		Title:      "Lease agreement",
		DocType:    models.DocTypePDF,
		Version:    1,
	}
}

func TestCreateDocumentSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/documents" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}

		var p models.DocumentPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("Bad request body: %v", err)
		}
		if p.Title != "Lease agreement" {
			t.Errorf("Title = %q", p.Title)
		}

		json.NewEncoder(w).Encode(Ack{RemoteID: p.DocumentID.String(), Version: 1})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "secret", DefaultTimeouts())
	ack, err := client.CreateDocument(context.Background(), testPayload())
	if err != nil {
		t.Fatalf("CreateDocument failed: %v", err)
	}
	if ack.Version != 1 {
		t.Errorf("Version = %d, want 1", ack.Version)
	}
}

func TestStatusClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		code   errors.ErrorCode
	}{
		{"conflict", http.StatusConflict, errors.ErrSyncConflict},
		{"rate limited", http.StatusTooManyRequests, errors.ErrSyncRetryable},
		{"validation", http.StatusUnprocessableEntity, errors.ErrSyncNonRetryable},
		{"auth", http.StatusUnauthorized, errors.ErrSyncNonRetryable},
		{"server error", http.StatusInternalServerError, errors.ErrSyncRetryable},
		{"bad gateway", http.StatusBadGateway, errors.ErrSyncRetryable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			client := NewHTTPClient(server.URL, "secret", DefaultTimeouts())
			_, err := client.UpdateDocument(context.Background(), testPayload())
			if !errors.Is(err, tc.code) {
				t.Errorf("HTTP %d classified as %v, want %s", tc.status, err, tc.code)
			}
		})
	}
}

func TestTransportFailureIsRetryable(t *testing.T) {
	// Connect to a server that is already gone.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewHTTPClient(server.URL, "secret", DefaultTimeouts())
	_, err := client.DeleteDocument(context.Background(), "11111111-1111-4111-8111-111111111111")
	if !errors.Retryable(err) {
		t.Errorf("Transport failure not retryable: %v", err)
	}
}

func TestSlowBackendTimesOut(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	timeouts := DefaultTimeouts()
	timeouts.Delete = 50 * time.Millisecond

	client := NewHTTPClient(server.URL, "secret", timeouts)
	_, err := client.DeleteDocument(context.Background(), "11111111-1111-4111-8111-111111111111")
	if !errors.Is(err, errors.ErrSyncTimeout) {
		t.Errorf("Expected SYNC_TIMEOUT, got %v", err)
	}
	if !errors.Retryable(err) {
		t.Error("Timeout must be retryable")
	}
}

func TestDeleteAcceptsNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "secret", DefaultTimeouts())
	if _, err := client.DeleteDocument(context.Background(), "11111111-1111-4111-8111-111111111111"); err != nil {
		t.Fatalf("DeleteDocument failed: %v", err)
	}
}

func TestSubmitFormPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/forms/form-7/submissions" {
			t.Errorf("Path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Ack{RemoteID: "sub-1", Version: 1})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "secret", DefaultTimeouts())
	_, err := client.SubmitForm(context.Background(), models.FormSubmissionPayload{
		FormID: "form-7",
		Fields: map[string]string{"name": "J. Chang"},
	})
	if err != nil {
		t.Fatalf("SubmitForm failed: %v", err)
	}
}
