// Package remote talks to the sync backend. It translates transport and HTTP
// failures into the sync error taxonomy so the engine can decide between
// retrying, giving up and flagging conflicts without inspecting HTTP details.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jchang/syncdesk/internal/crypto"
	"github.com/jchang/syncdesk/internal/errors"
	"github.com/jchang/syncdesk/internal/models"
)

// Ack is the backend's acknowledgement of a replayed action.
type Ack struct {
	RemoteID string `json:"id"`
	Version  int    `json:"version"`
}

// Client is the remote API surface the sync engine replays actions against.
type Client interface {
	CreateDocument(ctx context.Context, p models.DocumentPayload) (*Ack, error)
	UpdateDocument(ctx context.Context, p models.DocumentPayload) (*Ack, error)
	DeleteDocument(ctx context.Context, documentID string) (*Ack, error)
	SubmitForm(ctx context.Context, p models.FormSubmissionPayload) (*Ack, error)
	UploadDocument(ctx context.Context, p models.UploadPayload) (*Ack, error)
}

// Timeouts bounds each remote call. Uploads get a longer budget than the
// metadata operations.
type Timeouts struct {
	Create time.Duration
	Update time.Duration
	Delete time.Duration
	Form   time.Duration
	Upload time.Duration
}

// DefaultTimeouts returns the default per-operation deadlines.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Create: 10 * time.Second,
		Update: 10 * time.Second,
		Delete: 10 * time.Second,
		Form:   10 * time.Second,
		Upload: 60 * time.Second,
	}
}

// HTTPClient is the production Client over the backend's REST API.
type HTTPClient struct {
	baseURL  string
	apiKey   string
	timeouts Timeouts
	httpc    *http.Client
}

// NewHTTPClient creates a client for the given base URL and API key.
func NewHTTPClient(baseURL, apiKey string, timeouts Timeouts) *HTTPClient {
	return &HTTPClient{
		baseURL:  baseURL,
		apiKey:   apiKey,
		timeouts: timeouts,
		httpc:    &http.Client{},
	}
}

// NewFromCredential builds a client from a stored credential, decrypting the
// API key with the machine-bound secret.
func NewFromCredential(cred *models.RemoteCredential, machineID string, timeouts Timeouts) (*HTTPClient, error) {
	apiKey, err := crypto.DecryptAPIKey(cred.APIKeyEncrypted, machineID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrSyncNotConfigured, "failed to decrypt API key", err)
	}
	return NewHTTPClient(cred.BaseURL, apiKey, timeouts), nil
}

// CreateDocument replays a document create.
func (c *HTTPClient) CreateDocument(ctx context.Context, p models.DocumentPayload) (*Ack, error) {
	return c.do(ctx, http.MethodPost, "/api/v1/documents", p, c.timeouts.Create)
}

// UpdateDocument replays a document update carrying the full local state.
func (c *HTTPClient) UpdateDocument(ctx context.Context, p models.DocumentPayload) (*Ack, error) {
	return c.do(ctx, http.MethodPut, "/api/v1/documents/"+p.DocumentID.String(), p, c.timeouts.Update)
}

// DeleteDocument replays a document delete.
func (c *HTTPClient) DeleteDocument(ctx context.Context, documentID string) (*Ack, error) {
	return c.do(ctx, http.MethodDelete, "/api/v1/documents/"+documentID, nil, c.timeouts.Delete)
}

// SubmitForm replays a form submission.
func (c *HTTPClient) SubmitForm(ctx context.Context, p models.FormSubmissionPayload) (*Ack, error) {
	return c.do(ctx, http.MethodPost, "/api/v1/forms/"+p.FormID+"/submissions", p, c.timeouts.Form)
}

// UploadDocument replays a file upload.
func (c *HTTPClient) UploadDocument(ctx context.Context, p models.UploadPayload) (*Ack, error) {
	return c.do(ctx, http.MethodPost, "/api/v1/documents/"+p.DocumentID.String()+"/upload", p, c.timeouts.Upload)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body interface{}, timeout time.Duration) (*Ack, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(errors.ErrSyncNonRetryable, "failed to encode request body", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, errors.Wrap(errors.ErrSyncNonRetryable, "failed to build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		// Timeouts get their own code so callers can distinguish a slow
		// backend from a hard network failure; both are retryable.
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrap(errors.ErrSyncTimeout, "remote call timed out", err)
		}
		return nil, errors.Wrap(errors.ErrSyncRetryable, "remote call failed", err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		io.Copy(io.Discard, resp.Body)
		return nil, err
	}

	if resp.StatusCode == http.StatusNoContent {
		return &Ack{}, nil
	}

	var ack Ack
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return nil, errors.Wrap(errors.ErrSyncRetryable, "failed to decode response", err)
	}
	return &ack, nil
}

// classifyStatus maps an HTTP status to the sync error taxonomy. 2xx is
// success; 409 means the remote copy diverged; other 4xx failures will not
// succeed on retry; everything else is worth retrying.
func classifyStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusConflict:
		return errors.New(errors.ErrSyncConflict, "remote version conflict")
	case status == http.StatusTooManyRequests:
		return errors.New(errors.ErrSyncRetryable, "remote rate limited")
	case status >= 400 && status < 500:
		return errors.New(errors.ErrSyncNonRetryable, fmt.Sprintf("remote rejected request: HTTP %d", status))
	default:
		return errors.New(errors.ErrSyncRetryable, fmt.Sprintf("remote server error: HTTP %d", status))
	}
}
