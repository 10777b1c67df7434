// Package api wraps all network calls to the atelier backend. The client is
// stateless: every operation issues one HTTP request and either returns the
// parsed result or fails with a *TransportError. Retries and timeouts are the
// caller's concern.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// TransportError is the only error kind produced by the client. It covers
// both network-level failures and responses that are non-OK or unparsable.
type TransportError struct {
	Op     string // operation name, e.g. "generate"
	Status int    // HTTP status, 0 when the request never completed
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client talks to the atelier backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the backend at baseURL. No timeout is set;
// a hung request is surfaced to the user as a placeholder that never resolves.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// ListSessions returns the session directory in backend (creation) order.
func (c *Client) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	var out []SessionSummary
	if err := c.get(ctx, "list sessions", "/sessions", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSession returns the full record of one session.
func (c *Client) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	var out SessionRecord
	if err := c.get(ctx, "get session", "/session/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Generate submits a prompt. An empty sessionID asks the backend to start a
// new session; the returned result carries the authoritative session id.
func (c *Client) Generate(ctx context.Context, prompt, sessionID string) (*GenerateResult, error) {
	body := map[string]string{"prompt": prompt}
	if sessionID != "" {
		body["session_id"] = sessionID
	}
	var out GenerateResult
	if err := c.post(ctx, "generate", "/generate", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStatus records like/dislike feedback for a message. The ack body is
// implementation-defined and discarded.
func (c *Client) UpdateStatus(ctx context.Context, messageID, status string) error {
	body := map[string]string{"message_id": messageID, "status": status}
	return c.post(ctx, "update status", "/update_status", body, nil)
}

// Regenerate asks the backend for a fresh image for the prompt behind the
// given message.
func (c *Client) Regenerate(ctx context.Context, messageID string) (*RegenerateResult, error) {
	body := map[string]string{"message_id": messageID}
	var out RegenerateResult
	if err := c.post(ctx, "regenerate", "/regenerate", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchImage downloads the raw image bytes behind an image reference, which
// may be an absolute URL or a backend-relative path like /static/generated/x.png.
func (c *Client) FetchImage(ctx context.Context, imageRef string) ([]byte, error) {
	target := imageRef
	if strings.HasPrefix(imageRef, "/") {
		target = c.baseURL + imageRef
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &TransportError{Op: "fetch image", Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "fetch image", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Op: "fetch image", Status: resp.StatusCode, Err: fmt.Errorf("fetching %s", imageRef)}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "fetch image", Err: err}
	}
	return data, nil
}

func (c *Client) get(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	return c.do(op, req, out)
}

func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read a bounded slice of the error body for diagnostics.
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%s", strings.TrimSpace(string(errBody)))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
