// Package backend is the HTTP client for the RAG pipeline backend's job
// control surface. Each job kind is mounted under its own route prefix and
// exposes start, stream, status, and cancel endpoints.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ragforge/console/internal/domain/model"
	apperrors "github.com/ragforge/console/internal/errors"
)

// routePrefixes maps each job kind to its mount point on the backend.
var routePrefixes = map[model.JobKind]string{
	model.JobKindCardsBuild:    "/api/cards",
	model.JobKindIndexRun:      "/api/index",
	model.JobKindRerankerTrain: "/api/reranker",
}

// Config captures the subset of backend behaviour the console needs.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
}

// Client talks to the backend job endpoints. Safe for concurrent use.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient builds a backend client. Callers should pass a validated config.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("backend base url is required")
	}
	if u, err := url.Parse(baseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend base url %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{baseURL: baseURL, client: hc}, nil
}

// StreamURL returns the SSE endpoint for a job. The stream transport owns the
// connection lifetime, so no client timeout applies to it.
func (c *Client) StreamURL(kind model.JobKind, jobID string) string {
	return c.baseURL + routePrefixes[kind] + "/stream/" + url.PathEscape(jobID)
}

// StatusURL returns the snapshot endpoint for a job.
func (c *Client) StatusURL(kind model.JobKind, jobID string) string {
	return c.baseURL + routePrefixes[kind] + "/status/" + url.PathEscape(jobID)
}

// conflictBody is the backend's 409 payload. job_id identifies the run that
// is already in flight, when the backend knows it.
type conflictBody struct {
	Detail string `json:"detail"`
	JobID  string `json:"job_id"`
}

// Start asks the backend to begin a job run. A 409 maps to AlreadyRunning,
// carrying the in-flight job id when the backend reports one so callers can
// attach to the existing run instead of failing.
func (c *Client) Start(ctx context.Context, req model.StartJobRequest) (model.StartJobResponse, error) {
	var out model.StartJobResponse
	if err := req.Validate(); err != nil {
		return out, apperrors.Validation(err.Error())
	}

	params := req.Params
	if params == nil {
		params = map[string]any{}
	}
	body, err := json.Marshal(params)
	if err != nil {
		return out, fmt.Errorf("encode start params: %w", err)
	}

	endpoint := c.baseURL + routePrefixes[req.Kind] + "/start"
	resp, err := c.do(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		var conflict conflictBody
		// Decode errors are tolerated: the conflict stands either way.
		_ = json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&conflict)
		detail := conflict.Detail
		if detail == "" {
			detail = fmt.Sprintf("%s job already running", req.Kind)
		}
		return out, apperrors.AlreadyRunning(detail, conflict.JobID)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return out, c.statusError(resp, "start "+string(req.Kind))
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, apperrors.Transport("decode start response", err)
	}
	if out.JobID == "" {
		return out, apperrors.Transport("start response missing job_id", nil)
	}
	return out, nil
}

// Status fetches the full job snapshot.
func (c *Client) Status(ctx context.Context, kind model.JobKind, jobID string) (model.StatusSnapshot, error) {
	var snap model.StatusSnapshot
	resp, err := c.do(ctx, http.MethodGet, c.StatusURL(kind, jobID), nil)
	if err != nil {
		return snap, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return snap, apperrors.NotFoundf("job %s not found", jobID)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return snap, c.statusError(resp, "status "+jobID)
	}

	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return snap, apperrors.Transport("decode status response", err)
	}
	if err := snap.Validate(); err != nil {
		return snap, apperrors.Validation(err.Error())
	}
	return snap, nil
}

// Cancel requests a best-effort stop of a running job. The returned flag is
// the backend's acknowledgement, not a guarantee the job has stopped.
func (c *Client) Cancel(ctx context.Context, kind model.JobKind, jobID string) (bool, error) {
	endpoint := c.baseURL + routePrefixes[kind] + "/cancel/" + url.PathEscape(jobID)
	resp, err := c.do(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, apperrors.NotFoundf("job %s not found", jobID)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return false, c.statusError(resp, "cancel "+jobID)
	}

	var ack model.CancelJobResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return false, apperrors.Transport("decode cancel response", err)
	}
	return ack.OK, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create backend request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.Transport("backend request failed", err)
	}
	return resp, nil
}

const maxErrorBody = 4 << 10

func (c *Client) statusError(resp *http.Response, op string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := strings.TrimSpace(string(raw))
	if detail == "" {
		detail = resp.Status
	}
	if resp.StatusCode >= 500 {
		return apperrors.Unavailable(fmt.Sprintf("backend %s: %s", op, detail), nil)
	}
	return apperrors.Transport(fmt.Sprintf("backend %s: %s", op, detail), nil)
}
