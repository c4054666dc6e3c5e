package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragforge/console/internal/domain/model"
	apperrors "github.com/ragforge/console/internal/errors"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return c, srv
}

func TestNewClientValidatesBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{name: "valid", baseURL: "http://localhost:9400", wantErr: false},
		{name: "trailing slash trimmed", baseURL: "http://localhost:9400/", wantErr: false},
		{name: "empty", baseURL: "", wantErr: true},
		{name: "no scheme", baseURL: "localhost:9400", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(Config{BaseURL: tt.baseURL})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "http://localhost:9400", c.baseURL)
		})
	}
}

func TestClientStart(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/cards/start", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var params map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		assert.Equal(t, "catalog-v2", params["source"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"job_id":"j-001"}`))
	}))

	resp, err := c.Start(context.Background(), model.StartJobRequest{
		Kind:   model.JobKindCardsBuild,
		Params: map[string]any{"source": "catalog-v2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "j-001", resp.JobID)
}

func TestClientStartConflictCarriesRunningJobID(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"detail":"index run already in progress","job_id":"j-live"}`))
	}))

	_, err := c.Start(context.Background(), model.StartJobRequest{Kind: model.JobKindIndexRun})
	require.Error(t, err)
	assert.True(t, apperrors.IsAlreadyRunning(err))
	assert.Equal(t, "j-live", apperrors.GetJobID(err))
	assert.Contains(t, err.Error(), "already in progress")
}

func TestClientStartConflictWithoutBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	_, err := c.Start(context.Background(), model.StartJobRequest{Kind: model.JobKindRerankerTrain})
	require.Error(t, err)
	assert.True(t, apperrors.IsAlreadyRunning(err))
	assert.Empty(t, apperrors.GetJobID(err), "no job id to attach to")
}

func TestClientStartRejectsInvalidKind(t *testing.T) {
	c, err := NewClient(Config{BaseURL: "http://localhost:9400"})
	require.NoError(t, err)

	_, err = c.Start(context.Background(), model.StartJobRequest{Kind: "nope"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestClientStartMissingJobIDIsTransportError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))

	_, err := c.Start(context.Background(), model.StartJobRequest{Kind: model.JobKindCardsBuild})
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
}

func TestClientStatus(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/index/status/j-002", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"running","stage":"embed","done":120,"total":400}`))
	}))

	snap, err := c.Status(context.Background(), model.JobKindIndexRun, "j-002")
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusRunning, snap.Status)
	assert.Equal(t, "embed", snap.Stage)
	assert.Equal(t, int64(120), snap.Done)
}

func TestClientStatusNotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such job", http.StatusNotFound)
	}))

	_, err := c.Status(context.Background(), model.JobKindIndexRun, "gone")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestClientStatusRejectsUnknownStatus(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"exploded"}`))
	}))

	_, err := c.Status(context.Background(), model.JobKindCardsBuild, "j-003")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestClientCancel(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/reranker/cancel/j-004", r.URL.Path)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))

	ok, err := c.Cancel(context.Background(), model.JobKindRerankerTrain, "j-004")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClientCancelNotAcknowledged(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false}`))
	}))

	ok, err := c.Cancel(context.Background(), model.JobKindCardsBuild, "j-005")
	require.NoError(t, err)
	assert.False(t, ok, "backend declined the cancel; not an error")
}

func TestClientServerErrorIsUnavailable(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusServiceUnavailable)
	}))

	_, err := c.Status(context.Background(), model.JobKindCardsBuild, "j-006")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))
}

func TestClientURLHelpers(t *testing.T) {
	c, err := NewClient(Config{BaseURL: "http://backend:9400/"})
	require.NoError(t, err)

	assert.Equal(t, "http://backend:9400/api/cards/stream/j-007", c.StreamURL(model.JobKindCardsBuild, "j-007"))
	assert.Equal(t, "http://backend:9400/api/reranker/status/j-007", c.StatusURL(model.JobKindRerankerTrain, "j-007"))
}
