package jobwatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragforge/console/internal/domain/model"
	apperrors "github.com/ragforge/console/internal/errors"
)

// sseServer serves a fixed body as an event stream.
func sseServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, err := w.Write([]byte(body))
		require.NoError(t, err)
	}))
}

// collectEvents drains a transport run into a slice.
func collectEvents(t *testing.T, tr Transport) ([]model.Event, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := make(chan model.Event, 32)
	errCh := make(chan error, 1)
	go func() {
		errCh <- tr.Run(ctx, events)
		close(events)
	}()

	var got []model.Event
	for ev := range events {
		got = append(got, ev)
	}
	return got, <-errCh
}

func TestStreamTransportParsesNamedEvents(t *testing.T) {
	body := "event: progress\n" +
		"data: {\"stage\":\"scan\",\"done\":0,\"total\":100}\n" +
		"\n" +
		"event: progress\n" +
		"data: {\"stage\":\"chunk\",\"done\":40,\"total\":100}\n" +
		"\n" +
		"event: done\n" +
		"data: {\"done\":100,\"total\":100}\n" +
		"\n"
	srv := sseServer(t, body)
	defer srv.Close()

	tr := &StreamTransport{URL: srv.URL, Logger: testLogger()}
	got, err := collectEvents(t, tr)
	require.NoError(t, err, "stream ending after a terminal event is a clean end")

	require.Len(t, got, 3)
	assert.Equal(t, model.EventProgress, got[0].Name)
	assert.Equal(t, "scan", *got[0].Stage)
	assert.Equal(t, "chunk", *got[1].Stage)
	assert.Equal(t, model.EventDone, got[2].Name)
}

func TestStreamTransportDropsMalformedPayloads(t *testing.T) {
	body := "event: progress\n" +
		"data: {not json\n" +
		"\n" +
		"event: heartbeat\n" +
		"data: {}\n" +
		"\n" +
		"event: cancelled\n" +
		"data: {}\n" +
		"\n"
	srv := sseServer(t, body)
	defer srv.Close()

	tr := &StreamTransport{URL: srv.URL, Logger: testLogger()}
	got, err := collectEvents(t, tr)
	require.NoError(t, err)

	// Malformed payload and unknown event name are dropped, not fatal.
	require.Len(t, got, 1)
	assert.Equal(t, model.EventCancelled, got[0].Name)
}

func TestStreamTransportIgnoresCommentsAndMultilineData(t *testing.T) {
	body := ": keep-alive\n" +
		"\n" +
		"event: progress\n" +
		"data: {\"stage\":\"scan\",\n" +
		"data: \"done\":1,\"total\":2}\n" +
		"\n" +
		"event: done\n" +
		"data: {}\n" +
		"\n"
	srv := sseServer(t, body)
	defer srv.Close()

	tr := &StreamTransport{URL: srv.URL, Logger: testLogger()}
	got, err := collectEvents(t, tr)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, int64(1), *got[0].Done)
}

func TestStreamTransportConnectionRefusedIsTransportError(t *testing.T) {
	srv := sseServer(t, "")
	srv.Close() // refuse immediately

	tr := &StreamTransport{URL: srv.URL, Logger: testLogger()}
	_, err := collectEvents(t, tr)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
}

func TestStreamTransportNon200IsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	tr := &StreamTransport{URL: srv.URL, Logger: testLogger()}
	_, err := collectEvents(t, tr)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
}

func TestStreamTransportMidJobCloseIsTransportError(t *testing.T) {
	// Stream ends after a non-terminal event: the watcher must fall back.
	body := "event: progress\n" +
		"data: {\"stage\":\"scan\",\"done\":0,\"total\":100}\n" +
		"\n"
	srv := sseServer(t, body)
	defer srv.Close()

	tr := &StreamTransport{URL: srv.URL, Logger: testLogger()}
	got, err := collectEvents(t, tr)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
	require.Len(t, got, 1)
}

func TestStreamTransportStopsOnContextCancel(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan model.Event, 1)
	errCh := make(chan error, 1)

	tr := &StreamTransport{URL: srv.URL, Logger: testLogger()}
	go func() { errCh <- tr.Run(ctx, events) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err, "cancellation is a clean stop, not a transport failure")
	case <-time.After(2 * time.Second):
		t.Fatal("transport did not stop after context cancel")
	}
}
