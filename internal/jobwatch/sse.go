package jobwatch

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ragforge/console/internal/domain/model"
	apperrors "github.com/ragforge/console/internal/errors"
)

const (
	sseInitialBufSize = 64 * 1024
	sseMaxLineSize    = 1024 * 1024
)

// StreamTransport consumes the backend's Server-Sent Events endpoint for one
// job and forwards decoded events. Malformed payloads are logged and dropped
// without closing the connection; transport-level failures end Run with a
// transport error and are never retried here.
type StreamTransport struct {
	// URL is the fully built stream endpoint for one job.
	URL string
	// Client issues the streaming request. It must not carry a client-level
	// timeout, which would kill long-lived streams. Defaults to a fresh client.
	Client *http.Client
	Logger *slog.Logger
}

// Run opens the stream and forwards events until the context is cancelled,
// a terminal event arrives, or the connection fails.
func (t *StreamTransport) Run(ctx context.Context, events chan<- model.Event) error {
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := t.Client
	if client == nil {
		client = &http.Client{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return apperrors.Transport("build stream request", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return apperrors.Transport("open event stream", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return apperrors.Transport(fmt.Sprintf("event stream returned status %d", resp.StatusCode), nil)
	}

	return t.consume(ctx, resp.Body, events, logger)
}

type sseFrame struct {
	name string
	data bytes.Buffer
}

func (f *sseFrame) reset() {
	f.name = ""
	f.data.Reset()
}

func (f *sseFrame) empty() bool {
	return f.name == "" && f.data.Len() == 0
}

func (t *StreamTransport) consume(
	ctx context.Context,
	body io.Reader,
	events chan<- model.Event,
	logger *slog.Logger,
) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, sseInitialBufSize), sseMaxLineSize)

	var frame sseFrame
	sawTerminal := false

	for scanner.Scan() {
		line := scanner.Text()

		// Blank line terminates a frame.
		if line == "" {
			terminal, ok := t.dispatch(ctx, &frame, events, logger)
			if !ok {
				return nil
			}
			if terminal {
				sawTerminal = true
			}
			frame.reset()
			continue
		}

		// Comment lines keep the connection alive and carry no data.
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			frame.name = value
		case "data":
			if frame.data.Len() > 0 {
				frame.data.WriteByte('\n')
			}
			frame.data.WriteString(value)
		default:
			// id/retry and unknown fields are irrelevant to the watcher.
		}
	}

	if ctx.Err() != nil || sawTerminal {
		return nil
	}
	return apperrors.Transport("event stream closed", scanner.Err())
}

// dispatch decodes and emits one completed frame. Returns terminal=true when
// a terminal event was emitted and ok=false when the watch was torn down.
func (t *StreamTransport) dispatch(
	ctx context.Context,
	frame *sseFrame,
	events chan<- model.Event,
	logger *slog.Logger,
) (terminal, ok bool) {
	if frame.empty() {
		return false, true
	}

	ev, err := model.DecodeEvent(frame.name, frame.data.Bytes())
	if err != nil {
		logger.Warn("dropping malformed stream event", "url", t.URL, "error", err)
		return false, true
	}

	if !emit(ctx, events, ev) {
		return false, false
	}
	return ev.Name.Terminal(), true
}
