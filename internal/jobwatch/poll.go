package jobwatch

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ragforge/console/internal/domain/model"
)

const defaultPollInterval = time.Second

// PollTransport approximates the event stream by fetching the full status
// snapshot on a fixed interval. Each successful response is translated into
// the same normalized event shape the stream produces.
//
// Poll failures (network errors, non-2xx) are retried on the same interval
// indefinitely and never produce an error event themselves; only the
// watcher's dead-man timeout fails a silent job. A transient blip therefore
// cannot prematurely fail a long build.
type PollTransport struct {
	// URL is the fully built status endpoint for one job.
	URL      string
	Client   *http.Client
	Interval time.Duration
	Logger   *slog.Logger
}

// Run polls until the context is cancelled or a terminal snapshot is
// observed. It never returns a transport error: polling is the last resort.
func (t *PollTransport) Run(ctx context.Context, events chan<- model.Event) error {
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := t.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	client := t.Client
	if client == nil {
		client = &http.Client{}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if stop := t.poll(ctx, client, interval, events, logger); stop {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// poll performs one status fetch. Returns true when the loop should stop
// (terminal snapshot delivered or watch torn down).
func (t *PollTransport) poll(
	ctx context.Context,
	client *http.Client,
	interval time.Duration,
	events chan<- model.Event,
	logger *slog.Logger,
) bool {
	snap, ok := t.fetch(ctx, client, interval, logger)
	if !ok {
		return ctx.Err() != nil
	}

	ev := snap.Event()
	if !emit(ctx, events, ev) {
		return true
	}
	return ev.Name.Terminal()
}

func (t *PollTransport) fetch(
	ctx context.Context,
	client *http.Client,
	interval time.Duration,
	logger *slog.Logger,
) (model.StatusSnapshot, bool) {
	// Bound each request so a hung poll cannot outlive its slot; the next
	// tick simply tries again.
	timeout := interval
	if timeout < time.Second {
		timeout = time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, t.URL, nil)
	if err != nil {
		logger.Warn("build status request", "url", t.URL, "error", err)
		return model.StatusSnapshot{}, false
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			logger.Debug("status poll failed; will retry", "url", t.URL, "error", err)
		}
		return model.StatusSnapshot{}, false
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Debug("status poll returned non-2xx; will retry", "url", t.URL, "status", resp.StatusCode)
		return model.StatusSnapshot{}, false
	}

	var snap model.StatusSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		logger.Warn("decode status snapshot; will retry", "url", t.URL, "error", err)
		return model.StatusSnapshot{}, false
	}
	if err := snap.Validate(); err != nil {
		logger.Warn("invalid status snapshot; will retry", "url", t.URL, "error", err)
		return model.StatusSnapshot{}, false
	}

	return snap, true
}
