package config

import (
	"strings"
	"time"
)

const minPollInterval = 100 * time.Millisecond

// BackendConfig describes how to reach the RAG platform backend the console fronts.
type BackendConfig struct {
	// BaseURL is the root URL of the backend API (e.g. "http://localhost:9400").
	BaseURL string `env:"BACKEND_BASE_URL" envDefault:"http://localhost:9400"`

	// RequestTimeout bounds unary calls (start, status, cancel). Streaming
	// requests are not subject to this timeout.
	RequestTimeout time.Duration `env:"BACKEND_REQUEST_TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to backend configuration values.
func (b *BackendConfig) Sanitize() {
	b.BaseURL = strings.TrimRight(strings.TrimSpace(b.BaseURL), "/")
	if b.RequestTimeout <= 0 {
		b.RequestTimeout = 10 * time.Second
	}
}

// WatchConfig tunes the job progress watcher.
type WatchConfig struct {
	// PollInterval is the fallback polling cadence once SSE has failed.
	PollInterval time.Duration `env:"WATCH_POLL_INTERVAL" envDefault:"1s"`

	// StaleAfter is the dead-man timeout: a running job with no events for
	// this long is surfaced as failed. Floored at 3x PollInterval so a single
	// missed poll cannot trip it.
	StaleAfter time.Duration `env:"WATCH_STALE_AFTER" envDefault:"6s"`

	// SnapshotTTL is how long the latest job snapshot is kept in the cache.
	SnapshotTTL time.Duration `env:"WATCH_SNAPSHOT_TTL" envDefault:"10m"`
}

// Sanitize applies guardrails to watcher configuration values.
func (w *WatchConfig) Sanitize() {
	if w.PollInterval < minPollInterval {
		w.PollInterval = minPollInterval
	}
	if w.StaleAfter < 3*w.PollInterval {
		w.StaleAfter = 3 * w.PollInterval
	}
	if w.SnapshotTTL <= 0 {
		w.SnapshotTTL = 10 * time.Minute
	}
}

// HistoryConfig controls retention of persisted job runs.
type HistoryConfig struct {
	// Retention is how long terminal job runs are kept before the janitor
	// prunes them.
	Retention time.Duration `env:"HISTORY_RETENTION" envDefault:"720h"`

	// PruneInterval is how often the janitor sweeps expired runs.
	PruneInterval time.Duration `env:"HISTORY_PRUNE_INTERVAL" envDefault:"1h"`
}

// Sanitize applies guardrails to history configuration values.
func (h *HistoryConfig) Sanitize() {
	if h.Retention <= 0 {
		h.Retention = 720 * time.Hour
	}
	if h.PruneInterval < time.Minute {
		h.PruneInterval = time.Minute
	}
}
