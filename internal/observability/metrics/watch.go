// Package metrics adapts watcher lifecycle signals onto the StatsD sink.
package metrics

import (
	"time"

	"github.com/ragforge/console/internal/domain/model"
	"github.com/ragforge/console/internal/jobwatch"
	"github.com/ragforge/console/internal/observability/statsd"
)

// WatchMetrics emits counters and timings for the job watching lifecycle.
// A nil sink disables emission.
type WatchMetrics struct {
	sink statsd.Sink
}

var _ jobwatch.Metrics = (*WatchMetrics)(nil)

// NewWatchMetrics creates a WatchMetrics over the given sink.
func NewWatchMetrics(sink statsd.Sink) *WatchMetrics {
	return &WatchMetrics{sink: sink}
}

// Fallback counts stream-to-poll degradations.
func (m *WatchMetrics) Fallback(kind model.JobKind) {
	if m == nil || m.sink == nil {
		return
	}
	m.sink.Count("watch.fallback", 1, map[string]string{"kind": string(kind)})
}

// EventApplied counts accepted progress events by kind and event name.
func (m *WatchMetrics) EventApplied(kind model.JobKind, event model.EventName) {
	if m == nil || m.sink == nil {
		return
	}
	m.sink.Count("watch.event", 1, map[string]string{
		"kind":  string(kind),
		"event": string(event),
	})
}

// StaleTimeout counts dead-man timeouts.
func (m *WatchMetrics) StaleTimeout(kind model.JobKind) {
	if m == nil || m.sink == nil {
		return
	}
	m.sink.Count("watch.stale_timeout", 1, map[string]string{"kind": string(kind)})
}

// Terminal records the end of a watch with its final status and duration.
func (m *WatchMetrics) Terminal(kind model.JobKind, status model.JobStatus, elapsed time.Duration) {
	if m == nil || m.sink == nil {
		return
	}
	tags := map[string]string{
		"kind":   string(kind),
		"status": string(status),
	}
	m.sink.Count("watch.terminal", 1, tags)
	if elapsed > 0 {
		m.sink.Timing("watch.duration", elapsed, tags)
	}
}
