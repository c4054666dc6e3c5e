// Package jobwatch tracks long-running backend jobs from the console: it
// prefers a Server-Sent Events stream, falls back to status polling when the
// stream fails, and folds both into one job state machine that fans out
// immutable snapshots to subscribers.
package jobwatch

import (
	"context"

	"github.com/ragforge/console/internal/domain/model"
)

// Transport produces one normalized sequence of progress events for a single
// job, regardless of the underlying mechanism.
//
// Run blocks until the context is cancelled, a terminal event has been
// emitted, or the transport fails. A transport-level failure is reported as a
// non-nil error (ErrCodeTransport); the transport never retries itself, the
// watcher decides what happens next. Events must be sent with respect for
// ctx so a torn-down watcher never blocks a transport goroutine.
type Transport interface {
	Run(ctx context.Context, events chan<- model.Event) error
}

// emit delivers an event unless the watch has been torn down.
func emit(ctx context.Context, events chan<- model.Event, ev model.Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
