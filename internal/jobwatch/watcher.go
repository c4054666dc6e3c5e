package jobwatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ragforge/console/internal/domain/model"
)

const (
	defaultStaleAfter = 6 * time.Second
	updatesBuffer     = 16
)

// Metrics receives watcher lifecycle signals. Implementations must be safe
// for concurrent use; a nil Metrics in Options disables emission.
type Metrics interface {
	Fallback(kind model.JobKind)
	EventApplied(kind model.JobKind, event model.EventName)
	StaleTimeout(kind model.JobKind)
	Terminal(kind model.JobKind, status model.JobStatus, elapsed time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) Fallback(model.JobKind)                                 {}
func (nopMetrics) EventApplied(model.JobKind, model.EventName)            {}
func (nopMetrics) StaleTimeout(model.JobKind)                             {}
func (nopMetrics) Terminal(model.JobKind, model.JobStatus, time.Duration) {}

// Options configure one watch.
type Options struct {
	JobID string
	Kind  model.JobKind

	// Stream is the preferred transport (SSE). Required.
	Stream Transport
	// Poll is the fallback transport. Required.
	Poll Transport

	// StaleAfter is the dead-man timeout: with no event for this long while
	// the job is non-terminal, the watcher surfaces a synthetic error.
	// Defaults to 6s (6x the conventional 1s poll interval).
	StaleAfter time.Duration

	// OnUpdate, when set, is subscribed before the watch begins so the very
	// first snapshot cannot be missed. Further subscribers may be added later
	// via Watcher.OnUpdate.
	OnUpdate func(model.Job)

	Logger  *slog.Logger
	Metrics Metrics
}

// Watcher owns the full watch lifecycle for one job: transport selection and
// fallback, the state machine, and subscriber fan-out. Exactly one transport
// is active at any time. Once degraded to polling a watch never re-promotes
// to the stream for the remainder of the job: re-negotiating transport
// mid-stream risks duplicate or out-of-order events.
type Watcher struct {
	jobID   string
	kind    model.JobKind
	stream  Transport
	poll    Transport
	stale   time.Duration
	logger  *slog.Logger
	metrics Metrics

	tracker *Tracker
	cancel  context.CancelFunc
	updates chan model.Job
	done    chan struct{}
}

// Start validates options, opens the preferred transport, and begins
// tracking. The watch stops when a terminal state is reached, the dead-man
// timeout fires, Stop is called, or ctx is cancelled.
func Start(ctx context.Context, opts Options) (*Watcher, error) {
	if opts.JobID == "" {
		return nil, errors.New("job id is required")
	}
	if !opts.Kind.Valid() {
		return nil, errors.New("valid job kind is required")
	}
	if opts.Stream == nil || opts.Poll == nil {
		return nil, errors.New("stream and poll transports are required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	stale := opts.StaleAfter
	if stale <= 0 {
		stale = defaultStaleAfter
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		jobID:   opts.JobID,
		kind:    opts.Kind,
		stream:  opts.Stream,
		poll:    opts.Poll,
		stale:   stale,
		logger:  logger,
		metrics: metrics,
		tracker: NewTracker(opts.JobID, opts.Kind, logger),
		cancel:  cancel,
		updates: make(chan model.Job, updatesBuffer),
		done:    make(chan struct{}),
	}

	if opts.OnUpdate != nil {
		w.tracker.Subscribe(opts.OnUpdate)
	}

	go w.run(watchCtx)
	return w, nil
}

// OnUpdate registers a callback invoked synchronously with every accepted
// snapshot. The returned function removes the subscription.
func (w *Watcher) OnUpdate(fn func(model.Job)) func() {
	return w.tracker.Subscribe(fn)
}

// Updates returns a channel of snapshots for consumers that prefer select
// loops. Intermediate progress snapshots may be coalesced under a slow
// consumer, but the terminal snapshot is always the last value delivered
// before the channel closes.
func (w *Watcher) Updates() <-chan model.Job {
	return w.updates
}

// Snapshot returns a copy of the latest job state.
func (w *Watcher) Snapshot() model.Job {
	return w.tracker.Snapshot()
}

// Done is closed once the watch has fully stopped.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Stop tears down the active transport so no further events are processed,
// regardless of backend acknowledgement timing. Idempotent.
func (w *Watcher) Stop() {
	w.cancel()
}

func (w *Watcher) run(ctx context.Context) {
	unsub := w.tracker.Subscribe(w.pushUpdate)
	defer func() {
		w.cancel()
		unsub()
		close(w.updates)
		close(w.done)
	}()

	events := make(chan model.Event)
	go w.runTransports(ctx, events)

	staleTimer := time.NewTimer(w.stale)
	defer staleTimer.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				// Transports finished. If that was a clean terminal end the
				// snapshot is terminal; otherwise keep the stale timer armed.
				if w.tracker.Snapshot().Status.Terminal() {
					return
				}
				events = nil
				continue
			}
			if !w.tracker.Apply(ev) {
				continue
			}
			w.metrics.EventApplied(w.kind, ev.Name)
			if ev.Name.Terminal() {
				w.metrics.Terminal(w.kind, w.tracker.Snapshot().Status, time.Since(start))
				return
			}
			resetTimer(staleTimer, w.stale)

		case <-staleTimer.C:
			if w.tracker.MarkStale() {
				w.metrics.StaleTimeout(w.kind)
				w.metrics.Terminal(w.kind, model.JobStatusError, time.Since(start))
			}
			return
		}
	}
}

// runTransports implements the fallback policy: stream first, then polling
// for the rest of the job's lifetime.
func (w *Watcher) runTransports(ctx context.Context, events chan<- model.Event) {
	defer close(events)

	err := w.stream.Run(ctx, events)
	if err == nil || ctx.Err() != nil {
		return
	}

	w.logger.Warn("event stream failed; falling back to polling",
		"job_id", w.jobID,
		"kind", string(w.kind),
		"error", err)
	w.metrics.Fallback(w.kind)

	if pollErr := w.poll.Run(ctx, events); pollErr != nil {
		w.logger.Error("poll transport stopped unexpectedly",
			"job_id", w.jobID,
			"error", pollErr)
	}
}

// pushUpdate feeds the updates channel with latest-wins semantics: if the
// buffer is full the oldest snapshot is dropped so a stalled reader never
// blocks the event loop and always converges on the newest state.
func (w *Watcher) pushUpdate(job model.Job) {
	for {
		select {
		case w.updates <- job:
			return
		default:
		}
		select {
		case <-w.updates:
		default:
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
