package jobwatch

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ragforge/console/internal/domain/model"
	apperrors "github.com/ragforge/console/internal/errors"
)

// Tracker is the state machine for one tracked job:
// idle -> running -> {done, error, cancelled}. The three right-hand states are
// terminal; events arriving in a terminal state are logged and ignored, which
// guards against the race between SSE teardown and a late final poll.
//
// Every accepted transition notifies subscribers synchronously with an
// immutable snapshot copy. Apply and MarkStale must be driven from a single
// goroutine (the watcher's event loop) so subscribers observe transitions in
// order.
type Tracker struct {
	mu      sync.Mutex
	job     model.Job
	nextSub int
	subs    map[int]func(model.Job)
	logger  *slog.Logger
}

// NewTracker creates a tracker for the given job in the idle state.
func NewTracker(jobID string, kind model.JobKind, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		job: model.Job{
			ID:     jobID,
			Kind:   kind,
			Status: model.JobStatusIdle,
		},
		subs:   make(map[int]func(model.Job)),
		logger: logger,
	}
}

// Apply folds one normalized event into the job state. Events are patches:
// fields absent from the event leave the current value unchanged. Returns
// true if the event produced a transition, false if it was ignored.
func (t *Tracker) Apply(ev model.Event) bool {
	t.mu.Lock()

	if t.job.Status.Terminal() {
		jobID, status := t.job.ID, t.job.Status
		t.mu.Unlock()
		t.logger.Debug("ignoring event for terminal job",
			"job_id", jobID,
			"status", string(status),
			"event", string(ev.Name))
		return false
	}

	if ev.Stage != nil {
		t.job.Stage = *ev.Stage
	}
	if ev.Done != nil {
		t.job.Progress.Done = *ev.Done
	}
	if ev.Total != nil {
		t.job.Progress.Total = *ev.Total
	}
	if ev.Message != nil {
		t.job.Message = *ev.Message
	}

	reported := t.job.Progress.Pct
	if ev.Pct != nil {
		reported = *ev.Pct
	}

	switch ev.Name {
	case model.EventProgress:
		t.job.Status = model.JobStatusRunning
	case model.EventDone:
		t.job.Status = model.JobStatusDone
		if t.job.Progress.Total > 0 {
			t.job.Progress.Done = t.job.Progress.Total
		}
	case model.EventError:
		t.job.Status = model.JobStatusError
		switch {
		case ev.Error != nil:
			t.job.Error = *ev.Error
		case ev.Message != nil:
			t.job.Error = *ev.Message
		default:
			t.job.Error = "job failed"
		}
	case model.EventCancelled:
		t.job.Status = model.JobStatusCancelled
	}

	t.job.Progress.Pct = model.ComputePct(t.job.Progress.Done, t.job.Progress.Total, reported)

	if ev.ReceivedAt.IsZero() {
		t.job.UpdatedAt = time.Now()
	} else {
		t.job.UpdatedAt = ev.ReceivedAt
	}

	snapshot := t.job
	subs := t.subscriberList()
	t.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
	return true
}

// MarkStale transitions a non-terminal job to error with the dead-man timeout
// message. Returns false if the job is already terminal, so repeated timer
// fires cannot produce duplicate error transitions.
func (t *Tracker) MarkStale() bool {
	t.mu.Lock()

	if t.job.Status.Terminal() {
		t.mu.Unlock()
		return false
	}

	t.job.Status = model.JobStatusError
	t.job.Error = apperrors.Stale(t.job.ID).Message
	t.job.UpdatedAt = time.Now()

	snapshot := t.job
	subs := t.subscriberList()
	t.mu.Unlock()

	t.logger.Warn("job marked stale", "job_id", snapshot.ID, "kind", string(snapshot.Kind))
	for _, fn := range subs {
		fn(snapshot)
	}
	return true
}

// Snapshot returns a copy of the current job state.
func (t *Tracker) Snapshot() model.Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.job
}

// Subscribe registers a callback invoked synchronously with each accepted
// snapshot. The returned function removes the subscription.
func (t *Tracker) Subscribe(fn func(model.Job)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subs, id)
	}
}

func (t *Tracker) subscriberList() []func(model.Job) {
	fns := make([]func(model.Job), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	return fns
}
