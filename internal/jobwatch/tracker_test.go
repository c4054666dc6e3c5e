package jobwatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragforge/console/internal/domain/model"
)

func progressEvent(stage string, done, total int64) model.Event {
	return model.Event{
		Name:       model.EventProgress,
		Stage:      &stage,
		Done:       &done,
		Total:      &total,
		ReceivedAt: time.Now(),
	}
}

func TestTrackerFirstProgressMovesIdleToRunning(t *testing.T) {
	tr := NewTracker("abc123", model.JobKindCardsBuild, testLogger())
	require.Equal(t, model.JobStatusIdle, tr.Snapshot().Status)

	require.True(t, tr.Apply(progressEvent("scan", 0, 100)))

	snap := tr.Snapshot()
	assert.Equal(t, model.JobStatusRunning, snap.Status)
	assert.Equal(t, "scan", snap.Stage)
	assert.InDelta(t, 0, snap.Progress.Pct, 1e-9)
}

func TestTrackerPartialPatchKeepsAbsentFields(t *testing.T) {
	tr := NewTracker("abc123", model.JobKindIndexRun, testLogger())
	require.True(t, tr.Apply(progressEvent("chunk", 40, 100)))

	// Event with only a message: stage and progress must survive.
	msg := "summarizing sections"
	require.True(t, tr.Apply(model.Event{Name: model.EventProgress, Message: &msg}))

	snap := tr.Snapshot()
	assert.Equal(t, "chunk", snap.Stage)
	assert.Equal(t, int64(40), snap.Progress.Done)
	assert.InDelta(t, 40, snap.Progress.Pct, 1e-9)
	assert.Equal(t, msg, snap.Message)
}

func TestTrackerPctRecomputedClientSide(t *testing.T) {
	tr := NewTracker("abc123", model.JobKindIndexRun, testLogger())

	// Backend-reported pct disagrees with done/total; done/total wins.
	pct := 5.0
	done, total := int64(50), int64(100)
	require.True(t, tr.Apply(model.Event{
		Name: model.EventProgress, Done: &done, Total: &total, Pct: &pct,
	}))
	assert.InDelta(t, 50, tr.Snapshot().Progress.Pct, 1e-9)

	// Indeterminate total keeps the reported pct.
	tr2 := NewTracker("xyz", model.JobKindIndexRun, testLogger())
	zero := int64(0)
	require.True(t, tr2.Apply(model.Event{
		Name: model.EventProgress, Done: &done, Total: &zero, Pct: &pct,
	}))
	assert.InDelta(t, 5, tr2.Snapshot().Progress.Pct, 1e-9)
}

func TestTrackerDoneForcesFullProgress(t *testing.T) {
	tr := NewTracker("abc123", model.JobKindCardsBuild, testLogger())
	require.True(t, tr.Apply(progressEvent("chunk", 40, 100)))
	require.True(t, tr.Apply(model.Event{Name: model.EventDone}))

	snap := tr.Snapshot()
	assert.Equal(t, model.JobStatusDone, snap.Status)
	assert.Equal(t, int64(100), snap.Progress.Done)
	assert.InDelta(t, 100, snap.Progress.Pct, 1e-9)
}

func TestTrackerTerminalStatesAbsorb(t *testing.T) {
	tests := []struct {
		name     string
		terminal model.Event
		want     model.JobStatus
	}{
		{"done", model.Event{Name: model.EventDone}, model.JobStatusDone},
		{"error", model.Event{Name: model.EventError}, model.JobStatusError},
		{"cancelled", model.Event{Name: model.EventCancelled}, model.JobStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker("abc123", model.JobKindCardsBuild, testLogger())
			require.True(t, tr.Apply(progressEvent("scan", 10, 100)))
			require.True(t, tr.Apply(tt.terminal))

			// Late progress event from the SSE-teardown/final-poll race.
			assert.False(t, tr.Apply(progressEvent("scan", 20, 100)))
			assert.Equal(t, tt.want, tr.Snapshot().Status)

			// A competing terminal event is ignored too.
			assert.False(t, tr.Apply(model.Event{Name: model.EventError}))
			assert.Equal(t, tt.want, tr.Snapshot().Status)
		})
	}
}

func TestTrackerErrorMessagePrecedence(t *testing.T) {
	errMsg := "index build failed"
	tr := NewTracker("abc123", model.JobKindIndexRun, testLogger())
	require.True(t, tr.Apply(model.Event{Name: model.EventError, Error: &errMsg}))
	assert.Equal(t, errMsg, tr.Snapshot().Error)

	msg := "worker lost"
	tr2 := NewTracker("abc123", model.JobKindIndexRun, testLogger())
	require.True(t, tr2.Apply(model.Event{Name: model.EventError, Message: &msg}))
	assert.Equal(t, msg, tr2.Snapshot().Error)

	tr3 := NewTracker("abc123", model.JobKindIndexRun, testLogger())
	require.True(t, tr3.Apply(model.Event{Name: model.EventError}))
	assert.Equal(t, "job failed", tr3.Snapshot().Error)
}

func TestTrackerMarkStaleOnce(t *testing.T) {
	tr := NewTracker("abc123", model.JobKindRerankerTrain, testLogger())
	require.True(t, tr.Apply(progressEvent("train", 1, 10)))

	require.True(t, tr.MarkStale())
	snap := tr.Snapshot()
	assert.Equal(t, model.JobStatusError, snap.Status)
	assert.Equal(t, "no progress received from backend", snap.Error)

	// Repeated timer fires must not produce a second transition.
	assert.False(t, tr.MarkStale())
}

func TestTrackerMarkStaleAfterTerminalIsNoop(t *testing.T) {
	tr := NewTracker("abc123", model.JobKindCardsBuild, testLogger())
	require.True(t, tr.Apply(model.Event{Name: model.EventDone}))
	assert.False(t, tr.MarkStale())
	assert.Equal(t, model.JobStatusDone, tr.Snapshot().Status)
}

func TestTrackerSubscribersGetEverySnapshotInOrder(t *testing.T) {
	tr := NewTracker("abc123", model.JobKindCardsBuild, testLogger())

	var got []model.Job
	unsub := tr.Subscribe(func(j model.Job) { got = append(got, j) })
	defer unsub()

	require.True(t, tr.Apply(progressEvent("scan", 0, 100)))
	require.True(t, tr.Apply(progressEvent("chunk", 40, 100)))
	require.True(t, tr.Apply(model.Event{Name: model.EventDone}))

	require.Len(t, got, 3)
	assert.Equal(t, model.JobStatusRunning, got[0].Status)
	assert.Equal(t, "scan", got[0].Stage)
	assert.Equal(t, "chunk", got[1].Stage)
	assert.InDelta(t, 40, got[1].Progress.Pct, 1e-9)
	assert.Equal(t, model.JobStatusDone, got[2].Status)
	assert.InDelta(t, 100, got[2].Progress.Pct, 1e-9)
}

func TestTrackerUnsubscribeStopsDelivery(t *testing.T) {
	tr := NewTracker("abc123", model.JobKindCardsBuild, testLogger())

	calls := 0
	unsub := tr.Subscribe(func(model.Job) { calls++ })

	require.True(t, tr.Apply(progressEvent("scan", 0, 100)))
	unsub()
	require.True(t, tr.Apply(progressEvent("chunk", 40, 100)))

	assert.Equal(t, 1, calls)
}

func TestTrackerSnapshotsAreCopies(t *testing.T) {
	tr := NewTracker("abc123", model.JobKindCardsBuild, testLogger())
	require.True(t, tr.Apply(progressEvent("scan", 10, 100)))

	snap := tr.Snapshot()
	snap.Stage = "mutated"
	snap.Progress.Done = 999

	assert.Equal(t, "scan", tr.Snapshot().Stage)
	assert.Equal(t, int64(10), tr.Snapshot().Progress.Done)
}
