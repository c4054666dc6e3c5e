package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ragforge/console/internal/domain/model"
	apperrors "github.com/ragforge/console/internal/errors"
)

// Events handles GET /api/jobs/{id}/events: a server-sent event stream of job
// snapshots relayed from the active watch. Event names mirror the backend's
// (progress, done, error, cancelled); each data payload is the full snapshot,
// so clients never have to merge partial patches themselves. For jobs with no
// active watch the last known snapshot is replayed once and the stream closed.
func (h *JobHandlers) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "streaming_unsupported",
			Err:     fmt.Errorf("response writer does not support streaming"),
		})
		return
	}

	jobID := r.PathValue("id")
	updates, unsub, err := h.Svc.Subscribe(jobID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			WriteAppError(w, err)
			return
		}
		// No live watch. Replay the last known snapshot so late joiners
		// still render a terminal state, then end the stream.
		job, getErr := h.Svc.GetJob(r.Context(), jobID)
		if getErr != nil {
			WriteAppError(w, getErr)
			return
		}
		startEventStream(w)
		writeEvent(w, flusher, job)
		return
	}
	defer unsub()

	startEventStream(w)

	var keepAlive <-chan time.Time
	if h.KeepAlive > 0 {
		ticker := time.NewTicker(h.KeepAlive)
		defer ticker.Stop()
		keepAlive = ticker.C
	}

	for {
		select {
		case <-r.Context().Done():
			return

		case job, open := <-updates:
			if !open {
				return
			}
			writeEvent(w, flusher, job)
			if job.Status.Terminal() {
				return
			}

		case <-keepAlive:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

func startEventStream(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	// Disable proxy buffering so events reach the browser as they happen.
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, job model.Job) {
	data, err := json.Marshal(job)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventNameFor(job.Status), data)
	flusher.Flush()
}

func eventNameFor(status model.JobStatus) model.EventName {
	switch status {
	case model.JobStatusDone:
		return model.EventDone
	case model.JobStatusError:
		return model.EventError
	case model.JobStatusCancelled:
		return model.EventCancelled
	default:
		return model.EventProgress
	}
}
