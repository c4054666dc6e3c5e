package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventName identifies the normalized progress event types. They form a
// tagged union: the name selects which payload fields are meaningful.
type EventName string

const (
	// EventProgress carries a partial-Job patch while the job is in flight.
	EventProgress EventName = "progress"
	// EventDone signals terminal success with a final snapshot.
	EventDone EventName = "done"
	// EventError signals terminal failure with a message.
	EventError EventName = "error"
	// EventCancelled signals user- or backend-initiated cancellation. Terminal.
	EventCancelled EventName = "cancelled"
)

// Valid returns true if the EventName is one of the known stream events.
func (n EventName) Valid() bool {
	return n == EventProgress || n == EventDone || n == EventError || n == EventCancelled
}

// Terminal returns true for events that end a job's lifecycle.
func (n EventName) Terminal() bool {
	return n == EventDone || n == EventError || n == EventCancelled
}

// Event is one normalized progress event, regardless of the transport that
// produced it. Payload fields are pointers: nil means "absent from the patch,
// leave the current value unchanged".
type Event struct {
	Name       EventName
	Stage      *string
	Done       *int64
	Total      *int64
	Pct        *float64
	Message    *string
	Error      *string
	ReceivedAt time.Time
}

// eventPayload is the wire shape of an SSE event's data field. Unknown extra
// fields are tolerated so the backend payload can evolve; the tagged union is
// enforced by the event name, not by field presence checks downstream.
type eventPayload struct {
	Stage   *string  `json:"stage"`
	Done    *int64   `json:"done"`
	Total   *int64   `json:"total"`
	Pct     *float64 `json:"pct"`
	Message *string  `json:"message"`
	Error   *string  `json:"error"`
}

// DecodeEvent validates a named stream event at the transport boundary.
// Unknown event names and malformed payloads are rejected; callers log and
// drop them without closing the stream.
func DecodeEvent(name string, data []byte) (Event, error) {
	n := EventName(name)
	if !n.Valid() {
		return Event{}, fmt.Errorf("unknown stream event %q", name)
	}

	var p eventPayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &p); err != nil {
			return Event{}, fmt.Errorf("decode %s payload: %w", name, err)
		}
	}

	if n == EventError && p.Error == nil && p.Message == nil {
		return Event{}, fmt.Errorf("error event missing error message")
	}

	return Event{
		Name:       n,
		Stage:      p.Stage,
		Done:       p.Done,
		Total:      p.Total,
		Pct:        p.Pct,
		Message:    p.Message,
		Error:      p.Error,
		ReceivedAt: time.Now(),
	}, nil
}

// StatusSnapshot is the full job state returned by the polling endpoint.
// Unlike stream events it is a complete snapshot, not a patch.
type StatusSnapshot struct {
	Status  JobStatus `json:"status"`
	Stage   string    `json:"stage"`
	Done    int64     `json:"done"`
	Total   int64     `json:"total"`
	Pct     float64   `json:"pct"`
	Message string    `json:"message,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// Validate rejects snapshots with an unknown status.
func (s *StatusSnapshot) Validate() error {
	if !s.Status.Valid() {
		return fmt.Errorf("unknown job status %q", s.Status)
	}
	return nil
}

// Event translates the snapshot into a normalized event so both transports
// feed the state machine identically. Polled snapshots may skip stages; the
// state machine applies whatever the latest snapshot says.
func (s *StatusSnapshot) Event() Event {
	ev := Event{
		Stage:      ptr(s.Stage),
		Done:       ptr(s.Done),
		Total:      ptr(s.Total),
		Pct:        ptr(s.Pct),
		ReceivedAt: time.Now(),
	}
	if s.Message != "" {
		ev.Message = ptr(s.Message)
	}
	if s.Error != "" {
		ev.Error = ptr(s.Error)
	}

	switch s.Status {
	case JobStatusDone:
		ev.Name = EventDone
	case JobStatusError:
		ev.Name = EventError
	case JobStatusCancelled:
		ev.Name = EventCancelled
	case JobStatusIdle, JobStatusRunning:
		ev.Name = EventProgress
	}
	return ev
}

func ptr[T any](v T) *T {
	return &v
}
