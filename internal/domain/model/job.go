// Package model defines the core data types shared by the console's job watching system.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobKind represents the type of backend job being tracked.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobKind string

// JobStatus represents the current lifecycle state of a tracked job.
type JobStatus string

const (
	// JobKindCardsBuild represents a knowledge-card build job.
	JobKindCardsBuild JobKind = "cards-build"
	// JobKindIndexRun represents an index build/refresh job.
	JobKindIndexRun JobKind = "index-run"
	// JobKindRerankerTrain represents a reranker training job.
	JobKindRerankerTrain JobKind = "reranker-train"

	// JobStatusIdle indicates no event has been observed for the job yet.
	JobStatusIdle JobStatus = "idle"
	// JobStatusRunning indicates the job is in flight.
	JobStatusRunning JobStatus = "running"
	// JobStatusDone indicates the job finished successfully. Terminal.
	JobStatusDone JobStatus = "done"
	// JobStatusError indicates the job failed. Terminal.
	JobStatusError JobStatus = "error"
	// JobStatusCancelled indicates the job was cancelled. Terminal.
	JobStatusCancelled JobStatus = "cancelled"
)

// UnmarshalText implements encoding.TextUnmarshaler for JobKind to allow env and flag parsing.
func (k *JobKind) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	jk := JobKind(v)
	if jk.Valid() {
		*k = jk
		return nil
	}
	return fmt.Errorf("invalid JobKind: %q", v)
}

// Valid returns true if the JobKind is valid.
func (k JobKind) Valid() bool {
	return k == JobKindCardsBuild || k == JobKindIndexRun || k == JobKindRerankerTrain
}

// ValidJobKinds returns all known job kinds.
func ValidJobKinds() []JobKind {
	return []JobKind{JobKindCardsBuild, JobKindIndexRun, JobKindRerankerTrain}
}

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	return s == JobStatusIdle || s == JobStatusRunning ||
		s == JobStatusDone || s == JobStatusError || s == JobStatusCancelled
}

// Terminal returns true for states no transition may leave.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusError || s == JobStatusCancelled
}

// Progress describes how far a job has advanced. Total == 0 means the backend
// does not know the total (indeterminate progress).
type Progress struct {
	Done  int64   `json:"done"`
	Total int64   `json:"total"`
	Pct   float64 `json:"pct"`
}

// ComputePct derives the displayed percentage. When total is known the value
// is always recomputed from done/total; the backend-reported percentage is
// only trusted for indeterminate totals.
func ComputePct(done, total int64, reported float64) float64 {
	if total <= 0 {
		return reported
	}
	pct := float64(done) / float64(total) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// Job is the immutable snapshot of one tracked backend job. Subscribers
// receive copies, never shared references.
type Job struct {
	ID        string    `json:"id"`
	Kind      JobKind   `json:"kind"`
	Status    JobStatus `json:"status"`
	Stage     string    `json:"stage,omitempty"`
	Progress  Progress  `json:"progress"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StartJobRequest carries the parameters for starting a backend job.
type StartJobRequest struct {
	Kind   JobKind        `json:"kind"`
	Params map[string]any `json:"params,omitempty"`
}

// Validate validates the StartJobRequest fields.
func (r *StartJobRequest) Validate() error {
	if !r.Kind.Valid() {
		return errors.New("invalid job kind")
	}
	return nil
}

// StartJobResponse is the backend's reply to a start call.
type StartJobResponse struct {
	JobID string `json:"job_id"`
}

// CancelJobResponse is the backend's reply to a cancel call.
type CancelJobResponse struct {
	OK bool `json:"ok"`
}

// JobRun is a persisted terminal snapshot, kept for the dashboard's
// recent-runs and benchmark-comparison panels.
type JobRun struct {
	ID         string    `db:"id"          json:"id"`
	JobID      string    `db:"job_id"      json:"job_id"`
	Kind       JobKind   `db:"kind"        json:"kind"`
	Status     JobStatus `db:"status"      json:"status"`
	Stage      string    `db:"stage"       json:"stage,omitempty"`
	Done       int64     `db:"done"        json:"done"`
	Total      int64     `db:"total"       json:"total"`
	Pct        float64   `db:"pct"         json:"pct"`
	Message    string    `db:"message"     json:"message,omitempty"`
	Error      string    `db:"error"       json:"error,omitempty"`
	StartedAt  time.Time `db:"started_at"  json:"started_at"`
	FinishedAt time.Time `db:"finished_at" json:"finished_at"`
}
