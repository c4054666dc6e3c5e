package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorMessage(t *testing.T) {
	err := NotFound("job not found")
	assert.Equal(t, "job not found", err.Error())

	cause := errors.New("connection refused")
	wrapped := Wrap(cause, ErrCodeUnavailable, "backend unreachable")
	assert.Equal(t, "backend unreachable: connection refused", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestCodePredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"not found", NotFound("x"), IsNotFound, true},
		{"already running", AlreadyRunning("busy", "job-1"), IsAlreadyRunning, true},
		{"transport", Transport("stream broken", nil), IsTransport, true},
		{"stale", Stale("job-1"), IsStale, true},
		{"unavailable", Unavailable("down", nil), IsUnavailable, true},
		{"validation", Validation("bad"), IsValidation, true},
		{"mismatch", Stale("job-1"), IsTransport, false},
		{"plain error", errors.New("plain"), IsStale, false},
		{"nil", nil, IsNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	inner := AlreadyRunning("a cards build is already running", "job-9")
	outer := fmt.Errorf("start cards-build: %w", inner)

	require.True(t, IsAlreadyRunning(outer))
	assert.Equal(t, "job-9", GetJobID(outer))
	assert.Equal(t, ErrCodeAlreadyRunning, GetCode(outer))
}

func TestStaleCarriesJobID(t *testing.T) {
	err := Stale("abc123")
	assert.Equal(t, "abc123", err.JobID)
	assert.Equal(t, "no progress received from backend", err.Message)
}

func TestGetCodeNonAppError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), GetCode(errors.New("plain")))
	assert.Equal(t, "", GetJobID(errors.New("plain")))
}
