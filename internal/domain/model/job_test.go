package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobKindUnmarshalText(t *testing.T) {
	tests := []struct {
		input   string
		want    JobKind
		wantErr bool
	}{
		{"cards-build", JobKindCardsBuild, false},
		{"INDEX-RUN", JobKindIndexRun, false},
		{" reranker-train ", JobKindRerankerTrain, false},
		{"card-build", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var k JobKind
			err := k.UnmarshalText([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, k)
		})
	}
}

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, JobStatusIdle.Terminal())
	assert.False(t, JobStatusRunning.Terminal())
	assert.True(t, JobStatusDone.Terminal())
	assert.True(t, JobStatusError.Terminal())
	assert.True(t, JobStatusCancelled.Terminal())
}

func TestComputePct(t *testing.T) {
	tests := []struct {
		name     string
		done     int64
		total    int64
		reported float64
		want     float64
	}{
		{"known total recomputes", 40, 100, 7, 40},
		{"zero total keeps reported", 40, 0, 33, 33},
		{"negative total keeps reported", 40, -1, 33, 33},
		{"overshoot clamped", 150, 100, 0, 100},
		{"negative done clamped", -5, 100, 0, 0},
		{"complete", 100, 100, 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ComputePct(tt.done, tt.total, tt.reported), 1e-9)
		})
	}
}

func TestComputePctMonotonic(t *testing.T) {
	// For non-decreasing done and fixed total the pct must be non-decreasing
	// and stay within [0,100].
	const total = int64(250)
	prev := float64(-1)
	for done := int64(0); done <= total; done += 25 {
		pct := ComputePct(done, total, 0)
		require.GreaterOrEqual(t, pct, prev)
		require.GreaterOrEqual(t, pct, float64(0))
		require.LessOrEqual(t, pct, float64(100))
		prev = pct
	}
}

func TestStartJobRequestValidate(t *testing.T) {
	req := StartJobRequest{Kind: JobKindCardsBuild}
	require.NoError(t, req.Validate())

	bad := StartJobRequest{Kind: "frobnicate"}
	require.Error(t, bad.Validate())
}
