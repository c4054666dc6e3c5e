package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragforge/console/internal/domain/model"
)

func TestCommandsCoverUsageListing(t *testing.T) {
	cmds := commands()
	for _, name := range []string{"start", "status", "watch", "cancel", "runs", "migrate"} {
		cmd, ok := cmds[name]
		require.True(t, ok, "command %q missing", name)
		assert.Equal(t, name, cmd.name)
		assert.NotEmpty(t, cmd.description)
		assert.NotNil(t, cmd.run)
	}
}

func TestRenderJSON(t *testing.T) {
	snap := model.Job{
		ID:     "job-1",
		Kind:   model.JobKindIndexRun,
		Status: model.JobStatusDone,
	}

	out, err := renderJSON(snap, "")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "job-1"`)
	assert.Contains(t, out, `"status": "done"`)
}

func TestRenderJSONWithQuery(t *testing.T) {
	snap := model.Job{
		ID:     "job-1",
		Kind:   model.JobKindIndexRun,
		Status: model.JobStatusRunning,
	}

	out, err := renderJSON(snap, "status")
	require.NoError(t, err)
	assert.Equal(t, `"running"`, out)
}

func TestRenderJSONBadQuery(t *testing.T) {
	_, err := renderJSON(map[string]any{"a": 1}, "a[")
	require.Error(t, err)
}

func TestPrintJSONWritesTrailingNewline(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]any{"ok": true}, ""))
	assert.Equal(t, "{\n  \"ok\": true\n}\n", buf.String())
}

func TestParseStartFlags(t *testing.T) {
	opts, err := parseStartFlags([]string{
		"-kind", "index-run",
		"-params", `{"corpus":"docs"}`,
		"-watch",
	})
	require.NoError(t, err)
	assert.Equal(t, model.JobKindIndexRun, opts.Kind)
	assert.Equal(t, map[string]any{"corpus": "docs"}, opts.Params)
	assert.True(t, opts.Watch)
}

func TestParseStartFlagsRejectsBadKind(t *testing.T) {
	_, err := parseStartFlags([]string{"-kind", "mystery"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--kind")
}

func TestParseStartFlagsRejectsBadParams(t *testing.T) {
	_, err := parseStartFlags([]string{"-kind", "cards-build", "-params", "not-json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--params")
}

func TestParseJobRefFlags(t *testing.T) {
	opts, err := parseJobRefFlags("status", []string{"-kind", "reranker-train", "-job-id", " job-9 "})
	require.NoError(t, err)
	assert.Equal(t, model.JobKindRerankerTrain, opts.Kind)
	assert.Equal(t, "job-9", opts.JobID)
}

func TestParseJobRefFlagsRequiresJobID(t *testing.T) {
	_, err := parseJobRefFlags("cancel", []string{"-kind", "index-run"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--job-id")
}

func TestParseRunsFlags(t *testing.T) {
	opts, err := parseRunsFlags([]string{"-kind", "cards-build", "-limit", "5"})
	require.NoError(t, err)
	require.NotNil(t, opts.Kind)
	assert.Equal(t, model.JobKindCardsBuild, *opts.Kind)
	assert.Equal(t, 5, opts.Limit)
}

func TestParseRunsFlagsDefaults(t *testing.T) {
	opts, err := parseRunsFlags(nil)
	require.NoError(t, err)
	assert.Nil(t, opts.Kind)
	assert.Equal(t, 20, opts.Limit)
}

func TestParseRunsFlagsRejectsNegativeLimit(t *testing.T) {
	_, err := parseRunsFlags([]string{"-limit", "-1"})
	require.Error(t, err)
}

func TestParseMigrateFlags(t *testing.T) {
	opts, err := parseMigrateFlags([]string{"-timeout", "90s"})
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, opts.Timeout)

	opts, err = parseMigrateFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultMigrationTimeout, opts.Timeout)

	_, err = parseMigrateFlags([]string{"-timeout", "0s"})
	require.Error(t, err)
}
