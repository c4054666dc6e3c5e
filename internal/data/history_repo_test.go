package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragforge/console/internal/domain/model"
	apperrors "github.com/ragforge/console/internal/errors"
	"github.com/ragforge/console/internal/testutil"
)

func finishedRun(jobID string, kind model.JobKind, finishedAt time.Time) *model.JobRun {
	return &model.JobRun{
		JobID:      jobID,
		Kind:       kind,
		Status:     model.JobStatusDone,
		Stage:      "finalize",
		Done:       100,
		Total:      100,
		Pct:        100,
		StartedAt:  finishedAt.Add(-10 * time.Minute),
		FinishedAt: finishedAt,
	}
}

func TestJobRunRepoInsert(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := NewJobRunRepoWithTimeProvider(db, NewFixedTimeProvider(testutil.TestTime()))
	ctx := context.Background()

	t.Run("insert assigns id and returns the row", func(t *testing.T) {
		run, err := repo.Insert(ctx, finishedRun("j-300", model.JobKindCardsBuild, testutil.TestTime()))
		require.NoError(t, err)
		assert.NotEmpty(t, run.ID)
		assert.Equal(t, "j-300", run.JobID)
		assert.Equal(t, model.JobStatusDone, run.Status)
	})

	t.Run("duplicate job id keeps the first row", func(t *testing.T) {
		first, err := repo.Insert(ctx, finishedRun("j-301", model.JobKindIndexRun, testutil.TestTime()))
		require.NoError(t, err)

		dup := finishedRun("j-301", model.JobKindIndexRun, testutil.TestTime())
		dup.Stage = "different"
		second, err := repo.Insert(ctx, dup)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "finalize", second.Stage)
	})

	t.Run("non-terminal status rejected", func(t *testing.T) {
		run := finishedRun("j-302", model.JobKindCardsBuild, testutil.TestTime())
		run.Status = model.JobStatusRunning
		_, err := repo.Insert(ctx, run)
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("get by job id", func(t *testing.T) {
		got, err := repo.GetByJobID(ctx, "j-300")
		require.NoError(t, err)
		assert.Equal(t, model.JobKindCardsBuild, got.Kind)
	})

	t.Run("get missing is not found", func(t *testing.T) {
		_, err := repo.GetByJobID(ctx, "j-nope")
		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestJobRunRepoRecent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := NewJobRunRepo(db)
	ctx := context.Background()
	base := testutil.TestTime()

	seed := []*model.JobRun{
		finishedRun("j-400", model.JobKindCardsBuild, base.Add(1*time.Hour)),
		finishedRun("j-401", model.JobKindIndexRun, base.Add(2*time.Hour)),
		finishedRun("j-402", model.JobKindCardsBuild, base.Add(3*time.Hour)),
	}
	for _, run := range seed {
		_, err := repo.Insert(ctx, run)
		require.NoError(t, err)
	}

	t.Run("newest first across kinds", func(t *testing.T) {
		runs, err := repo.Recent(ctx, RecentRunsOptions{})
		require.NoError(t, err)
		require.Len(t, runs, 3)
		assert.Equal(t, "j-402", runs[0].JobID)
		assert.Equal(t, "j-400", runs[2].JobID)
	})

	t.Run("filter by kind", func(t *testing.T) {
		kind := model.JobKindCardsBuild
		runs, err := repo.Recent(ctx, RecentRunsOptions{Kind: &kind})
		require.NoError(t, err)
		require.Len(t, runs, 2)
		for _, run := range runs {
			assert.Equal(t, model.JobKindCardsBuild, run.Kind)
		}
	})

	t.Run("limit applies", func(t *testing.T) {
		runs, err := repo.Recent(ctx, RecentRunsOptions{Limit: 1})
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "j-402", runs[0].JobID)
	})

	t.Run("invalid kind rejected", func(t *testing.T) {
		bad := model.JobKind("nope")
		_, err := repo.Recent(ctx, RecentRunsOptions{Kind: &bad})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestJobRunRepoPrune(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	now := testutil.TestTime()
	repo := NewJobRunRepoWithTimeProvider(db, NewFixedTimeProvider(now))
	ctx := context.Background()

	_, err := repo.Insert(ctx, finishedRun("j-500", model.JobKindIndexRun, now.Add(-48*time.Hour)))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, finishedRun("j-501", model.JobKindIndexRun, now.Add(-1*time.Hour)))
	require.NoError(t, err)

	removed, err := repo.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	runs, err := repo.Recent(ctx, RecentRunsOptions{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "j-501", runs[0].JobID)

	_, err = repo.Prune(ctx, 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}
