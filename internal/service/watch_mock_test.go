package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ragforge/console/config"
	"github.com/ragforge/console/internal/data"
	"github.com/ragforge/console/internal/domain/model"
	apperrors "github.com/ragforge/console/internal/errors"
	"github.com/ragforge/console/internal/mocks"
	"github.com/ragforge/console/internal/testutil"
)

func newMockedService(t *testing.T) (*WatchService, *mocks.MockBackendClient, *mocks.MockSnapshotCache, *mocks.MockRunRecorder) {
	t.Helper()
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackendClient(ctrl)
	cache := mocks.NewMockSnapshotCache(ctrl)
	history := mocks.NewMockRunRecorder(ctrl)

	svc := NewWatchService(WatchServiceOptions{
		Backend: backend,
		Cache:   cache,
		History: history,
		Config: config.WatchConfig{
			PollInterval: time.Second,
			StaleAfter:   6 * time.Second,
		},
		Logger: testutil.DiscardLogger(),
	})
	t.Cleanup(svc.Close)
	return svc, backend, cache, history
}

func TestStartJobRejectedWhenClaimHeldElsewhere(t *testing.T) {
	svc, _, cache, _ := newMockedService(t)

	cache.EXPECT().
		ActiveWatch(gomock.Any(), model.JobKindIndexRun).
		Return("job-remote", nil)

	_, err := svc.StartJob(context.Background(), model.StartJobRequest{Kind: model.JobKindIndexRun})
	require.Error(t, err)
	assert.True(t, apperrors.IsAlreadyRunning(err))
	assert.Equal(t, "job-remote", apperrors.GetJobID(err))
}

func TestStartJobSurfacesBackendError(t *testing.T) {
	svc, backend, cache, _ := newMockedService(t)

	cache.EXPECT().
		ActiveWatch(gomock.Any(), model.JobKindCardsBuild).
		Return("", nil)
	backend.EXPECT().
		Start(gomock.Any(), gomock.Any()).
		Return(model.StartJobResponse{}, apperrors.Unavailable("backend down", errors.New("connection refused")))

	_, err := svc.StartJob(context.Background(), model.StartJobRequest{Kind: model.JobKindCardsBuild})
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))
}

func TestCancelJobResolvesKindFromCache(t *testing.T) {
	svc, backend, cache, _ := newMockedService(t)

	cache.EXPECT().
		Get(gomock.Any(), "job-42").
		Return(&model.Job{ID: "job-42", Kind: model.JobKindRerankerTrain, Status: model.JobStatusRunning}, nil)
	backend.EXPECT().
		Cancel(gomock.Any(), model.JobKindRerankerTrain, "job-42").
		Return(true, nil)

	ok, err := svc.CancelJob(context.Background(), "job-42")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCancelJobUnknownJob(t *testing.T) {
	svc, _, cache, _ := newMockedService(t)

	cache.EXPECT().
		Get(gomock.Any(), "job-missing").
		Return(nil, nil)

	_, err := svc.CancelJob(context.Background(), "job-missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetJobPropagatesHistoryError(t *testing.T) {
	svc, _, cache, history := newMockedService(t)

	cache.EXPECT().Get(gomock.Any(), "job-7").Return(nil, nil)
	history.EXPECT().GetByJobID(gomock.Any(), "job-7").Return(nil, errors.New("pg down"))

	_, err := svc.GetJob(context.Background(), "job-7")
	require.Error(t, err)
	assert.False(t, apperrors.IsNotFound(err))
}

func TestRecentRunsDelegatesToHistory(t *testing.T) {
	svc, _, _, history := newMockedService(t)

	kind := model.JobKindIndexRun
	want := []model.JobRun{{JobID: "job-1", Kind: kind, Status: model.JobStatusDone}}
	history.EXPECT().
		Recent(gomock.Any(), data.RecentRunsOptions{Kind: &kind, Limit: 5}).
		Return(want, nil)

	runs, err := svc.RecentRuns(context.Background(), &kind, 5)
	require.NoError(t, err)
	assert.Equal(t, want, runs)
}
