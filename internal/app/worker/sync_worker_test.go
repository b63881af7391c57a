package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"leetmentor/internal/app/service"
	"leetmentor/internal/common"
	"leetmentor/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stateCall struct {
	status string
	result *model.SyncResult
	err    error
	ctxErr error
}

type fakeJobStore struct {
	states     []stateCall
	requeued   []model.SyncJob
	requeueErr error
}

func (f *fakeJobStore) SetState(ctx context.Context, job model.SyncJob, status string, result *model.SyncResult, jobErr error) (*model.SyncJobState, error) {
	f.states = append(f.states, stateCall{status: status, result: result, err: jobErr, ctxErr: ctx.Err()})
	return &model.SyncJobState{JobID: job.ID, UserID: job.UserID, Status: status, Result: result}, nil
}

func (f *fakeJobStore) Requeue(_ context.Context, job model.SyncJob) error {
	if f.requeueErr != nil {
		return f.requeueErr
	}
	f.requeued = append(f.requeued, job)
	return nil
}

func (f *fakeJobStore) statuses() []string {
	out := make([]string, 0, len(f.states))
	for _, s := range f.states {
		out = append(out, s.status)
	}
	return out
}

type fakeRunner struct {
	syncFn func(ctx context.Context, userID int64, req service.SyncRequest) (*model.SyncResult, error)
}

func (f *fakeRunner) Sync(ctx context.Context, userID int64, req service.SyncRequest) (*model.SyncResult, error) {
	return f.syncFn(ctx, userID, req)
}

// cancelled contexts make the lock-busy pause return immediately.
func cancelledCtx() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

func TestProcess_Completed(t *testing.T) {
	store := &fakeJobStore{}
	want := &model.SyncResult{Username: "alice", SyncedSubmissionsCount: 3, LastSyncAt: time.Unix(1700000000, 0)}
	runner := &fakeRunner{syncFn: func(_ context.Context, userID int64, req service.SyncRequest) (*model.SyncResult, error) {
		assert.Equal(t, int64(7), userID)
		assert.Equal(t, 15, req.Limit)
		return want, nil
	}}
	w := NewSyncWorker(nil, "q", store, runner)

	w.Process(context.Background(), model.SyncJob{ID: "job-1", UserID: 7, Limit: 15})

	assert.Equal(t, []string{model.SyncJobStatusProcessing, model.SyncJobStatusCompleted}, store.statuses())
	assert.Same(t, want, store.states[1].result)
	assert.Empty(t, store.requeued)
}

func TestProcess_Failed(t *testing.T) {
	store := &fakeJobStore{}
	runner := &fakeRunner{syncFn: func(context.Context, int64, service.SyncRequest) (*model.SyncResult, error) {
		return nil, common.UpstreamError("judge", errors.New("connection refused"))
	}}
	w := NewSyncWorker(nil, "q", store, runner)

	w.Process(context.Background(), model.SyncJob{ID: "job-2", UserID: 1})

	require.Equal(t, []string{model.SyncJobStatusProcessing, model.SyncJobStatusFailed}, store.statuses())
	assert.ErrorIs(t, store.states[1].err, common.ErrUpstream)
}

func TestProcess_RequeuesWhileUserSyncRunning(t *testing.T) {
	store := &fakeJobStore{}
	runner := &fakeRunner{syncFn: func(context.Context, int64, service.SyncRequest) (*model.SyncResult, error) {
		return nil, common.ErrSyncInProgress
	}}
	w := NewSyncWorker(nil, "q", store, runner)

	w.Process(cancelledCtx(), model.SyncJob{ID: "job-3", UserID: 1})

	require.Len(t, store.requeued, 1)
	assert.Equal(t, 1, store.requeued[0].Attempts)
	assert.Equal(t, []string{model.SyncJobStatusProcessing, model.SyncJobStatusQueued}, store.statuses())
}

func TestProcess_GivesUpAfterMaxAttempts(t *testing.T) {
	store := &fakeJobStore{}
	runner := &fakeRunner{syncFn: func(context.Context, int64, service.SyncRequest) (*model.SyncResult, error) {
		return nil, common.ErrSyncInProgress
	}}
	w := NewSyncWorker(nil, "q", store, runner)

	w.Process(cancelledCtx(), model.SyncJob{ID: "job-4", UserID: 1, Attempts: defaultMaxAttempts - 1})

	assert.Empty(t, store.requeued)
	assert.Equal(t, []string{model.SyncJobStatusProcessing, model.SyncJobStatusFailed}, store.statuses())
	assert.ErrorIs(t, store.states[1].err, common.ErrSyncInProgress)
}

func TestProcess_RequeueFailureMarksFailed(t *testing.T) {
	store := &fakeJobStore{requeueErr: errors.New("redis down")}
	runner := &fakeRunner{syncFn: func(context.Context, int64, service.SyncRequest) (*model.SyncResult, error) {
		return nil, common.ErrSyncInProgress
	}}
	w := NewSyncWorker(nil, "q", store, runner)

	w.Process(cancelledCtx(), model.SyncJob{ID: "job-5", UserID: 1})

	assert.Equal(t, []string{model.SyncJobStatusProcessing, model.SyncJobStatusFailed}, store.statuses())
}

func TestProcess_ShutdownMidSyncStillRecordsFailure(t *testing.T) {
	store := &fakeJobStore{}
	ctx, cancel := context.WithCancel(context.Background())
	runner := &fakeRunner{syncFn: func(ctx context.Context, _ int64, _ service.SyncRequest) (*model.SyncResult, error) {
		cancel()
		return nil, common.UpstreamError("judge", ctx.Err())
	}}
	w := NewSyncWorker(nil, "q", store, runner)

	w.Process(ctx, model.SyncJob{ID: "job-shutdown", UserID: 3})

	require.Equal(t, []string{model.SyncJobStatusProcessing, model.SyncJobStatusFailed}, store.statuses())
	assert.NoError(t, store.states[1].ctxErr, "final state write must not inherit the cancellation")
}
