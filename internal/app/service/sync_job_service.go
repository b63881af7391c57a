package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leetmentor/internal/common"
	"leetmentor/internal/domain/model"
	"leetmentor/internal/domain/repository"
	"leetmentor/internal/platform/logging"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	syncJobStateKeyPrefix = "judge_sync_job"
	syncJobStateTTL       = 24 * time.Hour
)

// SyncJobService queues judge syncs on redis and tracks their state there.
type SyncJobService struct {
	userRepo  repository.UserRepository
	rdb       redis.Cmdable
	queueName string
	now       func() time.Time
}

func NewSyncJobService(userRepo repository.UserRepository, rdb redis.Cmdable, queueName string) *SyncJobService {
	return &SyncJobService{userRepo: userRepo, rdb: rdb, queueName: queueName, now: time.Now}
}

func stateKey(jobID string) string {
	return syncJobStateKeyPrefix + ":" + jobID
}

// EnqueueSync records a Queued state and pushes the job. The link is checked
// up front so callers get ErrLinkRequired synchronously.
func (s *SyncJobService) EnqueueSync(ctx context.Context, userID int64, req SyncRequest) (*model.SyncJobState, error) {
	if req.Limit < 0 {
		return nil, fmt.Errorf("limit must be >= 0: %w", common.ErrValidation)
	}
	if _, err := s.userRepo.GetJudgeUsername(ctx, userID); err != nil {
		return nil, err
	}

	job := model.SyncJob{
		ID:         uuid.NewString(),
		UserID:     userID,
		Limit:      req.Limit,
		EnqueuedAt: s.now().UTC(),
	}
	state, err := s.SetState(ctx, job, model.SyncJobStatusQueued, nil, nil)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return nil, common.Errorf("failed to marshal sync job: %w", err)
	}
	if err := s.rdb.LPush(ctx, s.queueName, payload).Err(); err != nil {
		return nil, common.Errorf("failed to push sync job to Redis queue: %w", err)
	}

	logging.Ctx(ctx).Info().Str("job_id", job.ID).Int64("user_id", userID).Msg("sync job enqueued")
	return state, nil
}

// Requeue pushes job to the back of the queue for a later attempt.
func (s *SyncJobService) Requeue(ctx context.Context, job model.SyncJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return common.Errorf("failed to marshal sync job: %w", err)
	}
	if err := s.rdb.LPush(ctx, s.queueName, payload).Err(); err != nil {
		return common.Errorf("failed to re-queue sync job %s: %w", job.ID, err)
	}
	return nil
}

// SetState overwrites the job's state key.
func (s *SyncJobService) SetState(ctx context.Context, job model.SyncJob, status string, result *model.SyncResult, jobErr error) (*model.SyncJobState, error) {
	state := &model.SyncJobState{
		JobID:     job.ID,
		UserID:    job.UserID,
		Status:    status,
		Result:    result,
		UpdatedAt: s.now().UTC(),
	}
	if jobErr != nil {
		msg := common.PublicMessage(jobErr)
		state.LastError = &msg
	}

	data, err := json.Marshal(state)
	if err != nil {
		return nil, common.Errorf("failed to marshal sync job state: %w", err)
	}
	if err := s.rdb.Set(ctx, stateKey(job.ID), data, syncJobStateTTL).Err(); err != nil {
		return nil, common.Errorf("failed to store sync job state: %w", err)
	}
	return state, nil
}

// GetState returns the job state if it belongs to userID.
func (s *SyncJobService) GetState(ctx context.Context, userID int64, jobID string) (*model.SyncJobState, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, fmt.Errorf("invalid job id: %w", common.ErrValidation)
	}
	data, err := s.rdb.Get(ctx, stateKey(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrNotFound
		}
		return nil, common.Errorf("failed to read sync job state: %w", err)
	}

	var state model.SyncJobState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, common.Errorf("failed to decode sync job state: %w", err)
	}
	if state.UserID != userID {
		return nil, common.ErrNotFound
	}
	return &state, nil
}
