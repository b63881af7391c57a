package worker

import (
	"context"
	"errors"
	"time"

	"leetmentor/internal/app/service"
	"leetmentor/internal/common"
	"leetmentor/internal/domain/model"
	"leetmentor/internal/platform/logging"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	popTimeout         = 5 * time.Second
	redisErrorPause    = 5 * time.Second
	lockBusyPause      = time.Second
	defaultMaxAttempts = 10
)

// SyncRunner performs one judge sync. *service.JudgeService implements it.
type SyncRunner interface {
	Sync(ctx context.Context, userID int64, req service.SyncRequest) (*model.SyncResult, error)
}

// JobStore tracks queued job state. *service.SyncJobService implements it.
type JobStore interface {
	SetState(ctx context.Context, job model.SyncJob, status string, result *model.SyncResult, jobErr error) (*model.SyncJobState, error)
	Requeue(ctx context.Context, job model.SyncJob) error
}

// SyncWorker drains the judge sync queue one job at a time.
type SyncWorker struct {
	rdb         redis.Cmdable
	queueName   string
	jobs        JobStore
	runner      SyncRunner
	maxAttempts int
	logger      zerolog.Logger
}

func NewSyncWorker(rdb redis.Cmdable, queueName string, jobs JobStore, runner SyncRunner) *SyncWorker {
	return &SyncWorker{
		rdb:         rdb,
		queueName:   queueName,
		jobs:        jobs,
		runner:      runner,
		maxAttempts: defaultMaxAttempts,
		logger:      logging.WithComponent("sync_worker"),
	}
}

// Start blocks until ctx is cancelled.
func (w *SyncWorker) Start(ctx context.Context) {
	w.logger.Info().Str("queue", w.queueName).Msg("sync worker started")
	for {
		if ctx.Err() != nil {
			w.logger.Info().Msg("sync worker stopping")
			return
		}

		// BRPop returns [queueName, value]
		res, err := w.rdb.BRPop(ctx, popTimeout, w.queueName).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			w.logger.Error().Err(err).Str("queue", w.queueName).Msg("failed to BRPop from sync queue")
			sleep(ctx, redisErrorPause)
			continue
		}
		if len(res) < 2 || res[1] == "" {
			w.logger.Warn().Msg("BRPop returned an empty sync job")
			continue
		}

		var job model.SyncJob
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			w.logger.Error().Err(err).Str("payload", res[1]).Msg("dropping undecodable sync job")
			continue
		}
		w.Process(ctx, job)
	}
}

// Process runs one job and records its final state. A job whose user already
// has a sync running goes back on the queue until maxAttempts.
func (w *SyncWorker) Process(ctx context.Context, job model.SyncJob) {
	logger := w.logger.With().Str("job_id", job.ID).Int64("user_id", job.UserID).Logger()
	ctx = logging.ContextWithLogger(ctx, logger)

	job.Attempts++
	if _, err := w.jobs.SetState(ctx, job, model.SyncJobStatusProcessing, nil, nil); err != nil {
		logger.Error().Err(err).Msg("failed to mark sync job processing")
	}

	result, err := w.runner.Sync(ctx, job.UserID, service.SyncRequest{Limit: job.Limit})

	// Final state writes must land even when shutdown cancelled ctx mid-sync.
	persistCtx := context.WithoutCancel(ctx)
	if errors.Is(err, common.ErrSyncInProgress) && job.Attempts < w.maxAttempts {
		logger.Info().Int("attempt", job.Attempts).Msg("user sync already running, re-queueing")
		sleep(ctx, lockBusyPause)
		rqErr := w.jobs.Requeue(persistCtx, job)
		if rqErr == nil {
			if _, err := w.jobs.SetState(persistCtx, job, model.SyncJobStatusQueued, nil, nil); err != nil {
				logger.Error().Err(err).Msg("failed to mark sync job queued")
			}
			return
		}
		logger.Error().Err(rqErr).Msg("failed to re-queue sync job")
		err = rqErr
	}

	if err != nil {
		logger.Error().Err(err).Msg("sync job failed")
		if _, stErr := w.jobs.SetState(persistCtx, job, model.SyncJobStatusFailed, nil, err); stErr != nil {
			logger.Error().Err(stErr).Msg("failed to mark sync job failed")
		}
		return
	}

	if _, err := w.jobs.SetState(persistCtx, job, model.SyncJobStatusCompleted, result, nil); err != nil {
		logger.Error().Err(err).Msg("failed to mark sync job completed")
		return
	}
	logger.Info().Int("synced", result.SyncedSubmissionsCount).Msg("sync job completed")
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
