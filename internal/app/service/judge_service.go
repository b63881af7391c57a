package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"leetmentor/internal/common"
	"leetmentor/internal/domain/model"
	"leetmentor/internal/domain/repository"
	"leetmentor/internal/platform/judge"
	"leetmentor/internal/platform/logging"
)

// JudgeClient is the slice of the judge API the sync flow needs.
type JudgeClient interface {
	UserExists(ctx context.Context, username string) (bool, error)
	RecentAcceptedSubmissions(ctx context.Context, username string, limit int) ([]judge.AcceptedSubmission, error)
	QuestionDetails(ctx context.Context, titleSlug string) (*judge.Question, error)
}

// SyncLocker serializes syncs per user. *queue.Locker implements it.
type SyncLocker interface {
	TryLock(ctx context.Context, name string) (release func(context.Context) error, ok bool, err error)
}

type JudgeService struct {
	userRepo       repository.UserRepository
	problemRepo    repository.ProblemRepository
	submissionRepo repository.SubmissionRepository
	progressRepo   repository.ProgressRepository
	tx             repository.Transactor
	judge          JudgeClient
	locker         SyncLocker // optional
	defaultLimit   int
	now            func() time.Time
}

func NewJudgeService(
	userRepo repository.UserRepository,
	problemRepo repository.ProblemRepository,
	submissionRepo repository.SubmissionRepository,
	progressRepo repository.ProgressRepository,
	tx repository.Transactor,
	judgeClient JudgeClient,
	locker SyncLocker,
	defaultLimit int,
) *JudgeService {
	return &JudgeService{
		userRepo:       userRepo,
		problemRepo:    problemRepo,
		submissionRepo: submissionRepo,
		progressRepo:   progressRepo,
		tx:             tx,
		judge:          judgeClient,
		locker:         locker,
		defaultLimit:   defaultLimit,
		now:            time.Now,
	}
}

type LinkJudgeRequest struct {
	Username string `json:"username" validate:"required,max=64"`
}

type SyncRequest struct {
	// Limit 0 means the configured default.
	Limit int `json:"limit" validate:"min=0"`
}

// LinkAccount checks the handle exists on the judge and stores it.
func (s *JudgeService) LinkAccount(ctx context.Context, userID int64, req LinkJudgeRequest) (*model.JudgeLink, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, fmt.Errorf("judge username is required: %w", common.ErrValidation)
	}

	exists, err := s.judge.UserExists(ctx, username)
	if err != nil {
		return nil, common.UpstreamError("judge", err)
	}
	if !exists {
		return nil, fmt.Errorf("judge user %q: %w", username, common.ErrNotFound)
	}

	if err := s.userRepo.UpsertJudgeLink(ctx, userID, username); err != nil {
		return nil, fmt.Errorf("failed to save judge link: %w", err)
	}
	logging.Ctx(ctx).Info().Int64("user_id", userID).Str("judge_username", username).Msg("judge account linked")
	return s.GetLink(ctx, userID)
}

// GetLink returns common.ErrLinkRequired when the user has not linked an account.
func (s *JudgeService) GetLink(ctx context.Context, userID int64) (*model.JudgeLink, error) {
	username, err := s.userRepo.GetJudgeUsername(ctx, userID)
	if err != nil {
		return nil, err
	}
	last, err := s.userRepo.GetJudgeLastSync(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load last sync: %w", err)
	}
	return &model.JudgeLink{UserID: userID, Username: username, LastSyncAt: last}, nil
}

// Sync imports the user's recent accepted submissions. All judge reads happen
// before the first write; the writes for one sync commit together.
func (s *JudgeService) Sync(ctx context.Context, userID int64, req SyncRequest) (*model.SyncResult, error) {
	if req.Limit < 0 {
		return nil, fmt.Errorf("limit must be >= 0: %w", common.ErrValidation)
	}
	limit := req.Limit
	if limit == 0 {
		limit = s.defaultLimit
	}
	if limit > judge.MaxRecentLimit {
		limit = judge.MaxRecentLimit
	}

	username, err := s.userRepo.GetJudgeUsername(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx, strconv.FormatInt(userID, 10))
		if err != nil {
			return nil, fmt.Errorf("failed to take sync lock: %w", err)
		}
		if !ok {
			return nil, common.ErrSyncInProgress
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				logging.Ctx(ctx).Warn().Err(err).Int64("user_id", userID).Msg("sync lock release failed")
			}
		}()
	}

	subs, err := s.judge.RecentAcceptedSubmissions(ctx, username, limit)
	if err != nil {
		return nil, common.UpstreamError("judge", err)
	}

	questions, err := s.fetchQuestions(ctx, subs)
	if err != nil {
		return nil, err
	}

	solved, err := s.progressRepo.GetSolvedSlugs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load solved problems: %w", err)
	}

	result := &model.SyncResult{Username: username}
	err = s.tx.InTx(ctx, func(tx *sql.Tx) error {
		problemIDs := make(map[string]int64, len(questions))
		for _, sub := range subs {
			q := questions[sub.TitleSlug]
			problemID, ok := problemIDs[sub.TitleSlug]
			if !ok {
				id, err := s.problemRepo.UpsertProblem(ctx, tx, q.slug, q.title, q.difficulty, q.topics)
				if err != nil {
					return err
				}
				problemID = id
				problemIDs[sub.TitleSlug] = id
			}

			inserted, err := s.submissionRepo.InsertSubmission(ctx, tx, &model.Submission{
				UserID:      userID,
				ProblemID:   problemID,
				TitleSlug:   sub.TitleSlug,
				Title:       q.title,
				Status:      model.StatusSolved,
				SubmittedAt: sub.Timestamp,
			})
			if err != nil {
				return err
			}
			if inserted {
				result.SyncedSubmissionsCount++
			}

			if _, done := solved[sub.TitleSlug]; done {
				continue
			}
			if err := s.progressRepo.SetUserProblemStatus(ctx, tx, userID, problemID, model.StatusSolved); err != nil {
				return err
			}
			solved[sub.TitleSlug] = struct{}{}
			result.UpdatedStatusesCount++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store synced submissions: %w", err)
	}

	result.LastSyncAt = s.now().UTC()
	if err := s.userRepo.SetJudgeLastSync(ctx, userID, result.LastSyncAt); err != nil {
		return nil, fmt.Errorf("failed to record sync time: %w", err)
	}

	logging.Ctx(ctx).Info().
		Int64("user_id", userID).
		Int("fetched", len(subs)).
		Int("inserted", result.SyncedSubmissionsCount).
		Int("statuses_updated", result.UpdatedStatusesCount).
		Msg("judge sync completed")
	return result, nil
}

type syncedQuestion struct {
	slug       string
	title      string
	difficulty model.ProblemDifficulty
	topics     string
}

// fetchQuestions loads catalog metadata once per distinct slug. A slug the
// judge no longer knows keeps the submission title and defaults to Medium.
func (s *JudgeService) fetchQuestions(ctx context.Context, subs []judge.AcceptedSubmission) (map[string]syncedQuestion, error) {
	out := make(map[string]syncedQuestion, len(subs))
	for _, sub := range subs {
		if _, ok := out[sub.TitleSlug]; ok {
			continue
		}
		q, err := s.judge.QuestionDetails(ctx, sub.TitleSlug)
		if err != nil {
			if !errors.Is(err, judge.ErrQuestionNotFound) {
				return nil, common.UpstreamError("judge", err)
			}
			logging.Ctx(ctx).Warn().Str("slug", sub.TitleSlug).Msg("judge has no metadata for slug")
			q = &judge.Question{TitleSlug: sub.TitleSlug, Title: sub.Title}
		}

		title := strings.TrimSpace(q.Title)
		if title == "" {
			title = sub.Title
		}
		if title == "" {
			title = sub.TitleSlug
		}
		difficulty := model.ProblemDifficulty(q.Difficulty)
		if !difficulty.Valid() {
			difficulty = model.DifficultyMedium
		}
		out[sub.TitleSlug] = syncedQuestion{
			slug:       sub.TitleSlug,
			title:      title,
			difficulty: difficulty,
			topics:     model.JoinTopics(q.Topics),
		}
	}
	return out, nil
}
