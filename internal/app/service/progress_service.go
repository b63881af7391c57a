package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leetmentor/internal/app/analyzer"
	"leetmentor/internal/common"
	"leetmentor/internal/domain/model"
	"leetmentor/internal/domain/repository"
)

// ProgressService serves derived statistics. Nothing is cached: every call
// recomputes from the stored history.
type ProgressService struct {
	problemRepo    repository.ProblemRepository
	submissionRepo repository.SubmissionRepository
	progressRepo   repository.ProgressRepository
	clock          analyzer.Clock
	loc            *time.Location
}

func NewProgressService(
	problemRepo repository.ProblemRepository,
	submissionRepo repository.SubmissionRepository,
	progressRepo repository.ProgressRepository,
	clock analyzer.Clock,
	loc *time.Location,
) *ProgressService {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ProgressService{
		problemRepo:    problemRepo,
		submissionRepo: submissionRepo,
		progressRepo:   progressRepo,
		clock:          clock,
		loc:            loc,
	}
}

func (s *ProgressService) TopicStats(ctx context.Context, userID int64) (model.TopicStats, error) {
	rows, err := s.progressRepo.GetUserProblemHistory(ctx, userID, 0)
	if err != nil {
		return model.TopicStats{}, fmt.Errorf("failed to load problem history: %w", err)
	}
	return analyzer.TopicStats(rows), nil
}

func (s *ProgressService) Activity(ctx context.Context, userID int64) (model.ActivityMetrics, error) {
	subs, err := s.submissionRepo.GetUserSubmissionHistory(ctx, userID)
	if err != nil {
		return model.ActivityMetrics{}, fmt.Errorf("failed to load submissions: %w", err)
	}
	return analyzer.Activity(subs, s.clock(), s.loc), nil
}

// History returns up to limit joined status rows, most recent first.
func (s *ProgressService) History(ctx context.Context, userID int64, limit int) ([]model.HistoryEntry, error) {
	if limit < 0 {
		return nil, fmt.Errorf("limit must be >= 0: %w", common.ErrValidation)
	}
	if limit == 0 {
		return []model.HistoryEntry{}, nil
	}
	rows, err := s.progressRepo.GetUserProblemHistory(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load problem history: %w", err)
	}
	return rows, nil
}

// Submissions lists imported submissions with from <= submitted_at < to.
// A zero to means "now".
func (s *ProgressService) Submissions(ctx context.Context, userID int64, from, to int64) ([]model.Submission, error) {
	if to == 0 {
		to = s.clock().Unix() + 1
	}
	if from < 0 || to <= from {
		return nil, fmt.Errorf("invalid range [%d, %d): %w", from, to, common.ErrValidation)
	}
	subs, err := s.submissionRepo.GetUserSubmissionsBetween(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", err)
	}
	return subs, nil
}

type SetStatusRequest struct {
	Status model.ProblemStatus `json:"status" validate:"required,oneof=not_started attempted solved"`
}

// SetStatus records a manual status for a catalog problem. Regressions are allowed.
func (s *ProgressService) SetStatus(ctx context.Context, userID int64, slug string, req SetStatusRequest) error {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return fmt.Errorf("slug is required: %w", common.ErrValidation)
	}
	if !req.Status.Valid() {
		return fmt.Errorf("unsupported status %q: %w", req.Status, common.ErrValidation)
	}

	problemID, err := s.problemRepo.GetProblemIDBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("problem %q: %w", slug, err)
	}
	if err := s.progressRepo.SetUserProblemStatus(ctx, nil, userID, problemID, req.Status); err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	return nil
}
