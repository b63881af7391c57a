package service

import (
	"context"
	"fmt"
	"strings"

	"leetmentor/internal/common"
	"leetmentor/internal/domain/model"
	"leetmentor/internal/domain/repository"
	"leetmentor/internal/platform/logging"

	"github.com/gosimple/slug" // For slug generation
)

type ProblemService struct {
	problemRepo repository.ProblemRepository
}

func NewProblemService(problemRepo repository.ProblemRepository) *ProblemService {
	return &ProblemService{problemRepo: problemRepo}
}

type UpsertProblemRequest struct {
	// Slug is derived from Title when empty.
	Slug       string                  `json:"slug" validate:"omitempty,max=200"`
	Title      string                  `json:"title" validate:"required,max=200"`
	Difficulty model.ProblemDifficulty `json:"difficulty" validate:"required,oneof=Easy Medium Hard"`
	Topics     []string                `json:"topics" validate:"max=32,dive,max=64"`
}

// UpsertProblem seeds or overwrites a catalog entry (admin).
func (s *ProblemService) UpsertProblem(ctx context.Context, req UpsertProblemRequest) (*model.Problem, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, common.Errorf("title is required: %w", common.ErrValidation)
	}
	if !req.Difficulty.Valid() {
		return nil, common.Errorf("unsupported difficulty %q: %w", req.Difficulty, common.ErrValidation)
	}

	problemSlug := slug.Make(req.Slug)
	if problemSlug == "" {
		problemSlug = slug.Make(title)
	}
	if problemSlug == "" {
		return nil, common.Errorf("cannot derive a slug from %q: %w", title, common.ErrValidation)
	}

	if _, err := s.problemRepo.UpsertProblem(ctx, nil, problemSlug, title, req.Difficulty, model.JoinTopics(req.Topics)); err != nil {
		return nil, fmt.Errorf("failed to upsert problem: %w", err)
	}
	logging.Ctx(ctx).Info().Str("slug", problemSlug).Msg("catalog problem upserted")

	return s.problemRepo.FindProblemBySlug(ctx, problemSlug)
}

func (s *ProblemService) GetProblem(ctx context.Context, problemSlug string) (*model.Problem, error) {
	return s.problemRepo.FindProblemBySlug(ctx, problemSlug)
}

// ListProblems returns the catalog annotated with the user's status.
func (s *ProblemService) ListProblems(ctx context.Context, userID int64, difficulty model.ProblemDifficulty) ([]model.ProblemWithStatus, error) {
	if difficulty != "" && !difficulty.Valid() {
		return nil, common.Errorf("unsupported difficulty %q: %w", difficulty, common.ErrValidation)
	}
	problems, err := s.problemRepo.ListProblemsWithStatus(ctx, userID, difficulty)
	if err != nil {
		return nil, fmt.Errorf("failed to list problems: %w", err)
	}
	return problems, nil
}
