package service

import (
	"context"
	"fmt"

	"leetmentor/internal/app/recommend"
	"leetmentor/internal/common"
	"leetmentor/internal/domain/model"
	"leetmentor/internal/domain/repository"
)

type RecommendService struct {
	problemRepo repository.ProblemRepository
}

func NewRecommendService(problemRepo repository.ProblemRepository) *RecommendService {
	return &RecommendService{problemRepo: problemRepo}
}

type RecommendRequest struct {
	WeakTopics []string                `json:"weak_topics" validate:"max=32,dive,max=64"`
	Difficulty model.ProblemDifficulty `json:"difficulty" validate:"omitempty,oneof=Easy Medium Hard"`
	// Limit defaults to DefaultRecommendLimit when omitted.
	Limit *int `json:"limit" validate:"omitempty,min=0"`
}

const DefaultRecommendLimit = 10

func (r RecommendRequest) limit() int {
	if r.Limit == nil {
		return DefaultRecommendLimit
	}
	return *r.Limit
}

// Recommend ranks the user's catalog view. It never writes.
func (s *RecommendService) Recommend(ctx context.Context, userID int64, req RecommendRequest) ([]recommend.Scored, error) {
	limit := req.limit()
	if limit < 0 {
		return nil, fmt.Errorf("limit must be >= 0: %w", common.ErrValidation)
	}
	if req.Difficulty != "" && !req.Difficulty.Valid() {
		return nil, fmt.Errorf("unsupported difficulty %q: %w", req.Difficulty, common.ErrValidation)
	}

	candidates, err := s.problemRepo.ListProblemsWithStatus(ctx, userID, req.Difficulty)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}
	return recommend.Recommend(candidates, req.WeakTopics, req.Difficulty, limit)
}
