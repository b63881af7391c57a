package service

import (
	"context"
	"testing"

	"leetmentor/internal/common"
	"leetmentor/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommendService(t *testing.T) {
	var gotDifficulty model.ProblemDifficulty
	repo := &fakeProblemRepo{listFn: func(_ context.Context, _ int64, d model.ProblemDifficulty) ([]model.ProblemWithStatus, error) {
		gotDifficulty = d
		return []model.ProblemWithStatus{
			{Problem: model.Problem{Slug: "solved-dp", Difficulty: model.DifficultyMedium, Topics: []string{"dp"}}, Status: model.StatusSolved},
			{Problem: model.Problem{Slug: "fresh-dp", Difficulty: model.DifficultyMedium, Topics: []string{"dp"}}, Status: model.StatusNotStarted},
			{Problem: model.Problem{Slug: "fresh-graph", Difficulty: model.DifficultyMedium, Topics: []string{"graph"}}, Status: model.StatusNotStarted},
		}, nil
	}}
	svc := NewRecommendService(repo)

	out, err := svc.Recommend(context.Background(), 1, RecommendRequest{WeakTopics: []string{"DP"}, Difficulty: model.DifficultyMedium})
	require.NoError(t, err)
	assert.Equal(t, model.DifficultyMedium, gotDifficulty)
	require.Len(t, out, 3)
	assert.Equal(t, "fresh-dp", out[0].Slug)
	assert.Equal(t, "fresh-graph", out[1].Slug)
	assert.Equal(t, "solved-dp", out[2].Slug)

	zero := 0
	out, err = svc.Recommend(context.Background(), 1, RecommendRequest{Limit: &zero})
	require.NoError(t, err)
	assert.Empty(t, out)

	neg := -1
	_, err = svc.Recommend(context.Background(), 1, RecommendRequest{Limit: &neg})
	assert.ErrorIs(t, err, common.ErrValidation)
}
