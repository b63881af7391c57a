// Package recommend ranks catalog candidates for a user with a small
// deterministic heuristic.
package recommend

import (
	"fmt"
	"sort"
	"strings"

	"leetmentor/internal/common"
	"leetmentor/internal/domain/model"
)

const (
	solvedPenalty    = -100
	weakTopicBonus   = 5
	mediumNudgeBonus = 2
)

// Scored is a candidate together with the score it was ranked by.
type Scored struct {
	model.ProblemWithStatus
	Score int `json:"score"`
}

// WeakTopicSet lower-cases and trims topics; blanks are dropped.
func WeakTopicSet(topics []string) map[string]struct{} {
	set := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

// Score rates one candidate. A solved problem is pushed to the bottom but not removed.
func Score(c model.ProblemWithStatus, weak map[string]struct{}, difficultyFilter model.ProblemDifficulty) int {
	score := 0
	if c.Status == model.StatusSolved {
		score += solvedPenalty
	}
	if len(weak) > 0 {
		for _, t := range c.Topics {
			if _, ok := weak[strings.ToLower(strings.TrimSpace(t))]; ok {
				score += weakTopicBonus
				break
			}
		}
	}
	if difficultyFilter == "" && c.Difficulty == model.DifficultyMedium {
		score += mediumNudgeBonus
	}
	return score
}

// Recommend scores candidates, stable-sorts them by score descending and
// keeps the first limit. Candidates are expected to be pre-filtered by
// difficultyFilter already; the filter only switches off the Medium nudge here.
func Recommend(candidates []model.ProblemWithStatus, weakTopics []string, difficultyFilter model.ProblemDifficulty, limit int) ([]Scored, error) {
	if limit < 0 {
		return nil, fmt.Errorf("limit must be >= 0, got %d: %w", limit, common.ErrValidation)
	}
	if difficultyFilter != "" && !difficultyFilter.Valid() {
		return nil, fmt.Errorf("unsupported difficulty %q: %w", difficultyFilter, common.ErrValidation)
	}

	weak := WeakTopicSet(weakTopics)
	scored := make([]Scored, len(candidates))
	for i, c := range candidates {
		scored[i] = Scored{ProblemWithStatus: c, Score: Score(c, weak, difficultyFilter)}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if limit < len(scored) {
		scored = scored[:limit]
	}
	return scored, nil
}
