package model

// TopicStats counts history rows per topic, split by solved vs everything else.
type TopicStats struct {
	Solved    map[string]int `json:"solved"`
	Attempted map[string]int `json:"attempted"`
}

func NewTopicStats() TopicStats {
	return TopicStats{Solved: map[string]int{}, Attempted: map[string]int{}}
}

type ActivityMetrics struct {
	SolvedLast7Days  int `json:"solved_last_7_days"`
	SolvedLast30Days int `json:"solved_last_30_days"`
	StreakDays       int `json:"streak_days"`
}

// MentorRecommendation is one sanitized item of a mentor reply.
type MentorRecommendation struct {
	Slug       string            `json:"slug"`
	Title      string            `json:"title"`
	Difficulty ProblemDifficulty `json:"difficulty"`
	Why        string            `json:"why"`
}

type MentorReply struct {
	Reply           string                 `json:"reply"`
	Recommendations []MentorRecommendation `json:"recommendations"`
	NextSteps       []string               `json:"next_steps"`
}
