package model

import "time"

// Submission is an accepted judge submission imported during sync.
// (UserID, TitleSlug, SubmittedAt) is unique; rows are never updated.
type Submission struct {
	ID          int64         `json:"id"`
	UserID      int64         `json:"user_id"`
	ProblemID   int64         `json:"problem_id"`
	TitleSlug   string        `json:"title_slug"`
	Title       string        `json:"title"`
	Status      ProblemStatus `json:"status"`
	SubmittedAt int64         `json:"submitted_at"` // epoch seconds
}

func (s Submission) Time() time.Time {
	return time.Unix(s.SubmittedAt, 0)
}
