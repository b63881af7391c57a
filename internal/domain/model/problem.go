package model

import (
	"strings"
	"time"
)

type ProblemDifficulty string
type ProblemStatus string

const (
	DifficultyEasy   ProblemDifficulty = "Easy"
	DifficultyMedium ProblemDifficulty = "Medium"
	DifficultyHard   ProblemDifficulty = "Hard"

	StatusNotStarted ProblemStatus = "not_started"
	StatusAttempted  ProblemStatus = "attempted"
	StatusSolved     ProblemStatus = "solved"
)

// Valid reports whether d is one of Easy, Medium or Hard (exact, case-sensitive).
func (d ProblemDifficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

func (s ProblemStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusAttempted, StatusSolved:
		return true
	}
	return false
}

// Problem is a catalog entry. Slug is the stable external key.
type Problem struct {
	ID         int64             `json:"id"`
	Slug       string            `json:"slug"`
	Title      string            `json:"title"`
	Difficulty ProblemDifficulty `json:"difficulty"`
	Topics     []string          `json:"topics"`
	CreatedAt  time.Time         `json:"created_at"`
}

// ProblemWithStatus is a catalog entry annotated with one user's status.
type ProblemWithStatus struct {
	Problem
	Status ProblemStatus `json:"status"`
}

// HistoryEntry is a joined user_problems + problems row.
type HistoryEntry struct {
	Slug        string            `json:"slug"`
	Title       string            `json:"title"`
	Difficulty  ProblemDifficulty `json:"difficulty"`
	Topics      []string          `json:"topics"`
	Status      ProblemStatus     `json:"status"`
	LastUpdated time.Time         `json:"last_updated"`
}

// ParseTopics splits a comma-joined topic string into trimmed, lowercase,
// de-duplicated tags, keeping first-seen order. Empty pieces are dropped.
func ParseTopics(csv string) []string {
	topics := []string{}
	seen := make(map[string]struct{})
	for _, raw := range strings.Split(csv, ",") {
		t := strings.ToLower(strings.TrimSpace(raw))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		topics = append(topics, t)
	}
	return topics
}

// JoinTopics is the inverse of ParseTopics and is what the store persists.
func JoinTopics(topics []string) string {
	return strings.Join(ParseTopics(strings.Join(topics, ",")), ",")
}
