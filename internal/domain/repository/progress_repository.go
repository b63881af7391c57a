package repository

import (
	"context"
	"database/sql"
	"fmt"

	"leetmentor/internal/domain/model"
)

type ProgressRepository interface {
	// SetUserProblemStatus upserts the (user, problem) row; last write wins, regressions allowed.
	SetUserProblemStatus(ctx context.Context, tx *sql.Tx, userID, problemID int64, status model.ProblemStatus) error
	// GetUserProblemHistory returns joined status rows, most recently updated first.
	// limit <= 0 returns every row.
	GetUserProblemHistory(ctx context.Context, userID int64, limit int) ([]model.HistoryEntry, error)
	// GetSolvedSlugs returns every slug the user has marked solved.
	GetSolvedSlugs(ctx context.Context, userID int64) (map[string]struct{}, error)
}

type pgProgressRepository struct {
	db *sql.DB
}

func NewPgProgressRepository(db *sql.DB) ProgressRepository {
	return &pgProgressRepository{db: db}
}

func (r *pgProgressRepository) SetUserProblemStatus(ctx context.Context, tx *sql.Tx, userID, problemID int64, status model.ProblemStatus) error {
	query := `INSERT INTO user_problems (user_id, problem_id, status, last_updated)
	          VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
	          ON CONFLICT (user_id, problem_id) DO UPDATE SET
	              status = EXCLUDED.status,
	              last_updated = CURRENT_TIMESTAMP`
	if _, err := conn(r.db, tx).ExecContext(ctx, query, userID, problemID, status); err != nil {
		return fmt.Errorf("pgProgressRepository.SetUserProblemStatus: %w", err)
	}
	return nil
}

func (r *pgProgressRepository) GetUserProblemHistory(ctx context.Context, userID int64, limit int) ([]model.HistoryEntry, error) {
	query := `SELECT p.slug, p.title, p.difficulty, p.topics, up.status, up.last_updated
	          FROM user_problems up
	          JOIN problems p ON p.id = up.problem_id
	          WHERE up.user_id = $1
	          ORDER BY up.last_updated DESC, p.id DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgProgressRepository.GetUserProblemHistory query: %w", err)
	}
	defer rows.Close()

	history := []model.HistoryEntry{}
	for rows.Next() {
		var (
			h      model.HistoryEntry
			topics string
		)
		if err := rows.Scan(&h.Slug, &h.Title, &h.Difficulty, &topics, &h.Status, &h.LastUpdated); err != nil {
			return nil, fmt.Errorf("pgProgressRepository.GetUserProblemHistory scan: %w", err)
		}
		h.Topics = model.ParseTopics(topics)
		history = append(history, h)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProgressRepository.GetUserProblemHistory rows.Err: %w", err)
	}
	return history, nil
}

func (r *pgProgressRepository) GetSolvedSlugs(ctx context.Context, userID int64) (map[string]struct{}, error) {
	query := `SELECT p.slug FROM user_problems up
	          JOIN problems p ON p.id = up.problem_id
	          WHERE up.user_id = $1 AND up.status = 'solved'`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgProgressRepository.GetSolvedSlugs query: %w", err)
	}
	defer rows.Close()

	solved := map[string]struct{}{}
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("pgProgressRepository.GetSolvedSlugs scan: %w", err)
		}
		solved[slug] = struct{}{}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProgressRepository.GetSolvedSlugs rows.Err: %w", err)
	}
	return solved, nil
}
