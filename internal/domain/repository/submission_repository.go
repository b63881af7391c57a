package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"leetmentor/internal/domain/model"
)

type SubmissionRepository interface {
	// InsertSubmission is a no-op returning false when (user, title_slug, submitted_at) already exists.
	InsertSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) (bool, error)
	GetUserSubmissionHistory(ctx context.Context, userID int64) ([]model.Submission, error)
	// GetUserSubmissionsBetween returns submissions with start <= submitted_at < end (epoch seconds).
	GetUserSubmissionsBetween(ctx context.Context, userID int64, start, end int64) ([]model.Submission, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

func (r *pgSubmissionRepository) InsertSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) (bool, error) {
	query := `INSERT INTO submissions (user_id, problem_id, title_slug, title, status, submitted_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (user_id, title_slug, submitted_at) DO NOTHING
	          RETURNING id`
	err := conn(r.db, tx).QueryRowContext(ctx, query,
		sub.UserID, sub.ProblemID, sub.TitleSlug, sub.Title, sub.Status, sub.SubmittedAt,
	).Scan(&sub.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("pgSubmissionRepository.InsertSubmission: %w", err)
	}
	return true, nil
}

const submissionColumns = `id, user_id, problem_id, title_slug, title, status, submitted_at`

func (r *pgSubmissionRepository) GetUserSubmissionHistory(ctx context.Context, userID int64) ([]model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions
	          WHERE user_id = $1 ORDER BY submitted_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.GetUserSubmissionHistory query: %w", err)
	}
	return scanSubmissions(rows)
}

func (r *pgSubmissionRepository) GetUserSubmissionsBetween(ctx context.Context, userID int64, start, end int64) ([]model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions
	          WHERE user_id = $1 AND submitted_at >= $2 AND submitted_at < $3
	          ORDER BY submitted_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.GetUserSubmissionsBetween query: %w", err)
	}
	return scanSubmissions(rows)
}

func scanSubmissions(rows *sql.Rows) ([]model.Submission, error) {
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		var s model.Submission
		if err := rows.Scan(&s.ID, &s.UserID, &s.ProblemID, &s.TitleSlug, &s.Title, &s.Status, &s.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scanning submission: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating submissions: %w", err)
	}
	return subs, nil
}
