package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"leetmentor/internal/common"
	"leetmentor/internal/domain/model"
)

type ProblemRepository interface {
	// UpsertProblem inserts or overwrites title/difficulty/topics by slug and returns the row id.
	UpsertProblem(ctx context.Context, tx *sql.Tx, slug, title string, difficulty model.ProblemDifficulty, topicsCSV string) (int64, error)
	GetProblemIDBySlug(ctx context.Context, slug string) (int64, error)
	FindProblemBySlug(ctx context.Context, slug string) (*model.Problem, error)
	// ListProblemsWithStatus returns the catalog, newest first, annotated with userID's status.
	// An empty difficulty means no filter.
	ListProblemsWithStatus(ctx context.Context, userID int64, difficulty model.ProblemDifficulty) ([]model.ProblemWithStatus, error)
	// SearchProblems matches any term against title or topics, newest first.
	SearchProblems(ctx context.Context, terms []string, limit int) ([]model.Problem, error)
}

type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

func (r *pgProblemRepository) UpsertProblem(ctx context.Context, tx *sql.Tx, slug, title string, difficulty model.ProblemDifficulty, topicsCSV string) (int64, error) {
	query := `INSERT INTO problems (slug, title, difficulty, topics)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (slug) DO UPDATE SET
	              title = EXCLUDED.title,
	              difficulty = EXCLUDED.difficulty,
	              topics = EXCLUDED.topics
	          RETURNING id`

	var id int64
	err := conn(r.db, tx).QueryRowContext(ctx, query, slug, title, difficulty, topicsCSV).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("pgProblemRepository.UpsertProblem: %w", err)
	}
	return id, nil
}

func (r *pgProblemRepository) GetProblemIDBySlug(ctx context.Context, slug string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM problems WHERE slug = $1`, slug).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("pgProblemRepository.GetProblemIDBySlug: %w", err)
	}
	return id, nil
}

func (r *pgProblemRepository) FindProblemBySlug(ctx context.Context, slug string) (*model.Problem, error) {
	query := `SELECT id, slug, title, difficulty, topics, created_at FROM problems WHERE slug = $1`
	var (
		p      model.Problem
		topics string
	)
	err := r.db.QueryRowContext(ctx, query, slug).Scan(&p.ID, &p.Slug, &p.Title, &p.Difficulty, &topics, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.FindProblemBySlug: %w", err)
	}
	p.Topics = model.ParseTopics(topics)
	return &p, nil
}

func (r *pgProblemRepository) ListProblemsWithStatus(ctx context.Context, userID int64, difficulty model.ProblemDifficulty) ([]model.ProblemWithStatus, error) {
	var query strings.Builder
	query.WriteString(`
        SELECT p.id, p.slug, p.title, p.difficulty, p.topics, p.created_at,
               COALESCE(up.status, 'not_started')
        FROM problems p
        LEFT JOIN user_problems up ON up.problem_id = p.id AND up.user_id = $1`)
	args := []interface{}{userID}
	if difficulty != "" {
		query.WriteString(" WHERE p.difficulty = $2")
		args = append(args, difficulty)
	}
	query.WriteString(" ORDER BY p.id DESC")

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.ListProblemsWithStatus query: %w", err)
	}
	defer rows.Close()

	problems := []model.ProblemWithStatus{}
	for rows.Next() {
		var (
			p      model.ProblemWithStatus
			topics string
		)
		if err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.Difficulty, &topics, &p.CreatedAt, &p.Status); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.ListProblemsWithStatus scan: %w", err)
		}
		p.Topics = model.ParseTopics(topics)
		problems = append(problems, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.ListProblemsWithStatus rows.Err: %w", err)
	}
	return problems, nil
}

func (r *pgProblemRepository) SearchProblems(ctx context.Context, terms []string, limit int) ([]model.Problem, error) {
	patterns := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			patterns = append(patterns, "%"+escapeLike(t)+"%")
		}
	}
	if len(patterns) == 0 || limit <= 0 {
		return []model.Problem{}, nil
	}

	query := `SELECT id, slug, title, difficulty, topics, created_at
	          FROM problems
	          WHERE topics ILIKE ANY($1) OR title ILIKE ANY($1)
	          ORDER BY id DESC
	          LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, patterns, limit)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.SearchProblems query: %w", err)
	}
	defer rows.Close()

	problems := []model.Problem{}
	for rows.Next() {
		var (
			p      model.Problem
			topics string
		)
		if err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.Difficulty, &topics, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.SearchProblems scan: %w", err)
		}
		p.Topics = model.ParseTopics(topics)
		problems = append(problems, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.SearchProblems rows.Err: %w", err)
	}
	return problems, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user text match literally inside a LIKE pattern
// (backslash is Postgres' default LIKE escape).
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
