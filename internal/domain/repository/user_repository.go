package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"leetmentor/internal/common"
	"leetmentor/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)

	UpsertJudgeLink(ctx context.Context, userID int64, username string) error
	// GetJudgeUsername returns common.ErrLinkRequired when the user has no link.
	GetJudgeUsername(ctx context.Context, userID int64) (string, error)
	SetJudgeLastSync(ctx context.Context, userID int64, at time.Time) error
	// GetJudgeLastSync returns nil when the user never synced.
	GetJudgeLastSync(ctx context.Context, userID int64) (*time.Time, error)
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (email, hashed_password, role)
	          VALUES ($1, $2, $3)
	          RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, user.Email, user.HashedPassword, user.Role).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint violation
			return fmt.Errorf("user with given email already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT id, email, hashed_password, role, created_at
	          FROM users WHERE email = $1`
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.HashedPassword, &user.Role, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByEmail: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT id, email, hashed_password, role, created_at
	          FROM users WHERE id = $1`
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.HashedPassword, &user.Role, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByID: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) UpsertJudgeLink(ctx context.Context, userID int64, username string) error {
	query := `INSERT INTO judge_links (user_id, username, updated_at)
	          VALUES ($1, $2, CURRENT_TIMESTAMP)
	          ON CONFLICT (user_id) DO UPDATE SET username = EXCLUDED.username, updated_at = CURRENT_TIMESTAMP`
	if _, err := r.db.ExecContext(ctx, query, userID, username); err != nil {
		return fmt.Errorf("pgUserRepository.UpsertJudgeLink: %w", err)
	}
	return nil
}

func (r *pgUserRepository) GetJudgeUsername(ctx context.Context, userID int64) (string, error) {
	var username string
	err := r.db.QueryRowContext(ctx, `SELECT username FROM judge_links WHERE user_id = $1`, userID).Scan(&username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrLinkRequired
		}
		return "", fmt.Errorf("pgUserRepository.GetJudgeUsername: %w", err)
	}
	return username, nil
}

func (r *pgUserRepository) SetJudgeLastSync(ctx context.Context, userID int64, at time.Time) error {
	query := `INSERT INTO judge_sync_state (user_id, last_sync_at) VALUES ($1, $2)
	          ON CONFLICT (user_id) DO UPDATE SET last_sync_at = EXCLUDED.last_sync_at`
	if _, err := r.db.ExecContext(ctx, query, userID, at); err != nil {
		return fmt.Errorf("pgUserRepository.SetJudgeLastSync: %w", err)
	}
	return nil
}

func (r *pgUserRepository) GetJudgeLastSync(ctx context.Context, userID int64) (*time.Time, error) {
	var at time.Time
	err := r.db.QueryRowContext(ctx, `SELECT last_sync_at FROM judge_sync_state WHERE user_id = $1`, userID).Scan(&at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("pgUserRepository.GetJudgeLastSync: %w", err)
	}
	return &at, nil
}
