package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"leetmentor/internal/common"
	"leetmentor/internal/common/security"
	"leetmentor/internal/domain/model"
	"leetmentor/internal/domain/repository"
)

// TokenGenerator issues access tokens. *security.TokenIssuer implements it.
type TokenGenerator interface {
	GenerateToken(userID int64, role string) (string, error)
}

type AuthService struct {
	userRepo repository.UserRepository
	tokens   TokenGenerator
}

func NewAuthService(userRepo repository.UserRepository, tokens TokenGenerator) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens}
}

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:          email,
		HashedPassword: hashedPassword,
		Role:           model.RoleUser, // Default role
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Repo returns common.ErrConflict on duplicate email
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = ""
	return &AuthResponse{User: user, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized // Generic message for security
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, common.ErrUnauthorized
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = ""
	return &AuthResponse{User: user, Token: token}, nil
}

// Me returns the caller's profile with the judge link, when there is one.
func (s *AuthService) Me(ctx context.Context, userID int64) (*MeResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	user.HashedPassword = ""

	resp := &MeResponse{User: user}
	username, err := s.userRepo.GetJudgeUsername(ctx, userID)
	switch {
	case err == nil:
		link := &model.JudgeLink{UserID: userID, Username: username}
		if link.LastSyncAt, err = s.userRepo.GetJudgeLastSync(ctx, userID); err != nil {
			return nil, fmt.Errorf("failed to load last sync: %w", err)
		}
		resp.JudgeLink = link
	case !errors.Is(err, common.ErrLinkRequired):
		return nil, fmt.Errorf("failed to load judge link: %w", err)
	}
	return resp, nil
}

type MeResponse struct {
	User      *model.User      `json:"user"`
	JudgeLink *model.JudgeLink `json:"judge_link,omitempty"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
