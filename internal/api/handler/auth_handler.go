package handler

import (
	"context"
	"net/http"

	"leetmentor/internal/api/middleware"
	"leetmentor/internal/app/service"
	"leetmentor/internal/common"

	"github.com/go-chi/chi/v5"
)

type AuthAPI interface {
	Signup(ctx context.Context, req service.SignupRequest) (*service.AuthResponse, error)
	Login(ctx context.Context, req service.LoginRequest) (*service.AuthResponse, error)
	Me(ctx context.Context, userID int64) (*service.MeResponse, error)
}

type AuthHandler struct {
	authService AuthAPI
}

func NewAuthHandler(authService AuthAPI) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRoutes mounts the public auth endpoints under /auth and GET /me.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/signup", h.signup)
	r.Post("/auth/login", h.login)
	r.With(middleware.Authenticator).Get("/me", h.me)
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupRequest
	if err := decodeRequest(r, &req, false); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	resp, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := decodeRequest(r, &req, false); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := h.authService.Me(r.Context(), userID)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}
