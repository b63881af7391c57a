package handler

import (
	"context"
	"net/http"
	"strings"

	"leetmentor/internal/api/middleware"
	"leetmentor/internal/app/service"
	"leetmentor/internal/common"
	"leetmentor/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ProblemAPI interface {
	UpsertProblem(ctx context.Context, req service.UpsertProblemRequest) (*model.Problem, error)
	GetProblem(ctx context.Context, slug string) (*model.Problem, error)
	ListProblems(ctx context.Context, userID int64, difficulty model.ProblemDifficulty) ([]model.ProblemWithStatus, error)
}

type ProblemHandler struct {
	problemService ProblemAPI
}

func NewProblemHandler(ps ProblemAPI) *ProblemHandler {
	return &ProblemHandler{problemService: ps}
}

// RegisterRoutes expects an authenticated router mounted at /problems.
func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listProblems)            // GET /api/v1/problems?difficulty=Easy
	r.Get("/{problemSlug}", h.getProblem) // GET /api/v1/problems/two-sum

	r.Group(func(adminRouter chi.Router) {
		adminRouter.Use(middleware.AdminOnly)
		adminRouter.Post("/", h.upsertProblem) // POST /api/v1/problems
	})
}

func (h *ProblemHandler) upsertProblem(w http.ResponseWriter, r *http.Request) {
	var req service.UpsertProblemRequest
	if err := decodeRequest(r, &req, false); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	problem, err := h.problemService.UpsertProblem(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}

func (h *ProblemHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	difficulty := model.ProblemDifficulty(strings.TrimSpace(r.URL.Query().Get("difficulty")))

	problems, err := h.problemService.ListProblems(r.Context(), userID, difficulty)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problems)
}

func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	problem, err := h.problemService.GetProblem(r.Context(), chi.URLParam(r, "problemSlug"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}
