package handler

import (
	"context"
	"net/http"

	"leetmentor/internal/app/service"
	"leetmentor/internal/common"
	"leetmentor/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type JudgeAPI interface {
	LinkAccount(ctx context.Context, userID int64, req service.LinkJudgeRequest) (*model.JudgeLink, error)
	GetLink(ctx context.Context, userID int64) (*model.JudgeLink, error)
	Sync(ctx context.Context, userID int64, req service.SyncRequest) (*model.SyncResult, error)
}

type SyncJobAPI interface {
	EnqueueSync(ctx context.Context, userID int64, req service.SyncRequest) (*model.SyncJobState, error)
	GetState(ctx context.Context, userID int64, jobID string) (*model.SyncJobState, error)
}

type JudgeHandler struct {
	judgeService JudgeAPI
	jobService   SyncJobAPI
}

func NewJudgeHandler(judgeService JudgeAPI, jobService SyncJobAPI) *JudgeHandler {
	return &JudgeHandler{judgeService: judgeService, jobService: jobService}
}

// RegisterRoutes expects an authenticated router mounted at /judge.
func (h *JudgeHandler) RegisterRoutes(r chi.Router) {
	r.Post("/link", h.link)
	r.Get("/link", h.getLink)
	r.Post("/sync", h.sync)
	r.Post("/sync/async", h.syncAsync)
	r.Get("/sync/jobs/{jobID}", h.jobStatus)
}

func (h *JudgeHandler) link(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req service.LinkJudgeRequest
	if err := decodeRequest(r, &req, false); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	link, err := h.judgeService.LinkAccount(r.Context(), userID, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, link)
}

func (h *JudgeHandler) getLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	link, err := h.judgeService.GetLink(r.Context(), userID)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, link)
}

func (h *JudgeHandler) sync(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req service.SyncRequest
	if err := decodeRequest(r, &req, true); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	result, err := h.judgeService.Sync(r.Context(), userID, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, result)
}

func (h *JudgeHandler) syncAsync(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req service.SyncRequest
	if err := decodeRequest(r, &req, true); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	state, err := h.jobService.EnqueueSync(r.Context(), userID, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusAccepted, state) // Accepted (202) as it's async
}

func (h *JudgeHandler) jobStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	state, err := h.jobService.GetState(r.Context(), userID, chi.URLParam(r, "jobID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, state)
}
