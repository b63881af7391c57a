package handler

import (
	"context"
	"net/http"

	"leetmentor/internal/app/service"
	"leetmentor/internal/common"
	"leetmentor/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

const defaultHistoryLimit = 30

type ProgressAPI interface {
	TopicStats(ctx context.Context, userID int64) (model.TopicStats, error)
	Activity(ctx context.Context, userID int64) (model.ActivityMetrics, error)
	History(ctx context.Context, userID int64, limit int) ([]model.HistoryEntry, error)
	SetStatus(ctx context.Context, userID int64, slug string, req service.SetStatusRequest) error
}

type ProgressHandler struct {
	progressService ProgressAPI
}

func NewProgressHandler(ps ProgressAPI) *ProgressHandler {
	return &ProgressHandler{progressService: ps}
}

// RegisterRoutes expects an authenticated router mounted at /progress.
func (h *ProgressHandler) RegisterRoutes(r chi.Router) {
	r.Get("/stats", h.stats)
	r.Get("/activity", h.activity)
	r.Get("/history", h.history)
	r.Put("/{problemSlug}", h.setStatus)
}

func (h *ProgressHandler) stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	stats, err := h.progressService.TopicStats(r.Context(), userID)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *ProgressHandler) activity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	metrics, err := h.progressService.Activity(r.Context(), userID)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, metrics)
}

func (h *ProgressHandler) history(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", defaultHistoryLimit)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	rows, err := h.progressService.History(r.Context(), userID, int(limit))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, rows)
}

func (h *ProgressHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req service.SetStatusRequest
	if err := decodeRequest(r, &req, false); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	if err := h.progressService.SetStatus(r.Context(), userID, chi.URLParam(r, "problemSlug"), req); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
