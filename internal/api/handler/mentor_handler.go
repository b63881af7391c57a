package handler

import (
	"context"
	"net/http"

	"leetmentor/internal/app/recommend"
	"leetmentor/internal/app/service"
	"leetmentor/internal/common"
	"leetmentor/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type RecommendAPI interface {
	Recommend(ctx context.Context, userID int64, req service.RecommendRequest) ([]recommend.Scored, error)
}

type MentorAPI interface {
	Chat(ctx context.Context, userID int64, req service.MentorChatRequest) (*model.MentorReply, error)
}

// MentorHandler serves the rule-based recommendations and the LLM mentor.
type MentorHandler struct {
	recommender RecommendAPI
	mentor      MentorAPI
}

func NewMentorHandler(recommender RecommendAPI, mentor MentorAPI) *MentorHandler {
	return &MentorHandler{recommender: recommender, mentor: mentor}
}

func (h *MentorHandler) RegisterRecommendRoutes(r chi.Router) {
	r.Post("/recommendations", h.recommend)
}

// RegisterMentorRoutes mounts the chat endpoint; callers add rate limiting.
func (h *MentorHandler) RegisterMentorRoutes(r chi.Router) {
	r.Post("/mentor/chat", h.chat)
}

type recommendResponse struct {
	Recommendations []recommend.Scored `json:"recommendations"`
}

func (h *MentorHandler) recommend(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req service.RecommendRequest
	if err := decodeRequest(r, &req, true); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	recs, err := h.recommender.Recommend(r.Context(), userID, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, recommendResponse{Recommendations: recs})
}

func (h *MentorHandler) chat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req service.MentorChatRequest
	if err := decodeRequest(r, &req, false); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	reply, err := h.mentor.Chat(r.Context(), userID, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, reply)
}
