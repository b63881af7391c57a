package handler

import (
	"context"
	"net/http"

	"leetmentor/internal/common"
	"leetmentor/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type SubmissionAPI interface {
	Submissions(ctx context.Context, userID int64, from, to int64) ([]model.Submission, error)
}

// SubmissionHandler lists the judge submissions imported by sync.
type SubmissionHandler struct {
	submissions SubmissionAPI
}

func NewSubmissionHandler(s SubmissionAPI) *SubmissionHandler {
	return &SubmissionHandler{submissions: s}
}

// RegisterRoutes expects an authenticated router mounted at /submissions.
func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listSubmissions) // GET /api/v1/submissions?from=<epoch>&to=<epoch>
}

func (h *SubmissionHandler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	from, err := queryInt(r, "from", 0)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	to, err := queryInt(r, "to", 0)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	subs, err := h.submissions.Submissions(r.Context(), userID, from, to)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, subs)
}
