package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"leetmentor/internal/app/analyzer"
	"leetmentor/internal/app/mentor"
	"leetmentor/internal/common"
	"leetmentor/internal/domain/model"
	"leetmentor/internal/domain/repository"
	"leetmentor/internal/platform/llm"
	"leetmentor/internal/platform/logging"
)

// MentorService runs one mentor chat turn: read context, ask the model,
// sanitize, then write surviving recommendations back to the catalog.
type MentorService struct {
	problemRepo    repository.ProblemRepository
	submissionRepo repository.SubmissionRepository
	progressRepo   repository.ProgressRepository
	tx             repository.Transactor
	llm            llm.ChatClient
	temperature    float64
	clock          analyzer.Clock
	loc            *time.Location
}

func NewMentorService(
	problemRepo repository.ProblemRepository,
	submissionRepo repository.SubmissionRepository,
	progressRepo repository.ProgressRepository,
	tx repository.Transactor,
	chat llm.ChatClient,
	temperature float64,
	clock analyzer.Clock,
	loc *time.Location,
) *MentorService {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &MentorService{
		problemRepo:    problemRepo,
		submissionRepo: submissionRepo,
		progressRepo:   progressRepo,
		tx:             tx,
		llm:            chat,
		temperature:    temperature,
		clock:          clock,
		loc:            loc,
	}
}

type MentorChatRequest struct {
	Message          string                  `json:"message" validate:"required,max=4000"`
	WeakTopics       []string                `json:"weak_topics" validate:"max=32,dive,max=64"`
	TargetDifficulty model.ProblemDifficulty `json:"target_difficulty" validate:"omitempty,oneof=Easy Medium Hard"`
	// Limit defaults to DefaultMentorLimit when omitted.
	Limit *int `json:"limit" validate:"omitempty,min=0"`
}

const DefaultMentorLimit = 5

func (r MentorChatRequest) limit() int {
	if r.Limit == nil {
		return DefaultMentorLimit
	}
	return *r.Limit
}

func (s *MentorService) Chat(ctx context.Context, userID int64, req MentorChatRequest) (*model.MentorReply, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("message is required: %w", common.ErrValidation)
	}
	limit := req.limit()
	if limit < 0 {
		return nil, fmt.Errorf("limit must be >= 0: %w", common.ErrValidation)
	}
	if req.TargetDifficulty != "" && !req.TargetDifficulty.Valid() {
		return nil, fmt.Errorf("unsupported target difficulty %q: %w", req.TargetDifficulty, common.ErrValidation)
	}
	logger := logging.Ctx(ctx)

	// Reads. The solved set is snapshotted here, before any write-back.
	history, err := s.progressRepo.GetUserProblemHistory(ctx, userID, mentor.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	allRows, err := s.progressRepo.GetUserProblemHistory(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load topic stats: %w", err)
	}
	solved, err := s.progressRepo.GetSolvedSlugs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load solved problems: %w", err)
	}
	subs, err := s.submissionRepo.GetUserSubmissionHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", err)
	}
	catalog := s.searchCatalog(ctx, req)

	prompt := mentor.BuildUserPrompt(mentor.PromptInput{
		Message:          req.Message,
		WeakTopics:       req.WeakTopics,
		TargetDifficulty: req.TargetDifficulty,
		Limit:            limit,
		History:          history,
		Stats:            analyzer.TopicStats(allRows),
		Activity:         analyzer.Activity(subs, s.clock(), s.loc),
		Catalog:          catalog,
	})

	content, err := s.llm.Chat(ctx, llm.ChatRequest{
		System:      mentor.SystemPrompt,
		User:        prompt,
		Temperature: s.temperature,
	})
	if err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Msg("mentor model call failed")
		return nil, common.UpstreamError("mentor model", err)
	}

	raw, err := mentor.DecodeReply(content)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Int("reply_bytes", len(content)).Msg("mentor reply could not be parsed")
		return nil, common.UpstreamError("mentor model", err)
	}

	recs := mentor.Sanitize(raw.Recommendations, solved, req.TargetDifficulty, limit)

	// Write-back: AI-sourced problems enter the catalog with unknown topics.
	if len(recs) > 0 {
		err = s.tx.InTx(ctx, func(tx *sql.Tx) error {
			for _, r := range recs {
				if _, err := s.problemRepo.UpsertProblem(ctx, tx, r.Slug, r.Title, r.Difficulty, ""); err != nil {
					return fmt.Errorf("recommended problem %q: %w", r.Slug, err)
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to store recommended problems: %w", err)
		}
	}

	logger.Info().
		Int64("user_id", userID).
		Int("model_recommendations", len(raw.Recommendations)).
		Int("kept_recommendations", len(recs)).
		Msg("mentor chat completed")

	return &model.MentorReply{
		Reply:           raw.Reply,
		Recommendations: recs,
		NextSteps:       raw.NextSteps,
	}, nil
}

// searchCatalog is best-effort: a failure is logged and the prompt falls back
// to the "no catalog matches" placeholder.
func (s *MentorService) searchCatalog(ctx context.Context, req MentorChatRequest) mentor.CatalogResult {
	terms := mentor.SearchTerms(req.Message, req.WeakTopics)
	if len(terms) == 0 {
		return mentor.CatalogResult{Matches: []model.Problem{}}
	}
	matches, err := s.problemRepo.SearchProblems(ctx, terms, mentor.CatalogLimit)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Strs("terms", terms).Msg("catalog search failed, continuing without matches")
		return mentor.CatalogResult{Err: err}
	}
	return mentor.CatalogResult{Matches: matches}
}
