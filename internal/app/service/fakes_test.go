package service

import (
	"context"
	"database/sql"
	"time"

	"leetmentor/internal/common"
	"leetmentor/internal/domain/model"
	"leetmentor/internal/platform/judge"
	"leetmentor/internal/platform/llm"
)

type fakeUserRepo struct {
	createFn           func(ctx context.Context, user *model.User) error
	findByEmailFn      func(ctx context.Context, email string) (*model.User, error)
	findByIDFn         func(ctx context.Context, id int64) (*model.User, error)
	upsertJudgeLinkFn  func(ctx context.Context, userID int64, username string) error
	getJudgeUsernameFn func(ctx context.Context, userID int64) (string, error)
	setJudgeLastSyncFn func(ctx context.Context, userID int64, at time.Time) error
	getJudgeLastSyncFn func(ctx context.Context, userID int64) (*time.Time, error)
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if f.createFn != nil {
		return f.createFn(ctx, user)
	}
	user.ID = 1
	return nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if f.findByEmailFn != nil {
		return f.findByEmailFn(ctx, email)
	}
	return nil, common.ErrNotFound
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, common.ErrNotFound
}

func (f *fakeUserRepo) UpsertJudgeLink(ctx context.Context, userID int64, username string) error {
	if f.upsertJudgeLinkFn != nil {
		return f.upsertJudgeLinkFn(ctx, userID, username)
	}
	return nil
}

func (f *fakeUserRepo) GetJudgeUsername(ctx context.Context, userID int64) (string, error) {
	if f.getJudgeUsernameFn != nil {
		return f.getJudgeUsernameFn(ctx, userID)
	}
	return "", common.ErrLinkRequired
}

func (f *fakeUserRepo) SetJudgeLastSync(ctx context.Context, userID int64, at time.Time) error {
	if f.setJudgeLastSyncFn != nil {
		return f.setJudgeLastSyncFn(ctx, userID, at)
	}
	return nil
}

func (f *fakeUserRepo) GetJudgeLastSync(ctx context.Context, userID int64) (*time.Time, error) {
	if f.getJudgeLastSyncFn != nil {
		return f.getJudgeLastSyncFn(ctx, userID)
	}
	return nil, nil
}

// fakeProblemRepo records upserts so tests can assert on write-back.
type fakeProblemRepo struct {
	upserts []upsertCall

	getIDFn   func(ctx context.Context, slug string) (int64, error)
	findFn    func(ctx context.Context, slug string) (*model.Problem, error)
	listFn    func(ctx context.Context, userID int64, difficulty model.ProblemDifficulty) ([]model.ProblemWithStatus, error)
	searchFn  func(ctx context.Context, terms []string, limit int) ([]model.Problem, error)
	upsertErr error
}

type upsertCall struct {
	slug       string
	title      string
	difficulty model.ProblemDifficulty
	topics     string
}

func (f *fakeProblemRepo) UpsertProblem(_ context.Context, _ *sql.Tx, slug, title string, difficulty model.ProblemDifficulty, topicsCSV string) (int64, error) {
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	f.upserts = append(f.upserts, upsertCall{slug: slug, title: title, difficulty: difficulty, topics: topicsCSV})
	return int64(len(f.upserts)), nil
}

func (f *fakeProblemRepo) GetProblemIDBySlug(ctx context.Context, slug string) (int64, error) {
	if f.getIDFn != nil {
		return f.getIDFn(ctx, slug)
	}
	return 0, common.ErrNotFound
}

func (f *fakeProblemRepo) FindProblemBySlug(ctx context.Context, slug string) (*model.Problem, error) {
	if f.findFn != nil {
		return f.findFn(ctx, slug)
	}
	for _, u := range f.upserts {
		if u.slug == slug {
			return &model.Problem{Slug: u.slug, Title: u.title, Difficulty: u.difficulty, Topics: model.ParseTopics(u.topics)}, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeProblemRepo) ListProblemsWithStatus(ctx context.Context, userID int64, difficulty model.ProblemDifficulty) ([]model.ProblemWithStatus, error) {
	if f.listFn != nil {
		return f.listFn(ctx, userID, difficulty)
	}
	return []model.ProblemWithStatus{}, nil
}

func (f *fakeProblemRepo) SearchProblems(ctx context.Context, terms []string, limit int) ([]model.Problem, error) {
	if f.searchFn != nil {
		return f.searchFn(ctx, terms, limit)
	}
	return []model.Problem{}, nil
}

type fakeSubmissionRepo struct {
	inserted []model.Submission
	seen     map[string]bool

	historyFn func(ctx context.Context, userID int64) ([]model.Submission, error)
	betweenFn func(ctx context.Context, userID int64, start, end int64) ([]model.Submission, error)
}

// InsertSubmission dedups on (user, slug, timestamp) like the real table.
func (f *fakeSubmissionRepo) InsertSubmission(_ context.Context, _ *sql.Tx, sub *model.Submission) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	key := sub.TitleSlug + "@" + time.Unix(sub.SubmittedAt, 0).UTC().Format(time.RFC3339)
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	f.inserted = append(f.inserted, *sub)
	return true, nil
}

func (f *fakeSubmissionRepo) GetUserSubmissionHistory(ctx context.Context, userID int64) ([]model.Submission, error) {
	if f.historyFn != nil {
		return f.historyFn(ctx, userID)
	}
	return f.inserted, nil
}

func (f *fakeSubmissionRepo) GetUserSubmissionsBetween(ctx context.Context, userID int64, start, end int64) ([]model.Submission, error) {
	if f.betweenFn != nil {
		return f.betweenFn(ctx, userID, start, end)
	}
	return []model.Submission{}, nil
}

type fakeProgressRepo struct {
	statusSets []statusCall
	history    []model.HistoryEntry
	solved     map[string]struct{}

	historyErr error
}

type statusCall struct {
	problemID int64
	status    model.ProblemStatus
}

func (f *fakeProgressRepo) SetUserProblemStatus(_ context.Context, _ *sql.Tx, _ int64, problemID int64, status model.ProblemStatus) error {
	f.statusSets = append(f.statusSets, statusCall{problemID: problemID, status: status})
	return nil
}

func (f *fakeProgressRepo) GetUserProblemHistory(_ context.Context, _ int64, limit int) ([]model.HistoryEntry, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	if limit > 0 && len(f.history) > limit {
		return f.history[:limit], nil
	}
	return f.history, nil
}

func (f *fakeProgressRepo) GetSolvedSlugs(context.Context, int64) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	for k := range f.solved {
		out[k] = struct{}{}
	}
	for _, h := range f.history {
		if h.Status == model.StatusSolved {
			out[h.Slug] = struct{}{}
		}
	}
	return out, nil
}

// fakeTx runs fn without a real transaction.
type fakeTx struct {
	calls int
}

func (f *fakeTx) InTx(_ context.Context, fn func(tx *sql.Tx) error) error {
	f.calls++
	return fn(nil)
}

type fakeJudge struct {
	userExistsFn func(ctx context.Context, username string) (bool, error)
	recentFn     func(ctx context.Context, username string, limit int) ([]judge.AcceptedSubmission, error)
	questionFn   func(ctx context.Context, slug string) (*judge.Question, error)
}

func (f *fakeJudge) UserExists(ctx context.Context, username string) (bool, error) {
	if f.userExistsFn != nil {
		return f.userExistsFn(ctx, username)
	}
	return true, nil
}

func (f *fakeJudge) RecentAcceptedSubmissions(ctx context.Context, username string, limit int) ([]judge.AcceptedSubmission, error) {
	if f.recentFn != nil {
		return f.recentFn(ctx, username, limit)
	}
	return []judge.AcceptedSubmission{}, nil
}

func (f *fakeJudge) QuestionDetails(ctx context.Context, slug string) (*judge.Question, error) {
	if f.questionFn != nil {
		return f.questionFn(ctx, slug)
	}
	return &judge.Question{TitleSlug: slug, Title: slug, Difficulty: "Medium"}, nil
}

type fakeLocker struct {
	busy     bool
	released int
}

func (f *fakeLocker) TryLock(context.Context, string) (func(context.Context) error, bool, error) {
	if f.busy {
		return nil, false, nil
	}
	return func(context.Context) error { f.released++; return nil }, true, nil
}

type fakeChat struct {
	requests []llm.ChatRequest
	chatFn   func(ctx context.Context, req llm.ChatRequest) (string, error)
}

func (f *fakeChat) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	f.requests = append(f.requests, req)
	return f.chatFn(ctx, req)
}

type fakeTokens struct{}

func (fakeTokens) GenerateToken(userID int64, role string) (string, error) {
	return "token-for-" + role, nil
}
