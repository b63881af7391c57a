package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"leetmentor/internal/app/mentor"
	"leetmentor/internal/common"
	"leetmentor/internal/domain/model"
	"leetmentor/internal/platform/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mentorFixture struct {
	problems *fakeProblemRepo
	subs     *fakeSubmissionRepo
	progress *fakeProgressRepo
	tx       *fakeTx
	chat     *fakeChat
	svc      *MentorService
}

func newMentorFixture(reply string, chatErr error) *mentorFixture {
	f := &mentorFixture{
		problems: &fakeProblemRepo{},
		subs:     &fakeSubmissionRepo{},
		progress: &fakeProgressRepo{},
		tx:       &fakeTx{},
		chat: &fakeChat{chatFn: func(context.Context, llm.ChatRequest) (string, error) {
			return reply, chatErr
		}},
	}
	clock := func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	f.svc = NewMentorService(f.problems, f.subs, f.progress, f.tx, f.chat, 0.2, clock, time.UTC)
	return f
}

func intPtr(v int) *int { return &v }

func TestMentorChat_SanitizesAndWritesBack(t *testing.T) {
	reply := `Sure! {"reply":"Focus on graphs.","recommendations":[
		{"slug":"two-sum","title":"Two Sum","difficulty":"Easy","why":"warmup"},
		{"slug":"number-of-islands","title":"Number of Islands","difficulty":"Medium","why":""},
		{"slug":"number-of-islands","title":"dup","difficulty":"Medium","why":"dup"},
		{"slug":"","title":"No Slug","difficulty":"Easy","why":"x"},
		{"slug":"course-schedule","title":"Course Schedule","difficulty":"Medium","why":"topo sort"}
	],"nextSteps":["review BFS"]}`
	f := newMentorFixture(reply, nil)
	f.progress.history = []model.HistoryEntry{
		{Slug: "two-sum", Title: "Two Sum", Difficulty: model.DifficultyEasy, Topics: []string{"array"}, Status: model.StatusSolved},
	}

	out, err := f.svc.Chat(context.Background(), 1, MentorChatRequest{Message: "help me with graph problems", Limit: intPtr(5)})
	require.NoError(t, err)

	assert.Equal(t, "Focus on graphs.", out.Reply)
	assert.Equal(t, []string{"review BFS"}, out.NextSteps)
	require.Len(t, out.Recommendations, 2)
	assert.Equal(t, "number-of-islands", out.Recommendations[0].Slug)
	assert.Equal(t, mentor.FallbackWhy, out.Recommendations[0].Why)
	assert.Equal(t, "course-schedule", out.Recommendations[1].Slug)

	require.Len(t, f.problems.upserts, 2)
	for _, u := range f.problems.upserts {
		assert.NotEqual(t, "two-sum", u.slug)
		assert.Empty(t, u.topics)
	}
	assert.Equal(t, 1, f.tx.calls)

	require.Len(t, f.chat.requests, 1)
	assert.Equal(t, mentor.SystemPrompt, f.chat.requests[0].System)
	assert.InDelta(t, 0.2, f.chat.requests[0].Temperature, 1e-9)
	assert.Contains(t, f.chat.requests[0].User, "help me with graph problems")
}

func TestMentorChat_TargetDifficultyAndLimit(t *testing.T) {
	reply := `{"reply":"ok","recommendations":[
		{"slug":"a","title":"A","difficulty":"Hard","why":"x"},
		{"slug":"b","title":"B","difficulty":"Extreme","why":"x"},
		{"slug":"c","title":"C","difficulty":"Medium","why":"x"}
	],"next_steps":[]}`
	f := newMentorFixture(reply, nil)

	out, err := f.svc.Chat(context.Background(), 1, MentorChatRequest{
		Message:          "next?",
		TargetDifficulty: model.DifficultyEasy,
		Limit:            intPtr(2),
	})
	require.NoError(t, err)
	require.Len(t, out.Recommendations, 2)
	assert.Equal(t, model.DifficultyHard, out.Recommendations[0].Difficulty)
	assert.Equal(t, "b", out.Recommendations[1].Slug)
	assert.Equal(t, model.DifficultyEasy, out.Recommendations[1].Difficulty)
	assert.Len(t, f.problems.upserts, 2)
}

func TestMentorChat_DefaultLimit(t *testing.T) {
	var recs []string
	for _, s := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		recs = append(recs, `{"slug":"`+s+`","title":"`+s+`","difficulty":"Easy","why":"x"}`)
	}
	f := newMentorFixture(`{"reply":"ok","recommendations":[`+strings.Join(recs, ",")+`]}`, nil)

	out, err := f.svc.Chat(context.Background(), 1, MentorChatRequest{Message: "go"})
	require.NoError(t, err)
	assert.Len(t, out.Recommendations, DefaultMentorLimit)
	assert.NotNil(t, out.NextSteps)
}

func TestMentorChat_ModelFailureWritesNothing(t *testing.T) {
	f := newMentorFixture("", errors.New("connection refused"))

	_, err := f.svc.Chat(context.Background(), 1, MentorChatRequest{Message: "hi"})
	assert.ErrorIs(t, err, common.ErrUpstream)
	assert.Empty(t, f.problems.upserts)
	assert.Zero(t, f.tx.calls)
}

func TestMentorChat_UnparseableReplyWritesNothing(t *testing.T) {
	f := newMentorFixture("I cannot answer in JSON today.", nil)

	_, err := f.svc.Chat(context.Background(), 1, MentorChatRequest{Message: "hi"})
	assert.ErrorIs(t, err, common.ErrUpstream)
	assert.ErrorIs(t, err, mentor.ErrMalformedReply)
	assert.Empty(t, f.problems.upserts)
}

func TestMentorChat_CatalogSearchFailureFallsBack(t *testing.T) {
	f := newMentorFixture(`{"reply":"ok","recommendations":[],"next_steps":[]}`, nil)
	f.problems.searchFn = func(context.Context, []string, int) ([]model.Problem, error) {
		return nil, errors.New("db gone")
	}

	out, err := f.svc.Chat(context.Background(), 1, MentorChatRequest{Message: "dynamic programming please", WeakTopics: []string{"dp"}})
	require.NoError(t, err)
	assert.Empty(t, out.Recommendations)
	assert.Zero(t, f.tx.calls)

	require.Len(t, f.chat.requests, 1)
	prompt := f.chat.requests[0].User
	assert.Contains(t, prompt, "(no catalog matches)")
}

func TestMentorChat_Validation(t *testing.T) {
	f := newMentorFixture("{}", nil)

	_, err := f.svc.Chat(context.Background(), 1, MentorChatRequest{Message: "  "})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.svc.Chat(context.Background(), 1, MentorChatRequest{Message: "hi", Limit: intPtr(-1)})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.svc.Chat(context.Background(), 1, MentorChatRequest{Message: "hi", TargetDifficulty: "easy"})
	assert.ErrorIs(t, err, common.ErrValidation)

	assert.Empty(t, f.chat.requests)
}

func TestMentorChat_NullReplyIsUpstreamError(t *testing.T) {
	f := newMentorFixture("null", nil)

	_, err := f.svc.Chat(context.Background(), 1, MentorChatRequest{Message: "hi"})
	assert.ErrorIs(t, err, common.ErrUpstream)
	assert.ErrorIs(t, err, mentor.ErrMalformedReply)
	assert.Zero(t, f.tx.calls)
}
