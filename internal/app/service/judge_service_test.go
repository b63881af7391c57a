package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"leetmentor/internal/common"
	"leetmentor/internal/domain/model"
	"leetmentor/internal/platform/judge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type judgeFixture struct {
	users    *fakeUserRepo
	problems *fakeProblemRepo
	subs     *fakeSubmissionRepo
	progress *fakeProgressRepo
	tx       *fakeTx
	judge    *fakeJudge
	locker   *fakeLocker
	svc      *JudgeService
}

func newJudgeFixture() *judgeFixture {
	f := &judgeFixture{
		users: &fakeUserRepo{
			getJudgeUsernameFn: func(context.Context, int64) (string, error) { return "alice", nil },
		},
		problems: &fakeProblemRepo{},
		subs:     &fakeSubmissionRepo{},
		progress: &fakeProgressRepo{},
		tx:       &fakeTx{},
		judge:    &fakeJudge{},
		locker:   &fakeLocker{},
	}
	f.svc = NewJudgeService(f.users, f.problems, f.subs, f.progress, f.tx, f.judge, f.locker, 20)
	f.svc.now = func() time.Time { return time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC) }
	return f
}

func TestLinkAccount(t *testing.T) {
	t.Run("blank username", func(t *testing.T) {
		f := newJudgeFixture()
		_, err := f.svc.LinkAccount(context.Background(), 1, LinkJudgeRequest{Username: "   "})
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("unknown on judge", func(t *testing.T) {
		f := newJudgeFixture()
		f.judge.userExistsFn = func(context.Context, string) (bool, error) { return false, nil }
		_, err := f.svc.LinkAccount(context.Background(), 1, LinkJudgeRequest{Username: "ghost"})
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("judge down", func(t *testing.T) {
		f := newJudgeFixture()
		f.judge.userExistsFn = func(context.Context, string) (bool, error) { return false, errors.New("503") }
		_, err := f.svc.LinkAccount(context.Background(), 1, LinkJudgeRequest{Username: "alice"})
		assert.ErrorIs(t, err, common.ErrUpstream)
	})

	t.Run("stores trimmed handle", func(t *testing.T) {
		f := newJudgeFixture()
		var stored string
		f.users.upsertJudgeLinkFn = func(_ context.Context, _ int64, username string) error {
			stored = username
			return nil
		}
		link, err := f.svc.LinkAccount(context.Background(), 7, LinkJudgeRequest{Username: " alice "})
		require.NoError(t, err)
		assert.Equal(t, "alice", stored)
		assert.Equal(t, int64(7), link.UserID)
		assert.Nil(t, link.LastSyncAt)
	})
}

func TestSync_RequiresLink(t *testing.T) {
	f := newJudgeFixture()
	f.users.getJudgeUsernameFn = nil
	called := false
	f.judge.recentFn = func(context.Context, string, int) ([]judge.AcceptedSubmission, error) {
		called = true
		return nil, nil
	}

	_, err := f.svc.Sync(context.Background(), 1, SyncRequest{})
	assert.ErrorIs(t, err, common.ErrLinkRequired)
	assert.False(t, called)
}

func TestSync_ImportsAndCounts(t *testing.T) {
	f := newJudgeFixture()
	f.progress.solved = map[string]struct{}{"valid-anagram": {}}
	f.judge.recentFn = func(_ context.Context, username string, limit int) ([]judge.AcceptedSubmission, error) {
		assert.Equal(t, "alice", username)
		assert.Equal(t, 20, limit)
		return []judge.AcceptedSubmission{
			{ID: "3", Title: "Two Sum", TitleSlug: "two-sum", Timestamp: 300},
			{ID: "2", Title: "Two Sum", TitleSlug: "two-sum", Timestamp: 200},
			{ID: "1", Title: "Valid Anagram", TitleSlug: "valid-anagram", Timestamp: 100},
		}, nil
	}
	questionCalls := map[string]int{}
	f.judge.questionFn = func(_ context.Context, slug string) (*judge.Question, error) {
		questionCalls[slug]++
		return &judge.Question{TitleSlug: slug, Title: slug + " title", Difficulty: "Easy", Topics: []string{"Array", "Hash Table"}}, nil
	}

	res, err := f.svc.Sync(context.Background(), 1, SyncRequest{})
	require.NoError(t, err)

	assert.Equal(t, "alice", res.Username)
	assert.Equal(t, 3, res.SyncedSubmissionsCount)
	assert.Equal(t, 1, res.UpdatedStatusesCount, "valid-anagram was already solved")
	assert.Equal(t, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), res.LastSyncAt)

	assert.Equal(t, map[string]int{"two-sum": 1, "valid-anagram": 1}, questionCalls)
	require.Len(t, f.problems.upserts, 2)
	assert.Equal(t, "array,hash table", f.problems.upserts[0].topics)
	assert.Equal(t, model.DifficultyEasy, f.problems.upserts[0].difficulty)
	assert.Equal(t, 1, f.tx.calls)
	assert.Equal(t, 1, f.locker.released)

	// Second run with the same judge data inserts nothing new.
	res, err = f.svc.Sync(context.Background(), 1, SyncRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.SyncedSubmissionsCount)
}

func TestSync_UnknownQuestionDefaults(t *testing.T) {
	f := newJudgeFixture()
	f.judge.recentFn = func(context.Context, string, int) ([]judge.AcceptedSubmission, error) {
		return []judge.AcceptedSubmission{{Title: "Gone Problem", TitleSlug: "gone-problem", Timestamp: 1}}, nil
	}
	f.judge.questionFn = func(context.Context, string) (*judge.Question, error) {
		return nil, judge.ErrQuestionNotFound
	}

	_, err := f.svc.Sync(context.Background(), 1, SyncRequest{Limit: 5})
	require.NoError(t, err)
	require.Len(t, f.problems.upserts, 1)
	assert.Equal(t, "Gone Problem", f.problems.upserts[0].title)
	assert.Equal(t, model.DifficultyMedium, f.problems.upserts[0].difficulty)
}

func TestSync_JudgeFailureWritesNothing(t *testing.T) {
	f := newJudgeFixture()
	f.judge.recentFn = func(context.Context, string, int) ([]judge.AcceptedSubmission, error) {
		return []judge.AcceptedSubmission{{TitleSlug: "two-sum", Timestamp: 1}}, nil
	}
	f.judge.questionFn = func(context.Context, string) (*judge.Question, error) {
		return nil, context.DeadlineExceeded
	}
	lastSyncSet := false
	f.users.setJudgeLastSyncFn = func(context.Context, int64, time.Time) error {
		lastSyncSet = true
		return nil
	}

	_, err := f.svc.Sync(context.Background(), 1, SyncRequest{})
	assert.ErrorIs(t, err, common.ErrUpstreamTimeout)
	assert.Empty(t, f.problems.upserts)
	assert.Empty(t, f.subs.inserted)
	assert.Zero(t, f.tx.calls)
	assert.False(t, lastSyncSet)
	assert.Equal(t, 1, f.locker.released)
}

func TestSync_LimitHandling(t *testing.T) {
	f := newJudgeFixture()
	var got int
	f.judge.recentFn = func(_ context.Context, _ string, limit int) ([]judge.AcceptedSubmission, error) {
		got = limit
		return nil, nil
	}

	_, err := f.svc.Sync(context.Background(), 1, SyncRequest{Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, judge.MaxRecentLimit, got)

	_, err = f.svc.Sync(context.Background(), 1, SyncRequest{Limit: -1})
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestSync_InProgress(t *testing.T) {
	f := newJudgeFixture()
	f.locker.busy = true

	_, err := f.svc.Sync(context.Background(), 1, SyncRequest{})
	assert.ErrorIs(t, err, common.ErrSyncInProgress)
}
