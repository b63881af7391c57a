package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_PassesThroughResult(t *testing.T) {
	cb := New(DefaultConfig("test"))

	got, err := Do(cb, func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestDo_NilBreaker(t *testing.T) {
	got, err := Do(nil, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestDo_TripsAfterThreshold(t *testing.T) {
	cfg := DefaultConfig("trip")
	cfg.FailureThreshold = 2
	cfg.Timeout = time.Hour
	cb := New(cfg)

	boom := errors.New("boom")
	calls := 0
	fail := func() (int, error) { calls++; return 0, boom }

	for i := 0; i < 2; i++ {
		_, err := Do(cb, fail)
		assert.ErrorIs(t, err, boom)
	}

	_, err := Do(cb, fail)
	assert.True(t, IsOpen(err))
	assert.Equal(t, 2, calls, "open breaker must not call through")
}

func TestDo_CancellationDoesNotTrip(t *testing.T) {
	cfg := DefaultConfig("cancel")
	cfg.FailureThreshold = 1
	cb := New(cfg)

	for i := 0; i < 3; i++ {
		_, err := Do(cb, func() (int, error) { return 0, context.Canceled })
		assert.ErrorIs(t, err, context.Canceled)
	}

	_, err := Do(cb, func() (int, error) { return 1, nil })
	assert.NoError(t, err)
}
