// Package breaker guards outbound calls to the judge and the language model
// with a consecutive-failure circuit breaker.
package breaker

import (
	"context"
	"errors"
	"time"

	"leetmentor/internal/platform/logging"

	gobreaker "github.com/sony/gobreaker/v2"
)

type Config struct {
	Name string
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval clears the counts while closed. Zero never clears.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing again.
	Timeout          time.Duration
	FailureThreshold uint32
}

func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

type Breaker = gobreaker.CircuitBreaker[any]

// New builds a breaker that trips after FailureThreshold consecutive failures.
// Caller cancellation is not counted as a failure.
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	logger := logging.WithComponent("breaker")

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}
	return gobreaker.NewCircuitBreaker[any](settings)
}

// Do runs fn through cb. A nil cb runs fn directly.
func Do[T any](cb *Breaker, fn func() (T, error)) (T, error) {
	if cb == nil {
		return fn()
	}
	res, err := cb.Execute(func() (any, error) {
		return fn()
	})
	v, _ := res.(T)
	return v, err
}

// IsOpen reports whether err came from a tripped breaker rather than the call itself.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
