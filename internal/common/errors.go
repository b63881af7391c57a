package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound        = errors.New("requested resource not found")
	ErrUnauthorized    = errors.New("unauthorized access")
	ErrForbidden       = errors.New("forbidden access")
	ErrBadRequest      = errors.New("bad request")
	ErrConflict        = errors.New("resource already exists") // e.g., email already registered
	ErrInternalServer  = errors.New("internal server error")
	ErrValidation      = errors.New("validation failed")
	ErrLinkRequired    = errors.New("judge account link required")
	ErrUpstream        = errors.New("upstream service error")     // judge or language model failed
	ErrUpstreamTimeout = errors.New("upstream service timed out") // retryable
	ErrSyncInProgress  = errors.New("a judge sync is already running for this user")
)

// UpstreamError tags err as an upstream failure while keeping the cause for logs.
// Context deadline errors become ErrUpstreamTimeout so callers can retry.
func UpstreamError(service string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", service, ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", service, ErrUpstream, err)
}

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrSyncInProgress) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrLinkRequired) {
		return http.StatusPreconditionRequired
	}
	if errors.Is(err, ErrUpstreamTimeout) {
		return http.StatusGatewayTimeout
	}
	if errors.Is(err, ErrUpstream) {
		return http.StatusBadGateway
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" { // Unique violation
			return http.StatusConflict
		}
	}

	return http.StatusInternalServerError
}

// PublicMessage is the text shown to API callers. Upstream causes stay in the logs.
func PublicMessage(err error) string {
	switch {
	case errors.Is(err, ErrUpstreamTimeout):
		return ErrUpstreamTimeout.Error()
	case errors.Is(err, ErrUpstream):
		return ErrUpstream.Error()
	case HTTPStatusFromError(err) == http.StatusInternalServerError:
		return ErrInternalServer.Error()
	}
	return err.Error()
}

// Errorf creates a new error with formatting, useful for wrapping.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
