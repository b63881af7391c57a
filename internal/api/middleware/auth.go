package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"leetmentor/internal/common"
	"leetmentor/internal/common/security"
	"leetmentor/internal/domain/model"
	"leetmentor/internal/platform/logging"

	"github.com/go-chi/httprate"
	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	UserIDCtxKey   contextKey = "userID"
	UserRoleCtxKey contextKey = "userRole"
)

// Authenticator requires a verified token (see jwtauth.Verifier) and puts the
// caller's id and role on the context.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			if errors.Is(err, jwtauth.ErrNoTokenFound) {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
			} else {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
			}
			return
		}
		if token == nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		userID, err := security.GetUserIDFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}
		userRole, err := security.GetUserRoleFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}

		ctx := WithUser(r.Context(), userID, userRole)
		l := logging.Ctx(ctx).With().Int64("user_id", userID).Logger()
		ctx = logging.ContextWithLogger(ctx, l)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := GetUserRoleFromContext(r.Context())
		if !ok || role != model.RoleAdmin {
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithUser is what Authenticator stores; handler tests use it directly.
func WithUser(ctx context.Context, userID int64, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDCtxKey, userID)
	return context.WithValue(ctx, UserRoleCtxKey, role)
}

func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(int64)
	return userID, ok
}

func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	userRole, ok := ctx.Value(UserRoleCtxKey).(string)
	return userRole, ok
}

// UserKey keys rate limits by the authenticated user, falling back to the
// client IP. It is meant for httprate.WithKeyFuncs behind Authenticator.
func UserKey(r *http.Request) (string, error) {
	if id, ok := GetUserIDFromContext(r.Context()); ok {
		return "user:" + strconv.FormatInt(id, 10), nil
	}
	return httprate.KeyByIP(r)
}
