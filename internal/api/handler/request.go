package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"leetmentor/internal/api/middleware"
	"leetmentor/internal/common"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeRequest reads the JSON body into v and runs struct validation.
// With allowEmpty an empty body leaves v at its zero value.
func decodeRequest(r *http.Request, v interface{}, allowEmpty bool) error {
	if err := common.DecodeJSON(r, v); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return fmt.Errorf("invalid request payload: %w", common.ErrBadRequest)
		}
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%s: %w", describeValidation(err), common.ErrValidation)
	}
	return nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("field '%s' failed on '%s'", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

// requireUser writes a 401 and returns false when the context has no user.
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return 0, false
	}
	return userID, true
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, key string, fallback int64) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("query parameter %q must be an integer: %w", key, common.ErrValidation)
	}
	return v, nil
}
