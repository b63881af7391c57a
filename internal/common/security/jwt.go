package security

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	auth *jwtauth.JWTAuth
	exp  time.Duration
	now  func() time.Time
}

func NewTokenIssuer(secret []byte, exp time.Duration) *TokenIssuer {
	return &TokenIssuer{
		auth: jwtauth.New("HS256", secret, nil),
		exp:  exp,
		now:  time.Now,
	}
}

// JWTAuth exposes the verifier used by jwtauth.Verifier in the router.
func (t *TokenIssuer) JWTAuth() *jwtauth.JWTAuth {
	return t.auth
}

func (t *TokenIssuer) GenerateToken(userID int64, role string) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"user_id": strconv.FormatInt(userID, 10),
		"role":    role,
		"exp":     now.Add(t.exp).Unix(),
		"iat":     now.Unix(),
	}
	_, tokenString, err := t.auth.Encode(claims)
	return tokenString, err
}

// Helper functions to extract claims, used by the auth middleware
func GetUserIDFromClaims(claims jwt.MapClaims) (int64, error) {
	raw, ok := claims["user_id"].(string)
	if !ok {
		return 0, errors.New("user_id claim is missing or not a string")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("user_id claim is not a positive integer")
	}
	return id, nil
}

func GetUserRoleFromClaims(claims jwt.MapClaims) (string, error) {
	role, ok := claims["role"].(string)
	if !ok {
		return "", errors.New("role claim is missing or not a string")
	}
	return role, nil
}
