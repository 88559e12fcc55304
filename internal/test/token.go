package test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SignToken returns an HS256 bearer token for userID signed with secret that
// expires after ttl. A negative ttl yields an already expired token.
func SignToken(t *testing.T, secret, userID string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("an error '%s' was not expected when signing a token", err)
	}
	return token
}
