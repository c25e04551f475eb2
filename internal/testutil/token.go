package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/princeprakhar/marketplace-backend/internal/utils"
)

// AccessToken signs a session token shaped like the ones the external auth service issues.
func AccessToken(t *testing.T, userID uint, email, role, secret string) string {
	t.Helper()
	now := time.Now()
	claims := &utils.Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Type:   utils.AccessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   email,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign access token: %v", err)
	}
	return token
}
