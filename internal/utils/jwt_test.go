package utils_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/princeprakhar/marketplace-backend/internal/testutil"
	"github.com/princeprakhar/marketplace-backend/internal/utils"
)

func TestValidateToken(t *testing.T) {
	token := testutil.AccessToken(t, 5, "ada@example.com", "admin", "secret")

	claims, err := utils.ValidateToken(token, "secret")
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 5 || claims.Role != "admin" || claims.Email != "ada@example.com" {
		t.Errorf("unexpected claims: %+v", claims)
	}

	if _, err := utils.ValidateToken(token, "other-secret"); err == nil {
		t.Error("expected signature error with the wrong secret")
	}
}

func TestValidateToken_RejectsIncompleteClaims(t *testing.T) {
	sign := func(c *utils.Claims) string {
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Minute))
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("secret"))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return token
	}

	tests := map[string]*utils.Claims{
		"refresh token": {UserID: 5, Email: "ada@example.com", Type: "refresh"},
		"no user":       {Email: "ada@example.com", Type: utils.AccessTokenType},
		"no email":      {UserID: 5, Type: utils.AccessTokenType},
	}
	for name, claims := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := utils.ValidateToken(sign(claims), "secret"); err == nil {
				t.Error("expected the token to be rejected")
			}
		})
	}
}
