package utils

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the session token issued by the identity service in front of the marketplace:
// HS256, signed with JWT_SECRET, type "access", carrying a user id and email.
type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

const AccessTokenType = "access"

// Validate token and return claims. Only access tokens are accepted.
func ValidateToken(tokenString, jwtSecret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Type != "" && claims.Type != AccessTokenType {
		return nil, errors.New("not an access token")
	}
	if claims.UserID == 0 {
		return nil, errors.New("token has no user")
	}
	if claims.Email == "" {
		return nil, errors.New("token has no email")
	}

	return claims, nil
}
