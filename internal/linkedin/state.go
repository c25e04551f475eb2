package linkedin

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidState = errors.New("invalid or expired state parameter")

// StateClaims is carried through the provider round trip in the OAuth state parameter.
type StateClaims struct {
	UserID   uint  `json:"user_id"`
	ReviewID *uint `json:"review_id,omitempty"`
	// IssuedAtMs is the issue time in milliseconds; iat only has whole seconds.
	IssuedAtMs int64 `json:"iat_ms"`
	jwt.RegisteredClaims
}

// Nonce is the random per-authorization identifier.
func (c *StateClaims) Nonce() string {
	return c.ID
}

// IssuedAtTime is the issue time with millisecond precision.
func (c *StateClaims) IssuedAtTime() time.Time {
	return time.UnixMilli(c.IssuedAtMs)
}

// StateCodec signs and verifies state tokens with HMAC-SHA256.
type StateCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewStateCodec(secret string, ttl time.Duration) *StateCodec {
	return &StateCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock returns a copy of the codec that reads time from now.
func (c *StateCodec) WithClock(now func() time.Time) *StateCodec {
	cp := *c
	cp.now = now
	return &cp
}

func (c *StateCodec) TTL() time.Duration {
	return c.ttl
}

// Issue creates a state token for userID, optionally bound to a review.
func (c *StateCodec) Issue(userID uint, reviewID *uint) (string, *StateClaims, error) {
	issuedAt := c.now()
	claims := &StateClaims{
		UserID:     userID,
		ReviewID:   reviewID,
		IssuedAtMs: issuedAt.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(issuedAt),
			// exp is whole seconds; round up so it never lands inside the window.
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(c.ttl).Truncate(time.Second).Add(time.Second)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", nil, fmt.Errorf("signing state: %w", err)
	}
	return token, claims, nil
}

// Parse verifies the signature and age of a state token. Every failure wraps ErrInvalidState.
func (c *StateCodec) Parse(state string) (*StateClaims, error) {
	claims := &StateClaims{}
	token, err := jwt.ParseWithClaims(state, claims, func(token *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if !token.Valid || claims.UserID == 0 || claims.ID == "" || claims.IssuedAtMs <= 0 {
		return nil, ErrInvalidState
	}
	// The window is checked against the issue time too, so lowering the TTL also applies
	// to tokens already issued.
	age := c.now().Sub(claims.IssuedAtTime())
	if age < -time.Second || age > c.ttl {
		return nil, fmt.Errorf("%w: issued %s ago", ErrInvalidState, age.Round(time.Millisecond))
	}
	return claims, nil
}
