package models

import "time"

const ProviderLinkedIn = "linkedin"

// LinkedAccount ties a local user to an external identity. One external identity
// (provider, provider_account_id) belongs to at most one local user, and a user
// has at most one account per provider.
type LinkedAccount struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	UserID            uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_account_user_provider"`
	Type              string    `json:"type" gorm:"not null;default:oauth"`
	Provider          string    `json:"provider" gorm:"not null;uniqueIndex:idx_account_user_provider;uniqueIndex:idx_account_provider_identity"`
	ProviderAccountID string    `json:"provider_account_id" gorm:"not null;uniqueIndex:idx_account_provider_identity"`
	AccessToken       string    `json:"-" gorm:"type:text"`
	RefreshToken      string    `json:"-" gorm:"type:text"`
	ExpiresAt         int64     `json:"expires_at"` // unix seconds, 0 when the provider sent no expiry
	TokenType         string    `json:"token_type"`
	Scope             string    `json:"scope"`
	IDToken           string    `json:"-" gorm:"type:text"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Expired reports whether the stored access token is past its expiry.
func (a *LinkedAccount) Expired(now time.Time) bool {
	return a.ExpiresAt > 0 && a.ExpiresAt < now.Unix()
}
