package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the local account. Credentials live with the external auth service;
// this table only carries the profile fields the marketplace displays.
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Email       string    `json:"email" gorm:"unique;not null"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	Bio         string    `json:"bio"`
	LinkedInURL string    `json:"linkedin_url"`
	Role        string    `json:"role" gorm:"default:user"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	LinkedAccounts []LinkedAccount `json:"-" gorm:"foreignKey:UserID"`
}
