package models

import (
	"time"
)

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "PENDING"
	ReviewApproved ReviewStatus = "APPROVED"
	ReviewRejected ReviewStatus = "REJECTED"
)

// Review is unique per (product, author).
type Review struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	ProductID    uint         `json:"product_id" gorm:"not null;uniqueIndex:idx_review_product_author;index:idx_review_product_status"`
	AuthorID     uint         `json:"author_id" gorm:"not null;uniqueIndex:idx_review_product_author;index"`
	Rating       int          `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Title        string       `json:"title"`
	Content      string       `json:"content" gorm:"type:text;not null"`
	Pros         string       `json:"pros" gorm:"type:text"`
	Cons         string       `json:"cons" gorm:"type:text"`
	VideoURL     string       `json:"video_url"`
	Status       ReviewStatus `json:"status" gorm:"type:varchar(16);not null;default:PENDING;index:idx_review_product_status"`
	Verified     bool         `json:"verified" gorm:"default:false;index"`
	VerifiedAt   *time.Time   `json:"verified_at,omitempty"`
	HelpfulCount int          `json:"helpful_count" gorm:"not null;default:0"`
	CreatedAt    time.Time    `json:"created_at" gorm:"index"`
	UpdatedAt    time.Time    `json:"updated_at"`

	// Relations
	Author  User    `json:"-" gorm:"foreignKey:AuthorID"`
	Product Product `json:"-" gorm:"foreignKey:ProductID"`
}
