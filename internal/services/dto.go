package services

import (
	"time"

	"github.com/princeprakhar/marketplace-backend/internal/models"
	"github.com/princeprakhar/marketplace-backend/internal/scoring"
)

type AuthorDTO struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
}

type ReviewDTO struct {
	ID           uint                `json:"id"`
	ProductID    uint                `json:"product_id"`
	Rating       int                 `json:"rating"`
	Title        string              `json:"title,omitempty"`
	Content      string              `json:"content"`
	Pros         string              `json:"pros,omitempty"`
	Cons         string              `json:"cons,omitempty"`
	VideoURL     string              `json:"video_url,omitempty"`
	Status       models.ReviewStatus `json:"status"`
	Verified     bool                `json:"verified"`
	VerifiedAt   *time.Time          `json:"verified_at,omitempty"`
	HelpfulCount int                 `json:"helpful_count"`
	Author       *AuthorDTO          `json:"author,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

func newAuthorDTO(u models.User) *AuthorDTO {
	if u.ID == 0 {
		return nil
	}
	return &AuthorDTO{ID: u.ID, Name: u.Name, Image: u.Image, LinkedInURL: u.LinkedInURL}
}

func newReviewDTO(r *models.Review) ReviewDTO {
	return ReviewDTO{
		ID:           r.ID,
		ProductID:    r.ProductID,
		Rating:       r.Rating,
		Title:        r.Title,
		Content:      r.Content,
		Pros:         r.Pros,
		Cons:         r.Cons,
		VideoURL:     r.VideoURL,
		Status:       r.Status,
		Verified:     r.Verified,
		VerifiedAt:   r.VerifiedAt,
		HelpfulCount: r.HelpfulCount,
		Author:       newAuthorDTO(r.Author),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// ReviewListMeta describes a page of approved reviews and the product's rating summary.
type ReviewListMeta struct {
	Page          int              `json:"page"`
	Limit         int              `json:"limit"`
	Total         int64            `json:"total"`
	HasMore       bool             `json:"has_more"`
	AverageRating float64          `json:"average_rating"`
	Distribution  map[string]int64 `json:"distribution"`
}

type StatusChange struct {
	Previous models.ReviewStatus `json:"previous"`
	Current  models.ReviewStatus `json:"current"`
	Reason   string              `json:"reason"`
}

// ModerationResult is returned after running the scoring engine against a stored review.
type ModerationResult struct {
	ReviewID     uint           `json:"review_id"`
	Verification scoring.Result `json:"verification"`
	Status       StatusChange   `json:"status"`
}

type ModerationPreview struct {
	ReviewID       uint                `json:"review_id"`
	CurrentStatus  models.ReviewStatus `json:"current_status"`
	Verification   scoring.Result      `json:"verification"`
	Recommendation scoring.Decision    `json:"recommendation"`
}

// VerificationStatus is the resolved state of a user's LinkedIn link.
type VerificationStatus struct {
	Verified     bool       `json:"verified"`
	LinkedInID   string     `json:"linkedin_id,omitempty"`
	ProfileName  string     `json:"profile_name,omitempty"`
	ProfileImage string     `json:"profile_image,omitempty"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`
	Error        string     `json:"error,omitempty"`
}

type AuthorizationDTO struct {
	AuthorizationURL string    `json:"authorization_url"`
	ExpiresAt        time.Time `json:"expires_at"`
}

type LinkedInProfileDTO struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

const (
	ReviewIdentityAlreadyVerified = "already_verified"
	ReviewIdentityVerified        = "verified"
	ReviewIdentityRequired        = "verification_required"
)

// ReviewIdentityResult answers a request to verify a review through its author's LinkedIn link.
type ReviewIdentityResult struct {
	ReviewID         uint                `json:"review_id"`
	Status           string              `json:"status,omitempty"`
	Verified         bool                `json:"verified"`
	VerifiedAt       *time.Time          `json:"verified_at,omitempty"`
	LinkedInProfile  *LinkedInProfileDTO `json:"linkedin_profile,omitempty"`
	AuthorizationURL string              `json:"authorization_url,omitempty"`
	Reason           string              `json:"reason,omitempty"`
	Message          string              `json:"message,omitempty"`
}

type UpvoteResult struct {
	Upvoted     bool   `json:"upvoted"`
	Action      string `json:"action,omitempty"`
	UpvoteCount int    `json:"upvote_count"`
}

// CommentNode is one comment with its replies, as returned by BuildCommentTree.
type CommentNode struct {
	ID        uint           `json:"id"`
	LaunchID  uint           `json:"launch_id"`
	ParentID  *uint          `json:"parent_id"`
	Content   string         `json:"content"`
	Author    *AuthorDTO     `json:"author,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Replies   []*CommentNode `json:"replies"`
}

func newCommentNode(c *models.Comment) *CommentNode {
	return &CommentNode{
		ID:        c.ID,
		LaunchID:  c.LaunchID,
		ParentID:  c.ParentID,
		Content:   c.Content,
		Author:    newAuthorDTO(c.User),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Replies:   []*CommentNode{},
	}
}
