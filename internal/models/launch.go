package models

import "time"

type LaunchStatus string

const (
	LaunchDraft     LaunchStatus = "DRAFT"
	LaunchScheduled LaunchStatus = "SCHEDULED"
	LaunchLive      LaunchStatus = "LIVE"
	LaunchCompleted LaunchStatus = "COMPLETED"
	LaunchCancelled LaunchStatus = "CANCELLED"
)

type Launch struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	ProductID    uint         `json:"product_id" gorm:"not null;index"`
	MakerID      uint         `json:"maker_id" gorm:"index"`
	Title        string       `json:"title" gorm:"not null"`
	Tagline      string       `json:"tagline" gorm:"not null"`
	Description  string       `json:"description" gorm:"type:text"`
	Status       LaunchStatus `json:"status" gorm:"type:varchar(16);default:DRAFT;index"`
	Featured     bool         `json:"featured" gorm:"default:false;index"`
	UpvoteCount  int          `json:"upvote_count" gorm:"not null;default:0"`
	CommentCount int          `json:"comment_count" gorm:"not null;default:0"`
	ViewCount    int          `json:"view_count" gorm:"not null;default:0"`
	LaunchedAt   *time.Time   `json:"launched_at,omitempty" gorm:"index"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// Valid reports whether s is one of the known launch states.
func (s LaunchStatus) Valid() bool {
	switch s {
	case LaunchDraft, LaunchScheduled, LaunchLive, LaunchCompleted, LaunchCancelled:
		return true
	}
	return false
}

// Comment threads under a launch; ParentID points at another comment of the same launch.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	LaunchID  uint      `json:"launch_id" gorm:"not null;index"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	ParentID  *uint     `json:"parent_id" gorm:"index"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

// Upvote is unique per (launch, user).
type Upvote struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	LaunchID  uint      `json:"launch_id" gorm:"not null;uniqueIndex:idx_upvote_launch_user"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_upvote_launch_user;index"`
	CreatedAt time.Time `json:"created_at"`
}
