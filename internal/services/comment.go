package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/princeprakhar/marketplace-backend/internal/events"
	"github.com/princeprakhar/marketplace-backend/internal/models"
	"github.com/princeprakhar/marketplace-backend/internal/utils"
	"gorm.io/gorm"
)

const MaxCommentLength = 5000

type CommentService struct {
	db        *gorm.DB
	publisher events.Publisher
}

func NewCommentService(db *gorm.DB, publisher events.Publisher) *CommentService {
	return &CommentService{db: db, publisher: publisher}
}

type CreateCommentRequest struct {
	Content  string `json:"content"`
	ParentID *uint  `json:"parent_id"`
}

type UpdateCommentRequest struct {
	Content string `json:"content"`
}

func validateCommentContent(raw string) (string, error) {
	content := utils.SanitizeString(raw)
	if content == "" {
		return "", invalid("content", "Comment content is required")
	}
	if len([]rune(content)) > MaxCommentLength {
		return "", invalid("content", fmt.Sprintf("Comment must be at most %d characters", MaxCommentLength))
	}
	return content, nil
}

// ListComments returns the launch's comments threaded, newest first at every level.
func (s *CommentService) ListComments(ctx context.Context, launchID uint) ([]*CommentNode, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	db := s.db.WithContext(ctx)
	if _, err := findLaunch(db, launchID); err != nil {
		return nil, err
	}

	var comments []models.Comment
	if err := db.Preload("User").
		Where("launch_id = ?", launchID).
		Order("created_at DESC, id DESC").
		Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch comments: %w", err)
	}

	return BuildCommentTree(comments), nil
}

// CreateComment posts a comment, optionally as a reply to another comment of the same launch.
func (s *CommentService) CreateComment(ctx context.Context, launchID, userID uint, req CreateCommentRequest) (*CommentNode, error) {
	content, err := validateCommentContent(req.Content)
	if err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	if _, err := findLaunch(tx, launchID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if req.ParentID != nil {
		var parent models.Comment
		if err := tx.Select("id", "launch_id").First(&parent, *req.ParentID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, invalid("parent_id", "Parent comment not found")
			}
			return nil, fmt.Errorf("failed to fetch parent comment: %w", err)
		}
		if parent.LaunchID != launchID {
			tx.Rollback()
			return nil, invalid("parent_id", "Parent comment belongs to another launch")
		}
	}

	comment := models.Comment{
		LaunchID: launchID,
		UserID:   userID,
		ParentID: req.ParentID,
		Content:  content,
	}
	if err := tx.Create(&comment).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if err := adjustCounter(tx, "comment_count", launchID, 1); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Preload("User").First(&comment, comment.ID).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to reload comment: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	publish(ctx, s.publisher, events.CommentCreated, launchKey(launchID), map[string]any{
		"comment_id": comment.ID,
		"launch_id":  launchID,
		"user_id":    userID,
		"parent_id":  comment.ParentID,
	})

	return newCommentNode(&comment), nil
}

func (s *CommentService) commentInLaunch(db *gorm.DB, launchID, commentID uint) (*models.Comment, error) {
	var comment models.Comment
	if err := db.Where("id = ? AND launch_id = ?", commentID, launchID).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Comment")
		}
		return nil, fmt.Errorf("failed to fetch comment: %w", err)
	}
	return &comment, nil
}

// UpdateComment replaces the content of a comment written by userID.
func (s *CommentService) UpdateComment(ctx context.Context, launchID, commentID, userID uint, req UpdateCommentRequest) (*CommentNode, error) {
	db := s.db.WithContext(ctx)
	comment, err := s.commentInLaunch(db, launchID, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, ErrForbidden
	}

	content, err := validateCommentContent(req.Content)
	if err != nil {
		return nil, err
	}

	if err := db.Model(comment).Update("content", content).Error; err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}
	if err := db.Preload("User").First(comment, comment.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload comment: %w", err)
	}
	return newCommentNode(comment), nil
}

// DeleteComment removes a comment written by userID and every reply beneath it.
// It returns the number of comments removed.
func (s *CommentService) DeleteComment(ctx context.Context, launchID, commentID, userID uint) (int, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	comment, err := s.commentInLaunch(tx, launchID, commentID)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if comment.UserID != userID {
		tx.Rollback()
		return 0, ErrForbidden
	}

	ids, err := collectThread(tx, comment.ID)
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	if err := tx.Where("id IN ?", ids).Delete(&models.Comment{}).Error; err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to delete comments: %w", err)
	}

	if err := adjustCounter(tx, "comment_count", launchID, -len(ids)); err != nil {
		tx.Rollback()
		return 0, err
	}

	if err := tx.Commit().Error; err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	publish(ctx, s.publisher, events.CommentDeleted, launchKey(launchID), map[string]any{
		"comment_id": comment.ID,
		"launch_id":  launchID,
		"user_id":    userID,
		"removed":    len(ids),
	})

	return len(ids), nil
}

// collectThread walks replies level by level and returns rootID plus all descendants.
func collectThread(tx *gorm.DB, rootID uint) ([]uint, error) {
	ids := []uint{rootID}
	seen := map[uint]bool{rootID: true}
	frontier := []uint{rootID}

	for len(frontier) > 0 {
		var children []uint
		if err := tx.Model(&models.Comment{}).
			Where("parent_id IN ?", frontier).
			Pluck("id", &children).Error; err != nil {
			return nil, fmt.Errorf("failed to collect replies: %w", err)
		}

		frontier = frontier[:0]
		for _, id := range children {
			if seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
			frontier = append(frontier, id)
		}
	}
	return ids, nil
}
