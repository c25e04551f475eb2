package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/princeprakhar/marketplace-backend/internal/events"
	"github.com/princeprakhar/marketplace-backend/internal/models"
	"gorm.io/gorm"
)

const (
	UpvoteAdded   = "added"
	UpvoteRemoved = "removed"
)

// ToggleUpvote adds the user's upvote when absent and removes it when present.
func (s *LaunchService) ToggleUpvote(ctx context.Context, launchID, userID uint) (*UpvoteResult, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	if _, err := findLaunch(tx, launchID); err != nil {
		tx.Rollback()
		return nil, err
	}

	removed := tx.Where("launch_id = ? AND user_id = ?", launchID, userID).Delete(&models.Upvote{})
	if removed.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to remove upvote: %w", removed.Error)
	}

	action, delta := UpvoteRemoved, -1
	if removed.RowsAffected == 0 {
		action, delta = UpvoteAdded, 1
		if err := tx.Create(&models.Upvote{LaunchID: launchID, UserID: userID}).Error; err != nil {
			tx.Rollback()
			// A concurrent toggle by the same user inserted first.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				state, err := s.currentState(ctx, launchID, userID)
				if err == nil && state.Upvoted {
					state.Action = UpvoteAdded
				}
				return state, err
			}
			return nil, fmt.Errorf("failed to add upvote: %w", err)
		}
	}

	if err := adjustCounter(tx, "upvote_count", launchID, delta); err != nil {
		tx.Rollback()
		return nil, err
	}

	launch, err := findLaunch(tx, launchID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	publish(ctx, s.publisher, events.LaunchUpvoteToggled, launchKey(launchID), map[string]any{
		"launch_id":    launchID,
		"user_id":      userID,
		"action":       action,
		"upvote_count": launch.UpvoteCount,
	})

	return &UpvoteResult{
		Upvoted:     action == UpvoteAdded,
		Action:      action,
		UpvoteCount: launch.UpvoteCount,
	}, nil
}

// RemoveUpvote deletes the user's upvote. It is a NotFoundError when there is none.
func (s *LaunchService) RemoveUpvote(ctx context.Context, launchID, userID uint) (*UpvoteResult, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	if _, err := findLaunch(tx, launchID); err != nil {
		tx.Rollback()
		return nil, err
	}

	removed := tx.Where("launch_id = ? AND user_id = ?", launchID, userID).Delete(&models.Upvote{})
	if removed.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to remove upvote: %w", removed.Error)
	}
	if removed.RowsAffected == 0 {
		tx.Rollback()
		return nil, notFound("Upvote")
	}

	if err := adjustCounter(tx, "upvote_count", launchID, -1); err != nil {
		tx.Rollback()
		return nil, err
	}

	launch, err := findLaunch(tx, launchID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	publish(ctx, s.publisher, events.LaunchUpvoteToggled, launchKey(launchID), map[string]any{
		"launch_id":    launchID,
		"user_id":      userID,
		"action":       UpvoteRemoved,
		"upvote_count": launch.UpvoteCount,
	})

	return &UpvoteResult{Upvoted: false, Action: UpvoteRemoved, UpvoteCount: launch.UpvoteCount}, nil
}

// HasUpvoted reports whether the user currently upvotes the launch.
func (s *LaunchService) HasUpvoted(ctx context.Context, launchID, userID uint) (*UpvoteResult, error) {
	return s.currentState(ctx, launchID, userID)
}

func (s *LaunchService) currentState(ctx context.Context, launchID, userID uint) (*UpvoteResult, error) {
	db := s.db.WithContext(ctx)
	launch, err := findLaunch(db, launchID)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := db.Model(&models.Upvote{}).
		Where("launch_id = ? AND user_id = ?", launchID, userID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check upvote: %w", err)
	}

	return &UpvoteResult{Upvoted: count > 0, UpvoteCount: launch.UpvoteCount}, nil
}
