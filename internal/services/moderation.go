package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/princeprakhar/marketplace-backend/internal/events"
	"github.com/princeprakhar/marketplace-backend/internal/models"
	"github.com/princeprakhar/marketplace-backend/internal/scoring"
	"github.com/princeprakhar/marketplace-backend/pkg/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ModerationService scores stored reviews and applies the automatic moderation policy.
type ModerationService struct {
	db        *gorm.DB
	engine    *scoring.Engine
	mailer    ReviewMailer
	publisher events.Publisher
}

// NewModerationService wires the scoring engine to storage. mailer may be nil.
func NewModerationService(db *gorm.DB, engine *scoring.Engine, mailer ReviewMailer, publisher events.Publisher) *ModerationService {
	return &ModerationService{db: db, engine: engine, mailer: mailer, publisher: publisher}
}

func (s *ModerationService) loadReview(ctx context.Context, reviewID uint) (*models.Review, error) {
	var review models.Review
	if err := s.db.WithContext(ctx).Preload("Author").Preload("Product").First(&review, reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Review")
		}
		return nil, fmt.Errorf("failed to fetch review: %w", err)
	}
	return &review, nil
}

func scoreInput(r *models.Review) scoring.Input {
	return scoring.Input{
		Content: r.Content,
		Title:   r.Title,
		Pros:    r.Pros,
		Cons:    r.Cons,
		Rating:  r.Rating,
	}
}

// RunVerification re-scores the review's current text and persists the status when the
// policy decides to approve or reject. Manual review leaves the status untouched.
func (s *ModerationService) RunVerification(ctx context.Context, reviewID uint) (*ModerationResult, error) {
	review, err := s.loadReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	result := s.engine.Score(scoreInput(review))
	decision := s.engine.Decide(result)

	previous := review.Status
	current := previous
	switch decision {
	case scoring.DecisionApprove:
		current = models.ReviewApproved
	case scoring.DecisionReject:
		current = models.ReviewRejected
	}

	if current != previous {
		// Guard on the status we read so a concurrent moderator decision is not overwritten.
		tx := s.db.WithContext(ctx).Model(&models.Review{}).
			Where("id = ? AND status = ?", review.ID, previous).
			Update("status", current)
		if tx.Error != nil {
			return nil, fmt.Errorf("failed to update review status: %w", tx.Error)
		}
		if tx.RowsAffected == 0 {
			logger.WithFields(logrus.Fields{"review_id": review.ID}).
				Warn("review status changed during verification, keeping the newer status")
			current = previous
		} else {
			review.Status = current
			s.notifyAuthor(review, decision)
		}
	}

	logger.WithFields(logrus.Fields{
		"review_id":  review.ID,
		"confidence": result.ConfidenceScore,
		"decision":   decision,
		"status":     current,
	}).Info("review verification completed")

	publish(ctx, s.publisher, events.ReviewModerated, reviewKey(review.ID), map[string]any{
		"review_id":  review.ID,
		"previous":   previous,
		"current":    current,
		"decision":   decision,
		"confidence": result.ConfidenceScore,
	})

	return &ModerationResult{
		ReviewID:     review.ID,
		Verification: result,
		Status: StatusChange{
			Previous: previous,
			Current:  current,
			Reason:   decision.Reason(),
		},
	}, nil
}

// PreviewVerification scores the review and reports what the policy would do, without writing.
func (s *ModerationService) PreviewVerification(ctx context.Context, reviewID uint) (*ModerationPreview, error) {
	review, err := s.loadReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	result := s.engine.Score(scoreInput(review))
	return &ModerationPreview{
		ReviewID:       review.ID,
		CurrentStatus:  review.Status,
		Verification:   result,
		Recommendation: s.engine.Decide(result),
	}, nil
}

func (s *ModerationService) notifyAuthor(review *models.Review, decision scoring.Decision) {
	if s.mailer == nil || review.Author.Email == "" {
		return
	}

	to, name, product := review.Author.Email, review.Author.Name, review.Product.Name
	status, reason := review.Status, decision.Reason()
	go func() {
		if err := s.mailer.SendReviewDecisionEmail(to, name, product, status, reason); err != nil {
			logger.WithFields(logrus.Fields{"review_id": review.ID}).
				Warn("failed to send review decision email: ", err)
		}
	}()
}
