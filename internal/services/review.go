package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/princeprakhar/marketplace-backend/internal/events"
	"github.com/princeprakhar/marketplace-backend/internal/models"
	"github.com/princeprakhar/marketplace-backend/internal/utils"
	"gorm.io/gorm"
)

const (
	DefaultReviewPageSize  = 20
	MaxReviewPageSize      = 50
	MinReviewContentLength = 10
)

var reviewSortOrders = map[string]string{
	"recent":      "created_at DESC",
	"helpful":     "helpful_count DESC, created_at DESC",
	"rating_high": "rating DESC, created_at DESC",
	"rating_low":  "rating ASC, created_at DESC",
}

type ReviewService struct {
	db        *gorm.DB
	publisher events.Publisher
}

func NewReviewService(db *gorm.DB, publisher events.Publisher) *ReviewService {
	return &ReviewService{db: db, publisher: publisher}
}

type ReviewFilter struct {
	VerifiedOnly bool
	Rating       int
	Sort         string
	Page         int
	Limit        int
}

func (f *ReviewFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultReviewPageSize
	}
	if f.Limit > MaxReviewPageSize {
		f.Limit = MaxReviewPageSize
	}
	if _, ok := reviewSortOrders[f.Sort]; !ok {
		f.Sort = "recent"
	}
	// Out of range ratings are ignored rather than rejected.
	if !utils.IsValidRating(f.Rating) {
		f.Rating = 0
	}
}

type SubmitReviewRequest struct {
	Rating   int    `json:"rating"`
	Title    string `json:"title" binding:"max=200"`
	Content  string `json:"content"`
	Pros     string `json:"pros" binding:"max=2000"`
	Cons     string `json:"cons" binding:"max=2000"`
	VideoURL string `json:"video_url" binding:"omitempty,url"`
}

// UpdateReviewRequest only touches the fields that are present.
type UpdateReviewRequest struct {
	Rating   *int    `json:"rating"`
	Title    *string `json:"title" binding:"omitempty,max=200"`
	Content  *string `json:"content"`
	Pros     *string `json:"pros" binding:"omitempty,max=2000"`
	Cons     *string `json:"cons" binding:"omitempty,max=2000"`
	VideoURL *string `json:"video_url" binding:"omitempty,url"`
}

func (s *ReviewService) productBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Product")
		}
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}
	return &product, nil
}

func (s *ReviewService) reviewForProduct(ctx context.Context, productID, reviewID uint) (*models.Review, error) {
	var review models.Review
	if err := s.db.WithContext(ctx).Preload("Author").
		Where("id = ? AND product_id = ?", reviewID, productID).
		First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Review")
		}
		return nil, fmt.Errorf("failed to fetch review: %w", err)
	}
	return &review, nil
}

// ListProductReviews returns one page of approved reviews plus the product's rating summary.
func (s *ReviewService) ListProductReviews(ctx context.Context, slug string, filter ReviewFilter) ([]ReviewDTO, *ReviewListMeta, error) {
	filter.normalize()

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	product, err := s.productBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.Review{}).
		Where("product_id = ? AND status = ?", product.ID, models.ReviewApproved)
	if filter.VerifiedOnly {
		query = query.Where("verified = ?", true)
	}
	if filter.Rating != 0 {
		query = query.Where("rating = ?", filter.Rating)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	var reviews []models.Review
	if err := query.Preload("Author").
		Order(reviewSortOrders[filter.Sort]).
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&reviews).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to fetch reviews: %w", err)
	}

	average, distribution, err := s.ratingSummary(ctx, product.ID)
	if err != nil {
		return nil, nil, err
	}

	out := make([]ReviewDTO, 0, len(reviews))
	for i := range reviews {
		out = append(out, newReviewDTO(&reviews[i]))
	}

	return out, &ReviewListMeta{
		Page:          filter.Page,
		Limit:         filter.Limit,
		Total:         total,
		HasMore:       int64(filter.Page*filter.Limit) < total,
		AverageRating: average,
		Distribution:  distribution,
	}, nil
}

// ratingSummary covers every approved review of the product, independent of list filters.
func (s *ReviewService) ratingSummary(ctx context.Context, productID uint) (float64, map[string]int64, error) {
	var rows []struct {
		Rating int
		Count  int64
	}
	if err := s.db.WithContext(ctx).Model(&models.Review{}).
		Select("rating, COUNT(*) AS count").
		Where("product_id = ? AND status = ?", productID, models.ReviewApproved).
		Group("rating").
		Scan(&rows).Error; err != nil {
		return 0, nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}

	distribution := map[string]int64{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0}
	var count, sum int64
	for _, row := range rows {
		distribution[strconv.Itoa(row.Rating)] = row.Count
		count += row.Count
		sum += int64(row.Rating) * row.Count
	}

	if count == 0 {
		return 0, distribution, nil
	}
	return math.Round(float64(sum)/float64(count)*10) / 10, distribution, nil
}

func (s *ReviewService) GetReview(ctx context.Context, slug string, reviewID uint) (*ReviewDTO, error) {
	product, err := s.productBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	review, err := s.reviewForProduct(ctx, product.ID, reviewID)
	if err != nil {
		return nil, err
	}
	dto := newReviewDTO(review)
	return &dto, nil
}

// SubmitReview creates a PENDING, unverified review authored by authorID.
func (s *ReviewService) SubmitReview(ctx context.Context, slug string, authorID uint, req SubmitReviewRequest) (*ReviewDTO, error) {
	product, err := s.productBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	var details []utils.FieldError
	if !utils.IsValidRating(req.Rating) {
		details = append(details, utils.FieldError{Field: "rating", Message: "Rating must be between 1 and 5"})
	}
	if !utils.HasMinLength(req.Content, MinReviewContentLength) {
		details = append(details, utils.FieldError{Field: "content", Message: "Review content must be at least 10 characters"})
	}
	if len(details) > 0 {
		return nil, &ValidationError{Details: details}
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.Review{}).
		Where("product_id = ? AND author_id = ?", product.ID, authorID).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if existing > 0 {
		return nil, errAlreadyReviewed()
	}

	review := models.Review{
		ProductID: product.ID,
		AuthorID:  authorID,
		Rating:    req.Rating,
		Title:     utils.SanitizeString(req.Title),
		Content:   utils.SanitizeString(req.Content),
		Pros:      utils.SanitizeString(req.Pros),
		Cons:      utils.SanitizeString(req.Cons),
		VideoURL:  utils.SanitizeString(req.VideoURL),
		Status:    models.ReviewPending,
	}
	if err := s.db.WithContext(ctx).Create(&review).Error; err != nil {
		// Lost a race with a concurrent submission from the same author.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errAlreadyReviewed()
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	stored, err := s.reviewForProduct(ctx, product.ID, review.ID)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.publisher, events.ReviewSubmitted, reviewKey(stored.ID), map[string]any{
		"review_id":  stored.ID,
		"product_id": product.ID,
		"author_id":  authorID,
		"rating":     stored.Rating,
	})

	dto := newReviewDTO(stored)
	return &dto, nil
}

// UpdateReview edits a review owned by actorID. Changing the rating or content sends it back to PENDING.
func (s *ReviewService) UpdateReview(ctx context.Context, slug string, reviewID, actorID uint, req UpdateReviewRequest) (*ReviewDTO, error) {
	product, err := s.productBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	review, err := s.reviewForProduct(ctx, product.ID, reviewID)
	if err != nil {
		return nil, err
	}
	if review.AuthorID != actorID {
		return nil, ErrForbidden
	}

	var details []utils.FieldError
	if req.Rating != nil && !utils.IsValidRating(*req.Rating) {
		details = append(details, utils.FieldError{Field: "rating", Message: "Rating must be between 1 and 5"})
	}
	if req.Content != nil && !utils.HasMinLength(*req.Content, MinReviewContentLength) {
		details = append(details, utils.FieldError{Field: "content", Message: "Review content must be at least 10 characters"})
	}
	if len(details) > 0 {
		return nil, &ValidationError{Details: details}
	}

	updates := map[string]interface{}{}
	resubmit := false
	if req.Rating != nil {
		updates["rating"] = *req.Rating
		resubmit = resubmit || *req.Rating != review.Rating
	}
	if req.Content != nil {
		content := utils.SanitizeString(*req.Content)
		updates["content"] = content
		resubmit = resubmit || content != review.Content
	}
	if req.Title != nil {
		updates["title"] = utils.SanitizeString(*req.Title)
	}
	if req.Pros != nil {
		updates["pros"] = utils.SanitizeString(*req.Pros)
	}
	if req.Cons != nil {
		updates["cons"] = utils.SanitizeString(*req.Cons)
	}
	if req.VideoURL != nil {
		updates["video_url"] = utils.SanitizeString(*req.VideoURL)
	}
	if resubmit {
		updates["status"] = models.ReviewPending
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Review{}).
			Where("id = ?", review.ID).
			Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update review: %w", err)
		}
	}

	updated, err := s.reviewForProduct(ctx, product.ID, review.ID)
	if err != nil {
		return nil, err
	}
	dto := newReviewDTO(updated)
	return &dto, nil
}

// DeleteReview removes a review. Only its author or an admin may do so.
func (s *ReviewService) DeleteReview(ctx context.Context, slug string, reviewID, actorID uint, isAdmin bool) error {
	product, err := s.productBySlug(ctx, slug)
	if err != nil {
		return err
	}
	review, err := s.reviewForProduct(ctx, product.ID, reviewID)
	if err != nil {
		return err
	}
	if review.AuthorID != actorID && !isAdmin {
		return ErrForbidden
	}

	if err := s.db.WithContext(ctx).Delete(&models.Review{}, review.ID).Error; err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

func errAlreadyReviewed() error {
	return invalid("author_id", "You have already reviewed this product")
}

func reviewKey(id uint) string {
	return "review-" + strconv.FormatUint(uint64(id), 10)
}
