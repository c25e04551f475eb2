package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/marketplace-backend/internal/services"
	"github.com/princeprakhar/marketplace-backend/internal/utils"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
}

func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (h *ReviewHandler) GetProductReviews(c *gin.Context) {
	page, limit := utils.ParsePagination(c.Query("page"), c.Query("limit"),
		services.DefaultReviewPageSize, services.MaxReviewPageSize)
	rating, _ := strconv.Atoi(c.Query("rating"))
	verified, _ := strconv.ParseBool(c.Query("verified"))

	filter := services.ReviewFilter{
		VerifiedOnly: verified,
		Rating:       rating,
		Sort:         c.Query("sort"),
		Page:         page,
		Limit:        limit,
	}

	reviews, meta, err := h.reviewService.ListProductReviews(c.Request.Context(), c.Param("slug"), filter)
	if err != nil {
		respondError(c, err, "Failed to fetch reviews")
		return
	}

	utils.SendSuccessWithMeta(c, "Reviews retrieved successfully", reviews, meta)
}

func (h *ReviewHandler) CreateReview(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data", bindingDetails(err)...)
		return
	}

	review, err := h.reviewService.SubmitReview(c.Request.Context(), c.Param("slug"), userID, req)
	if err != nil {
		respondError(c, err, "Failed to create review")
		return
	}

	utils.SendCreated(c, "Review submitted and pending moderation", review)
}

func (h *ReviewHandler) GetReview(c *gin.Context) {
	reviewID, ok := pathID(c, "review_id", "review")
	if !ok {
		return
	}

	review, err := h.reviewService.GetReview(c.Request.Context(), c.Param("slug"), reviewID)
	if err != nil {
		respondError(c, err, "Failed to fetch review")
		return
	}

	utils.SendSuccess(c, "Review retrieved successfully", review)
}

func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	reviewID, ok := pathID(c, "review_id", "review")
	if !ok {
		return
	}

	var req services.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data", bindingDetails(err)...)
		return
	}

	review, err := h.reviewService.UpdateReview(c.Request.Context(), c.Param("slug"), reviewID, userID, req)
	if err != nil {
		respondError(c, err, "Failed to update review")
		return
	}

	utils.SendSuccess(c, "Review updated successfully", review)
}

func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	reviewID, ok := pathID(c, "review_id", "review")
	if !ok {
		return
	}

	if err := h.reviewService.DeleteReview(c.Request.Context(), c.Param("slug"), reviewID, userID, isAdmin(c)); err != nil {
		respondError(c, err, "Failed to delete review")
		return
	}

	utils.SendSuccess(c, "Review deleted successfully", nil)
}
