package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/marketplace-backend/internal/services"
	"github.com/princeprakhar/marketplace-backend/internal/utils"
)

type LinkedInHandler struct {
	linkedInService *services.LinkedInService
}

func NewLinkedInHandler(linkedInService *services.LinkedInService) *LinkedInHandler {
	return &LinkedInHandler{linkedInService: linkedInService}
}

type initiateRequest struct {
	ReviewID *uint `json:"review_id"`
}

// InitiateGet starts the OAuth flow; the review id comes from the query string.
func (h *LinkedInHandler) InitiateGet(c *gin.Context) {
	raw := c.Query("review_id")
	if raw == "" {
		raw = c.Query("reviewId")
	}

	var reviewID *uint
	if raw != "" {
		id, ok := utils.ParseID(raw)
		if !ok {
			utils.SendValidationError(c, "Invalid review ID", utils.FieldError{Field: "review_id", Message: "must be a positive integer"})
			return
		}
		reviewID = &id
	}
	h.initiate(c, reviewID)
}

// InitiatePost starts the OAuth flow for clients that prefer a JSON body.
func (h *LinkedInHandler) InitiatePost(c *gin.Context) {
	var req initiateRequest
	// An empty body is allowed: the review id is optional.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.SendValidationError(c, "Invalid request data", bindingDetails(err)...)
		return
	}
	if req.ReviewID != nil && *req.ReviewID == 0 {
		utils.SendValidationError(c, "Invalid review ID", utils.FieldError{Field: "review_id", Message: "must be a positive integer"})
		return
	}
	h.initiate(c, req.ReviewID)
}

func (h *LinkedInHandler) initiate(c *gin.Context, reviewID *uint) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	auth, err := h.linkedInService.Initiate(c.Request.Context(), userID, reviewID)
	if err != nil {
		respondError(c, err, "Failed to initiate LinkedIn authentication")
		return
	}

	utils.SendSuccess(c, "Redirect user to this URL to begin LinkedIn verification", auth)
}

// Callback is LinkedIn's redirect target. It always answers with a redirect to the frontend.
func (h *LinkedInHandler) Callback(c *gin.Context) {
	var params services.CallbackParams
	_ = c.ShouldBindQuery(&params)

	c.Redirect(http.StatusFound, h.linkedInService.HandleCallback(c.Request.Context(), params))
}

// VerificationStatus resolves the current user's LinkedIn link.
func (h *LinkedInHandler) VerificationStatus(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	status, err := h.linkedInService.CheckVerification(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to check LinkedIn verification")
		return
	}

	utils.SendSuccess(c, "Verification status retrieved", status)
}

// VerifyReview verifies a review through its author's LinkedIn link.
func (h *LinkedInHandler) VerifyReview(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	reviewID, ok := pathID(c, "review_id", "review")
	if !ok {
		return
	}

	result, err := h.linkedInService.VerifyReviewIdentity(c.Request.Context(), reviewID, userID)
	if err != nil {
		respondError(c, err, "Failed to verify review")
		return
	}

	utils.SendSuccess(c, result.Message, result)
}

func (h *LinkedInHandler) ReviewVerificationStatus(c *gin.Context) {
	reviewID, ok := pathID(c, "review_id", "review")
	if !ok {
		return
	}

	result, err := h.linkedInService.ReviewIdentityStatus(c.Request.Context(), reviewID)
	if err != nil {
		respondError(c, err, "Failed to fetch review verification")
		return
	}

	utils.SendSuccess(c, "Review verification status retrieved", result)
}
