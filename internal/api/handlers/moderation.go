package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/marketplace-backend/internal/services"
	"github.com/princeprakhar/marketplace-backend/internal/utils"
)

// ModerationHandler exposes the scoring engine to admins.
type ModerationHandler struct {
	moderationService *services.ModerationService
}

func NewModerationHandler(moderationService *services.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderationService: moderationService}
}

// RunVerification scores the review and applies the automatic decision.
func (h *ModerationHandler) RunVerification(c *gin.Context) {
	reviewID, ok := pathID(c, "review_id", "review")
	if !ok {
		return
	}

	result, err := h.moderationService.RunVerification(c.Request.Context(), reviewID)
	if err != nil {
		respondError(c, err, "Failed to verify review")
		return
	}

	utils.SendSuccess(c, "Verification check completed", result)
}

// PreviewVerification reports what the moderation policy would do without applying it.
func (h *ModerationHandler) PreviewVerification(c *gin.Context) {
	reviewID, ok := pathID(c, "review_id", "review")
	if !ok {
		return
	}

	preview, err := h.moderationService.PreviewVerification(c.Request.Context(), reviewID)
	if err != nil {
		respondError(c, err, "Failed to preview verification")
		return
	}

	utils.SendSuccess(c, "Verification preview generated", preview)
}
