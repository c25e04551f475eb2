package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/marketplace-backend/internal/services"
	"github.com/princeprakhar/marketplace-backend/internal/utils"
)

// LaunchHandler serves launches with their upvotes and comment threads.
type LaunchHandler struct {
	launchService  *services.LaunchService
	commentService *services.CommentService
}

func NewLaunchHandler(launchService *services.LaunchService, commentService *services.CommentService) *LaunchHandler {
	return &LaunchHandler{launchService: launchService, commentService: commentService}
}

func (h *LaunchHandler) ListLaunches(c *gin.Context) {
	var filter services.LaunchFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		utils.SendValidationError(c, "Invalid query parameters")
		return
	}

	launches, err := h.launchService.ListLaunches(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to retrieve launches")
		return
	}

	utils.SendSuccess(c, "Launches retrieved successfully", launches)
}

func (h *LaunchHandler) TodayLaunches(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			utils.SendValidationError(c, "Invalid query parameters", utils.FieldError{Field: "limit", Message: "must be a non-negative integer"})
			return
		}
		limit = n
	}

	today, err := h.launchService.TodayLaunches(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err, "Failed to retrieve today's launches")
		return
	}

	utils.SendSuccess(c, "Today's launches retrieved successfully", today)
}

func (h *LaunchHandler) GetLaunch(c *gin.Context) {
	launchID, ok := pathID(c, "launch_id", "launch")
	if !ok {
		return
	}

	launch, err := h.launchService.GetLaunch(c.Request.Context(), launchID)
	if err != nil {
		respondError(c, err, "Failed to retrieve launch")
		return
	}

	utils.SendSuccess(c, "Launch retrieved successfully", launch)
}

func (h *LaunchHandler) CreateLaunch(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req services.CreateLaunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data", bindingDetails(err)...)
		return
	}

	launch, err := h.launchService.CreateLaunch(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err, "Failed to create launch")
		return
	}

	utils.SendCreated(c, "Launch created successfully", launch)
}

func (h *LaunchHandler) UpdateLaunch(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	launchID, ok := pathID(c, "launch_id", "launch")
	if !ok {
		return
	}

	var req services.UpdateLaunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data", bindingDetails(err)...)
		return
	}

	launch, err := h.launchService.UpdateLaunch(c.Request.Context(), launchID, userID, isAdmin(c), req)
	if err != nil {
		respondError(c, err, "Failed to update launch")
		return
	}

	utils.SendSuccess(c, "Launch updated successfully", launch)
}

func (h *LaunchHandler) DeleteLaunch(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	launchID, ok := pathID(c, "launch_id", "launch")
	if !ok {
		return
	}

	if err := h.launchService.DeleteLaunch(c.Request.Context(), launchID, userID, isAdmin(c)); err != nil {
		respondError(c, err, "Failed to delete launch")
		return
	}

	utils.SendSuccess(c, "Launch deleted successfully", gin.H{"deleted": true})
}

func (h *LaunchHandler) ToggleUpvote(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	launchID, ok := pathID(c, "launch_id", "launch")
	if !ok {
		return
	}

	result, err := h.launchService.ToggleUpvote(c.Request.Context(), launchID, userID)
	if err != nil {
		respondError(c, err, "Failed to toggle upvote")
		return
	}

	if result.Upvoted {
		utils.SendCreated(c, "Upvote added", result)
		return
	}
	utils.SendSuccess(c, "Upvote removed", result)
}

func (h *LaunchHandler) RemoveUpvote(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	launchID, ok := pathID(c, "launch_id", "launch")
	if !ok {
		return
	}

	result, err := h.launchService.RemoveUpvote(c.Request.Context(), launchID, userID)
	if err != nil {
		respondError(c, err, "Failed to remove upvote")
		return
	}

	utils.SendSuccess(c, "Upvote removed", result)
}

func (h *LaunchHandler) GetUpvoteStatus(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	launchID, ok := pathID(c, "launch_id", "launch")
	if !ok {
		return
	}

	result, err := h.launchService.HasUpvoted(c.Request.Context(), launchID, userID)
	if err != nil {
		respondError(c, err, "Failed to check upvote")
		return
	}

	utils.SendSuccess(c, "Upvote status retrieved", result)
}

func (h *LaunchHandler) ListComments(c *gin.Context) {
	launchID, ok := pathID(c, "launch_id", "launch")
	if !ok {
		return
	}

	comments, err := h.commentService.ListComments(c.Request.Context(), launchID)
	if err != nil {
		respondError(c, err, "Failed to fetch comments")
		return
	}

	utils.SendSuccess(c, "Comments retrieved successfully", comments)
}

func (h *LaunchHandler) CreateComment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	launchID, ok := pathID(c, "launch_id", "launch")
	if !ok {
		return
	}

	var req services.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data", bindingDetails(err)...)
		return
	}

	comment, err := h.commentService.CreateComment(c.Request.Context(), launchID, userID, req)
	if err != nil {
		respondError(c, err, "Failed to create comment")
		return
	}

	utils.SendCreated(c, "Comment created successfully", comment)
}

func (h *LaunchHandler) UpdateComment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	launchID, ok := pathID(c, "launch_id", "launch")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "comment_id", "comment")
	if !ok {
		return
	}

	var req services.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data", bindingDetails(err)...)
		return
	}

	comment, err := h.commentService.UpdateComment(c.Request.Context(), launchID, commentID, userID, req)
	if err != nil {
		respondError(c, err, "Failed to update comment")
		return
	}

	utils.SendSuccess(c, "Comment updated successfully", comment)
}

func (h *LaunchHandler) DeleteComment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	launchID, ok := pathID(c, "launch_id", "launch")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "comment_id", "comment")
	if !ok {
		return
	}

	removed, err := h.commentService.DeleteComment(c.Request.Context(), launchID, commentID, userID)
	if err != nil {
		respondError(c, err, "Failed to delete comment")
		return
	}

	utils.SendSuccess(c, "Comment deleted successfully", gin.H{"removed": removed})
}
