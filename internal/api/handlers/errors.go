package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/marketplace-backend/internal/models"
	"github.com/princeprakhar/marketplace-backend/internal/services"
	"github.com/princeprakhar/marketplace-backend/internal/utils"
	"github.com/princeprakhar/marketplace-backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

// respondError maps service errors onto the response envelope. Anything unrecognised
// is logged and reported with fallback as a server error.
func respondError(c *gin.Context, err error, fallback string) {
	var notFound *services.NotFoundError
	var validation *services.ValidationError
	var provider *services.ProviderError

	switch {
	case errors.As(err, &notFound):
		utils.SendNotFound(c, notFound.Error())
	case errors.As(err, &validation):
		utils.SendValidationError(c, validation.Error(), validation.Details...)
	case errors.Is(err, services.ErrInvalidFilter):
		utils.SendValidationError(c, err.Error())
	case errors.Is(err, services.ErrForbidden):
		utils.SendForbidden(c, err.Error())
	case errors.Is(err, services.ErrIdentityConflict), errors.Is(err, services.ErrSlugTaken):
		utils.SendConflict(c, err.Error())
	case errors.As(err, &provider):
		logger.WithFields(requestFields(c)).Warn(provider.Error())
		utils.SendError(c, http.StatusBadGateway, utils.CodeServerError, "LinkedIn is unavailable, please try again later")
	default:
		logger.WithFields(requestFields(c)).Error(fallback, ": ", err)
		utils.SendInternalError(c, fallback)
	}
}

func requestFields(c *gin.Context) logrus.Fields {
	fields := logrus.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	}
	if id, ok := currentUserID(c); ok {
		fields["user_id"] = id
	}
	return fields
}

// currentUserID is the authenticated user set by middleware.AuthMiddleware.
func currentUserID(c *gin.Context) (uint, bool) {
	id := c.GetUint("user_id")
	return id, id != 0
}

func isAdmin(c *gin.Context) bool {
	return c.GetString("user_role") == models.RoleAdmin
}

// requireUser writes 401 and returns false when no user is attached to the request.
func requireUser(c *gin.Context) (uint, bool) {
	id, ok := currentUserID(c)
	if !ok {
		utils.SendUnauthorized(c, "Authentication required")
	}
	return id, ok
}

// pathID parses a positive numeric path parameter, writing a validation error otherwise.
func pathID(c *gin.Context, name, label string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		utils.SendValidationError(c, "Invalid "+label+" ID", utils.FieldError{Field: name, Message: "must be a positive integer"})
	}
	return id, ok
}
