package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/marketplace-backend/internal/config"
	"github.com/princeprakhar/marketplace-backend/internal/models"
	"github.com/princeprakhar/marketplace-backend/internal/services"
	"github.com/princeprakhar/marketplace-backend/internal/utils"
	"github.com/princeprakhar/marketplace-backend/pkg/logger"
	"github.com/sirupsen/logrus"
)

// UserProvisioner creates the local account behind a session on first sight.
type UserProvisioner interface {
	EnsureUser(ctx context.Context, id uint, email, role string) error
}

// AuthMiddleware accepts access tokens issued by the external auth service and
// exposes user_id, user_email and user_role to handlers. When users is set, the
// token's user is provisioned locally before the handler runs.
func AuthMiddleware(cfg *config.Config, users UserProvisioner) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.SendUnauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			utils.SendUnauthorized(c, "Bearer token required")
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString, cfg.JWTSecret)
		if err != nil {
			utils.SendUnauthorized(c, "Invalid token")
			c.Abort()
			return
		}

		if users != nil {
			if err := users.EnsureUser(c.Request.Context(), claims.UserID, claims.Email, claims.Role); err != nil {
				if errors.Is(err, services.ErrEmailTaken) {
					utils.SendConflict(c, err.Error())
				} else {
					logger.WithFields(logrus.Fields{"user_id": claims.UserID}).Error("user provisioning failed: ", err)
					utils.SendInternalError(c, "Failed to load user account")
				}
				c.Abort()
				return
			}
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_role", claims.Role)
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("user_role") != models.RoleAdmin {
			utils.SendForbidden(c, "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}
