package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/marketplace-backend/internal/api/handlers"
	"github.com/princeprakhar/marketplace-backend/internal/api/middleware"
	"github.com/princeprakhar/marketplace-backend/internal/cache"
	"github.com/princeprakhar/marketplace-backend/internal/config"
	"github.com/princeprakhar/marketplace-backend/internal/events"
	"github.com/princeprakhar/marketplace-backend/internal/linkedin"
	"github.com/princeprakhar/marketplace-backend/internal/scoring"
	"github.com/princeprakhar/marketplace-backend/internal/services"
	"github.com/princeprakhar/marketplace-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Dependencies are the process-wide clients the routes are built from.
// Redis and Mailer are optional.
type Dependencies struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Publisher events.Publisher
	Engine    *scoring.Engine
	LinkedIn  linkedin.Provider
	Mailer    services.ReviewMailer
}

func SetupRoutes(router *gin.Engine, deps Dependencies, cfg *config.Config) {
	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RateLimitMiddleware(cfg, deps.Redis))

	handlers.RegisterJSONFieldNames()

	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	var nonces services.NonceClaimer
	if deps.Redis != nil {
		nonces = cache.NewNonceStore(deps.Redis)
	} else {
		logger.Warn("REDIS_URL not set, OAuth state tokens are not single-use")
	}
	stateCodec := linkedin.NewStateCodec(cfg.OAuthStateSecret, cfg.OAuthStateTTL)

	// Initialize services
	productService := services.NewProductService(deps.DB, publisher)
	reviewService := services.NewReviewService(deps.DB, publisher)
	moderationService := services.NewModerationService(deps.DB, deps.Engine, deps.Mailer, publisher)
	linkedInService := services.NewLinkedInService(deps.DB, deps.LinkedIn, stateCodec, nonces, cfg.FrontendURL, publisher)
	launchService := services.NewLaunchService(deps.DB, publisher)
	commentService := services.NewCommentService(deps.DB, publisher)
	userService := services.NewUserService(deps.DB)

	// Initialize handlers
	productHandler := handlers.NewProductHandler(productService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	moderationHandler := handlers.NewModerationHandler(moderationService)
	linkedInHandler := handlers.NewLinkedInHandler(linkedInService)
	launchHandler := handlers.NewLaunchHandler(launchService, commentService)

	authRequired := middleware.AuthMiddleware(cfg, userService)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Server is running"})
	})

	// API routes
	api := router.Group("/api/v1")

	// Product and review routes
	products := api.Group("/products")
	{
		products.GET("", productHandler.GetAllProducts)
		products.GET("/:slug", productHandler.GetProduct)
		products.POST("", authRequired, middleware.AdminOnly(), productHandler.CreateProduct)
		products.PUT("/:slug", authRequired, middleware.AdminOnly(), productHandler.UpdateProduct)
		products.DELETE("/:slug", authRequired, middleware.AdminOnly(), productHandler.DeleteProduct)
		products.GET("/:slug/reviews", reviewHandler.GetProductReviews)
		products.POST("/:slug/reviews", authRequired, reviewHandler.CreateReview)
		products.GET("/:slug/reviews/:review_id", reviewHandler.GetReview)
		products.PUT("/:slug/reviews/:review_id", authRequired, reviewHandler.UpdateReview)
		products.DELETE("/:slug/reviews/:review_id", authRequired, reviewHandler.DeleteReview)
	}

	// Review verification
	reviews := api.Group("/reviews/:review_id")
	{
		reviews.POST("/verify", authRequired, middleware.AdminOnly(), moderationHandler.RunVerification)
		reviews.GET("/verify", authRequired, middleware.AdminOnly(), moderationHandler.PreviewVerification)
		reviews.POST("/linkedin-verify", authRequired, linkedInHandler.VerifyReview)
		reviews.GET("/linkedin-verify", linkedInHandler.ReviewVerificationStatus)
	}

	// LinkedIn OAuth
	auth := api.Group("/auth/linkedin")
	{
		auth.GET("", authRequired, linkedInHandler.InitiateGet)
		auth.POST("", authRequired, linkedInHandler.InitiatePost)
		auth.GET("/callback", linkedInHandler.Callback)
	}

	api.GET("/users/me/verification", authRequired, linkedInHandler.VerificationStatus)

	// Launch routes
	launches := api.Group("/launches")
	{
		launches.GET("", launchHandler.ListLaunches)
		launches.GET("/today", launchHandler.TodayLaunches)
		launches.POST("", authRequired, launchHandler.CreateLaunch)
		launches.GET("/:launch_id", launchHandler.GetLaunch)
		launches.PUT("/:launch_id", authRequired, launchHandler.UpdateLaunch)
		launches.DELETE("/:launch_id", authRequired, launchHandler.DeleteLaunch)

		launches.POST("/:launch_id/upvote", authRequired, launchHandler.ToggleUpvote)
		launches.DELETE("/:launch_id/upvote", authRequired, launchHandler.RemoveUpvote)
		launches.GET("/:launch_id/upvote", authRequired, launchHandler.GetUpvoteStatus)

		launches.GET("/:launch_id/comments", launchHandler.ListComments)
		launches.POST("/:launch_id/comments", authRequired, launchHandler.CreateComment)
		launches.PUT("/:launch_id/comments/:comment_id", authRequired, launchHandler.UpdateComment)
		launches.DELETE("/:launch_id/comments/:comment_id", authRequired, launchHandler.DeleteComment)
	}

	logger.Info("Routes initialized successfully")
}
