package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/princeprakhar/marketplace-backend/internal/api/routes"
	"github.com/princeprakhar/marketplace-backend/internal/cache"
	"github.com/princeprakhar/marketplace-backend/internal/config"
	"github.com/princeprakhar/marketplace-backend/internal/database"
	"github.com/princeprakhar/marketplace-backend/internal/events"
	"github.com/princeprakhar/marketplace-backend/internal/linkedin"
	"github.com/princeprakhar/marketplace-backend/internal/scoring"
	"github.com/princeprakhar/marketplace-backend/internal/services"
	"github.com/princeprakhar/marketplace-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize logger
	logger.Init()

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to initialize database: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis is optional: without it rate limits are per instance and OAuth states are replayable.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis connection failed, continuing without Redis: ", err)
			rdb = nil
		} else {
			logger.Info("Redis connected successfully")
			defer rdb.Close()
		}
	}

	publisher, err := events.NewPublisher(cfg)
	if err != nil {
		logger.Warn("Event broker unavailable, events will be dropped: ", err)
		publisher = events.NopPublisher{}
	}
	defer publisher.Close()

	scoringConfig := scoring.DefaultConfig()
	scoringConfig.PlatformDomain = cfg.PlatformDomain
	engine, err := scoring.NewEngine(scoringConfig)
	if err != nil {
		logger.Fatal("Invalid scoring configuration: ", err)
	}

	linkedInClient := linkedin.NewClient(linkedin.Config{
		ClientID:     cfg.LinkedInClientID,
		ClientSecret: cfg.LinkedInClientSecret,
		RedirectURI:  cfg.LinkedInRedirectURI,
		AuthURL:      cfg.LinkedInAuthURL,
		TokenURL:     cfg.LinkedInTokenURL,
		UserInfoURL:  cfg.LinkedInUserInfoURL,
		Issuer:       cfg.LinkedInIssuer,
	})

	var mailer services.ReviewMailer
	if cfg.EmailEnabled() {
		mailer = services.NewEmailService(cfg)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := gin.New()

	// Setup routes
	routes.SetupRoutes(router, routes.Dependencies{
		DB:        db,
		Redis:     rdb,
		Publisher: publisher,
		Engine:    engine,
		LinkedIn:  linkedInClient,
		Mailer:    mailer,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting on port " + cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: ", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed: ", err)
	}
}
