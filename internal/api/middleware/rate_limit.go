package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/marketplace-backend/internal/config"
	"github.com/princeprakhar/marketplace-backend/internal/utils"
	"github.com/princeprakhar/marketplace-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const rateLimitPrefix = "ratelimit"

// RateLimitMiddleware limits each client per path to RateLimitRPS requests a second.
// Counters live in Redis when a client is given so every instance shares them.
func RateLimitMiddleware(cfg *config.Config, rdb *redis.Client) gin.HandlerFunc {
	rate := limiter.Rate{
		Period: time.Second,
		Limit:  int64(cfg.RateLimitRPS),
	}

	store := newLimiterStore(rdb)
	instance := limiter.New(store, rate, limiter.WithTrustForwardHeader(true))

	return mgin.NewMiddleware(instance,
		mgin.WithKeyGetter(func(c *gin.Context) string {
			return fmt.Sprintf("%s:%s", c.ClientIP(), c.FullPath())
		}),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			utils.SendError(c, http.StatusTooManyRequests, utils.CodeRateLimited, "Too many requests, please slow down")
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			logger.Error("rate limiter failed: ", err)
			utils.SendInternalError(c, "Rate limiter unavailable")
		}),
	)
}

func newLimiterStore(rdb *redis.Client) limiter.Store {
	if rdb != nil {
		store, err := sredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: rateLimitPrefix})
		if err == nil {
			return store
		}
		logger.Warn("falling back to in-memory rate limiting: ", err)
	}
	return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: rateLimitPrefix, CleanUpInterval: time.Minute})
}
