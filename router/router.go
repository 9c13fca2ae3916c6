// router/router.go
package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/dev-mohitbeniwal/echo-portal/controller"
	"github.com/dev-mohitbeniwal/echo-portal/metrics"
	"github.com/dev-mohitbeniwal/echo-portal/middleware"
	"github.com/dev-mohitbeniwal/echo-portal/model"
)

type Options struct {
	// RedisClient backs the rate limiters; nil limits per process.
	RedisClient       redis.Cmdable
	RateLimitRequests int
	RateLimitWindow   time.Duration
	LoginRequests     int
}

func SetupRouter(
	controllers *controller.Controllers,
	verifier middleware.TokenVerifier,
	opts Options,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")
	api.Use(middleware.RateLimiter(opts.RedisClient, "api", opts.RateLimitRequests, opts.RateLimitWindow))

	controllers.Health.RegisterRoutes(api)

	login := api.Group("", middleware.RateLimiter(opts.RedisClient, "login", opts.LoginRequests, opts.RateLimitWindow))
	protected := api.Group("", middleware.Authenticate(verifier))
	controllers.Auth.RegisterRoutes(login, protected)
	controllers.Access.RegisterRoutes(protected)
	controllers.Audit.RegisterRoutes(protected)

	admin := protected.Group("", middleware.RequireRoles(model.RoleAdmin))
	controllers.Policy.RegisterRoutes(admin)

	return router
}
