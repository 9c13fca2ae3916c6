package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dev-mohitbeniwal/echo-portal/audit"
	"github.com/dev-mohitbeniwal/echo-portal/auth"
	"github.com/dev-mohitbeniwal/echo-portal/config"
	"github.com/dev-mohitbeniwal/echo-portal/controller"
	"github.com/dev-mohitbeniwal/echo-portal/dao"
	"github.com/dev-mohitbeniwal/echo-portal/db"
	logger "github.com/dev-mohitbeniwal/echo-portal/logging"
	"github.com/dev-mohitbeniwal/echo-portal/metrics"
	"github.com/dev-mohitbeniwal/echo-portal/pdp/engine"
	"github.com/dev-mohitbeniwal/echo-portal/router"
	"github.com/dev-mohitbeniwal/echo-portal/service"
	"github.com/dev-mohitbeniwal/echo-portal/util"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	// Initialize logger
	logger.InitLogger(config.GetString("log.dir"))
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize stores
	if err := db.InitNeo4j(ctx); err != nil {
		logger.Fatal("Failed to initialize Neo4j", zap.Error(err))
	}
	defer db.CloseNeo4j()

	if err := db.InitPostgres(ctx); err != nil {
		logger.Fatal("Failed to initialize PostgreSQL", zap.Error(err))
	}
	defer db.ClosePostgres()

	if err := db.InitRedis(ctx); err != nil {
		logger.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer db.CloseRedis()

	policyDAO := dao.NewPolicyDAO(db.Neo4jDriver)
	if err := policyDAO.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to prepare policy schema", zap.Error(err))
	}
	userDAO := dao.NewUserDAO(db.Postgres)
	if err := userDAO.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to prepare user schema", zap.Error(err))
	}

	auditRepository, err := audit.NewElasticsearchRepository(
		config.GetString("elasticsearch.url"),
		config.GetString("elasticsearch.index"),
	)
	if err != nil {
		logger.Fatal("Failed to create audit repository", zap.Error(err))
	}
	if err := auditRepository.EnsureIndex(ctx); err != nil {
		// Records written before the index exists fail and are counted.
		logger.Error("Failed to prepare audit index", zap.Error(err))
	}
	auditService := audit.NewService(auditRepository)

	// Policy reads fall back to the encrypted Redis snapshot when Neo4j is down
	var policyRepository engine.PolicyRepository = policyDAO
	var policyCache *db.PolicyCache
	if key := config.GetString("redis.encryptionKey"); key != "" {
		policyCache, err = db.NewPolicyCache(db.RedisClient, []byte(key), config.GetDuration("redis.defaultCacheTTL"))
		if err != nil {
			logger.Fatal("Failed to create policy cache", zap.Error(err))
		}
		policyRepository = dao.NewCachedPolicyRepository(policyDAO, policyCache)
	} else {
		logger.Warn("redis.encryptionKey not set, policy cache fallback disabled")
	}

	office, err := engine.NewOfficeNetwork(config.GetStringSlice("policy.officeNetworks"))
	if err != nil {
		logger.Fatal("Invalid office network configuration", zap.Error(err))
	}
	location, err := config.Location()
	if err != nil {
		logger.Fatal("Invalid policy timezone", zap.Error(err))
	}
	evaluator := engine.NewPolicyEvaluator(policyRepository, office, location)

	// Credentials
	bcryptCost := config.GetInt("auth.bcryptCost")
	tokens, err := auth.NewTokenManager(
		config.GetString("auth.jwtSecret"),
		config.GetString("auth.issuer"),
		config.GetDuration("auth.tokenTTL"),
	)
	if err != nil {
		logger.Fatal("Failed to create token manager", zap.Error(err))
	}
	verifier, err := auth.NewCredentialVerifier(userDAO, tokens, bcryptCost)
	if err != nil {
		logger.Fatal("Failed to create credential verifier", zap.Error(err))
	}
	var revocations auth.RevocationStore
	if config.GetBool("auth.revocation.enabled") {
		revocations = auth.NewRedisRevocationStore(db.RedisClient)
	}

	// Initialize EventBus
	eventBus := util.NewEventBus()
	eventBus.Start(ctx)
	if policyCache != nil {
		util.NewCacheService(policyCache).SubscribeTo(eventBus)
	}
	util.NewNotificationService().SubscribeTo(eventBus)

	metrics.Init()

	services := service.InitializeServices(service.Dependencies{
		Users:          userDAO,
		Policies:       policyDAO,
		Evaluator:      evaluator,
		Verifier:       verifier,
		Revocations:    revocations,
		Audit:          auditService,
		ValidationUtil: util.NewValidationUtil(),
		EventBus:       eventBus,
		BcryptCost:     bcryptCost,
	})

	healthChecks := map[string]controller.HealthCheck{
		"neo4j":         db.Neo4jDriver.VerifyConnectivity,
		"postgres":      db.Postgres.PingContext,
		"redis":         func(ctx context.Context) error { return db.RedisClient.Ping(ctx).Err() },
		"elasticsearch": auditRepository.Ping,
	}
	controllers := controller.InitializeControllers(services, healthChecks)

	// Set up Gin
	gin.SetMode(gin.ReleaseMode)
	engineRouter := router.SetupRouter(controllers, services.Auth, router.Options{
		RedisClient:       db.RedisClient,
		RateLimitRequests: config.GetInt("ratelimit.requests"),
		RateLimitWindow:   config.GetDuration("ratelimit.window"),
		LoginRequests:     config.GetInt("ratelimit.loginRequests"),
	})

	// Set up the server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.GetString("server.port")),
		Handler:           engineRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", config.GetString("server.port")))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.GetDuration("server.shutdownTimeout"))
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Let in-flight policy change handlers finish before the stores close
	eventBus.Wait()
	cancel()

	logger.Info("Server exiting")
}
