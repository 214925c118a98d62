package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prompthero/backend/internal/api/handlers"
	"github.com/prompthero/backend/internal/config"
	"github.com/prompthero/backend/internal/database"
	"github.com/prompthero/backend/internal/health"
	"github.com/prompthero/backend/internal/middleware"
	"github.com/prompthero/backend/internal/migration"
	"github.com/prompthero/backend/internal/repository"
	"github.com/prompthero/backend/internal/services"
	"github.com/prompthero/backend/pkg/utils"
	"github.com/sirupsen/logrus"
	ginprometheus "github.com/zsais/go-gin-prometheus"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := utils.InitLogger(cfg.Log.Level)
	gin.SetMode(cfg.Server.Mode)

	dbManager, err := database.NewManager(&database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    cfg.Log.Level,
		Connect:     database.DefaultRetryConfig(),
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database manager")
	}

	if err := migration.NewRunner(dbManager.DB, logger).RunMigrations(cfg.Migrations.Path); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}

	repos := repository.NewRepositoryManager(dbManager.DB)

	// Caches are only wired when redis is configured
	var (
		suggestionCache services.SuggestionCache
		catalogCache    handlers.CatalogCache
		healthCache     health.HealthCache
	)
	pingers := []health.Pinger{
		{Name: health.ServicePostgres, Ping: dbManager.PingDatabase},
	}
	if dbManager.Redis != nil {
		cache := database.NewCache(dbManager.Redis, logger)
		suggestionCache, catalogCache, healthCache = cache, cache, cache
		pingers = append(pingers, health.Pinger{Name: health.ServiceRedis, Ping: dbManager.PingRedis, Optional: true})
	}

	searchService := services.NewSearchService(repos.Prompt, repos.PopularQuery, suggestionCache, services.SearchConfig{
		QueryTimeout:  cfg.Search.QueryTimeout,
		SuggestionTTL: cfg.Search.SuggestionTTL,
	}, logger)
	promptService := services.NewPromptService(repos.Prompt, logger)
	tracker := services.NewQueryTracker(repos.SearchQuery, repos.PopularQuery, logger)

	limiter := newLimiter(cfg, dbManager, logger)

	healthChecker := health.NewHealthChecker(pingers, repos.SystemHealth, healthCache, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.SecurityHeaders())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Session-ID", "X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request metrics plus the catalog collectors on /metrics
	ginprometheus.NewPrometheus("gin").Use(router)

	router.GET("/health", healthChecker.Handle)
	router.GET("/health/services", healthChecker.HandleServices)

	api := router.Group("/api")
	api.Use(middleware.RateLimit(limiter, logger))
	handlers.NewPromptHandler(searchService, promptService, tracker, repos.PopularQuery, catalogCache, logger).Register(api)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go healthChecker.PeriodicHealthCheck(ctx, cfg.Health.Interval)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	if err := limiter.Close(); err != nil {
		logger.WithError(err).Warn("Failed to stop rate limiter")
	}
	if err := dbManager.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close connections")
	}

	logger.Info("Server exited")
}

func newLimiter(cfg *config.Config, dbManager *database.Manager, logger *logrus.Logger) middleware.Limiter {
	if cfg.RateLimit.Backend == config.RateLimitRedis {
		if dbManager.Redis != nil {
			return middleware.NewRedisLimiter(dbManager.Redis, cfg.RateLimit.RequestsPerMinute, time.Minute)
		}
		logger.Warn("Redis unavailable, falling back to in-memory rate limiting")
	}
	return middleware.NewMemoryLimiter(cfg.RateLimit.RequestsPerMinute, time.Minute)
}
