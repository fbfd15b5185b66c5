package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"nonprofit-ads-analysis/internal/common/config"
	"nonprofit-ads-analysis/internal/common/logger"
	"nonprofit-ads-analysis/internal/common/middleware"
	nonprofitHTTP "nonprofit-ads-analysis/internal/features/nonprofit/delivery/http"
	"nonprofit-ads-analysis/internal/features/nonprofit/repository"
	streamRepo "nonprofit-ads-analysis/internal/features/nonprofit/repository/redis"
	nonprofitService "nonprofit-ads-analysis/internal/features/nonprofit/service"
	"nonprofit-ads-analysis/internal/platform/propublica"
	"nonprofit-ads-analysis/internal/platform/redis"
	"nonprofit-ads-analysis/internal/workers"
)

const (
	serviceName  = "nonprofit-api"
	streamMaxLen = 100000
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(serviceName, false)
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.Init(serviceName, cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := propublica.NewClient(cfg.Registry.BaseURL, cfg.Registry.Timeout)

	var (
		rdb       *redis.Client
		publisher repository.ValidationPublisher
	)
	if cfg.RedisEnabled() {
		rdb, err = redis.Open(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		publisher = streamRepo.NewStreamPublisher(rdb, cfg.Redis.ValidationStream, streamMaxLen)
		logger.Info().Msg("Redis connection established")
	}

	validator := nonprofitService.NewValidatorService(registry, publisher)

	if rdb != nil {
		worker := workers.NewRedisStreamWorker(rdb, cfg.Redis.RequestStream, validator, publisher)
		go worker.Start(ctx)
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Logger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Accept", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	router.Use(cors.New(corsConfig))

	setupRoutes(router, validator, rdb)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func setupRoutes(router *gin.Engine, validator nonprofitService.ValidatorService, rdb *redis.Client) {
	v1 := router.Group("/api/v1")
	nonprofitHTTP.NewNonprofitHandler(validator).RegisterRoutes(v1)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		if rdb != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unready",
					"error":   "redis unavailable",
					"details": err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})
}
