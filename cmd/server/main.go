// @title Sourcing Service API
// @version 1.0
// @description Computes the minimum cost of sourcing an order from distribution centers to the delivery hub.
// @BasePath /
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/kosarica/sourcing-service/config"
	_ "github.com/kosarica/sourcing-service/docs"
	"github.com/kosarica/sourcing-service/internal/database"
	"github.com/kosarica/sourcing-service/internal/handlers"
	"github.com/kosarica/sourcing-service/internal/middleware"
	"github.com/kosarica/sourcing-service/internal/optimizer"
	"github.com/kosarica/sourcing-service/internal/service"
	"github.com/kosarica/sourcing-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting sourcing service")

	ctx := context.Background()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.ConfigFromEnv(cfg.Telemetry))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}

	if cfg.Catalog.Source == config.SourcePostgres {
		if err := database.Connect(
			ctx,
			config.GetDatabaseURL(),
			cfg.Database.MaxConnections,
			cfg.Database.MinConnections,
			cfg.Database.MaxConnLifetime,
			cfg.Database.MaxConnIdleTime,
		); err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer database.Close()
		logger.Info().Msg("Database connected")
	}

	def, err := service.LoadCatalog(ctx, cfg.Catalog, database.Pool())
	if err != nil {
		logger.Fatal().Err(err).Str("source", cfg.Catalog.Source).Msg("Failed to load catalog")
	}
	svc, err := service.New(def, cfg, optimizer.NewMetricsRecorder())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build optimizers")
	}
	handlers.InitQuoting(svc.Definition, svc.Optimizers, svc.DefaultModel)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	limited := router.Group("/")
	limited.Use(middleware.RateLimitMiddleware(middleware.RateLimiterConfig{
		Enabled:           cfg.RateLimit.Enabled,
		Scope:             cfg.RateLimit.Scope,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.Burst,
	}))
	{
		limited.POST("/calculate-cost", handlers.CalculateCost)

		v1 := limited.Group("/v1")
		{
			v1.POST("/quotes", handlers.CreateQuote)
			v1.GET("/catalog", handlers.GetCatalog)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Str("default_model", svc.DefaultModel).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Telemetry shutdown failed")
	}

	logger.Info().Msg("Server exited")
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "sourcing-service").Logger()
	// package-level loggers (optimizer, middleware) derive from log.Logger
	log.Logger = logger
	zerolog.SetGlobalLevel(level)
	return &logger
}
