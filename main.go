package main

import (
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yagniktrivedi/ekantik-studio-sub001/config"
	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/cache"
	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/consumer"
	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/handler"
	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/logging"
	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/metrics"
	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/middleware"
	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/repository"
	"github.com/yagniktrivedi/ekantik-studio-sub001/internal/service"
	"github.com/yagniktrivedi/ekantik-studio-sub001/pkg/database"
	"github.com/yagniktrivedi/ekantik-studio-sub001/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	metrics.Register()

	db := database.NewPostgresDB(cfg.DSN())

	// RabbitMQ consumer: sync class catalog and member directory
	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer mqConsumer.Close()

	msgs, err := mqConsumer.Consume()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start consuming")
	}
	consumer.NewCatalogConsumer(db, logger).Start(msgs)

	// RabbitMQ publisher: booking lifecycle events for notifications/CRM
	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create RabbitMQ publisher")
	}
	defer publisher.Close()

	// Repositories
	bookingRepo := repository.NewBookingRepository(db)
	classRepo := repository.NewClassRepository(db)
	memberRepo := repository.NewMemberRepository(db)

	// Optional availability cache (disabled when REDIS_ADDR is empty)
	availCache := cache.NewAvailability(cfg.RedisAddr, cfg.AvailabilityCacheTTL)

	// Service
	bookingSvc := service.NewBookingService(
		bookingRepo, classRepo, memberRepo,
		publisher, availCache, cfg.SlotLockTimeout, logger,
	)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))
	e.Use(echoMw.Recover())
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RPS:                cfg.RateLimitRPS,
		Burst:              cfg.RateLimitBurst,
		TrustXForwardedFor: true,
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "studio-booking"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	handler.NewBookingHandler(bookingSvc).RegisterRoutes(e)

	logger.Info().Str("port", cfg.ServerPort).Msg("studio booking service starting")
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
