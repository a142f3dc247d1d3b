package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"auction-engine/src/config"
	"auction-engine/src/engine"
	"auction-engine/src/handlers"
	"auction-engine/src/logger"
	"auction-engine/src/publisher"
	"auction-engine/src/routes"
	"auction-engine/src/simulation"
)

func main() {
	cfg := config.MustLoad()

	logger.InitLogger(cfg.Log)
	defer logger.CloseLogger()
	log := logger.GetLogger()

	log.Info().Msg("Initializing matching engine")

	matcher := engine.NewMatcherWithOptions(cfg.Engine.Options())

	if cfg.Kafka.Enabled() {
		pub := publisher.NewPublisher(cfg.Kafka)
		defer pub.Close()
		matcher.AddTradeListener(pub)
		matcher.AddMarketDataListener(pub)
		log.Info().
			Strs("brokers", cfg.Kafka.Brokers).
			Str("trade_topic", cfg.Kafka.TradeTopic).
			Str("market_data_topic", cfg.Kafka.MarketDataTopic).
			Msg("Kafka event publishing enabled")
	}

	matcher.Start()
	defer matcher.Stop()

	orderHandler := handlers.NewOrderHandler(matcher, cfg)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}

			log.Error().
				Str("path", c.Path()).
				Str("method", c.Method()).
				Int("status", code).
				Str("error", err.Error()).
				Msg("Request error")

			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	routes.SetupRoutes(app, orderHandler, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if cfg.Simulation.Enabled {
		sim, err := simulation.New(matcher, cfg.Simulation)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid simulation configuration")
		}
		matcher.AddTradeListener(simulation.TradeLogger())
		matcher.AddMarketDataListener(simulation.MarketDataLogger())

		simCtx := ctx
		if cfg.Simulation.Duration > 0 {
			var cancel context.CancelFunc
			simCtx, cancel = context.WithTimeout(ctx, cfg.Simulation.Duration)
			defer cancel()
		}
		go sim.Run(simCtx)
	}

	serverError := make(chan error, 1)
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			serverError <- err
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Strs("endpoints", []string{
			"POST   /api/v1/orders",
			"GET    /api/v1/orderbooks",
			"GET    /api/v1/orderbook/:symbol",
			"GET    /api/v1/orderbook/:symbol/orders/:id",
			"DELETE /api/v1/orderbook/:symbol/orders/:id",
			"GET    /health",
			"GET    /metrics",
		}).
		Msg("Matching engine API started")

	select {
	case err := <-serverError:
		log.Error().
			Err(err).
			Str("port", cfg.Port).
			Msg("Server failed to start")
		matcher.Stop()
		logger.CloseLogger()
		os.Exit(1)
	case <-ctx.Done():
		log.Info().Msg("Received shutdown signal, shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		// edge case: timeout during shutdown is acceptable
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn().
				Dur("timeout", cfg.ShutdownTimeout).
				Msg("Timeout exceeded, shutting down...")
		} else {
			log.Error().
				Err(err).
				Msg("Error during shutdown")
		}
	} else {
		log.Info().Msg("Shutdown complete")
	}
}
