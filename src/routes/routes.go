package routes

import (
	"github.com/gofiber/fiber/v2"

	"auction-engine/src/config"
	"auction-engine/src/handlers"
	"auction-engine/src/middleware"
)

func SetupRoutes(app *fiber.App, orderHandler *handlers.OrderHandler, cfg *config.Config) *middleware.ServiceAvailability {
	serviceAvailability := middleware.NewServiceAvailability(cfg.MaintenanceMode, cfg.MaxConcurrentRequests)
	app.Use(serviceAvailability.Middleware())
	app.Use(middleware.RequestLogger(cfg.RequestLoggingDisabled))

	api := app.Group("/api/v1")

	if !cfg.RateLimit.Disabled {
		rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window)
		api.Use(rateLimiter.Middleware())
	}

	api.Post("/orders", orderHandler.SubmitOrder)
	api.Get("/orderbooks", orderHandler.GetOrderBookSizes)
	api.Get("/orderbook/:symbol", orderHandler.GetOrderBook)
	api.Get("/orderbook/:symbol/orders/:id", orderHandler.GetOrderStatus)
	api.Delete("/orderbook/:symbol/orders/:id", orderHandler.CancelOrder)

	app.Get("/health", orderHandler.HealthCheck)
	app.Get("/metrics", orderHandler.Metrics)

	return serviceAvailability
}
