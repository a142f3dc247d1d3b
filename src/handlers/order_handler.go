package handlers

import (
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"auction-engine/src/config"
	"auction-engine/src/engine"
	"auction-engine/src/models"
)

type OrderHandler struct {
	Matcher   *engine.Matcher
	StartTime time.Time

	defaultDepth int
	maxDepth     int

	latencies    []time.Duration
	latenciesMu  sync.RWMutex
	maxLatencies int
}

func NewOrderHandler(matcher *engine.Matcher, cfg *config.Config) *OrderHandler {
	maxLatencies := cfg.MetricsMaxLatencies
	if maxLatencies <= 0 {
		maxLatencies = 10000
	}

	return &OrderHandler{
		Matcher:      matcher,
		StartTime:    time.Now(),
		defaultDepth: cfg.OrderBook.DefaultDepth,
		maxDepth:     cfg.OrderBook.MaxDepth,
		latencies:    make([]time.Duration, 0, maxLatencies),
		maxLatencies: maxLatencies,
	}
}

// SubmitOrder queues the order and answers 202: matching runs on the
// engine's intake worker, so fills are only visible afterwards through
// order status, the book, or trade events.
func (h *OrderHandler) SubmitOrder(c *fiber.Ctx) error {
	var req models.SubmitOrderRequest

	if err := c.BodyParser(&req); err != nil {
		log.Warn().
			Err(err).
			Str("ip", c.IP()).
			Str("path", c.Path()).
			Msg("Invalid request: malformed JSON")
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Invalid request: malformed JSON",
		})
	}

	if err := validateSubmitOrderRequest(&req); err != nil {
		log.Warn().
			Err(err).
			Str("symbol", req.Symbol).
			Str("side", req.Side).
			Str("ip", c.IP()).
			Msg("Invalid order request")
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: err.Error(),
		})
	}

	order := engine.NewOrder(req.TraderID, req.Symbol, engine.OrderSide(req.Side), req.Price, req.Quantity)

	startTime := time.Now()
	err := h.Matcher.SubmitOrder(order)
	h.recordLatency(time.Since(startTime))

	if err != nil {
		if errors.Is(err, engine.ErrInvalidOrder) {
			return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
				Error: "Invalid order: " + err.Error(),
			})
		}
		if errors.Is(err, engine.ErrEngineNotRunning) {
			log.Warn().
				Str("order_id", order.ID).
				Str("symbol", order.Symbol).
				Msg("Order rejected: matching engine is not running")
			return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
				Error: "Matching engine is not running",
			})
		}
		log.Error().
			Err(err).
			Str("order_id", order.ID).
			Str("symbol", order.Symbol).
			Msg("Error submitting order")
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error: "Internal server error",
		})
	}

	log.Info().
		Str("order_id", order.ID).
		Str("trader_id", order.TraderID).
		Str("symbol", order.Symbol).
		Str("side", string(order.Side)).
		Int64("price", order.Price).
		Int64("quantity", order.Quantity).
		Msg("Order submitted")

	return c.Status(fiber.StatusAccepted).JSON(models.SubmitOrderResponse{
		OrderID:   order.ID,
		Symbol:    order.Symbol,
		Status:    string(engine.StatusPending),
		Message:   "Order queued for matching",
		Timestamp: order.Timestamp.UnixMilli(),
	})
}

func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	symbol := c.Params("symbol")
	orderID := c.Params("id")

	if !h.Matcher.CancelOrder(symbol, orderID) {
		// edge case: unknown, filled, partially filled and already cancelled orders all land here
		log.Warn().
			Str("order_id", orderID).
			Str("symbol", symbol).
			Msg("Cancel order: order not cancellable")
		return c.Status(fiber.StatusConflict).JSON(models.ErrorResponse{
			Error: "Order not found or no longer cancellable",
		})
	}

	log.Info().
		Str("order_id", orderID).
		Str("symbol", symbol).
		Str("ip", c.IP()).
		Msg("Order cancelled")

	return c.Status(fiber.StatusOK).JSON(models.CancelOrderResponse{
		OrderID: orderID,
		Symbol:  symbol,
		Status:  string(engine.StatusCancelled),
	})
}

func (h *OrderHandler) GetOrderBook(c *fiber.Ctx) error {
	symbol := c.Params("symbol")

	depth, err := strconv.Atoi(c.Query("depth", strconv.Itoa(h.defaultDepth)))
	if err != nil || depth <= 0 {
		depth = h.defaultDepth
	}

	// edge case: enforce maximum depth limit
	if depth > h.maxDepth {
		depth = h.maxDepth
	}

	snapshot, ok := h.Matcher.GetOrderBookSnapshot(symbol)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
			Error: "Order book not found",
		})
	}

	return c.Status(fiber.StatusOK).JSON(models.NewOrderBookResponse(snapshot, depth))
}

func (h *OrderHandler) GetOrderBookSizes(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(models.OrderBookSizesResponse{
		OrderBooks: h.Matcher.GetOrderBookSizes(),
	})
}

// GetOrderStatus only sees live orders; filled and cancelled orders leave
// the book's index and report 404.
func (h *OrderHandler) GetOrderStatus(c *fiber.Ctx) error {
	symbol := c.Params("symbol")
	orderID := c.Params("id")

	orderBook, ok := h.Matcher.GetOrderBook(symbol)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
			Error: "Order not found",
		})
	}

	order, ok := orderBook.GetOrder(orderID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
			Error: "Order not found",
		})
	}

	return c.Status(fiber.StatusOK).JSON(models.NewOrderStatusResponse(order))
}

func (h *OrderHandler) HealthCheck(c *fiber.Ctx) error {
	running := h.Matcher.IsRunning()
	status := "healthy"
	code := fiber.StatusOK
	if !running {
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(models.HealthResponse{
		Status:         status,
		EngineRunning:  running,
		UptimeSeconds:  int64(time.Since(h.StartTime).Seconds()),
		OrdersInBook:   h.ordersInBook(),
		OrdersReceived: h.Matcher.Stats().OrdersReceived,
	})
}

func (h *OrderHandler) Metrics(c *fiber.Ctx) error {
	stats := h.Matcher.Stats()
	p50, p99, p999 := h.calculateLatencyPercentiles()

	return c.Status(fiber.StatusOK).JSON(models.MetricsResponse{
		OrdersReceived:         stats.OrdersReceived,
		OrdersProcessed:        stats.OrdersProcessed,
		OrdersCancelled:        stats.OrdersCancelled,
		OrdersInBook:           h.ordersInBook(),
		TradesExecuted:         stats.TradesExecuted,
		VolumeTraded:           stats.VolumeTraded,
		QueueDepth:             stats.QueueDepth,
		OrderBooks:             stats.OrderBooks,
		SubmitLatencyP50Ms:     p50,
		SubmitLatencyP99Ms:     p99,
		SubmitLatencyP999Ms:    p999,
		ThroughputOrdersPerSec: h.calculateThroughput(stats.OrdersReceived),
	})
}

func (h *OrderHandler) ordersInBook() int64 {
	var total int64
	for _, n := range h.Matcher.GetOrderBookSizes() {
		total += int64(n)
	}
	return total
}

func (h *OrderHandler) recordLatency(latency time.Duration) {
	h.latenciesMu.Lock()
	defer h.latenciesMu.Unlock()

	h.latencies = append(h.latencies, latency)

	// edge case: maintain rolling window by removing oldest measurements
	if len(h.latencies) > h.maxLatencies {
		removeCount := len(h.latencies) - h.maxLatencies
		h.latencies = h.latencies[removeCount:]
	}
}

func (h *OrderHandler) calculateLatencyPercentiles() (p50, p99, p999 float64) {
	h.latenciesMu.RLock()
	latenciesCopy := make([]time.Duration, len(h.latencies))
	copy(latenciesCopy, h.latencies)
	h.latenciesMu.RUnlock()

	if len(latenciesCopy) == 0 {
		return 0, 0, 0
	}

	sort.Slice(latenciesCopy, func(i, j int) bool {
		return latenciesCopy[i] < latenciesCopy[j]
	})

	percentile := func(q float64) float64 {
		// edge case: ensure index is within bounds
		idx := min(int(float64(len(latenciesCopy))*q), len(latenciesCopy)-1)
		return float64(latenciesCopy[idx].Nanoseconds()) / 1e6
	}

	return percentile(0.50), percentile(0.99), percentile(0.999)
}

func (h *OrderHandler) calculateThroughput(ordersReceived int64) float64 {
	uptime := time.Since(h.StartTime).Seconds()
	if uptime <= 0 {
		return 0
	}
	return float64(ordersReceived) / uptime
}

func validateSubmitOrderRequest(req *models.SubmitOrderRequest) error {
	if req.Symbol == "" {
		return &ValidationError{Message: "Invalid order: symbol is required"}
	}

	if req.TraderID == "" {
		return &ValidationError{Message: "Invalid order: trader_id is required"}
	}

	if req.Side != string(engine.SideBuy) && req.Side != string(engine.SideSell) {
		return &ValidationError{Message: "Invalid order: side must be BUY or SELL"}
	}

	if req.Quantity <= 0 {
		return &ValidationError{Message: "Invalid order: quantity must be positive"}
	}

	if req.Price <= 0 {
		return &ValidationError{Message: "Invalid order: price must be positive"}
	}

	return nil
}

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
