package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auction-engine/src/config"
	"auction-engine/src/engine"
	"auction-engine/src/handlers"
	"auction-engine/src/models"
	"auction-engine/src/routes"
)

func testConfig() *config.Config {
	return &config.Config{
		RequestLoggingDisabled: true,
		MetricsMaxLatencies:    100,
		RateLimit:              config.RateLimitConfig{Disabled: true},
		OrderBook:              config.OrderBookConfig{DefaultDepth: 10, MaxDepth: 2},
	}
}

// setupTestServer wires the real routes against a running engine.
func setupTestServer(t *testing.T) (*fiber.App, *engine.Matcher) {
	t.Helper()
	matcher := engine.NewMatcherWithOptions(engine.Options{ShutdownTimeout: time.Second})
	matcher.Start()
	t.Cleanup(matcher.Stop)

	app := fiber.New()
	routes.SetupRoutes(app, handlers.NewOrderHandler(matcher, testConfig()), testConfig())
	return app, matcher
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func submit(t *testing.T, app *fiber.App, side string, price, quantity int64) models.SubmitOrderResponse {
	t.Helper()
	var resp models.SubmitOrderResponse
	code := doJSON(t, app, http.MethodPost, "/api/v1/orders", map[string]any{
		"trader_id": "T1",
		"symbol":    "AAPL",
		"side":      side,
		"price":     price,
		"quantity":  quantity,
	}, &resp)
	require.Equal(t, http.StatusAccepted, code)
	require.NotEmpty(t, resp.OrderID)
	return resp
}

func waitProcessed(t *testing.T, matcher *engine.Matcher, n int64) {
	t.Helper()
	require.Eventually(t, func() bool {
		return matcher.Stats().OrdersProcessed >= n
	}, 2*time.Second, time.Millisecond)
}

func TestSubmitOrderAPI(t *testing.T) {
	app, matcher := setupTestServer(t)

	resp := submit(t, app, "BUY", 15050, 100)
	assert.Equal(t, "AAPL", resp.Symbol)
	assert.Equal(t, "PENDING", resp.Status)
	waitProcessed(t, matcher, 1)

	var status models.OrderStatusResponse
	code := doJSON(t, app, http.MethodGet, "/api/v1/orderbook/AAPL/orders/"+resp.OrderID, nil, &status)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(100), status.RemainingQuantity)
	assert.Equal(t, "BUY", status.Side)
	assert.Equal(t, "T1", status.TraderID)
}

func TestSubmitOrderValidation(t *testing.T) {
	app, _ := setupTestServer(t)

	cases := map[string]map[string]any{
		"missing symbol": {"trader_id": "T1", "side": "BUY", "price": 100, "quantity": 1},
		"missing trader": {"symbol": "AAPL", "side": "BUY", "price": 100, "quantity": 1},
		"bad side":       {"trader_id": "T1", "symbol": "AAPL", "side": "HOLD", "price": 100, "quantity": 1},
		"zero quantity":  {"trader_id": "T1", "symbol": "AAPL", "side": "BUY", "price": 100, "quantity": 0},
		"negative price": {"trader_id": "T1", "symbol": "AAPL", "side": "SELL", "price": -5, "quantity": 1},
		"missing price":  {"trader_id": "T1", "symbol": "AAPL", "side": "SELL", "quantity": 1},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			var errResp models.ErrorResponse
			code := doJSON(t, app, http.MethodPost, "/api/v1/orders", body, &errResp)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Contains(t, errResp.Error, "Invalid order")
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitOrderEngineStopped(t *testing.T) {
	app, matcher := setupTestServer(t)
	matcher.Stop()

	var errResp models.ErrorResponse
	code := doJSON(t, app, http.MethodPost, "/api/v1/orders", map[string]any{
		"trader_id": "T1", "symbol": "AAPL", "side": "BUY", "price": 100, "quantity": 1,
	}, &errResp)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	var health models.HealthResponse
	code = doJSON(t, app, http.MethodGet, "/health", nil, &health)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.False(t, health.EngineRunning)
}

func TestOrderBookAPI(t *testing.T) {
	app, matcher := setupTestServer(t)

	code := doJSON(t, app, http.MethodGet, "/api/v1/orderbook/AAPL", nil, &models.ErrorResponse{})
	assert.Equal(t, http.StatusNotFound, code)

	submit(t, app, "BUY", 10000, 100)
	submit(t, app, "BUY", 10000, 50)
	submit(t, app, "BUY", 9900, 10)
	submit(t, app, "BUY", 9800, 10)
	submit(t, app, "SELL", 10100, 70)
	waitProcessed(t, matcher, 5)

	var book models.OrderBookResponse
	code = doJSON(t, app, http.MethodGet, "/api/v1/orderbook/AAPL?depth=50", nil, &book)
	require.Equal(t, http.StatusOK, code)

	// depth is capped at MaxDepth
	require.Len(t, book.Bids, 2)
	assert.Equal(t, models.PriceLevelInfo{Price: 10000, Quantity: 150, Orders: 2}, book.Bids[0])
	require.Len(t, book.Asks, 1)
	require.NotNil(t, book.BestBid)
	require.NotNil(t, book.BestAsk)
	assert.Equal(t, int64(100), book.Spread)

	var sizes models.OrderBookSizesResponse
	code = doJSON(t, app, http.MethodGet, "/api/v1/orderbooks", nil, &sizes)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]int{"AAPL": 5}, sizes.OrderBooks)
}

func TestMatchingThroughAPI(t *testing.T) {
	app, matcher := setupTestServer(t)

	buy := submit(t, app, "BUY", 10100, 5)
	sell := submit(t, app, "SELL", 9900, 10)
	waitProcessed(t, matcher, 2)

	// the filled buy has left the book
	code := doJSON(t, app, http.MethodGet, "/api/v1/orderbook/AAPL/orders/"+buy.OrderID, nil, &models.ErrorResponse{})
	assert.Equal(t, http.StatusNotFound, code)

	var status models.OrderStatusResponse
	code = doJSON(t, app, http.MethodGet, "/api/v1/orderbook/AAPL/orders/"+sell.OrderID, nil, &status)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "PARTIALLY_FILLED", status.Status)
	assert.Equal(t, int64(5), status.FilledQuantity)

	// partially filled orders cannot be cancelled
	code = doJSON(t, app, http.MethodDelete, "/api/v1/orderbook/AAPL/orders/"+sell.OrderID, nil, &models.ErrorResponse{})
	assert.Equal(t, http.StatusConflict, code)

	var metrics models.MetricsResponse
	code = doJSON(t, app, http.MethodGet, "/metrics", nil, &metrics)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(2), metrics.OrdersReceived)
	assert.Equal(t, int64(1), metrics.TradesExecuted)
	assert.Equal(t, int64(5), metrics.VolumeTraded)
	assert.Equal(t, int64(1), metrics.OrdersInBook)
}

func TestCancelOrderAPI(t *testing.T) {
	app, matcher := setupTestServer(t)

	resp := submit(t, app, "BUY", 10000, 5)
	waitProcessed(t, matcher, 1)

	var cancelled models.CancelOrderResponse
	code := doJSON(t, app, http.MethodDelete, "/api/v1/orderbook/AAPL/orders/"+resp.OrderID, nil, &cancelled)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "CANCELLED", cancelled.Status)

	code = doJSON(t, app, http.MethodDelete, "/api/v1/orderbook/AAPL/orders/"+resp.OrderID, nil, &models.ErrorResponse{})
	assert.Equal(t, http.StatusConflict, code)

	code = doJSON(t, app, http.MethodDelete, "/api/v1/orderbook/MSFT/orders/"+resp.OrderID, nil, &models.ErrorResponse{})
	assert.Equal(t, http.StatusConflict, code)
}
