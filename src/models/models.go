package models

type SubmitOrderRequest struct {
	TraderID string `json:"trader_id"`
	Symbol   string `json:"symbol"`
	Side     string `json:"side"`
	Price    int64  `json:"price"` // price in cents
	Quantity int64  `json:"quantity"`
}

type SubmitOrderResponse struct {
	OrderID   string `json:"order_id"`
	Symbol    string `json:"symbol"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"timestamp"` // unix timestamp in milliseconds
}

type CancelOrderResponse struct {
	OrderID string `json:"order_id"`
	Symbol  string `json:"symbol"`
	Status  string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type OrderBookResponse struct {
	Symbol    string           `json:"symbol"`
	Timestamp int64            `json:"timestamp"` // unix timestamp in milliseconds
	BestBid   *int64           `json:"best_bid"`  // null when no bids
	BestAsk   *int64           `json:"best_ask"`  // null when no asks
	Spread    int64            `json:"spread"`    // 0 unless both sides are present
	Bids      []PriceLevelInfo `json:"bids"`      // sorted descending (highest first)
	Asks      []PriceLevelInfo `json:"asks"`      // sorted ascending (lowest first)
}

type PriceLevelInfo struct {
	Price    int64 `json:"price"`    // price in cents
	Quantity int64 `json:"quantity"` // aggregated quantity at this price
	Orders   int   `json:"orders"`
}

type OrderStatusResponse struct {
	OrderID           string `json:"order_id"`
	TraderID          string `json:"trader_id"`
	Symbol            string `json:"symbol"`
	Side              string `json:"side"`
	Price             int64  `json:"price"` // price in cents
	Quantity          int64  `json:"quantity"`
	FilledQuantity    int64  `json:"filled_quantity"`
	RemainingQuantity int64  `json:"remaining_quantity"`
	Status            string `json:"status"`
	Timestamp         int64  `json:"timestamp"` // unix timestamp in milliseconds
}

type OrderBookSizesResponse struct {
	OrderBooks map[string]int `json:"order_books"` // symbol -> live orders
}

type HealthResponse struct {
	Status         string `json:"status"`
	EngineRunning  bool   `json:"engine_running"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	OrdersInBook   int64  `json:"orders_in_book"`
	OrdersReceived int64  `json:"orders_received"`
}

type MetricsResponse struct {
	OrdersReceived         int64   `json:"orders_received"`
	OrdersProcessed        int64   `json:"orders_processed"`
	OrdersCancelled        int64   `json:"orders_cancelled"`
	OrdersInBook           int64   `json:"orders_in_book"`
	TradesExecuted         int64   `json:"trades_executed"`
	VolumeTraded           int64   `json:"volume_traded"`
	QueueDepth             int     `json:"queue_depth"`
	OrderBooks             int     `json:"order_books"`
	SubmitLatencyP50Ms     float64 `json:"submit_latency_p50_ms"`
	SubmitLatencyP99Ms     float64 `json:"submit_latency_p99_ms"`
	SubmitLatencyP999Ms    float64 `json:"submit_latency_p999_ms"`
	ThroughputOrdersPerSec float64 `json:"throughput_orders_per_sec"`
}

// TradeEvent is the payload published for every executed trade.
type TradeEvent struct {
	TradeID      string `json:"trade_id"`
	Symbol       string `json:"symbol"`
	BuyOrderID   string `json:"buy_order_id"`
	SellOrderID  string `json:"sell_order_id"`
	BuyTraderID  string `json:"buy_trader_id"`
	SellTraderID string `json:"sell_trader_id"`
	Price        int64  `json:"price"` // price in cents
	Quantity     int64  `json:"quantity"`
	Timestamp    int64  `json:"timestamp"` // unix timestamp in milliseconds
}

// MarketDataEvent is the payload published for every broadcast snapshot.
type MarketDataEvent struct {
	Symbol    string           `json:"symbol"`
	Timestamp int64            `json:"timestamp"`
	BestBid   *int64           `json:"best_bid"`
	BestAsk   *int64           `json:"best_ask"`
	Spread    int64            `json:"spread"`
	Bids      []PriceLevelInfo `json:"bids"`
	Asks      []PriceLevelInfo `json:"asks"`
}
