package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

type OrderStatus string

const (
	StatusPending         OrderStatus = "PENDING"
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	StatusFilled          OrderStatus = "FILLED"
	StatusCancelled       OrderStatus = "CANCELLED"
)

// Order is a plain limit order. Terms are fixed at creation; remaining
// quantity and status change only through Fill and Cancel, which the owning
// order book calls under its write lock.
//
// edge case: price stored as int64 in cents to avoid floating-point precision errors
type Order struct {
	ID        string
	TraderID  string
	Symbol    string
	Side      OrderSide
	Price     int64 // price in cents
	Quantity  int64
	Timestamp time.Time

	remaining int64
	status    OrderStatus
	mu        sync.Mutex
}

// NewOrder stamps the order with a fresh id and the current time. The
// timestamp drives tie-breaks and trade pricing, so it reflects creation,
// not the moment the engine dequeues it.
func NewOrder(traderID, symbol string, side OrderSide, price, quantity int64) *Order {
	return &Order{
		ID:        uuid.New().String(),
		TraderID:  traderID,
		Symbol:    symbol,
		Side:      side,
		Price:     price,
		Quantity:  quantity,
		Timestamp: time.Now(),
		remaining: quantity,
		status:    StatusPending,
	}
}

// Validate rejects terms the book cannot trade: non-positive quantity or
// price, an unknown side, or an empty symbol.
func (o *Order) Validate() error {
	switch {
	case o.Symbol == "":
		return fmt.Errorf("%w: symbol is required", ErrInvalidOrder)
	case o.Side != SideBuy && o.Side != SideSell:
		return fmt.Errorf("%w: unknown side %q", ErrInvalidOrder, o.Side)
	case o.Quantity <= 0:
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidOrder, o.Quantity)
	case o.Price <= 0:
		return fmt.Errorf("%w: price must be positive, got %d", ErrInvalidOrder, o.Price)
	}
	return nil
}

func (o *Order) RemainingQuantity() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.remaining
}

func (o *Order) FilledQuantity() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.Quantity - o.remaining
}

func (o *Order) Status() OrderStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

func (o *Order) IsFilled() bool {
	return o.RemainingQuantity() == 0
}

// Fill reduces the remaining quantity and moves the order to PARTIALLY_FILLED
// or FILLED. Quantities larger than what remains are clamped.
func (o *Order) Fill(quantity int64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if quantity <= 0 || o.status == StatusFilled || o.status == StatusCancelled {
		return
	}
	if quantity > o.remaining {
		quantity = o.remaining
	}
	o.remaining -= quantity

	if o.remaining == 0 {
		o.status = StatusFilled
	} else {
		o.status = StatusPartiallyFilled
	}
}

// Cancel moves a PENDING order to CANCELLED. Orders that have traded at all
// stay cancel-proof.
func (o *Order) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status != StatusPending {
		return false
	}
	o.status = StatusCancelled
	return true
}

// View returns an immutable copy of the order's current state.
func (o *Order) View() OrderView {
	o.mu.Lock()
	defer o.mu.Unlock()

	return OrderView{
		ID:                o.ID,
		TraderID:          o.TraderID,
		Symbol:            o.Symbol,
		Side:              o.Side,
		Price:             o.Price,
		Quantity:          o.Quantity,
		RemainingQuantity: o.remaining,
		Status:            o.status,
		Timestamp:         o.Timestamp,
	}
}

// OrderView is a detached copy of an Order, safe to hand to other goroutines.
type OrderView struct {
	ID                string
	TraderID          string
	Symbol            string
	Side              OrderSide
	Price             int64
	Quantity          int64
	RemainingQuantity int64
	Status            OrderStatus
	Timestamp         time.Time
}

func (v OrderView) FilledQuantity() int64 {
	return v.Quantity - v.RemainingQuantity
}
