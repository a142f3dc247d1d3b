package engine

import (
	"time"

	"github.com/google/uuid"
)

// Trade records one fill between a buy and a sell order. It carries ids
// rather than order pointers so it never observes later order mutations.
type Trade struct {
	TradeID      string
	BuyOrderID   string
	SellOrderID  string
	BuyTraderID  string
	SellTraderID string
	Symbol       string
	Price        int64 // price in cents
	Quantity     int64
	Timestamp    time.Time
}

func newTrade(buy, sell *Order, price, quantity int64) Trade {
	return Trade{
		TradeID:      uuid.New().String(),
		BuyOrderID:   buy.ID,
		SellOrderID:  sell.ID,
		BuyTraderID:  buy.TraderID,
		SellTraderID: sell.TraderID,
		Symbol:       buy.Symbol,
		Price:        price,
		Quantity:     quantity,
		Timestamp:    time.Now(),
	}
}
