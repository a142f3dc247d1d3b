package models

import "auction-engine/src/engine"

func NewTradeEvent(trade engine.Trade) TradeEvent {
	return TradeEvent{
		TradeID:      trade.TradeID,
		Symbol:       trade.Symbol,
		BuyOrderID:   trade.BuyOrderID,
		SellOrderID:  trade.SellOrderID,
		BuyTraderID:  trade.BuyTraderID,
		SellTraderID: trade.SellTraderID,
		Price:        trade.Price,
		Quantity:     trade.Quantity,
		Timestamp:    trade.Timestamp.UnixMilli(),
	}
}

func NewOrderBookResponse(snapshot *engine.BookSnapshot, depth int) OrderBookResponse {
	bids, asks := snapshot.Levels(depth)
	resp := OrderBookResponse{
		Symbol:    snapshot.Symbol,
		Timestamp: snapshot.Timestamp.UnixMilli(),
		Spread:    snapshot.Spread(),
		Bids:      levelInfos(bids),
		Asks:      levelInfos(asks),
	}
	if bid, ok := snapshot.BestBid(); ok {
		resp.BestBid = &bid
	}
	if ask, ok := snapshot.BestAsk(); ok {
		resp.BestAsk = &ask
	}
	return resp
}

func NewMarketDataEvent(snapshot *engine.BookSnapshot, depth int) MarketDataEvent {
	book := NewOrderBookResponse(snapshot, depth)
	return MarketDataEvent{
		Symbol:    book.Symbol,
		Timestamp: book.Timestamp,
		BestBid:   book.BestBid,
		BestAsk:   book.BestAsk,
		Spread:    book.Spread,
		Bids:      book.Bids,
		Asks:      book.Asks,
	}
}

func NewOrderStatusResponse(order engine.OrderView) OrderStatusResponse {
	return OrderStatusResponse{
		OrderID:           order.ID,
		TraderID:          order.TraderID,
		Symbol:            order.Symbol,
		Side:              string(order.Side),
		Price:             order.Price,
		Quantity:          order.Quantity,
		FilledQuantity:    order.FilledQuantity(),
		RemainingQuantity: order.RemainingQuantity,
		Status:            string(order.Status),
		Timestamp:         order.Timestamp.UnixMilli(),
	}
}

func levelInfos(levels []engine.PriceLevel) []PriceLevelInfo {
	infos := make([]PriceLevelInfo, 0, len(levels))
	for _, level := range levels {
		infos = append(infos, PriceLevelInfo{
			Price:    level.Price,
			Quantity: level.Quantity,
			Orders:   level.Orders,
		})
	}
	return infos
}
