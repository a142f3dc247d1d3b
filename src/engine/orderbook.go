package engine

import (
	"sync"
	"time"

	"github.com/google/btree"
)

const btreeDegree = 32

// orderItem is one resting order inside a priority tree. seq breaks ties
// between orders sharing price and timestamp so the tree never treats two
// distinct orders as equal.
type orderItem struct {
	order *Order
	seq   uint64
}

// Less puts the higher bid or the lower ask first, then the earlier order.
func (i *orderItem) Less(than btree.Item) bool {
	other := than.(*orderItem)
	if i.order.Price != other.order.Price {
		if i.order.Side == SideBuy {
			return i.order.Price > other.order.Price
		}
		return i.order.Price < other.order.Price
	}
	if !i.order.Timestamp.Equal(other.order.Timestamp) {
		return i.order.Timestamp.Before(other.order.Timestamp)
	}
	return i.seq < other.seq
}

type OrderBook struct {
	Symbol string
	Bids   *btree.BTree // best (highest) first
	Asks   *btree.BTree // best (lowest) first
	Orders map[string]*Order
	seq    uint64
	mu     sync.RWMutex
}

func NewOrderBook(symbol string) *OrderBook {
	return &OrderBook{
		Symbol: symbol,
		Bids:   btree.New(btreeDegree),
		Asks:   btree.New(btreeDegree),
		Orders: make(map[string]*Order),
	}
}

// AddOrder rests the order on its side of the book. It does not match;
// callers run Match when they want crossing orders to trade.
func (ob *OrderBook) AddOrder(order *Order) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	ob.seq++
	ob.tree(order.Side).ReplaceOrInsert(&orderItem{order: order, seq: ob.seq})
	ob.Orders[order.ID] = order
}

// CancelOrder cancels a live PENDING order. The tree entry stays behind and
// is discarded when it next reaches the top of the book.
func (ob *OrderBook) CancelOrder(orderID string) bool {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	order, exists := ob.Orders[orderID]
	if !exists {
		return false
	}
	if !order.Cancel() {
		return false
	}
	delete(ob.Orders, orderID)
	return true
}

// Match trades the top of book until it no longer crosses and returns the
// trades in execution order.
func (ob *OrderBook) Match() []Trade {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	trades := make([]Trade, 0)

	for ob.Bids.Len() > 0 && ob.Asks.Len() > 0 {
		bid := ob.Bids.Min().(*orderItem).order
		ask := ob.Asks.Min().(*orderItem).order

		// edge case: lazily drop cancelled orders once they surface
		if bid.Status() == StatusCancelled {
			ob.Bids.DeleteMin()
			continue
		}
		if ask.Status() == StatusCancelled {
			ob.Asks.DeleteMin()
			continue
		}
		// nothing left to trade, so no zero-quantity trade is emitted
		if bid.RemainingQuantity() <= 0 {
			ob.Bids.DeleteMin()
			delete(ob.Orders, bid.ID)
			continue
		}
		if ask.RemainingQuantity() <= 0 {
			ob.Asks.DeleteMin()
			delete(ob.Orders, ask.ID)
			continue
		}

		if bid.Price < ask.Price {
			break
		}

		// the earlier of the two orders sets the price, whichever side it is on
		price := ask.Price
		if bid.Timestamp.Before(ask.Timestamp) {
			price = bid.Price
		}

		quantity := min(bid.RemainingQuantity(), ask.RemainingQuantity())
		trades = append(trades, newTrade(bid, ask, price, quantity))

		bid.Fill(quantity)
		ask.Fill(quantity)

		if bid.IsFilled() {
			ob.Bids.DeleteMin()
			delete(ob.Orders, bid.ID)
		}
		if ask.IsFilled() {
			ob.Asks.DeleteMin()
			delete(ob.Orders, ask.ID)
		}
	}

	return trades
}

// Snapshot copies every non-cancelled resting order in priority order.
func (ob *OrderBook) Snapshot() *BookSnapshot {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	return &BookSnapshot{
		Symbol:    ob.Symbol,
		Timestamp: time.Now(),
		Bids:      collectResting(ob.Bids),
		Asks:      collectResting(ob.Asks),
	}
}

func (ob *OrderBook) LiveOrderCount() int {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	return len(ob.Orders)
}

func (ob *OrderBook) GetOrder(orderID string) (OrderView, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	order, exists := ob.Orders[orderID]
	if !exists {
		return OrderView{}, false
	}
	return order.View(), true
}

func (ob *OrderBook) tree(side OrderSide) *btree.BTree {
	if side == SideBuy {
		return ob.Bids
	}
	return ob.Asks
}

func collectResting(tree *btree.BTree) []OrderView {
	views := make([]OrderView, 0, tree.Len())
	tree.Ascend(func(item btree.Item) bool {
		order := item.(*orderItem).order
		if order.Status() != StatusCancelled {
			views = append(views, order.View())
		}
		return true
	})
	return views
}
