package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrEngineNotRunning = errors.New("matching engine is not running")
	ErrInvalidOrder     = errors.New("invalid order")
)

// Matcher owns one order book per symbol and funnels every submission, for
// every symbol, through a single intake worker. That worker is the only
// place matching happens, so orders trade in exactly the order they were
// dequeued.
type Matcher struct {
	orderBooks sync.Map // symbol -> *OrderBook
	queue      chan *Order

	tradeListeners      listenerRegistry[TradeListener]
	marketDataListeners listenerRegistry[MarketDataListener]

	options   Options
	lifecycle sync.Mutex
	run       atomic.Pointer[runState]
	// last run whose workers may still be alive after a timed-out Stop
	previous *runState

	ordersReceived  atomic.Int64
	ordersProcessed atomic.Int64
	ordersCancelled atomic.Int64
	tradesExecuted  atomic.Int64
	volumeTraded    atomic.Int64
}

type runState struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}
}

func newRunState() *runState {
	ctx, cancel := context.WithCancel(context.Background())
	return &runState{ctx: ctx, cancel: cancel, done: make(chan struct{})}
}

type Stats struct {
	OrdersReceived  int64
	OrdersProcessed int64
	OrdersCancelled int64
	TradesExecuted  int64
	VolumeTraded    int64
	QueueDepth      int
	OrderBooks      int
}

func NewMatcher() *Matcher {
	return NewMatcherWithOptions(DefaultOptions())
}

func NewMatcherWithOptions(options Options) *Matcher {
	options = options.withDefaults()
	return &Matcher{
		queue:   make(chan *Order, options.QueueCapacity),
		options: options,
	}
}

// Start launches the intake worker and the broadcaster. Calling it on a
// running engine does nothing. If a previous Stop gave up on its workers,
// Start blocks until they have exited so only one intake worker ever runs.
func (m *Matcher) Start() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if m.run.Load() != nil {
		return
	}

	if prev := m.previous; prev != nil {
		select {
		case <-prev.done:
		default:
			log.Warn().Msg("Waiting for workers of the previous run to exit")
			<-prev.done
		}
		m.previous = nil
	}

	rs := newRunState()
	rs.wg.Add(2)
	go m.runOrderProcessor(rs)
	go m.runBroadcaster(rs)
	go func() {
		rs.wg.Wait()
		close(rs.done)
	}()
	m.run.Store(rs)

	log.Info().
		Int("queue_capacity", m.options.QueueCapacity).
		Dur("broadcast_interval", m.options.BroadcastInterval).
		Msg("Matching engine started")
}

// Stop signals both workers and waits up to ShutdownTimeout for them. Orders
// still queued when the intake worker exits stay queued and are processed
// if the engine is started again.
func (m *Matcher) Stop() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	rs := m.run.Swap(nil)
	if rs == nil {
		return
	}
	rs.cancel()
	m.previous = rs

	timer := time.NewTimer(m.options.ShutdownTimeout)
	defer timer.Stop()

	select {
	case <-rs.done:
		log.Info().
			Int("queue_depth", len(m.queue)).
			Msg("Matching engine stopped")
	case <-timer.C:
		log.Warn().
			Dur("timeout", m.options.ShutdownTimeout).
			Int("queue_depth", len(m.queue)).
			Msg("Matching engine stop timeout exceeded, abandoning workers")
	}
}

func (m *Matcher) IsRunning() bool {
	return m.run.Load() != nil
}

// SubmitOrder creates the symbol's book if needed and queues the order. It
// returns as soon as the order is queued; matching happens asynchronously.
func (m *Matcher) SubmitOrder(order *Order) error {
	if err := order.Validate(); err != nil {
		return err
	}

	rs := m.run.Load()
	if rs == nil {
		return ErrEngineNotRunning
	}

	m.GetOrCreateOrderBook(order.Symbol)

	select {
	case m.queue <- order:
		m.ordersReceived.Add(1)
		return nil
	case <-rs.ctx.Done():
		return ErrEngineNotRunning
	}
}

// CancelOrder is applied synchronously against the symbol's book.
func (m *Matcher) CancelOrder(symbol, orderID string) bool {
	orderBook, ok := m.GetOrderBook(symbol)
	if !ok {
		return false
	}
	if !orderBook.CancelOrder(orderID) {
		return false
	}
	m.ordersCancelled.Add(1)
	return true
}

func (m *Matcher) GetOrderBookSnapshot(symbol string) (*BookSnapshot, bool) {
	orderBook, ok := m.GetOrderBook(symbol)
	if !ok {
		return nil, false
	}
	return orderBook.Snapshot(), true
}

func (m *Matcher) GetOrderBookSizes() map[string]int {
	sizes := make(map[string]int)
	m.forEachOrderBook(func(orderBook *OrderBook) {
		sizes[orderBook.Symbol] = orderBook.LiveOrderCount()
	})
	return sizes
}

func (m *Matcher) GetOrderBook(symbol string) (*OrderBook, bool) {
	v, ok := m.orderBooks.Load(symbol)
	if !ok {
		return nil, false
	}
	return v.(*OrderBook), true
}

func (m *Matcher) GetOrCreateOrderBook(symbol string) *OrderBook {
	if ob, ok := m.GetOrderBook(symbol); ok {
		return ob
	}
	// edge case: concurrent creators race here, LoadOrStore keeps exactly one
	v, _ := m.orderBooks.LoadOrStore(symbol, NewOrderBook(symbol))
	return v.(*OrderBook)
}

func (m *Matcher) AddTradeListener(listener TradeListener) {
	m.tradeListeners.add(listener)
}

func (m *Matcher) AddMarketDataListener(listener MarketDataListener) {
	m.marketDataListeners.add(listener)
}

func (m *Matcher) Stats() Stats {
	books := 0
	m.forEachOrderBook(func(*OrderBook) { books++ })

	return Stats{
		OrdersReceived:  m.ordersReceived.Load(),
		OrdersProcessed: m.ordersProcessed.Load(),
		OrdersCancelled: m.ordersCancelled.Load(),
		TradesExecuted:  m.tradesExecuted.Load(),
		VolumeTraded:    m.volumeTraded.Load(),
		QueueDepth:      len(m.queue),
		OrderBooks:      books,
	}
}

func (m *Matcher) forEachOrderBook(fn func(*OrderBook)) {
	m.orderBooks.Range(func(_, v any) bool {
		fn(v.(*OrderBook))
		return true
	})
}

func (m *Matcher) runOrderProcessor(rs *runState) {
	defer rs.wg.Done()

	for {
		// stop wins over a non-empty queue
		if rs.ctx.Err() != nil {
			return
		}
		select {
		case <-rs.ctx.Done():
			return
		case order := <-m.queue:
			m.processOrder(order)
		}
	}
}

func (m *Matcher) processOrder(order *Order) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("order_id", order.ID).
				Str("symbol", order.Symbol).
				Str("panic", fmt.Sprint(r)).
				Msg("Error processing order")
		}
	}()

	orderBook := m.GetOrCreateOrderBook(order.Symbol)
	orderBook.AddOrder(order)
	trades := orderBook.Match()

	for _, trade := range trades {
		m.tradesExecuted.Add(1)
		m.volumeTraded.Add(trade.Quantity)
		m.notifyTradeListeners(trade)
	}
	m.ordersProcessed.Add(1)

	if len(trades) > 0 {
		log.Debug().
			Str("order_id", order.ID).
			Str("symbol", order.Symbol).
			Int("trades_count", len(trades)).
			Msg("Executed trades")
	}
}

func (m *Matcher) runBroadcaster(rs *runState) {
	defer rs.wg.Done()

	ticker := time.NewTicker(m.options.BroadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rs.ctx.Done():
			return
		case <-ticker.C:
			m.distributeMarketData()
		}
	}
}

// distributeMarketData sends every book's snapshot, changed or not.
func (m *Matcher) distributeMarketData() {
	if m.marketDataListeners.count() == 0 {
		return
	}
	m.forEachOrderBook(func(orderBook *OrderBook) {
		m.notifyMarketDataListeners(orderBook.Snapshot())
	})
}

func (m *Matcher) notifyTradeListeners(trade Trade) {
	for i, listener := range m.tradeListeners.list() {
		if err := deliver(func() error { return listener.OnTrade(trade) }); err != nil {
			log.Error().
				Err(err).
				Int("listener", i).
				Str("trade_id", trade.TradeID).
				Str("symbol", trade.Symbol).
				Msg("Error notifying trade listener")
		}
	}
}

func (m *Matcher) notifyMarketDataListeners(snapshot *BookSnapshot) {
	for i, listener := range m.marketDataListeners.list() {
		if err := deliver(func() error { return listener.OnMarketData(snapshot) }); err != nil {
			log.Error().
				Err(err).
				Int("listener", i).
				Str("symbol", snapshot.Symbol).
				Msg("Error notifying market data listener")
		}
	}
}
