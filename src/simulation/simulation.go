package simulation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"auction-engine/src/config"
	"auction-engine/src/engine"
)

// Simulation drives a set of random traders against a running engine.
type Simulation struct {
	matcher *engine.Matcher
	symbols []string
	traders []*Trader
}

var ErrNoSymbols = errors.New("simulation needs at least one symbol")

// New builds cfg.Traders traders over the non-blank symbols in cfg.Symbols.
func New(matcher *engine.Matcher, cfg config.SimulationConfig) (*Simulation, error) {
	symbols := make([]string, 0, len(cfg.Symbols))
	for _, symbol := range cfg.Symbols {
		if symbol = strings.TrimSpace(symbol); symbol != "" {
			symbols = append(symbols, symbol)
		}
	}
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}

	s := &Simulation{matcher: matcher, symbols: symbols}
	seed := uint64(time.Now().UnixNano())
	for i := 1; i <= cfg.Traders; i++ {
		// 2-4 orders per second
		trader := NewTrader(fmt.Sprintf("TRADER%02d", i), matcher, symbols, 2+i%3, seed+uint64(i))
		s.traders = append(s.traders, trader)
	}
	return s, nil
}

// Run blocks until ctx ends and every trader has returned, then logs a
// summary of the books.
func (s *Simulation) Run(ctx context.Context) {
	log.Info().
		Int("traders", len(s.traders)).
		Strs("symbols", s.symbols).
		Msg("Simulation started")

	var wg sync.WaitGroup
	for _, trader := range s.traders {
		wg.Add(1)
		go func(t *Trader) {
			defer wg.Done()
			t.Run(ctx)
		}(trader)
	}
	wg.Wait()

	s.logSummary()
}

func (s *Simulation) logSummary() {
	stats := s.matcher.Stats()
	log.Info().
		Int64("trades_executed", stats.TradesExecuted).
		Int64("volume_traded", stats.VolumeTraded).
		Int64("orders_received", stats.OrdersReceived).
		Msg("Simulation finished")

	sizes := s.matcher.GetOrderBookSizes()
	for _, symbol := range s.symbols {
		snapshot, ok := s.matcher.GetOrderBookSnapshot(symbol)
		if !ok {
			continue
		}
		event := log.Info().
			Str("symbol", symbol).
			Int("live_orders", sizes[symbol]).
			Int("bids", len(snapshot.Bids)).
			Int("asks", len(snapshot.Asks))
		if bid, ok := snapshot.BestBid(); ok {
			event = event.Int64("best_bid", bid)
		}
		if ask, ok := snapshot.BestAsk(); ok {
			event = event.Int64("best_ask", ask)
		}
		event.Msg("Final order book")
	}
}

// TradeLogger logs every trade, the way the simulation reports executions.
func TradeLogger() engine.TradeListener {
	return engine.TradeListenerFunc(func(trade engine.Trade) error {
		log.Info().
			Str("trade_id", trade.TradeID).
			Str("symbol", trade.Symbol).
			Int64("price", trade.Price).
			Int64("quantity", trade.Quantity).
			Str("buyer", trade.BuyTraderID).
			Str("seller", trade.SellTraderID).
			Msg("Trade executed")
		return nil
	})
}

// MarketDataLogger logs top of book for every non-empty snapshot.
func MarketDataLogger() engine.MarketDataListener {
	return engine.MarketDataListenerFunc(func(snapshot *engine.BookSnapshot) error {
		if snapshot.IsEmpty() {
			return nil
		}
		bid, _ := snapshot.BestBid()
		ask, _ := snapshot.BestAsk()
		log.Info().
			Str("symbol", snapshot.Symbol).
			Int64("best_bid", bid).
			Int64("best_ask", ask).
			Int64("spread", snapshot.Spread()).
			Msg("Market data")
		return nil
	})
}
