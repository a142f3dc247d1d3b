package simulation

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"

	"auction-engine/src/engine"
)

const (
	basePrice     = 100.0
	priceStdDev   = 2.0
	minPrice      = 1.0
	minQuantity   = 100
	quantityRange = 900
)

// Submitter is the slice of the engine a trader needs.
type Submitter interface {
	SubmitOrder(order *engine.Order) error
}

// Trader submits random limit orders around basePrice at a fixed rate.
type Trader struct {
	ID              string
	symbols         []string
	ordersPerSecond int
	submitter       Submitter
	rng             *rand.Rand
}

func NewTrader(id string, submitter Submitter, symbols []string, ordersPerSecond int, seed uint64) *Trader {
	return &Trader{
		ID:              id,
		symbols:         symbols,
		ordersPerSecond: max(1, ordersPerSecond),
		submitter:       submitter,
		rng:             rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Run submits orders until ctx ends or the engine refuses them.
func (t *Trader) Run(ctx context.Context) {
	interval := time.Second / time.Duration(t.ordersPerSecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Debug().Str("trader_id", t.ID).Msg("Trader started")
	defer log.Debug().Str("trader_id", t.ID).Msg("Trader stopped")

	for {
		order := t.NextOrder()
		if err := t.submitter.SubmitOrder(order); err != nil {
			if errors.Is(err, engine.ErrEngineNotRunning) {
				return
			}
			log.Warn().Err(err).Str("trader_id", t.ID).Msg("Trader failed to submit order")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// NextOrder draws a symbol uniformly, a side by coin flip, a price from
// N(100, 2) floored at 1.00 and a quantity in [100, 999].
func (t *Trader) NextOrder() *engine.Order {
	symbol := t.symbols[t.rng.IntN(len(t.symbols))]

	side := engine.SideSell
	if t.rng.IntN(2) == 0 {
		side = engine.SideBuy
	}

	price := math.Max(minPrice, basePrice+t.rng.NormFloat64()*priceStdDev)
	cents := int64(math.Round(price * 100))
	quantity := int64(minQuantity + t.rng.IntN(quantityRange))

	return engine.NewOrder(t.ID, symbol, side, cents, quantity)
}
