package engine

import "time"

// BookSnapshot is a point-in-time copy of one book. Nothing in it aliases
// live book state.
type BookSnapshot struct {
	Symbol    string
	Timestamp time.Time
	Bids      []OrderView // best first
	Asks      []OrderView // best first
}

func (s *BookSnapshot) BestBid() (int64, bool) {
	if len(s.Bids) == 0 {
		return 0, false
	}
	return s.Bids[0].Price, true
}

func (s *BookSnapshot) BestAsk() (int64, bool) {
	if len(s.Asks) == 0 {
		return 0, false
	}
	return s.Asks[0].Price, true
}

// Spread is best ask minus best bid, or 0 when either side is empty.
func (s *BookSnapshot) Spread() int64 {
	bid, hasBid := s.BestBid()
	ask, hasAsk := s.BestAsk()
	if !hasBid || !hasAsk {
		return 0
	}
	return ask - bid
}

func (s *BookSnapshot) IsEmpty() bool {
	return len(s.Bids) == 0 && len(s.Asks) == 0
}

type PriceLevel struct {
	Price    int64
	Quantity int64
	Orders   int
}

// Levels aggregates remaining quantity per price, keeping at most depth
// levels per side.
func (s *BookSnapshot) Levels(depth int) (bids []PriceLevel, asks []PriceLevel) {
	return aggregateLevels(s.Bids, depth), aggregateLevels(s.Asks, depth)
}

func aggregateLevels(orders []OrderView, depth int) []PriceLevel {
	if depth <= 0 {
		return []PriceLevel{}
	}
	levels := make([]PriceLevel, 0, min(depth, len(orders)))
	for _, o := range orders {
		if n := len(levels); n > 0 && levels[n-1].Price == o.Price {
			levels[n-1].Quantity += o.RemainingQuantity
			levels[n-1].Orders++
			continue
		}
		if len(levels) >= depth {
			break
		}
		levels = append(levels, PriceLevel{Price: o.Price, Quantity: o.RemainingQuantity, Orders: 1})
	}
	return levels
}
