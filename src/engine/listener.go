package engine

import (
	"fmt"
	"sync"
	"sync/atomic"
)

type TradeListener interface {
	OnTrade(trade Trade) error
}

type MarketDataListener interface {
	OnMarketData(snapshot *BookSnapshot) error
}

type TradeListenerFunc func(trade Trade) error

func (f TradeListenerFunc) OnTrade(trade Trade) error {
	return f(trade)
}

type MarketDataListenerFunc func(snapshot *BookSnapshot) error

func (f MarketDataListenerFunc) OnMarketData(snapshot *BookSnapshot) error {
	return f(snapshot)
}

// listenerRegistry is copy-on-write: readers load the current slice without
// locking, so registration never blocks or disturbs an in-flight fan-out.
type listenerRegistry[L any] struct {
	mu        sync.Mutex
	listeners atomic.Pointer[[]L]
}

func (r *listenerRegistry[L]) add(listener L) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var current []L
	if p := r.listeners.Load(); p != nil {
		current = *p
	}
	next := make([]L, len(current), len(current)+1)
	copy(next, current)
	next = append(next, listener)
	r.listeners.Store(&next)
}

func (r *listenerRegistry[L]) list() []L {
	if p := r.listeners.Load(); p != nil {
		return *p
	}
	return nil
}

func (r *listenerRegistry[L]) count() int {
	return len(r.list())
}

// deliver runs fn in its own failure boundary. A panic is converted to an
// error so a misbehaving listener never takes a worker down with it.
func deliver(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return fn()
}
