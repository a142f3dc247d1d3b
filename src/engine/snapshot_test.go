package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotEmptyBook(t *testing.T) {
	snapshot := NewOrderBook("X").Snapshot()

	assert.Equal(t, "X", snapshot.Symbol)
	assert.True(t, snapshot.IsEmpty())
	_, ok := snapshot.BestBid()
	assert.False(t, ok)
	_, ok = snapshot.BestAsk()
	assert.False(t, ok)
	assert.Equal(t, int64(0), snapshot.Spread())
}

func TestSnapshotOneSidedSpreadIsZero(t *testing.T) {
	ob := NewOrderBook("X")
	ob.AddOrder(orderAt(SideBuy, 10000, 1, 0))

	snapshot := ob.Snapshot()
	bid, ok := snapshot.BestBid()
	require.True(t, ok)
	assert.Equal(t, int64(10000), bid)
	assert.Equal(t, int64(0), snapshot.Spread())
}

func TestSnapshotIsCopyOut(t *testing.T) {
	ob := NewOrderBook("X")
	ask := orderAt(SideSell, 10100, 10, 0)
	ob.AddOrder(ask)
	ob.AddOrder(orderAt(SideBuy, 9900, 10, time.Millisecond))

	snapshot := ob.Snapshot()
	assert.Equal(t, int64(200), snapshot.Spread())

	ob.AddOrder(orderAt(SideBuy, 10100, 4, 2*time.Millisecond))
	require.Len(t, ob.Match(), 1)

	require.Len(t, snapshot.Asks, 1)
	assert.Equal(t, int64(10), snapshot.Asks[0].RemainingQuantity)
	assert.Equal(t, StatusPending, snapshot.Asks[0].Status)
	assert.Equal(t, int64(6), ob.Snapshot().Asks[0].RemainingQuantity)
}

func TestSnapshotLevels(t *testing.T) {
	ob := NewOrderBook("X")
	ob.AddOrder(orderAt(SideBuy, 10000, 100, 0))
	ob.AddOrder(orderAt(SideBuy, 10000, 200, time.Millisecond))
	ob.AddOrder(orderAt(SideBuy, 9900, 50, 2*time.Millisecond))
	ob.AddOrder(orderAt(SideBuy, 9800, 10, 3*time.Millisecond))
	ob.AddOrder(orderAt(SideSell, 10100, 70, 4*time.Millisecond))

	bids, asks := ob.Snapshot().Levels(2)

	require.Len(t, bids, 2)
	assert.Equal(t, PriceLevel{Price: 10000, Quantity: 300, Orders: 2}, bids[0])
	assert.Equal(t, PriceLevel{Price: 9900, Quantity: 50, Orders: 1}, bids[1])
	require.Len(t, asks, 1)
	assert.Equal(t, int64(70), asks[0].Quantity)

	bids, _ = ob.Snapshot().Levels(0)
	assert.Empty(t, bids)
}
