package state

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/ledger"
	"main/internal/model"
	"main/internal/model/enum"
)

func TestSnapshotRoundTrip(t *testing.T) {
	positions := ledger.NewPositionLedger()
	orders := ledger.NewOrderLedger(positions)

	positions.Track("EUR/USD")
	positions.Track("XAU/USD")
	positions.AddFilled("EUR/USD", enum.SideBuy, decimal.NewFromInt(1500))
	positions.AddFilled("XAU/USD", enum.SideSell, decimal.NewFromInt(20))
	positions.AddCanceled("EUR/USD", enum.SideBuy, decimal.NewFromInt(100))

	price := decimal.NewFromFloat(1.0850)
	for id := int64(1); id <= 5; id++ {
		o, err := model.NewOrder("buy_limit", "EUR/USD", &price, decimal.NewFromInt(1000*id))
		require.NoError(t, err)
		o.ClOrdID = id * 3
		o.Status = enum.OrderStatusNew
		require.NoError(t, orders.Add(o))
	}

	snap := Capture(orders, positions)
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, Write(path, snap))

	loaded, err := Read(path)
	require.NoError(t, err)
	require.NoError(t, Compare(snap, loaded))

	freshPositions := ledger.NewPositionLedger()
	freshOrders := ledger.NewOrderLedger(freshPositions)
	var alloc ledger.ClOrdIDAllocator
	Restore(loaded, freshOrders, freshPositions, &alloc)

	require.NoError(t, Compare(snap, Capture(freshOrders, freshPositions)))

	// allocator resumes above the max recovered id
	next := alloc.Next(freshOrders.Has)
	assert.Equal(t, int64(16), next)

	net, err := freshPositions.NetPosition("EUR/USD")
	require.NoError(t, err)
	assert.True(t, net.Equal(decimal.NewFromInt(1500)))
}

func TestCompareDetectsDrift(t *testing.T) {
	positions := ledger.NewPositionLedger()
	orders := ledger.NewOrderLedger(positions)
	positions.Track("EUR/USD")
	positions.AddFilled("EUR/USD", enum.SideBuy, decimal.NewFromInt(10))

	snap := Capture(orders, positions)

	drifted := snap
	drifted.Positions = []PositionEntry{{
		Symbol: "EUR/USD",
		NetQty: decimal.NewFromInt(11),
	}}
	assert.Error(t, Compare(snap, drifted))
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
