package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"main/internal/ledger"
	"main/internal/model"
)

// Snapshot captures open orders and net positions at a point in time. Two
// logical records: open orders keyed by client order id and positions keyed
// by instrument.
type Snapshot struct {
	Timestamp  int64           `json:"timestamp"`
	OpenOrders []model.Order   `json:"openOrders"`
	Positions  []PositionEntry `json:"positions"`
}

// PositionEntry is a single instrument position record.
type PositionEntry struct {
	Symbol      string          `json:"symbol"`
	NetQty      decimal.Decimal `json:"netQty"`
	CanceledQty decimal.Decimal `json:"canceledQty"`
}

// Capture builds a snapshot from the current ledgers.
func Capture(orders *ledger.OrderLedger, positions *ledger.PositionLedger) Snapshot {
	open := orders.OpenOrders()
	symbols := positions.Symbols()
	entries := make([]PositionEntry, 0, len(symbols))
	for _, symbol := range symbols {
		net, err := positions.NetPosition(symbol)
		if err != nil {
			continue
		}
		canceled, _ := positions.CanceledQuantity(symbol)
		entries = append(entries, PositionEntry{
			Symbol:      symbol,
			NetQty:      net,
			CanceledQty: canceled,
		})
	}
	return Snapshot{
		Timestamp:  time.Now().UTC().UnixNano(),
		OpenOrders: open,
		Positions:  entries,
	}
}

// Restore rebuilds the ledgers from a snapshot and seeds the allocator with
// the largest recovered order id.
func Restore(snap Snapshot, orders *ledger.OrderLedger, positions *ledger.PositionLedger, alloc *ledger.ClOrdIDAllocator) {
	orders.Restore(snap.OpenOrders)

	filled := make(map[string]decimal.Decimal, len(snap.Positions))
	canceled := make(map[string]decimal.Decimal, len(snap.Positions))
	for _, entry := range snap.Positions {
		filled[entry.Symbol] = entry.NetQty
		canceled[entry.Symbol] = entry.CanceledQty
	}
	positions.Restore(filled, canceled)

	var maxID int64
	for _, o := range snap.OpenOrders {
		if o.ClOrdID > maxID {
			maxID = o.ClOrdID
		}
	}
	alloc.Seed(maxID)
}

// Write stores a snapshot to disk as JSON.
func Write(path string, snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Read loads a snapshot from disk.
func Read(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Compare checks two snapshots for structural equality of orders and
// positions, ignoring timestamps.
func Compare(expected, actual Snapshot) error {
	if len(expected.OpenOrders) != len(actual.OpenOrders) {
		return fmt.Errorf("open order count mismatch: expected=%d actual=%d", len(expected.OpenOrders), len(actual.OpenOrders))
	}
	expectedOrders := make(map[int64]model.Order, len(expected.OpenOrders))
	for _, o := range expected.OpenOrders {
		expectedOrders[o.ClOrdID] = o
	}
	for _, o := range actual.OpenOrders {
		want, ok := expectedOrders[o.ClOrdID]
		if !ok {
			return fmt.Errorf("unexpected open order: %d", o.ClOrdID)
		}
		if err := compareOrder(want, o); err != nil {
			return err
		}
	}

	if len(expected.Positions) != len(actual.Positions) {
		return fmt.Errorf("position count mismatch: expected=%d actual=%d", len(expected.Positions), len(actual.Positions))
	}
	expectedPositions := make(map[string]PositionEntry, len(expected.Positions))
	for _, entry := range expected.Positions {
		expectedPositions[entry.Symbol] = entry
	}
	for _, entry := range actual.Positions {
		want, ok := expectedPositions[entry.Symbol]
		if !ok {
			return fmt.Errorf("unexpected position symbol: %s", entry.Symbol)
		}
		if !want.NetQty.Equal(entry.NetQty) {
			return fmt.Errorf("net position mismatch for %s: expected=%s actual=%s", entry.Symbol, want.NetQty, entry.NetQty)
		}
		if !want.CanceledQty.Equal(entry.CanceledQty) {
			return fmt.Errorf("canceled quantity mismatch for %s: expected=%s actual=%s", entry.Symbol, want.CanceledQty, entry.CanceledQty)
		}
	}
	return nil
}

func compareOrder(want, got model.Order) error {
	switch {
	case want.Symbol != got.Symbol,
		want.Side != got.Side,
		want.Kind != got.Kind,
		want.Status != got.Status,
		!want.Quantity.Equal(got.Quantity),
		!want.LeavesQty.Equal(got.LeavesQty),
		!want.CumQty.Equal(got.CumQty):
		return fmt.Errorf("open order mismatch for %d: expected=%+v actual=%+v", want.ClOrdID, want, got)
	}
	if (want.Price == nil) != (got.Price == nil) {
		return fmt.Errorf("open order price mismatch for %d", want.ClOrdID)
	}
	if want.Price != nil && !want.Price.Equal(*got.Price) {
		return fmt.Errorf("open order price mismatch for %d: expected=%s actual=%s", want.ClOrdID, want.Price, got.Price)
	}
	return nil
}
