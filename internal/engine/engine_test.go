package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/book"
	"main/internal/journal"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/state"
	"main/pkg/exception"
)

type stubSession struct {
	marketDataRequests []string
	newOrders          []model.Order
	cancels            []model.Order
	statusRequests     []model.Order
	sendErr            error
}

func (s *stubSession) SendMarketDataRequest(requestID int64, symbol string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.marketDataRequests = append(s.marketDataRequests, symbol)
	return nil
}

func (s *stubSession) SendNewOrderSingle(o model.Order) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.newOrders = append(s.newOrders, o)
	return nil
}

func (s *stubSession) SendOrderCancelRequest(o model.Order) error {
	s.cancels = append(s.cancels, o)
	return nil
}

func (s *stubSession) SendOrderStatusRequest(o model.Order) error {
	s.statusRequests = append(s.statusRequests, o)
	return nil
}

func newTestEngine(t *testing.T, cfg Config, session *stubSession) *Engine {
	t.Helper()
	cfg.Session = session
	e, err := New(cfg)
	require.NoError(t, err)
	return e
}

func dec(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func depth(d int) *int {
	return &d
}

func executionReport(id int64, status enum.OrderStatus, orderQty, cumQty, leavesQty int64) model.ExecutionReport {
	return model.ExecutionReport{
		ClOrdID:      id,
		Symbol:       "EUR/USD",
		Side:         enum.SideBuy,
		Kind:         enum.OrderKindMarket,
		Status:       status,
		ExecType:     enum.ExecTypeTrade,
		OrderQty:     decimal.NewFromInt(orderQty),
		CumQty:       decimal.NewFromInt(cumQty),
		LeavesQty:    decimal.NewFromInt(leavesQty),
		TransactTime: time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC),
	}
}

func TestNewRequiresSession(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, exception.ErrNilSession)
}

func TestSubscribeIdempotent(t *testing.T) {
	session := &stubSession{}
	e := newTestEngine(t, Config{}, session)

	first, err := e.Subscribe("EUR/USD")
	require.NoError(t, err)
	second, err := e.Subscribe("EUR/USD")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, session.marketDataRequests, 1)

	_, err = e.Subscribe("")
	assert.ErrorIs(t, err, exception.ErrInvalidArgument)
}

func TestSubmitOrderAllocatesFreshID(t *testing.T) {
	session := &stubSession{}
	e := newTestEngine(t, Config{}, session)
	_, err := e.Subscribe("EUR/USD")
	require.NoError(t, err)

	// externally recovered orders already occupy low ids
	for _, id := range []int64{1, 2, 3} {
		o, err := model.NewOrder("buy_market", "EUR/USD", nil, decimal.NewFromInt(100))
		require.NoError(t, err)
		o.ClOrdID = id
		require.NoError(t, e.orders.Add(o))
	}

	id, err := e.SubmitOrder("buy_market", "EUR/USD", nil, decimal.NewFromInt(1000))
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)

	require.Len(t, session.newOrders, 1)
	assert.Equal(t, int64(4), session.newOrders[0].ClOrdID)
	assert.Equal(t, 4, e.NumOrders("EUR/USD"))
}

func TestSubmitDuplicateIDNotTransmitted(t *testing.T) {
	session := &stubSession{}
	e := newTestEngine(t, Config{}, session)

	o, err := model.NewOrder("buy_market", "EUR/USD", nil, decimal.NewFromInt(100))
	require.NoError(t, err)
	o.ClOrdID = 42
	require.NoError(t, e.Submit(o))
	require.Len(t, session.newOrders, 1)

	assert.ErrorIs(t, e.Submit(o), exception.ErrDuplicateOrderID)
	assert.Len(t, session.newOrders, 1, "duplicate id must not be transmitted")
}

func TestSubmitOrderValidation(t *testing.T) {
	session := &stubSession{}
	e := newTestEngine(t, Config{}, session)

	_, err := e.SubmitOrder("buy_limit", "EUR/USD", nil, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, exception.ErrOrderMissingPrice)

	_, err = e.SubmitOrder("hold", "EUR/USD", nil, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, exception.ErrOrderValidation)

	assert.Empty(t, session.newOrders)
}

func TestCancelAndStatusRequireOpenOrder(t *testing.T) {
	session := &stubSession{}
	e := newTestEngine(t, Config{}, session)

	assert.ErrorIs(t, e.CancelOrder(9), exception.ErrInvalidArgument)
	assert.ErrorIs(t, e.QueryOrderStatus(9), exception.ErrInvalidArgument)

	id, err := e.SubmitOrder("buy_market", "EUR/USD", nil, decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, e.CancelOrder(id))
	require.NoError(t, e.QueryOrderStatus(id))
	assert.Len(t, session.cancels, 1)
	assert.Len(t, session.statusRequests, 1)
}

func TestMarketDataFlowToCallbacks(t *testing.T) {
	session := &stubSession{}
	var ticks []book.Tick
	var tops []book.TopOfBook
	e := newTestEngine(t, Config{
		Callbacks: Callbacks{
			OnTick:      func(symbol string, tick book.Tick) { ticks = append(ticks, tick) },
			OnTopOfBook: func(symbol string, top book.TopOfBook) { tops = append(tops, top) },
		},
	}, session)
	_, err := e.Subscribe("EUR/USD")
	require.NoError(t, err)

	// unsubscribed instrument is dropped
	require.NoError(t, e.OnMarketDataUpdate(model.MarketDataUpdate{
		Symbol: "XAU/USD", Depth: depth(0), Bid: dec(2400),
	}))
	assert.Empty(t, ticks)

	// partial update completes the level across two messages
	require.NoError(t, e.OnMarketDataUpdate(model.MarketDataUpdate{
		Symbol: "EUR/USD", Depth: depth(0), Bid: dec(1.0850), Ask: dec(1.0852),
	}))
	assert.Empty(t, ticks)

	require.NoError(t, e.OnMarketDataUpdate(model.MarketDataUpdate{
		Symbol: "EUR/USD", Depth: depth(0), BidSize: dec(1000000), AskSize: dec(1500000),
	}))
	require.Len(t, ticks, 1)
	require.Len(t, tops, 1)
	assert.True(t, tops[0].Bid.Equal(decimal.NewFromFloat(1.0850)))

	bid, ask, err := e.Best("EUR/USD")
	require.NoError(t, err)
	assert.True(t, bid.Equal(decimal.NewFromFloat(1.0850)))
	assert.True(t, ask.Equal(decimal.NewFromFloat(1.0852)))

	_, _, err = e.Best("XAU/USD")
	assert.ErrorIs(t, err, exception.ErrUnknownInstrument)
}

func TestExecutionReportLifecycle(t *testing.T) {
	session := &stubSession{}
	var notified []model.ExecutionReport
	var netAtCallback decimal.Decimal
	e := newTestEngine(t, Config{
		Callbacks: Callbacks{
			OnExecutionReport: func(rep model.ExecutionReport, view LedgerView) {
				notified = append(notified, rep)
				net, err := view.NetPosition("EUR/USD")
				if err == nil {
					netAtCallback = net
				}
			},
		},
	}, session)
	_, err := e.Subscribe("EUR/USD")
	require.NoError(t, err)

	id, err := e.SubmitOrder("buy_market", "EUR/USD", nil, decimal.NewFromInt(1000))
	require.NoError(t, err)

	e.OnExecutionReport(executionReport(id, enum.OrderStatusPartiallyFilled, 1000, 400, 600))
	e.OnExecutionReport(executionReport(id, enum.OrderStatusFilled, 1000, 1000, 0))

	require.Len(t, notified, 2)
	assert.True(t, netAtCallback.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 0, e.NumOrdersAllSymbols())

	net, err := e.NetPosition("EUR/USD")
	require.NoError(t, err)
	assert.True(t, net.Equal(decimal.NewFromInt(1000)))
	assert.Len(t, e.History(), 2)
}

func TestUnknownQuantityReportRecordedNotNotified(t *testing.T) {
	session := &stubSession{}
	var notified int
	e := newTestEngine(t, Config{
		Callbacks: Callbacks{
			OnExecutionReport: func(model.ExecutionReport, LedgerView) { notified++ },
		},
	}, session)
	_, err := e.Subscribe("EUR/USD")
	require.NoError(t, err)

	e.OnExecutionReport(executionReport(77, enum.OrderStatusFilled, 100, 100, 0))

	assert.Equal(t, 0, notified)
	assert.Len(t, e.History(), 1)
	net, err := e.NetPosition("EUR/USD")
	require.NoError(t, err)
	assert.True(t, net.IsZero())
}

func TestJournalsReceiveTicksAndHistory(t *testing.T) {
	dir := t.TempDir()
	historyPath := filepath.Join(dir, "executions.log")
	tickPath := filepath.Join(dir, "ticks.log")
	tobPath := filepath.Join(dir, "top_of_book.log")

	historyCfg := journal.DefaultConfig(historyPath)
	historyCfg.Header = model.ExecutionHistoryHeader
	historyJournal, err := journal.NewWriter(historyCfg)
	require.NoError(t, err)
	tickJournal, err := journal.NewWriter(journal.DefaultConfig(tickPath))
	require.NoError(t, err)
	tobJournal, err := journal.NewWriter(journal.DefaultConfig(tobPath))
	require.NoError(t, err)

	session := &stubSession{}
	e := newTestEngine(t, Config{
		HistoryJournal: historyJournal,
		TickJournal:    tickJournal,
		TOBJournal:     tobJournal,
		StoreAllTicks:  true,
	}, session)
	require.NoError(t, e.Start(context.Background()))

	_, err = e.Subscribe("EUR/USD")
	require.NoError(t, err)

	require.NoError(t, e.OnMarketDataUpdate(model.MarketDataUpdate{
		Symbol: "EUR/USD", Depth: depth(0),
		Bid: dec(1.0850), Ask: dec(1.0852), BidSize: dec(1000000), AskSize: dec(1500000),
		Time: time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC),
	}))

	id, err := e.SubmitOrder("buy_market", "EUR/USD", nil, decimal.NewFromInt(100))
	require.NoError(t, err)
	e.OnExecutionReport(executionReport(id, enum.OrderStatusFilled, 100, 100, 0))

	require.NoError(t, e.Close())

	history, err := os.ReadFile(historyPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(history)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, model.ExecutionHistoryHeader, lines[0])
	assert.Contains(t, lines[1], "EUR/USD")

	ticks, err := os.ReadFile(tickPath)
	require.NoError(t, err)
	assert.Contains(t, string(ticks), "20251103-09:30:00.000,EUR/USD,0,1.085,1.0852")

	tob, err := os.ReadFile(tobPath)
	require.NoError(t, err)
	assert.Equal(t, "20251103-09:30:00.000,EUR/USD,1.085,1.0852", strings.TrimSpace(string(tob)))
}

func TestSnapshotPersistenceAndRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	session := &stubSession{}
	e := newTestEngine(t, Config{SnapshotPath: path, PersistPositions: true}, session)
	_, err := e.Subscribe("EUR/USD")
	require.NoError(t, err)

	id, err := e.SubmitOrder("buy_market", "EUR/USD", nil, decimal.NewFromInt(1000))
	require.NoError(t, err)
	e.OnExecutionReport(executionReport(id, enum.OrderStatusPartiallyFilled, 1000, 400, 600))

	snap, err := state.Read(path)
	require.NoError(t, err)
	require.Len(t, snap.OpenOrders, 1)
	assert.True(t, snap.OpenOrders[0].CumQty.Equal(decimal.NewFromInt(400)))

	restored := newTestEngine(t, Config{}, &stubSession{})
	require.NoError(t, restored.RestoreSnapshot(path))
	assert.Equal(t, 1, restored.NumOrdersAllSymbols())
	net, err := restored.NetPosition("EUR/USD")
	require.NoError(t, err)
	assert.True(t, net.Equal(decimal.NewFromInt(400)))

	// allocator resumes above the recovered id
	nextID, err := restored.SubmitOrder("buy_market", "EUR/USD", nil, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Greater(t, nextID, id)
}
