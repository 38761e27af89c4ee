package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"

	"main/internal/archive"
	"main/internal/book"
	"main/internal/journal"
	"main/internal/ledger"
	"main/internal/model"
	"main/internal/obs"
	"main/internal/state"
	"main/pkg/exception"
)

// Session transmits requests to the trading venue. Implementations must not
// call back into the engine synchronously from these methods.
type Session interface {
	SendMarketDataRequest(requestID int64, symbol string) error
	SendNewOrderSingle(o model.Order) error
	SendOrderCancelRequest(o model.Order) error
	SendOrderStatusRequest(o model.Order) error
}

// Callbacks are invoked while the engine lock is held; they must be fast and
// must not call engine methods. Ledger access inside a callback goes through
// the provided view.
type Callbacks struct {
	OnTick            func(symbol string, tick book.Tick)
	OnTopOfBook       func(symbol string, top book.TopOfBook)
	OnExecutionReport func(rep model.ExecutionReport, view LedgerView)
}

// Config wires the engine's collaborators. Session is required, the rest is
// optional.
type Config struct {
	Session          Session
	Callbacks        Callbacks
	Metrics          *obs.Metrics
	HistoryJournal   *journal.Writer
	TickJournal      *journal.Writer
	TOBJournal       *journal.Writer
	Archive          *archive.Archive
	SnapshotPath     string
	PersistPositions bool
	StoreAllTicks    bool
}

// Engine reconciles market data and execution reports into depth books, an
// open-order ledger and per-instrument net positions. All mutation funnels
// through one lock; callbacks observe a consistent state.
type Engine struct {
	mu sync.Mutex

	session   Session
	callbacks Callbacks
	metrics   *obs.Metrics

	books      map[string]*book.DepthBook
	requestIDs map[string]int64
	nextReqID  int64

	orders    *ledger.OrderLedger
	positions *ledger.PositionLedger
	alloc     ledger.ClOrdIDAllocator

	history []model.ExecutionReport

	historyJournal *journal.Writer
	tickJournal    *journal.Writer
	tobJournal     *journal.Writer
	archive        *archive.Archive

	snapshotPath string
	persist      bool
	allTicks     bool
}

// LedgerView exposes read access to the ledgers during a callback. It is
// only valid for the duration of the callback invocation.
type LedgerView struct {
	e *Engine
}

// New creates an engine from the given configuration.
func New(cfg Config) (*Engine, error) {
	if cfg.Session == nil {
		return nil, exception.ErrNilSession
	}
	positions := ledger.NewPositionLedger()
	return &Engine{
		session:        cfg.Session,
		callbacks:      cfg.Callbacks,
		metrics:        cfg.Metrics,
		books:          make(map[string]*book.DepthBook),
		requestIDs:     make(map[string]int64),
		orders:         ledger.NewOrderLedger(positions),
		positions:      positions,
		historyJournal: cfg.HistoryJournal,
		tickJournal:    cfg.TickJournal,
		tobJournal:     cfg.TOBJournal,
		archive:        cfg.Archive,
		snapshotPath:   cfg.SnapshotPath,
		persist:        cfg.PersistPositions && cfg.SnapshotPath != "",
		allTicks:       cfg.StoreAllTicks,
	}, nil
}

// Start launches the journal writers.
func (e *Engine) Start(ctx context.Context) error {
	if e.historyJournal != nil {
		if err := e.historyJournal.Start(ctx); err != nil {
			return err
		}
	}
	if e.tickJournal != nil {
		if err := e.tickJournal.Start(ctx); err != nil {
			return err
		}
	}
	if e.tobJournal != nil {
		if err := e.tobJournal.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes the journals and the archive.
func (e *Engine) Close() error {
	var firstErr error
	if e.historyJournal != nil {
		if err := e.historyJournal.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.tickJournal != nil {
		if err := e.tickJournal.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.tobJournal != nil {
		if err := e.tobJournal.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := e.archive.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Subscribe registers an instrument and requests market data for it. The
// operation is idempotent; resubscribing returns the original request id.
func (e *Engine) Subscribe(symbol string) (int64, error) {
	if symbol == "" {
		return 0, fmt.Errorf("%w: empty symbol", exception.ErrInvalidArgument)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if id, ok := e.requestIDs[symbol]; ok {
		return id, nil
	}

	e.nextReqID++
	id := e.nextReqID
	e.books[symbol] = book.New(symbol)
	e.requestIDs[symbol] = id
	e.positions.Track(symbol)

	if err := e.session.SendMarketDataRequest(id, symbol); err != nil {
		logs.Errorf("market data request failed for %s: %v", symbol, err)
		return id, err
	}
	logs.Infof("subscribed %s, request id %d", symbol, id)
	return id, nil
}

// SubmitOrder validates and transmits a new order under a freshly allocated
// client order id.
func (e *Engine) SubmitOrder(orderType, symbol string, price *decimal.Decimal, quantity decimal.Decimal) (int64, error) {
	o, err := model.NewOrder(orderType, symbol, price, quantity)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	o.ClOrdID = e.alloc.Next(e.orders.Has)
	return o.ClOrdID, e.submitLocked(o)
}

// Submit registers and transmits an order carrying a caller-assigned id. An
// id colliding with an open order fails locally with ErrDuplicateOrderID.
func (e *Engine) Submit(o model.Order) error {
	if err := o.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.alloc.Seed(o.ClOrdID)
	return e.submitLocked(o)
}

// submitLocked adds the order to the open set before transmission so a reply
// race can never reference an unknown id, and a duplicate id is never sent.
func (e *Engine) submitLocked(o model.Order) error {
	if err := e.orders.Add(o); err != nil {
		return err
	}
	if err := e.session.SendNewOrderSingle(o); err != nil {
		logs.Errorf("order transmission failed: %v", err)
		return err
	}
	logs.Infof("order sent: %s", o)
	return nil
}

// CancelOrder requests cancellation of an open order.
func (e *Engine) CancelOrder(id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.orders.Get(id)
	if !ok {
		return fmt.Errorf("%w: ClOrdID %d not open", exception.ErrInvalidArgument, id)
	}
	return e.session.SendOrderCancelRequest(o)
}

// QueryOrderStatus requests a status-only execution report for an open order.
func (e *Engine) QueryOrderStatus(id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.orders.Get(id)
	if !ok {
		return fmt.Errorf("%w: ClOrdID %d not open", exception.ErrInvalidArgument, id)
	}
	return e.session.SendOrderStatusRequest(o)
}

// OnMarketDataUpdate merges a quote update into the instrument's depth book.
// Updates for instruments without a subscription are dropped.
func (e *Engine) OnMarketDataUpdate(u model.MarketDataUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, ok := e.books[u.Symbol]
	if !ok {
		return nil
	}
	e.metrics.IncMarketDataUpdate()

	tick, top, err := b.ApplyUpdate(u)
	if err != nil {
		logs.Errorf("quote update rejected for %s: %v", u.Symbol, err)
		return err
	}
	if tick == nil {
		return nil
	}

	e.metrics.IncCompletedTick()
	if e.allTicks && e.tickJournal != nil {
		line := fmt.Sprintf("%s,%s,%d,%s,%s,%s,%s",
			tick.Time.UTC().Format("20060102-15:04:05.000"),
			u.Symbol, tick.Depth, tick.Bid, tick.Ask, tick.BidSize, tick.AskSize)
		if err := e.tickJournal.TryAppend(line); err != nil {
			e.metrics.IncJournalDrop()
		}
	}
	if e.callbacks.OnTick != nil {
		start := time.Now()
		e.callbacks.OnTick(u.Symbol, *tick)
		e.metrics.ObserveCallbackLatency(time.Since(start))
	}

	if top == nil {
		return nil
	}
	e.metrics.IncTopOfBookChange()
	if e.allTicks && e.tobJournal != nil {
		line := fmt.Sprintf("%s,%s,%s,%s",
			top.Time.UTC().Format("20060102-15:04:05.000"), u.Symbol, top.Bid, top.Ask)
		if err := e.tobJournal.TryAppend(line); err != nil {
			e.metrics.IncJournalDrop()
		}
	}
	if e.callbacks.OnTopOfBook != nil {
		start := time.Now()
		e.callbacks.OnTopOfBook(u.Symbol, *top)
		e.metrics.ObserveCallbackLatency(time.Since(start))
	}
	return nil
}

// OnExecutionReport runs a report through the order ledger, appends it to the
// execution history and persists a snapshot when enabled.
func (e *Engine) OnExecutionReport(rep model.ExecutionReport) {
	start := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	known := e.orders.Has(rep.ClOrdID)
	res := e.orders.Apply(rep)
	e.metrics.ObserveReport(rep.Status)
	if !known && !rep.ExecType.IsStatusOnly() {
		e.metrics.IncUnknownReport()
	}

	if res.Record {
		e.history = append(e.history, res.Report)
		if e.historyJournal != nil {
			if err := e.historyJournal.TryAppend(res.Report.CSVRow()); err != nil {
				e.metrics.IncJournalDrop()
			}
		}
		if e.archive != nil {
			if err := e.archive.Append(res.Report); err != nil {
				logs.Errorf("archive append failed: %v", err)
			}
		}
		if e.persist {
			e.writeSnapshotLocked()
		}
	}

	if res.Notify && e.callbacks.OnExecutionReport != nil {
		cbStart := time.Now()
		e.callbacks.OnExecutionReport(res.Report, LedgerView{e: e})
		e.metrics.ObserveCallbackLatency(time.Since(cbStart))
	}
	e.metrics.ObserveReportLatency(time.Since(start))
}

// OnOrderCancelReject logs a rejected cancel request.
func (e *Engine) OnOrderCancelReject(id int64, reason string) {
	logs.Errorf("cancel rejected for ClOrdID %d: %s", id, reason)
}

// OnMarketDataRequestReject logs a rejected market data request.
func (e *Engine) OnMarketDataRequestReject(requestID int64, reason string) {
	logs.Errorf("market data request %d rejected: %s", requestID, reason)
}

// WriteSnapshot persists the current ledgers to the snapshot path.
func (e *Engine) WriteSnapshot() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writeSnapshotLocked()
}

func (e *Engine) writeSnapshotLocked() error {
	if e.snapshotPath == "" {
		return nil
	}
	start := time.Now()
	snap := state.Capture(e.orders, e.positions)
	if err := state.Write(e.snapshotPath, snap); err != nil {
		logs.Errorf("snapshot write failed: %v", err)
		return err
	}
	e.metrics.ObserveSnapshotLatency(time.Since(start))
	return nil
}

// RestoreSnapshot reloads ledgers from a snapshot file and seeds the order id
// allocator above the largest recovered id.
func (e *Engine) RestoreSnapshot(path string) error {
	snap, err := state.Read(path)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	state.Restore(snap, e.orders, e.positions, &e.alloc)
	logs.Infof("restored %d open orders, %d positions", len(snap.OpenOrders), len(snap.Positions))
	return nil
}

// History returns a copy of the recorded execution reports.
func (e *Engine) History() []model.ExecutionReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.ExecutionReport, len(e.history))
	copy(out, e.history)
	return out
}

// NumOrders counts open orders for one instrument.
func (e *Engine) NumOrders(symbol string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.orders.NumOrders(symbol)
}

// NumOrdersAllSymbols counts all open orders.
func (e *Engine) NumOrdersAllSymbols() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.orders.NumOrdersAllSymbols()
}

// OpenOrders returns copies of all open orders sorted by id.
func (e *Engine) OpenOrders() []model.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.orders.OpenOrders()
}

// NetPosition returns the net filled quantity for an instrument.
func (e *Engine) NetPosition(symbol string) (decimal.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positions.NetPosition(symbol)
}

// CanceledQuantity returns the at-risk cancel estimate for an instrument.
func (e *Engine) CanceledQuantity(symbol string) (decimal.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positions.CanceledQuantity(symbol)
}

// Best returns the cached top of book for a subscribed instrument.
func (e *Engine) Best(symbol string) (bid, ask decimal.Decimal, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.books[symbol]
	if !ok {
		return decimal.Zero, decimal.Zero, exception.ErrUnknownInstrument
	}
	bid, ask = b.Best()
	return bid, ask, nil
}

// NumOrders counts open orders for one instrument without re-locking.
func (v LedgerView) NumOrders(symbol string) int {
	return v.e.orders.NumOrders(symbol)
}

// NumOrdersAllSymbols counts all open orders without re-locking.
func (v LedgerView) NumOrdersAllSymbols() int {
	return v.e.orders.NumOrdersAllSymbols()
}

// NetPosition returns the net filled quantity without re-locking.
func (v LedgerView) NetPosition(symbol string) (decimal.Decimal, error) {
	return v.e.positions.NetPosition(symbol)
}

// OpenOrders returns copies of the open orders without re-locking.
func (v LedgerView) OpenOrders() []model.Order {
	return v.e.orders.OpenOrders()
}
