package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

// ApplyResult describes the outcome of applying one execution report.
type ApplyResult struct {
	// Report is the normalized report to append to the execution history.
	// Reject-class reports carry zeroed quantity fields.
	Report model.ExecutionReport
	// Record reports whether the report belongs in the execution history.
	Record bool
	// Notify reports whether the user callback should be invoked.
	Notify bool
	// Removed reports whether the order left the open set.
	Removed bool
}

// OrderLedger owns the open-order set and applies execution-report
// transitions, forwarding quantity effects to the position ledger.
type OrderLedger struct {
	open      map[int64]*model.Order
	positions *PositionLedger
}

// NewOrderLedger creates an empty order ledger writing into positions.
func NewOrderLedger(positions *PositionLedger) *OrderLedger {
	return &OrderLedger{
		open:      make(map[int64]*model.Order),
		positions: positions,
	}
}

// Add registers a new open order. Ids collide only while an order is open.
func (l *OrderLedger) Add(o model.Order) error {
	if _, ok := l.open[o.ClOrdID]; ok {
		return exception.ErrDuplicateOrderID
	}
	cp := o
	l.open[o.ClOrdID] = &cp
	return nil
}

// Has reports whether an order id is currently open.
func (l *OrderLedger) Has(id int64) bool {
	_, ok := l.open[id]
	return ok
}

// Get returns a copy of an open order.
func (l *OrderLedger) Get(id int64) (model.Order, bool) {
	o, ok := l.open[id]
	if !ok {
		return model.Order{}, false
	}
	return *o, true
}

// OpenOrders returns copies of all open orders sorted by id.
func (l *OrderLedger) OpenOrders() []model.Order {
	out := make([]model.Order, 0, len(l.open))
	for _, o := range l.open {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClOrdID < out[j].ClOrdID })
	return out
}

// NumOrders counts open orders for one instrument.
func (l *OrderLedger) NumOrders(symbol string) int {
	n := 0
	for _, o := range l.open {
		if o.Symbol == symbol {
			n++
		}
	}
	return n
}

// NumOrdersAllSymbols counts all open orders.
func (l *OrderLedger) NumOrdersAllSymbols() int {
	return len(l.open)
}

// MaxID returns the largest open order id, or zero when empty.
func (l *OrderLedger) MaxID() int64 {
	var max int64
	for id := range l.open {
		if id > max {
			max = id
		}
	}
	return max
}

// Restore replaces the open set with recovered orders.
func (l *OrderLedger) Restore(orders []model.Order) {
	l.open = make(map[int64]*model.Order, len(orders))
	for _, o := range orders {
		cp := o
		l.open[o.ClOrdID] = &cp
	}
}

// Apply runs one execution report through the lifecycle state machine.
//
// Transitions are applied exactly once per report. A status-only report
// updates the stored status and nothing else. A reject-class report removes
// the order when known and always records a zero-quantity report; it never
// moves filled quantity. Quantity-bearing reports for unknown ids are
// recorded as anomalies without mutating any ledger.
func (l *OrderLedger) Apply(rep model.ExecutionReport) ApplyResult {
	if rep.ExecType.IsStatusOnly() {
		if o, ok := l.open[rep.ClOrdID]; ok {
			o.Status = rep.Status
		} else {
			logs.Errorf("order %d not found, order status: %s", rep.ClOrdID, rep.Status)
		}
		return ApplyResult{Report: rep}
	}

	if rep.Status.IsRejectClass() {
		action := "canceled"
		if rep.Status == enum.OrderStatusRejected {
			action = "rejected"
		}
		removed := false
		if o, ok := l.open[rep.ClOrdID]; ok {
			logs.Infof("order %s: %s", action, o)
			delete(l.open, rep.ClOrdID)
			removed = true
		} else {
			logs.Infof("order %d %s, but not found in open orders", rep.ClOrdID, action)
		}

		zeroed := rep
		zeroed.OrderQty = decimal.Zero
		zeroed.MinQty = decimal.Zero
		zeroed.CumQty = decimal.Zero
		zeroed.LeavesQty = decimal.Zero

		// cancellation does not move filled quantity
		l.positions.AddFilled(rep.Symbol, rep.Side, decimal.Zero)
		return ApplyResult{Report: zeroed, Record: true, Notify: true, Removed: removed}
	}

	o, ok := l.open[rep.ClOrdID]
	if !ok {
		logs.Errorf("%v: ClOrdID %d", exception.ErrUnknownOrderOnReport, rep.ClOrdID)
		return ApplyResult{Report: rep, Record: true}
	}

	prevStatus := o.Status
	o.Status = rep.Status
	removed := false

	switch {
	case rep.Status == enum.OrderStatusNew:
		o.OpenTime = rep.TransactTime

	case rep.Status == enum.OrderStatusPartiallyFilled && rep.LeavesQty.Sign() > 0:
		l.applyFillDelta(o, prevStatus, rep)
		o.LeavesQty = rep.LeavesQty
		o.CumQty = rep.CumQty

	case rep.Status == enum.OrderStatusFilled:
		l.applyFillDelta(o, prevStatus, rep)
		delete(l.open, rep.ClOrdID)
		removed = true

	case rep.Status.IsDoneForDayClass():
		delete(l.open, rep.ClOrdID)
		removed = true
	}

	return ApplyResult{Report: rep, Record: true, Notify: true, Removed: removed}
}

// applyFillDelta forwards the incremental fill and at-risk cancel estimate to
// the position ledger. The report carries cumulative quantities; the ledger
// accumulates only the change since the order's last reported fill so that
// repeated partial fills never double count.
func (l *OrderLedger) applyFillDelta(o *model.Order, prevStatus enum.OrderStatus, rep model.ExecutionReport) {
	prevCum := o.CumQty
	l.positions.AddFilled(rep.Symbol, rep.Side, rep.CumQty.Sub(prevCum))

	prevEstimate := decimal.Zero
	if prevStatus == enum.OrderStatusPartiallyFilled {
		prevEstimate = o.Quantity.Sub(prevCum)
	}
	estimate := rep.OrderQty.Sub(rep.CumQty)
	l.positions.AddCanceled(rep.Symbol, rep.Side, estimate.Sub(prevEstimate))
}
