package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model/enum"
)

// ExecutionReport is a decoded execution report delivered by the session
// layer. Immutable once constructed; the engine appends every non-status-only
// report to its execution history.
type ExecutionReport struct {
	ClOrdID      int64
	Symbol       string
	Side         enum.Side
	Price        *decimal.Decimal
	Kind         enum.OrderKind
	Status       enum.OrderStatus
	ExecType     enum.ExecType
	OrderQty     decimal.Decimal
	MinQty       decimal.Decimal
	CumQty       decimal.Decimal
	LeavesQty    decimal.Decimal
	TransactTime time.Time
}

// ExecutionHistoryHeader is the first line of the execution history journal.
const ExecutionHistoryHeader = "transactTime,ClOrdID,Symbol,Side,Price,OrdType,OrdStatus,OrderQty,MinQty,CumQty,LeavesQty"

// CSVRow renders the report as an execution history journal line.
func (r ExecutionReport) CSVRow() string {
	price := ""
	if r.Price != nil {
		price = r.Price.String()
	}
	return strings.Join([]string{
		r.TransactTime.UTC().Format("20060102-15:04:05.000"),
		fmt.Sprintf("%d", r.ClOrdID),
		r.Symbol,
		r.Side.FIXCode(),
		price,
		r.Kind.FIXCode(),
		r.Status.FIXCode(),
		r.OrderQty.String(),
		r.MinQty.String(),
		r.CumQty.String(),
		r.LeavesQty.String(),
	}, ",")
}

func (r ExecutionReport) String() string {
	return fmt.Sprintf("ClOrdID: %d, symbol: %s, side: %s, status: %s, orderQty: %s, cumQty: %s, leavesQty: %s",
		r.ClOrdID, r.Symbol, r.Side, r.Status, r.OrderQty, r.CumQty, r.LeavesQty)
}
