package sim

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"

	"main/internal/model"
	"main/internal/model/enum"
)

const defaultQueueSize = 1024

// Config controls the simulated session behavior.
type Config struct {
	Seed        int64
	FillSteps   int
	RejectEvery int
	Latency     time.Duration
	QueueSize   int
}

// Session is an in-process venue stand-in. Requests synthesize execution
// reports which are delivered asynchronously from the Run loop, never from
// inside a Send call.
type Session struct {
	cfg     Config
	deliver func(model.ExecutionReport)

	mu    sync.Mutex
	rng   *rand.Rand
	count int64

	queue  chan model.ExecutionReport
	closed uint32
	wg     sync.WaitGroup
}

// NewSession creates a simulated session delivering reports to the given
// handler.
func NewSession(cfg Config, deliver func(model.ExecutionReport)) *Session {
	if cfg.FillSteps <= 0 {
		cfg.FillSteps = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return &Session{
		cfg:     cfg,
		deliver: deliver,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		queue:   make(chan model.ExecutionReport, cfg.QueueSize),
	}
}

// Run delivers queued reports until the context ends or Close drains the
// queue.
func (s *Session) Run(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case rep, ok := <-s.queue:
				if !ok {
					return
				}
				if s.cfg.Latency > 0 {
					time.Sleep(s.cfg.Latency)
				}
				s.deliver(rep)
			}
		}
	}()
}

// Close stops report delivery after the queue drains.
func (s *Session) Close() {
	if atomic.CompareAndSwapUint32(&s.closed, 0, 1) {
		close(s.queue)
	}
	s.wg.Wait()
}

// SendMarketDataRequest acknowledges a subscription. Quotes come from the
// generator, not from the session.
func (s *Session) SendMarketDataRequest(requestID int64, symbol string) error {
	logs.Infof("sim: market data request %d for %s", requestID, symbol)
	return nil
}

// SendNewOrderSingle synthesizes the full report lifecycle for an order:
// a New ack followed by either a rejection or a fill across FillSteps
// partials.
func (s *Session) SendNewOrderSingle(o model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.count++
	now := time.Now().UTC()

	ack := s.report(o, enum.OrderStatusNew, enum.ExecTypeNew, decimal.Zero, o.Quantity, now)
	s.enqueue(ack)

	if s.cfg.RejectEvery > 0 && s.count%int64(s.cfg.RejectEvery) == 0 {
		s.enqueue(s.report(o, enum.OrderStatusRejected, enum.ExecTypeCanceled, decimal.Zero, decimal.Zero, now))
		return nil
	}

	steps := s.cfg.FillSteps
	stepQty := o.Quantity.DivRound(decimal.NewFromInt(int64(steps)), 8)
	cum := decimal.Zero
	for i := 1; i < steps; i++ {
		cum = cum.Add(stepQty)
		s.enqueue(s.report(o, enum.OrderStatusPartiallyFilled, enum.ExecTypeTrade, cum, o.Quantity.Sub(cum), now))
	}
	s.enqueue(s.report(o, enum.OrderStatusFilled, enum.ExecTypeTrade, o.Quantity, decimal.Zero, now))
	return nil
}

// SendOrderCancelRequest synthesizes a cancellation report.
func (s *Session) SendOrderCancelRequest(o model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueue(s.report(o, enum.OrderStatusCanceled, enum.ExecTypeCanceled, o.CumQty, decimal.Zero, time.Now().UTC()))
	return nil
}

// SendOrderStatusRequest synthesizes a status-only report echoing the order's
// last known state.
func (s *Session) SendOrderStatusRequest(o model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rep := s.report(o, o.Status, enum.ExecTypeOrderStatus, o.CumQty, o.LeavesQty, time.Now().UTC())
	s.enqueue(rep)
	return nil
}

func (s *Session) report(o model.Order, status enum.OrderStatus, execType enum.ExecType, cumQty, leavesQty decimal.Decimal, now time.Time) model.ExecutionReport {
	return model.ExecutionReport{
		ClOrdID:      o.ClOrdID,
		Symbol:       o.Symbol,
		Side:         o.Side,
		Price:        o.Price,
		Kind:         o.Kind,
		Status:       status,
		ExecType:     execType,
		OrderQty:     o.Quantity,
		MinQty:       o.MinQuantity,
		CumQty:       cumQty,
		LeavesQty:    leavesQty,
		TransactTime: now,
	}
}

func (s *Session) enqueue(rep model.ExecutionReport) {
	if atomic.LoadUint32(&s.closed) != 0 {
		return
	}
	select {
	case s.queue <- rep:
	default:
		logs.Errorf("sim: report queue full, dropping ClOrdID %d", rep.ClOrdID)
	}
}
