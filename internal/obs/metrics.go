package obs

import (
	"sync/atomic"
	"time"

	"main/internal/model/enum"
)

const maxOrderStatus = int(enum.OrderStatusExpired)

// Metrics collects lightweight counters and latency stats.
type Metrics struct {
	statusCounts [maxOrderStatus + 1]uint64

	marketDataUpdates uint64
	completedTicks    uint64
	topOfBookChanges  uint64
	unknownReports    uint64
	journalDrops      uint64

	reportLatency   LatencyStats
	callbackLatency LatencyStats
	snapshotLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	StatusCounts      map[enum.OrderStatus]uint64
	MarketDataUpdates uint64
	CompletedTicks    uint64
	TopOfBookChanges  uint64
	UnknownReports    uint64
	JournalDrops      uint64
	ReportLatency     LatencySnapshot
	CallbackLatency   LatencySnapshot
	SnapshotLatency   LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveReport increments the per-status counter.
func (m *Metrics) ObserveReport(status enum.OrderStatus) {
	if m == nil {
		return
	}
	idx := int(status)
	if idx >= 0 && idx < len(m.statusCounts) {
		atomic.AddUint64(&m.statusCounts[idx], 1)
	}
}

// IncMarketDataUpdate records a processed market data update.
func (m *Metrics) IncMarketDataUpdate() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.marketDataUpdates, 1)
}

// IncCompletedTick records a fully populated depth level.
func (m *Metrics) IncCompletedTick() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.completedTicks, 1)
}

// IncTopOfBookChange records a top of book transition.
func (m *Metrics) IncTopOfBookChange() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.topOfBookChanges, 1)
}

// IncUnknownReport records an execution report for an untracked order.
func (m *Metrics) IncUnknownReport() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.unknownReports, 1)
}

// IncJournalDrop records a dropped journal line.
func (m *Metrics) IncJournalDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.journalDrops, 1)
}

// ObserveReportLatency measures report handling latency.
func (m *Metrics) ObserveReportLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.reportLatency.Observe(d)
}

// ObserveCallbackLatency measures subscriber callback latency.
func (m *Metrics) ObserveCallbackLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.callbackLatency.Observe(d)
}

// ObserveSnapshotLatency measures snapshot write latency.
func (m *Metrics) ObserveSnapshotLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.snapshotLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	statusCounts := make(map[enum.OrderStatus]uint64)
	for i := range m.statusCounts {
		if v := atomic.LoadUint64(&m.statusCounts[i]); v > 0 {
			statusCounts[enum.OrderStatus(i)] = v
		}
	}
	return Snapshot{
		StatusCounts:      statusCounts,
		MarketDataUpdates: atomic.LoadUint64(&m.marketDataUpdates),
		CompletedTicks:    atomic.LoadUint64(&m.completedTicks),
		TopOfBookChanges:  atomic.LoadUint64(&m.topOfBookChanges),
		UnknownReports:    atomic.LoadUint64(&m.unknownReports),
		JournalDrops:      atomic.LoadUint64(&m.journalDrops),
		ReportLatency:     m.reportLatency.Snapshot(),
		CallbackLatency:   m.callbackLatency.Snapshot(),
		SnapshotLatency:   m.snapshotLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
