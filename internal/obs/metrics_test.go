package obs

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"main/internal/model/enum"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()

	m.IncMarketDataUpdate()
	m.IncMarketDataUpdate()
	m.IncCompletedTick()
	m.IncTopOfBookChange()
	m.IncUnknownReport()
	m.IncJournalDrop()
	m.ObserveReport(enum.OrderStatusFilled)
	m.ObserveReport(enum.OrderStatusFilled)
	m.ObserveReport(enum.OrderStatusRejected)
	m.ObserveReportLatency(10 * time.Microsecond)
	m.ObserveReportLatency(30 * time.Microsecond)

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.MarketDataUpdates)
	assert.Equal(t, uint64(1), snap.CompletedTicks)
	assert.Equal(t, uint64(1), snap.TopOfBookChanges)
	assert.Equal(t, uint64(1), snap.UnknownReports)
	assert.Equal(t, uint64(1), snap.JournalDrops)
	assert.Equal(t, uint64(2), snap.StatusCounts[enum.OrderStatusFilled])
	assert.Equal(t, uint64(1), snap.StatusCounts[enum.OrderStatusRejected])
	assert.Equal(t, uint64(2), snap.ReportLatency.Count)
	assert.Equal(t, 10*time.Microsecond, snap.ReportLatency.Min)
	assert.Equal(t, 30*time.Microsecond, snap.ReportLatency.Max)
	assert.Equal(t, 20*time.Microsecond, snap.ReportLatency.Avg)
}

func TestMetricsNilReceiver(t *testing.T) {
	var m *Metrics
	m.IncMarketDataUpdate()
	m.ObserveReport(enum.OrderStatusNew)
	assert.Equal(t, Snapshot{}, m.Snapshot())
}

func TestLatencyStatsConcurrent(t *testing.T) {
	var l LatencyStats
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				l.Observe(time.Duration(base+1) * time.Millisecond)
			}
		}(i)
	}
	wg.Wait()

	snap := l.Snapshot()
	assert.Equal(t, uint64(8000), snap.Count)
	assert.Equal(t, time.Millisecond, snap.Min)
	assert.Equal(t, 8*time.Millisecond, snap.Max)
}
