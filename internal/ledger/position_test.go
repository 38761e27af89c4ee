package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model/enum"
	"main/pkg/exception"
)

func TestPositionSigns(t *testing.T) {
	l := NewPositionLedger()

	l.AddFilled("EUR/USD", enum.SideBuy, decimal.NewFromInt(1000))
	l.AddFilled("EUR/USD", enum.SideSell, decimal.NewFromInt(300))

	net, err := l.NetPosition("EUR/USD")
	require.NoError(t, err)
	assert.True(t, net.Equal(decimal.NewFromInt(700)))
}

func TestUnknownSideIsSilentNoop(t *testing.T) {
	l := NewPositionLedger()
	l.Track("EUR/USD")

	l.AddFilled("EUR/USD", enum.Side(9), decimal.NewFromInt(50))
	l.AddCanceled("EUR/USD", enum.Side(9), decimal.NewFromInt(50))

	net, err := l.NetPosition("EUR/USD")
	require.NoError(t, err)
	assert.True(t, net.IsZero())
	canceled, err := l.CanceledQuantity("EUR/USD")
	require.NoError(t, err)
	assert.True(t, canceled.IsZero())
}

func TestNetPositionUnknownInstrument(t *testing.T) {
	l := NewPositionLedger()

	_, err := l.NetPosition("XAU/USD")
	assert.ErrorIs(t, err, exception.ErrUnknownInstrument)

	// ingestion path creates entries on demand instead
	l.AddFilled("XAU/USD", enum.SideBuy, decimal.NewFromInt(10))
	net, err := l.NetPosition("XAU/USD")
	require.NoError(t, err)
	assert.True(t, net.Equal(decimal.NewFromInt(10)))
}

func TestSymbolsSorted(t *testing.T) {
	l := NewPositionLedger()
	l.Track("XAU/USD")
	l.Track("EUR/USD")
	l.Track("GBP/USD")

	assert.Equal(t, []string{"EUR/USD", "GBP/USD", "XAU/USD"}, l.Symbols())
}
