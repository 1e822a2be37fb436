package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOptionSymbol(t *testing.T) {
	t.Run("call", func(t *testing.T) {
		expiry := time.Date(2026, time.June, 16, 0, 0, 0, 0, time.UTC)
		symbol, err := NewOptionSymbol("AAPL", expiry, 300, OptionTypeCall)
		require.Nil(t, err)
		assert.Equal(t, "AAPL260616C00300000", string(symbol))
	})

	t.Run("put with fractional strike", func(t *testing.T) {
		expiry := time.Date(2027, time.January, 16, 0, 0, 0, 0, time.UTC)
		symbol, err := NewOptionSymbol("iwm", expiry, 262.5, OptionTypePut)
		require.Nil(t, err)
		assert.Equal(t, "IWM270116P00262500", string(symbol))
	})

	t.Run("invalid type fails", func(t *testing.T) {
		_, err := NewOptionSymbol("AAPL", time.Now(), 300, OptionType("straddle"))
		assert.NotNil(t, err)
	})
}

func TestOptionSymbolPrefix(t *testing.T) {
	symbol := OptionSymbol("AAPL260616C00300000")
	assert.Equal(t, "O:AAPL260616C00300000", symbol.WithPrefix())
	assert.Equal(t, "AAPL260616C00300000", symbol.NoPrefix())

	prefixed := OptionSymbol("O:AAPL260616C00300000")
	assert.Equal(t, "O:AAPL260616C00300000", prefixed.WithPrefix())
	assert.Equal(t, "AAPL260616C00300000", prefixed.NoPrefix())
}

func TestOptionSymbolComponents(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		expiry := time.Date(2026, time.June, 16, 0, 0, 0, 0, time.UTC)
		symbol, err := NewOptionSymbol("AAPL", expiry, 300, OptionTypeCall)
		require.Nil(t, err)

		underlying, parsedExpiry, strike, optionType, err := symbol.Components()
		require.Nil(t, err)
		assert.Equal(t, "AAPL", underlying)
		assert.Equal(t, expiry, parsedExpiry)
		assert.Equal(t, 300.0, strike)
		assert.Equal(t, OptionTypeCall, optionType)
	})

	t.Run("prefixed symbol parses", func(t *testing.T) {
		underlying, _, strike, optionType, err := OptionSymbol("O:IWM270116P00262500").Components()
		require.Nil(t, err)
		assert.Equal(t, "IWM", underlying)
		assert.Equal(t, 262.5, strike)
		assert.Equal(t, OptionTypePut, optionType)
	})

	t.Run("short symbol fails", func(t *testing.T) {
		_, _, _, _, err := OptionSymbol("AAPL").Components()
		assert.NotNil(t, err)
	})
}
