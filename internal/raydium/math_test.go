package raydium

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeAmountOut(t *testing.T) {
	tests := []struct {
		name       string
		amountIn   uint64
		reserveIn  uint64
		reserveOut uint64
		want       uint64
	}{
		// fee = 1000*25/10000 = 2, in = 998, out = 998*1_000_000/(1_000_000+998)
		{name: "small trade", amountIn: 1000, reserveIn: 1_000_000, reserveOut: 1_000_000, want: 997},
		{name: "large trade", amountIn: 1_000_000, reserveIn: 1_000_000, reserveOut: 1_000_000, want: 499374},
		{name: "overflow-safe", amountIn: math.MaxUint32, reserveIn: math.MaxUint64 / 2, reserveOut: math.MaxUint64 / 2, want: 4284229875},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeAmountOut(tt.amountIn, tt.reserveIn, tt.reserveOut, DefaultFeeNumerator, DefaultFeeDenominator)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeAmountOut_Invalid(t *testing.T) {
	_, err := ComputeAmountOut(0, 1, 1, 25, 10000)
	assert.Error(t, err)

	_, err = ComputeAmountOut(1, 1, 1, 25, 0)
	assert.Error(t, err)

	_, err = ComputeAmountOut(1, 1, 1, 10, 10)
	assert.Error(t, err)
}

func TestApplySlippage(t *testing.T) {
	assert.Equal(t, uint64(800), ApplySlippage(1000, 20))
	assert.Equal(t, uint64(1000), ApplySlippage(1000, 0))
	assert.Equal(t, uint64(0), ApplySlippage(1000, 100))
	assert.Equal(t, uint64(99), ApplySlippage(111, 10))
}

func TestRawAmounts(t *testing.T) {
	raw, err := ToRawAmount(decimal.RequireFromString("0.001"), 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), raw)

	raw, err = ToRawAmount(decimal.RequireFromString("1.2345678"), 6)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_234_567), raw)

	_, err = ToRawAmount(decimal.RequireFromString("-1"), 6)
	assert.Error(t, err)

	assert.Equal(t, "1.5", FromRawAmount(1_500_000, 6).String())
}
