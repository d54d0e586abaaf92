package raydium

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Default AMM v4 trade fee, used when the pool state carries none.
const (
	DefaultFeeNumerator   = 25
	DefaultFeeDenominator = 10000
)

// ComputeAmountOut computes the constant-product output with the trade fee
// taken from the input:
//
//	out = reserveOut * (in - fee) / (reserveIn + in - fee)
func ComputeAmountOut(
	amountIn uint64,
	reserveIn uint64,
	reserveOut uint64,
	feeNumerator uint64,
	feeDenominator uint64,
) (uint64, error) {

	if amountIn == 0 || reserveIn == 0 || reserveOut == 0 {
		return 0, fmt.Errorf("invalid inputs: amounts must be > 0")
	}
	if feeDenominator == 0 {
		return 0, fmt.Errorf("feeDenominator cannot be 0")
	}
	if feeNumerator >= feeDenominator {
		return 0, fmt.Errorf("fee %d/%d consumes the whole input", feeNumerator, feeDenominator)
	}

	// big.Int keeps reserve products from overflowing
	amountInBig := new(big.Int).SetUint64(amountIn)
	fee := new(big.Int).Mul(amountInBig, new(big.Int).SetUint64(feeNumerator))
	fee.Div(fee, new(big.Int).SetUint64(feeDenominator))
	amountInAfterFee := new(big.Int).Sub(amountInBig, fee)

	numerator := new(big.Int).Mul(amountInAfterFee, new(big.Int).SetUint64(reserveOut))
	denominator := new(big.Int).Add(new(big.Int).SetUint64(reserveIn), amountInAfterFee)

	amountOut := new(big.Int).Div(numerator, denominator)
	if !amountOut.IsUint64() {
		return 0, fmt.Errorf("output amount overflow")
	}
	return amountOut.Uint64(), nil
}

// ApplySlippage returns the minimum output for a slippage given in percent.
func ApplySlippage(amountOut uint64, slippagePercent int) uint64 {
	if slippagePercent >= 100 {
		return 0
	}
	if slippagePercent <= 0 {
		return amountOut
	}

	// minOut = amountOut * (100 - slippage) / 100
	result := new(big.Int).Mul(new(big.Int).SetUint64(amountOut), big.NewInt(int64(100-slippagePercent)))
	result.Div(result, big.NewInt(100))
	return result.Uint64()
}

// ToRawAmount scales a human amount to raw token units, rounding down.
func ToRawAmount(amount decimal.Decimal, decimals uint8) (uint64, error) {
	raw := amount.Shift(int32(decimals)).Floor().BigInt()
	if raw.Sign() < 0 || !raw.IsUint64() {
		return 0, fmt.Errorf("amount %s out of range", amount.String())
	}
	return raw.Uint64(), nil
}

// FromRawAmount converts raw token units to a human amount.
func FromRawAmount(raw uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -int32(decimals))
}
