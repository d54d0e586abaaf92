package filters

import (
	"context"
	"fmt"

	"github.com/aman-zulfiqar/raydium-sniper/internal/raydium"
	"github.com/shopspring/decimal"
)

// PoolSizeFilter bounds the quote-side liquidity. A zero bound is disabled.
type PoolSizeFilter struct {
	accounts *accounts
	decimals uint8
	min      decimal.Decimal
	max      decimal.Decimal
}

func (f *PoolSizeFilter) Name() string { return "pool_size" }

func (f *PoolSizeFilter) Execute(ctx context.Context, keys *raydium.PoolKeys) (Result, error) {
	data, err := f.accounts.data(ctx, keys.QuoteVault)
	if err != nil {
		return Result{}, err
	}
	vault, err := raydium.DecodeTokenAccount(data)
	if err != nil {
		return Result{}, err
	}

	size := raydium.FromRawAmount(vault.Amount, f.decimals)

	if !f.max.IsZero() && size.GreaterThan(f.max) {
		return Result{Reason: fmt.Sprintf("pool size %s > %s", size, f.max)}, nil
	}
	if !f.min.IsZero() && size.LessThan(f.min) {
		return Result{Reason: fmt.Sprintf("pool size %s < %s", size, f.min)}, nil
	}
	return Result{Ok: true}, nil
}
