package filters

import (
	"context"
	"fmt"

	"github.com/aman-zulfiqar/raydium-sniper/internal/raydium"
)

// BurnFilter passes when the pool's LP supply has been burned to zero.
type BurnFilter struct {
	accounts *accounts
}

func (f *BurnFilter) Name() string { return "burn" }

func (f *BurnFilter) Execute(ctx context.Context, keys *raydium.PoolKeys) (Result, error) {
	data, err := f.accounts.data(ctx, keys.LpMint)
	if err != nil {
		return Result{}, err
	}
	mint, err := raydium.DecodeMint(data)
	if err != nil {
		return Result{}, err
	}

	if mint.Supply != 0 {
		return Result{Reason: fmt.Sprintf("lp supply %d not burned", mint.Supply)}, nil
	}
	return Result{Ok: true}, nil
}
