package filters

import (
	"context"
	"strings"

	"github.com/aman-zulfiqar/raydium-sniper/internal/raydium"
)

// RenouncedFreezeFilter checks the base mint's mint and freeze authorities.
type RenouncedFreezeFilter struct {
	accounts       *accounts
	verdicts       *verdictCache
	checkRenounced bool
	checkFreezable bool
}

func (f *RenouncedFreezeFilter) Name() string { return "renounced" }

func (f *RenouncedFreezeFilter) Execute(ctx context.Context, keys *raydium.PoolKeys) (Result, error) {
	// a cleared authority can never be set again
	cacheKey := "authorities:" + keys.BaseMint.String()
	if f.verdicts.known(ctx, cacheKey) {
		return Result{Ok: true}, nil
	}

	data, err := f.accounts.data(ctx, keys.BaseMint)
	if err != nil {
		return Result{}, err
	}
	mint, err := raydium.DecodeMint(data)
	if err != nil {
		return Result{}, err
	}

	var reasons []string
	if f.checkRenounced && mint.MintAuthority != nil {
		reasons = append(reasons, "mint authority not renounced")
	}
	if f.checkFreezable && mint.FreezeAuthority != nil {
		reasons = append(reasons, "freeze authority set")
	}
	if len(reasons) > 0 {
		return Result{Reason: strings.Join(reasons, ", ")}, nil
	}

	if mint.MintAuthority == nil && mint.FreezeAuthority == nil {
		f.verdicts.remember(ctx, cacheKey)
	}
	return Result{Ok: true}, nil
}
