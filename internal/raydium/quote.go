package raydium

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// AccountsFetcher is the slice of the RPC client the quoter needs.
type AccountsFetcher interface {
	GetMultipleAccountsWithOpts(ctx context.Context, accounts []solana.PublicKey, opts *rpc.GetMultipleAccountsOpts) (*rpc.GetMultipleAccountsResult, error)
}

// Reserves are the raw vault balances of a pool.
type Reserves struct {
	Base  uint64
	Quote uint64
}

// Quoter prices swaps against live vault balances.
type Quoter struct {
	client     AccountsFetcher
	commitment rpc.CommitmentType
}

func NewQuoter(client AccountsFetcher, commitment rpc.CommitmentType) *Quoter {
	return &Quoter{client: client, commitment: commitment}
}

// Reserves fetches both pool vaults in one round trip.
func (q *Quoter) Reserves(ctx context.Context, keys *PoolKeys) (Reserves, error) {
	out, err := q.client.GetMultipleAccountsWithOpts(ctx,
		[]solana.PublicKey{keys.BaseVault, keys.QuoteVault},
		&rpc.GetMultipleAccountsOpts{Commitment: q.commitment},
	)
	if err != nil {
		return Reserves{}, fmt.Errorf("fetch vaults: %w", err)
	}
	if out == nil || len(out.Value) != 2 || out.Value[0] == nil || out.Value[1] == nil {
		return Reserves{}, fmt.Errorf("fetch vaults: missing vault account for pool %s", keys.ID)
	}

	base, err := DecodeTokenAccount(out.Value[0].Data.GetBinary())
	if err != nil {
		return Reserves{}, err
	}
	quote, err := DecodeTokenAccount(out.Value[1].Data.GetBinary())
	if err != nil {
		return Reserves{}, err
	}
	return Reserves{Base: base.Amount, Quote: quote.Amount}, nil
}

// AmountOut quotes amountIn in the given direction.
func (q *Quoter) AmountOut(ctx context.Context, keys *PoolKeys, amountIn uint64, dir Direction) (uint64, error) {
	r, err := q.Reserves(ctx, keys)
	if err != nil {
		return 0, err
	}
	reserveIn, reserveOut := r.Quote, r.Base
	if dir == BaseToQuote {
		reserveIn, reserveOut = r.Base, r.Quote
	}
	return ComputeAmountOut(amountIn, reserveIn, reserveOut, keys.FeeNumerator, keys.FeeDenominator)
}
