package raydium

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/near/borsh-go"
)

const (
	InstructionSwapBaseIn uint8 = 9

	createIdempotent uint8 = 1
)

type Direction int

const (
	// QuoteToBase spends the quote token for the pool's base token.
	QuoteToBase Direction = iota
	// BaseToQuote sells the base token back to the quote token.
	BaseToQuote
)

func (d Direction) String() string {
	if d == QuoteToBase {
		return "buy"
	}
	return "sell"
}

// SwapParams describes one swap transaction.
type SwapParams struct {
	Keys         *PoolKeys
	Owner        solana.PublicKey
	Direction    Direction
	AmountIn     uint64
	MinAmountOut uint64

	// Compute budget instructions are skipped when ComputeUnitLimit is zero.
	ComputeUnitLimit uint32
	ComputeUnitPrice uint64
}

// BuildSwapInstructions returns the instruction list for a fixed-input swap.
// Buys create the base ATA idempotently; sells close it afterwards.
func BuildSwapInstructions(p SwapParams) ([]solana.Instruction, error) {
	if p.Keys == nil {
		return nil, fmt.Errorf("swap: pool keys are nil")
	}
	if p.AmountIn == 0 {
		return nil, fmt.Errorf("swap: amount in is zero")
	}

	baseATA, err := AssociatedTokenAddress(p.Owner, p.Keys.BaseMint)
	if err != nil {
		return nil, err
	}
	quoteATA, err := AssociatedTokenAddress(p.Owner, p.Keys.QuoteMint)
	if err != nil {
		return nil, err
	}

	var ixs []solana.Instruction
	if p.ComputeUnitLimit > 0 {
		ixs = append(ixs,
			computebudget.NewSetComputeUnitPriceInstruction(p.ComputeUnitPrice).Build(),
			computebudget.NewSetComputeUnitLimitInstruction(p.ComputeUnitLimit).Build(),
		)
	}

	source, dest := quoteATA, baseATA
	if p.Direction == BaseToQuote {
		source, dest = baseATA, quoteATA
	}

	if p.Direction == QuoteToBase {
		ixs = append(ixs, NewCreateIdempotentATAInstruction(p.Owner, baseATA, p.Owner, p.Keys.BaseMint))
	}

	swapIx, err := NewSwapBaseInInstruction(p.Keys, source, dest, p.Owner, p.AmountIn, p.MinAmountOut)
	if err != nil {
		return nil, err
	}
	ixs = append(ixs, swapIx)

	if p.Direction == BaseToQuote {
		ixs = append(ixs, token.NewCloseAccountInstruction(baseATA, p.Owner, p.Owner, nil).Build())
	}

	return ixs, nil
}

// NewSwapBaseInInstruction builds the AMM v4 swap instruction.
// Account order:
// 0. token program
// 1. amm
// 2. amm authority
// 3. amm open orders
// 4. amm target orders
// 5. pool base vault
// 6. pool quote vault
// 7. market program
// 8. market
// 9. bids
// 10. asks
// 11. event queue
// 12. market base vault
// 13. market quote vault
// 14. market vault signer
// 15. user source
// 16. user destination
// 17. owner (signer)
func NewSwapBaseInInstruction(
	keys *PoolKeys,
	source, dest, owner solana.PublicKey,
	amountIn, minAmountOut uint64,
) (solana.Instruction, error) {
	data, err := borsh.Serialize(struct {
		Instruction  uint8
		AmountIn     uint64
		MinAmountOut uint64
	}{
		Instruction:  InstructionSwapBaseIn,
		AmountIn:     amountIn,
		MinAmountOut: minAmountOut,
	})
	if err != nil {
		return nil, fmt.Errorf("encode swap data: %w", err)
	}

	return &solana.GenericInstruction{
		ProgID: keys.ProgramID,
		AccountValues: solana.AccountMetaSlice{
			{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
			{PublicKey: keys.ID, IsSigner: false, IsWritable: true},
			{PublicKey: keys.Authority, IsSigner: false, IsWritable: false},
			{PublicKey: keys.OpenOrders, IsSigner: false, IsWritable: true},
			{PublicKey: keys.TargetOrders, IsSigner: false, IsWritable: true},
			{PublicKey: keys.BaseVault, IsSigner: false, IsWritable: true},
			{PublicKey: keys.QuoteVault, IsSigner: false, IsWritable: true},
			{PublicKey: keys.MarketProgramID, IsSigner: false, IsWritable: false},
			{PublicKey: keys.MarketID, IsSigner: false, IsWritable: true},
			{PublicKey: keys.MarketBids, IsSigner: false, IsWritable: true},
			{PublicKey: keys.MarketAsks, IsSigner: false, IsWritable: true},
			{PublicKey: keys.MarketEventQueue, IsSigner: false, IsWritable: true},
			{PublicKey: keys.MarketBaseVault, IsSigner: false, IsWritable: true},
			{PublicKey: keys.MarketQuoteVault, IsSigner: false, IsWritable: true},
			{PublicKey: keys.MarketAuthority, IsSigner: false, IsWritable: false},
			{PublicKey: source, IsSigner: false, IsWritable: true},
			{PublicKey: dest, IsSigner: false, IsWritable: true},
			{PublicKey: owner, IsSigner: true, IsWritable: false},
		},
		DataBytes: data,
	}, nil
}

// NewCreateIdempotentATAInstruction builds CreateIdempotent on the ATA program.
func NewCreateIdempotentATAInstruction(payer, ata, owner, mint solana.PublicKey) solana.Instruction {
	return &solana.GenericInstruction{
		ProgID: solana.SPLAssociatedTokenAccountProgramID,
		AccountValues: solana.AccountMetaSlice{
			{PublicKey: payer, IsSigner: true, IsWritable: true},
			{PublicKey: ata, IsSigner: false, IsWritable: true},
			{PublicKey: owner, IsSigner: false, IsWritable: false},
			{PublicKey: mint, IsSigner: false, IsWritable: false},
			{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
			{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
		},
		DataBytes: []byte{createIdempotent},
	}
}
