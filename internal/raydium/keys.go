package raydium

import (
	"encoding/binary"
	"fmt"

	"github.com/aman-zulfiqar/raydium-sniper/internal/constants"
	"github.com/gagliardetto/solana-go"
)

// PoolKeys holds every account a v4 swap touches.
type PoolKeys struct {
	ID            solana.PublicKey
	BaseMint      solana.PublicKey
	QuoteMint     solana.PublicKey
	LpMint        solana.PublicKey
	BaseDecimals  uint8
	QuoteDecimals uint8
	ProgramID     solana.PublicKey
	Authority     solana.PublicKey
	OpenOrders    solana.PublicKey
	TargetOrders  solana.PublicKey
	BaseVault     solana.PublicKey
	QuoteVault    solana.PublicKey

	FeeNumerator   uint64
	FeeDenominator uint64

	MarketProgramID  solana.PublicKey
	MarketID         solana.PublicKey
	MarketAuthority  solana.PublicKey
	MarketBaseVault  solana.PublicKey
	MarketQuoteVault solana.PublicKey
	MarketBids       solana.PublicKey
	MarketAsks       solana.PublicKey
	MarketEventQueue solana.PublicKey
}

// NewPoolKeys joins a decoded pool with its market.
func NewPoolKeys(id solana.PublicKey, pool LiquidityState, market MarketState) (*PoolKeys, error) {
	authority, err := FindVaultSigner(market.VaultSignerNonce, pool.MarketID, pool.MarketProgramID)
	if err != nil {
		return nil, fmt.Errorf("market authority: %w", err)
	}

	feeNum, feeDen := pool.TradeFeeNumerator, pool.TradeFeeDenominator
	if feeDen == 0 {
		feeNum, feeDen = DefaultFeeNumerator, DefaultFeeDenominator
	}

	return &PoolKeys{
		ID:            id,
		BaseMint:      pool.BaseMint,
		QuoteMint:     pool.QuoteMint,
		LpMint:        pool.LpMint,
		BaseDecimals:  uint8(pool.BaseDecimal),
		QuoteDecimals: uint8(pool.QuoteDecimal),
		ProgramID:     constants.RaydiumAmmV4Program,
		Authority:     constants.RaydiumAuthorityV4,
		OpenOrders:    pool.OpenOrders,
		TargetOrders:  pool.TargetOrders,
		BaseVault:     pool.BaseVault,
		QuoteVault:    pool.QuoteVault,

		FeeNumerator:   feeNum,
		FeeDenominator: feeDen,

		MarketProgramID:  pool.MarketProgramID,
		MarketID:         pool.MarketID,
		MarketAuthority:  authority,
		MarketBaseVault:  market.BaseVault,
		MarketQuoteVault: market.QuoteVault,
		MarketBids:       market.Bids,
		MarketAsks:       market.Asks,
		MarketEventQueue: market.EventQueue,
	}, nil
}

// FindVaultSigner derives the OpenBook vault signer from the market nonce.
func FindVaultSigner(nonce uint64, marketID, marketProgramID solana.PublicKey) (solana.PublicKey, error) {
	seed := make([]byte, 8)
	binary.LittleEndian.PutUint64(seed, nonce)

	return solana.CreateProgramAddress(
		[][]byte{marketID.Bytes(), seed},
		marketProgramID,
	)
}

// AssociatedTokenAddress derives the owner's ATA for mint.
func AssociatedTokenAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive ata: %w", err)
	}
	return ata, nil
}
