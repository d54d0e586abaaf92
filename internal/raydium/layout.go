package raydium

import (
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/near/borsh-go"
)

// Account sizes and field offsets used for decoding and RPC memcmp filters.
const (
	LiquidityStateV4Size = 752
	MarketStateV3Size    = 388
	TokenAccountSize     = 165

	PoolStatusOffset          = 0
	PoolBaseMintOffset        = 400
	PoolQuoteMintOffset       = 432
	PoolMarketProgramIDOffset = 560

	MarketBaseMintOffset  = 53
	MarketQuoteMintOffset = 85

	TokenAccountMintOffset  = 0
	TokenAccountOwnerOffset = 32

	// PoolStatusSwap is the status of an AMM that accepts swaps.
	PoolStatusSwap = 6
)

var (
	ErrShortAccountData = errors.New("account data too short")
)

// LiquidityState is the Raydium AMM v4 pool account. 128-bit counters are split
// in two u64 halves.
type LiquidityState struct {
	Status                 uint64
	Nonce                  uint64
	MaxOrder               uint64
	Depth                  uint64
	BaseDecimal            uint64
	QuoteDecimal           uint64
	State                  uint64
	ResetFlag              uint64
	MinSize                uint64
	VolMaxCutRatio         uint64
	AmountWaveRatio        uint64
	BaseLotSize            uint64
	QuoteLotSize           uint64
	MinPriceMultiplier     uint64
	MaxPriceMultiplier     uint64
	SystemDecimalValue     uint64
	MinSeparateNumerator   uint64
	MinSeparateDenominator uint64
	TradeFeeNumerator      uint64
	TradeFeeDenominator    uint64
	PnlNumerator           uint64
	PnlDenominator         uint64
	SwapFeeNumerator       uint64
	SwapFeeDenominator     uint64
	BaseNeedTakePnl        uint64
	QuoteNeedTakePnl       uint64
	QuoteTotalPnl          uint64
	BaseTotalPnl           uint64
	PoolOpenTime           uint64
	PunishPcAmount         uint64
	PunishCoinAmount       uint64
	OrderbookToInitTime    uint64

	SwapBaseInAmount    [2]uint64
	SwapQuoteOutAmount  [2]uint64
	SwapBase2QuoteFee   uint64
	SwapQuoteInAmount   [2]uint64
	SwapBaseOutAmount   [2]uint64
	SwapQuote2BaseFee   uint64

	BaseVault  solana.PublicKey
	QuoteVault solana.PublicKey

	BaseMint  solana.PublicKey
	QuoteMint solana.PublicKey
	LpMint    solana.PublicKey

	OpenOrders      solana.PublicKey
	MarketID        solana.PublicKey
	MarketProgramID solana.PublicKey
	TargetOrders    solana.PublicKey
	WithdrawQueue   solana.PublicKey
	LpVault         solana.PublicKey
	Owner           solana.PublicKey

	LpReserve uint64
	Padding   [3]uint64
}

// MarketState is the OpenBook (Serum v3) market account.
type MarketState struct {
	Head         [5]uint8
	AccountFlags [8]uint8

	OwnAddress       solana.PublicKey
	VaultSignerNonce uint64

	BaseMint  solana.PublicKey
	QuoteMint solana.PublicKey

	BaseVault         solana.PublicKey
	BaseDepositsTotal uint64
	BaseFeesAccrued   uint64

	QuoteVault         solana.PublicKey
	QuoteDepositsTotal uint64
	QuoteFeesAccrued   uint64

	QuoteDustThreshold uint64

	RequestQueue solana.PublicKey
	EventQueue   solana.PublicKey

	Bids solana.PublicKey
	Asks solana.PublicKey

	BaseLotSize  uint64
	QuoteLotSize uint64

	FeeRateBps uint64

	ReferrerRebatesAccrued uint64

	Tail [7]uint8
}

func DecodeLiquidityState(data []byte) (LiquidityState, error) {
	var state LiquidityState
	if len(data) < LiquidityStateV4Size {
		return state, fmt.Errorf("decode pool: %w: %d bytes", ErrShortAccountData, len(data))
	}
	if err := borsh.Deserialize(&state, data); err != nil {
		return state, fmt.Errorf("decode pool: %w", err)
	}
	return state, nil
}

func DecodeMarketState(data []byte) (MarketState, error) {
	var state MarketState
	if len(data) < MarketStateV3Size {
		return state, fmt.Errorf("decode market: %w: %d bytes", ErrShortAccountData, len(data))
	}
	if err := borsh.Deserialize(&state, data); err != nil {
		return state, fmt.Errorf("decode market: %w", err)
	}
	return state, nil
}

// DecodeTokenAccount decodes an SPL token account.
func DecodeTokenAccount(data []byte) (token.Account, error) {
	var acct token.Account
	if len(data) < TokenAccountSize {
		return acct, fmt.Errorf("decode token account: %w: %d bytes", ErrShortAccountData, len(data))
	}
	if err := acct.UnmarshalWithDecoder(bin.NewBinDecoder(data)); err != nil {
		return acct, fmt.Errorf("decode token account: %w", err)
	}
	return acct, nil
}

// DecodeMint decodes an SPL token mint.
func DecodeMint(data []byte) (token.Mint, error) {
	var mint token.Mint
	if err := mint.UnmarshalWithDecoder(bin.NewBinDecoder(data)); err != nil {
		return mint, fmt.Errorf("decode mint: %w", err)
	}
	return mint, nil
}
