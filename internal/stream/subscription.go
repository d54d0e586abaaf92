package stream

import (
	"encoding/binary"

	"github.com/aman-zulfiqar/raydium-sniper/internal/constants"
	"github.com/aman-zulfiqar/raydium-sniper/internal/raydium"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

type Kind string

const (
	KindMarket Kind = "market"
	KindPool   Kind = "pool"
	KindWallet Kind = "wallet"
)

// Subscription is one programSubscribe request.
type Subscription struct {
	Kind    Kind
	Program solana.PublicKey
	Filters []rpc.RPCFilter
}

// AccountEvent is a decoded programNotification.
type AccountEvent struct {
	Kind   Kind
	Pubkey solana.PublicKey
	Data   []byte
	Slot   uint64
}

// MarketSubscription watches OpenBook markets quoted in quoteMint.
func MarketSubscription(quoteMint solana.PublicKey) Subscription {
	return Subscription{
		Kind:    KindMarket,
		Program: constants.OpenBookProgram,
		Filters: []rpc.RPCFilter{
			{DataSize: raydium.MarketStateV3Size},
			memcmp(raydium.MarketQuoteMintOffset, quoteMint.Bytes()),
		},
	}
}

// PoolSubscription watches AMM v4 pools that trade against quoteMint on
// OpenBook and are open for swaps.
func PoolSubscription(quoteMint solana.PublicKey) Subscription {
	status := make([]byte, 8)
	binary.LittleEndian.PutUint64(status, raydium.PoolStatusSwap)

	return Subscription{
		Kind:    KindPool,
		Program: constants.RaydiumAmmV4Program,
		Filters: []rpc.RPCFilter{
			{DataSize: raydium.LiquidityStateV4Size},
			memcmp(raydium.PoolQuoteMintOffset, quoteMint.Bytes()),
			memcmp(raydium.PoolMarketProgramIDOffset, constants.OpenBookProgram.Bytes()),
			memcmp(raydium.PoolStatusOffset, status),
		},
	}
}

// WalletSubscription watches every token account owned by owner.
func WalletSubscription(owner solana.PublicKey) Subscription {
	return Subscription{
		Kind:    KindWallet,
		Program: solana.TokenProgramID,
		Filters: []rpc.RPCFilter{
			{DataSize: raydium.TokenAccountSize},
			memcmp(raydium.TokenAccountOwnerOffset, owner.Bytes()),
		},
	}
}

func memcmp(offset uint64, b []byte) rpc.RPCFilter {
	return rpc.RPCFilter{Memcmp: &rpc.RPCFilterMemcmp{Offset: offset, Bytes: solana.Base58(b)}}
}
