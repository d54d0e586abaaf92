package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/aman-zulfiqar/raydium-sniper/internal/raydium"
	"github.com/aman-zulfiqar/raydium-sniper/internal/registry"
	"github.com/aman-zulfiqar/raydium-sniper/internal/wallet"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
)

// State is the lifecycle stage of a tracked base mint.
type State int

const (
	Idle State = iota
	Filtering
	Buying
	Held
	Selling
	Closed
	Abandoned
)

var stateNames = map[State]string{
	Idle:      "idle",
	Filtering: "filtering",
	Buying:    "buying",
	Held:      "held",
	Selling:   "selling",
	Closed:    "closed",
	Abandoned: "abandoned",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for st, name := range stateNames {
		if name == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == Closed || s == Abandoned
}

// Position is the engine's record for one base mint.
type Position struct {
	Mint          string    `json:"mint"`
	Pool          string    `json:"pool"`
	State         State     `json:"state"`
	BuySignature  string    `json:"buy_signature,omitempty"`
	SellSignature string    `json:"sell_signature,omitempty"`
	QuoteSpent    uint64    `json:"quote_spent"`
	TokenAmount   uint64    `json:"token_amount"`
	AcquiredAt    time.Time `json:"acquired_at,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
	LastError     string    `json:"last_error,omitempty"`

	keys     *raydium.PoolKeys
	ownsSlot bool
	pending  *walletUpdate
	// admitted but still queued for the one-token slot
	waiting bool
}

// walletUpdate is a token account notification waiting for its buy to land.
type walletUpdate struct {
	account solana.PublicKey
	token   token.Account
}

// Signer is the wallet surface the engine needs.
type Signer interface {
	PublicKey() solana.PublicKey
	PrivateKey() solana.PrivateKey
	AccountExists(ctx context.Context, pubkey solana.PublicKey) (bool, error)
	GetLatestBlockhash(ctx context.Context) (wallet.Blockhash, error)
	BuildSignedTx(instructions []solana.Instruction, blockhash solana.Hash) (*solana.Transaction, error)
}

type Markets interface {
	Get(ctx context.Context, id solana.PublicKey) (registry.Market, error)
}

type Quoter interface {
	AmountOut(ctx context.Context, keys *raydium.PoolKeys, amountIn uint64, dir raydium.Direction) (uint64, error)
}

type FilterChain interface {
	Evaluate(ctx context.Context, keys *raydium.PoolKeys) bool
}

type SnipeList interface {
	Contains(mint solana.PublicKey) bool
}
