package snipelist

import (
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrInvalidMint = errors.New("invalid mint address")
	ErrNotFound    = errors.New("mint not in snipe list")
)

type Entry struct {
	Mint    string    `json:"mint"`
	AddedAt time.Time `json:"added_at"`
}

func ValidateMint(mint string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %s", ErrInvalidMint, mint)
	}
	return pk, nil
}
