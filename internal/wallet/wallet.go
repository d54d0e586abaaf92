package wallet

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Blockhash is a recent blockhash with the last block height it is valid at.
type Blockhash struct {
	Hash                 solana.Hash
	LastValidBlockHeight uint64
}

// SignTx signs a transaction with the wallet's private key
func (w *Wallet) SignTx(tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.pub) {
			return &w.priv
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}

// GetLatestBlockhash fetches the most recent blockhash at the wallet's commitment
func (w *Wallet) GetLatestBlockhash(ctx context.Context) (Blockhash, error) {
	resp, err := w.rpc.GetLatestBlockhash(ctx, w.cfg.Commitment)
	if err != nil {
		return Blockhash{}, fmt.Errorf("getLatestBlockhash failed: %w", err)
	}

	hash, err := solana.HashFromBase58(resp.Result.Value.Blockhash)
	if err != nil {
		return Blockhash{}, fmt.Errorf("invalid blockhash format: %w", err)
	}

	return Blockhash{
		Hash:                 hash,
		LastValidBlockHeight: resp.Result.Value.LastValidBlockHeight,
	}, nil
}

// BuildSignedTx creates a transaction paid by the wallet and signs it
func (w *Wallet) BuildSignedTx(instructions []solana.Instruction, blockhash solana.Hash) (*solana.Transaction, error) {
	tx, err := solana.NewTransaction(
		instructions,
		blockhash,
		solana.TransactionPayer(w.pub),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	if err := w.SignTx(tx); err != nil {
		return nil, err
	}

	return tx, nil
}
