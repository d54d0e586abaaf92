package executor

import (
	"context"

	"github.com/aman-zulfiqar/raydium-sniper/internal/wallet"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
)

type Status int

const (
	NotConfirmed Status = iota
	Confirmed
	Failed
)

func (s Status) String() string {
	switch s {
	case Confirmed:
		return "confirmed"
	case Failed:
		return "failed"
	default:
		return "not_confirmed"
	}
}

// Result is the outcome of one submission attempt. Err carries the reason
// for anything but Confirmed.
type Result struct {
	Status    Status
	Signature string
	Err       error
}

// Executor submits a signed transaction and waits for an outcome. Transport
// failures are reported through Result, never returned or panicked.
type Executor interface {
	ExecuteAndConfirm(ctx context.Context, tx *solana.Transaction, payer solana.PrivateKey, blockhash wallet.Blockhash) Result
}

func notConfirmed(sig string, err error) Result {
	return Result{Status: NotConfirmed, Signature: sig, Err: err}
}

func signature(tx *solana.Transaction) string {
	if tx == nil || len(tx.Signatures) == 0 {
		return ""
	}
	return tx.Signatures[0].String()
}

func encodeTx(tx *solana.Transaction) (string, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", err
	}
	return base58.Encode(raw), nil
}

// solToLamports converts a SOL amount, truncating below one lamport.
func solToLamports(sol decimal.Decimal) uint64 {
	return uint64(sol.Shift(9).IntPart())
}

// feeTransfer builds a signed SOL transfer from payer to recipient that shares
// the main transaction's blockhash.
func feeTransfer(payer solana.PrivateKey, recipient solana.PublicKey, lamports uint64, blockhash solana.Hash) (*solana.Transaction, error) {
	ix := system.NewTransferInstruction(lamports, payer.PublicKey(), recipient).Build()
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, blockhash, solana.TransactionPayer(payer.PublicKey()))
	if err != nil {
		return nil, err
	}
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer.PublicKey()) {
			return &payer
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}
