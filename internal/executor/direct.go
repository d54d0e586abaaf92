package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aman-zulfiqar/raydium-sniper/internal/wallet"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"
)

var ErrBlockhashExpired = errors.New("blockhash expired before confirmation")

// DirectClient is the slice of the solana-go RPC client used by Direct.
type DirectClient interface {
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error)
}

type DirectConfig struct {
	Client       DirectClient
	Commitment   rpc.CommitmentType
	PollInterval time.Duration
	MaxPoll      time.Duration
	Logger       *logrus.Logger
}

// Direct sends through the configured RPC node and polls signature status
// until the commitment is reached or the blockhash expires.
type Direct struct {
	client     DirectClient
	commitment rpc.CommitmentType
	poll       time.Duration
	maxPoll    time.Duration
	logger     *logrus.Logger
}

func NewDirect(cfg DirectConfig) *Direct {
	if cfg.Commitment == "" {
		cfg.Commitment = rpc.CommitmentConfirmed
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.MaxPoll == 0 {
		cfg.MaxPoll = 2 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Direct{
		client:     cfg.Client,
		commitment: cfg.Commitment,
		poll:       cfg.PollInterval,
		maxPoll:    cfg.MaxPoll,
		logger:     cfg.Logger,
	}
}

func (d *Direct) ExecuteAndConfirm(ctx context.Context, tx *solana.Transaction, _ solana.PrivateKey, blockhash wallet.Blockhash) Result {
	sig, err := d.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: d.commitment,
	})
	if err != nil {
		return notConfirmed(signature(tx), fmt.Errorf("send transaction: %w", err))
	}

	log := d.logger.WithField("signature", sig.String())
	log.Debug("Transaction sent, waiting for confirmation")

	backoff := d.poll
	for {
		done, res := d.check(ctx, sig, blockhash.LastValidBlockHeight)
		if done {
			return res
		}

		// Exponential backoff
		select {
		case <-ctx.Done():
			return notConfirmed(sig.String(), ctx.Err())
		case <-time.After(backoff):
			backoff *= 2
			if backoff > d.maxPoll {
				backoff = d.maxPoll
			}
		}
	}
}

func (d *Direct) check(ctx context.Context, sig solana.Signature, lastValid uint64) (bool, Result) {
	statuses, err := d.client.GetSignatureStatuses(ctx, false, sig)
	if err != nil {
		d.logger.WithError(err).WithField("signature", sig.String()).Debug("Signature status poll failed")
	} else if statuses != nil && len(statuses.Value) > 0 && statuses.Value[0] != nil {
		status := statuses.Value[0]
		if status.Err != nil {
			return true, Result{Status: Failed, Signature: sig.String(), Err: fmt.Errorf("transaction failed: %v", status.Err)}
		}
		if reached(status.ConfirmationStatus, d.commitment) {
			return true, Result{Status: Confirmed, Signature: sig.String()}
		}
	}

	height, err := d.client.GetBlockHeight(ctx, d.commitment)
	if err != nil {
		d.logger.WithError(err).Debug("Block height poll failed")
		return false, Result{}
	}
	if height > lastValid {
		return true, notConfirmed(sig.String(), ErrBlockhashExpired)
	}
	return false, Result{}
}

func reached(status rpc.ConfirmationStatusType, commitment rpc.CommitmentType) bool {
	switch commitment {
	case rpc.CommitmentProcessed:
		return status != ""
	case rpc.CommitmentFinalized:
		return status == rpc.ConfirmationStatusFinalized
	default:
		return status == rpc.ConfirmationStatusConfirmed || status == rpc.ConfirmationStatusFinalized
	}
}
