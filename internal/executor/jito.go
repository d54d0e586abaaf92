package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	projectrpc "github.com/aman-zulfiqar/raydium-sniper/internal/rpc"
	"github.com/aman-zulfiqar/raydium-sniper/internal/wallet"
	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var ErrBundleNotLanded = errors.New("bundle did not land")

// BundleClient is the block engine JSON-RPC surface Jito needs.
type BundleClient interface {
	SendBundle(ctx context.Context, txs []string) (string, error)
	GetBundleStatuses(ctx context.Context, bundleIDs []string) (*projectrpc.BundleStatusesResponse, error)
}

type JitoConfig struct {
	Client      BundleClient
	TipAccounts []solana.PublicKey
	Fee         decimal.Decimal // SOL
	Polls       int
	Interval    time.Duration
	Logger      *logrus.Logger
}

// Jito sends [tip, tx] as one bundle and polls the block engine for its
// landing status.
type Jito struct {
	client   BundleClient
	tips     []solana.PublicKey
	lamports uint64
	polls    int
	interval time.Duration
	logger   *logrus.Logger
}

func NewJito(cfg JitoConfig) *Jito {
	if cfg.Polls <= 0 {
		cfg.Polls = 30
	}
	if cfg.Interval == 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Jito{
		client:   cfg.Client,
		tips:     cfg.TipAccounts,
		lamports: solToLamports(cfg.Fee),
		polls:    cfg.Polls,
		interval: cfg.Interval,
		logger:   cfg.Logger,
	}
}

func (j *Jito) ExecuteAndConfirm(ctx context.Context, tx *solana.Transaction, payer solana.PrivateKey, blockhash wallet.Blockhash) Result {
	sig := signature(tx)
	if len(j.tips) == 0 {
		return notConfirmed(sig, errors.New("no tip accounts configured"))
	}

	tip, err := feeTransfer(payer, lo.Sample(j.tips), j.lamports, blockhash.Hash)
	if err != nil {
		return notConfirmed(sig, fmt.Errorf("build tip transfer: %w", err))
	}

	tipEncoded, err := encodeTx(tip)
	if err != nil {
		return notConfirmed(sig, fmt.Errorf("encode tip transfer: %w", err))
	}
	txEncoded, err := encodeTx(tx)
	if err != nil {
		return notConfirmed(sig, fmt.Errorf("encode transaction: %w", err))
	}

	bundleID, err := j.client.SendBundle(ctx, []string{tipEncoded, txEncoded})
	if err != nil {
		return notConfirmed(sig, fmt.Errorf("send bundle: %w", err))
	}

	log := j.logger.WithFields(logrus.Fields{"signature": sig, "bundle": bundleID})
	log.Debug("Bundle sent, polling status")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for i := 0; i < j.polls; i++ {
		select {
		case <-ctx.Done():
			return notConfirmed(sig, ctx.Err())
		case <-ticker.C:
		}

		resp, err := j.client.GetBundleStatuses(ctx, []string{bundleID})
		if err != nil {
			log.WithError(err).Debug("Bundle status poll failed")
			continue
		}
		if len(resp.Result.Value) == 0 || resp.Result.Value[0] == nil {
			continue
		}

		status := resp.Result.Value[0]
		if status.Err.Failed() {
			return Result{Status: Failed, Signature: sig, Err: fmt.Errorf("bundle failed: %v", status.Err.Err)}
		}
		switch status.ConfirmationStatus {
		case "confirmed", "finalized":
			return Result{Status: Confirmed, Signature: sig}
		}
	}

	return notConfirmed(sig, ErrBundleNotLanded)
}
