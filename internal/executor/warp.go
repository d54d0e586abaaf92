package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aman-zulfiqar/raydium-sniper/internal/constants"
	"github.com/aman-zulfiqar/raydium-sniper/internal/wallet"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type WarpConfig struct {
	URL        string
	FeeWallet  solana.PublicKey
	Fee        decimal.Decimal // SOL
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// Warp pays a fee transfer alongside the transaction and lets the relay
// land and confirm both.
type Warp struct {
	url       string
	feeWallet solana.PublicKey
	lamports  uint64
	http      *http.Client
	logger    *logrus.Logger
}

type warpRequest struct {
	Transactions    []string      `json:"transactions"`
	LatestBlockhash warpBlockhash `json:"latestBlockhash"`
}

type warpBlockhash struct {
	Blockhash            string `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}

type warpResponse struct {
	Confirmed bool   `json:"confirmed"`
	Signature string `json:"signature"`
	Error     string `json:"error"`
}

func NewWarp(cfg WarpConfig) *Warp {
	if cfg.URL == "" {
		cfg.URL = constants.WarpRelayURL
	}
	if cfg.FeeWallet.IsZero() {
		cfg.FeeWallet = constants.WarpFeeWallet
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = constants.WarpRelayTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Warp{
		url:       cfg.URL,
		feeWallet: cfg.FeeWallet,
		lamports:  solToLamports(cfg.Fee),
		http:      cfg.HTTPClient,
		logger:    cfg.Logger,
	}
}

func (w *Warp) ExecuteAndConfirm(ctx context.Context, tx *solana.Transaction, payer solana.PrivateKey, blockhash wallet.Blockhash) Result {
	sig := signature(tx)

	fee, err := feeTransfer(payer, w.feeWallet, w.lamports, blockhash.Hash)
	if err != nil {
		return notConfirmed(sig, fmt.Errorf("build fee transfer: %w", err))
	}

	feeEncoded, err := encodeTx(fee)
	if err != nil {
		return notConfirmed(sig, fmt.Errorf("encode fee transfer: %w", err))
	}
	txEncoded, err := encodeTx(tx)
	if err != nil {
		return notConfirmed(sig, fmt.Errorf("encode transaction: %w", err))
	}

	body, err := json.Marshal(warpRequest{
		Transactions: []string{feeEncoded, txEncoded},
		LatestBlockhash: warpBlockhash{
			Blockhash:            blockhash.Hash.String(),
			LastValidBlockHeight: blockhash.LastValidBlockHeight,
		},
	})
	if err != nil {
		return notConfirmed(sig, fmt.Errorf("marshal relay request: %w", err))
	}

	resp, err := w.post(ctx, body)
	if err != nil {
		w.logger.WithError(err).WithField("signature", sig).Debug("Relay request failed")
		return notConfirmed(sig, err)
	}

	if resp.Signature != "" {
		sig = resp.Signature
	}
	switch {
	case resp.Confirmed:
		return Result{Status: Confirmed, Signature: sig}
	case resp.Error != "":
		return Result{Status: Failed, Signature: sig, Err: errors.New(resp.Error)}
	default:
		return notConfirmed(sig, errors.New("relay did not confirm the transaction"))
	}
}

func (w *Warp) post(ctx context.Context, body []byte) (*warpResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("relay returned status %d", resp.StatusCode)
	}

	var out warpResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode relay response: %w", err)
	}
	return &out, nil
}
