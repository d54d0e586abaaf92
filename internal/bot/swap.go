package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aman-zulfiqar/raydium-sniper/internal/executor"
	"github.com/aman-zulfiqar/raydium-sniper/internal/models"
	"github.com/aman-zulfiqar/raydium-sniper/internal/raydium"
	"github.com/sirupsen/logrus"
)

type swapRequest struct {
	side     string
	keys     *raydium.PoolKeys
	dir      raydium.Direction
	amountIn uint64
	slippage int
	attempts int

	// stop retrying once the caller's context is cancelled
	stopOnCancel bool
}

type swapOutcome struct {
	result   executor.Result
	minOut   uint64
	attempts int
}

// swap submits req until the first Confirmed or the attempt bound. Every
// attempt fetches a fresh blockhash and re-quotes the pool.
func (e *Engine) swap(ctx context.Context, req swapRequest, log *logrus.Entry) swapOutcome {
	sctx := context.WithoutCancel(ctx)

	var out swapOutcome
	for attempt := 1; attempt <= req.attempts; attempt++ {
		if req.stopOnCancel && ctx.Err() != nil {
			if out.attempts == 0 {
				out.result = executor.Result{Status: executor.NotConfirmed, Err: ctx.Err()}
			}
			break
		}
		out.attempts = attempt

		res, minOut, err := e.submit(sctx, req)
		if err != nil {
			res = executor.Result{Status: executor.NotConfirmed, Err: err}
		}
		out.result = res
		out.minOut = minOut

		if res.Status == executor.Confirmed {
			return out
		}

		log.WithFields(logrus.Fields{
			"side":      req.side,
			"attempt":   attempt,
			"max":       req.attempts,
			"status":    res.Status.String(),
			"signature": res.Signature,
		}).WithError(res.Err).Warn("swap attempt not confirmed")
	}

	if out.result.Err == nil {
		out.result.Err = fmt.Errorf("%s %s after %d attempts", req.side, out.result.Status, out.attempts)
	}
	return out
}

func (e *Engine) submit(ctx context.Context, req swapRequest) (executor.Result, uint64, error) {
	blockhash, err := e.deps.Wallet.GetLatestBlockhash(ctx)
	if err != nil {
		return executor.Result{}, 0, fmt.Errorf("blockhash: %w", err)
	}

	expected, err := e.deps.Quoter.AmountOut(ctx, req.keys, req.amountIn, req.dir)
	if err != nil {
		return executor.Result{}, 0, fmt.Errorf("quote: %w", err)
	}
	minOut := raydium.ApplySlippage(expected, req.slippage)

	ixs, err := raydium.BuildSwapInstructions(raydium.SwapParams{
		Keys:             req.keys,
		Owner:            e.deps.Wallet.PublicKey(),
		Direction:        req.dir,
		AmountIn:         req.amountIn,
		MinAmountOut:     minOut,
		ComputeUnitLimit: e.cfg.ComputeUnitLimit,
		ComputeUnitPrice: e.cfg.ComputeUnitPrice,
	})
	if err != nil {
		return executor.Result{}, minOut, err
	}

	tx, err := e.deps.Wallet.BuildSignedTx(ixs, blockhash.Hash)
	if err != nil {
		return executor.Result{}, minOut, fmt.Errorf("sign: %w", err)
	}

	start := time.Now()
	res := e.deps.Executor.ExecuteAndConfirm(ctx, tx, e.deps.Wallet.PrivateKey(), blockhash)
	e.deps.Metrics.SubmissionLatency.WithLabelValues(req.side, e.cfg.Executor).Observe(time.Since(start).Seconds())
	e.deps.Metrics.Submissions.WithLabelValues(req.side, e.cfg.Executor, res.Status.String()).Inc()

	return res, minOut, nil
}

// record journals the final outcome of a swap.
func (e *Engine) record(ctx context.Context, req swapRequest, out swapOutcome) {
	trade := &models.TradeEvent{
		Signature: out.result.Signature,
		Timestamp: time.Now().UTC(),
		Side:      req.side,
		Mint:      req.keys.BaseMint.String(),
		Pool:      req.keys.ID.String(),
		AmountIn:  req.amountIn,
		AmountOut: out.minOut,
		Executor:  e.cfg.Executor,
		Status:    out.result.Status.String(),
		Attempts:  out.attempts,
	}
	if out.result.Status != executor.Confirmed && out.result.Err != nil {
		trade.Error = out.result.Err.Error()
	}
	e.deps.Journal.Record(context.WithoutCancel(ctx), trade)
}

func isShutdown(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
