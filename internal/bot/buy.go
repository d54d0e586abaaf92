package bot

import (
	"context"
	"time"

	"github.com/aman-zulfiqar/raydium-sniper/internal/executor"
	"github.com/aman-zulfiqar/raydium-sniper/internal/models"
	"github.com/aman-zulfiqar/raydium-sniper/internal/raydium"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// Buy runs the entry pipeline for a newly opened pool: dedup, single-token
// gate, delay, entry gate and execution. It blocks until the mint is Held or
// terminal.
func (e *Engine) Buy(ctx context.Context, poolID solana.PublicKey, pool raydium.LiquidityState) {
	mint := pool.BaseMint
	log := e.logger.WithFields(logrus.Fields{
		"mint": mint.String(),
		"pool": poolID.String(),
	})

	p, ok := e.admit(mint, poolID)
	if !ok {
		log.Debug("mint already tracked, skipping")
		return
	}

	if err := e.acquireSlot(ctx, p); err != nil {
		e.finish(mint, p, Abandoned, "shutdown", err)
		return
	}
	e.startFiltering(p)

	if err := sleepCtx(ctx, e.cfg.AutoBuyDelay); err != nil {
		e.finish(mint, p, Abandoned, "shutdown", err)
		return
	}

	market, err := e.deps.Markets.Get(ctx, pool.MarketID)
	if err != nil {
		e.finish(mint, p, Abandoned, "market", err)
		return
	}

	keys, err := raydium.NewPoolKeys(poolID, pool, market.State)
	if err != nil {
		e.finish(mint, p, Abandoned, "pool_keys", err)
		return
	}
	e.mu.Lock()
	p.keys = keys
	e.mu.Unlock()

	if ok, reason := e.admitEntry(ctx, keys, log); !ok {
		if ctx.Err() != nil {
			e.finish(mint, p, Abandoned, "shutdown", ctx.Err())
			return
		}
		e.finish(mint, p, Abandoned, reason, nil)
		return
	}

	e.setState(p, Buying)
	log.WithField("amount", e.cfg.QuoteAmount.String()).Info("buying")

	req := swapRequest{
		side:         models.SideBuy,
		keys:         keys,
		dir:          raydium.QuoteToBase,
		amountIn:     e.quoteAmountRaw,
		slippage:     e.cfg.BuySlippage,
		attempts:     e.cfg.MaxBuyRetries,
		stopOnCancel: true,
	}
	out := e.swap(ctx, req, log)
	e.record(ctx, req, out)

	if out.result.Status != executor.Confirmed {
		reason := "buy_retries_exhausted"
		if isShutdown(out.result.Err) {
			reason = "shutdown"
		}
		e.finish(mint, p, Abandoned, reason, out.result.Err)
		return
	}

	e.mu.Lock()
	p.BuySignature = out.result.Signature
	p.QuoteSpent = e.quoteAmountRaw
	p.AcquiredAt = time.Now()
	p.LastError = ""
	e.setStateLocked(p, Held)
	pending := p.pending
	p.pending = nil
	e.mu.Unlock()

	log.WithFields(logrus.Fields{
		"signature": out.result.Signature,
		"attempts":  out.attempts,
	}).Info("buy confirmed")

	if pending != nil {
		e.Sell(ctx, pending.account, pending.token)
	}
}

// admitEntry applies the snipe list or the polling filter protocol.
func (e *Engine) admitEntry(ctx context.Context, keys *raydium.PoolKeys, log *logrus.Entry) (bool, string) {
	if e.cfg.UseSnipeList {
		if e.deps.SnipeList.Contains(keys.BaseMint) {
			return true, ""
		}
		log.Debug("mint not in snipe list")
		return false, "snipe_list"
	}
	if e.waitForFilters(ctx, keys, log) {
		return true, ""
	}
	return false, "filters"
}

// waitForFilters evaluates the chain every FilterCheckInterval until it has
// passed ConsecutiveFilterMatches times in a row or FilterCheckDuration has
// elapsed since entry. A failed evaluation resets the streak.
func (e *Engine) waitForFilters(ctx context.Context, keys *raydium.PoolKeys, log *logrus.Entry) bool {
	deadline := time.Now().Add(e.cfg.FilterCheckDuration)
	ticker := time.NewTicker(e.cfg.FilterCheckInterval)
	defer ticker.Stop()

	matches := 0
	for {
		if e.deps.Filters.Evaluate(ctx, keys) {
			matches++
			e.deps.Metrics.FilterChecks.WithLabelValues("pass").Inc()
			log.WithFields(logrus.Fields{
				"matches": matches,
				"needed":  e.cfg.ConsecutiveFilterMatches,
			}).Debug("filter match")
			if matches >= e.cfg.ConsecutiveFilterMatches {
				return true
			}
		} else {
			matches = 0
			e.deps.Metrics.FilterChecks.WithLabelValues("fail").Inc()
		}

		if !time.Now().Before(deadline) {
			log.WithField("duration", e.cfg.FilterCheckDuration).Info("filters did not match in time")
			return false
		}

		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}
