package bot

import (
	"context"
	"math/big"
	"time"

	"github.com/aman-zulfiqar/raydium-sniper/internal/executor"
	"github.com/aman-zulfiqar/raydium-sniper/internal/models"
	"github.com/aman-zulfiqar/raydium-sniper/internal/raydium"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var hundred = decimal.NewFromInt(100)

// Sell handles a wallet token account update. Only Held mints with a
// non-zero balance are sold; everything else is ignored.
func (e *Engine) Sell(ctx context.Context, tokenAccount solana.PublicKey, account token.Account) {
	mint := account.Mint
	log := e.logger.WithFields(logrus.Fields{
		"mint":    mint.String(),
		"account": tokenAccount.String(),
	})

	if mint.Equals(e.cfg.Quote.Mint) {
		return
	}
	if account.Amount == 0 {
		log.Debug("empty token account, skipping")
		return
	}

	p, keys, ok := e.beginSell(mint, tokenAccount, account)
	if !ok {
		log.Debug("mint not held, skipping")
		return
	}

	if err := sleepCtx(ctx, e.cfg.AutoSellDelay); err != nil {
		e.hold(p)
		return
	}

	exit, reason := e.waitForExit(ctx, keys, account.Amount, p.QuoteSpent, log)
	if !exit {
		if reason == "price_window_expired" {
			e.finish(mint, p, Abandoned, reason, nil)
			return
		}
		e.hold(p)
		return
	}

	log.WithFields(logrus.Fields{
		"reason": reason,
		"amount": account.Amount,
	}).Info("selling")

	req := swapRequest{
		side:     models.SideSell,
		keys:     keys,
		dir:      raydium.BaseToQuote,
		amountIn: account.Amount,
		slippage: e.cfg.SellSlippage,
		attempts: e.cfg.MaxSellRetries,
	}
	out := e.swap(ctx, req, log)
	e.record(ctx, req, out)

	if out.result.Status != executor.Confirmed {
		log.WithField("attempts", out.attempts).WithError(out.result.Err).Error("sell retries exhausted, position stuck")
		e.finish(mint, p, Abandoned, "sell_retries_exhausted", out.result.Err)
		return
	}

	e.mu.Lock()
	p.SellSignature = out.result.Signature
	e.mu.Unlock()
	e.finish(mint, p, Closed, reason, nil)
}

// beginSell performs the atomic Held -> Selling transition. Updates for a
// mint that is still Buying are parked and replayed by Buy.
func (e *Engine) beginSell(mint, tokenAccount solana.PublicKey, account token.Account) (*Position, *raydium.PoolKeys, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.positions[mint]
	if !ok {
		return nil, nil, false
	}
	switch p.State {
	case Buying:
		p.pending = &walletUpdate{account: tokenAccount, token: account}
		return nil, nil, false
	case Held:
	default:
		return nil, nil, false
	}
	if p.keys == nil {
		return nil, nil, false
	}

	p.TokenAmount = account.Amount
	e.setStateLocked(p, Selling)
	return p, p.keys, true
}

func (e *Engine) hold(p *Position) {
	e.setState(p, Held)
}

// waitForExit polls the sell quote until take profit, stop loss or the end
// of the price window. Without auto sell an expired window is not an exit.
// A zero PriceCheckDuration never expires.
func (e *Engine) waitForExit(ctx context.Context, keys *raydium.PoolKeys, amount, spent uint64, log *logrus.Entry) (bool, string) {
	var deadline time.Time
	if e.cfg.PriceCheckDuration > 0 {
		deadline = time.Now().Add(e.cfg.PriceCheckDuration)
	}
	ticker := time.NewTicker(e.cfg.PriceCheckInterval)
	defer ticker.Stop()

	for {
		out, err := e.deps.Quoter.AmountOut(ctx, keys, amount, raydium.BaseToQuote)
		if err != nil {
			log.WithError(err).Debug("price check failed")
		} else {
			change := PercentChange(out, spent)
			log.WithFields(logrus.Fields{
				"quote_out": out,
				"change":    change.StringFixed(2),
			}).Debug("price check")

			if change.GreaterThanOrEqual(e.cfg.TakeProfit) {
				e.observeChange(change)
				return true, "take_profit"
			}
			if change.LessThanOrEqual(e.cfg.StopLoss.Neg()) {
				e.observeChange(change)
				return true, "stop_loss"
			}
		}

		if !deadline.IsZero() && !time.Now().Before(deadline) {
			if e.cfg.AutoSell {
				return true, "timeout"
			}
			return false, "price_window_expired"
		}

		select {
		case <-ctx.Done():
			return false, "shutdown"
		case <-ticker.C:
		}
	}
}

func (e *Engine) observeChange(change decimal.Decimal) {
	f, _ := change.Float64()
	e.deps.Metrics.PriceChange.Observe(f)
}

// PercentChange is (value - spent) / spent * 100.
func PercentChange(value, spent uint64) decimal.Decimal {
	if spent == 0 {
		return decimal.Zero
	}
	v := decimal.NewFromBigInt(new(big.Int).SetUint64(value), 0)
	s := decimal.NewFromBigInt(new(big.Int).SetUint64(spent), 0)
	return v.Sub(s).Div(s).Mul(hundred)
}
