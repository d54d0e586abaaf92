package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aman-zulfiqar/raydium-sniper/internal/constants"
	"github.com/aman-zulfiqar/raydium-sniper/internal/executor"
	"github.com/aman-zulfiqar/raydium-sniper/internal/metrics"
	"github.com/aman-zulfiqar/raydium-sniper/internal/raydium"
	"github.com/aman-zulfiqar/raydium-sniper/internal/storage"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

var (
	ErrPositionNotFound = errors.New("position not found")
	ErrZeroQuoteAmount  = errors.New("quote amount rounds to zero")
)

// Deps are the collaborators the engine drives.
type Deps struct {
	Wallet    Signer
	Markets   Markets
	Quoter    Quoter
	Filters   FilterChain
	SnipeList SnipeList
	Executor  executor.Executor
	Journal   storage.Journal
	Metrics   *metrics.Metrics
	Logger    *logrus.Logger
}

// Engine owns the per-mint state machine: filter, buy, hold, sell.
type Engine struct {
	cfg    Config
	deps   Deps
	logger *logrus.Logger

	quoteAmountRaw uint64
	quoteATA       solana.PublicKey

	mu        sync.Mutex
	positions map[solana.PublicKey]*Position
	finished  []solana.PublicKey

	// one-token mode slot, nil when disabled
	slot chan struct{}
}

// NewEngine validates the wiring and derives the raw quote amount.
func NewEngine(cfg Config, deps Deps) (*Engine, error) {
	if deps.Wallet == nil || deps.Markets == nil || deps.Quoter == nil || deps.Executor == nil {
		return nil, fmt.Errorf("bot: wallet, markets, quoter and executor are required")
	}
	if cfg.UseSnipeList && deps.SnipeList == nil {
		return nil, fmt.Errorf("bot: snipe list mode without a snipe list")
	}
	if !cfg.UseSnipeList && deps.Filters == nil {
		return nil, fmt.Errorf("bot: filter chain is required")
	}
	if deps.Logger == nil {
		deps.Logger = logrus.New()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New("")
	}
	if deps.Journal == nil {
		deps.Journal = storage.NopJournal{}
	}

	if cfg.FilterCheckInterval <= 0 {
		cfg.FilterCheckInterval = 2 * time.Second
	}
	if cfg.PriceCheckInterval <= 0 {
		cfg.PriceCheckInterval = 2 * time.Second
	}
	if cfg.ConsecutiveFilterMatches < 1 {
		cfg.ConsecutiveFilterMatches = 1
	}
	if cfg.MaxBuyRetries < 1 {
		cfg.MaxBuyRetries = 1
	}
	if cfg.MaxSellRetries < 1 {
		cfg.MaxSellRetries = 1
	}

	raw, err := raydium.ToRawAmount(cfg.QuoteAmount, cfg.Quote.Decimals)
	if err != nil {
		return nil, fmt.Errorf("bot: quote amount: %w", err)
	}

	ata, err := raydium.AssociatedTokenAddress(deps.Wallet.PublicKey(), cfg.Quote.Mint)
	if err != nil {
		return nil, fmt.Errorf("bot: quote account: %w", err)
	}

	e := &Engine{
		cfg:            cfg,
		deps:           deps,
		logger:         deps.Logger,
		quoteAmountRaw: raw,
		quoteATA:       ata,
		positions:      make(map[solana.PublicKey]*Position),
	}
	if cfg.OneTokenAtATime {
		e.slot = make(chan struct{}, 1)
	}
	return e, nil
}

// Validate checks that the wallet can fund buys. It logs the reason and
// returns false when the bot must not start.
func (e *Engine) Validate(ctx context.Context) bool {
	if e.quoteAmountRaw == 0 {
		e.logger.WithError(ErrZeroQuoteAmount).Error("invalid quote amount")
		return false
	}

	exists, err := e.deps.Wallet.AccountExists(ctx, e.quoteATA)
	if err != nil {
		e.logger.WithError(err).WithField("account", e.quoteATA.String()).Error("failed to check quote token account")
		return false
	}
	if !exists {
		e.logger.WithFields(logrus.Fields{
			"quote":   e.cfg.Quote.Symbol,
			"account": e.quoteATA.String(),
		}).Error("quote token account not found in wallet, create and fund it before starting")
		return false
	}
	return true
}

// QuoteMint is the mint of the configured quote asset.
func (e *Engine) QuoteMint() solana.PublicKey {
	return e.cfg.Quote.Mint
}

// Positions returns a snapshot of every tracked mint, newest first.
func (e *Engine) Positions() []Position {
	e.mu.Lock()
	out := make([]Position, 0, len(e.positions))
	for _, p := range e.positions {
		out = append(out, e.snapshot(p))
	}
	e.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

// Position returns the snapshot for one mint.
func (e *Engine) Position(mint solana.PublicKey) (Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.positions[mint]
	if !ok {
		return Position{}, ErrPositionNotFound
	}
	return e.snapshot(p), nil
}

func (e *Engine) snapshot(p *Position) Position {
	cp := *p
	cp.keys = nil
	cp.ownsSlot = false
	cp.pending = nil
	cp.waiting = false
	return cp
}

// admit reserves mint for a buy. A mint is admitted when untracked, Closed or
// Idle without a queued buy. The reservation stays Idle until startFiltering.
func (e *Engine) admit(mint, pool solana.PublicKey) (*Position, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if old, ok := e.positions[mint]; ok {
		if old.waiting || (old.State != Idle && old.State != Closed) {
			return nil, false
		}
		if old.State == Closed {
			e.deps.Metrics.Positions.WithLabelValues(Closed.String()).Dec()
		}
	}

	p := &Position{
		Mint:      mint.String(),
		Pool:      pool.String(),
		State:     Idle,
		UpdatedAt: time.Now(),
		waiting:   true,
	}
	e.positions[mint] = p
	return p, true
}

// startFiltering moves a reservation that holds the slot into Filtering.
func (e *Engine) startFiltering(p *Position) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p.waiting = false
	e.setStateLocked(p, Filtering)
}

func (e *Engine) setState(p *Position, s State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setStateLocked(p, s)
}

func (e *Engine) setStateLocked(p *Position, s State) {
	if p.State != Idle {
		e.deps.Metrics.Positions.WithLabelValues(p.State.String()).Dec()
	}
	p.State = s
	p.UpdatedAt = time.Now()
	e.deps.Metrics.Positions.WithLabelValues(s.String()).Inc()
}

// finish moves p to a terminal state, frees the slot and trims history.
func (e *Engine) finish(mint solana.PublicKey, p *Position, s State, reason string, cause error) {
	e.mu.Lock()
	p.waiting = false
	e.setStateLocked(p, s)
	if cause != nil {
		p.LastError = cause.Error()
	}
	e.releaseLocked(p)

	e.finished = append(e.finished, mint)
	for len(e.finished) > constants.MaxClosedHistory {
		old := e.finished[0]
		e.finished = e.finished[1:]
		if q, ok := e.positions[old]; ok && q.State.Terminal() {
			e.deps.Metrics.Positions.WithLabelValues(q.State.String()).Dec()
			delete(e.positions, old)
		}
	}
	e.mu.Unlock()

	e.deps.Metrics.PositionOutcomes.WithLabelValues(s.String(), reason).Inc()

	entry := e.logger.WithFields(logrus.Fields{
		"mint":   mint.String(),
		"state":  s.String(),
		"reason": reason,
	})
	if cause != nil {
		entry = entry.WithError(cause)
	}
	switch {
	case s == Closed:
		entry.Info("position closed")
	case reason == "filters" || reason == "snipe_list" || reason == "shutdown" || reason == "price_window_expired":
		entry.Info("position abandoned")
	default:
		entry.Warn("position abandoned")
	}
}

func (e *Engine) acquireSlot(ctx context.Context, p *Position) error {
	if e.slot == nil {
		return nil
	}
	select {
	case e.slot <- struct{}{}:
		e.mu.Lock()
		p.ownsSlot = true
		e.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) releaseLocked(p *Position) {
	if !p.ownsSlot {
		return
	}
	p.ownsSlot = false
	<-e.slot
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
