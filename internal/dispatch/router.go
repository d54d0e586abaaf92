// Package dispatch turns account notifications into cache updates and trade
// triggers.
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/aman-zulfiqar/raydium-sniper/internal/metrics"
	"github.com/aman-zulfiqar/raydium-sniper/internal/raydium"
	"github.com/aman-zulfiqar/raydium-sniper/internal/stream"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/sirupsen/logrus"
)

// Trader runs the buy and sell pipelines.
type Trader interface {
	Buy(ctx context.Context, poolID solana.PublicKey, pool raydium.LiquidityState)
	Sell(ctx context.Context, tokenAccount solana.PublicKey, account token.Account)
}

type MarketStore interface {
	Save(id solana.PublicKey, state raydium.MarketState)
	Len() int
}

type PoolStore interface {
	SaveIfAbsent(id solana.PublicKey, state raydium.LiquidityState) bool
}

// RouterConfig holds configuration for the router
type RouterConfig struct {
	Trader          Trader
	Markets         MarketStore
	Pools           PoolStore
	QuoteMint       solana.PublicKey
	RunStart        time.Time
	CacheNewMarkets bool
	Metrics         *metrics.Metrics
	Logger          *logrus.Logger
}

// Router is the single dispatch lane. Cache mutations happen on the Run
// goroutine; trades fan out into tracked goroutines.
type Router struct {
	cfg      RouterConfig
	logger   *logrus.Logger
	runStart uint64

	wg sync.WaitGroup
}

func NewRouter(cfg RouterConfig) *Router {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New("")
	}
	if cfg.RunStart.IsZero() {
		cfg.RunStart = time.Now()
	}
	return &Router{
		cfg:      cfg,
		logger:   cfg.Logger,
		runStart: uint64(cfg.RunStart.Unix()),
	}
}

// Run consumes events until the channel closes or ctx is done.
func (r *Router) Run(ctx context.Context, events <-chan stream.AccountEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.Handle(ctx, ev)
		}
	}
}

// Wait blocks until every dispatched trade has returned.
func (r *Router) Wait() {
	r.wg.Wait()
}

// Handle routes a single event.
func (r *Router) Handle(ctx context.Context, ev stream.AccountEvent) {
	switch ev.Kind {
	case stream.KindMarket:
		r.handleMarket(ev)
	case stream.KindPool:
		r.handlePool(ctx, ev)
	case stream.KindWallet:
		r.handleWallet(ctx, ev)
	default:
		r.drop("unknown_kind")
	}
}

func (r *Router) handleMarket(ev stream.AccountEvent) {
	if !r.cfg.CacheNewMarkets {
		r.drop("market_cache_disabled")
		return
	}
	state, err := raydium.DecodeMarketState(ev.Data)
	if err != nil {
		r.logger.WithError(err).WithField("market", ev.Pubkey.String()).Error("failed to decode market")
		r.drop("decode")
		return
	}
	r.cfg.Markets.Save(ev.Pubkey, state)
	r.cfg.Metrics.MarketsCached.Set(float64(r.cfg.Markets.Len()))
}

func (r *Router) handlePool(ctx context.Context, ev stream.AccountEvent) {
	pool, err := raydium.DecodeLiquidityState(ev.Data)
	if err != nil {
		r.logger.WithError(err).WithField("pool", ev.Pubkey.String()).Error("failed to decode pool")
		r.drop("decode")
		return
	}

	if pool.PoolOpenTime < r.runStart {
		r.cfg.Metrics.PoolsStale.Inc()
		r.drop("stale")
		return
	}
	if !r.cfg.Pools.SaveIfAbsent(ev.Pubkey, pool) {
		r.drop("duplicate")
		return
	}

	r.cfg.Metrics.PoolsDetected.Inc()
	r.logger.WithFields(logrus.Fields{
		"pool":      ev.Pubkey.String(),
		"mint":      pool.BaseMint.String(),
		"open_time": pool.PoolOpenTime,
		"slot":      ev.Slot,
	}).Info("new pool")

	r.spawn(func() { r.cfg.Trader.Buy(ctx, ev.Pubkey, pool) })
}

func (r *Router) handleWallet(ctx context.Context, ev stream.AccountEvent) {
	account, err := raydium.DecodeTokenAccount(ev.Data)
	if err != nil {
		r.logger.WithError(err).WithField("account", ev.Pubkey.String()).Error("failed to decode token account")
		r.drop("decode")
		return
	}
	if account.Mint.Equals(r.cfg.QuoteMint) {
		r.drop("quote_mint")
		return
	}

	r.spawn(func() { r.cfg.Trader.Sell(ctx, ev.Pubkey, account) })
}

func (r *Router) spawn(fn func()) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		fn()
	}()
}

func (r *Router) drop(reason string) {
	r.cfg.Metrics.EventsDropped.WithLabelValues(reason).Inc()
}
