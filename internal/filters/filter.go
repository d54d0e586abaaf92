package filters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aman-zulfiqar/raydium-sniper/internal/raydium"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var ErrAccountMissing = errors.New("account does not exist")

// AccountFetcher is the slice of the RPC client the filters need.
type AccountFetcher interface {
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
}

// Result is one predicate's verdict. Reason is set when Ok is false.
type Result struct {
	Ok     bool
	Reason string
}

type Filter interface {
	Name() string
	Execute(ctx context.Context, keys *raydium.PoolKeys) (Result, error)
}

type Config struct {
	Client     AccountFetcher
	Commitment rpc.CommitmentType
	Cache      *cache.Cache[[]byte]

	CheckBurned    bool
	CheckRenounced bool
	CheckFreezable bool
	CheckMutable   bool

	QuoteDecimals uint8
	MinPoolSize   decimal.Decimal
	MaxPoolSize   decimal.Decimal

	Logger *logrus.Logger
}

// Chain admits a pool when every configured filter passes.
type Chain struct {
	filters []Filter
	logger  *logrus.Logger
}

func NewChain(cfg Config) *Chain {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	acc := &accounts{client: cfg.Client, commitment: cfg.Commitment}
	verdicts := newVerdictCache(cfg.Cache)

	var fs []Filter
	if cfg.CheckBurned {
		fs = append(fs, &BurnFilter{accounts: acc})
	}
	if cfg.CheckRenounced || cfg.CheckFreezable {
		fs = append(fs, &RenouncedFreezeFilter{
			accounts:       acc,
			verdicts:       verdicts,
			checkRenounced: cfg.CheckRenounced,
			checkFreezable: cfg.CheckFreezable,
		})
	}
	if cfg.CheckMutable {
		fs = append(fs, &MutableFilter{accounts: acc, verdicts: verdicts})
	}
	if !cfg.MinPoolSize.IsZero() || !cfg.MaxPoolSize.IsZero() {
		fs = append(fs, &PoolSizeFilter{
			accounts: acc,
			decimals: cfg.QuoteDecimals,
			min:      cfg.MinPoolSize,
			max:      cfg.MaxPoolSize,
		})
	}

	return NewChainOf(cfg.Logger, fs...)
}

func NewChainOf(logger *logrus.Logger, fs ...Filter) *Chain {
	if logger == nil {
		logger = logrus.New()
	}
	return &Chain{filters: fs, logger: logger}
}

func (c *Chain) Len() int { return len(c.filters) }

// Evaluate runs every filter concurrently. Any failure or error rejects.
func (c *Chain) Evaluate(ctx context.Context, keys *raydium.PoolKeys) bool {
	if len(c.filters) == 0 {
		return true
	}

	var (
		mu      sync.Mutex
		reasons []string
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, f := range c.filters {
		f := f
		g.Go(func() error {
			res, err := f.Execute(gctx, keys)
			if err != nil {
				return fmt.Errorf("%s: %w", f.Name(), err)
			}
			if !res.Ok {
				mu.Lock()
				reasons = append(reasons, f.Name()+": "+res.Reason)
				mu.Unlock()
			}
			return nil
		})
	}

	log := c.logger.WithFields(logrus.Fields{"mint": keys.BaseMint, "pool": keys.ID})
	if err := g.Wait(); err != nil {
		log.WithError(err).Debug("Filter check failed")
		return false
	}
	if len(reasons) > 0 {
		log.WithField("reasons", strings.Join(reasons, "; ")).Trace("Filters rejected pool")
		return false
	}
	return true
}

type accounts struct {
	client     AccountFetcher
	commitment rpc.CommitmentType
}

func (a *accounts) data(ctx context.Context, key solana.PublicKey) ([]byte, error) {
	res, err := a.client.GetAccountInfoWithOpts(ctx, key, &rpc.GetAccountInfoOpts{Commitment: a.commitment})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAccountMissing, key)
		}
		return nil, err
	}
	if res == nil || res.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountMissing, key)
	}
	return res.Value.Data.GetBinary(), nil
}
