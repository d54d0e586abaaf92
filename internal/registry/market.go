package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aman-zulfiqar/raydium-sniper/internal/raydium"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"
)

var ErrMarketNotFound = errors.New("market not found")

// MarketFetcher is the slice of the RPC client the market cache needs.
type MarketFetcher interface {
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
	GetProgramAccountsWithOpts(ctx context.Context, program solana.PublicKey, opts *rpc.GetProgramAccountsOpts) (rpc.GetProgramAccountsResult, error)
}

type Market struct {
	ID    solana.PublicKey
	State raydium.MarketState
}

type MarketCacheConfig struct {
	Client     MarketFetcher
	ProgramID  solana.PublicKey
	Commitment rpc.CommitmentType
	Logger     *logrus.Logger
}

// MarketCache maps market address to decoded OpenBook state.
type MarketCache struct {
	client     MarketFetcher
	programID  solana.PublicKey
	commitment rpc.CommitmentType
	logger     *logrus.Logger

	mu      sync.RWMutex
	markets map[solana.PublicKey]Market
}

func NewMarketCache(cfg MarketCacheConfig) *MarketCache {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &MarketCache{
		client:     cfg.Client,
		programID:  cfg.ProgramID,
		commitment: cfg.Commitment,
		logger:     cfg.Logger,
		markets:    make(map[solana.PublicKey]Market),
	}
}

// Init loads every market quoted in quoteMint.
func (c *MarketCache) Init(ctx context.Context, quoteMint solana.PublicKey) error {
	accounts, err := c.client.GetProgramAccountsWithOpts(ctx, c.programID, &rpc.GetProgramAccountsOpts{
		Commitment: c.commitment,
		Encoding:   solana.EncodingBase64,
		Filters: []rpc.RPCFilter{
			{DataSize: raydium.MarketStateV3Size},
			{Memcmp: &rpc.RPCFilterMemcmp{
				Offset: raydium.MarketQuoteMintOffset,
				Bytes:  solana.Base58(quoteMint.Bytes()),
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("load markets: %w", err)
	}

	loaded := 0
	for _, acct := range accounts {
		if acct == nil || acct.Account == nil {
			continue
		}
		state, err := raydium.DecodeMarketState(acct.Account.Data.GetBinary())
		if err != nil {
			c.logger.WithError(err).WithField("market", acct.Pubkey).Debug("Skipping undecodable market")
			continue
		}
		c.Save(acct.Pubkey, state)
		loaded++
	}

	c.logger.WithField("markets", loaded).Info("Market cache initialized")
	return nil
}

// Save stores state under id, replacing any previous entry.
func (c *MarketCache) Save(id solana.PublicKey, state raydium.MarketState) {
	c.mu.Lock()
	c.markets[id] = Market{ID: id, State: state}
	c.mu.Unlock()
}

// Get returns the cached market, fetching it from the chain on a miss.
func (c *MarketCache) Get(ctx context.Context, id solana.PublicKey) (Market, error) {
	c.mu.RLock()
	m, ok := c.markets[id]
	c.mu.RUnlock()
	if ok {
		return m, nil
	}

	c.logger.WithField("market", id).Debug("Market cache miss, fetching")

	res, err := c.client.GetAccountInfoWithOpts(ctx, id, &rpc.GetAccountInfoOpts{Commitment: c.commitment})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return Market{}, fmt.Errorf("%w: %s", ErrMarketNotFound, id)
		}
		return Market{}, fmt.Errorf("fetch market %s: %w", id, err)
	}
	if res == nil || res.Value == nil {
		return Market{}, fmt.Errorf("%w: %s", ErrMarketNotFound, id)
	}

	state, err := raydium.DecodeMarketState(res.Value.Data.GetBinary())
	if err != nil {
		return Market{}, err
	}
	c.Save(id, state)
	return Market{ID: id, State: state}, nil
}

func (c *MarketCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.markets)
}
