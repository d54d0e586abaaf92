package registry

import (
	"sync"

	"github.com/aman-zulfiqar/raydium-sniper/internal/raydium"
	"github.com/gagliardetto/solana-go"
)

type Pool struct {
	ID    solana.PublicKey
	State raydium.LiquidityState
}

// PoolCache keeps at most one pool per base mint.
type PoolCache struct {
	mu    sync.RWMutex
	pools map[solana.PublicKey]Pool
}

func NewPoolCache() *PoolCache {
	return &PoolCache{pools: make(map[solana.PublicKey]Pool)}
}

// Save inserts the pool unless its base mint is already known.
func (c *PoolCache) Save(id solana.PublicKey, state raydium.LiquidityState) {
	c.SaveIfAbsent(id, state)
}

// SaveIfAbsent reports whether the pool was inserted. Check and insert happen
// under one lock.
func (c *PoolCache) SaveIfAbsent(id solana.PublicKey, state raydium.LiquidityState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pools[state.BaseMint]; ok {
		return false
	}
	c.pools[state.BaseMint] = Pool{ID: id, State: state}
	return true
}

func (c *PoolCache) Get(mint solana.PublicKey) (Pool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.pools[mint]
	return p, ok
}

func (c *PoolCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pools)
}
