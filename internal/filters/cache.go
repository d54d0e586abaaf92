package filters

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	rstore "github.com/eko/gocache/store/ristretto/v4"
)

const verdictTTL = 6 * time.Hour

// NewCache builds the in-memory store used for permanent filter verdicts.
func NewCache() (*cache.Cache[[]byte], error) {
	rcache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100000,
		MaxCost:     10000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return cache.New[[]byte](rstore.NewRistretto(rcache)), nil
}

// verdictCache remembers facts that cannot revert on chain, such as a
// renounced mint authority or immutable metadata.
type verdictCache struct {
	store *cache.Cache[[]byte]
}

func newVerdictCache(c *cache.Cache[[]byte]) *verdictCache {
	return &verdictCache{store: c}
}

func (v *verdictCache) known(ctx context.Context, key string) bool {
	if v == nil || v.store == nil {
		return false
	}
	_, err := v.store.Get(ctx, key)
	return err == nil
}

func (v *verdictCache) remember(ctx context.Context, key string) {
	if v == nil || v.store == nil {
		return
	}
	_ = v.store.Set(ctx, key, []byte{1}, store.WithCost(1), store.WithExpiration(verdictTTL))
}
