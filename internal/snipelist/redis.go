package snipelist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aman-zulfiqar/raydium-sniper/internal/constants"
	"github.com/redis/go-redis/v9"
)

const entryPrefix = "snipelist:entry:"

// RedisStore keeps the snipe list in an index set plus one JSON entry per mint.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Add(ctx context.Context, mint string) (*Entry, error) {
	if _, err := ValidateMint(mint); err != nil {
		return nil, err
	}

	entry := &Entry{Mint: mint, AddedAt: time.Now().UTC()}
	b, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal entry: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, entryKey(mint), b, 0)
	pipe.SAdd(ctx, constants.RedisKeySnipeList, mint)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("add mint: %w", err)
	}

	return entry, nil
}

func (s *RedisStore) Remove(ctx context.Context, mint string) error {
	if _, err := ValidateMint(mint); err != nil {
		return err
	}

	member, err := s.client.SIsMember(ctx, constants.RedisKeySnipeList, mint).Result()
	if err != nil {
		return fmt.Errorf("check mint: %w", err)
	}
	if !member {
		return ErrNotFound
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, entryKey(mint))
	pipe.SRem(ctx, constants.RedisKeySnipeList, mint)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remove mint: %w", err)
	}

	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]*Entry, error) {
	mints, err := s.client.SMembers(ctx, constants.RedisKeySnipeList).Result()
	if err != nil {
		return nil, fmt.Errorf("list snipe list index: %w", err)
	}
	if len(mints) == 0 {
		return []*Entry{}, nil
	}

	keys := make([]string, 0, len(mints))
	for _, m := range mints {
		keys = append(keys, entryKey(m))
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget entries: %w", err)
	}

	out := make([]*Entry, 0, len(vals))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			// index without entry, keep the mint
			out = append(out, &Entry{Mint: mints[i]})
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(str), &e); err != nil {
			continue
		}
		out = append(out, &e)
	}

	return out, nil
}

// Load returns the member mints.
func (s *RedisStore) Load(ctx context.Context) ([]string, error) {
	mints, err := s.client.SMembers(ctx, constants.RedisKeySnipeList).Result()
	if err != nil {
		return nil, fmt.Errorf("load snipe list: %w", err)
	}
	return mints, nil
}

func entryKey(mint string) string {
	return entryPrefix + mint
}
