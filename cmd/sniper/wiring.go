package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aman-zulfiqar/raydium-sniper/internal/cache"
	"github.com/aman-zulfiqar/raydium-sniper/internal/config"
	"github.com/aman-zulfiqar/raydium-sniper/internal/constants"
	"github.com/aman-zulfiqar/raydium-sniper/internal/executor"
	"github.com/aman-zulfiqar/raydium-sniper/internal/filters"
	projectrpc "github.com/aman-zulfiqar/raydium-sniper/internal/rpc"
	"github.com/aman-zulfiqar/raydium-sniper/internal/snipelist"
	"github.com/aman-zulfiqar/raydium-sniper/internal/storage"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// storageSet holds the optional backends and the journal built on them.
type storageSet struct {
	redis      *redis.Client
	tradeCache storage.TradeCache
	tradeStore storage.TradeStore
	snipeStore *snipelist.RedisStore
	journal    storage.Journal
}

func openStorage(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*storageSet, error) {
	st := &storageSet{}

	if cfg.RedisAddr != "" {
		st.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := st.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		st.tradeCache = cache.NewRedisCache(st.redis, logger)

		store, err := snipelist.NewRedisStore(st.redis)
		if err != nil {
			return nil, err
		}
		st.snipeStore = store
	}

	if cfg.ClickHouseAddr != "" {
		ch, err := cache.NewClickHouseStore(ctx, cache.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("clickhouse: %w", err)
		}
		st.tradeStore = ch
	}

	if st.tradeCache == nil && st.tradeStore == nil {
		logger.Info("no trade journal configured")
		st.journal = storage.NopJournal{}
		return st, nil
	}
	st.journal = storage.NewMultiJournal(st.tradeCache, st.tradeStore, logger)
	return st, nil
}

func (s *storageSet) Close() {
	if s.tradeStore != nil {
		_ = s.tradeStore.Close()
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
}

func newExecutor(cfg *config.Config, sol *solanarpc.Client, logger *logrus.Logger) (executor.Executor, error) {
	switch cfg.TransactionExecutor {
	case constants.ExecutorWarp:
		return executor.NewWarp(executor.WarpConfig{
			Fee:    cfg.CustomFee,
			Logger: logger,
		}), nil
	case constants.ExecutorJito:
		client := projectrpc.NewClient(projectrpc.ClientConfig{
			BaseURL:      cfg.JitoBlockEngineURL,
			Timeout:      cfg.HTTPTimeout,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
			Logger:       logger,
		})
		return executor.NewJito(executor.JitoConfig{
			Client:      client,
			TipAccounts: constants.JitoTipAccounts,
			Fee:         cfg.CustomFee,
			Polls:       cfg.JitoStatusPolls,
			Interval:    cfg.JitoStatusInterval,
			Logger:      logger,
		}), nil
	case constants.ExecutorDefault:
		return executor.NewDirect(executor.DirectConfig{
			Client:     sol,
			Commitment: solanarpc.CommitmentType(cfg.CommitmentLevel),
			Logger:     logger,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownExecutor, cfg.TransactionExecutor)
	}
}

// newSnipeList returns nil when snipe list mode is off.
func newSnipeList(cfg *config.Config, st *storageSet, logger *logrus.Logger) (*snipelist.SnipeList, error) {
	if !cfg.UseSnipeList {
		return nil, nil
	}

	var source snipelist.Source
	switch cfg.SnipeListSource {
	case "redis":
		if st.snipeStore == nil {
			return nil, fmt.Errorf("redis snipe list without REDIS_ADDR")
		}
		source = st.snipeStore
	default:
		source = &snipelist.FileSource{Path: cfg.SnipeListPath}
	}

	list := snipelist.New(snipelist.Config{
		Source:          source,
		RefreshInterval: cfg.SnipeListRefreshInterval,
		Logger:          logger,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := list.Refresh(ctx); err != nil {
		return nil, err
	}
	return list, nil
}

func newFilterChain(cfg *config.Config, sol *solanarpc.Client, logger *logrus.Logger) (*filters.Chain, error) {
	verdicts, err := filters.NewCache()
	if err != nil {
		return nil, err
	}
	return filters.NewChain(filters.Config{
		Client:         sol,
		Commitment:     solanarpc.CommitmentType(cfg.CommitmentLevel),
		Cache:          verdicts,
		CheckBurned:    cfg.CheckIfBurned,
		CheckRenounced: cfg.CheckIfMintIsRenounced,
		CheckFreezable: cfg.CheckIfFreezable,
		CheckMutable:   cfg.CheckIfMutable,
		QuoteDecimals:  cfg.Quote().Decimals,
		MinPoolSize:    cfg.MinPoolSize,
		MaxPoolSize:    cfg.MaxPoolSize,
		Logger:         logger,
	}), nil
}
