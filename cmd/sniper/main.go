package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/aman-zulfiqar/raydium-sniper/internal/bot"
	"github.com/aman-zulfiqar/raydium-sniper/internal/config"
	"github.com/aman-zulfiqar/raydium-sniper/internal/constants"
	"github.com/aman-zulfiqar/raydium-sniper/internal/dispatch"
	"github.com/aman-zulfiqar/raydium-sniper/internal/metrics"
	"github.com/aman-zulfiqar/raydium-sniper/internal/raydium"
	"github.com/aman-zulfiqar/raydium-sniper/internal/registry"
	"github.com/aman-zulfiqar/raydium-sniper/internal/server"
	"github.com/aman-zulfiqar/raydium-sniper/internal/stream"
	"github.com/aman-zulfiqar/raydium-sniper/internal/wallet"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		if err := godotenv.Load(); err != nil {
			logger.Warnf("no .env file found at %s, using system environment variables", envPath)
		}
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runStart := time.Now()
	commitment := solanarpc.CommitmentType(cfg.CommitmentLevel)
	m := metrics.New(constants.MetricsNamespace)
	sol := solanarpc.New(cfg.RPCEndpoint)

	// 1. Wallet
	w, err := wallet.NewWallet(wallet.WalletConfig{
		RPCURL:       cfg.RPCEndpoint,
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		PrivateKey:   cfg.PrivateKey,
		Commitment:   cfg.CommitmentLevel,
		Logger:       logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to load wallet")
	}

	// 2. Trade journal (Redis, ClickHouse), both optional
	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to open storage")
	}
	defer st.Close()

	// 3. Transaction executor
	exec, err := newExecutor(cfg, sol, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create executor")
	}

	// 4. Entry gate: snipe list or filter chain
	snipe, err := newSnipeList(cfg, st, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create snipe list")
	}
	if snipe != nil {
		go snipe.Run(ctx)
	}
	chain, err := newFilterChain(cfg, sol, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to create filters")
	}

	// 5. Registries
	markets := registry.NewMarketCache(registry.MarketCacheConfig{
		Client:     sol,
		ProgramID:  constants.OpenBookProgram,
		Commitment: commitment,
		Logger:     logger,
	})
	pools := registry.NewPoolCache()

	quote := cfg.Quote()
	if cfg.PreLoadExistingMarkets {
		if err := markets.Init(ctx, quote.Mint); err != nil {
			logger.WithError(err).Fatal("failed to preload markets")
		}
		m.MarketsCached.Set(float64(markets.Len()))
	}

	// 6. Engine
	deps := bot.Deps{
		Wallet:   w,
		Markets:  markets,
		Quoter:   raydium.NewQuoter(sol, commitment),
		Filters:  chain,
		Executor: exec,
		Journal:  st.journal,
		Metrics:  m,
		Logger:   logger,
	}
	if snipe != nil {
		deps.SnipeList = snipe
	}
	engine, err := bot.NewEngine(bot.ConfigFrom(cfg), deps)
	if err != nil {
		logger.WithError(err).Fatal("failed to create engine")
	}
	if !engine.Validate(ctx) {
		logger.Fatal("wallet is not ready to trade")
	}

	if bal, err := w.GetBalanceSOL(ctx); err == nil {
		logger.WithField("sol", bal).Info("wallet balance")
	}
	logger.WithFields(cfg.LogFields()).WithField("wallet", w.Address()).Info("bot configuration")

	// 7. Status API
	var srv *server.Server
	if cfg.APIAddr != "" {
		h := &server.Handlers{
			Engine:  engine,
			Trades:  st.tradeCache,
			DevMode: cfg.DevMode,
			Logger:  logger,
		}
		if st.snipeStore != nil {
			h.SnipeList = st.snipeStore
		}
		if snipe != nil {
			h.Refresher = snipe
		}
		srv, err = server.NewServer(server.ServerDeps{
			Handlers: h,
			Config: server.ServerConfig{
				Addr:    cfg.APIAddr,
				DevMode: cfg.DevMode,
				APIKey:  cfg.APIKey,
				Metrics: m,
			},
		})
		if err != nil {
			logger.WithError(err).Fatal("failed to create http server")
		}
		go func() {
			logger.WithField("addr", cfg.APIAddr).Info("api server starting")
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Error("api server failed")
			}
		}()
	}

	// 8. Subscriptions and dispatch
	subs := []stream.Subscription{stream.PoolSubscription(quote.Mint), stream.WalletSubscription(w.PublicKey())}
	if cfg.CacheNewMarkets {
		subs = append(subs, stream.MarketSubscription(quote.Mint))
	}
	events := stream.NewSubscriber(stream.SubscriberConfig{
		URL:           cfg.RPCWebsocketEndpoint,
		Commitment:    commitment,
		Subscriptions: subs,
		Metrics:       m,
		Logger:        logger,
	}).Run(ctx)

	router := dispatch.NewRouter(dispatch.RouterConfig{
		Trader:          engine,
		Markets:         markets,
		Pools:           pools,
		QuoteMint:       quote.Mint,
		RunStart:        runStart,
		CacheNewMarkets: cfg.CacheNewMarkets,
		Metrics:         m,
		Logger:          logger,
	})

	logger.Info("listening for new pools")
	router.Run(ctx, events)

	// 9. Shutdown: let in-flight submissions finish within the grace period
	logger.Info("shutting down")
	done := make(chan struct{})
	go func() {
		router.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(cfg.ShutdownGrace):
		logger.WithField("grace", cfg.ShutdownGrace).Warn("in-flight trades still running at shutdown")
	}

	if srv != nil {
		_ = srv.Shutdown(context.Background())
	}
}
