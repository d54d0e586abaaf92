package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/raydium-sniper/internal/constants"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrMissingPrivateKey = errors.New("PRIVATE_KEY is required")
	ErrUnknownQuoteMint  = errors.New("unsupported QUOTE_MINT")
	ErrUnknownExecutor   = errors.New("unsupported TRANSACTION_EXECUTOR")
)

type Config struct {
	// Wallet
	PrivateKey string

	// Connection
	RPCEndpoint          string
	RPCWebsocketEndpoint string
	CommitmentLevel      string

	// Bot
	LogLevel               string
	OneTokenAtATime        bool
	PreLoadExistingMarkets bool
	CacheNewMarkets        bool
	ShutdownGrace          time.Duration

	// Transaction executor
	TransactionExecutor string
	CustomFee           decimal.Decimal // SOL, used by warp and jito
	JitoBlockEngineURL  string
	JitoStatusPolls     int
	JitoStatusInterval  time.Duration
	ComputeUnitLimit    uint32
	ComputeUnitPrice    uint64

	// Buy
	QuoteMint     string
	QuoteAmount   decimal.Decimal
	AutoBuyDelay  time.Duration
	MaxBuyRetries int
	BuySlippage   int // percent

	// Sell
	AutoSell           bool
	MaxSellRetries     int
	AutoSellDelay      time.Duration
	PriceCheckInterval time.Duration
	PriceCheckDuration time.Duration
	TakeProfit         decimal.Decimal // percent
	StopLoss           decimal.Decimal // percent
	SellSlippage       int             // percent

	// Snipe list
	UseSnipeList             bool
	SnipeListSource          string
	SnipeListPath            string
	SnipeListRefreshInterval time.Duration

	// Filters
	FilterCheckInterval      time.Duration
	FilterCheckDuration      time.Duration
	ConsecutiveFilterMatches int
	CheckIfMutable           bool
	CheckIfMintIsRenounced   bool
	CheckIfFreezable         bool
	CheckIfBurned            bool
	MinPoolSize              decimal.Decimal
	MaxPoolSize              decimal.Decimal

	// Redis settings
	RedisAddr string

	// ClickHouse settings
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// API settings
	APIAddr string
	APIKey  string
	DevMode bool

	// HTTP client settings
	HTTPTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

func Load() *Config {
	return &Config{
		// Wallet
		PrivateKey: getEnv("PRIVATE_KEY", ""),

		// Connection
		RPCEndpoint:          getEnv("RPC_ENDPOINT", "https://api.mainnet-beta.solana.com"),
		RPCWebsocketEndpoint: getEnv("RPC_WEBSOCKET_ENDPOINT", "wss://api.mainnet-beta.solana.com"),
		CommitmentLevel:      getEnv("COMMITMENT_LEVEL", "confirmed"),

		// Bot
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		OneTokenAtATime:        getBoolEnv("ONE_TOKEN_AT_A_TIME", true),
		PreLoadExistingMarkets: getBoolEnv("PRE_LOAD_EXISTING_MARKETS", false),
		CacheNewMarkets:        getBoolEnv("CACHE_NEW_MARKETS", false),
		ShutdownGrace:          getDurationEnv("SHUTDOWN_GRACE", 2*time.Minute),

		// Transaction executor
		TransactionExecutor: strings.ToLower(getEnv("TRANSACTION_EXECUTOR", constants.ExecutorDefault)),
		CustomFee:           getDecimalEnv("CUSTOM_FEE", decimal.RequireFromString("0.006")),
		JitoBlockEngineURL:  getEnv("JITO_BLOCK_ENGINE_URL", constants.JitoBlockEngineURL),
		JitoStatusPolls:     getIntEnv("JITO_STATUS_POLLS", 30),
		JitoStatusInterval:  getDurationEnv("JITO_STATUS_INTERVAL", 2*time.Second),
		ComputeUnitLimit:    uint32(getIntEnv("COMPUTE_UNIT_LIMIT", 101337)),
		ComputeUnitPrice:    uint64(getIntEnv("COMPUTE_UNIT_PRICE", 421197)),

		// Buy
		QuoteMint:     strings.ToUpper(getEnv("QUOTE_MINT", "WSOL")),
		QuoteAmount:   getDecimalEnv("QUOTE_AMOUNT", decimal.RequireFromString("0.001")),
		AutoBuyDelay:  getDurationEnv("AUTO_BUY_DELAY", 0),
		MaxBuyRetries: getIntEnv("MAX_BUY_RETRIES", 10),
		BuySlippage:   getIntEnv("BUY_SLIPPAGE", 20),

		// Sell
		AutoSell:           getBoolEnv("AUTO_SELL", true),
		MaxSellRetries:     getIntEnv("MAX_SELL_RETRIES", 10),
		AutoSellDelay:      getDurationEnv("AUTO_SELL_DELAY", 0),
		PriceCheckInterval: getDurationEnv("PRICE_CHECK_INTERVAL", 2*time.Second),
		PriceCheckDuration: getDurationEnv("PRICE_CHECK_DURATION", 10*time.Minute),
		TakeProfit:         getDecimalEnv("TAKE_PROFIT", decimal.NewFromInt(40)),
		StopLoss:           getDecimalEnv("STOP_LOSS", decimal.NewFromInt(20)),
		SellSlippage:       getIntEnv("SELL_SLIPPAGE", 20),

		// Snipe list
		UseSnipeList:             getBoolEnv("USE_SNIPE_LIST", false),
		SnipeListSource:          strings.ToLower(getEnv("SNIPE_LIST_SOURCE", "file")),
		SnipeListPath:            getEnv("SNIPE_LIST_PATH", "snipe-list.txt"),
		SnipeListRefreshInterval: getDurationEnv("SNIPE_LIST_REFRESH_INTERVAL", 30*time.Second),

		// Filters
		FilterCheckInterval:      getDurationEnv("FILTER_CHECK_INTERVAL", 2*time.Second),
		FilterCheckDuration:      getDurationEnv("FILTER_CHECK_DURATION", time.Minute),
		ConsecutiveFilterMatches: getIntEnv("CONSECUTIVE_FILTER_MATCHES", 3),
		CheckIfMutable:           getBoolEnv("CHECK_IF_MUTABLE", false),
		CheckIfMintIsRenounced:   getBoolEnv("CHECK_IF_MINT_IS_RENOUNCED", true),
		CheckIfFreezable:         getBoolEnv("CHECK_IF_FREEZABLE", false),
		CheckIfBurned:            getBoolEnv("CHECK_IF_BURNED", true),
		MinPoolSize:              getDecimalEnv("MIN_POOL_SIZE", decimal.NewFromInt(5)),
		MaxPoolSize:              getDecimalEnv("MAX_POOL_SIZE", decimal.NewFromInt(50)),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", ""),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "sniper"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// API
		APIAddr: getEnv("API_ADDR", ":8090"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),

		// HTTP
		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 3),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", 500*time.Millisecond),
	}
}

// Validate checks the configuration for values the bot cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.PrivateKey) == "" {
		return ErrMissingPrivateKey
	}
	if c.RPCEndpoint == "" || c.RPCWebsocketEndpoint == "" {
		return fmt.Errorf("RPC_ENDPOINT and RPC_WEBSOCKET_ENDPOINT are required")
	}
	if _, ok := constants.QuoteTokens[c.QuoteMint]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuoteMint, c.QuoteMint)
	}
	switch c.TransactionExecutor {
	case constants.ExecutorDefault, constants.ExecutorWarp, constants.ExecutorJito:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownExecutor, c.TransactionExecutor)
	}
	switch c.CommitmentLevel {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("invalid COMMITMENT_LEVEL: %s", c.CommitmentLevel)
	}
	if c.MaxBuyRetries < 1 || c.MaxSellRetries < 1 {
		return fmt.Errorf("MAX_BUY_RETRIES and MAX_SELL_RETRIES must be >= 1")
	}
	if c.BuySlippage < 0 || c.BuySlippage > 100 || c.SellSlippage < 0 || c.SellSlippage > 100 {
		return fmt.Errorf("slippage must be within 0..100")
	}
	if c.ConsecutiveFilterMatches < 1 {
		return fmt.Errorf("CONSECUTIVE_FILTER_MATCHES must be >= 1")
	}
	if c.FilterCheckInterval <= 0 || c.PriceCheckInterval <= 0 {
		return fmt.Errorf("FILTER_CHECK_INTERVAL and PRICE_CHECK_INTERVAL must be > 0")
	}
	if c.TakeProfit.IsNegative() || c.StopLoss.IsNegative() {
		return fmt.Errorf("TAKE_PROFIT and STOP_LOSS must not be negative")
	}
	if c.TransactionExecutor != constants.ExecutorDefault && !c.CustomFee.IsPositive() {
		return fmt.Errorf("CUSTOM_FEE must be > 0 for the %s executor", c.TransactionExecutor)
	}
	if c.UseSnipeList && c.SnipeListSource != "file" && c.SnipeListSource != "redis" {
		return fmt.Errorf("invalid SNIPE_LIST_SOURCE: %s", c.SnipeListSource)
	}
	if c.UseSnipeList && c.SnipeListSource == "redis" && c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required for the redis snipe list")
	}
	return nil
}

// Quote returns the configured quote token. Validate must have passed.
func (c *Config) Quote() constants.QuoteToken {
	return constants.QuoteTokens[c.QuoteMint]
}

// LogFields is the startup summary printed by the bot.
func (c *Config) LogFields() logrus.Fields {
	fields := logrus.Fields{
		"executor":          c.TransactionExecutor,
		"commitment":        c.CommitmentLevel,
		"one_token":         c.OneTokenAtATime,
		"preload_markets":   c.PreLoadExistingMarkets,
		"cache_new_markets": c.CacheNewMarkets,
		"quote_mint":        c.QuoteMint,
		"quote_amount":      c.QuoteAmount.String(),
		"auto_buy_delay":    c.AutoBuyDelay,
		"max_buy_retries":   c.MaxBuyRetries,
		"buy_slippage":      c.BuySlippage,
		"auto_sell":         c.AutoSell,
		"auto_sell_delay":   c.AutoSellDelay,
		"max_sell_retries":  c.MaxSellRetries,
		"sell_slippage":     c.SellSlippage,
		"price_interval":    c.PriceCheckInterval,
		"price_duration":    c.PriceCheckDuration,
		"take_profit":       c.TakeProfit.String(),
		"stop_loss":         c.StopLoss.String(),
		"use_snipe_list":    c.UseSnipeList,
	}
	if c.TransactionExecutor != constants.ExecutorDefault {
		fields["custom_fee"] = c.CustomFee.String()
	} else {
		fields["cu_limit"] = c.ComputeUnitLimit
		fields["cu_price"] = c.ComputeUnitPrice
	}
	if c.UseSnipeList {
		fields["snipe_list_source"] = c.SnipeListSource
		fields["snipe_list_refresh"] = c.SnipeListRefreshInterval
	} else {
		fields["filter_interval"] = c.FilterCheckInterval
		fields["filter_duration"] = c.FilterCheckDuration
		fields["filter_matches"] = c.ConsecutiveFilterMatches
		fields["check_mutable"] = c.CheckIfMutable
		fields["check_renounced"] = c.CheckIfMintIsRenounced
		fields["check_freezable"] = c.CheckIfFreezable
		fields["check_burned"] = c.CheckIfBurned
		fields["min_pool_size"] = c.MinPoolSize.String()
		fields["max_pool_size"] = c.MaxPoolSize.String()
	}
	return fields
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// getDurationEnv accepts Go durations ("2s") and bare integers as milliseconds.
func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if ms, err := strconv.ParseInt(val, 10, 64); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultVal
}

func getDecimalEnv(key string, defaultVal decimal.Decimal) decimal.Decimal {
	if val := os.Getenv(key); val != "" {
		if d, err := decimal.NewFromString(val); err == nil {
			return d
		}
	}
	return defaultVal
}
