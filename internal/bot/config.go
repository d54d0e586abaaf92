package bot

import (
	"time"

	"github.com/aman-zulfiqar/raydium-sniper/internal/config"
	"github.com/aman-zulfiqar/raydium-sniper/internal/constants"
	"github.com/shopspring/decimal"
)

type Config struct {
	Quote           constants.QuoteToken
	QuoteAmount     decimal.Decimal
	OneTokenAtATime bool
	Executor        string

	// Compute budget, zero when the executor prices inclusion itself.
	ComputeUnitLimit uint32
	ComputeUnitPrice uint64

	// Buy
	AutoBuyDelay  time.Duration
	MaxBuyRetries int
	BuySlippage   int

	// Entry
	UseSnipeList             bool
	FilterCheckInterval      time.Duration
	FilterCheckDuration      time.Duration
	ConsecutiveFilterMatches int

	// Sell
	AutoSell           bool
	AutoSellDelay      time.Duration
	MaxSellRetries     int
	SellSlippage       int
	PriceCheckInterval time.Duration
	PriceCheckDuration time.Duration
	TakeProfit         decimal.Decimal
	StopLoss           decimal.Decimal
}

// ConfigFrom maps the process configuration onto the engine.
func ConfigFrom(c *config.Config) Config {
	cfg := Config{
		Quote:                    c.Quote(),
		QuoteAmount:              c.QuoteAmount,
		OneTokenAtATime:          c.OneTokenAtATime,
		Executor:                 c.TransactionExecutor,
		AutoBuyDelay:             c.AutoBuyDelay,
		MaxBuyRetries:            c.MaxBuyRetries,
		BuySlippage:              c.BuySlippage,
		UseSnipeList:             c.UseSnipeList,
		FilterCheckInterval:      c.FilterCheckInterval,
		FilterCheckDuration:      c.FilterCheckDuration,
		ConsecutiveFilterMatches: c.ConsecutiveFilterMatches,
		AutoSell:                 c.AutoSell,
		AutoSellDelay:            c.AutoSellDelay,
		MaxSellRetries:           c.MaxSellRetries,
		SellSlippage:             c.SellSlippage,
		PriceCheckInterval:       c.PriceCheckInterval,
		PriceCheckDuration:       c.PriceCheckDuration,
		TakeProfit:               c.TakeProfit,
		StopLoss:                 c.StopLoss,
	}
	if c.TransactionExecutor == constants.ExecutorDefault {
		cfg.ComputeUnitLimit = c.ComputeUnitLimit
		cfg.ComputeUnitPrice = c.ComputeUnitPrice
	}
	return cfg
}
