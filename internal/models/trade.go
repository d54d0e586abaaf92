package models

import "time"

const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// TradeEvent is one finished buy or sell, successful or not.
type TradeEvent struct {
	Signature string    `json:"signature"`
	Timestamp time.Time `json:"timestamp"`
	Side      string    `json:"side"`
	Mint      string    `json:"mint"`
	Pool      string    `json:"pool"`
	AmountIn  uint64    `json:"amount_in"`  // raw units of the input token
	AmountOut uint64    `json:"amount_out"` // raw units, expected minimum for failed trades
	Executor  string    `json:"executor"`
	Status    string    `json:"status"`
	Attempts  int       `json:"attempts"`
	Error     string    `json:"error,omitempty"`
}
