package constants

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// Redis keys
const (
	RedisKeyRecentTrades = "trades:recent"
	RedisKeySnipeList    = "snipelist:mints"
)

// Redis Pub/Sub channels
const (
	PubSubChannelTrades = "trades:live"
)

// Limits
const (
	MaxRecentTrades   = 200
	MaxClosedHistory  = 500
	MaxFetchBatchSize = 100
)

// Program addresses
var (
	RaydiumAmmV4Program = solana.MPK("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
	RaydiumAuthorityV4  = solana.MPK("5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1")
	OpenBookProgram     = solana.MPK("srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX")
)

// Quote mints
var (
	WSOLMint = solana.SolMint
	USDCMint = solana.MPK("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
)

// QuoteToken describes a supported quote asset.
type QuoteToken struct {
	Symbol   string
	Mint     solana.PublicKey
	Decimals uint8
}

var QuoteTokens = map[string]QuoteToken{
	"WSOL": {Symbol: "WSOL", Mint: WSOLMint, Decimals: 9},
	"USDC": {Symbol: "USDC", Mint: USDCMint, Decimals: 6},
}

// Warp relay
const (
	WarpRelayURL     = "https://tx.warp.id/transaction/execute"
	WarpRelayTimeout = 100 * time.Second
)

var WarpFeeWallet = solana.MPK("WARPzUMPnycu9eeCZ95rcAUxorqpBqHndfV3ZP5FSyS")

// Jito block engine
const (
	JitoBlockEngineURL = "https://mainnet.block-engine.jito.wtf/api/v1/bundles"
)

var JitoTipAccounts = []solana.PublicKey{
	solana.MPK("96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5"),
	solana.MPK("HFqU5x63VTqvQss8hp11i4wVV8bD44PvwucfZ2bU7gRe"),
	solana.MPK("Cw8CFyM9FkoMi7K7Crf6HNQqf4uEMzpKw6QNghXLvLkY"),
	solana.MPK("ADaUMid9yfUytqMBgopwjb2DTLSokTSzL1zt6iGPaS49"),
	solana.MPK("DfXygSm4jCyNCybVYYK6DwvWqjKee8pbDmJGcLWNDXjh"),
	solana.MPK("ADuUkR4vqLUMWXxW9gh6D6L8pMSawimctcNZ5pGwDcEt"),
	solana.MPK("DttWaMuVvTiduZRnguLF7jNxTgiMBZ1hyAumKUiL2KRL"),
	solana.MPK("3AVi9Tg9Uo68tJfuvoKvqKNWKkC5wPdSSdeBnizKZ6jT"),
}

// Executor names accepted by TRANSACTION_EXECUTOR
const (
	ExecutorDefault = "default"
	ExecutorWarp    = "warp"
	ExecutorJito    = "jito"
)

// Metrics
const (
	MetricsNamespace = "raydium_sniper"
)
