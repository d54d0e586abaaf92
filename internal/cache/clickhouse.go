package cache

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/aman-zulfiqar/raydium-sniper/internal/models"
	"github.com/sirupsen/logrus"
)

type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Logger   *logrus.Logger
}

type ClickHouseStore struct {
	conn   driver.Conn
	logger *logrus.Logger
}

const createTradesTable = `
	CREATE TABLE IF NOT EXISTS trades (
		signature  String,
		timestamp  DateTime64(3),
		side       LowCardinality(String),
		mint       String,
		pool       String,
		amount_in  UInt64,
		amount_out UInt64,
		executor   LowCardinality(String),
		status     LowCardinality(String),
		attempts   UInt16,
		error      String
	) ENGINE = MergeTree()
	ORDER BY (mint, timestamp)
`

func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseStore, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test connection
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	if err := conn.Exec(ctx, createTradesTable); err != nil {
		return nil, fmt.Errorf("failed to create trades table: %w", err)
	}

	cfg.Logger.WithField("addr", cfg.Addr).Info("Connected to ClickHouse")

	return &ClickHouseStore{conn: conn, logger: cfg.Logger}, nil
}

func (c *ClickHouseStore) InsertTrade(ctx context.Context, trade *models.TradeEvent) error {
	query := `
		INSERT INTO trades (
			signature, timestamp, side, mint, pool,
			amount_in, amount_out, executor, status, attempts, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := c.conn.Exec(ctx, query,
		trade.Signature,
		trade.Timestamp,
		trade.Side,
		trade.Mint,
		trade.Pool,
		trade.AmountIn,
		trade.AmountOut,
		trade.Executor,
		trade.Status,
		uint16(trade.Attempts),
		trade.Error,
	)

	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}

	return nil
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
