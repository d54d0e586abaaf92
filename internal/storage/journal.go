package storage

import (
	"context"

	"github.com/aman-zulfiqar/raydium-sniper/internal/models"
	"github.com/sirupsen/logrus"
)

// MultiJournal writes each trade to the optional cache and store. Write
// failures are logged and never reach the trading path.
type MultiJournal struct {
	cache  TradeCache
	store  TradeStore
	logger *logrus.Logger
}

func NewMultiJournal(cache TradeCache, store TradeStore, logger *logrus.Logger) *MultiJournal {
	if logger == nil {
		logger = logrus.New()
	}
	return &MultiJournal{cache: cache, store: store, logger: logger}
}

func (j *MultiJournal) Record(ctx context.Context, trade *models.TradeEvent) {
	log := j.logger.WithFields(logrus.Fields{
		"signature": trade.Signature,
		"mint":      trade.Mint,
		"side":      trade.Side,
	})

	if j.cache != nil {
		if err := j.cache.AddRecentTrade(ctx, trade); err != nil {
			log.WithError(err).Warn("Failed to cache trade")
		}
		if err := j.cache.PublishTrade(ctx, trade); err != nil {
			log.WithError(err).Warn("Failed to publish trade")
		}
	}

	if j.store != nil {
		if err := j.store.InsertTrade(ctx, trade); err != nil {
			log.WithError(err).Warn("Failed to store trade")
		}
	}
}

// NopJournal discards trades.
type NopJournal struct{}

func (NopJournal) Record(context.Context, *models.TradeEvent) {}
