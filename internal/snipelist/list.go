package snipelist

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// Source supplies the current set of mints.
type Source interface {
	Load(ctx context.Context) ([]string, error)
}

type Config struct {
	Source          Source
	RefreshInterval time.Duration
	Logger          *logrus.Logger
}

// SnipeList is an in-memory allow-list refreshed from its source.
type SnipeList struct {
	source   Source
	interval time.Duration
	logger   *logrus.Logger

	mu    sync.RWMutex
	mints map[solana.PublicKey]struct{}
}

func New(cfg Config) *SnipeList {
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &SnipeList{
		source:   cfg.Source,
		interval: cfg.RefreshInterval,
		logger:   cfg.Logger,
		mints:    make(map[solana.PublicKey]struct{}),
	}
}

// Refresh replaces the set with the source's contents. Invalid lines are
// logged and skipped. On error the previous set is kept.
func (l *SnipeList) Refresh(ctx context.Context) error {
	raw, err := l.source.Load(ctx)
	if err != nil {
		return err
	}

	next := make(map[solana.PublicKey]struct{}, len(raw))
	for _, m := range raw {
		pk, err := ValidateMint(m)
		if err != nil {
			l.logger.WithField("mint", m).Warn("Skipping invalid snipe list entry")
			continue
		}
		next[pk] = struct{}{}
	}

	l.mu.Lock()
	l.mints = next
	l.mu.Unlock()

	l.logger.WithField("count", len(next)).Trace("Refreshed snipe list")
	return nil
}

// Run refreshes once, then on every interval until ctx is done.
func (l *SnipeList) Run(ctx context.Context) {
	if err := l.Refresh(ctx); err != nil {
		l.logger.WithError(err).Error("Failed to load snipe list")
	}

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.Refresh(ctx); err != nil {
				l.logger.WithError(err).Warn("Failed to refresh snipe list")
			}
		}
	}
}

func (l *SnipeList) Contains(mint solana.PublicKey) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.mints[mint]
	return ok
}

func (l *SnipeList) Mints() []string {
	l.mu.RLock()
	out := make([]string, 0, len(l.mints))
	for m := range l.mints {
		out = append(out, m.String())
	}
	l.mu.RUnlock()

	sort.Strings(out)
	return out
}
