package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aman-zulfiqar/raydium-sniper/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

type fakeCache struct {
	recent    []*models.TradeEvent
	published []*models.TradeEvent
	err       error
}

func (f *fakeCache) AddRecentTrade(_ context.Context, t *models.TradeEvent) error {
	f.recent = append(f.recent, t)
	return f.err
}

func (f *fakeCache) GetRecentTrades(context.Context, int64) ([]*models.TradeEvent, error) {
	return f.recent, nil
}

func (f *fakeCache) PublishTrade(_ context.Context, t *models.TradeEvent) error {
	f.published = append(f.published, t)
	return f.err
}

func (f *fakeCache) SubscribeTrades(context.Context) (<-chan *models.TradeEvent, error) {
	return nil, nil
}

func (f *fakeCache) Ping(context.Context) error { return nil }
func (f *fakeCache) Close() error               { return nil }

type fakeStore struct {
	inserted []*models.TradeEvent
	err      error
}

func (f *fakeStore) InsertTrade(_ context.Context, t *models.TradeEvent) error {
	f.inserted = append(f.inserted, t)
	return f.err
}

func (f *fakeStore) Ping(context.Context) error { return nil }
func (f *fakeStore) Close() error               { return nil }

func trade() *models.TradeEvent {
	return &models.TradeEvent{Signature: "sig", Timestamp: time.Now(), Side: models.SideBuy, Mint: "mint"}
}

func TestMultiJournal_WritesEverywhere(t *testing.T) {
	c, s := &fakeCache{}, &fakeStore{}
	j := NewMultiJournal(c, s, nil)

	j.Record(context.Background(), trade())

	assert.Len(t, c.recent, 1)
	assert.Len(t, c.published, 1)
	assert.Len(t, s.inserted, 1)
}

func TestMultiJournal_LogsFailures(t *testing.T) {
	logger, hook := test.NewNullLogger()
	c := &fakeCache{err: errors.New("redis down")}
	s := &fakeStore{err: errors.New("clickhouse down")}

	NewMultiJournal(c, s, logger).Record(context.Background(), trade())

	assert.Len(t, hook.AllEntries(), 3)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Len(t, s.inserted, 1)
}

func TestMultiJournal_OptionalSinks(t *testing.T) {
	NewMultiJournal(nil, nil, nil).Record(context.Background(), trade())
	NopJournal{}.Record(context.Background(), trade())
}
