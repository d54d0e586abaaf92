package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aman-zulfiqar/raydium-sniper/internal/constants"
	"github.com/aman-zulfiqar/raydium-sniper/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type PubSubManager struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewPubSubManager(client *redis.Client, logger *logrus.Logger) *PubSubManager {
	if logger == nil {
		logger = logrus.New()
	}
	return &PubSubManager{client: client, logger: logger}
}

// PublishTrade publishes to the live feed and the per-side and per-mint channels
func (p *PubSubManager) PublishTrade(ctx context.Context, trade *models.TradeEvent) error {
	data, err := json.Marshal(trade)
	if err != nil {
		return err
	}

	channels := []string{
		constants.PubSubChannelTrades,
		fmt.Sprintf("%s:side:%s", constants.PubSubChannelTrades, trade.Side),
		fmt.Sprintf("%s:mint:%s", constants.PubSubChannelTrades, trade.Mint),
	}

	pipe := p.client.Pipeline()
	for _, channel := range channels {
		pipe.Publish(ctx, channel, data)
	}

	_, err = pipe.Exec(ctx)
	return err
}

// Subscribe streams decoded trades from channel until ctx is done.
func (p *PubSubManager) Subscribe(ctx context.Context, channel string) (<-chan *models.TradeEvent, error) {
	pubsub := p.client.Subscribe(ctx, channel)

	// wait for the subscription confirmation so early publishes are not lost
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	p.logger.WithField("channel", channel).Debug("Subscribed to channel")

	out := make(chan *models.TradeEvent, 64)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var trade models.TradeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &trade); err != nil {
					p.logger.WithError(err).Debug("Error unmarshaling trade")
					continue
				}
				select {
				case out <- &trade:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
