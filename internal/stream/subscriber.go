package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aman-zulfiqar/raydium-sniper/internal/metrics"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	pingPeriod = 20 * time.Second
	readWait   = 60 * time.Second
	writeWait  = 10 * time.Second
)

// SubscriberConfig holds configuration for the websocket subscriber
type SubscriberConfig struct {
	URL           string
	Commitment    rpc.CommitmentType
	Subscriptions []Subscription
	Buffer        int
	ReconnectMin  time.Duration
	ReconnectMax  time.Duration
	Dialer        *websocket.Dialer
	Metrics       *metrics.Metrics
	Logger        *logrus.Logger
}

// Subscriber keeps one programSubscribe connection per subscription alive
// and merges their notifications into a single channel.
type Subscriber struct {
	cfg    SubscriberConfig
	logger *logrus.Logger
}

func NewSubscriber(cfg SubscriberConfig) *Subscriber {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if cfg.Commitment == "" {
		cfg.Commitment = rpc.CommitmentConfirmed
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 1024
	}
	if cfg.ReconnectMin <= 0 {
		cfg.ReconnectMin = 500 * time.Millisecond
	}
	if cfg.ReconnectMax < cfg.ReconnectMin {
		cfg.ReconnectMax = 30 * time.Second
	}
	return &Subscriber{cfg: cfg, logger: cfg.Logger}
}

// Run starts every subscription. The returned channel is closed once ctx is
// cancelled and all connections have exited.
func (s *Subscriber) Run(ctx context.Context) <-chan AccountEvent {
	out := make(chan AccountEvent, s.cfg.Buffer)

	var wg sync.WaitGroup
	for _, sub := range s.cfg.Subscriptions {
		wg.Add(1)
		go func(sub Subscription) {
			defer wg.Done()
			s.keepAlive(ctx, sub, out)
		}(sub)
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// keepAlive reconnects sub with exponential backoff until ctx is done.
func (s *Subscriber) keepAlive(ctx context.Context, sub Subscription, out chan<- AccountEvent) {
	log := s.logger.WithFields(logrus.Fields{"kind": sub.Kind, "program": sub.Program.String()})
	backoff := s.cfg.ReconnectMin

	for {
		subscribed, err := s.listen(ctx, sub, out, log)
		if ctx.Err() != nil {
			return
		}
		if subscribed {
			backoff = s.cfg.ReconnectMin
		}

		log.WithError(err).WithField("retry_in", backoff).Warn("subscription dropped, reconnecting")
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.StreamReconnects.WithLabelValues(string(sub.Kind)).Inc()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > s.cfg.ReconnectMax {
			backoff = s.cfg.ReconnectMax
		}
	}
}

// listen runs one connection. It reports whether the subscribe call was
// acknowledged before the connection failed.
func (s *Subscriber) listen(ctx context.Context, sub Subscription, out chan<- AccountEvent, log *logrus.Entry) (bool, error) {
	conn, _, err := s.cfg.Dialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		return false, fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				conn.Close()
				return
			case <-done:
				return
			case <-ticker.C:
				_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			}
		}
	}()

	conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})

	if err := conn.WriteJSON(s.subscribeRequest(sub)); err != nil {
		return false, fmt.Errorf("subscribe: %w", err)
	}

	var ack subscribeResponse
	if err := conn.ReadJSON(&ack); err != nil {
		return false, fmt.Errorf("subscribe ack: %w", err)
	}
	if ack.Error != nil {
		return false, fmt.Errorf("subscribe rejected: %s", ack.Error.Message)
	}
	log.WithField("subscription", ack.Result).Info("subscribed")

	for {
		var msg notification
		if err := conn.ReadJSON(&msg); err != nil {
			return true, fmt.Errorf("read: %w", err)
		}
		conn.SetReadDeadline(time.Now().Add(readWait))

		if msg.Method != "programNotification" || msg.Params == nil {
			continue
		}

		ev, err := decodeNotification(sub.Kind, msg.Params)
		if err != nil {
			log.WithError(err).Debug("skipping undecodable notification")
			continue
		}
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.EventsReceived.WithLabelValues(string(sub.Kind)).Inc()
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			return true, ctx.Err()
		}
	}
}

func (s *Subscriber) subscribeRequest(sub Subscription) subscribeRequest {
	return subscribeRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "programSubscribe",
		Params: []interface{}{
			sub.Program.String(),
			subscribeOpts{
				Encoding:   solana.EncodingBase64,
				Commitment: s.cfg.Commitment,
				Filters:    sub.Filters,
			},
		},
	}
}

type subscribeRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type subscribeOpts struct {
	Encoding   solana.EncodingType `json:"encoding"`
	Commitment rpc.CommitmentType  `json:"commitment"`
	Filters    []rpc.RPCFilter     `json:"filters,omitempty"`
}

type subscribeResponse struct {
	Result uint64 `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type notification struct {
	Method string              `json:"method"`
	Params *notificationParams `json:"params"`
}

type notificationParams struct {
	Result struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value rpc.KeyedAccount `json:"value"`
	} `json:"result"`
	Subscription uint64 `json:"subscription"`
}

func decodeNotification(kind Kind, p *notificationParams) (AccountEvent, error) {
	acct := p.Result.Value.Account
	if acct == nil || acct.Data == nil {
		return AccountEvent{}, fmt.Errorf("notification without account data")
	}
	return AccountEvent{
		Kind:   kind,
		Pubkey: p.Result.Value.Pubkey,
		Data:   acct.Data.GetBinary(),
		Slot:   p.Result.Context.Slot,
	}, nil
}
