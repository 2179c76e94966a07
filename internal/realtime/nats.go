package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NatsBroker relays room events over core NATS subjects so several server
// instances share one realtime channel.
type NatsBroker struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

func NewNatsBroker(url, prefix string) (*NatsBroker, error) {
	nc, err := nats.Connect(url,
		nats.Name("nebulachat"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NatsBroker{conn: nc, prefix: prefix, logger: slog.With("component", "nats-broker")}, nil
}

func (b *NatsBroker) subject(topic string) string {
	if b.prefix == "" {
		return topic
	}
	return b.prefix + "." + topic
}

func (b *NatsBroker) Publish(_ context.Context, topic string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.conn.Publish(b.subject(topic), data); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (b *NatsBroker) Subscribe(topic string, handler func(Event)) (Subscription, error) {
	sub, err := b.conn.Subscribe(b.subject(topic), func(m *nats.Msg) {
		var event Event
		if err := json.Unmarshal(m.Data, &event); err != nil {
			b.logger.Warn("dropping undecodable event", "subject", m.Subject, "error", err)
			return
		}
		handler(event)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return &natsSubscription{sub: sub, logger: b.logger}, nil
}

// Flush waits until the server has processed everything published so far.
func (b *NatsBroker) Flush() error {
	return b.conn.Flush()
}

func (b *NatsBroker) Close() error {
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
		return err
	}
	return nil
}

type natsSubscription struct {
	sub    *nats.Subscription
	logger *slog.Logger
	once   sync.Once
}

func (s *natsSubscription) Unsubscribe() {
	s.once.Do(func() {
		if err := s.sub.Unsubscribe(); err != nil {
			s.logger.Debug("unsubscribe failed", "subject", s.sub.Subject, "error", err)
		}
	})
}
