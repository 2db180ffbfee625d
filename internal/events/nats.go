package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// subscriptionBuffer is the per-subscription channel capacity. Messages
// arriving while it is full are dropped.
const subscriptionBuffer = 64

// connect dials NATS with reconnection enabled. opts are applied after the
// defaults and may override them.
func connect(url, name string, opts ...nats.Option) (*nats.Conn, error) {
	defaults := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// NATSPublisher publishes enveloped JSON events on NATS subjects named after
// their topic.
type NATSPublisher struct {
	conn *nats.Conn
}

var _ Publisher = (*NATSPublisher)(nil)

func NewNATSPublisher(url string, opts ...nats.Option) (*NATSPublisher, error) {
	nc, err := connect(url, "board-publisher", opts...)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: nc}, nil
}

// Publish sends event on topic. An *Envelope goes out unchanged; any other
// value is wrapped in a new envelope.
func (p *NATSPublisher) Publish(_ context.Context, topic string, event any) error {
	env, ok := event.(*Envelope)
	if !ok {
		var err error
		if env, err = NewEnvelope(topic, event); err != nil {
			return err
		}
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshaling envelope: %w", err)
	}
	if err := p.conn.Publish(topic, data); err != nil {
		return fmt.Errorf("publishing %s: %w", topic, err)
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}

// NATSSubscriber delivers NATS messages as raw payloads.
type NATSSubscriber struct {
	conn *nats.Conn
}

var _ Subscriber = (*NATSSubscriber)(nil)

// NewNATSSubscriber connects to NATS. Extra options such as disconnect and
// reconnect handlers are appended to the defaults.
func NewNATSSubscriber(url string, opts ...nats.Option) (*NATSSubscriber, error) {
	nc, err := connect(url, "board-subscriber", opts...)
	if err != nil {
		return nil, err
	}
	return &NATSSubscriber{conn: nc}, nil
}

// subscription forwards messages to ch until cancelled.
type subscription struct {
	mu     sync.Mutex
	ch     chan []byte
	sub    *nats.Subscription
	closed bool
}

// deliver runs on the NATS dispatch goroutine and never blocks it.
func (s *subscription) deliver(msg *nats.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- msg.Data:
	default:
	}
}

func (s *subscription) cancel() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	ns := s.sub
	close(s.ch)
	s.mu.Unlock()

	if ns != nil {
		_ = ns.Unsubscribe()
	}
}

// Subscribe returns a channel of raw payloads for topic. NATS wildcards such
// as "board.>" work. The subscription is registered with the server before
// Subscribe returns. Calling cancel unsubscribes and closes the channel; it
// is safe to call more than once.
func (s *NATSSubscriber) Subscribe(topic string) (<-chan []byte, func(), error) {
	sub := &subscription{ch: make(chan []byte, subscriptionBuffer)}
	ns, err := s.conn.Subscribe(topic, sub.deliver)
	if err != nil {
		sub.cancel()
		return nil, nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	sub.mu.Lock()
	sub.sub = ns
	sub.mu.Unlock()

	if err := s.conn.Flush(); err != nil {
		sub.cancel()
		return nil, nil, fmt.Errorf("flushing subscription: %w", err)
	}
	return sub.ch, sub.cancel, nil
}

func (s *NATSSubscriber) Close() error {
	s.conn.Close()
	return nil
}
