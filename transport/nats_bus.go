package transport

import (
	"github.com/nats-io/nats.go"
)

// NATSBus adapts a connected *nats.Conn to the Bus interface.
// The connection is owned by the caller: reconnect policy, credentials,
// and Close all stay outside the RPC layer.
type NATSBus struct {
	conn *nats.Conn
}

// NewNATSBus wraps an established NATS connection.
func NewNATSBus(conn *nats.Conn) *NATSBus {
	return &NATSBus{conn: conn}
}

func (b *NATSBus) Subscribe(subject, queue string, handler Handler) (Subscription, error) {
	cb := func(m *nats.Msg) {
		handler(&Message{Subject: m.Subject, Reply: m.Reply, Data: m.Data})
	}
	if queue != "" {
		return b.conn.QueueSubscribe(subject, queue, cb)
	}
	return b.conn.Subscribe(subject, cb)
}

func (b *NATSBus) Publish(subject string, data []byte) error {
	return b.conn.Publish(subject, data)
}

func (b *NATSBus) PublishRequest(subject, reply string, data []byte) error {
	return b.conn.PublishRequest(subject, reply, data)
}

func (b *NATSBus) NewInbox() string {
	return nats.NewInbox()
}
