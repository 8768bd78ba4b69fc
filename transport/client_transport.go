package transport

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimeout reports that no reply arrived within the request deadline.
// The server never signals failures on the wire — a missing reply is the
// only symptom — so the client's own deadline is the one backstop.
var ErrTimeout = errors.New("transport: request timed out")

// ClientTransport performs request/reply over a Bus.
//
// The bus is stateless, so there is no sequence-number multiplexing: each
// call gets a fresh inbox subject, subscribes to it, publishes the request
// with the inbox as the reply address, and waits for the single reply.
// The subscription lives exactly as long as the call.
type ClientTransport struct {
	bus     Bus
	timeout time.Duration
}

// NewClientTransport creates a transport with the given per-request
// deadline. A non-positive timeout falls back to 5 seconds.
func NewClientTransport(bus Bus, timeout time.Duration) *ClientTransport {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ClientTransport{bus: bus, timeout: timeout}
}

// Request publishes data to subject and returns the first reply payload.
// Replies after the first are ignored; the buffered channel keeps a late
// handler invocation from blocking on an abandoned call.
func (t *ClientTransport) Request(subject string, data []byte) ([]byte, error) {
	inbox := t.bus.NewInbox()
	replyCh := make(chan []byte, 1)

	sub, err := t.bus.Subscribe(inbox, "", func(msg *Message) {
		select {
		case replyCh <- msg.Data:
		default:
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe reply inbox: %w", err)
	}
	defer sub.Unsubscribe()

	if err := t.bus.PublishRequest(subject, inbox, data); err != nil {
		return nil, fmt.Errorf("publish request: %w", err)
	}

	select {
	case reply := <-replyCh:
		return reply, nil
	case <-time.After(t.timeout):
		return nil, ErrTimeout
	}
}

// Send publishes data to subject without waiting for a reply. A reply
// address is still attached — the server discards unaddressable messages —
// but nothing subscribes to it; a oneway handler writes no response anyway.
func (t *ClientTransport) Send(subject string, data []byte) error {
	return t.bus.PublishRequest(subject, t.bus.NewInbox(), data)
}
