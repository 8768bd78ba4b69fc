// Package transport abstracts the pub/sub message bus the RPC layer rides
// on, and implements the client-side request/reply transport over it.
//
// The server core never touches a concrete bus: it subscribes through the
// Bus interface and handles whatever Messages the bus delivers. NATSBus is
// the production implementation; MemoryBus is an in-process one for tests
// and single-binary wiring.
package transport

// Message is one inbound bus delivery: an opaque payload plus the reply
// subject the publisher wants the response on. Reply is empty for plain
// publishes — such messages cannot be serviced by a request/reply server.
type Message struct {
	Subject string
	Reply   string
	Data    []byte
}

// Handler is the per-message callback a subscriber registers. The bus may
// invoke it concurrently for independent messages.
type Handler func(msg *Message)

// Subscription is the handle returned by Subscribe; consuming it with
// Unsubscribe stops delivery. After Unsubscribe returns, no new handler
// invocations start.
type Subscription interface {
	Unsubscribe() error
}

// Bus is the message bus client contract the RPC layer needs. All methods
// may block; failures are transport-defined errors.
type Bus interface {
	// Subscribe registers handler for subject. A non-empty queue joins a
	// queue group: the bus load-balances each message to one member.
	Subscribe(subject, queue string, handler Handler) (Subscription, error)

	// Publish sends data to subject with no reply subject attached.
	Publish(subject string, data []byte) error

	// PublishRequest sends data to subject, asking for responses on reply.
	PublishRequest(subject, reply string, data []byte) error

	// NewInbox returns a unique subject suitable as a reply address.
	NewInbox() string
}
