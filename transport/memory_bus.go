package transport

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
)

// MemoryBus is an in-process Bus for tests and single-binary wiring.
// Delivery is synchronous: Publish runs every matching handler before it
// returns, which makes test assertions deterministic. Queue groups behave
// like NATS queue groups: each message goes to one randomly chosen member.
type MemoryBus struct {
	mu       sync.RWMutex
	subs     map[string][]*memorySub
	inboxSeq atomic.Uint64
}

type memorySub struct {
	bus     *MemoryBus
	subject string
	queue   string
	handler Handler
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]*memorySub)}
}

func (b *MemoryBus) Subscribe(subject, queue string, handler Handler) (Subscription, error) {
	if subject == "" {
		return nil, fmt.Errorf("memory bus: empty subject")
	}
	sub := &memorySub{bus: b, subject: subject, queue: queue, handler: handler}
	b.mu.Lock()
	b.subs[subject] = append(b.subs[subject], sub)
	b.mu.Unlock()
	return sub, nil
}

func (b *MemoryBus) Publish(subject string, data []byte) error {
	return b.deliver(&Message{Subject: subject, Data: data})
}

func (b *MemoryBus) PublishRequest(subject, reply string, data []byte) error {
	return b.deliver(&Message{Subject: subject, Reply: reply, Data: data})
}

func (b *MemoryBus) NewInbox() string {
	return fmt.Sprintf("_INBOX.%d", b.inboxSeq.Add(1))
}

// deliver fans the message out: every plain subscriber gets it, and each
// queue group delivers to exactly one member. Handlers run on the
// publisher's goroutine; a handler that publishes recurses safely because
// the subscriber list is copied before release of the lock.
func (b *MemoryBus) deliver(msg *Message) error {
	b.mu.RLock()
	subs := make([]*memorySub, len(b.subs[msg.Subject]))
	copy(subs, b.subs[msg.Subject])
	b.mu.RUnlock()

	groups := make(map[string][]*memorySub)
	for _, sub := range subs {
		if sub.queue == "" {
			sub.handler(msg)
			continue
		}
		groups[sub.queue] = append(groups[sub.queue], sub)
	}
	for _, members := range groups {
		members[rand.Intn(len(members))].handler(msg)
	}
	return nil
}

func (s *memorySub) Unsubscribe() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	list := s.bus.subs[s.subject]
	for i, sub := range list {
		if sub == s {
			s.bus.subs[s.subject] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("memory bus: subscription already removed")
}
