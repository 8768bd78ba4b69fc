package transport

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBusFanOut(t *testing.T) {
	bus := NewMemoryBus()
	var got []string
	for i := 0; i < 3; i++ {
		_, err := bus.Subscribe("events", "", func(msg *Message) {
			got = append(got, string(msg.Data))
		})
		require.NoError(t, err)
	}

	require.NoError(t, bus.Publish("events", []byte("x")))
	assert.Len(t, got, 3) // no queue group: everyone sees the message
}

func TestMemoryBusQueueGroup(t *testing.T) {
	bus := NewMemoryBus()
	var mu sync.Mutex
	counts := make(map[int]int)
	for i := 0; i < 3; i++ {
		i := i
		_, err := bus.Subscribe("work", "workers", func(msg *Message) {
			mu.Lock()
			counts[i]++
			mu.Unlock()
		})
		require.NoError(t, err)
	}

	const n = 50
	for i := 0; i < n; i++ {
		require.NoError(t, bus.Publish("work", []byte("job")))
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	assert.Equal(t, n, total) // each message delivered to exactly one member
}

func TestMemoryBusReplySubjectCarried(t *testing.T) {
	bus := NewMemoryBus()
	var seen *Message
	_, err := bus.Subscribe("rpc", "", func(msg *Message) { seen = msg })
	require.NoError(t, err)

	require.NoError(t, bus.PublishRequest("rpc", "inbox.42", []byte("req")))
	require.NotNil(t, seen)
	assert.Equal(t, "rpc", seen.Subject)
	assert.Equal(t, "inbox.42", seen.Reply)

	require.NoError(t, bus.Publish("rpc", []byte("plain")))
	assert.Empty(t, seen.Reply) // plain publish has no reply subject
}

func TestMemoryBusUnsubscribe(t *testing.T) {
	bus := NewMemoryBus()
	calls := 0
	sub, err := bus.Subscribe("s", "", func(msg *Message) { calls++ })
	require.NoError(t, err)

	require.NoError(t, bus.Publish("s", nil))
	require.NoError(t, sub.Unsubscribe())
	require.NoError(t, bus.Publish("s", nil))

	assert.Equal(t, 1, calls)
	assert.Error(t, sub.Unsubscribe())
}

func TestMemoryBusInboxesAreUnique(t *testing.T) {
	bus := NewMemoryBus()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		inbox := bus.NewInbox()
		assert.False(t, seen[inbox])
		seen[inbox] = true
	}
}

func TestMemoryBusEmptySubject(t *testing.T) {
	bus := NewMemoryBus()
	_, err := bus.Subscribe("", "", func(msg *Message) {})
	assert.Error(t, err)
}
