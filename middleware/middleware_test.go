package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"nats-rpc/message"
)

// echoHandler returns a success response immediately.
func echoHandler(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
	return &message.RPCMessage{
		ServiceMethod: req.ServiceMethod,
		Payload:       []byte("ok"),
	}
}

// slowHandler sleeps past any reasonable test timeout budget.
func slowHandler(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
	time.Sleep(200 * time.Millisecond)
	return &message.RPCMessage{
		ServiceMethod: req.ServiceMethod,
		Payload:       []byte("ok"),
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next HandlerFunc) HandlerFunc {
			return func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
				order = append(order, name+".before")
				resp := next(ctx, req)
				order = append(order, name+".after")
				return resp
			}
		}
	}

	handler := Chain(tag("A"), tag("B"))(echoHandler)
	handler(context.Background(), &message.RPCMessage{ServiceMethod: "S.M"})

	assert.Equal(t, []string{"A.before", "B.before", "B.after", "A.after"}, order)
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := Logging(zap.New(core))(echoHandler)

	resp := handler(context.Background(), &message.RPCMessage{ServiceMethod: "Arith.Add"})
	require.NotNil(t, resp)
	assert.Equal(t, []byte("ok"), resp.Payload)

	entries := logs.FilterMessage("handled request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Arith.Add", entries[0].ContextMap()["method"])
}

func TestLoggingError(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	failing := func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
		return &message.RPCMessage{ServiceMethod: req.ServiceMethod, Error: "boom"}
	}
	handler := Logging(zap.New(core))(failing)

	handler(context.Background(), &message.RPCMessage{ServiceMethod: "Arith.Add"})
	assert.Equal(t, 1, logs.FilterMessage("handler returned error").Len())
}

func TestRateLimit(t *testing.T) {
	// 1 rps with burst 2: first two calls pass, third is rejected.
	handler := RateLimit(1, 2)(echoHandler)
	req := &message.RPCMessage{ServiceMethod: "Arith.Add"}

	assert.Empty(t, handler(context.Background(), req).Error)
	assert.Empty(t, handler(context.Background(), req).Error)
	assert.Equal(t, "rate limit exceeded", handler(context.Background(), req).Error)
}

func TestTimeoutPass(t *testing.T) {
	handler := Timeout(500 * time.Millisecond)(echoHandler)

	resp := handler(context.Background(), &message.RPCMessage{ServiceMethod: "Arith.Add"})
	assert.Empty(t, resp.Error)
}

func TestTimeoutExpires(t *testing.T) {
	handler := Timeout(50 * time.Millisecond)(slowHandler)

	resp := handler(context.Background(), &message.RPCMessage{ServiceMethod: "Arith.Add"})
	assert.Equal(t, "request timed out", resp.Error)
}

func TestRetryGivesUpOnPermanentError(t *testing.T) {
	calls := 0
	failing := func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
		calls++
		return &message.RPCMessage{ServiceMethod: req.ServiceMethod, Error: "invalid argument"}
	}
	handler := Retry(3, time.Millisecond, zap.NewNop())(failing)

	resp := handler(context.Background(), &message.RPCMessage{ServiceMethod: "S.M"})
	assert.Equal(t, "invalid argument", resp.Error)
	assert.Equal(t, 1, calls) // non-retryable, no second attempt
}

func TestRetryRecoversFromTransientError(t *testing.T) {
	calls := 0
	flaky := func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
		calls++
		if calls < 3 {
			return &message.RPCMessage{ServiceMethod: req.ServiceMethod, Error: "request timeout"}
		}
		return &message.RPCMessage{ServiceMethod: req.ServiceMethod, Payload: []byte("ok")}
	}
	handler := Retry(5, time.Millisecond, zap.NewNop())(flaky)

	resp := handler(context.Background(), &message.RPCMessage{ServiceMethod: "S.M"})
	assert.Empty(t, resp.Error)
	assert.Equal(t, 3, calls)
}
