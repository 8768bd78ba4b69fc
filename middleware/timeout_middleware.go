package middleware

import (
	"context"
	"time"

	"nats-rpc/message"
)

// Timeout bounds the handler's execution time. The handler keeps running in
// its goroutine after the deadline fires; only the response is abandoned.
func Timeout(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			done := make(chan *message.RPCMessage, 1)
			go func() {
				done <- next(ctx, req)
			}()

			select {
			case rpcMessage := <-done:
				return rpcMessage
			case <-ctx.Done():
				return &message.RPCMessage{
					ServiceMethod: req.ServiceMethod,
					Error:         "request timed out",
				}
			}
		}
	}
}
