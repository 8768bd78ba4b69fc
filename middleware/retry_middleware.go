package middleware

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"nats-rpc/message"
)

// Retry re-runs the handler on transient errors with exponential backoff.
// Only errors that look transient (timeouts, refused connections to a
// downstream) are retried; anything else returns immediately.
func Retry(maxRetries int, baseDelay time.Duration, logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
			rpcMessage := next(ctx, req)
			for i := 0; i < maxRetries; i++ {
				if rpcMessage.Error == "" {
					return rpcMessage // Success, return response
				}
				if strings.Contains(rpcMessage.Error, "timeout") || strings.Contains(rpcMessage.Error, "connection refused") {
					logger.Info("retrying request",
						zap.Int("attempt", i+1),
						zap.String("method", req.ServiceMethod),
						zap.String("error", rpcMessage.Error))
					time.Sleep(baseDelay * time.Duration(1<<i)) // Exponential backoff
					rpcMessage = next(ctx, req)
				} else {
					return rpcMessage // Non-retryable error, return immediately
				}
			}
			return rpcMessage // Return last response after retries
		}
	}
}
