package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"nats-rpc/message"
)

// Logging records the service method and handler duration for every call,
// plus the error string when the handler failed.
func Logging(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
			start := time.Now()
			rpcMessage := next(ctx, req)
			logger.Info("handled request",
				zap.String("method", req.ServiceMethod),
				zap.Duration("duration", time.Since(start)))
			if rpcMessage.Error != "" {
				logger.Warn("handler returned error",
					zap.String("method", req.ServiceMethod),
					zap.String("error", rpcMessage.Error))
			}
			return rpcMessage
		}
	}
}
