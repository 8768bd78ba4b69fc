package middleware

import (
	"context"

	"golang.org/x/time/rate"

	"nats-rpc/message"
)

// RateLimit rejects requests beyond a token-bucket budget of r per second
// with bursts of up to burst. Rejected calls get an error response without
// reaching the business handler.
func RateLimit(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
			if !limiter.Allow() {
				return &message.RPCMessage{
					ServiceMethod: req.ServiceMethod,
					Error:         "rate limit exceeded",
				}
			}
			return next(ctx, req)
		}
	}
}
