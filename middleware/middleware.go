// Package middleware implements the onion-model handler chain wrapped
// around the business processor.
//
//	Chain(A, B, C)(handler) → A(B(C(handler)))
//	Execution: A.before → B.before → C.before → handler → C.after → B.after → A.after
package middleware

import (
	"context"

	"nats-rpc/message"
)

type HandlerFunc func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage

type Middleware func(next HandlerFunc) HandlerFunc

// Chain combines multiple middlewares into one, applied in registration order.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
