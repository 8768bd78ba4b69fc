// Package processor defines the RPC processor contract the server core
// dispatches into, plus a reflection-based implementation that routes
// "Service.Method" requests to registered Go receivers.
//
// The server treats a Processor as opaque: it hands over the decoded
// request bytes and a response sink, and only looks at the error and at
// how many bytes were written. Alternative RPC stacks plug in by
// implementing Process.
package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"nats-rpc/codec"
	"nats-rpc/message"
	"nats-rpc/middleware"
)

// Processor turns one request byte stream into zero or more response bytes.
// Writing nothing signals a oneway call. Errors are RPC-layer failures; the
// server logs them and sends no reply.
type Processor interface {
	Process(in io.Reader, out io.Writer) error
}

// ServiceProcessor dispatches requests to registered services by
// reflection. Exported methods with the signature
//
//	func (recv *T) Method(args *Args, reply *Reply) error
//
// become callable as "T.Method".
type ServiceProcessor struct {
	serviceMap  map[string]*service
	codec       codec.Codec
	middlewares []middleware.Middleware
	handler     middleware.HandlerFunc
	buildOnce   sync.Once
	logger      *zap.Logger
}

// NewServiceProcessor creates a processor using c to decode requests and
// encode responses (the symmetric protocol contract).
func NewServiceProcessor(c codec.Codec, logger *zap.Logger) *ServiceProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ServiceProcessor{
		serviceMap: make(map[string]*service),
		codec:      c,
		logger:     logger,
	}
}

// Register registers a service receiver (e.g., &Arith{}). Must be called
// before the first Process; registration is not synchronized with dispatch.
func (p *ServiceProcessor) Register(rcvr any) error {
	svc, err := newService(rcvr)
	if err != nil {
		return err
	}
	p.serviceMap[svc.name] = svc
	return nil
}

// Use appends a middleware. Middlewares run in registration order around
// the business handler; the chain is assembled once, on the first Process.
func (p *ServiceProcessor) Use(mw middleware.Middleware) {
	p.middlewares = append(p.middlewares, mw)
}

// Process decodes one request envelope from in, runs it through the
// middleware chain into the business handler, and encodes the response
// envelope to out. Oneway requests produce no output at all.
//
// A write error from out (for example the response sink's overflow) is
// returned as-is so the caller can recognize it with errors.Is.
func (p *ServiceProcessor) Process(in io.Reader, out io.Writer) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}

	req := message.RPCMessage{}
	if err := p.codec.Decode(data, &req); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}

	p.buildOnce.Do(func() {
		p.handler = middleware.Chain(p.middlewares...)(p.businessHandler)
	})

	resp := p.handler(context.Background(), &req)

	if req.Oneway {
		// No response on the wire, whatever the handler produced.
		if resp.Error != "" {
			p.logger.Warn("oneway handler failed",
				zap.String("method", req.ServiceMethod),
				zap.String("error", resp.Error))
		}
		return nil
	}

	body, err := p.codec.Encode(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	if _, err := out.Write(body); err != nil {
		return err
	}
	return nil
}

// businessHandler resolves "Service.Method", invokes it by reflection, and
// wraps the outcome in a response envelope. Lookup and argument failures
// become error responses, never panics — a bad request must not take the
// dispatch down.
func (p *ServiceProcessor) businessHandler(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
	svc, mtype, err := p.resolve(req.ServiceMethod)
	if err != nil {
		return &message.RPCMessage{ServiceMethod: req.ServiceMethod, Error: err.Error()}
	}

	// Args and reply travel as JSON inside the envelope regardless of the
	// envelope codec; the codec only shapes the envelope itself.
	argv, replyv := mtype.newArgs()
	if err := json.Unmarshal(req.Payload, argv.Interface()); err != nil {
		return &message.RPCMessage{ServiceMethod: req.ServiceMethod, Error: fmt.Sprintf("decode args: %v", err)}
	}

	callErr := svc.call(mtype, argv, replyv)

	payload, err := json.Marshal(replyv.Interface())
	if err != nil {
		return &message.RPCMessage{ServiceMethod: req.ServiceMethod, Error: fmt.Sprintf("encode reply: %v", err)}
	}

	resp := &message.RPCMessage{
		ServiceMethod: req.ServiceMethod,
		Payload:       payload,
	}
	if callErr != nil {
		resp.Error = callErr.Error()
	}
	return resp
}
