// Package server implements the stateless request/reply RPC server on top
// of a pub/sub bus.
//
// There is no per-client connection state: every inbound bus message is a
// self-contained request carrying its own reply subject, handled by an
// independent dispatch. That is what lets many servers join the same queue
// group and scale horizontally behind one subject.
//
// Dispatch pipeline, per message:
//
//	bus delivers message → strip 4-byte protocol header
//	  → Processor.Process(request, bounded response buffer)
//	    → empty buffer: oneway, done
//	    → else: length-prefix frame → publish to the message's reply subject
package server

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"nats-rpc/buffer"
	"nats-rpc/processor"
	"nats-rpc/protocol"
	"nats-rpc/registry"
	"nats-rpc/transport"
)

var (
	// ErrAlreadyServing is returned by a second Serve call. A Server runs
	// one subscription for its whole life; restart means a new instance.
	ErrAlreadyServing = errors.New("server: already serving")

	// ErrNotServing is returned by Stop when Serve never ran.
	ErrNotServing = errors.New("server: not serving")
)

// registerTTL is the etcd lease TTL for the server's registry entry;
// KeepAlive renews it until Stop deregisters.
const registerTTL = 10

// stopGracePeriod bounds how long Stop waits for in-flight dispatches.
const stopGracePeriod = 30 * time.Second

// Config carries the server's construction parameters.
type Config struct {
	Subject       string // Bus subject to serve requests on
	Queue         string // Queue group for competing consumers; empty = every subscriber sees every message
	Service       string // Name registered in the registry; empty = no registration
	HighWatermark int64  // Response size ceiling; <= 0 means buffer.DefaultHighWatermark
}

// Server subscribes to one subject and answers each request through the
// configured processor. Lifecycle is Created → Serving → Stopped, with
// Stopped terminal.
type Server struct {
	bus    transport.Bus
	cfg    Config
	proc   processor.Processor
	logger *zap.Logger

	// The high watermark is the only state shared between concurrent
	// dispatches. Guarded so a concurrent SetHighWatermark is observed
	// atomically by every dispatch that reads after it.
	watermarkMu   sync.Mutex
	highWatermark int64

	sub     transport.Subscription
	reg     registry.Registry
	serving atomic.Bool
	stopped atomic.Bool
	wg      sync.WaitGroup // Tracks in-flight dispatches for Stop
}

// NewServer creates a server for the given bus and processor. A nil logger
// disables diagnostics.
func NewServer(bus transport.Bus, cfg Config, proc processor.Processor, logger *zap.Logger) *Server {
	if cfg.HighWatermark <= 0 {
		cfg.HighWatermark = buffer.DefaultHighWatermark
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		bus:           bus,
		cfg:           cfg,
		proc:          proc,
		logger:        logger,
		highWatermark: cfg.HighWatermark,
	}
}

// Serve subscribes to the configured subject (and queue group, if any)
// with the dispatch handler as the per-message callback, and registers the
// subject in reg under cfg.Service. reg may be nil to skip discovery.
//
// Serve returns once the subscription is established; the bus drives
// delivery from there.
func (s *Server) Serve(reg registry.Registry) error {
	if s.cfg.Subject == "" {
		return errors.New("server: no subject configured")
	}
	if !s.serving.CompareAndSwap(false, true) {
		return ErrAlreadyServing
	}

	sub, err := s.bus.Subscribe(s.cfg.Subject, s.cfg.Queue, s.handleMessage)
	if err != nil {
		s.serving.Store(false)
		return fmt.Errorf("subscribe %q: %w", s.cfg.Subject, err)
	}
	s.sub = sub

	if reg != nil && s.cfg.Service != "" {
		s.reg = reg
		err := reg.Register(s.cfg.Service, registry.ServiceInstance{
			Subject: s.cfg.Subject,
			Queue:   s.cfg.Queue,
		}, registerTTL)
		if err != nil {
			sub.Unsubscribe()
			s.serving.Store(false)
			return fmt.Errorf("register %q: %w", s.cfg.Service, err)
		}
	}

	s.logger.Info("server started",
		zap.String("subject", s.cfg.Subject),
		zap.String("queue", s.cfg.Queue))
	return nil
}

// Stop deregisters, unsubscribes, and waits for in-flight dispatches.
// New dispatches are refused from the moment the stopped flag is set; the
// transport's unsubscribe then stops deliveries altogether. Stopped is
// terminal — a stopped server cannot serve again.
func (s *Server) Stop() error {
	if !s.serving.Load() || s.stopped.Swap(true) {
		return ErrNotServing
	}

	// Deregister FIRST so clients stop routing new requests here.
	if s.reg != nil {
		if err := s.reg.Deregister(s.cfg.Service, s.cfg.Subject); err != nil {
			s.logger.Warn("deregister failed", zap.Error(err))
		}
	}

	if err := s.sub.Unsubscribe(); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}

	// In-flight dispatches complete naturally; bound the wait so a hung
	// processor cannot wedge shutdown.
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(stopGracePeriod):
		return fmt.Errorf("timeout waiting for in-flight dispatches")
	}

	s.logger.Info("server stopped", zap.String("subject", s.cfg.Subject))
	return nil
}

// SetHighWatermark changes the response size ceiling for dispatches that
// start after the call. In-flight dispatches keep the value they captured.
func (s *Server) SetHighWatermark(v int64) {
	s.watermarkMu.Lock()
	defer s.watermarkMu.Unlock()
	s.highWatermark = v
}

// HighWatermark returns the current response size ceiling.
func (s *Server) HighWatermark() int64 {
	s.watermarkMu.Lock()
	defer s.watermarkMu.Unlock()
	return s.highWatermark
}

// handleMessage converts one inbound message into zero or one reply. It is
// invoked by the bus, possibly concurrently for independent messages, and
// shares nothing across invocations except the watermark cell.
//
// No failure in here ever propagates back into the subscription: one bad
// request must never take the subscription down.
func (s *Server) handleMessage(msg *transport.Message) {
	if s.stopped.Load() {
		return
	}
	s.wg.Add(1)
	defer s.wg.Done()

	if msg.Reply == "" {
		s.logger.Warn("discarding request without reply subject",
			zap.String("subject", msg.Subject))
		return
	}

	request, err := protocol.StripHeader(msg.Data)
	if err != nil {
		s.logger.Warn("discarding malformed request",
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return
	}

	// Fresh buffer per request, capped at the watermark as it is right now.
	out := buffer.New(s.HighWatermark())

	if err := s.proc.Process(bytes.NewReader(request), out); err != nil {
		if errors.Is(err, buffer.ErrOverflow) {
			s.logger.Error("response exceeds high watermark",
				zap.String("reply", msg.Reply),
				zap.Int64("watermark", out.Limit()))
		} else {
			s.logger.Error("processing failed",
				zap.String("reply", msg.Reply),
				zap.Error(err))
		}
		// Output written before a failure is never framed: a partial
		// reply is worse than no reply.
		return
	}
	if out.Overflowed() {
		// The processor swallowed the write error; the latched flag still
		// marks the response as truncated.
		s.logger.Error("response exceeds high watermark",
			zap.String("reply", msg.Reply),
			zap.Int64("watermark", out.Limit()))
		return
	}

	// Empty buffer: oneway call, nothing goes back.
	if out.Len() == 0 {
		return
	}

	if err := s.bus.Publish(msg.Reply, protocol.Frame(out.Bytes())); err != nil {
		s.logger.Error("publish reply failed",
			zap.String("reply", msg.Reply),
			zap.Error(err))
	}
}
