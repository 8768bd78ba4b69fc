// Package client implements the calling side: discover the service's bus
// subject, pick one deployment, and run request/reply through a per-call
// inbox.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"nats-rpc/codec"
	"nats-rpc/loadbalance"
	"nats-rpc/message"
	"nats-rpc/protocol"
	"nats-rpc/registry"
	"nats-rpc/transport"
)

type Client struct {
	registry  registry.Registry    // find service subjects from registry
	balancer  loadbalance.Balancer // pick among discovered subjects
	transport *transport.ClientTransport
	codecType codec.CodecType
}

// NewClient creates a client calling over bus with reg for discovery.
// timeout bounds each Call; the server never reports failures on the wire,
// so a missing reply surfaces here as transport.ErrTimeout.
func NewClient(bus transport.Bus, reg registry.Registry, bal loadbalance.Balancer, codecType codec.CodecType, timeout time.Duration) *Client {
	return &Client{
		registry:  reg,
		balancer:  bal,
		transport: transport.NewClientTransport(bus, timeout),
		codecType: codecType,
	}
}

// Call invokes serviceMethod ("Service.Method") with args and unmarshals
// the response payload into reply. A non-empty Error in the response
// envelope comes back as a plain error.
func (c *Client) Call(serviceMethod string, args any, reply any) error {
	subject, err := c.pickSubject(serviceMethod)
	if err != nil {
		return err
	}

	data, err := c.encodeRequest(serviceMethod, args, false)
	if err != nil {
		return err
	}

	frame, err := c.transport.Request(subject, data)
	if err != nil {
		return err
	}

	payload, err := protocol.Unframe(frame)
	if err != nil {
		return fmt.Errorf("bad reply frame: %w", err)
	}

	resp := message.RPCMessage{}
	if err := codec.GetCodec(c.codecType).Decode(payload, &resp); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	if resp.Error != "" {
		return errors.New(resp.Error)
	}
	return json.Unmarshal(resp.Payload, reply)
}

// Oneway invokes serviceMethod without waiting for, or ever receiving, a
// response. Delivery is fire-and-forget: at-least-once is the bus's
// business, a reply is nobody's.
func (c *Client) Oneway(serviceMethod string, args any) error {
	subject, err := c.pickSubject(serviceMethod)
	if err != nil {
		return err
	}
	data, err := c.encodeRequest(serviceMethod, args, true)
	if err != nil {
		return err
	}
	return c.transport.Send(subject, data)
}

// pickSubject resolves the service name to a bus subject via discovery and
// the balancer.
func (c *Client) pickSubject(serviceMethod string) (string, error) {
	split := strings.Split(serviceMethod, ".")
	if len(split) != 2 {
		return "", fmt.Errorf("invalid serviceMethod format: %q", serviceMethod)
	}

	instances, err := c.registry.Discover(split[0])
	if err != nil {
		return "", err
	}
	instance, err := c.balancer.Pick(instances)
	if err != nil {
		return "", fmt.Errorf("pick %q: %w", split[0], err)
	}
	return instance.Subject, nil
}

// encodeRequest builds envelope + protocol header for one request.
func (c *Client) encodeRequest(serviceMethod string, args any, oneway bool) ([]byte, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal args: %w", err)
	}
	body, err := codec.GetCodec(c.codecType).Encode(&message.RPCMessage{
		ServiceMethod: serviceMethod,
		Oneway:        oneway,
		Payload:       payload,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return protocol.AddHeader(body), nil
}
