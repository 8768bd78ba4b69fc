package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nats-rpc/buffer"
	"nats-rpc/codec"
	"nats-rpc/message"
	"nats-rpc/middleware"
)

type Args struct {
	A, B int
}

type Reply struct {
	Result int
}

type Arith struct{}

func (a *Arith) Add(args *Args, reply *Reply) error {
	reply.Result = args.A + args.B
	return nil
}

func (a *Arith) Fail(args *Args, reply *Reply) error {
	return errors.New("arith failure")
}

// unexported-signature method: must not be registered.
func (a *Arith) NotRPC(x int) int { return x }

func encodeRequest(t *testing.T, c codec.Codec, serviceMethod string, args any, oneway bool) []byte {
	t.Helper()
	payload, err := json.Marshal(args)
	require.NoError(t, err)
	data, err := c.Encode(&message.RPCMessage{
		ServiceMethod: serviceMethod,
		Oneway:        oneway,
		Payload:       payload,
	})
	require.NoError(t, err)
	return data
}

func decodeResponse(t *testing.T, c codec.Codec, data []byte) *message.RPCMessage {
	t.Helper()
	resp := &message.RPCMessage{}
	require.NoError(t, c.Decode(data, resp))
	return resp
}

func TestProcessDispatchesToService(t *testing.T) {
	c := &codec.JSONCodec{}
	p := NewServiceProcessor(c, zap.NewNop())
	require.NoError(t, p.Register(&Arith{}))

	in := bytes.NewReader(encodeRequest(t, c, "Arith.Add", &Args{A: 1, B: 2}, false))
	out := &bytes.Buffer{}
	require.NoError(t, p.Process(in, out))

	resp := decodeResponse(t, c, out.Bytes())
	assert.Empty(t, resp.Error)

	var reply Reply
	require.NoError(t, json.Unmarshal(resp.Payload, &reply))
	assert.Equal(t, 3, reply.Result)
}

func TestProcessHandlerError(t *testing.T) {
	c := &codec.JSONCodec{}
	p := NewServiceProcessor(c, zap.NewNop())
	require.NoError(t, p.Register(&Arith{}))

	in := bytes.NewReader(encodeRequest(t, c, "Arith.Fail", &Args{}, false))
	out := &bytes.Buffer{}
	require.NoError(t, p.Process(in, out))

	// Handler errors travel inside the envelope, not as Process errors.
	resp := decodeResponse(t, c, out.Bytes())
	assert.Equal(t, "arith failure", resp.Error)
}

func TestProcessUnknownMethod(t *testing.T) {
	c := &codec.JSONCodec{}
	p := NewServiceProcessor(c, zap.NewNop())
	require.NoError(t, p.Register(&Arith{}))

	for _, sm := range []string{"Arith.Missing", "Arith.NotRPC", "Nope.Add", "garbage"} {
		in := bytes.NewReader(encodeRequest(t, c, sm, &Args{}, false))
		out := &bytes.Buffer{}
		require.NoError(t, p.Process(in, out), sm)

		resp := decodeResponse(t, c, out.Bytes())
		assert.NotEmpty(t, resp.Error, sm)
	}
}

func TestProcessOnewayWritesNothing(t *testing.T) {
	c := &codec.JSONCodec{}
	p := NewServiceProcessor(c, zap.NewNop())
	require.NoError(t, p.Register(&Arith{}))

	in := bytes.NewReader(encodeRequest(t, c, "Arith.Add", &Args{A: 1, B: 2}, true))
	out := &bytes.Buffer{}
	require.NoError(t, p.Process(in, out))
	assert.Equal(t, 0, out.Len())
}

func TestProcessUndecodableRequest(t *testing.T) {
	p := NewServiceProcessor(&codec.JSONCodec{}, zap.NewNop())
	require.NoError(t, p.Register(&Arith{}))

	err := p.Process(bytes.NewReader([]byte("{not json")), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestProcessPropagatesSinkOverflow(t *testing.T) {
	c := &codec.JSONCodec{}
	p := NewServiceProcessor(c, zap.NewNop())
	require.NoError(t, p.Register(&Arith{}))

	in := bytes.NewReader(encodeRequest(t, c, "Arith.Add", &Args{A: 1, B: 2}, false))
	out := buffer.New(1)
	err := p.Process(in, out)
	assert.ErrorIs(t, err, buffer.ErrOverflow)
	assert.True(t, out.Overflowed())
}

func TestProcessRunsMiddleware(t *testing.T) {
	c := &codec.JSONCodec{}
	p := NewServiceProcessor(c, zap.NewNop())
	require.NoError(t, p.Register(&Arith{}))

	var seen []string
	p.Use(func(next middleware.HandlerFunc) middleware.HandlerFunc {
		return func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
			seen = append(seen, req.ServiceMethod)
			return next(ctx, req)
		}
	})

	in := bytes.NewReader(encodeRequest(t, c, "Arith.Add", &Args{A: 2, B: 3}, false))
	require.NoError(t, p.Process(in, &bytes.Buffer{}))
	assert.Equal(t, []string{"Arith.Add"}, seen)
}

func TestRegisterRejectsNonPointer(t *testing.T) {
	p := NewServiceProcessor(&codec.JSONCodec{}, zap.NewNop())
	assert.Error(t, p.Register(Arith{}))
	assert.Error(t, p.Register(42))
}
