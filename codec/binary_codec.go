package codec

import (
	"encoding/binary"
	"errors"
	"fmt"

	"nats-rpc/message"
)

// BinaryCodec is a compact hand-rolled layout for RPCMessage:
//
//	[2 methodLen][method][1 flags][4 payloadLen][payload][2 errLen][error]
//
// All integers big-endian. Flags bit 0 = oneway.
type BinaryCodec struct{}

const flagOneway byte = 0x01

func (c *BinaryCodec) Encode(v any) ([]byte, error) {
	// v must be *RPCMessage
	msg, ok := v.(*message.RPCMessage)
	if !ok {
		return nil, errors.New("BinaryCodec: v must be *RPCMessage")
	}

	total := 2 + len(msg.ServiceMethod) + 1 + 4 + len(msg.Payload) + 2 + len(msg.Error)
	buf := make([]byte, total)

	offset := 0
	// ServiceMethod length -- 2 bytes
	binary.BigEndian.PutUint16(buf[offset:offset+2], uint16(len(msg.ServiceMethod)))
	offset += 2

	// ServiceMethod -- n bytes
	copy(buf[offset:offset+len(msg.ServiceMethod)], []byte(msg.ServiceMethod))
	offset += len(msg.ServiceMethod)

	// Flags -- 1 byte
	if msg.Oneway {
		buf[offset] = flagOneway
	}
	offset++

	// Payload length -- 4 bytes
	binary.BigEndian.PutUint32(buf[offset:offset+4], uint32(len(msg.Payload)))
	offset += 4

	// Payload -- n bytes
	copy(buf[offset:offset+len(msg.Payload)], msg.Payload)
	offset += len(msg.Payload)

	// Error length -- 2 bytes
	binary.BigEndian.PutUint16(buf[offset:offset+2], uint16(len(msg.Error)))
	offset += 2

	// Error -- n bytes
	copy(buf[offset:offset+len(msg.Error)], []byte(msg.Error))
	return buf, nil
}

func (c *BinaryCodec) Decode(data []byte, v any) error {
	// v must be *RPCMessage
	msg, ok := v.(*message.RPCMessage)
	if !ok {
		return errors.New("BinaryCodec: v must be *RPCMessage")
	}

	offset := 0

	// Read ServiceMethod
	if len(data) < offset+2 {
		return fmt.Errorf("BinaryCodec: truncated at method length")
	}
	strLen := int(binary.BigEndian.Uint16(data[offset : offset+2]))
	offset += 2
	if len(data) < offset+strLen+1 {
		return fmt.Errorf("BinaryCodec: truncated at method")
	}
	msg.ServiceMethod = string(data[offset : offset+strLen])
	offset += strLen

	// Read flags
	msg.Oneway = data[offset]&flagOneway != 0
	offset++

	// Read Payload
	if len(data) < offset+4 {
		return fmt.Errorf("BinaryCodec: truncated at payload length")
	}
	payloadLen := int(binary.BigEndian.Uint32(data[offset : offset+4]))
	offset += 4
	if len(data) < offset+payloadLen {
		return fmt.Errorf("BinaryCodec: truncated at payload")
	}
	msg.Payload = make([]byte, payloadLen)
	copy(msg.Payload, data[offset:offset+payloadLen])
	offset += payloadLen

	// Read Error
	if len(data) < offset+2 {
		return fmt.Errorf("BinaryCodec: truncated at error length")
	}
	errLen := int(binary.BigEndian.Uint16(data[offset : offset+2]))
	offset += 2
	if len(data) < offset+errLen {
		return fmt.Errorf("BinaryCodec: truncated at error")
	}
	msg.Error = string(data[offset : offset+errLen])

	return nil
}

func (c *BinaryCodec) Type() CodecType {
	return CodecTypeBinary
}
