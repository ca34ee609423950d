package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Wire layout constants
const (
	// ProtocolVersion is the CHIRP protocol version byte, the sixth byte
	// of the magic sequence.
	ProtocolVersion = 0x01

	// MessageSize is the exact size of every CHIRP datagram:
	// magic(6) + type(1) + group hash(16) + name hash(16) + service(1) + port(2)
	MessageSize = 42
)

// Field offsets within the 42-byte datagram
const (
	offsetType      = 6
	offsetGroupHash = 7
	offsetNameHash  = 23
	offsetServiceID = 39
	offsetPort      = 40
)

// magic identifies a CHIRP datagram: the ASCII protocol name followed by
// the version byte.
var magic = [6]byte{'C', 'H', 'I', 'R', 'P', ProtocolVersion}

// DecodeError reports a datagram that is not a valid CHIRP message of a
// supported version. The receive loop treats it as noise and moves on.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("chirp decode error: %s", e.Reason)
}

func decodeErrorf(format string, args ...any) error {
	return &DecodeError{Reason: fmt.Sprintf(format, args...)}
}

// Assemble encodes the message into its fixed 42-byte wire form.
// The port is written in network byte order.
func Assemble(m Message) [MessageSize]byte {
	var out [MessageSize]byte
	copy(out[:offsetType], magic[:])
	out[offsetType] = byte(m.Type)
	copy(out[offsetGroupHash:offsetNameHash], m.GroupHash[:])
	copy(out[offsetNameHash:offsetServiceID], m.NameHash[:])
	out[offsetServiceID] = byte(m.ServiceID)
	binary.BigEndian.PutUint16(out[offsetPort:], m.Port)
	return out
}

// Parse decodes a raw datagram into a Message.
//
// It returns a *DecodeError when the input is not exactly 42 bytes, the
// magic bytes or version do not match, or the message type byte is not one
// of the three defined values. Any 16-bit port is accepted, including
// nonzero ports on REQUEST messages.
func Parse(data []byte) (Message, error) {
	if len(data) != MessageSize {
		return Message{}, decodeErrorf("invalid length %d (want %d)", len(data), MessageSize)
	}
	if !bytes.Equal(data[:5], magic[:5]) {
		return Message{}, decodeErrorf("bad magic %q", data[:5])
	}
	if data[5] != ProtocolVersion {
		return Message{}, decodeErrorf("unsupported version 0x%02x", data[5])
	}

	msg := Message{
		Type:      MessageType(data[offsetType]),
		ServiceID: ServiceIdentifier(data[offsetServiceID]),
		Port:      binary.BigEndian.Uint16(data[offsetPort:]),
	}
	copy(msg.GroupHash[:], data[offsetGroupHash:offsetNameHash])
	copy(msg.NameHash[:], data[offsetNameHash:offsetServiceID])

	if !msg.Type.Valid() {
		return Message{}, decodeErrorf("invalid message type 0x%02x", data[offsetType])
	}

	return msg, nil
}
