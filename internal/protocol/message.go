package protocol

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// MessageType identifies the purpose of a CHIRP message.
type MessageType byte

// Message type constants (wire values, single byte at offset 6)
const (
	// TypeRequest asks peers in the group to re-announce services of a
	// given identifier. REQUEST messages carry port 0 by convention.
	TypeRequest MessageType = 0x01

	// TypeOffer announces a service hosted by the sending node.
	TypeOffer MessageType = 0x02

	// TypeLeaving announces that a previously offered service is going away.
	TypeLeaving MessageType = 0x03
)

// Valid reports whether t is one of the three defined message types.
func (t MessageType) Valid() bool {
	return t == TypeRequest || t == TypeOffer || t == TypeLeaving
}

// String returns a human-readable message type name
func (t MessageType) String() string {
	switch t {
	case TypeRequest:
		return "REQUEST"
	case TypeOffer:
		return "OFFER"
	case TypeLeaving:
		return "LEAVING"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(t))
	}
}

// ServiceIdentifier is the byte-encoded kind tag for a service.
//
// The roster below is the set used by Constellation deployments. The wire
// format carries the raw byte, so identifiers outside this roster pass
// through opaquely; only both ends need to agree on the encoding.
type ServiceIdentifier byte

const (
	ServiceControl    ServiceIdentifier = 0x01
	ServiceHeartbeat  ServiceIdentifier = 0x02
	ServiceMonitoring ServiceIdentifier = 0x03
	ServiceData       ServiceIdentifier = 0x04
)

// String returns a human-readable service identifier name
func (s ServiceIdentifier) String() string {
	switch s {
	case ServiceControl:
		return "CONTROL"
	case ServiceHeartbeat:
		return "HEARTBEAT"
	case ServiceMonitoring:
		return "MONITORING"
	case ServiceData:
		return "DATA"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(s))
	}
}

// MD5Hash is a 16-byte MD5 digest used as a stable fingerprint for group
// and node names. It is not used for anything security-related; cleartext
// names never appear on the wire.
type MD5Hash [md5.Size]byte

// HashName computes the MD5 fingerprint of an arbitrary name string.
// The result is deterministic and stable across hosts.
func HashName(name string) MD5Hash {
	return md5.Sum([]byte(name))
}

// String returns the digest as lowercase hex.
func (h MD5Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Compare orders two digests lexicographically over their bytes.
// Returns -1, 0 or 1 in the manner of bytes.Compare.
func (h MD5Hash) Compare(other MD5Hash) int {
	return bytes.Compare(h[:], other[:])
}

// Message is a decoded CHIRP datagram.
type Message struct {
	Type      MessageType
	GroupHash MD5Hash
	NameHash  MD5Hash
	ServiceID ServiceIdentifier
	Port      uint16
}

// String returns a debug representation of the message
func (m Message) String() string {
	return fmt.Sprintf("Message{type=%s, group=%s, name=%s, service=%s, port=%d}",
		m.Type, m.GroupHash, m.NameHash, m.ServiceID, m.Port)
}
