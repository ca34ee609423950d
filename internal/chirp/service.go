package chirp

import (
	"fmt"
	"net"

	"github.com/cnstln/chirp/internal/protocol"
)

// RegisteredService is a service hosted and announced by the local node.
type RegisteredService struct {
	Identifier protocol.ServiceIdentifier
	Port       uint16
}

// Less orders registered services first by identifier, then by port.
func (s RegisteredService) Less(other RegisteredService) bool {
	if s.Identifier != other.Identifier {
		return s.Identifier < other.Identifier
	}
	return s.Port < other.Port
}

// String returns a human-readable representation of the service
func (s RegisteredService) String() string {
	return fmt.Sprintf("%s/%d", s.Identifier, s.Port)
}

// DiscoveredService is a service announced by a remote peer in the same
// group and currently believed to be live.
type DiscoveredService struct {
	// Address is the peer's IPv4 address as observed on the wire. It is
	// deliberately excluded from identity and ordering: a peer that shows
	// up under a new IP is still the same logical peer.
	Address net.IP

	// NameHash identifies the peer (MD5 of its node name).
	NameHash protocol.MD5Hash

	Identifier protocol.ServiceIdentifier
	Port       uint16
}

// discoveredKey is the identity of a discovered service: everything but
// the address.
type discoveredKey struct {
	nameHash   protocol.MD5Hash
	identifier protocol.ServiceIdentifier
	port       uint16
}

func (s DiscoveredService) key() discoveredKey {
	return discoveredKey{
		nameHash:   s.NameHash,
		identifier: s.Identifier,
		port:       s.Port,
	}
}

// Less orders discovered services by name hash, then identifier, then
// port. The address does not participate.
func (s DiscoveredService) Less(other DiscoveredService) bool {
	if c := s.NameHash.Compare(other.NameHash); c != 0 {
		return c < 0
	}
	if s.Identifier != other.Identifier {
		return s.Identifier < other.Identifier
	}
	return s.Port < other.Port
}

// String returns a human-readable representation of the service
func (s DiscoveredService) String() string {
	return fmt.Sprintf("%s/%d at %s (peer %s)", s.Identifier, s.Port, s.Address, s.NameHash)
}

// DiscoverCallback is invoked when a peer service appears (departed ==
// false) or goes away (departed == true). Callbacks run on their own
// goroutines and receive the event snapshot: by the time a callback
// runs, the manager's discovered set may already have changed again.
type DiscoverCallback func(service DiscoveredService, departed bool, userData any)
