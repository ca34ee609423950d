package broadcast

import (
	"context"
	"fmt"
	"net"
)

// Port is the fixed UDP port all CHIRP traffic uses.
const Port = 7123

// Sender transmits datagrams to a fixed broadcast destination on the CHIRP
// port. The underlying socket has SO_BROADCAST and SO_REUSEADDR enabled
// and is bound to an ephemeral local port.
type Sender struct {
	conn net.PacketConn
	dst  *net.UDPAddr
}

// NewSender opens a broadcast-capable UDP socket targeting brd:7123.
//
// brd is typically the subnet-directed broadcast address (e.g.
// 192.168.1.255). 255.255.255.255 works on most stacks but requires a
// DHCP-configured interface on some platforms; 0.0.0.0 broadcasts on
// loopback only and is useful for single-host testing.
func NewSender(brd net.IP) (*Sender, error) {
	lc := net.ListenConfig{Control: broadcastControl}
	conn, err := lc.ListenPacket(context.Background(), "udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("failed to open broadcast socket: %w", err)
	}
	return &Sender{
		conn: conn,
		dst:  &net.UDPAddr{IP: brd, Port: Port},
	}, nil
}

// Target returns the broadcast destination address.
func (s *Sender) Target() *net.UDPAddr {
	return s.dst
}

// Send transmits one datagram to the broadcast destination.
func (s *Sender) Send(data []byte) error {
	if _, err := s.conn.WriteTo(data, s.dst); err != nil {
		return fmt.Errorf("failed to send broadcast to %s: %w", s.dst, err)
	}
	return nil
}

// Close releases the socket.
func (s *Sender) Close() error {
	return s.conn.Close()
}
