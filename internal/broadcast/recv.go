package broadcast

import (
	"context"
	"fmt"
	"net"
)

// maxDatagramSize bounds the receive buffer. CHIRP messages are 42 bytes,
// but foreign traffic on the port may be larger and must still be read in
// one piece so the loop can discard it.
const maxDatagramSize = 1024

// Datagram is one received broadcast: the raw payload and the sender's
// IPv4 address.
type Datagram struct {
	Content []byte
	Source  net.IP
}

// Receiver listens for CHIRP broadcasts on any:7123. SO_REUSEADDR is set
// before bind so that multiple CHIRP processes can share the port on one
// host.
type Receiver struct {
	conn net.PacketConn
}

// NewReceiver binds a UDP socket to anyAddr:7123. The any address is
// typically 0.0.0.0; group and name filtering upstream makes the
// wildcard bind safe.
func NewReceiver(anyAddr net.IP) (*Receiver, error) {
	lc := net.ListenConfig{Control: reuseAddrControl}
	addr := fmt.Sprintf("%s:%d", anyAddr, Port)
	conn, err := lc.ListenPacket(context.Background(), "udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", addr, err)
	}
	return &Receiver{conn: conn}, nil
}

// Recv blocks until one datagram arrives and returns its payload and
// source address. Closing the receiver unblocks a pending Recv with an
// error wrapping net.ErrClosed.
func (r *Receiver) Recv() (Datagram, error) {
	buf := make([]byte, maxDatagramSize)
	n, addr, err := r.conn.ReadFrom(buf)
	if err != nil {
		return Datagram{}, err
	}

	var src net.IP
	if udpAddr, ok := addr.(*net.UDPAddr); ok {
		src = udpAddr.IP
		if v4 := src.To4(); v4 != nil {
			src = v4
		}
	}

	return Datagram{Content: buf[:n], Source: src}, nil
}

// Close releases the socket, unblocking any pending Recv.
func (r *Receiver) Close() error {
	return r.conn.Close()
}
