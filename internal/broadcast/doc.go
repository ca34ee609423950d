// Package broadcast provides the UDP broadcast sockets used by CHIRP.
//
// All CHIRP traffic runs over IPv4 UDP on port 7123. Two socket roles
// exist:
//
//   - Sender: a socket bound to an ephemeral local port with SO_BROADCAST
//     and SO_REUSEADDR set,
//     writing datagrams to a fixed broadcast destination such as a
//     subnet-directed address (192.168.1.255), the limited broadcast
//     address (255.255.255.255), or 0.0.0.0 for loopback-only testing.
//   - Receiver: a socket bound to an "any" address on port 7123 with
//     SO_REUSEADDR set, so that multiple CHIRP processes on one host can
//     share the port.
//
// Receive blocks until a datagram arrives; closing the receiver unblocks
// a pending Recv, which then reports net.ErrClosed. Callers are expected
// to filter the received payloads themselves; this package delivers raw
// bytes plus the source IPv4 address.
package broadcast
