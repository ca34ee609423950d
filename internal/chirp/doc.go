// Package chirp implements the CHIRP discovery manager.
//
// A Manager announces the services its process hosts, tracks the services
// announced by peers in the same group, and notifies callbacks when peers
// appear or leave. Discovery runs over UDP broadcast on port 7123; see
// package protocol for the wire format and package broadcast for the
// socket layer.
//
// # Lifecycle
//
//	mgr, err := chirp.NewManager(brd, any, "mygroup", "mynode")
//	if err != nil { ... }
//	mgr.Start()
//	defer mgr.Close()
//
//	mgr.RegisterService(chirp.RegisteredService{
//	    Identifier: protocol.ServiceData,
//	    Port:       5555,
//	})
//
// Registering a service broadcasts an OFFER; unregistering (or closing
// the manager) broadcasts a LEAVING. Peers that start late can catch up
// with SendRequest, which makes every group member re-announce matching
// services.
//
// # Filtering
//
// The receive loop drops datagrams that fail to decode, that carry a
// different group hash, or whose name hash matches the manager's own
// (self-echo suppression). Two processes in the same group therefore
// discover each other iff their node names differ.
//
// # Callbacks
//
// Discovery callbacks run on a fresh goroutine per invocation and are
// never called under a manager lock. They receive the event snapshot; the
// discovered set may have changed again by the time a callback runs.
//
// # Delivery semantics
//
// UDP broadcast is inherently lossy and unordered; CHIRP adds no
// reliability layer. A lost OFFER is recovered the next time anyone
// broadcasts a REQUEST for that service identifier.
package chirp
