package chirp

import (
	"net"
	"testing"
	"time"

	"github.com/cnstln/chirp/internal/broadcast"
	"github.com/cnstln/chirp/internal/protocol"
)

// newTestManager builds a manager with a loopback-only sender and no
// receiver. Datagram handling is exercised by calling handleDatagram
// directly, so the 7123 bind is not needed here; the full socket path is
// covered by the integration tests.
func newTestManager(t *testing.T, group, name string) *Manager {
	t.Helper()

	sender, err := broadcast.NewSender(net.IPv4zero)
	if err != nil {
		t.Fatalf("NewSender() error = %v", err)
	}
	t.Cleanup(func() { sender.Close() })

	return &Manager{
		sender:     sender,
		groupHash:  protocol.HashName(group),
		nameHash:   protocol.HashName(name),
		registered: make(map[RegisteredService]struct{}),
		discovered: make(map[discoveredKey]DiscoveredService),
		done:       make(chan struct{}),
	}
}

// peerDatagram assembles a datagram as a remote peer would send it.
func peerDatagram(t protocol.MessageType, group, name string, id protocol.ServiceIdentifier, port uint16) broadcast.Datagram {
	wire := protocol.Assemble(protocol.Message{
		Type:      t,
		GroupHash: protocol.HashName(group),
		NameHash:  protocol.HashName(name),
		ServiceID: id,
		Port:      port,
	})
	return broadcast.Datagram{Content: wire[:], Source: net.IPv4(127, 0, 0, 1)}
}

func TestRegisterService(t *testing.T) {
	m := newTestManager(t, "g", "n")
	service := RegisteredService{Identifier: protocol.ServiceControl, Port: 1234}

	if !m.RegisterService(service) {
		t.Error("first RegisterService() = false, want true")
	}
	if m.RegisterService(service) {
		t.Error("second RegisterService() = true, want false")
	}

	got := m.GetRegisteredServices()
	if len(got) != 1 || got[0] != service {
		t.Errorf("GetRegisteredServices() = %v, want [%v]", got, service)
	}
}

func TestUnregisterService(t *testing.T) {
	m := newTestManager(t, "g", "n")
	service := RegisteredService{Identifier: protocol.ServiceData, Port: 5555}

	if m.UnregisterService(service) {
		t.Error("UnregisterService() of absent service = true, want false")
	}

	m.RegisterService(service)
	if !m.UnregisterService(service) {
		t.Error("UnregisterService() of present service = false, want true")
	}
	if got := m.GetRegisteredServices(); len(got) != 0 {
		t.Errorf("GetRegisteredServices() after unregister = %v, want empty", got)
	}
}

func TestUnregisterServicesClearsAll(t *testing.T) {
	m := newTestManager(t, "g", "n")
	m.RegisterService(RegisteredService{Identifier: protocol.ServiceControl, Port: 1})
	m.RegisterService(RegisteredService{Identifier: protocol.ServiceData, Port: 2})

	m.UnregisterServices()

	if got := m.GetRegisteredServices(); len(got) != 0 {
		t.Errorf("GetRegisteredServices() = %v, want empty", got)
	}
}

func TestHandleDatagramForeignGroupIgnored(t *testing.T) {
	m := newTestManager(t, "g1", "n")

	m.handleDatagram(peerDatagram(protocol.TypeOffer, "g2", "peer", protocol.ServiceData, 5555))

	if got := m.GetDiscoveredServices(); len(got) != 0 {
		t.Errorf("discovered = %v, want empty (foreign group)", got)
	}
}

func TestHandleDatagramSelfEchoIgnored(t *testing.T) {
	m := newTestManager(t, "g", "n")

	m.handleDatagram(peerDatagram(protocol.TypeOffer, "g", "n", protocol.ServiceData, 5555))

	if got := m.GetDiscoveredServices(); len(got) != 0 {
		t.Errorf("discovered = %v, want empty (self echo)", got)
	}
}

func TestHandleDatagramUndecodableIgnored(t *testing.T) {
	m := newTestManager(t, "g", "n")

	m.handleDatagram(broadcast.Datagram{Content: []byte("not chirp"), Source: net.IPv4(127, 0, 0, 1)})

	if got := m.GetDiscoveredServices(); len(got) != 0 {
		t.Errorf("discovered = %v, want empty (junk datagram)", got)
	}
}

func TestHandleDatagramOfferAndLeaving(t *testing.T) {
	m := newTestManager(t, "g", "n")

	m.handleDatagram(peerDatagram(protocol.TypeOffer, "g", "peer", protocol.ServiceData, 5555))

	got := m.GetDiscoveredServices()
	if len(got) != 1 {
		t.Fatalf("discovered = %v, want one entry", got)
	}
	if got[0].NameHash != protocol.HashName("peer") || got[0].Port != 5555 {
		t.Errorf("discovered[0] = %v, want peer DATA/5555", got[0])
	}

	// Duplicate OFFER must not create a second entry
	m.handleDatagram(peerDatagram(protocol.TypeOffer, "g", "peer", protocol.ServiceData, 5555))
	if got := m.GetDiscoveredServices(); len(got) != 1 {
		t.Errorf("discovered after duplicate OFFER = %v, want one entry", got)
	}

	// LEAVING for an unknown service is a no-op
	m.handleDatagram(peerDatagram(protocol.TypeLeaving, "g", "peer", protocol.ServiceControl, 80))
	if got := m.GetDiscoveredServices(); len(got) != 1 {
		t.Errorf("discovered after unrelated LEAVING = %v, want one entry", got)
	}

	m.handleDatagram(peerDatagram(protocol.TypeLeaving, "g", "peer", protocol.ServiceData, 5555))
	if got := m.GetDiscoveredServices(); len(got) != 0 {
		t.Errorf("discovered after LEAVING = %v, want empty", got)
	}
}

type discoverEvent struct {
	service  DiscoveredService
	departed bool
}

// recordEvents is the test callback; userData carries the destination
// channel, so registrations with distinct channels are distinct pairs.
func recordEvents(service DiscoveredService, departed bool, userData any) {
	userData.(chan discoverEvent) <- discoverEvent{service: service, departed: departed}
}

func waitEvent(t *testing.T, events chan discoverEvent) discoverEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for callback")
		return discoverEvent{}
	}
}

func TestCallbackRegistration(t *testing.T) {
	m := newTestManager(t, "g", "n")
	first := make(chan discoverEvent, 8)
	second := make(chan discoverEvent, 8)

	if !m.RegisterDiscoverCallback(recordEvents, first) {
		t.Error("RegisterDiscoverCallback() = false, want true")
	}
	if m.RegisterDiscoverCallback(recordEvents, first) {
		t.Error("duplicate RegisterDiscoverCallback() = true, want false")
	}
	// Same function with distinct user data is a distinct registration
	if !m.RegisterDiscoverCallback(recordEvents, second) {
		t.Error("RegisterDiscoverCallback() with new userData = false, want true")
	}

	if !m.UnregisterDiscoverCallback(recordEvents, second) {
		t.Error("UnregisterDiscoverCallback() = false, want true")
	}
	if m.UnregisterDiscoverCallback(recordEvents, second) {
		t.Error("second UnregisterDiscoverCallback() = true, want false")
	}
}

func TestCallbacksFireOnOfferAndLeaving(t *testing.T) {
	m := newTestManager(t, "g", "n")
	events := make(chan discoverEvent, 8)
	m.RegisterDiscoverCallback(recordEvents, events)

	m.handleDatagram(peerDatagram(protocol.TypeOffer, "g", "peer", protocol.ServiceData, 5555))

	ev := waitEvent(t, events)
	if ev.departed {
		t.Error("OFFER callback departed = true, want false")
	}
	if ev.service.Port != 5555 || ev.service.Identifier != protocol.ServiceData {
		t.Errorf("OFFER callback service = %v, want DATA/5555", ev.service)
	}

	// Duplicate OFFER must not fire callbacks
	m.handleDatagram(peerDatagram(protocol.TypeOffer, "g", "peer", protocol.ServiceData, 5555))

	m.handleDatagram(peerDatagram(protocol.TypeLeaving, "g", "peer", protocol.ServiceData, 5555))
	ev = waitEvent(t, events)
	if !ev.departed {
		t.Error("LEAVING callback departed = false, want true")
	}

	// Settle: the duplicate OFFER must not have produced a third event
	select {
	case ev := <-events:
		t.Errorf("unexpected extra callback event %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUnregisterDiscoverCallbacksSilences(t *testing.T) {
	m := newTestManager(t, "g", "n")
	events := make(chan discoverEvent, 8)
	m.RegisterDiscoverCallback(recordEvents, events)
	m.UnregisterDiscoverCallbacks()

	m.handleDatagram(peerDatagram(protocol.TypeOffer, "g", "peer", protocol.ServiceData, 5555))

	select {
	case ev := <-events:
		t.Errorf("callback fired after UnregisterDiscoverCallbacks: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
}
