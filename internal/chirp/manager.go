package chirp

import (
	"errors"
	"net"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/cnstln/chirp/internal/broadcast"
	"github.com/cnstln/chirp/internal/logging"
	"github.com/cnstln/chirp/internal/protocol"
)

// callbackEntry pairs a callback with its user data. The pair is the
// identity for registration: the same function with distinct user data is
// a distinct registration.
type callbackEntry struct {
	fn   DiscoverCallback
	ptr  uintptr
	data any
}

// Manager is the per-process CHIRP discovery engine.
//
// It owns one broadcast sender, one broadcast receiver, the set of
// locally registered services, the set of discovered remote services, and
// the set of discovery callbacks. A background goroutine started by Start
// receives and filters incoming broadcasts.
//
// The three collections are each guarded by their own mutex. No lock is
// ever held across a network send or a callback invocation.
type Manager struct {
	sender   *broadcast.Sender
	receiver *broadcast.Receiver

	groupHash protocol.MD5Hash
	nameHash  protocol.MD5Hash

	registeredMu sync.Mutex
	registered   map[RegisteredService]struct{}

	discoveredMu sync.Mutex
	discovered   map[discoveredKey]DiscoveredService

	callbacksMu sync.Mutex
	callbacks   []callbackEntry

	started   atomic.Bool
	closeOnce sync.Once
	done      chan struct{} // closed when the receive loop exits
}

// NewManager opens the broadcast sockets and computes the group and name
// fingerprints. brd is the broadcast destination, anyAddr the bind
// address for the receiver (typically 0.0.0.0). Socket errors at
// construction are surfaced to the caller.
//
// The receive loop does not run until Start is called.
func NewManager(brd, anyAddr net.IP, group, name string) (*Manager, error) {
	receiver, err := broadcast.NewReceiver(anyAddr)
	if err != nil {
		return nil, err
	}
	sender, err := broadcast.NewSender(brd)
	if err != nil {
		receiver.Close()
		return nil, err
	}

	return &Manager{
		sender:     sender,
		receiver:   receiver,
		groupHash:  protocol.HashName(group),
		nameHash:   protocol.HashName(name),
		registered: make(map[RegisteredService]struct{}),
		discovered: make(map[discoveredKey]DiscoveredService),
		done:       make(chan struct{}),
	}, nil
}

// GroupHash returns the fingerprint of this manager's group name.
func (m *Manager) GroupHash() protocol.MD5Hash { return m.groupHash }

// NameHash returns the fingerprint of this manager's node name.
func (m *Manager) NameHash() protocol.MD5Hash { return m.nameHash }

// Start spawns the background receive loop. Calling Start more than once
// has no effect.
func (m *Manager) Start() {
	if m.started.CompareAndSwap(false, true) {
		go m.run()
	}
}

// Close stops the receive loop, waits for it to exit, broadcasts a
// LEAVING for every still-registered service and releases the sockets.
// Outstanding callback goroutines are not awaited; they run to
// completion independently.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		m.receiver.Close()
		if m.started.Load() {
			<-m.done
		}
		m.UnregisterServices()
		m.sender.Close()
	})
	return nil
}

// RegisterService adds a service to the registered set. If it was not
// present before, an OFFER is broadcast before the call returns. Returns
// true iff the service was newly inserted.
func (m *Manager) RegisterService(service RegisteredService) bool {
	m.registeredMu.Lock()
	_, exists := m.registered[service]
	if !exists {
		m.registered[service] = struct{}{}
	}
	m.registeredMu.Unlock()

	if !exists {
		m.sendMessage(protocol.TypeOffer, service)
	}
	return !exists
}

// UnregisterService removes a service from the registered set. If it was
// present, a LEAVING is broadcast before the call returns. Returns true
// iff the service was removed.
func (m *Manager) UnregisterService(service RegisteredService) bool {
	m.registeredMu.Lock()
	_, exists := m.registered[service]
	if exists {
		delete(m.registered, service)
	}
	m.registeredMu.Unlock()

	if exists {
		m.sendMessage(protocol.TypeLeaving, service)
	}
	return exists
}

// UnregisterServices broadcasts a LEAVING for every registered service
// and clears the set.
func (m *Manager) UnregisterServices() {
	m.registeredMu.Lock()
	services := make([]RegisteredService, 0, len(m.registered))
	for service := range m.registered {
		services = append(services, service)
	}
	m.registered = make(map[RegisteredService]struct{})
	m.registeredMu.Unlock()

	sort.Slice(services, func(i, j int) bool { return services[i].Less(services[j]) })
	for _, service := range services {
		m.sendMessage(protocol.TypeLeaving, service)
	}
}

// GetRegisteredServices returns a sorted snapshot of the registered set.
func (m *Manager) GetRegisteredServices() []RegisteredService {
	m.registeredMu.Lock()
	services := make([]RegisteredService, 0, len(m.registered))
	for service := range m.registered {
		services = append(services, service)
	}
	m.registeredMu.Unlock()

	sort.Slice(services, func(i, j int) bool { return services[i].Less(services[j]) })
	return services
}

// GetDiscoveredServices returns a sorted snapshot of the discovered set.
func (m *Manager) GetDiscoveredServices() []DiscoveredService {
	m.discoveredMu.Lock()
	services := make([]DiscoveredService, 0, len(m.discovered))
	for _, service := range m.discovered {
		services = append(services, service)
	}
	m.discoveredMu.Unlock()

	sort.Slice(services, func(i, j int) bool { return services[i].Less(services[j]) })
	return services
}

// RegisterDiscoverCallback adds a callback/userData pair. userData must
// be comparable; it is part of the registration identity, so the same
// function registered with distinct userData is a distinct registration.
// Returns true iff the pair was newly inserted.
func (m *Manager) RegisterDiscoverCallback(fn DiscoverCallback, userData any) bool {
	if fn == nil {
		return false
	}
	ptr := reflect.ValueOf(fn).Pointer()

	m.callbacksMu.Lock()
	defer m.callbacksMu.Unlock()
	for _, entry := range m.callbacks {
		if entry.ptr == ptr && entry.data == userData {
			return false
		}
	}
	m.callbacks = append(m.callbacks, callbackEntry{fn: fn, ptr: ptr, data: userData})
	return true
}

// UnregisterDiscoverCallback removes a callback/userData pair. Returns
// true iff the pair was present.
func (m *Manager) UnregisterDiscoverCallback(fn DiscoverCallback, userData any) bool {
	if fn == nil {
		return false
	}
	ptr := reflect.ValueOf(fn).Pointer()

	m.callbacksMu.Lock()
	defer m.callbacksMu.Unlock()
	for i, entry := range m.callbacks {
		if entry.ptr == ptr && entry.data == userData {
			m.callbacks = append(m.callbacks[:i], m.callbacks[i+1:]...)
			return true
		}
	}
	return false
}

// UnregisterDiscoverCallbacks removes all callbacks.
func (m *Manager) UnregisterDiscoverCallbacks() {
	m.callbacksMu.Lock()
	m.callbacks = nil
	m.callbacksMu.Unlock()
}

// SendRequest broadcasts a REQUEST for the given service identifier.
// Peers hosting matching services answer with OFFERs.
func (m *Manager) SendRequest(id protocol.ServiceIdentifier) {
	m.send(protocol.Message{
		Type:      protocol.TypeRequest,
		GroupHash: m.groupHash,
		NameHash:  m.nameHash,
		ServiceID: id,
		Port:      0,
	})
}

// sendMessage broadcasts an OFFER or LEAVING for a registered service.
func (m *Manager) sendMessage(t protocol.MessageType, service RegisteredService) {
	m.send(protocol.Message{
		Type:      t,
		GroupHash: m.groupHash,
		NameHash:  m.nameHash,
		ServiceID: service.Identifier,
		Port:      service.Port,
	})
}

// send transmits one assembled message. Send errors are recoverable:
// local state is already updated and peers resynchronize via
// REQUEST/OFFER, so the error is logged and swallowed.
func (m *Manager) send(msg protocol.Message) {
	wire := protocol.Assemble(msg)
	if err := m.sender.Send(wire[:]); err != nil {
		logging.Warn("Failed to send broadcast",
			zap.String("type", msg.Type.String()),
			zap.String("service", msg.ServiceID.String()),
			zap.Uint16("port", msg.Port),
			zap.Error(err),
		)
		return
	}
	logging.Debug("Broadcast sent",
		zap.String("type", msg.Type.String()),
		zap.String("service", msg.ServiceID.String()),
		zap.Uint16("port", msg.Port),
	)
}

// run is the background receive loop. It exits when the receiver is
// closed or on an unrecoverable receive error.
func (m *Manager) run() {
	defer close(m.done)

	for {
		datagram, err := m.receiver.Recv()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				logging.Warn("Transient receive error", zap.Error(err))
				continue
			}
			// Unrecoverable. The registered set stays queryable, but
			// peers will no longer be seen.
			logging.Error("Receive loop terminated", zap.Error(err))
			return
		}
		m.handleDatagram(datagram)
	}
}

// handleDatagram filters and dispatches one received broadcast.
func (m *Manager) handleDatagram(datagram broadcast.Datagram) {
	msg, err := protocol.Parse(datagram.Content)
	if err != nil {
		logging.Debug("Discarding undecodable datagram",
			zap.Int("length", len(datagram.Content)),
			zap.String("source", datagram.Source.String()),
			zap.Error(err),
		)
		return
	}

	if msg.GroupHash != m.groupHash {
		// Broadcast from a different group
		return
	}
	if msg.NameHash == m.nameHash {
		// Our own broadcast looped back
		return
	}

	service := DiscoveredService{
		Address:    datagram.Source,
		NameHash:   msg.NameHash,
		Identifier: msg.ServiceID,
		Port:       msg.Port,
	}

	switch msg.Type {
	case protocol.TypeRequest:
		m.replayOffers(msg.ServiceID)
	case protocol.TypeOffer:
		m.addDiscovered(service)
	case protocol.TypeLeaving:
		m.removeDiscovered(service)
	}
}

// replayOffers re-broadcasts an OFFER for every registered service with
// the requested identifier.
func (m *Manager) replayOffers(id protocol.ServiceIdentifier) {
	m.registeredMu.Lock()
	var matching []RegisteredService
	for service := range m.registered {
		if service.Identifier == id {
			matching = append(matching, service)
		}
	}
	m.registeredMu.Unlock()

	sort.Slice(matching, func(i, j int) bool { return matching[i].Less(matching[j]) })
	for _, service := range matching {
		m.sendMessage(protocol.TypeOffer, service)
	}
}

// addDiscovered inserts a newly offered service and fires callbacks.
// A duplicate OFFER for an already-known service is a no-op.
func (m *Manager) addDiscovered(service DiscoveredService) {
	m.discoveredMu.Lock()
	_, exists := m.discovered[service.key()]
	if !exists {
		m.discovered[service.key()] = service
	}
	m.discoveredMu.Unlock()

	if !exists {
		logging.Debug("Peer service discovered", zap.String("service", service.String()))
		m.dispatchCallbacks(service, false)
	}
}

// removeDiscovered drops a departing service and fires callbacks.
// A LEAVING for an unknown service is a no-op.
func (m *Manager) removeDiscovered(service DiscoveredService) {
	m.discoveredMu.Lock()
	_, exists := m.discovered[service.key()]
	if exists {
		delete(m.discovered, service.key())
	}
	m.discoveredMu.Unlock()

	if exists {
		logging.Debug("Peer service departed", zap.String("service", service.String()))
		m.dispatchCallbacks(service, true)
	}
}

// dispatchCallbacks invokes every registered callback on its own
// goroutine, so a slow callback cannot stall the receive loop. Ordering
// between concurrent invocations is unspecified.
func (m *Manager) dispatchCallbacks(service DiscoveredService, departed bool) {
	m.callbacksMu.Lock()
	entries := make([]callbackEntry, len(m.callbacks))
	copy(entries, m.callbacks)
	m.callbacksMu.Unlock()

	for _, entry := range entries {
		go entry.fn(service, departed, entry.data)
	}
}
