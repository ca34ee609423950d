package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cnstln/chirp/internal/chirp"
	"github.com/cnstln/chirp/internal/logging"
)

// Discovery is the view of the manager the status server needs.
type Discovery interface {
	GetRegisteredServices() []chirp.RegisteredService
	GetDiscoveredServices() []chirp.DiscoveredService
	RegisterDiscoverCallback(fn chirp.DiscoverCallback, userData any) bool
	UnregisterDiscoverCallback(fn chirp.DiscoverCallback, userData any) bool
}

// Server exposes a manager's state over HTTP: JSON snapshots of the
// registered and discovered sets, and a WebSocket stream of discovery
// events.
type Server struct {
	addr      string
	discovery Discovery
	hub       *eventHub

	mu         sync.Mutex
	listener   net.Listener
	httpServer *http.Server
}

// New creates a status server for the given manager. Nothing is bound
// until Start.
func New(addr string, discovery Discovery) *Server {
	return &Server{
		addr:      addr,
		discovery: discovery,
		hub:       newEventHub(),
	}
}

// Handler returns the HTTP handler serving the status API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/services", s.handleServices)
	mux.HandleFunc("GET /api/discovered", s.handleDiscovered)
	mux.HandleFunc("GET /api/events", s.hub.handleWebSocket)
	return mux
}

// Start binds the listen address and serves in the background. The
// manager's discovery events are forwarded to WebSocket clients from
// this point on.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind status server %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.httpServer = &http.Server{Handler: s.Handler()}
	s.mu.Unlock()

	s.discovery.RegisterDiscoverCallback(s.onDiscover, nil)

	logging.Info("Status server listening", zap.String("addr", listener.Addr().String()))

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logging.Error("Status server terminated", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound listen address, or the configured one before
// Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Shutdown stops forwarding events, disconnects WebSocket clients and
// closes the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.discovery.UnregisterDiscoverCallback(s.onDiscover, nil)
	s.hub.closeAll()

	s.mu.Lock()
	httpServer := s.httpServer
	s.mu.Unlock()
	if httpServer == nil {
		return nil
	}
	return httpServer.Shutdown(ctx)
}

// onDiscover is the manager callback feeding the event hub.
func (s *Server) onDiscover(service chirp.DiscoveredService, departed bool, _ any) {
	event := "discovered"
	if departed {
		event = "departed"
	}
	s.hub.publish(Event{
		Event:   event,
		Address: service.Address.String(),
		Peer:    service.NameHash.String(),
		Service: strings.ToLower(service.Identifier.String()),
		Port:    service.Port,
	})
}

// ServiceEntry is the JSON shape of one registered service.
type ServiceEntry struct {
	Service string `json:"service"`
	Port    uint16 `json:"port"`
}

// DiscoveredEntry is the JSON shape of one discovered service.
type DiscoveredEntry struct {
	Address string `json:"address"`
	Peer    string `json:"peer"` // name hash, hex
	Service string `json:"service"`
	Port    uint16 `json:"port"`
}

// Event is one discovery event on the WebSocket stream.
type Event struct {
	Event   string `json:"event"` // "discovered" or "departed"
	Address string `json:"address"`
	Peer    string `json:"peer"`
	Service string `json:"service"`
	Port    uint16 `json:"port"`
}

func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	services := s.discovery.GetRegisteredServices()
	entries := make([]ServiceEntry, 0, len(services))
	for _, service := range services {
		entries = append(entries, ServiceEntry{
			Service: strings.ToLower(service.Identifier.String()),
			Port:    service.Port,
		})
	}
	writeJSON(w, entries)
}

func (s *Server) handleDiscovered(w http.ResponseWriter, r *http.Request) {
	services := s.discovery.GetDiscoveredServices()
	entries := make([]DiscoveredEntry, 0, len(services))
	for _, service := range services {
		entries = append(entries, DiscoveredEntry{
			Address: service.Address.String(),
			Peer:    service.NameHash.String(),
			Service: strings.ToLower(service.Identifier.String()),
			Port:    service.Port,
		})
	}
	writeJSON(w, entries)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("Failed to encode status response", zap.Error(err))
	}
}
