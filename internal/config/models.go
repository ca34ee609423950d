package config

import (
	"fmt"
	"strings"

	"github.com/cnstln/chirp/internal/protocol"
)

// Config represents the entire user configuration file.
// This stores the node's identity, addressing and pre-registered services.
type Config struct {
	Version int `yaml:"version"`

	// Group is the logical cohort this node belongs to; only messages
	// from the same group are acted on.
	Group string `yaml:"group"`

	// Name is the per-process identity. Empty means "use the hostname",
	// resolved by the CLI at startup.
	Name string `yaml:"name,omitempty"`

	// BroadcastAddr is the CHIRP broadcast destination. The
	// subnet-directed broadcast address (e.g. 192.168.1.255) is the
	// portable choice; 255.255.255.255 requires a DHCP-configured
	// interface on some stacks; 0.0.0.0 broadcasts on loopback only.
	BroadcastAddr string `yaml:"broadcast_addr"`

	// AnyAddr is the receiver bind address, typically 0.0.0.0.
	AnyAddr string `yaml:"any_addr"`

	// Services are registered on startup by `chirp announce`.
	Services []ServiceEntry `yaml:"services,omitempty"`

	// Status configures the optional HTTP status server.
	Status *StatusPrefs `yaml:"status,omitempty"`
}

// ServiceEntry is one pre-registered service in the config file.
type ServiceEntry struct {
	Service string `yaml:"service"` // service identifier name, e.g. "control"
	Port    uint16 `yaml:"port"`
}

// StatusPrefs represents preferences for the HTTP status server.
type StatusPrefs struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"` // listen address, e.g. "127.0.0.1:7180"
}

// DefaultStatusAddr is the status server default listen address.
const DefaultStatusAddr = "127.0.0.1:7180"

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Version:       1,
		Group:         "constellation",
		BroadcastAddr: "255.255.255.255",
		AnyAddr:       "0.0.0.0",
		Status: &StatusPrefs{
			Enabled: false,
			Addr:    DefaultStatusAddr,
		},
	}
}

// serviceNames maps config file service names to wire identifiers.
var serviceNames = map[string]protocol.ServiceIdentifier{
	"control":    protocol.ServiceControl,
	"heartbeat":  protocol.ServiceHeartbeat,
	"monitoring": protocol.ServiceMonitoring,
	"data":       protocol.ServiceData,
}

// ParseService resolves a service name from the config file or a CLI flag
// to its wire identifier. Matching is case-insensitive.
func ParseService(name string) (protocol.ServiceIdentifier, error) {
	id, ok := serviceNames[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown service %q (valid: %s)", name, strings.Join(ServiceNames(), ", "))
	}
	return id, nil
}

// ServiceNames returns the valid service names in identifier order.
func ServiceNames() []string {
	return []string{"control", "heartbeat", "monitoring", "data"}
}

// Identifier resolves the entry's service name.
func (e ServiceEntry) Identifier() (protocol.ServiceIdentifier, error) {
	return ParseService(e.Service)
}
