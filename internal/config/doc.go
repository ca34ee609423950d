// Package config manages the chirp configuration file.
//
// The config file is YAML stored in the platform config directory
// ($XDG_CONFIG_HOME/chirp/config.yaml on Linux). It holds the node's
// group, name, broadcast and bind addresses, services to register on
// startup, and status-server preferences:
//
//	version: 1
//	group: edda
//	name: gro
//	broadcast_addr: 192.168.1.255
//	any_addr: 0.0.0.0
//	services:
//	  - service: control
//	    port: 41234
//	  - service: data
//	    port: 5555
//	status:
//	  enabled: true
//	  addr: 127.0.0.1:7180
//
// A missing file yields the defaults. An existing file must declare
// version: 1 (an empty file is rejected); other omitted fields get
// defaults. Saves are atomic (write to temp file, then rename).
package config
