// Package server implements the optional chirp status server.
//
// The status server exposes a manager's view of the network over HTTP,
// intended for local diagnostics and dashboards:
//
//	GET /api/services    JSON array of locally registered services
//	GET /api/discovered  JSON array of discovered peer services
//	GET /api/events      WebSocket stream of discovery events
//
// The event stream sends one JSON object per discovery callback:
//
//	{"event":"discovered","address":"192.168.1.17","peer":"<hex>","service":"data","port":5555}
//	{"event":"departed","address":"192.168.1.17","peer":"<hex>","service":"data","port":5555}
//
// Events are forwarded from a manager discovery callback; a slow or
// stuck WebSocket client is disconnected rather than allowed to apply
// backpressure to the discovery path.
//
// The server binds 127.0.0.1:7180 by default and is enabled with
// `chirp announce --status-addr` or the status section of the config
// file.
package server
