// Package tui implements the interactive watch screen for chirp.
//
// The watch screen shows the services discovered in the node's group as
// a live-updating list: new OFFERs appear as they arrive, LEAVING
// broadcasts remove entries, and the footer shows the most recent event.
// On startup (and on demand with 'r') it broadcasts a REQUEST for every
// service identifier so peers that announced before we were listening
// re-announce themselves.
//
// The screen is built with bubbletea; discovery events reach the update
// loop through a manager callback that forwards them with program.Send.
package tui
