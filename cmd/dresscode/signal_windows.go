// Shutdown signals for `dresscode -serve` on Windows.
//
// Windows has no SIGTERM, so only Ctrl+C (os.Interrupt) stops the server.

//go:build windows

package main

import (
	"os"
	"os/signal"
)

// ///////////////////////////////////////////////
// Signal Handling
// ///////////////////////////////////////////////

// shutdownSignals returns a channel that receives os.Interrupt and a release
// func that restores default signal handling once the server has stopped.
func shutdownSignals() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	return ch, func() { signal.Stop(ch) }
}
