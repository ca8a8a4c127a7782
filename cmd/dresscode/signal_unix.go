// Shutdown signals for `dresscode -serve` on Unix-like systems.
//
// SIGINT covers Ctrl+C in a terminal; SIGTERM is what systemd, launchd and
// container runtimes send before killing the process. Either one drains
// in-flight renders through http.Server.Shutdown.

//go:build !windows

package main

import (
	"os"
	"os/signal"
	"syscall"
)

// ///////////////////////////////////////////////
// Signal Handling
// ///////////////////////////////////////////////

// shutdownSignals returns a channel that receives SIGINT or SIGTERM and a
// release func that restores default signal handling once the server has
// stopped.
func shutdownSignals() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	return ch, func() { signal.Stop(ch) }
}
