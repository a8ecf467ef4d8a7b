//go:build !linux

package server

import (
	"context"
	"net"
)

// listen creates a TCP listening socket. Outside Linux the net package
// already sets SO_REUSEADDR on Unix systems; the backlog is left to the
// operating system.
func listen(address string, _ int) (net.Listener, error) {
	var lc net.ListenConfig
	return lc.Listen(context.Background(), "tcp", address)
}
