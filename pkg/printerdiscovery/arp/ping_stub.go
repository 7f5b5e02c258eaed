//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package arp

import (
	"context"
	"net"
	"time"
)

// DefaultPingTimeout is the default timeout for an active ARP request.
const DefaultPingTimeout = 500 * time.Millisecond

// Ping resolves a MAC by sending an ARP request. Not supported on this
// platform; ResolveMAC always reports the host as unresolved.
type Ping struct {
	Timeout time.Duration
}

// NewPing creates an active ARP lookup with defaults.
func NewPing() *Ping {
	return &Ping{Timeout: DefaultPingTimeout}
}

// ResolveMAC always returns false on this platform.
func (p *Ping) ResolveMAC(_ context.Context, ip net.IP) (string, bool) {
	debugLog("%s: active ARP is not supported on this platform", ip)
	return "", false
}

// PingSupported reports whether active ARP requests are available on this platform.
func PingSupported() bool {
	return false
}
