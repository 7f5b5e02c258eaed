//go:build linux || darwin || freebsd || netbsd || openbsd

package arp

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/j-keck/arping"
)

// DefaultPingTimeout is the default timeout for an active ARP request.
const DefaultPingTimeout = 500 * time.Millisecond

// arping keeps its timeout in package state, so requests are serialized.
var pingMu sync.Mutex

// Ping resolves a MAC by sending an ARP request and waiting for the reply.
// It needs raw socket access (root or CAP_NET_RAW).
type Ping struct {
	Timeout time.Duration
}

// NewPing creates an active ARP lookup with defaults.
func NewPing() *Ping {
	return &Ping{Timeout: DefaultPingTimeout}
}

// ResolveMAC sends an ARP request to ip.
func (p *Ping) ResolveMAC(ctx context.Context, ip net.IP) (string, bool) {
	ip4 := ip.To4()
	if ip4 == nil {
		return "", false
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}

	type arpResponse struct {
		mac net.HardwareAddr
		dur time.Duration
		err error
	}
	responseChan := make(chan arpResponse, 1)

	go func() {
		pingMu.Lock()
		defer pingMu.Unlock()
		arping.SetTimeout(timeout)
		mac, dur, err := arping.Ping(ip4)
		responseChan <- arpResponse{mac: mac, dur: dur, err: err}
	}()

	select {
	case <-ctx.Done():
		debugLog("%s: arping cancelled", ip4)
		return "", false
	case resp := <-responseChan:
		if resp.err != nil {
			debugLog("%s: arping failed: %v", ip4, resp.err)
			return "", false
		}
		mac, ok := NormalizeMAC(resp.mac.String())
		if ok {
			debugLog("%s -> MAC: %s (arping %.2fms)", ip4, mac, float64(resp.dur.Microseconds())/1000)
		}
		return mac, ok
	}
}

// PingSupported reports whether active ARP requests are available on this platform.
func PingSupported() bool {
	return true
}
