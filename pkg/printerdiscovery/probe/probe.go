// Package probe checks whether a TCP port accepts connections.
// Probing uses a plain TCP connect, so it needs no raw sockets or elevated privileges.
package probe

import (
	"context"
	"net"
	"strconv"
	"time"
)

// DefaultTimeout is used when a non-positive timeout is passed to Probe.
const DefaultTimeout = time.Second

// DebugLogger is a callback for debug logging.
// Set this to receive debug messages from probe operations.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// Prober reports whether ip:port accepted a TCP connection within timeout.
// Implementations never return an error: a closed, filtered or unreachable
// port is reported as false.
type Prober interface {
	Probe(ctx context.Context, ip net.IP, port uint16, timeout time.Duration) bool
}

// Func adapts an ordinary function to the Prober interface.
type Func func(ctx context.Context, ip net.IP, port uint16, timeout time.Duration) bool

// Probe calls f.
func (f Func) Probe(ctx context.Context, ip net.IP, port uint16, timeout time.Duration) bool {
	return f(ctx, ip, port, timeout)
}

// TCPProber probes with a TCP connect and closes the connection immediately.
type TCPProber struct {
	// LocalAddr optionally binds outgoing probes to a local address.
	LocalAddr net.Addr
}

// NewTCPProber creates a TCP connect prober with defaults.
func NewTCPProber() *TCPProber {
	return &TCPProber{}
}

// Probe dials ip:port. The timeout is enforced both on the dialer and through
// a context deadline, since OS connect timeouts can run for minutes.
func (p *TCPProber) Probe(ctx context.Context, ip net.IP, port uint16, timeout time.Duration) bool {
	if ip == nil || port == 0 {
		return false
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	d := net.Dialer{Timeout: timeout, LocalAddr: p.LocalAddr}
	addr := net.JoinHostPort(ip.String(), strconv.Itoa(int(port)))
	start := time.Now()
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		debugLog("%s: closed (%v)", addr, err)
		return false
	}
	_ = conn.Close()
	debugLog("%s: open (%.2fms)", addr, float64(time.Since(start).Microseconds())/1000)
	return true
}
