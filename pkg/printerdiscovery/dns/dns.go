// Package dns provides reverse DNS (PTR) lookups for discovered printers.
package dns

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"
)

// DefaultTimeout is the default timeout for DNS lookups.
const DefaultTimeout = 2 * time.Second

// DebugLogger is a callback for debug logging.
// Set this to receive debug messages from DNS operations.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// Discovery performs reverse DNS lookups.
type Discovery struct {
	Timeout  time.Duration
	Resolver *net.Resolver
}

// NewDiscovery creates a new DNS discovery helper with defaults.
func NewDiscovery() *Discovery {
	return &Discovery{
		Timeout:  DefaultTimeout,
		Resolver: net.DefaultResolver,
	}
}

// LookupAddr returns the first PTR name for ip without the trailing dot.
func (d *Discovery) LookupAddr(ctx context.Context, ip net.IP) (string, error) {
	if ip == nil {
		return "", fmt.Errorf("invalid IP address")
	}
	resolver := d.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	lookupCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	names, err := resolver.LookupAddr(lookupCtx, ip.String())
	if err != nil {
		debugLog("%s: lookup failed: %v", ip, err)
		return "", err
	}
	for _, name := range names {
		if name = strings.TrimSuffix(name, "."); name != "" {
			debugLog("%s -> %s", ip, name)
			return name, nil
		}
	}
	return "", fmt.Errorf("no PTR record for %s", ip)
}
