// Package arp resolves MAC addresses of hosts on the local network segment.
//
// Lookups are best-effort: a host that cannot be resolved is reported as
// unresolved, never as an error. Table reads the operating system's neighbor
// (ARP) table, Ping sends an active ARP request, and Static serves a fixed
// inventory. Chain combines them.
package arp

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"regexp"
	"strings"
)

// DebugLogger is a callback for debug logging.
// Set this to receive debug messages from ARP operations.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// Lookup resolves the MAC address of an IPv4 host.
// The MAC is returned in uppercase colon-separated form ("AA:BB:CC:DD:EE:FF").
type Lookup interface {
	ResolveMAC(ctx context.Context, ip net.IP) (string, bool)
}

// LookupFunc adapts an ordinary function to the Lookup interface.
type LookupFunc func(ctx context.Context, ip net.IP) (string, bool)

// ResolveMAC calls f.
func (f LookupFunc) ResolveMAC(ctx context.Context, ip net.IP) (string, bool) {
	return f(ctx, ip)
}

// Static resolves from a fixed IP-to-MAC map. Keys are dotted-quad strings.
type Static map[string]string

// ResolveMAC returns the normalized MAC recorded for ip.
func (s Static) ResolveMAC(_ context.Context, ip net.IP) (string, bool) {
	if ip == nil {
		return "", false
	}
	mac, ok := s[ip.String()]
	if !ok {
		return "", false
	}
	return NormalizeMAC(mac)
}

type chain []Lookup

// Chain returns a Lookup that tries each lookup in order and returns the first resolved MAC.
func Chain(lookups ...Lookup) Lookup {
	var c chain
	for _, l := range lookups {
		if l != nil {
			c = append(c, l)
		}
	}
	return c
}

func (c chain) ResolveMAC(ctx context.Context, ip net.IP) (string, bool) {
	for _, l := range c {
		if ctx.Err() != nil {
			return "", false
		}
		if mac, ok := l.ResolveMAC(ctx, ip); ok {
			return mac, true
		}
	}
	return "", false
}

// macPattern matches six hex groups separated by ':' or '-'. Groups may be a
// single digit since BSD and macOS drop leading zeros ("0:1b:2c:3d:4e:5f").
var macPattern = regexp.MustCompile(`^[0-9A-Fa-f]{1,2}([:-][0-9A-Fa-f]{1,2}){5}$`)

// NormalizeMAC converts a MAC token to uppercase colon-separated form.
// It returns false for tokens that are not a MAC and for the all-zero
// address that marks incomplete neighbor entries.
func NormalizeMAC(token string) (string, bool) {
	token = strings.TrimSpace(token)
	if !macPattern.MatchString(token) {
		return "", false
	}
	groups := strings.FieldsFunc(token, func(r rune) bool { return r == ':' || r == '-' })
	zero := true
	for i, g := range groups {
		if len(g) == 1 {
			g = "0" + g
		}
		g = strings.ToUpper(g)
		if g != "00" {
			zero = false
		}
		groups[i] = g
	}
	if zero {
		return "", false
	}
	return strings.Join(groups, ":"), true
}

// FindMAC finds the first line of neighbor-table text that carries addr as a
// whole token and returns the MAC on that line, normalized. Later lines are
// not consulted: when the first matching line has no usable MAC the address
// is unresolved.
// Formats understood include /proc/net/arp, "ip neigh", "arp -an" and Windows "arp -a".
func FindMAC(table []byte, addr string) (string, bool) {
	if addr == "" {
		return "", false
	}
	sc := bufio.NewScanner(bytes.NewReader(table))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if !hasAddr(fields, addr) {
			continue
		}
		for _, f := range fields {
			if mac, ok := NormalizeMAC(f); ok {
				return mac, true
			}
		}
		return "", false
	}
	return "", false
}

func hasAddr(fields []string, addr string) bool {
	for _, f := range fields {
		// "arp -an" wraps the address in parentheses
		if strings.Trim(f, "(),") == addr {
			return true
		}
	}
	return false
}
