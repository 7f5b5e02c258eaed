// Package network resolves the IPv4 span to scan and expands it into host addresses.
package network

import (
	"errors"
	"fmt"
	"iter"
	"net"
	"slices"
	"strconv"
	"strings"
)

const (
	// MinPrefixLength is the widest span accepted for a scan.
	MinPrefixLength = 1
	// MaxPrefixLength is the narrowest span accepted; /31 and /32 have no usable hosts.
	MaxPrefixLength = 30
)

// Errors
var (
	// ErrInvalidSubnetFormat is returned when an explicit subnet is not "a.b.c.d/n".
	ErrInvalidSubnetFormat = errors.New("invalid subnet format")
	// ErrInvalidPrefixLength is returned when the prefix length is outside [1,30].
	ErrInvalidPrefixLength = errors.New("invalid prefix length")
	// ErrNoUsableInterface is returned when auto-detection finds no IPv4 interface to scan.
	ErrNoUsableInterface = errors.New("no usable IPv4 interface")
)

// Span is an IPv4 network address with its prefix length.
type Span struct {
	Network      net.IP
	PrefixLength int
}

// String returns the span in CIDR notation.
func (s Span) String() string {
	return fmt.Sprintf("%s/%d", s.Network, s.PrefixLength)
}

// HostCount returns the number of usable host addresses in the span.
func (s Span) HostCount() int {
	if s.PrefixLength < MinPrefixLength || s.PrefixLength > MaxPrefixLength {
		return 0
	}
	return 1<<(32-s.PrefixLength) - 2
}

// ParseSpan parses an explicit "a.b.c.d/n" subnet. Host bits are masked off,
// so "10.0.0.5/24" yields the span 10.0.0.0/24.
func ParseSpan(cidr string) (Span, error) {
	cidr = strings.TrimSpace(cidr)
	if strings.Count(cidr, "/") != 1 {
		return Span{}, fmt.Errorf("%w: %q", ErrInvalidSubnetFormat, cidr)
	}
	addrPart, prefixPart, _ := strings.Cut(cidr, "/")

	ip := parseDottedQuad(addrPart)
	if ip == nil {
		return Span{}, fmt.Errorf("%w: %q is not an IPv4 address", ErrInvalidSubnetFormat, addrPart)
	}
	prefix, err := strconv.Atoi(prefixPart)
	if err != nil {
		return Span{}, fmt.Errorf("%w: prefix %q is not an integer", ErrInvalidSubnetFormat, prefixPart)
	}
	if prefix < MinPrefixLength || prefix > MaxPrefixLength {
		return Span{}, fmt.Errorf("%w: /%d (must be %d-%d)", ErrInvalidPrefixLength, prefix, MinPrefixLength, MaxPrefixLength)
	}
	return newSpan(ip, prefix), nil
}

func parseDottedQuad(s string) net.IP {
	if strings.Count(s, ".") != 3 || strings.Contains(s, ":") {
		return nil
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil
	}
	return ip.To4()
}

func newSpan(ip net.IP, prefix int) Span {
	mask := net.CIDRMask(prefix, 32)
	return Span{Network: ip.To4().Mask(mask), PrefixLength: prefix}
}

// Hosts yields every host address of the span in ascending order,
// excluding the network and broadcast addresses.
func Hosts(span Span) iter.Seq[net.IP] {
	return func(yield func(net.IP) bool) {
		base := span.Network.To4()
		if base == nil || span.PrefixLength < MinPrefixLength || span.PrefixLength > MaxPrefixLength {
			return
		}
		network := ipToUint32(base)
		broadcast := network | (uint32(1)<<(32-span.PrefixLength) - 1)
		for u := network + 1; u < broadcast; u++ {
			if !yield(uint32ToIP(u)) {
				return
			}
		}
	}
}

// Expand returns all host addresses of the span (excludes network and broadcast).
func Expand(span Span) []net.IP {
	return slices.Collect(Hosts(span))
}

// Compare orders two IPv4 addresses numerically.
func Compare(a, b net.IP) int {
	ua, ub := ipToUint32(a), ipToUint32(b)
	switch {
	case ua < ub:
		return -1
	case ua > ub:
		return 1
	}
	return 0
}

func ipToUint32(ip net.IP) uint32 {
	ip = ip.To4()
	if ip == nil {
		return 0
	}
	return uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3])
}

func uint32ToIP(u uint32) net.IP {
	return net.IPv4(byte(u>>24), byte(u>>16), byte(u>>8), byte(u)).To4()
}
