package network

import (
	"fmt"
	"net"
	"strings"
)

// Interface is the subset of a host network interface used to pick a span.
type Interface struct {
	Name  string
	Flags net.Flags
	Addrs []net.Addr
}

// InterfaceLister enumerates host network interfaces.
type InterfaceLister func() ([]Interface, error)

// Candidate is an interface address that qualifies as a scan span.
type Candidate struct {
	Interface string
	Address   net.IP
	Span      Span
}

// SystemInterfaces reads interface metadata from the operating system.
func SystemInterfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	out := make([]Interface, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		out = append(out, Interface{Name: iface.Name, Flags: iface.Flags, Addrs: addrs})
	}
	return out, nil
}

// Resolver determines the span to scan.
type Resolver struct {
	// Interfaces lists host interfaces for auto-detection. Defaults to SystemInterfaces.
	Interfaces InterfaceLister
}

// NewResolver creates a resolver backed by the operating system's interfaces.
func NewResolver() *Resolver {
	return &Resolver{Interfaces: SystemInterfaces}
}

// Resolve parses explicit when it is non-empty, otherwise auto-detects the
// first usable IPv4 interface.
func (r *Resolver) Resolve(explicit string) (Span, error) {
	if strings.TrimSpace(explicit) != "" {
		return ParseSpan(explicit)
	}
	candidates, err := r.Candidates()
	if err != nil {
		return Span{}, err
	}
	if len(candidates) == 0 {
		return Span{}, ErrNoUsableInterface
	}
	return candidates[0].Span, nil
}

// Candidates returns every interface address that could be scanned, in
// interface order. The first entry is what Resolve picks.
func (r *Resolver) Candidates() ([]Candidate, error) {
	list := r.Interfaces
	if list == nil {
		list = SystemInterfaces
	}
	ifaces, err := list()
	if err != nil {
		return nil, fmt.Errorf("%w: list interfaces: %v", ErrNoUsableInterface, err)
	}

	var out []Candidate
	for _, iface := range ifaces {
		// Skip loopback and down interfaces
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		for _, addr := range iface.Addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip := ipNet.IP.To4()
			if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
				continue
			}
			ones, bits := ipNet.Mask.Size()
			if bits == 128 {
				ones -= 96
			}
			if bits == 0 || ones < MinPrefixLength || ones > MaxPrefixLength {
				continue
			}
			out = append(out, Candidate{
				Interface: iface.Name,
				Address:   ip,
				Span:      newSpan(ip, ones),
			})
		}
	}
	return out, nil
}

// Resolve resolves a span using the operating system's interfaces.
func Resolve(explicit string) (Span, error) {
	return NewResolver().Resolve(explicit)
}
