// Package printerdiscovery finds printers on the local IPv4 network.
//
// A scan resolves the subnet to sweep (explicit CIDR or the first usable
// interface), probes every host address on a list of printer ports with
// plain TCP connects, and reports one DiscoveredDevice per address that
// accepted a connection. Confirmed devices are enriched with the MAC address
// from the host's neighbor table and, optionally, a display name gathered
// from reverse DNS, mDNS, SSDP and the MAC vendor.
//
// No raw sockets or elevated privileges are required.
package printerdiscovery

import (
	"fmt"
	"net"
	"slices"
	"time"

	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery/network"
)

// TransportRawTCP is the transport of every discovered device: a raw TCP
// print stream (JetDirect, IPP or LPD port).
const TransportRawTCP = "tcp:raw"

// Defaults applied to zero ScanConfig fields.
const (
	DefaultTimeout        = time.Second
	DefaultMaxConcurrency = 100
)

// DefaultPorts returns the default probe ports in priority order:
// raw JetDirect, IPP, LPD.
func DefaultPorts() []uint16 {
	return []uint16{9100, 631, 515}
}

// ScanConfig configures a single scan run. Zero values select the defaults.
type ScanConfig struct {
	// Timeout bounds each TCP connect attempt.
	Timeout time.Duration
	// MaxConcurrency is the ceiling on simultaneous in-flight probes.
	MaxConcurrency int
	// Ports to probe on each host. The order sets priority: when several
	// ports are open on one host, the earliest in this list is reported.
	Ports []uint16
	// Subnet is an explicit "a.b.c.d/n" span. Empty means auto-detect.
	Subnet string
}

// normalize applies defaults, validates, and drops duplicate ports.
func (c ScanConfig) normalize() (ScanConfig, error) {
	if c.Timeout < 0 {
		return c, fmt.Errorf("%w: negative timeout %v", ErrInvalidConfig, c.Timeout)
	}
	if c.MaxConcurrency < 0 {
		return c, fmt.Errorf("%w: negative max concurrency %d", ErrInvalidConfig, c.MaxConcurrency)
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = DefaultMaxConcurrency
	}
	if len(c.Ports) == 0 {
		c.Ports = DefaultPorts()
		return c, nil
	}

	ports := make([]uint16, 0, len(c.Ports))
	for _, p := range c.Ports {
		if p == 0 {
			return c, fmt.Errorf("%w: port 0", ErrInvalidConfig)
		}
		if !slices.Contains(ports, p) {
			ports = append(ports, p)
		}
	}
	c.Ports = ports
	return c, nil
}

// DiscoveredDevice is a printer candidate that accepted a TCP connection.
type DiscoveredDevice struct {
	Address     net.IP `json:"address"`
	Port        uint16 `json:"port"`
	Transport   string `json:"transport"`
	DisplayName string `json:"displayName"`
	MACAddress  string `json:"macAddress,omitempty"` // uppercase, colon-separated; empty when unresolved
	Vendor      string `json:"vendor,omitempty"`
	Model       string `json:"model,omitempty"` // from mDNS TXT records
}

// HasMAC reports whether a MAC address was resolved for the device.
func (d DiscoveredDevice) HasMAC() bool {
	return d.MACAddress != ""
}

func defaultDisplayName(ip net.IP) string {
	return "Printer " + ip.String()
}

func sortDevices(devices []DiscoveredDevice) {
	slices.SortFunc(devices, func(a, b DiscoveredDevice) int {
		return network.Compare(a.Address, b.Address)
	})
}
