// Package mdns provides mDNS (Multicast DNS / Bonjour / Avahi) lookups for printers.
//
// Network printers commonly advertise themselves over DNS-SD:
//   - "_pdl-datastream._tcp" - raw socket printing (port 9100)
//   - "_ipp._tcp" - Internet Printing Protocol (port 631)
//   - "_printer._tcp" - LPD/LPR (port 515)
//
// Reverse PTR queries use github.com/miekg/dns; service browsing uses
// github.com/grandcat/zeroconf.
package mdns

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/miekg/dns"
)

const (
	// Port is the mDNS port
	Port = 5353
	// MulticastAddr is the mDNS multicast address
	MulticastAddr = "224.0.0.251"
	// DefaultTimeout is the default timeout for mDNS lookups
	DefaultTimeout = 2 * time.Second
	// Domain is the mDNS browse domain
	Domain = "local."
)

// PrinterServices are the DNS-SD service types printers advertise.
var PrinterServices = []string{
	"_pdl-datastream._tcp",
	"_ipp._tcp",
	"_printer._tcp",
}

// DebugLogger is a callback for debug logging.
// Set this to receive debug messages from mDNS operations.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// Service represents a discovered DNS-SD service instance.
type Service struct {
	Instance string            // e.g., "EPSON TM-m30"
	Service  string            // e.g., "_pdl-datastream._tcp"
	HostName string            // e.g., "EPSON1A2B3C.local."
	Port     int               // Service port
	IPv4     []net.IP          // Advertised IPv4 addresses
	TXT      map[string]string // TXT record key-value pairs
}

// Model returns the printer model from the TXT record, if advertised.
func (s Service) Model() string {
	for _, key := range []string{"ty", "product", "usb_MDL"} {
		if v := strings.Trim(s.TXT[key], "()"); v != "" {
			return v
		}
	}
	return ""
}

// Discovery performs mDNS hostname lookups and printer service browsing.
type Discovery struct {
	Timeout time.Duration
}

// NewDiscovery creates a new mDNS discovery helper with defaults.
func NewDiscovery() *Discovery {
	return &Discovery{Timeout: DefaultTimeout}
}

// LookupAddr asks the host at ip for its mDNS hostname with a unicast PTR query.
func (m *Discovery) LookupAddr(ctx context.Context, ip net.IP) (string, error) {
	ip4 := ip.To4()
	if ip4 == nil {
		return "", fmt.Errorf("invalid IPv4 address: %v", ip)
	}
	reverseName, err := dns.ReverseAddr(ip4.String())
	if err != nil {
		return "", fmt.Errorf("reverse name: %w", err)
	}

	msg := new(dns.Msg)
	msg.SetQuestion(reverseName, dns.TypePTR)
	msg.RecursionDesired = false
	data, err := msg.Pack()
	if err != nil {
		return "", fmt.Errorf("pack query: %w", err)
	}

	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return "", fmt.Errorf("udp listen: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(m.timeout())
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	if _, err := conn.WriteTo(data, &net.UDPAddr{IP: ip4, Port: Port}); err != nil {
		return "", fmt.Errorf("send query: %w", err)
	}

	buf := make([]byte, 4096)
	n, _, err := conn.ReadFrom(buf)
	if err != nil {
		debugLog("%s: no response", ip4)
		return "", fmt.Errorf("no mDNS response from %s", ip4)
	}
	hostname := ParsePTRResponse(buf[:n])
	if hostname == "" {
		return "", fmt.Errorf("no PTR answer from %s", ip4)
	}
	debugLog("%s -> %s", ip4, hostname)
	return hostname, nil
}

// ParsePTRResponse returns the first PTR target in a DNS response, without the trailing dot.
func ParsePTRResponse(data []byte) string {
	msg := new(dns.Msg)
	if err := msg.Unpack(data); err != nil {
		return ""
	}
	for _, rr := range msg.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			return strings.TrimSuffix(ptr.Ptr, ".")
		}
	}
	return ""
}

// Browse collects instances of the given service types until the timeout
// elapses or ctx is done. Each service type is browsed concurrently.
func (m *Discovery) Browse(ctx context.Context, services ...string) ([]Service, error) {
	if len(services) == 0 {
		services = PrinterServices
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout())
	defer cancel()

	var (
		mu        sync.Mutex
		found     []Service
		wg        sync.WaitGroup
		errOnce   sync.Once
		browseErr error
	)
	for _, service := range services {
		resolver, err := zeroconf.NewResolver(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
		}
		entries := make(chan *zeroconf.ServiceEntry)

		wg.Add(1)
		go func(service string) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case entry, ok := <-entries:
					if !ok {
						return
					}
					svc := serviceFromEntry(service, entry)
					mu.Lock()
					found = append(found, svc)
					mu.Unlock()
					debugLog("browse %s: %q at %v:%d", service, svc.Instance, svc.IPv4, svc.Port)
				}
			}
		}(service)

		if err := resolver.Browse(ctx, service, Domain, entries); err != nil {
			errOnce.Do(func() { browseErr = fmt.Errorf("failed to browse %s: %w", service, err) })
		}
	}

	<-ctx.Done()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(found) == 0 && browseErr != nil {
		return nil, browseErr
	}
	return found, nil
}

func (m *Discovery) timeout() time.Duration {
	if m.Timeout <= 0 {
		return DefaultTimeout
	}
	return m.Timeout
}

func serviceFromEntry(service string, entry *zeroconf.ServiceEntry) Service {
	svc := Service{
		Instance: unescapeInstance(entry.Instance),
		Service:  service,
		HostName: entry.HostName,
		Port:     entry.Port,
		TXT:      make(map[string]string),
	}
	for _, ip := range entry.AddrIPv4 {
		if ip4 := ip.To4(); ip4 != nil {
			svc.IPv4 = append(svc.IPv4, ip4)
		}
	}
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		svc.TXT[key] = value
	}
	return svc
}

// unescapeInstance drops the DNS escaping zeroconf leaves in instance names ("EPSON\ TM-m30").
func unescapeInstance(s string) string {
	return strings.ReplaceAll(s, `\`, "")
}
