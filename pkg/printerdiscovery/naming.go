package printerdiscovery

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery/dns"
	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery/mdns"
	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery/oui"
	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery/ssdp"
)

// DefaultNamingTimeout bounds each naming query.
const DefaultNamingTimeout = 2 * time.Second

// NamingOptions selects the sources used to give confirmed devices a display
// name. All sources are best-effort; a device with no answer keeps the
// "Printer <address>" default.
//
// Precedence: mDNS service instance, the advertised mDNS model, SSDP server
// string, mDNS hostname, reverse DNS hostname, "<vendor> printer".
type NamingOptions struct {
	ReverseDNS bool
	MDNS       bool
	SSDP       bool
	// Vendors, when set, fills DiscoveredDevice.Vendor from the MAC prefix.
	Vendors *oui.DB
	Timeout time.Duration
}

func (o NamingOptions) enabled() bool {
	return o.ReverseDNS || o.MDNS || o.SSDP || o.Vendors != nil
}

func (o NamingOptions) timeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return DefaultNamingTimeout
}

// namer holds the network-wide naming answers of one scan run. Browsing and
// searching start with the probe phase and are collected before enrichment.
type namer struct {
	opts NamingOptions
	rdns *dns.Discovery
	mdns *mdns.Discovery

	wg       sync.WaitGroup
	mu       sync.Mutex
	services map[string]string // address -> mDNS instance name
	models   map[string]string // address -> model from mDNS TXT records
	servers  map[string]string // address -> SSDP Server header
}

func startNaming(ctx context.Context, opts NamingOptions) *namer {
	n := &namer{
		opts:     opts,
		services: make(map[string]string),
		models:   make(map[string]string),
		servers:  make(map[string]string),
	}
	if opts.ReverseDNS {
		n.rdns = &dns.Discovery{Timeout: opts.timeout(), Resolver: net.DefaultResolver}
	}
	if opts.MDNS {
		n.mdns = &mdns.Discovery{Timeout: opts.timeout()}
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			services, err := n.mdns.Browse(ctx, mdns.PrinterServices...)
			if err != nil {
				debugLog(ComponentMDNS, "browse failed: %v", err)
			}
			n.addServices(services)
		}()
	}
	if opts.SSDP {
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			results, err := (&ssdp.Discovery{Timeout: opts.timeout()}).SearchPrinters(ctx)
			if err != nil {
				debugLog(ComponentSSDP, "search failed: %v", err)
			}
			n.addSSDP(results)
		}()
	}
	return n
}

func (n *namer) addServices(services []mdns.Service) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, svc := range services {
		model := svc.Model()
		for _, ip := range svc.IPv4 {
			key := ip.String()
			if _, ok := n.services[key]; !ok && svc.Instance != "" {
				n.services[key] = svc.Instance
			}
			if _, ok := n.models[key]; !ok && model != "" {
				n.models[key] = model
			}
		}
	}
}

func (n *namer) addSSDP(results []*ssdp.Result) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, r := range results {
		if r.IP == "" || r.Server == "" {
			continue
		}
		if _, ok := n.servers[r.IP]; !ok {
			n.servers[r.IP] = r.Server
		}
	}
}

// wait blocks until browsing and searching have finished.
func (n *namer) wait() {
	n.wg.Wait()
}

// name fills dev.Vendor and dev.DisplayName. dev.MACAddress must already be set.
func (n *namer) name(ctx context.Context, dev *DiscoveredDevice) {
	if n.opts.Vendors != nil && dev.MACAddress != "" {
		dev.Vendor = n.opts.Vendors.LookupName(dev.MACAddress)
	}

	key := dev.Address.String()
	n.mu.Lock()
	instance, model, server := n.services[key], n.models[key], n.servers[key]
	n.mu.Unlock()
	dev.Model = model

	switch {
	case instance != "":
		dev.DisplayName = instance
		return
	case model != "":
		dev.DisplayName = model
		return
	case server != "":
		dev.DisplayName = server
		return
	}

	if n.mdns != nil {
		if host, err := n.mdns.LookupAddr(ctx, dev.Address); err == nil && host != "" {
			dev.DisplayName = host
			return
		}
	}
	if n.rdns != nil {
		if host, err := n.rdns.LookupAddr(ctx, dev.Address); err == nil && host != "" {
			dev.DisplayName = host
			return
		}
	}
	if dev.Vendor != "" {
		dev.DisplayName = dev.Vendor + " printer"
	}
}
