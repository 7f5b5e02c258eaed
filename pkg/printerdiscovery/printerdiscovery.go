package printerdiscovery

import (
	"context"
	"fmt"
	"time"

	"github.com/marcuoli/go-printerdiscovery/internal/scanner"
	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery/arp"
	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery/network"
	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery/probe"
	syncutil "github.com/projectdiscovery/utils/sync"
)

// maxEnrichWorkers bounds concurrent MAC and name lookups after the probe phase.
const maxEnrichWorkers = 32

// Discoverer runs printer scans. The zero value is usable; nil fields fall
// back to the defaults New installs, except ARP, which is skipped when nil.
type Discoverer struct {
	Prober  probe.Prober
	ARP     arp.Lookup
	Subnets *network.Resolver
	Naming  NamingOptions
}

// New returns a Discoverer that dials real TCP connections, reads the OS
// neighbor table and auto-detects the subnet from system interfaces.
func New() *Discoverer {
	return &Discoverer{
		Prober:  probe.NewTCPProber(),
		ARP:     arp.NewTable(),
		Subnets: network.NewResolver(),
	}
}

// Discover scans with a default Discoverer.
func Discover(ctx context.Context, cfg ScanConfig) ([]DiscoveredDevice, error) {
	return New().Discover(ctx, cfg)
}

// Discover probes every host of the resolved subnet on cfg.Ports and returns
// one device per address with an open port, sorted by address.
//
// Invalid configuration and subnet resolution failures abort the scan with
// no results. If ctx is cancelled mid-scan, Discover returns the devices
// confirmed so far, without MAC or name enrichment, and an error wrapping
// ErrScanCancelled.
func (d *Discoverer) Discover(ctx context.Context, cfg ScanConfig) ([]DiscoveredDevice, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	subnets := d.Subnets
	if subnets == nil {
		subnets = network.NewResolver()
	}
	span, err := subnets.Resolve(cfg.Subnet)
	if err != nil {
		debugLog(ComponentDiscovery, "subnet resolution failed: %v", err)
		return nil, fmt.Errorf("resolve subnet: %w", err)
	}

	prober := d.Prober
	if prober == nil {
		prober = probe.NewTCPProber()
	}

	// More workers than (address, port) pairs would only sit idle.
	workers := min(cfg.MaxConcurrency, span.HostCount()*len(cfg.Ports))

	debugLog(ComponentDiscovery, "scanning %s (%d hosts) ports=%v concurrency=%d timeout=%v",
		span, span.HostCount(), cfg.Ports, workers, cfg.Timeout)
	start := time.Now()

	var names *namer
	if d.Naming.enabled() {
		names = startNaming(ctx, d.Naming)
	}

	// Only the collector goroutine in scanner.Run touches first.
	first := make(map[string]scanner.Target)
	stats := scanner.Run(ctx,
		scanner.Cross(network.Hosts(span), cfg.Ports),
		workers,
		func(ctx context.Context, t scanner.Target) bool {
			return prober.Probe(ctx, t.IP, t.Port, cfg.Timeout)
		},
		func(t scanner.Target) {
			key := t.IP.String()
			if prev, ok := first[key]; ok && prev.Rank <= t.Rank {
				return
			}
			first[key] = t
		})

	devices := make([]DiscoveredDevice, 0, len(first))
	for _, t := range first {
		devices = append(devices, DiscoveredDevice{
			Address:     t.IP,
			Port:        t.Port,
			Transport:   TransportRawTCP,
			DisplayName: defaultDisplayName(t.IP),
		})
	}
	sortDevices(devices)

	debugLog(ComponentDiscovery, "probe phase done in %v: scheduled=%d probed=%d open=%d devices=%d",
		time.Since(start).Round(time.Millisecond), stats.Scheduled, stats.Probed, stats.Open, len(devices))

	if err := ctx.Err(); err != nil {
		if names != nil {
			names.wait()
		}
		return devices, fmt.Errorf("%w: %w", ErrScanCancelled, err)
	}

	if err := d.enrich(ctx, devices, names); err != nil {
		debugLog(ComponentDiscovery, "enrichment skipped: %v", err)
	}
	return devices, nil
}

// enrich resolves MAC addresses and display names for confirmed devices.
func (d *Discoverer) enrich(ctx context.Context, devices []DiscoveredDevice, names *namer) error {
	if names != nil {
		names.wait()
	}
	if len(devices) == 0 || (d.ARP == nil && names == nil) {
		return nil
	}

	awg, err := syncutil.New(syncutil.WithSize(min(len(devices), maxEnrichWorkers)))
	if err != nil {
		return err
	}
	for i := range devices {
		awg.Add()
		go func(dev *DiscoveredDevice) {
			defer awg.Done()
			if d.ARP != nil {
				if mac, ok := d.ARP.ResolveMAC(ctx, dev.Address); ok {
					dev.MACAddress = mac
				} else {
					debugLog(ComponentARP, "%s: no MAC address", dev.Address)
				}
			}
			if names != nil {
				names.name(ctx, dev)
			}
		}(&devices[i])
	}
	awg.Wait()
	return nil
}
