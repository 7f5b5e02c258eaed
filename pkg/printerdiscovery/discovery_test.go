package printerdiscovery

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery/arp"
	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery/network"
	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery/probe"
)

// openPorts returns a prober that reports exactly the listed "ip:port" pairs open.
func openPorts(open ...string) probe.Prober {
	set := make(map[string]bool, len(open))
	for _, o := range open {
		set[o] = true
	}
	return probe.Func(func(_ context.Context, ip net.IP, port uint16, _ time.Duration) bool {
		return set[net.JoinHostPort(ip.String(), strconv.Itoa(int(port)))]
	})
}

func noInterfaces() *network.Resolver {
	return &network.Resolver{Interfaces: func() ([]network.Interface, error) { return nil, nil }}
}

func TestDiscover_EndToEnd(t *testing.T) {
	d := &Discoverer{
		Prober:  openPorts("192.168.1.1:9100"),
		ARP:     arp.Static{"192.168.1.1": "aa-bb-cc-dd-ee-ff"},
		Subnets: noInterfaces(),
	}

	devices, err := d.Discover(context.Background(), ScanConfig{
		Ports:          []uint16{9100},
		MaxConcurrency: 10,
		Timeout:        50 * time.Millisecond,
		Subnet:         "192.168.1.0/30",
	})
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("Expected 1 device, got %d: %+v", len(devices), devices)
	}

	dev := devices[0]
	if dev.Address.String() != "192.168.1.1" {
		t.Errorf("Expected address 192.168.1.1, got %s", dev.Address)
	}
	if dev.Port != 9100 {
		t.Errorf("Expected port 9100, got %d", dev.Port)
	}
	if dev.Transport != TransportRawTCP {
		t.Errorf("Expected transport %q, got %q", TransportRawTCP, dev.Transport)
	}
	if dev.MACAddress != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("Expected MAC AA:BB:CC:DD:EE:FF, got %q", dev.MACAddress)
	}
	if dev.DisplayName != "Printer 192.168.1.1" {
		t.Errorf("Expected default display name, got %q", dev.DisplayName)
	}
}

func TestDiscover_OneDevicePerAddress(t *testing.T) {
	d := &Discoverer{
		Prober:  openPorts("10.0.0.5:9100", "10.0.0.5:631"),
		Subnets: noInterfaces(),
	}

	devices, err := d.Discover(context.Background(), ScanConfig{Subnet: "10.0.0.0/24"})
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("Expected exactly 1 device, got %d", len(devices))
	}
	if devices[0].Address.String() != "10.0.0.5" {
		t.Errorf("Expected 10.0.0.5, got %s", devices[0].Address)
	}
}

func TestDiscover_PortPriorityFollowsCallerOrder(t *testing.T) {
	// 631 is listed first but answers last; it must still win.
	slowFirst := probe.Func(func(_ context.Context, ip net.IP, port uint16, _ time.Duration) bool {
		if ip.String() != "10.0.0.5" {
			return false
		}
		switch port {
		case 631:
			time.Sleep(30 * time.Millisecond)
			return true
		case 9100:
			return true
		}
		return false
	})

	for i := 0; i < 5; i++ {
		devices, err := (&Discoverer{Prober: slowFirst, Subnets: noInterfaces()}).Discover(
			context.Background(),
			ScanConfig{Subnet: "10.0.0.4/30", Ports: []uint16{631, 9100}, MaxConcurrency: 8},
		)
		if err != nil {
			t.Fatalf("Discover returned error: %v", err)
		}
		if len(devices) != 1 || devices[0].Port != 631 {
			t.Fatalf("Expected 10.0.0.5 on port 631, got %+v", devices)
		}
	}
}

func TestDiscover_MaxConcurrencyOne(t *testing.T) {
	var inFlight, overlaps, calls int64
	serial := probe.Func(func(context.Context, net.IP, uint16, time.Duration) bool {
		atomic.AddInt64(&calls, 1)
		if atomic.AddInt64(&inFlight, 1) > 1 {
			atomic.AddInt64(&overlaps, 1)
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return false
	})

	_, err := (&Discoverer{Prober: serial, Subnets: noInterfaces()}).Discover(
		context.Background(),
		ScanConfig{Subnet: "10.1.0.0/28", Ports: []uint16{9100, 631}, MaxConcurrency: 1},
	)
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if overlaps != 0 {
		t.Errorf("Expected no overlapping probes, got %d", overlaps)
	}
	if calls != 28 {
		t.Errorf("Expected 28 probes (14 hosts x 2 ports), got %d", calls)
	}
}

func TestDiscover_HugeMaxConcurrency(t *testing.T) {
	var calls int64
	p := probe.Func(func(_ context.Context, ip net.IP, port uint16, _ time.Duration) bool {
		atomic.AddInt64(&calls, 1)
		return ip.String() == "10.9.0.1" && port == 9100
	})

	done := make(chan []DiscoveredDevice, 1)
	go func() {
		devices, err := (&Discoverer{Prober: p, Subnets: noInterfaces()}).Discover(
			context.Background(),
			ScanConfig{Subnet: "10.9.0.0/30", MaxConcurrency: 1 << 40},
		)
		if err != nil {
			t.Errorf("Discover returned error: %v", err)
		}
		done <- devices
	}()

	select {
	case devices := <-done:
		if len(devices) != 1 || devices[0].Address.String() != "10.9.0.1" {
			t.Errorf("Expected 10.9.0.1, got %+v", devices)
		}
		if n := atomic.LoadInt64(&calls); n != 6 {
			t.Errorf("Expected 6 probes (2 hosts x 3 ports), got %d", n)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Discover with a huge MaxConcurrency did not finish")
	}
}

func TestDiscover_NoMACStillReported(t *testing.T) {
	d := &Discoverer{
		Prober:  openPorts("172.16.0.1:9100", "172.16.0.2:515"),
		ARP:     arp.LookupFunc(func(context.Context, net.IP) (string, bool) { return "", false }),
		Subnets: noInterfaces(),
	}
	devices, err := d.Discover(context.Background(), ScanConfig{Subnet: "172.16.0.0/29"})
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("Expected 2 devices, got %d", len(devices))
	}
	for _, dev := range devices {
		if dev.HasMAC() {
			t.Errorf("%s: expected no MAC, got %q", dev.Address, dev.MACAddress)
		}
	}
	if devices[0].Address.String() != "172.16.0.1" || devices[1].Address.String() != "172.16.0.2" {
		t.Errorf("Expected devices sorted by address, got %s, %s", devices[0].Address, devices[1].Address)
	}
	if devices[1].Port != 515 {
		t.Errorf("Expected port 515, got %d", devices[1].Port)
	}
}

func TestDiscover_NothingOpen(t *testing.T) {
	devices, err := (&Discoverer{Prober: openPorts(), Subnets: noInterfaces()}).Discover(
		context.Background(), ScanConfig{Subnet: "192.168.5.0/30"})
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if devices == nil || len(devices) != 0 {
		t.Errorf("Expected empty non-nil result, got %#v", devices)
	}
}

func TestDiscover_SubnetErrors(t *testing.T) {
	tests := []struct {
		subnet string
		want   error
	}{
		{"bad-input", ErrInvalidSubnetFormat},
		{"10.0.0.0/31", ErrInvalidPrefixLength},
		{"", ErrNoUsableInterface},
	}

	for _, tt := range tests {
		t.Run(tt.subnet, func(t *testing.T) {
			probed := false
			d := &Discoverer{
				Prober: probe.Func(func(context.Context, net.IP, uint16, time.Duration) bool {
					probed = true
					return true
				}),
				Subnets: noInterfaces(),
			}
			devices, err := d.Discover(context.Background(), ScanConfig{Subnet: tt.subnet})
			if !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}
			if devices != nil {
				t.Errorf("Expected no results on fatal error, got %+v", devices)
			}
			if probed {
				t.Error("No probes should run when subnet resolution fails")
			}
		})
	}
}

func TestDiscover_AutoDetect(t *testing.T) {
	_, ipnet, _ := net.ParseCIDR("192.168.50.0/30")
	ipnet.IP = net.IPv4(192, 168, 50, 2)
	subnets := &network.Resolver{Interfaces: func() ([]network.Interface, error) {
		return []network.Interface{{
			Name:  "eth0",
			Flags: net.FlagUp | net.FlagBroadcast,
			Addrs: []net.Addr{ipnet},
		}}, nil
	}}

	devices, err := (&Discoverer{Prober: openPorts("192.168.50.1:9100"), Subnets: subnets}).Discover(
		context.Background(), ScanConfig{})
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if len(devices) != 1 || devices[0].Address.String() != "192.168.50.1" {
		t.Errorf("Expected 192.168.50.1, got %+v", devices)
	}
}

func TestDiscover_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  ScanConfig
	}{
		{"negative timeout", ScanConfig{Timeout: -time.Second}},
		{"negative concurrency", ScanConfig{MaxConcurrency: -1}},
		{"port zero", ScanConfig{Ports: []uint16{9100, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Subnet = "10.0.0.0/30"
			_, err := (&Discoverer{Prober: openPorts(), Subnets: noInterfaces()}).Discover(context.Background(), tt.cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestScanConfig_Normalize(t *testing.T) {
	cfg, err := ScanConfig{}.normalize()
	if err != nil {
		t.Fatalf("normalize returned error: %v", err)
	}
	if cfg.Timeout != DefaultTimeout || cfg.MaxConcurrency != DefaultMaxConcurrency {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
	if len(cfg.Ports) != 3 || cfg.Ports[0] != 9100 || cfg.Ports[1] != 631 || cfg.Ports[2] != 515 {
		t.Errorf("Expected default ports [9100 631 515], got %v", cfg.Ports)
	}

	cfg, err = ScanConfig{Ports: []uint16{631, 9100, 631, 515, 9100}}.normalize()
	if err != nil {
		t.Fatalf("normalize returned error: %v", err)
	}
	want := []uint16{631, 9100, 515}
	if len(cfg.Ports) != len(want) {
		t.Fatalf("Expected %v, got %v", want, cfg.Ports)
	}
	for i := range want {
		if cfg.Ports[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, cfg.Ports)
			break
		}
	}
}

func TestDiscover_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var probedAfterCancel int
	cancelled := false
	p := probe.Func(func(_ context.Context, ip net.IP, _ uint16, _ time.Duration) bool {
		mu.Lock()
		defer mu.Unlock()
		if cancelled {
			probedAfterCancel++
		}
		switch ip.String() {
		case "10.0.0.1":
			return true
		case "10.0.0.10":
			cancelled = true
			cancel()
		}
		return false
	})

	d := &Discoverer{
		Prober:  p,
		ARP:     arp.Static{"10.0.0.1": "AA:BB:CC:DD:EE:01"},
		Subnets: noInterfaces(),
	}
	devices, err := d.Discover(ctx, ScanConfig{Subnet: "10.0.0.0/24", Ports: []uint16{9100}, MaxConcurrency: 1})

	if !errors.Is(err, ErrScanCancelled) {
		t.Fatalf("Expected ErrScanCancelled, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected error to wrap context.Canceled, got %v", err)
	}
	if len(devices) != 1 || devices[0].Address.String() != "10.0.0.1" {
		t.Fatalf("Expected partial result with 10.0.0.1, got %+v", devices)
	}
	if devices[0].HasMAC() {
		t.Error("Cancelled scans skip MAC enrichment")
	}
	if probedAfterCancel > 1 {
		t.Errorf("Expected scheduling to stop after cancel, %d probes ran", probedAfterCancel)
	}
}

func TestDiscover_ZeroValueDiscoverer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen on loopback: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()
	port := uint16(ln.Addr().(*net.TCPAddr).Port)

	var d Discoverer
	devices, err := d.Discover(context.Background(), ScanConfig{
		Subnet:  "127.0.0.0/30",
		Ports:   []uint16{port},
		Timeout: 200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if len(devices) != 1 || devices[0].Address.String() != "127.0.0.1" || devices[0].Port != port {
		t.Errorf("Expected 127.0.0.1:%d, got %+v", port, devices)
	}
}
