package mdns

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/miekg/dns"
)

func TestNewDiscovery(t *testing.T) {
	d := NewDiscovery()
	if d.Timeout != DefaultTimeout {
		t.Errorf("Expected timeout %v, got %v", DefaultTimeout, d.Timeout)
	}
}

func TestConstants(t *testing.T) {
	if Port != 5353 {
		t.Errorf("Expected Port 5353, got %d", Port)
	}
	if MulticastAddr != "224.0.0.251" {
		t.Errorf("Expected MulticastAddr 224.0.0.251, got %s", MulticastAddr)
	}
	if len(PrinterServices) != 3 {
		t.Errorf("Expected 3 printer service types, got %d", len(PrinterServices))
	}
}

func TestParsePTRResponse(t *testing.T) {
	msg := new(dns.Msg)
	msg.SetQuestion("20.1.168.192.in-addr.arpa.", dns.TypePTR)
	msg.Response = true
	msg.Answer = append(msg.Answer, &dns.PTR{
		Hdr: dns.RR_Header{Name: "20.1.168.192.in-addr.arpa.", Rrtype: dns.TypePTR, Class: dns.ClassINET, Ttl: 120},
		Ptr: "EPSON1A2B3C.local.",
	})
	data, err := msg.Pack()
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	if got := ParsePTRResponse(data); got != "EPSON1A2B3C.local" {
		t.Errorf("ParsePTRResponse = %q, want EPSON1A2B3C.local", got)
	}
}

func TestParsePTRResponse_NoAnswer(t *testing.T) {
	msg := new(dns.Msg)
	msg.SetQuestion("20.1.168.192.in-addr.arpa.", dns.TypePTR)
	data, err := msg.Pack()
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	if got := ParsePTRResponse(data); got != "" {
		t.Errorf("Expected empty hostname, got %q", got)
	}
	if got := ParsePTRResponse([]byte{0x01, 0x02}); got != "" {
		t.Errorf("Expected empty hostname for garbage, got %q", got)
	}
}

func TestLookupAddr_InvalidIP(t *testing.T) {
	d := NewDiscovery()
	if _, err := d.LookupAddr(context.Background(), net.ParseIP("fe80::1")); err == nil {
		t.Error("Expected error for IPv6 address")
	}
	if _, err := d.LookupAddr(context.Background(), nil); err == nil {
		t.Error("Expected error for nil address")
	}
}

func TestServiceFromEntry(t *testing.T) {
	entry := zeroconf.NewServiceEntry(`EPSON\ TM-m30`, "_pdl-datastream._tcp", "local.")
	entry.HostName = "EPSON1A2B3C.local."
	entry.Port = 9100
	entry.AddrIPv4 = []net.IP{net.ParseIP("192.168.1.20")}
	entry.Text = []string{"ty=EPSON TM-m30", "note=Kitchen", "flag"}

	svc := serviceFromEntry("_pdl-datastream._tcp", entry)
	if svc.Instance != "EPSON TM-m30" {
		t.Errorf("Expected unescaped instance, got %q", svc.Instance)
	}
	if svc.Port != 9100 {
		t.Errorf("Expected port 9100, got %d", svc.Port)
	}
	if len(svc.IPv4) != 1 || svc.IPv4[0].String() != "192.168.1.20" {
		t.Errorf("Unexpected IPv4 list: %v", svc.IPv4)
	}
	if svc.TXT["note"] != "Kitchen" {
		t.Errorf("Expected TXT note=Kitchen, got %q", svc.TXT["note"])
	}
	if _, ok := svc.TXT["flag"]; !ok {
		t.Error("Expected value-less TXT key to be kept")
	}
	if svc.Model() != "EPSON TM-m30" {
		t.Errorf("Model() = %q, want EPSON TM-m30", svc.Model())
	}
}

func TestService_Model(t *testing.T) {
	tests := []struct {
		txt  map[string]string
		want string
	}{
		{map[string]string{"ty": "Star TSP143IIIW"}, "Star TSP143IIIW"},
		{map[string]string{"product": "(Brother QL-820NWB)"}, "Brother QL-820NWB"},
		{map[string]string{"usb_MDL": "TM-T88VI"}, "TM-T88VI"},
		{map[string]string{}, ""},
	}
	for _, tt := range tests {
		if got := (Service{TXT: tt.txt}).Model(); got != tt.want {
			t.Errorf("Model() with %v = %q, want %q", tt.txt, got, tt.want)
		}
	}
}

func TestBrowse_CancelledContext(t *testing.T) {
	d := &Discovery{Timeout: 100 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, _ = d.Browse(ctx)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Browse took %v with a cancelled context", elapsed)
	}
}
