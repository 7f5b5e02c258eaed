package probe

import (
	"context"
	"net"
	"testing"
	"time"
)

func listen(t *testing.T) (net.Listener, uint16) {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("Skipping test: cannot listen on loopback: %v", err)
	}
	return ln, uint16(ln.Addr().(*net.TCPAddr).Port)
}

func TestTCPProber_Open(t *testing.T) {
	ln, port := listen(t)
	defer ln.Close()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	p := NewTCPProber()
	if !p.Probe(context.Background(), net.ParseIP("127.0.0.1"), port, time.Second) {
		t.Errorf("Expected port %d to be reported open", port)
	}
}

func TestTCPProber_Closed(t *testing.T) {
	ln, port := listen(t)
	ln.Close()

	p := NewTCPProber()
	if p.Probe(context.Background(), net.ParseIP("127.0.0.1"), port, time.Second) {
		t.Errorf("Expected closed port %d to be reported closed", port)
	}
}

func TestTCPProber_Timeout(t *testing.T) {
	p := NewTCPProber()
	start := time.Now()
	// TEST-NET-1 (RFC 5737) is never routed
	open := p.Probe(context.Background(), net.ParseIP("192.0.2.1"), 9100, 50*time.Millisecond)
	elapsed := time.Since(start)

	if open {
		t.Error("Expected unroutable address to be reported closed")
	}
	if elapsed > 2*time.Second {
		t.Errorf("Probe took %v, expected it to honor the 50ms timeout", elapsed)
	}
}

func TestTCPProber_CancelledContext(t *testing.T) {
	ln, port := listen(t)
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewTCPProber()
	if p.Probe(ctx, net.ParseIP("127.0.0.1"), port, time.Second) {
		t.Error("Expected probe with a cancelled context to report closed")
	}
}

func TestTCPProber_InvalidInput(t *testing.T) {
	p := NewTCPProber()
	if p.Probe(context.Background(), nil, 9100, time.Second) {
		t.Error("Expected nil IP to be reported closed")
	}
	if p.Probe(context.Background(), net.ParseIP("127.0.0.1"), 0, time.Second) {
		t.Error("Expected port 0 to be reported closed")
	}
}

func TestFunc(t *testing.T) {
	var got uint16
	var p Prober = Func(func(ctx context.Context, ip net.IP, port uint16, timeout time.Duration) bool {
		got = port
		return port == 9100
	})
	if !p.Probe(context.Background(), net.ParseIP("10.0.0.1"), 9100, time.Second) {
		t.Error("Expected Func to return the wrapped result")
	}
	if got != 9100 {
		t.Errorf("Expected wrapped function to see port 9100, got %d", got)
	}
}
