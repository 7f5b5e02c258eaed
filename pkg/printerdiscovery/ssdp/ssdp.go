// Package ssdp finds UPnP printers with an SSDP M-SEARCH.
// This implementation uses github.com/koron/go-ssdp.
package ssdp

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	gossdp "github.com/koron/go-ssdp"
)

// DebugLogger is the callback function for debug logging.
// Set this to enable debug output for SSDP operations.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// DefaultTimeout is the default timeout for SSDP discovery
const DefaultTimeout = 2 * time.Second

// Printer search targets
const (
	// PrinterDevice searches for UPnP printer devices
	PrinterDevice = "urn:schemas-upnp-org:device:Printer:1"
	// PrintBasic searches for the UPnP basic print service
	PrintBasic = "urn:schemas-upnp-org:service:PrintBasic:1"
)

// PrinterTargets are the search targets used by SearchPrinters.
var PrinterTargets = []string{PrinterDevice, PrintBasic}

// Result contains one SSDP response.
type Result struct {
	IP       string
	Location string // URL to device description XML
	Server   string // Server header (OS/device info)
	USN      string // Unique Service Name
	ST       string // Search Target (device type)
}

// Discovery performs SSDP-based device discovery.
type Discovery struct {
	Timeout time.Duration
}

// NewDiscovery creates a new SSDP discovery helper with defaults.
func NewDiscovery() *Discovery {
	return &Discovery{Timeout: DefaultTimeout}
}

// Search sends an M-SEARCH for searchTarget and returns the responses
// received before the timeout.
func (s *Discovery) Search(ctx context.Context, searchTarget string) ([]*Result, error) {
	waitSec := int(s.Timeout.Seconds())
	if waitSec < 1 {
		waitSec = 1
	}
	debugLog("M-SEARCH target=%s wait=%ds", searchTarget, waitSec)

	type searchResponse struct {
		services []gossdp.Service
		err      error
	}
	responseChan := make(chan searchResponse, 1)

	go func() {
		services, err := gossdp.Search(searchTarget, waitSec, "")
		responseChan <- searchResponse{services: services, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case resp := <-responseChan:
		if resp.err != nil {
			return nil, fmt.Errorf("SSDP search: %w", resp.err)
		}
		results := convertServices(resp.services)
		debugLog("M-SEARCH target=%s found %d responses", searchTarget, len(results))
		return results, nil
	}
}

// SearchPrinters searches all printer targets concurrently and returns the
// responses deduplicated by USN.
func (s *Discovery) SearchPrinters(ctx context.Context) ([]*Result, error) {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		seen    = make(map[string]bool)
		results []*Result
		lastErr error
	)
	for _, st := range PrinterTargets {
		wg.Add(1)
		go func(st string) {
			defer wg.Done()
			found, err := s.Search(ctx, st)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				lastErr = err
				return
			}
			for _, r := range found {
				key := r.USN
				if key == "" {
					key = r.IP + r.Location
				}
				if !seen[key] {
					seen[key] = true
					results = append(results, r)
				}
			}
		}(st)
	}
	wg.Wait()

	if len(results) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return results, nil
}

func convertServices(services []gossdp.Service) []*Result {
	results := make([]*Result, 0, len(services))
	for _, svc := range services {
		results = append(results, &Result{
			IP:       hostFromLocation(svc.Location),
			Location: svc.Location,
			Server:   svc.Server,
			USN:      svc.USN,
			ST:       svc.Type,
		})
	}
	return results
}

// hostFromLocation extracts the host IP from a URL like "http://192.168.1.1:8080/desc.xml".
func hostFromLocation(location string) string {
	u, err := url.Parse(location)
	if err != nil || u.Host == "" {
		return ""
	}
	host := u.Hostname()
	if net.ParseIP(host) == nil {
		return ""
	}
	return host
}
