package printerdiscovery

import (
	"sync"

	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery/arp"
	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery/dns"
	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery/mdns"
	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery/oui"
	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery/probe"
	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery/ssdp"
)

// Component identifies the part of a scan that produced a debug message.
type Component string

const (
	ComponentDiscovery Component = "discovery"
	ComponentProbe     Component = "probe"
	ComponentARP       Component = "arp"
	ComponentDNS       Component = "dns"
	ComponentMDNS      Component = "mdns"
	ComponentSSDP      Component = "ssdp"
	ComponentVendor    Component = "vendor"
)

// DebugLevel represents the verbosity level for debug logging.
type DebugLevel int

const (
	// DebugOff disables all debug logging.
	DebugOff DebugLevel = iota
	// DebugBasic logs scan start/complete, enrichment results and failures.
	DebugBasic
	// DebugVerbose adds one line per probe.
	DebugVerbose
)

// DebugLogger is a callback function for debug logging.
type DebugLogger func(component Component, format string, args ...interface{})

var (
	debugLogger DebugLogger
	debugLevel  DebugLevel
	debugMu     sync.RWMutex
)

// SetDebugLogger sets a custom debug logger callback.
// Pass nil to disable debug logging.
func SetDebugLogger(logger DebugLogger) {
	debugMu.Lock()
	defer debugMu.Unlock()
	debugLogger = logger
}

// SetDebugLevel sets the debug verbosity level.
func SetDebugLevel(level DebugLevel) {
	debugMu.Lock()
	defer debugMu.Unlock()
	debugLevel = level
}

// GetDebugLevel returns the current debug level.
func GetDebugLevel() DebugLevel {
	debugMu.RLock()
	defer debugMu.RUnlock()
	return debugLevel
}

func logAt(threshold DebugLevel, component Component, format string, args ...interface{}) {
	debugMu.RLock()
	logger := debugLogger
	level := debugLevel
	debugMu.RUnlock()

	if logger != nil && level >= threshold {
		logger(component, format, args...)
	}
}

func debugLog(component Component, format string, args ...interface{}) {
	logAt(DebugBasic, component, format, args...)
}

func debugLogVerbose(component Component, format string, args ...interface{}) {
	logAt(DebugVerbose, component, format, args...)
}

// Subpackages log through their own DebugLogger hooks; route them here.
func init() {
	probe.DebugLogger = func(format string, args ...interface{}) {
		debugLogVerbose(ComponentProbe, format, args...)
	}
	arp.DebugLogger = func(format string, args ...interface{}) {
		debugLog(ComponentARP, format, args...)
	}
	dns.DebugLogger = func(format string, args ...interface{}) {
		debugLog(ComponentDNS, format, args...)
	}
	mdns.DebugLogger = func(format string, args ...interface{}) {
		debugLog(ComponentMDNS, format, args...)
	}
	ssdp.DebugLogger = func(format string, args ...interface{}) {
		debugLog(ComponentSSDP, format, args...)
	}
	oui.DebugLogger = func(format string, args ...interface{}) {
		debugLog(ComponentVendor, format, args...)
	}
}
