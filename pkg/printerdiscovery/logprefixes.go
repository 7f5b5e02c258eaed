// Log prefix constants for consistent log tagging. Consumers may use them in
// their SetDebugLogger callback, or ignore them and use their own.
package printerdiscovery

// Format follows the [Component] or [Component:Subcomponent] pattern.
const (
	LogPrefixDiscovery = "[Discovery]"

	LogPrefixProbe  = "[Discovery:Probe]"
	LogPrefixARP    = "[Discovery:ARP]"
	LogPrefixDNS    = "[Discovery:DNS]"
	LogPrefixMDNS   = "[Discovery:mDNS]"
	LogPrefixSSDP   = "[Discovery:SSDP]"
	LogPrefixVendor = "[Discovery:OUI]"
)

// ComponentPrefix returns the log prefix for a component.
func ComponentPrefix(component Component) string {
	switch component {
	case ComponentProbe:
		return LogPrefixProbe
	case ComponentARP:
		return LogPrefixARP
	case ComponentDNS:
		return LogPrefixDNS
	case ComponentMDNS:
		return LogPrefixMDNS
	case ComponentSSDP:
		return LogPrefixSSDP
	case ComponentVendor:
		return LogPrefixVendor
	default:
		return LogPrefixDiscovery
	}
}
