package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery"
	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery/network"
)

func writeTable(w io.Writer, devices []printerdiscovery.DiscoveredDevice) error {
	if len(devices) == 0 {
		_, err := fmt.Fprintln(w, "No printers found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tPORT\tMAC\tVENDOR\tMODEL\tNAME")
	for _, d := range devices {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
			d.Address, d.Port, orDash(d.MACAddress), orDash(d.Vendor), orDash(d.Model), d.DisplayName)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, devices []printerdiscovery.DiscoveredDevice) error {
	if devices == nil {
		devices = []printerdiscovery.DiscoveredDevice{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(devices)
}

func writeCandidates(w io.Writer, candidates []network.Candidate) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INTERFACE\tADDRESS\tSUBNET\tHOSTS")
	for i, c := range candidates {
		marker := ""
		if i == 0 {
			marker = " (default)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s%s\t%d\n", c.Interface, c.Address, c.Span, marker, c.Span.HostCount())
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
