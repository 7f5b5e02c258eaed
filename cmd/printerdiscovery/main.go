// Printerdiscovery scans the local network for printers that accept raw TCP
// print jobs (JetDirect 9100, IPP 631, LPD 515) and reports their addresses,
// MAC addresses and display names.
//
// Usage:
//
//	printerdiscovery scan [flags]
//	printerdiscovery interfaces
//	printerdiscovery config init
//	printerdiscovery version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marcuoli/go-printerdiscovery/internal/logging"
	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "printerdiscovery",
	Short: "Discover network printers",
	Long: `Scan a local IPv4 subnet for printers reachable over raw TCP.

Every host address is probed on the printer ports with a plain TCP connect;
no raw sockets or elevated privileges are needed. Hosts that answer are
reported once, with the MAC address from the ARP table when available.`,
	Version:       printerdiscovery.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(interfacesCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), printerdiscovery.VersionInfo())
	},
}
