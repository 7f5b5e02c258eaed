package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/marcuoli/go-printerdiscovery/internal/config"
	"github.com/marcuoli/go-printerdiscovery/internal/logging"
	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery"
	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery/arp"
	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery/network"
	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery/oui"
)

// Scan command flags
var (
	subnet      string
	portsFlag   string
	timeout     time.Duration
	concurrency int
	format      string
	useRDNS     bool
	useMDNS     bool
	useSSDP     bool
	ouiDB       string
	useArping   bool
	configPath  string
	logLevel    string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/printerdiscovery/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default silent, or $"+logging.LogLevelEnvVar+")")

	f := scanCmd.Flags()
	f.StringVar(&subnet, "subnet", "", "Subnet to scan in CIDR form (default: first usable interface)")
	f.StringVar(&portsFlag, "ports", "9100,631,515", "Comma-separated ports in priority order")
	f.DurationVar(&timeout, "timeout", printerdiscovery.DefaultTimeout, "Per-probe connect timeout")
	f.IntVar(&concurrency, "concurrency", printerdiscovery.DefaultMaxConcurrency, "Maximum probes in flight")
	f.StringVar(&format, "format", "table", "Output format (table, json)")
	f.BoolVar(&useRDNS, "rdns", false, "Name devices from reverse DNS")
	f.BoolVar(&useMDNS, "mdns", false, "Name devices from mDNS/DNS-SD")
	f.BoolVar(&useSSDP, "ssdp", false, "Name devices from SSDP/UPnP")
	f.StringVar(&ouiDB, "oui-db", "", "IEEE oui.txt file for MAC vendor names")
	f.BoolVar(&useArping, "arping", false, "Send ARP requests for hosts missing from the ARP table (needs privileges)")
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the network for printers",
	Example: `  # Scan the first usable interface's subnet
  printerdiscovery scan

  # Scan an explicit subnet, IPP first
  printerdiscovery scan --subnet 192.168.1.0/24 --ports 631,9100

  # Name devices and print JSON
  printerdiscovery scan --mdns --ssdp --rdns --format json`,
	RunE: runScan,
}

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List interfaces and the subnets auto-detection would scan",
	RunE: func(cmd *cobra.Command, args []string) error {
		candidates, err := network.NewResolver().Candidates()
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			return network.ErrNoUsableInterface
		}
		return writeCandidates(cmd.OutOrStdout(), candidates)
	},
}

func runScan(cmd *cobra.Command, args []string) error {
	file, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := setupLogging(firstNonEmpty(logLevel, file.LogLevel)); err != nil {
		return err
	}

	cfg, err := scanConfig(cmd, file)
	if err != nil {
		return err
	}
	if format != "table" && format != "json" {
		return fmt.Errorf("unknown format %q (want table or json)", format)
	}

	d := printerdiscovery.New()
	if arpingEnabled(cmd, file) {
		if arp.PingSupported() {
			d.ARP = arp.Chain(arp.NewTable(), arp.NewPing())
		} else {
			logging.Warn("arping is not supported on this platform")
		}
	}
	if d.Naming, err = namingOptions(cmd, file); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logging.Info("scan started",
		zap.String("subnet", cfg.Subnet),
		zap.Any("ports", cfg.Ports),
		zap.Duration("timeout", cfg.Timeout),
		zap.Int("concurrency", cfg.MaxConcurrency))
	start := time.Now()

	devices, err := d.Discover(ctx, cfg)
	if err != nil && !errors.Is(err, printerdiscovery.ErrScanCancelled) {
		return fmt.Errorf("scan failed: %w", err)
	}
	logging.Info("scan finished", zap.Int("devices", len(devices)), zap.Duration("elapsed", time.Since(start)))

	out := cmd.OutOrStdout()
	var werr error
	if format == "json" {
		werr = writeJSON(out, devices)
	} else {
		werr = writeTable(out, devices)
	}
	if werr != nil {
		return werr
	}
	return err
}

// scanConfig merges the config file with flags; flags set on the command
// line win.
func scanConfig(cmd *cobra.Command, file *config.File) (printerdiscovery.ScanConfig, error) {
	cfg := file.ScanConfig()
	flags := cmd.Flags()

	if flags.Changed("subnet") {
		cfg.Subnet = subnet
	}
	if flags.Changed("ports") || len(cfg.Ports) == 0 {
		ports, err := parsePorts(portsFlag)
		if err != nil {
			return cfg, err
		}
		cfg.Ports = ports
	}
	if flags.Changed("timeout") || cfg.Timeout == 0 {
		cfg.Timeout = timeout
	}
	if flags.Changed("concurrency") || cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = concurrency
	}
	if cfg.Timeout <= 0 {
		return cfg, fmt.Errorf("timeout must be positive, got %v", cfg.Timeout)
	}
	if cfg.MaxConcurrency < 1 {
		return cfg, fmt.Errorf("concurrency must be at least 1, got %d", cfg.MaxConcurrency)
	}
	return cfg, nil
}

// arpingEnabled lets --arping, when given, override the config file either way.
func arpingEnabled(cmd *cobra.Command, file *config.File) bool {
	if cmd.Flags().Changed("arping") {
		return useArping
	}
	return file.Arping
}

func namingOptions(cmd *cobra.Command, file *config.File) (printerdiscovery.NamingOptions, error) {
	flags := cmd.Flags()
	opts := printerdiscovery.NamingOptions{
		ReverseDNS: useRDNS || (!flags.Changed("rdns") && file.Naming.ReverseDNS),
		MDNS:       useMDNS || (!flags.Changed("mdns") && file.Naming.MDNS),
		SSDP:       useSSDP || (!flags.Changed("ssdp") && file.Naming.SSDP),
	}
	if path := firstNonEmpty(ouiDB, file.Naming.OUIDB); path != "" {
		db, err := oui.Open(path)
		if err != nil {
			return opts, err
		}
		logging.Info("OUI database loaded", zap.String("path", db.Path()))
		opts.Vendors = db
	}
	return opts, nil
}

func setupLogging(level string) error {
	if err := logging.Initialize(level); err != nil {
		return err
	}
	switch {
	case logging.Enabled(zapcore.DebugLevel):
		printerdiscovery.SetDebugLevel(printerdiscovery.DebugVerbose)
	case logging.Enabled(zapcore.InfoLevel):
		printerdiscovery.SetDebugLevel(printerdiscovery.DebugBasic)
	default:
		printerdiscovery.SetDebugLevel(printerdiscovery.DebugOff)
		return nil
	}
	printerdiscovery.SetDebugLogger(func(c printerdiscovery.Component, format string, args ...interface{}) {
		logging.Hook(string(c), format, args...)
	})
	return nil
}

// parsePorts parses a comma-separated port list, keeping order and dropping
// duplicates.
func parsePorts(s string) ([]uint16, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("ports list is empty")
	}
	parts := strings.Split(s, ",")
	ports := make([]uint16, 0, len(parts))
	seen := make(map[uint16]bool, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 16)
		if err != nil || v == 0 {
			return nil, fmt.Errorf("invalid port: %q", p)
		}
		if seen[uint16(v)] {
			continue
		}
		seen[uint16(v)] = true
		ports = append(ports, uint16(v))
	}
	return ports, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
