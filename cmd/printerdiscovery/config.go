package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marcuoli/go-printerdiscovery/internal/config"
	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default scan settings",
	Example: `  # Write $XDG_CONFIG_HOME/printerdiscovery/config.yaml
  printerdiscovery config init

  # Write somewhere else, replacing an existing file
  printerdiscovery config init --config ./printers.yaml --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			var err error
			if path, err = config.GetConfigPath(); err != nil {
				return err
			}
		}
		if err := initConfig(path, forceInit); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
}

// initConfig writes the library defaults to path. An existing file is kept
// unless force is set.
func initConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	f := &config.File{
		Ports:       printerdiscovery.DefaultPorts(),
		Timeout:     config.Duration(printerdiscovery.DefaultTimeout),
		Concurrency: printerdiscovery.DefaultMaxConcurrency,
	}
	return f.Save(path)
}
