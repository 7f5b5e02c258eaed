// Package config loads optional scan defaults from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery"
)

const (
	appName    = "printerdiscovery"
	configFile = "config.yaml"
)

// File is the on-disk configuration. Every field is optional.
//
//	subnet: 192.168.1.0/24
//	ports: [9100, 631, 515]
//	timeout: 750ms
//	concurrency: 64
//	naming:
//	  rdns: true
//	  mdns: true
//	  ssdp: false
//	  oui_db: /usr/share/ieee-data/oui.txt
//	arping: false
//	log_level: info
type File struct {
	Subnet      string   `yaml:"subnet,omitempty"`
	Ports       []uint16 `yaml:"ports,omitempty"`
	Timeout     Duration `yaml:"timeout,omitempty"`
	Concurrency int      `yaml:"concurrency,omitempty"`
	Naming      Naming   `yaml:"naming,omitempty"`
	Arping      bool     `yaml:"arping,omitempty"`
	LogLevel    string   `yaml:"log_level,omitempty"`
}

// Naming selects display-name sources.
type Naming struct {
	ReverseDNS bool   `yaml:"rdns,omitempty"`
	MDNS       bool   `yaml:"mdns,omitempty"`
	SSDP       bool   `yaml:"ssdp,omitempty"`
	OUIDB      string `yaml:"oui_db,omitempty"`
}

// Duration is a time.Duration written as a Go duration string ("750ms").
// A bare integer is read as milliseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var ms int64
	if err := node.Decode(&ms); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("timeout: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("timeout: %w", err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// GetConfigDir returns the OS-appropriate configuration directory:
//   - Linux and BSD: $XDG_CONFIG_HOME/printerdiscovery or $HOME/.config/printerdiscovery
//   - macOS: $HOME/.config/printerdiscovery
//   - Windows: %LOCALAPPDATA%\printerdiscovery
func GetConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return filepath.Join(dir, appName), nil
		}
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
		}
		return filepath.Join(userProfile, "AppData", "Local", appName), nil
	case "darwin":
		// ~/.config, ignoring XDG_CONFIG_HOME
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", appName), nil
}

// GetConfigPath returns the full path to the default configuration file.
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads path. When path is empty the default location is used and a
// missing file yields an empty File; an explicitly named file must exist.
func Load(path string) (*File, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = GetConfigPath(); err != nil {
			return &File{}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML configuration document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &f, nil
}

// ScanConfig converts the file into a library scan configuration. Unset
// fields stay zero so the library defaults apply.
func (f *File) ScanConfig() printerdiscovery.ScanConfig {
	return printerdiscovery.ScanConfig{
		Timeout:        time.Duration(f.Timeout),
		MaxConcurrency: f.Concurrency,
		Ports:          f.Ports,
		Subnet:         f.Subnet,
	}
}

// Save writes f to path, creating the parent directory.
func (f *File) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
