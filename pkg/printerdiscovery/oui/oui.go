// Package oui maps MAC addresses to hardware vendors using an IEEE OUI database file.
package oui

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/klauspost/oui"
)

// DebugLogger is a callback for debug logging.
// Set this to receive debug messages from OUI operations.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// VendorInfo contains information about a MAC address vendor.
type VendorInfo struct {
	Manufacturer string
	Country      string
	Prefix       string
}

// DB is a loaded OUI database. It is safe for concurrent use.
type DB struct {
	path string
	db   oui.OuiDB
}

// Open loads an OUI database file in the IEEE "oui.txt" format.
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("OUI database file not found: %s", path)
	}
	db, err := oui.OpenStaticFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open OUI database: %w", err)
	}
	debugLog("OUI database loaded from: %s", path)
	return &DB{path: path, db: db}, nil
}

// Path returns the file the database was loaded from.
func (d *DB) Path() string {
	return d.path
}

// Lookup returns vendor information for mac, or nil when the prefix is unknown.
// The MAC address can be in various formats: "00:11:22:33:44:55", "00-11-22-33-44-55", "001122334455".
func (d *DB) Lookup(mac string) (*VendorInfo, error) {
	normalized := NormalizeMAC(mac)
	if normalized == "" {
		return nil, fmt.Errorf("invalid MAC address format: %q", mac)
	}
	hwAddr, err := net.ParseMAC(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to parse MAC address: %w", err)
	}

	entry, err := d.db.Query(hwAddr.String())
	if err != nil {
		if errors.Is(err, oui.ErrNotFound) {
			debugLog("%s: vendor not found in database", normalized)
			return nil, nil
		}
		return nil, fmt.Errorf("OUI lookup failed: %w", err)
	}

	vendor := &VendorInfo{
		Manufacturer: entry.Manufacturer,
		Country:      entry.Country,
		Prefix:       entry.Prefix.String(),
	}
	debugLog("%s -> %s", normalized, vendor.Manufacturer)
	return vendor, nil
}

// LookupName returns just the manufacturer name, or "" when unknown.
func (d *DB) LookupName(mac string) string {
	if d == nil {
		return ""
	}
	vendor, err := d.Lookup(mac)
	if err != nil || vendor == nil {
		return ""
	}
	return vendor.Manufacturer
}

// NormalizeMAC normalizes various MAC address formats to lowercase colon form.
// Returns empty string if invalid.
func NormalizeMAC(mac string) string {
	mac = strings.ToLower(mac)
	mac = strings.NewReplacer("-", "", ":", "", ".", "").Replace(mac)

	if len(mac) != 12 {
		return ""
	}
	for _, c := range mac {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return ""
		}
	}
	return fmt.Sprintf("%s:%s:%s:%s:%s:%s",
		mac[0:2], mac[2:4], mac[4:6], mac[6:8], mac[8:10], mac[10:12])
}
