package printerdiscovery

import (
	"errors"

	"github.com/marcuoli/go-printerdiscovery/pkg/printerdiscovery/network"
)

// Errors
var (
	// ErrInvalidConfig is returned when a ScanConfig field is out of range.
	ErrInvalidConfig = errors.New("invalid scan config")
	// ErrScanCancelled is returned with partial results when the context is
	// cancelled mid-scan.
	ErrScanCancelled = errors.New("scan cancelled")

	// Subnet resolution failures, re-exported from the network package.
	ErrInvalidSubnetFormat = network.ErrInvalidSubnetFormat
	ErrInvalidPrefixLength = network.ErrInvalidPrefixLength
	ErrNoUsableInterface   = network.ErrNoUsableInterface
)
