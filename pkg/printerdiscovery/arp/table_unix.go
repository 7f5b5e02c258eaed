//go:build !linux && !windows

package arp

import (
	"context"
	"fmt"
	"os/exec"
)

// readNeighborTable runs "arp -an" (macOS and BSD).
func readNeighborTable(ctx context.Context) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "arp", "-an").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to execute arp -an: %w", err)
	}
	return out, nil
}
