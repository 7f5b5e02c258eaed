//go:build windows

package arp

import (
	"context"
	"fmt"
	"os/exec"
)

// readNeighborTable runs "arp -a".
func readNeighborTable(ctx context.Context) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "arp", "-a").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to execute arp -a: %w", err)
	}
	return out, nil
}
