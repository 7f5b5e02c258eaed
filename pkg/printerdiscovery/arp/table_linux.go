package arp

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

const procNetARP = "/proc/net/arp"

// readNeighborTable reads /proc/net/arp, falling back to "ip neigh" and "arp -an".
func readNeighborTable(ctx context.Context) ([]byte, error) {
	if data, err := os.ReadFile(procNetARP); err == nil {
		return data, nil
	}
	if out, err := exec.CommandContext(ctx, "ip", "neigh", "show").Output(); err == nil {
		return out, nil
	}
	out, err := exec.CommandContext(ctx, "arp", "-an").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to read neighbor table: %w", err)
	}
	return out, nil
}
