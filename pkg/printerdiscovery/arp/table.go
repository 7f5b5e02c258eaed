package arp

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/projectdiscovery/gcache"
)

// DefaultTableTTL is how long a neighbor-table snapshot is reused.
const DefaultTableTTL = 2 * time.Second

const snapshotKey = "neighbors"

// Table resolves MAC addresses from the operating system's neighbor table.
// A snapshot of the table is cached for TTL so that resolving many hosts in
// one scan reads the table once.
type Table struct {
	// Source returns the raw neighbor-table text. Defaults to the platform reader.
	Source func(ctx context.Context) ([]byte, error)
	// TTL bounds how long a snapshot is reused.
	TTL time.Duration

	once  sync.Once
	mu    sync.Mutex
	cache gcache.Cache[string, []byte]
}

// NewTable creates a neighbor-table lookup for the current platform.
func NewTable() *Table {
	return &Table{Source: readNeighborTable, TTL: DefaultTableTTL}
}

// ResolveMAC looks ip up in the neighbor table.
func (t *Table) ResolveMAC(ctx context.Context, ip net.IP) (string, bool) {
	if ip == nil || ip.To4() == nil {
		return "", false
	}
	data, err := t.snapshot(ctx)
	if err != nil {
		debugLog("%s: neighbor table unavailable: %v", ip, err)
		return "", false
	}
	mac, ok := FindMAC(data, ip.String())
	if !ok {
		debugLog("%s: not in neighbor table", ip)
		return "", false
	}
	debugLog("%s -> MAC: %s", ip, mac)
	return mac, true
}

// Invalidate drops the cached snapshot.
func (t *Table) Invalidate() {
	t.init()
	t.cache.Purge()
}

func (t *Table) init() {
	t.once.Do(func() {
		ttl := t.TTL
		if ttl <= 0 {
			ttl = DefaultTableTTL
		}
		t.cache = gcache.New[string, []byte](1).
			LRU().
			Expiration(ttl).
			Build()
	})
}

func (t *Table) snapshot(ctx context.Context) ([]byte, error) {
	t.init()
	if data, err := t.cache.Get(snapshotKey); err == nil {
		return data, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Another caller may have refreshed while we waited
	if data, err := t.cache.Get(snapshotKey); err == nil {
		return data, nil
	}

	source := t.Source
	if source == nil {
		source = readNeighborTable
	}
	data, err := source(ctx)
	if err != nil {
		return nil, err
	}
	if err := t.cache.Set(snapshotKey, data); err != nil {
		debugLog("neighbor table snapshot not cached: %v", err)
	}
	return data, nil
}
