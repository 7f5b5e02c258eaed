package scanner

import (
	"context"
	"iter"
	"net"
	"sync"
	"sync/atomic"
)

// Target is one (address, port) pair to probe. Rank is the position of the
// port in the caller's port list and is used to break ties between open ports.
type Target struct {
	IP   net.IP
	Port uint16
	Rank int
}

// Stats summarizes a Run.
type Stats struct {
	Scheduled int64
	Probed    int64
	Open      int64
}

// Run probes targets with a pool of at most workers goroutines. Workers are
// started as targets are enqueued, so a ceiling larger than the number of
// targets costs nothing. hit is invoked for each open target from a single
// collector goroutine, so it needs no locking of its own.
//
// When ctx is cancelled no further targets are scheduled. Workers drain the
// remaining queue without probing and Run returns once every goroutine has
// exited.
func Run(ctx context.Context, targets iter.Seq[Target], workers int, probe func(context.Context, Target) bool, hit func(Target)) Stats {
	if workers <= 0 {
		workers = 1
	}

	var stats Stats
	jobs := make(chan Target)
	results := make(chan Target)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for t := range jobs {
			if ctx.Err() != nil {
				continue
			}
			ok := probe(ctx, t)
			atomic.AddInt64(&stats.Probed, 1)
			if ok {
				results <- t
			}
		}
	}

	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for t := range results {
			stats.Open++
			if hit != nil {
				hit(t)
			}
		}
	}()

	started := 0
enqueue:
	for t := range targets {
		if started < workers {
			wg.Add(1)
			go worker()
			started++
		}
		select {
		case <-ctx.Done():
			break enqueue
		case jobs <- t:
			stats.Scheduled++
		}
	}
	close(jobs)
	wg.Wait()
	close(results)
	<-collected

	return stats
}

// Cross yields every (address, port) pair, address-major, with Rank set to
// the port's index in ports.
func Cross(addrs iter.Seq[net.IP], ports []uint16) iter.Seq[Target] {
	return func(yield func(Target) bool) {
		for ip := range addrs {
			for rank, port := range ports {
				if !yield(Target{IP: ip, Port: port, Rank: rank}) {
					return
				}
			}
		}
	}
}
