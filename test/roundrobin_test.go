package test

import (
	"context"
	"testing"
	"time"

	"github.com/keerthanashanmugam/gcomm"
)

// When multiple sources have data queued for the same destination,
// Receive must not starve any one of them: over enough calls, every source
// that sent something should show up.
func TestRoundRobin_FairAcrossSources(t *testing.T) {
	const size = 4
	cluster := NewCluster(t, size, 8192)
	defer cluster.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for src := 1; src < size; src++ {
		for k := 0; k < 3; k++ {
			msg := []byte{byte(src), byte(k)}
			if err := cluster.Comms[src].Send(ctx, 0, msg); err != nil {
				t.Fatalf("send from %d failed: %v", src, err)
			}
		}
	}

	RunOnAll(t, cluster.Comms, func(c *gcomm.Comm) error { return c.BarrierFlush(ctx) })

	counts := map[int]int{}
	for i := 0; i < 3*(size-1); i++ {
		src, _ := PollReceive(t, cluster.Comms[0], 5*time.Second)
		counts[src]++
	}

	for src := 1; src < size; src++ {
		if counts[src] != 3 {
			t.Fatalf("source %d delivered %d messages, want 3 (counts=%v)", src, counts[src], counts)
		}
	}
}
