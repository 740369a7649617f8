package test

import (
	"context"
	"testing"
	"time"

	"github.com/keerthanashanmugam/gcomm"
)

// Barrier must not return for any peer until every peer has both drained
// its pending sends and reached the barrier itself.
func TestBarrier_WaitsForSlowestPeer(t *testing.T) {
	cluster := NewCluster(t, 3, 4096)
	defer cluster.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := cluster.Comms[0].Send(ctx, 2, []byte("before-barrier")); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	start := time.Now()
	RunOnAll(t, cluster.Comms, func(c *gcomm.Comm) error { return c.Barrier(ctx) })
	if time.Since(start) > 3*time.Second {
		t.Fatal("barrier took unexpectedly long")
	}

	got := PollReceiveFrom(t, cluster.Comms[2], 0, 2*time.Second)
	if string(got) != "before-barrier" {
		t.Fatalf("got %q", got)
	}
}

// Two consecutive Barrier calls across the whole group should each
// complete without the second one ever blocking on state left over from
// the first.
func TestBarrier_ConsecutiveCallsComplete(t *testing.T) {
	cluster := NewCluster(t, 2, 4096)
	defer cluster.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	for round := 0; round < 2; round++ {
		RunOnAll(t, cluster.Comms, func(c *gcomm.Comm) error { return c.Barrier(ctx) })
	}
}
