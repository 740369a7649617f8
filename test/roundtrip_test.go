package test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/keerthanashanmugam/gcomm"
)

// A two-peer cluster where rank 0 sends one message to rank 1 should see
// it arrive unchanged via the background flusher alone, without an
// explicit Flush.
func TestRoundtrip_Ping(t *testing.T) {
	cluster := NewCluster(t, 2, 4096)
	defer cluster.Close()

	payload := []byte("ping")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := cluster.Comms[0].Send(ctx, 1, payload); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	got := PollReceiveFrom(t, cluster.Comms[1], 0, 2*time.Second)

	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: got %q want %q", got, payload)
	}
}

// BarrierFlush forces one exchange round without waiting for the
// background flusher's cadence, so a message sent just before it should
// already be visible once BarrierFlush returns on the sender's side.
func TestRoundtrip_BarrierFlushIsImmediate(t *testing.T) {
	cluster := NewCluster(t, 2, 4096)
	defer cluster.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	payload := []byte("immediate")
	if err := cluster.Comms[0].Send(ctx, 1, payload); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	RunOnAll(t, cluster.Comms, func(c *gcomm.Comm) error { return c.BarrierFlush(ctx) })

	got := PollReceiveFrom(t, cluster.Comms[1], 0, 2*time.Second)
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: got %q want %q", got, payload)
	}
}

// Many small messages between every pair of peers in a larger group should
// all round-trip intact, exercising concatenation within a single frame
// stream per source.
func TestRoundtrip_AllPairs(t *testing.T) {
	const size = 4
	cluster := NewCluster(t, size, 8192)
	defer cluster.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for src := 0; src < size; src++ {
		for dst := 0; dst < size; dst++ {
			if src == dst {
				continue
			}
			msg := []byte{byte(src), byte(dst)}
			if err := cluster.Comms[src].Send(ctx, dst, msg); err != nil {
				t.Fatalf("send %d->%d failed: %v", src, dst, err)
			}
		}
	}

	RunOnAll(t, cluster.Comms, func(c *gcomm.Comm) error { return c.BarrierFlush(ctx) })

	for dst := 0; dst < size; dst++ {
		for src := 0; src < size; src++ {
			if src == dst {
				continue
			}
			got := PollReceiveFrom(t, cluster.Comms[dst], src, 5*time.Second)
			want := []byte{byte(src), byte(dst)}
			if !bytes.Equal(got, want) {
				t.Fatalf("at %d from %d: got %v want %v", dst, src, got, want)
			}
		}
	}
}
