package test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/keerthanashanmugam/gcomm"
)

// Payloads of every length around element-size boundaries must round-trip
// exactly, including zero-length, to verify the header/padding logic
// never includes or drops padding bytes in the delivered payload.
func TestFraming_OddSizedPayloads(t *testing.T) {
	cluster := NewCluster(t, 2, 16384)
	defer cluster.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lengths := []int{0, 1, 7, 8, 9, 15, 16, 17, 63, 64, 65}
	payloads := make([][]byte, len(lengths))
	for i, n := range lengths {
		p := make([]byte, n)
		for j := range p {
			p[j] = byte((i*31 + j) % 256)
		}
		payloads[i] = p
		if err := cluster.Comms[0].Send(ctx, 1, p); err != nil {
			t.Fatalf("send len=%d failed: %v", n, err)
		}
	}

	RunOnAll(t, cluster.Comms, func(c *gcomm.Comm) error { return c.BarrierFlush(ctx) })

	for i, n := range lengths {
		got := PollReceiveFrom(t, cluster.Comms[1], 0, 5*time.Second)
		if !bytes.Equal(got, payloads[i]) {
			t.Fatalf("length %d: got %v want %v", n, got, payloads[i])
		}
	}
}
