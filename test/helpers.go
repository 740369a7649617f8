package test

import (
	"testing"
	"time"

	"github.com/keerthanashanmugam/gcomm"
	"github.com/keerthanashanmugam/gcomm/pkg/gcomm/core"
)

// Cluster wires size peers of a Comm together over one shared
// core.InProcessWorld, the way a real deployment would wire them over a
// shared MPI-style communicator.
type Cluster struct {
	T     *testing.T
	Comms []*gcomm.Comm
}

// ClusterOption mirrors gcomm.Option but lets callers size the window
// relative to the cluster's own peer count, since WithWindowSize alone
// cannot know size ahead of time.
type ClusterOption func(size int) gcomm.Option

// NewCluster builds a Cluster of size peers, each sharing one
// InProcessWorld. windowSize is each peer's total send window W, shared
// across that peer's size destination slots; tests that
// want to exercise multi-flush saturation should pass something small
// relative to payload sizes.
func NewCluster(t *testing.T, size int, windowSize int, extra ...gcomm.Option) *Cluster {
	t.Helper()
	world := core.NewInProcessWorld(size)

	comms := make([]*gcomm.Comm, size)
	for rank := 0; rank < size; rank++ {
		opts := append([]gcomm.Option{gcomm.WithWindowSize(windowSize)}, extra...)
		c, err := gcomm.New(world.Transport(rank), opts...)
		if err != nil {
			t.Fatalf("failed creating comm for rank %d: %v", rank, err)
		}
		comms[rank] = c
	}

	return &Cluster{T: t, Comms: comms}
}

// Close closes every peer concurrently, matching the termination
// protocol's requirement that every rank call Close for any one of them to
// return.
func (c *Cluster) Close() {
	done := make(chan error, len(c.Comms))
	for _, comm := range c.Comms {
		go func(cm *gcomm.Comm) { done <- cm.Close() }(comm)
	}
	for range c.Comms {
		if err := <-done; err != nil {
			c.T.Errorf("close failed: %v", err)
		}
	}
}

// RunOnAll calls f once per comm, concurrently, and fails the test if any
// call returns an error. Collective operations (Flush, Barrier,
// BarrierFlush) require every rank to call in together, so tests must
// drive them this way rather than looping over comms sequentially.
func RunOnAll(t *testing.T, comms []*gcomm.Comm, f func(c *gcomm.Comm) error) {
	t.Helper()
	errs := make(chan error, len(comms))
	for _, comm := range comms {
		go func(cm *gcomm.Comm) { errs <- f(cm) }(comm)
	}
	for range comms {
		if err := <-errs; err != nil {
			t.Fatalf("collective call failed: %v", err)
		}
	}
}

// pollInterval is how often the Poll* helpers retry a non-blocking receive
// before the caller's timeout elapses.
const pollInterval = time.Millisecond

// PollReceiveFrom polls c.ReceiveFrom(source) until a message arrives or
// timeout elapses, the way spec.md scenario 1 describes a receiver polling
// a non-blocking receive.
func PollReceiveFrom(t *testing.T, c *gcomm.Comm, source int, timeout time.Duration) []byte {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		msg, ok, err := c.ReceiveFrom(source)
		if err != nil {
			t.Fatalf("receive_from(%d) failed: %v", source, err)
		}
		if ok {
			return msg
		}
		if time.Now().After(deadline) {
			t.Fatalf("receive_from(%d) timed out after %s", source, timeout)
		}
		time.Sleep(pollInterval)
	}
}

// PollReceive polls c.Receive() until any message arrives or timeout
// elapses.
func PollReceive(t *testing.T, c *gcomm.Comm, timeout time.Duration) (source int, msg []byte) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		src, m, ok, err := c.Receive()
		if err != nil {
			t.Fatalf("receive failed: %v", err)
		}
		if ok {
			return src, m
		}
		if time.Now().After(deadline) {
			t.Fatalf("receive timed out after %s", timeout)
		}
		time.Sleep(pollInterval)
	}
}

// WaitThisOrTimeout runs cb in a goroutine and reports whether it finished
// before duration elapsed.
func WaitThisOrTimeout(cb func(), duration time.Duration) bool {
	done := make(chan bool, 1)
	go func() {
		cb()
		done <- true
	}()
	select {
	case <-done:
		return true
	case <-time.After(duration):
		return false
	}
}
