package core

import (
	"sync/atomic"
	"time"

	"github.com/keerthanashanmugam/gcomm/pkg/gcomm/types"
)

// sendGroup is one of the two parallel staging regions described in
// spec.md §3: a contiguous window partitioned into per-peer slots, an
// atomic per-peer length vector (invariant I1), and a shared-ownership
// refcount used by the flush engine to detect when a group has become
// drainable (invariant I2).
//
// refs starts at 1, representing the flush engine's own permanent handle;
// a writer acquiring a reference adds 1 and releases by subtracting 1, so
// "refcount-unique" (no active writer) is refs == 1.
type sendGroup struct {
	window      []byte
	slotOffset  []int
	perPeer     int
	elementSize int

	lengths []atomic.Int64
	refs    atomic.Int64

	lastReclaim time.Time
}

func newSendGroup(size int, cfg types.Configuration) *sendGroup {
	g := &sendGroup{
		perPeer:     cfg.PerPeerCapacity(size),
		elementSize: cfg.ElementSize,
		slotOffset:  make([]int, size),
		lengths:     make([]atomic.Int64, size),
		lastReclaim: time.Now(),
	}
	g.window = make([]byte, g.perPeer*size)
	for i := range g.slotOffset {
		g.slotOffset[i] = i * g.perPeer
	}
	g.refs.Store(1)
	return g
}

// acquire takes a writer reference. It does not itself detect a race with a
// concurrent swap; the double-check against the current-group selector in
// Engine.Send is what prevents staging into a draining group (see
// stage.go).
func (g *sendGroup) acquire() { g.refs.Add(1) }

func (g *sendGroup) release() { g.refs.Add(-1) }

// unique reports whether only the engine's own handle remains, i.e. no
// writer currently holds a reference into this group.
func (g *sendGroup) unique() bool { return g.refs.Load() == 1 }

// reserve runs the CAS length-reservation loop of spec.md §4.1 step 2,
// returning the number of bytes granted (always a multiple of
// elementSize, 0 meaning the target's slot is saturated).
func (g *sendGroup) reserve(target int, padded int) int {
	for {
		old := g.lengths[target].Load()
		grant := g.perPeer - int(old)
		if grant > padded {
			grant = padded
		}
		if grant <= 0 {
			return 0
		}
		if g.lengths[target].CompareAndSwap(old, old+int64(grant)) {
			return grant
		}
	}
}

// reset zeroes the length vector and, once the reclaim-idle threshold has
// elapsed since the last reclamation, replaces the backing window with a
// freshly allocated one of the same size (see SPEC_FULL.md §4 for why
// this stands in for unmap/mmap). Must only be called by the flush engine
// immediately after a successful drain, while the group is not current.
func (g *sendGroup) reset(size int, reclaimIdle time.Duration) (reclaimed bool) {
	for i := range g.lengths {
		g.lengths[i].Store(0)
	}
	if time.Since(g.lastReclaim) >= reclaimIdle {
		g.window = make([]byte, g.perPeer*size)
		g.lastReclaim = time.Now()
		return true
	}
	return false
}

// sendState holds both send groups and the monotonic current-group
// selector (spec.md §3's "current-group selector").
type sendState struct {
	groups  [2]*sendGroup
	current atomic.Uint64
}

func newSendState(size int, cfg types.Configuration) *sendState {
	return &sendState{
		groups: [2]*sendGroup{
			newSendGroup(size, cfg),
			newSendGroup(size, cfg),
		},
	}
}

func (s *sendState) currentGroup() (idx int, g *sendGroup) {
	c := s.current.Load()
	idx = int(c & 1)
	return idx, s.groups[idx]
}

// swap advances the current-group selector by one, returning the index of
// the group that was current before the swap (the one now frozen from new
// writers and ready to be drained).
func (s *sendState) swap() int {
	old := s.current.Add(1) - 1
	return int(old & 1)
}
