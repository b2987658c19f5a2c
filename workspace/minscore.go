package workspace

import (
	"math"
	"sync/atomic"
)

// MinScore is the atomic shared floating-point score floor. Writers are
// the Coordinator (whenever the cross-worker top-K window changes) and each
// Workspace (whenever its own accepted list overflows K); readers are every
// Worker, once per filter decision. It is monotone non-decreasing by
// contract; Bump enforces that with a CAS loop rather than a plain Store.
type MinScore struct {
	bits atomic.Uint64
}

// NewMinScore returns a cell initialized to initial (use math.Inf(-1) for
// "no floor yet").
func NewMinScore(initial float64) *MinScore {
	m := &MinScore{}
	m.bits.Store(math.Float64bits(initial))
	return m
}

// Load returns the current floor.
func (m *MinScore) Load() float64 {
	return math.Float64frombits(m.bits.Load())
}

// Bump raises the floor to v if v is greater than the current value,
// retrying under concurrent writers. Returns whether it changed the value.
func (m *MinScore) Bump(v float64) bool {
	for {
		old := m.bits.Load()
		if v <= math.Float64frombits(old) {
			return false
		}
		if m.bits.CompareAndSwap(old, math.Float64bits(v)) {
			return true
		}
	}
}
