// Package clockvector implements the per-thread logical clocks used by the
// scheduler to decide happens-before without re-scanning the transition
// stack on every query.
package clockvector

import "dporcheck/transition"

// ClockVector maps a thread id to its logical clock. Unseen thread ids
// implicitly have clock 0. Values are immutable: every mutating operation
// returns a new ClockVector rather than modifying the receiver.
type ClockVector struct {
	clocks map[transition.ThreadID]uint64
}

// New returns the zero clock vector.
func New() ClockVector {
	return ClockVector{clocks: map[transition.ThreadID]uint64{}}
}

// Get returns tid's clock, or 0 if tid has never been observed.
func (cv ClockVector) Get(tid transition.ThreadID) uint64 {
	if cv.clocks == nil {
		return 0
	}
	return cv.clocks[tid]
}

// Increment returns a copy of cv with tid's clock incremented by one.
func (cv ClockVector) Increment(tid transition.ThreadID) ClockVector {
	out := cv.copy()
	out.clocks[tid] = out.clocks[tid] + 1
	return out
}

// Set returns a copy of cv with tid's clock set to v.
func (cv ClockVector) Set(tid transition.ThreadID, v uint64) ClockVector {
	out := cv.copy()
	out.clocks[tid] = v
	return out
}

// Join returns the pointwise maximum (⊔) of cv and other.
func (cv ClockVector) Join(other ClockVector) ClockVector {
	out := cv.copy()
	for tid, v := range other.clocks {
		if v > out.clocks[tid] {
			out.clocks[tid] = v
		}
	}
	return out
}

// LessEq reports whether cv is pointwise less than or equal to other.
func (cv ClockVector) LessEq(other ClockVector) bool {
	for tid, v := range cv.clocks {
		if v > other.Get(tid) {
			return false
		}
	}
	return true
}

// Equal reports whether cv and other agree on every thread id either has
// observed.
func (cv ClockVector) Equal(other ClockVector) bool {
	return cv.LessEq(other) && other.LessEq(cv)
}

func (cv ClockVector) copy() ClockVector {
	out := New()
	for tid, v := range cv.clocks {
		out.clocks[tid] = v
	}
	return out
}
