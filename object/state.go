// Package object implements the visible-object store: the append-only,
// per-object history of abstract states the checker uses to decide
// enabledness and to replay/backtrack transitions (spec.md §3, §4.2).
package object

import "fmt"

// State is an abstract, cloneable visible-object state. The checker only
// ever observes an object through a sequence of these immutable snapshots.
type State interface {
	// Clone returns a deep copy of the state.
	Clone() State
	String() string
}

// ThreadID mirrors transition.ThreadID without importing the transition
// package, which in turn depends on object for the Store it mutates.
type ThreadID int

// Uninitialized is the placeholder state a Store carries for an object id
// between the moment the runner first assigns it (Store.Track) and the
// moment the matching *_init transition actually runs. A *_init Kind's
// Modify treats any other current state as a double-init.
type Uninitialized struct{}

func (Uninitialized) Clone() State  { return Uninitialized{} }
func (Uninitialized) String() string { return "uninitialized" }

// MutexStatus is the lifecycle of a mutex object.
type MutexStatus int

const (
	MutexUnlocked MutexStatus = iota
	MutexLocked
	MutexDestroyed
)

func (s MutexStatus) String() string {
	switch s {
	case MutexUnlocked:
		return "unlocked"
	case MutexLocked:
		return "locked"
	case MutexDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// MutexState is the state of a mutex visible object.
type MutexState struct {
	Status MutexStatus
	Owner  ThreadID // meaningful only when Status == MutexLocked
}

func (m MutexState) Clone() State { return MutexState{Status: m.Status, Owner: m.Owner} }

func (m MutexState) String() string {
	if m.Status == MutexLocked {
		return fmt.Sprintf("mutex{%s, owner=%d}", m.Status, m.Owner)
	}
	return fmt.Sprintf("mutex{%s}", m.Status)
}

// SemaphoreState is the state of a semaphore visible object.
type SemaphoreState struct {
	Count   uint32
	Waiting []ThreadID // ordered queue of threads blocked in sem_wait
}

func (s SemaphoreState) Clone() State {
	waiting := make([]ThreadID, len(s.Waiting))
	copy(waiting, s.Waiting)
	return SemaphoreState{Count: s.Count, Waiting: waiting}
}

func (s SemaphoreState) String() string {
	return fmt.Sprintf("semaphore{count=%d, waiting=%v}", s.Count, s.Waiting)
}

// Condition variables and barriers are encoded by the transition package
// as a two-transition pair (condvarState, barrierState in
// transition/condvar.go and transition/barrier.go), not as object.State
// implementations here: their enabledness needs a Woken/Arrived split
// that is an artifact of that encoding, not a property object-level code
// should know about.

// Lifecycle is the life cycle of a thread visible object.
type Lifecycle int

const (
	Embryo Lifecycle = iota
	Alive
	Sleeping
	Dead
)

func (l Lifecycle) String() string {
	switch l {
	case Embryo:
		return "embryo"
	case Alive:
		return "alive"
	case Sleeping:
		return "sleeping"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}

// ThreadState is the state of a thread visible object.
type ThreadState struct {
	LifecycleState Lifecycle
	SystemHandle   uint64
	StartRoutine   string // symbolic name; the real routine lives in the runner
	Arg            any
}

func (t ThreadState) Clone() State {
	return ThreadState{
		LifecycleState: t.LifecycleState,
		SystemHandle:   t.SystemHandle,
		StartRoutine:   t.StartRoutine,
		Arg:            t.Arg,
	}
}

func (t ThreadState) String() string {
	return fmt.Sprintf("thread{%s, handle=%d}", t.LifecycleState, t.SystemHandle)
}
