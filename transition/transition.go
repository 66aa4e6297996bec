// Package transition implements the transition algebra of spec.md §4.3: the
// tagged union of visible operations, together with the enabled_in,
// coenabled_with, dependent_with and modify judgments each variant carries.
package transition

import (
	"errors"
	"fmt"

	"dporcheck/object"
)

// ThreadID is a dense, non-negative id assigned in the order threads are
// first seen. Thread 0 is the main thread.
type ThreadID = object.ThreadID

// InvalidThreadID is the sentinel value for "no thread".
const InvalidThreadID ThreadID = -1

// Aliases for the object.State implementations the mutex and semaphore
// Kinds read and write directly, so this package can name them without a
// stutter at every call site.
type MutexState = object.MutexState
type SemaphoreState = object.SemaphoreState

const (
	MutexUnlocked  = object.MutexUnlocked
	MutexLocked    = object.MutexLocked
	MutexDestroyed = object.MutexDestroyed
)

// ApplyStatus is the result of applying a Kind's Modify to a store.
type ApplyStatus int

const (
	// Exists means the transition executed and the store now reflects it.
	Exists ApplyStatus = iota
	// Disabled means the transition's preconditions did not hold; the
	// store is unmodified.
	Disabled
	// UndefinedBehavior means the transition executed against an object in
	// an inconsistent state (double-init, unlock of an unowned mutex, ...).
	UndefinedBehavior
)

func (a ApplyStatus) String() string {
	switch a {
	case Exists:
		return "exists"
	case Disabled:
		return "disabled"
	case UndefinedBehavior:
		return "undefined_behavior"
	default:
		return "unknown"
	}
}

// ErrDisabled names the error of applying a disabled transition. The Kinds
// in this package do not return it: their Modify reports that case through
// the Disabled status instead.
var ErrDisabled = errors.New("transition: modify called on a disabled transition")

// Kind is the tagged-union interface every visible operation implements
// (spec.md §3 "Transition", §4.3, and §9's replacement of the source's open
// class hierarchy with a closed union plus interface).
//
// Every method that needs to know which thread is executing receives it
// explicitly as exec, rather than the Kind value carrying its own executor
// field: the same Kind value can, in principle, be evaluated for different
// candidate executors while building the pending next-table.
type Kind interface {
	// EnabledIn reports whether the transition's preconditions hold for
	// exec in the given snapshot of visible-object state.
	EnabledIn(exec ThreadID, snap object.Snapshot) bool

	// CoenabledWith reports whether some single state could enable both
	// this transition and other simultaneously.
	CoenabledWith(other Kind) bool

	// DependentWith reports whether this transition and other conflict:
	// same executor and both visible, or same object with at least one
	// mutation.
	DependentWith(self, other Transition) bool

	// Modify applies the transition, executed by exec, to store,
	// returning how it went. Precondition: EnabledIn(exec,
	// store.Snapshot()) except when the caller wants to observe
	// UndefinedBehavior/Disabled explicitly.
	Modify(exec ThreadID, store *object.Store) (ApplyStatus, string, error)

	// IsReversible reports whether Inverse can compute the transition's
	// inverse purely from (kind, store-immediately-after).
	IsReversible() bool

	// Inverse returns the inverse Kind, if IsReversible is true.
	Inverse(exec ThreadID, after object.Snapshot) (Kind, bool)

	// String names the operation for logs/dumps.
	String() string
}

// Transition is a single visible-operation descriptor: which thread
// executed it, and what it did.
type Transition struct {
	Executor ThreadID
	Op       Kind
}

func (t Transition) String() string {
	return fmt.Sprintf("T%d:%s", t.Executor, t.Op)
}

// EnabledIn reports whether t is enabled in the given store snapshot.
func (t Transition) EnabledIn(snap object.Snapshot) bool {
	return t.Op.EnabledIn(t.Executor, snap)
}

// CoenabledWith reports whether t and other could be simultaneously
// enabled from a single state.
func (t Transition) CoenabledWith(other Transition) bool {
	return t.Op.CoenabledWith(other.Op)
}

// DependentWith implements spec.md §4.3's dependency judgment: same
// executor and both visible, or same object with at least one mutation.
// The same-executor half is universal and handled here. The object-sharing
// half is asymmetric per Kind (e.g. only ThreadCreate knows to check "any
// transition executed by the thread it spawns"), so both operands' Kind
// are consulted and OR-ed to make the overall relation symmetric
// regardless of which side a caller happens to invoke it from.
func (t Transition) DependentWith(other Transition) bool {
	if t.Executor == other.Executor {
		return true
	}
	return t.Op.DependentWith(t, other) || other.Op.DependentWith(other, t)
}

// Modify applies t to store.
func (t Transition) Modify(store *object.Store) (ApplyStatus, string, error) {
	return t.Op.Modify(t.Executor, store)
}

// IsReversible reports whether t's inverse is a pure function of (t, the
// store immediately after t).
func (t Transition) IsReversible() bool {
	return t.Op.IsReversible()
}

// Inverse returns the transition that undoes t, given a snapshot of the
// store immediately after t executed.
func (t Transition) Inverse(after object.Snapshot) (Transition, bool) {
	inv, ok := t.Op.Inverse(t.Executor, after)
	if !ok {
		return Transition{}, false
	}
	return Transition{Executor: t.Executor, Op: inv}, true
}
