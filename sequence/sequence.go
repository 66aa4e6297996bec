// Package sequence implements the state sequence of spec.md §4.4: the
// transition stack, its matching state stack, the pending next-table, and
// the irreversible-index bookkeeping that makes unapply_top amortized
// cheap without keeping a full store snapshot at every depth.
package sequence

import (
	"errors"
	"sort"

	"dporcheck/clockvector"
	"dporcheck/object"
	"dporcheck/transition"
)

// ErrEmptyStack is returned by UnapplyTop when the transition stack is
// already empty.
var ErrEmptyStack = errors.New("sequence: transition stack is empty")

// ErrOutOfRange is returned by ReflectAt for a depth outside [0, Depth()].
var ErrOutOfRange = errors.New("sequence: depth out of range")

// ThreadSet is a small set of thread ids, used for the backtrack/done/sleep
// sets spec.md §4.5.1 attaches to every state-stack entry.
type ThreadSet map[transition.ThreadID]struct{}

// NewThreadSet returns a ThreadSet containing ids.
func NewThreadSet(ids ...transition.ThreadID) ThreadSet {
	s := make(ThreadSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s ThreadSet) Add(id transition.ThreadID)           { s[id] = struct{}{} }
func (s ThreadSet) Remove(id transition.ThreadID)        { delete(s, id) }
func (s ThreadSet) Contains(id transition.ThreadID) bool { _, ok := s[id]; return ok }
func (s ThreadSet) Len() int                             { return len(s) }

// Clone returns a copy of s.
func (s ThreadSet) Clone() ThreadSet {
	out := make(ThreadSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// StateStackItem is spec.md §4.5.1's per-state bookkeeping: which threads
// remain to be tried from this state (Backtrack), which already have
// (Done), which are asleep under the sleep-set optimization (Sleep), and
// the clock vector recording happens-before knowledge up to this point.
type StateStackItem struct {
	Backtrack ThreadSet
	Done      ThreadSet
	Sleep     ThreadSet
	// Clock is the dependency-closure clock vector spec.md §4.5.2 permits
	// as an alternative to the chain definition of happens_before: it
	// folds in every dependent predecessor, including racing memory
	// accesses, since DPOR's backtrack-set computation needs exactly that
	// closure.
	Clock clockvector.ClockVector
	// SyncClock is the narrower clock vector spec.md §4.7's data-race
	// predicate needs: it only folds in dependent predecessors that are
	// not both plain memory accesses, so two racing global_read/
	// global_write transitions never happen-before each other merely by
	// virtue of the memory dependency the race detector exists to catch.
	SyncClock  clockvector.ClockVector
	Revertible bool // true iff the transition that produced this state is reversible
}

func newStateStackItem(clock, syncClock clockvector.ClockVector, revertible bool) StateStackItem {
	return StateStackItem{
		Backtrack:  NewThreadSet(),
		Done:       NewThreadSet(),
		Sleep:      NewThreadSet(),
		Clock:      clock,
		SyncClock:  syncClock,
		Revertible: revertible,
	}
}

// irreversibleMark records the store's object-history lengths at the point
// immediately before an irreversible transition ran, keyed by that
// transition's index in the stack. Kept sorted by index; ReflectAt binary
// searches it to find the nearest usable snapshot before replaying the
// transitions from that irreversible transition up to the target depth,
// so only irreversible points ever pay for a full history
// snapshot (spec.md §4.4.1).
type irreversibleMark struct {
	index   int
	lengths []int
}

// Sequence is the transition stack plus everything needed to walk it
// backward and forward (spec.md §4.4).
type Sequence struct {
	Store       object.Store
	Transitions []transition.Transition
	States      []StateStackItem
	PendingNext map[transition.ThreadID]*transition.Transition

	irreversible []irreversibleMark
}

// New returns an empty sequence with a fresh store.
func New() *Sequence {
	return &Sequence{
		Store:       object.NewStore(),
		States:      []StateStackItem{newStateStackItem(clockvector.New(), clockvector.New(), true)},
		PendingNext: make(map[transition.ThreadID]*transition.Transition),
	}
}

// Depth returns the number of transitions currently applied.
func (s *Sequence) Depth() int { return len(s.Transitions) }

// Top returns the state-stack item for the current depth.
func (s *Sequence) Top() StateStackItem { return s.States[len(s.States)-1] }

// SetPending records t as the next transition thread tid would take if
// scheduled, per spec.md §4.4's pending next-table.
func (s *Sequence) SetPending(tid transition.ThreadID, t transition.Transition) {
	cp := t
	s.PendingNext[tid] = &cp
}

// ClearPending removes any pending transition recorded for tid.
func (s *Sequence) ClearPending(tid transition.ThreadID) {
	delete(s.PendingNext, tid)
}

// Pending returns the transition recorded for tid, if any.
func (s *Sequence) Pending(tid transition.ThreadID) (transition.Transition, bool) {
	t, ok := s.PendingNext[tid]
	if !ok {
		return transition.Transition{}, false
	}
	return *t, true
}

// ownClockIndex returns the clock component thread p's own clock held
// immediately after p's most recent transition, or 0 if p has not executed
// yet. Used to seed a new clock vector with only p's own component, per
// spec.md §4.5.2's `{p ↦ cv_of_p}` term — carrying forward the whole
// previous top-of-stack vector instead would inject a happens-before edge
// between every pair of consecutive transitions regardless of thread or
// dependency.
func (s *Sequence) ownClockIndex(p transition.ThreadID) uint64 {
	for i := len(s.Transitions) - 1; i >= 0; i-- {
		if s.Transitions[i].Executor == p {
			return s.States[i+1].Clock.Get(p)
		}
	}
	return 0
}

func (s *Sequence) ownSyncClockIndex(p transition.ThreadID) uint64 {
	for i := len(s.Transitions) - 1; i >= 0; i-- {
		if s.Transitions[i].Executor == p {
			return s.States[i+1].SyncClock.Get(p)
		}
	}
	return 0
}

// isMemoryAccess reports whether op is a plain shared-memory access
// (global_read/global_write) rather than a synchronization primitive.
func isMemoryAccess(op transition.Kind) bool {
	switch op.(type) {
	case *transition.GlobalRead, *transition.GlobalWrite:
		return true
	default:
		return false
	}
}

// clockAfter computes the dependency-closure clock vector for the state
// that follows applying t: the vector is seeded with only t's own executor
// component, incremented, then joined with the clock of the most recent
// transition (by any other executor) that t is dependent with, per
// spec.md §4.5.2's `max{CV_i : i<n ∧ dependent(S_i,S_n)} ⊔ {p ↦ cv_of_p}`.
// This is the closure scheduler.backtrack needs: it legitimately treats
// racing memory accesses as dependent, since DPOR's whole point is to
// explore both orderings of dependent transitions, races included.
func (s *Sequence) clockAfter(t transition.Transition) clockvector.ClockVector {
	clock := clockvector.New().Set(t.Executor, s.ownClockIndex(t.Executor)+1)
	for i := len(s.Transitions) - 1; i >= 0; i-- {
		if s.Transitions[i].Executor == t.Executor {
			continue
		}
		if s.Transitions[i].DependentWith(t) {
			clock = clock.Join(s.States[i+1].Clock)
			break
		}
	}
	return clock
}

// syncClockAfter computes the narrower, synchronization-only clock vector
// detector.DataRace needs (spec.md §4.7: a race requires that "no
// synchronization chain relates" the two accesses). It mirrors clockAfter
// exactly except it skips dependent predecessors where both t and the
// predecessor are plain memory accesses, so two racing global_read/
// global_write transitions never fold each other's clock in merely by
// being the dependency the race detector exists to catch.
func (s *Sequence) syncClockAfter(t transition.Transition) clockvector.ClockVector {
	clock := clockvector.New().Set(t.Executor, s.ownSyncClockIndex(t.Executor)+1)
	for i := len(s.Transitions) - 1; i >= 0; i-- {
		if s.Transitions[i].Executor == t.Executor {
			continue
		}
		if isMemoryAccess(s.Transitions[i].Op) && isMemoryAccess(t.Op) {
			continue
		}
		if s.Transitions[i].DependentWith(t) {
			clock = clock.Join(s.States[i+1].SyncClock)
			break
		}
	}
	return clock
}

// Apply runs t against the store and pushes the resulting state.
// Precondition: t.EnabledIn(s.Store.Snapshot()) holds, except when the
// caller deliberately wants to observe a Disabled or UndefinedBehavior
// result. A Disabled result never touches the store, so Apply leaves the
// stack untouched in that case.
func (s *Sequence) Apply(t transition.Transition) (transition.ApplyStatus, string, error) {
	var markPushed bool
	if !t.IsReversible() {
		s.irreversible = append(s.irreversible, irreversibleMark{
			index:   len(s.Transitions),
			lengths: s.Store.HistoryLengths(),
		})
		markPushed = true
	}

	status, reason, err := t.Modify(&s.Store)
	if err != nil || status == transition.Disabled {
		if markPushed {
			s.irreversible = s.irreversible[:len(s.irreversible)-1]
		}
		return status, reason, err
	}

	clock := s.clockAfter(t)
	syncClock := s.syncClockAfter(t)
	s.Transitions = append(s.Transitions, t)
	s.States = append(s.States, newStateStackItem(clock, syncClock, t.IsReversible()))
	return status, reason, nil
}

// Executor returns the executor of the transition at stack index i.
func (s *Sequence) Executor(i int) transition.ThreadID {
	return s.Transitions[i].Executor
}

// localIndex returns the value transition i's own executor's clock
// component held immediately after i ran, i.e. the position of i within
// its executor's own sequence of transitions (spec.md §4.5.2's
// index_of(i)).
func (s *Sequence) localIndex(i int) uint64 {
	return s.States[i+1].Clock.Get(s.Transitions[i].Executor)
}

// HappensBefore reports whether the transition at index i happens-before
// the transition at index j, via the clock-vector formulation spec.md
// §4.5.2 permits as an alternative to the chain definition: i happens
// before j iff j's executor's clock, as of j, has observed at least i's
// own local index.
func (s *Sequence) HappensBefore(i, j int) bool {
	if i < 0 || i >= len(s.Transitions) || j < 0 || j >= len(s.Transitions) {
		return false
	}
	p := s.Transitions[i].Executor
	return s.States[j+1].Clock.Get(p) >= s.localIndex(i)
}

// HappensBeforeThread reports whether the transition at index i
// happens-before some transition already executed by q, i.e. whether
// q's most recent transition (if any) happens after i in the
// happens-before order (spec.md §4.5.2's happens_before_thread).
func (s *Sequence) HappensBeforeThread(i int, q transition.ThreadID) bool {
	for m := len(s.Transitions) - 1; m >= 0; m-- {
		if s.Transitions[m].Executor == q {
			return s.HappensBefore(i, m)
		}
	}
	return false
}

// localSyncIndex is localIndex's counterpart for SyncClock.
func (s *Sequence) localSyncIndex(i int) uint64 {
	return s.States[i+1].SyncClock.Get(s.Transitions[i].Executor)
}

// SyncHappensBefore is HappensBefore's counterpart over SyncClock: it
// answers whether a synchronization chain (as opposed to the broader
// dependency closure HappensBefore uses) relates i and j. detector.DataRace
// uses this, not HappensBefore, to decide whether two racing memory
// accesses are already ordered (spec.md §4.7).
func (s *Sequence) SyncHappensBefore(i, j int) bool {
	if i < 0 || i >= len(s.Transitions) || j < 0 || j >= len(s.Transitions) {
		return false
	}
	p := s.Transitions[i].Executor
	return s.States[j+1].SyncClock.Get(p) >= s.localSyncIndex(i)
}

// UnapplyTop undoes the most recently applied transition, using its direct
// inverse when possible and falling back to ReflectAt otherwise (spec.md
// §4.4.1).
func (s *Sequence) UnapplyTop() error {
	n := len(s.Transitions)
	if n == 0 {
		return ErrEmptyStack
	}
	top := s.Transitions[n-1]
	if top.IsReversible() {
		// A nil inverse Kind (the *_init transitions) falls through to ReflectAt.
		if inv, ok := top.Inverse(s.Store.Snapshot()); ok && inv.Op != nil {
			if _, _, err := inv.Modify(&s.Store); err != nil {
				return err
			}
			s.Transitions = s.Transitions[:n-1]
			s.States = s.States[:n]
			return nil
		}
	}
	return s.ReflectAt(n - 1)
}

// ReflectAt truncates the sequence to depth transitions, reconstructing the
// store by consuming into the nearest earlier irreversible-boundary
// snapshot and replaying the transitions from that boundary's own
// irreversible transition up to depth; with no irreversible transition
// before depth, it rebuilds from every object's initial state and replays
// from the bottom of the stack. Only irreversible points pay for a full
// snapshot; every other depth is reached by replay, giving unapply_top its
// amortized cost (spec.md §4.4.1).
func (s *Sequence) ReflectAt(depth int) error {
	n := len(s.Transitions)
	if depth < 0 || depth > n {
		return ErrOutOfRange
	}
	if depth == n {
		return nil
	}

	boundary := sort.Search(len(s.irreversible), func(i int) bool {
		return s.irreversible[i].index > depth
	}) - 1

	var lengths []int
	replayFrom := 0
	if boundary >= 0 {
		lengths = s.irreversible[boundary].lengths
		replayFrom = s.irreversible[boundary].index
	} else {
		lengths = make([]int, s.Store.Len())
		for i := range lengths {
			lengths[i] = 1
		}
	}

	s.Store = s.Store.ConsumeIntoSubsequence(lengths)
	for i := replayFrom; i < depth; i++ {
		if _, _, err := s.Transitions[i].Modify(&s.Store); err != nil {
			return err
		}
	}

	cut := sort.Search(len(s.irreversible), func(i int) bool {
		return s.irreversible[i].index >= depth
	})
	s.irreversible = s.irreversible[:cut]
	s.Transitions = s.Transitions[:depth]
	s.States = s.States[:depth+1]
	return nil
}
