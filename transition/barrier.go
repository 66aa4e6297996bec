package transition

import (
	"fmt"

	"dporcheck/object"
)

// barrierState tracks who has arrived at a barrier. Kept local to the
// transition package for the same reason condvarState is: the encoding
// into an arrive/wait pair is a transition-algebra concern, not a store
// concern.
type barrierState struct {
	Threshold uint32
	Arrived   []ThreadID
}

func (b barrierState) Clone() object.State {
	a := make([]ThreadID, len(b.Arrived))
	copy(a, b.Arrived)
	return barrierState{Threshold: b.Threshold, Arrived: a}
}

func (b barrierState) String() string {
	return fmt.Sprintf("barrier{threshold=%d, arrived=%v}", b.Threshold, b.Arrived)
}

// NewBarrierState returns the initial state of a freshly initialized
// barrier with the given threshold.
func NewBarrierState(threshold uint32) object.State {
	return barrierState{Threshold: threshold}
}

func barState(store *object.Store, id object.ObjID) (barrierState, bool) {
	st, err := store.Current(id)
	if err != nil {
		return barrierState{}, false
	}
	bs, ok := st.(barrierState)
	return bs, ok
}

// BarrierInit models barrier initialization.
type BarrierInit struct {
	Barrier   object.ObjID
	Threshold uint32
}

func NewBarrierInit(id object.ObjID, threshold uint32) *BarrierInit {
	return &BarrierInit{Barrier: id, Threshold: threshold}
}

func (b *BarrierInit) String() string { return fmt.Sprintf("barrier_init(b%d, %d)", b.Barrier, b.Threshold) }
func (b *BarrierInit) EnabledIn(ThreadID, object.Snapshot) bool { return true }
func (b *BarrierInit) CoenabledWith(other Kind) bool            { return !sameBarrier(b, other) }
func (b *BarrierInit) DependentWith(self, other Transition) bool {
	return sameBarrierKind(self.Op, other.Op)
}
func (b *BarrierInit) Modify(exec ThreadID, store *object.Store) (ApplyStatus, string, error) {
	cur, err := store.Current(b.Barrier)
	if err != nil {
		return Disabled, "", err
	}
	if _, ok := cur.(object.Uninitialized); !ok {
		return UndefinedBehavior, "double barrier_init on an already-initialized barrier", nil
	}
	return Exists, "", store.Record(b.Barrier, barrierState{Threshold: b.Threshold})
}
func (b *BarrierInit) IsReversible() bool                              { return true }
func (b *BarrierInit) Inverse(ThreadID, object.Snapshot) (Kind, bool) { return nil, true }

// BarrierArrive is the always-enabled first half of barrier_wait: the
// calling thread registers its arrival.
type BarrierArrive struct {
	Barrier object.ObjID
}

func NewBarrierArrive(id object.ObjID) *BarrierArrive { return &BarrierArrive{Barrier: id} }

func (b *BarrierArrive) String() string                         { return fmt.Sprintf("barrier_arrive(b%d)", b.Barrier) }
func (b *BarrierArrive) EnabledIn(ThreadID, object.Snapshot) bool { return true }
func (b *BarrierArrive) CoenabledWith(Kind) bool                 { return true }
func (b *BarrierArrive) DependentWith(self, other Transition) bool {
	return sameBarrierKind(self.Op, other.Op)
}
func (b *BarrierArrive) Modify(exec ThreadID, store *object.Store) (ApplyStatus, string, error) {
	bs, ok := barState(store, b.Barrier)
	if !ok {
		return Disabled, "", nil
	}
	next := bs.Clone().(barrierState)
	next.Arrived = append(next.Arrived, exec)
	return Exists, "", store.Record(b.Barrier, next)
}
func (b *BarrierArrive) IsReversible() bool { return true }
func (b *BarrierArrive) Inverse(exec ThreadID, after object.Snapshot) (Kind, bool) {
	return &barrierUnarrive{Barrier: b.Barrier, Thread: exec}, true
}

type barrierUnarrive struct {
	Barrier object.ObjID
	Thread  ThreadID
}

func (b *barrierUnarrive) String() string { return fmt.Sprintf("barrier_unarrive(b%d)", b.Barrier) }
func (b *barrierUnarrive) EnabledIn(ThreadID, object.Snapshot) bool { return true }
func (b *barrierUnarrive) CoenabledWith(Kind) bool                 { return true }
func (b *barrierUnarrive) DependentWith(self, other Transition) bool {
	return sameBarrierKind(self.Op, other.Op)
}
func (b *barrierUnarrive) Modify(_ ThreadID, store *object.Store) (ApplyStatus, string, error) {
	bs, ok := barState(store, b.Barrier)
	if !ok {
		return Disabled, "", nil
	}
	next := bs.Clone().(barrierState)
	out := next.Arrived[:0]
	for _, t := range next.Arrived {
		if t != b.Thread {
			out = append(out, t)
		}
	}
	next.Arrived = out
	return Exists, "", store.Record(b.Barrier, next)
}
func (b *barrierUnarrive) IsReversible() bool                              { return false }
func (b *barrierUnarrive) Inverse(ThreadID, object.Snapshot) (Kind, bool) { return nil, false }

// BarrierWait is the completing half of barrier_wait: enabled once every
// thread has arrived (spec.md §4.3 "barrier_wait is enabled iff arrived is
// full").
type BarrierWait struct {
	Barrier object.ObjID
}

func NewBarrierWait(id object.ObjID) *BarrierWait { return &BarrierWait{Barrier: id} }

func (b *BarrierWait) String() string { return fmt.Sprintf("barrier_wait(b%d)", b.Barrier) }

func (b *BarrierWait) EnabledIn(exec ThreadID, snap object.Snapshot) bool {
	st, err := snap.Current(b.Barrier)
	if err != nil {
		return false
	}
	bs, ok := st.(barrierState)
	if !ok {
		return false
	}
	if uint32(len(bs.Arrived)) < bs.Threshold {
		return false
	}
	for _, t := range bs.Arrived {
		if t == exec {
			return true
		}
	}
	return false
}

func (b *BarrierWait) CoenabledWith(Kind) bool { return true }

func (b *BarrierWait) DependentWith(self, other Transition) bool {
	return sameBarrierKind(self.Op, other.Op)
}

func (b *BarrierWait) Modify(exec ThreadID, store *object.Store) (ApplyStatus, string, error) {
	if !b.EnabledIn(exec, store.Snapshot()) {
		return Disabled, "", nil
	}
	return Exists, "", nil
}
func (b *BarrierWait) IsReversible() bool                              { return true }
func (b *BarrierWait) Inverse(ThreadID, object.Snapshot) (Kind, bool) { return &barrierNoop{}, true }

// barrierNoop is BarrierWait's inverse: BarrierWait never mutates the
// store (the thread's departure is implicit once it moves on to its next
// transition), so undoing it is a no-op.
type barrierNoop struct{}

func (barrierNoop) String() string                                { return "barrier_wait_noop" }
func (barrierNoop) EnabledIn(ThreadID, object.Snapshot) bool       { return true }
func (barrierNoop) CoenabledWith(Kind) bool                        { return true }
func (barrierNoop) DependentWith(Transition, Transition) bool      { return false }
func (barrierNoop) Modify(ThreadID, *object.Store) (ApplyStatus, string, error) {
	return Exists, "", nil
}
func (barrierNoop) IsReversible() bool                              { return false }
func (barrierNoop) Inverse(ThreadID, object.Snapshot) (Kind, bool) { return nil, false }

func barrierID(k Kind) (object.ObjID, bool) {
	switch b := k.(type) {
	case *BarrierInit:
		return b.Barrier, true
	case *BarrierArrive:
		return b.Barrier, true
	case *barrierUnarrive:
		return b.Barrier, true
	case *BarrierWait:
		return b.Barrier, true
	default:
		return 0, false
	}
}

func sameBarrierKind(a, b Kind) bool {
	id1, ok1 := barrierID(a)
	id2, ok2 := barrierID(b)
	return ok1 && ok2 && id1 == id2
}

func sameBarrier(a, b Kind) bool { return sameBarrierKind(a, b) }
