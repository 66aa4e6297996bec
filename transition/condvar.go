package transition

import (
	"fmt"

	"dporcheck/object"
)

// condvarState holds a condition variable's Waiting queue plus a Woken
// set: threads a signal/broadcast has released but which have not yet
// completed their CondWait. It is an object.State implementation local to
// this package (the object package defines no condition-variable state),
// so the object package stays ignorant of the two-step encoding
// transition chooses for cond_wait.
type condvarState struct {
	Waiting []ThreadID
	Woken   []ThreadID
}

func (c condvarState) Clone() object.State {
	w := make([]ThreadID, len(c.Waiting))
	copy(w, c.Waiting)
	k := make([]ThreadID, len(c.Woken))
	copy(k, c.Woken)
	return condvarState{Waiting: w, Woken: k}
}

func (c condvarState) String() string {
	return fmt.Sprintf("condvar{waiting=%v, woken=%v}", c.Waiting, c.Woken)
}

// NewCondvarState returns the initial state of a freshly initialized
// condition variable.
func NewCondvarState() object.State { return condvarState{} }

func condState(store *object.Store, id object.ObjID) (condvarState, bool) {
	st, err := store.Current(id)
	if err != nil {
		return condvarState{}, false
	}
	cs, ok := st.(condvarState)
	return cs, ok
}

// CondInit models pthread_cond_init.
type CondInit struct {
	Cond object.ObjID
}

func NewCondInit(id object.ObjID) *CondInit { return &CondInit{Cond: id} }

func (c *CondInit) String() string { return fmt.Sprintf("cond_init(c%d)", c.Cond) }

func (c *CondInit) EnabledIn(ThreadID, object.Snapshot) bool { return true }
func (c *CondInit) CoenabledWith(other Kind) bool            { return !sameCondKind(c, other) }
func (c *CondInit) DependentWith(self, other Transition) bool {
	return sameCondKind(self.Op, other.Op)
}

func (c *CondInit) Modify(exec ThreadID, store *object.Store) (ApplyStatus, string, error) {
	cur, err := store.Current(c.Cond)
	if err != nil {
		return Disabled, "", err
	}
	if _, ok := cur.(object.Uninitialized); !ok {
		return UndefinedBehavior, "double cond_init on an already-initialized condition variable", nil
	}
	return Exists, "", store.Record(c.Cond, condvarState{})
}
func (c *CondInit) IsReversible() bool                              { return true }
func (c *CondInit) Inverse(ThreadID, object.Snapshot) (Kind, bool) { return nil, true }

// CondEnqueue is the always-enabled first half of cond_wait.
type CondEnqueue struct {
	Cond object.ObjID
}

func NewCondEnqueue(id object.ObjID) *CondEnqueue { return &CondEnqueue{Cond: id} }

func (c *CondEnqueue) String() string                         { return fmt.Sprintf("cond_enqueue(c%d)", c.Cond) }
func (c *CondEnqueue) EnabledIn(ThreadID, object.Snapshot) bool { return true }
func (c *CondEnqueue) CoenabledWith(Kind) bool                 { return true }
func (c *CondEnqueue) DependentWith(self, other Transition) bool {
	return sameCondKind(self.Op, other.Op)
}

func (c *CondEnqueue) Modify(exec ThreadID, store *object.Store) (ApplyStatus, string, error) {
	cs, ok := condState(store, c.Cond)
	if !ok {
		return Disabled, "", nil
	}
	next := cs.Clone().(condvarState)
	next.Waiting = append(next.Waiting, exec)
	return Exists, "", store.Record(c.Cond, next)
}
func (c *CondEnqueue) IsReversible() bool { return true }
func (c *CondEnqueue) Inverse(exec ThreadID, after object.Snapshot) (Kind, bool) {
	return &condUnenqueue{Cond: c.Cond, Thread: exec}, true
}

type condUnenqueue struct {
	Cond   object.ObjID
	Thread ThreadID
}

func (c *condUnenqueue) String() string                         { return fmt.Sprintf("cond_unenqueue(c%d)", c.Cond) }
func (c *condUnenqueue) EnabledIn(ThreadID, object.Snapshot) bool { return true }
func (c *condUnenqueue) CoenabledWith(Kind) bool                 { return true }
func (c *condUnenqueue) DependentWith(self, other Transition) bool {
	return sameCondKind(self.Op, other.Op)
}
func (c *condUnenqueue) Modify(_ ThreadID, store *object.Store) (ApplyStatus, string, error) {
	cs, ok := condState(store, c.Cond)
	if !ok {
		return Disabled, "", nil
	}
	next := cs.Clone().(condvarState)
	out := next.Waiting[:0]
	for _, t := range next.Waiting {
		if t != c.Thread {
			out = append(out, t)
		}
	}
	next.Waiting = out
	return Exists, "", store.Record(c.Cond, next)
}
func (c *condUnenqueue) IsReversible() bool                              { return false }
func (c *condUnenqueue) Inverse(ThreadID, object.Snapshot) (Kind, bool) { return nil, false }

// CondWait is the completing half of cond_wait: enabled once a
// signal/broadcast has moved the calling thread into the Woken set.
type CondWait struct {
	Cond object.ObjID
}

func NewCondWait(id object.ObjID) *CondWait { return &CondWait{Cond: id} }

func (c *CondWait) String() string { return fmt.Sprintf("cond_wait(c%d)", c.Cond) }

func (c *CondWait) EnabledIn(exec ThreadID, snap object.Snapshot) bool {
	st, err := snap.Current(c.Cond)
	if err != nil {
		return false
	}
	cs, ok := st.(condvarState)
	if !ok {
		return false
	}
	for _, t := range cs.Woken {
		if t == exec {
			return true
		}
	}
	return false
}

func (c *CondWait) CoenabledWith(other Kind) bool { return true }

func (c *CondWait) DependentWith(self, other Transition) bool {
	return sameCondKind(self.Op, other.Op)
}

func (c *CondWait) Modify(exec ThreadID, store *object.Store) (ApplyStatus, string, error) {
	cs, ok := condState(store, c.Cond)
	if !ok {
		return Disabled, "", nil
	}
	idx := -1
	for i, t := range cs.Woken {
		if t == exec {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Disabled, "", nil
	}
	next := cs.Clone().(condvarState)
	next.Woken = append(next.Woken[:idx], next.Woken[idx+1:]...)
	return Exists, "", store.Record(c.Cond, next)
}
func (c *CondWait) IsReversible() bool { return true }
func (c *CondWait) Inverse(exec ThreadID, after object.Snapshot) (Kind, bool) {
	return &condUnwait{Cond: c.Cond, Thread: exec}, true
}

type condUnwait struct {
	Cond   object.ObjID
	Thread ThreadID
}

func (c *condUnwait) String() string                         { return fmt.Sprintf("cond_unwait(c%d)", c.Cond) }
func (c *condUnwait) EnabledIn(ThreadID, object.Snapshot) bool { return true }
func (c *condUnwait) CoenabledWith(Kind) bool                 { return true }
func (c *condUnwait) DependentWith(self, other Transition) bool {
	return sameCondKind(self.Op, other.Op)
}
func (c *condUnwait) Modify(_ ThreadID, store *object.Store) (ApplyStatus, string, error) {
	cs, ok := condState(store, c.Cond)
	if !ok {
		return Disabled, "", nil
	}
	next := cs.Clone().(condvarState)
	next.Woken = append(next.Woken, c.Thread)
	return Exists, "", store.Record(c.Cond, next)
}
func (c *condUnwait) IsReversible() bool                              { return false }
func (c *condUnwait) Inverse(ThreadID, object.Snapshot) (Kind, bool) { return nil, false }

// CondSignal wakes the head of the wait queue, if any. Always enabled.
type CondSignal struct {
	Cond object.ObjID
}

func NewCondSignal(id object.ObjID) *CondSignal { return &CondSignal{Cond: id} }

func (c *CondSignal) String() string                         { return fmt.Sprintf("cond_signal(c%d)", c.Cond) }
func (c *CondSignal) EnabledIn(ThreadID, object.Snapshot) bool { return true }
func (c *CondSignal) CoenabledWith(Kind) bool                 { return true }
func (c *CondSignal) DependentWith(self, other Transition) bool {
	return sameCondKind(self.Op, other.Op)
}

func (c *CondSignal) Modify(exec ThreadID, store *object.Store) (ApplyStatus, string, error) {
	cs, ok := condState(store, c.Cond)
	if !ok {
		return Disabled, "", nil
	}
	next := cs.Clone().(condvarState)
	if len(next.Waiting) > 0 {
		woken := next.Waiting[0]
		next.Waiting = next.Waiting[1:]
		next.Woken = append(next.Woken, woken)
	}
	return Exists, "", store.Record(c.Cond, next)
}
func (c *CondSignal) IsReversible() bool                              { return false }
func (c *CondSignal) Inverse(ThreadID, object.Snapshot) (Kind, bool) { return nil, false }

// CondBroadcast wakes every waiting thread. Always enabled.
type CondBroadcast struct {
	Cond object.ObjID
}

func NewCondBroadcast(id object.ObjID) *CondBroadcast { return &CondBroadcast{Cond: id} }

func (c *CondBroadcast) String() string { return fmt.Sprintf("cond_broadcast(c%d)", c.Cond) }
func (c *CondBroadcast) EnabledIn(ThreadID, object.Snapshot) bool { return true }
func (c *CondBroadcast) CoenabledWith(Kind) bool                 { return true }
func (c *CondBroadcast) DependentWith(self, other Transition) bool {
	return sameCondKind(self.Op, other.Op)
}

func (c *CondBroadcast) Modify(exec ThreadID, store *object.Store) (ApplyStatus, string, error) {
	cs, ok := condState(store, c.Cond)
	if !ok {
		return Disabled, "", nil
	}
	next := cs.Clone().(condvarState)
	next.Woken = append(next.Woken, next.Waiting...)
	next.Waiting = nil
	return Exists, "", store.Record(c.Cond, next)
}
func (c *CondBroadcast) IsReversible() bool                              { return false }
func (c *CondBroadcast) Inverse(ThreadID, object.Snapshot) (Kind, bool) { return nil, false }

func condID(k Kind) (object.ObjID, bool) {
	switch c := k.(type) {
	case *CondInit:
		return c.Cond, true
	case *CondEnqueue:
		return c.Cond, true
	case *condUnenqueue:
		return c.Cond, true
	case *CondWait:
		return c.Cond, true
	case *condUnwait:
		return c.Cond, true
	case *CondSignal:
		return c.Cond, true
	case *CondBroadcast:
		return c.Cond, true
	default:
		return 0, false
	}
}

func sameCondKind(a, b Kind) bool {
	id1, ok1 := condID(a)
	id2, ok2 := condID(b)
	return ok1 && ok2 && id1 == id2
}
