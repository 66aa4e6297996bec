package transition

import (
	"fmt"

	"dporcheck/object"
)

// ThreadCreate models pthread_create: it moves the child's visible object,
// already tracked as an object.Uninitialized placeholder, to the Embryo
// lifecycle state. It is irreversible, so undoing it goes through
// sequence.Sequence.ReflectAt's snapshot and replay (spec.md §4.4.1).
type ThreadCreate struct {
	Child        object.ObjID
	StartRoutine string
	Arg          any
}

func NewThreadCreate(child object.ObjID, startRoutine string, arg any) *ThreadCreate {
	return &ThreadCreate{Child: child, StartRoutine: startRoutine, Arg: arg}
}

func (t *ThreadCreate) String() string {
	return fmt.Sprintf("thread_create(child=%d)", t.Child)
}

func (t *ThreadCreate) EnabledIn(ThreadID, object.Snapshot) bool { return true }

func (t *ThreadCreate) CoenabledWith(Kind) bool { return true }

// DependentWith implements spec.md §4.3's "thread_create(c) is dependent
// with anything by c": since at the point this judgment is evaluated the
// other transition's executor may literally be the about-to-be-allocated
// child id, this checks other's executor against Child directly.
func (t *ThreadCreate) DependentWith(self, other Transition) bool {
	return other.Executor == ThreadID(t.Child)
}

func (t *ThreadCreate) Modify(exec ThreadID, store *object.Store) (ApplyStatus, string, error) {
	cur, err := store.Current(t.Child)
	if err != nil {
		return Disabled, "", err
	}
	if _, ok := cur.(object.Uninitialized); !ok {
		return UndefinedBehavior, "thread_create reused an already-tracked object id", nil
	}
	return Exists, "", store.Record(t.Child, object.ThreadState{
		LifecycleState: object.Embryo,
		StartRoutine:   t.StartRoutine,
		Arg:            t.Arg,
	})
}

func (t *ThreadCreate) IsReversible() bool                              { return false }
func (t *ThreadCreate) Inverse(ThreadID, object.Snapshot) (Kind, bool) { return nil, false }

// ThreadStart is executed by the newly spawned thread itself, moving it
// from Embryo to Alive. Enabled exactly while the thread is in Embryo
// state, so it is always the thread's very first transition.
type ThreadStart struct {
	Self object.ObjID
}

func NewThreadStart(self object.ObjID) *ThreadStart { return &ThreadStart{Self: self} }

func (t *ThreadStart) String() string { return fmt.Sprintf("thread_start(t%d)", t.Self) }

func (t *ThreadStart) EnabledIn(_ ThreadID, snap object.Snapshot) bool {
	st, err := snap.Current(t.Self)
	if err != nil {
		return false
	}
	s, ok := st.(object.ThreadState)
	return ok && s.LifecycleState == object.Embryo
}

func (t *ThreadStart) CoenabledWith(Kind) bool { return true }

func (t *ThreadStart) DependentWith(self, other Transition) bool {
	return sameThread(self.Op, other.Op)
}

func (t *ThreadStart) Modify(_ ThreadID, store *object.Store) (ApplyStatus, string, error) {
	st, err := store.Current(t.Self)
	if err != nil {
		return Disabled, "", err
	}
	ts, ok := st.(object.ThreadState)
	if !ok || ts.LifecycleState != object.Embryo {
		return Disabled, "", nil
	}
	next := ts.Clone().(object.ThreadState)
	next.LifecycleState = object.Alive
	return Exists, "", store.Record(t.Self, next)
}

func (t *ThreadStart) IsReversible() bool { return true }
func (t *ThreadStart) Inverse(ThreadID, object.Snapshot) (Kind, bool) {
	return &threadUnstart{Self: t.Self}, true
}

type threadUnstart struct {
	Self object.ObjID
}

func (t *threadUnstart) String() string                         { return fmt.Sprintf("thread_unstart(t%d)", t.Self) }
func (t *threadUnstart) EnabledIn(ThreadID, object.Snapshot) bool { return true }
func (t *threadUnstart) CoenabledWith(Kind) bool                 { return true }
func (t *threadUnstart) DependentWith(self, other Transition) bool {
	return sameThread(self.Op, other.Op)
}
func (t *threadUnstart) Modify(_ ThreadID, store *object.Store) (ApplyStatus, string, error) {
	st, err := store.Current(t.Self)
	if err != nil {
		return Disabled, "", err
	}
	ts := st.(object.ThreadState).Clone().(object.ThreadState)
	ts.LifecycleState = object.Embryo
	return Exists, "", store.Record(t.Self, ts)
}
func (t *threadUnstart) IsReversible() bool                              { return false }
func (t *threadUnstart) Inverse(ThreadID, object.Snapshot) (Kind, bool) { return nil, false }

// ThreadFinish models a thread's normal return from its start routine,
// moving it to Dead. thread_join's dependency on thread_finish (spec.md
// §4.3) falls out of the generic same-object rule once both operate on
// the thread's ObjID.
type ThreadFinish struct {
	Self object.ObjID
}

func NewThreadFinish(self object.ObjID) *ThreadFinish { return &ThreadFinish{Self: self} }

func (t *ThreadFinish) String() string { return fmt.Sprintf("thread_finish(t%d)", t.Self) }

func (t *ThreadFinish) EnabledIn(_ ThreadID, snap object.Snapshot) bool {
	st, err := snap.Current(t.Self)
	if err != nil {
		return false
	}
	s, ok := st.(object.ThreadState)
	return ok && s.LifecycleState == object.Alive
}

func (t *ThreadFinish) CoenabledWith(Kind) bool { return true }

func (t *ThreadFinish) DependentWith(self, other Transition) bool {
	return sameThread(self.Op, other.Op)
}

func (t *ThreadFinish) Modify(_ ThreadID, store *object.Store) (ApplyStatus, string, error) {
	st, err := store.Current(t.Self)
	if err != nil {
		return Disabled, "", err
	}
	ts, ok := st.(object.ThreadState)
	if !ok || ts.LifecycleState != object.Alive {
		return Disabled, "", nil
	}
	next := ts.Clone().(object.ThreadState)
	next.LifecycleState = object.Dead
	return Exists, "", store.Record(t.Self, next)
}

func (t *ThreadFinish) IsReversible() bool { return true }
func (t *ThreadFinish) Inverse(ThreadID, object.Snapshot) (Kind, bool) {
	return &threadUnfinish{Self: t.Self}, true
}

type threadUnfinish struct {
	Self object.ObjID
}

func (t *threadUnfinish) String() string { return fmt.Sprintf("thread_unfinish(t%d)", t.Self) }
func (t *threadUnfinish) EnabledIn(ThreadID, object.Snapshot) bool { return true }
func (t *threadUnfinish) CoenabledWith(Kind) bool                 { return true }
func (t *threadUnfinish) DependentWith(self, other Transition) bool {
	return sameThread(self.Op, other.Op)
}
func (t *threadUnfinish) Modify(_ ThreadID, store *object.Store) (ApplyStatus, string, error) {
	st, err := store.Current(t.Self)
	if err != nil {
		return Disabled, "", err
	}
	ts := st.(object.ThreadState).Clone().(object.ThreadState)
	ts.LifecycleState = object.Alive
	return Exists, "", store.Record(t.Self, ts)
}
func (t *threadUnfinish) IsReversible() bool                              { return false }
func (t *threadUnfinish) Inverse(ThreadID, object.Snapshot) (Kind, bool) { return nil, false }

// ThreadJoin models pthread_join(target): enabled iff target is Dead
// (spec.md §4.3).
type ThreadJoin struct {
	Target object.ObjID
}

func NewThreadJoin(target object.ObjID) *ThreadJoin { return &ThreadJoin{Target: target} }

func (t *ThreadJoin) String() string { return fmt.Sprintf("thread_join(t%d)", t.Target) }

func (t *ThreadJoin) EnabledIn(_ ThreadID, snap object.Snapshot) bool {
	st, err := snap.Current(t.Target)
	if err != nil {
		return false
	}
	s, ok := st.(object.ThreadState)
	return ok && s.LifecycleState == object.Dead
}

func (t *ThreadJoin) CoenabledWith(Kind) bool { return true }

func (t *ThreadJoin) DependentWith(self, other Transition) bool {
	return sameThread(self.Op, other.Op)
}

func (t *ThreadJoin) Modify(exec ThreadID, store *object.Store) (ApplyStatus, string, error) {
	if !t.EnabledIn(exec, store.Snapshot()) {
		return Disabled, "", nil
	}
	return Exists, "", nil
}

func (t *ThreadJoin) IsReversible() bool                              { return true }
func (t *ThreadJoin) Inverse(ThreadID, object.Snapshot) (Kind, bool) { return threadJoinNoop{}, true }

// threadJoinNoop is ThreadJoin's inverse: ThreadJoin never mutates the
// store, so undoing it is a no-op.
type threadJoinNoop struct{}

func (threadJoinNoop) String() string                           { return "thread_join_noop" }
func (threadJoinNoop) EnabledIn(ThreadID, object.Snapshot) bool  { return true }
func (threadJoinNoop) CoenabledWith(Kind) bool                   { return true }
func (threadJoinNoop) DependentWith(Transition, Transition) bool { return false }
func (threadJoinNoop) Modify(ThreadID, *object.Store) (ApplyStatus, string, error) {
	return Exists, "", nil
}
func (threadJoinNoop) IsReversible() bool                              { return false }
func (threadJoinNoop) Inverse(ThreadID, object.Snapshot) (Kind, bool) { return nil, false }

// Exit models a thread calling exit()/pthread_exit directly rather than
// falling off the end of its start routine. Semantically identical to
// ThreadFinish for lifecycle purposes; kept as a distinct Kind because the
// runner needs to tell the two call sites apart when replaying.
type Exit struct {
	Self object.ObjID
}

func NewExit(self object.ObjID) *Exit { return &Exit{Self: self} }

func (e *Exit) String() string { return fmt.Sprintf("exit(t%d)", e.Self) }

func (e *Exit) EnabledIn(_ ThreadID, snap object.Snapshot) bool {
	st, err := snap.Current(e.Self)
	if err != nil {
		return false
	}
	s, ok := st.(object.ThreadState)
	return ok && s.LifecycleState == object.Alive
}

func (e *Exit) CoenabledWith(Kind) bool { return true }

func (e *Exit) DependentWith(self, other Transition) bool {
	return sameThread(self.Op, other.Op)
}

func (e *Exit) Modify(_ ThreadID, store *object.Store) (ApplyStatus, string, error) {
	st, err := store.Current(e.Self)
	if err != nil {
		return Disabled, "", err
	}
	ts, ok := st.(object.ThreadState)
	if !ok || ts.LifecycleState != object.Alive {
		return Disabled, "", nil
	}
	next := ts.Clone().(object.ThreadState)
	next.LifecycleState = object.Dead
	return Exists, "", store.Record(e.Self, next)
}

func (e *Exit) IsReversible() bool { return true }
func (e *Exit) Inverse(ThreadID, object.Snapshot) (Kind, bool) {
	return &threadUnfinish{Self: e.Self}, true
}

func threadID(k Kind) (object.ObjID, bool) {
	switch v := k.(type) {
	case *ThreadCreate:
		return v.Child, true
	case *ThreadStart:
		return v.Self, true
	case *threadUnstart:
		return v.Self, true
	case *ThreadFinish:
		return v.Self, true
	case *threadUnfinish:
		return v.Self, true
	case *ThreadJoin:
		return v.Target, true
	case *Exit:
		return v.Self, true
	default:
		return 0, false
	}
}

func sameThread(a, b Kind) bool {
	id1, ok1 := threadID(a)
	id2, ok2 := threadID(b)
	return ok1 && ok2 && id1 == id2
}
