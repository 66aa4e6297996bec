package transition

import (
	"fmt"

	"dporcheck/object"
)

// MutexInit models pthread_mutex_init-style initialization of a mutex
// visible object. It is reversible only when the prior state was "unknown"
// (spec.md §4.4.1), modeled here by Modify moving an already-tracked
// object.Uninitialized placeholder to the unlocked state and returning
// UndefinedBehavior on a double-init.
type MutexInit struct {
	Mutex object.ObjID
	// alreadyTracked is set once Modify has run so a later Inverse knows
	// whether to report the object as removable.
	alreadyTracked bool
}

func NewMutexInit(id object.ObjID) *MutexInit { return &MutexInit{Mutex: id} }

func (m *MutexInit) String() string { return fmt.Sprintf("mutex_init(m%d)", m.Mutex) }

func (m *MutexInit) EnabledIn(ThreadID, object.Snapshot) bool { return true }

func (m *MutexInit) CoenabledWith(other Kind) bool {
	if o, ok := other.(*MutexInit); ok {
		return o.Mutex != m.Mutex
	}
	return true
}

func (m *MutexInit) DependentWith(self, other Transition) bool {
	return sameMutex(self.Op, other.Op)
}

func (m *MutexInit) Modify(exec ThreadID, store *object.Store) (ApplyStatus, string, error) {
	cur, err := store.Current(m.Mutex)
	if err != nil {
		return Disabled, "", err
	}
	if _, ok := cur.(object.Uninitialized); !ok {
		return UndefinedBehavior, "double mutex_init on an already-initialized mutex", nil
	}
	m.alreadyTracked = true
	return Exists, "", store.Record(m.Mutex, object.MutexState{Status: object.MutexUnlocked})
}

func (m *MutexInit) IsReversible() bool { return true }

func (m *MutexInit) Inverse(ThreadID, object.Snapshot) (Kind, bool) {
	// The inverse of init is "remove the object", represented by a nil
	// Kind paired with ok telling the caller whether the object actually
	// exists to be removed; sequence.Sequence.UnapplyTop handles a nil Kind
	// by rebuilding the store through ReflectAt.
	return nil, m.alreadyTracked
}

// MutexLock models pthread_mutex_lock. Enabled only when the mutex is
// unlocked (spec.md §4.3).
type MutexLock struct {
	Mutex object.ObjID
}

func NewMutexLock(id object.ObjID) *MutexLock { return &MutexLock{Mutex: id} }

func (m *MutexLock) String() string { return fmt.Sprintf("mutex_lock(m%d)", m.Mutex) }

func (m *MutexLock) EnabledIn(_ ThreadID, snap object.Snapshot) bool {
	st, err := snap.Current(m.Mutex)
	if err != nil {
		return false
	}
	ms, ok := st.(MutexState)
	return ok && ms.Status == MutexUnlocked
}

func (m *MutexLock) CoenabledWith(other Kind) bool {
	if o, ok := other.(*MutexLock); ok && o.Mutex == m.Mutex {
		// Two concurrent lock attempts on the same mutex: spec.md §4.3's
		// explicit exception. Only one can be the engine's genuine next
		// move from a shared state; the other becomes a fresh decision
		// point once the mutex is unlocked again.
		return false
	}
	return true
}

func (m *MutexLock) DependentWith(self, other Transition) bool {
	return sameMutex(self.Op, other.Op)
}

func (m *MutexLock) Modify(exec ThreadID, store *object.Store) (ApplyStatus, string, error) {
	st, err := store.Current(m.Mutex)
	if err != nil {
		return Disabled, "", err
	}
	ms, ok := st.(MutexState)
	if !ok || ms.Status != MutexUnlocked {
		return Disabled, "", nil
	}
	return Exists, "", store.Record(m.Mutex, MutexState{Status: MutexLocked, Owner: exec})
}

func (m *MutexLock) IsReversible() bool { return true }

func (m *MutexLock) Inverse(ThreadID, object.Snapshot) (Kind, bool) {
	return &MutexUnlock{Mutex: m.Mutex}, true
}

// MutexUnlock models pthread_mutex_unlock. Architecturally always
// "enabled" (the call itself never blocks); correctness is instead
// enforced at Modify time, which reports UndefinedBehavior when the
// calling thread does not hold the mutex (spec.md §4.3, §7).
type MutexUnlock struct {
	Mutex object.ObjID
}

func NewMutexUnlock(id object.ObjID) *MutexUnlock { return &MutexUnlock{Mutex: id} }

func (m *MutexUnlock) String() string { return fmt.Sprintf("mutex_unlock(m%d)", m.Mutex) }

func (m *MutexUnlock) EnabledIn(ThreadID, object.Snapshot) bool { return true }

func (m *MutexUnlock) CoenabledWith(other Kind) bool {
	// A mutex_unlock call by a non-owner is never a genuinely schedulable
	// move (it is UB, not a real interleaving choice); we approximate
	// that conservatively by never treating an unlock as co-enabled with
	// another transition on the same mutex (spec.md §4.3's "mutex_unlock
	// by a non-owner" exception). The precise owner check happens in
	// Modify, which has access to the store.
	return !sameMutexKind(m, other)
}

func (m *MutexUnlock) DependentWith(self, other Transition) bool {
	return sameMutex(self.Op, other.Op)
}

func (m *MutexUnlock) Modify(exec ThreadID, store *object.Store) (ApplyStatus, string, error) {
	st, err := store.Current(m.Mutex)
	if err != nil {
		return Disabled, "", err
	}
	ms, ok := st.(MutexState)
	if !ok {
		return Disabled, "", nil
	}
	if ms.Status != MutexLocked {
		return UndefinedBehavior, "unlock of a mutex that is not locked", nil
	}
	if ms.Owner != exec {
		return UndefinedBehavior, "unlock of a mutex by a thread that does not own it", nil
	}
	return Exists, "", store.Record(m.Mutex, MutexState{Status: MutexUnlocked})
}

func (m *MutexUnlock) IsReversible() bool { return true }

func (m *MutexUnlock) Inverse(exec ThreadID, after object.Snapshot) (Kind, bool) {
	return &mutexRelock{Mutex: m.Mutex, Owner: exec}, true
}

// mutexRelock is the inverse of a MutexUnlock: it restores the mutex to
// locked-by-Owner without re-running MutexLock's enabledness check, which
// would (correctly) refuse to "lock" an already-unlocked mutex for
// someone other than whoever is about to re-acquire it in forward
// replay. It is never produced except as an Inverse() result.
type mutexRelock struct {
	Mutex object.ObjID
	Owner ThreadID
}

func (m *mutexRelock) String() string { return fmt.Sprintf("mutex_relock(m%d)", m.Mutex) }
func (m *mutexRelock) EnabledIn(ThreadID, object.Snapshot) bool { return true }
func (m *mutexRelock) CoenabledWith(Kind) bool                  { return true }
func (m *mutexRelock) DependentWith(self, other Transition) bool {
	return sameMutex(self.Op, other.Op)
}
func (m *mutexRelock) Modify(_ ThreadID, store *object.Store) (ApplyStatus, string, error) {
	return Exists, "", store.Record(m.Mutex, MutexState{Status: MutexLocked, Owner: m.Owner})
}
func (m *mutexRelock) IsReversible() bool                              { return false }
func (m *mutexRelock) Inverse(ThreadID, object.Snapshot) (Kind, bool) { return nil, false }

// MutexDestroy models pthread_mutex_destroy.
type MutexDestroy struct {
	Mutex object.ObjID
}

func NewMutexDestroy(id object.ObjID) *MutexDestroy { return &MutexDestroy{Mutex: id} }

func (m *MutexDestroy) String() string { return fmt.Sprintf("mutex_destroy(m%d)", m.Mutex) }

func (m *MutexDestroy) EnabledIn(ThreadID, object.Snapshot) bool { return true }

func (m *MutexDestroy) CoenabledWith(other Kind) bool { return !sameMutexKind(m, other) }

func (m *MutexDestroy) DependentWith(self, other Transition) bool {
	return sameMutex(self.Op, other.Op)
}

func (m *MutexDestroy) Modify(exec ThreadID, store *object.Store) (ApplyStatus, string, error) {
	st, err := store.Current(m.Mutex)
	if err != nil {
		return Disabled, "", err
	}
	ms, ok := st.(MutexState)
	if !ok {
		return Disabled, "", nil
	}
	if ms.Status == MutexLocked {
		return UndefinedBehavior, "destroy of a locked mutex", nil
	}
	return Exists, "", store.Record(m.Mutex, MutexState{Status: MutexDestroyed})
}

func (m *MutexDestroy) IsReversible() bool { return false }

func (m *MutexDestroy) Inverse(ThreadID, object.Snapshot) (Kind, bool) { return nil, false }

func mutexID(k Kind) (object.ObjID, bool) {
	switch m := k.(type) {
	case *MutexInit:
		return m.Mutex, true
	case *MutexLock:
		return m.Mutex, true
	case *MutexUnlock:
		return m.Mutex, true
	case *mutexRelock:
		return m.Mutex, true
	case *MutexDestroy:
		return m.Mutex, true
	default:
		return 0, false
	}
}

func sameMutexKind(a, b Kind) bool {
	id1, ok1 := mutexID(a)
	id2, ok2 := mutexID(b)
	return ok1 && ok2 && id1 == id2
}

func sameMutex(a, b Kind) bool {
	return sameMutexKind(a, b)
}
