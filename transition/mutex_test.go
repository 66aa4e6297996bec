package transition

import (
	"testing"

	"dporcheck/object"
)

func newUninitStore(states ...object.State) (*object.Store, []object.ObjID) {
	s := object.NewStore()
	ids := make([]object.ObjID, len(states))
	for i, st := range states {
		ids[i] = s.Track(st)
	}
	return &s, ids
}

func TestMutexLifecycle(t *testing.T) {
	store, ids := newUninitStore(object.Uninitialized{})
	m := ids[0]

	init := NewMutexInit(m)
	if !init.EnabledIn(0, store.Snapshot()) {
		t.Fatalf("mutex_init should always be enabled")
	}
	status, _, err := init.Modify(0, store)
	if err != nil || status != Exists {
		t.Fatalf("mutex_init failed: status=%v err=%v", status, err)
	}

	lock := NewMutexLock(m)
	if !lock.EnabledIn(1, store.Snapshot()) {
		t.Fatalf("mutex_lock should be enabled on an unlocked mutex")
	}
	if status, _, err := lock.Modify(1, store); err != nil || status != Exists {
		t.Fatalf("mutex_lock failed: status=%v err=%v", status, err)
	}
	if lock.EnabledIn(2, store.Snapshot()) {
		t.Fatalf("mutex_lock should be disabled once locked")
	}

	unlock := NewMutexUnlock(m)
	status, reason, err := unlock.Modify(2, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != UndefinedBehavior {
		t.Fatalf("unlock by non-owner should be UB, got %v (%s)", status, reason)
	}

	status, _, err = unlock.Modify(1, store)
	if err != nil || status != Exists {
		t.Fatalf("unlock by owner failed: status=%v err=%v", status, err)
	}
	if !lock.EnabledIn(2, store.Snapshot()) {
		t.Fatalf("mutex_lock should be enabled again after unlock")
	}
}

func TestMutexDoubleInit(t *testing.T) {
	store, ids := newUninitStore(object.Uninitialized{})
	m := ids[0]
	init := NewMutexInit(m)
	if status, _, _ := init.Modify(0, store); status != Exists {
		t.Fatalf("first mutex_init should succeed")
	}
	init2 := NewMutexInit(m)
	status, _, _ := init2.Modify(0, store)
	if status != UndefinedBehavior {
		t.Fatalf("double mutex_init should be UB, got %v", status)
	}
}

func TestMutexUnlockInverse(t *testing.T) {
	store, ids := newUninitStore(object.MutexState{Status: object.MutexLocked, Owner: 3})
	m := ids[0]
	unlock := NewMutexUnlock(m)
	if _, _, err := unlock.Modify(3, store); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inv, ok := unlock.Inverse(3, store.Snapshot())
	if !ok {
		t.Fatalf("mutex_unlock should be reversible")
	}
	if status, _, err := inv.Modify(3, store); err != nil || status != Exists {
		t.Fatalf("inverse failed: status=%v err=%v", status, err)
	}
	cur, _ := store.Current(m)
	ms := cur.(object.MutexState)
	if ms.Status != object.MutexLocked || ms.Owner != 3 {
		t.Fatalf("expected relocked by 3, got %v", ms)
	}
}

func TestMutexCoenabledWithSameMutex(t *testing.T) {
	m := object.ObjID(0)
	l1 := NewMutexLock(m)
	l2 := NewMutexLock(m)
	if l1.CoenabledWith(l2) {
		t.Fatalf("two mutex_lock on the same mutex must not be coenabled")
	}
	other := NewMutexLock(object.ObjID(1))
	if !l1.CoenabledWith(other) {
		t.Fatalf("mutex_lock on different mutexes should be coenabled")
	}
}
