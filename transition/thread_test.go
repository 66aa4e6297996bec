package transition

import (
	"testing"

	"dporcheck/object"
)

func TestThreadLifecycle(t *testing.T) {
	store, ids := newUninitStore(object.Uninitialized{})
	child := ids[0]

	create := NewThreadCreate(child, "worker", nil)
	if status, _, err := create.Modify(0, store); err != nil || status != Exists {
		t.Fatalf("thread_create failed: status=%v err=%v", status, err)
	}

	start := NewThreadStart(child)
	if !start.EnabledIn(1, store.Snapshot()) {
		t.Fatalf("thread_start should be enabled on an embryo thread")
	}
	if status, _, err := start.Modify(1, store); err != nil || status != Exists {
		t.Fatalf("thread_start failed: status=%v err=%v", status, err)
	}

	join := NewThreadJoin(child)
	if join.EnabledIn(0, store.Snapshot()) {
		t.Fatalf("thread_join should not be enabled before the thread finishes")
	}

	finish := NewThreadFinish(child)
	if status, _, err := finish.Modify(1, store); err != nil || status != Exists {
		t.Fatalf("thread_finish failed: status=%v err=%v", status, err)
	}
	if !join.EnabledIn(0, store.Snapshot()) {
		t.Fatalf("thread_join should be enabled once the target is dead")
	}
}

func TestThreadCreateDependentWithChild(t *testing.T) {
	child := object.ObjID(5)
	create := Transition{Executor: 0, Op: NewThreadCreate(child, "worker", nil)}
	byChild := Transition{Executor: ThreadID(child), Op: NewMutexLock(object.ObjID(1))}
	if !create.DependentWith(byChild) {
		t.Fatalf("thread_create(c) must be dependent with anything executed by c")
	}
	byOther := Transition{Executor: 99, Op: NewMutexLock(object.ObjID(1))}
	if create.DependentWith(byOther) {
		t.Fatalf("thread_create(c) should not be dependent with unrelated executors")
	}
}

func TestThreadDoubleCreateIsUB(t *testing.T) {
	store, ids := newUninitStore(object.ThreadState{LifecycleState: object.Alive})
	child := ids[0]
	create := NewThreadCreate(child, "worker", nil)
	status, _, err := create.Modify(0, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != UndefinedBehavior {
		t.Fatalf("thread_create reusing a tracked id should be UB, got %v", status)
	}
}
