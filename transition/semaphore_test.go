package transition

import (
	"testing"

	"dporcheck/object"
)

func TestSemaphoreWaitPost(t *testing.T) {
	store, ids := newUninitStore(object.Uninitialized{})
	s := ids[0]

	init := NewSemInit(s, 0)
	if status, _, err := init.Modify(0, store); err != nil || status != Exists {
		t.Fatalf("sem_init failed: status=%v err=%v", status, err)
	}

	enqueue := NewSemEnqueue(s)
	if status, _, err := enqueue.Modify(1, store); err != nil || status != Exists {
		t.Fatalf("sem_enqueue failed: status=%v err=%v", status, err)
	}

	wait := NewSemWait(s)
	if wait.EnabledIn(1, store.Snapshot()) {
		t.Fatalf("sem_wait should not be enabled with count == 0")
	}

	post := NewSemPost(s)
	if status, _, err := post.Modify(2, store); err != nil || status != Exists {
		t.Fatalf("sem_post failed: status=%v err=%v", status, err)
	}

	if !wait.EnabledIn(1, store.Snapshot()) {
		t.Fatalf("sem_wait should be enabled once posted and at head of queue")
	}
	if status, _, err := wait.Modify(1, store); err != nil || status != Exists {
		t.Fatalf("sem_wait failed: status=%v err=%v", status, err)
	}

	cur, _ := store.Current(s)
	ss := cur.(object.SemaphoreState)
	if ss.Count != 0 {
		t.Fatalf("expected count 0 after wait consumed the post, got %d", ss.Count)
	}
}

func TestSemaphoreWaitPostNotCoenabled(t *testing.T) {
	s := object.ObjID(0)
	wait := NewSemWait(s)
	post := NewSemPost(s)
	if wait.CoenabledWith(post) {
		t.Fatalf("sem_wait paired with its own sem_post must not be coenabled")
	}
}

func TestSemaphoreEnqueueOrder(t *testing.T) {
	store, ids := newUninitStore(object.SemaphoreState{Count: 0})
	s := ids[0]
	NewSemEnqueue(s).Modify(1, store)
	NewSemEnqueue(s).Modify(2, store)

	wait := NewSemWait(s)
	NewSemPost(s).Modify(0, store)
	if wait.EnabledIn(2, store.Snapshot()) {
		t.Fatalf("thread 2 should not be enabled while thread 1 holds the head of the queue")
	}
	if !wait.EnabledIn(1, store.Snapshot()) {
		t.Fatalf("thread 1 should be enabled at the head of the queue")
	}
}
