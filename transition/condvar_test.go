package transition

import (
	"testing"

	"dporcheck/object"
)

func TestCondvarSignalWakesHead(t *testing.T) {
	store, ids := newUninitStore(object.Uninitialized{})
	c := ids[0]

	if status, _, err := NewCondInit(c).Modify(0, store); err != nil || status != Exists {
		t.Fatalf("cond_init failed: status=%v err=%v", status, err)
	}

	NewCondEnqueue(c).Modify(1, store)
	NewCondEnqueue(c).Modify(2, store)

	wait1 := NewCondWait(c)
	if wait1.EnabledIn(1, store.Snapshot()) {
		t.Fatalf("cond_wait should not be enabled before a signal")
	}

	NewCondSignal(c).Modify(0, store)
	if !wait1.EnabledIn(1, store.Snapshot()) {
		t.Fatalf("cond_signal should wake the head of the queue")
	}
	if NewCondWait(c).EnabledIn(2, store.Snapshot()) {
		t.Fatalf("cond_signal should not wake more than one thread")
	}
}

func TestCondvarBroadcastWakesAll(t *testing.T) {
	store, ids := newUninitStore(object.Uninitialized{})
	c := ids[0]
	NewCondInit(c).Modify(0, store)
	NewCondEnqueue(c).Modify(1, store)
	NewCondEnqueue(c).Modify(2, store)

	NewCondBroadcast(c).Modify(0, store)
	if !NewCondWait(c).EnabledIn(1, store.Snapshot()) || !NewCondWait(c).EnabledIn(2, store.Snapshot()) {
		t.Fatalf("cond_broadcast should wake every waiting thread")
	}
}
