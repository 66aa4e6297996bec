package transition

import (
	"testing"

	"dporcheck/object"
)

func TestBarrierWaitEnabledOnceFull(t *testing.T) {
	store, ids := newUninitStore(object.Uninitialized{})
	b := ids[0]

	if status, _, err := NewBarrierInit(b, 2).Modify(0, store); err != nil || status != Exists {
		t.Fatalf("barrier_init failed: status=%v err=%v", status, err)
	}

	wait := NewBarrierWait(b)
	NewBarrierArrive(b).Modify(1, store)
	if wait.EnabledIn(1, store.Snapshot()) {
		t.Fatalf("barrier_wait should not be enabled until threshold reached")
	}

	NewBarrierArrive(b).Modify(2, store)
	if !wait.EnabledIn(1, store.Snapshot()) || !wait.EnabledIn(2, store.Snapshot()) {
		t.Fatalf("barrier_wait should be enabled for every arrived thread once full")
	}
	if wait.EnabledIn(3, store.Snapshot()) {
		t.Fatalf("barrier_wait should not be enabled for a thread that never arrived")
	}
}

func TestBarrierArriveInverse(t *testing.T) {
	store, ids := newUninitStore(object.Uninitialized{})
	b := ids[0]
	NewBarrierInit(b, 2).Modify(0, store)

	arrive := NewBarrierArrive(b)
	arrive.Modify(1, store)
	inv, ok := arrive.Inverse(1, store.Snapshot())
	if !ok {
		t.Fatalf("barrier_arrive should be reversible")
	}
	if status, _, err := inv.Modify(1, store); err != nil || status != Exists {
		t.Fatalf("inverse failed: status=%v err=%v", status, err)
	}
	if NewBarrierWait(b).EnabledIn(1, store.Snapshot()) {
		t.Fatalf("undoing the only arrival should leave barrier_wait disabled")
	}
}
