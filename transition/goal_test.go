package transition

import (
	"testing"
)

func TestGoalCriticalSectionToggle(t *testing.T) {
	store, ids := newUninitStore(NewGoalState())
	self := ids[0]

	enter := NewEnterGoalCriticalSection(self)
	if !enter.EnabledIn(1, store.Snapshot()) {
		t.Fatalf("enter_goal_critical_section should be enabled outside a critical section")
	}
	if status, _, err := enter.Modify(1, store); err != nil || status != Exists {
		t.Fatalf("enter failed: status=%v err=%v", status, err)
	}

	status, reason, err := enter.Modify(1, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != UndefinedBehavior {
		t.Fatalf("nested enter should be UB, got %v (%s)", status, reason)
	}

	exit := NewExitGoalCriticalSection(self)
	if !exit.EnabledIn(1, store.Snapshot()) {
		t.Fatalf("exit_goal_critical_section should be enabled inside a critical section")
	}
	if status, _, err := exit.Modify(1, store); err != nil || status != Exists {
		t.Fatalf("exit failed: status=%v err=%v", status, err)
	}
	if exit.EnabledIn(1, store.Snapshot()) {
		t.Fatalf("exit_goal_critical_section should not be enabled twice in a row")
	}
}

func TestThreadReachGoalNeverMutates(t *testing.T) {
	store, ids := newUninitStore(NewGoalState())
	self := ids[0]
	before, _ := store.Current(self)

	NewThreadReachGoal(self).Modify(1, store)

	after, _ := store.Current(self)
	if before != after {
		t.Fatalf("thread_reach_goal must not mutate the store")
	}
}
