package sequence

import (
	"testing"

	"dporcheck/object"
	"dporcheck/transition"
)

func apply(t *testing.T, s *Sequence, tid transition.ThreadID, k transition.Kind) {
	t.Helper()
	tr := transition.Transition{Executor: tid, Op: k}
	status, reason, err := s.Apply(tr)
	if err != nil {
		t.Fatalf("apply %s: unexpected error: %v", k, err)
	}
	if status != transition.Exists {
		t.Fatalf("apply %s: expected Exists, got %v (%s)", k, status, reason)
	}
}

func TestApplyPushesTransitionAndState(t *testing.T) {
	s := New()
	mutex := s.Store.Track(object.Uninitialized{})

	apply(t, s, 0, transition.NewMutexInit(mutex))
	apply(t, s, 0, transition.NewMutexLock(mutex))

	if s.Depth() != 2 {
		t.Fatalf("expected depth 2, got %d", s.Depth())
	}
	if len(s.States) != 3 {
		t.Fatalf("expected 3 state-stack entries, got %d", len(s.States))
	}
	cur, err := s.Store.Current(mutex)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cur.(object.MutexState).Status != object.MutexLocked {
		t.Fatalf("expected mutex locked, got %v", cur)
	}
}

func TestApplyDisabledLeavesStackUntouched(t *testing.T) {
	s := New()
	mutex := s.Store.Track(object.Uninitialized{})
	apply(t, s, 0, transition.NewMutexInit(mutex))
	apply(t, s, 0, transition.NewMutexLock(mutex))

	// mutex_lock on a mutex another thread holds is disabled.
	tr := transition.Transition{Executor: 1, Op: transition.NewMutexLock(mutex)}
	status, _, err := s.Apply(tr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != transition.Disabled {
		t.Fatalf("expected Disabled, got %v", status)
	}
	if s.Depth() != 2 {
		t.Fatalf("expected depth to stay at 2 after a disabled apply, got %d", s.Depth())
	}
}

func TestUnapplyTopUsesDirectInverse(t *testing.T) {
	s := New()
	mutex := s.Store.Track(object.Uninitialized{})
	apply(t, s, 0, transition.NewMutexInit(mutex))
	apply(t, s, 0, transition.NewMutexLock(mutex))

	if err := s.UnapplyTop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Depth() != 1 {
		t.Fatalf("expected depth 1 after unapply, got %d", s.Depth())
	}
	cur, _ := s.Store.Current(mutex)
	if cur.(object.MutexState).Status != object.MutexUnlocked {
		t.Fatalf("expected mutex unlocked again, got %v", cur)
	}
}

func TestUnapplyTopEmptyStack(t *testing.T) {
	s := New()
	if err := s.UnapplyTop(); err != ErrEmptyStack {
		t.Fatalf("expected ErrEmptyStack, got %v", err)
	}
}

func TestReflectAtReplaysAcrossIrreversibleBoundary(t *testing.T) {
	s := New()
	mutex := s.Store.Track(object.Uninitialized{})
	child := s.Store.Track(object.Uninitialized{})

	apply(t, s, 0, transition.NewMutexInit(mutex))
	apply(t, s, 0, transition.NewMutexLock(mutex))
	apply(t, s, 0, transition.NewMutexUnlock(mutex))
	// thread_create is irreversible: this forces ReflectAt to snapshot+replay
	// rather than walk inverses all the way back.
	apply(t, s, 0, transition.NewThreadCreate(child, "worker", nil))
	apply(t, s, 0, transition.NewMutexLock(mutex))

	if s.Depth() != 5 {
		t.Fatalf("expected depth 5, got %d", s.Depth())
	}

	if err := s.ReflectAt(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Depth() != 2 {
		t.Fatalf("expected depth 2 after ReflectAt, got %d", s.Depth())
	}
	if s.Store.Len() != 2 {
		t.Fatalf("expected both objects, tracked before the first transition, to survive ReflectAt, got %d objects", s.Store.Len())
	}
	cur, _ := s.Store.Current(mutex)
	if cur.(object.MutexState).Status != object.MutexLocked {
		t.Fatalf("expected mutex locked at depth 2, got %v", cur)
	}
}

func TestReflectAtForwardReplayPastIrreversibleBoundary(t *testing.T) {
	s := New()
	mutex := s.Store.Track(object.Uninitialized{})
	child := s.Store.Track(object.Uninitialized{})

	apply(t, s, 0, transition.NewThreadCreate(child, "worker", nil))
	apply(t, s, 0, transition.NewMutexInit(mutex))
	apply(t, s, 0, transition.NewMutexLock(mutex))
	apply(t, s, 0, transition.NewMutexUnlock(mutex))

	// Reflecting at a depth strictly between the irreversible boundary and
	// the top exercises the snapshot+replay path without removing the
	// thread itself.
	if err := s.ReflectAt(3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Store.Len() != 2 {
		t.Fatalf("expected both objects still tracked, got %d", s.Store.Len())
	}
	cur, _ := s.Store.Current(mutex)
	if cur.(object.MutexState).Status != object.MutexLocked {
		t.Fatalf("expected mutex locked at depth 3, got %v", cur)
	}
}

func TestReflectAtOutOfRange(t *testing.T) {
	s := New()
	if err := s.ReflectAt(-1); err != ErrOutOfRange {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if err := s.ReflectAt(1); err != ErrOutOfRange {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestPendingNextTable(t *testing.T) {
	s := New()
	mutex := s.Store.Track(object.Uninitialized{})
	lock := transition.Transition{Executor: 1, Op: transition.NewMutexLock(mutex)}

	s.SetPending(1, lock)
	got, ok := s.Pending(1)
	if !ok || got.Executor != 1 {
		t.Fatalf("expected pending transition for thread 1, got %#v, ok=%v", got, ok)
	}
	s.ClearPending(1)
	if _, ok := s.Pending(1); ok {
		t.Fatalf("expected no pending transition after clear")
	}
}

func TestClockAfterJoinsDependentTransitions(t *testing.T) {
	s := New()
	mutex := s.Store.Track(object.Uninitialized{})
	apply(t, s, 0, transition.NewMutexInit(mutex))
	apply(t, s, 0, transition.NewMutexLock(mutex))
	apply(t, s, 0, transition.NewMutexUnlock(mutex))
	// thread 1 locking the same mutex is dependent with thread 0's unlock,
	// so its clock should observe thread 0's count.
	apply(t, s, 1, transition.NewMutexLock(mutex))

	top := s.Top()
	if top.Clock.Get(0) == 0 {
		t.Fatalf("expected thread 1's clock to have joined thread 0's count, got 0")
	}
}
