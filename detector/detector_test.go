package detector_test

import (
	"testing"

	"dporcheck/detector"
	"dporcheck/object"
	"dporcheck/sequence"
	"dporcheck/transition"
)

func mustApply(t *testing.T, seq *sequence.Sequence, tr transition.Transition) {
	t.Helper()
	status, reason, err := seq.Apply(tr)
	if err != nil {
		t.Fatalf("apply %v: %v", tr, err)
	}
	if status != transition.Exists {
		t.Fatalf("apply %v: got status %v (%s), want Exists", tr, status, reason)
	}
}

func TestDeadlockTwoThreadsOppositeLockOrder(t *testing.T) {
	seq := sequence.New()
	m1 := seq.Store.Track(object.Uninitialized{})
	m2 := seq.Store.Track(object.Uninitialized{})

	mustApply(t, seq, transition.Transition{Executor: 0, Op: transition.NewMutexInit(m1)})
	mustApply(t, seq, transition.Transition{Executor: 0, Op: transition.NewMutexInit(m2)})
	mustApply(t, seq, transition.Transition{Executor: 0, Op: transition.NewMutexLock(m1)})
	mustApply(t, seq, transition.Transition{Executor: 1, Op: transition.NewMutexLock(m2)})

	seq.PendingNext = map[transition.ThreadID]*transition.Transition{}
	seq.SetPending(0, transition.Transition{Executor: 0, Op: transition.NewMutexLock(m2)})
	seq.SetPending(1, transition.Transition{Executor: 1, Op: transition.NewMutexLock(m1)})

	deadlocked, report := detector.Deadlock(seq)
	if !deadlocked {
		t.Fatalf("expected deadlock, got none: %+v", report)
	}
	if len(report.Stalled) != 2 {
		t.Fatalf("expected both threads stalled, got %v", report.Stalled)
	}
}

func TestDeadlockFalseWhenSomeThreadEnabled(t *testing.T) {
	seq := sequence.New()
	m1 := seq.Store.Track(object.Uninitialized{})
	mustApply(t, seq, transition.Transition{Executor: 0, Op: transition.NewMutexInit(m1)})

	seq.SetPending(0, transition.Transition{Executor: 0, Op: transition.NewMutexLock(m1)})
	seq.SetPending(1, transition.Transition{Executor: 1, Op: transition.NewGlobalRead(m1)})

	deadlocked, _ := detector.Deadlock(seq)
	if deadlocked {
		t.Fatal("expected no deadlock: thread 1's global_read is always enabled")
	}
}

func TestDataRaceUnorderedWrites(t *testing.T) {
	seq := sequence.New()
	g := seq.Store.Track(transition.NewGlobalState(0))

	mustApply(t, seq, transition.Transition{Executor: 0, Op: transition.NewGlobalWrite(g, 1)})
	mustApply(t, seq, transition.Transition{Executor: 1, Op: transition.NewGlobalWrite(g, 2)})

	races := detector.DataRace(seq)
	if len(races) != 1 {
		t.Fatalf("expected exactly one race, got %d: %v", len(races), races)
	}
	if races[0].A != 0 || races[0].B != 1 {
		t.Fatalf("unexpected race indices: %+v", races[0])
	}
}

func TestDataRaceNoneBetweenTwoReads(t *testing.T) {
	seq := sequence.New()
	g := seq.Store.Track(transition.NewGlobalState(0))

	mustApply(t, seq, transition.Transition{Executor: 0, Op: transition.NewGlobalRead(g)})
	mustApply(t, seq, transition.Transition{Executor: 1, Op: transition.NewGlobalRead(g)})

	if races := detector.DataRace(seq); len(races) != 0 {
		t.Fatalf("expected no race between two reads, got %v", races)
	}
}

func TestForwardProgressViolation(t *testing.T) {
	cfg := detector.Config{ExtraLivenessTransitions: 8, MinExtraLivenessTransitions: 4}
	executedDepth := map[transition.ThreadID]uint64{0: 20, 1: 10}
	lastGoal := map[transition.ThreadID]uint64{0: 5, 1: 5}

	violations := detector.ForwardProgress(cfg, executedDepth, lastGoal)
	if len(violations) != 1 || violations[0].Thread != 0 {
		t.Fatalf("expected thread 0 flagged, got %v", violations)
	}
}

func TestForwardProgressNoneWhenOthersStalled(t *testing.T) {
	cfg := detector.Config{ExtraLivenessTransitions: 8, MinExtraLivenessTransitions: 4}
	executedDepth := map[transition.ThreadID]uint64{0: 20, 1: 2}
	lastGoal := map[transition.ThreadID]uint64{0: 5, 1: 0}

	if violations := detector.ForwardProgress(cfg, executedDepth, lastGoal); len(violations) != 0 {
		t.Fatalf("expected no violation while thread 1 has not progressed enough, got %v", violations)
	}
}
