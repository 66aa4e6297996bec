// Package detector implements the three violation predicates of spec.md
// §4.7: deadlock, data race, and forward-progress, evaluated against the
// current transition stack after every scheduler.Engine.Apply. It is
// grounded on checking/predicateChecker.go's PredicateChecker idiom
// (depth-first evaluation of fixed predicates over recorded state),
// generalized here from a user-supplied predicate over a node's local
// state to the three fixed predicates spec.md §4.7 names.
package detector

import (
	"fmt"

	"dporcheck/object"
	"dporcheck/sequence"
	"dporcheck/transition"
)

// Config carries the parameters the forward-progress predicate needs.
// Kept in this package rather than referencing scheduler.Config directly
// so detector and scheduler do not import each other.
type Config struct {
	// ExtraLivenessTransitions is how many transitions a thread may run
	// past its last thread_reach_goal before it is in violation, provided
	// every other thread has made at least MinExtraLivenessTransitions
	// progress in the meantime (spec.md §4.7).
	ExtraLivenessTransitions uint64
	// MinExtraLivenessTransitions is the minimum number of transitions
	// every other thread must have executed since p's last goal before p's
	// own stall counts as a violation (spec.md §9 Open Question 3).
	MinExtraLivenessTransitions uint64
}

// Report summarizes a deadlock check.
type Report struct {
	Deadlocked bool
	// Stalled holds the live threads whose pending transition is disabled.
	Stalled []transition.ThreadID
}

// Deadlock reports whether every live thread's pending transition is
// genuinely disabled (spec.md §4.7 "Deadlock"). A thread's pending entry
// reflects real enabledness only; the execution-depth cap (spec.md §4.5.3)
// is a scheduler-level artificial disability and never reaches seq's
// pending next-table, so it plays no part here.
func Deadlock(seq *sequence.Sequence) (bool, Report) {
	if len(seq.PendingNext) == 0 {
		return false, Report{}
	}
	snap := seq.Store.Snapshot()
	stalled := make([]transition.ThreadID, 0, len(seq.PendingNext))
	for tid, t := range seq.PendingNext {
		if !t.EnabledIn(snap) {
			stalled = append(stalled, tid)
		}
	}
	deadlocked := len(stalled) == len(seq.PendingNext)
	return deadlocked, Report{Deadlocked: deadlocked, Stalled: stalled}
}

// RaceReport names one detected data race: two dependent memory-access
// transitions, at stack indices A and B (A < B), on the same address, with
// no happens-before relation between them.
type RaceReport struct {
	A, B int
	Addr object.ObjID
}

func (r RaceReport) String() string {
	return fmt.Sprintf("data race on g%d between transition %d and %d", r.Addr, r.A, r.B)
}

func memoryAddr(k transition.Kind) (object.ObjID, bool, bool) {
	switch v := k.(type) {
	case *transition.GlobalRead:
		return v.Addr, false, true
	case *transition.GlobalWrite:
		return v.Addr, true, true
	default:
		return 0, false, false
	}
}

// DataRace reports every racing pair that involves the most recently
// applied transition (spec.md §4.7 "Data race"). The scheduler calls this
// once per Apply, so scanning only against the new top transition is
// sufficient to surface every race exactly once per unordered pair, rather
// than re-examining the whole stack on every step.
func DataRace(seq *sequence.Sequence) []RaceReport {
	top := seq.Depth() - 1
	if top < 0 {
		return nil
	}
	addrB, isWriteB, isMemB := memoryAddr(seq.Transitions[top].Op)
	if !isMemB {
		return nil
	}
	var races []RaceReport
	for i := 0; i < top; i++ {
		addrA, isWriteA, isMemA := memoryAddr(seq.Transitions[i].Op)
		if !isMemA || addrA != addrB {
			continue
		}
		if !isWriteA && !isWriteB {
			continue // two reads never race
		}
		if !seq.Transitions[i].DependentWith(seq.Transitions[top]) {
			continue
		}
		if seq.SyncHappensBefore(i, top) {
			continue
		}
		races = append(races, RaceReport{A: i, B: top, Addr: addrB})
	}
	return races
}

// ProgressReport names one thread found to be in forward-progress
// violation, per spec.md §4.7's precise definition.
type ProgressReport struct {
	Thread        transition.ThreadID
	LastGoalIndex uint64
	ExecutedDepth uint64
}

func (r ProgressReport) String() string {
	return fmt.Sprintf("thread %d made no forward progress: %d transitions since its last goal at %d",
		r.Thread, r.ExecutedDepth-r.LastGoalIndex, r.LastGoalIndex)
}

// ForwardProgress implements spec.md §4.7's forward-progress predicate.
// executedDepth and lastGoal are the per-thread bookkeeping
// scheduler.Engine already maintains (spec.md §3 "Per-thread data"); they
// are passed in rather than recomputed here so the predicate stays a pure
// function of the counters the engine updates incrementally on every
// Apply, instead of rescanning the whole transition stack per call.
func ForwardProgress(cfg Config, executedDepth, lastGoal map[transition.ThreadID]uint64) []ProgressReport {
	if cfg.ExtraLivenessTransitions == 0 {
		return nil
	}
	var violations []ProgressReport
	for p, depthP := range executedDepth {
		goalP := lastGoal[p]
		if depthP-goalP < cfg.ExtraLivenessTransitions {
			continue
		}
		allOthersProgressed := true
		for q, depthQ := range executedDepth {
			if q == p {
				continue
			}
			if depthQ < lastGoal[p] || depthQ-lastGoal[p] < cfg.MinExtraLivenessTransitions {
				allOthersProgressed = false
				break
			}
		}
		if allOthersProgressed {
			violations = append(violations, ProgressReport{
				Thread:        p,
				LastGoalIndex: goalP,
				ExecutedDepth: depthP,
			})
		}
	}
	return violations
}

// Set bundles the three detectors and is what scheduler.Engine actually
// invokes after every Apply (spec.md §4.7 preamble).
type Set struct {
	Cfg Config
}

// NewSet returns a Set configured with cfg.
func NewSet(cfg Config) Set { return Set{Cfg: cfg} }

// Check runs all three detectors against the current sequence state and
// per-thread bookkeeping, returning every violation found at this step.
func (s Set) Check(seq *sequence.Sequence, executedDepth, lastGoal map[transition.ThreadID]uint64) (deadlock Report, races []RaceReport, progress []ProgressReport) {
	_, deadlock = Deadlock(seq)
	races = DataRace(seq)
	progress = ForwardProgress(s.Cfg, executedDepth, lastGoal)
	return
}
