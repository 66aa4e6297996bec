package scheduler

import (
	"fmt"

	"dporcheck/detector"
	"dporcheck/transition"
	"dporcheck/tree"
)

// UBReport names one undefined-behavior finding: a transition that ran
// against an object already in an inconsistent state (double-init, an
// unlock by a non-owner, ...), spec.md §4's UBReason supplement.
type UBReport struct {
	Transition transition.Transition
	Reason     string
}

func (r UBReport) String() string {
	return fmt.Sprintf("undefined behavior at %s: %s", r.Transition, r.Reason)
}

// Report summarizes one call to Engine.Explore (spec.md §1.5): every
// violation found, the final trace/transition counters (spec.md §6
// "Persisted state"), and the explored schedule tree.
type Report struct {
	Deadlocks          []detector.Report
	Races              []detector.RaceReport
	ForwardProgress    []detector.ProgressReport
	UndefinedBehaviors []UBReport

	TraceID      uint64
	TransitionID uint64

	// Tree is the schedule tree explore() built, one child per distinct
	// transition observed at that point across every schedule tried,
	// mirroring the teacher's tree.Tree-backed state.StateSpace. Nil
	// until Explore returns.
	Tree *tree.Tree[string]
}

// Clean reports whether no violation of any kind was found.
func (r Report) Clean() bool {
	return len(r.Deadlocks) == 0 && len(r.Races) == 0 &&
		len(r.ForwardProgress) == 0 && len(r.UndefinedBehaviors) == 0
}
