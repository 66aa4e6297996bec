// Package scheduler implements the DPOR exploration engine of spec.md
// §4.5: the outer explore() loop, run_to_completion_from, the §4.5.1
// backtrack-set update, and the §4.5.3 execution-depth cap. It plays the
// role the teacher's GlobalScheduler/RunScheduler split does (scheduling
// which pending event runs next against a tree.Tree-shaped exploration
// record), generalized from message delivery order to thread
// interleaving order.
package scheduler

// Config controls how deeply and how strictly the engine explores
// (spec.md §4.5.3, §4.7, §6).
type Config struct {
	// MaxThreadExecutionDepth caps how many transitions a single thread
	// may execute before the engine artificially disables it (spec.md
	// §4.5.3). Zero means unlimited.
	MaxThreadExecutionDepth uint64
	// ExtraLivenessTransitions and MinExtraLivenessTransitions configure
	// the forward-progress detector (spec.md §4.7). Zero
	// ExtraLivenessTransitions disables the check.
	ExtraLivenessTransitions    uint64
	MinExtraLivenessTransitions uint64
	// StopAtFirstDeadlock halts Explore as soon as one deadlocking
	// schedule is found (spec.md §6, §7).
	StopAtFirstDeadlock bool
}
