package runner

import (
	"context"

	"dporcheck/transition"
)

// Replay kills every Handle currently in pool, then drives prefix's
// recorded transitions in order against freshly spawned handles built
// by spawn, one per newly-seen thread id. It is spec.md §4.6's answer
// to reaching an arbitrary explored state again when the underlying
// process/thread cannot itself be rewound: re-execute the schedule that
// produced it from scratch.
//
// Replay assumes the checked program is deterministic given the same
// schedule, so each thread's Handle reports the same Descriptor
// sequence it did the first time; it does not itself verify this.
// Callers that want that check should compare the returned pending
// transitions against prefix's own recorded successors.
func Replay(ctx context.Context, prefix []transition.Transition, pool *Pool, spawn func(tid transition.ThreadID) (Handle, error)) (map[transition.ThreadID]transition.Transition, error) {
	pool.KillAll()
	for tid := range pool.Handles() {
		pool.Remove(tid)
	}

	pending := make(map[transition.ThreadID]transition.Transition)
	for _, t := range prefix {
		if _, ok := pool.Handle(t.Executor); !ok {
			h, err := spawn(t.Executor)
			if err != nil {
				return nil, err
			}
			next, err := pool.Spawn(ctx, t.Executor, h)
			if err != nil {
				return nil, err
			}
			pending[t.Executor] = next
		}
		next, err := pool.Advance(ctx, t.Executor)
		if err != nil {
			return nil, err
		}
		pending[t.Executor] = next
	}
	return pending, nil
}
