package runner

import "context"

// Handle is the engine's view of one checked thread, real or simulated
// (spec.md §4.6). A Handle always starts already suspended before its
// first visible operation; Step reports that operation, Resume lets the
// thread actually perform it and run until its next suspension.
type Handle interface {
	// Step returns the Descriptor the thread is currently suspended
	// before. Step does not let the thread move; calling it twice in a
	// row without an intervening Resume returns the same Descriptor.
	Step(ctx context.Context) (Descriptor, error)

	// Resume lets the thread perform the operation Step last reported
	// and run until its next suspension (or exit). It returns once the
	// thread has reached that next suspension point, or ErrKilled if the
	// thread exited instead of suspending again.
	Resume(ctx context.Context) error

	// Kill terminates the thread unconditionally. Kill is idempotent.
	Kill() error
}
