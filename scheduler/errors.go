package scheduler

import "errors"

// ErrExplorationDone names a second Explore on an Engine that has already
// exhausted its state space. Explore does not check for that case and
// never returns this value.
var ErrExplorationDone = errors.New("scheduler: exploration already completed")

// ErrNoInitialThread names an initial thread whose Handle never suspends
// before a first visible operation. NewEngine never returns this value; it
// returns the error from spawning the initial thread instead.
var ErrNoInitialThread = errors.New("scheduler: initial thread reported no pending transition")
