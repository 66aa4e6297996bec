package runner

import "errors"

// ErrKilled is returned by a Handle's Step/Resume once it has been
// Killed or once its thread has finished.
var ErrKilled = errors.New("runner: handle was killed")

// ErrUnknownThread is returned when a Pool operation names a thread id
// with no registered Handle.
var ErrUnknownThread = errors.New("runner: no handle registered for thread")
