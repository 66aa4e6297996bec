// Package runner implements spec.md §4.6's rendezvous protocol: the
// engine single-steps each thread through a Handle, which suspends the
// thread immediately before it performs its next visible operation and
// reports that operation as a Descriptor, then blocks again until told
// to Resume.
package runner

import (
	"dporcheck/object"
	"dporcheck/transition"
)

// Descriptor is the wire shape a Handle reports for a thread's pending
// operation: enough for a transition.Registry to decode it into a
// transition.Kind without the runner package needing to know any Kind's
// internals.
type Descriptor struct {
	Discriminant transition.Discriminant
	ObjIDs       []object.ObjID
	Args         transition.Args
}
