package runner

import (
	"context"

	"dporcheck/transition"
)

// Pool owns the live Handle for every thread the engine currently knows
// about and decodes each Handle's reported Descriptor through a shared
// transition.Registry (spec.md §4.6, §9).
type Pool struct {
	registry *transition.Registry
	handles  map[transition.ThreadID]Handle
}

// NewPool returns an empty Pool decoding descriptors through reg.
func NewPool(reg *transition.Registry) *Pool {
	return &Pool{registry: reg, handles: make(map[transition.ThreadID]Handle)}
}

// Register installs h as tid's Handle, replacing any prior one without
// killing it; callers that mean to replace a live handle should Kill it
// first.
func (p *Pool) Register(tid transition.ThreadID, h Handle) {
	p.handles[tid] = h
}

// Handle returns tid's registered Handle, if any.
func (p *Pool) Handle(tid transition.ThreadID) (Handle, bool) {
	h, ok := p.handles[tid]
	return h, ok
}

// Handles returns the live registration table. Callers must not mutate
// the returned map.
func (p *Pool) Handles() map[transition.ThreadID]Handle {
	return p.handles
}

// Remove drops tid's registration without killing its Handle.
func (p *Pool) Remove(tid transition.ThreadID) {
	delete(p.handles, tid)
}

func (p *Pool) decode(tid transition.ThreadID, d Descriptor) (transition.Transition, error) {
	kind, err := p.registry.Decode(d.Discriminant, d.ObjIDs, d.Args)
	if err != nil {
		return transition.Transition{}, err
	}
	return transition.Transition{Executor: tid, Op: kind}, nil
}

// Spawn registers h as tid's Handle and steps it once to learn its
// first pending transition, the counterpart of a thread_create's
// implicit thread_start suspension (spec.md §4.3's ThreadCreate).
func (p *Pool) Spawn(ctx context.Context, tid transition.ThreadID, h Handle) (transition.Transition, error) {
	p.Register(tid, h)
	desc, err := h.Step(ctx)
	if err != nil {
		return transition.Transition{}, err
	}
	return p.decode(tid, desc)
}

// Advance lets tid perform the transition its Handle is currently
// suspended before, then reports tid's next pending transition.
func (p *Pool) Advance(ctx context.Context, tid transition.ThreadID) (transition.Transition, error) {
	h, ok := p.handles[tid]
	if !ok {
		return transition.Transition{}, ErrUnknownThread
	}
	if err := h.Resume(ctx); err != nil {
		return transition.Transition{}, err
	}
	desc, err := h.Step(ctx)
	if err != nil {
		return transition.Transition{}, err
	}
	return p.decode(tid, desc)
}

// KillAll terminates every registered Handle, for use before a Replay
// or at the end of exploration.
func (p *Pool) KillAll() {
	for _, h := range p.handles {
		h.Kill()
	}
}
