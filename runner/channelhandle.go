package runner

import (
	"context"
	"sync"
)

// ChannelHandle is an in-process Handle backed by a goroutine: two
// unbuffered channels stand in for the teacher's named-pipe rendezvous
// (fifo/fifo.go, rrb/rrb.go's request/reply pair), one per direction,
// so a simulated thread and the engine can single-step each other
// without any real process boundary.
type ChannelHandle struct {
	fromThread chan Descriptor
	toThread   chan struct{}
	done       chan struct{}
	killed     chan struct{}
	onceDone   sync.Once
	onceKill   sync.Once

	pending     Descriptor
	havePending bool
}

// NewChannelHandle returns a ChannelHandle with no pending descriptor.
// The caller is expected to run the simulated thread's body in its own
// goroutine, calling Post before every visible operation and Finish
// once it has none left.
func NewChannelHandle() *ChannelHandle {
	return &ChannelHandle{
		fromThread: make(chan Descriptor),
		toThread:   make(chan struct{}),
		done:       make(chan struct{}),
		killed:     make(chan struct{}),
	}
}

// Post is called from the simulated thread's own goroutine immediately
// before it performs the operation d describes: it reports d to the
// engine side and blocks until Resume releases it.
func (h *ChannelHandle) Post(ctx context.Context, d Descriptor) error {
	select {
	case h.fromThread <- d:
	case <-h.killed:
		return ErrKilled
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-h.toThread:
		return nil
	case <-h.killed:
		return ErrKilled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Finish is called from the simulated thread's goroutine once it has no
// further visible operations, so a blocked Step/Resume sees the thread
// has exited rather than hanging forever.
func (h *ChannelHandle) Finish() {
	h.onceDone.Do(func() { close(h.done) })
}

func (h *ChannelHandle) Step(ctx context.Context) (Descriptor, error) {
	if h.havePending {
		return h.pending, nil
	}
	select {
	case d := <-h.fromThread:
		h.pending, h.havePending = d, true
		return d, nil
	case <-h.done:
		return Descriptor{}, ErrKilled
	case <-h.killed:
		return Descriptor{}, ErrKilled
	case <-ctx.Done():
		return Descriptor{}, ctx.Err()
	}
}

func (h *ChannelHandle) Resume(ctx context.Context) error {
	if !h.havePending {
		if _, err := h.Step(ctx); err != nil {
			return err
		}
	}
	h.havePending = false
	select {
	case h.toThread <- struct{}{}:
	case <-h.killed:
		return ErrKilled
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case d := <-h.fromThread:
		h.pending, h.havePending = d, true
		return nil
	case <-h.done:
		return ErrKilled
	case <-h.killed:
		return ErrKilled
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *ChannelHandle) Kill() error {
	h.onceKill.Do(func() { close(h.killed) })
	return nil
}
