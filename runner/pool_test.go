package runner_test

import (
	"context"
	"testing"

	"dporcheck/object"
	"dporcheck/runner"
	"dporcheck/transition"
)

func TestPoolSpawnAndAdvance(t *testing.T) {
	ctx := context.Background()
	reg := transition.DefaultRegistry()
	pool := runner.NewPool(reg)

	h := runner.NewChannelHandle()
	go func() {
		h.Post(ctx, runner.Descriptor{Discriminant: transition.DiscMutexInit, ObjIDs: []object.ObjID{1}})
		h.Post(ctx, runner.Descriptor{Discriminant: transition.DiscMutexLock, ObjIDs: []object.ObjID{1}})
		h.Finish()
	}()

	first, err := pool.Spawn(ctx, 0, h)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if first.Executor != 0 {
		t.Errorf("Spawn executor = %d, want 0", first.Executor)
	}
	if _, ok := first.Op.(*transition.MutexInit); !ok {
		t.Errorf("Spawn Op = %T, want *transition.MutexInit", first.Op)
	}

	next, err := pool.Advance(ctx, 0)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if _, ok := next.Op.(*transition.MutexLock); !ok {
		t.Errorf("Advance Op = %T, want *transition.MutexLock", next.Op)
	}

	if _, err := pool.Advance(ctx, 0); err != runner.ErrKilled {
		t.Errorf("Advance after Finish = %v, want ErrKilled", err)
	}
}

func TestPoolAdvanceUnknownThread(t *testing.T) {
	pool := runner.NewPool(transition.DefaultRegistry())
	if _, err := pool.Advance(context.Background(), 99); err != runner.ErrUnknownThread {
		t.Errorf("Advance unknown thread = %v, want ErrUnknownThread", err)
	}
}
