package runner_test

import (
	"context"
	"testing"
	"time"

	"dporcheck/object"
	"dporcheck/runner"
	"dporcheck/transition"
)

func TestChannelHandleStepResume(t *testing.T) {
	ctx := context.Background()
	h := runner.NewChannelHandle()

	go func() {
		if err := h.Post(ctx, runner.Descriptor{Discriminant: transition.DiscMutexLock, ObjIDs: []object.ObjID{1}}); err != nil {
			t.Errorf("Post 1: %v", err)
			return
		}
		if err := h.Post(ctx, runner.Descriptor{Discriminant: transition.DiscMutexUnlock, ObjIDs: []object.ObjID{1}}); err != nil {
			t.Errorf("Post 2: %v", err)
			return
		}
		h.Finish()
	}()

	d, err := h.Step(ctx)
	if err != nil {
		t.Fatalf("Step 1: %v", err)
	}
	if d.Discriminant != transition.DiscMutexLock {
		t.Errorf("Step 1 discriminant = %v, want mutex_lock", d.Discriminant)
	}

	// Step again without Resume returns the same pending descriptor.
	d2, err := h.Step(ctx)
	if err != nil || d2.Discriminant != d.Discriminant {
		t.Errorf("repeat Step = %v, %v, want same descriptor", d2, err)
	}

	if err := h.Resume(ctx); err != nil {
		t.Fatalf("Resume 1: %v", err)
	}
	d3, err := h.Step(ctx)
	if err != nil {
		t.Fatalf("Step 2: %v", err)
	}
	if d3.Discriminant != transition.DiscMutexUnlock {
		t.Errorf("Step 2 discriminant = %v, want mutex_unlock", d3.Discriminant)
	}

	if err := h.Resume(ctx); err != runner.ErrKilled {
		t.Fatalf("Resume 2 (thread finishes) = %v, want ErrKilled", err)
	}
	if _, err := h.Step(ctx); err != runner.ErrKilled {
		t.Errorf("Step after Finish = %v, want ErrKilled", err)
	}
}

func TestChannelHandleKillUnblocksPost(t *testing.T) {
	ctx := context.Background()
	h := runner.NewChannelHandle()
	postErr := make(chan error, 1)

	go func() {
		postErr <- h.Post(ctx, runner.Descriptor{Discriminant: transition.DiscMutexLock})
	}()

	// Wait for Post to publish its descriptor, then kill before Resume.
	if _, err := h.Step(ctx); err != nil {
		t.Fatalf("Step: %v", err)
	}
	h.Kill()

	select {
	case err := <-postErr:
		if err != runner.ErrKilled {
			t.Errorf("Post after Kill = %v, want ErrKilled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Post never unblocked after Kill")
	}
}
