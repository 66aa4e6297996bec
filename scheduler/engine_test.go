package scheduler_test

import (
	"context"
	"testing"

	"dporcheck/object"
	"dporcheck/runner"
	"dporcheck/scheduler"
	"dporcheck/transition"
)

// racingProgram returns a HandleFactory driving a fixed two-thread
// schedule: thread 0 creates thread 1, then both write to the same
// global with no synchronization between them. Every Replay call spawns
// a fresh goroutine per thread id, so the program must be deterministic
// and replayable from its very first Post, exactly as spec.md §4.6
// assumes of the checked program itself.
func racingProgram(childID, globalAddr object.ObjID) scheduler.HandleFactory {
	return func(tid transition.ThreadID) (runner.Handle, error) {
		h := runner.NewChannelHandle()
		go func() {
			ctx := context.Background()
			switch tid {
			case 0:
				h.Post(ctx, runner.Descriptor{
					Discriminant: transition.DiscThreadCreate,
					ObjIDs:       []object.ObjID{childID},
					Args:         transition.Args{Name: "child"},
				})
				h.Post(ctx, runner.Descriptor{
					Discriminant: transition.DiscGlobalWrite,
					ObjIDs:       []object.ObjID{globalAddr},
					Args:         transition.Args{Value: 1},
				})
				h.Finish()
			case 1:
				h.Post(ctx, runner.Descriptor{
					Discriminant: transition.DiscThreadStart,
					ObjIDs:       []object.ObjID{childID},
				})
				h.Post(ctx, runner.Descriptor{
					Discriminant: transition.DiscGlobalWrite,
					ObjIDs:       []object.ObjID{globalAddr},
					Args:         transition.Args{Value: 2},
				})
				h.Post(ctx, runner.Descriptor{
					Discriminant: transition.DiscThreadFinish,
					ObjIDs:       []object.ObjID{childID},
				})
				h.Finish()
			}
		}()
		return h, nil
	}
}

func TestExploreDetectsDataRace(t *testing.T) {
	ctx := context.Background()
	reg := transition.DefaultRegistry()

	const childID object.ObjID = 1
	const globalAddr object.ObjID = 2

	spawn := racingProgram(childID, globalAddr)
	initial, err := spawn(0)
	if err != nil {
		t.Fatalf("building initial thread: %v", err)
	}

	e, err := scheduler.NewEngine(ctx, scheduler.Config{}, reg, initial, spawn)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if got := e.Track(object.Uninitialized{}); got != childID {
		t.Fatalf("expected child object id %d, got %d", childID, got)
	}
	if got := e.Track(transition.NewGlobalState(0)); got != globalAddr {
		t.Fatalf("expected global object id %d, got %d", globalAddr, got)
	}

	report, err := e.Explore(ctx)
	if err != nil {
		t.Fatalf("Explore: %v", err)
	}
	if len(report.Races) == 0 {
		t.Fatalf("expected at least one data race across the explored schedules, found none: %+v", report)
	}
}

// lockOrderProgram builds the classic A/B vs. B/A deadlock: thread 0
// initializes both mutexes, then both threads lock them in opposite
// order.
func lockOrderProgram(childID, mutexA, mutexB object.ObjID) scheduler.HandleFactory {
	return func(tid transition.ThreadID) (runner.Handle, error) {
		h := runner.NewChannelHandle()
		go func() {
			ctx := context.Background()
			switch tid {
			case 0:
				h.Post(ctx, runner.Descriptor{Discriminant: transition.DiscMutexInit, ObjIDs: []object.ObjID{mutexA}})
				h.Post(ctx, runner.Descriptor{Discriminant: transition.DiscMutexInit, ObjIDs: []object.ObjID{mutexB}})
				h.Post(ctx, runner.Descriptor{
					Discriminant: transition.DiscThreadCreate,
					ObjIDs:       []object.ObjID{childID},
					Args:         transition.Args{Name: "child"},
				})
				h.Post(ctx, runner.Descriptor{Discriminant: transition.DiscMutexLock, ObjIDs: []object.ObjID{mutexA}})
				h.Post(ctx, runner.Descriptor{Discriminant: transition.DiscMutexLock, ObjIDs: []object.ObjID{mutexB}})
				h.Post(ctx, runner.Descriptor{Discriminant: transition.DiscMutexUnlock, ObjIDs: []object.ObjID{mutexB}})
				h.Post(ctx, runner.Descriptor{Discriminant: transition.DiscMutexUnlock, ObjIDs: []object.ObjID{mutexA}})
				h.Finish()
			case 1:
				h.Post(ctx, runner.Descriptor{
					Discriminant: transition.DiscThreadStart,
					ObjIDs:       []object.ObjID{childID},
				})
				h.Post(ctx, runner.Descriptor{Discriminant: transition.DiscMutexLock, ObjIDs: []object.ObjID{mutexB}})
				h.Post(ctx, runner.Descriptor{Discriminant: transition.DiscMutexLock, ObjIDs: []object.ObjID{mutexA}})
				h.Post(ctx, runner.Descriptor{Discriminant: transition.DiscMutexUnlock, ObjIDs: []object.ObjID{mutexA}})
				h.Post(ctx, runner.Descriptor{Discriminant: transition.DiscMutexUnlock, ObjIDs: []object.ObjID{mutexB}})
				h.Post(ctx, runner.Descriptor{
					Discriminant: transition.DiscThreadFinish,
					ObjIDs:       []object.ObjID{childID},
				})
				h.Finish()
			}
		}()
		return h, nil
	}
}

func TestExploreDetectsDeadlock(t *testing.T) {
	ctx := context.Background()
	reg := transition.DefaultRegistry()

	const childID object.ObjID = 1
	const mutexA object.ObjID = 2
	const mutexB object.ObjID = 3

	spawn := lockOrderProgram(childID, mutexA, mutexB)
	initial, err := spawn(0)
	if err != nil {
		t.Fatalf("building initial thread: %v", err)
	}

	e, err := scheduler.NewEngine(ctx, scheduler.Config{}, reg, initial, spawn)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	e.Track(object.Uninitialized{}) // childID
	e.Track(object.Uninitialized{}) // mutexA
	e.Track(object.Uninitialized{}) // mutexB

	report, err := e.Explore(ctx)
	if err != nil {
		t.Fatalf("Explore: %v", err)
	}
	if len(report.Deadlocks) == 0 {
		t.Fatalf("expected at least one deadlocking schedule among those explored, found none: %+v", report)
	}
}
