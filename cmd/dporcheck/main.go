// Command dporcheck runs the stateless-DPOR engine over a small demo
// program and prints whatever violations it finds, the way the teacher's
// examples/*/main.go binaries wire up gomc.NewSimulator over a toy Node
// and dump the resulting event/state tree.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"dporcheck/config"
	"dporcheck/object"
	"dporcheck/runner"
	"dporcheck/scheduler"
	"dporcheck/transition"
)

func main() {
	os.Exit(run())
}

func run() int {
	maxThreadDepth := flag.Uint64("max-thread-depth", 0, "cap on transitions a single thread may execute (0 = unlimited)")
	extraLiveness := flag.Uint64("check-forward-progress", 0, "transitions past a thread's last goal before it is flagged stalled (0 disables the check)")
	minOthersLiveness := flag.Uint64("min-others-progress", 1, "minimum transitions every other thread must make before a stall counts")
	stopAtFirstDeadlock := flag.Bool("stop-at-first-deadlock", false, "halt exploration as soon as one deadlock is found")
	flag.Parse()

	if config.IsTemplateLoop() {
		// The template-process warm pool (runner.Template) is an
		// in-process detail the engine's embedder drives directly;
		// there is no standalone template-loop binary to exec here.
		fmt.Fprintln(os.Stderr, "dporcheck: libmcmini-template-loop is not a standalone mode of this binary")
		return 1
	}

	opts := []config.Option{
		config.WithMaxThreadExecutionDepth(*maxThreadDepth),
	}
	if *extraLiveness > 0 {
		opts = append(opts, config.WithExtraLivenessTransitions(*extraLiveness, *minOthersLiveness))
	}
	if *stopAtFirstDeadlock {
		opts = append(opts, config.WithStopAtFirstDeadlock())
	}
	opts = append(opts, config.FromEnvironment()...)
	settings := config.Apply(opts...)

	cfg := scheduler.Config{
		MaxThreadExecutionDepth:     settings.MaxThreadExecutionDepth,
		ExtraLivenessTransitions:    settings.ExtraLivenessTransitions,
		MinExtraLivenessTransitions: settings.MinExtraLivenessTransitions,
		StopAtFirstDeadlock:         settings.StopAtFirstDeadlock,
	}

	ctx := context.Background()
	reg := transition.DefaultRegistry()

	const childID object.ObjID = 1
	const counterAddr object.ObjID = 2

	spawn := racingCounterProgram(childID, counterAddr)
	initial, err := spawn(0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dporcheck: building initial thread: %v\n", err)
		return 1
	}

	e, err := scheduler.NewEngine(ctx, cfg, reg, initial, spawn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dporcheck: %v\n", err)
		return 1
	}
	if settings.DebugAtTrace != 0 || settings.PrintAtTrace != 0 {
		e.SetHooks(scheduler.Hooks{OnTrace: func(traceID uint64) {
			if settings.PrintAtTrace != 0 && traceID == settings.PrintAtTrace {
				fmt.Fprintf(os.Stderr, "dporcheck: reached trace %d\n", traceID)
			}
		}})
	}
	e.Track(object.Uninitialized{})       // childID
	e.Track(transition.NewGlobalState(0)) // counterAddr

	report, err := e.Explore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dporcheck: exploration failed: %v\n", err)
		return 1
	}

	for _, d := range report.Deadlocks {
		fmt.Printf("deadlock: stalled threads %v\n", d.Stalled)
	}
	for _, r := range report.Races {
		fmt.Println(r)
	}
	for _, p := range report.ForwardProgress {
		fmt.Println(p)
	}
	for _, u := range report.UndefinedBehaviors {
		fmt.Println(u)
	}
	fmt.Printf("explored %d traces, %d transitions\n", report.TraceID, report.TransitionID)

	if report.Clean() || (cfg.StopAtFirstDeadlock && len(report.Deadlocks) > 0) {
		return 0
	}
	return 1
}

// racingCounterProgram is the demo checked program: thread 0 creates
// thread 1, then each thread writes its own value to a shared counter
// with no synchronization between them, so the two writes race in every
// schedule.
func racingCounterProgram(childID, counterAddr object.ObjID) scheduler.HandleFactory {
	return func(tid transition.ThreadID) (runner.Handle, error) {
		h := runner.NewChannelHandle()
		go func() {
			ctx := context.Background()
			switch tid {
			case 0:
				h.Post(ctx, runner.Descriptor{
					Discriminant: transition.DiscThreadCreate,
					ObjIDs:       []object.ObjID{childID},
					Args:         transition.Args{Name: "incrementer"},
				})
				h.Post(ctx, runner.Descriptor{
					Discriminant: transition.DiscGlobalWrite,
					ObjIDs:       []object.ObjID{counterAddr},
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
					ObjIDs:       []object.ObjID{counterAddr},
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
