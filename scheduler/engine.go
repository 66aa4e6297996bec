package scheduler

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slices"

	"dporcheck/detector"
	"dporcheck/internal/dlog"
	"dporcheck/object"
	"dporcheck/runner"
	"dporcheck/sequence"
	"dporcheck/transition"
	"dporcheck/tree"
)

// HandleFactory builds the runner.Handle for a newly created thread
// (spec.md §6 point 3's thread_create exception). The engine calls it
// once per thread_create transition it applies, and again for every
// thread in a Replay prefix when rewinding to an earlier state.
type HandleFactory func(child transition.ThreadID) (runner.Handle, error)

// Engine drives one stateless-DPOR exploration (spec.md §4.5). Create
// one with NewEngine and call Explore exactly once.
type Engine struct {
	seq  *sequence.Sequence
	pool *runner.Pool
	det  detector.Set
	cfg  Config

	hooks Hooks
	log   *dlog.Logger
	spawn HandleFactory

	executedDepth map[transition.ThreadID]uint64
	lastGoal      map[transition.ThreadID]uint64
	seenRaces     map[raceKey]struct{}

	TraceID      uint64
	TransitionID uint64

	root  tree.Tree[string]
	nodes []*tree.Tree[string]

	report Report
}

// NewEngine returns an Engine seeded with thread 0 (the main thread)
// already suspended before its first visible operation, as reported by
// initial. spawn builds a Handle for every subsequently created thread.
func NewEngine(ctx context.Context, cfg Config, reg *transition.Registry, initial runner.Handle, spawn HandleFactory) (*Engine, error) {
	seq := sequence.New()
	seq.Store.Track(object.ThreadState{LifecycleState: object.Alive})

	pool := runner.NewPool(reg)
	e := &Engine{
		seq:           seq,
		pool:          pool,
		det:           detector.NewSet(detector.Config{ExtraLivenessTransitions: cfg.ExtraLivenessTransitions, MinExtraLivenessTransitions: cfg.MinExtraLivenessTransitions}),
		cfg:           cfg,
		log:           dlog.Default(),
		spawn:         spawn,
		executedDepth: make(map[transition.ThreadID]uint64),
		lastGoal:      make(map[transition.ThreadID]uint64),
		seenRaces:     make(map[raceKey]struct{}),
	}
	e.root = tree.New("root", func(a, b string) bool { return a == b })
	e.nodes = []*tree.Tree[string]{&e.root}

	first, err := pool.Spawn(ctx, 0, initial)
	if err != nil {
		return nil, fmt.Errorf("scheduler: spawning initial thread: %w", err)
	}
	seq.SetPending(0, first)
	return e, nil
}

// Track allocates a new visible-object id seeded with initial, for
// whatever assigns ids to new mutexes/semaphores/condition
// variables/barriers/globals before their first transition runs
// (spec.md §4.2 "called once per object by whichever layer first learns
// of it"). Must be called before any transition referencing the
// returned id is applied.
func (e *Engine) Track(initial object.State) object.ObjID {
	return e.seq.Store.Track(initial)
}

// SetHooks installs h, replacing any previous Hooks.
func (e *Engine) SetHooks(h Hooks) { e.hooks = h }

// SetLogger installs l in place of the default stderr logger.
func (e *Engine) SetLogger(l *dlog.Logger) { e.log = l }

// Explore runs spec.md §4.5's explore() to completion, visiting every
// schedule the DPOR backtrack sets discover, and returns a summary of
// every violation found.
func (e *Engine) Explore(ctx context.Context) (Report, error) {
	e.seed()

	for {
		depth := e.seq.Depth()
		item := &e.seq.States[depth]

		for {
			tid, ok := firstUndone(item)
			if !ok {
				break
			}
			item.Done.Add(tid)
			item.Backtrack.Remove(tid)

			if t, ok := e.seq.Pending(tid); ok {
				if err := e.runToCompletionFrom(ctx, t); err != nil {
					return e.finish(), err
				}
				if err := e.rewindTo(ctx, depth); err != nil {
					return e.finish(), err
				}
			}
			item = &e.seq.States[depth]
		}

		if depth == 0 {
			break
		}
		if err := e.rewindTo(ctx, depth-1); err != nil {
			return e.finish(), err
		}
	}

	return e.finish(), nil
}

func (e *Engine) finish() Report {
	e.report.TraceID = e.TraceID
	e.report.TransitionID = e.TransitionID
	e.report.Tree = &e.root
	return e.report
}

// seed populates the root state's backtrack set with a single enabled
// thread, per spec.md §4.5's "push initial state with backtrack_set =
// {any enabled thread}"; run_to_completion_from already visits every
// other enabled thread in the same schedule, so one seed suffices.
func (e *Engine) seed() {
	if t, ok := e.firstEnabledPending(); ok {
		e.seq.States[0].Backtrack.Add(t.Executor)
	}
}

// firstEnabledPending returns the lowest-tid enabled, non-artificially-
// disabled pending transition, spec.md §4.5's "first enabled transition
// in pending next-table (deterministic order by tid)".
func (e *Engine) firstEnabledPending() (transition.Transition, bool) {
	ids := make([]transition.ThreadID, 0, len(e.seq.PendingNext))
	for tid := range e.seq.PendingNext {
		ids = append(ids, tid)
	}
	slices.Sort(ids)

	snap := e.seq.Store.Snapshot()
	for _, tid := range ids {
		if e.artificiallyDisabled(tid) {
			continue
		}
		t, _ := e.seq.Pending(tid)
		if t.EnabledIn(snap) {
			return t, true
		}
	}
	return transition.Transition{}, false
}

// artificiallyDisabled implements spec.md §4.5.3: a thread whose
// executed_depth has reached the configured cap is disabled regardless
// of what its pending transition actually is.
func (e *Engine) artificiallyDisabled(tid transition.ThreadID) bool {
	if e.cfg.MaxThreadExecutionDepth == 0 {
		return false
	}
	return e.executedDepth[tid] >= e.cfg.MaxThreadExecutionDepth
}

// runToCompletionFrom implements spec.md §4.5's run_to_completion_from:
// apply t, update bookkeeping and backtrack sets, check violations, then
// keep going with whichever thread's pending transition is first
// enabled until none is.
func (e *Engine) runToCompletionFrom(ctx context.Context, t0 transition.Transition) error {
	t := t0
	for {
		status, reason, err := e.seq.Apply(t)
		if err != nil {
			return fmt.Errorf("scheduler: applying %s: %w", t, err)
		}
		switch status {
		case transition.Disabled:
			return fmt.Errorf("scheduler: run_to_completion_from was handed a disabled transition %s", t)
		case transition.UndefinedBehavior:
			e.log.Violation("%s: %s", t, reason)
			e.report.UndefinedBehaviors = append(e.report.UndefinedBehaviors, UBReport{Transition: t, Reason: reason})
		}

		e.TransitionID++
		e.executedDepth[t.Executor]++
		if _, ok := t.Op.(*transition.ThreadReachGoal); ok {
			e.lastGoal[t.Executor] = e.executedDepth[t.Executor]
		}
		e.recordTreeNode(t)

		if tc, ok := t.Op.(*transition.ThreadCreate); ok {
			if err := e.spawnChild(ctx, transition.ThreadID(tc.Child)); err != nil {
				return err
			}
		}

		e.updateBacktrackSets(e.seq.Depth() - 1)
		e.checkViolations()

		e.TraceID++
		if e.hooks.OnTrace != nil {
			e.hooks.OnTrace(e.TraceID)
		}
		if e.cfg.StopAtFirstDeadlock && len(e.report.Deadlocks) > 0 {
			return nil
		}

		next, err := e.pool.Advance(ctx, t.Executor)
		if err != nil {
			if errors.Is(err, runner.ErrKilled) {
				e.seq.ClearPending(t.Executor)
			} else {
				return fmt.Errorf("scheduler: advancing thread %d: %w", t.Executor, err)
			}
		} else {
			e.seq.SetPending(t.Executor, next)
		}

		nt, ok := e.firstEnabledPending()
		if !ok {
			return nil
		}
		t = nt
	}
}

func (e *Engine) spawnChild(ctx context.Context, child transition.ThreadID) error {
	if e.spawn == nil {
		return fmt.Errorf("scheduler: no HandleFactory configured to spawn thread %d", child)
	}
	h, err := e.spawn(child)
	if err != nil {
		return fmt.Errorf("scheduler: spawning thread %d: %w", child, err)
	}
	first, err := e.pool.Spawn(ctx, child, h)
	if err != nil {
		return fmt.Errorf("scheduler: stepping newly spawned thread %d: %w", child, err)
	}
	e.seq.SetPending(child, first)
	return nil
}

// raceKey identifies a racing pair by address and the unordered pair of
// executors involved, not by transition-stack index: the same unordered
// pair can recur at different indices across the many schedules Explore
// visits, and spec.md §4.7/S5 wants it reported exactly once overall.
type raceKey struct {
	addr   object.ObjID
	lo, hi transition.ThreadID
}

func newRaceKey(addr object.ObjID, a, b transition.ThreadID) raceKey {
	if a > b {
		a, b = b, a
	}
	return raceKey{addr: addr, lo: a, hi: b}
}

func (e *Engine) checkViolations() {
	deadlock, races, progress := e.det.Check(e.seq, e.executedDepth, e.lastGoal)
	if deadlock.Deadlocked {
		e.log.Violation("deadlock: stalled threads %v", deadlock.Stalled)
		e.report.Deadlocks = append(e.report.Deadlocks, deadlock)
	}
	for _, r := range races {
		key := newRaceKey(r.Addr, e.seq.Executor(r.A), e.seq.Executor(r.B))
		if _, seen := e.seenRaces[key]; seen {
			continue
		}
		e.seenRaces[key] = struct{}{}
		e.log.Violation("%s", r)
		e.report.Races = append(e.report.Races, r)
	}
	for _, p := range progress {
		e.log.Violation("%s", p)
		e.report.ForwardProgress = append(e.report.ForwardProgress, p)
	}
}

func (e *Engine) recordTreeNode(t transition.Transition) {
	parent := e.nodes[len(e.nodes)-1]
	label := t.String()
	child := parent.GetChild(label)
	if child == nil {
		child = parent.AddChild(label)
	}
	e.nodes = append(e.nodes, child)
}

// rewindTo restores the sequence, the runner pool, and per-thread
// bookkeeping to the state they held after exactly depth transitions,
// per spec.md §4.6 "Replay": the engine cannot rewind a live thread, so
// it kills every handle and replays the recorded prefix against fresh
// ones instead.
func (e *Engine) rewindTo(ctx context.Context, depth int) error {
	if err := e.seq.ReflectAt(depth); err != nil {
		return fmt.Errorf("scheduler: reflecting store to depth %d: %w", depth, err)
	}
	if depth+1 < len(e.nodes) {
		e.nodes = e.nodes[:depth+1]
	}

	pending, err := runner.Replay(ctx, e.seq.Transitions[:depth], e.pool, e.spawn)
	if err != nil {
		return fmt.Errorf("scheduler: replaying prefix to depth %d: %w", depth, err)
	}
	// Thread 0 always exists from depth 0 onward, but an empty (or
	// thread-0-free) prefix gives Replay nothing to drive it through;
	// make sure it is still registered and pending after rewinding to
	// such a depth.
	if _, ok := pending[0]; !ok {
		if _, already := e.pool.Handle(0); !already {
			h, err := e.spawn(0)
			if err != nil {
				return fmt.Errorf("scheduler: respawning thread 0 at depth %d: %w", depth, err)
			}
			t, err := e.pool.Spawn(ctx, 0, h)
			if err != nil {
				return fmt.Errorf("scheduler: stepping respawned thread 0 at depth %d: %w", depth, err)
			}
			pending[0] = t
		}
	}
	for tid := range e.seq.PendingNext {
		e.seq.ClearPending(tid)
	}
	for tid, t := range pending {
		e.seq.SetPending(tid, t)
	}

	e.recomputeBookkeeping(depth)
	return nil
}

func (e *Engine) recomputeBookkeeping(depth int) {
	executed := make(map[transition.ThreadID]uint64)
	goal := make(map[transition.ThreadID]uint64)
	for i := 0; i < depth; i++ {
		t := e.seq.Transitions[i]
		executed[t.Executor]++
		if _, ok := t.Op.(*transition.ThreadReachGoal); ok {
			goal[t.Executor] = executed[t.Executor]
		}
	}
	e.executedDepth = executed
	e.lastGoal = goal
}
