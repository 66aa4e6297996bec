package transition

import (
	"fmt"

	"dporcheck/object"
)

// goalState tracks whether a thread is inside a goal critical section.
// Only the Enter/ExitGoalCriticalSection transitions read it: the
// forward-progress detector does not consult it, so a thread inside a
// critical section is judged like any other.
type goalState struct {
	InCriticalSection bool
}

func (g goalState) Clone() object.State { return goalState{InCriticalSection: g.InCriticalSection} }
func (g goalState) String() string      { return fmt.Sprintf("goal{critical=%v}", g.InCriticalSection) }

// NewGoalState returns a thread's initial goal-tracking state, outside
// any critical section.
func NewGoalState() object.State { return goalState{} }

func goalStateOf(store *object.Store, id object.ObjID) (goalState, bool) {
	st, err := store.Current(id)
	if err != nil {
		return goalState{}, false
	}
	gs, ok := st.(goalState)
	return gs, ok
}

// ThreadReachGoal is a marker transition: the executing thread has
// reached its next forward-progress checkpoint. It never mutates the
// store; scheduler.Engine records the thread's executed-transition count
// each time one is applied and hands that map to detector.ForwardProgress
// as lastGoal (spec.md §7's last_goal[p]).
type ThreadReachGoal struct {
	Self object.ObjID
}

func NewThreadReachGoal(self object.ObjID) *ThreadReachGoal { return &ThreadReachGoal{Self: self} }

func (t *ThreadReachGoal) String() string { return fmt.Sprintf("thread_reach_goal(t%d)", t.Self) }

func (t *ThreadReachGoal) EnabledIn(ThreadID, object.Snapshot) bool { return true }
func (t *ThreadReachGoal) CoenabledWith(Kind) bool                  { return true }
func (t *ThreadReachGoal) DependentWith(Transition, Transition) bool { return false }
func (t *ThreadReachGoal) Modify(ThreadID, *object.Store) (ApplyStatus, string, error) {
	return Exists, "", nil
}
func (t *ThreadReachGoal) IsReversible() bool                              { return true }
func (t *ThreadReachGoal) Inverse(ThreadID, object.Snapshot) (Kind, bool) { return goalNoop{}, true }

// ThreadRequestNewGoal is a marker transition: the executing thread is
// asking the harness for its next forward-progress checkpoint. Like
// ThreadReachGoal it never mutates the store.
type ThreadRequestNewGoal struct {
	Self object.ObjID
}

func NewThreadRequestNewGoal(self object.ObjID) *ThreadRequestNewGoal {
	return &ThreadRequestNewGoal{Self: self}
}

func (t *ThreadRequestNewGoal) String() string {
	return fmt.Sprintf("thread_request_new_goal(t%d)", t.Self)
}
func (t *ThreadRequestNewGoal) EnabledIn(ThreadID, object.Snapshot) bool  { return true }
func (t *ThreadRequestNewGoal) CoenabledWith(Kind) bool                  { return true }
func (t *ThreadRequestNewGoal) DependentWith(Transition, Transition) bool { return false }
func (t *ThreadRequestNewGoal) Modify(ThreadID, *object.Store) (ApplyStatus, string, error) {
	return Exists, "", nil
}
func (t *ThreadRequestNewGoal) IsReversible() bool { return true }
func (t *ThreadRequestNewGoal) Inverse(ThreadID, object.Snapshot) (Kind, bool) {
	return goalNoop{}, true
}

type goalNoop struct{}

func (goalNoop) String() string                           { return "goal_noop" }
func (goalNoop) EnabledIn(ThreadID, object.Snapshot) bool  { return true }
func (goalNoop) CoenabledWith(Kind) bool                   { return true }
func (goalNoop) DependentWith(Transition, Transition) bool { return false }
func (goalNoop) Modify(ThreadID, *object.Store) (ApplyStatus, string, error) {
	return Exists, "", nil
}
func (goalNoop) IsReversible() bool                              { return false }
func (goalNoop) Inverse(ThreadID, object.Snapshot) (Kind, bool) { return nil, false }

// EnterGoalCriticalSection marks the executing thread as inside a goal
// critical section. The mark has no effect on the forward-progress
// detector.
type EnterGoalCriticalSection struct {
	Self object.ObjID
}

func NewEnterGoalCriticalSection(self object.ObjID) *EnterGoalCriticalSection {
	return &EnterGoalCriticalSection{Self: self}
}

func (e *EnterGoalCriticalSection) String() string {
	return fmt.Sprintf("enter_goal_critical_section(t%d)", e.Self)
}

func (e *EnterGoalCriticalSection) EnabledIn(_ ThreadID, snap object.Snapshot) bool {
	st, err := snap.Current(e.Self)
	if err != nil {
		return false
	}
	gs, ok := st.(goalState)
	return ok && !gs.InCriticalSection
}

func (e *EnterGoalCriticalSection) CoenabledWith(Kind) bool { return true }
func (e *EnterGoalCriticalSection) DependentWith(self, other Transition) bool {
	return sameGoal(self.Op, other.Op)
}

func (e *EnterGoalCriticalSection) Modify(exec ThreadID, store *object.Store) (ApplyStatus, string, error) {
	gs, ok := goalStateOf(store, e.Self)
	if !ok {
		return Disabled, "", nil
	}
	if gs.InCriticalSection {
		return UndefinedBehavior, "nested enter_goal_critical_section", nil
	}
	return Exists, "", store.Record(e.Self, goalState{InCriticalSection: true})
}
func (e *EnterGoalCriticalSection) IsReversible() bool { return true }
func (e *EnterGoalCriticalSection) Inverse(ThreadID, object.Snapshot) (Kind, bool) {
	return &exitGoalCriticalSectionInverse{Self: e.Self}, true
}

type exitGoalCriticalSectionInverse struct {
	Self object.ObjID
}

func (e *exitGoalCriticalSectionInverse) String() string {
	return fmt.Sprintf("enter_goal_critical_section_undo(t%d)", e.Self)
}
func (e *exitGoalCriticalSectionInverse) EnabledIn(ThreadID, object.Snapshot) bool { return true }
func (e *exitGoalCriticalSectionInverse) CoenabledWith(Kind) bool                 { return true }
func (e *exitGoalCriticalSectionInverse) DependentWith(self, other Transition) bool {
	return sameGoal(self.Op, other.Op)
}
func (e *exitGoalCriticalSectionInverse) Modify(_ ThreadID, store *object.Store) (ApplyStatus, string, error) {
	return Exists, "", store.Record(e.Self, goalState{InCriticalSection: false})
}
func (e *exitGoalCriticalSectionInverse) IsReversible() bool { return false }
func (e *exitGoalCriticalSectionInverse) Inverse(ThreadID, object.Snapshot) (Kind, bool) {
	return nil, false
}

// ExitGoalCriticalSection ends the region started by
// EnterGoalCriticalSection.
type ExitGoalCriticalSection struct {
	Self object.ObjID
}

func NewExitGoalCriticalSection(self object.ObjID) *ExitGoalCriticalSection {
	return &ExitGoalCriticalSection{Self: self}
}

func (e *ExitGoalCriticalSection) String() string {
	return fmt.Sprintf("exit_goal_critical_section(t%d)", e.Self)
}

func (e *ExitGoalCriticalSection) EnabledIn(_ ThreadID, snap object.Snapshot) bool {
	st, err := snap.Current(e.Self)
	if err != nil {
		return false
	}
	gs, ok := st.(goalState)
	return ok && gs.InCriticalSection
}

func (e *ExitGoalCriticalSection) CoenabledWith(Kind) bool { return true }
func (e *ExitGoalCriticalSection) DependentWith(self, other Transition) bool {
	return sameGoal(self.Op, other.Op)
}

func (e *ExitGoalCriticalSection) Modify(exec ThreadID, store *object.Store) (ApplyStatus, string, error) {
	gs, ok := goalStateOf(store, e.Self)
	if !ok || !gs.InCriticalSection {
		return Disabled, "", nil
	}
	return Exists, "", store.Record(e.Self, goalState{InCriticalSection: false})
}
func (e *ExitGoalCriticalSection) IsReversible() bool { return true }
func (e *ExitGoalCriticalSection) Inverse(ThreadID, object.Snapshot) (Kind, bool) {
	return &enterGoalCriticalSectionInverse{Self: e.Self}, true
}

type enterGoalCriticalSectionInverse struct {
	Self object.ObjID
}

func (e *enterGoalCriticalSectionInverse) String() string {
	return fmt.Sprintf("exit_goal_critical_section_undo(t%d)", e.Self)
}
func (e *enterGoalCriticalSectionInverse) EnabledIn(ThreadID, object.Snapshot) bool { return true }
func (e *enterGoalCriticalSectionInverse) CoenabledWith(Kind) bool                 { return true }
func (e *enterGoalCriticalSectionInverse) DependentWith(self, other Transition) bool {
	return sameGoal(self.Op, other.Op)
}
func (e *enterGoalCriticalSectionInverse) Modify(_ ThreadID, store *object.Store) (ApplyStatus, string, error) {
	return Exists, "", store.Record(e.Self, goalState{InCriticalSection: true})
}
func (e *enterGoalCriticalSectionInverse) IsReversible() bool { return false }
func (e *enterGoalCriticalSectionInverse) Inverse(ThreadID, object.Snapshot) (Kind, bool) {
	return nil, false
}

func goalID(k Kind) (object.ObjID, bool) {
	switch g := k.(type) {
	case *EnterGoalCriticalSection:
		return g.Self, true
	case *exitGoalCriticalSectionInverse:
		return g.Self, true
	case *ExitGoalCriticalSection:
		return g.Self, true
	case *enterGoalCriticalSectionInverse:
		return g.Self, true
	default:
		return 0, false
	}
}

func sameGoal(a, b Kind) bool {
	id1, ok1 := goalID(a)
	id2, ok2 := goalID(b)
	return ok1 && ok2 && id1 == id2
}
