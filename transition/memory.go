package transition

import (
	"fmt"

	"dporcheck/object"
)

// globalState tracks a shared memory location's last-written value. The
// value itself never affects enabledness; it exists so a report can show
// what a racing read actually saw.
type globalState struct {
	Value any
}

func (g globalState) Clone() object.State { return globalState{Value: g.Value} }
func (g globalState) String() string      { return fmt.Sprintf("global{%v}", g.Value) }

// NewGlobalState returns the initial state of a global variable, prior to
// any write.
func NewGlobalState(initial any) object.State { return globalState{Value: initial} }

// GlobalRead models a read of a shared global. Always enabled.
type GlobalRead struct {
	Addr object.ObjID
}

func NewGlobalRead(addr object.ObjID) *GlobalRead { return &GlobalRead{Addr: addr} }

func (g *GlobalRead) String() string { return fmt.Sprintf("global_read(g%d)", g.Addr) }

func (g *GlobalRead) EnabledIn(ThreadID, object.Snapshot) bool { return true }
func (g *GlobalRead) CoenabledWith(Kind) bool                  { return true }

// DependentWith implements spec.md §4.3's data-race exception: two
// global_reads of the same address are independent, since reordering them
// can never change what either read observes.
func (g *GlobalRead) DependentWith(self, other Transition) bool {
	if !sameGlobal(self.Op, other.Op) {
		return false
	}
	_, otherIsRead := other.Op.(*GlobalRead)
	return !otherIsRead
}

func (g *GlobalRead) Modify(_ ThreadID, store *object.Store) (ApplyStatus, string, error) {
	if _, err := store.Current(g.Addr); err != nil {
		return Disabled, "", err
	}
	return Exists, "", nil
}
func (g *GlobalRead) IsReversible() bool                              { return true }
func (g *GlobalRead) Inverse(ThreadID, object.Snapshot) (Kind, bool) { return globalNoop{}, true }

// globalNoop is GlobalRead's inverse: a read never mutates the store.
type globalNoop struct{}

func (globalNoop) String() string                           { return "global_read_noop" }
func (globalNoop) EnabledIn(ThreadID, object.Snapshot) bool  { return true }
func (globalNoop) CoenabledWith(Kind) bool                   { return true }
func (globalNoop) DependentWith(Transition, Transition) bool { return false }
func (globalNoop) Modify(ThreadID, *object.Store) (ApplyStatus, string, error) {
	return Exists, "", nil
}
func (globalNoop) IsReversible() bool                              { return false }
func (globalNoop) Inverse(ThreadID, object.Snapshot) (Kind, bool) { return nil, false }

// GlobalWrite models a write to a shared global. Always enabled, and
// dependent with any other access (read or write) of the same address.
type GlobalWrite struct {
	Addr  object.ObjID
	Value any
}

func NewGlobalWrite(addr object.ObjID, value any) *GlobalWrite {
	return &GlobalWrite{Addr: addr, Value: value}
}

func (g *GlobalWrite) String() string { return fmt.Sprintf("global_write(g%d, %v)", g.Addr, g.Value) }

func (g *GlobalWrite) EnabledIn(ThreadID, object.Snapshot) bool { return true }
func (g *GlobalWrite) CoenabledWith(Kind) bool                  { return true }

func (g *GlobalWrite) DependentWith(self, other Transition) bool {
	return sameGlobal(self.Op, other.Op)
}

func (g *GlobalWrite) Modify(_ ThreadID, store *object.Store) (ApplyStatus, string, error) {
	st, err := store.Current(g.Addr)
	if err != nil {
		return Disabled, "", err
	}
	if _, ok := st.(globalState); !ok {
		return Disabled, "", nil
	}
	return Exists, "", store.Record(g.Addr, globalState{Value: g.Value})
}
func (g *GlobalWrite) IsReversible() bool { return true }
func (g *GlobalWrite) Inverse(_ ThreadID, after object.Snapshot) (Kind, bool) {
	prev, err := after.Previous(g.Addr)
	if err != nil {
		return nil, false
	}
	gs, ok := prev.(globalState)
	if !ok {
		return nil, false
	}
	return &globalUnwrite{Addr: g.Addr, PriorValue: gs.Value}, true
}

// globalUnwrite is GlobalWrite's inverse; it is only ever produced by
// GlobalWrite.Inverse, which resolves the prior value from the history
// entry before the write (object.Snapshot.Previous).
type globalUnwrite struct {
	Addr       object.ObjID
	PriorValue any
}

func (g *globalUnwrite) String() string { return fmt.Sprintf("global_unwrite(g%d)", g.Addr) }
func (g *globalUnwrite) EnabledIn(ThreadID, object.Snapshot) bool { return true }
func (g *globalUnwrite) CoenabledWith(Kind) bool                  { return true }
func (g *globalUnwrite) DependentWith(self, other Transition) bool {
	return sameGlobal(self.Op, other.Op)
}
func (g *globalUnwrite) Modify(_ ThreadID, store *object.Store) (ApplyStatus, string, error) {
	return Exists, "", store.Record(g.Addr, globalState{Value: g.PriorValue})
}
func (g *globalUnwrite) IsReversible() bool                              { return false }
func (g *globalUnwrite) Inverse(ThreadID, object.Snapshot) (Kind, bool) { return nil, false }

func globalID(k Kind) (object.ObjID, bool) {
	switch g := k.(type) {
	case *GlobalRead:
		return g.Addr, true
	case *GlobalWrite:
		return g.Addr, true
	case *globalUnwrite:
		return g.Addr, true
	default:
		return 0, false
	}
}

func sameGlobal(a, b Kind) bool {
	id1, ok1 := globalID(a)
	id2, ok2 := globalID(b)
	return ok1 && ok2 && id1 == id2
}
