package object

import "errors"

// ErrUnknownObject is returned when an operation names an ObjID the store
// has never tracked.
var ErrUnknownObject = errors.New("object: unknown object id")

// ObjID is a dense, non-negative id issued by a Store. Object ids are never
// reused, even across ConsumeIntoSubsequence.
type ObjID int

// VisibleObject is the append-only history of a single visible object.
// Invariant: len(History) >= 1; element 0 is the initial state, the last
// element is the current state.
type VisibleObject struct {
	History []State
}

func newVisibleObject(initial State) VisibleObject {
	return VisibleObject{History: []State{initial}}
}

// Current returns the most recently recorded state.
func (o VisibleObject) Current() State {
	return o.History[len(o.History)-1]
}

// push appends next to the object's history.
func (o *VisibleObject) push(next State) {
	o.History = append(o.History, next)
}

// Slice returns a deep copy of the object restricted to its first k states.
func (o VisibleObject) Slice(k int) VisibleObject {
	if k > len(o.History) {
		k = len(o.History)
	}
	out := make([]State, k)
	for i := 0; i < k; i++ {
		out[i] = o.History[i].Clone()
	}
	return VisibleObject{History: out}
}

// Store is the versioned collection of visible objects tracked during one
// exploration of the transition stack.
type Store struct {
	objects []VisibleObject
}

// NewStore returns an empty store.
func NewStore() Store {
	return Store{objects: nil}
}

// Track appends a new visible object whose history starts at initial, and
// returns its freshly minted id.
func (s *Store) Track(initial State) ObjID {
	s.objects = append(s.objects, newVisibleObject(initial))
	return ObjID(len(s.objects) - 1)
}

func (s *Store) contains(id ObjID) bool {
	return id >= 0 && int(id) < len(s.objects)
}

// Record appends next as the new current state of the object named by id.
func (s *Store) Record(id ObjID, next State) error {
	if !s.contains(id) {
		return ErrUnknownObject
	}
	s.objects[id].push(next)
	return nil
}

// Current returns the current state of the object named by id.
func (s Store) Current(id ObjID) (State, error) {
	if !s.contains(id) {
		return nil, ErrUnknownObject
	}
	return s.objects[id].Current(), nil
}

// Len returns the number of tracked objects.
func (s Store) Len() int {
	return len(s.objects)
}

// Snapshot returns a read-only view of the store's current states, for use
// by transitions that need to read state without being able to mutate it.
func (s Store) Snapshot() Snapshot {
	return Snapshot{store: s}
}

// ConsumeIntoSubsequence returns a new Store whose every visible object is
// truncated to the number of states given by the matching entry in
// lengths, i.e. the store as it looked at some earlier point in the
// transition stack. lengths is produced and owned by package sequence,
// which is the only component that knows how many states each object had
// accumulated at any given transition-stack index (spec.md §4.4.1's
// irreversible-state bookkeeping). Objects created after the target point
// (absent from lengths) are dropped, since object ids are assigned in
// transition-stack order and never reused.
func (s Store) ConsumeIntoSubsequence(lengths []int) Store {
	n := len(lengths)
	if n > len(s.objects) {
		n = len(s.objects)
	}
	out := make([]VisibleObject, n)
	for idx := 0; idx < n; idx++ {
		out[idx] = s.objects[idx].Slice(lengths[idx])
	}
	return Store{objects: out}
}

// HistoryLengths returns, for every currently tracked object, the number
// of states in its history. Used by package sequence to snapshot the
// lengths needed for a later ConsumeIntoSubsequence call.
func (s Store) HistoryLengths() []int {
	out := make([]int, len(s.objects))
	for i, obj := range s.objects {
		out[i] = len(obj.History)
	}
	return out
}

// Clone returns a deep copy of the store.
func (s Store) Clone() Store {
	out := make([]VisibleObject, len(s.objects))
	for i, obj := range s.objects {
		out[i] = obj.Slice(len(obj.History))
	}
	return Store{objects: out}
}

// Snapshot is an immutable view over a Store's current states.
type Snapshot struct {
	store Store
}

// Current returns the current state of the object named by id.
func (v Snapshot) Current(id ObjID) (State, error) {
	return v.store.Current(id)
}

// Previous returns the state an object held immediately before its
// current one, i.e. History[len-2]. Used by Kind.Inverse implementations
// (global_write) whose undo needs the value a mutation overwrote, not
// just the mutation's own before/after judgment.
func (v Snapshot) Previous(id ObjID) (State, error) {
	if !v.store.contains(id) {
		return nil, ErrUnknownObject
	}
	hist := v.store.objects[id].History
	if len(hist) < 2 {
		return nil, ErrUnknownObject
	}
	return hist[len(hist)-2], nil
}

// Len returns the number of tracked objects visible in the snapshot.
func (v Snapshot) Len() int {
	return v.store.Len()
}
