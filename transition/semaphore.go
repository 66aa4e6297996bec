package transition

import (
	"fmt"

	"dporcheck/object"
)

// SemInit models sem_init.
type SemInit struct {
	Sem          object.ObjID
	InitialCount uint32
}

func NewSemInit(id object.ObjID, count uint32) *SemInit { return &SemInit{Sem: id, InitialCount: count} }

func (s *SemInit) String() string { return fmt.Sprintf("sem_init(s%d, %d)", s.Sem, s.InitialCount) }

func (s *SemInit) EnabledIn(ThreadID, object.Snapshot) bool { return true }
func (s *SemInit) CoenabledWith(other Kind) bool            { return !sameSem(s, other) }
func (s *SemInit) DependentWith(self, other Transition) bool {
	return sameSemKind(self.Op, other.Op)
}

func (s *SemInit) Modify(exec ThreadID, store *object.Store) (ApplyStatus, string, error) {
	cur, err := store.Current(s.Sem)
	if err != nil {
		return Disabled, "", err
	}
	if _, ok := cur.(object.Uninitialized); !ok {
		return UndefinedBehavior, "double sem_init on an already-initialized semaphore", nil
	}
	return Exists, "", store.Record(s.Sem, SemaphoreState{Count: s.InitialCount})
}
func (s *SemInit) IsReversible() bool                              { return true }
func (s *SemInit) Inverse(ThreadID, object.Snapshot) (Kind, bool) { return nil, true }

// SemEnqueue is the always-enabled first half of sem_wait: it registers
// the calling thread at the tail of the semaphore's wait queue (spec.md
// §4.3's two-transition encoding of sem_wait).
type SemEnqueue struct {
	Sem object.ObjID
}

func NewSemEnqueue(id object.ObjID) *SemEnqueue { return &SemEnqueue{Sem: id} }

func (s *SemEnqueue) String() string { return fmt.Sprintf("sem_enqueue(s%d)", s.Sem) }

func (s *SemEnqueue) EnabledIn(ThreadID, object.Snapshot) bool { return true }
func (s *SemEnqueue) CoenabledWith(other Kind) bool            { return true }
func (s *SemEnqueue) DependentWith(self, other Transition) bool {
	return sameSemKind(self.Op, other.Op)
}

func (s *SemEnqueue) Modify(exec ThreadID, store *object.Store) (ApplyStatus, string, error) {
	st, err := store.Current(s.Sem)
	if err != nil {
		return Disabled, "", err
	}
	ss, ok := st.(SemaphoreState)
	if !ok {
		return Disabled, "", nil
	}
	for _, t := range ss.Waiting {
		if t == exec {
			return Exists, "", nil // already enqueued; no-op
		}
	}
	next := ss.Clone().(SemaphoreState)
	next.Waiting = append(next.Waiting, exec)
	return Exists, "", store.Record(s.Sem, next)
}
func (s *SemEnqueue) IsReversible() bool { return true }
func (s *SemEnqueue) Inverse(exec ThreadID, after object.Snapshot) (Kind, bool) {
	return &semDequeue{Sem: s.Sem, Thread: exec}, true
}

// semDequeue is the inverse of SemEnqueue: it removes a specific thread
// from the wait queue without touching Count. Never produced except as an
// Inverse() result.
type semDequeue struct {
	Sem    object.ObjID
	Thread ThreadID
}

func (s *semDequeue) String() string                         { return fmt.Sprintf("sem_dequeue(s%d)", s.Sem) }
func (s *semDequeue) EnabledIn(ThreadID, object.Snapshot) bool { return true }
func (s *semDequeue) CoenabledWith(Kind) bool                 { return true }
func (s *semDequeue) DependentWith(self, other Transition) bool {
	return sameSemKind(self.Op, other.Op)
}
func (s *semDequeue) Modify(_ ThreadID, store *object.Store) (ApplyStatus, string, error) {
	st, err := store.Current(s.Sem)
	if err != nil {
		return Disabled, "", err
	}
	ss := st.(SemaphoreState).Clone().(SemaphoreState)
	out := ss.Waiting[:0]
	for _, t := range ss.Waiting {
		if t != s.Thread {
			out = append(out, t)
		}
	}
	ss.Waiting = out
	return Exists, "", store.Record(s.Sem, ss)
}
func (s *semDequeue) IsReversible() bool                              { return false }
func (s *semDequeue) Inverse(ThreadID, object.Snapshot) (Kind, bool) { return nil, false }

// SemWait is the completing half of sem_wait: enabled only once the
// calling thread holds the head of the wait queue and a post is pending
// for it (Count > 0), per spec.md §4.3.
type SemWait struct {
	Sem object.ObjID
}

func NewSemWait(id object.ObjID) *SemWait { return &SemWait{Sem: id} }

func (s *SemWait) String() string { return fmt.Sprintf("sem_wait(s%d)", s.Sem) }

func (s *SemWait) EnabledIn(exec ThreadID, snap object.Snapshot) bool {
	st, err := snap.Current(s.Sem)
	if err != nil {
		return false
	}
	ss, ok := st.(SemaphoreState)
	return ok && len(ss.Waiting) > 0 && ss.Waiting[0] == exec && ss.Count > 0
}

func (s *SemWait) CoenabledWith(other Kind) bool {
	if _, ok := other.(*SemPost); ok && sameSemKind(s, other) {
		// A sem_wait paired with its own sem_post (spec.md §4.3's
		// exception): once posted, the wait is the deterministic next
		// step for the head of the queue, not an independent choice.
		return false
	}
	return true
}

func (s *SemWait) DependentWith(self, other Transition) bool {
	return sameSemKind(self.Op, other.Op)
}

func (s *SemWait) Modify(exec ThreadID, store *object.Store) (ApplyStatus, string, error) {
	st, err := store.Current(s.Sem)
	if err != nil {
		return Disabled, "", err
	}
	ss, ok := st.(SemaphoreState)
	if !ok || len(ss.Waiting) == 0 || ss.Waiting[0] != exec || ss.Count == 0 {
		return Disabled, "", nil
	}
	next := ss.Clone().(SemaphoreState)
	next.Count--
	next.Waiting = next.Waiting[1:]
	return Exists, "", store.Record(s.Sem, next)
}
func (s *SemWait) IsReversible() bool { return true }
func (s *SemWait) Inverse(exec ThreadID, after object.Snapshot) (Kind, bool) {
	return &semUnwait{Sem: s.Sem, Thread: exec}, true
}

// semUnwait is the inverse of SemWait: restores Count and re-inserts the
// thread at the head of the queue. Never produced except as an Inverse()
// result.
type semUnwait struct {
	Sem    object.ObjID
	Thread ThreadID
}

func (s *semUnwait) String() string                         { return fmt.Sprintf("sem_unwait(s%d)", s.Sem) }
func (s *semUnwait) EnabledIn(ThreadID, object.Snapshot) bool { return true }
func (s *semUnwait) CoenabledWith(Kind) bool                 { return true }
func (s *semUnwait) DependentWith(self, other Transition) bool {
	return sameSemKind(self.Op, other.Op)
}
func (s *semUnwait) Modify(_ ThreadID, store *object.Store) (ApplyStatus, string, error) {
	st, err := store.Current(s.Sem)
	if err != nil {
		return Disabled, "", err
	}
	ss := st.(SemaphoreState).Clone().(SemaphoreState)
	ss.Count++
	ss.Waiting = append([]ThreadID{s.Thread}, ss.Waiting...)
	return Exists, "", store.Record(s.Sem, ss)
}
func (s *semUnwait) IsReversible() bool                              { return false }
func (s *semUnwait) Inverse(ThreadID, object.Snapshot) (Kind, bool) { return nil, false }

// SemPost models sem_post: always enabled, increments Count.
type SemPost struct {
	Sem object.ObjID
}

func NewSemPost(id object.ObjID) *SemPost { return &SemPost{Sem: id} }

func (s *SemPost) String() string { return fmt.Sprintf("sem_post(s%d)", s.Sem) }

func (s *SemPost) EnabledIn(ThreadID, object.Snapshot) bool { return true }

func (s *SemPost) CoenabledWith(other Kind) bool {
	if _, ok := other.(*SemWait); ok && sameSemKind(s, other) {
		return false
	}
	return true
}

func (s *SemPost) DependentWith(self, other Transition) bool {
	return sameSemKind(self.Op, other.Op)
}

func (s *SemPost) Modify(exec ThreadID, store *object.Store) (ApplyStatus, string, error) {
	st, err := store.Current(s.Sem)
	if err != nil {
		return Disabled, "", err
	}
	ss, ok := st.(SemaphoreState)
	if !ok {
		return Disabled, "", nil
	}
	next := ss.Clone().(SemaphoreState)
	next.Count++
	return Exists, "", store.Record(s.Sem, next)
}
func (s *SemPost) IsReversible() bool { return true }
func (s *SemPost) Inverse(ThreadID, object.Snapshot) (Kind, bool) {
	return &semUnpost{Sem: s.Sem}, true
}

// semUnpost is the inverse of SemPost. Never produced except as an
// Inverse() result.
type semUnpost struct {
	Sem object.ObjID
}

func (s *semUnpost) String() string                         { return fmt.Sprintf("sem_unpost(s%d)", s.Sem) }
func (s *semUnpost) EnabledIn(ThreadID, object.Snapshot) bool { return true }
func (s *semUnpost) CoenabledWith(Kind) bool                 { return true }
func (s *semUnpost) DependentWith(self, other Transition) bool {
	return sameSemKind(self.Op, other.Op)
}
func (s *semUnpost) Modify(_ ThreadID, store *object.Store) (ApplyStatus, string, error) {
	st, err := store.Current(s.Sem)
	if err != nil {
		return Disabled, "", err
	}
	ss := st.(SemaphoreState).Clone().(SemaphoreState)
	ss.Count--
	return Exists, "", store.Record(s.Sem, ss)
}
func (s *semUnpost) IsReversible() bool                              { return false }
func (s *semUnpost) Inverse(ThreadID, object.Snapshot) (Kind, bool) { return nil, false }

func semID(k Kind) (object.ObjID, bool) {
	switch s := k.(type) {
	case *SemInit:
		return s.Sem, true
	case *SemEnqueue:
		return s.Sem, true
	case *semDequeue:
		return s.Sem, true
	case *SemWait:
		return s.Sem, true
	case *semUnwait:
		return s.Sem, true
	case *SemPost:
		return s.Sem, true
	case *semUnpost:
		return s.Sem, true
	default:
		return 0, false
	}
}

func sameSemKind(a, b Kind) bool {
	id1, ok1 := semID(a)
	id2, ok2 := semID(b)
	return ok1 && ok2 && id1 == id2
}

func sameSem(a, b Kind) bool { return sameSemKind(a, b) }
