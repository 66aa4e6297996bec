package transition

import (
	"fmt"

	"dporcheck/object"
)

// Discriminant names a TransitionKind variant on the wire between a
// runner and the engine (spec.md §9's "registration table maps
// TransitionKind discriminant -> shim-decoder, filling the role of the
// source's runtime type-info map").
type Discriminant uint8

const (
	DiscMutexInit Discriminant = iota
	DiscMutexLock
	DiscMutexUnlock
	DiscMutexDestroy
	DiscSemInit
	DiscSemEnqueue
	DiscSemWait
	DiscSemPost
	DiscCondInit
	DiscCondEnqueue
	DiscCondWait
	DiscCondSignal
	DiscCondBroadcast
	DiscBarrierInit
	DiscBarrierArrive
	DiscBarrierWait
	DiscThreadCreate
	DiscThreadStart
	DiscThreadFinish
	DiscThreadJoin
	DiscExit
	DiscGlobalRead
	DiscGlobalWrite
	DiscThreadReachGoal
	DiscThreadRequestNewGoal
	DiscEnterGoalCriticalSection
	DiscExitGoalCriticalSection
)

func (d Discriminant) String() string {
	if s, ok := discriminantNames[d]; ok {
		return s
	}
	return fmt.Sprintf("discriminant(%d)", uint8(d))
}

var discriminantNames = map[Discriminant]string{
	DiscMutexInit:                "mutex_init",
	DiscMutexLock:                "mutex_lock",
	DiscMutexUnlock:              "mutex_unlock",
	DiscMutexDestroy:             "mutex_destroy",
	DiscSemInit:                  "sem_init",
	DiscSemEnqueue:               "sem_enqueue",
	DiscSemWait:                  "sem_wait",
	DiscSemPost:                  "sem_post",
	DiscCondInit:                 "cond_init",
	DiscCondEnqueue:              "cond_enqueue",
	DiscCondWait:                 "cond_wait",
	DiscCondSignal:               "cond_signal",
	DiscCondBroadcast:            "cond_broadcast",
	DiscBarrierInit:              "barrier_init",
	DiscBarrierArrive:            "barrier_arrive",
	DiscBarrierWait:              "barrier_wait",
	DiscThreadCreate:             "thread_create",
	DiscThreadStart:              "thread_start",
	DiscThreadFinish:             "thread_finish",
	DiscThreadJoin:               "thread_join",
	DiscExit:                     "exit",
	DiscGlobalRead:               "global_read",
	DiscGlobalWrite:              "global_write",
	DiscThreadReachGoal:          "thread_reach_goal",
	DiscThreadRequestNewGoal:     "thread_request_new_goal",
	DiscEnterGoalCriticalSection: "enter_goal_critical_section",
	DiscExitGoalCriticalSection:  "exit_goal_critical_section",
}

// Args carries the discriminant-specific arguments a shim decoder needs
// beyond the object ids involved. Most variants use none of these; the
// few that do (sem_init's count, barrier_init's threshold, global_write's
// value) read the matching field.
type Args struct {
	Count     uint32
	Threshold uint32
	Value     any
	Name      string // ThreadCreate's start-routine symbol
}

// Decoder builds a Kind from the object ids a runner names in its
// transition descriptor plus any scalar Args.
type Decoder func(ids []object.ObjID, args Args) (Kind, error)

// Registry maps Discriminant to Decoder, the role spec.md §9 assigns to
// the source's runtime type-info map now that TransitionKind is a closed
// union rather than an open class hierarchy.
type Registry struct {
	decoders map[Discriminant]Decoder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[Discriminant]Decoder)}
}

// Register installs dec as the decoder for d, replacing any prior one.
func (r *Registry) Register(d Discriminant, dec Decoder) {
	r.decoders[d] = dec
}

// ErrUnknownDiscriminant is returned by Decode for a discriminant with no
// registered decoder.
type ErrUnknownDiscriminant Discriminant

func (e ErrUnknownDiscriminant) Error() string {
	return fmt.Sprintf("transition: no decoder registered for %s", Discriminant(e))
}

// Decode builds the Kind named by d from ids and args.
func (r *Registry) Decode(d Discriminant, ids []object.ObjID, args Args) (Kind, error) {
	dec, ok := r.decoders[d]
	if !ok {
		return nil, ErrUnknownDiscriminant(d)
	}
	return dec(ids, args)
}

func need(ids []object.ObjID, n int) error {
	if len(ids) < n {
		return fmt.Errorf("transition: decoder needs %d object ids, got %d", n, len(ids))
	}
	return nil
}

// DefaultRegistry returns a Registry with every built-in TransitionKind
// wired to its decoder.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(DiscMutexInit, func(ids []object.ObjID, _ Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewMutexInit(ids[0]), nil
	})
	r.Register(DiscMutexLock, func(ids []object.ObjID, _ Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewMutexLock(ids[0]), nil
	})
	r.Register(DiscMutexUnlock, func(ids []object.ObjID, _ Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewMutexUnlock(ids[0]), nil
	})
	r.Register(DiscMutexDestroy, func(ids []object.ObjID, _ Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewMutexDestroy(ids[0]), nil
	})

	r.Register(DiscSemInit, func(ids []object.ObjID, args Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewSemInit(ids[0], args.Count), nil
	})
	r.Register(DiscSemEnqueue, func(ids []object.ObjID, _ Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewSemEnqueue(ids[0]), nil
	})
	r.Register(DiscSemWait, func(ids []object.ObjID, _ Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewSemWait(ids[0]), nil
	})
	r.Register(DiscSemPost, func(ids []object.ObjID, _ Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewSemPost(ids[0]), nil
	})

	r.Register(DiscCondInit, func(ids []object.ObjID, _ Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewCondInit(ids[0]), nil
	})
	r.Register(DiscCondEnqueue, func(ids []object.ObjID, _ Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewCondEnqueue(ids[0]), nil
	})
	r.Register(DiscCondWait, func(ids []object.ObjID, _ Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewCondWait(ids[0]), nil
	})
	r.Register(DiscCondSignal, func(ids []object.ObjID, _ Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewCondSignal(ids[0]), nil
	})
	r.Register(DiscCondBroadcast, func(ids []object.ObjID, _ Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewCondBroadcast(ids[0]), nil
	})

	r.Register(DiscBarrierInit, func(ids []object.ObjID, args Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewBarrierInit(ids[0], args.Threshold), nil
	})
	r.Register(DiscBarrierArrive, func(ids []object.ObjID, _ Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewBarrierArrive(ids[0]), nil
	})
	r.Register(DiscBarrierWait, func(ids []object.ObjID, _ Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewBarrierWait(ids[0]), nil
	})

	r.Register(DiscThreadCreate, func(ids []object.ObjID, args Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewThreadCreate(ids[0], args.Name, args.Value), nil
	})
	r.Register(DiscThreadStart, func(ids []object.ObjID, _ Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewThreadStart(ids[0]), nil
	})
	r.Register(DiscThreadFinish, func(ids []object.ObjID, _ Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewThreadFinish(ids[0]), nil
	})
	r.Register(DiscThreadJoin, func(ids []object.ObjID, _ Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewThreadJoin(ids[0]), nil
	})
	r.Register(DiscExit, func(ids []object.ObjID, _ Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewExit(ids[0]), nil
	})

	r.Register(DiscGlobalRead, func(ids []object.ObjID, _ Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewGlobalRead(ids[0]), nil
	})
	r.Register(DiscGlobalWrite, func(ids []object.ObjID, args Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewGlobalWrite(ids[0], args.Value), nil
	})

	r.Register(DiscThreadReachGoal, func(ids []object.ObjID, _ Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewThreadReachGoal(ids[0]), nil
	})
	r.Register(DiscThreadRequestNewGoal, func(ids []object.ObjID, _ Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewThreadRequestNewGoal(ids[0]), nil
	})
	r.Register(DiscEnterGoalCriticalSection, func(ids []object.ObjID, _ Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewEnterGoalCriticalSection(ids[0]), nil
	})
	r.Register(DiscExitGoalCriticalSection, func(ids []object.ObjID, _ Args) (Kind, error) {
		if err := need(ids, 1); err != nil {
			return nil, err
		}
		return NewExitGoalCriticalSection(ids[0]), nil
	})

	return r
}
