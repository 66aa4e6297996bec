package transition

import (
	"testing"

	"dporcheck/object"
)

func TestDefaultRegistryDecodesMutexLock(t *testing.T) {
	r := DefaultRegistry()
	k, err := r.Decode(DiscMutexLock, []object.ObjID{object.ObjID(3)}, Args{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lock, ok := k.(*MutexLock)
	if !ok || lock.Mutex != object.ObjID(3) {
		t.Fatalf("expected *MutexLock{Mutex: 3}, got %#v", k)
	}
}

func TestDefaultRegistryPassesScalarArgs(t *testing.T) {
	r := DefaultRegistry()
	k, err := r.Decode(DiscSemInit, []object.ObjID{object.ObjID(0)}, Args{Count: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	init, ok := k.(*SemInit)
	if !ok || init.InitialCount != 5 {
		t.Fatalf("expected *SemInit{InitialCount: 5}, got %#v", k)
	}
}

func TestRegistryUnknownDiscriminant(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Decode(DiscMutexLock, nil, Args{}); err == nil {
		t.Fatalf("expected an error for an unregistered discriminant")
	}
}

func TestRegistryMissingObjectIDs(t *testing.T) {
	r := DefaultRegistry()
	if _, err := r.Decode(DiscMutexLock, nil, Args{}); err == nil {
		t.Fatalf("expected an error when too few object ids are given")
	}
}
