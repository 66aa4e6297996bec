package object

import "testing"

func TestStoreTrackAndRecord(t *testing.T) {
	s := NewStore()
	id := s.Track(MutexState{Status: MutexUnlocked})

	cur, err := s.Current(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cur.(MutexState).Status != MutexUnlocked {
		t.Fatalf("expected unlocked, got %v", cur)
	}

	if err := s.Record(id, MutexState{Status: MutexLocked, Owner: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cur, _ = s.Current(id)
	if cur.(MutexState).Owner != 3 {
		t.Fatalf("expected owner 3, got %v", cur)
	}
}

func TestStoreUnknownObject(t *testing.T) {
	s := NewStore()
	if _, err := s.Current(ObjID(5)); err != ErrUnknownObject {
		t.Fatalf("expected ErrUnknownObject, got %v", err)
	}
	if err := s.Record(ObjID(5), MutexState{}); err != ErrUnknownObject {
		t.Fatalf("expected ErrUnknownObject, got %v", err)
	}
}

func TestStoreConsumeIntoSubsequence(t *testing.T) {
	s := NewStore()
	id := s.Track(MutexState{Status: MutexUnlocked})
	s.Record(id, MutexState{Status: MutexLocked, Owner: 0})
	lengths := s.HistoryLengths() // [2]
	s.Record(id, MutexState{Status: MutexUnlocked})

	sub := s.ConsumeIntoSubsequence(lengths)
	cur, err := sub.Current(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cur.(MutexState).Status != MutexLocked {
		t.Fatalf("expected the subsequence to stop at the locked state, got %v", cur)
	}

	// The original store must be unaffected.
	origCur, _ := s.Current(id)
	if origCur.(MutexState).Status != MutexUnlocked {
		t.Fatalf("original store mutated by ConsumeIntoSubsequence")
	}
}

func TestVisibleObjectSlice(t *testing.T) {
	obj := newVisibleObject(MutexState{Status: MutexUnlocked})
	obj.push(MutexState{Status: MutexLocked, Owner: 1})
	obj.push(MutexState{Status: MutexUnlocked})

	sliced := obj.Slice(2)
	if len(sliced.History) != 2 {
		t.Fatalf("expected 2 states, got %d", len(sliced.History))
	}
	// Mutating the slice must not affect the original.
	sliced.push(MutexState{Status: MutexDestroyed})
	if len(obj.History) != 3 {
		t.Fatalf("Slice must return a deep, independent copy")
	}
}
