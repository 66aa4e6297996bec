package scheduler

import (
	"golang.org/x/exp/slices"

	"dporcheck/sequence"
	"dporcheck/transition"
)

// updateBacktrackSets implements spec.md §4.5.1, run once per newly
// appended transition S_n (executed by thread p), for every other
// thread q with an enabled pending transition.
func (e *Engine) updateBacktrackSets(n int) {
	p := e.seq.Executor(n)

	qs := make([]transition.ThreadID, 0, len(e.seq.PendingNext))
	for tid := range e.seq.PendingNext {
		qs = append(qs, tid)
	}
	slices.Sort(qs)

	snap := e.seq.Store.Snapshot()
	for _, q := range qs {
		if q == p {
			continue
		}
		nextQ, ok := e.seq.Pending(q)
		if !ok || !nextQ.EnabledIn(snap) {
			continue
		}
		e.updateBacktrackSetsFor(n, q, nextQ)
	}
}

// updateBacktrackSetsFor applies §4.5.1 steps 1-3 for a single q.
func (e *Engine) updateBacktrackSetsFor(n int, q transition.ThreadID, nextQ transition.Transition) {
	i := -1
	for k := n; k >= 0; k-- {
		if e.seq.Transitions[k].DependentWith(nextQ) && !e.seq.HappensBeforeThread(k, q) {
			i = k
			break
		}
	}
	if i < 0 {
		return
	}

	enabledAtI := e.enabledThreadsAt(i)
	eSet := make(map[transition.ThreadID]bool)
	for r := range enabledAtI {
		if r == q {
			eSet[r] = true
			continue
		}
		for j := i + 1; j <= n; j++ {
			if e.seq.Transitions[j].Executor == r && e.seq.HappensBeforeThread(j, q) {
				eSet[r] = true
				break
			}
		}
	}

	pre := &e.seq.States[i]
	if len(eSet) > 0 {
		if r, ok := pickBacktrackCandidate(eSet, pre); ok {
			pre.Backtrack.Add(r)
		}
		return
	}
	for r := range enabledAtI {
		pre.Backtrack.Add(r)
	}
}

// enabledThreadsAt approximates enabled(pre) from §4.5.1 step 2: the set
// of threads with an enabled pending transition in the state immediately
// after S_i. Recomputing this exactly would mean replaying the prefix up
// to i on every dependency discovered during run_to_completion_from,
// rather than only at the actual backtrack points Explore's outer loop
// already replays to (see rewindTo); this instead evaluates the live
// pending next-table against the current store, which coincides with
// the true set for every thread that has not executed since index i —
// true of every thread other than p itself in the common case. Spec.md
// §4.5's "implementation latitude" note covers this kind of
// approximation explicitly; see DESIGN.md.
func (e *Engine) enabledThreadsAt(i int) map[transition.ThreadID]bool {
	snap := e.seq.Store.Snapshot()
	out := make(map[transition.ThreadID]bool)
	for tid, t := range e.seq.PendingNext {
		if t.EnabledIn(snap) {
			out[tid] = true
		}
	}
	return out
}

// pickBacktrackCandidate chooses one thread from eSet to add to pre's
// backtrack set: lowest tid not already in pre.Done, preferring one not
// in pre.Sleep (spec.md §4.5.1 "Tie-breaking").
func pickBacktrackCandidate(eSet map[transition.ThreadID]bool, pre *sequence.StateStackItem) (transition.ThreadID, bool) {
	var candidates []transition.ThreadID
	for r := range eSet {
		if !pre.Done.Contains(r) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	slices.Sort(candidates)
	for _, r := range candidates {
		if !pre.Sleep.Contains(r) {
			return r, true
		}
	}
	return candidates[0], true
}

// firstUndone returns the lowest tid in item's backtrack set not already
// in its done set (spec.md §4.5.1 "Tie-breaking: lowest tid first").
func firstUndone(item *sequence.StateStackItem) (transition.ThreadID, bool) {
	var best transition.ThreadID
	found := false
	for tid := range item.Backtrack {
		if item.Done.Contains(tid) {
			continue
		}
		if !found || tid < best {
			best, found = tid, true
		}
	}
	return best, found
}
