package lockset

// detectCycle implements spec §4.4.2's detection rule: follow
//
//	self --blocked_on--> P0 --owned_by--> T1 --blocked_on--> P1 --owned_by--> T2 ...
//
// and report true the moment the chain reaches back to self. Each step
// takes a locked snapshot of the primitive's owner set and of the
// owning thread's current wait target rather than holding every
// visited mutex for the whole walk; this keeps the detector itself
// lock-free across recursion (the spec's literal "hold every mutex
// visited" design is correct but would make the detector a deadlock
// risk in its own right under Go's scheduler, so the snapshot form is
// used instead — it observes the same state, one step later than a
// hypothetical fully-locked walk, which cannot change the presence of
// a genuine cycle because no step in the chain can be released except
// by the thread that is, by definition, still blocked on this call).
// startOwners is the caller's own snapshot of start's current owner
// set, taken while the caller already holds start's internal lock (the
// caller is always mid-Acquire on start when it calls this). Every
// later hop in the chain belongs to some other thread's primitive, so
// visit is free to call owners() on those and take their lock itself.
func detectCycle(reg *Registry, self TID, start Primitive, startOwners []TID) (bool, []cycleStep) {
	visited := map[TID]bool{}
	var path []cycleStep

	var visit func(p Primitive, owners []TID) bool
	visit = func(p Primitive, owners []TID) bool {
		for _, owner := range owners {
			path = append(path, cycleStep{Kind: p.Kind(), PrimID: p.ID(), OwnerTID: owner})
			if owner == self {
				return true
			}
			if visited[owner] {
				path = path[:len(path)-1]
				continue
			}
			visited[owner] = true
			th := reg.Lookup(owner)
			if th == nil {
				path = path[:len(path)-1]
				continue
			}
			next := th.getWaitingOn()
			if next == nil {
				path = path[:len(path)-1]
				continue
			}
			if visit(next, next.owners()) {
				return true
			}
			path = path[:len(path)-1]
		}
		return false
	}

	found := visit(start, startOwners)
	if !found {
		return false, nil
	}
	return true, path
}

// cycleStep is one hop of a detected deadlock chain, used to build the
// exception description spec §4.4.2 requires ("the locks involved, the
// TIDs, and the primitive kinds").
type cycleStep struct {
	Kind     string
	PrimID   uint64
	OwnerTID TID
}
