package lockset

import (
	"fmt"
	"sync"
	"time"
)

// AcquireResult is the outcome of an Acquire call on any primitive.
type AcquireResult int

const (
	AcquireOK AcquireResult = iota
	AcquireTimedOut
	AcquireDeadlock
	AcquireLockError
)

// waitCond blocks on cond, honoring timeoutMs (0 means no timeout, per
// spec §4.4/§5). It reports whether the wait woke because the deadline
// passed rather than because of a genuine signal/broadcast. cond.L
// must already be held by the caller.
func waitCond(cond *sync.Cond, timeoutMs int64) (timedOut bool) {
	if timeoutMs <= 0 {
		cond.Wait()
		return false
	}
	deadline := time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	timer := time.AfterFunc(time.Duration(timeoutMs)*time.Millisecond, func() {
		cond.L.Lock()
		cond.Broadcast()
		cond.L.Unlock()
	})
	defer timer.Stop()
	cond.Wait()
	return !time.Now().Before(deadline)
}

// deadlockDescription renders a detected cycle into the exception
// description spec §4.4.2 requires: the locks involved, the TIDs, and
// the primitive kinds.
func deadlockDescription(self TID, path []cycleStep) string {
	s := fmt.Sprintf("thread %d would deadlock acquiring", self)
	for _, step := range path {
		s += fmt.Sprintf(" -> %s#%d held by thread %d", step.Kind, step.PrimID, step.OwnerTID)
	}
	return s
}
