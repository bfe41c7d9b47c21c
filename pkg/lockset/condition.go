package lockset

import "sync"

// Waitable is the surface Condition.Wait needs from the primitive it
// atomically releases and re-acquires: Mutex and RMutex satisfy it
// directly; Gate and RWLock are adapted via the wrapper constructors
// below since their native Enter/AcquireRead/AcquireWrite take an
// extra parameter Condition.Wait must close over.
type Waitable interface {
	Release(th *ThreadHandle) AcquireResult
	Acquire(reg *Registry, th *ThreadHandle, timeoutMs int64) AcquireResult
}

type gateWaitable struct {
	g     *Gate
	party PartyID
}

func NewGateWaitable(g *Gate, party PartyID) Waitable { return gateWaitable{g, party} }
func (w gateWaitable) Release(th *ThreadHandle) AcquireResult { return w.g.Exit(th) }
func (w gateWaitable) Acquire(reg *Registry, th *ThreadHandle, timeoutMs int64) AcquireResult {
	return w.g.Enter(reg, th, w.party, timeoutMs)
}

type rwWaitable struct {
	l     *RWLock
	write bool
}

func NewRWLockWriteWaitable(l *RWLock) Waitable { return rwWaitable{l, true} }
func NewRWLockReadWaitable(l *RWLock) Waitable  { return rwWaitable{l, false} }
func (w rwWaitable) Release(th *ThreadHandle) AcquireResult {
	if w.write {
		return w.l.ReleaseWrite(th)
	}
	return w.l.ReleaseRead(th)
}
func (w rwWaitable) Acquire(reg *Registry, th *ThreadHandle, timeoutMs int64) AcquireResult {
	if w.write {
		return w.l.AcquireWrite(reg, th, timeoutMs)
	}
	return w.l.AcquireRead(reg, th, timeoutMs)
}

// Condition is a condition variable with no ownership of its own (spec
// §4.4.1, §4.4.3): wait() atomically releases the passed primitive and
// blocks; on wake it re-acquires in the original mode.
type Condition struct {
	id      uint64
	mu      sync.Mutex
	cond    *sync.Cond
	deleted bool
	waiters int
}

func NewCondition() *Condition {
	c := &Condition{id: nextPrimID()}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *Condition) ID() uint64   { return c.id }
func (c *Condition) Kind() string { return "Condition" }

// Wait releases lock, blocks on c (with optional timeout), then
// re-acquires lock in its original mode regardless of how the wait
// ended. It returns whether the wait timed out and the result of the
// re-acquire (which itself may report deadlock or LOCK-ERROR if lock
// was deleted while c slept). If c was destroyed while the caller
// slept, a successful re-acquire is reported as LOCK-ERROR (lock is
// held again all the same).
func (c *Condition) Wait(reg *Registry, th *ThreadHandle, lock Waitable, timeoutMs int64) (timedOut bool, reacquire AcquireResult) {
	if rel := lock.Release(th); rel != AcquireOK {
		return false, rel
	}

	c.mu.Lock()
	c.waiters++
	if c.deleted {
		c.waiters--
		c.mu.Unlock()
		return false, AcquireLockError
	}
	timedOut = waitCond(c.cond, timeoutMs)
	c.waiters--
	deleted := c.deleted
	c.mu.Unlock()

	reacquire = lock.Acquire(reg, th, timeoutMs)
	if deleted && reacquire == AcquireOK {
		return timedOut, AcquireLockError
	}
	return timedOut, reacquire
}

// Signal wakes at most one waiter.
func (c *Condition) Signal() {
	c.mu.Lock()
	c.cond.Signal()
	c.mu.Unlock()
}

// Broadcast wakes every waiter.
func (c *Condition) Broadcast() {
	c.mu.Lock()
	c.cond.Broadcast()
	c.mu.Unlock()
}

// Destroy marks the condition deleted and wakes every current waiter;
// each fails its Wait call with LOCK-ERROR once it re-checks state.
func (c *Condition) Destroy() {
	c.mu.Lock()
	c.deleted = true
	c.mu.Unlock()
	c.cond.Broadcast()
}

func (c *Condition) owners() []TID { return nil }

func (c *Condition) forceReleaseFrom(TID) {}
