package lockset

import "sync"

// RMutex is a re-entrant mutex: the owning TID may acquire it
// repeatedly, and must release it the same number of times (spec
// §4.4.1, scenario §8.2: enter,enter,enter,exit,exit,exit ->
// 1,2,3,2,1,0, final state unlocked).
type RMutex struct {
	id    uint64
	mu    sync.Mutex
	cond  *sync.Cond
	state State
	owner TID
	count int
}

func NewRMutex() *RMutex {
	m := &RMutex{id: nextPrimID()}
	m.cond = sync.NewCond(&m.mu)
	return m
}

func (m *RMutex) ID() uint64   { return m.id }
func (m *RMutex) Kind() string { return "RMutex" }

func (m *RMutex) owners() []TID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ownersLocked()
}

func (m *RMutex) ownersLocked() []TID {
	if m.state == StateHeld {
		return []TID{m.owner}
	}
	return nil
}

// Count returns the current re-entrant acquisition count (0 when
// unlocked).
func (m *RMutex) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

func (m *RMutex) Acquire(reg *Registry, th *ThreadHandle, timeoutMs int64) AcquireResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		if m.state == StateDeleted {
			return AcquireLockError
		}
		if m.state == StateHeld && m.owner == th.TID() {
			m.count++
			return AcquireOK
		}
		if m.state == StateUnlocked {
			m.state = StateHeld
			m.owner = th.TID()
			m.count = 1
			m.mu.Unlock()
			th.push(m.id, m.Kind(), m)
			m.mu.Lock()
			return AcquireOK
		}
		th.setWaitingOn(m)
		if deadlocked, _ := detectCycle(reg, th.TID(), m, m.ownersLocked()); deadlocked {
			th.setWaitingOn(nil)
			return AcquireDeadlock
		}
		timedOut := waitCond(m.cond, timeoutMs)
		th.setWaitingOn(nil)
		if timedOut && !(m.state == StateUnlocked || (m.state == StateHeld && m.owner == th.TID())) {
			return AcquireTimedOut
		}
	}
}

func (m *RMutex) Release(th *ThreadHandle) AcquireResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateDeleted {
		return AcquireLockError
	}
	if m.state != StateHeld || m.owner != th.TID() {
		return AcquireLockError
	}
	m.count--
	if m.count > 0 {
		return AcquireOK
	}
	if !th.pop(m.id, false) {
		m.count = 1
		return AcquireLockError
	}
	m.state = StateUnlocked
	m.owner = 0
	m.cond.Signal()
	return AcquireOK
}

func (m *RMutex) Destroy() {
	m.mu.Lock()
	m.state = StateDeleted
	m.mu.Unlock()
	m.cond.Broadcast()
}

func (m *RMutex) forceReleaseFrom(tid TID) {
	m.mu.Lock()
	if m.state == StateHeld && m.owner == tid {
		m.state = StateUnlocked
		m.owner = 0
		m.count = 0
		m.cond.Signal()
	}
	m.mu.Unlock()
}
