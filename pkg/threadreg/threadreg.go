// Package threadreg implements the thread-resource registry (spec
// §4.6): per-thread idempotent sets of resource holders (database
// transactions, open sockets, file handles — anything a thread can
// "own" besides the lock-ownership stack pkg/lockset already tracks),
// cleaned up in reverse registration order on thread exit, and a
// Manager that ties that teardown to a lockset.Registry's own
// force-release-on-detach behavior so both kinds of forced cleanup
// land in one aggregated report.
//
// Grounded on the teacher's green.go thread-local scheduler state for
// the per-thread lifecycle shape, and on caddyserver-caddy's use of
// go.uber.org/multierr to collapse several independent teardown
// failures (closing listeners, stopping modules) into one error.
package threadreg

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/qorelang/coreruntime/pkg/lockset"
)

// Holder is a thread-owned resource that must be torn down if its
// owning thread exits while still holding it. Locks are excluded —
// pkg/lockset's vlock already force-releases those on Detach; Holder
// covers everything else (spec §4.6: "database transactions, open
// sockets, and file handles do likewise").
type Holder interface {
	// Cleanup forcibly releases the resource and describes the forced
	// release, or returns nil if nothing is worth reporting.
	Cleanup() error
}

// NewHolderID mints a fresh id for a holder with no natural identity
// of its own, so callers aren't forced to invent one.
func NewHolderID() string { return uuid.NewString() }

// Set is one thread's registered resource holders: an idempotent set
// in registration order (spec §4.6: "registering the same holder
// twice is a no-op").
type Set struct {
	mu      sync.Mutex
	order   []string
	holders map[string]Holder
}

// NewSet returns an empty resource set.
func NewSet() *Set { return &Set{holders: make(map[string]Holder)} }

// Register adds h under id. A second Register with the same id the
// set already holds is a no-op, satisfying the idempotent-set rule.
func (s *Set) Register(id string, h Holder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.holders[id]; ok {
		return
	}
	s.holders[id] = h
	s.order = append(s.order, id)
}

// Unregister removes id, used on an ordinary (non-forced) release so
// the holder isn't cleaned up twice at thread exit.
func (s *Set) Unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.holders[id]; !ok {
		return
	}
	delete(s.holders, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Len reports how many holders are currently registered.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Cleanup runs every still-registered holder's Cleanup in reverse
// registration order and returns the combined error via multierr, or
// nil if every holder cleaned up silently. The set is emptied
// regardless.
func (s *Set) Cleanup() error {
	s.mu.Lock()
	order := s.order
	holders := s.holders
	s.order = nil
	s.holders = make(map[string]Holder)
	s.mu.Unlock()

	var err error
	for i := len(order) - 1; i >= 0; i-- {
		if cerr := holders[order[i]].Cleanup(); cerr != nil {
			err = multierr.Append(err, cerr)
		}
	}
	return err
}

// DefaultHandler receives the aggregated teardown error for a thread
// that exited with locks or other resources still held (spec §4.6,
// §4.3: "these exceptions are reported via the thread's default
// handler, not the current sink, since the sink is being torn down").
type DefaultHandler func(tid lockset.TID, err error)

// Manager binds a lockset.Registry's thread lifecycle to each
// thread's own resource Set, so a single Detach call produces one
// aggregated error covering both forced lock releases and Holder
// cleanup.
type Manager struct {
	locks *lockset.Registry

	mu      sync.Mutex
	sets    map[lockset.TID]*Set
	handler DefaultHandler
}

// NewManager builds a Manager over an existing lock registry. handler
// may be nil, in which case teardown errors are silently discarded —
// callers that care should always pass one.
func NewManager(locks *lockset.Registry, handler DefaultHandler) *Manager {
	return &Manager{locks: locks, sets: make(map[lockset.TID]*Set), handler: handler}
}

// Attach registers a new thread with the lock registry and gives it
// an empty resource set (spec §6: "host threads that will call the
// runtime must first register").
func (m *Manager) Attach() (*lockset.ThreadHandle, *Set) {
	th := m.locks.Attach()
	s := NewSet()
	m.mu.Lock()
	m.sets[th.TID()] = s
	m.mu.Unlock()
	return th, s
}

// Resources returns tid's resource set, or nil if tid isn't attached.
func (m *Manager) Resources(tid lockset.TID) *Set {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets[tid]
}

// Detach tears down th: its held locks are force-released by the lock
// registry, its registered Holders are cleaned up in reverse order,
// and the combined error (if any) is handed to the default handler
// rather than returned, matching the sink-is-being-torn-down rule.
func (m *Manager) Detach(th *lockset.ThreadHandle) {
	tid := th.TID()
	m.mu.Lock()
	s := m.sets[tid]
	delete(m.sets, tid)
	m.mu.Unlock()

	released := m.locks.Detach(th)

	var err error
	if s != nil {
		err = s.Cleanup()
	}
	for _, r := range released {
		err = multierr.Append(err, fmt.Errorf("forced release of %s #%d on thread exit", r.Kind, r.ID))
	}
	if err != nil && m.handler != nil {
		m.handler(tid, err)
	}
}
