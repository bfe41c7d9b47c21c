package lockset

import (
	"sync"

	"github.com/qorelang/coreruntime/pkg/value"
)

// QueueResult reports the outcome of a Queue operation.
type QueueResult int

const (
	QueueOK QueueResult = iota
	QueueErrDeleted
	QueueCleared
)

// Queue is a FIFO of Values with optional capacity (spec §4.4.1,
// §4.4.5): producers block when at capacity, consumers block when
// empty, both with an optional timeout; clear empties the queue
// without blocking and wakes blocked producers, while blocked
// consumers keep waiting; destruction broadcasts and fails every
// blocked thread.
type Queue struct {
	id       uint64
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	items    []value.Value
	capacity int // 0 means unbounded
	deleted  bool
	readWait int
	writeWait int
}

func NewQueue(capacity int) *Queue {
	q := &Queue{id: nextPrimID(), capacity: capacity}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

func (q *Queue) ID() uint64   { return q.id }
func (q *Queue) Kind() string { return "Queue" }
func (q *Queue) owners() []TID { return nil }
func (q *Queue) forceReleaseFrom(TID) {}

// Push appends v, blocking while at capacity.
func (q *Queue) Push(v value.Value, timeoutMs int64) (timedOut bool, result QueueResult) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.capacity > 0 && len(q.items) >= q.capacity {
		if q.deleted {
			return false, QueueErrDeleted
		}
		q.writeWait++
		to := waitCond(q.notFull, timeoutMs)
		q.writeWait--
		if to {
			return true, QueueOK
		}
	}
	if q.deleted {
		return false, QueueErrDeleted
	}
	q.items = append(q.items, v)
	q.notEmpty.Signal()
	return false, QueueOK
}

// PushFront prepends v, blocking while at capacity — used by the
// language's `insert`/`pushfront` queue operations.
func (q *Queue) PushFront(v value.Value, timeoutMs int64) (timedOut bool, result QueueResult) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.capacity > 0 && len(q.items) >= q.capacity {
		if q.deleted {
			return false, QueueErrDeleted
		}
		q.writeWait++
		to := waitCond(q.notFull, timeoutMs)
		q.writeWait--
		if to {
			return true, QueueOK
		}
	}
	if q.deleted {
		return false, QueueErrDeleted
	}
	q.items = append([]value.Value{v}, q.items...)
	q.notEmpty.Signal()
	return false, QueueOK
}

// Shift (also covers `pop`) removes and returns the front element,
// blocking while empty.
func (q *Queue) Shift(timeoutMs int64) (v value.Value, timedOut bool, result QueueResult) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		if q.deleted {
			return value.Nothing, false, QueueErrDeleted
		}
		q.readWait++
		to := waitCond(q.notEmpty, timeoutMs)
		q.readWait--
		if to {
			return value.Nothing, true, QueueOK
		}
	}
	if q.deleted {
		return value.Nothing, false, QueueErrDeleted
	}
	v = q.items[0]
	q.items = q.items[1:]
	q.notFull.Signal()
	return v, false, QueueOK
}

// Len returns the current element count.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Clear empties the queue non-blockingly and wakes every blocked
// producer. Consumers blocked in Shift are not woken: they keep
// waiting until an element arrives, the queue is destroyed, or their
// timeout elapses. TryShift reads without blocking.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
	q.notFull.Broadcast()
}

// TryShift returns immediately: the front element and true, or
// (Nothing, false) if the queue is currently empty — used after Clear
// and by non-blocking callers.
func (q *Queue) TryShift() (value.Value, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return value.Nothing, false
	}
	v := q.items[0]
	q.items = q.items[1:]
	q.notFull.Signal()
	return v, true
}

// Destroy marks the queue deleted and wakes every blocked producer and
// consumer, each of which fails with QUEUE-ERROR.
func (q *Queue) Destroy() {
	q.mu.Lock()
	q.deleted = true
	q.mu.Unlock()
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}
