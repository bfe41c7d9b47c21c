package lockset

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qorelang/coreruntime/pkg/value"
)

func nopVal(i int64) value.Value { return value.NewInt(i) }
func valInt(v value.Value) int64 { return v.GetAsInt() }

func TestTwoWayDeadlockDetected(t *testing.T) {
	reg := NewRegistry()
	m1 := NewMutex()
	m2 := NewMutex()

	t1 := reg.Attach()
	t2 := reg.Attach()

	require.Equal(t, AcquireOK, m1.Acquire(reg, t1, 0))
	require.Equal(t, AcquireOK, m2.Acquire(reg, t2, 0))

	results := make(chan AcquireResult, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r := m2.Acquire(reg, t1, 0)
		if r == AcquireDeadlock {
			// Losing side backs out of its own hold so the winner's
			// still-pending acquire can complete.
			m1.Release(t1)
		} else if r == AcquireOK {
			m2.Release(t1)
			m1.Release(t1)
		}
		results <- r
	}()
	go func() {
		defer wg.Done()
		// give the first goroutine a head start so the cycle exists
		// by the time this one registers its own wait.
		time.Sleep(20 * time.Millisecond)
		r := m1.Acquire(reg, t2, 0)
		if r == AcquireDeadlock {
			m2.Release(t2)
		} else if r == AcquireOK {
			m1.Release(t2)
			m2.Release(t2)
		}
		results <- r
	}()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("deadlock test did not resolve within budget")
	}
	close(results)

	deadlocks, oks := 0, 0
	for r := range results {
		switch r {
		case AcquireDeadlock:
			deadlocks++
		case AcquireOK:
			oks++
		}
	}
	assert.Equal(t, 1, deadlocks, "exactly one acquirer should observe THREAD-DEADLOCK")
	assert.Equal(t, 1, oks, "the non-deadlocked acquirer should eventually succeed")
}

func TestRecursiveMutexCountSequence(t *testing.T) {
	reg := NewRegistry()
	m := NewRMutex()
	th := reg.Attach()

	require.Equal(t, AcquireOK, m.Acquire(reg, th, 0))
	assert.Equal(t, 1, m.Count())
	require.Equal(t, AcquireOK, m.Acquire(reg, th, 0))
	assert.Equal(t, 2, m.Count())
	require.Equal(t, AcquireOK, m.Acquire(reg, th, 0))
	assert.Equal(t, 3, m.Count())

	require.Equal(t, AcquireOK, m.Release(th))
	assert.Equal(t, 2, m.Count())
	require.Equal(t, AcquireOK, m.Release(th))
	assert.Equal(t, 1, m.Count())
	require.Equal(t, AcquireOK, m.Release(th))
	assert.Equal(t, 0, m.Count())
	assert.Equal(t, StateUnlocked, m.state)
}

func TestCounterWaitForZero(t *testing.T) {
	c := NewCounter(2)
	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			require.Equal(t, CounterOK, c.Dec())
		}()
	}
	go func() { wg.Wait() }()

	timedOut, result := c.WaitForZero(1000)
	assert.False(t, timedOut)
	assert.Equal(t, CounterOK, result)
	assert.Equal(t, 0, c.Count())
}

func TestLockAccountingAfterMatchedAcquireRelease(t *testing.T) {
	reg := NewRegistry()
	th := reg.Attach()
	m := NewMutex()

	for i := 0; i < 5; i++ {
		require.Equal(t, AcquireOK, m.Acquire(reg, th, 0))
		require.Equal(t, AcquireOK, m.Release(th))
	}
	assert.Equal(t, 0, th.heldCount())
}

func TestReleaseByWrongTIDIsLockError(t *testing.T) {
	reg := NewRegistry()
	t1 := reg.Attach()
	t2 := reg.Attach()
	m := NewMutex()
	require.Equal(t, AcquireOK, m.Acquire(reg, t1, 0))
	assert.Equal(t, AcquireLockError, m.Release(t2))
}

func TestDeletedMutexFailsAllOperations(t *testing.T) {
	reg := NewRegistry()
	th := reg.Attach()
	m := NewMutex()
	m.Destroy()
	assert.Equal(t, AcquireLockError, m.Acquire(reg, th, 0))
}

func TestRWLockReaderPreferredAllowsReadersPastWaitingWriter(t *testing.T) {
	reg := NewRegistry()
	l := NewRWLock(ReaderPreferred)
	reader1 := reg.Attach()
	reader2 := reg.Attach()
	writer := reg.Attach()

	require.Equal(t, AcquireOK, l.AcquireRead(reg, reader1, 0))
	wrote := make(chan AcquireResult, 1)
	go func() {
		r := l.AcquireWrite(reg, writer, 0)
		if r == AcquireOK {
			l.ReleaseWrite(writer)
		}
		wrote <- r
	}()
	time.Sleep(20 * time.Millisecond)
	// A second, independent reader must still be admitted under the
	// reader-preferred policy while the writer is waiting.
	require.Equal(t, AcquireOK, l.AcquireRead(reg, reader2, 0))
	require.Equal(t, AcquireOK, l.ReleaseRead(reader1))
	require.Equal(t, AcquireOK, l.ReleaseRead(reader2))
	select {
	case r := <-wrote:
		assert.Equal(t, AcquireOK, r)
	case <-time.After(time.Second):
		t.Fatal("waiting writer never acquired")
	}
}

func TestRWLockWriterHoldsLIFORelease(t *testing.T) {
	reg := NewRegistry()
	l1 := NewRWLock(ReaderPreferred)
	l2 := NewRWLock(ReaderPreferred)
	th := reg.Attach()
	require.Equal(t, AcquireOK, l1.AcquireWrite(reg, th, 0))
	require.Equal(t, AcquireOK, l2.AcquireWrite(reg, th, 0))
	// releasing l1 (not the most recently acquired) must fail: writer
	// holds require LIFO release order.
	assert.Equal(t, AcquireLockError, l1.ReleaseWrite(th))
	require.Equal(t, AcquireOK, l2.ReleaseWrite(th))
	require.Equal(t, AcquireOK, l1.ReleaseWrite(th))
}

func TestRWLockReaderHoldsReleaseOutOfOrder(t *testing.T) {
	reg := NewRegistry()
	l1 := NewRWLock(ReaderPreferred)
	l2 := NewRWLock(ReaderPreferred)
	th := reg.Attach()
	require.Equal(t, AcquireOK, l1.AcquireRead(reg, th, 0))
	require.Equal(t, AcquireOK, l2.AcquireRead(reg, th, 0))
	// reader holds may release in any order
	assert.Equal(t, AcquireOK, l1.ReleaseRead(th))
	assert.Equal(t, AcquireOK, l2.ReleaseRead(th))
}

func TestQueueBlocksThenUnblocks(t *testing.T) {
	q := NewQueue(1)
	_, res := q.Push(nopVal(1), 0)
	require.Equal(t, QueueOK, res)

	done := make(chan QueueResult, 1)
	go func() {
		_, res := q.Push(nopVal(2), 0)
		done <- res
	}()

	time.Sleep(20 * time.Millisecond)
	v, _, res := q.Shift(0)
	require.Equal(t, QueueOK, res)
	assert.Equal(t, int64(1), valInt(v))

	select {
	case res := <-done:
		assert.Equal(t, QueueOK, res)
	case <-time.After(time.Second):
		t.Fatal("blocked push did not unblock")
	}
}

func TestGateSharedPartyReentrant(t *testing.T) {
	reg := NewRegistry()
	g := NewGate()
	th := reg.Attach()
	const party PartyID = 42

	require.Equal(t, AcquireOK, g.Enter(reg, th, party, 0))
	require.Equal(t, AcquireOK, g.Enter(reg, th, party, 0))
	require.Equal(t, AcquireOK, g.Exit(th))
	require.Equal(t, AcquireOK, g.Exit(th))
}

func TestConditionWaitReleasesAndReacquires(t *testing.T) {
	reg := NewRegistry()
	th := reg.Attach()
	m := NewMutex()
	cond := NewCondition()
	require.Equal(t, AcquireOK, m.Acquire(reg, th, 0))

	woke := make(chan bool, 1)
	go func() {
		timedOut, reacq := cond.Wait(reg, th, m, 2000)
		woke <- !timedOut && reacq == AcquireOK
	}()

	time.Sleep(20 * time.Millisecond)
	cond.Signal()

	select {
	case ok := <-woke:
		assert.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("condition wait never returned")
	}
	require.Equal(t, AcquireOK, m.Release(th))
}
