package threadreg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qorelang/coreruntime/pkg/lockset"
)

type fakeHolder struct {
	name     string
	order    *[]string
	cleanErr error
}

func (f *fakeHolder) Cleanup() error {
	*f.order = append(*f.order, f.name)
	return f.cleanErr
}

func TestSetRegisterIsIdempotent(t *testing.T) {
	s := NewSet()
	var order []string
	h := &fakeHolder{name: "a", order: &order}
	s.Register("a", h)
	s.Register("a", h)
	assert.Equal(t, 1, s.Len())
}

func TestSetCleanupRunsInReverseOrder(t *testing.T) {
	s := NewSet()
	var order []string
	s.Register("a", &fakeHolder{name: "a", order: &order})
	s.Register("b", &fakeHolder{name: "b", order: &order})
	s.Register("c", &fakeHolder{name: "c", order: &order})

	err := s.Cleanup()
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, order)
	assert.Equal(t, 0, s.Len())
}

func TestSetCleanupAggregatesErrors(t *testing.T) {
	s := NewSet()
	var order []string
	s.Register("a", &fakeHolder{name: "a", order: &order, cleanErr: errors.New("boom-a")})
	s.Register("b", &fakeHolder{name: "b", order: &order, cleanErr: errors.New("boom-b")})

	err := s.Cleanup()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom-a")
	assert.Contains(t, err.Error(), "boom-b")
}

func TestSetUnregisterPreventsCleanup(t *testing.T) {
	s := NewSet()
	var order []string
	s.Register("a", &fakeHolder{name: "a", order: &order})
	s.Unregister("a")
	require.NoError(t, s.Cleanup())
	assert.Empty(t, order)
}

func TestManagerDetachAggregatesLocksAndHolders(t *testing.T) {
	locks := lockset.NewRegistry()
	var reported error
	var reportedTID lockset.TID
	mgr := NewManager(locks, func(tid lockset.TID, err error) {
		reportedTID = tid
		reported = err
	})

	th, res := mgr.Attach()
	m := lockset.NewMutex()
	require.Equal(t, lockset.AcquireOK, m.Acquire(locks, th, 0))

	var order []string
	res.Register(NewHolderID(), &fakeHolder{name: "socket", order: &order, cleanErr: errors.New("socket still open")})

	mgr.Detach(th)

	require.Error(t, reported)
	assert.Equal(t, th.TID(), reportedTID)
	assert.Contains(t, reported.Error(), "socket still open")
	assert.Contains(t, reported.Error(), "forced release of Mutex")
	assert.Equal(t, []string{"socket"}, order)
}

func TestManagerDetachWithNothingHeldReportsNothing(t *testing.T) {
	locks := lockset.NewRegistry()
	called := false
	mgr := NewManager(locks, func(lockset.TID, error) { called = true })

	th, _ := mgr.Attach()
	mgr.Detach(th)
	assert.False(t, called)
}
