package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSink struct{ raised []string }

func (s *nopSink) RaiseSystem(code, description string) { s.raised = append(s.raised, code) }

func TestSoftEqSymmetry(t *testing.T) {
	pairs := [][2]Value{
		{NewInt(1), NewString("1")},
		{NewFloat(2), NewInt(2)},
		{NewBool(true), NewInt(1)},
		{Null, Nothing},
		{NewString("a"), NewString("b")},
	}
	for _, p := range pairs {
		assert.Equal(t, SoftEq(p[0], p[1]), SoftEq(p[1], p[0]))
	}
}

func TestHardEqImpliesSoftEq(t *testing.T) {
	vals := []Value{NewInt(5), NewString("5"), NewFloat(5), NewBool(true), Null, Nothing}
	for _, a := range vals {
		for _, b := range vals {
			if HardEq(a, b) {
				assert.True(t, SoftEq(a, b), "hard_eq(%v,%v) should imply soft_eq", a, b)
			}
		}
	}
}

func TestRefcountMonotonicity(t *testing.T) {
	sink := &nopSink{}
	destroyed := false
	l := &List{}
	v := newHeap(KindList, l, func(Sink) { destroyed = true })
	require.False(t, destroyed)

	v2 := v.Ref()
	require.Equal(t, int64(2), v.node.strong)
	v2.Deref(sink)
	require.False(t, destroyed)
	require.Equal(t, int64(1), v.node.strong)

	v.Deref(sink)
	require.True(t, destroyed)
	require.Equal(t, int32(1), v.node.tomb)
}

func TestWeakRefObservesDeleted(t *testing.T) {
	sink := &nopSink{}
	obj := NewObject("Widget")
	w := NewWeakRef(obj)

	wr, ok := AsWeakRef(w)
	require.True(t, ok, "expected weakref kind")

	resolved, ok := wr.Resolve()
	require.True(t, ok)
	require.Equal(t, KindObject, resolved.Kind())
	resolved.Deref(sink) // drop the strong reference Resolve handed out

	obj.Deref(sink) // strong count -> 0, destructor runs

	_, ok = wr.Resolve()
	assert.False(t, ok, "resolving after strong count hits zero must observe deleted")
}

func TestHashInsertionOrderStability(t *testing.T) {
	h := &Hash{values: make(map[string]Value)}
	h.Set("b", NewInt(1))
	h.Set("a", NewInt(2))
	h.Set("c", NewInt(3))

	assert.Equal(t, []string{"b", "a", "c"}, h.Keys())

	cp := h.RealCopy()
	assert.Equal(t, []string{"b", "a", "c"}, cp.Keys())

	h.Delete("a")
	assert.Equal(t, []string{"b", "c"}, h.Keys())
}

func TestListIndexRoundTrip(t *testing.T) {
	l := &List{items: []Value{NewInt(10), NewInt(20), NewInt(30)}}
	for i, want := range []int64{10, 20, 30} {
		assert.Equal(t, want, l.Get(i).GetAsInt())
	}
	assert.Equal(t, KindNothing, l.Get(3).Kind())
	assert.Equal(t, KindNothing, l.Get(-1).Kind())
}

func TestExtractThenInsertRestoresList(t *testing.T) {
	l := &List{items: []Value{NewInt(1), NewInt(2), NewInt(3), NewInt(4), NewInt(5)}}
	removed := l.Extract(1, 2, nil)
	require.Len(t, removed, 2)
	l.Extract(1, 0, removed) // re-insert at the same position, nothing removed
	got := make([]int64, l.Len())
	for i := 0; i < l.Len(); i++ {
		got[i] = l.Get(i).GetAsInt()
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, got)
}

func TestTruthiness(t *testing.T) {
	assert.False(t, NewInt(0).Truthy())
	assert.False(t, NewString("").Truthy())
	assert.False(t, Null.Truthy())
	assert.False(t, Nothing.Truthy())
	assert.True(t, NewInt(1).Truthy())
	assert.True(t, NewString("x").Truthy())
}
