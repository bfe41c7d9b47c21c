package lvalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qorelang/coreruntime/pkg/exception"
	"github.com/qorelang/coreruntime/pkg/value"
)

func TestLocalAssignAndGet(t *testing.T) {
	slot := value.NewSlot(value.NewInt(1))
	var sink exception.Sink

	h := Acquire(NewPath(Local(slot, nil)), &sink)
	require.False(t, h.Failed())
	assert.Equal(t, int64(1), h.Get().GetAsInt())

	h.Assign(value.NewInt(42))
	h.Close()
	assert.Equal(t, int64(42), slot.Get().GetAsInt())
	assert.False(t, sink.HasException())
}

func TestTypedLocalRejectsWrongKind(t *testing.T) {
	slot := value.NewSlot(value.NewInt(1))
	var sink exception.Sink

	h := Acquire(NewPath(Local(slot, KindConstraint(value.KindInt))), &sink)
	h.Assign(value.NewString("nope"))
	h.Close()

	assert.True(t, sink.HasException())
	assert.Equal(t, exception.RuntimeTypeError, sink.Current().ErrorCode)
	assert.Equal(t, int64(1), slot.Get().GetAsInt(), "rejected assignment must leave the cell unchanged")
}

func TestGlobalDeclareAndAssign(t *testing.T) {
	g := NewGlobals()
	g.Declare("counter", value.NewInt(0), nil)
	var sink exception.Sink

	root, ok := Global(g, "counter")
	require.True(t, ok)
	h := Acquire(NewPath(root), &sink)
	h.Assign(value.NewInt(7))
	h.Close()

	root2, _ := Global(g, "counter")
	h2 := Acquire(NewPath(root2), &sink)
	assert.Equal(t, int64(7), h2.Get().GetAsInt())
	h2.Close()
}

func TestMemberAccessLocksAndUnlocksObject(t *testing.T) {
	obj := value.NewObject("Widget")
	o, _ := value.AsObject(obj)
	o.SetMember("name", value.NewString("a"))
	var sink exception.Sink

	h := Acquire(NewPath(ObjectRoot(obj), MemberStep("name")), &sink)
	require.False(t, h.Failed())
	assert.Equal(t, "a", h.Get().GetAsString())
	h.Assign(value.NewString("b"))
	h.Close()

	v, _ := o.GetMember("name")
	assert.Equal(t, "b", v.GetAsString())
}

func TestMemberAccessOnDeletedObjectFails(t *testing.T) {
	obj := value.NewObject("Widget")
	obj.Deref(&exception.Sink{})
	var sink exception.Sink

	h := Acquire(NewPath(ObjectRoot(obj), MemberStep("name")), &sink)
	assert.True(t, h.Failed())
	assert.Equal(t, exception.ObjectAlreadyDeleted, sink.Current().ErrorCode)
}

func TestListIndexAssign(t *testing.T) {
	slot := value.NewSlot(value.NewList(value.NewInt(1), value.NewInt(2)))
	var sink exception.Sink

	h := Acquire(NewPath(Local(slot, nil), IndexStep(1)), &sink)
	require.False(t, h.Failed())
	assert.Equal(t, int64(2), h.Get().GetAsInt())
	h.Assign(value.NewInt(99))
	h.Close()

	l, _ := value.AsList(slot.Get())
	assert.Equal(t, int64(99), l.Get(1).GetAsInt())
}

func TestHashKeyRemove(t *testing.T) {
	hv := value.NewHash()
	hs, _ := value.AsHash(hv)
	hs.Set("k", value.NewString("v"))
	slot := value.NewSlot(hv)
	var sink exception.Sink

	h := Acquire(NewPath(Local(slot, nil), HashKeyStep("k")), &sink)
	removed := h.Remove()
	h.Close()

	assert.Equal(t, "v", removed.GetAsString())
	_, ok := hs.Get("k")
	assert.False(t, ok)
}

func TestEnsureUniqueCopiesSharedList(t *testing.T) {
	shared := value.NewList(value.NewInt(1))
	slotA := value.NewSlot(shared.Ref())
	slotB := value.NewSlot(shared)
	var sink exception.Sink

	h := Acquire(NewPath(Local(slotA, nil)), &sink)
	fresh, copied := h.EnsureUnique()
	h.Close()

	require.True(t, copied)
	l, _ := value.AsList(fresh)
	l.Set(0, value.NewInt(100))

	lb, _ := value.AsList(slotB.Get())
	assert.Equal(t, int64(1), lb.Get(0).GetAsInt(), "mutating the copy must not affect the still-shared original")
}

func TestReferenceRoundTrip(t *testing.T) {
	obj := value.NewObject("Widget")
	o, _ := value.AsObject(obj)
	o.SetMember("x", value.NewInt(5))

	path := NewPath(ObjectRoot(obj), MemberStep("x"))
	ref := path.Reference(value.Nothing)

	recovered, ok := PathFromReference(ref)
	require.True(t, ok)

	var sink exception.Sink
	h := Acquire(recovered, &sink)
	assert.Equal(t, int64(5), h.Get().GetAsInt())
	h.Close()
}

func TestStaticVarSharedAcrossRoots(t *testing.T) {
	s := NewStatics()
	s.Declare("Widget", "count", value.NewInt(0), nil)
	var sink exception.Sink

	root, ok := StaticVar(s, "Widget", "count")
	require.True(t, ok)
	h := Acquire(NewPath(root), &sink)
	h.Assign(value.NewInt(3))
	h.Close()

	root2, _ := StaticVar(s, "Widget", "count")
	h2 := Acquire(NewPath(root2), &sink)
	assert.Equal(t, int64(3), h2.Get().GetAsInt())
	h2.Close()
}
