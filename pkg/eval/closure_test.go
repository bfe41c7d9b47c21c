package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qorelang/coreruntime/pkg/exception"
	"github.com/qorelang/coreruntime/pkg/value"
)

func TestClosureCallsWithArgs(t *testing.T) {
	pc := newPC()
	mc := &MakeClosure{
		Params: []string{"a", "b"},
		Body:   NewArithNode(OpAdd, &VarRef{Name: "a"}, &VarRef{Name: "b"}),
	}
	node := mc.ParseInit(pc, TopLevel)

	sink := &exception.Sink{}
	fn := node.Eval(sink)
	require.False(t, sink.HasException())

	result := Call(fn, []value.Value{value.NewInt(3), value.NewInt(4)}, sink)
	require.False(t, sink.HasException())
	assert.Equal(t, int64(7), result.GetAsInt())
}

func TestClosureCapturesOuterLocalByReference(t *testing.T) {
	pc := newPC()
	outer := pc.Declare("counter", nil)
	outer.Set(value.NewInt(1))

	mc := &MakeClosure{
		Body: &VarRef{Name: "counter"},
	}
	node := mc.ParseInit(pc, TopLevel)

	_, ok := mc.captures["counter"]
	require.True(t, ok, "counter should be captured since the closure body references it")

	sink := &exception.Sink{}
	fn := node.Eval(sink)
	require.False(t, sink.HasException())

	outer.Set(value.NewInt(99))
	result := Call(fn, nil, sink)
	assert.Equal(t, int64(99), result.GetAsInt())
}

func TestClosureMissingArgsBindNothing(t *testing.T) {
	pc := newPC()
	mc := &MakeClosure{
		Params: []string{"a", "b"},
		Body:   &VarRef{Name: "b"},
	}
	node := mc.ParseInit(pc, TopLevel)
	sink := &exception.Sink{}
	fn := node.Eval(sink)

	result := Call(fn, []value.Value{value.NewInt(1)}, sink)
	require.False(t, sink.HasException())
	assert.Equal(t, value.KindNothing, result.Kind())
}

func TestCallOnNonClosureRaises(t *testing.T) {
	sink := &exception.Sink{}
	Call(value.NewInt(1), nil, sink)
	assert.True(t, sink.HasException())
}

func TestBackgroundRejectsDirectLocalReference(t *testing.T) {
	pc := newPC()
	pc.Declare("x", nil)

	b := &Background{Expr: &VarRef{Name: "x"}}
	assert.Panics(t, func() {
		b.ParseInit(pc, TopLevel)
	})
}

func TestBackgroundAllowsAddressOfVar(t *testing.T) {
	pc := newPC()
	slot := pc.Declare("x", nil)
	slot.Set(value.NewInt(1))

	b := &Background{Expr: &AddressOfVar{Name: "x"}}
	assert.NotPanics(t, func() {
		b.ParseInit(pc, TopLevel)
	})
}

func TestAddressOfUndeclaredNameYieldsGlobalMiss(t *testing.T) {
	pc := newPC()
	a := &AddressOfVar{Name: "doesnotexist"}
	node := a.ParseInit(pc, TopLevel)
	_, ok := node.(*GlobalMiss)
	assert.True(t, ok)
}
