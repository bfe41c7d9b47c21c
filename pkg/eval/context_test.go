package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qorelang/coreruntime/pkg/exception"
	"github.com/qorelang/coreruntime/pkg/lvalue"
	"github.com/qorelang/coreruntime/pkg/value"
)

func newPC() *ParseContext {
	return NewParseContext(lvalue.NewGlobals(), lvalue.NewStatics())
}

func hashRow(pairs ...interface{}) value.Value {
	h := value.NewHash()
	hh, _ := value.AsHash(h)
	for i := 0; i < len(pairs); i += 2 {
		hh.Set(pairs[i].(string), pairs[i+1].(value.Value))
	}
	return h
}

func TestContextFiltersAndProjects(t *testing.T) {
	rows := value.NewList(
		hashRow("name", value.NewString("a"), "n", value.NewInt(1)),
		hashRow("name", value.NewString("b"), "n", value.NewInt(2)),
		hashRow("name", value.NewString("c"), "n", value.NewInt(3)),
	)

	ctx := &Context{
		Name:   "t",
		Source: &Literal{V: rows},
		Where:  NewCmpNode(CmpGt, &ColumnRef{Col: "n"}, &Literal{V: value.NewInt(1)}),
		Body:   &ColumnRef{Col: "name"},
	}
	pc := newPC()
	node := ctx.ParseInit(pc, TopLevel)

	sink := &exception.Sink{}
	result := node.Eval(sink)
	require.False(t, sink.HasException())
	l, ok := value.AsList(result)
	require.True(t, ok)
	require.Equal(t, 2, l.Len())
	assert.Equal(t, "b", l.Get(0).GetAsString())
	assert.Equal(t, "c", l.Get(1).GetAsString())
}

func TestContextSortByDescending(t *testing.T) {
	rows := value.NewList(
		hashRow("n", value.NewInt(3)),
		hashRow("n", value.NewInt(1)),
		hashRow("n", value.NewInt(2)),
	)

	ctx := &Context{
		Name:           "t",
		Source:         &Literal{V: rows},
		SortBy:         &ColumnRef{Col: "n"},
		SortDescending: true,
		Body:           &ColumnRef{Col: "n"},
	}
	pc := newPC()
	node := ctx.ParseInit(pc, TopLevel)

	sink := &exception.Sink{}
	result := node.Eval(sink)
	require.False(t, sink.HasException())
	l, _ := value.AsList(result)
	require.Equal(t, 3, l.Len())
	assert.Equal(t, int64(3), l.Get(0).GetAsInt())
	assert.Equal(t, int64(2), l.Get(1).GetAsInt())
	assert.Equal(t, int64(1), l.Get(2).GetAsInt())
}

func TestSummarizeGroupsAdjacentRows(t *testing.T) {
	rows := value.NewList(
		hashRow("grp", value.NewString("x"), "n", value.NewInt(1)),
		hashRow("grp", value.NewString("x"), "n", value.NewInt(2)),
		hashRow("grp", value.NewString("y"), "n", value.NewInt(3)),
	)

	sm := &Summarize{
		Name:   "t",
		Source: &Literal{V: rows},
		Key:    &ColumnRef{Col: "grp"},
		Body:   &ColumnRef{Col: "grp"},
	}
	pc := newPC()
	node := sm.ParseInit(pc, TopLevel)

	sink := &exception.Sink{}
	result := node.Eval(sink)
	require.False(t, sink.HasException())
	l, _ := value.AsList(result)
	require.Equal(t, 2, l.Len())
	assert.Equal(t, "x", l.Get(0).GetAsString())
	assert.Equal(t, "y", l.Get(1).GetAsString())
}

func TestFindProjectsMatchingRows(t *testing.T) {
	rows := value.NewList(
		hashRow("name", value.NewString("a"), "n", value.NewInt(1)),
		hashRow("name", value.NewString("b"), "n", value.NewInt(5)),
	)

	f := &Find{
		Name:   "t",
		Source: &Literal{V: rows},
		Where:  NewCmpNode(CmpGe, &ColumnRef{Col: "n"}, &Literal{V: value.NewInt(5)}),
		Cols:   []string{"name"},
	}
	pc := newPC()
	node := f.ParseInit(pc, TopLevel)

	sink := &exception.Sink{}
	result := node.Eval(sink)
	require.False(t, sink.HasException())
	l, _ := value.AsList(result)
	require.Equal(t, 1, l.Len())
	h, _ := value.AsHash(l.Get(0))
	name, ok := h.Get("name")
	require.True(t, ok)
	assert.Equal(t, "b", name.GetAsString())
}

func TestColumnRefDoubleePercentReturnsWholeRow(t *testing.T) {
	rows := value.NewList(hashRow("n", value.NewInt(1)))
	ctx := &Context{
		Name:   "t",
		Source: &Literal{V: rows},
		Body:   &ColumnRef{Col: ""},
	}
	pc := newPC()
	node := ctx.ParseInit(pc, TopLevel)

	sink := &exception.Sink{}
	result := node.Eval(sink)
	require.False(t, sink.HasException())
	l, _ := value.AsList(result)
	require.Equal(t, 1, l.Len())
	h, ok := value.AsHash(l.Get(0))
	require.True(t, ok)
	n, _ := h.Get("n")
	assert.Equal(t, int64(1), n.GetAsInt())
}

func TestColumnRefOutsideContextPanics(t *testing.T) {
	assert.Panics(t, func() {
		(&ColumnRef{Col: "n"}).ParseInit(newPC(), TopLevel)
	})
}

func TestSortOrdersByKeyColumn(t *testing.T) {
	items := value.NewList(value.NewInt(3), value.NewInt(1), value.NewInt(2))
	s := &Sort{
		Name:   "t",
		Source: &Literal{V: items},
		Key:    &ColumnRef{Col: "value"},
	}
	pc := newPC()
	node := s.ParseInit(pc, TopLevel)

	sink := &exception.Sink{}
	result := node.Eval(sink)
	require.False(t, sink.HasException())
	l, _ := value.AsList(result)
	require.Equal(t, 3, l.Len())
	assert.Equal(t, int64(1), l.Get(0).GetAsInt())
	assert.Equal(t, int64(2), l.Get(1).GetAsInt())
	assert.Equal(t, int64(3), l.Get(2).GetAsInt())
}
