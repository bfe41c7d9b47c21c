package eval

import (
	"sort"

	"github.com/qorelang/coreruntime/pkg/exception"
	"github.com/qorelang/coreruntime/pkg/value"
)

// contextFrame is the runtime state of one active `context` body (spec
// §4.5.3): the current row, exposed to %col/%%/NAME:col lookups inside
// the body subtree. Like MakeClosure's parameter slots, a single frame
// is allocated at parse_init time and reused for every row and for
// every invocation of the enclosing Context node; nested/concurrent
// evaluation of the same Context node shares this frame and is not
// supported here.
type contextFrame struct {
	name string
	row  *value.Hash
}

// buildRows normalizes src into a row-major slice of *value.Hash (spec
// §4.5.3: "a row-major view of either a list of hashes or a hash of
// equal-length lists").
func buildRows(src value.Value, sink *exception.Sink) ([]*value.Hash, bool) {
	switch src.Kind() {
	case value.KindList:
		l, ok := value.AsList(src)
		if !ok {
			return nil, true
		}
		out := make([]*value.Hash, 0, l.Len())
		for _, v := range l.Items() {
			h, ok := value.AsHash(v)
			if !ok {
				sink.RaiseSystem(exception.RuntimeTypeError, "context source list must contain only hashes")
				return nil, false
			}
			out = append(out, h)
		}
		return out, true
	case value.KindHash:
		h, ok := value.AsHash(src)
		if !ok {
			return nil, true
		}
		cols := h.Keys()
		n := -1
		for _, c := range cols {
			cv, _ := h.Get(c)
			cl, ok := value.AsList(cv)
			if !ok {
				sink.RaiseSystem(exception.RuntimeTypeError, "context source hash must contain only equal-length lists")
				return nil, false
			}
			if n == -1 {
				n = cl.Len()
			} else if cl.Len() != n {
				sink.RaiseSystem(exception.RuntimeTypeError, "context source hash columns must be equal length")
				return nil, false
			}
		}
		rows := make([]*value.Hash, n)
		for i := 0; i < n; i++ {
			rv := value.NewHash()
			rh, _ := value.AsHash(rv)
			for _, c := range cols {
				cv, _ := h.Get(c)
				cl, _ := value.AsList(cv)
				rh.Set(c, cl.Get(i))
			}
			rows[i] = rh
		}
		return rows, true
	default:
		sink.RaiseSystem(exception.RuntimeTypeError, "context source must be a list of hashes or a hash of lists")
		return nil, false
	}
}

// ColumnRef resolves `%col` (FrameName == "") or `NAME:col` against the
// active context frame's current row. `%%` is a ColumnRef with an
// empty Col, returning the whole row as a hash.
type ColumnRef struct {
	FrameName string
	Col       string

	frame *contextFrame
}

func (c *ColumnRef) ParseInit(pc *ParseContext, flags Flags) Node {
	c.frame = pc.resolveContext(c.FrameName)
	if c.frame == nil {
		panic(parseError{"column reference outside any active context"})
	}
	return c
}

func (c *ColumnRef) Eval(sink *exception.Sink) value.Value {
	if c.Col == "" {
		return value.HashValue(c.frame.row.RealCopy())
	}
	v, ok := c.frame.row.Get(c.Col)
	if !ok {
		return value.Nothing
	}
	return v.Ref()
}

// Context implements `context NAME (EXPR) where PRED sort-by ASC|DESC
// BODY` (spec §4.5.3): iterates EXPR's rows in the filtered, sorted
// order, evaluating Body once per row and collecting the results into
// a list.
type Context struct {
	Name           string
	Source         Node
	Where          Node // nil if absent
	SortBy         Node // nil if absent
	SortDescending bool
	Body           Node

	frame *contextFrame
}

func (c *Context) ParseInit(pc *ParseContext, flags Flags) Node {
	c.Source = c.Source.ParseInit(pc, flags&^ForAssignment)
	c.frame = &contextFrame{name: c.Name}
	pop := pc.pushContext(c.frame)
	if c.Where != nil {
		c.Where = c.Where.ParseInit(pc, flags&^ForAssignment)
	}
	if c.SortBy != nil {
		c.SortBy = c.SortBy.ParseInit(pc, flags&^ForAssignment)
	}
	c.Body = c.Body.ParseInit(pc, flags&^ForAssignment&^TopLevel)
	pop()
	return c
}

func (c *Context) Eval(sink *exception.Sink) value.Value {
	src := c.Source.Eval(sink)
	defer src.Deref(sink)
	rows, ok := buildRows(src, sink)
	if !ok {
		return value.Nothing
	}

	var filtered []*value.Hash
	for _, r := range rows {
		c.frame.row = r
		if c.Where == nil {
			filtered = append(filtered, r)
			continue
		}
		keep := c.Where.Eval(sink)
		truthy := keep.Truthy()
		keep.Deref(sink)
		if truthy {
			filtered = append(filtered, r)
		}
	}

	if c.SortBy != nil {
		keys := make([]value.Value, len(filtered))
		for i, r := range filtered {
			c.frame.row = r
			keys[i] = c.SortBy.Eval(sink)
		}
		idx := make([]int, len(filtered))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(i, j int) bool {
			less := ApplyCmp(CmpLt, keys[idx[i]], keys[idx[j]]).Truthy()
			if c.SortDescending {
				return ApplyCmp(CmpGt, keys[idx[i]], keys[idx[j]]).Truthy()
			}
			return less
		})
		sorted := make([]*value.Hash, len(filtered))
		for i, j := range idx {
			sorted[i] = filtered[j]
		}
		filtered = sorted
		for _, k := range keys {
			k.Deref(sink)
		}
	}

	out := make([]value.Value, 0, len(filtered))
	for _, r := range filtered {
		c.frame.row = r
		out = append(out, c.Body.Eval(sink))
	}
	return value.NewList(out...)
}

// Summarize implements `summarize ... by KEY` (spec §4.5.3): groups
// adjacent rows sharing KEY's value (rows are expected pre-sorted by
// that key, matching the "groups adjacent rows" wording) and evaluates
// Body once per group, with the frame's row set to the group's first
// row for the duration of Body.
type Summarize struct {
	Name   string
	Source Node
	Key    Node
	Body   Node

	frame *contextFrame
}

func (s *Summarize) ParseInit(pc *ParseContext, flags Flags) Node {
	s.Source = s.Source.ParseInit(pc, flags&^ForAssignment)
	s.frame = &contextFrame{name: s.Name}
	pop := pc.pushContext(s.frame)
	s.Key = s.Key.ParseInit(pc, flags&^ForAssignment)
	s.Body = s.Body.ParseInit(pc, flags&^ForAssignment&^TopLevel)
	pop()
	return s
}

func (s *Summarize) Eval(sink *exception.Sink) value.Value {
	src := s.Source.Eval(sink)
	defer src.Deref(sink)
	rows, ok := buildRows(src, sink)
	if !ok {
		return value.Nothing
	}

	var out []value.Value
	i := 0
	for i < len(rows) {
		s.frame.row = rows[i]
		groupKey := s.Key.Eval(sink)
		j := i + 1
		for j < len(rows) {
			s.frame.row = rows[j]
			k := s.Key.Eval(sink)
			same := value.SoftEq(groupKey, k)
			k.Deref(sink)
			if !same {
				break
			}
			j++
		}
		s.frame.row = rows[i]
		out = append(out, s.Body.Eval(sink))
		groupKey.Deref(sink)
		i = j
	}
	return value.NewList(out...)
}

// Find implements `find COLS where PRED` (spec §4.5.2, §4.5.3): the
// declarative projection of a context's matching rows onto Cols,
// returned as a list of hashes.
type Find struct {
	Name   string
	Source Node
	Where  Node
	Cols   []string

	frame *contextFrame
}

func (f *Find) ParseInit(pc *ParseContext, flags Flags) Node {
	f.Source = f.Source.ParseInit(pc, flags&^ForAssignment)
	f.frame = &contextFrame{name: f.Name}
	pop := pc.pushContext(f.frame)
	f.Where = f.Where.ParseInit(pc, flags&^ForAssignment)
	pop()
	return f
}

func (f *Find) Eval(sink *exception.Sink) value.Value {
	src := f.Source.Eval(sink)
	defer src.Deref(sink)
	rows, ok := buildRows(src, sink)
	if !ok {
		return value.Nothing
	}
	var out []value.Value
	for _, r := range rows {
		f.frame.row = r
		keep := f.Where.Eval(sink)
		truthy := keep.Truthy()
		keep.Deref(sink)
		if truthy {
			out = append(out, value.HashValue(r.Slice(f.Cols)))
		}
	}
	return value.NewList(out...)
}

// Sort implements the standalone `sort` operator (spec §4.5.3 "sorts
// are stable"): sorts Source (a list) by Key evaluated per element.
// Inside Key, the current row (frame Name) is a single-column hash
// holding the element under the column "value", so %value is the
// element itself and %% is that one-column hash.
type Sort struct {
	Name       string
	Source     Node
	Key        Node
	Descending bool

	frame *contextFrame
}

func (s *Sort) ParseInit(pc *ParseContext, flags Flags) Node {
	s.Source = s.Source.ParseInit(pc, flags&^ForAssignment)
	s.frame = &contextFrame{name: s.Name}
	pop := pc.pushContext(s.frame)
	s.Key = s.Key.ParseInit(pc, flags&^ForAssignment)
	pop()
	return s
}

func (s *Sort) Eval(sink *exception.Sink) value.Value {
	src := s.Source.Eval(sink)
	defer src.Deref(sink)
	l, ok := value.AsList(src)
	if !ok {
		sink.RaiseSystem(exception.RuntimeTypeError, "sort requires a list")
		return value.Nothing
	}
	items := l.Items()
	keys := make([]value.Value, len(items))
	for i, v := range items {
		rv := value.NewHash()
		rh, _ := value.AsHash(rv)
		rh.Set("value", v)
		s.frame.row = rh
		keys[i] = s.Key.Eval(sink)
	}
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		if s.Descending {
			return ApplyCmp(CmpGt, keys[idx[i]], keys[idx[j]]).Truthy()
		}
		return ApplyCmp(CmpLt, keys[idx[i]], keys[idx[j]]).Truthy()
	})
	out := make([]value.Value, len(items))
	for i, j := range idx {
		out[i] = items[j].Ref()
	}
	for _, k := range keys {
		k.Deref(sink)
	}
	return value.NewList(out...)
}
