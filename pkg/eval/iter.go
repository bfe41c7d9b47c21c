package eval

import (
	"github.com/qorelang/coreruntime/pkg/exception"
	"github.com/qorelang/coreruntime/pkg/lvalue"
	"github.com/qorelang/coreruntime/pkg/value"
)

// row is one iteration step's argument list: a single element for a
// list, (key, value) for a hash, or whatever getValue() yields for an
// iterator-capability object (spec §4.5.2).
type row = []value.Value

// iterate flattens src into the rows map/select/foldl/foldr/keys share,
// or raises RUNTIME-TYPE-ERROR and returns (nil, false) if src isn't
// one of the three iterable shapes.
func iterate(src value.Value, sink *exception.Sink) ([]row, bool) {
	switch src.Kind() {
	case value.KindList:
		l, ok := value.AsList(src)
		if !ok {
			return nil, true // already-deleted list: nothing to iterate
		}
		out := make([]row, 0, l.Len())
		for _, v := range l.Items() {
			out = append(out, row{v})
		}
		return out, true
	case value.KindHash:
		h, ok := value.AsHash(src)
		if !ok {
			return nil, true
		}
		out := make([]row, 0, h.Len())
		for _, k := range h.Keys() {
			v, _ := h.Get(k)
			out = append(out, row{value.NewString(k), v})
		}
		return out, true
	case value.KindObject:
		return iterateObject(src, sink)
	default:
		sink.RaiseSystem(exception.RuntimeTypeError, "value does not support iteration")
		return nil, false
	}
}

// iterateObject drives the "iterator capability" (spec §4.5.2: "a
// polymorphic interface with next() and getValue()"): an object
// exposing both as no-argument closures. next() must return a boolean
// (truthy to continue); getValue() supplies that step's row.
func iterateObject(src value.Value, sink *exception.Sink) ([]row, bool) {
	obj, ok := value.AsObject(src)
	if !ok {
		sink.RaiseSystem(exception.ObjectAlreadyDeleted, "iteration over a deleted object")
		return nil, false
	}
	if obj.Deleted() {
		sink.RaiseSystem(exception.ObjectAlreadyDeleted, "iteration over deleted object of class "+obj.Class())
		return nil, false
	}
	nextFn, hasNext := obj.GetMember("next")
	getFn, hasGet := obj.GetMember("getValue")
	if !hasNext || !hasGet || nextFn.Kind() != value.KindClosure || getFn.Kind() != value.KindClosure {
		sink.RaiseSystem(exception.RuntimeTypeError, "object does not implement the iterator capability (next/getValue)")
		return nil, false
	}
	var out []row
	for {
		cont := Call(nextFn, nil, sink)
		truthy := cont.Truthy()
		cont.Deref(sink)
		if sink.HasException() || !truthy {
			break
		}
		v := Call(getFn, nil, sink)
		if sink.HasException() {
			v.Deref(sink)
			break
		}
		out = append(out, row{v})
	}
	return out, true
}

// Map implements `map` (spec §4.5.2): applies Fn to every row of
// Source, collecting the results into a new list. A hash source's
// rows are (key, value) pairs, so Fn takes two parameters there.
type Map struct {
	Fn, Source Node
}

func (m *Map) ParseInit(pc *ParseContext, flags Flags) Node {
	m.Fn = m.Fn.ParseInit(pc, flags&^ForAssignment)
	m.Source = m.Source.ParseInit(pc, flags&^ForAssignment)
	return m
}

func (m *Map) Eval(sink *exception.Sink) value.Value {
	fn := m.Fn.Eval(sink)
	defer fn.Deref(sink)
	src := m.Source.Eval(sink)
	defer src.Deref(sink)
	rows, ok := iterate(src, sink)
	if !ok {
		return value.Nothing
	}
	out := make([]value.Value, 0, len(rows))
	for _, r := range rows {
		if sink.HasException() {
			break
		}
		out = append(out, Call(fn, r, sink))
	}
	return value.NewList(out...)
}

// Select implements `select` (spec §4.5.2): keeps the rows for which
// Pred evaluates truthy, returning each passing row's first element
// (the element of a list, the key of a hash row), not the predicate's
// result.
type Select struct {
	Pred, Source Node
}

func (s *Select) ParseInit(pc *ParseContext, flags Flags) Node {
	s.Pred = s.Pred.ParseInit(pc, flags&^ForAssignment)
	s.Source = s.Source.ParseInit(pc, flags&^ForAssignment)
	return s
}

func (s *Select) Eval(sink *exception.Sink) value.Value {
	pred := s.Pred.Eval(sink)
	defer pred.Deref(sink)
	src := s.Source.Eval(sink)
	defer src.Deref(sink)
	rows, ok := iterate(src, sink)
	if !ok {
		return value.Nothing
	}
	var out []value.Value
	for _, r := range rows {
		if sink.HasException() {
			break
		}
		keep := Call(pred, r, sink)
		truthy := keep.Truthy()
		keep.Deref(sink)
		if truthy {
			out = append(out, r[0].Ref())
		}
	}
	return value.NewList(out...)
}

// Foldl implements `foldl`: folds Fn(acc, elem) left to right over
// Source starting from Init (spec §4.5.2).
type Foldl struct {
	Fn, Init, Source Node
}

func (f *Foldl) ParseInit(pc *ParseContext, flags Flags) Node {
	f.Fn = f.Fn.ParseInit(pc, flags&^ForAssignment)
	f.Init = f.Init.ParseInit(pc, flags&^ForAssignment)
	f.Source = f.Source.ParseInit(pc, flags&^ForAssignment)
	return f
}

func (f *Foldl) Eval(sink *exception.Sink) value.Value {
	fn := f.Fn.Eval(sink)
	defer fn.Deref(sink)
	acc := f.Init.Eval(sink)
	src := f.Source.Eval(sink)
	defer src.Deref(sink)
	rows, ok := iterate(src, sink)
	if !ok {
		return acc
	}
	for _, r := range rows {
		if sink.HasException() {
			break
		}
		acc = Call(fn, append([]value.Value{acc}, r...), sink)
	}
	return acc
}

// Foldr implements `foldr`: folds Fn(elem, acc) right to left.
type Foldr struct {
	Fn, Init, Source Node
}

func (f *Foldr) ParseInit(pc *ParseContext, flags Flags) Node {
	f.Fn = f.Fn.ParseInit(pc, flags&^ForAssignment)
	f.Init = f.Init.ParseInit(pc, flags&^ForAssignment)
	f.Source = f.Source.ParseInit(pc, flags&^ForAssignment)
	return f
}

func (f *Foldr) Eval(sink *exception.Sink) value.Value {
	fn := f.Fn.Eval(sink)
	defer fn.Deref(sink)
	acc := f.Init.Eval(sink)
	src := f.Source.Eval(sink)
	defer src.Deref(sink)
	rows, ok := iterate(src, sink)
	if !ok {
		return acc
	}
	for i := len(rows) - 1; i >= 0; i-- {
		if sink.HasException() {
			break
		}
		acc = Call(fn, append(append([]value.Value{}, rows[i]...), acc), sink)
	}
	return acc
}

// Keys implements `keys` (spec §4.5.2): the hash's keys, in insertion
// order, as a list of strings. Applied to anything else it raises
// RUNTIME-TYPE-ERROR.
type Keys struct {
	Source Node
}

func (k *Keys) ParseInit(pc *ParseContext, flags Flags) Node {
	k.Source = k.Source.ParseInit(pc, flags&^ForAssignment)
	return k
}

func (k *Keys) Eval(sink *exception.Sink) value.Value {
	src := k.Source.Eval(sink)
	defer src.Deref(sink)
	h, ok := value.AsHash(src)
	if !ok {
		sink.RaiseSystem(exception.RuntimeTypeError, "keys() requires a hash")
		return value.Nothing
	}
	ks := h.Keys()
	out := make([]value.Value, len(ks))
	for i, k := range ks {
		out[i] = value.NewString(k)
	}
	return value.NewList(out...)
}

// ListAssign implements `(a, b, c) = expr` (spec §4.5.2): position-
// wise when the rvalue is a list, else the whole rvalue goes to the
// first target and `nothing` to the rest.
type ListAssign struct {
	Targets []*lvalue.Path
	RHS     Node
}

func (l *ListAssign) ParseInit(pc *ParseContext, flags Flags) Node {
	l.RHS = l.RHS.ParseInit(pc, flags&^ForAssignment)
	return l
}

func (l *ListAssign) Eval(sink *exception.Sink) value.Value {
	rhs := l.RHS.Eval(sink)
	defer rhs.Deref(sink)

	rl, isList := value.AsList(rhs)
	for i, path := range l.Targets {
		h := lvalue.Acquire(path, sink)
		if h.Failed() {
			h.Close()
			continue
		}
		switch {
		case isList:
			h.Assign(rl.Get(i).Ref())
		case i == 0:
			h.Assign(rhs.Ref())
		default:
			h.Assign(value.Nothing)
		}
		h.Close()
	}
	return rhs.Ref()
}

// Extract implements `extract(lv, off, len, repl)` (spec §4.5.2):
// removes [off,off+len) from the list/string lvalue and returns the
// removed slice, replacing it in place with repl.
type Extract struct {
	Target         *lvalue.Path
	Off, Len, Repl Node
}

func (e *Extract) ParseInit(pc *ParseContext, flags Flags) Node {
	e.Off = e.Off.ParseInit(pc, flags&^ForAssignment)
	e.Len = e.Len.ParseInit(pc, flags&^ForAssignment)
	if e.Repl != nil {
		e.Repl = e.Repl.ParseInit(pc, flags&^ForAssignment)
	}
	return e
}

func (e *Extract) Eval(sink *exception.Sink) value.Value {
	h := lvalue.Acquire(e.Target, sink)
	defer h.Close()
	if h.Failed() {
		return value.Nothing
	}
	off := int(e.Off.Eval(sink).GetAsInt())
	length := int(e.Len.Eval(sink).GetAsInt())
	var repl []value.Value
	if e.Repl != nil {
		rv := e.Repl.Eval(sink)
		defer rv.Deref(sink)
		if rl, ok := value.AsList(rv); ok {
			repl = rl.Items()
		} else if rv.Kind() != value.KindNothing {
			repl = []value.Value{rv}
		}
	}

	cur, _ := h.EnsureUnique()
	l, ok := value.AsList(cur)
	if !ok {
		sink.RaiseSystem(exception.RuntimeTypeError, "extract() requires a list lvalue")
		return value.Nothing
	}
	for _, v := range repl {
		v.Ref()
	}
	removed := l.Extract(off, length, repl)
	return value.NewList(removed...)
}

// Splice implements `splice(lv, off, len, repl)` (spec §4.5.2): same
// range semantics as Extract, but discards the removed elements
// instead of returning them.
type Splice struct {
	Target         *lvalue.Path
	Off, Len, Repl Node
}

func (s *Splice) ParseInit(pc *ParseContext, flags Flags) Node {
	s.Off = s.Off.ParseInit(pc, flags&^ForAssignment)
	s.Len = s.Len.ParseInit(pc, flags&^ForAssignment)
	if s.Repl != nil {
		s.Repl = s.Repl.ParseInit(pc, flags&^ForAssignment)
	}
	return s
}

func (s *Splice) Eval(sink *exception.Sink) value.Value {
	h := lvalue.Acquire(s.Target, sink)
	defer h.Close()
	if h.Failed() {
		return value.Nothing
	}
	off := int(s.Off.Eval(sink).GetAsInt())
	length := int(s.Len.Eval(sink).GetAsInt())
	var repl []value.Value
	if s.Repl != nil {
		rv := s.Repl.Eval(sink)
		defer rv.Deref(sink)
		if rl, ok := value.AsList(rv); ok {
			repl = rl.Items()
		} else if rv.Kind() != value.KindNothing {
			repl = []value.Value{rv}
		}
	}

	cur, _ := h.EnsureUnique()
	l, ok := value.AsList(cur)
	if !ok {
		sink.RaiseSystem(exception.RuntimeTypeError, "splice() requires a list lvalue")
		return value.Nothing
	}
	for _, v := range repl {
		v.Ref()
	}
	l.Splice(sink, off, length, repl)
	return value.Nothing
}
