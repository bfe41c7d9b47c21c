package eval

import (
	"github.com/qorelang/coreruntime/pkg/exception"
	"github.com/qorelang/coreruntime/pkg/value"
)

// Index implements `v[i]` (spec §4.5.2): one character of a string
// (UTF-8 safe, i.e. by rune not by byte), the element of a list or
// `nothing` if i is out of range, or — on a hash with an integer
// index, which the spec calls undefined and worth a parse warning —
// PARSE-TYPE-ERROR.
type Index struct {
	Target Node
	Idx    Node
}

func (ix *Index) ParseInit(pc *ParseContext, flags Flags) Node {
	ix.Target = ix.Target.ParseInit(pc, flags&^ForAssignment)
	ix.Idx = ix.Idx.ParseInit(pc, flags&^ForAssignment)
	return ix
}

func (ix *Index) Eval(sink *exception.Sink) value.Value {
	t := ix.Target.Eval(sink)
	defer t.Deref(sink)
	iv := ix.Idx.Eval(sink)
	defer iv.Deref(sink)
	i := int(iv.GetAsInt())

	switch t.Kind() {
	case value.KindString:
		runes := []rune(t.GetAsString())
		if i < 0 {
			i += len(runes)
		}
		if i < 0 || i >= len(runes) {
			return value.Nothing
		}
		return value.NewString(string(runes[i]))
	case value.KindList:
		l, ok := value.AsList(t)
		if !ok {
			return value.Nothing
		}
		return l.Get(i).Ref()
	case value.KindHash:
		sink.RaiseSystem(exception.ParseTypeError, "integer index on a hash is undefined")
		return value.Nothing
	default:
		sink.RaiseSystem(exception.RuntimeTypeError, "cannot index a "+t.Kind().String()+" value")
		return value.Nothing
	}
}

// RangeIndex implements `v[a..b]` (spec §4.5.2): a slice of a list or
// string, inclusive of both endpoints, with the same negative-offset/
// clamping rule extract and splice use. On a string, a and b count in
// characters, not bytes.
type RangeIndex struct {
	Target   Node
	From, To Node
}

func (r *RangeIndex) ParseInit(pc *ParseContext, flags Flags) Node {
	r.Target = r.Target.ParseInit(pc, flags&^ForAssignment)
	r.From = r.From.ParseInit(pc, flags&^ForAssignment)
	r.To = r.To.ParseInit(pc, flags&^ForAssignment)
	return r
}

func (r *RangeIndex) Eval(sink *exception.Sink) value.Value {
	t := r.Target.Eval(sink)
	defer t.Deref(sink)
	from := int(r.From.Eval(sink).GetAsInt())
	to := int(r.To.Eval(sink).GetAsInt())

	switch t.Kind() {
	case value.KindString:
		runes := []rune(t.GetAsString())
		o, e := value.ClampRange(len(runes), from, to-from+1)
		return value.NewString(string(runes[o:e]))
	case value.KindList:
		l, ok := value.AsList(t)
		if !ok {
			return value.Nothing
		}
		out := l.Slice(from, to-from+1)
		for _, v := range out {
			v.Ref()
		}
		return value.NewList(out...)
	default:
		sink.RaiseSystem(exception.RuntimeTypeError, "cannot range-index a "+t.Kind().String()+" value")
		return value.Nothing
	}
}
