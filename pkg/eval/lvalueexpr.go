package eval

import (
	"github.com/qorelang/coreruntime/pkg/exception"
	"github.com/qorelang/coreruntime/pkg/lvalue"
	"github.com/qorelang/coreruntime/pkg/value"
)

// lvalueNode is the Node form of a resolvable lvalue path (spec §4.2):
// reading it evaluates to the cell's current value. The Assign family
// below embeds the same *lvalue.Path rather than an lvalueNode, since
// assignment needs the Helper itself (to Assign through it), not just
// a read.
type lvalueNode struct {
	path *lvalue.Path
}

func (n *lvalueNode) ParseInit(pc *ParseContext, flags Flags) Node {
	if flags.Has(ForAssignment) {
		return n
	}
	return n
}

func (n *lvalueNode) Eval(sink *exception.Sink) value.Value {
	h := lvalue.Acquire(n.path, sink)
	defer h.Close()
	if h.Failed() {
		return value.Nothing
	}
	return h.Get().Ref()
}

// RefOf builds the `&expr` reference-capture node: evaluating it
// produces a value.Reference wrapping lv's path rather than the cell's
// current value (spec §3 Reference, §4.2 "dereferenced reference").
// ownerWeak, when non-nil, supplies the owning object's weak handle
// for a member-rooted path.
type RefOf struct {
	Path      *lvalue.Path
	OwnerWeak func(sink *exception.Sink) value.Value
}

func (r *RefOf) ParseInit(pc *ParseContext, flags Flags) Node { return r }

func (r *RefOf) Eval(sink *exception.Sink) value.Value {
	owner := value.Nothing
	if r.OwnerWeak != nil {
		owner = r.OwnerWeak(sink)
	}
	return r.Path.Reference(owner)
}

// Deref evaluates expr, which must resolve to a KindReference value,
// re-acquires the captured path, and returns the cell's current value
// (spec §4.2 "dereferenced reference" root kind).
type Deref struct {
	Expr Node
}

func (d *Deref) ParseInit(pc *ParseContext, flags Flags) Node {
	d.Expr = d.Expr.ParseInit(pc, flags&^ForAssignment)
	return d
}

func (d *Deref) Eval(sink *exception.Sink) value.Value {
	rv := d.Expr.Eval(sink)
	defer rv.Deref(sink)
	path, ok := lvalue.PathFromReference(rv)
	if !ok {
		sink.RaiseSystem(exception.RuntimeTypeError, "dereference of a non-reference value")
		return value.Nothing
	}
	h := lvalue.Acquire(path, sink)
	defer h.Close()
	if h.Failed() {
		return value.Nothing
	}
	return h.Get().Ref()
}
