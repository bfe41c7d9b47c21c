package eval

import (
	"github.com/qorelang/coreruntime/pkg/exception"
	"github.com/qorelang/coreruntime/pkg/lvalue"
	"github.com/qorelang/coreruntime/pkg/value"
)

// Assign implements simple `=` (spec §4.5.2): a single lvalue
// acquisition covers the read-old/install-new/release-old sequence
// lvalue.Helper.Assign already performs.
type Assign struct {
	Path *lvalue.Path
	RHS  Node
}

func (a *Assign) ParseInit(pc *ParseContext, flags Flags) Node {
	a.RHS = a.RHS.ParseInit(pc, flags&^ForAssignment)
	return a
}

func (a *Assign) Eval(sink *exception.Sink) value.Value {
	h := lvalue.Acquire(a.Path, sink)
	defer h.Close()
	if h.Failed() {
		return value.Nothing
	}
	v := a.RHS.Eval(sink)
	h.Assign(v)
	return h.Get().Ref()
}

// CompoundAssign implements `+=`, `-=`, `*=`, `/=`, `%=`, `<<=`, `>>=`,
// `&=`, `|=`, `^=`: the arithmetic op and the assignment share a single
// lvalue acquisition (spec §4.5.2).
type CompoundAssign struct {
	Path *lvalue.Path
	Op   ArithOp
	RHS  Node
}

func (c *CompoundAssign) ParseInit(pc *ParseContext, flags Flags) Node {
	c.RHS = c.RHS.ParseInit(pc, flags&^ForAssignment)
	return c
}

func (c *CompoundAssign) Eval(sink *exception.Sink) value.Value {
	h := lvalue.Acquire(c.Path, sink)
	defer h.Close()
	if h.Failed() {
		return value.Nothing
	}
	cur := h.Get()
	rhs := c.RHS.Eval(sink)
	defer rhs.Deref(sink)
	result := ApplyArith(c.Op, cur, rhs, sink)
	h.Assign(result)
	return h.Get().Ref()
}

// WeakAssign implements weak assignment (spec §4.5.2): when the rvalue
// is a container (list/hash/object), installs a weak reference to it
// instead of a strong one; any other rvalue kind behaves exactly like
// `=`.
type WeakAssign struct {
	Path *lvalue.Path
	RHS  Node
}

func (w *WeakAssign) ParseInit(pc *ParseContext, flags Flags) Node {
	w.RHS = w.RHS.ParseInit(pc, flags&^ForAssignment)
	return w
}

func isContainerKind(k value.Kind) bool {
	return k == value.KindList || k == value.KindHash || k == value.KindObject
}

func (w *WeakAssign) Eval(sink *exception.Sink) value.Value {
	h := lvalue.Acquire(w.Path, sink)
	defer h.Close()
	if h.Failed() {
		return value.Nothing
	}
	v := w.RHS.Eval(sink)
	if isContainerKind(v.Kind()) {
		weak := value.NewWeakRef(v)
		v.Deref(sink)
		h.Assign(weak)
	} else {
		h.Assign(v)
	}
	return h.Get().Ref()
}

// IncDec implements `++`/`--`, pre- and post-. Post is forced false by
// ParseInit when ReturnValueIgnored is set (spec §4.5.1: "enables
// turning x++ into ++x"), since a discarded result makes the two
// indistinguishable but pre-increment needs only one lvalue read.
type IncDec struct {
	Path  *lvalue.Path
	Delta int64
	Post  bool
}

func (i *IncDec) ParseInit(pc *ParseContext, flags Flags) Node {
	if flags.Has(ReturnValueIgnored) {
		i.Post = false
	}
	return i
}

func (i *IncDec) Eval(sink *exception.Sink) value.Value {
	h := lvalue.Acquire(i.Path, sink)
	defer h.Close()
	if h.Failed() {
		return value.Nothing
	}
	old := h.Get()
	next := ApplyArith(OpAdd, old, value.NewInt(i.Delta), sink)
	h.Assign(next)
	if i.Post {
		return old.Ref()
	}
	return h.Get().Ref()
}
