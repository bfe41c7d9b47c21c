package eval

import (
	"github.com/qorelang/coreruntime/pkg/exception"
	"github.com/qorelang/coreruntime/pkg/value"
)

// MakeClosure builds a value.Closure (spec §4.5.4): its body parses in
// a boundary scope so parse_init discovers exactly which outer locals
// the body references, each becoming a captured Slot shared with the
// enclosing scope (capture-by-reference, not by value — a later
// assignment through either side is visible to the other).
type MakeClosure struct {
	Params []string
	Body   Node
	Self   value.Value // KindObject, or Nothing outside a method body
	Program interface{}

	paramSlots []*value.Slot
	captures   map[string]*value.Slot
}

func (m *MakeClosure) ParseInit(pc *ParseContext, flags Flags) Node {
	pop := pc.PushClosureScope()
	m.paramSlots = make([]*value.Slot, len(m.Params))
	for i, p := range m.Params {
		m.paramSlots[i] = pc.Declare(p, nil)
	}
	m.Body = m.Body.ParseInit(pc, flags&^Background&^ForAssignment&^TopLevel)
	captured := pc.capturedOf()
	m.captures = make(map[string]*value.Slot, len(captured))
	for name, b := range captured {
		m.captures[name] = b.slot
	}
	pop()
	return m
}

func (m *MakeClosure) Eval(sink *exception.Sink) value.Value {
	captures := make(map[string]*value.Slot, len(m.captures))
	for name, slot := range m.captures {
		slot.Get().Ref()
		captures[name] = slot
	}
	var selfWeak value.Value
	if m.Self.Kind() == value.KindObject {
		selfWeak = value.NewWeakRef(m.Self)
	} else {
		selfWeak = value.Nothing
	}
	c := &value.Closure{
		Params:   append([]string(nil), m.Params...),
		Body:     m,
		Captures: captures,
		SelfWeak: selfWeak,
		Program:  m.Program,
	}
	return value.NewClosure(c)
}

// Call implements invoking a closure value (spec §4.5.4: "pushes a
// call frame, rebinds captured slots, and evaluates the body"). args
// are bound positionally to the closure's declared parameters; a
// shorter argument list leaves the remaining parameters `nothing`.
//
// Parameter slots are allocated once at parse_init time and reused on
// every call, rather than fresh per call frame: a recursive or
// concurrently-backgrounded call to the same closure value shares
// parameter storage with any other call in flight. A full per-call
// frame stack (each LocalRef resolving an lvid against the active
// frame instead of a baked-in *Slot) would remove this restriction;
// it is out of scope here; serialize calls to a given closure value
// that recurse or run concurrently until such a frame stack exists.
func Call(fn value.Value, args []value.Value, sink *exception.Sink) value.Value {
	c, ok := value.AsClosure(fn)
	if !ok {
		sink.RaiseSystem(exception.RuntimeTypeError, "call target is not a closure")
		return value.Nothing
	}
	mc, ok := c.Body.(*MakeClosure)
	if !ok {
		sink.RaiseSystem(exception.RuntimeTypeError, "closure body is not an evaluator node")
		return value.Nothing
	}

	for i, ps := range mc.paramSlots {
		if i < len(args) {
			ps.Set(args[i].Ref())
		} else {
			ps.Set(value.Nothing)
		}
	}
	return mc.Body.Eval(sink)
}
