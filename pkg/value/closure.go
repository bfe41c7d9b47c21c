package value

// Slot is a captured-variable storage cell shared between a closure
// and the scope that created it. Closures hold a strong ref to each
// Slot they capture (spec §4.5.4); the slot outlives the stack frame
// that declared it for as long as any closure still references it.
type Slot struct {
	v Value
}

func NewSlot(v Value) *Slot      { return &Slot{v: v} }
func (s *Slot) Get() Value       { return s.v }
func (s *Slot) Set(v Value)      { s.v = v }

// Closure captures the outer locals it references by Slot, the
// enclosing "self" object (if any, as a weak ref per the cyclic-
// reference strategy in spec §9), and an opaque body handle the
// evaluator interprets.
type Closure struct {
	Params []string
	Body   interface{} // *eval.Node, kept opaque to avoid an import cycle
	Captures map[string]*Slot
	SelfWeak Value // KindWeakRef or Nothing
	Program  interface{}
}

// NewClosure wraps c in a heap-backed Value. Destruction releases the
// weak self-handle (weak refs are free to drop without ceremony) and
// captured slots are released because the Closure alone owned the
// strong Value each Slot holds.
func NewClosure(c *Closure) Value {
	return newHeap(KindClosure, c, func(sink Sink) {
		for _, s := range c.Captures {
			s.v.Deref(sink)
		}
		if c.SelfWeak.node != nil {
			c.SelfWeak.Deref(sink)
		}
	})
}

func AsClosure(v Value) (*Closure, bool) {
	if v.kind != KindClosure {
		return nil, false
	}
	return v.node.payload.(*Closure), true
}

// CallRef is a first-class reference to a callable: a function name,
// a bound method on an object, or a closure.
type CallRef struct {
	Name   string
	Self   Value // Nothing for a plain function/closure ref
	Target Value // KindClosure, or Nothing for a named lookup resolved later
}

func NewCallRef(c *CallRef) Value {
	return newHeap(KindCallRef, c, func(sink Sink) {
		if c.Self.node != nil {
			c.Self.Deref(sink)
		}
		if c.Target.node != nil {
			c.Target.Deref(sink)
		}
	})
}

func AsCallRef(v Value) (*CallRef, bool) {
	if v.kind != KindCallRef {
		return nil, false
	}
	return v.node.payload.(*CallRef), true
}
