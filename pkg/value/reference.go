package value

// Reference is a first-class Value that captures an unresolved lvalue
// expression plus, for object-member references, a weak handle to the
// owning object (spec §3 Reference). Path is kept opaque
// (interface{}) so this package doesn't import pkg/lvalue, which in
// turn resolves Path back into a locked storage cell by type
// assertion — the same "opaque payload, typed elsewhere" shape
// already used by Closure.Body.
type Reference struct {
	Path      interface{}
	OwnerWeak Value // KindWeakRef or Nothing
}

// NewReference wraps r in a heap-backed Value. Destruction releases
// the weak owner handle; the path itself owns nothing.
func NewReference(r *Reference) Value {
	return newHeap(KindReference, r, func(sink Sink) {
		if r.OwnerWeak.node != nil {
			r.OwnerWeak.Deref(sink)
		}
	})
}

func AsReference(v Value) (*Reference, bool) {
	if v.kind != KindReference {
		return nil, false
	}
	return v.node.payload.(*Reference), true
}
