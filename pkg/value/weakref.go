package value

import "sync/atomic"

// WeakRef is a first-class handle to a hash, list or object target. It
// keeps the target's heap envelope reachable (the node's slot) but
// does not contribute to the strong count, so it never prevents
// destruction. Grounded on the generational-reference discipline in
// the teacher's pkg/memory/genref.go (remembered-generation vs.
// current-generation mismatch => use-after-free), adapted here to the
// spec's simpler strong/weak refcount envelope rather than random
// generation numbers, since the spec calls for a deterministic
// strong-count-reaches-zero trigger, not a Vale-style UAF detector.
type WeakRef struct {
	target *heapNode
	of     Kind
}

// NewWeakRef creates a weak handle to v (which must be a heap-backed
// hash, list or object value) and returns it wrapped as a first-class
// Value of KindWeakRef.
func NewWeakRef(v Value) Value {
	if v.node == nil {
		return Nothing
	}
	atomic.AddInt64(&v.node.weak, 1)
	w := &WeakRef{target: v.node, of: v.kind}
	return newHeap(KindWeakRef, w, func(sink Sink) {
		w.release()
	})
}

func (w *WeakRef) release() {
	if atomic.AddInt64(&w.target.weak, -1) < 0 {
		atomic.StoreInt64(&w.target.weak, 0)
	}
}

// Resolve returns the live target and true, or (Nothing, false) once
// the target's strong count has reached zero — the "deleted" terminal
// state. Resolving never raises by itself; a caller that needs the
// OBJECT-ALREADY-DELETED exception (e.g. a member access through the
// weak handle) raises it itself when ok is false.
func (w *WeakRef) Resolve() (Value, bool) {
	if atomic.LoadInt32(&w.target.tomb) == 1 {
		return Nothing, false
	}
	// Re-validate under a strong bump so the node cannot transition to
	// deleted between the check and the caller's use of the value.
	if atomic.AddInt64(&w.target.strong, 1) <= 1 {
		// Raced with the final Deref: strong was already 0 or became
		// 1 only because of our own speculative bump.
		atomic.AddInt64(&w.target.strong, -1)
		return Nothing, false
	}
	return Value{kind: w.of, node: w.target}, true
}

func asWeakRef(v Value) *WeakRef {
	if v.kind != KindWeakRef {
		return nil
	}
	return v.node.payload.(*WeakRef)
}
