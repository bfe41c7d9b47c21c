package value

// AsList returns the backing *List and true if v is a list value whose
// node hasn't already been torn down (a fully-dereffed node's payload
// is cleared, so a stale Value observes false here rather than a nil
// *List).
func AsList(v Value) (*List, bool) {
	if v.kind != KindList {
		return nil, false
	}
	l := asList(v)
	return l, l != nil
}

// AsHash returns the backing *Hash and true if v is a hash value whose
// node hasn't already been torn down.
func AsHash(v Value) (*Hash, bool) {
	if v.kind != KindHash {
		return nil, false
	}
	h := asHash(v)
	return h, h != nil
}

// AsObject returns the backing *Object and true if v is an object
// value whose node hasn't already been torn down.
func AsObject(v Value) (*Object, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	o := asObject(v)
	return o, o != nil
}

// AsWeakRef returns the backing *WeakRef and true if v is a weak
// reference value.
func AsWeakRef(v Value) (*WeakRef, bool) {
	if v.kind != KindWeakRef {
		return nil, false
	}
	return asWeakRef(v), true
}

// ListValue wraps an existing *List as a fresh heap Value sharing
// storage — used by the lvalue engine's ensure-unique path.
func ListValue(l *List) Value {
	return newHeap(KindList, l, func(sink Sink) {
		for _, e := range l.items {
			e.Deref(sink)
		}
	})
}

// HashValue wraps an existing *Hash as a fresh heap Value sharing
// storage — used by the lvalue engine's ensure-unique path.
func HashValue(h *Hash) Value {
	return newHeap(KindHash, h, func(sink Sink) {
		for _, k := range h.keys {
			h.values[k].Deref(sink)
		}
	})
}
