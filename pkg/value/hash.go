package value

// Hash is an insertion-ordered string-keyed map. Iteration order equals
// insertion order and is preserved across copies and slice operations
// (spec §3 Hash, §8 hash insertion-order stability).
type Hash struct {
	keys   []string
	values map[string]Value
}

// NewHash wraps an empty hash in a heap-backed Value.
func NewHash() Value {
	h := &Hash{values: make(map[string]Value)}
	return newHeap(KindHash, h, func(sink Sink) {
		for _, k := range h.keys {
			h.values[k].Deref(sink)
		}
	})
}

func asHash(v Value) *Hash {
	if v.kind != KindHash {
		return nil
	}
	h, _ := v.node.payload.(*Hash)
	return h
}

// Len returns the key count.
func (h *Hash) Len() int { return len(h.keys) }

// Keys returns the keys in insertion order.
func (h *Hash) Keys() []string {
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

// Get returns (value, true) if k is present, else (Nothing, false).
func (h *Hash) Get(k string) (Value, bool) {
	v, ok := h.values[k]
	if !ok {
		return Nothing, false
	}
	return v, true
}

// Set inserts or updates k. A first insertion appends k to the
// insertion-order key list; an update leaves the order unchanged.
func (h *Hash) Set(k string, v Value) {
	if _, ok := h.values[k]; !ok {
		h.keys = append(h.keys, k)
	}
	h.values[k] = v
}

// Delete removes k, returning the removed value (or Nothing if absent)
// and preserving the relative order of the remaining keys.
func (h *Hash) Delete(k string) (Value, bool) {
	old, ok := h.values[k]
	if !ok {
		return Nothing, false
	}
	delete(h.values, k)
	for i, kk := range h.keys {
		if kk == k {
			h.keys = append(h.keys[:i], h.keys[i+1:]...)
			break
		}
	}
	return old, true
}

// RealCopy returns a copy with the same insertion order and each value
// re-ref'd.
func (h *Hash) RealCopy() *Hash {
	cp := &Hash{keys: append([]string(nil), h.keys...), values: make(map[string]Value, len(h.values))}
	for k, v := range h.values {
		cp.values[k] = v.Ref()
	}
	return cp
}

// Slice returns a new Hash containing only the given keys, in the
// order they appear in h (a "column projection", used by context/find).
func (h *Hash) Slice(cols []string) *Hash {
	cp := &Hash{values: make(map[string]Value, len(cols))}
	want := make(map[string]bool, len(cols))
	for _, c := range cols {
		want[c] = true
	}
	for _, k := range h.keys {
		if want[k] {
			cp.keys = append(cp.keys, k)
			cp.values[k] = h.values[k]
		}
	}
	return cp
}
