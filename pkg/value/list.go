package value

// List is a growable, O(1)-size ordered sequence of Values.
type List struct {
	items []Value
}

// NewList wraps elems in a fresh heap-backed list Value.
func NewList(elems ...Value) Value {
	l := &List{items: append([]Value(nil), elems...)}
	return newHeap(KindList, l, func(sink Sink) {
		for _, e := range l.items {
			e.Deref(sink)
		}
	})
}

func asList(v Value) *List {
	if v.kind != KindList {
		return nil
	}
	l, _ := v.node.payload.(*List)
	return l
}

// Len returns the element count.
func (l *List) Len() int { return len(l.items) }

// Get returns the element at i, or Nothing when out of range (spec
// §4.5.2 indexing rule for lists).
func (l *List) Get(i int) Value {
	if i < 0 || i >= len(l.items) {
		return Nothing
	}
	return l.items[i]
}

// Set assigns the element at i, growing with Nothing-filled padding if
// i is beyond the current length.
func (l *List) Set(i int, v Value) {
	for i >= len(l.items) {
		l.items = append(l.items, Nothing)
	}
	l.items[i] = v
}

// Push appends v.
func (l *List) Push(v Value) { l.items = append(l.items, v) }

// RealCopy returns a deep-enough copy for assignment-on-write: a fresh
// backing slice with each element re-ref'd (not deep-copied itself).
func (l *List) RealCopy() *List {
	cp := make([]Value, len(l.items))
	for i, v := range l.items {
		cp[i] = v.Ref()
	}
	return &List{items: cp}
}

func (l *List) Items() []Value { return l.items }

// ClampRange is the exported form of clampRange, for callers outside
// this package (pkg/eval's ranged-indexing operator) that need the
// same "negative offsets count from the end, out-of-range clamps"
// rule over a rune slice rather than a *List.
func ClampRange(n, off, length int) (int, int) { return clampRange(n, off, length) }

// clampRange applies the "negative offsets count from the end, out of
// range clamps" rule shared by ranged-indexing, extract and splice.
func clampRange(n, off, length int) (int, int) {
	if off < 0 {
		off += n
		if off < 0 {
			off = 0
		}
	}
	if off > n {
		off = n
	}
	end := off + length
	if length < 0 {
		end = n + length
		if end < off {
			end = off
		}
	}
	if end > n {
		end = n
	}
	if end < off {
		end = off
	}
	return off, end
}

// Slice returns the list elements in [off,off+length) per the
// clamping/negative-offset rule, without consuming the source.
func (l *List) Slice(off, length int) []Value {
	o, e := clampRange(len(l.items), off, length)
	out := make([]Value, e-o)
	copy(out, l.items[o:e])
	return out
}

// Extract removes [off,off+length) and returns the removed elements,
// replacing them in place with repl (possibly empty). Negative offsets
// and out-of-range lengths are clamped before the splice.
func (l *List) Extract(off, length int, repl []Value) []Value {
	o, e := clampRange(len(l.items), off, length)
	removed := append([]Value(nil), l.items[o:e]...)
	tail := append([]Value(nil), l.items[e:]...)
	l.items = append(append(l.items[:o:o], repl...), tail...)
	return removed
}

// Splice replaces [off,off+length) with repl in place, discarding the
// removed elements (releasing them through sink).
func (l *List) Splice(sink Sink, off, length int, repl []Value) {
	removed := l.Extract(off, length, repl)
	for _, v := range removed {
		v.Deref(sink)
	}
}
