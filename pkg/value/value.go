// Package value implements the language's tagged value representation:
// atomic reference-counted heap nodes, weak references with a terminal
// "deleted" state, and the soft/hard equality and coercion rules shared
// by the evaluator and lvalue engine.
package value

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"time"
)

// Kind tags the variant a Value carries.
type Kind int

const (
	KindNothing Kind = iota
	KindNull
	KindBool
	KindInt
	KindFloat
	KindString
	KindDate
	KindBinary
	KindList
	KindHash
	KindObject
	KindClosure
	KindCallRef
	KindRegex
	KindWeakRef
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindNothing:
		return "nothing"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindBinary:
		return "binary"
	case KindList:
		return "list"
	case KindHash:
		return "hash"
	case KindObject:
		return "object"
	case KindClosure:
		return "closure"
	case KindCallRef:
		return "callref"
	case KindRegex:
		return "regex"
	case KindWeakRef:
		return "weakref"
	case KindReference:
		return "reference"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// heapNode is the refcounted payload that backs every container/object
// Value. Inline kinds (bool, null, nothing, small ints handled by the
// host language surface) never allocate one.
type heapNode struct {
	strong int64 // atomic; >0 while any strong handle exists
	weak   int64 // atomic; keeps the envelope (not the payload) alive
	tomb   int32 // atomic; 1 once the strong count reached zero

	destroy func(sink Sink) // type-specific destructor, may raise via sink

	payload interface{} // *list, *Hash, *Object, etc.
}

// Sink is the minimal exception-reporting surface the value model needs;
// it is implemented by *exception.Sink without value importing exception,
// avoiding an import cycle between the two core packages.
type Sink interface {
	RaiseSystem(code, description string)
}

// Value is the tagged sum type every evaluator expression produces.
type Value struct {
	kind Kind

	b  bool
	i  int64
	f  float64
	s  string
	t  time.Time
	bn []byte

	node *heapNode // non-nil for list/hash/object/closure/callref/regex
}

// Singletons: inline, process-wide, identity-compared, never freed.
var (
	True    = Value{kind: KindBool, b: true}
	False   = Value{kind: KindBool, b: false}
	Null    = Value{kind: KindNull}
	Nothing = Value{kind: KindNothing}
)

// Kind returns the tag of v.
func (v Value) Kind() Kind { return v.kind }

// IsHeap reports whether v owns a refcounted heap node.
func (v Value) IsHeap() bool { return v.node != nil }

// --- constructors for inline kinds ---

func NewBool(b bool) Value {
	if b {
		return True
	}
	return False
}

func NewInt(i int64) Value      { return Value{kind: KindInt, i: i} }
func NewFloat(f float64) Value  { return Value{kind: KindFloat, f: f} }
func NewString(s string) Value  { return Value{kind: KindString, s: s} }
func NewDate(t time.Time) Value { return Value{kind: KindDate, t: t} }
func NewBinary(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KindBinary, bn: cp}
}

// newHeap wraps payload in a fresh heap node with strong count 1 and
// returns a Value of the given kind pointing at it.
func newHeap(kind Kind, payload interface{}, destroy func(Sink)) Value {
	return Value{kind: kind, node: &heapNode{strong: 1, payload: payload, destroy: destroy}}
}

// --- refcounting contract ---

// Ref atomically increments the strong count of v's heap node, if any.
// Inline values are no-ops: they have static lifetime.
func (v Value) Ref() Value {
	if v.node != nil {
		atomic.AddInt64(&v.node.strong, 1)
	}
	return v
}

// Deref atomically decrements the strong count; at zero it runs the
// type-specific destructor (which may itself raise through sink) and
// marks the node deleted so weak holders observe the terminal state.
func (v Value) Deref(sink Sink) {
	if v.node == nil {
		return
	}
	if atomic.AddInt64(&v.node.strong, -1) == 0 {
		atomic.StoreInt32(&v.node.tomb, 1)
		if v.node.destroy != nil {
			v.node.destroy(sink)
		}
		v.node.payload = nil
		// Release the allocator's implicit weak slot; the envelope
		// itself is freed once no WeakRef is left holding it either.
		if atomic.AddInt64(&v.node.weak, -1) == -1 {
			atomic.StoreInt64(&v.node.weak, 0)
		}
	}
}

// IsUnique reports whether v is the sole strong holder of its node,
// i.e. it is safe to mutate in place without copy-on-write.
func (v Value) IsUnique() bool {
	if v.node == nil {
		return true
	}
	return atomic.LoadInt64(&v.node.strong) == 1
}

// IsDeleted reports whether the underlying node has already run its
// destructor (strong count reached zero).
func (v Value) IsDeleted() bool {
	if v.node == nil {
		return false
	}
	return atomic.LoadInt32(&v.node.tomb) == 1
}

// Pinned is a strong hold on a value pulled out of a locked cell so it
// can be used (or released) independently of the lock that guarded it.
// Grounded on qore's ReferenceHolder/ReferenceHelper split between
// "holding a value" and "holding a lock" (see original_source/_INDEX.md,
// include/qore/ReferenceHolder.h / ReferenceHelper.h): releasing a lock
// and releasing the value it guarded are independent, reorderable ops.
type Pinned struct {
	v      Value
	sink   Sink
	active bool
}

// Pin takes an additional strong reference to v and returns a handle
// that releases it exactly once.
func (v Value) Pin(sink Sink) *Pinned {
	return &Pinned{v: v.Ref(), sink: sink, active: true}
}

// Value returns the pinned value.
func (p *Pinned) Value() Value { return p.v }

// Release drops the pin's strong reference. Safe to call multiple
// times; only the first call has effect.
func (p *Pinned) Release() {
	if !p.active {
		return
	}
	p.active = false
	p.v.Deref(p.sink)
}

// --- equality ---

// SoftEq is the coercive equality used by `==`/`!=`: cross-type operands
// widen per the same numeric precedence rule as arithmetic and strings
// compare after coercion. Never throws.
func SoftEq(a, b Value) bool {
	if a.kind == KindNothing || b.kind == KindNothing {
		return a.kind == b.kind
	}
	if a.kind == KindNull || b.kind == KindNull {
		return a.kind == b.kind
	}
	if a.kind == KindString || b.kind == KindString {
		return a.GetAsString() == b.GetAsString()
	}
	if a.kind == KindFloat || b.kind == KindFloat {
		return a.GetAsFloat() == b.GetAsFloat()
	}
	if a.kind == KindBool || b.kind == KindBool {
		return a.GetAsBool() == b.GetAsBool()
	}
	return a.GetAsInt() == b.GetAsInt()
}

// HardEq is tag-and-value equality used by `===`/`!==`: the kinds must
// match exactly and, for inline kinds, the payload must match; for
// heap kinds identity (same node) is required.
func HardEq(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNothing, KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	case KindString:
		return a.s == b.s
	case KindDate:
		return a.t.Equal(b.t)
	case KindBinary:
		if len(a.bn) != len(b.bn) {
			return false
		}
		for i := range a.bn {
			if a.bn[i] != b.bn[i] {
				return false
			}
		}
		return true
	default:
		return a.node == b.node
	}
}

// Truthy implements the general truthiness rule used by `??`, `&&`,
// `||` and `?:`'s condition: false for 0/0.0/""/empty-container/null/
// nothing, true otherwise.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNothing, KindNull:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString:
		return v.s != ""
	case KindBinary:
		return len(v.bn) != 0
	case KindList:
		return v.node.payload.(*List).Len() != 0
	case KindHash:
		return v.node.payload.(*Hash).Len() != 0
	default:
		return true
	}
}

// --- total coercions ---

func (v Value) GetAsBool() bool { return v.Truthy() }

func (v Value) GetAsInt() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return int64(v.f)
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindString:
		n, err := strconv.ParseInt(leadingNumeric(v.s, false), 10, 64)
		if err != nil {
			return 0
		}
		return n
	case KindDate:
		return v.t.Unix()
	default:
		return 0
	}
}

func (v Value) GetAsFloat() float64 {
	switch v.kind {
	case KindFloat:
		return v.f
	case KindInt:
		return float64(v.i)
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindString:
		f, err := strconv.ParseFloat(leadingNumeric(v.s, true), 64)
		if err != nil {
			return 0
		}
		return f
	case KindDate:
		return float64(v.t.Unix())
	default:
		return 0
	}
}

func (v Value) GetAsString() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindDate:
		return v.t.Format(time.RFC3339)
	case KindNull, KindNothing:
		return ""
	default:
		return ""
	}
}

func (v Value) GetAsDate() time.Time {
	switch v.kind {
	case KindDate:
		return v.t
	case KindInt:
		return time.Unix(v.i, 0).UTC()
	case KindFloat:
		sec := int64(v.f)
		nsec := int64((v.f - float64(sec)) * 1e9)
		return time.Unix(sec, nsec).UTC()
	default:
		return time.Unix(0, 0).UTC()
	}
}

func (v Value) Binary() []byte { return v.bn }

// leadingNumeric extracts the longest numeric prefix of s the way a
// total numeric-string coercion does: non-numeric input yields "0".
func leadingNumeric(s string, float bool) string {
	i := 0
	n := len(s)
	for i < n && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	start := i
	if i < n && (s[i] == '+' || s[i] == '-') {
		i++
	}
	sawDigit := false
	for i < n && s[i] >= '0' && s[i] <= '9' {
		i++
		sawDigit = true
	}
	if float && i < n && s[i] == '.' {
		j := i + 1
		for j < n && s[j] >= '0' && s[j] <= '9' {
			j++
			sawDigit = true
		}
		if j > i+1 {
			i = j
		}
	}
	if !sawDigit {
		return "0"
	}
	return s[start:i]
}
