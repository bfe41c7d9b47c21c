// Package lvalue implements the lvalue engine (spec §4.2): resolving a
// variable/member-access/index/static-class-var/dereferenced-reference
// expression to a locked storage cell, assigning through it with the
// cell's declared-type constraint enforced, and releasing every lock
// acquired along the way — in reverse order — once the caller is
// done.
//
// Grounded on the acquire/release-as-separate-concerns split behind
// value.Pinned (itself grounded on original_source's
// ReferenceHolder/ReferenceHelper pairing), and on the
// enter-scope/exit-scope stack discipline of the teacher's
// pkg/analysis/region.go, generalized here from a compile-time region
// stack to a runtime lock stack: resolution walks the path
// left-to-right, acquiring at most one lock per Object encountered,
// and a Helper unwinds that stack in reverse on Close regardless of
// how resolution ended.
package lvalue

import (
	"sync"

	"github.com/qorelang/coreruntime/pkg/exception"
	"github.com/qorelang/coreruntime/pkg/value"
)

// TypeConstraint is the declared-type check installed on a cell (spec
// §4.2: "declared types on locals, members, and static class vars are
// enforced on assignment"). A nil constraint accepts any value.
type TypeConstraint func(value.Value) bool

// Accepts reports whether v satisfies c; a nil constraint accepts
// anything, including nothing.
func (c TypeConstraint) Accepts(v value.Value) bool {
	return c == nil || c(v)
}

// KindConstraint builds a TypeConstraint accepting exactly the listed
// Kinds, plus `nothing` (an untyped/unassigned cell is always
// representable regardless of its declared type).
func KindConstraint(kinds ...value.Kind) TypeConstraint {
	set := make(map[value.Kind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return func(v value.Value) bool {
		return v.Kind() == value.KindNothing || set[v.Kind()]
	}
}

// rootKind distinguishes the four places an lvalue path may start
// (spec §4.2: "variable, member access, index, static-class variable,
// or dereferenced reference").
type rootKind int

const (
	rootLocal rootKind = iota
	rootGlobal
	rootStatic
	rootObject
)

// Root is where a Path begins.
type Root struct {
	kind   rootKind
	slot   *value.Slot
	typ    TypeConstraint
	object value.Value // KindObject, valid when kind == rootObject
}

// Local roots a path at a local-variable Slot (spec §4.2 "variable").
func Local(s *value.Slot, c TypeConstraint) Root {
	return Root{kind: rootLocal, slot: s, typ: c}
}

// Global roots a path at a global declared in g.
func Global(g *Globals, name string) (Root, bool) {
	s, c, ok := g.slot(name)
	if !ok {
		return Root{}, false
	}
	return Root{kind: rootGlobal, slot: s, typ: c}, true
}

// StaticVar roots a path at a static class variable declared in s.
func StaticVar(s *Statics, class, name string) (Root, bool) {
	slot, c, ok := s.slot(class, name)
	if !ok {
		return Root{}, false
	}
	return Root{kind: rootStatic, slot: slot, typ: c}, true
}

// ObjectRoot roots a path at an object whose members will be walked
// by one or more Member steps (spec §4.2 "member access").
func ObjectRoot(o value.Value) Root { return Root{kind: rootObject, object: o} }

// Step is one hop of a Path beyond its Root: a member name, a list
// index, or a hash key.
type Step struct {
	member string
	hasIdx bool
	idx    int
	hasKey bool
	key    string
}

func MemberStep(name string) Step  { return Step{member: name} }
func IndexStep(i int) Step         { return Step{hasIdx: true, idx: i} }
func HashKeyStep(k string) Step    { return Step{hasKey: true, key: k} }

// Path is a fully-built, as-yet-unresolved lvalue expression: a Root
// plus zero or more Steps. A *Path is also the opaque payload stored
// inside value.Reference, letting `&expr` capture a path and
// Dereference re-resolve it later under the owner's lock (spec §3
// Reference, §4.2 "dereferenced reference").
type Path struct {
	root  Root
	steps []Step
}

// NewPath builds a path from a root and the steps walking from it.
func NewPath(root Root, steps ...Step) *Path {
	return &Path{root: root, steps: append([]Step(nil), steps...)}
}

// Reference captures p as a first-class value.Reference. ownerWeak is
// the weak handle to the owning object for a member-rooted or
// member-stepped path (Nothing for a bare local/global/static
// reference, which has no "owner" to weakly track).
func (p *Path) Reference(ownerWeak value.Value) value.Value {
	return value.NewReference(&value.Reference{Path: p, OwnerWeak: ownerWeak})
}

// PathFromReference recovers the Path a value.Reference captured, or
// (nil, false) if v isn't a reference.
func PathFromReference(v value.Value) (*Path, bool) {
	r, ok := value.AsReference(v)
	if !ok {
		return nil, false
	}
	p, ok := r.Path.(*Path)
	return p, ok
}

// lockedObject is one Object this resolution locked, tracked so Close
// can unlock in reverse acquisition order (spec §4.2: "destruction of
// the helper releases all locks it acquired, in reverse order").
type lockedObject struct {
	obj   *value.Object
	write bool
}

// cellKind distinguishes the four writable-leaf shapes a resolved
// path can land on.
type cellKind int

const (
	cellSlot cellKind = iota
	cellMember
	cellListIndex
	cellHashKey
)

// Helper is a resolved, locked lvalue: the live result of acquire().
// Every method requires the helper not yet be closed.
type Helper struct {
	sink value.Sink

	kind cellKind

	slot *value.Slot
	typ  TypeConstraint

	obj  *value.Object
	name string

	list *value.List
	idx  int

	hash *value.Hash
	key  string

	locks  []lockedObject
	closed bool
}

// Acquire walks path left-to-right, locking each Object it passes
// through exactly once (exclusively, since any step may end in a
// write) and returns a Helper over the final cell. Deadlock is
// structurally impossible: the traversal only ever locks forward
// through distinct objects and never re-enters one already on its own
// chain (spec §4.2).
func Acquire(path *Path, sink value.Sink) *Helper {
	h := &Helper{sink: sink}

	var cur value.Value
	switch path.root.kind {
	case rootLocal, rootGlobal, rootStatic:
		h.kind = cellSlot
		h.slot = path.root.slot
		h.typ = path.root.typ
		if len(path.steps) == 0 {
			return h
		}
		cur = path.root.slot.Get()
	case rootObject:
		cur = path.root.object
	}

	for i, step := range path.steps {
		last := i == len(path.steps)-1
		switch {
		case step.hasIdx:
			l, ok := value.AsList(cur)
			if !ok {
				h.fail(exception.RuntimeTypeError, "cannot index a non-list value with []")
				return h
			}
			if last {
				h.kind = cellListIndex
				h.list = l
				h.idx = step.idx
				return h
			}
			cur = l.Get(step.idx)
		case step.hasKey:
			hs, ok := value.AsHash(cur)
			if !ok {
				h.fail(exception.RuntimeTypeError, "cannot key-index a non-hash value")
				return h
			}
			if last {
				h.kind = cellHashKey
				h.hash = hs
				h.key = step.key
				return h
			}
			v, _ := hs.Get(step.key)
			cur = v
		default: // member access: requires an Object, locked here
			if cur.Kind() != value.KindObject {
				h.fail(exception.RuntimeTypeError, "cannot access member '"+step.member+"' on a non-object value")
				return h
			}
			obj, ok := value.AsObject(cur)
			if !ok {
				// Right kind, but the node was already torn down: the
				// owning object was deleted out from under this path.
				h.fail(exception.ObjectAlreadyDeleted, "member access on a deleted object")
				return h
			}
			obj.Lock()
			h.locks = append(h.locks, lockedObject{obj: obj, write: true})
			if obj.Deleted() {
				h.fail(exception.ObjectAlreadyDeleted, "member access on deleted object of class "+obj.Class())
				return h
			}
			if last {
				h.kind = cellMember
				h.obj = obj
				h.name = step.member
				h.typ = nil
				return h
			}
			v, _ := obj.GetMember(step.member)
			cur = v
		}
	}
	return h
}

func (h *Helper) fail(code, desc string) {
	if h.sink != nil {
		h.sink.RaiseSystem(code, desc)
	}
	h.closed = true
}

// Failed reports whether acquisition itself raised (a bad member/index
// step, or access through an already-deleted object); a failed
// helper's other methods are no-ops.
func (h *Helper) Failed() bool { return h.closed }

// Get reads the cell's current value without transferring ownership
// (spec §4.2 "read-through access ... without transferring
// ownership").
func (h *Helper) Get() value.Value {
	if h.closed {
		return value.Nothing
	}
	switch h.kind {
	case cellSlot:
		return h.slot.Get()
	case cellMember:
		v, _ := h.obj.GetMember(h.name)
		return v
	case cellListIndex:
		return h.list.Get(h.idx)
	case cellHashKey:
		v, _ := h.hash.Get(h.key)
		return v
	}
	return value.Nothing
}

// Assign type-checks v against the cell's declared-type constraint
// (only local/global/static slot cells carry one; member cells and
// list/hash element cells are not type-checked), releases the old
// value, and installs v. A rejected assignment raises
// RUNTIME-TYPE-ERROR and leaves the cell unchanged (spec §4.2).
func (h *Helper) Assign(v value.Value) {
	if h.closed {
		return
	}
	if h.kind == cellSlot || h.kind == cellMember {
		if !h.typ.Accepts(v) {
			h.sink.RaiseSystem(exception.RuntimeTypeError, "assignment value does not satisfy the cell's declared type")
			return
		}
	}
	old := h.Get()
	switch h.kind {
	case cellSlot:
		h.slot.Set(v)
	case cellMember:
		h.obj.SetMember(h.name, v)
	case cellListIndex:
		h.list.Set(h.idx, v)
	case cellHashKey:
		h.hash.Set(h.key, v)
	}
	old.Deref(h.sink)
}

// EnsureUnique copy-on-writes the cell's container value if it is
// currently shared (spec §4.2 "helper.ensure_unique()"), so the
// caller may mutate the returned *value.List/*value.Hash in place.
// Non-container cells are returned unchanged; the boolean reports
// whether the cell holds a mutated (fresh) copy.
func (h *Helper) EnsureUnique() (value.Value, bool) {
	if h.closed {
		return value.Nothing, false
	}
	cur := h.Get()
	if cur.IsUnique() {
		return cur, false
	}
	switch cur.Kind() {
	case value.KindList:
		l, _ := value.AsList(cur)
		fresh := value.ListValue(l.RealCopy())
		h.Assign(fresh)
		return fresh, true
	case value.KindHash:
		hs, _ := value.AsHash(cur)
		fresh := value.HashValue(hs.RealCopy())
		h.Assign(fresh)
		return fresh, true
	default:
		return cur, false
	}
}

// Remove reads the cell's current value out and installs `nothing`
// (spec §4.2, used by `delete`/`remove`/`splice`).
func (h *Helper) Remove() value.Value {
	if h.closed {
		return value.Nothing
	}
	v := h.Get()
	switch h.kind {
	case cellSlot:
		h.slot.Set(value.Nothing)
	case cellMember:
		h.obj.SetMember(h.name, value.Nothing)
	case cellListIndex:
		h.list.Set(h.idx, value.Nothing)
	case cellHashKey:
		h.hash.Delete(h.key)
	}
	return v
}

// Close releases every lock this Helper acquired, in reverse
// acquisition order (spec §4.2). Safe to call more than once.
func (h *Helper) Close() {
	for i := len(h.locks) - 1; i >= 0; i-- {
		lo := h.locks[i]
		if lo.write {
			lo.obj.Unlock()
		} else {
			lo.obj.RUnlock()
		}
	}
	h.locks = nil
	h.closed = true
}

// Globals is the process-wide global-variable store (spec §4.2
// "global" root kind). Each variable gets its own Slot so closures and
// backgrounded expressions may capture it directly rather than going
// through the store on every access.
type Globals struct {
	mu    sync.RWMutex
	slots map[string]*value.Slot
	types map[string]TypeConstraint
}

func NewGlobals() *Globals {
	return &Globals{slots: make(map[string]*value.Slot), types: make(map[string]TypeConstraint)}
}

// Declare creates name with initial value v and optional type
// constraint c, if it doesn't already exist. Redeclaring an existing
// global is a no-op.
func (g *Globals) Declare(name string, v value.Value, c TypeConstraint) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.slots[name]; ok {
		return
	}
	g.slots[name] = value.NewSlot(v)
	if c != nil {
		g.types[name] = c
	}
}

func (g *Globals) slot(name string) (*value.Slot, TypeConstraint, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.slots[name]
	return s, g.types[name], ok
}

// Statics is the store backing static class variables, keyed by
// (class, name) (spec §4.2 "static-class variable" root kind).
type Statics struct {
	mu    sync.RWMutex
	slots map[string]*value.Slot
	types map[string]TypeConstraint
}

func NewStatics() *Statics {
	return &Statics{slots: make(map[string]*value.Slot), types: make(map[string]TypeConstraint)}
}

func (s *Statics) Declare(class, name string, v value.Value, c TypeConstraint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := class + "::" + name
	if _, ok := s.slots[key]; ok {
		return
	}
	s.slots[key] = value.NewSlot(v)
	if c != nil {
		s.types[key] = c
	}
}

func (s *Statics) slot(class, name string) (*value.Slot, TypeConstraint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := class + "::" + name
	sl, ok := s.slots[key]
	return sl, s.types[key], ok
}
