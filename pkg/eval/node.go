// Package eval implements the evaluator and operator semantics (spec
// §4.5): the two-phase Node lifetime (parse_init/eval), arithmetic and
// comparison widening, short-circuit and coalescing operators, the
// assignment family wired through pkg/lvalue, indexing, the iteration
// operators, list assignment, extract/splice, backquote, context/
// summarize/sort/find, closures and the background operator.
//
// Every Node is produced already built (this package has no lexer or
// parser of its own — spec.md's module map leaves parsing outside the
// runtime core) and is run through ParseInit once before any Eval.
package eval

import (
	"github.com/qorelang/coreruntime/pkg/exception"
	"github.com/qorelang/coreruntime/pkg/lvalue"
	"github.com/qorelang/coreruntime/pkg/value"
)

// Flags are the parse-init context bits threaded through a subtree
// (spec §4.5.1). They are combined with bitwise or and inherited by
// child nodes except where a node explicitly narrows or extends them
// (e.g. a Background node adds the Background bit for its argument).
type Flags uint32

const (
	// ReturnValueIgnored allows an expression-statement to rewrite a
	// post-increment into a pre-increment, since nothing observes the
	// stale value either way.
	ReturnValueIgnored Flags = 1 << iota
	// Background forbids direct local-variable references; only
	// `&ref` captures are legal inside the subtree.
	Background
	// ForAssignment requires the subtree resolve to an lvalue shape.
	ForAssignment
	// ConstExpression forbids side effects, for evaluating constant
	// initializers at parse time.
	ConstExpression
	// RethrowOK permits a bare `rethrow` (only meaningful inside a
	// catch block).
	RethrowOK
	// TopLevel marks a node evaluated outside any function body.
	TopLevel
)

// Has reports whether bit is set in f.
func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// binding is one local variable's parse-time slot: its storage and its
// declared type, if any.
type binding struct {
	slot *value.Slot
	typ  lvalue.TypeConstraint
}

// scope is one block's local-variable bindings, chained to its parent
// so parse_init can resolve a name through enclosing blocks. A
// boundary scope additionally records every outer binding resolved
// through it — the closure-capture set a MakeClosure needs (spec
// §4.5.4: "captures the outer local variables it references").
type scope struct {
	parent   *scope
	vars     map[string]*binding
	boundary bool
	captured map[string]*binding
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: make(map[string]*binding)}
}

func newBoundaryScope(parent *scope) *scope {
	return &scope{parent: parent, vars: make(map[string]*binding), boundary: true, captured: make(map[string]*binding)}
}

// declare introduces name as a new local in this scope and bumps the
// enclosing ParseContext's lvid_count (spec §4.5.1: "increments
// lvid_count for each local it introduces").
func (s *scope) declare(pc *ParseContext, name string, typ lvalue.TypeConstraint) *value.Slot {
	slot := value.NewSlot(value.Nothing)
	s.vars[name] = &binding{slot: slot, typ: typ}
	pc.LvidCount++
	return slot
}

// resolve walks outward from s looking for name, or (nil, false) if no
// enclosing scope declares it. A lookup that crosses a boundary scope
// on its way to an outer binding registers that binding as captured
// by the boundary.
func (s *scope) resolve(name string) (*binding, bool) {
	var crossed *scope
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.vars[name]; ok {
			if crossed != nil {
				crossed.captured[name] = b
			}
			return b, true
		}
		if cur.boundary && crossed == nil {
			crossed = cur
		}
	}
	return nil, false
}

// ParseContext is the outer_scope/flags/lvid_count/out_type_info
// bundle threaded through parse_init (spec §4.5.1).
type ParseContext struct {
	LvidCount int
	OutType   value.Kind

	cur *scope

	Globals *lvalue.Globals
	Statics *lvalue.Statics

	ctxStack []*contextFrame
}

// pushContext enters a named context body (spec §4.5.3), returning the
// pop function. Named so `NAME:col` can resolve the right frame even
// when contexts nest; unnamed (%col, %%) lookups use the innermost.
func (pc *ParseContext) pushContext(f *contextFrame) func() {
	pc.ctxStack = append(pc.ctxStack, f)
	return func() { pc.ctxStack = pc.ctxStack[:len(pc.ctxStack)-1] }
}

// resolveContext finds the frame for name, or the innermost frame when
// name is empty.
func (pc *ParseContext) resolveContext(name string) *contextFrame {
	if name == "" {
		if len(pc.ctxStack) == 0 {
			return nil
		}
		return pc.ctxStack[len(pc.ctxStack)-1]
	}
	for i := len(pc.ctxStack) - 1; i >= 0; i-- {
		if pc.ctxStack[i].name == name {
			return pc.ctxStack[i]
		}
	}
	return nil
}

// NewParseContext starts a fresh top-level context over shared global
// and static-variable stores.
func NewParseContext(globals *lvalue.Globals, statics *lvalue.Statics) *ParseContext {
	return &ParseContext{cur: newScope(nil), Globals: globals, Statics: statics}
}

// PushScope enters a new nested block, returning a function that pops
// back to the enclosing one — mirroring the teacher's enter/exit-scope
// stack discipline, generalized here from a compile-time region stack
// to parse-time local-binding scopes.
func (pc *ParseContext) PushScope() func() {
	parent := pc.cur
	pc.cur = newScope(parent)
	return func() { pc.cur = parent }
}

// Declare introduces a new local in the current scope.
func (pc *ParseContext) Declare(name string, typ lvalue.TypeConstraint) *value.Slot {
	return pc.cur.declare(pc, name, typ)
}

// PushClosureScope enters a new closure body: a boundary scope that
// records which outer bindings get captured as parse_init resolves
// references inside it. The returned function pops back to the
// enclosing scope and must be called exactly once, after the caller
// has read back whichever bindings were captured.
func (pc *ParseContext) PushClosureScope() func() {
	parent := pc.cur
	pc.cur = newBoundaryScope(parent)
	return func() { pc.cur = parent }
}

// capturedOf returns the boundary scope's captured-binding set. Only
// meaningful immediately before the matching PushClosureScope pop.
func (pc *ParseContext) capturedOf() map[string]*binding {
	return pc.cur.captured
}

// Resolve looks up name in the current scope chain.
func (pc *ParseContext) Resolve(name string) (*value.Slot, lvalue.TypeConstraint, bool) {
	b, ok := pc.cur.resolve(name)
	if !ok {
		return nil, nil, false
	}
	return b.slot, b.typ, true
}

// Node is the two-phase AST lifetime every evaluable expression
// implements (spec §4.5.1). ParseInit runs once, after parsing, and
// may return a different (e.g. constant-folded) Node in its place;
// Eval runs once per execution under the calling thread's sink.
type Node interface {
	ParseInit(pc *ParseContext, flags Flags) Node
	Eval(sink *exception.Sink) value.Value
}

// Literal is a compile-time constant: parse_init is a no-op and it
// folds trivially into itself wherever it appears in a constant-folded
// parent.
type Literal struct {
	V value.Value
}

func (l *Literal) ParseInit(pc *ParseContext, flags Flags) Node { return l }
func (l *Literal) Eval(sink *exception.Sink) value.Value        { return l.V }

// LocalRef reads (and, through Slot, writes) a local variable. It is
// built already bound to a declared Slot — name resolution against the
// enclosing ParseContext happens in VarRef, below, which is what a
// parser actually emits for a bare identifier.
type LocalRef struct {
	Slot *value.Slot
	Typ  lvalue.TypeConstraint
}

func (l *LocalRef) ParseInit(pc *ParseContext, flags Flags) Node {
	if flags.Has(Background) {
		panic(parseError{"local variable referenced directly inside background expression; use &ref"})
	}
	return l
}
func (l *LocalRef) Eval(sink *exception.Sink) value.Value { return l.Slot.Get().Ref() }

// VarRef is an unresolved identifier reference, resolved against the
// ParseContext's scope chain (falling back to Globals) during
// ParseInit and replaced by the resolved node.
type VarRef struct {
	Name string
}

// parseError is panicked by ParseInit on a static, parse-time failure
// such as a background-expression rule violation (spec §4.5.5) — there
// is no sink yet to raise into at parse time, only ever at eval time.
type parseError struct{ msg string }

func (e parseError) Error() string { return e.msg }

func (r *VarRef) ParseInit(pc *ParseContext, flags Flags) Node {
	if slot, typ, ok := pc.Resolve(r.Name); ok {
		if flags.Has(Background) {
			panic(parseError{"local variable '" + r.Name + "' referenced directly inside background expression; use &ref"})
		}
		return (&LocalRef{Slot: slot, Typ: typ}).ParseInit(pc, flags&^Background)
	}
	if root, ok := lvalue.Global(pc.Globals, r.Name); ok {
		return (&lvalueNode{path: lvalue.NewPath(root)}).ParseInit(pc, flags)
	}
	return &GlobalMiss{Name: r.Name}
}
func (r *VarRef) Eval(sink *exception.Sink) value.Value { return value.Nothing }

// AddressOfVar builds `&name` (spec §3 Reference, §4.5.5): permitted
// even inside a Background argument, since it captures the variable by
// reference rather than reading it directly — the one escape hatch
// the background rule carves out of "no direct local references."
type AddressOfVar struct {
	Name string
}

func (a *AddressOfVar) ParseInit(pc *ParseContext, flags Flags) Node {
	if slot, typ, ok := pc.Resolve(a.Name); ok {
		return &RefOf{Path: lvalue.NewPath(lvalue.Local(slot, typ))}
	}
	if root, ok := lvalue.Global(pc.Globals, a.Name); ok {
		return &RefOf{Path: lvalue.NewPath(root)}
	}
	return &GlobalMiss{Name: a.Name}
}

func (a *AddressOfVar) Eval(sink *exception.Sink) value.Value { return value.Nothing }

// GlobalMiss is the resolved form of a VarRef naming neither a local
// nor a declared global; evaluating it raises RUNTIME-TYPE-ERROR
// rather than silently returning nothing, so a typo surfaces at
// eval-time rather than vanishing.
type GlobalMiss struct{ Name string }

func (g *GlobalMiss) ParseInit(pc *ParseContext, flags Flags) Node { return g }
func (g *GlobalMiss) Eval(sink *exception.Sink) value.Value {
	sink.RaiseSystem(exception.RuntimeTypeError, "reference to undeclared variable '"+g.Name+"'")
	return value.Nothing
}
