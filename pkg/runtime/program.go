package runtime

import (
	"fmt"
	"sync"

	"github.com/qorelang/coreruntime/pkg/eval"
	"github.com/qorelang/coreruntime/pkg/exception"
	"github.com/qorelang/coreruntime/pkg/lockset"
	"github.com/qorelang/coreruntime/pkg/lvalue"
	"github.com/qorelang/coreruntime/pkg/threadreg"
	"github.com/qorelang/coreruntime/pkg/value"
)

// entry is one label registered by program_parse: the ParseInit'd
// form of the node handed in by the host (which owns parsing/lexing;
// spec.md's module map leaves that outside the runtime core), which is
// what program_run evaluates.
type entry struct {
	node eval.Node
}

// Program is the embeddable unit spec §6 describes: parse_options plus
// the global/static stores, the thread registry, and the named entry
// points program_parse has registered. A Program with no parent is the
// top-level program; NewChild derives a nested one that inherits
// restrictions per the parse-options child rule.
type Program struct {
	options ParseOptions
	parent  *Program

	globals *lvalue.Globals
	statics *lvalue.Statics

	lockRegistry *lockset.Registry
	threads      *threadreg.Manager

	mu      sync.RWMutex
	entries map[string]*entry
}

// DefaultHandler reports the aggregated error a thread leaves behind
// when it detaches still holding locks or registered resources: it
// prints the thread id and the error via fmt, and does nothing for a
// nil error. CreateProgram installs it as the thread manager's handler.
func DefaultHandler(tid lockset.TID, err error) {
	if err != nil {
		fmt.Printf("thread %d exited with unreleased resources: %v\n", tid, err)
	}
}

// CreateProgram implements program_create(parse_options) (spec §6).
func CreateProgram(options ParseOptions) *Program {
	locks := lockset.NewRegistry()
	return &Program{
		options:      options,
		globals:      lvalue.NewGlobals(),
		statics:      lvalue.NewStatics(),
		lockRegistry: locks,
		threads:      threadreg.NewManager(locks, DefaultHandler),
		entries:      make(map[string]*entry),
	}
}

// NewChild derives a restricted sub-program (spec §6: "a child program
// cannot relax any bit set by its parent unless no-child-restrictions
// is clear"). childOpts bits absent from p's own options are simply
// added; bits p already set are dropped from childOpts unless p left
// NoChildRestrictions clear... no: unless p's NoChildRestrictions bit
// is itself set, in which case the child may clear whatever it likes.
func (p *Program) NewChild(childOpts ParseOptions) *Program {
	effective := childOpts | p.options
	if p.options.Has(NoChildRestrictions) {
		effective = childOpts
	}
	child := CreateProgram(effective)
	child.parent = p
	// Child programs share the parent's thread-resource bookkeeping:
	// they run on the same process, so locks and registered resources
	// must be visible to the one deadlock detector and cleanup loop.
	child.lockRegistry = p.lockRegistry
	child.threads = p.threads
	return child
}

// Options returns the program's effective parse-options bit set.
func (p *Program) Options() ParseOptions { return p.options }

// Globals and Statics expose the stores program_parse's caller needs
// in order to build lvalue.Root values for VarRef/AddressOfVar
// resolution and for DeclareGlobal below.
func (p *Program) Globals() *lvalue.Globals { return p.globals }
func (p *Program) Statics() *lvalue.Statics { return p.statics }

// restricted raises PARSE-TYPE-ERROR through sink and returns true
// when bit is set, for the handful of program-level operations this
// package enforces the option bits against directly. Its only caller
// is DeclareGlobal (no-global-vars); no other bit, no-external-process
// included, is checked in this package.
func (p *Program) restricted(bit ParseOptions, what string, sink *exception.Sink) bool {
	if !p.options.Has(bit) {
		return false
	}
	sink.RaiseSystem(exception.ParseTypeError, what+" forbidden by parse options")
	return true
}

// DeclareGlobal implements global-variable declaration under
// no-global-vars enforcement.
func (p *Program) DeclareGlobal(sink *exception.Sink, name string, v value.Value, c lvalue.TypeConstraint) {
	if p.restricted(NoGlobalVars, "global variable declaration", sink) {
		return
	}
	p.globals.Declare(name, v, c)
}

// NewParseContext starts a parse_init pass sharing this program's
// global/static stores (spec §4.5.1/§6).
func (p *Program) NewParseContext() *eval.ParseContext {
	return eval.NewParseContext(p.globals, p.statics)
}

// Parse implements program_parse(source_text, label): source_text has
// already become node by the time it reaches this core (parsing is a
// host concern), so this registers node under label after running it
// through parse_init at top level.
func (p *Program) Parse(label string, node eval.Node) eval.Node {
	pc := p.NewParseContext()
	init := node.ParseInit(pc, eval.TopLevel)
	p.mu.Lock()
	p.entries[label] = &entry{node: init}
	p.mu.Unlock()
	return init
}

// Run implements program_run(entry_point, args) -> value. A closure
// entry point is called positionally with args; anything else ignores
// args and is simply evaluated (spec has no call-arity story for a
// bare top-level expression).
func (p *Program) Run(label string, args []value.Value) (value.Value, *exception.Sink) {
	sink := &exception.Sink{}
	p.mu.RLock()
	e, ok := p.entries[label]
	p.mu.RUnlock()
	if !ok {
		sink.RaiseSystem(exception.RuntimeTypeError, "no such entry point: "+label)
		return value.Nothing, sink
	}
	result := e.node.Eval(sink)
	if _, isClosure := value.AsClosure(result); isClosure {
		return eval.Call(result, args, sink), sink
	}
	return result, sink
}

// Destroy implements program_destroy(): it drops the entry-point
// table. Thread records that are still attached are not detached here;
// each is released only through DetachThread.
func (p *Program) Destroy() {
	p.mu.Lock()
	p.entries = nil
	p.mu.Unlock()
}

// AttachedThread is the handle a host thread holds between
// AttachThread and DetachThread.
type AttachedThread struct {
	handle *lockset.ThreadHandle
}

// TID returns the thread's id, stable for the lifetime of the attach.
func (t *AttachedThread) TID() lockset.TID { return t.handle.TID() }

// AttachThread implements spec §6's "host threads that will call the
// runtime must first register". Every goroutine that will evaluate
// against this Program must call this once before doing so.
func (p *Program) AttachThread() *AttachedThread {
	th, _ := p.threads.Attach()
	return &AttachedThread{handle: th}
}

// DetachThread unregisters th (spec §6: "omitting unregistration
// leaks the thread record").
func (p *Program) DetachThread(th *AttachedThread) {
	p.threads.Detach(th.handle)
}
