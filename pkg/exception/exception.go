// Package exception implements the per-thread exception sink (spec
// §4.3): a singly-linked chain of structured exceptions plus the
// thread-exit flag, propagated as an out-parameter through every
// evaluator entry point.
package exception

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/qorelang/coreruntime/pkg/value"
)

// Kind distinguishes runtime-raised system exceptions from user
// `throw`n values.
type Kind int

const (
	KindSystem Kind = iota
	KindUser
)

// Frame is one entry of a captured call-stack snapshot. It carries a
// stable id (grounded on the host-conversion tuple in spec §6) so a
// host embedder can correlate frames across a rethrow that lengthens
// the snapshot.
type Frame struct {
	ID       string
	Function string
	File     string
	Line     int
}

// Exception is a structured, chainable error value.
type Exception struct {
	Kind        Kind
	ErrorCode   string // ASCII identifier, e.g. LOCK-ERROR, for KindSystem
	Description string
	Arg         value.Value // arbitrary payload for KindUser
	CallStack   []Frame
	File        string
	Line        int
	Next        *Exception // chain: outer exception wraps Next
}

func newFrame(function, file string, line int) Frame {
	return Frame{ID: uuid.NewString(), Function: function, File: file, Line: line}
}

// System well-known error codes (spec §7).
const (
	LockError            = "LOCK-ERROR"
	ThreadDeadlock       = "THREAD-DEADLOCK"
	ObjectAlreadyDeleted = "OBJECT-ALREADY-DELETED"
	RuntimeTypeError     = "RUNTIME-TYPE-ERROR"
	DivisionByZero       = "DIVISION-BY-ZERO"
	RegexCompilationErr  = "REGEX-COMPILATION-ERROR"
	RegexOptionError     = "REGEX-OPTION-ERROR"
	BackquoteError       = "BACKQUOTE-ERROR"
	CounterError         = "COUNTER-ERROR"
	QueueError           = "QUEUE-ERROR"
	WaitError            = "WAIT-ERROR"
	ParseTypeError       = "PARSE-TYPE-ERROR"
	InvalidOperation     = "INVALID-OPERATION"
)

// Sink is the per-thread exception channel. The zero value is a valid,
// empty sink.
type Sink struct {
	pending  *Exception
	exitFlag bool
}

// HasException reports whether an exception is currently pending.
func (s *Sink) HasException() bool { return s.pending != nil }

// ExitRequested reports whether thread-exit unwinding is in progress.
func (s *Sink) ExitRequested() bool { return s.exitFlag }

// Current returns the pending exception, or nil.
func (s *Sink) Current() *Exception { return s.pending }

// RaiseSystem raises a system exception with the given code and a
// formatted description, capturing no call-stack frame of its own
// (callers that want one should call RaiseSystemAt). Implements
// value.Sink so the value package can report through it without
// importing this package.
func (s *Sink) RaiseSystem(code, description string) {
	s.pending = &Exception{Kind: KindSystem, ErrorCode: code, Description: description}
}

// RaiseSystemAt raises a system exception and attaches one call-stack
// frame, as the evaluator does at the point of the failing operation.
func (s *Sink) RaiseSystemAt(code, description, function, file string, line int) {
	s.pending = &Exception{
		Kind: KindSystem, ErrorCode: code, Description: description,
		File: file, Line: line,
		CallStack: []Frame{newFrame(function, file, line)},
	}
}

// RaiseSystemf is RaiseSystem with fmt.Sprintf-style formatting.
func (s *Sink) RaiseSystemf(code, format string, args ...interface{}) {
	s.RaiseSystem(code, fmt.Sprintf(format, args...))
}

// Throw raises a user exception carrying an arbitrary value.
func (s *Sink) Throw(arg value.Value, function, file string, line int) {
	s.pending = &Exception{
		Kind: KindUser, Arg: arg,
		File: file, Line: line,
		CallStack: []Frame{newFrame(function, file, line)},
	}
}

// PushFrame appends a call-stack frame to the pending exception, used
// as an exception propagates up through nested evaluation.
func (s *Sink) PushFrame(function, file string, line int) {
	if s.pending == nil {
		return
	}
	s.pending.CallStack = append(s.pending.CallStack, newFrame(function, file, line))
}

// Rethrow re-raises the current exception, preserving its chain and
// appending one frame to the call-stack snapshot (spec §4.3, §8
// exception chaining: the outer catch must see a strictly longer
// call_stack than the inner one did).
func (s *Sink) Rethrow(function, file string, line int) {
	if s.pending == nil {
		return
	}
	s.pending.CallStack = append(s.pending.CallStack, newFrame(function, file, line))
}

// Chain wraps the currently pending exception as the Next of a new
// outer exception and installs the outer one as pending — used when a
// cleanup handler or destructor raises while unwinding an existing
// exception.
func (s *Sink) Chain(code, description string) {
	s.pending = &Exception{Kind: KindSystem, ErrorCode: code, Description: description, Next: s.pending}
}

// Clear drops the pending exception (used by `try`/`catch` once the
// catch frame has taken ownership of it).
func (s *Sink) Clear() *Exception {
	e := s.pending
	s.pending = nil
	return e
}

// RequestExit sets the thread-exit flag. Unwinds like an exception but
// is never visible to `try`/`catch` (Catchable reports false for it).
func (s *Sink) RequestExit() { s.exitFlag = true }

// Catchable reports whether the pending condition may be intercepted
// by a `try` block: true for any Exception, false when only the
// thread-exit flag is set without a pending exception.
func (s *Sink) Catchable() bool { return s.pending != nil }

// HostTuple is the (error_code, description, file, line, call_stack)
// conversion spec §6 defines for host code inspecting a sink.
type HostTuple struct {
	ErrorCode   string
	Description string
	File        string
	Line        int
	CallStack   []Frame
}

// ToHost converts the pending exception to the host-facing tuple. User
// exceptions report an empty ErrorCode and describe the carried value.
func (s *Sink) ToHost() (HostTuple, bool) {
	if s.pending == nil {
		return HostTuple{}, false
	}
	e := s.pending
	desc := e.Description
	code := e.ErrorCode
	if e.Kind == KindUser {
		desc = e.Arg.GetAsString()
	}
	return HostTuple{ErrorCode: code, Description: desc, File: e.File, Line: e.Line, CallStack: e.CallStack}, true
}
