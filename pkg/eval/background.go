package eval

import (
	"github.com/qorelang/coreruntime/pkg/exception"
	"github.com/qorelang/coreruntime/pkg/threadreg"
	"github.com/qorelang/coreruntime/pkg/value"
)

// Background implements the `background` operator (spec §4.5.5):
// schedules Expr to run on a new thread with its own sink, empty lock
// stack and empty resource set. The spawning thread gets the new
// thread's id back immediately; Expr's return value is discarded.
//
// Expr must already have been parsed with the Background flag set
// (ParseInit below does this), which rejects any direct local-variable
// reference inside it — only `&ref` captures survive that pass, so the
// goroutine below never touches the spawning thread's call frame.
type Background struct {
	Expr    Node
	Threads *threadreg.Manager
}

func (b *Background) ParseInit(pc *ParseContext, flags Flags) Node {
	b.Expr = b.Expr.ParseInit(pc, flags|Background)
	return b
}

func (b *Background) Eval(sink *exception.Sink) value.Value {
	th, _ := b.Threads.Attach()
	tid := th.TID()

	go func() {
		defer b.Threads.Detach(th)
		defer func() {
			// A panic escaping user code on a backgrounded thread must
			// not take the whole process down with it; there is no
			// caller left to observe the sink this expression raises
			// into, so the failure simply ends the thread.
			recover()
		}()
		bgSink := &exception.Sink{}
		result := b.Expr.Eval(bgSink)
		result.Deref(bgSink)
	}()

	return value.NewInt(int64(tid))
}
