package eval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qorelang/coreruntime/pkg/exception"
	"github.com/qorelang/coreruntime/pkg/lockset"
	"github.com/qorelang/coreruntime/pkg/threadreg"
	"github.com/qorelang/coreruntime/pkg/value"
)

func TestBackgroundReturnsTIDImmediately(t *testing.T) {
	mgr := threadreg.NewManager(lockset.NewRegistry(), func(lockset.TID, error) {})
	pc := newPC()
	b := &Background{
		Expr:    &Literal{V: value.NewInt(1)},
		Threads: mgr,
	}
	node := b.ParseInit(pc, TopLevel)

	sink := &exception.Sink{}
	result := node.Eval(sink)
	require.False(t, sink.HasException())
	assert.Equal(t, value.KindInt, result.Kind())

	time.Sleep(20 * time.Millisecond)
}

func TestBackgroundRecoversFromPanic(t *testing.T) {
	mgr := threadreg.NewManager(lockset.NewRegistry(), func(lockset.TID, error) {})
	pc := newPC()
	b := &Background{
		Expr:    &panicNode{},
		Threads: mgr,
	}
	node := b.ParseInit(pc, TopLevel)

	sink := &exception.Sink{}
	assert.NotPanics(t, func() {
		node.Eval(sink)
	})
	time.Sleep(20 * time.Millisecond)
}

type panicNode struct{}

func (p *panicNode) ParseInit(pc *ParseContext, flags Flags) Node { return p }
func (p *panicNode) Eval(sink *exception.Sink) value.Value        { panic("boom") }
