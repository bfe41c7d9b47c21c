package eval

import (
	"bytes"
	"os/exec"
	"runtime"

	"github.com/qorelang/coreruntime/pkg/exception"
	"github.com/qorelang/coreruntime/pkg/value"
)

// Backquote implements the `` `cmd` `` operator (spec §4.5.2): runs Cmd
// through the host shell, captures stdout, and evaluates to a
// two-element list `(output, status)` so it composes with ListAssign's
// pair-unpacking (`(out, status) = \`ls\``); ordinary scalar use is
// expected to take element 0.
type Cmd struct {
	Cmd Node
}

func (c *Cmd) ParseInit(pc *ParseContext, flags Flags) Node {
	c.Cmd = c.Cmd.ParseInit(pc, flags&^ForAssignment)
	return c
}

func (c *Cmd) Eval(sink *exception.Sink) value.Value {
	cv := c.Cmd.Eval(sink)
	defer cv.Deref(sink)
	cmdline := cv.GetAsString()

	shell, flag := "/bin/sh", "-c"
	if runtime.GOOS == "windows" {
		shell, flag = "cmd", "/C"
	}
	cmd := exec.Command(shell, flag, cmdline)
	var out bytes.Buffer
	cmd.Stdout = &out

	status := 0
	if err := cmd.Run(); err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			sink.RaiseSystem(exception.BackquoteError, "backquote: "+err.Error())
			return value.Nothing
		}
		status = exitErr.ExitCode()
	}

	return value.NewList(value.NewString(out.String()), value.NewInt(int64(status)))
}
