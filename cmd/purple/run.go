package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qorelang/coreruntime/pkg/runtime"
	"github.com/qorelang/coreruntime/pkg/value"
)

// formatValue renders a result for the terminal; GetAsString alone
// only covers scalars, and a demo's point is usually a list or hash.
func formatValue(v value.Value) string {
	switch v.Kind() {
	case value.KindList:
		l, ok := value.AsList(v)
		if !ok {
			return "()"
		}
		parts := make([]string, l.Len())
		for i, e := range l.Items() {
			parts[i] = formatValue(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case value.KindHash:
		h, ok := value.AsHash(v)
		if !ok {
			return "{}"
		}
		parts := make([]string, 0, h.Len())
		for _, k := range h.Keys() {
			fv, _ := h.Get(k)
			parts = append(parts, k+": "+formatValue(fv))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case value.KindString:
		return "\"" + v.GetAsString() + "\""
	default:
		return v.GetAsString()
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <demo-name>",
		Short: "Run one of the built-in demo programs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, ok := findDemo(args[0])
			if !ok {
				return fmt.Errorf("no such demo: %s (see `purple list`)", args[0])
			}

			opts := runtime.ParseOptionNames(parseOptionFlags...)
			prog := runtime.CreateProgram(opts)
			defer prog.Destroy()

			th := prog.AttachThread()
			defer prog.DetachThread(th)

			prog.Parse(d.name, d.build())
			result, sink := prog.Run(d.name, d.args)

			if tuple, has := sink.ToHost(); has {
				fmt.Printf("exception: %s: %s\n", tuple.ErrorCode, tuple.Description)
				if verbose {
					for _, f := range tuple.CallStack {
						fmt.Printf("  at %s (%s:%d)\n", f.Function, f.File, f.Line)
					}
				}
				return fmt.Errorf("demo %q raised an exception", d.name)
			}

			fmt.Println(formatValue(result))
			return nil
		},
	}
}
