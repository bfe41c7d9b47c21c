package main

import (
	"github.com/qorelang/coreruntime/pkg/eval"
	"github.com/qorelang/coreruntime/pkg/value"
)

// demo is one fixed, hand-built Node tree plus the args program_run
// should call it with — standing in for what a real front end would
// produce by parsing source text (spec.md's module map leaves lexing
// and parsing outside this core).
type demo struct {
	name        string
	description string
	build       func() eval.Node
	args        []value.Value
}

var demos = []demo{
	{
		name:        "sum",
		description: "closure(a, b) { return a + b }, called with (2, 3)",
		build: func() eval.Node {
			return &eval.MakeClosure{
				Params: []string{"a", "b"},
				Body:   eval.NewArithNode(eval.OpAdd, &eval.VarRef{Name: "a"}, &eval.VarRef{Name: "b"}),
			}
		},
		args: []value.Value{value.NewInt(2), value.NewInt(3)},
	},
	{
		name:        "map",
		description: "map(x => x * 2, (1, 2, 3))",
		build: func() eval.Node {
			double := &eval.MakeClosure{
				Params: []string{"x"},
				Body:   eval.NewArithNode(eval.OpMul, &eval.VarRef{Name: "x"}, &eval.Literal{V: value.NewInt(2)}),
			}
			return &eval.Map{
				Fn:     double,
				Source: &eval.Literal{V: value.NewList(value.NewInt(1), value.NewInt(2), value.NewInt(3))},
			}
		},
	},
	{
		name:        "context",
		description: `context rows where n > 1 { return %name }, over [{name: "a", n: 1}, {name: "b", n: 2}]`,
		build: func() eval.Node {
			row := func(name string, n int64) value.Value {
				h := value.NewHash()
				hh, _ := value.AsHash(h)
				hh.Set("name", value.NewString(name))
				hh.Set("n", value.NewInt(n))
				return h
			}
			return &eval.Context{
				Name:   "rows",
				Source: &eval.Literal{V: value.NewList(row("a", 1), row("b", 2))},
				Where:  eval.NewCmpNode(eval.CmpGt, &eval.ColumnRef{Col: "n"}, &eval.Literal{V: value.NewInt(1)}),
				Body:   &eval.ColumnRef{Col: "name"},
			}
		},
	},
	{
		name:        "division-by-zero",
		description: "1 / 0, demonstrating the DIVISION-BY-ZERO exception path",
		build: func() eval.Node {
			return eval.NewArithNode(eval.OpDiv, &eval.Literal{V: value.NewInt(1)}, &eval.Literal{V: value.NewInt(0)})
		},
	},
}

func findDemo(name string) (demo, bool) {
	for _, d := range demos {
		if d.name == name {
			return d, true
		}
	}
	return demo{}, false
}
