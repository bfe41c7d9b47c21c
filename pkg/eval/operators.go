package eval

import (
	"strings"

	"github.com/qorelang/coreruntime/pkg/exception"
	"github.com/qorelang/coreruntime/pkg/value"
)

// numericRank orders the widening precedence arithmetic and comparison
// share (spec §4.5.2: "number > float > int"). This runtime has no
// arbitrary-precision `number` kind of its own (pkg/value's Kind set
// stops at float/int, following the teacher's scalar set), so `number`
// and `float` widen identically here; the rank still keeps its three
// names so a future bignum Kind slots in above float without touching
// any call site.
type numericRank int

const (
	rankInt numericRank = iota
	rankFloat
	rankNumber
)

func rankOf(v value.Value) numericRank {
	switch v.Kind() {
	case value.KindFloat:
		return rankFloat
	default:
		return rankInt
	}
}

func widen(a, b value.Value) numericRank {
	ra, rb := rankOf(a), rankOf(b)
	if ra > rb {
		return ra
	}
	return rb
}

// ArithOp names one arithmetic/bitwise operator (spec §4.5.2 and the
// compound-assignment operator list).
type ArithOp int

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpShl
	OpShr
	OpBitAnd
	OpBitOr
	OpBitXor
)

// ApplyArith evaluates a op b under the widening rule: string operands
// to Add concatenate, float-rank operands compute in float, everything
// else in int. Integer division/modulo by zero raises DIVISION-BY-ZERO
// and returns nothing; float division by zero yields an IEEE infinity
// without an exception (spec §4.5.2).
func ApplyArith(op ArithOp, a, b value.Value, sink *exception.Sink) value.Value {
	if op == OpAdd && (a.Kind() == value.KindString || b.Kind() == value.KindString) {
		return value.NewString(a.GetAsString() + b.GetAsString())
	}
	if op == OpAdd && a.Kind() == value.KindList {
		return concatLists(a, b, sink)
	}
	if widen(a, b) >= rankFloat {
		return applyArithFloat(op, a.GetAsFloat(), b.GetAsFloat(), sink)
	}
	return applyArithInt(op, a.GetAsInt(), b.GetAsInt(), sink)
}

func applyArithFloat(op ArithOp, a, b float64, sink *exception.Sink) value.Value {
	switch op {
	case OpAdd:
		return value.NewFloat(a + b)
	case OpSub:
		return value.NewFloat(a - b)
	case OpMul:
		return value.NewFloat(a * b)
	case OpDiv:
		return value.NewFloat(a / b) // b == 0 yields +/-Inf or NaN, no exception
	case OpMod:
		if b == 0 {
			return value.NewFloat(a)
		}
		return value.NewFloat(floatMod(a, b))
	default:
		// Bitwise ops on float-rank operands fall back to int
		// semantics on the truncated operands, matching a total
		// coercion rather than refusing the operator outright.
		return applyArithInt(op, int64(a), int64(b), sink)
	}
}

func floatMod(a, b float64) float64 {
	q := int64(a / b)
	return a - float64(q)*b
}

func applyArithInt(op ArithOp, a, b int64, sink *exception.Sink) value.Value {
	switch op {
	case OpAdd:
		return value.NewInt(a + b)
	case OpSub:
		return value.NewInt(a - b)
	case OpMul:
		return value.NewInt(a * b)
	case OpDiv:
		if b == 0 {
			sink.RaiseSystem(exception.DivisionByZero, "integer division by zero")
			return value.Nothing
		}
		return value.NewInt(a / b)
	case OpMod:
		if b == 0 {
			sink.RaiseSystem(exception.DivisionByZero, "integer modulo by zero")
			return value.Nothing
		}
		return value.NewInt(a % b)
	case OpShl:
		return value.NewInt(a << uint(b))
	case OpShr:
		return value.NewInt(a >> uint(b))
	case OpBitAnd:
		return value.NewInt(a & b)
	case OpBitOr:
		return value.NewInt(a | b)
	case OpBitXor:
		return value.NewInt(a ^ b)
	default:
		return value.Nothing
	}
}

// concatLists implements `+` between lists (list+list appends, list+
// scalar appends one element), a natural extension of "number>float>
// int" widening to the container the spec's own §8 list-append
// scenarios exercise.
func concatLists(a, b value.Value, sink *exception.Sink) value.Value {
	al, _ := value.AsList(a)
	out := append([]value.Value(nil), al.Items()...)
	if bl, ok := value.AsList(b); ok {
		out = append(out, bl.Items()...)
	} else {
		out = append(out, b)
	}
	for _, v := range out {
		v.Ref()
	}
	return value.NewList(out...)
}

// CmpOp names one comparison operator.
type CmpOp int

const (
	CmpLt CmpOp = iota
	CmpLe
	CmpGt
	CmpGe
)

// ApplyCmp evaluates a relational comparison under the same widening
// rule as arithmetic: strings compare lexicographically, dates
// chronologically, and everything else numerically (spec §4.5.2).
func ApplyCmp(op CmpOp, a, b value.Value) value.Value {
	var less, equal bool
	switch {
	case a.Kind() == value.KindString || b.Kind() == value.KindString:
		c := strings.Compare(a.GetAsString(), b.GetAsString())
		less, equal = c < 0, c == 0
	case a.Kind() == value.KindDate || b.Kind() == value.KindDate:
		ta, tb := a.GetAsDate(), b.GetAsDate()
		less, equal = ta.Before(tb), ta.Equal(tb)
	case widen(a, b) >= rankFloat:
		fa, fb := a.GetAsFloat(), b.GetAsFloat()
		less, equal = fa < fb, fa == fb
	default:
		ia, ib := a.GetAsInt(), b.GetAsInt()
		less, equal = ia < ib, ia == ib
	}
	switch op {
	case CmpLt:
		return value.NewBool(less)
	case CmpLe:
		return value.NewBool(less || equal)
	case CmpGt:
		return value.NewBool(!less && !equal)
	case CmpGe:
		return value.NewBool(!less)
	}
	return value.False
}

// Equality implements `==`/`!=` (soft) and `===`/`!==` (hard), spec
// §4.5.2.
func Equality(hard, negate bool, a, b value.Value) value.Value {
	eq := value.SoftEq(a, b)
	if hard {
		eq = value.HardEq(a, b)
	}
	if negate {
		eq = !eq
	}
	return value.NewBool(eq)
}

// Binary is the general arithmetic/comparison Node: it evaluates both
// operands (derefing its own intermediate references after reading
// them) and applies op.
type Binary struct {
	Left, Right Node

	arith   *ArithOp
	cmp     *CmpOp
	hardEq  *bool
	negateEq bool
}

func NewArithNode(op ArithOp, left, right Node) *Binary { return &Binary{Left: left, Right: right, arith: &op} }
func NewCmpNode(op CmpOp, left, right Node) *Binary     { return &Binary{Left: left, Right: right, cmp: &op} }
func NewEqNode(hard, negate bool, left, right Node) *Binary {
	return &Binary{Left: left, Right: right, hardEq: &hard, negateEq: negate}
}

func (b *Binary) ParseInit(pc *ParseContext, flags Flags) Node {
	b.Left = b.Left.ParseInit(pc, flags&^ForAssignment)
	b.Right = b.Right.ParseInit(pc, flags&^ForAssignment)
	return b
}

func (b *Binary) Eval(sink *exception.Sink) value.Value {
	l := b.Left.Eval(sink)
	defer l.Deref(sink)
	r := b.Right.Eval(sink)
	defer r.Deref(sink)
	switch {
	case b.arith != nil:
		return ApplyArith(*b.arith, l, r, sink)
	case b.cmp != nil:
		return ApplyCmp(*b.cmp, l, r)
	case b.hardEq != nil:
		return Equality(*b.hardEq, b.negateEq, l, r)
	}
	return value.Nothing
}

// And is the short-circuit `&&` operator: Right is only evaluated when
// Left is truthy (spec §4.5.2).
type And struct{ Left, Right Node }

func (a *And) ParseInit(pc *ParseContext, flags Flags) Node {
	a.Left = a.Left.ParseInit(pc, flags&^ForAssignment)
	a.Right = a.Right.ParseInit(pc, flags&^ForAssignment)
	return a
}

func (a *And) Eval(sink *exception.Sink) value.Value {
	l := a.Left.Eval(sink)
	truthy := l.Truthy()
	l.Deref(sink)
	if !truthy {
		return value.False
	}
	r := a.Right.Eval(sink)
	truthy = r.Truthy()
	r.Deref(sink)
	return value.NewBool(truthy)
}

// Or is the short-circuit `||` operator.
type Or struct{ Left, Right Node }

func (o *Or) ParseInit(pc *ParseContext, flags Flags) Node {
	o.Left = o.Left.ParseInit(pc, flags&^ForAssignment)
	o.Right = o.Right.ParseInit(pc, flags&^ForAssignment)
	return o
}

func (o *Or) Eval(sink *exception.Sink) value.Value {
	l := o.Left.Eval(sink)
	truthy := l.Truthy()
	l.Deref(sink)
	if truthy {
		return value.True
	}
	r := o.Right.Eval(sink)
	truthy = r.Truthy()
	r.Deref(sink)
	return value.NewBool(truthy)
}

// Ternary implements `cond ? then : else` (spec §4.5.2): evaluates
// exactly one branch.
type Ternary struct {
	Cond, Then, Else Node
}

func (t *Ternary) ParseInit(pc *ParseContext, flags Flags) Node {
	t.Cond = t.Cond.ParseInit(pc, flags&^ForAssignment)
	t.Then = t.Then.ParseInit(pc, flags)
	t.Else = t.Else.ParseInit(pc, flags)
	return t
}

func (t *Ternary) Eval(sink *exception.Sink) value.Value {
	c := t.Cond.Eval(sink)
	truthy := c.Truthy()
	c.Deref(sink)
	if truthy {
		return t.Then.Eval(sink)
	}
	return t.Else.Eval(sink)
}

// Coalesce implements `??` (spec §4.5.2): returns the left operand if
// it is truthy under the *general* truthiness rule, else evaluates and
// returns the right. This is the Open Question decision recorded in
// DESIGN.md: despite the "value coalescing" name, the spec's own text
// calls for truthiness rather than a strict null/nothing check, and
// this implementation follows that instruction rather than the more
// familiar ecosystem convention.
type Coalesce struct {
	Left, Right Node
}

func (c *Coalesce) ParseInit(pc *ParseContext, flags Flags) Node {
	c.Left = c.Left.ParseInit(pc, flags&^ForAssignment)
	c.Right = c.Right.ParseInit(pc, flags&^ForAssignment)
	return c
}

func (c *Coalesce) Eval(sink *exception.Sink) value.Value {
	l := c.Left.Eval(sink)
	if l.Truthy() {
		return l
	}
	l.Deref(sink)
	return c.Right.Eval(sink)
}
