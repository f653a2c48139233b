package fpsem

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Expr is a node in the tree of an analyzed expression. The set of
// implementations is closed: Constant, Variable, UnaryExpr, BinaryExpr,
// VariadicExpr, and Rounded. Trees are built once and never mutated;
// Simplify returns new trees sharing unchanged subtrees.
type Expr interface {
	// String renders the subtree in the input grammar.
	String() string

	expr()
}

func (*Constant) expr()     {}
func (*Variable) expr()     {}
func (*UnaryExpr) expr()    {}
func (*BinaryExpr) expr()   {}
func (*VariadicExpr) expr() {}
func (*Rounded) expr()      {}

// Constant is a literal. Val holds an exact rational value; if Val is
// nil, the constant is an interval literal carrying only its enclosure.
type Constant struct {
	Val *big.Rat
	Enc Interval
}

// Rat creates an exact rational constant. The value is not copied;
// callers must not mutate it afterward.
func Rat(v *big.Rat) *Constant {
	return &Constant{Val: v}
}

// Num creates an exact integer constant.
func Num(v int64) *Constant {
	return &Constant{Val: new(big.Rat).SetInt64(v)}
}

// FromFloat creates an exact constant from a finite float64. Infinite
// arguments produce an interval literal pinned at the infinity.
func FromFloat(v float64) *Constant {
	if math.IsInf(v, 0) {
		return &Constant{Enc: Interval{v, v}}
	}
	return &Constant{Val: new(big.Rat).SetFloat64(v)}
}

// Between creates an interval literal constant.
func Between(lo, hi float64) *Constant {
	return &Constant{Enc: Interval{lo, hi}}
}

// Variable is a reference to a named input of the expression. Its
// declared format and domain interval come from the per-call maps.
type Variable struct {
	Name string
}

// Var creates a variable reference.
func Var(name string) *Variable {
	return &Variable{Name: name}
}

// UnaryOp enumerates the unary operators.
type UnaryOp int8

const (
	OpNeg UnaryOp = iota
	OpAbs
	OpInv
	OpSqrt
	OpExp
	OpLog
	OpSin
	OpCos
	OpTan
	OpAsin
	OpAcos
	OpAtan
	OpSinh
	OpCosh
	OpTanh
	OpAsinh
	OpAcosh
	OpAtanh
	OpFloorPow2
)

var unaryNames = [...]string{
	OpNeg:       "-",
	OpAbs:       "abs",
	OpInv:       "inv",
	OpSqrt:      "sqrt",
	OpExp:       "exp",
	OpLog:       "log",
	OpSin:       "sin",
	OpCos:       "cos",
	OpTan:       "tan",
	OpAsin:      "asin",
	OpAcos:      "acos",
	OpAtan:      "atan",
	OpSinh:      "sinh",
	OpCosh:      "cosh",
	OpTanh:      "tanh",
	OpAsinh:     "asinh",
	OpAcosh:     "acosh",
	OpAtanh:     "atanh",
	OpFloorPow2: "floor_power2",
}

func (op UnaryOp) String() string {
	if int(op) < len(unaryNames) {
		return unaryNames[op]
	}
	return "unary(" + strconv.Itoa(int(op)) + ")"
}

// BinaryOp enumerates the binary operators. OpNatPow requires its
// exponent operand to reduce to a natural number through ExactEval.
type BinaryOp int8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMin
	OpMax
	OpNatPow
)

var binaryNames = [...]string{
	OpAdd:    "+",
	OpSub:    "-",
	OpMul:    "*",
	OpDiv:    "/",
	OpMin:    "min",
	OpMax:    "max",
	OpNatPow: "^",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryNames) {
		return binaryNames[op]
	}
	return "binary(" + strconv.Itoa(int(op)) + ")"
}

// VariadicOp enumerates the variadic operators. Only OpFma is evaluable;
// the enum is open so that the evaluator must reject strangers loudly.
type VariadicOp int8

const (
	OpFma VariadicOp = iota
)

func (op VariadicOp) String() string {
	if op == OpFma {
		return "fma"
	}
	return "variadic(" + strconv.Itoa(int(op)) + ")"
}

// UnaryExpr applies a unary operator.
type UnaryExpr struct {
	Op UnaryOp
	X  Expr
}

// Unary creates a unary operator application.
func Unary(op UnaryOp, x Expr) *UnaryExpr {
	return &UnaryExpr{Op: op, X: x}
}

// BinaryExpr applies a binary operator.
type BinaryExpr struct {
	Op   BinaryOp
	X, Y Expr
}

// Binary creates a binary operator application.
func Binary(op BinaryOp, x, y Expr) *BinaryExpr {
	return &BinaryExpr{Op: op, X: x, Y: y}
}

// VariadicExpr applies a variadic operator.
type VariadicExpr struct {
	Op   VariadicOp
	Args []Expr
}

// Variadic creates a variadic operator application. The slice is not
// copied.
func Variadic(op VariadicOp, args ...Expr) *VariadicExpr {
	return &VariadicExpr{Op: op, Args: args}
}

// Rounded wraps a subexpression in a rounding operator.
type Rounded struct {
	Rnd Rounding
	X   Expr
}

// Round wraps x in a rounding operator.
func Round(rnd Rounding, x Expr) *Rounded {
	return &Rounded{Rnd: rnd, X: x}
}

func (e *Constant) String() string {
	var b strings.Builder
	writeExpr(&b, e)
	return b.String()
}

func (e *Variable) String() string     { return e.Name }
func (e *UnaryExpr) String() string    { var b strings.Builder; writeExpr(&b, e); return b.String() }
func (e *BinaryExpr) String() string   { var b strings.Builder; writeExpr(&b, e); return b.String() }
func (e *VariadicExpr) String() string { var b strings.Builder; writeExpr(&b, e); return b.String() }
func (e *Rounded) String() string      { var b strings.Builder; writeExpr(&b, e); return b.String() }

func writeExpr(b *strings.Builder, e Expr) {
	switch e := e.(type) {
	case *Constant:
		switch {
		case e.Val == nil:
			b.WriteByte('[')
			b.WriteString(strconv.FormatFloat(e.Enc.Lo, 'g', -1, 64))
			b.WriteString(", ")
			b.WriteString(strconv.FormatFloat(e.Enc.Hi, 'g', -1, 64))
			b.WriteByte(']')
		case e.Val.IsInt():
			b.WriteString(e.Val.Num().String())
		default:
			b.WriteString(e.Val.RatString())
		}
	case *Variable:
		b.WriteString(e.Name)
	case *UnaryExpr:
		if e.Op == OpNeg {
			b.WriteString("-(")
		} else {
			b.WriteString(e.Op.String())
			b.WriteByte('(')
		}
		writeExpr(b, e.X)
		b.WriteByte(')')
	case *BinaryExpr:
		switch e.Op {
		case OpMin, OpMax:
			b.WriteString(e.Op.String())
			b.WriteByte('(')
			writeExpr(b, e.X)
			b.WriteString(", ")
			writeExpr(b, e.Y)
			b.WriteByte(')')
		default:
			b.WriteByte('(')
			writeExpr(b, e.X)
			b.WriteByte(' ')
			b.WriteString(e.Op.String())
			b.WriteByte(' ')
			writeExpr(b, e.Y)
			b.WriteByte(')')
		}
	case *VariadicExpr:
		b.WriteString(e.Op.String())
		b.WriteByte('(')
		for i, a := range e.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, a)
		}
		b.WriteByte(')')
	case *Rounded:
		b.WriteString(e.Rnd.String())
		b.WriteByte('(')
		writeExpr(b, e.X)
		b.WriteByte(')')
	default:
		panic("fpsem: unknown expression node")
	}
}

// Equal reports structural equality of two expression trees. Rational
// constants compare by value, interval literals by both bounds.
func Equal(a, b Expr) bool {
	switch a := a.(type) {
	case *Constant:
		b, ok := b.(*Constant)
		if !ok {
			return false
		}
		if (a.Val == nil) != (b.Val == nil) {
			return false
		}
		if a.Val == nil {
			return a.Enc == b.Enc
		}
		return a.Val.Cmp(b.Val) == 0
	case *Variable:
		b, ok := b.(*Variable)
		return ok && a.Name == b.Name
	case *UnaryExpr:
		b, ok := b.(*UnaryExpr)
		return ok && a.Op == b.Op && Equal(a.X, b.X)
	case *BinaryExpr:
		b, ok := b.(*BinaryExpr)
		return ok && a.Op == b.Op && Equal(a.X, b.X) && Equal(a.Y, b.Y)
	case *VariadicExpr:
		b, ok := b.(*VariadicExpr)
		if !ok || a.Op != b.Op || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	case *Rounded:
		b, ok := b.(*Rounded)
		return ok && a.Rnd == b.Rnd && Equal(a.X, b.X)
	default:
		panic("fpsem: unknown expression node")
	}
}

// Vars returns the sorted names of the variables appearing in e.
func Vars(e Expr) []string {
	seen := make(map[string]bool)
	collectVars(e, seen)
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sortstrs(names)
	return names
}

func collectVars(e Expr, seen map[string]bool) {
	switch e := e.(type) {
	case *Constant:
	case *Variable:
		seen[e.Name] = true
	case *UnaryExpr:
		collectVars(e.X, seen)
	case *BinaryExpr:
		collectVars(e.X, seen)
		collectVars(e.Y, seen)
	case *VariadicExpr:
		for _, a := range e.Args {
			collectVars(a, seen)
		}
	case *Rounded:
		collectVars(e.X, seen)
	}
}

// sortstrs sorts a string slice without using package sort because that has
// reflection and allocation problems.
func sortstrs(names []string) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
}

// isZero reports whether e is structurally the rational constant 0.
func isZero(e Expr) bool {
	c, ok := e.(*Constant)
	return ok && c.Val != nil && c.Val.Sign() == 0
}

// powTwoExp reports whether e is structurally a constant of value ±2^k
// and returns k. The sign of the constant is irrelevant: scaling by
// -2^k is exactly as error-free as scaling by 2^k.
func powTwoExp(e Expr) (int, bool) {
	c, ok := e.(*Constant)
	if !ok || c.Val == nil || c.Val.Sign() == 0 {
		return 0, false
	}
	num := new(big.Int).Abs(c.Val.Num())
	den := c.Val.Denom()
	// big.Rat is normalized, so ±2^k has a power-of-two numerator over a
	// power-of-two denominator, one of which is 1.
	a, ok := intPow2(num)
	if !ok {
		return 0, false
	}
	b, ok := intPow2(den)
	if !ok {
		return 0, false
	}
	return a - b, true
}

// intPow2 reports whether x = 2^k for some k >= 0 and returns k.
func intPow2(x *big.Int) (int, bool) {
	if x.Sign() <= 0 {
		return 0, false
	}
	k := int(x.TrailingZeroBits())
	if x.BitLen() != k+1 {
		return 0, false
	}
	return k, true
}
