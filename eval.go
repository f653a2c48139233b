package fpsem

import (
	"math"
	"strconv"
)

// Evaluate computes a sound enclosure of e over the domain box. Every
// bound computation rounds outward, so the true range of the expression
// under exact evaluation, with the attached rounding error applied, lies
// inside the result.
//
// Failure is part of the signature: the error is a *DomainViolation
// carrying the offending subexpression and a reason, an
// *UnsupportedOperator for an operator outside the evaluable set, or a
// *NameError for a variable missing from the box.
func Evaluate(e Expr, box map[string]Interval) (Interval, error) {
	switch e := e.(type) {
	case *Constant:
		if e.Val != nil {
			return checked(e, ratEnclosure(e.Val))
		}
		return checked(e, e.Enc)
	case *Variable:
		x, ok := box[e.Name]
		if !ok {
			return Interval{}, &NameError{Name: e.Name}
		}
		return checked(e, x)
	case *Rounded:
		x, err := Evaluate(e.X, box)
		if err != nil {
			return Interval{}, err
		}
		return checked(e, applyRounding(e.Rnd, x))
	case *UnaryExpr:
		x, err := Evaluate(e.X, box)
		if err != nil {
			return Interval{}, err
		}
		return evalUnary(e, x)
	case *BinaryExpr:
		return evalBinary(e, box)
	case *VariadicExpr:
		if e.Op != OpFma || len(e.Args) != 3 {
			return Interval{}, &UnsupportedOperator{Node: e}
		}
		a, err := Evaluate(e.Args[0], box)
		if err != nil {
			return Interval{}, err
		}
		b, err := Evaluate(e.Args[1], box)
		if err != nil {
			return Interval{}, err
		}
		c, err := Evaluate(e.Args[2], box)
		if err != nil {
			return Interval{}, err
		}
		p := imul(a, b)
		if Equal(e.Args[0], e.Args[1]) {
			p = isqr(a)
		}
		return checked(e, iadd(p, c))
	default:
		return Interval{}, &UnsupportedOperator{Node: e}
	}
}

func evalUnary(e *UnaryExpr, x Interval) (Interval, error) {
	var v Interval
	switch e.Op {
	case OpNeg:
		v = ineg(x)
	case OpAbs:
		v = iabs(x)
	case OpInv:
		if x.Lo <= 0 && x.Hi >= 0 {
			return Interval{}, &DomainViolation{Node: e, Reason: "division by zero"}
		}
		v = iinv(x)
	case OpSqrt:
		if x.Lo < 0 {
			return Interval{}, &DomainViolation{Node: e, Reason: "sqrt of negative number"}
		}
		v = isqrt(x)
	case OpExp:
		v = iexp(x)
	case OpLog:
		if x.Lo <= 0 {
			return Interval{}, &DomainViolation{Node: e, Reason: "log of non-positive number"}
		}
		v = ilog(x)
	case OpSin:
		v = isin(x)
	case OpCos:
		v = icos(x)
	case OpTan:
		v = itan(x)
	case OpAsin:
		if x.Lo < -1 || x.Hi > 1 {
			return Interval{}, &DomainViolation{Node: e, Reason: "argument outside [-1,1]"}
		}
		v = iasin(x)
	case OpAcos:
		if x.Lo < -1 || x.Hi > 1 {
			return Interval{}, &DomainViolation{Node: e, Reason: "argument outside [-1,1]"}
		}
		v = iacos(x)
	case OpAtan:
		v = iatan(x)
	case OpSinh:
		v = isinh(x)
	case OpCosh:
		v = icosh(x)
	case OpTanh:
		v = itanh(x)
	case OpAsinh:
		v = iasinh(x)
	case OpAcosh:
		if x.Lo < 1 {
			return Interval{}, &DomainViolation{Node: e, Reason: "acosh of number below 1"}
		}
		v = iacosh(x)
	case OpAtanh:
		if x.Lo <= -1 || x.Hi >= 1 {
			return Interval{}, &DomainViolation{Node: e, Reason: "atanh argument outside (-1,1)"}
		}
		v = iatanh(x)
	case OpFloorPow2:
		v = ifloorPow2(x)
	default:
		return Interval{}, &UnsupportedOperator{Node: e}
	}
	return checked(e, v)
}

func evalBinary(e *BinaryExpr, box map[string]Interval) (Interval, error) {
	x, err := Evaluate(e.X, box)
	if err != nil {
		return Interval{}, err
	}
	y, err := Evaluate(e.Y, box)
	if err != nil {
		return Interval{}, err
	}
	var v Interval
	switch e.Op {
	case OpAdd:
		v = iadd(x, y)
	case OpSub:
		v = isub(x, y)
	case OpMul:
		// Structurally identical factors are a square; treating them as
		// independent would double the width across a sign change.
		if Equal(e.X, e.Y) {
			v = isqr(x)
		} else {
			v = imul(x, y)
		}
	case OpDiv:
		if y.Lo <= 0 && y.Hi >= 0 {
			return Interval{}, &DomainViolation{Node: e, Reason: "division by zero"}
		}
		v = idiv(x, y)
	case OpMin:
		v = imin(x, y)
	case OpMax:
		v = imax(x, y)
	case OpNatPow:
		n, ok := natExponent(e.Y)
		if !ok {
			return Interval{}, &UnsupportedOperator{Node: e}
		}
		v = ipown(x, n)
	default:
		return Interval{}, &UnsupportedOperator{Node: e}
	}
	return checked(e, v)
}

// natExponent reduces an exponent subexpression to a natural number
// through the exact-constant evaluator.
func natExponent(e Expr) (int, bool) {
	r, ok := ExactEval(e)
	if !ok || !r.IsInt() || r.Sign() < 0 {
		return 0, false
	}
	n := r.Num()
	if !n.IsInt64() || n.Int64() > 1<<20 {
		return 0, false
	}
	return int(n.Int64()), true
}

// checked is the per-node backstop: NaN bounds or an inverted interval
// mean the enclosure is meaningless, and an infinite bound means the
// computation overflowed. Both surface as violations at the node that
// produced them, whether or not an operator-specific check fired.
func checked(e Expr, v Interval) (Interval, error) {
	if math.IsNaN(v.Lo) || math.IsNaN(v.Hi) || v.Lo > v.Hi {
		return Interval{}, &DomainViolation{Node: e, Reason: "invalid interval result"}
	}
	if math.IsInf(v.Lo, 0) || math.IsInf(v.Hi, 0) {
		return Interval{}, &DomainViolation{Node: e, Reason: "non-finite result (overflow)"}
	}
	return v, nil
}

// applyRounding widens an enclosure by the descriptor's error model:
// each bound moves outward by Coef*(2^Eps*|bound| + 2^Delta), and any
// magnitude beyond the overflow threshold becomes the correctly signed
// infinity.
func applyRounding(rnd Rounding, x Interval) Interval {
	if rnd.IsNoOp() {
		return x
	}
	lo := x.Lo - rnd.errAt(x.Lo)
	hi := x.Hi + rnd.errAt(x.Hi)
	// One downward/upward step covers the float64 rounding of the
	// subtraction and addition above.
	lo = math.Nextafter(lo, math.Inf(-1))
	hi = math.Nextafter(hi, math.Inf(1))
	return Interval{rnd.clamp(lo), rnd.clamp(hi)}
}

// errAt bounds the rounding error committed at value v, rounded up.
func (r Rounding) errAt(v float64) float64 {
	e := 0.0
	if !r.ExactScale {
		e += math.Abs(v) * math.Ldexp(1, r.Eps)
	}
	if !r.Exact {
		e += math.Ldexp(1, r.Delta)
	}
	e *= r.Coef
	return math.Nextafter(e, math.Inf(1))
}

func (r Rounding) clamp(v float64) float64 {
	if v > r.MaxVal {
		return math.Inf(1)
	}
	if v < -r.MaxVal {
		return math.Inf(-1)
	}
	return v
}

// DomainViolation reports that an operation may be undefined somewhere
// in the current domain box. Node is the exact offending subexpression.
type DomainViolation struct {
	Node   Expr
	Reason string
}

func (err *DomainViolation) Error() string {
	return err.Reason + " in " + err.Node.String()
}

// UnsupportedOperator reports an operator outside the evaluable set. It
// is a configuration error, not a property of the domain box, and is not
// retryable.
type UnsupportedOperator struct {
	Node Expr
}

func (err *UnsupportedOperator) Error() string {
	return "unsupported operator in " + err.Node.String()
}

// NameError is an error from a lookup for a variable that is missing
// from the domain box.
type NameError struct {
	// Name is the name that was missing.
	Name string
}

func (err *NameError) Error() string {
	return "undefined variable: " + strconv.Quote(err.Name)
}
