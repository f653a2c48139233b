package fpsem

import (
	"strconv"
)

// Mode is an IEEE-754 rounding direction.
type Mode int8

const (
	ToNearest Mode = iota
	Up
	Down
	TowardZero
)

var modeNames = [...]string{"ne", "up", "down", "zero"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "mode(" + strconv.Itoa(int(m)) + ")"
}

// Rounding describes the linear error model of a rounding operator:
// rounding v introduces at most Coef*(2^Eps*|v| + 2^Delta) of error, and
// magnitudes beyond MaxVal overflow. Exact marks a descriptor whose
// absolute term is proven zero; ExactScale one whose relative term is
// proven zero (power-of-two scaling). A descriptor targeting Real is a
// no-op.
type Rounding struct {
	Format     Format
	Mode       Mode
	Eps, Delta int
	Coef       float64
	MaxVal     float64
	Exact      bool
	ExactScale bool
}

// NoRounding is the identity rounding, attached to expressions whose
// declared target is the reals.
var NoRounding = Rounding{Format: Real}

// IsNoOp reports whether the descriptor rounds at all.
func (r Rounding) IsNoOp() bool {
	return r.Format == Real
}

// RoundingFor returns the default descriptor for rounding into format f
// with the given mode. Directed modes carry twice the error bound of
// round-to-nearest.
func RoundingFor(f Format, mode Mode) Rounding {
	if f == Real {
		return NoRounding
	}
	p := formatTable[f]
	coef := 1.0
	if mode != ToNearest {
		coef = 2.0
	}
	return Rounding{
		Format: f,
		Mode:   mode,
		Eps:    p.eps,
		Delta:  p.delta,
		Coef:   coef,
		MaxVal: p.maxval,
	}
}

func (r Rounding) String() string {
	if r.IsNoOp() {
		return "no_rnd"
	}
	if r == RoundingFor(r.Format, ToNearest) {
		return "rnd" + strconv.Itoa(r.Format.Bits())
	}
	s := "rnd[" + strconv.Itoa(r.Format.Bits()) + ", " + r.Mode.String()
	if r.Coef != 1 {
		s += ", c=" + strconv.FormatFloat(r.Coef, 'g', -1, 64)
	}
	if r.Exact {
		s += ", exact"
	}
	if r.ExactScale {
		s += ", p2"
	}
	return s + "]"
}

// Simplify rewrites the rounding operators of e bottom-up, removing the
// provably redundant ones and tightening the rest. It is total and
// idempotent; a rounding operator that matches no exactness rule keeps
// its original descriptor, so partial or repeated application stays
// sound. vars supplies the declared format of each variable, as for
// Infer.
func Simplify(e Expr, vars map[string]Format) Expr {
	switch e := e.(type) {
	case *Constant, *Variable:
		return e
	case *UnaryExpr:
		return &UnaryExpr{Op: e.Op, X: Simplify(e.X, vars)}
	case *BinaryExpr:
		return &BinaryExpr{Op: e.Op, X: Simplify(e.X, vars), Y: Simplify(e.Y, vars)}
	case *VariadicExpr:
		args := make([]Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = Simplify(a, vars)
		}
		return &VariadicExpr{Op: e.Op, Args: args}
	case *Rounded:
		return simplifyRounded(e.Rnd, Simplify(e.X, vars), vars)
	default:
		panic("fpsem: unknown expression node")
	}
}

// simplifyRounded rewrites a single rounding operator around an already
// simplified argument. Every branch is sound in isolation; the final
// branch keeps the conservative original.
func simplifyRounded(rnd Rounding, arg Expr, vars map[string]Format) Expr {
	// Identity rounding adds nothing.
	if rnd.IsNoOp() {
		return arg
	}
	// A value already exact in the target format rounds to itself.
	if Infer(arg, vars).SubsetOf(rnd.Format) {
		return arg
	}
	// Same check, directly on the constant's value rather than its
	// inferred format class.
	if c, ok := arg.(*Constant); ok && c.Val != nil && Representable(c.Val, rnd.Format) {
		return arg
	}
	switch b := arg.(type) {
	case *UnaryExpr:
		if b.Op == OpSqrt {
			// A correctly rounded square root has no absolute term: the
			// result magnitude stays in the normal range of its argument.
			rnd.Exact = true
			return &Rounded{Rnd: rnd, X: arg}
		}
	case *BinaryExpr:
		inFmt := func(x Expr) bool { return Infer(x, vars).SubsetOf(rnd.Format) }
		switch b.Op {
		case OpAdd, OpSub:
			// Adding two in-format values rounds with no contribution
			// beyond the standard relative error.
			if inFmt(b.X) && inFmt(b.Y) {
				rnd.Exact = true
				return &Rounded{Rnd: rnd, X: arg}
			}
		case OpMul:
			if k, ok, other := mulPowTwo(b); ok && inFmt(other) {
				if k >= 0 {
					// Scaling up by 2^k (or by zero) is an exact exponent
					// shift.
					return arg
				}
				// Scaling down can still land in the subnormal range, so
				// only the relative term vanishes.
				rnd.ExactScale = true
				return &Rounded{Rnd: rnd, X: arg}
			}
			if isZero(b.X) && inFmt(b.Y) || isZero(b.Y) && inFmt(b.X) {
				return arg
			}
		case OpDiv:
			if k, ok := powTwoExp(b.Y); ok && inFmt(b.X) {
				if k <= 0 {
					// Dividing by 2^k, k <= 0, multiplies by a non-negative
					// power of two: exact.
					return arg
				}
				rnd.ExactScale = true
				return &Rounded{Rnd: rnd, X: arg}
			}
		}
	}
	return &Rounded{Rnd: rnd, X: arg}
}

// mulPowTwo reports whether one factor of a multiplication is
// structurally ±2^k and returns k and the other factor.
func mulPowTwo(b *BinaryExpr) (k int, ok bool, other Expr) {
	if k, ok := powTwoExp(b.X); ok {
		return k, true, b.Y
	}
	if k, ok := powTwoExp(b.Y); ok {
		return k, true, b.X
	}
	return 0, false, nil
}

// RemoveRounding strips every rounding operator whose descriptor equals
// base.
//
// Known limitation, inherited from the analysis this implements: the
// comparison is against a single base descriptor, which is not correct
// for mixed-precision expressions; an inner operator can match base yet
// still matter relative to a different outer target. Callers analyzing
// uniform-precision expressions only are unaffected.
func RemoveRounding(e Expr, base Rounding) Expr {
	switch e := e.(type) {
	case *Constant, *Variable:
		return e
	case *UnaryExpr:
		return &UnaryExpr{Op: e.Op, X: RemoveRounding(e.X, base)}
	case *BinaryExpr:
		return &BinaryExpr{Op: e.Op, X: RemoveRounding(e.X, base), Y: RemoveRounding(e.Y, base)}
	case *VariadicExpr:
		args := make([]Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = RemoveRounding(a, base)
		}
		return &VariadicExpr{Op: e.Op, Args: args}
	case *Rounded:
		x := RemoveRounding(e.X, base)
		if e.Rnd == base {
			return x
		}
		return &Rounded{Rnd: e.Rnd, X: x}
	default:
		panic("fpsem: unknown expression node")
	}
}
