package fpsem

import (
	"math"
	"math/big"
	"strconv"
)

// Format is a floating-point representation class: one of the IEEE-754
// binary interchange formats, or Real for values with no finite format.
// Formats are totally ordered by inclusion of their exactly
// representable sets; Real is the top.
type Format int8

const (
	Binary16 Format = iota
	Binary32
	Binary64
	Binary128
	Real
)

// FormatBits returns the format with the given bit width. Zero or any
// unknown width selects Real.
func FormatBits(bits int) Format {
	switch bits {
	case 16:
		return Binary16
	case 32:
		return Binary32
	case 64:
		return Binary64
	case 128:
		return Binary128
	default:
		return Real
	}
}

// Bits returns the bit width of the format, or 0 for Real.
func (f Format) Bits() int {
	switch f {
	case Binary16:
		return 16
	case Binary32:
		return 32
	case Binary64:
		return 64
	case Binary128:
		return 128
	default:
		return 0
	}
}

func (f Format) String() string {
	if f == Real {
		return "real"
	}
	return "binary" + strconv.Itoa(f.Bits())
}

// SubsetOf reports whether every value exactly representable in f is
// exactly representable in g.
func (f Format) SubsetOf(g Format) bool {
	return f <= g
}

// wider returns the less restrictive of two formats.
func wider(f, g Format) Format {
	if f.SubsetOf(g) {
		return g
	}
	return f
}

// formatParams holds the IEEE-754 parameters of a finite format. eps and
// delta are the exponents of the unit roundoff and of half the smallest
// subnormal; maxval is the overflow threshold.
type formatParams struct {
	prec       uint
	emin, emax int
	eps, delta int
	maxval     float64
}

var finiteFormats = [...]Format{Binary16, Binary32, Binary64, Binary128}

var formatTable = map[Format]formatParams{
	Binary16:  {prec: 11, emin: -14, emax: 15, eps: -11, delta: -25, maxval: 65504},
	Binary32:  {prec: 24, emin: -126, emax: 127, eps: -24, delta: -150, maxval: math.MaxFloat32},
	Binary64:  {prec: 53, emin: -1022, emax: 1023, eps: -53, delta: -1075, maxval: math.MaxFloat64},
	Binary128: {prec: 113, emin: -16382, emax: 16383, eps: -113, delta: -16495, maxval: math.Inf(1)},
}

// Representable reports whether the rational v round-trips exactly
// through format f, including the subnormal range and the exponent
// bounds.
func Representable(v *big.Rat, f Format) bool {
	if f == Real {
		return true
	}
	p := formatTable[f]
	if v.Sign() == 0 {
		return true
	}
	x := new(big.Float).SetPrec(p.prec)
	x.SetRat(v)
	if x.Acc() != big.Exact {
		return false
	}
	// MantExp normalizes to mant in [0.5, 1), so the IEEE exponent of the
	// leading bit is exp-1.
	exp := x.MantExp(nil) - 1
	if exp > p.emax {
		return false
	}
	if exp < p.emin {
		// Subnormal: the value must be a multiple of the smallest
		// representable magnitude 2^(emin-prec+1).
		ulp := ratPow2(p.emin - int(p.prec) + 1)
		return new(big.Rat).Quo(v, ulp).IsInt()
	}
	return true
}

// ratPow2 returns 2^k as an exact rational.
func ratPow2(k int) *big.Rat {
	one := big.NewInt(1)
	if k >= 0 {
		return new(big.Rat).SetInt(new(big.Int).Lsh(one, uint(k)))
	}
	return new(big.Rat).SetFrac(one, new(big.Int).Lsh(one, uint(-k)))
}

// Infer returns a format in which the value of e is provably exactly
// representable. vars supplies the declared format of each variable;
// variables missing from vars are treated as Real. Returning Real is
// always sound; a finite format is returned only when exactness follows
// structurally from e. Infer does not recurse except through sign and
// magnitude pass-through operators.
func Infer(e Expr, vars map[string]Format) Format {
	switch e := e.(type) {
	case *Constant:
		if e.Val == nil {
			return Real
		}
		for _, f := range finiteFormats {
			if Representable(e.Val, f) {
				return f
			}
		}
		return Real
	case *Variable:
		f, ok := vars[e.Name]
		if !ok {
			return Real
		}
		return f
	case *UnaryExpr:
		// Negation and absolute value touch only the sign.
		if e.Op == OpNeg || e.Op == OpAbs {
			return Infer(e.X, vars)
		}
		return Real
	case *BinaryExpr:
		switch e.Op {
		case OpMin, OpMax:
			a, b := Infer(e.X, vars), Infer(e.Y, vars)
			// The result is one of the operands, so it is exactly
			// representable in whichever format contains the other.
			if a.SubsetOf(b) || b.SubsetOf(a) {
				return wider(a, b)
			}
			return Real
		case OpMul:
			// Scaling by a power of two only shifts the exponent.
			if _, ok := powTwoExp(e.X); ok || isZero(e.X) {
				return Infer(e.Y, vars)
			}
			if _, ok := powTwoExp(e.Y); ok || isZero(e.Y) {
				return Infer(e.X, vars)
			}
			return Real
		default:
			return Real
		}
	case *Rounded:
		return e.Rnd.Format
	default:
		return Real
	}
}

// DominantFormat returns the most frequent rounding target in e, the
// format an output printer would annotate the whole expression with.
// Ties go to the wider format; an expression with no rounding operators
// is Real. The count is a fold local to this call, nothing shared.
func DominantFormat(e Expr) Format {
	votes := make(map[Format]int)
	countFormats(e, votes)
	best, n := Real, 0
	for _, f := range finiteFormats {
		if v := votes[f]; v >= n && v > 0 {
			best, n = f, v
		}
	}
	return best
}

func countFormats(e Expr, votes map[Format]int) {
	switch e := e.(type) {
	case *UnaryExpr:
		countFormats(e.X, votes)
	case *BinaryExpr:
		countFormats(e.X, votes)
		countFormats(e.Y, votes)
	case *VariadicExpr:
		for _, a := range e.Args {
			countFormats(a, votes)
		}
	case *Rounded:
		if e.Rnd.Format != Real {
			votes[e.Rnd.Format]++
		}
		countFormats(e.X, votes)
	}
}
