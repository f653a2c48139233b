package fpsem

import (
	"math/big"
)

// maxExactPow caps exponents in the exact evaluator so that a
// pathological tree cannot demand a gigantic integer power.
const maxExactPow = 1 << 20

// ExactEval reduces an expression to an exact rational value, when its
// shape allows one. The second result is false for anything inexact or
// unknown: variables, interval literals, transcendentals, rounding
// operators, and division by zero. The result is freshly allocated.
func ExactEval(e Expr) (*big.Rat, bool) {
	switch e := e.(type) {
	case *Constant:
		if e.Val == nil {
			return nil, false
		}
		return new(big.Rat).Set(e.Val), true
	case *UnaryExpr:
		x, ok := ExactEval(e.X)
		if !ok {
			return nil, false
		}
		switch e.Op {
		case OpNeg:
			return x.Neg(x), true
		case OpAbs:
			return x.Abs(x), true
		case OpInv:
			if x.Sign() == 0 {
				return nil, false
			}
			return x.Inv(x), true
		default:
			return nil, false
		}
	case *BinaryExpr:
		x, ok := ExactEval(e.X)
		if !ok {
			return nil, false
		}
		y, ok := ExactEval(e.Y)
		if !ok {
			return nil, false
		}
		switch e.Op {
		case OpAdd:
			return x.Add(x, y), true
		case OpSub:
			return x.Sub(x, y), true
		case OpMul:
			return x.Mul(x, y), true
		case OpDiv:
			if y.Sign() == 0 {
				return nil, false
			}
			return x.Quo(x, y), true
		case OpMin:
			if x.Cmp(y) <= 0 {
				return x, true
			}
			return y, true
		case OpMax:
			if x.Cmp(y) >= 0 {
				return x, true
			}
			return y, true
		case OpNatPow:
			if !y.IsInt() || y.Sign() < 0 || !y.Num().IsInt64() || y.Num().Int64() > maxExactPow {
				return nil, false
			}
			n := y.Num()
			num := new(big.Int).Exp(x.Num(), n, nil)
			den := new(big.Int).Exp(x.Denom(), n, nil)
			return new(big.Rat).SetFrac(num, den), true
		default:
			return nil, false
		}
	case *VariadicExpr:
		if e.Op != OpFma || len(e.Args) != 3 {
			return nil, false
		}
		a, ok := ExactEval(e.Args[0])
		if !ok {
			return nil, false
		}
		b, ok := ExactEval(e.Args[1])
		if !ok {
			return nil, false
		}
		c, ok := ExactEval(e.Args[2])
		if !ok {
			return nil, false
		}
		return a.Add(a.Mul(a, b), c), true
	default:
		// Variables and rounding operators have no exact value here.
		return nil, false
	}
}
