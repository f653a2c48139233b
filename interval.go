package fpsem

import (
	"math"
	"math/big"
	"strconv"

	"github.com/zephyrtronium/bigfloat"
)

// Interval is a closed interval [Lo, Hi] of reals with Lo <= Hi,
// enclosing the true range of a quantity. An infinite bound models
// overflow.
type Interval struct {
	Lo, Hi float64
}

// Point returns the degenerate interval [v, v].
func Point(v float64) Interval {
	return Interval{v, v}
}

// Contains reports whether v lies in the interval.
func (x Interval) Contains(v float64) bool {
	return x.Lo <= v && v <= x.Hi
}

// Width returns the outward-rounded width of the interval.
func (x Interval) Width() float64 {
	return fbin(x.Hi, x.Lo, big.ToPositiveInf, (*big.Float).Sub)
}

func (x Interval) String() string {
	return "[" + strconv.FormatFloat(x.Lo, 'g', -1, 64) +
		", " + strconv.FormatFloat(x.Hi, 'g', -1, 64) + "]"
}

// Directed rounding of the basic operations is done in big.Float at
// double precision with the appropriate mode, so a bound that is exactly
// representable comes out exact rather than widened by an ulp.

const (
	dblPrec   = 53
	guardPrec = 80
)

// dirFloat converts a big.Float already rounded under mode to a float64
// rounded in the same direction. Conversion is exact except at the
// subnormal and overflow boundaries, where the accuracy result tells us
// which way to step.
func dirFloat(z *big.Float, mode big.RoundingMode) float64 {
	v, acc := z.Float64()
	switch mode {
	case big.ToNegativeInf:
		if acc == big.Above {
			v = math.Nextafter(v, math.Inf(-1))
		}
	case big.ToPositiveInf:
		if acc == big.Below {
			v = math.Nextafter(v, math.Inf(1))
		}
	}
	return v
}

// fbin computes op(x, y) rounded in direction mode.
func fbin(x, y float64, mode big.RoundingMode, op func(z, x, y *big.Float) *big.Float) float64 {
	a := new(big.Float).SetFloat64(x)
	b := new(big.Float).SetFloat64(y)
	z := new(big.Float).SetPrec(dblPrec).SetMode(mode)
	op(z, a, b)
	return dirFloat(z, mode)
}

// funa computes op(x) rounded in direction mode.
func funa(x float64, mode big.RoundingMode, op func(z, x *big.Float) *big.Float) float64 {
	a := new(big.Float).SetFloat64(x)
	z := new(big.Float).SetPrec(dblPrec).SetMode(mode)
	op(z, a)
	return dirFloat(z, mode)
}

// trans computes f(x) at guard precision and widens one ulp in the
// direction of up. Used for the transcendental bounds, whose big.Float
// implementations are nearly but not provably correctly rounded.
func trans(f func(z, x *big.Float) *big.Float, x float64, up bool) float64 {
	z := new(big.Float).SetPrec(guardPrec)
	f(z, new(big.Float).SetFloat64(x))
	v, _ := z.Float64()
	if up {
		return math.Nextafter(v, math.Inf(1))
	}
	return math.Nextafter(v, math.Inf(-1))
}

// wlo and whi widen a nearest-rounded math library result outward by two
// ulps, covering the library's ~1 ulp error.
func wlo(v float64) float64 {
	ninf := math.Inf(-1)
	return math.Nextafter(math.Nextafter(v, ninf), ninf)
}

func whi(v float64) float64 {
	pinf := math.Inf(1)
	return math.Nextafter(math.Nextafter(v, pinf), pinf)
}

// piVal is a sound enclosure of pi.
var piVal = func() Interval {
	z := bigfloat.Pi(new(big.Float).SetPrec(guardPrec))
	v, _ := z.Float64()
	return Interval{math.Nextafter(v, 0), math.Nextafter(v, 4)}
}()

// ratEnclosure returns the tightest float64 enclosure of an exact
// rational.
func ratEnclosure(r *big.Rat) Interval {
	lo := new(big.Float).SetPrec(dblPrec).SetMode(big.ToNegativeInf)
	lo.SetRat(r)
	hi := new(big.Float).SetPrec(dblPrec).SetMode(big.ToPositiveInf)
	hi.SetRat(r)
	return Interval{dirFloat(lo, big.ToNegativeInf), dirFloat(hi, big.ToPositiveInf)}
}

func ineg(x Interval) Interval {
	return Interval{-x.Hi, -x.Lo}
}

func iabs(x Interval) Interval {
	switch {
	case x.Lo >= 0:
		return x
	case x.Hi <= 0:
		return Interval{-x.Hi, -x.Lo}
	default:
		return Interval{0, math.Max(-x.Lo, x.Hi)}
	}
}

func iadd(x, y Interval) Interval {
	return Interval{
		fbin(x.Lo, y.Lo, big.ToNegativeInf, (*big.Float).Add),
		fbin(x.Hi, y.Hi, big.ToPositiveInf, (*big.Float).Add),
	}
}

func isub(x, y Interval) Interval {
	return Interval{
		fbin(x.Lo, y.Hi, big.ToNegativeInf, (*big.Float).Sub),
		fbin(x.Hi, y.Lo, big.ToPositiveInf, (*big.Float).Sub),
	}
}

func imul(x, y Interval) Interval {
	lo := math.Inf(1)
	hi := math.Inf(-1)
	for _, p := range [4][2]float64{{x.Lo, y.Lo}, {x.Lo, y.Hi}, {x.Hi, y.Lo}, {x.Hi, y.Hi}} {
		lo = math.Min(lo, fbin(p[0], p[1], big.ToNegativeInf, (*big.Float).Mul))
		hi = math.Max(hi, fbin(p[0], p[1], big.ToPositiveInf, (*big.Float).Mul))
	}
	return Interval{lo, hi}
}

// isqr computes the square of an interval without the spurious negative
// range that multiplying an interval by itself as two independent
// factors would give.
func isqr(x Interval) Interval {
	a, b := math.Abs(x.Lo), math.Abs(x.Hi)
	if a > b {
		a, b = b, a
	}
	hi := fbin(b, b, big.ToPositiveInf, (*big.Float).Mul)
	if x.Lo <= 0 && x.Hi >= 0 {
		return Interval{0, hi}
	}
	return Interval{fbin(a, a, big.ToNegativeInf, (*big.Float).Mul), hi}
}

// idiv assumes the caller has checked that y excludes zero.
func idiv(x, y Interval) Interval {
	lo := math.Inf(1)
	hi := math.Inf(-1)
	for _, p := range [4][2]float64{{x.Lo, y.Lo}, {x.Lo, y.Hi}, {x.Hi, y.Lo}, {x.Hi, y.Hi}} {
		lo = math.Min(lo, fbin(p[0], p[1], big.ToNegativeInf, (*big.Float).Quo))
		hi = math.Max(hi, fbin(p[0], p[1], big.ToPositiveInf, (*big.Float).Quo))
	}
	return Interval{lo, hi}
}

func iinv(x Interval) Interval {
	return idiv(Interval{1, 1}, x)
}

func imin(x, y Interval) Interval {
	return Interval{math.Min(x.Lo, y.Lo), math.Min(x.Hi, y.Hi)}
}

func imax(x, y Interval) Interval {
	return Interval{math.Max(x.Lo, y.Lo), math.Max(x.Hi, y.Hi)}
}

// isqrt assumes x.Lo >= 0. big.Float square roots round correctly under
// the directed modes.
func isqrt(x Interval) Interval {
	return Interval{
		funa(x.Lo, big.ToNegativeInf, (*big.Float).Sqrt),
		funa(x.Hi, big.ToPositiveInf, (*big.Float).Sqrt),
	}
}

func iexp(x Interval) Interval {
	lo := trans(bigfloat.Exp, x.Lo, false)
	if lo < 0 {
		lo = 0
	}
	return Interval{lo, trans(bigfloat.Exp, x.Hi, true)}
}

// ilog assumes x.Lo > 0.
func ilog(x Interval) Interval {
	return Interval{trans(bigfloat.Log, x.Lo, false), trans(bigfloat.Log, x.Hi, true)}
}

// hasCrit conservatively reports whether some point base + k*period with
// integer k may lie in x. The slack absorbs both the float64 rendering
// of the point and the drift of pi approximations away from zero; a
// false positive only widens the result.
func hasCrit(x Interval, base, period float64) bool {
	slack := 4e-16*math.Max(math.Abs(x.Lo), math.Abs(x.Hi)) + 1e-15
	k := math.Floor((x.Lo - base) / period)
	for i := 0; i < 4; i++ {
		c := base + (k+float64(i))*period
		if c > x.Hi+slack {
			return false
		}
		if c >= x.Lo-slack {
			return true
		}
	}
	return false
}

// trigWide reports arguments too large for critical-point location to be
// trustworthy.
func trigWide(x Interval) bool {
	return math.Abs(x.Lo) > 1e12 || math.Abs(x.Hi) > 1e12
}

func isin(x Interval) Interval {
	if trigWide(x) || x.Hi-x.Lo >= 2*piVal.Lo {
		return Interval{-1, 1}
	}
	lo := wlo(math.Min(math.Sin(x.Lo), math.Sin(x.Hi)))
	hi := whi(math.Max(math.Sin(x.Lo), math.Sin(x.Hi)))
	if hasCrit(x, math.Pi/2, 2*math.Pi) {
		hi = 1
	}
	if hasCrit(x, -math.Pi/2, 2*math.Pi) {
		lo = -1
	}
	return Interval{math.Max(lo, -1), math.Min(hi, 1)}
}

func icos(x Interval) Interval {
	if trigWide(x) || x.Hi-x.Lo >= 2*piVal.Lo {
		return Interval{-1, 1}
	}
	lo := wlo(math.Min(math.Cos(x.Lo), math.Cos(x.Hi)))
	hi := whi(math.Max(math.Cos(x.Lo), math.Cos(x.Hi)))
	if hasCrit(x, 0, 2*math.Pi) {
		hi = 1
	}
	if hasCrit(x, math.Pi, 2*math.Pi) {
		lo = -1
	}
	return Interval{math.Max(lo, -1), math.Min(hi, 1)}
}

// itan returns a wide but finite enclosure when the interval may touch
// an asymptote, so that tangent never raises a domain violation.
func itan(x Interval) Interval {
	if trigWide(x) || x.Hi-x.Lo >= piVal.Lo || hasCrit(x, math.Pi/2, math.Pi) {
		return Interval{-math.MaxFloat64, math.MaxFloat64}
	}
	return Interval{wlo(math.Tan(x.Lo)), whi(math.Tan(x.Hi))}
}

// imono encloses a nondecreasing function by its widened endpoint
// values.
func imono(x Interval, f func(float64) float64) Interval {
	return Interval{wlo(f(x.Lo)), whi(f(x.Hi))}
}

// iasin assumes x inside [-1, 1].
func iasin(x Interval) Interval {
	return imono(x, math.Asin)
}

// iacos assumes x inside [-1, 1]. Decreasing, range [0, pi].
func iacos(x Interval) Interval {
	return Interval{math.Max(0, wlo(math.Acos(x.Hi))), whi(math.Acos(x.Lo))}
}

func iatan(x Interval) Interval {
	return imono(x, math.Atan)
}

func isinh(x Interval) Interval {
	return imono(x, math.Sinh)
}

func icosh(x Interval) Interval {
	a, b := math.Abs(x.Lo), math.Abs(x.Hi)
	if a > b {
		a, b = b, a
	}
	hi := whi(math.Cosh(b))
	if x.Lo <= 0 && x.Hi >= 0 {
		return Interval{1, hi}
	}
	return Interval{math.Max(1, wlo(math.Cosh(a))), hi}
}

func itanh(x Interval) Interval {
	r := imono(x, math.Tanh)
	return Interval{math.Max(r.Lo, -1), math.Min(r.Hi, 1)}
}

func iasinh(x Interval) Interval {
	return imono(x, math.Asinh)
}

// iacosh assumes x.Lo >= 1. Range [0, inf).
func iacosh(x Interval) Interval {
	r := imono(x, math.Acosh)
	return Interval{math.Max(0, r.Lo), r.Hi}
}

// iatanh assumes x strictly inside (-1, 1).
func iatanh(x Interval) Interval {
	return imono(x, math.Atanh)
}

// floorPow2 maps v to the power of two at or below its magnitude,
// keeping the sign. Exact in float64, monotone nondecreasing.
func floorPow2(v float64) float64 {
	if v == 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	_, e := math.Frexp(v)
	return math.Copysign(math.Ldexp(1, e-1), v)
}

func ifloorPow2(x Interval) Interval {
	return Interval{floorPow2(x.Lo), floorPow2(x.Hi)}
}

// ipown computes x^n for n >= 0 by repeated sound multiplication.
func ipown(x Interval, n int) Interval {
	if n == 0 {
		return Interval{1, 1}
	}
	r := x
	for i := 1; i < n; i++ {
		r = imul(r, x)
	}
	return r
}
