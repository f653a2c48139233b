package fpsem_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fpsem/fpsem"
)

var simplifyVars = map[string]fpsem.Format{
	"x": fpsem.Binary32,
	"y": fpsem.Binary32,
	"z": fpsem.Binary64,
}

// simp parses, simplifies, and renders, so cases read as rewrites.
func simp(t *testing.T, src string) string {
	t.Helper()
	e, err := fpsem.ParseString(src)
	require.NoError(t, err)
	return fpsem.Simplify(e, simplifyVars).String()
}

func TestSimplifyDrops(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		// Identity rounding.
		{"no_rnd(x + y)", "(x + y)"},
		// The argument is already exact in the target format.
		{"rnd64(x)", "x"},
		{"rnd32(x)", "x"},
		{"rnd64(0.5)", "1/2"},
		{"rnd64(min(x, y))", "min(x, y)"},
		{"rnd64(-x)", "-(x)"},
		// Power-of-two scaling up or by zero is an exact exponent shift.
		{"rnd64(2 * z)", "(2 * z)"},
		{"rnd32(4 * x)", "(4 * x)"},
		{"rnd64(0.25 * x)", "(1/4 * x)"},
		{"rnd32(0 * x)", "(0 * x)"},
		// Dividing by two to a non-positive power multiplies by 2^k, k >= 0.
		{"rnd32(x / 0.25)", "(x / 1/4)"},
		// Nested rounding collapses inside out.
		{"rnd64(rnd32(x))", "x"},
		// Rewrites apply at any depth.
		{"rnd64(x) + sqrt(rnd32(y))", "(x + sqrt(y))"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			require.Equal(t, c.want, simp(t, c.src))
		})
	}
}

func TestSimplifyKeeps(t *testing.T) {
	cases := []string{
		// Narrowing to a format that does not contain the argument.
		"rnd32(z)",
		// A constant with no finite representation.
		"rnd32(0.1)",
		// Results of inexact arithmetic.
		"rnd32(x + y)",
		"rnd32(x * y)",
		"rnd32(exp(x))",
		// Scaling of an operand that is not in the target format.
		"rnd32(2 * z)",
		"rnd32(z / 8)",
	}
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			e, err := fpsem.ParseString(src)
			require.NoError(t, err)
			s := fpsem.Simplify(e, simplifyVars)
			_, ok := s.(*fpsem.Rounded)
			require.True(t, ok, "simplified to %v", s)
		})
	}
}

func TestSimplifyExactFlags(t *testing.T) {
	cases := []struct {
		src        string
		exact      bool
		exactScale bool
	}{
		// In-format addition and subtraction have no absolute error term.
		{"rnd64(x + y)", true, false},
		{"rnd64(x - y)", true, false},
		// Correctly rounded square roots never reach the subnormal range.
		{"rnd64(sqrt(z))", true, false},
		// Scaling down by a power of two has no relative error term.
		{"rnd64(x / 8)", false, true},
		{"rnd32(x / 1024)", false, true},
		// No rule applies.
		{"rnd32(x * y)", false, false},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			e, err := fpsem.ParseString(c.src)
			require.NoError(t, err)
			r, ok := fpsem.Simplify(e, simplifyVars).(*fpsem.Rounded)
			require.True(t, ok)
			require.Equal(t, c.exact, r.Rnd.Exact, "Exact")
			require.Equal(t, c.exactScale, r.Rnd.ExactScale, "ExactScale")
		})
	}
}

func TestSimplifyIdempotent(t *testing.T) {
	cases := []string{
		"rnd64(x)",
		"rnd32(x + y)",
		"rnd64(sqrt(z))",
		"rnd64(0.25 * x)",
		"rnd64(rnd32(x + y) * rnd32(2 * x)) - rnd32(0.1)",
		"fma(rnd32(x), y, rnd64(z))",
	}
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			e, err := fpsem.ParseString(src)
			require.NoError(t, err)
			once := fpsem.Simplify(e, simplifyVars)
			twice := fpsem.Simplify(once, simplifyVars)
			require.True(t, fpsem.Equal(once, twice), "%v != %v", once, twice)
		})
	}
}

func TestSimplifyLeavesArgument(t *testing.T) {
	// The rewrite may drop or retag the operator, never alter its argument.
	e, err := fpsem.ParseString("rnd64(x + y)")
	require.NoError(t, err)
	r, ok := fpsem.Simplify(e, simplifyVars).(*fpsem.Rounded)
	require.True(t, ok)
	require.True(t, fpsem.Equal(r.X, fpsem.Binary(fpsem.OpAdd, fpsem.Var("x"), fpsem.Var("y"))))
}

func TestRemoveRounding(t *testing.T) {
	r32 := fpsem.RoundingFor(fpsem.Binary32, fpsem.ToNearest)
	r64 := fpsem.RoundingFor(fpsem.Binary64, fpsem.ToNearest)
	e := fpsem.Round(r64, fpsem.Binary(fpsem.OpAdd,
		fpsem.Round(r32, fpsem.Var("x")),
		fpsem.Round(r32, fpsem.Var("y")),
	))
	got := fpsem.RemoveRounding(e, r32)
	want := fpsem.Round(r64, fpsem.Binary(fpsem.OpAdd, fpsem.Var("x"), fpsem.Var("y")))
	require.True(t, fpsem.Equal(got, want), "got %v", got)

	// Descriptors that differ from the base survive, including ones that
	// share its format.
	up := fpsem.RoundingFor(fpsem.Binary32, fpsem.Up)
	e = fpsem.Round(up, fpsem.Var("x"))
	require.True(t, fpsem.Equal(e, fpsem.RemoveRounding(e, r32)))
}

func TestRoundingFor(t *testing.T) {
	r := fpsem.RoundingFor(fpsem.Binary64, fpsem.ToNearest)
	require.Equal(t, fpsem.Binary64, r.Format)
	require.Equal(t, -53, r.Eps)
	require.Equal(t, -1075, r.Delta)
	require.Equal(t, 1.0, r.Coef)
	require.False(t, r.IsNoOp())

	// Directed modes double the error coefficient.
	require.Equal(t, 2.0, fpsem.RoundingFor(fpsem.Binary64, fpsem.Up).Coef)
	require.Equal(t, 2.0, fpsem.RoundingFor(fpsem.Binary32, fpsem.TowardZero).Coef)

	require.Equal(t, fpsem.NoRounding, fpsem.RoundingFor(fpsem.Real, fpsem.Down))
	require.True(t, fpsem.NoRounding.IsNoOp())
}

func TestRoundingString(t *testing.T) {
	require.Equal(t, "no_rnd", fpsem.NoRounding.String())
	require.Equal(t, "rnd64", fpsem.RoundingFor(fpsem.Binary64, fpsem.ToNearest).String())
	require.Equal(t, "rnd[32, up, c=2]", fpsem.RoundingFor(fpsem.Binary32, fpsem.Up).String())
	r := fpsem.RoundingFor(fpsem.Binary64, fpsem.ToNearest)
	r.Exact = true
	require.Equal(t, "rnd[64, ne, exact]", r.String())
	r.Exact, r.ExactScale = false, true
	require.Equal(t, "rnd[64, ne, p2]", r.String())
}
