package fpsem_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fpsem/fpsem"
)

func TestParseString(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"x", "x"},
		{"42", "42"},
		{"0.5", "1/2"},
		{"1e3", "1000"},
		{"-2", "-2"},
		{"-x", "-(x)"},
		{"x + y", "(x + y)"},
		{"x + y * z", "(x + (y * z))"},
		{"(x + y) * z", "((x + y) * z)"},
		{"x - y - z", "((x - y) - z)"},
		{"2 ^ 3 ^ 2", "(2 ^ (3 ^ 2))"},
		{"- 2 * x", "(-2 * x)"},
		{"x × y", "(x * y)"},
		{"x ÷ y", "(x / y)"},
		{"[x + y]", "(x + y)"},
		{"{x} * (y)", "(x * y)"},
		{"sqrt(2)", "sqrt(2)"},
		{"floor_power2(x)", "floor_power2(x)"},
		{"min(x, 0.25)", "min(x, 1/4)"},
		{"max(x; y)", "max(x, y)"},
		{"pow(x, 2)", "(x ^ 2)"},
		{"fma(x, y, z)", "fma(x, y, z)"},
		{"rnd32(x + y)", "rnd32((x + y))"},
		{"rnd16(rnd128(x))", "rnd16(rnd128(x))"},
		{"no_rnd(x)", "no_rnd(x)"},
		{"inf", "[+Inf, +Inf]"},
		{"tan(x) / (1 + cos(x))", "(tan(x) / (1 + cos(x)))"},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			e, err := fpsem.ParseString(c.src)
			require.NoError(t, err)
			require.Equal(t, c.want, e.String())
		})
	}
}

func TestParsePrintStable(t *testing.T) {
	// Printed output parses back to the same tree.
	srcs := []string{
		"rnd64(rnd32(x * y) + rnd32(z / 8))",
		"fma(x, y, min(z, 0.5))",
		"sqrt(abs(x)) - exp(-(y))",
	}
	for _, src := range srcs {
		t.Run(src, func(t *testing.T) {
			e, err := fpsem.ParseString(src)
			require.NoError(t, err)
			back, err := fpsem.ParseString(e.String())
			require.NoError(t, err)
			require.True(t, fpsem.Equal(e, back), "%v != %v", e, back)
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		src string
		as  func(error) bool
	}{
		{"", asErr[*fpsem.EmptyExpressionError]},
		{"x +", asErr[*fpsem.EmptyExpressionError]},
		{"()", asErr[*fpsem.EmptyExpressionError]},
		{"min(x,)", asErr[*fpsem.EmptyExpressionError]},
		{"(x", asErr[*fpsem.BracketError]},
		{"x)", asErr[*fpsem.BracketError]},
		{"(x]", asErr[*fpsem.BracketError]},
		{"min(x", asErr[*fpsem.BracketError]},
		{"min(x)", asErr[*fpsem.CallError]},
		{"min(x, y, z)", asErr[*fpsem.CallError]},
		{"fma(x, y)", asErr[*fpsem.CallError]},
		{"sqrt", asErr[*fpsem.CallError]},
		{"sqrt 2", asErr[*fpsem.CallError]},
		{"x, y", asErr[*fpsem.SeparatorError]},
		{"x y", asErr[*fpsem.OperatorError]},
		{"2 3", asErr[*fpsem.OperatorError]},
		{"*x", asErr[*fpsem.OperatorError]},
		{"2 & 3", asErr[*fpsem.LexError]},
		{"1..2", asErr[*fpsem.LexError]},
		{"1e", asErr[*fpsem.LexError]},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			_, err := fpsem.ParseString(c.src)
			require.Error(t, err)
			require.True(t, c.as(err), "wrong error type: %T: %v", err, err)
			var ie fpsem.InputError
			require.ErrorAs(t, err, &ie)
			require.Greater(t, ie.Pos(), 0)
		})
	}
}

func asErr[E error](err error) bool {
	var e E
	return errors.As(err, &e)
}
