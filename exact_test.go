package fpsem_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fpsem/fpsem"
)

func TestExactEval(t *testing.T) {
	cases := []struct {
		src  string
		want *big.Rat
	}{
		{"3", big.NewRat(3, 1)},
		{"0.5", big.NewRat(1, 2)},
		{"-2", big.NewRat(-2, 1)},
		{"1 / 3", big.NewRat(1, 3)},
		{"3 / 4 + 1 / 4", big.NewRat(1, 1)},
		{"abs(0 - 5)", big.NewRat(5, 1)},
		{"inv(4)", big.NewRat(1, 4)},
		{"2 ^ 10", big.NewRat(1024, 1)},
		{"pow(1 / 2, 3)", big.NewRat(1, 8)},
		{"min(1 / 3, 1 / 4)", big.NewRat(1, 4)},
		{"max(1 / 3, 1 / 4)", big.NewRat(1, 3)},
		{"fma(2, 3, 1)", big.NewRat(7, 1)},
		{"(1 / 10 + 2 / 10) * 10", big.NewRat(3, 1)},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			e, err := fpsem.ParseString(c.src)
			require.NoError(t, err)
			r, ok := fpsem.ExactEval(e)
			require.True(t, ok)
			require.Zero(t, c.want.Cmp(r), "got %v, want %v", r, c.want)
		})
	}
}

func TestExactEvalInexact(t *testing.T) {
	cases := []string{
		// Anything without a single exact rational value.
		"x",
		"1 / 0",
		"inv(0)",
		"sqrt(2)",
		"sin(1)",
		"rnd64(2)",
		"no_rnd(2)",
		"inf",
		"pow(2, 1 / 2)",
		"2 ^ (0 - 1)",
		"2 ^ 2000000",
	}
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			e, err := fpsem.ParseString(src)
			require.NoError(t, err)
			_, ok := fpsem.ExactEval(e)
			require.False(t, ok)
		})
	}
	_, ok := fpsem.ExactEval(fpsem.Between(0, 1))
	require.False(t, ok)
}

func TestExactEvalFresh(t *testing.T) {
	// The result is a fresh value; mutating it must not corrupt the tree.
	e := fpsem.Rat(big.NewRat(1, 2))
	r, ok := fpsem.ExactEval(e)
	require.True(t, ok)
	r.SetInt64(99)
	r2, ok := fpsem.ExactEval(e)
	require.True(t, ok)
	require.Zero(t, big.NewRat(1, 2).Cmp(r2))
}
