package fpsem_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fpsem/fpsem"
)

func TestSubsetOf(t *testing.T) {
	order := []fpsem.Format{fpsem.Binary16, fpsem.Binary32, fpsem.Binary64, fpsem.Binary128, fpsem.Real}
	for i, f := range order {
		for j, g := range order {
			require.Equal(t, i <= j, f.SubsetOf(g), "%v subset of %v", f, g)
		}
	}
}

func TestFormatBits(t *testing.T) {
	for _, f := range []fpsem.Format{fpsem.Binary16, fpsem.Binary32, fpsem.Binary64, fpsem.Binary128} {
		require.Equal(t, f, fpsem.FormatBits(f.Bits()))
	}
	require.Equal(t, fpsem.Real, fpsem.FormatBits(0))
	require.Equal(t, fpsem.Real, fpsem.FormatBits(80))
	require.Equal(t, 0, fpsem.Real.Bits())
	require.Equal(t, "binary32", fpsem.Binary32.String())
	require.Equal(t, "real", fpsem.Real.String())
}

func TestRepresentable(t *testing.T) {
	cases := []struct {
		name string
		v    *big.Rat
		f    fpsem.Format
		want bool
	}{
		{"half16", big.NewRat(1, 2), fpsem.Binary16, true},
		{"tenth64", big.NewRat(1, 10), fpsem.Binary64, false},
		{"zero16", new(big.Rat), fpsem.Binary16, true},
		{"max16", new(big.Rat).SetInt64(65504), fpsem.Binary16, true},
		{"overmax16", new(big.Rat).SetInt64(65505), fpsem.Binary16, false},
		{"widemant16", new(big.Rat).SetInt64(2049), fpsem.Binary16, false},
		{"widemant32", new(big.Rat).SetInt64(2049), fpsem.Binary32, true},
		{"subnormal16", big.NewRat(1, 1<<24), fpsem.Binary16, true},
		{"undersub16", big.NewRat(1, 1<<25), fpsem.Binary16, false},
		{"anything-real", big.NewRat(1, 3), fpsem.Real, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, fpsem.Representable(c.v, c.f))
		})
	}
}

func TestInfer(t *testing.T) {
	vars := map[string]fpsem.Format{
		"x": fpsem.Binary32,
		"y": fpsem.Binary32,
		"z": fpsem.Binary64,
	}
	cases := []struct {
		src  string
		want fpsem.Format
	}{
		// A constant belongs to the narrowest format that holds it exactly.
		{"0.5", fpsem.Binary16},
		{"0.1", fpsem.Real},
		{"65536", fpsem.Binary32},
		{"2049", fpsem.Binary32},
		// Variables carry their declared format; unknown names are real.
		{"x", fpsem.Binary32},
		{"w", fpsem.Real},
		// Sign and magnitude operators pass the format through.
		{"-x", fpsem.Binary32},
		{"abs(z)", fpsem.Binary64},
		// min and max produce one of their operands.
		{"min(x, y)", fpsem.Binary32},
		{"max(x, z)", fpsem.Binary64},
		// Power-of-two scaling shifts only the exponent.
		{"2 * z", fpsem.Binary64},
		{"x * 0.25", fpsem.Binary32},
		{"0 * z", fpsem.Binary64},
		{"3 * z", fpsem.Real},
		// Everything else is real.
		{"x + y", fpsem.Real},
		{"sqrt(x)", fpsem.Real},
		{"x / 2", fpsem.Real},
		// Rounding declares its own target.
		{"rnd32(z)", fpsem.Binary32},
		{"no_rnd(x)", fpsem.Real},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			e, err := fpsem.ParseString(c.src)
			require.NoError(t, err)
			require.Equal(t, c.want, fpsem.Infer(e, vars))
		})
	}
}

func TestDominantFormat(t *testing.T) {
	cases := []struct {
		src  string
		want fpsem.Format
	}{
		{"x + y", fpsem.Real},
		{"rnd32(x + y)", fpsem.Binary32},
		{"rnd32(x) + rnd32(y) * rnd64(z)", fpsem.Binary32},
		// Ties go to the wider format.
		{"rnd32(x) + rnd64(y)", fpsem.Binary64},
		{"rnd16(rnd16(x) + y) + rnd64(z)", fpsem.Binary16},
		{"no_rnd(x)", fpsem.Real},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			e, err := fpsem.ParseString(c.src)
			require.NoError(t, err)
			require.Equal(t, c.want, fpsem.DominantFormat(e))
		})
	}
}
