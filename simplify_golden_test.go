package fpsem_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/fpsem/fpsem"
)

func TestSimplifyGolden(t *testing.T) {
	vars := map[string]fpsem.Format{
		"x": fpsem.Binary32,
		"y": fpsem.Binary32,
		"z": fpsem.Binary64,
	}
	srcs := []string{
		"rnd64(x)",
		"rnd64(x + y)",
		"rnd64(2 * z)",
		"rnd32(z / 8)",
		"rnd64(x / 8)",
		"rnd64(sqrt(z))",
		"rnd32(exp(x))",
		"no_rnd(x * y)",
		"rnd32(0.1)",
		"rnd64(x) + rnd64(y)",
		"rnd64(rnd32(x * y) + rnd32(x - y))",
	}
	var b strings.Builder
	for _, src := range srcs {
		e, err := fpsem.ParseString(src)
		require.NoError(t, err)
		fmt.Fprintf(&b, "%s => %s\n", src, fpsem.Simplify(e, vars))
	}
	g := goldie.New(t)
	g.Assert(t, "simplify", []byte(b.String()))
}
