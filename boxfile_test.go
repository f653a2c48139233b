package fpsem_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fpsem/fpsem"
)

const boxSrc = `
variables:
  x:
    format: 32
    interval: [-1, 1]
  t:
    format: real
    interval: [0, 6.28]
  n:
    interval: [1, 2]
`

func TestReadBox(t *testing.T) {
	formats, box, err := fpsem.ReadBox(strings.NewReader(boxSrc))
	require.NoError(t, err)
	require.Equal(t, map[string]fpsem.Format{
		"x": fpsem.Binary32,
		"t": fpsem.Real,
		"n": fpsem.Binary64,
	}, formats)
	require.Equal(t, map[string]fpsem.Interval{
		"x": {-1, 1},
		"t": {0, 6.28},
		"n": {1, 2},
	}, box)
}

func TestReadBoxErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"bad-format", "variables:\n  x:\n    format: 80\n    interval: [0, 1]\n"},
		{"short-interval", "variables:\n  x:\n    interval: [0]\n"},
		{"long-interval", "variables:\n  x:\n    interval: [0, 1, 2]\n"},
		{"reversed", "variables:\n  x:\n    interval: [2, 1]\n"},
		{"unknown-key", "vars:\n  x:\n    interval: [0, 1]\n"},
		{"not-yaml", ":\n-\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, _, err := fpsem.ReadBox(strings.NewReader(c.src))
			require.Error(t, err)
		})
	}
}

func TestLoadBox(t *testing.T) {
	path := filepath.Join(t.TempDir(), "box.yaml")
	require.NoError(t, os.WriteFile(path, []byte(boxSrc), 0o644))
	formats, box, err := fpsem.LoadBox(path)
	require.NoError(t, err)
	require.Len(t, formats, 3)
	require.Equal(t, fpsem.Interval{-1, 1}, box["x"])

	_, _, err = fpsem.LoadBox(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
