package fpsem

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// A box file declares the analysis inputs for a set of variables:
//
//	variables:
//	  x:
//	    format: 64
//	    interval: [-1, 1]
//	  t:
//	    format: real
//	    interval: [0, 6.28]
//
// Formats are bit widths or "real".

type boxFile struct {
	Variables map[string]varDecl `yaml:"variables"`
}

type varDecl struct {
	Format   string    `yaml:"format"`
	Interval []float64 `yaml:"interval"`
}

// ReadBox decodes a box file, returning the declared format and domain
// interval of every variable.
func ReadBox(r io.Reader) (map[string]Format, map[string]Interval, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var bf boxFile
	if err := dec.Decode(&bf); err != nil {
		return nil, nil, fmt.Errorf("decoding box file: %w", err)
	}
	formats := make(map[string]Format, len(bf.Variables))
	box := make(map[string]Interval, len(bf.Variables))
	for name, d := range bf.Variables {
		f, err := parseFormat(d.Format)
		if err != nil {
			return nil, nil, fmt.Errorf("variable %s: %w", name, err)
		}
		formats[name] = f
		if len(d.Interval) != 2 {
			return nil, nil, fmt.Errorf("variable %s: interval needs exactly [lo, hi]", name)
		}
		if d.Interval[0] > d.Interval[1] {
			return nil, nil, fmt.Errorf("variable %s: interval bounds out of order", name)
		}
		box[name] = Interval{d.Interval[0], d.Interval[1]}
	}
	return formats, box, nil
}

// LoadBox reads a box file from disk.
func LoadBox(path string) (map[string]Format, map[string]Interval, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return ReadBox(f)
}

func parseFormat(s string) (Format, error) {
	switch s {
	case "16":
		return Binary16, nil
	case "32":
		return Binary32, nil
	case "64", "":
		return Binary64, nil
	case "128":
		return Binary128, nil
	case "real":
		return Real, nil
	default:
		return Real, fmt.Errorf("unknown format %q", s)
	}
}
