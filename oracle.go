package fpsem

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Oracle invokes an external min/max backend over a generated query
// file. The backend receives the path of the query as its last argument
// and must print two lines of the form "min = <float>" and
// "max = <float>" (or "min: <float>" / "max: <float>"); everything else
// on its output is ignored.
type Oracle struct {
	// Argv is the backend command and its fixed arguments.
	Argv []string
	// Dir is the directory for generated query files. Empty means the
	// system temporary directory; files there are removed after a
	// successful run and kept for debugging after a failed one.
	Dir string
}

// Bounds runs the backend on e over the box and returns the reported
// range. Failures of the backend are *ToolError, a category distinct
// from domain violations: the backend crashing or printing garbage never
// means "no bound exists".
func (o *Oracle) Bounds(e Expr, box map[string]Interval) (Interval, error) {
	if len(o.Argv) == 0 {
		return Interval{}, &ToolError{Err: fmt.Errorf("no backend command configured")}
	}
	artifact, err := o.writeQuery(e, box)
	if err != nil {
		return Interval{}, &ToolError{Artifact: artifact, Argv: o.Argv, Err: err}
	}
	argv := append(append([]string(nil), o.Argv...), artifact)
	out, err := exec.Command(argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		return Interval{}, &ToolError{Artifact: artifact, Argv: argv, Output: string(out), Err: err}
	}
	lo, ok := scanBound(string(out), "min")
	if !ok {
		return Interval{}, &ToolError{Artifact: artifact, Argv: argv, Output: string(out),
			Err: fmt.Errorf("missing or malformed min line")}
	}
	hi, ok := scanBound(string(out), "max")
	if !ok {
		return Interval{}, &ToolError{Artifact: artifact, Argv: argv, Output: string(out),
			Err: fmt.Errorf("missing or malformed max line")}
	}
	if lo > hi {
		return Interval{}, &ToolError{Artifact: artifact, Argv: argv, Output: string(out),
			Err: fmt.Errorf("min %g exceeds max %g", lo, hi)}
	}
	if o.Dir == "" {
		os.Remove(artifact)
	}
	return Interval{lo, hi}, nil
}

// writeQuery renders the expression and box into a query file and
// returns its path.
func (o *Oracle) writeQuery(e Expr, box map[string]Interval) (string, error) {
	var b strings.Builder
	for _, name := range Vars(e) {
		x, ok := box[name]
		if !ok {
			return "", &NameError{Name: name}
		}
		fmt.Fprintf(&b, "var %s in [%s, %s]\n", name,
			strconv.FormatFloat(x.Lo, 'g', 17, 64),
			strconv.FormatFloat(x.Hi, 'g', 17, 64))
	}
	fmt.Fprintf(&b, "objective %s\n", e)
	f, err := os.CreateTemp(o.Dir, "fpsem-query-*.txt")
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return f.Name(), err
	}
	if err := f.Close(); err != nil {
		return f.Name(), err
	}
	return f.Name(), nil
}

// scanBound finds the first line "<key> = <float>" or "<key>: <float>"
// by fixed-prefix scan and parses the value.
func scanBound(out, key string) (float64, bool) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		rest, ok := strings.CutPrefix(line, key)
		if !ok {
			continue
		}
		rest = strings.TrimSpace(rest)
		if len(rest) == 0 || (rest[0] != '=' && rest[0] != ':') {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rest[1:]), 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

// ToolError reports a failure of the external backend, with the
// generated artifact and invoked command preserved for debugging.
type ToolError struct {
	// Artifact is the path of the generated query file, if one was
	// written.
	Artifact string
	// Argv is the invoked command line.
	Argv []string
	// Output is the combined output of the backend.
	Output string
	// Err is the underlying failure.
	Err error
}

func (err *ToolError) Error() string {
	s := "external tool failure: " + err.Err.Error()
	if len(err.Argv) > 0 {
		s += " (command: " + strings.Join(err.Argv, " ") + ")"
	}
	if err.Artifact != "" {
		s += " (artifact: " + err.Artifact + ")"
	}
	return s
}

func (err *ToolError) Unwrap() error {
	return err.Err
}
