package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fpsem/fpsem"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fpsem:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fpsem",
		Short:         "floating-point expression semantics",
		Long:          "fpsem simplifies rounding operators and computes sound interval enclosures\nof floating-point expressions over declared variable domains.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(simplifyCmd(), checkCmd(), rangeCmd())
	return root
}

// inputs loads the box file and parses the expression argument.
func inputs(boxPath, src string) (fpsem.Expr, map[string]fpsem.Format, map[string]fpsem.Interval, error) {
	var (
		formats map[string]fpsem.Format
		box     map[string]fpsem.Interval
		err     error
	)
	if boxPath != "" {
		formats, box, err = fpsem.LoadBox(boxPath)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	e, err := fpsem.ParseString(src)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parsing %q: %w", src, err)
	}
	return e, formats, box, nil
}

func simplifyCmd() *cobra.Command {
	var boxPath string
	cmd := &cobra.Command{
		Use:   "simplify <expr>",
		Short: "remove and tighten provably redundant rounding operators",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, formats, _, err := inputs(boxPath, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), fpsem.Simplify(e, formats))
			return nil
		},
	}
	cmd.Flags().StringVarP(&boxPath, "box", "b", "", "box file with variable formats and intervals")
	return cmd
}

func checkCmd() *cobra.Command {
	var boxPath string
	cmd := &cobra.Command{
		Use:   "check <expr>",
		Short: "validate that an expression is well defined over its domain box",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, formats, box, err := inputs(boxPath, args[0])
			if err != nil {
				return err
			}
			e = fpsem.Simplify(e, formats)
			v, err := fpsem.Evaluate(e, box)
			var dv *fpsem.DomainViolation
			if errors.As(err, &dv) {
				return fmt.Errorf("domain violation: %s (in %s)", dv.Reason, dv.Node)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: enclosure %s\n", v)
			return nil
		},
	}
	cmd.Flags().StringVarP(&boxPath, "box", "b", "", "box file with variable formats and intervals")
	return cmd
}

func rangeCmd() *cobra.Command {
	var (
		boxPath string
		oracle  string
	)
	cmd := &cobra.Command{
		Use:   "range <expr>",
		Short: "compute a sound interval enclosure, optionally refined by an external solver",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, formats, box, err := inputs(boxPath, args[0])
			if err != nil {
				return err
			}
			e = fpsem.Simplify(e, formats)
			v, err := fpsem.Evaluate(e, box)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enclosure %s\n", v)
			if oracle == "" {
				return nil
			}
			o := fpsem.Oracle{Argv: strings.Fields(oracle)}
			r, err := o.Bounds(e, box)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "oracle    %s\n", r)
			return nil
		},
	}
	cmd.Flags().StringVarP(&boxPath, "box", "b", "", "box file with variable formats and intervals")
	cmd.Flags().StringVar(&oracle, "oracle", "", "external min/max backend command")
	return cmd
}
