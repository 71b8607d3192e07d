package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rawbytedev/flatmem/pkg/cow"
	"github.com/spf13/cobra"
)

var ErrBadRange = errors.New("bad range")

// parseRange reads "lo:hi", "lo:", ":hi", ":" and the inclusive forms
// "lo:=hi" and ":=hi".
func parseRange(s string) (cow.Range, error) {
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return cow.Range{}, fmt.Errorf("%q: missing ':': %w", s, ErrBadRange)
	}
	var r cow.Range
	if lo != "" {
		n, err := strconv.Atoi(lo)
		if err != nil || n < 0 {
			return cow.Range{}, fmt.Errorf("%q: start %q: %w", s, lo, ErrBadRange)
		}
		r.Start = cow.Bound{Kind: cow.Included, Value: n}
	}
	kind := cow.Excluded
	if rest, found := strings.CutPrefix(hi, "="); found {
		kind, hi = cow.Included, rest
		if hi == "" {
			return cow.Range{}, fmt.Errorf("%q: inclusive end needs a value: %w", s, ErrBadRange)
		}
	}
	if hi != "" {
		n, err := strconv.Atoi(hi)
		if err != nil || n < 0 {
			return cow.Range{}, fmt.Errorf("%q: end %q: %w", s, hi, ErrBadRange)
		}
		r.End = cow.Bound{Kind: kind, Value: n}
	}
	return r, nil
}

// sliceStep applies r, turning contract panics into errors for CLI input.
func sliceStep(s cow.FlatStr, r cow.Range) (out cow.FlatStr, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%v: %v: %w", r, p, ErrBadRange)
		}
	}()
	return s.SliceCow(r), nil
}

func describe(s cow.FlatStr) string {
	if start, end, ok := s.Window(); ok {
		return fmt.Sprintf("borrowed [%d:%d)", start, end)
	}
	return "owned"
}

func newInspectCmd(a *app) *cobra.Command {
	var (
		ranges []string
		mutate bool
		owned  bool
	)
	cmd := &cobra.Command{
		Use:   "inspect TEXT",
		Short: "Trace copy-on-write slicing of TEXT",
		Example: `  flatmem inspect abcdefghij -r 1:8 -r 3:6
  flatmem inspect héllo -r 1: --mutate`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := make([]cow.Range, 0, len(ranges))
			for _, s := range ranges {
				r, err := parseRange(s)
				if err != nil {
					return err
				}
				steps = append(steps, r)
			}
			return runInspect(cmd.OutOrStdout(), a, args[0], steps, owned, mutate)
		},
	}
	cmd.Flags().StringArrayVarP(&ranges, "range", "r", nil, "relative range to apply, repeatable")
	cmd.Flags().BoolVar(&mutate, "mutate", false, "request mutable access after slicing")
	cmd.Flags().BoolVar(&owned, "owned", false, "start from an owned copy instead of a borrow")
	return cmd
}

func runInspect(out io.Writer, a *app, text string, steps []cow.Range, owned, mutate bool) error {
	s := cow.BorrowStr(text)
	if owned {
		s = cow.OwnStr(text)
	}
	fmt.Fprintf(out, "%-10s %-18s %q\n", "root", describe(s), s.String())
	for _, r := range steps {
		next, err := sliceStep(s, r)
		if err != nil {
			return err
		}
		s = next
		fmt.Fprintf(out, "%-10s %-18s %q\n", r, describe(s), s.String())
	}
	if mutate {
		buf := s.ToMut()
		fmt.Fprintf(out, "%-10s %-18s %q (%d bytes copied)\n", "mutate", describe(s), s.String(), len(buf))
	}
	fmt.Fprintf(out, "%-10s %#016x\n", "hash", s.Hash())
	a.logger.Debug("inspect done", "steps", len(steps), "owned", s.IsOwned())
	return nil
}
