package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/big"

	"github.com/agbru/fibeval/internal/fibonacci"
	"github.com/agbru/fibeval/internal/ui"
	"github.com/agbru/fibeval/pkg/models"
)

// DisplaySequence streams F(0), F(1), ... F(n) to out as one comma separated
// line. Terms written before a cancellation are kept and the line is
// terminated before the error is returned.
func DisplaySequence(ctx context.Context, out io.Writer, n uint64, hexOutput bool) error {
	w := bufio.NewWriter(out)
	err := fibonacci.GenerateSequence(ctx, n, func(i uint64, v *big.Int) error {
		if i > 0 {
			if _, err := w.WriteString(", "); err != nil {
				return err
			}
		}
		_, err := w.WriteString(FormatQuietResult(v, hexOutput))
		return err
	})
	w.WriteByte('\n')
	if flushErr := w.Flush(); err == nil {
		err = flushErr
	}
	return err
}

// abbreviate shortens long decimal strings to their leading and trailing
// digits.
func abbreviate(s string) string {
	if len(s) <= TruncationLimit {
		return s
	}
	return fmt.Sprintf("%s...%s (%d digits)", s[:DisplayEdges], s[len(s)-DisplayEdges:], len(s))
}

// DisplayMembership prints the outcome of a Fibonacci membership test. In
// quiet mode only "true" or "false" is printed.
func DisplayMembership(out io.Writer, rec models.MembershipRecord, quiet bool) {
	if quiet {
		fmt.Fprintln(out, rec.IsFibonacci)
		return
	}
	candidate := abbreviate(rec.Candidate)
	if !rec.IsFibonacci {
		fmt.Fprintf(out, "%s✗%s %s%s%s is not a Fibonacci number.\n",
			ui.ColorRed(), ui.ColorReset(), ui.ColorCyan(), candidate, ui.ColorReset())
		return
	}
	fmt.Fprintf(out, "%s✓%s %s%s%s is a Fibonacci number",
		ui.ColorGreen(), ui.ColorReset(), ui.ColorCyan(), candidate, ui.ColorReset())
	if rec.Index != nil {
		fmt.Fprintf(out, ": F(%s%d%s)", ui.ColorMagenta(), *rec.Index, ui.ColorReset())
	}
	fmt.Fprintln(out, ".")
}
