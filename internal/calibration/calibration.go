// Package calibration measures the smallest closed-form precision that still
// yields exact Fibonacci numbers and compares it with the analytic bound
// used for automatic precision.
package calibration

import (
	"context"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/agbru/fibeval/internal/cli"
	apperrors "github.com/agbru/fibeval/internal/errors"
	"github.com/agbru/fibeval/internal/fibonacci"
	"github.com/agbru/fibeval/internal/ui"
)

// DefaultIndices are the indices measured by -calibrate.
var DefaultIndices = []uint64{10, 50, 100, 500, 1_000, 5_000, 10_000, 50_000, 100_000}

// Entry is one row of the calibration table.
type Entry struct {
	N uint64
	// ValueDigits is the number of decimal digits of F(N).
	ValueDigits int
	// Minimal is the smallest exact precision found by search.
	Minimal int
	// Analytic is fibonacci.MinimumDigits(N).
	Analytic int
	// Elapsed is the time spent on the search.
	Elapsed time.Duration
}

// Margin is the number of digits the analytic bound keeps above the
// measured minimum. A negative margin means automatic precision is unsafe.
func (e Entry) Margin() int {
	return e.Analytic - e.Minimal
}

// Calibrate measures every index in turn. progress, when non-nil, receives
// the fraction of indices done.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - indices: The indices to measure.
//   - timeout: The overall budget, split into per-trial deadlines.
//   - progress: The progress callback, or nil.
//
// Returns:
//   - []Entry: One entry per index measured before any error.
//   - error: The first trial error, or the context error.
func Calibrate(ctx context.Context, indices []uint64, timeout time.Duration, progress func(float64)) ([]Entry, error) {
	runner := newCalibrationRunner(ctx, timeout)
	entries := make([]Entry, 0, len(indices))
	for i, n := range indices {
		if err := ctx.Err(); err != nil {
			return entries, err
		}
		start := time.Now()
		want, err := runner.reference(n)
		if err != nil {
			return entries, fmt.Errorf("reference F(%d): %w", n, err)
		}
		minimal, err := runner.findMinimalDigits(n, want)
		if err != nil {
			return entries, fmt.Errorf("calibrating F(%d): %w", n, err)
		}
		entries = append(entries, Entry{
			N:           n,
			ValueDigits: len(want.String()),
			Minimal:     minimal,
			Analytic:    fibonacci.MinimumDigits(n),
			Elapsed:     time.Since(start),
		})
		if progress != nil {
			progress(float64(i+1) / float64(len(indices)))
		}
	}
	return entries, nil
}

// RunCalibration runs Calibrate with a progress display and prints the
// resulting table to out.
//
// Returns:
//   - int: The exit code (0 for success).
func RunCalibration(ctx context.Context, out io.Writer, indices []uint64, timeout time.Duration) int {
	fmt.Fprintf(out, "--- Calibration Mode: Minimal Closed-Form Precision ---\n")

	var wg sync.WaitGroup
	progressChan := make(chan fibonacci.ProgressUpdate, len(indices)+1)
	wg.Add(1)
	go cli.DisplayProgress(&wg, progressChan, 1, out)

	start := time.Now()
	entries, err := Calibrate(ctx, indices, timeout, func(p float64) {
		progressChan <- fibonacci.ProgressUpdate{EvaluatorIndex: 0, Value: p}
	})
	close(progressChan)
	wg.Wait()

	if len(entries) > 0 {
		printCalibrationResults(out, entries)
	}
	if err != nil {
		fmt.Fprintf(out, "\n%sCalibration interrupted: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
		return apperrors.HandleCalculationError(err, time.Since(start), out, ui.Provider{})
	}

	unsafe := 0
	for _, e := range entries {
		if e.Margin() < 0 {
			unsafe++
		}
	}
	if unsafe > 0 {
		fmt.Fprintf(out, "\n%s⚠ The analytic bound is below the measured minimum for %d index(es).%s\n",
			ui.ColorRed(), unsafe, ui.ColorReset())
		return apperrors.ExitErrorMismatch
	}
	fmt.Fprintf(out, "\n%s✅ Automatic precision is exact for every measured index (calibrated in %s).%s\n",
		ui.ColorGreen(), cli.FormatExecutionDuration(time.Since(start)), ui.ColorReset())
	return apperrors.ExitSuccess
}

func printCalibrationResults(out io.Writer, entries []Entry) {
	fmt.Fprintf(out, "\n--- Calibration Results ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "n\tF(n) digits\tminimal\tanalytic\tmargin\ttime\t\n")
	for _, e := range entries {
		color := ui.ColorGreen()
		if e.Margin() < 0 {
			color = ui.ColorRed()
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%s%+d%s\t%s\t\n",
			e.N, e.ValueDigits, e.Minimal, e.Analytic,
			color, e.Margin(), ui.ColorReset(), cli.FormatExecutionDuration(e.Elapsed))
	}
	_ = tw.Flush()
}
