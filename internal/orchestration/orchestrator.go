// Package orchestration runs one or more evaluators on the same index,
// concurrently, and reconciles their results.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/agbru/fibeval/internal/cli"
	"github.com/agbru/fibeval/internal/config"
	apperrors "github.com/agbru/fibeval/internal/errors"
	"github.com/agbru/fibeval/internal/fibonacci"
	"github.com/agbru/fibeval/internal/ui"
)

// EvaluationResult is the outcome of one evaluator run.
type EvaluationResult struct {
	// Name is the registry name of the evaluator.
	Name string
	// Value is F(n), nil on error.
	Value *big.Int
	// Elapsed is the core computation time reported by the evaluator.
	Elapsed time.Duration
	// Wall includes setup and progress plumbing.
	Wall time.Duration
	// Digits is the closed-form precision in use, 0 for exact backends.
	Digits int
	Err    error
}

// ProgressBufferMultiplier sizes the progress channel per evaluator so that
// a slow display does not drop many updates.
const ProgressBufferMultiplier = 5

// progressLogThreshold is the progress step between two debug log lines.
const progressLogThreshold = 0.25

// observableEvaluator is implemented by evaluators that accept a progress
// subject, letting the orchestrator attach metrics and logging observers.
type observableEvaluator interface {
	EvaluateWithObservers(ctx context.Context, subject *fibonacci.ProgressSubject, index int, n uint64, opts fibonacci.Options) (*fibonacci.Evaluation, error)
}

// closedFormDigits returns the precision the closed form runs at for cfg.
func closedFormDigits(name string, cfg config.AppConfig) int {
	if name != "binet" {
		return 0
	}
	if cfg.Digits > 0 {
		return cfg.Digits
	}
	return fibonacci.MinimumDigits(cfg.N)
}

// ExecuteEvaluations runs every evaluator on cfg.N concurrently and returns
// their results in input order. Progress is rendered to out; pass io.Discard
// to hide it. memo is shared by the memo backend and may be nil.
//
// A failing evaluator does not cancel the others: each failure is recorded in
// its own result.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - evaluators: The evaluators to run.
//   - cfg: The application configuration (N, thresholds, digits).
//   - memo: The memo table for the recurrence backend, or nil.
//   - out: The destination of the progress display.
//
// Returns:
//   - []EvaluationResult: One result per evaluator.
func ExecuteEvaluations(ctx context.Context, evaluators []fibonacci.Evaluator, cfg config.AppConfig, memo *fibonacci.MemoTable, out io.Writer) []EvaluationResult {
	g, ctx := errgroup.WithContext(ctx)
	results := make([]EvaluationResult, len(evaluators))
	progressChan := make(chan fibonacci.ProgressUpdate, len(evaluators)*ProgressBufferMultiplier)

	subject := fibonacci.NewProgressSubject(
		fibonacci.NewChannelObserver(progressChan),
		fibonacci.NewMetricsObserver(),
		fibonacci.NewLoggingObserver(log.With().Str("component", "orchestration").Logger(), progressLogThreshold),
	)

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go cli.DisplayProgress(&displayWg, progressChan, len(evaluators), out)

	opts := cfg.ToOptions()
	opts.Memo = memo
	for i, ev := range evaluators {
		idx, evaluator := i, ev
		g.Go(func() error {
			start := time.Now()
			var (
				res *fibonacci.Evaluation
				err error
			)
			if oe, ok := evaluator.(observableEvaluator); ok {
				res, err = oe.EvaluateWithObservers(ctx, subject, idx, cfg.N, opts)
			} else {
				res, err = evaluator.Evaluate(ctx, progressChan, idx, cfg.N, opts)
			}
			r := EvaluationResult{
				Name:   evaluator.Name(),
				Wall:   time.Since(start),
				Digits: closedFormDigits(evaluator.Name(), cfg),
				Err:    err,
			}
			if err == nil && res != nil {
				r.Value, r.Elapsed = res.Value, res.Elapsed
			} else if err == nil {
				r.Err = fmt.Errorf("%s returned no result", evaluator.Name())
			}
			results[idx] = r
			return nil
		})
	}

	_ = g.Wait()
	close(progressChan)
	displayWg.Wait()

	return results
}

// sortResults orders successes before failures, then by core time.
func sortResults(results []EvaluationResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if (results[i].Err == nil) != (results[j].Err == nil) {
			return results[i].Err == nil
		}
		return results[i].Elapsed < results[j].Elapsed
	})
}

// Consensus returns the fastest successful result once every successful
// result holds the same value. It returns the first error when nothing
// succeeded, and an error wrapping apperrors.ErrMismatch when two values
// differ.
func Consensus(results []EvaluationResult) (EvaluationResult, error) {
	sorted := append([]EvaluationResult(nil), results...)
	sortResults(sorted)

	if len(sorted) == 0 {
		return EvaluationResult{}, errors.New("no evaluator was run")
	}
	best := sorted[0]
	if best.Err != nil {
		return EvaluationResult{}, best.Err
	}
	for _, r := range sorted[1:] {
		if r.Err == nil && r.Value.Cmp(best.Value) != 0 {
			return EvaluationResult{}, fmt.Errorf("%s and %s disagree: %w", best.Name, r.Name, apperrors.ErrMismatch)
		}
	}
	return best, nil
}

// AnalyzeComparisonResults prints a summary table of results, checks that
// every successful backend agrees, and displays the agreed value according
// to cfg.
//
// Parameters:
//   - results: The results to analyze. They are sorted in place.
//   - cfg: The application configuration.
//   - out: The destination of the report.
//
// Returns:
//   - int: ExitSuccess, ExitErrorMismatch, or the exit code of the first
//     failure when no backend succeeded.
func AnalyzeComparisonResults(results []EvaluationResult, cfg config.AppConfig, out io.Writer) int {
	sortResults(results)

	fmt.Fprintf(out, "\n--- Comparison Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "%sAlgorithm%s\t%sDuration%s\t%sStatus%s\n",
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset())
	for _, res := range results {
		status := fmt.Sprintf("%s✅ Success%s", ui.ColorGreen(), ui.ColorReset())
		if res.Err != nil {
			status = fmt.Sprintf("%s❌ Failure (%v)%s", ui.ColorRed(), res.Err, ui.ColorReset())
		}
		fmt.Fprintf(tw, "%s%s%s\t%s%s%s\t%s\n",
			ui.ColorBlue(), res.Name, ui.ColorReset(),
			ui.ColorYellow(), cli.FormatExecutionDuration(res.Elapsed), ui.ColorReset(),
			status)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}

	best, err := Consensus(results)
	switch {
	case errors.Is(err, apperrors.ErrMismatch):
		fmt.Fprintf(out, "\nGlobal Status: CRITICAL ERROR! An inconsistency was detected between the results of the algorithms.\n")
		log.Error().Err(err).Uint64("n", cfg.N).Msg("backends disagree")
		return apperrors.ExitErrorMismatch
	case err != nil:
		fmt.Fprintf(out, "\nGlobal Status: Failure. No algorithm could complete the evaluation.\n")
		return apperrors.HandleCalculationError(err, 0, out, ui.Provider{})
	}

	if len(results) > 1 {
		fmt.Fprintf(out, "\nGlobal Status: Success. All valid results are consistent.\n")
	}
	info := ToResultInfo(best, cfg.N)
	if err := cli.DisplayResultWithConfig(out, info, OutputConfig(cfg)); err != nil {
		fmt.Fprintf(out, "%sError writing the result: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// ToResultInfo converts a result for display.
func ToResultInfo(r EvaluationResult, n uint64) cli.ResultInfo {
	return cli.ResultInfo{
		Algorithm: r.Name,
		N:         n,
		Value:     r.Value,
		Elapsed:   r.Elapsed,
		Wall:      r.Wall,
		Digits:    r.Digits,
	}
}

// OutputConfig extracts the output options of cfg.
func OutputConfig(cfg config.AppConfig) cli.OutputConfig {
	return cli.OutputConfig{
		OutputFile: cfg.OutputFile,
		HexOutput:  cfg.HexOutput,
		Quiet:      cfg.Quiet,
		Verbose:    cfg.Verbose,
		Details:    cfg.Details,
		Concise:    cfg.Concise,
	}
}
