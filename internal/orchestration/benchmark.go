package orchestration

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"text/tabwriter"
	"time"

	"github.com/agbru/fibeval/internal/cli"
	"github.com/agbru/fibeval/internal/config"
	"github.com/agbru/fibeval/internal/fibonacci"
	"github.com/agbru/fibeval/internal/ui"
)

// BenchmarkStats summarizes repeated runs of one evaluator.
type BenchmarkStats struct {
	Name string
	// Runs is the number of completed runs.
	Runs           int
	Mean, Min, Max time.Duration
	// Value is the result of the last run.
	Value  *big.Int
	Digits int
	// Err is the error that stopped the runs, if any.
	Err error
}

// Result returns the stats as an EvaluationResult timed by the mean.
func (s BenchmarkStats) Result() EvaluationResult {
	return EvaluationResult{Name: s.Name, Value: s.Value, Elapsed: s.Mean, Digits: s.Digits, Err: s.Err}
}

// BenchmarkEvaluations runs every evaluator cfg.Repeat times on cfg.N, one
// evaluator at a time, and reports the core time statistics. Each run of the
// memo backend gets a fresh table of cfg.MemoLimit terms so that cached terms
// from a previous run do not skew the timings.
func BenchmarkEvaluations(ctx context.Context, evaluators []fibonacci.Evaluator, cfg config.AppConfig) []BenchmarkStats {
	repeat := max(cfg.Repeat, 1)
	stats := make([]BenchmarkStats, 0, len(evaluators))
	for _, ev := range evaluators {
		s := BenchmarkStats{Name: ev.Name(), Digits: closedFormDigits(ev.Name(), cfg)}
		var total time.Duration
		for run := 0; run < repeat; run++ {
			opts := cfg.ToOptions()
			if cfg.MemoLimit > 0 {
				opts.Memo = fibonacci.NewMemoTable(cfg.MemoLimit)
			}
			res, err := ev.Evaluate(ctx, nil, 0, cfg.N, opts)
			if err != nil {
				s.Err = err
				break
			}
			s.Runs++
			s.Value = res.Value
			total += res.Elapsed
			if s.Runs == 1 || res.Elapsed < s.Min {
				s.Min = res.Elapsed
			}
			s.Max = max(s.Max, res.Elapsed)
		}
		if s.Runs > 0 {
			s.Mean = total / time.Duration(s.Runs)
		}
		stats = append(stats, s)
	}
	return stats
}

// DisplayBenchmark prints the timing table of stats.
func DisplayBenchmark(out io.Writer, stats []BenchmarkStats, n uint64, repeat int) {
	fmt.Fprintf(out, "\n--- Benchmark of F(%d) over %d run(s) ---\n", n, max(repeat, 1))
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "%sAlgorithm%s\t%sRuns%s\t%sMean%s\t%sMin%s\t%sMax%s\n",
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(),
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(),
		ui.ColorUnderline(), ui.ColorReset())
	for _, s := range stats {
		if s.Err != nil && s.Runs == 0 {
			fmt.Fprintf(tw, "%s%s%s\t0\t-\t-\t-\t%s❌ %v%s\n",
				ui.ColorBlue(), s.Name, ui.ColorReset(), ui.ColorRed(), s.Err, ui.ColorReset())
			continue
		}
		fmt.Fprintf(tw, "%s%s%s\t%d\t%s%s%s\t%s\t%s\n",
			ui.ColorBlue(), s.Name, ui.ColorReset(), s.Runs,
			ui.ColorYellow(), cli.FormatExecutionDuration(s.Mean), ui.ColorReset(),
			cli.FormatExecutionDuration(s.Min), cli.FormatExecutionDuration(s.Max))
	}
	_ = tw.Flush()
}
