package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/agbru/fibeval/internal/config"
	"github.com/agbru/fibeval/internal/fibonacci"
	"github.com/agbru/fibeval/internal/ui"
	"golang.org/x/sys/cpu"
)

// EvaluatorsToRun returns the evaluators selected by cfg.Algo, in the
// factory's sorted order for "all". An unknown name yields nil.
func EvaluatorsToRun(cfg config.AppConfig, factory fibonacci.EvaluatorFactory) []fibonacci.Evaluator {
	if cfg.Algo == "all" {
		names := factory.List()
		evaluators := make([]fibonacci.Evaluator, 0, len(names))
		for _, name := range names {
			if ev, err := factory.Get(name); err == nil {
				evaluators = append(evaluators, ev)
			}
		}
		return evaluators
	}
	if ev, err := factory.Get(cfg.Algo); err == nil {
		return []fibonacci.Evaluator{ev}
	}
	return nil
}

// cpuFeatures lists the x86 extensions that speed up big integer
// multiplication on this machine.
func cpuFeatures() string {
	var features []string
	if cpu.X86.HasADX {
		features = append(features, "ADX")
	}
	if cpu.X86.HasBMI2 {
		features = append(features, "BMI2")
	}
	if cpu.X86.HasAVX2 {
		features = append(features, "AVX2")
	}
	if len(features) == 0 {
		return "none detected"
	}
	return strings.Join(features, ", ")
}

func precisionDescription(cfg config.AppConfig) string {
	if cfg.Digits > 0 {
		return fmt.Sprintf("%d digits", cfg.Digits)
	}
	return fmt.Sprintf("automatic (%d digits)", fibonacci.MinimumDigits(cfg.N))
}

// PrintExecutionConfig prints the target index, the environment and the
// tuning settings of the run.
func PrintExecutionConfig(cfg config.AppConfig, out io.Writer) {
	writeOut(out, "--- Execution Configuration ---\n")
	writeOut(out, "Evaluating %sF(%d)%s with a timeout of %s%s%s.\n",
		ui.ColorMagenta(), cfg.N, ui.ColorReset(), ui.ColorYellow(), cfg.Timeout, ui.ColorReset())
	writeOut(out, "Environment: %s%d%s logical processors, Go %s%s%s, CPU features: %s%s%s.\n",
		ui.ColorCyan(), runtime.NumCPU(), ui.ColorReset(),
		ui.ColorCyan(), runtime.Version(), ui.ColorReset(),
		ui.ColorCyan(), cpuFeatures(), ui.ColorReset())
	writeOut(out, "Matrix thresholds: Parallelism=%s%d%s bits, Strassen=%s%d%s bits.\n",
		ui.ColorCyan(), cfg.Threshold, ui.ColorReset(), ui.ColorCyan(), cfg.StrassenThreshold, ui.ColorReset())
	memo := "disabled"
	if cfg.MemoLimit > 0 {
		memo = fmt.Sprintf("up to F(%d)", cfg.MemoLimit)
	}
	writeOut(out, "Closed-form precision: %s%s%s. Memo table: %s%s%s.\n",
		ui.ColorCyan(), precisionDescription(cfg), ui.ColorReset(), ui.ColorCyan(), memo, ui.ColorReset())
}

// PrintExecutionMode announces a single evaluation or a comparison run.
// evaluators must not be empty.
func PrintExecutionMode(evaluators []fibonacci.Evaluator, out io.Writer) {
	var mode string
	if len(evaluators) > 1 {
		mode = "Parallel comparison of all algorithms"
	} else {
		mode = fmt.Sprintf("Single evaluation with the %s%s%s algorithm",
			ui.ColorGreen(), evaluators[0].Name(), ui.ColorReset())
	}
	writeOut(out, "Execution mode: %s.\n", mode)
	writeOut(out, "\n--- Starting Execution ---\n")
}

func writeOut(out io.Writer, format string, a ...any) {
	fmt.Fprintf(out, format, a...)
}
