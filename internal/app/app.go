package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/agbru/fibeval/internal/calibration"
	"github.com/agbru/fibeval/internal/cli"
	"github.com/agbru/fibeval/internal/config"
	apperrors "github.com/agbru/fibeval/internal/errors"
	"github.com/agbru/fibeval/internal/fibonacci"
	"github.com/agbru/fibeval/internal/logging"
	"github.com/agbru/fibeval/internal/orchestration"
	"github.com/agbru/fibeval/internal/service"
	"github.com/agbru/fibeval/internal/ui"
)

// metricPrefix selects the families printed by -metrics.
const metricPrefix = "fibeval_"

// Application is one fibeval invocation: its parsed configuration and the
// evaluators it may run.
type Application struct {
	// Config holds the parsed application configuration.
	Config config.AppConfig
	// Factory provides the evaluator implementations.
	Factory fibonacci.EvaluatorFactory
	// ErrWriter receives diagnostics and logs (typically os.Stderr).
	ErrWriter io.Writer
	// Gatherer is the metrics source of -metrics. Nil means the default
	// Prometheus registry.
	Gatherer prometheus.Gatherer

	service *service.EvaluatorService
}

// New creates an Application by parsing command-line arguments.
//
// Parameters:
//   - args: The command-line arguments, program name first (os.Args).
//   - errWriter: The writer for usage and error output.
//
// Returns:
//   - *Application: A new application instance.
//   - error: flag.ErrHelp for -h, or the configuration error.
func New(args []string, errWriter io.Writer) (*Application, error) {
	return NewWithFactory(args, errWriter, fibonacci.GlobalFactory())
}

// NewWithFactory is New with an explicit evaluator factory.
func NewWithFactory(args []string, errWriter io.Writer, factory fibonacci.EvaluatorFactory) (*Application, error) {
	programName := "fibeval"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter, factory.List())
	if err != nil {
		return nil, err
	}

	return &Application{
		Config:    cfg,
		Factory:   factory,
		ErrWriter: errWriter,
		service:   service.NewEvaluatorService(factory, cfg, cfg.MaxN),
	}, nil
}

// Run executes the mode selected by the configuration.
//
// Parameters:
//   - ctx: The parent context; the evaluation deadline is applied here.
//   - out: The writer for standard output.
//
// Returns:
//   - int: The process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	ui.InitTheme(a.Config.NoColor)
	if a.service == nil {
		a.service = service.NewEvaluatorService(a.Factory, a.Config, a.Config.MaxN)
	}

	code := a.dispatch(ctx, out)

	if a.Config.Metrics {
		if err := a.dumpMetrics(out); err != nil {
			fmt.Fprintf(a.ErrWriter, "Error writing metrics: %v\n", err)
		}
	}
	return code
}

func (a *Application) dispatch(ctx context.Context, out io.Writer) int {
	if a.Config.Interactive {
		return a.runREPL()
	}

	ctx, cleanup := SetupLifecycle(ctx, a.Config.Timeout)
	defer cleanup()

	switch {
	case a.Config.Calibrate:
		return calibration.RunCalibration(ctx, out, calibration.DefaultIndices, a.Config.Timeout)
	case a.Config.IsFib != "":
		return a.runMembership(out)
	}

	if err := a.service.CheckIndex(a.Config.N); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitCodeFor(err)
	}

	switch {
	case a.Config.List:
		return a.runList(ctx, out)
	case a.Config.Repeat > 1:
		return a.runBenchmark(ctx, out)
	default:
		return a.runCalculate(ctx, out)
	}
}

func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion, a.Factory.List()); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

func (a *Application) runREPL() int {
	repl := cli.NewREPL(a.Factory, cli.REPLConfig{
		DefaultAlgo: a.Config.Algo,
		Timeout:     a.Config.Timeout,
		Options:     a.Config.ToOptions(),
		HexOutput:   a.Config.HexOutput,
		MemoLimit:   a.Config.MemoLimit,
	})
	repl.Start()
	return apperrors.ExitSuccess
}

func (a *Application) runMembership(out io.Writer) int {
	candidate, err := config.ParseCandidate(a.Config.IsFib)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitCodeFor(err)
	}
	rec := a.service.IsFibonacci(candidate)
	if a.Config.JSONOutput {
		return writeJSON(out, rec)
	}
	cli.DisplayMembership(out, rec, a.Config.Quiet)
	return apperrors.ExitSuccess
}

func (a *Application) runList(ctx context.Context, out io.Writer) int {
	if err := cli.DisplaySequence(ctx, out, a.Config.N, a.Config.HexOutput); err != nil {
		return apperrors.HandleCalculationError(err, 0, a.ErrWriter, ui.Provider{})
	}
	return apperrors.ExitSuccess
}

func (a *Application) runBenchmark(ctx context.Context, out io.Writer) int {
	evaluators := cli.EvaluatorsToRun(a.Config, a.Factory)
	if a.showBanner() {
		cli.PrintExecutionConfig(a.Config, out)
		cli.PrintExecutionMode(evaluators, out)
	}

	stats := orchestration.BenchmarkEvaluations(ctx, evaluators, a.Config)
	results := make([]orchestration.EvaluationResult, len(stats))
	for i, s := range stats {
		results[i] = s.Result()
	}
	_, consensusErr := orchestration.Consensus(results)

	if a.Config.JSONOutput {
		if code := writeJSON(out, orchestration.ToRecords(results, a.Config.N, a.Config.HexOutput)); code != apperrors.ExitSuccess {
			return code
		}
		return apperrors.ExitCodeFor(consensusErr)
	}
	orchestration.DisplayBenchmark(out, stats, a.Config.N, a.Config.Repeat)
	if consensusErr != nil {
		return apperrors.HandleCalculationError(consensusErr, 0, out, ui.Provider{})
	}
	return apperrors.ExitSuccess
}

func (a *Application) runCalculate(ctx context.Context, out io.Writer) int {
	evaluators := cli.EvaluatorsToRun(a.Config, a.Factory)
	if a.showBanner() {
		cli.PrintExecutionConfig(a.Config, out)
		cli.PrintExecutionMode(evaluators, out)
	}

	progressOut := out
	if !a.showBanner() {
		progressOut = io.Discard
	}

	var memo *fibonacci.MemoTable
	if a.Config.MemoLimit > 0 {
		memo = fibonacci.NewMemoTable(a.Config.MemoLimit)
	}
	results := orchestration.ExecuteEvaluations(ctx, evaluators, a.Config, memo, progressOut)

	switch {
	case a.Config.JSONOutput:
		return a.printJSONResults(results, out)
	case a.Config.Quiet:
		return a.printQuietResult(results, out)
	default:
		return orchestration.AnalyzeComparisonResults(results, a.Config, out)
	}
}

func (a *Application) showBanner() bool {
	return !a.Config.JSONOutput && !a.Config.Quiet
}

// printQuietResult prints the agreed value alone. Failures go to ErrWriter
// so that standard output only ever carries a value.
func (a *Application) printQuietResult(results []orchestration.EvaluationResult, out io.Writer) int {
	best, err := orchestration.Consensus(results)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
		return apperrors.ExitCodeFor(err)
	}
	info := orchestration.ToResultInfo(best, a.Config.N)
	if err := cli.DisplayResultWithConfig(out, info, orchestration.OutputConfig(a.Config)); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error saving result: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// printJSONResults writes one record per backend. The exit code still
// reflects failures and disagreements.
func (a *Application) printJSONResults(results []orchestration.EvaluationResult, out io.Writer) int {
	if code := writeJSON(out, orchestration.ToRecords(results, a.Config.N, a.Config.HexOutput)); code != apperrors.ExitSuccess {
		return code
	}
	_, err := orchestration.Consensus(results)
	return apperrors.ExitCodeFor(err)
}

func writeJSON(out io.Writer, v any) int {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// dumpMetrics writes the fibeval_* families in the Prometheus text format.
func (a *Application) dumpMetrics(out io.Writer) error {
	gatherer := a.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	families, err := gatherer.Gather()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n--- Metrics ---\n")
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), metricPrefix) {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
			return err
		}
	}
	return nil
}

// IsHelpError reports whether err comes from -h or --help.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

// Main runs fibeval with os.Args and returns the exit code. It installs the
// process-wide logger, which Run leaves untouched.
func Main(ctx context.Context) int {
	if args := os.Args[1:]; HasVersionFlag(args) {
		PrintVersion(os.Stdout, slices.Contains(args, "-json") || slices.Contains(args, "--json"))
		return apperrors.ExitSuccess
	}
	application, err := New(os.Args, os.Stderr)
	if err != nil {
		if IsHelpError(err) {
			return apperrors.ExitSuccess
		}
		return apperrors.ExitCodeFor(err)
	}
	if err := logging.Configure(application.Config.LogLevel, os.Stderr, application.Config.NoColor); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return application.Run(ctx, os.Stdout)
}
