// Package config parses the fibeval command line. Every flag can also be set
// through a FIBEVAL_<NAME> environment variable; explicit flags take
// precedence over the environment, which takes precedence over defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"math/big"
	"slices"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/agbru/fibeval/internal/errors"
	"github.com/agbru/fibeval/internal/fibonacci"
	"github.com/agbru/fibeval/internal/logging"
)

// EnvPrefix is the prefix of all environment variables read by fibeval.
const EnvPrefix = "FIBEVAL_"

// Default configuration values.
const (
	DefaultN                 uint64 = 1000
	DefaultTimeout                  = time.Minute
	DefaultAlgo                     = "all"
	DefaultDigits                   = 0 // analytic automatic precision
	DefaultThreshold                = fibonacci.DefaultParallelThreshold
	DefaultStrassenThreshold        = fibonacci.DefaultStrassenThreshold
	DefaultMemoLimit         uint64 = fibonacci.DefaultMemoLimit
	DefaultRepeat                   = 1
	DefaultLogLevel                 = "warn"
)

// AppConfig holds the parsed configuration of one invocation.
type AppConfig struct {
	// N is the Fibonacci index. A negative value on the command line is
	// replaced by its absolute value.
	N uint64
	// Algo is "all" or a registered evaluator name.
	Algo string
	// Digits is the closed-form precision in significant decimal digits; 0
	// derives it from n.
	Digits  int
	Timeout time.Duration
	// Threshold is the operand size, in bits, above which matrix products
	// run in parallel.
	Threshold         int
	StrassenThreshold int
	// MemoLimit caps the memo table; 0 disables the cross-call table.
	MemoLimit uint64
	// MaxN rejects larger indices with a resource error; 0 means unlimited.
	MaxN uint64

	// List prints F(0)..F(n) instead of a single term.
	List bool
	// IsFib, when set, is the decimal candidate of a membership test.
	IsFib string
	// Repeat runs every backend this many times and reports averages.
	Repeat    int
	Calibrate bool

	Verbose     bool
	Details     bool
	Concise     bool // -c: show the value section
	JSONOutput  bool
	Quiet       bool
	HexOutput   bool
	OutputFile  string
	NoColor     bool
	Interactive bool
	Completion  string
	Metrics     bool
	LogLevel    string
}

// ToOptions converts the configuration into evaluator options. The memo
// table is created by the caller, since its lifetime is the caller's.
func (c AppConfig) ToOptions() fibonacci.Options {
	return fibonacci.Options{
		ParallelThreshold: c.Threshold,
		StrassenThreshold: c.StrassenThreshold,
		Digits:            c.Digits,
	}
}

// Validate checks value ranges and that Algo names a known evaluator.
//
// Parameters:
//   - availableAlgos: The registered evaluator names.
//
// Returns:
//   - error: A ConfigError or ValidationError, nil if the configuration is
//     usable.
func (c AppConfig) Validate(availableAlgos []string) error {
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if c.Threshold < 0 {
		return apperrors.NewConfigError("parallelism threshold cannot be negative: %d", c.Threshold)
	}
	if c.StrassenThreshold < 0 {
		return apperrors.NewConfigError("Strassen threshold cannot be negative: %d", c.StrassenThreshold)
	}
	if c.Digits < 0 {
		return apperrors.NewValidationError("digits", "must be positive, or 0 for automatic precision", c.Digits)
	}
	if c.Repeat < 1 {
		return apperrors.NewConfigError("repeat count must be at least 1: %d", c.Repeat)
	}
	if c.Algo != "all" && !slices.Contains(availableAlgos, c.Algo) {
		return apperrors.NewConfigError("unrecognized algorithm: '%s'. Valid algorithms are: 'all' or [%s]", c.Algo, strings.Join(availableAlgos, ", "))
	}
	if c.IsFib != "" {
		if _, err := ParseCandidate(c.IsFib); err != nil {
			return err
		}
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return apperrors.NewConfigError("%v", err)
	}
	return nil
}

// ParseIndex parses a Fibonacci index. Negative values are replaced by their
// absolute value; math.MinInt64 has none in int64 and is rejected. Values up
// to math.MaxUint64 are accepted.
func ParseIndex(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return u, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError("n", "not an integer index", s)
	}
	if v == math.MinInt64 {
		return 0, apperrors.NewConfigError("index %d has no representable absolute value", v)
	}
	if v < 0 {
		v = -v
	}
	return uint64(v), nil
}

// ParseCandidate parses the decimal candidate of a membership test.
func ParseCandidate(s string) (*big.Int, error) {
	c, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, apperrors.NewValidationError("is-fib", "not a decimal integer", s)
	}
	return c, nil
}

// indexValue is a flag.Value applying ParseIndex.
type indexValue struct{ n *uint64 }

func (v indexValue) String() string {
	if v.n == nil {
		return ""
	}
	return strconv.FormatUint(*v.n, 10)
}

func (v indexValue) Set(s string) error {
	n, err := ParseIndex(s)
	if err != nil {
		return err
	}
	*v.n = n
	return nil
}

// ParseConfig parses args into an AppConfig, applies the environment and
// validates the result.
//
// Parameters:
//   - programName: The name shown in the usage message.
//   - args: The command-line arguments, without the program name.
//   - errorWriter: Destination of parse errors and usage.
//   - availableAlgos: The registered evaluator names.
//
// Returns:
//   - AppConfig: The populated configuration.
//   - error: flag.ErrHelp for -h, otherwise a ConfigError or ValidationError.
func ParseConfig(programName string, args []string, errorWriter io.Writer, availableAlgos []string) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)
	algoHelp := fmt.Sprintf("Algorithm to use: 'all' (default) or one of [%s].", strings.Join(availableAlgos, ", "))

	config := AppConfig{N: DefaultN}
	fs.Var(indexValue{&config.N}, "n", "Index n of the Fibonacci number (negative values use |n|).")
	fs.StringVar(&config.Algo, "algo", DefaultAlgo, algoHelp)
	fs.IntVar(&config.Digits, "digits", DefaultDigits, "Significant decimal digits of the closed form (0 = derived from n).")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum execution time.")
	fs.IntVar(&config.Threshold, "threshold", DefaultThreshold, "Operand size in bits above which matrix products run in parallel.")
	fs.IntVar(&config.StrassenThreshold, "strassen-threshold", DefaultStrassenThreshold, "Operand size in bits above which matrix products use Strassen-Winograd.")
	fs.Uint64Var(&config.MemoLimit, "memo-limit", DefaultMemoLimit, "Largest index kept by the memo table (0 = no cross-call table).")
	fs.Uint64Var(&config.MaxN, "max-n", 0, "Reject indices above this value (0 = unlimited).")
	fs.BoolVar(&config.List, "list", false, "Print the sequence F(0)..F(n) instead of a single term.")
	fs.StringVar(&config.IsFib, "is-fib", "", "Test whether the given integer is a Fibonacci number.")
	fs.IntVar(&config.Repeat, "repeat", DefaultRepeat, "Run each algorithm k times and report the average.")
	fs.BoolVar(&config.Calibrate, "calibrate", false, "Print the closed-form precision calibration table.")
	fs.BoolVar(&config.JSONOutput, "json", false, "Output results in JSON format.")
	fs.BoolVar(&config.Verbose, "v", false, "Display the full value of the result.")
	fs.BoolVar(&config.Details, "d", false, "Display performance details and result metadata.")
	fs.BoolVar(&config.Details, "details", false, "Alias for -d.")
	fs.BoolVar(&config.Concise, "calculate", false, "Display the calculated value.")
	fs.BoolVar(&config.Concise, "c", false, "Display the calculated value (shorthand).")
	fs.StringVar(&config.OutputFile, "output", "", "Output file path for the result.")
	fs.StringVar(&config.OutputFile, "o", "", "Output file path (shorthand).")
	fs.BoolVar(&config.Quiet, "quiet", false, "Quiet mode: print only the result.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&config.HexOutput, "hex", false, "Display results in hexadecimal.")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR).")
	fs.BoolVar(&config.Interactive, "interactive", false, "Start the interactive REPL.")
	fs.StringVar(&config.Completion, "completion", "", "Print a shell completion script (bash, zsh, fish, powershell).")
	fs.BoolVar(&config.Metrics, "metrics", false, "Print the fibeval_* Prometheus metrics on exit.")
	fs.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "Log level: trace, debug, info, warn, error or disabled.")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return AppConfig{}, err
		}
		return AppConfig{}, apperrors.NewConfigError("%v", err)
	}

	if err := applyEnvOverrides(&config, fs); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		return AppConfig{}, err
	}

	config.Algo = strings.ToLower(config.Algo)
	if err := config.Validate(availableAlgos); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, err
	}
	return config, nil
}
