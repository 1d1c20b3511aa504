// Package cli renders fibeval's terminal output: the progress spinner, the
// result views, the sequence and membership views, the REPL and the shell
// completion scripts.
package cli

import (
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/agbru/fibeval/internal/fibonacci"
	"github.com/agbru/fibeval/internal/ui"
	"github.com/briandowns/spinner"
)

const (
	// TruncationLimit is the digit count above which a value is shown
	// truncated unless -v is given.
	TruncationLimit = 100
	// DisplayEdges is the number of leading and trailing digits shown for a
	// truncated value.
	DisplayEdges = 25
	// ProgressRefreshRate is the refresh period of the spinner line.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth is the width of the progress bar in characters.
	ProgressBarWidth = 40
)

// FormatExecutionDuration formats d with a unit suited to its magnitude.
func FormatExecutionDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "< 1µs"
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return d.Round(time.Millisecond).String()
	}
}

// Spinner abstracts the terminal spinner so that DisplayProgress can be
// tested without a terminal.
type Spinner interface {
	Start()
	Stop()
	// UpdateSuffix sets the text displayed after the spinner.
	UpdateSuffix(suffix string)
}

type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() { rs.s.Start() }
func (rs *realSpinner) Stop()  { rs.s.Stop() }

func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// ProgressState aggregates the progress of concurrent evaluations.
type ProgressState struct {
	progresses []float64
}

// NewProgressState tracks numEvaluators evaluations.
func NewProgressState(numEvaluators int) *ProgressState {
	return &ProgressState{progresses: make([]float64, max(numEvaluators, 0))}
}

// Update records the progress of evaluation index. Out-of-range indices are
// ignored.
func (ps *ProgressState) Update(index int, value float64) {
	if index >= 0 && index < len(ps.progresses) {
		ps.progresses[index] = value
	}
}

// CalculateAverage returns the mean progress of all evaluations.
func (ps *ProgressState) CalculateAverage() float64 {
	if len(ps.progresses) == 0 {
		return 0
	}
	var total float64
	for _, p := range ps.progresses {
		total += p
	}
	return total / float64(len(ps.progresses))
}

func progressBar(progress float64, length int) string {
	progress = min(max(progress, 0), 1)
	count := int(progress * float64(length))
	var b strings.Builder
	b.Grow(length * 3)
	for i := 0; i < length; i++ {
		if i < count {
			b.WriteRune('█')
		} else {
			b.WriteRune('░')
		}
	}
	return b.String()
}

func progressLabel(numEvaluators int) string {
	if numEvaluators > 1 {
		return "Avg progress"
	}
	return "Progress"
}

// DisplayProgress renders a spinner with the average progress and an ETA
// until progressChan is closed, then prints a final 100% line. It is meant to
// run on its own goroutine and calls wg.Done on return.
//
// Parameters:
//   - wg: Signaled when the display has finished writing.
//   - progressChan: The progress updates of the running evaluations.
//   - numEvaluators: The number of evaluations contributing updates.
//   - out: The destination of the progress line.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan fibonacci.ProgressUpdate, numEvaluators int, out io.Writer) {
	defer wg.Done()
	if numEvaluators <= 0 {
		for range progressChan {
		}
		return
	}

	state := NewProgressWithETA(numEvaluators)
	label := progressLabel(numEvaluators)
	s := newSpinner(spinner.WithWriter(out))
	s.Start()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	for {
		select {
		case update, ok := <-progressChan:
			if !ok {
				s.Stop()
				fmt.Fprintf(out, "%s: %s\n", label, FormatProgressBarWithETA(1, 0, ProgressBarWidth))
				return
			}
			state.UpdateWithETA(update.EvaluatorIndex, update.Value)
		case <-ticker.C:
			s.UpdateSuffix(fmt.Sprintf(" %s: %s", label,
				FormatProgressBarWithETA(state.Average(), state.GetETA(), ProgressBarWidth)))
		}
	}
}

// ResultInfo describes one evaluation for display.
type ResultInfo struct {
	Algorithm string
	N         uint64
	Value     *big.Int
	// Elapsed is the core computation time reported by the evaluator.
	Elapsed time.Duration
	// Wall is the time including setup and display plumbing; 0 omits it.
	Wall time.Duration
	// Digits is the closed-form precision used, 0 for exact backends.
	Digits int
}

// DisplayOptions selects the sections printed by DisplayResult.
type DisplayOptions struct {
	Verbose bool // full value even when long
	Details bool // timing and size analysis
	Concise bool // the value section (-c)
}

// DisplayResult prints the size of the result, the detailed analysis when
// requested and the value itself when opts.Concise is set.
func DisplayResult(info ResultInfo, opts DisplayOptions, out io.Writer) {
	resultStr := info.Value.String()
	numDigits := len(resultStr)

	fmt.Fprintf(out, "Result binary size: %s%s%s bits.\n",
		ui.ColorCyan(), formatNumberString(strconv.Itoa(info.Value.BitLen())), ui.ColorReset())

	if opts.Details {
		fmt.Fprintf(out, "\n%s--- Detailed result analysis ---%s\n", ui.ColorBold(), ui.ColorReset())
		if info.Algorithm != "" {
			fmt.Fprintf(out, "Algorithm              : %s%s%s\n", ui.ColorMagenta(), info.Algorithm, ui.ColorReset())
		}
		fmt.Fprintf(out, "Calculation time       : %s%s%s\n", ui.ColorGreen(), FormatExecutionDuration(info.Elapsed), ui.ColorReset())
		if info.Wall > 0 {
			fmt.Fprintf(out, "Total time             : %s%s%s\n", ui.ColorGreen(), FormatExecutionDuration(info.Wall), ui.ColorReset())
		}
		fmt.Fprintf(out, "Number of digits       : %s%s%s\n", ui.ColorCyan(), formatNumberString(strconv.Itoa(numDigits)), ui.ColorReset())
		if numDigits > 6 {
			f := new(big.Float).SetInt(info.Value)
			fmt.Fprintf(out, "Scientific notation    : %s%.6e%s\n", ui.ColorCyan(), f, ui.ColorReset())
		}
		if info.Digits > 0 {
			need := fibonacci.MinimumDigits(info.N)
			color, note := ui.ColorGreen(), "exact"
			if info.Digits < need {
				color, note = ui.ColorYellow(), fmt.Sprintf("may be inexact, %d needed", need)
			}
			fmt.Fprintf(out, "Closed-form precision  : %s%d digits (%s)%s\n", color, info.Digits, note, ui.ColorReset())
		}
	}

	if !opts.Concise {
		return
	}

	fmt.Fprintf(out, "\n%s--- Calculated value ---%s\n", ui.ColorBold(), ui.ColorReset())
	switch {
	case opts.Verbose:
		fmt.Fprintf(out, "F(%s%d%s) =\n%s%s%s\n", ui.ColorMagenta(), info.N, ui.ColorReset(), ui.ColorGreen(), formatNumberString(resultStr), ui.ColorReset())
	case numDigits > TruncationLimit:
		fmt.Fprintf(out, "F(%s%d%s) (truncated) = %s%s...%s%s\n",
			ui.ColorMagenta(), info.N, ui.ColorReset(),
			ui.ColorGreen(), resultStr[:DisplayEdges], resultStr[numDigits-DisplayEdges:], ui.ColorReset())
		fmt.Fprintf(out, "(Tip: use the %s-v%s option to display the full value)\n", ui.ColorYellow(), ui.ColorReset())
	default:
		fmt.Fprintf(out, "F(%s%d%s) = %s%s%s\n", ui.ColorMagenta(), info.N, ui.ColorReset(), ui.ColorGreen(), formatNumberString(resultStr), ui.ColorReset())
	}
}

// formatNumberString inserts thousand separators into a decimal string.
func formatNumberString(s string) string {
	if s == "" {
		return ""
	}
	prefix := ""
	if s[0] == '-' {
		prefix, s = "-", s[1:]
	}
	n := len(s)
	if n <= 3 {
		return prefix + s
	}

	var b strings.Builder
	b.Grow(len(prefix) + n + (n-1)/3)
	b.WriteString(prefix)
	first := n % 3
	if first == 0 {
		first = 3
	}
	b.WriteString(s[:first])
	for i := first; i < n; i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
