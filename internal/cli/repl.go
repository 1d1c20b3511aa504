package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/agbru/fibeval/internal/config"
	"github.com/agbru/fibeval/internal/fibonacci"
	"github.com/agbru/fibeval/internal/service"
	"github.com/agbru/fibeval/internal/ui"
)

// REPLConfig holds the settings of an interactive session.
type REPLConfig struct {
	// DefaultAlgo is the starting backend; "" or "all" selects matrix.
	DefaultAlgo string
	// Timeout bounds each command.
	Timeout time.Duration
	// Options carries the thresholds and closed-form digits. Its Memo field
	// is ignored; the session owns its table.
	Options   fibonacci.Options
	HexOutput bool
	// MemoLimit caps the session memo table; 0 disables it.
	MemoLimit uint64
}

// REPL is an interactive evaluation session. One memo table lives for the
// whole session so that memo evaluations reuse earlier terms.
type REPL struct {
	config      REPLConfig
	factory     fibonacci.EvaluatorFactory
	currentAlgo string
	memo        *fibonacci.MemoTable
	in          io.Reader
	out         io.Writer
}

// NewREPL creates a session over the evaluators of factory.
func NewREPL(factory fibonacci.EvaluatorFactory, cfg REPLConfig) *REPL {
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultTimeout
	}
	current := strings.ToLower(cfg.DefaultAlgo)
	if _, err := factory.Get(current); err != nil {
		current = ""
		if _, err := factory.Get("matrix"); err == nil {
			current = "matrix"
		} else if names := factory.List(); len(names) > 0 {
			current = names[0]
		}
	}

	r := &REPL{
		config:      cfg,
		factory:     factory,
		currentAlgo: current,
		in:          os.Stdin,
		out:         os.Stdout,
	}
	if cfg.MemoLimit > 0 {
		r.memo = fibonacci.NewMemoTable(cfg.MemoLimit)
	}
	return r
}

// SetInput replaces the input reader.
func (r *REPL) SetInput(in io.Reader) {
	r.in = in
}

// SetOutput replaces the output writer.
func (r *REPL) SetOutput(out io.Writer) {
	r.out = out
}

// Start reads commands until exit or end of input.
func (r *REPL) Start() {
	r.printBanner()
	r.printHelp()
	fmt.Fprintln(r.out)

	reader := bufio.NewReader(r.in)
	for {
		fmt.Fprint(r.out, ui.ColorGreen()+"fib> "+ui.ColorReset())

		input, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			fmt.Fprintf(r.out, "%sRead error: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
			return
		}
		if line := strings.TrimSpace(input); line != "" {
			if !r.processCommand(line) {
				return
			}
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(r.out, "\nGoodbye!")
			return
		}
	}
}

func (r *REPL) printBanner() {
	fmt.Fprintf(r.out, "\n%s╔══════════════════════════════════════════════════════════╗%s\n", ui.ColorCyan(), ui.ColorReset())
	fmt.Fprintf(r.out, "%s║%s     %s🔢 Fibonacci Evaluator - Interactive Mode%s             %s║%s\n",
		ui.ColorCyan(), ui.ColorReset(), ui.ColorBold(), ui.ColorReset(), ui.ColorCyan(), ui.ColorReset())
	fmt.Fprintf(r.out, "%s╚══════════════════════════════════════════════════════════╝%s\n\n", ui.ColorCyan(), ui.ColorReset())
}

func (r *REPL) printHelp() {
	y, rs := ui.ColorYellow(), ui.ColorReset()
	fmt.Fprintf(r.out, "%sAvailable commands:%s\n", ui.ColorBold(), rs)
	fmt.Fprintf(r.out, "  %scalc <n>%s      - Evaluate F(n) with the current algorithm (or just <n>)\n", y, rs)
	fmt.Fprintf(r.out, "  %salgo <name>%s   - Change algorithm (%s)\n", y, rs, strings.Join(r.factory.List(), ", "))
	fmt.Fprintf(r.out, "  %sdigits <d>%s    - Closed-form precision in digits (0 = automatic)\n", y, rs)
	fmt.Fprintf(r.out, "  %scompare <n>%s   - Evaluate F(n) with every algorithm and check agreement\n", y, rs)
	fmt.Fprintf(r.out, "  %sisfib <c>%s     - Test whether c is a Fibonacci number\n", y, rs)
	fmt.Fprintf(r.out, "  %slist <n>%s      - Print F(0) through F(n)\n", y, rs)
	fmt.Fprintf(r.out, "  %salgos%s         - List available algorithms\n", y, rs)
	fmt.Fprintf(r.out, "  %shex%s           - Toggle hexadecimal display\n", y, rs)
	fmt.Fprintf(r.out, "  %sstatus%s        - Display the session configuration\n", y, rs)
	fmt.Fprintf(r.out, "  %shelp%s          - Display this help\n", y, rs)
	fmt.Fprintf(r.out, "  %sexit%s / %squit%s   - Leave interactive mode\n", y, rs, y, rs)
}

// processCommand runs one command line. It returns false on exit.
func (r *REPL) processCommand(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "calc", "c":
		if n, ok := r.indexArg("calc", args); ok {
			r.calculate(n)
		}
	case "algo", "a":
		r.cmdAlgo(args)
	case "digits", "d":
		r.cmdDigits(args)
	case "compare", "cmp":
		if n, ok := r.indexArg("compare", args); ok {
			r.compare(n)
		}
	case "isfib", "fib":
		r.cmdIsFib(args)
	case "list", "ls":
		if n, ok := r.indexArg("list", args); ok {
			r.list(n)
		}
	case "algos":
		r.cmdAlgos()
	case "hex":
		r.cmdHex()
	case "status", "st":
		r.cmdStatus()
	case "help", "h", "?":
		r.printHelp()
	case "exit", "quit", "q":
		fmt.Fprintf(r.out, "%sGoodbye!%s\n", ui.ColorGreen(), ui.ColorReset())
		return false
	default:
		if n, err := config.ParseIndex(cmd); err == nil {
			r.calculate(n)
			return true
		}
		fmt.Fprintf(r.out, "%sUnknown command: %s%s\n", ui.ColorRed(), cmd, ui.ColorReset())
		fmt.Fprintf(r.out, "Type %shelp%s to see available commands.\n", ui.ColorYellow(), ui.ColorReset())
	}
	return true
}

// indexArg parses the index argument of cmd. Negative indices are coerced
// to their absolute value.
func (r *REPL) indexArg(cmd string, args []string) (uint64, bool) {
	if len(args) == 0 {
		fmt.Fprintf(r.out, "%sUsage: %s <n>%s\n", ui.ColorRed(), cmd, ui.ColorReset())
		return 0, false
	}
	n, err := config.ParseIndex(args[0])
	if err != nil {
		fmt.Fprintf(r.out, "%sInvalid value: %s%s\n", ui.ColorRed(), args[0], ui.ColorReset())
		return 0, false
	}
	return n, true
}

func (r *REPL) options() fibonacci.Options {
	opts := r.config.Options
	opts.Memo = r.memo
	return opts
}

func (r *REPL) digitsFor(name string, n uint64) int {
	if name != "binet" {
		return 0
	}
	if r.config.Options.Digits > 0 {
		return r.config.Options.Digits
	}
	return fibonacci.MinimumDigits(n)
}

// calculate evaluates F(n) with the current algorithm and a progress bar.
func (r *REPL) calculate(n uint64) {
	ev, err := r.factory.Get(r.currentAlgo)
	if err != nil {
		fmt.Fprintf(r.out, "%sAlgorithm not found: %s%s\n", ui.ColorRed(), r.currentAlgo, ui.ColorReset())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.config.Timeout)
	defer cancel()

	fmt.Fprintf(r.out, "Evaluating F(%s%d%s) with %s%s%s...\n",
		ui.ColorMagenta(), n, ui.ColorReset(), ui.ColorCyan(), ev.Name(), ui.ColorReset())

	progressChan := make(chan fibonacci.ProgressUpdate, 10)
	var wg sync.WaitGroup
	wg.Add(1)
	go DisplayProgress(&wg, progressChan, 1, r.out)

	start := time.Now()
	res, err := ev.Evaluate(ctx, progressChan, 0, n, r.options())
	wall := time.Since(start)
	close(progressChan)
	wg.Wait()

	if err != nil {
		fmt.Fprintf(r.out, "%sError: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
		return
	}

	resultStr := res.Value.String()
	numDigits := len(resultStr)
	fmt.Fprintf(r.out, "\n%sResult:%s\n", ui.ColorBold(), ui.ColorReset())
	fmt.Fprintf(r.out, "  Time:   %s%s%s (total %s)\n", ui.ColorGreen(), FormatExecutionDuration(res.Elapsed), ui.ColorReset(), FormatExecutionDuration(wall))
	fmt.Fprintf(r.out, "  Bits:   %s%d%s\n", ui.ColorCyan(), res.Value.BitLen(), ui.ColorReset())
	fmt.Fprintf(r.out, "  Digits: %s%d%s\n", ui.ColorCyan(), numDigits, ui.ColorReset())
	if d := r.digitsFor(ev.Name(), n); d > 0 {
		fmt.Fprintf(r.out, "  Precision: %s%d digits%s\n", ui.ColorCyan(), d, ui.ColorReset())
	}

	switch {
	case r.config.HexOutput:
		fmt.Fprintf(r.out, "  F(%d) = %s0x%s%s\n", n, ui.ColorGreen(), res.Value.Text(16), ui.ColorReset())
	case numDigits > TruncationLimit:
		fmt.Fprintf(r.out, "  F(%d) = %s%s...%s%s (truncated)\n",
			n, ui.ColorGreen(), resultStr[:DisplayEdges], resultStr[numDigits-DisplayEdges:], ui.ColorReset())
	default:
		fmt.Fprintf(r.out, "  F(%d) = %s%s%s\n", n, ui.ColorGreen(), resultStr, ui.ColorReset())
	}
	fmt.Fprintln(r.out)
}

func (r *REPL) cmdAlgo(args []string) {
	available := strings.Join(r.factory.List(), ", ")
	if len(args) == 0 {
		fmt.Fprintf(r.out, "%sUsage: algo <name>%s\n", ui.ColorRed(), ui.ColorReset())
		fmt.Fprintf(r.out, "Available algorithms: %s\n", available)
		return
	}

	name := strings.ToLower(args[0])
	ev, err := r.factory.Get(name)
	if err != nil {
		fmt.Fprintf(r.out, "%sUnknown algorithm: %s%s\n", ui.ColorRed(), name, ui.ColorReset())
		fmt.Fprintf(r.out, "Available algorithms: %s\n", available)
		return
	}
	r.currentAlgo = name
	fmt.Fprintf(r.out, "Algorithm changed to: %s%s%s\n", ui.ColorGreen(), ev.Name(), ui.ColorReset())
}

func (r *REPL) cmdDigits(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(r.out, "%sUsage: digits <d>%s\n", ui.ColorRed(), ui.ColorReset())
		return
	}
	d, err := strconv.Atoi(args[0])
	if err != nil || d < 0 {
		fmt.Fprintf(r.out, "%sInvalid digits: %s (must be a non-negative integer)%s\n", ui.ColorRed(), args[0], ui.ColorReset())
		return
	}
	r.config.Options.Digits = d
	if d == 0 {
		fmt.Fprintf(r.out, "Closed-form precision: %sautomatic%s\n", ui.ColorGreen(), ui.ColorReset())
		return
	}
	fmt.Fprintf(r.out, "Closed-form precision: %s%d digits%s\n", ui.ColorGreen(), d, ui.ColorReset())
}

// compare evaluates F(n) with every backend in turn and flags any result
// that differs from the first successful one.
func (r *REPL) compare(n uint64) {
	fmt.Fprintf(r.out, "\n%sComparison for F(%d):%s\n", ui.ColorBold(), n, ui.ColorReset())
	fmt.Fprintf(r.out, "%s─────────────────────────────────────────────%s\n", ui.ColorCyan(), ui.ColorReset())

	var (
		reference  *big.Int
		mismatches int
	)
	for _, name := range r.factory.List() {
		ev, err := r.factory.Get(name)
		if err != nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), r.config.Timeout)
		res, err := ev.Evaluate(ctx, nil, 0, n, r.options())
		cancel()

		if err != nil {
			fmt.Fprintf(r.out, "  %s%-10s%s: %sError - %v%s\n",
				ui.ColorYellow(), name, ui.ColorReset(), ui.ColorRed(), err, ui.ColorReset())
			continue
		}

		status := ui.ColorGreen() + "✓" + ui.ColorReset()
		if reference == nil {
			reference = res.Value
		} else if res.Value.Cmp(reference) != 0 {
			mismatches++
			status = ui.ColorRed() + "✗ INCONSISTENT" + ui.ColorReset()
		}
		fmt.Fprintf(r.out, "  %s%-10s%s: %s%12s%s %s\n",
			ui.ColorYellow(), name, ui.ColorReset(),
			ui.ColorCyan(), FormatExecutionDuration(res.Elapsed), ui.ColorReset(), status)
	}

	fmt.Fprintf(r.out, "%s─────────────────────────────────────────────%s\n", ui.ColorCyan(), ui.ColorReset())
	switch {
	case reference == nil:
		fmt.Fprintf(r.out, "%sNo algorithm succeeded.%s\n\n", ui.ColorRed(), ui.ColorReset())
	case mismatches > 0:
		fmt.Fprintf(r.out, "%s%d result(s) disagree.%s\n\n", ui.ColorRed(), mismatches, ui.ColorReset())
	default:
		fmt.Fprintf(r.out, "%sAll results agree.%s\n\n", ui.ColorGreen(), ui.ColorReset())
	}
}

func (r *REPL) cmdIsFib(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(r.out, "%sUsage: isfib <c>%s\n", ui.ColorRed(), ui.ColorReset())
		return
	}
	c, err := config.ParseCandidate(args[0])
	if err != nil {
		fmt.Fprintf(r.out, "%sInvalid candidate: %s%s\n", ui.ColorRed(), args[0], ui.ColorReset())
		return
	}
	DisplayMembership(r.out, service.CheckMembership(c), false)
}

func (r *REPL) list(n uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.Timeout)
	defer cancel()
	if err := DisplaySequence(ctx, r.out, n, r.config.HexOutput); err != nil {
		fmt.Fprintf(r.out, "%sError: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
	}
}

func (r *REPL) cmdAlgos() {
	fmt.Fprintf(r.out, "\n%sAvailable algorithms:%s\n", ui.ColorBold(), ui.ColorReset())
	for _, name := range r.factory.List() {
		marker := "  "
		if name == r.currentAlgo {
			marker = ui.ColorGreen() + "► " + ui.ColorReset()
		}
		fmt.Fprintf(r.out, "%s%s%s%s\n", marker, ui.ColorYellow(), name, ui.ColorReset())
	}
	fmt.Fprintln(r.out)
}

func (r *REPL) cmdHex() {
	r.config.HexOutput = !r.config.HexOutput
	status := "disabled"
	if r.config.HexOutput {
		status = "enabled"
	}
	fmt.Fprintf(r.out, "Hexadecimal display: %s%s%s\n", ui.ColorGreen(), status, ui.ColorReset())
}

func (r *REPL) cmdStatus() {
	c, rs := ui.ColorCyan(), ui.ColorReset()
	fmt.Fprintf(r.out, "\n%sCurrent configuration:%s\n", ui.ColorBold(), rs)
	fmt.Fprintf(r.out, "  Algorithm:          %s%s%s\n", c, r.currentAlgo, rs)
	fmt.Fprintf(r.out, "  Timeout:            %s%s%s\n", c, r.config.Timeout, rs)
	fmt.Fprintf(r.out, "  Threshold:          %s%d%s bits\n", c, r.config.Options.ParallelThreshold, rs)
	fmt.Fprintf(r.out, "  Strassen threshold: %s%d%s bits\n", c, r.config.Options.StrassenThreshold, rs)
	digits := "automatic"
	if r.config.Options.Digits > 0 {
		digits = strconv.Itoa(r.config.Options.Digits)
	}
	fmt.Fprintf(r.out, "  Digits:             %s%s%s\n", c, digits, rs)
	memo := "disabled"
	if r.memo != nil {
		memo = fmt.Sprintf("%d terms cached (limit %d)", r.memo.Len(), r.memo.Limit())
	}
	fmt.Fprintf(r.out, "  Memo table:         %s%s%s\n", c, memo, rs)
	hex := "no"
	if r.config.HexOutput {
		hex = "yes"
	}
	fmt.Fprintf(r.out, "  Hexadecimal:        %s%s%s\n", c, hex, rs)
	fmt.Fprintln(r.out)
}
