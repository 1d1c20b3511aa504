package cli

import (
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/agbru/fibeval/internal/ui"
)

// hexEdges is the number of leading and trailing hex digits kept when a
// hexadecimal value is truncated.
const hexEdges = 40

// OutputConfig holds the output options of a single result.
type OutputConfig struct {
	// OutputFile is the path the result is saved to, empty for none.
	OutputFile string
	HexOutput  bool
	// Quiet prints the bare value only.
	Quiet   bool
	Verbose bool
	Details bool
	Concise bool
}

func (c OutputConfig) displayOptions() DisplayOptions {
	return DisplayOptions{Verbose: c.Verbose, Details: c.Details, Concise: c.Concise}
}

// WriteResultToFile saves info to cfg.OutputFile with a commented header,
// creating parent directories as needed. An empty path is a no-op.
func WriteResultToFile(info ResultInfo, cfg OutputConfig) error {
	if cfg.OutputFile == "" {
		return nil
	}

	if dir := filepath.Dir(cfg.OutputFile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(cfg.OutputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	fmt.Fprintf(file, "# Fibonacci evaluation result\n")
	fmt.Fprintf(file, "# Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(file, "# Algorithm: %s\n", info.Algorithm)
	fmt.Fprintf(file, "# Duration: %s\n", info.Elapsed)
	if info.Digits > 0 {
		fmt.Fprintf(file, "# Precision: %d digits\n", info.Digits)
	}
	fmt.Fprintf(file, "# N: %d\n", info.N)
	fmt.Fprintf(file, "# Bits: %d\n", info.Value.BitLen())
	fmt.Fprintf(file, "# Digits: %d\n\n", len(info.Value.String()))
	if cfg.HexOutput {
		fmt.Fprintf(file, "F(%d) [hex] =\n0x%s\n", info.N, info.Value.Text(16))
	} else {
		fmt.Fprintf(file, "F(%d) =\n%s\n", info.N, info.Value.String())
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// FormatQuietResult formats value on its own for scripting, in decimal or
// 0x-prefixed hexadecimal.
func FormatQuietResult(value *big.Int, hexOutput bool) string {
	if hexOutput {
		return "0x" + value.Text(16)
	}
	return value.String()
}

// DisplayQuietResult prints value alone on a line.
func DisplayQuietResult(out io.Writer, value *big.Int, hexOutput bool) {
	fmt.Fprintln(out, FormatQuietResult(value, hexOutput))
}

// DisplayHexResult prints the hexadecimal form of F(n), truncated unless
// verbose.
func DisplayHexResult(out io.Writer, n uint64, value *big.Int, verbose bool) {
	hexStr := value.Text(16)
	fmt.Fprintf(out, "\n%sHexadecimal format:%s\n", ui.ColorBold(), ui.ColorReset())
	if len(hexStr) > 2*hexEdges+20 && !verbose {
		fmt.Fprintf(out, "F(%d) [hex] = %s0x%s...%s%s\n",
			n, ui.ColorGreen(), hexStr[:hexEdges], hexStr[len(hexStr)-hexEdges:], ui.ColorReset())
		return
	}
	fmt.Fprintf(out, "F(%d) [hex] = %s0x%s%s\n", n, ui.ColorGreen(), hexStr, ui.ColorReset())
}

// DisplayResultWithConfig prints info according to cfg and saves it when an
// output file is configured.
func DisplayResultWithConfig(out io.Writer, info ResultInfo, cfg OutputConfig) error {
	if cfg.Quiet {
		DisplayQuietResult(out, info.Value, cfg.HexOutput)
	} else {
		DisplayResult(info, cfg.displayOptions(), out)
		if cfg.HexOutput {
			DisplayHexResult(out, info.N, info.Value, cfg.Verbose)
		}
	}

	if cfg.OutputFile == "" {
		return nil
	}
	if err := WriteResultToFile(info, cfg); err != nil {
		return err
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "\n%s✓ Result saved to: %s%s%s\n", ui.ColorGreen(), ui.ColorCyan(), cfg.OutputFile, ui.ColorReset())
	}
	return nil
}
