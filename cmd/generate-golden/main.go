// Command generate-golden writes the reference values read by the evaluator
// golden tests.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agbru/fibeval/internal/fibonacci"
	"github.com/agbru/fibeval/pkg/models"
)

// targets covers the small terms, the uint64 overflow boundary around 93,
// powers of two and of ten.
var targets = []uint64{
	0, 1, 2, 3, 4, 5, 10, 20, 50, 92, 93, 94, 100,
	128, 256, 512, 1000, 1024,
	2000, 2048, 5000, 8192, 10000,
}

func main() {
	outputDir := flag.String("out", "internal/fibonacci/testdata", "Output directory for the golden file")
	flag.Parse()

	if err := run(*outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	entries := make([]models.GoldenEntry, 0, len(targets))
	for _, n := range targets {
		entry, err := goldenEntry(n)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
		fmt.Printf("Generated F(%d)\n", n)
	}

	filename := filepath.Join(outputDir, "fibonacci_golden.json")
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(entries); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	fmt.Printf("Successfully generated golden file at %s\n", filename)
	return nil
}

// goldenEntry computes F(n) with the matrix backend and checks it against
// the plain recurrence before recording it.
func goldenEntry(n uint64) (models.GoldenEntry, error) {
	ctx := context.Background()
	m, err := fibonacci.EvaluateMatrixPower(ctx, n)
	if err != nil {
		return models.GoldenEntry{}, fmt.Errorf("F(%d): %w", n, err)
	}
	r, err := fibonacci.EvaluateRecurrence(ctx, n, nil)
	if err != nil {
		return models.GoldenEntry{}, fmt.Errorf("F(%d): %w", n, err)
	}
	if m.Value.Cmp(r.Value) != 0 {
		return models.GoldenEntry{}, fmt.Errorf("F(%d): matrix and recurrence disagree", n)
	}
	s := m.Value.String()
	return models.GoldenEntry{N: n, Digits: len(s), Result: s}, nil
}
