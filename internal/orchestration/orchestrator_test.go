package orchestration

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agbru/fibeval/internal/config"
	apperrors "github.com/agbru/fibeval/internal/errors"
	"github.com/agbru/fibeval/internal/fibonacci"
	"github.com/agbru/fibeval/internal/testutil"
	"github.com/agbru/fibeval/pkg/models"
)

const f100 = "354224848179261915075"

func baseConfig(n uint64) config.AppConfig {
	return config.AppConfig{
		N:                 n,
		Algo:              "all",
		Timeout:           time.Minute,
		Threshold:         config.DefaultThreshold,
		StrassenThreshold: config.DefaultStrassenThreshold,
		MemoLimit:         config.DefaultMemoLimit,
		Repeat:            1,
	}
}

func realEvaluators() []fibonacci.Evaluator {
	factory := fibonacci.NewDefaultFactory()
	var evs []fibonacci.Evaluator
	for _, name := range factory.List() {
		evs = append(evs, factory.MustGet(name))
	}
	return evs
}

// spyEvaluator counts its calls and records the options it received.
type spyEvaluator struct {
	name  string
	calls atomic.Int32
	memo  atomic.Pointer[fibonacci.MemoTable]
	value *big.Int
	err   error
	delay time.Duration
}

func (s *spyEvaluator) Name() string { return s.name }

func (s *spyEvaluator) Evaluate(ctx context.Context, progressChan chan<- fibonacci.ProgressUpdate, index int, n uint64, opts fibonacci.Options) (*fibonacci.Evaluation, error) {
	s.calls.Add(1)
	s.memo.Store(opts.Memo)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	if progressChan != nil {
		progressChan <- fibonacci.ProgressUpdate{EvaluatorIndex: index, Value: 1}
	}
	return &fibonacci.Evaluation{Value: new(big.Int).Set(s.value), Elapsed: time.Duration(n)}, nil
}

func TestExecuteEvaluations_RealBackends(t *testing.T) {
	t.Parallel()
	cfg := baseConfig(100)
	memo := fibonacci.NewMemoTable(cfg.MemoLimit)

	results := ExecuteEvaluations(context.Background(), realEvaluators(), cfg, memo, io.Discard)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("%s failed: %v", r.Name, r.Err)
		}
		if r.Value.String() != f100 {
			t.Errorf("%s: F(100) = %s", r.Name, r.Value)
		}
		if r.Wall < r.Elapsed {
			t.Errorf("%s: wall time %v below core time %v", r.Name, r.Wall, r.Elapsed)
		}
	}
	if results[0].Name != "binet" || results[0].Digits != fibonacci.MinimumDigits(100) {
		t.Errorf("closed-form digits not recorded: %+v", results[0])
	}
	if results[1].Digits != 0 {
		t.Errorf("exact backends carry no digits: %+v", results[1])
	}
	if memo.Len() != 101 {
		t.Errorf("the memo backend should extend the shared table, got %d terms", memo.Len())
	}
}

func TestExecuteEvaluations_FailureIsolated(t *testing.T) {
	t.Parallel()
	ok := &spyEvaluator{name: "ok", value: big.NewInt(55), delay: 20 * time.Millisecond}
	bad := &spyEvaluator{name: "bad", err: errors.New("boom")}
	memo := fibonacci.NewMemoTable(0)

	results := ExecuteEvaluations(context.Background(), []fibonacci.Evaluator{ok, bad}, baseConfig(10), memo, io.Discard)
	if results[0].Err != nil || results[0].Value.Int64() != 55 {
		t.Errorf("a failing evaluator must not cancel the others: %+v", results[0])
	}
	if results[1].Err == nil || results[1].Err.Error() != "boom" {
		t.Errorf("expected boom, got %v", results[1].Err)
	}
	if ok.calls.Load() != 1 || bad.calls.Load() != 1 {
		t.Error("each evaluator should run exactly once")
	}
	if ok.memo.Load() != memo {
		t.Error("the memo table should be passed in the options")
	}
}

func TestExecuteEvaluations_Timeout(t *testing.T) {
	t.Parallel()
	slow := &spyEvaluator{name: "slow", value: big.NewInt(1), delay: time.Minute}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	results := ExecuteEvaluations(ctx, []fibonacci.Evaluator{slow}, baseConfig(10), nil, io.Discard)
	if !errors.Is(results[0].Err, context.DeadlineExceeded) {
		t.Errorf("expected a deadline error, got %v", results[0].Err)
	}
}

func TestExecuteEvaluations_ProgressDisplayed(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	ExecuteEvaluations(context.Background(), []fibonacci.Evaluator{&spyEvaluator{name: "s", value: big.NewInt(2)}}, baseConfig(3), nil, &out)
	if !strings.Contains(out.String(), "100.00%") {
		t.Errorf("expected a final progress line, got %q", out.String())
	}
}

func TestConsensus(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")

	best, err := Consensus([]EvaluationResult{
		{Name: "slow", Value: big.NewInt(55), Elapsed: 3 * time.Millisecond},
		{Name: "broken", Err: boom},
		{Name: "fast", Value: big.NewInt(55), Elapsed: time.Millisecond},
	})
	if err != nil || best.Name != "fast" {
		t.Errorf("expected the fastest success, got %+v, %v", best, err)
	}

	_, err = Consensus([]EvaluationResult{
		{Name: "a", Value: big.NewInt(55)},
		{Name: "b", Value: big.NewInt(56)},
	})
	if !errors.Is(err, apperrors.ErrMismatch) {
		t.Errorf("expected ErrMismatch, got %v", err)
	}

	_, err = Consensus([]EvaluationResult{{Name: "broken", Err: boom}})
	if !errors.Is(err, boom) {
		t.Errorf("expected the evaluator error, got %v", err)
	}

	if _, err = Consensus(nil); err == nil {
		t.Error("an empty result set has no consensus")
	}
}

func TestConsensus_DoesNotReorderInput(t *testing.T) {
	t.Parallel()
	results := []EvaluationResult{
		{Name: "b", Value: big.NewInt(1), Elapsed: 2},
		{Name: "a", Value: big.NewInt(1), Elapsed: 1},
	}
	if _, err := Consensus(results); err != nil {
		t.Fatal(err)
	}
	if results[0].Name != "b" {
		t.Error("Consensus must not sort its argument")
	}
}

func TestAnalyzeComparisonResults(t *testing.T) {
	t.Parallel()
	cfg := baseConfig(10)
	cfg.Concise = true

	tests := []struct {
		name     string
		results  []EvaluationResult
		wantCode int
		contains []string
	}{
		{
			name: "agreement",
			results: []EvaluationResult{
				{Name: "matrix", Value: big.NewInt(55), Elapsed: 2 * time.Millisecond},
				{Name: "memo", Value: big.NewInt(55), Elapsed: time.Millisecond},
			},
			wantCode: apperrors.ExitSuccess,
			contains: []string{"Comparison Summary", "✅ Success", "All valid results are consistent", "F(10) = 55"},
		},
		{
			name: "mismatch",
			results: []EvaluationResult{
				{Name: "binet", Value: big.NewInt(54)},
				{Name: "matrix", Value: big.NewInt(55)},
			},
			wantCode: apperrors.ExitErrorMismatch,
			contains: []string{"CRITICAL ERROR"},
		},
		{
			name: "all failed",
			results: []EvaluationResult{
				{Name: "matrix", Err: context.DeadlineExceeded},
				{Name: "memo", Err: context.DeadlineExceeded},
			},
			wantCode: apperrors.ExitErrorTimeout,
			contains: []string{"❌ Failure", "No algorithm could complete", "Timeout"},
		},
		{
			name: "partial failure",
			results: []EvaluationResult{
				{Name: "memo", Err: apperrors.NewResourceError("memo table", 5, 10)},
				{Name: "matrix", Value: big.NewInt(55)},
			},
			wantCode: apperrors.ExitSuccess,
			contains: []string{"resource exhausted", "F(10) = 55"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			code := AnalyzeComparisonResults(tt.results, cfg, &out)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			got := testutil.StripAnsiCodes(out.String())
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q:\n%s", want, got)
				}
			}
		})
	}
}

func TestAnalyzeComparisonResults_SortsSuccessesFirst(t *testing.T) {
	t.Parallel()
	results := []EvaluationResult{
		{Name: "broken", Err: errors.New("x")},
		{Name: "slow", Value: big.NewInt(1), Elapsed: time.Second},
		{Name: "fast", Value: big.NewInt(1), Elapsed: time.Millisecond},
	}
	AnalyzeComparisonResults(results, baseConfig(1), io.Discard)
	if results[0].Name != "fast" || results[1].Name != "slow" || results[2].Name != "broken" {
		t.Errorf("unexpected order: %s, %s, %s", results[0].Name, results[1].Name, results[2].Name)
	}
}

func TestAnalyzeComparisonResults_WritesOutputFile(t *testing.T) {
	t.Parallel()
	cfg := baseConfig(10)
	cfg.OutputFile = filepath.Join(t.TempDir(), "f10.txt")
	cfg.HexOutput = true

	code := AnalyzeComparisonResults([]EvaluationResult{{Name: "matrix", Value: big.NewInt(55)}}, cfg, io.Discard)
	if code != apperrors.ExitSuccess {
		t.Fatalf("unexpected exit code %d", code)
	}
	data, err := os.ReadFile(cfg.OutputFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "0x37") {
		t.Errorf("unexpected file content:\n%s", data)
	}
}

func TestToRecords(t *testing.T) {
	t.Parallel()
	results := []EvaluationResult{
		{Name: "binet", Value: big.NewInt(55), Elapsed: time.Millisecond, Digits: 12},
		{Name: "matrix", Value: big.NewInt(56)},
		{Name: "memo", Err: errors.New("boom")},
	}
	records := ToRecords(results, 10, true)
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if r := records[0]; r.Status != models.StatusOK || r.Result != "0x37" || r.Digits != 12 || r.BitLength != 6 || r.Seconds != 0.001 {
		t.Errorf("unexpected first record %+v", r)
	}
	if records[1].Status != models.StatusMismatch {
		t.Errorf("expected a mismatch, got %+v", records[1])
	}
	if r := records[2]; r.Status != models.StatusError || r.Error != "boom" || r.Result != "" {
		t.Errorf("unexpected error record %+v", r)
	}
}
