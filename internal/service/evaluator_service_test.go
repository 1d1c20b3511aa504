package service

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/agbru/fibeval/internal/config"
	apperrors "github.com/agbru/fibeval/internal/errors"
	"github.com/agbru/fibeval/internal/fibonacci"
	"github.com/agbru/fibeval/internal/testutil"
)

func testConfig() config.AppConfig {
	return config.AppConfig{
		Threshold:         config.DefaultThreshold,
		StrassenThreshold: config.DefaultStrassenThreshold,
		MemoLimit:         1000,
	}
}

func TestNewEvaluatorService(t *testing.T) {
	t.Parallel()
	factory := fibonacci.NewTestFactory(nil)

	svc := NewEvaluatorService(factory, testConfig(), 1_000_000)
	if svc.maxN != 1_000_000 {
		t.Errorf("expected maxN 1000000, got %d", svc.maxN)
	}
	if svc.memo == nil || svc.memo.Limit() != 1000 {
		t.Errorf("expected a memo table limited to 1000, got %+v", svc.memo)
	}

	cfg := testConfig()
	cfg.MemoLimit = 0
	if NewEvaluatorService(factory, cfg, 0).memo != nil {
		t.Error("a zero memo limit should disable the cross-call table")
	}
}

func TestEvaluate_RealEvaluators(t *testing.T) {
	t.Parallel()
	svc := NewEvaluatorService(fibonacci.NewDefaultFactory(), testConfig(), 0)

	for _, algo := range []string{"binet", "matrix", "memo"} {
		res, err := svc.Evaluate(context.Background(), algo, 100)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", algo, err)
		}
		if got := res.Value.String(); got != "354224848179261915075" {
			t.Errorf("%s: F(100) = %s", algo, got)
		}
	}
}

func TestEvaluate_MaxNExceeded(t *testing.T) {
	t.Parallel()
	svc := NewEvaluatorService(fibonacci.NewDefaultFactory(), testConfig(), 100)

	_, err := svc.Evaluate(context.Background(), "matrix", 101)
	var re apperrors.ResourceError
	if !errors.As(err, &re) {
		t.Fatalf("expected ResourceError, got %v", err)
	}
	if re.Limit != 100 || re.Requested != 101 {
		t.Errorf("unexpected error fields %+v", re)
	}
	if code := apperrors.ExitCodeFor(err); code != apperrors.ExitErrorResource {
		t.Errorf("expected exit code %d, got %d", apperrors.ExitErrorResource, code)
	}

	if _, err := svc.Evaluate(context.Background(), "matrix", 100); err != nil {
		t.Errorf("n equal to the ceiling should pass: %v", err)
	}
}

func TestCheckIndex(t *testing.T) {
	t.Parallel()
	bounded := NewEvaluatorService(fibonacci.NewDefaultFactory(), testConfig(), 10)
	if err := bounded.CheckIndex(10); err != nil {
		t.Errorf("CheckIndex(10) = %v, want nil", err)
	}
	if err := bounded.CheckIndex(11); !apperrors.IsResourceError(err) {
		t.Errorf("CheckIndex(11) = %v, want a ResourceError", err)
	}

	unbounded := NewEvaluatorService(fibonacci.NewDefaultFactory(), testConfig(), 0)
	if err := unbounded.CheckIndex(1 << 40); err != nil {
		t.Errorf("an unbounded service rejected an index: %v", err)
	}
}

func TestEvaluate_MemoLimitBecomesResourceError(t *testing.T) {
	t.Parallel()
	svc := NewEvaluatorService(fibonacci.NewDefaultFactory(), testConfig(), 0)

	_, err := svc.Evaluate(context.Background(), "memo", 1001)
	if !apperrors.IsResourceError(err) {
		t.Fatalf("expected ResourceError from the memo table, got %v", err)
	}
}

func TestEvaluate_SharesMemoTable(t *testing.T) {
	t.Parallel()
	svc := NewEvaluatorService(fibonacci.NewDefaultFactory(), testConfig(), 0)

	if _, err := svc.Evaluate(context.Background(), "memo", 500); err != nil {
		t.Fatal(err)
	}
	if got := svc.memo.Len(); got != 501 {
		t.Errorf("expected 501 cached terms, got %d", got)
	}
	if _, err := svc.Evaluate(context.Background(), "memo", 200); err != nil {
		t.Fatal(err)
	}
	if got := svc.memo.Len(); got != 501 {
		t.Errorf("a smaller index must not grow the table, got %d", got)
	}
}

func TestEvaluate_UnknownAlgorithm(t *testing.T) {
	t.Parallel()
	svc := NewEvaluatorService(fibonacci.NewDefaultFactory(), testConfig(), 0)

	_, err := svc.Evaluate(context.Background(), "fft", 10)
	var unknown *fibonacci.UnknownEvaluatorError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownEvaluatorError, got %v", err)
	}
}

func TestEvaluate_PropagatesEvaluatorError(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	factory := fibonacci.NewTestFactory(map[string]fibonacci.Evaluator{
		"broken": &fibonacci.MockEvaluator{ID: "broken", Err: boom},
	})
	svc := NewEvaluatorService(factory, testConfig(), 0)

	if _, err := svc.Evaluate(context.Background(), "broken", 10); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

type optionsSpy struct {
	seen fibonacci.Options
}

func (s *optionsSpy) Name() string { return "spy" }

func (s *optionsSpy) Evaluate(_ context.Context, _ chan<- fibonacci.ProgressUpdate, _ int, n uint64, opts fibonacci.Options) (*fibonacci.Evaluation, error) {
	s.seen = opts
	return &fibonacci.Evaluation{Value: new(big.Int).SetUint64(n)}, nil
}

func TestEvaluate_PassesOptions(t *testing.T) {
	t.Parallel()
	spy := &optionsSpy{}
	factory := fibonacci.NewTestFactory(map[string]fibonacci.Evaluator{"spy": spy})
	cfg := testConfig()
	cfg.Digits = 42
	svc := NewEvaluatorService(factory, cfg, 0)

	if _, err := svc.Evaluate(context.Background(), "spy", 7); err != nil {
		t.Fatal(err)
	}
	if spy.seen.Digits != 42 || spy.seen.ParallelThreshold != cfg.Threshold || spy.seen.Memo != svc.memo {
		t.Errorf("options not forwarded: %+v", spy.seen)
	}
}

func TestCheckMembership(t *testing.T) {
	t.Parallel()
	tests := []struct {
		candidate string
		member    bool
		index     uint64
	}{
		{"0", true, 0},
		{"1", true, 1},
		{"2", true, 3},
		{"4", false, 0},
		{"55", true, 10},
		{"56", false, 0},
		{"354224848179261915075", true, 100},
		{"354224848179261915076", false, 0},
		{"-5", false, 0},
	}
	svc := NewEvaluatorService(fibonacci.NewDefaultFactory(), testConfig(), 0)
	for _, tc := range tests {
		t.Run(tc.candidate, func(t *testing.T) {
			t.Parallel()
			rec := svc.IsFibonacci(testutil.MustBigInt(t, tc.candidate))
			if rec.Candidate != tc.candidate || rec.IsFibonacci != tc.member {
				t.Fatalf("unexpected record %+v", rec)
			}
			if !tc.member {
				if rec.Index != nil {
					t.Errorf("non-member should carry no index, got %d", *rec.Index)
				}
				return
			}
			if rec.Index == nil || *rec.Index != tc.index {
				t.Errorf("expected index %d, got %v", tc.index, rec.Index)
			}
		})
	}
}

func TestCheckMembership_Nil(t *testing.T) {
	t.Parallel()
	if rec := CheckMembership(nil); rec.IsFibonacci || rec.Index != nil {
		t.Errorf("nil candidate must not be a member: %+v", rec)
	}
}
