package fibonacci

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"
)

func TestIterativeGenerator_Next(t *testing.T) {
	t.Parallel()

	gen := NewIterativeGenerator(Options{})
	ctx := context.Background()
	expected := []int64{0, 1, 1, 2, 3, 5, 8, 13, 21, 34, 55, 89, 144, 233, 377}

	for i, exp := range expected {
		val, err := gen.Next(ctx)
		if err != nil {
			t.Fatalf("Next() error at index %d: %v", i, err)
		}
		if val.Cmp(big.NewInt(exp)) != 0 {
			t.Errorf("F(%d) = %v, want %d", i, val, exp)
		}
		if gen.Index() != uint64(i) {
			t.Errorf("Index() = %d, want %d", gen.Index(), i)
		}
	}
}

func TestIterativeGenerator_CurrentAndCopies(t *testing.T) {
	t.Parallel()

	gen := NewIterativeGenerator(Options{})
	ctx := context.Background()
	if gen.Current() != nil {
		t.Error("Current() should be nil before the first Next()")
	}

	val, _ := gen.Next(ctx)
	val.SetInt64(999)
	current := gen.Current()
	if current == nil || current.Sign() != 0 {
		t.Fatalf("Current() = %v, want 0", current)
	}
	current.SetInt64(999)

	next, _ := gen.Next(ctx)
	if next.Cmp(big.NewInt(1)) != 0 {
		t.Errorf("mutating returned values corrupted the generator: F(1) = %v", next)
	}
}

func TestIterativeGenerator_Reset(t *testing.T) {
	t.Parallel()

	gen := NewIterativeGenerator(Options{})
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		_, _ = gen.Next(ctx)
	}
	gen.Reset()
	if gen.Current() != nil || gen.Index() != 0 {
		t.Error("Reset() must rewind to before F(0)")
	}
	if val, _ := gen.Next(ctx); val.Sign() != 0 {
		t.Errorf("first value after Reset() = %v, want 0", val)
	}
}

func TestIterativeGenerator_Skip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		n          uint64
		want, next string
	}{
		{"zero", 0, "0", "1"},
		{"small", 10, "55", "89"},
		{"past uint64", 100, "354224848179261915075", "573147844013817084101"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			gen := NewIterativeGenerator(Options{})
			ctx := context.Background()
			_, _ = gen.Next(ctx)
			_, _ = gen.Next(ctx)

			val, err := gen.Skip(ctx, tc.n)
			if err != nil {
				t.Fatalf("Skip(%d): %v", tc.n, err)
			}
			if val.String() != tc.want {
				t.Errorf("Skip(%d) = %v, want %s", tc.n, val, tc.want)
			}
			if gen.Index() != tc.n {
				t.Errorf("Index() = %d, want %d", gen.Index(), tc.n)
			}
			if next, _ := gen.Next(ctx); next.String() != tc.next {
				t.Errorf("Next() after Skip(%d) = %v, want %s", tc.n, next, tc.next)
			}
		})
	}
}

func TestIterativeGenerator_SkipMatchesEvaluator(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	gen := NewIterativeGenerator(Options{StrassenThreshold: 1})
	val, err := gen.Skip(ctx, 10_000)
	if err != nil {
		t.Fatal(err)
	}
	want, err := EvaluateMatrixPower(ctx, 10_000)
	if err != nil {
		t.Fatal(err)
	}
	if val.Cmp(want.Value) != 0 {
		t.Error("Skip(10000) disagrees with the matrix evaluator")
	}
}

func TestIterativeGenerator_Cancellation(t *testing.T) {
	t.Parallel()

	gen := NewIterativeGenerator(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	_, _ = gen.Next(ctx)
	_, _ = gen.Next(ctx)
	cancel()

	if _, err := gen.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Next() on canceled context: %v", err)
	}
	if _, err := gen.Skip(ctx, 1000); !errors.Is(err, context.Canceled) {
		t.Errorf("Skip() on canceled context: %v", err)
	}
	if gen.Index() != 1 {
		t.Errorf("a failed call must leave the state unchanged, Index() = %d", gen.Index())
	}
}

func TestIterativeGenerator_Timeout(t *testing.T) {
	t.Parallel()

	gen := NewIterativeGenerator(Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var err error
	for err == nil {
		_, err = gen.Next(ctx)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestIterativeGenerator_Cassini(t *testing.T) {
	t.Parallel()

	gen := NewIterativeGenerator(Options{})
	ctx := context.Background()
	prev, _ := gen.Next(ctx)
	curr, _ := gen.Next(ctx)
	for n := 1; n < 300; n++ {
		next, _ := gen.Next(ctx)
		left := new(big.Int).Mul(prev, next)
		left.Sub(left, new(big.Int).Mul(curr, curr))
		want := int64(1)
		if n%2 == 1 {
			want = -1
		}
		if left.Cmp(big.NewInt(want)) != 0 {
			t.Fatalf("Cassini's identity fails at n=%d", n)
		}
		prev, curr = curr, next
	}
}

func TestGenerateSequence(t *testing.T) {
	t.Parallel()

	var got []string
	err := GenerateSequence(context.Background(), 10, func(i uint64, v *big.Int) error {
		if i != uint64(len(got)) {
			t.Errorf("index %d out of order", i)
		}
		got = append(got, v.String())
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 11 || got[0] != "0" || got[10] != "55" {
		t.Errorf("GenerateSequence(10) = %v", got)
	}

	stop := errors.New("stop")
	calls := 0
	err = GenerateSequence(context.Background(), 100, func(uint64, *big.Int) error {
		calls++
		if calls == 3 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) || calls != 3 {
		t.Errorf("emit error not propagated: err=%v calls=%d", err, calls)
	}

	if err := GenerateSequence(context.Background(), 0, func(i uint64, v *big.Int) error {
		if i != 0 || v.Sign() != 0 {
			t.Errorf("GenerateSequence(0) emitted F(%d) = %v", i, v)
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
}

func BenchmarkIterativeGenerator_First1000(b *testing.B) {
	ctx := context.Background()
	for i := 0; i < b.N; i++ {
		gen := NewIterativeGenerator(Options{})
		for j := 0; j < 1000; j++ {
			_, _ = gen.Next(ctx)
		}
	}
}

func BenchmarkIterativeGenerator_Skip(b *testing.B) {
	ctx := context.Background()
	gen := NewIterativeGenerator(Options{})
	for i := 0; i < b.N; i++ {
		_, _ = gen.Skip(ctx, 100_000)
	}
}
