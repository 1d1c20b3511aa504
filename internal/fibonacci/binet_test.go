package fibonacci

import (
	"context"
	"math/big"
	"strings"
	"testing"
)

// The error of an insufficient precision shrinks as digits grow and vanishes
// once the analytic bound is met.
func TestClosedFormPrecisionIsMonotonic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	const n = 1000
	exact, err := EvaluateMatrixPower(ctx, n)
	if err != nil {
		t.Fatal(err)
	}

	var diffs []*big.Int
	for _, digits := range []int{20, 80, 140, 260} {
		res, err := EvaluateClosedForm(ctx, n, digits)
		if err != nil {
			t.Fatalf("digits=%d must not fail even when insufficient: %v", digits, err)
		}
		d := new(big.Int).Sub(res.Value, exact.Value)
		diffs = append(diffs, d.Abs(d))
	}

	if diffs[0].Sign() == 0 {
		t.Error("20 digits cannot represent F(1000) exactly")
	}
	for i := 1; i < len(diffs); i++ {
		if diffs[i].Cmp(diffs[i-1]) > 0 {
			t.Errorf("error grew between steps %d and %d: %s > %s", i-1, i, diffs[i], diffs[i-1])
		}
	}
	if diffs[len(diffs)-1].Sign() != 0 {
		t.Errorf("260 digits must be exact, off by %s", diffs[len(diffs)-1])
	}
}

func TestClosedFormInsufficientPrecisionIsNotAnError(t *testing.T) {
	t.Parallel()
	p, err := ConfigurePrecision(5)
	if err != nil {
		t.Fatal(err)
	}
	if p.Sufficient(500) {
		t.Fatal("5 digits reported sufficient for n=500")
	}

	res, err := EvaluateClosedFormAt(context.Background(), 500, p)
	if err != nil {
		t.Fatalf("insufficient precision returned an error: %v", err)
	}
	if res.Value == nil {
		t.Error("insufficient precision returned a nil value")
	}
}

func TestClosedFormAutoPrecisionLargeIndex(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	for _, n := range []uint64{4095, 4096, 12345} {
		want, err := EvaluateMatrixPower(ctx, n)
		if err != nil {
			t.Fatal(err)
		}
		got, err := NewEvaluator(&ClosedForm{}).Evaluate(ctx, nil, 0, n, Options{})
		if err != nil {
			t.Fatalf("closed form F(%d): %v", n, err)
		}
		if got.Value.Cmp(want.Value) != 0 {
			t.Errorf("closed form F(%d) differs from matrix power", n)
		}
	}
}

// For n a multiple of 15, F(n) ends in 0. When the unrounded closed form
// lands just below F(n), its integer part ends in 9 and rounding has to
// carry into the higher digits.
func TestClosedFormRoundsUpAcrossDigitCarry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	half := big.NewFloat(0.5)

	carries := 0
	for n := uint64(15); n <= 1500; n += 15 {
		p := AutoPrecision(n)
		want, err := EvaluateMatrixPower(ctx, n)
		if err != nil {
			t.Fatal(err)
		}
		x, err := closedFormReal(ctx, newProgressTracker(nil), n, p.Bits)
		if err != nil {
			t.Fatalf("closedFormReal(%d): %v", n, err)
		}
		got, err := EvaluateClosedFormAt(ctx, n, p)
		if err != nil {
			t.Fatalf("EvaluateClosedFormAt(%d): %v", n, err)
		}
		if got.Value.Cmp(want.Value) != 0 {
			t.Fatalf("F(%d) = %s, want %s", n, got.Value, want.Value)
		}

		floor, _ := x.Int(nil)
		if floor.Cmp(want.Value) >= 0 {
			continue
		}
		carries++
		frac := new(big.Float).SetPrec(x.Prec()).Sub(x, new(big.Float).SetInt(floor))
		if frac.Cmp(half) < 0 {
			t.Errorf("n=%d: fraction %s below one half yet F(n) is above the integer part", n, frac.Text('g', 10))
		}
		if s := floor.String(); !strings.HasSuffix(s, "9") {
			t.Errorf("n=%d: integer part %s does not end in 9", n, s)
		}
		if s := got.Value.String(); !strings.HasSuffix(s, "0") {
			t.Errorf("n=%d: rounded value %s does not end in 0", n, s)
		}
	}
	if carries == 0 {
		t.Fatal("no index in range exercised a rounding carry")
	}
}

func TestMaxClosedFormN(t *testing.T) {
	t.Parallel()
	// floor((2³¹−1) / log₂φ)
	if MaxClosedFormN != 3_093_278_588 {
		t.Fatalf("MaxClosedFormN = %d, want 3093278588", MaxClosedFormN)
	}

	base := new(big.Float).SetPrec(64).SetInt64(1)
	sqrt5 := new(big.Float).SetPrec(64).SetInt64(5)
	base.Add(base, sqrt5.Sqrt(sqrt5))
	base.SetMantExp(base, -1)

	phiN, err := floatPow(context.Background(), newProgressTracker(nil), base, MaxClosedFormN)
	if err != nil {
		t.Fatalf("φ^MaxClosedFormN: %v", err)
	}
	if phiN.IsInf() {
		t.Fatal("φ^MaxClosedFormN overflowed big.Float")
	}
}

func TestClosedFormConcurrentPrecisionsDoNotInterfere(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	exact, err := EvaluateMatrixPower(ctx, 700)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan *big.Int, 2)
	for _, digits := range []int{20, 200} {
		go func() {
			res, err := EvaluateClosedForm(ctx, 700, digits)
			if err != nil {
				done <- nil
				return
			}
			done <- res.Value
		}()
	}
	exactCount := 0
	for range 2 {
		v := <-done
		if v == nil {
			t.Fatal("a concurrent evaluation failed")
		}
		if v.Cmp(exact.Value) == 0 {
			exactCount++
		}
	}
	if exactCount != 1 {
		t.Errorf("%d exact results, only the 200-digit evaluation is exact", exactCount)
	}
}

func TestFloatPowZeroExponent(t *testing.T) {
	t.Parallel()
	base := new(big.Float).SetPrec(128).SetFloat64(1.5)
	got, err := floatPow(context.Background(), newProgressTracker(nil), base, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got.Cmp(big.NewFloat(1)) != 0 {
		t.Errorf("1.5^0 = %s, want 1", got.Text('g', 10))
	}
}
