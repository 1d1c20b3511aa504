package fibonacci

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"math/bits"
	"time"

	apperrors "github.com/agbru/fibeval/internal/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var closedFormPrecisionBits = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "fibeval_closed_form_precision_bits",
	Help: "Mantissa size in bits of the most recent closed-form evaluation",
})

// MaxClosedFormN is the largest index whose φⁿ still fits in the exponent
// range of big.Float.
var MaxClosedFormN = uint64(math.Floor(float64(big.MaxExp) / log2Phi))

// ClosedForm evaluates F(n) = (φⁿ − ψⁿ)/√5 with φ = (1+√5)/2 and ψ = −1/φ,
// in binary floating point at an explicit precision, then rounds the result
// to the nearest integer.
//
// The result is exact when the precision satisfies MinimumDigits(n). Below
// that it silently deviates from F(n); see Precision.Sufficient.
type ClosedForm struct{}

// Name returns the registry name of the algorithm.
func (c *ClosedForm) Name() string {
	return "binet"
}

// EvaluateCore resolves the precision from opts.Digits (0 for automatic)
// and evaluates the closed form.
func (c *ClosedForm) EvaluateCore(ctx context.Context, reporter ProgressReporter, n uint64, opts Options) (*Evaluation, error) {
	p, err := opts.precisionFor(n)
	if err != nil {
		return nil, err
	}
	return evaluateClosedForm(ctx, newProgressTracker(reporter), n, p)
}

// EvaluateClosedForm computes F(n) with the closed form at the given number
// of significant decimal digits.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - n: The Fibonacci index.
//   - digits: The significant decimal digits; must be positive.
//
// Returns:
//   - *Evaluation: The rounded value and the computation time, which does
//     not include precision setup.
//   - error: A ValidationError or ResourceError from ConfigurePrecision, or
//     the context error on cancellation.
func EvaluateClosedForm(ctx context.Context, n uint64, digits int) (*Evaluation, error) {
	p, err := ConfigurePrecision(digits)
	if err != nil {
		return nil, err
	}
	return EvaluateClosedFormAt(ctx, n, p)
}

// EvaluateClosedFormAt computes F(n) with the closed form at precision p.
func EvaluateClosedFormAt(ctx context.Context, n uint64, p Precision) (*Evaluation, error) {
	return evaluateClosedForm(ctx, newProgressTracker(nil), n, p)
}

func evaluateClosedForm(ctx context.Context, tracker *progressTracker, n uint64, p Precision) (*Evaluation, error) {
	if p.Bits == 0 {
		return nil, apperrors.NewValidationError("precision", "mantissa size must be positive", p.Bits)
	}
	if n > MaxClosedFormN {
		return nil, apperrors.NewResourceError("closed-form index", MaxClosedFormN, n)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("closed form canceled before start: %w", err)
	}
	closedFormPrecisionBits.Set(float64(p.Bits))

	start := time.Now()
	x, err := closedFormReal(ctx, tracker, n, p.Bits)
	if err != nil {
		return nil, err
	}
	value := RoundToNearest(x)
	return &Evaluation{Value: value, Elapsed: time.Since(start)}, nil
}

// closedFormReal returns (φⁿ − ψⁿ)/√5 at prec bits, before rounding.
func closedFormReal(ctx context.Context, tracker *progressTracker, n uint64, prec uint) (*big.Float, error) {
	sqrt5 := new(big.Float).SetPrec(prec).SetInt64(5)
	sqrt5.Sqrt(sqrt5)

	phi := new(big.Float).SetPrec(prec).SetInt64(1)
	phi.Add(phi, sqrt5)
	phi.SetMantExp(phi, -1)

	phiN, err := floatPow(ctx, tracker, phi, n)
	if err != nil {
		return nil, err
	}

	// ψⁿ = (−1)ⁿ / φⁿ
	psiN := new(big.Float).SetPrec(prec).SetInt64(1)
	psiN.Quo(psiN, phiN)
	if n&1 == 1 {
		psiN.Neg(psiN)
	}

	x := new(big.Float).SetPrec(prec).Sub(phiN, psiN)
	x.Quo(x, sqrt5)
	return x, nil
}

// floatPow computes base^n by binary square-and-multiply at the precision of
// base, checking ctx at every exponent bit. All steps run at the same
// precision, so progress is linear in the number of bits.
func floatPow(ctx context.Context, tracker *progressTracker, base *big.Float, n uint64) (*big.Float, error) {
	prec := base.Prec()
	result := new(big.Float).SetPrec(prec).SetInt64(1)
	if n == 0 {
		tracker.observe(1, true)
		return result, nil
	}
	sq := new(big.Float).SetPrec(prec).Set(base)

	numBits := bits.Len64(n)
	for i := 0; i < numBits; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("closed form canceled at bit %d/%d: %w", i, numBits-1, err)
		}
		if (n>>uint(i))&1 == 1 {
			result.Mul(result, sq)
		}
		if i < numBits-1 {
			sq.Mul(sq, sq)
		}
		tracker.observe(linearProgress(i+1, numBits), i == numBits-1)
	}
	if result.IsInf() {
		return nil, apperrors.NewResourceError("closed-form index", MaxClosedFormN, n)
	}
	return result, nil
}
