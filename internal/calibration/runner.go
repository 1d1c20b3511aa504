package calibration

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/agbru/fibeval/internal/fibonacci"
)

// maxBoundDoublings caps how far the search widens above the analytic bound
// when the bound itself turns out to be inexact.
const maxBoundDoublings = 4

// calibrationRunner runs closed-form trials against an exact reference, each
// under its own deadline.
type calibrationRunner struct {
	ctx      context.Context
	perTrial time.Duration
}

func newCalibrationRunner(ctx context.Context, timeout time.Duration) *calibrationRunner {
	perTrial := max(timeout/6, 2*time.Second)
	return &calibrationRunner{ctx: ctx, perTrial: perTrial}
}

// reference computes F(n) exactly with the matrix backend.
func (r *calibrationRunner) reference(n uint64) (*big.Int, error) {
	ctx, cancel := context.WithTimeout(r.ctx, r.perTrial)
	defer cancel()
	res, err := fibonacci.EvaluateMatrixPower(ctx, n)
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// exactAt reports whether the closed form at digits reproduces want.
func (r *calibrationRunner) exactAt(n uint64, digits int, want *big.Int) (bool, error) {
	ctx, cancel := context.WithTimeout(r.ctx, r.perTrial)
	defer cancel()
	res, err := fibonacci.EvaluateClosedForm(ctx, n, digits)
	if err != nil {
		return false, err
	}
	return res.Value.Cmp(want) == 0, nil
}

// findMinimalDigits returns the smallest digit count at which the closed
// form is exact for n. The search assumes that exactness is monotonic in the
// precision, and it starts from the analytic bound.
func (r *calibrationRunner) findMinimalDigits(n uint64, want *big.Int) (int, error) {
	hi := fibonacci.MinimumDigits(n)
	for i := 0; ; i++ {
		ok, err := r.exactAt(n, hi, want)
		if err != nil {
			return 0, err
		}
		if ok {
			break
		}
		if i == maxBoundDoublings {
			return 0, fmt.Errorf("closed form still inexact for F(%d) at %d digits", n, hi)
		}
		hi *= 2
	}

	lo := 1
	for lo < hi {
		mid := lo + (hi-lo)/2
		ok, err := r.exactAt(n, mid, want)
		if err != nil {
			return 0, err
		}
		if ok {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return hi, nil
}
