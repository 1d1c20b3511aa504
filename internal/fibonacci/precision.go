package fibonacci

import (
	"math"
	"math/big"

	apperrors "github.com/agbru/fibeval/internal/errors"
)

// Precision is the working context of the closed-form evaluator. It is an
// explicit value: each evaluation receives its own, so concurrent evaluations
// at different precisions never interfere.
type Precision struct {
	// Digits is the requested number of significant decimal digits.
	Digits int
	// Bits is the big.Float mantissa size used for every intermediate value.
	Bits uint
}

// ConfigurePrecision builds the Precision for the given number of significant
// decimal digits. The mantissa is sized for Digits+SafetyMargin digits.
//
// Parameters:
//   - digits: The requested significant decimal digits. Must be positive.
//
// Returns:
//   - Precision: The resulting working precision.
//   - error: A ValidationError if digits <= 0, or a ResourceError if the
//     mantissa would exceed big.MaxPrec.
func ConfigurePrecision(digits int) (Precision, error) {
	if digits <= 0 {
		return Precision{}, apperrors.NewValidationError("digits", "must be a positive number of significant digits", digits)
	}
	bits := math.Ceil((float64(digits) + SafetyMargin) * log2Of10)
	if bits > float64(big.MaxPrec) {
		requested := uint64(math.MaxUint64)
		if bits < math.MaxUint64 {
			requested = uint64(bits)
		}
		return Precision{}, apperrors.NewResourceError("mantissa bits", uint64(big.MaxPrec), requested)
	}
	return Precision{Digits: digits, Bits: uint(bits)}, nil
}

// MinimumDigits returns the smallest digit count for which the closed form is
// exact at index n.
//
// The first term bounds the number of decimal digits of F(n). The second
// covers the relative error accumulated by the O(log n) roundings of the
// power loop, which grows with n. The constant 2 keeps the final absolute
// error below one half.
func MinimumDigits(n uint64) int {
	nf := float64(n)
	return int(math.Ceil(nf*log10Phi)) + int(math.Ceil(math.Log10(nf+1))) + 2
}

// AutoPrecision returns the precision derived from MinimumDigits(n).
func AutoPrecision(n uint64) Precision {
	digits := MinimumDigits(n)
	return Precision{
		Digits: digits,
		Bits:   uint(math.Ceil(float64(digits+SafetyMargin) * log2Of10)),
	}
}

// Sufficient reports whether p guarantees an exact closed-form result at n.
// An insufficient precision is not an error: the evaluation still runs and
// may return a value that differs from F(n).
func (p Precision) Sufficient(n uint64) bool {
	return p.Digits >= MinimumDigits(n)
}

// WorkingDigits is the decimal digit count actually carried by the mantissa.
func (p Precision) WorkingDigits() int {
	return p.Digits + SafetyMargin
}

// RoundToNearest rounds x to the nearest integer, ties away from zero.
//
// x is split into its integer part and its fractional part. Both
// operations are exact at the precision of x. One is then added to the
// magnitude of the integer part when the fraction is at least one half.
// The carry is performed on a big.Int, so a run of trailing nines propagates
// into a new leading digit (1999.5 becomes 2000).
//
// Parameters:
//   - x: A finite value. A nil or infinite x yields nil.
//
// Returns:
//   - *big.Int: The rounded value.
func RoundToNearest(x *big.Float) *big.Int {
	if x == nil || x.IsInf() {
		return nil
	}
	ip, _ := x.Int(nil)

	prec := x.Prec()
	if prec < 64 {
		prec = 64
	}
	frac := new(big.Float).SetPrec(prec).SetInt(ip)
	frac.Sub(x, frac)
	frac.Abs(frac)

	if frac.Cmp(half) >= 0 {
		if x.Signbit() {
			ip.Sub(ip, bigOne)
		} else {
			ip.Add(ip, bigOne)
		}
	}
	return ip
}

var (
	half   = big.NewFloat(0.5)
	bigOne = big.NewInt(1)
)
