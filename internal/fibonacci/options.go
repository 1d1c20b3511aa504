package fibonacci

// Options configures one evaluation. Zero values select the defaults.
type Options struct {
	// ParallelThreshold is the operand size in bits above which the matrix
	// evaluator multiplies on several goroutines.
	ParallelThreshold int
	// StrassenThreshold is the operand size in bits above which the general
	// matrix product uses the Strassen-Winograd scheme.
	StrassenThreshold int
	// Digits is the significant decimal digit count of the closed-form
	// evaluator. 0 derives it from n with MinimumDigits.
	Digits int
	// Memo is the cross-call cache used by the recurrence evaluator. A nil
	// table runs a private two-register loop instead.
	Memo *MemoTable
}

// normalizeOptions returns a copy of opts with default values filled in for
// zero values.
//
// Parameters:
//   - opts: The options to normalize.
//
// Returns:
//   - Options: A normalized copy of opts with defaults applied.
func normalizeOptions(opts Options) Options {
	normalized := opts
	if normalized.ParallelThreshold == 0 {
		normalized.ParallelThreshold = DefaultParallelThreshold
	}
	if normalized.StrassenThreshold == 0 {
		normalized.StrassenThreshold = DefaultStrassenThreshold
	}
	return normalized
}

// precisionFor resolves the closed-form precision for index n.
func (o Options) precisionFor(n uint64) (Precision, error) {
	if o.Digits == 0 {
		return AutoPrecision(n), nil
	}
	return ConfigurePrecision(o.Digits)
}
