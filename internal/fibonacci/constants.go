// Package fibonacci evaluates terms of the Fibonacci sequence exactly, using
// three independent strategies: the closed-form (Binet) expression computed at
// an explicit arbitrary precision, binary exponentiation of the 2x2 Fibonacci
// matrix, and an iterative memoized recurrence.
package fibonacci

// ─────────────────────────────────────────────────────────────────────────────
// Performance Tuning Constants
// ─────────────────────────────────────────────────────────────────────────────
//
// These constants tune the matrix-power evaluator. They were measured on
// commodity multi-core hardware and can be overridden through Options.

const (
	// DefaultParallelThreshold is the operand size in bits at which the
	// independent products of a matrix step are computed on separate
	// goroutines. Below it, goroutine scheduling costs more than it saves.
	DefaultParallelThreshold = 4096

	// DefaultStrassenThreshold is the operand size in bits at which the
	// general 2x2 product switches from 8 multiplications to the 7 of the
	// Strassen-Winograd variant.
	DefaultStrassenThreshold = 3072

	// DefaultMemoLimit is the default ceiling of a shared MemoTable. A full
	// table up to n holds O(n²) bits, so the cache is bounded.
	DefaultMemoLimit = 50_000
)

// ─────────────────────────────────────────────────────────────────────────────
// Precision Constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	// SafetyMargin is the number of decimal digits added on top of the
	// requested precision to absorb rounding in the intermediate products.
	SafetyMargin = 10

	// log2Of10 converts decimal digits to mantissa bits.
	log2Of10 = 3.321928094887362347870319429489390175864831393

	// log10Phi is log10((1+√5)/2), the number of decimal digits F(n) gains
	// per index step.
	log10Phi = 0.208987640249978733769272089237555416822459239

	// log2Phi is log2((1+√5)/2).
	log2Phi = 0.694241913630617301738790266898595808534170050

	// log2Sqrt5 is log2(√5).
	log2Sqrt5 = 1.160964047443681173935159714744695087932415696
)

// ─────────────────────────────────────────────────────────────────────────────
// Progress Reporting Constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	// ProgressReportThreshold is the minimum progress change (0.0 to 1.0)
	// required before a new progress update is sent.
	ProgressReportThreshold = 0.01
)
