package fibonacci

import (
	"context"
	"fmt"
	"math/big"
	"math/bits"
	"runtime"
	"time"
)

// Internal function variables to allow fault injection in tests.
var (
	multiplyMatricesFunc      = multiplyMatrices
	squareSymmetricMatrixFunc = squareSymmetricMatrix
)

// MatrixPower computes F(n) from the identity
//
//	[ 1 1 ]^(n-1)   [ F(n)   F(n-1) ]
//	[ 1 0 ]       = [ F(n-1) F(n-2) ]
//
// by binary exponentiation in O(log n) matrix products. It is exact and
// serves as the reference for the other evaluators.
//
// Squarings exploit the symmetry of the powers of Q (4 multiplications).
// General products use 8 multiplications, or 7 with Strassen-Winograd above
// StrassenThreshold bits. Above ParallelThreshold bits the independent
// multiplications of a step run on separate goroutines. Temporaries come
// from a sync.Pool.
type MatrixPower struct{}

// Name returns the registry name of the algorithm.
func (c *MatrixPower) Name() string {
	return "matrix"
}

// EvaluateCore computes F(n) as the top-left entry of Q^(n-1).
func (c *MatrixPower) EvaluateCore(ctx context.Context, reporter ProgressReporter, n uint64, opts Options) (*Evaluation, error) {
	start := time.Now()
	if n == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &Evaluation{Value: big.NewInt(0), Elapsed: time.Since(start)}, nil
	}

	state := acquireMatrixState()
	defer releaseMatrixState(state)

	if err := powerQ(ctx, newProgressTracker(reporter), state, n-1, opts); err != nil {
		return nil, err
	}
	return &Evaluation{Value: new(big.Int).Set(state.res.a), Elapsed: time.Since(start)}, nil
}

// EvaluateMatrixPower computes F(n) with the matrix evaluator and default
// tuning.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - n: The Fibonacci index.
//
// Returns:
//   - *Evaluation: F(n) and the computation time.
//   - error: The context error on cancellation.
func EvaluateMatrixPower(ctx context.Context, n uint64) (*Evaluation, error) {
	return (&MatrixPower{}).EvaluateCore(ctx, nil, n, Options{})
}

// fibPair returns F(k) and F(k+1), read from Q^k.
func fibPair(ctx context.Context, k uint64, opts Options) (fk, fk1 *big.Int, err error) {
	state := acquireMatrixState()
	defer releaseMatrixState(state)

	if err := powerQ(ctx, newProgressTracker(nil), state, k, opts); err != nil {
		return nil, nil, err
	}
	return new(big.Int).Set(state.res.b), new(big.Int).Set(state.res.a), nil
}

// powerQ leaves Q^exponent in state.res. The exponent is scanned from its
// least significant bit: the running square state.p is multiplied into the
// result for each set bit. ctx is checked at every bit.
func powerQ(ctx context.Context, tracker *progressTracker, state *matrixState, exponent uint64, opts Options) error {
	opts = normalizeOptions(opts)
	useParallel := runtime.NumCPU() > 1 && opts.ParallelThreshold > 0

	numBits := bits.Len64(exponent)
	if numBits == 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		tracker.observe(1, true)
		return nil
	}
	totalWork := CalcTotalWork(numBits)
	powers := PrecomputePowers4(numBits)
	workDone := 0.0

	for i := 0; i < numBits; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("matrix power canceled at bit %d/%d: %w", i, numBits-1, err)
		}

		inParallel := useParallel && maxBitLenMatrix(state.p) > opts.ParallelThreshold
		if (exponent>>uint(i))&1 == 1 {
			if err := multiplyMatricesFunc(ctx, state.tmp, state.res, state.p, state, inParallel, opts.StrassenThreshold); err != nil {
				return fmt.Errorf("matrix multiplication failed at bit %d/%d: %w", i, numBits-1, err)
			}
			state.res, state.tmp = state.tmp, state.res
		}

		if i < numBits-1 {
			if err := squareSymmetricMatrixFunc(ctx, state.tmp, state.p, state, inParallel); err != nil {
				return fmt.Errorf("matrix squaring failed at bit %d/%d: %w", i, numBits-1, err)
			}
			state.p, state.tmp = state.tmp, state.p
		}

		workDone = reportStepProgress(tracker, totalWork, workDone, i, numBits, powers)
	}
	return nil
}
