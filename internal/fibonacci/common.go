package fibonacci

import (
	"context"
	"math/big"

	"github.com/agbru/fibeval/internal/parallel"
)

// MaxPooledBitLen is the largest big.Int, in bits, kept by the matrix state
// pool. Larger states are left to the garbage collector.
const MaxPooledBitLen = 4_000_000

func checkLimit(z *big.Int) bool {
	return z != nil && z.BitLen() > MaxPooledBitLen
}

// mulTask is one product of a matrix step: dest = a * b. When a and b are the
// same pointer math/big squares, which is cheaper than a general product.
type mulTask struct {
	dest, a, b *big.Int
}

// runMulTasks computes every task, on separate goroutines when inParallel is
// set. Each task checks ctx before multiplying, so a canceled evaluation
// stops at the next product rather than at the next exponent bit.
func runMulTasks(ctx context.Context, tasks []mulTask, inParallel bool) error {
	if !inParallel {
		for _, t := range tasks {
			if err := ctx.Err(); err != nil {
				return err
			}
			t.dest.Mul(t.a, t.b)
		}
		return nil
	}
	fns := make([]func() error, len(tasks))
	for i, t := range tasks {
		fns[i] = func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t.dest.Mul(t.a, t.b)
			return nil
		}
	}
	return parallel.Run(fns...)
}
