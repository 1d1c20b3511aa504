package fibonacci

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	apperrors "github.com/agbru/fibeval/internal/errors"
)

// MemoTable caches F(0), F(1), ... F(k) across evaluations. It grows
// monotonically and is safe for concurrent use. Values handed out are
// copies, so callers cannot corrupt the cache.
//
// A full table up to n holds O(n²) bits, so a table may carry an index
// ceiling past which requests fail with a ResourceError.
type MemoTable struct {
	mu     sync.Mutex
	values []*big.Int
	limit  uint64
}

// NewMemoTable creates a table seeded with F(0) = 0 and F(1) = 1. A limit of
// 0 leaves the table unbounded; otherwise indices above limit are rejected.
func NewMemoTable(limit uint64) *MemoTable {
	return &MemoTable{
		values: []*big.Int{big.NewInt(0), big.NewInt(1)},
		limit:  limit,
	}
}

// Len returns the number of cached terms.
func (m *MemoTable) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}

// Limit returns the index ceiling, 0 meaning unbounded.
func (m *MemoTable) Limit() uint64 {
	return m.limit
}

// Lookup returns a copy of F(n) if it is cached.
func (m *MemoTable) Lookup(n uint64) (*big.Int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n >= uint64(len(m.values)) {
		return nil, false
	}
	return new(big.Int).Set(m.values[n]), true
}

// extend grows the table through index n. The lock is held for the whole
// extension so concurrent callers never compute the same term twice. On
// cancellation the terms computed so far are kept.
func (m *MemoTable) extend(ctx context.Context, tracker *progressTracker, n uint64) (*big.Int, error) {
	if m.limit > 0 && n > m.limit {
		return nil, apperrors.NewResourceError("memo table", m.limit, n)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	have := uint64(len(m.values))
	if n < have {
		tracker.observe(1, true)
		return new(big.Int).Set(m.values[n]), nil
	}

	todo := n + 1 - have
	for i := have; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("memoized recurrence canceled at index %d/%d: %w", i, n, err)
		}
		next := new(big.Int).Add(m.values[i-1], m.values[i-2])
		m.values = append(m.values, next)
		tracker.observe(quadraticProgress(i+1-have, todo), i == n)
	}
	return new(big.Int).Set(m.values[n]), nil
}

// Recurrence computes F(n) with the linear recurrence F(i) = F(i-1) + F(i-2).
// With Options.Memo set, the shared table is extended and reused across
// calls. Without it, a private two-register loop runs in O(1) memory.
type Recurrence struct{}

// Name returns the registry name of the algorithm.
func (c *Recurrence) Name() string {
	return "memo"
}

// EvaluateCore computes F(n) through opts.Memo, or through a private loop
// when opts.Memo is nil.
func (c *Recurrence) EvaluateCore(ctx context.Context, reporter ProgressReporter, n uint64, opts Options) (*Evaluation, error) {
	return evaluateRecurrence(ctx, newProgressTracker(reporter), n, opts.Memo)
}

// EvaluateRecurrence computes F(n) iteratively.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - n: The Fibonacci index.
//   - memo: The shared cache to extend, or nil for no cross-call caching.
//
// Returns:
//   - *Evaluation: A copy of F(n) and the computation time.
//   - error: A ResourceError when n exceeds the memo limit, or the context
//     error on cancellation.
func EvaluateRecurrence(ctx context.Context, n uint64, memo *MemoTable) (*Evaluation, error) {
	return evaluateRecurrence(ctx, newProgressTracker(nil), n, memo)
}

func evaluateRecurrence(ctx context.Context, tracker *progressTracker, n uint64, memo *MemoTable) (*Evaluation, error) {
	start := time.Now()
	var (
		value *big.Int
		err   error
	)
	if memo != nil {
		value, err = memo.extend(ctx, tracker, n)
	} else {
		value, err = twoRegisterLoop(ctx, tracker, n)
	}
	if err != nil {
		return nil, err
	}
	return &Evaluation{Value: value, Elapsed: time.Since(start)}, nil
}

func twoRegisterLoop(ctx context.Context, tracker *progressTracker, n uint64) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a, b := big.NewInt(0), big.NewInt(1)
	for i := uint64(0); i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("recurrence canceled at index %d/%d: %w", i, n, err)
		}
		a.Add(a, b)
		a, b = b, a
		tracker.observe(quadraticProgress(i+1, n), i+1 == n)
	}
	return a, nil
}
