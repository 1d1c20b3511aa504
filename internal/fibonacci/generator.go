package fibonacci

import (
	"context"
	"math/big"
	"sync"
)

// SequenceGenerator streams consecutive Fibonacci numbers. Unlike an
// Evaluator, which computes a single F(n), it keeps O(1) state and produces
// each following term with one addition.
type SequenceGenerator interface {
	// Next returns the next term: F(0) on the first call, then F(1), ...
	Next(ctx context.Context) (*big.Int, error)
	// Current returns the last term returned, or nil before the first Next.
	Current() *big.Int
	// Index returns the index of the last term returned.
	Index() uint64
	// Reset rewinds to the state before the first Next.
	Reset()
	// Skip jumps to F(n) and returns it; the following Next returns F(n+1).
	Skip(ctx context.Context, n uint64) (*big.Int, error)
}

// IterativeGenerator is the SequenceGenerator used by list mode. Skip reads
// F(n) and F(n+1) from a single matrix power Q^n, so a jump costs
// O(log n) products instead of n additions. It is safe for concurrent use,
// although interleaved Next calls from several goroutines split the sequence
// between them.
type IterativeGenerator struct {
	mu      sync.Mutex
	current *big.Int // F(index)
	next    *big.Int // F(index+1)
	index   uint64
	started bool
	opts    Options
}

// NewIterativeGenerator returns a generator positioned before F(0). opts
// tunes the matrix products used by Skip.
func NewIterativeGenerator(opts Options) *IterativeGenerator {
	g := &IterativeGenerator{opts: opts}
	g.Reset()
	return g
}

// Next advances by one term and returns a copy of it.
func (g *IterativeGenerator) Next(ctx context.Context) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started {
		g.started = true
		return new(big.Int).Set(g.current), nil
	}
	g.index++
	g.current, g.next = g.next, g.current.Add(g.current, g.next)
	return new(big.Int).Set(g.current), nil
}

// Current returns a copy of the last term returned, or nil before the first
// call to Next or Skip.
func (g *IterativeGenerator) Current() *big.Int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.started {
		return nil
	}
	return new(big.Int).Set(g.current)
}

// Index returns the index of the last term returned.
func (g *IterativeGenerator) Index() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.index
}

// Reset rewinds the generator so that the next call to Next returns F(0).
func (g *IterativeGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current = big.NewInt(0)
	g.next = big.NewInt(1)
	g.index = 0
	g.started = false
}

// Skip positions the generator on F(n) and returns a copy of it. On error
// the generator state is unchanged.
func (g *IterativeGenerator) Skip(ctx context.Context, n uint64) (*big.Int, error) {
	fn, fn1, err := fibPair(ctx, n, g.opts)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.current, g.next = fn, fn1
	g.index = n
	g.started = true
	return new(big.Int).Set(fn), nil
}

var _ SequenceGenerator = (*IterativeGenerator)(nil)

// GenerateSequence calls emit with F(0), F(1), ... F(n) in order: n+1 terms.
// It stops at the first error returned by emit or at cancellation. The values
// passed to emit are copies that emit may keep.
func GenerateSequence(ctx context.Context, n uint64, emit func(i uint64, v *big.Int) error) error {
	gen := NewIterativeGenerator(Options{})
	for i := uint64(0); ; i++ {
		v, err := gen.Next(ctx)
		if err != nil {
			return err
		}
		if err := emit(i, v); err != nil {
			return err
		}
		if i == n {
			return nil
		}
	}
}
