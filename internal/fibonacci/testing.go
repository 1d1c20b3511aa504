package fibonacci

import (
	"context"
	"maps"
	"math/big"
	"slices"
	"time"
)

// MockEvaluator is a configurable Evaluator for tests in other packages.
type MockEvaluator struct {
	// ID is returned by Name; it defaults to "mock".
	ID      string
	Result  *big.Int
	Elapsed time.Duration
	Err     error
	// Fn, when set, replaces the canned Result and Err.
	Fn func(ctx context.Context, n uint64) (*big.Int, error)
}

// Name returns ID, or "mock".
func (m *MockEvaluator) Name() string {
	if m.ID == "" {
		return "mock"
	}
	return m.ID
}

// Evaluate returns the canned result, or the result of Fn.
func (m *MockEvaluator) Evaluate(ctx context.Context, progressChan chan<- ProgressUpdate, index int, n uint64, opts Options) (*Evaluation, error) {
	result, err := m.Result, m.Err
	if m.Fn != nil {
		result, err = m.Fn(ctx, n)
	}
	if err != nil {
		return nil, err
	}
	if progressChan != nil {
		select {
		case progressChan <- ProgressUpdate{EvaluatorIndex: index, Value: 1.0}:
		default:
		}
	}
	var value *big.Int
	if result != nil {
		value = new(big.Int).Set(result)
	}
	return &Evaluation{Value: value, Elapsed: m.Elapsed}, nil
}

// TestFactory is an EvaluatorFactory over a fixed set of evaluators.
type TestFactory struct {
	evaluators map[string]Evaluator
}

// NewTestFactory returns a factory serving evaluators.
func NewTestFactory(evaluators map[string]Evaluator) *TestFactory {
	if evaluators == nil {
		evaluators = make(map[string]Evaluator)
	}
	return &TestFactory{evaluators: evaluators}
}

// Create returns the evaluator registered under name.
func (f *TestFactory) Create(name string) (Evaluator, error) {
	return f.Get(name)
}

// Get returns the evaluator registered under name.
func (f *TestFactory) Get(name string) (Evaluator, error) {
	ev, ok := f.evaluators[name]
	if !ok {
		return nil, &UnknownEvaluatorError{Name: name}
	}
	return ev, nil
}

// List returns the sorted names.
func (f *TestFactory) List() []string {
	return slices.Sorted(maps.Keys(f.evaluators))
}

// Register is a no-op: evaluators are fixed at construction.
func (f *TestFactory) Register(string, func() coreEvaluator) error {
	return nil
}

// GetAll returns a copy of the evaluators.
func (f *TestFactory) GetAll() map[string]Evaluator {
	return maps.Clone(f.evaluators)
}

var (
	_ EvaluatorFactory = (*TestFactory)(nil)
	_ EvaluatorFactory = (*DefaultFactory)(nil)
)
