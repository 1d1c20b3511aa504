package fibonacci

import (
	"fmt"
	"sort"
	"sync"
)

// EvaluatorFactory creates Evaluator instances by registry name.
type EvaluatorFactory interface {
	// Create returns a fresh, uncached Evaluator.
	Create(name string) (Evaluator, error)
	// Get returns the cached Evaluator for name, creating it on first use.
	Get(name string) (Evaluator, error)
	// List returns the registered names in sorted order.
	List() []string
	// Register adds or replaces an algorithm.
	Register(name string, creator func() coreEvaluator) error
	// GetAll returns every registered Evaluator.
	GetAll() map[string]Evaluator
}

// DefaultFactory is a thread-safe registry of algorithm constructors. It
// caches the decorated evaluators it hands out.
type DefaultFactory struct {
	mu         sync.RWMutex
	creators   map[string]func() coreEvaluator
	evaluators map[string]Evaluator
}

// NewDefaultFactory returns a factory with the three evaluators registered:
// "binet" (closed form), "matrix" (matrix power) and "memo" (recurrence).
func NewDefaultFactory() *DefaultFactory {
	f := &DefaultFactory{
		creators:   make(map[string]func() coreEvaluator),
		evaluators: make(map[string]Evaluator),
	}
	_ = f.Register("binet", func() coreEvaluator { return &ClosedForm{} })
	_ = f.Register("matrix", func() coreEvaluator { return &MatrixPower{} })
	_ = f.Register("memo", func() coreEvaluator { return &Recurrence{} })
	return f
}

// Register adds an algorithm under name, replacing any previous one.
func (f *DefaultFactory) Register(name string, creator func() coreEvaluator) error {
	if name == "" || creator == nil {
		return fmt.Errorf("fibonacci: invalid registration for %q", name)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.creators[name] = creator
	delete(f.evaluators, name)
	return nil
}

// Create returns a new Evaluator for name, bypassing the cache.
func (f *DefaultFactory) Create(name string) (Evaluator, error) {
	f.mu.RLock()
	creator, ok := f.creators[name]
	f.mu.RUnlock()

	if !ok {
		return nil, &UnknownEvaluatorError{Name: name}
	}
	return NewEvaluator(creator()), nil
}

// Get returns the cached Evaluator for name.
//
// Parameters:
//   - name: The registry name of the evaluator.
//
// Returns:
//   - Evaluator: The Evaluator instance.
//   - error: An UnknownEvaluatorError if name is not registered.
func (f *DefaultFactory) Get(name string) (Evaluator, error) {
	f.mu.RLock()
	if ev, exists := f.evaluators[name]; exists {
		f.mu.RUnlock()
		return ev, nil
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()

	if ev, exists := f.evaluators[name]; exists {
		return ev, nil
	}
	creator, ok := f.creators[name]
	if !ok {
		return nil, &UnknownEvaluatorError{Name: name}
	}
	ev := NewEvaluator(creator())
	f.evaluators[name] = ev
	return ev, nil
}

// List returns the registered names, sorted.
func (f *DefaultFactory) List() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.creators))
	for name := range f.creators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetAll returns a copy of the name to Evaluator map, creating any
// evaluator not yet cached.
func (f *DefaultFactory) GetAll() map[string]Evaluator {
	f.mu.Lock()
	defer f.mu.Unlock()

	for name, creator := range f.creators {
		if _, exists := f.evaluators[name]; !exists {
			f.evaluators[name] = NewEvaluator(creator())
		}
	}
	result := make(map[string]Evaluator, len(f.evaluators))
	for name, ev := range f.evaluators {
		result[name] = ev
	}
	return result
}

// MustGet is like Get but panics if name is not registered.
func (f *DefaultFactory) MustGet(name string) Evaluator {
	ev, err := f.Get(name)
	if err != nil {
		panic(fmt.Sprintf("fibonacci: required evaluator not found: %s", name))
	}
	return ev
}

// Has reports whether name is registered.
func (f *DefaultFactory) Has(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, exists := f.creators[name]
	return exists
}

var globalFactory = NewDefaultFactory()

// GlobalFactory returns the process-wide factory. Build-tagged backends
// register themselves there.
func GlobalFactory() *DefaultFactory {
	return globalFactory
}

// RegisterEvaluator registers an algorithm in the global factory.
func RegisterEvaluator(name string, creator func() coreEvaluator) error {
	return globalFactory.Register(name, creator)
}

// UnknownEvaluatorError is returned when a name is not registered.
type UnknownEvaluatorError struct {
	Name string
}

func (e *UnknownEvaluatorError) Error() string {
	return "unknown evaluator: " + e.Name
}
