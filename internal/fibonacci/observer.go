package fibonacci

import (
	"slices"
	"sync"
)

// ProgressObserver receives the progress events of evaluations.
type ProgressObserver interface {
	// Update is called with the evaluator index and its normalized progress.
	Update(index int, progress float64)
}

// ProgressSubject fans progress events out to the registered observers, in
// registration order. It is safe for concurrent use.
type ProgressSubject struct {
	mu        sync.RWMutex
	observers []ProgressObserver
}

// NewProgressSubject returns a subject, optionally pre-loaded with observers.
// Nil observers are skipped.
func NewProgressSubject(observers ...ProgressObserver) *ProgressSubject {
	s := &ProgressSubject{}
	for _, o := range observers {
		s.Register(o)
	}
	return s
}

// Register adds observer. A nil observer is ignored.
func (s *ProgressSubject) Register(observer ProgressObserver) {
	if observer == nil {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, observer)
	s.mu.Unlock()
}

// Unregister removes the first registration of observer, if any.
func (s *ProgressSubject) Unregister(observer ProgressObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.Index(s.observers, observer); i >= 0 {
		s.observers = slices.Delete(s.observers, i, i+1)
	}
}

// Notify calls Update on every observer. Observers run on the caller's
// goroutine, outside the subject lock, so an observer may register others.
func (s *ProgressSubject) Notify(index int, progress float64) {
	s.mu.RLock()
	snapshot := slices.Clone(s.observers)
	s.mu.RUnlock()

	for _, observer := range snapshot {
		observer.Update(index, progress)
	}
}

// ObserverCount returns the number of registered observers.
func (s *ProgressSubject) ObserverCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

// AsProgressReporter adapts the subject to the callback used by the core
// algorithms, tagging every event with index.
func (s *ProgressSubject) AsProgressReporter(index int) ProgressReporter {
	return func(progress float64) {
		s.Notify(index, progress)
	}
}
