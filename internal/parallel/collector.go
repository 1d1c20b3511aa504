// Package parallel runs small batches of independent computations on
// separate goroutines and reports the first failure.
package parallel

import "sync"

// ErrorCollector keeps the first non-nil error reported by a group of
// goroutines. The zero value is ready to use.
type ErrorCollector struct {
	mu  sync.Mutex
	err error
}

// SetError records err unless an error was already recorded. Nil is ignored.
func (c *ErrorCollector) SetError(err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.mu.Unlock()
}

// Err returns the first recorded error, or nil.
func (c *ErrorCollector) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Run executes every fn on its own goroutine, waits for all of them and
// returns the first error recorded. A single fn runs on the calling
// goroutine.
//
// Usage:
//
//	err := parallel.Run(
//	    func() error { return mulA() },
//	    func() error { return mulB() },
//	)
func Run(fns ...func() error) error {
	switch len(fns) {
	case 0:
		return nil
	case 1:
		return fns[0]()
	}
	var (
		wg sync.WaitGroup
		ec ErrorCollector
	)
	wg.Add(len(fns))
	for _, fn := range fns {
		go func() {
			defer wg.Done()
			ec.SetError(fn())
		}()
	}
	wg.Wait()
	return ec.Err()
}
