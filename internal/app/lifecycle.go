package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// shutdownSignals cancel a running evaluation.
var shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// SetupLifecycle derives a context that ends when timeout expires or a
// shutdown signal arrives, whichever comes first. A non-positive timeout
// leaves only the signal handling. The returned cleanup stops both and must
// be called.
func SetupLifecycle(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	cancelTimeout := context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancelTimeout = context.WithTimeout(ctx, timeout)
	}
	ctx, stopSignals := signal.NotifyContext(ctx, shutdownSignals...)
	return ctx, func() {
		stopSignals()
		cancelTimeout()
	}
}
