package fibonacci

import (
	"context"
	"math/big"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	evaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fibeval_evaluations_total",
			Help: "The total number of Fibonacci evaluations processed",
		},
		[]string{"algorithm", "status"},
	)
	evaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fibeval_evaluation_duration_seconds",
			Help:    "The core computation time of Fibonacci evaluations in seconds",
			Buckets: prometheus.ExponentialBuckets(1e-6, 10, 9),
		},
		[]string{"algorithm"},
	)
)

// Evaluation is the result of one evaluator run.
type Evaluation struct {
	// Value is F(n). It is owned by the caller.
	Value *big.Int
	// Elapsed is the wall-clock time of the core computation. For the closed
	// form it excludes precision setup.
	Elapsed time.Duration
}

// Evaluator is the public contract shared by every backend. Implementations
// are safe for concurrent use.
type Evaluator interface {
	// Evaluate computes F(n). Progress updates are sent without blocking to
	// progressChan, tagged with index. It returns the context error if ctx is
	// canceled before completion.
	Evaluate(ctx context.Context, progressChan chan<- ProgressUpdate, index int, n uint64, opts Options) (*Evaluation, error)

	// Name returns the registry name of the backend (e.g. "matrix").
	Name() string
}

// coreEvaluator is the interface of a bare algorithm, without metrics,
// tracing or observer plumbing.
type coreEvaluator interface {
	EvaluateCore(ctx context.Context, reporter ProgressReporter, n uint64, opts Options) (*Evaluation, error)
	Name() string
}

// FibEvaluator decorates a coreEvaluator with tracing, metrics, debug logging
// and observer-based progress reporting.
type FibEvaluator struct {
	core coreEvaluator
}

// NewEvaluator wraps core in a FibEvaluator. It panics if core is nil.
func NewEvaluator(core coreEvaluator) Evaluator {
	if core == nil {
		panic("fibonacci: the coreEvaluator implementation cannot be nil")
	}
	return &FibEvaluator{core: core}
}

// Name delegates to the wrapped algorithm.
func (e *FibEvaluator) Name() string {
	return e.core.Name()
}

// Evaluate runs the evaluation with channel-based progress reporting.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - progressChan: The channel receiving progress updates (may be nil).
//   - index: The identifier attached to each progress update.
//   - n: The Fibonacci index.
//   - opts: Tuning options.
//
// Returns:
//   - *Evaluation: The value and the core elapsed time.
//   - error: An error if one occurred.
func (e *FibEvaluator) Evaluate(ctx context.Context, progressChan chan<- ProgressUpdate, index int, n uint64, opts Options) (*Evaluation, error) {
	subject := NewProgressSubject()
	if progressChan != nil {
		subject.Register(NewChannelObserver(progressChan))
	}
	return e.EvaluateWithObservers(ctx, subject, index, n, opts)
}

// EvaluateWithObservers runs the evaluation and notifies every observer of
// subject. A nil subject discards progress.
func (e *FibEvaluator) EvaluateWithObservers(ctx context.Context, subject *ProgressSubject, index int, n uint64, opts Options) (res *Evaluation, err error) {
	algoName := e.core.Name()
	ctx, span := otel.Tracer("fibeval/fibonacci").Start(ctx, "Evaluate",
		trace.WithAttributes(
			attribute.String("algorithm", algoName),
			attribute.Int64("n", int64(n)),
		))
	defer span.End()

	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		elapsed := time.Since(start)
		if res != nil {
			elapsed = res.Elapsed
		}
		evaluationsTotal.WithLabelValues(algoName, status).Inc()
		evaluationDuration.WithLabelValues(algoName).Observe(elapsed.Seconds())

		log.Debug().
			Str("algo", algoName).
			Uint64("n", n).
			Dur("elapsed", elapsed).
			Str("status", status).
			Msg("evaluation completed")
	}()

	reporter := ProgressReporter(func(float64) {})
	if subject != nil {
		reporter = subject.AsProgressReporter(index)
	}

	res, err = e.core.EvaluateCore(ctx, reporter, n, opts)
	if err == nil && res != nil {
		reporter(1.0)
	}
	return res, err
}
