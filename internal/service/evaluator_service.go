// Package service exposes fibeval's evaluation and membership operations
// behind a single facade that applies the configured limits and options.
package service

import (
	"context"
	"math/big"

	"github.com/agbru/fibeval/internal/config"
	apperrors "github.com/agbru/fibeval/internal/errors"
	"github.com/agbru/fibeval/internal/fibonacci"
	"github.com/agbru/fibeval/pkg/models"
)

// Service evaluates Fibonacci numbers and tests membership.
type Service interface {
	// Evaluate computes F(n) with the named algorithm.
	//
	// Parameters:
	//   - ctx: The context for cancellation.
	//   - algoName: The registry name of the algorithm.
	//   - n: The Fibonacci index.
	//
	// Returns:
	//   - *fibonacci.Evaluation: The value and the core computation time.
	//   - error: A ResourceError above the configured ceiling, an
	//     UnknownEvaluatorError, or the evaluator's error.
	Evaluate(ctx context.Context, algoName string, n uint64) (*fibonacci.Evaluation, error)
	// IsFibonacci tests candidate for membership and recovers its index.
	IsFibonacci(candidate *big.Int) models.MembershipRecord
}

// EvaluatorService centralizes the index ceiling, the evaluator lookup and
// the evaluation options. It owns one memo table shared by every call, so
// repeated memo evaluations reuse earlier terms.
type EvaluatorService struct {
	factory fibonacci.EvaluatorFactory
	config  config.AppConfig
	maxN    uint64
	memo    *fibonacci.MemoTable
}

var _ Service = (*EvaluatorService)(nil)

// NewEvaluatorService creates a service. maxN of 0 removes the ceiling. A
// cross-call memo table is created when cfg.MemoLimit is positive.
func NewEvaluatorService(factory fibonacci.EvaluatorFactory, cfg config.AppConfig, maxN uint64) *EvaluatorService {
	s := &EvaluatorService{factory: factory, config: cfg, maxN: maxN}
	if cfg.MemoLimit > 0 {
		s.memo = fibonacci.NewMemoTable(cfg.MemoLimit)
	}
	return s
}

// Evaluate implements Service.
func (s *EvaluatorService) Evaluate(ctx context.Context, algoName string, n uint64) (*fibonacci.Evaluation, error) {
	if err := s.CheckIndex(n); err != nil {
		return nil, err
	}

	ev, err := s.factory.Get(algoName)
	if err != nil {
		return nil, err
	}

	opts := s.config.ToOptions()
	opts.Memo = s.memo
	return ev.Evaluate(ctx, nil, 0, n, opts)
}

// CheckIndex returns a ResourceError when n is above the service ceiling.
func (s *EvaluatorService) CheckIndex(n uint64) error {
	if s.maxN > 0 && n > s.maxN {
		return apperrors.NewResourceError("n", s.maxN, n)
	}
	return nil
}

// IsFibonacci implements Service.
func (s *EvaluatorService) IsFibonacci(candidate *big.Int) models.MembershipRecord {
	return CheckMembership(candidate)
}

// CheckMembership tests candidate and, for members, records the index n
// with F(n) = candidate. A nil candidate is reported as a non-member.
func CheckMembership(candidate *big.Int) models.MembershipRecord {
	if candidate == nil {
		return models.MembershipRecord{}
	}
	rec := models.MembershipRecord{Candidate: candidate.String()}
	if idx, ok := fibonacci.FibonacciIndex(candidate); ok {
		rec.IsFibonacci = true
		rec.Index = &idx
	}
	return rec
}
