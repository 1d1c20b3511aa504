/*
Package models defines the JSON records exchanged by fibeval.

These models are used for:
- **Machine-readable output**: the -json mode of the CLI prints one
  EvaluationRecord per backend.
- **Golden data**: cmd/generate-golden writes GoldenEntry values that the
  evaluator tests read back.
*/
package models

import "time"

// Status is the outcome of one evaluation.
type Status string

const (
	StatusOK       Status = "ok"
	StatusError    Status = "error"
	StatusMismatch Status = "mismatch"
)

// EvaluationRecord is the JSON form of one evaluator run.
type EvaluationRecord struct {
	Algorithm string  `json:"algorithm"`
	N         uint64  `json:"n"`
	Digits    int     `json:"digits,omitempty"` // Closed-form precision, if applicable.
	Duration  string  `json:"duration"`         // Core computation time.
	Seconds   float64 `json:"seconds"`          // Same, as a number.
	Status    Status  `json:"status"`           // ok, error or mismatch.
	Result    string  `json:"result,omitempty"` // Decimal or hexadecimal value.
	BitLength int     `json:"bit_length,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// NewEvaluationRecord fills the duration fields from d.
func NewEvaluationRecord(algorithm string, n uint64, d time.Duration) EvaluationRecord {
	return EvaluationRecord{
		Algorithm: algorithm,
		N:         n,
		Duration:  d.String(),
		Seconds:   d.Seconds(),
		Status:    StatusOK,
	}
}

// GoldenEntry is one reference value of testdata/fibonacci_golden.json.
type GoldenEntry struct {
	N      uint64 `json:"n"`
	Digits int    `json:"digits"` // Decimal digit count of Result.
	Result string `json:"result"`
}

// MembershipRecord is the JSON form of an -is-fib query.
type MembershipRecord struct {
	Candidate   string  `json:"candidate"`
	IsFibonacci bool    `json:"is_fibonacci"`
	Index       *uint64 `json:"index,omitempty"`
}
