package fibonacci

import "math"

// ProgressUpdate carries the progress of one evaluation from the evaluator to
// the user interface.
type ProgressUpdate struct {
	// EvaluatorIndex distinguishes concurrent evaluations in comparison mode.
	EvaluatorIndex int
	// Value is the normalized progress, from 0.0 to 1.0.
	Value float64
}

// ProgressReporter is the callback through which the core algorithms report
// normalized progress (0.0 to 1.0).
type ProgressReporter func(progress float64)

// progressTracker throttles a ProgressReporter so that only changes of at
// least ProgressReportThreshold, plus the final value, are forwarded.
type progressTracker struct {
	report       ProgressReporter
	lastReported float64
}

func newProgressTracker(report ProgressReporter) *progressTracker {
	if report == nil {
		report = func(float64) {}
	}
	return &progressTracker{report: report, lastReported: -1}
}

// observe forwards progress when it moved enough or when final is set.
func (t *progressTracker) observe(progress float64, final bool) {
	if progress-t.lastReported >= ProgressReportThreshold || final {
		t.report(progress)
		t.lastReported = progress
	}
}

// linearProgress models loops whose steps all cost the same, such as the
// fixed-precision power loop of the closed form.
func linearProgress(done, total int) float64 {
	if total <= 0 {
		return 1
	}
	return float64(done) / float64(total)
}

// quadraticProgress models the linear recurrence: step i adds numbers of
// O(i) bits, so the work completed after i of n steps grows as (i/n)².
func quadraticProgress(done, total uint64) float64 {
	if total == 0 {
		return 1
	}
	r := float64(done) / float64(total)
	return r * r
}

// CalcTotalWork estimates the total work of a loop over numBits exponent
// bits where the operand size doubles at each bit, so the cost of a step
// roughly quadruples. The total is the geometric sum 4^0 + ... + 4^(numBits-1).
func CalcTotalWork(numBits int) float64 {
	if numBits == 0 {
		return 0
	}
	return (math.Pow(4, float64(numBits)) - 1) / 3
}

var powersOf4 [64]float64

func init() {
	powersOf4[0] = 1.0
	for i := 1; i < 64; i++ {
		powersOf4[i] = powersOf4[i-1] * 4.0
	}
}

// PrecomputePowers4 returns powers[i] = 4^i for i < numBits. For numBits up
// to 64 the slice aliases a package table and must not be modified.
func PrecomputePowers4(numBits int) []float64 {
	if numBits <= 0 {
		return nil
	}
	if numBits > 64 {
		powers := make([]float64, numBits)
		copy(powers, powersOf4[:])
		for i := 64; i < numBits; i++ {
			powers[i] = powers[i-1] * 4.0
		}
		return powers
	}
	return powersOf4[:numBits]
}

// reportStepProgress accounts for the completion of exponent bit step (0 is
// the cheapest, numBits-1 the most expensive) in the geometric work model and
// reports it through the tracker.
//
// Parameters:
//   - tracker: The throttled reporter.
//   - totalWork: The value of CalcTotalWork(numBits).
//   - workDone: The work accumulated before this step.
//   - step: The index of the completed step.
//   - numBits: The total number of steps.
//   - powers: The table returned by PrecomputePowers4(numBits).
//
// Returns:
//   - float64: The accumulated work including this step.
func reportStepProgress(tracker *progressTracker, totalWork, workDone float64, step, numBits int, powers []float64) float64 {
	done := workDone + powers[step]
	if totalWork > 0 {
		tracker.observe(done/totalWork, step == numBits-1)
	}
	return done
}
