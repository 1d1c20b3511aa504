package cli

import (
	"fmt"
	"sync"
	"time"
)

// maxETA caps estimates so a stalled evaluation does not print nonsense.
const maxETA = 24 * time.Hour

// ProgressWithETA extends ProgressState with a smoothed estimate of the
// remaining time. It is safe for concurrent use.
type ProgressWithETA struct {
	mu sync.Mutex
	*ProgressState
	startTime    time.Time
	lastUpdate   time.Time
	lastProgress float64
	progressRate float64 // progress per second, exponentially smoothed
	now          func() time.Time
}

// NewProgressWithETA creates a tracker for numEvaluators evaluations.
func NewProgressWithETA(numEvaluators int) *ProgressWithETA {
	return newProgressWithClock(numEvaluators, time.Now)
}

func newProgressWithClock(numEvaluators int, now func() time.Time) *ProgressWithETA {
	start := now()
	return &ProgressWithETA{
		ProgressState: NewProgressState(numEvaluators),
		startTime:     start,
		lastUpdate:    start,
		now:           now,
	}
}

// UpdateWithETA records the progress of one evaluation and returns the new
// average along with the estimated remaining time, 0 while there is not yet
// enough history to estimate.
func (p *ProgressWithETA) UpdateWithETA(index int, value float64) (progress float64, eta time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Update(index, value)
	progress = p.CalculateAverage()

	now := p.now()
	elapsed := now.Sub(p.startTime)
	if elapsed < 100*time.Millisecond || progress <= 0.001 {
		p.lastUpdate = now
		p.lastProgress = progress
		return progress, 0
	}

	if sinceLast := now.Sub(p.lastUpdate).Seconds(); sinceLast > 0.05 {
		if delta := progress - p.lastProgress; delta > 0 {
			instant := delta / sinceLast
			if p.progressRate > 0 {
				p.progressRate = 0.7*p.progressRate + 0.3*instant
			} else {
				p.progressRate = progress / elapsed.Seconds()
			}
		}
		p.lastUpdate = now
		p.lastProgress = progress
	}
	return progress, p.etaLocked(progress)
}

// GetETA returns the current estimate without recording progress.
func (p *ProgressWithETA) GetETA() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.etaLocked(p.CalculateAverage())
}

// Average returns the mean progress of all evaluations.
func (p *ProgressWithETA) Average() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.CalculateAverage()
}

func (p *ProgressWithETA) etaLocked(progress float64) time.Duration {
	if p.progressRate <= 0 || progress >= 1 {
		return 0
	}
	eta := time.Duration((1 - progress) / p.progressRate * float64(time.Second))
	return min(eta, maxETA)
}

// FormatETA formats eta as "< 1s", "42s", "2m30s" or "1h15m".
func FormatETA(eta time.Duration) string {
	switch {
	case eta <= 0:
		return "calculating..."
	case eta < time.Second:
		return "< 1s"
	case eta < time.Minute:
		return fmt.Sprintf("%ds", int(eta.Seconds()))
	case eta < time.Hour:
		minutes, seconds := int(eta.Minutes()), int(eta.Seconds())%60
		if seconds > 0 {
			return fmt.Sprintf("%dm%ds", minutes, seconds)
		}
		return fmt.Sprintf("%dm", minutes)
	default:
		hours, minutes := int(eta.Hours()), int(eta.Minutes())%60
		if minutes > 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}
}

// FormatProgressBarWithETA renders "45.00% [████░░░░] ETA: 2m30s".
func FormatProgressBarWithETA(progress float64, eta time.Duration, width int) string {
	return fmt.Sprintf("%6.2f%% [%s] ETA: %s", progress*100, progressBar(progress, width), FormatETA(eta))
}
