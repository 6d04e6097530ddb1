// Package stats contains statistics calculations and reporting.
package stats

import "math"

// Snapshot is the derived view of a session's counters at one instant.
// WPM stays a real number internally; callers round at presentation time.
type Snapshot struct {
	WPM      float64
	Accuracy int
	Progress int
}

// Compute derives WPM, accuracy, and completion progress from cumulative
// counters. Pure and idempotent; all inputs are clamped rather than rejected.
func Compute(correctChars, incorrectChars int, elapsedSeconds float64, currentWordIndex, totalWords int) Snapshot {
	snap := Snapshot{Accuracy: 100}

	total := correctChars + incorrectChars
	if total > 0 {
		snap.Accuracy = int(math.Round(100 * float64(correctChars) / float64(total)))
	}

	if elapsedSeconds > 0 {
		minutes := elapsedSeconds / 60
		snap.WPM = (float64(correctChars) / 5) / minutes
	}

	if totalWords > 0 {
		progress := int(math.Round(100 * float64(currentWordIndex) / float64(totalWords)))
		if progress < 0 {
			progress = 0
		}
		if progress > 100 {
			progress = 100
		}
		snap.Progress = progress
	}
	return snap
}

// RoundWPM rounds a WPM value for display or broadcast.
func RoundWPM(wpm float64) int {
	return int(math.Round(wpm))
}

// ChartSample is one {second, wpm} point of the post-race chart.
type ChartSample struct {
	Time int
	WPM  float64
}

// ChartSeries is the monotonically-growing WPM-over-time series recorded
// during a race. Samples are never mutated retroactively; the first sample
// recorded for a time bucket wins.
type ChartSeries struct {
	samples []ChartSample
	seen    map[int]struct{}
}

// Add records a sample unless its time bucket already holds one.
func (s *ChartSeries) Add(timeBucket int, wpm float64) {
	if s.seen == nil {
		s.seen = map[int]struct{}{}
	}
	if _, ok := s.seen[timeBucket]; ok {
		return
	}
	s.seen[timeBucket] = struct{}{}
	s.samples = append(s.samples, ChartSample{Time: timeBucket, WPM: wpm})
}

// Samples returns the recorded points in insertion order.
func (s *ChartSeries) Samples() []ChartSample {
	out := make([]ChartSample, len(s.samples))
	copy(out, s.samples)
	return out
}

// WPMValues returns just the WPM values, for plotting.
func (s *ChartSeries) WPMValues() []float64 {
	out := make([]float64, len(s.samples))
	for i, sample := range s.samples {
		out[i] = sample.WPM
	}
	return out
}
