package allocator

import "math"

// ScoreStatistics summarises how far a set of scores sits from zero
type ScoreStatistics struct {
	Count            int
	Min              float64
	Max              float64
	Mean             float64
	Range            float64
	MeanAbsDeviation float64
	MaxAbsDeviation  float64
}

// CalculateScoreStatistics computes aggregate statistics over the given scores.
// Deviations are measured from zero. An empty input returns zero values.
func CalculateScoreStatistics(scores []float64) ScoreStatistics {
	if len(scores) == 0 {
		return ScoreStatistics{}
	}

	stats := ScoreStatistics{
		Count: len(scores),
		Min:   math.Inf(1),
		Max:   math.Inf(-1),
	}

	var sum, absSum float64
	for _, score := range scores {
		sum += score
		abs := math.Abs(score)
		absSum += abs
		stats.Min = math.Min(stats.Min, score)
		stats.Max = math.Max(stats.Max, score)
		stats.MaxAbsDeviation = math.Max(stats.MaxAbsDeviation, abs)
	}

	n := float64(len(scores))
	stats.Mean = sum / n
	stats.MeanAbsDeviation = absSum / n
	stats.Range = stats.Max - stats.Min

	return stats
}

// IsBalanced reports whether the statistics fall within both thresholds
func (s ScoreStatistics) IsBalanced(maxRange, maxMeanAbsDeviation float64) bool {
	return s.Range <= maxRange && s.MeanAbsDeviation <= maxMeanAbsDeviation
}
