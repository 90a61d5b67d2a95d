// sim/metrics_utils.go
package sim

import (
	"math"
)

// TicksPerMicrosecond converts simulation ticks (nanoseconds) to microseconds.
const TicksPerMicrosecond = 1000

type IntOrFloat64 interface {
	int | int64 | uint64 | float64
}

// CalculatePercentile is a util function that calculates the p-th percentile of a
// sorted data list by linear interpolation.
// return values are in microseconds; 0 for empty data
func CalculatePercentile[T IntOrFloat64](data []T, p float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}

	rank := p / 100.0 * float64(n-1)
	lowerIdx := int(math.Floor(rank))
	upperIdx := int(math.Ceil(rank))

	if lowerIdx == upperIdx {
		return float64(data[lowerIdx]) / TicksPerMicrosecond
	}
	if upperIdx >= n {
		return float64(data[n-1]) / TicksPerMicrosecond
	}
	lowerVal := float64(data[lowerIdx])
	upperVal := float64(data[upperIdx])
	return (lowerVal + (upperVal-lowerVal)*(rank-float64(lowerIdx))) / TicksPerMicrosecond
}

// CalculateMean is a util function that calculates the mean of a data list
// return values are in microseconds
func CalculateMean[T IntOrFloat64](numbers []T) float64 {
	if len(numbers) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, number := range numbers {
		sum += float64(number)
	}

	return (sum / float64(len(numbers))) / TicksPerMicrosecond
}
