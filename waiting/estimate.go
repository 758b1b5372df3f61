package waiting

import "math"

// Estimate projects the wait in whole minutes for a queue of the given
// length, using a linear model: queue drain time at the corner's service
// rate plus a fixed overhead. Clamped at zero for display.
func Estimate(queueLen int, serviceRatePerMinute, overheadMinutes float64) int {
	if queueLen < 0 {
		queueLen = 0
	}

	if serviceRatePerMinute <= 0 {
		// A stalled corner still gets the overhead floor rather than a
		// division blow-up.
		return int(math.Round(math.Max(overheadMinutes, 0)))
	}

	minutes := float64(queueLen)/serviceRatePerMinute + overheadMinutes
	if minutes < 0 {
		minutes = 0
	}

	return int(math.Round(minutes))
}
