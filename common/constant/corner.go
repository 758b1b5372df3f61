package constant

// Per-corner service model for the wait-time estimate. Rates are trays per
// minute observed at the counter, overhead is the fixed walk-and-pickup cost.
// Corners missing from the tables fall back to the defaults.

const (
	DefaultServiceRatePerMinute = 2.5
	DefaultOverheadMinutes      = 1.0
)

var ServiceRateByCorner = map[string]float64{
	"student-a":  3.0, // rice bowls, fastest line
	"student-b":  2.5,
	"staff":      2.0,
	"snack":      4.0,
	"western":    1.8, // made to order
	"self-ramen": 3.5,
}

var OverheadMinutesByCorner = map[string]float64{
	"student-a":  1.0,
	"student-b":  1.0,
	"staff":      1.5,
	"snack":      0.5,
	"western":    2.0,
	"self-ramen": 0.5,
}

// CornerServiceRate returns the service rate for a corner, falling back to
// the campus-wide default for unknown corners.
func CornerServiceRate(cornerId string) float64 {
	if rate, ok := ServiceRateByCorner[cornerId]; ok {
		return rate
	}
	return DefaultServiceRatePerMinute
}

func CornerOverheadMinutes(cornerId string) float64 {
	if overhead, ok := OverheadMinutesByCorner[cornerId]; ok {
		return overhead
	}
	return DefaultOverheadMinutes
}
