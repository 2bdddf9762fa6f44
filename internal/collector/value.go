package collector

import "math"

const gib = 1 << 30

// round rounds v to the given number of decimal places. Published state
// values carry the same precision the discovery payload advertises.
func round(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}

func toGB(bytes uint64, places int) float64 {
	return round(float64(bytes)/gib, places)
}
