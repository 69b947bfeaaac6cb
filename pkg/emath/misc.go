package emath

import "math"

// Some functions that only operate on basic types, that are useful

func Clamp(v, lo, hi float64) float64 {
	if v < lo { return lo }
	if v > hi { return hi }
	return v
}

// Round rounds half away from zero, which is what cvRound does for the
// values we feed it.
func Round(f float64) int {
	return int(math.Round(f))
}
