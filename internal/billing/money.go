package billing

import "math"

// Round2 rounds to two decimal places using round-half-up. Applied to every
// stored money amount so floating error never accumulates in totals.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
