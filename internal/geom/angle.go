package geom

import "math"

// WrapAngle maps an angle in radians into (-pi, pi].
func WrapAngle(rad float64) float64 {
	if rad > math.Pi || rad <= -math.Pi {
		rad = math.Atan2(math.Sin(rad), math.Cos(rad))
		// atan2 returns -pi for inputs on the branch cut; keep +pi
		if rad == -math.Pi {
			rad = math.Pi
		}
	}
	return rad
}

// AngleDiff returns the shortest signed rotation from b to a, in (-pi, pi].
func AngleDiff(a, b float64) float64 {
	return WrapAngle(a - b)
}
