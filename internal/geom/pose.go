package geom

import "math"

// Pose is a planar (x, y, heading) triple. The same shape is reused for
// poses, velocities, accelerations, and tracking errors; the field frame or
// robot frame interpretation is documented at each call site. Heading is in
// radians and, for pose-like quantities, wrapped to (-pi, pi].
type Pose struct {
	X       float64 `json:"x" yaml:"x"`
	Y       float64 `json:"y" yaml:"y"`
	Heading float64 `json:"heading" yaml:"heading"`
}

// Add returns the componentwise sum. Heading is not wrapped; use
// [Pose.AddPose] when both operands are angular positions.
func (p Pose) Add(q Pose) Pose {
	return Pose{p.X + q.X, p.Y + q.Y, p.Heading + q.Heading}
}

// Sub returns the componentwise difference without heading wrapping.
func (p Pose) Sub(q Pose) Pose {
	return Pose{p.X - q.X, p.Y - q.Y, p.Heading - q.Heading}
}

// AddPose sums two poses, wrapping the resulting heading to (-pi, pi].
func (p Pose) AddPose(q Pose) Pose {
	return Pose{p.X + q.X, p.Y + q.Y, WrapAngle(p.Heading + q.Heading)}
}

// Scale returns the pose with every component multiplied by k.
func (p Pose) Scale(k float64) Pose {
	return Pose{p.X * k, p.Y * k, p.Heading * k}
}

// Norm returns the Euclidean norm over all three components.
func (p Pose) Norm() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Heading*p.Heading)
}

// IsValid reports whether every component is finite.
func (p Pose) IsValid() bool {
	for _, v := range [3]float64{p.X, p.Y, p.Heading} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Within reports whether every component of p is within the corresponding
// component of tol in absolute value.
func (p Pose) Within(tol Pose) bool {
	return math.Abs(p.X) <= tol.X &&
		math.Abs(p.Y) <= tol.Y &&
		math.Abs(p.Heading) <= tol.Heading
}
