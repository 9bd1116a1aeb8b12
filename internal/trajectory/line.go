package trajectory

import (
	"math"

	"github.com/calebv/tracklab/internal/geom"
)

// Constraints bound the motion of a planned trajectory segment.
type Constraints struct {
	MaxVel      float64 `yaml:"max_vel"`
	MaxAccel    float64 `yaml:"max_accel"`
	MaxAngVel   float64 `yaml:"max_ang_vel"`
	MaxAngAccel float64 `yaml:"max_ang_accel"`
}

// DefaultConstraints are sane bounds for a small holonomic robot.
func DefaultConstraints() Constraints {
	return Constraints{MaxVel: 1.0, MaxAccel: 2.0, MaxAngVel: math.Pi, MaxAngAccel: 2 * math.Pi}
}

// Line drives in a straight segment from start to end under a trapezoidal
// translation profile while the heading slews shortest-path under its own
// trapezoidal profile. The segment lasts as long as the slower of the two.
type Line struct {
	start geom.Pose

	dirX, dirY float64
	translate  *Profile
	turn       *Profile
	duration   float64
}

// NewLine plans a straight segment between the two poses.
func NewLine(start, end geom.Pose, c Constraints) (*Line, error) {
	dx, dy := end.X-start.X, end.Y-start.Y
	dist := math.Hypot(dx, dy)

	l := &Line{start: start}
	if dist > 0 {
		l.dirX, l.dirY = dx/dist, dy/dist
	}

	var err error
	l.translate, err = NewProfile(dist, c.MaxVel, c.MaxAccel)
	if err != nil {
		return nil, err
	}
	l.turn, err = NewProfile(geom.AngleDiff(end.Heading, start.Heading), c.MaxAngVel, c.MaxAngAccel)
	if err != nil {
		return nil, err
	}

	l.duration = math.Max(l.translate.Duration(), l.turn.Duration())
	return l, nil
}

func (l *Line) Pose(t float64) geom.Pose {
	d := l.translate.Position(t)
	return geom.Pose{
		X:       l.start.X + l.dirX*d,
		Y:       l.start.Y + l.dirY*d,
		Heading: geom.WrapAngle(l.start.Heading + l.turn.Position(t)),
	}
}

func (l *Line) Velocity(t float64) geom.Pose {
	v := l.translate.Velocity(t)
	return geom.Pose{
		X:       l.dirX * v,
		Y:       l.dirY * v,
		Heading: l.turn.Velocity(t),
	}
}

func (l *Line) Acceleration(t float64) geom.Pose {
	a := l.translate.Acceleration(t)
	return geom.Pose{
		X:       l.dirX * a,
		Y:       l.dirY * a,
		Heading: l.turn.Acceleration(t),
	}
}

func (l *Line) Duration() float64 { return l.duration }
