package sim

import (
	"math/rand"

	"github.com/calebv/tracklab/internal/geom"
)

// Sensors models the measurement path between the plant and the follower:
// optional zero-mean gaussian pose noise and a switch for whether velocity
// sensing exists at all.
type Sensors struct {
	// NoiseXY is the translation noise sigma in meters per axis.
	NoiseXY float64
	// NoiseHeading is the heading noise sigma in radians.
	NoiseHeading float64
	// VelocitySensing controls whether Velocity returns a measurement or
	// nil.
	VelocitySensing bool

	rng *rand.Rand
}

// NewSensors builds a sensor model with a deterministic seed.
func NewSensors(noiseXY, noiseHeading float64, velocitySensing bool, seed int64) *Sensors {
	return &Sensors{
		NoiseXY:         noiseXY,
		NoiseHeading:    noiseHeading,
		VelocitySensing: velocitySensing,
		rng:             rand.New(rand.NewSource(seed)),
	}
}

// Pose returns the measured pose for the given true pose.
func (s *Sensors) Pose(actual geom.Pose) geom.Pose {
	if s.NoiseXY == 0 && s.NoiseHeading == 0 {
		return actual
	}
	return geom.Pose{
		X:       actual.X + s.rng.NormFloat64()*s.NoiseXY,
		Y:       actual.Y + s.rng.NormFloat64()*s.NoiseXY,
		Heading: geom.WrapAngle(actual.Heading + s.rng.NormFloat64()*s.NoiseHeading),
	}
}

// Velocity returns the measured robot-frame velocity, or nil when velocity
// sensing is disabled.
func (s *Sensors) Velocity(actual geom.Pose) *geom.Pose {
	if !s.VelocitySensing {
		return nil
	}
	v := actual
	return &v
}
