package sim

import (
	"math"

	"github.com/calebv/tracklab/internal/follower"
	"github.com/calebv/tracklab/internal/geom"
	"github.com/calebv/tracklab/internal/kinematics"
)

// Plant is a holonomic robot test double: it accepts drive commands and
// integrates the resulting field-frame pose. With a nonzero DriveLag the
// actual robot-frame velocity follows the commanded one through a
// first-order lag, which is enough to make feedback earn its keep.
type Plant struct {
	// Pose is the true field-frame pose.
	Pose geom.Pose
	// RobotVel is the true robot-frame velocity.
	RobotVel geom.Pose
	// DriveLag is the velocity tracking time constant in seconds; zero
	// means commands take effect instantly.
	DriveLag float64

	integrator Integrator
}

// NewPlant places an ideal plant at the given pose using RK4 integration.
func NewPlant(start geom.Pose) *Plant {
	return &Plant{Pose: start, integrator: NewRK4()}
}

// SetIntegrator swaps the pose integrator.
func (p *Plant) SetIntegrator(i Integrator) { p.integrator = i }

// Apply advances the plant by one tick of dt seconds under cmd. The
// commanded acceleration is feedforward information for a real drivetrain;
// the plant's velocity dynamics only consume the velocity command.
func (p *Plant) Apply(cmd follower.DriveCommand, dt float64) {
	if p.DriveLag <= 0 {
		p.RobotVel = cmd.Velocity
	} else {
		alpha := 1 - math.Exp(-dt/p.DriveLag)
		p.RobotVel = p.RobotVel.Add(cmd.Velocity.Sub(p.RobotVel).Scale(alpha))
	}

	vel := p.RobotVel
	deriv := func(pose geom.Pose) geom.Pose {
		return kinematics.RobotToFieldVelocity(pose, vel)
	}
	next := p.integrator.Step(deriv, p.Pose, dt)
	next.Heading = geom.WrapAngle(next.Heading)
	p.Pose = next
}
