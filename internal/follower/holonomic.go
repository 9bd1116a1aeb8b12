package follower

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/calebv/tracklab/internal/geom"
	"github.com/calebv/tracklab/internal/kinematics"
	"github.com/calebv/tracklab/internal/pidf"
	"github.com/calebv/tracklab/internal/trajectory"
)

// Holonomic is a PID trajectory follower for a holonomic drivetrain. It runs
// one feedback controller per robot-frame axis, each fed the tracking error
// as its setpoint against a zero measurement, and adds the corrections to
// the trajectory's feedforward velocity.
//
// Not safe for concurrent use; one instance drives one robot.
type Holonomic struct {
	axial   *pidf.Controller
	lateral *pidf.Controller
	heading *pidf.Controller

	tol     Tolerance
	timeout time.Duration
	clk     clock.Clock

	traj      trajectory.Trajectory
	startTime time.Time
	following bool
	lastErr   geom.Pose
}

// Option configures a Holonomic follower.
type Option func(*Holonomic)

// WithClock injects the time source. Defaults to the wall clock; tests and
// the simulation harness inject a mock.
func WithClock(c clock.Clock) Option {
	return func(h *Holonomic) { h.clk = c }
}

// WithTimeout sets how long past the trajectory's planned duration the run
// may continue before it is abandoned regardless of error.
func WithTimeout(d time.Duration) Option {
	return func(h *Holonomic) { h.timeout = d }
}

// WithTolerance sets the admissible error envelope for finishing a run.
func WithTolerance(tol Tolerance) Option {
	return func(h *Holonomic) { h.tol = tol }
}

// NewHolonomic builds a follower from per-axis gains.
func NewHolonomic(axial, lateral, heading pidf.Coefficients, opts ...Option) *Holonomic {
	h := &Holonomic{
		axial:   pidf.New(axial),
		lateral: pidf.New(lateral),
		heading: pidf.New(heading),
		tol:     Tolerance{X: 0.02, Y: 0.02, Heading: 0.02},
		timeout: 500 * time.Millisecond,
		clk:     clock.New(),
	}
	for _, opt := range opts {
		opt(h)
	}
	// The heading axis lives on a circle: errors take the shortest path.
	h.heading.SetInputBounds(-math.Pi, math.Pi)
	return h
}

// Follow starts tracking traj. All three axis controllers are reset before
// the first tick.
func (h *Holonomic) Follow(traj trajectory.Trajectory) {
	h.traj = traj
	h.axial.Reset()
	h.lateral.Reset()
	h.heading.Reset()
	h.startTime = h.clk.Now()
	h.following = true
	h.lastErr = geom.Pose{}
}

// Update computes the drive command for the current tick using elapsed time
// from the injected clock.
func (h *Holonomic) Update(pose geom.Pose, vel *geom.Pose) DriveCommand {
	return h.UpdateAt(h.clk.Since(h.startTime), pose, vel)
}

// UpdateAt is Update with the elapsed time supplied by the caller.
func (h *Holonomic) UpdateAt(elapsed time.Duration, pose geom.Pose, vel *geom.Pose) DriveCommand {
	if h.traj == nil {
		return DriveCommand{}
	}

	t := elapsed.Seconds()
	targetPose := h.traj.Pose(t)
	targetVel := h.traj.Velocity(t)
	targetAccel := h.traj.Acceleration(t)

	targetRobotVel := kinematics.FieldToRobotVelocity(targetPose, targetVel)
	targetRobotAccel := kinematics.FieldToRobotAcceleration(targetPose, targetVel, targetAccel)
	poseErr := kinematics.PoseError(targetPose, pose)

	var mx, my, mh *float64
	if vel != nil {
		mx, my, mh = &vel.X, &vel.Y, &vel.Heading
	}

	correction := geom.Pose{
		X:       axisCorrection(h.axial, elapsed, poseErr.X, targetRobotVel.X, mx),
		Y:       axisCorrection(h.lateral, elapsed, poseErr.Y, targetRobotVel.Y, my),
		Heading: axisCorrection(h.heading, elapsed, poseErr.Heading, targetRobotVel.Heading, mh),
	}

	h.lastErr = poseErr
	h.updateFinished(t, poseErr)

	return DriveCommand{
		Velocity:     targetRobotVel.Add(correction),
		Acceleration: targetRobotAccel,
	}
}

// axisCorrection drives one axis controller with the error as its setpoint
// against a zero position measurement. Equivalent to feeding (target,
// measured) directly for a controller whose feedback is linear in their
// difference, and keeps the error computation in one place.
func axisCorrection(c *pidf.Controller, elapsed time.Duration, posErr, targetVel float64, measuredVel *float64) float64 {
	c.TargetPosition = posErr
	c.TargetVelocity = targetVel
	return c.Update(elapsed, 0, measuredVel)
}

func (h *Holonomic) updateFinished(t float64, poseErr geom.Pose) {
	duration := h.traj.Duration()
	switch {
	case t > duration+h.timeout.Seconds():
		h.following = false
	case t >= duration && h.tol.admits(poseErr):
		h.following = false
	}
}

// IsFollowing reports whether the current run is still active.
func (h *Holonomic) IsFollowing() bool { return h.following }

// LastError returns the robot-frame pose error from the most recent tick.
func (h *Holonomic) LastError() geom.Pose { return h.lastErr }

// Axes returns the per-axis controllers for gain inspection and live tuning.
func (h *Holonomic) Axes() (axial, lateral, heading *pidf.Controller) {
	return h.axial, h.lateral, h.heading
}
