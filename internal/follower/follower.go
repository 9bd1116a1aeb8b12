// Package follower implements closed-loop trajectory tracking for holonomic
// drivetrains.
//
// A [Follower] is driven by an external loop: the caller starts a run with
// Follow, then calls Update once per control tick with the measured pose.
// Each tick composes the trajectory's feedforward velocity with three
// independent feedback corrections (axial, lateral, heading) and returns a
// robot-frame [DriveCommand]. The follower performs no I/O and never blocks;
// the caller owns the tick cadence and stops calling Update once
// IsFollowing reports false.
package follower

import (
	"github.com/calebv/tracklab/internal/geom"
	"github.com/calebv/tracklab/internal/trajectory"
)

// DriveCommand is the output of one control tick. Velocity is the robot-frame
// velocity including feedback correction. Acceleration is the robot-frame
// feedforward acceleration, passed through uncorrected for downstream
// feedforward consumption.
type DriveCommand struct {
	Velocity     geom.Pose
	Acceleration geom.Pose
}

// Tolerance is the admissible per-axis error envelope. A run past its
// planned duration finishes once the tracking error is inside the envelope
// componentwise.
type Tolerance struct {
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Heading float64 `yaml:"heading"`
}

func (tol Tolerance) admits(err geom.Pose) bool {
	return err.Within(geom.Pose{X: tol.X, Y: tol.Y, Heading: tol.Heading})
}

// Follower tracks one trajectory at a time.
type Follower interface {
	// Follow starts a run: per-run state is reset and the elapsed-time
	// origin is captured.
	Follow(traj trajectory.Trajectory)
	// Update computes the drive command for the current tick. vel is the
	// measured robot-frame velocity, or nil when velocity sensing is
	// unavailable.
	Update(pose geom.Pose, vel *geom.Pose) DriveCommand
	// IsFollowing reports whether the run is still active.
	IsFollowing() bool
	// LastError returns the robot-frame pose error from the most recent
	// tick.
	LastError() geom.Pose
}
