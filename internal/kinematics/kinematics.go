// Package kinematics converts field-frame trajectory quantities into the
// robot frame of a holonomic drivetrain.
//
// The field frame is the fixed world frame; the robot frame has its x axis
// along the robot's forward (axial) direction and y along the strafe
// (lateral) direction. Rotating a field vector by the negative of the
// robot's heading expresses it in the robot frame.
package kinematics

import (
	"math"

	"github.com/calebv/tracklab/internal/geom"
)

// rotate expresses the (x, y) part of v in a frame rotated by theta,
// leaving the heading component alone.
func rotate(v geom.Pose, theta float64) geom.Pose {
	c, s := math.Cos(theta), math.Sin(theta)
	return geom.Pose{
		X:       c*v.X - s*v.Y,
		Y:       s*v.X + c*v.Y,
		Heading: v.Heading,
	}
}

// FieldToRobotVelocity expresses a field-frame velocity in the robot frame
// of the given pose. The angular rate is frame independent.
func FieldToRobotVelocity(pose, fieldVel geom.Pose) geom.Pose {
	return rotate(fieldVel, -pose.Heading)
}

// RobotToFieldVelocity is the inverse of FieldToRobotVelocity.
func RobotToFieldVelocity(pose, robotVel geom.Pose) geom.Pose {
	return rotate(robotVel, pose.Heading)
}

// FieldToRobotAcceleration expresses a field-frame acceleration in the robot
// frame. Because the robot frame rotates at the angular rate
// fieldVel.Heading, the result carries a cross term in addition to the
// rotated field acceleration: a pure turn at constant speed still shows a
// lateral (centripetal) acceleration in the robot frame.
func FieldToRobotAcceleration(pose, fieldVel, fieldAccel geom.Pose) geom.Pose {
	rv := FieldToRobotVelocity(pose, fieldVel)
	ra := rotate(fieldAccel, -pose.Heading)
	omega := fieldVel.Heading
	return geom.Pose{
		X:       ra.X + omega*rv.Y,
		Y:       ra.Y - omega*rv.X,
		Heading: fieldAccel.Heading,
	}
}

// PoseError returns the error from current to target, with the translation
// expressed in the robot frame of the current pose and the heading error
// wrapped to (-pi, pi].
func PoseError(target, current geom.Pose) geom.Pose {
	delta := rotate(geom.Pose{X: target.X - current.X, Y: target.Y - current.Y}, -current.Heading)
	return geom.Pose{
		X:       delta.X,
		Y:       delta.Y,
		Heading: geom.AngleDiff(target.Heading, current.Heading),
	}
}
