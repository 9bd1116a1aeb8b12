package kinematics

import (
	"math"
	"testing"

	"github.com/calebv/tracklab/internal/geom"
)

func posesClose(a, b geom.Pose, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol &&
		math.Abs(a.Y-b.Y) <= tol &&
		math.Abs(a.Heading-b.Heading) <= tol
}

func TestFieldToRobotVelocity(t *testing.T) {
	tests := []struct {
		name     string
		pose     geom.Pose
		fieldVel geom.Pose
		expected geom.Pose
	}{
		{
			name:     "zero heading is identity",
			pose:     geom.Pose{X: 3, Y: -1, Heading: 0},
			fieldVel: geom.Pose{X: 1, Y: 2, Heading: 0.5},
			expected: geom.Pose{X: 1, Y: 2, Heading: 0.5},
		},
		{
			name:     "quarter turn swaps axes",
			pose:     geom.Pose{Heading: math.Pi / 2},
			fieldVel: geom.Pose{X: 1, Y: 0},
			expected: geom.Pose{X: 0, Y: -1},
		},
		{
			name:     "half turn negates translation",
			pose:     geom.Pose{Heading: math.Pi},
			fieldVel: geom.Pose{X: 1, Y: 2, Heading: 0.3},
			expected: geom.Pose{X: -1, Y: -2, Heading: 0.3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FieldToRobotVelocity(tt.pose, tt.fieldVel)
			if !posesClose(got, tt.expected, 1e-9) {
				t.Errorf("got %+v, expected %+v", got, tt.expected)
			}
		})
	}
}

func TestVelocityRoundTrip(t *testing.T) {
	pose := geom.Pose{X: 1, Y: 2, Heading: 0.7}
	vel := geom.Pose{X: 1.5, Y: -0.5, Heading: 0.2}

	back := RobotToFieldVelocity(pose, FieldToRobotVelocity(pose, vel))
	if !posesClose(back, vel, 1e-12) {
		t.Errorf("round trip changed velocity: got %+v, expected %+v", back, vel)
	}
}

func TestFieldToRobotAccelerationCentripetal(t *testing.T) {
	// Constant-speed circular motion: the robot frame sees the entire
	// field acceleration as a lateral centripetal term.
	r := 2.0
	omega := 0.5
	theta := 0.9

	pose := geom.Pose{X: r * math.Cos(theta), Y: r * math.Sin(theta), Heading: theta + math.Pi/2}
	fieldVel := geom.Pose{
		X:       -r * omega * math.Sin(theta),
		Y:       r * omega * math.Cos(theta),
		Heading: omega,
	}
	fieldAccel := geom.Pose{
		X: -r * omega * omega * math.Cos(theta),
		Y: -r * omega * omega * math.Sin(theta),
	}

	rv := FieldToRobotVelocity(pose, fieldVel)
	if math.Abs(rv.X-r*omega) > 1e-9 || math.Abs(rv.Y) > 1e-9 {
		t.Fatalf("robot velocity should be purely axial, got %+v", rv)
	}

	ra := FieldToRobotAcceleration(pose, fieldVel, fieldAccel)
	if math.Abs(ra.X) > 1e-9 {
		t.Errorf("axial acceleration should vanish at constant speed, got %f", ra.X)
	}
	// Rotated field accel is -r*w^2 lateral; the frame-rotation cross term
	// subtracts another r*w^2.
	expectedLat := -2 * r * omega * omega
	if math.Abs(ra.Y-expectedLat) > 1e-9 {
		t.Errorf("lateral acceleration = %f, expected %f", ra.Y, expectedLat)
	}
}

func TestFieldToRobotAccelerationZeroOmega(t *testing.T) {
	pose := geom.Pose{Heading: 0.4}
	fieldVel := geom.Pose{X: 1, Y: 1}
	fieldAccel := geom.Pose{X: 0.5, Y: -0.25, Heading: 0.1}

	got := FieldToRobotAcceleration(pose, fieldVel, fieldAccel)
	expected := FieldToRobotVelocity(pose, fieldAccel)
	if !posesClose(got, expected, 1e-12) {
		t.Errorf("with zero angular rate the transform should reduce to rotation: got %+v, expected %+v", got, expected)
	}
}

func TestPoseError(t *testing.T) {
	target := geom.Pose{X: 2, Y: 0, Heading: 0}
	current := geom.Pose{X: 0, Y: 0, Heading: math.Pi / 2}

	got := PoseError(target, current)
	// Field delta (2, 0) expressed in a frame facing +y: forward is y,
	// so the error is 2 to the robot's right (negative lateral).
	expected := geom.Pose{X: 0, Y: -2, Heading: -math.Pi / 2}
	if !posesClose(got, expected, 1e-9) {
		t.Errorf("got %+v, expected %+v", got, expected)
	}
}

func TestPoseErrorZero(t *testing.T) {
	p := geom.Pose{X: 1.5, Y: -2.5, Heading: 2.8}
	if got := PoseError(p, p); !posesClose(got, geom.Pose{}, 1e-12) {
		t.Errorf("error against self should be zero, got %+v", got)
	}
}

func TestPoseErrorHeadingWrap(t *testing.T) {
	target := geom.Pose{Heading: 3.0}
	current := geom.Pose{Heading: -3.0}

	got := PoseError(target, current)
	expected := 6.0 - 2*math.Pi
	if math.Abs(got.Heading-expected) > 1e-9 {
		t.Errorf("heading error = %f, expected %f (shortest path)", got.Heading, expected)
	}

	// Invariant under full turns of either operand.
	shifted := PoseError(geom.Pose{Heading: 3.0 + 2*math.Pi}, current)
	if math.Abs(shifted.Heading-got.Heading) > 1e-9 {
		t.Errorf("full-turn shift of target changed heading error: %f vs %f", shifted.Heading, got.Heading)
	}
	shifted = PoseError(target, geom.Pose{Heading: -3.0 + 2*math.Pi})
	if math.Abs(shifted.Heading-got.Heading) > 1e-9 {
		t.Errorf("full-turn shift of current changed heading error: %f vs %f", shifted.Heading, got.Heading)
	}
}
