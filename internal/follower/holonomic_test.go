package follower

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/calebv/tracklab/internal/geom"
	"github.com/calebv/tracklab/internal/kinematics"
	"github.com/calebv/tracklab/internal/pidf"
	"github.com/calebv/tracklab/internal/trajectory"
)

func pidfCoef(kp, ki, kd float64) pidf.Coefficients {
	return pidf.Coefficients{Kp: kp, Ki: ki, Kd: kd}
}

// rampTraj moves along +x at unit velocity with zero acceleration.
type rampTraj struct {
	duration float64
}

func (r rampTraj) Pose(t float64) geom.Pose {
	if t < 0 {
		t = 0
	}
	if t > r.duration {
		t = r.duration
	}
	return geom.Pose{X: t}
}

func (r rampTraj) Velocity(t float64) geom.Pose {
	if t < 0 || t > r.duration {
		return geom.Pose{}
	}
	return geom.Pose{X: 1}
}

func (r rampTraj) Acceleration(t float64) geom.Pose { return geom.Pose{} }
func (r rampTraj) Duration() float64                { return r.duration }

var _ = Describe("Holonomic", func() {
	var (
		mock *clock.Mock
		unit = pidfCoef(1, 0, 0)
	)

	BeforeEach(func() {
		mock = clock.NewMock()
	})

	Describe("feedforward composition", func() {
		It("passes trajectory velocity through unchanged when tracking is perfect", func() {
			line, err := trajectory.NewLine(geom.Pose{}, geom.Pose{X: 2, Y: 1, Heading: 0.5}, trajectory.DefaultConstraints())
			Expect(err).NotTo(HaveOccurred())

			h := NewHolonomic(pidfCoef(4, 0.5, 0.1), pidfCoef(4, 0.5, 0.1), pidfCoef(3, 0.2, 0.1), WithClock(mock))
			h.Follow(line)

			dt := 10 * time.Millisecond
			for i := 0; i < 100; i++ {
				mock.Add(dt)
				t := float64(i+1) * dt.Seconds()
				targetPose := line.Pose(t)
				targetRobotVel := kinematics.FieldToRobotVelocity(targetPose, line.Velocity(t))

				vel := targetRobotVel
				cmd := h.Update(targetPose, &vel)

				Expect(cmd.Velocity).To(Equal(targetRobotVel))
				Expect(h.LastError()).To(Equal(geom.Pose{}))
			}
		})

		It("adds a unit-gain proportional correction to the feedforward velocity", func() {
			h := NewHolonomic(unit, pidfCoef(0, 0, 0), pidfCoef(0, 0, 0), WithClock(mock))
			h.Follow(rampTraj{duration: 2})

			// At t=1 the target is (1,0,0) moving at (1,0,0); the robot
			// sits at the origin, so the axial error is 1.
			cmd := h.UpdateAt(time.Second, geom.Pose{}, nil)

			Expect(cmd.Velocity.X).To(BeNumerically("~", 2.0, 1e-12))
			Expect(cmd.Velocity.Y).To(BeNumerically("~", 0.0, 1e-12))
			Expect(cmd.Velocity.Heading).To(BeNumerically("~", 0.0, 1e-12))
			Expect(cmd.Acceleration).To(Equal(geom.Pose{}))
			Expect(h.LastError().X).To(BeNumerically("~", 1.0, 1e-12))
		})

		It("satisfies the composition law exactly for proportional gains", func() {
			h := NewHolonomic(pidfCoef(2, 0, 0), pidfCoef(3, 0, 0), pidfCoef(0.5, 0, 0), WithClock(mock))
			traj := trajectory.NewHold(geom.Pose{X: 1, Y: -2, Heading: 0.3})
			h.Follow(traj)

			pose := geom.Pose{X: 0.5, Y: 0.5, Heading: -0.1}
			cmd := h.UpdateAt(0, pose, nil)

			err := kinematics.PoseError(traj.Pose(0), pose)
			correction := geom.Pose{X: 2 * err.X, Y: 3 * err.Y, Heading: 0.5 * err.Heading}
			// Hold trajectories have zero feedforward velocity.
			Expect(cmd.Velocity).To(Equal(geom.Pose{}.Add(correction)))
		})
	})

	Describe("acceleration feedforward", func() {
		It("passes robot-frame acceleration through without feedback", func() {
			line, err := trajectory.NewLine(geom.Pose{}, geom.Pose{X: 5}, trajectory.DefaultConstraints())
			Expect(err).NotTo(HaveOccurred())

			h := NewHolonomic(unit, unit, unit, WithClock(mock))
			h.Follow(line)

			// Far off the trajectory: feedback is large, but acceleration
			// must still be the pure feedforward sample.
			elapsed := 100 * time.Millisecond
			t := elapsed.Seconds()
			cmd := h.UpdateAt(elapsed, geom.Pose{X: -3, Y: 2, Heading: 1}, nil)

			pose := line.Pose(t)
			expected := kinematics.FieldToRobotAcceleration(pose, line.Velocity(t), line.Acceleration(t))
			Expect(cmd.Acceleration).To(Equal(expected))
		})
	})

	Describe("heading wrap", func() {
		It("takes the shortest path across the pi boundary", func() {
			h := NewHolonomic(pidfCoef(0, 0, 0), pidfCoef(0, 0, 0), unit, WithClock(mock))
			h.Follow(trajectory.NewHold(geom.Pose{Heading: 3.0}))

			cmd := h.UpdateAt(0, geom.Pose{Heading: -3.0}, nil)
			expected := 6.0 - 2*math.Pi
			Expect(cmd.Velocity.Heading).To(BeNumerically("~", expected, 1e-9))
			Expect(math.Abs(h.LastError().Heading)).To(BeNumerically("<=", math.Pi))
		})

		It("is invariant under full-turn rotations of either heading", func() {
			runOnce := func(targetH, currentH float64) float64 {
				h := NewHolonomic(pidfCoef(0, 0, 0), pidfCoef(0, 0, 0), unit, WithClock(clock.NewMock()))
				h.Follow(trajectory.NewHold(geom.Pose{Heading: targetH}))
				return h.UpdateAt(0, geom.Pose{Heading: currentH}, nil).Velocity.Heading
			}

			base := runOnce(3.0, -3.0)
			Expect(runOnce(3.0+2*math.Pi, -3.0)).To(BeNumerically("~", base, 1e-9))
			Expect(runOnce(3.0, -3.0+2*math.Pi)).To(BeNumerically("~", base, 1e-9))
		})
	})

	Describe("axis independence", func() {
		It("leaves axial and heading corrections unchanged when lateral gains change", func() {
			traj := trajectory.NewHold(geom.Pose{X: 1, Y: 1, Heading: 0.5})
			pose := geom.Pose{X: 0.2, Y: -0.3, Heading: 0.1}

			run := func(lateral float64) DriveCommand {
				h := NewHolonomic(pidfCoef(2, 0.1, 0.05), pidfCoef(lateral, 0, 0), pidfCoef(1, 0.1, 0), WithClock(clock.NewMock()))
				h.Follow(traj)
				return h.UpdateAt(0, pose, nil)
			}

			a := run(1.0)
			b := run(50.0)
			Expect(b.Velocity.X).To(Equal(a.Velocity.X))
			Expect(b.Velocity.Heading).To(Equal(a.Velocity.Heading))
			Expect(b.Velocity.Y).NotTo(Equal(a.Velocity.Y))
		})
	})

	Describe("missing velocity measurement", func() {
		It("still corrects every axis when no velocity is sensed", func() {
			h := NewHolonomic(pidfCoef(1, 0, 0.5), pidfCoef(1, 0, 0.5), pidfCoef(1, 0, 0.5), WithClock(mock))
			h.Follow(trajectory.NewHold(geom.Pose{X: 1, Y: 1, Heading: 0.5}))

			cmd := h.UpdateAt(0, geom.Pose{}, nil)
			Expect(cmd.Velocity.X).NotTo(BeZero())
			Expect(cmd.Velocity.Y).NotTo(BeZero())
			Expect(cmd.Velocity.Heading).NotTo(BeZero())
		})
	})

	Describe("reset", func() {
		It("makes a re-followed run identical to a fresh instance", func() {
			traj := trajectory.NewHold(geom.Pose{X: 1})
			pose := geom.Pose{X: 0.4}

			h := NewHolonomic(pidfCoef(2, 1, 0.5), unit, unit, WithClock(mock))
			h.Follow(traj)
			for i := 0; i < 10; i++ {
				mock.Add(10 * time.Millisecond)
				h.Update(geom.Pose{X: 0.1 * float64(i)}, nil)
			}

			h.Follow(traj)
			again := h.Update(pose, nil)

			fresh := NewHolonomic(pidfCoef(2, 1, 0.5), unit, unit, WithClock(clock.NewMock()))
			fresh.Follow(traj)
			first := fresh.Update(pose, nil)

			Expect(again).To(Equal(first))
		})
	})

	Describe("lifecycle", func() {
		It("keeps following until the planned duration elapses", func() {
			h := NewHolonomic(unit, unit, unit, WithClock(mock), WithTolerance(Tolerance{X: 0.1, Y: 0.1, Heading: 0.1}))
			h.Follow(rampTraj{duration: 1})

			mock.Add(500 * time.Millisecond)
			h.Update(h.traj.Pose(0.5), nil)
			Expect(h.IsFollowing()).To(BeTrue())
		})

		It("finishes once past duration with admissible error", func() {
			h := NewHolonomic(unit, unit, unit, WithClock(mock), WithTolerance(Tolerance{X: 0.1, Y: 0.1, Heading: 0.1}))
			h.Follow(rampTraj{duration: 1})

			mock.Add(1100 * time.Millisecond)
			h.Update(geom.Pose{X: 1.05}, nil)
			Expect(h.IsFollowing()).To(BeFalse())
		})

		It("gives up after the timeout even with a large error", func() {
			h := NewHolonomic(unit, unit, unit, WithClock(mock),
				WithTolerance(Tolerance{X: 0.01, Y: 0.01, Heading: 0.01}),
				WithTimeout(200*time.Millisecond))
			h.Follow(rampTraj{duration: 1})

			mock.Add(1100 * time.Millisecond)
			h.Update(geom.Pose{X: -5}, nil)
			Expect(h.IsFollowing()).To(BeTrue())

			mock.Add(200 * time.Millisecond)
			h.Update(geom.Pose{X: -5}, nil)
			Expect(h.IsFollowing()).To(BeFalse())
		})

		It("returns a zero command before any trajectory is followed", func() {
			h := NewHolonomic(unit, unit, unit, WithClock(mock))
			Expect(h.Update(geom.Pose{X: 1}, nil)).To(Equal(DriveCommand{}))
			Expect(h.IsFollowing()).To(BeFalse())
		})
	})
})
