package sim

import (
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/calebv/tracklab/internal/follower"
	"github.com/calebv/tracklab/internal/geom"
	"github.com/calebv/tracklab/internal/pidf"
	"github.com/calebv/tracklab/internal/trajectory"
)

type countingObserver struct {
	samples int
}

func (c *countingObserver) OnSample(s Sample) { c.samples++ }

type maxErrMetric struct {
	max float64
}

func (m *maxErrMetric) Name() string { return "max_abs_error_x" }
func (m *maxErrMetric) Observe(s Sample) {
	if e := s.Error.X; e > m.max || -e > m.max {
		if e < 0 {
			e = -e
		}
		m.max = e
	}
}
func (m *maxErrMetric) Value() float64 { return m.max }
func (m *maxErrMetric) Reset()         { m.max = 0 }

func newLoop(lag float64, velocitySensing bool) (*Runner, *clock.Mock) {
	mock := clock.NewMock()
	gains := pidf.Coefficients{Kp: 5, Ki: 0, Kd: 0}
	fol := follower.NewHolonomic(gains, gains, gains,
		follower.WithClock(mock),
		follower.WithTolerance(follower.Tolerance{X: 0.03, Y: 0.03, Heading: 0.03}),
		follower.WithTimeout(2*time.Second))

	plant := NewPlant(geom.Pose{})
	plant.DriveLag = lag
	sensors := NewSensors(0, 0, velocitySensing, 1)
	return NewRunner(fol, plant, sensors, mock), mock
}

var _ = Describe("Runner", func() {
	var traj trajectory.Trajectory

	BeforeEach(func() {
		var err error
		traj, err = trajectory.NewLine(geom.Pose{}, geom.Pose{X: 1, Y: 0.5, Heading: 0.8}, trajectory.DefaultConstraints())
		Expect(err).NotTo(HaveOccurred())
	})

	It("converges to the target with an ideal plant", func() {
		runner, _ := newLoop(0, true)
		result, err := runner.Run(context.Background(), traj, Config{Dt: 0.01})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Finished).To(BeTrue())
		Expect(result.Reason).To(Equal(ReasonDone))
		Expect(result.FinalError.X).To(BeNumerically("~", 0, 0.03))
		Expect(result.FinalError.Y).To(BeNumerically("~", 0, 0.03))
		Expect(result.FinalError.Heading).To(BeNumerically("~", 0, 0.03))
	})

	It("converges through a lagged drivetrain", func() {
		runner, _ := newLoop(0.05, true)
		result, err := runner.Run(context.Background(), traj, Config{Dt: 0.01})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Finished).To(BeTrue())
	})

	It("converges without velocity sensing", func() {
		runner, _ := newLoop(0.05, false)
		result, err := runner.Run(context.Background(), traj, Config{Dt: 0.01})

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Finished).To(BeTrue())
	})

	It("records one sample per tick with targets and errors", func() {
		runner, _ := newLoop(0, true)
		obs := &countingObserver{}
		metric := &maxErrMetric{}
		runner.AddObserver(obs)
		runner.AddMetric(metric)

		result, err := runner.Run(context.Background(), traj, Config{Dt: 0.01})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Samples).NotTo(BeEmpty())
		Expect(obs.samples).To(Equal(len(result.Samples)))
		Expect(result.Metrics).To(HaveKey("max_abs_error_x"))

		first := result.Samples[0]
		Expect(first.T).To(BeZero())
		Expect(first.Target).To(Equal(traj.Pose(0)))
	})

	It("rejects a non-positive timestep", func() {
		runner, _ := newLoop(0, true)
		_, err := runner.Run(context.Background(), traj, Config{Dt: 0})
		Expect(errors.Is(err, ErrBadTimestep)).To(BeTrue())
	})

	It("stops on context cancellation", func() {
		runner, _ := newLoop(0, true)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := runner.Run(ctx, traj, Config{Dt: 0.01})
		Expect(err).To(MatchError(context.Canceled))
		Expect(result.Reason).To(Equal(ReasonCanceled))
	})

	It("caps runaway runs at the configured max time", func() {
		mock := clock.NewMock()
		// Zero gains and a lagged plant cannot finish a hold at distance.
		zero := pidf.Coefficients{}
		fol := follower.NewHolonomic(zero, zero, zero,
			follower.WithClock(mock),
			follower.WithTimeout(time.Hour),
			follower.WithTolerance(follower.Tolerance{X: 1e-9, Y: 1e-9, Heading: 1e-9}))
		plant := NewPlant(geom.Pose{})
		runner := NewRunner(fol, plant, NewSensors(0, 0, false, 1), mock)

		result, err := runner.Run(context.Background(), trajectory.NewHold(geom.Pose{X: 3}), Config{Dt: 0.01, MaxTime: 0.5})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Finished).To(BeFalse())
		Expect(result.Reason).To(Equal(ReasonMaxTime))
		Expect(len(result.Samples)).To(BeNumerically("<=", 51))
	})
})
