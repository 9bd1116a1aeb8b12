package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/calebv/tracklab/internal/follower"
	"github.com/calebv/tracklab/internal/kinematics"
	"github.com/calebv/tracklab/internal/trajectory"
)

// Run termination reasons.
const (
	ReasonDone     = "done"
	ReasonMaxTime  = "max_time"
	ReasonCanceled = "canceled"
)

// Runner drives a follower against a simulated plant on a mock clock. It
// plays the lifecycle role: per tick it senses, updates the follower,
// applies the command to the plant, and advances time.
type Runner struct {
	fol     follower.Follower
	plant   *Plant
	sensors *Sensors
	clk     *clock.Mock

	metrics   []Metric
	observers []Observer
	logger    *zap.SugaredLogger
}

// NewRunner wires a runner. clk must be the same mock clock injected into
// the follower so both agree on elapsed time.
func NewRunner(fol follower.Follower, plant *Plant, sensors *Sensors, clk *clock.Mock) *Runner {
	return &Runner{
		fol:     fol,
		plant:   plant,
		sensors: sensors,
		clk:     clk,
		logger:  zap.NewNop().Sugar(),
	}
}

// SetLogger replaces the default no-op logger.
func (r *Runner) SetLogger(l *zap.SugaredLogger) { r.logger = l }

func (r *Runner) AddMetric(m Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

// Run executes one closed-loop run of traj and returns the recorded result.
// The context cancels the run between ticks.
func (r *Runner) Run(ctx context.Context, traj trajectory.Trajectory, cfg Config) (*Result, error) {
	if cfg.Dt <= 0 {
		return nil, fmt.Errorf("%w: got %f", ErrBadTimestep, cfg.Dt)
	}

	maxTime := cfg.MaxTime
	if maxTime <= 0 {
		maxTime = traj.Duration() + 5.0
	}
	maxSteps := int(maxTime/cfg.Dt) + 1

	for _, m := range r.metrics {
		m.Reset()
	}

	result := &Result{
		Samples: make([]Sample, 0, maxSteps),
		Metrics: make(map[string]float64),
	}

	r.logger.Infow("run started", "duration", traj.Duration(), "dt", cfg.Dt)
	r.fol.Follow(traj)

	t := 0.0
	for step := 0; step < maxSteps; step++ {
		select {
		case <-ctx.Done():
			result.Reason = ReasonCanceled
			r.finalize(result)
			return result, ctx.Err()
		default:
		}

		measuredPose := r.sensors.Pose(r.plant.Pose)
		measuredVel := r.sensors.Velocity(r.plant.RobotVel)

		cmd := r.fol.Update(measuredPose, measuredVel)
		targetPose := traj.Pose(t)
		sample := Sample{
			T:         t,
			Target:    targetPose,
			TargetVel: kinematics.FieldToRobotVelocity(targetPose, traj.Velocity(t)),
			Actual:    r.plant.Pose,
			Error:     r.fol.LastError(),
			Command:   cmd,
		}
		result.Samples = append(result.Samples, sample)

		for _, m := range r.metrics {
			m.Observe(sample)
		}
		for _, obs := range r.observers {
			obs.OnSample(sample)
		}

		if !r.fol.IsFollowing() {
			result.Finished = true
			result.Reason = ReasonDone
			break
		}

		r.plant.Apply(cmd, cfg.Dt)
		if !r.plant.Pose.IsValid() || !r.plant.RobotVel.IsValid() {
			err := &RunError{Step: step, T: t, Wrapped: ErrInvalidState}
			r.finalize(result)
			return result, err
		}

		r.clk.Add(time.Duration(cfg.Dt * float64(time.Second)))
		t += cfg.Dt
	}

	if result.Reason == "" {
		result.Reason = ReasonMaxTime
	}
	r.finalize(result)
	r.logger.Infow("run ended", "reason", result.Reason, "steps", len(result.Samples))
	return result, nil
}

func (r *Runner) finalize(result *Result) {
	result.FinalError = r.fol.LastError()
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}
