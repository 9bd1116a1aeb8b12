// Package metrics provides tracking-quality metrics over closed-loop run
// samples. Each type implements [sim.Metric].
package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/calebv/tracklab/internal/follower"
	"github.com/calebv/tracklab/internal/sim"
)

// Axis selects one robot-frame component of a pose-shaped quantity.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisHeading
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisHeading:
		return "heading"
	}
	return "unknown"
}

func (a Axis) errComponent(s sim.Sample) float64 {
	switch a {
	case AxisX:
		return s.Error.X
	case AxisY:
		return s.Error.Y
	default:
		return s.Error.Heading
	}
}

// RMSError is the root-mean-square tracking error on one axis.
type RMSError struct {
	axis Axis
	sq   []float64
}

func NewRMSError(axis Axis) *RMSError {
	return &RMSError{axis: axis}
}

func (r *RMSError) Name() string { return "rms_error_" + r.axis.String() }

func (r *RMSError) Observe(s sim.Sample) {
	e := r.axis.errComponent(s)
	r.sq = append(r.sq, e*e)
}

func (r *RMSError) Value() float64 {
	if len(r.sq) == 0 {
		return 0
	}
	return math.Sqrt(stat.Mean(r.sq, nil))
}

func (r *RMSError) Reset() { r.sq = r.sq[:0] }

// MaxAbsError is the peak absolute tracking error on one axis.
type MaxAbsError struct {
	axis Axis
	max  float64
}

func NewMaxAbsError(axis Axis) *MaxAbsError {
	return &MaxAbsError{axis: axis}
}

func (m *MaxAbsError) Name() string { return "max_abs_error_" + m.axis.String() }

func (m *MaxAbsError) Observe(s sim.Sample) {
	if e := math.Abs(m.axis.errComponent(s)); e > m.max {
		m.max = e
	}
}

func (m *MaxAbsError) Value() float64 { return m.max }
func (m *MaxAbsError) Reset()         { m.max = 0 }

// SettleTime is the first time the error enters the tolerance envelope and
// stays inside it for the rest of the run. Value returns -1 when the run
// never settles.
type SettleTime struct {
	tol follower.Tolerance

	settled   bool
	settledAt float64
}

func NewSettleTime(tol follower.Tolerance) *SettleTime {
	return &SettleTime{tol: tol}
}

func (s *SettleTime) Name() string { return "settle_time" }

func (s *SettleTime) Observe(sample sim.Sample) {
	inside := math.Abs(sample.Error.X) <= s.tol.X &&
		math.Abs(sample.Error.Y) <= s.tol.Y &&
		math.Abs(sample.Error.Heading) <= s.tol.Heading

	if inside {
		if !s.settled {
			s.settled = true
			s.settledAt = sample.T
		}
	} else {
		s.settled = false
	}
}

func (s *SettleTime) Value() float64 {
	if !s.settled {
		return -1
	}
	return s.settledAt
}

func (s *SettleTime) Reset() {
	s.settled = false
	s.settledAt = 0
}

// ControlEffort is the mean norm of the feedback correction, i.e. how hard
// the feedback loops worked on top of feedforward.
type ControlEffort struct {
	norms []float64
}

func NewControlEffort() *ControlEffort { return &ControlEffort{} }

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(s sim.Sample) {
	correction := s.Command.Velocity.Sub(s.TargetVel)
	c.norms = append(c.norms, correction.Norm())
}

func (c *ControlEffort) Value() float64 {
	if len(c.norms) == 0 {
		return 0
	}
	return stat.Mean(c.norms, nil)
}

func (c *ControlEffort) Reset() { c.norms = c.norms[:0] }

// Standard returns the default metric set for a run graded against tol.
func Standard(tol follower.Tolerance) []sim.Metric {
	return []sim.Metric{
		NewRMSError(AxisX), NewRMSError(AxisY), NewRMSError(AxisHeading),
		NewMaxAbsError(AxisX), NewMaxAbsError(AxisY), NewMaxAbsError(AxisHeading),
		NewSettleTime(tol),
		NewControlEffort(),
	}
}
