package metrics

import (
	"math"
	"testing"

	"github.com/calebv/tracklab/internal/follower"
	"github.com/calebv/tracklab/internal/geom"
	"github.com/calebv/tracklab/internal/sim"
)

func errSample(t, x, y, h float64) sim.Sample {
	return sim.Sample{T: t, Error: geom.Pose{X: x, Y: y, Heading: h}}
}

func TestRMSError(t *testing.T) {
	m := NewRMSError(AxisX)
	m.Observe(errSample(0, 3, 100, 100))
	m.Observe(errSample(0.01, 4, 100, 100))

	// sqrt((9+16)/2)
	expected := math.Sqrt(12.5)
	if math.Abs(m.Value()-expected) > 1e-9 {
		t.Errorf("rms = %f, expected %f", m.Value(), expected)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("reset should zero the metric")
	}
}

func TestMaxAbsError(t *testing.T) {
	m := NewMaxAbsError(AxisHeading)
	m.Observe(errSample(0, 0, 0, 0.1))
	m.Observe(errSample(0.01, 0, 0, -0.5))
	m.Observe(errSample(0.02, 0, 0, 0.2))

	if m.Value() != 0.5 {
		t.Errorf("max = %f, expected 0.5", m.Value())
	}
}

func TestSettleTime(t *testing.T) {
	tol := follower.Tolerance{X: 0.1, Y: 0.1, Heading: 0.1}
	m := NewSettleTime(tol)

	m.Observe(errSample(0.0, 1, 0, 0))
	m.Observe(errSample(0.1, 0.05, 0, 0)) // enters
	m.Observe(errSample(0.2, 0.5, 0, 0))  // leaves again
	m.Observe(errSample(0.3, 0.05, 0, 0)) // re-enters for good
	m.Observe(errSample(0.4, 0.01, 0, 0))

	if m.Value() != 0.3 {
		t.Errorf("settle time = %f, expected 0.3 (last entry that sticks)", m.Value())
	}
}

func TestSettleTimeNeverSettles(t *testing.T) {
	m := NewSettleTime(follower.Tolerance{X: 0.01, Y: 0.01, Heading: 0.01})
	m.Observe(errSample(0, 1, 1, 1))
	if m.Value() != -1 {
		t.Errorf("expected -1 for an unsettled run, got %f", m.Value())
	}
}

func TestControlEffort(t *testing.T) {
	m := NewControlEffort()
	// Zero command against unit feedforward: the correction norm is 1.
	m.Observe(sim.Sample{TargetVel: geom.Pose{X: 1}})

	if math.Abs(m.Value()-1.0) > 1e-9 {
		t.Errorf("effort = %f, expected 1.0", m.Value())
	}
}

func TestControlEffortZeroWhenPureFeedforward(t *testing.T) {
	m := NewControlEffort()
	s := sim.Sample{TargetVel: geom.Pose{X: 1, Y: 0.5}}
	s.Command.Velocity = s.TargetVel
	m.Observe(s)

	if m.Value() != 0 {
		t.Errorf("pure feedforward should cost zero effort, got %f", m.Value())
	}
}

func TestStandardSet(t *testing.T) {
	set := Standard(follower.Tolerance{X: 0.1, Y: 0.1, Heading: 0.1})

	names := make(map[string]bool)
	for _, m := range set {
		if names[m.Name()] {
			t.Fatalf("duplicate metric name %q", m.Name())
		}
		names[m.Name()] = true
	}
	for _, want := range []string{"rms_error_x", "max_abs_error_heading", "settle_time", "control_effort"} {
		if !names[want] {
			t.Errorf("standard set missing %q", want)
		}
	}
}
