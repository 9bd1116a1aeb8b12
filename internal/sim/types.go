package sim

import (
	"github.com/calebv/tracklab/internal/follower"
	"github.com/calebv/tracklab/internal/geom"
)

// Sample is one recorded control tick of a closed-loop run. TargetVel is the
// robot-frame feedforward velocity, so Command.Velocity minus TargetVel is
// the feedback correction applied that tick.
type Sample struct {
	T         float64
	Target    geom.Pose
	TargetVel geom.Pose
	Actual    geom.Pose
	Error     geom.Pose
	Command   follower.DriveCommand
}

// Metric accumulates a scalar over the samples of one run.
type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Observer receives every sample as it is produced. Live views hook in here.
type Observer interface {
	OnSample(s Sample)
}

// Config parameterizes one closed-loop run.
type Config struct {
	// Dt is the control tick in seconds.
	Dt float64
	// MaxTime caps the run in seconds. Zero means the trajectory duration
	// plus a generous margin; the follower's own timeout normally stops
	// the run first.
	MaxTime float64
}

// Result collects everything recorded during a run.
type Result struct {
	Samples    []Sample
	Metrics    map[string]float64
	Finished   bool
	Reason     string
	FinalError geom.Pose
}
