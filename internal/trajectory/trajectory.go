// Package trajectory provides time-parameterized field-frame trajectories
// for the follower to track.
//
// Every implementation is total over all of time: sampling outside
// [0, Duration] clamps deterministically to the boundary sample.
package trajectory

import "github.com/calebv/tracklab/internal/geom"

// Trajectory maps elapsed time in seconds to field-frame targets.
type Trajectory interface {
	// Pose returns the field-frame target pose at time t.
	Pose(t float64) geom.Pose
	// Velocity returns the field-frame target velocity at time t.
	Velocity(t float64) geom.Pose
	// Acceleration returns the field-frame target acceleration at time t.
	Acceleration(t float64) geom.Pose
	// Duration returns the planned length of the trajectory in seconds.
	Duration() float64
}

// Hold is a zero-duration trajectory that parks at a fixed pose.
type Hold struct {
	pose geom.Pose
}

// NewHold returns a position-hold trajectory at the given pose.
func NewHold(pose geom.Pose) *Hold {
	return &Hold{pose: pose}
}

func (h *Hold) Pose(t float64) geom.Pose         { return h.pose }
func (h *Hold) Velocity(t float64) geom.Pose     { return geom.Pose{} }
func (h *Hold) Acceleration(t float64) geom.Pose { return geom.Pose{} }
func (h *Hold) Duration() float64                { return 0 }

// Sequence concatenates trajectories back to back.
type Sequence struct {
	segments []Trajectory
	total    float64
}

// NewSequence returns the concatenation of the given trajectories.
func NewSequence(segments ...Trajectory) *Sequence {
	total := 0.0
	for _, s := range segments {
		total += s.Duration()
	}
	return &Sequence{segments: segments, total: total}
}

// locate maps sequence time to a segment and local time, clamping at both
// ends.
func (s *Sequence) locate(t float64) (Trajectory, float64) {
	if len(s.segments) == 0 {
		return NewHold(geom.Pose{}), 0
	}
	if t < 0 {
		return s.segments[0], 0
	}
	for _, seg := range s.segments {
		if t <= seg.Duration() {
			return seg, t
		}
		t -= seg.Duration()
	}
	last := s.segments[len(s.segments)-1]
	return last, last.Duration()
}

func (s *Sequence) Pose(t float64) geom.Pose {
	seg, lt := s.locate(t)
	return seg.Pose(lt)
}

func (s *Sequence) Velocity(t float64) geom.Pose {
	seg, lt := s.locate(t)
	return seg.Velocity(lt)
}

func (s *Sequence) Acceleration(t float64) geom.Pose {
	seg, lt := s.locate(t)
	return seg.Acceleration(lt)
}

func (s *Sequence) Duration() float64 { return s.total }
