package trajectory

import (
	"fmt"
	"math"
)

// Profile is a 1-D trapezoidal motion profile: accelerate at maxAccel, cruise
// at the peak velocity, decelerate symmetrically. When the distance is too
// short to reach maxVel the profile degenerates to a triangle.
type Profile struct {
	sign     float64
	dist     float64
	maxAccel float64

	peakVel    float64
	accelTime  float64
	cruiseTime float64
}

// NewProfile plans a profile covering the signed distance. maxVel and
// maxAccel must be positive.
func NewProfile(distance, maxVel, maxAccel float64) (*Profile, error) {
	if maxVel <= 0 {
		return nil, fmt.Errorf("trajectory: max velocity must be positive, got %f", maxVel)
	}
	if maxAccel <= 0 {
		return nil, fmt.Errorf("trajectory: max acceleration must be positive, got %f", maxAccel)
	}

	p := &Profile{sign: 1, dist: distance, maxAccel: maxAccel}
	if distance < 0 {
		p.sign = -1
		p.dist = -distance
	}
	if p.dist == 0 {
		return p, nil
	}

	// Distance consumed by a full speed-up plus slow-down.
	rampDist := p.maxVelRampDist(maxVel)
	if rampDist >= p.dist {
		// Triangular: peak below maxVel.
		p.peakVel = math.Sqrt(p.dist * maxAccel)
		p.accelTime = p.peakVel / maxAccel
		p.cruiseTime = 0
	} else {
		p.peakVel = maxVel
		p.accelTime = maxVel / maxAccel
		p.cruiseTime = (p.dist - rampDist) / maxVel
	}
	return p, nil
}

func (p *Profile) maxVelRampDist(maxVel float64) float64 {
	return maxVel * maxVel / p.maxAccel
}

// Duration returns the total profile time in seconds.
func (p *Profile) Duration() float64 {
	return 2*p.accelTime + p.cruiseTime
}

// Position returns the signed distance covered at time t, clamped to the
// profile's endpoints outside [0, Duration].
func (p *Profile) Position(t float64) float64 {
	if p.dist == 0 {
		return 0
	}
	switch {
	case t <= 0:
		return 0
	case t < p.accelTime:
		return p.sign * 0.5 * p.maxAccel * t * t
	case t < p.accelTime+p.cruiseTime:
		rampDist := 0.5 * p.peakVel * p.accelTime
		return p.sign * (rampDist + p.peakVel*(t-p.accelTime))
	case t < p.Duration():
		remaining := p.Duration() - t
		return p.sign * (p.dist - 0.5*p.maxAccel*remaining*remaining)
	default:
		return p.sign * p.dist
	}
}

// Velocity returns the signed velocity at time t; zero outside the profile.
func (p *Profile) Velocity(t float64) float64 {
	if p.dist == 0 {
		return 0
	}
	switch {
	case t <= 0:
		return 0
	case t < p.accelTime:
		return p.sign * p.maxAccel * t
	case t < p.accelTime+p.cruiseTime:
		return p.sign * p.peakVel
	case t < p.Duration():
		return p.sign * p.maxAccel * (p.Duration() - t)
	default:
		return 0
	}
}

// Acceleration returns the signed acceleration at time t; zero outside the
// profile.
func (p *Profile) Acceleration(t float64) float64 {
	if p.dist == 0 {
		return 0
	}
	switch {
	case t < 0:
		return 0
	case t < p.accelTime:
		return p.sign * p.maxAccel
	case t < p.accelTime+p.cruiseTime:
		return 0
	case t < p.Duration():
		return -p.sign * p.maxAccel
	default:
		return 0
	}
}
