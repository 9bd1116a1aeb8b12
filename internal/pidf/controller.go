// Package pidf provides a single-axis position-velocity feedback controller.
//
// A [Controller] tracks a target position and velocity set by the caller and
// produces a scalar correction from a position measurement and an optional
// velocity measurement. The error domain may be declared circular with
// [Controller.SetInputBounds], which makes the position error take the
// shortest path around the domain (used for heading axes).
package pidf

import (
	"math"
	"time"
)

// Coefficients are the static gains for one axis. The feedforward gains KV,
// KA, and KStatic default to zero; the follower composes trajectory
// feedforward itself and uses pure feedback per axis.
type Coefficients struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`

	KV      float64 `yaml:"kv"`
	KA      float64 `yaml:"ka"`
	KStatic float64 `yaml:"kstatic"`
}

// Controller is a PID-with-feedforward controller for one axis. Not safe for
// concurrent use; one instance belongs to one control loop.
type Controller struct {
	Coef Coefficients

	TargetPosition     float64
	TargetVelocity     float64
	TargetAcceleration float64

	inputLo, inputHi   float64
	boundedInput       bool
	outputLo, outputHi float64
	boundedOutput      bool

	integral float64
	prevErr  float64
	prevT    time.Duration
	first    bool
}

// New returns a controller with the given gains and zeroed state.
func New(coef Coefficients) *Controller {
	return &Controller{Coef: coef, first: true}
}

// SetInputBounds declares the measurement domain [lo, hi) circular: the
// position error wraps to the shortest path around it.
func (c *Controller) SetInputBounds(lo, hi float64) {
	if lo >= hi {
		return
	}
	c.inputLo, c.inputHi = lo, hi
	c.boundedInput = true
}

// SetOutputBounds clamps the controller output to [lo, hi] and limits the
// integral term to the same range to avoid windup.
func (c *Controller) SetOutputBounds(lo, hi float64) {
	if lo >= hi {
		return
	}
	c.outputLo, c.outputHi = lo, hi
	c.boundedOutput = true
}

// positionError computes targetPosition - measured, wrapped to the shortest
// path when the input domain is circular.
func (c *Controller) positionError(measuredPos float64) float64 {
	err := c.TargetPosition - measuredPos
	if !c.boundedInput {
		return err
	}
	span := c.inputHi - c.inputLo
	err = math.Mod(err, span)
	if err > span/2 {
		err -= span
	} else if err <= -span/2 {
		err += span
	}
	return err
}

// Update computes the correction for the current tick. elapsed is the time
// since the run started and must be monotonic across calls. measuredVel may
// be nil when velocity sensing is unavailable; the derivative term then
// falls back to differencing the position error.
//
// The derivative is computed against the raw measured velocity when one is
// supplied, never by differencing a position on top of it.
func (c *Controller) Update(elapsed time.Duration, measuredPos float64, measuredVel *float64) float64 {
	err := c.positionError(measuredPos)

	var out float64
	if c.first {
		c.first = false
		c.prevErr = err
		c.prevT = elapsed
		out = c.Coef.Kp * err
	} else {
		dt := (elapsed - c.prevT).Seconds()
		if dt > 0 {
			c.integral += err * dt
			if c.boundedOutput && c.Coef.Ki != 0 {
				lo, hi := c.outputLo/c.Coef.Ki, c.outputHi/c.Coef.Ki
				if lo > hi {
					lo, hi = hi, lo
				}
				c.integral = math.Min(math.Max(c.integral, lo), hi)
			}
		}

		var deriv float64
		switch {
		case measuredVel != nil:
			deriv = c.TargetVelocity - *measuredVel
		case dt > 0:
			deriv = (err - c.prevErr) / dt
		}

		c.prevErr = err
		if dt > 0 {
			c.prevT = elapsed
		}

		out = c.Coef.Kp*err + c.Coef.Ki*c.integral + c.Coef.Kd*deriv
	}

	out += c.Coef.KV*c.TargetVelocity + c.Coef.KA*c.TargetAcceleration
	if c.Coef.KStatic != 0 && out != 0 {
		out += math.Copysign(c.Coef.KStatic, out)
	}

	if c.boundedOutput {
		out = math.Min(math.Max(out, c.outputLo), c.outputHi)
	}
	return out
}

// Reset clears integral and derivative state.
func (c *Controller) Reset() {
	c.integral = 0
	c.prevErr = 0
	c.prevT = 0
	c.first = true
}

// GetParams returns tunable gains for live adjustment.
func (c *Controller) GetParams() map[string]float64 {
	return map[string]float64{
		"kp": c.Coef.Kp,
		"ki": c.Coef.Ki,
		"kd": c.Coef.Kd,
	}
}

// SetParam adjusts a gain by name.
func (c *Controller) SetParam(name string, value float64) {
	switch name {
	case "kp":
		c.Coef.Kp = value
	case "ki":
		c.Coef.Ki = value
	case "kd":
		c.Coef.Kd = value
	}
}
