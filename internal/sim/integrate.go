package sim

import "github.com/calebv/tracklab/internal/geom"

// Integrator advances a field-frame pose under a pose-rate function.
type Integrator interface {
	Step(deriv func(geom.Pose) geom.Pose, p geom.Pose, dt float64) geom.Pose
}

// Euler is first-order explicit integration.
type Euler struct{}

func NewEuler() *Euler { return &Euler{} }

func (e *Euler) Step(deriv func(geom.Pose) geom.Pose, p geom.Pose, dt float64) geom.Pose {
	return p.Add(deriv(p).Scale(dt))
}

// RK4 is classical fourth-order Runge-Kutta. The heading-dependent rotation
// between robot and field frames makes the pose rate a genuine ODE, so the
// extra order pays off at coarse ticks.
type RK4 struct{}

func NewRK4() *RK4 { return &RK4{} }

func (r *RK4) Step(deriv func(geom.Pose) geom.Pose, p geom.Pose, dt float64) geom.Pose {
	k1 := deriv(p)
	k2 := deriv(p.Add(k1.Scale(dt * 0.5)))
	k3 := deriv(p.Add(k2.Scale(dt * 0.5)))
	k4 := deriv(p.Add(k3.Scale(dt)))

	incr := k1.Add(k2.Scale(2)).Add(k3.Scale(2)).Add(k4).Scale(dt / 6.0)
	return p.Add(incr)
}
