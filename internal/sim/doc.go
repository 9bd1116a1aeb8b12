// Package sim provides a closed-loop simulation harness for exercising
// trajectory followers without hardware.
//
// The pieces mirror a real control stack:
//
//   - [Plant]: holonomic robot test double with optional velocity lag
//   - [Sensors]: measurement model (pose noise, optional velocity sensing)
//   - [Runner]: the lifecycle loop driving a follower against the plant
//   - [Metric], [Observer]: per-sample accumulation and live hooks
//
// # Example
//
//	mock := clock.NewMock()
//	fol := follower.NewHolonomic(ax, lat, hd, follower.WithClock(mock))
//	runner := sim.NewRunner(fol, sim.NewPlant(start), sensors, mock)
//	result, _ := runner.Run(ctx, traj, sim.Config{Dt: 0.01})
//
// # Thread Safety
//
// Runner instances are NOT thread-safe; one runner owns one follower and one
// plant for the duration of a run.
package sim
