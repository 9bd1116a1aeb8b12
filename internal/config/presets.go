package config

import (
	"sort"

	"github.com/calebv/tracklab/internal/follower"
	"github.com/calebv/tracklab/internal/geom"
	"github.com/calebv/tracklab/internal/pidf"
	"github.com/calebv/tracklab/internal/trajectory"
)

// Presets are named run setups exercising different plant conditions.
var Presets = map[string]*Config{
	"sprint": {
		Gains: GainsConfig{
			Axial:   pidf.Coefficients{Kp: 6.0, Kd: 0.2},
			Lateral: pidf.Coefficients{Kp: 6.0, Kd: 0.2},
			Heading: pidf.Coefficients{Kp: 5.0, Kd: 0.1},
		},
		Tolerance: follower.Tolerance{X: 0.05, Y: 0.05, Heading: 0.05},
		Timeout:   1.0,
		Trajectory: TrajectoryConfig{
			Type: "line",
			End:  geom.Pose{X: 3.0},
			Constraints: trajectory.Constraints{
				MaxVel: 2.5, MaxAccel: 4.0, MaxAngVel: 3.14, MaxAngAccel: 6.28,
			},
		},
		Sim: SimConfig{Dt: 0.01, DriveLag: 0.05, VelocitySensing: true, Seed: 1},
	},
	"precise": {
		Gains: GainsConfig{
			Axial:   pidf.Coefficients{Kp: 4.0, Ki: 0.5, Kd: 0.1},
			Lateral: pidf.Coefficients{Kp: 4.0, Ki: 0.5, Kd: 0.1},
			Heading: pidf.Coefficients{Kp: 3.0, Ki: 0.3, Kd: 0.05},
		},
		Tolerance: follower.Tolerance{X: 0.005, Y: 0.005, Heading: 0.01},
		Timeout:   2.0,
		Trajectory: TrajectoryConfig{
			Type: "line",
			End:  geom.Pose{X: 0.5, Y: 0.5, Heading: 1.57},
			Constraints: trajectory.Constraints{
				MaxVel: 0.3, MaxAccel: 0.6, MaxAngVel: 1.0, MaxAngAccel: 2.0,
			},
		},
		Sim: SimConfig{Dt: 0.005, DriveLag: 0.05, VelocitySensing: true, Seed: 1},
	},
	"noisy": {
		Gains: GainsConfig{
			Axial:   pidf.Coefficients{Kp: 3.0, Kd: 0.05},
			Lateral: pidf.Coefficients{Kp: 3.0, Kd: 0.05},
			Heading: pidf.Coefficients{Kp: 2.5, Kd: 0.02},
		},
		Tolerance: follower.Tolerance{X: 0.05, Y: 0.05, Heading: 0.08},
		Timeout:   2.0,
		Trajectory: TrajectoryConfig{
			Type: "line",
			End:  geom.Pose{X: 1.5, Y: 1.0},
			Constraints: trajectory.Constraints{
				MaxVel: 1.0, MaxAccel: 2.0, MaxAngVel: 3.14, MaxAngAccel: 6.28,
			},
		},
		Sim: SimConfig{Dt: 0.01, DriveLag: 0.05, NoiseXY: 0.005, NoiseHeading: 0.002, VelocitySensing: true, Seed: 7},
	},
	"blind": {
		Gains: GainsConfig{
			Axial:   pidf.Coefficients{Kp: 4.0},
			Lateral: pidf.Coefficients{Kp: 4.0},
			Heading: pidf.Coefficients{Kp: 3.0},
		},
		Tolerance: follower.Tolerance{X: 0.03, Y: 0.03, Heading: 0.05},
		Timeout:   1.5,
		Trajectory: TrajectoryConfig{
			Type: "line",
			End:  geom.Pose{X: 1.0, Y: -1.0, Heading: -0.78},
			Constraints: trajectory.Constraints{
				MaxVel: 1.0, MaxAccel: 2.0, MaxAngVel: 3.14, MaxAngAccel: 6.28,
			},
		},
		// No velocity sensing: derivative terms fall back to differenced error.
		Sim: SimConfig{Dt: 0.01, DriveLag: 0.08, VelocitySensing: false, Seed: 1},
	},
	"spin": {
		Gains: GainsConfig{
			Axial:   pidf.Coefficients{Kp: 4.0},
			Lateral: pidf.Coefficients{Kp: 4.0},
			Heading: pidf.Coefficients{Kp: 5.0, Kd: 0.1},
		},
		Tolerance: follower.Tolerance{X: 0.02, Y: 0.02, Heading: 0.02},
		Timeout:   1.0,
		Trajectory: TrajectoryConfig{
			Type: "line",
			End:  geom.Pose{Heading: 3.0},
			Constraints: trajectory.Constraints{
				MaxVel: 1.0, MaxAccel: 2.0, MaxAngVel: 2.0, MaxAngAccel: 4.0,
			},
		},
		Sim: SimConfig{Dt: 0.01, DriveLag: 0.05, VelocitySensing: true, Seed: 1},
	},
}

func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
