package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/calebv/tracklab/internal/follower"
	"github.com/calebv/tracklab/internal/geom"
	"github.com/calebv/tracklab/internal/pidf"
	"github.com/calebv/tracklab/internal/trajectory"
)

const (
	DefaultDt        = 0.01
	DefaultTimeout   = 0.5
	DefaultKp        = 4.0
	DefaultKi        = 0.0
	DefaultKd        = 0.1
	DefaultTolXY     = 0.02
	DefaultTolHead   = 0.03
	DefaultMaxVel    = 1.0
	DefaultMaxAccel  = 2.0
	DefaultMaxAngVel = 3.14
)

// Config is the full description of one closed-loop run: gains, finishing
// criteria, the trajectory to follow, and the simulated plant.
type Config struct {
	Gains      GainsConfig        `yaml:"gains"`
	Tolerance  follower.Tolerance `yaml:"tolerance"`
	Timeout    float64            `yaml:"timeout"`
	Trajectory TrajectoryConfig   `yaml:"trajectory"`
	Sim        SimConfig          `yaml:"sim"`
}

// GainsConfig holds the per-axis feedback gains.
type GainsConfig struct {
	Axial   pidf.Coefficients `yaml:"axial"`
	Lateral pidf.Coefficients `yaml:"lateral"`
	Heading pidf.Coefficients `yaml:"heading"`
}

// TrajectoryConfig describes the trajectory to plan.
type TrajectoryConfig struct {
	Type        string                 `yaml:"type"`
	Start       geom.Pose              `yaml:"start"`
	End         geom.Pose              `yaml:"end"`
	Constraints trajectory.Constraints `yaml:"constraints"`
}

// SimConfig describes the simulated plant and sensor path.
type SimConfig struct {
	Dt              float64 `yaml:"dt"`
	DriveLag        float64 `yaml:"drive_lag"`
	NoiseXY         float64 `yaml:"noise_xy"`
	NoiseHeading    float64 `yaml:"noise_heading"`
	VelocitySensing bool    `yaml:"velocity_sensing"`
	Seed            int64   `yaml:"seed"`
}

func DefaultConfig() *Config {
	return &Config{
		Gains: GainsConfig{
			Axial:   pidf.Coefficients{Kp: DefaultKp, Ki: DefaultKi, Kd: DefaultKd},
			Lateral: pidf.Coefficients{Kp: DefaultKp, Ki: DefaultKi, Kd: DefaultKd},
			Heading: pidf.Coefficients{Kp: DefaultKp, Ki: DefaultKi, Kd: DefaultKd},
		},
		Tolerance: follower.Tolerance{X: DefaultTolXY, Y: DefaultTolXY, Heading: DefaultTolHead},
		Timeout:   DefaultTimeout,
		Trajectory: TrajectoryConfig{
			Type: "line",
			End:  geom.Pose{X: 1.0},
			Constraints: trajectory.Constraints{
				MaxVel:      DefaultMaxVel,
				MaxAccel:    DefaultMaxAccel,
				MaxAngVel:   DefaultMaxAngVel,
				MaxAngAccel: 2 * DefaultMaxAngVel,
			},
		},
		Sim: SimConfig{
			Dt:              DefaultDt,
			VelocitySensing: true,
			Seed:            1,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// BuildTrajectory plans the configured trajectory.
func (c *Config) BuildTrajectory() (trajectory.Trajectory, error) {
	switch c.Trajectory.Type {
	case "hold":
		return trajectory.NewHold(c.Trajectory.End), nil
	case "line", "":
		return trajectory.NewLine(c.Trajectory.Start, c.Trajectory.End, c.Trajectory.Constraints)
	default:
		return nil, fmt.Errorf("config: unknown trajectory type %q", c.Trajectory.Type)
	}
}
