package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/benbjohnson/clock"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/calebv/tracklab/internal/config"
	"github.com/calebv/tracklab/internal/follower"
	"github.com/calebv/tracklab/internal/metrics"
	"github.com/calebv/tracklab/internal/sim"
	"github.com/calebv/tracklab/internal/store"
	"github.com/calebv/tracklab/internal/tui"
	"github.com/calebv/tracklab/internal/tune"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	preset     string
	// Follow overrides
	kp      float64
	ki      float64
	kd      float64
	dt      float64
	maxTime float64
	lag     float64
	noise   float64
	seed    int64
	endX    float64
	endY    float64
	endHead float64
	// Tune options
	tuneMetric string
	tuneGains  string
	tuneValues string
	tuneOut    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tracklab",
		Short: "holonomic trajectory tracking lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".tracklab", "data directory")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose run logging")

	followCmd := &cobra.Command{
		Use:   "follow",
		Short: "run a closed-loop tracking simulation",
		RunE:  runFollow,
	}
	addRunFlags(followCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run tracking with live visualization",
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot tracking error of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run with samples as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRunJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRunCSV,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in run presets",
		RunE:  listPresetConfigs,
	}

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid-search gains against a run metric",
		RunE:  runTune,
	}
	addRunFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "rms_error_x", "metric to minimize")
	tuneCmd.Flags().StringVar(&tuneGains, "gains", "axial.kp,lateral.kp,heading.kp", "gains to search")
	tuneCmd.Flags().StringVar(&tuneValues, "values", "1,2,4,8", "candidate values per gain")
	tuneCmd.Flags().StringVar(&tuneOut, "out", "", "write best config to yaml file")

	rootCmd.AddCommand(followCmd, liveCmd, listCmd, plotCmd, exportCmd, exportJSONCmd, exportCSVCmd, presetsCmd, tuneCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&kp, "kp", config.DefaultKp, "proportional gain (all axes)")
	cmd.Flags().Float64Var(&ki, "ki", config.DefaultKi, "integral gain (all axes)")
	cmd.Flags().Float64Var(&kd, "kd", config.DefaultKd, "derivative gain (all axes)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "control tick in seconds")
	cmd.Flags().Float64Var(&maxTime, "time", 0, "hard time cap in seconds (0 = auto)")
	cmd.Flags().Float64Var(&lag, "lag", 0, "drive lag time constant")
	cmd.Flags().Float64Var(&noise, "noise", 0, "pose sensor noise stddev")
	cmd.Flags().Int64Var(&seed, "seed", 0, "sensor noise seed")
	cmd.Flags().Float64Var(&endX, "x", 1.0, "target x position")
	cmd.Flags().Float64Var(&endY, "y", 0.0, "target y position")
	cmd.Flags().Float64Var(&endHead, "heading", 0.0, "target heading in radians")
}

// buildConfig resolves the run configuration: preset, then config file, then
// explicit CLI flags, later sources winning.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("kp") {
		cfg.Gains.Axial.Kp, cfg.Gains.Lateral.Kp, cfg.Gains.Heading.Kp = kp, kp, kp
	}
	if cmd.Flags().Changed("ki") {
		cfg.Gains.Axial.Ki, cfg.Gains.Lateral.Ki, cfg.Gains.Heading.Ki = ki, ki, ki
	}
	if cmd.Flags().Changed("kd") {
		cfg.Gains.Axial.Kd, cfg.Gains.Lateral.Kd, cfg.Gains.Heading.Kd = kd, kd, kd
	}
	if cmd.Flags().Changed("dt") {
		cfg.Sim.Dt = dt
	}
	if cmd.Flags().Changed("lag") {
		cfg.Sim.DriveLag = lag
	}
	if cmd.Flags().Changed("noise") {
		cfg.Sim.NoiseXY = noise
	}
	if cmd.Flags().Changed("seed") {
		cfg.Sim.Seed = seed
	}
	if cmd.Flags().Changed("x") {
		cfg.Trajectory.End.X = endX
	}
	if cmd.Flags().Changed("y") {
		cfg.Trajectory.End.Y = endY
	}
	if cmd.Flags().Changed("heading") {
		cfg.Trajectory.End.Heading = endHead
	}

	return cfg, nil
}

// runOnce executes a single closed-loop run under cfg.
func runOnce(cfg *config.Config) (*sim.Result, error) {
	traj, err := cfg.BuildTrajectory()
	if err != nil {
		return nil, err
	}

	clk := clock.NewMock()
	fol := follower.NewHolonomic(
		cfg.Gains.Axial, cfg.Gains.Lateral, cfg.Gains.Heading,
		follower.WithClock(clk),
		follower.WithTolerance(cfg.Tolerance),
		follower.WithTimeout(time.Duration(cfg.Timeout*float64(time.Second))),
	)
	plant := sim.NewPlant(traj.Pose(0))
	plant.DriveLag = cfg.Sim.DriveLag
	sensors := sim.NewSensors(cfg.Sim.NoiseXY, cfg.Sim.NoiseHeading, cfg.Sim.VelocitySensing, cfg.Sim.Seed)

	runner := sim.NewRunner(fol, plant, sensors, clk)
	if verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		defer logger.Sync()
		runner.SetLogger(logger.Sugar())
	}
	for _, m := range metrics.Standard(cfg.Tolerance) {
		runner.AddMetric(m)
	}

	return runner.Run(context.Background(), traj, sim.Config{Dt: cfg.Sim.Dt, MaxTime: maxTime})
}

func runFollow(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	st := store.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	if verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()
		st.SetLogger(logger.Sugar())
	}

	traj, err := cfg.BuildTrajectory()
	if err != nil {
		return err
	}

	fmt.Println("running tracking simulation...")
	start := time.Now()

	result, err := runOnce(cfg)
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	runID, err := st.Save(cfg, preset, traj.Duration(), result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", len(result.Samples))
	fmt.Printf("finished: %v (%s)\n", result.Finished, result.Reason)
	fmt.Printf("final error: x=%+.4f y=%+.4f heading=%+.4f\n",
		result.FinalError.X, result.FinalError.Y, result.FinalError.Heading)

	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	m, err := tui.NewModel(cfg)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tPLANNED\tFINISHED\tREASON")

	for _, run := range runs {
		name := run.Preset
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%v\t%s\n",
			run.ID,
			name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Finished,
			run.Reason,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := store.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(samples))

	axes := []struct {
		caption string
		pick    func(s sim.Sample) float64
	}{
		{"x error (m)", func(s sim.Sample) float64 { return s.Error.X }},
		{"y error (m)", func(s sim.Sample) float64 { return s.Error.Y }},
		{"heading error (rad)", func(s sim.Sample) float64 { return s.Error.Heading }},
	}

	for _, ax := range axes {
		data := make([]float64, len(samples))
		for i, s := range samples {
			data[i] = ax.pick(s)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(ax.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportRunJSON(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	return store.ExportJSON(os.Stdout, meta, samples)
}

func exportRunCSV(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	return store.ExportCSV(os.Stdout, samples)
}

func listPresetConfigs(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTRAJECTORY\tDT\tLAG\tNOISE")

	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%.4fs\t%.3fs\t%.4f\n",
			name,
			p.Trajectory.Type,
			p.Sim.Dt,
			p.Sim.DriveLag,
			p.Sim.NoiseXY,
		)
	}

	return w.Flush()
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	values, err := parseFloats(tuneValues)
	if err != nil {
		return fmt.Errorf("bad --values: %w", err)
	}

	gs := tune.NewGridSearch()
	gainNames := strings.Split(tuneGains, ",")
	for _, name := range gainNames {
		gs.AddParam(strings.TrimSpace(name), values)
	}

	total := 1
	for range gainNames {
		total *= len(values)
	}
	fmt.Printf("searching %d candidates for min %s...\n", total, tuneMetric)
	start := time.Now()

	bestParams, bestVal, err := gs.Search(context.Background(), tuneMetric, func(params map[string]float64) (*sim.Result, error) {
		candidate := *cfg
		tune.ApplyGains(&candidate, params)
		return runOnce(&candidate)
	})
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n\n", time.Since(start))
	fmt.Printf("best %s: %.6f\n", tuneMetric, bestVal)
	names := make([]string, 0, len(bestParams))
	for name := range bestParams {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.4f\n", name, bestParams[name])
	}

	if tuneOut != "" {
		tune.ApplyGains(cfg, bestParams)
		if err := config.Save(tuneOut, cfg); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", tuneOut)
	}

	return nil
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
