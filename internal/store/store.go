// Package store persists closed-loop runs as per-run directories holding
// metadata.json and samples.csv.
package store

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/calebv/tracklab/internal/config"
	"github.com/calebv/tracklab/internal/geom"
	"github.com/calebv/tracklab/internal/sim"
)

type Store struct {
	baseDir string
	logger  *zap.SugaredLogger
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, logger: zap.NewNop().Sugar()}
}

// SetLogger replaces the default no-op logger.
func (s *Store) SetLogger(l *zap.SugaredLogger) { s.logger = l }

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes one stored run.
type RunMetadata struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Preset    string             `json:"preset,omitempty"`
	Duration  float64            `json:"duration"`
	Finished  bool               `json:"finished"`
	Reason    string             `json:"reason"`
	Config    *config.Config     `json:"config"`
	Metrics   map[string]float64 `json:"metrics"`
}

var sampleHeader = []string{
	"time",
	"target_x", "target_y", "target_heading",
	"actual_x", "actual_y", "actual_heading",
	"err_x", "err_y", "err_heading",
	"cmd_vx", "cmd_vy", "cmd_omega",
}

// Save writes a run directory and returns its ID.
func (s *Store) Save(cfg *config.Config, preset string, duration float64, result *sim.Result) (string, error) {
	runID := uuid.NewString()
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Timestamp: time.Now(),
		Preset:    preset,
		Duration:  duration,
		Finished:  result.Finished,
		Reason:    result.Reason,
		Config:    cfg,
		Metrics:   result.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "samples.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write(sampleHeader); err != nil {
		return "", err
	}
	for _, sm := range result.Samples {
		row := make([]string, 0, len(sampleHeader))
		for _, v := range []float64{
			sm.T,
			sm.Target.X, sm.Target.Y, sm.Target.Heading,
			sm.Actual.X, sm.Actual.Y, sm.Actual.Heading,
			sm.Error.X, sm.Error.Y, sm.Error.Heading,
			sm.Command.Velocity.X, sm.Command.Velocity.Y, sm.Command.Velocity.Heading,
		} {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	s.logger.Infow("run saved", "id", runID, "steps", len(result.Samples))
	return runID, nil
}

// List returns metadata for every stored run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

// Load reads one run's metadata.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSamples reads back a run's recorded ticks. Feedforward velocity is not
// stored, so the TargetVel field of the returned samples is zero.
func (s *Store) LoadSamples(runID string) ([]sim.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "samples.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	samples := make([]sim.Sample, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < len(sampleHeader) {
			continue
		}
		vals := make([]float64, len(sampleHeader))
		ok := true
		for i := range vals {
			v, err := strconv.ParseFloat(record[i], 64)
			if err != nil {
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			continue
		}

		var sm sim.Sample
		sm.T = vals[0]
		sm.Target = geom.Pose{X: vals[1], Y: vals[2], Heading: vals[3]}
		sm.Actual = geom.Pose{X: vals[4], Y: vals[5], Heading: vals[6]}
		sm.Error = geom.Pose{X: vals[7], Y: vals[8], Heading: vals[9]}
		sm.Command.Velocity = geom.Pose{X: vals[10], Y: vals[11], Heading: vals[12]}
		samples = append(samples, sm)
	}

	return samples, nil
}
