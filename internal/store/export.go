package store

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/calebv/tracklab/internal/sim"
)

// ExportData is the flat JSON shape for a full run export.
type ExportData struct {
	ID       string             `json:"id"`
	Preset   string             `json:"preset,omitempty"`
	Duration float64            `json:"duration"`
	Finished bool               `json:"finished"`
	Reason   string             `json:"reason"`
	Steps    int                `json:"steps"`
	Samples  []sim.Sample       `json:"samples"`
	Metrics  map[string]float64 `json:"metrics"`
}

// ExportJSON writes a run with its samples as indented JSON.
func ExportJSON(w io.Writer, meta *RunMetadata, samples []sim.Sample) error {
	data := ExportData{
		ID:       meta.ID,
		Preset:   meta.Preset,
		Duration: meta.Duration,
		Finished: meta.Finished,
		Reason:   meta.Reason,
		Steps:    len(samples),
		Samples:  samples,
		Metrics:  meta.Metrics,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportCSV writes a run's samples in the on-disk CSV layout.
func ExportCSV(w io.Writer, samples []sim.Sample) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(sampleHeader); err != nil {
		return err
	}
	for _, sm := range samples {
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
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}
