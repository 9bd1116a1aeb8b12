// Package tune searches gain space for a configuration minimizing a chosen
// run metric.
package tune

import (
	"context"
	"errors"
	"math"

	"github.com/calebv/tracklab/internal/config"
	"github.com/calebv/tracklab/internal/sim"
)

// ErrNoCandidates indicates every candidate run failed.
var ErrNoCandidates = errors.New("tune: no candidate produced a result")

// RunFunc executes one closed-loop run under the given parameter values and
// returns its metrics.
type RunFunc func(params map[string]float64) (*sim.Result, error)

// GridSearch exhaustively evaluates the cartesian product of parameter
// ranges.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch() *GridSearch {
	return &GridSearch{}
}

// AddParam registers a parameter and the values to try for it.
func (g *GridSearch) AddParam(name string, values []float64) {
	g.paramNames = append(g.paramNames, name)
	g.ranges = append(g.ranges, values)
}

// Search returns the parameter assignment minimizing the named metric.
// Candidates whose run fails are skipped.
func (g *GridSearch) Search(ctx context.Context, metricName string, run RunFunc) (map[string]float64, float64, error) {
	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, map[string]float64{}, metricName, run, &best, &bestParams)
	if err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, ErrNoCandidates
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	metricName string,
	run RunFunc,
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		result, err := run(current)
		if err != nil {
			return nil
		}
		val, ok := result.Metrics[metricName]
		if !ok {
			return nil
		}
		if val < *best {
			*best = val
			snapshot := make(map[string]float64, len(current))
			for k, v := range current {
				snapshot[k] = v
			}
			*bestParams = snapshot
		}
		return nil
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[name] = val
		if err := g.searchRecursive(ctx, depth+1, current, metricName, run, best, bestParams); err != nil {
			return err
		}
	}
	delete(current, name)
	return nil
}

// ApplyGains writes dotted parameter names like "axial.kp" or "heading.kd"
// into a config's gain block. Unknown names are ignored.
func ApplyGains(cfg *config.Config, params map[string]float64) {
	for name, val := range params {
		var coef *float64
		switch name {
		case "axial.kp":
			coef = &cfg.Gains.Axial.Kp
		case "axial.ki":
			coef = &cfg.Gains.Axial.Ki
		case "axial.kd":
			coef = &cfg.Gains.Axial.Kd
		case "lateral.kp":
			coef = &cfg.Gains.Lateral.Kp
		case "lateral.ki":
			coef = &cfg.Gains.Lateral.Ki
		case "lateral.kd":
			coef = &cfg.Gains.Lateral.Kd
		case "heading.kp":
			coef = &cfg.Gains.Heading.Kp
		case "heading.ki":
			coef = &cfg.Gains.Heading.Ki
		case "heading.kd":
			coef = &cfg.Gains.Heading.Kd
		default:
			continue
		}
		*coef = val
	}
}
