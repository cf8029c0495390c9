package app

import (
	"context"
	"sort"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"gocausal/domain/dataset"
	"gocausal/domain/model"
	"gocausal/ports"
)

// ModelFactory builds a fresh, unfitted model. Placebo runs need one model
// per candidate boundary because a fitted model is owned by its experiment.
type ModelFactory func() ports.Model

// PlaceboPoint is the outcome of one placebo fit: the pretend boundary, the
// mean post-boundary impact it produces, and the pre-period fit score.
type PlaceboPoint struct {
	TreatmentTime float64             `json:"treatment_time"`
	MeanImpact    float64             `json:"mean_impact"`
	Score         model.GoodnessOfFit `json:"score"`
}

// RunPlacebo refits the pre/post design at each candidate boundary and
// reports the impact a pretend intervention would show there. A real effect
// at the true boundary should dwarf the placebo impacts. Each construction
// is independent, so candidates run concurrently; results come back sorted
// by boundary.
func RunPlacebo(ctx context.Context, data *dataset.Frame, formula string, candidates []float64, factory ModelFactory) ([]PlaceboPoint, error) {
	points := make([]PlaceboPoint, len(candidates))
	g, ctx := errgroup.WithContext(ctx)
	for i, t := range candidates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fit, err := NewPrePostFit(data, t, formula, factory())
			if err != nil {
				return err
			}
			mean, err := stats.Mean(fit.Result().PostImpact.Point)
			if err != nil {
				return err
			}
			points[i] = PlaceboPoint{
				TreatmentTime: t,
				MeanImpact:    mean,
				Score:         fit.Result().Score,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(points, func(a, b int) bool {
		return points[a].TreatmentTime < points[b].TreatmentTime
	})
	return points, nil
}
