// Package model holds the value types shared between experiment
// orchestrators and pluggable regression backends.
package model

import (
	"fmt"

	"gocausal/domain/core"
)

// Kind is the explicit capability tag of a regression backend. Orchestrators
// branch on the kind, never on concrete types.
type Kind string

const (
	// KindBayesian marks backends whose predictions carry posterior draws
	// and whose fit accepts coordinate labels.
	KindBayesian Kind = "bayesian"
	// KindFrequentist marks point-estimate backends.
	KindFrequentist Kind = "frequentist"
)

// Coords carries the dimension names a Bayesian backend attaches to its
// fitted output: one label per covariate coefficient and one index per
// training observation.
type Coords struct {
	Coeffs []string
	ObsIdx []int
}

// NewCoords builds coords for the given coefficient labels and observation
// count.
func NewCoords(labels []string, observations int) *Coords {
	idx := make([]int, observations)
	for i := range idx {
		idx[i] = i
	}
	return &Coords{Coeffs: append([]string(nil), labels...), ObsIdx: idx}
}

// Distribution is a prediction (or impact) over a set of rows: a point
// estimate per row, plus per-draw values for Bayesian backends. Draws is
// nil for point-estimate backends; when present it is draws x rows.
type Distribution struct {
	Point []float64
	Draws [][]float64
}

// Rows returns the number of observations the distribution covers.
func (d *Distribution) Rows() int { return len(d.Point) }

// HasDraws reports whether the distribution carries posterior draws.
func (d *Distribution) HasDraws() bool { return len(d.Draws) > 0 }

// GoodnessOfFit is a named fit score. Bayesian backends report the spread
// of the score across posterior draws in Std.
type GoodnessOfFit struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Std   float64 `json:"std,omitempty"`
}

func (g GoodnessOfFit) String() string {
	if g.Std > 0 {
		return fmt.Sprintf("%s = %.3f (std = %.3f)", g.Name, g.Value, g.Std)
	}
	return fmt.Sprintf("%s = %.3f", g.Name, g.Value)
}

// ImpactOf computes observed minus predicted, elementwise, preserving the
// prediction's shape: the point estimate always, and every draw when the
// prediction carries draws.
func ImpactOf(observed []float64, predicted *Distribution) (*Distribution, error) {
	if predicted == nil {
		return nil, core.NewConfigurationError("impact of a nil prediction")
	}
	if len(observed) != len(predicted.Point) {
		return nil, core.NewDataValidationError("observed",
			fmt.Sprintf("%d observations against %d predictions", len(observed), len(predicted.Point)))
	}
	impact := &Distribution{Point: make([]float64, len(observed))}
	for i := range observed {
		impact.Point[i] = observed[i] - predicted.Point[i]
	}
	if predicted.HasDraws() {
		impact.Draws = make([][]float64, len(predicted.Draws))
		for s, draw := range predicted.Draws {
			if len(draw) != len(observed) {
				return nil, core.NewDataValidationError("predicted",
					fmt.Sprintf("draw %d has %d rows, expected %d", s, len(draw), len(observed)))
			}
			row := make([]float64, len(observed))
			for i := range observed {
				row[i] = observed[i] - draw[i]
			}
			impact.Draws[s] = row
		}
	}
	return impact, nil
}

// CumulativeOf computes the running sum of an impact distribution in index
// order, per draw and for the point estimate.
func CumulativeOf(impact *Distribution) (*Distribution, error) {
	if impact == nil {
		return nil, core.NewConfigurationError("cumulative impact of a nil impact")
	}
	cumulative := &Distribution{Point: runningSum(impact.Point)}
	if impact.HasDraws() {
		cumulative.Draws = make([][]float64, len(impact.Draws))
		for s, draw := range impact.Draws {
			cumulative.Draws[s] = runningSum(draw)
		}
	}
	return cumulative, nil
}

func runningSum(values []float64) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		out[i] = sum
	}
	return out
}
