package ports

import (
	"io"

	"gocausal/domain/experiment"
	"gocausal/domain/model"
)

// Model is the capability contract every pluggable regression backend
// implements. Fit is blocking and all-or-nothing: on error the backend is
// not usable for prediction. Coords are required for Bayesian-kind backends
// and must be nil for frequentist ones.
type Model interface {
	// Kind is the backend's explicit capability tag.
	Kind() model.Kind

	// Fit estimates the backend's parameters from a covariate matrix and
	// an outcome vector.
	Fit(x [][]float64, y []float64, coords *model.Coords) error

	// Predict evaluates the fitted backend on a covariate matrix. The
	// returned distribution has one point estimate per input row, plus
	// posterior draws for Bayesian backends.
	Predict(x [][]float64) (*model.Distribution, error)

	// Score reports a named goodness-of-fit value for the given data.
	Score(x [][]float64, y []float64) (model.GoodnessOfFit, error)

	// CalculateImpact computes observed minus predicted, preserving the
	// prediction's shape.
	CalculateImpact(observed []float64, predicted *model.Distribution) (*model.Distribution, error)

	// CalculateCumulativeImpact computes the running sum of an impact
	// series in index order.
	CalculateCumulativeImpact(impact *model.Distribution) (*model.Distribution, error)

	// PlotComponent returns the renderer for this backend's results.
	PlotComponent() PlotComponent

	// PrintCoefficients writes a textual coefficient report for the given
	// labels, rounded to roundTo decimals (core.NoRounding leaves values
	// unrounded).
	PrintCoefficients(w io.Writer, labels []string, roundTo int) error
}

// BayesianModel is the extended contract of backends whose fitted state is a
// posterior: designs that define causal impact as a coefficient distribution
// require it.
type BayesianModel interface {
	Model

	// CoefficientDraws returns the posterior draws of the named
	// coefficient.
	CoefficientDraws(label string) ([]float64, error)
}

// PlotComponent renders a backend's view of experiment results. Rendering
// lives entirely with the backend; orchestrators only delegate.
type PlotComponent interface {
	PlotPrePost(w io.Writer, res *experiment.PrePostResult) error
	PlotNEGD(w io.Writer, res *experiment.NEGDResult) error
}
