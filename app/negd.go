package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/montanaflynn/stats"

	"gocausal/domain/core"
	"gocausal/domain/dataset"
	"gocausal/domain/design"
	"gocausal/domain/experiment"
	"gocausal/domain/model"
	"gocausal/ports"
)

// negdGridPoints is the size of each synthetic counterfactual grid over the
// pretreatment variable's observed range.
const negdGridPoints = 200

// PrePostNEGD analyses pretest/posttest nonequivalent group designs. The
// model is fitted to the whole dataset; the causal impact is the posterior
// of the group indicator's coefficient, so only backends with full posterior
// support are accepted.
type PrePostNEGD struct {
	model  ports.BayesianModel
	enc    *design.Encoder
	result *experiment.NEGDResult
}

// NewPrePostNEGD validates the group coding, fits the model with coordinate
// labels, builds the treated/untreated prediction grids, and extracts the
// treatment-effect posterior.
func NewPrePostNEGD(data *dataset.Frame, formula, groupVariable, pretreatmentVariable string, m ports.Model) (*PrePostNEGD, error) {
	if m == nil {
		return nil, core.NewConfigurationError("fitting model not set or passed")
	}
	if data == nil || data.Len() == 0 {
		return nil, core.NewDataValidationError("data", "frame is empty")
	}
	if err := validateDummyCoded(data, groupVariable); err != nil {
		return nil, err
	}
	if !data.HasColumn(pretreatmentVariable) {
		return nil, core.NewColumnError(pretreatmentVariable)
	}

	// Capability dispatch: the design needs a posterior, so a frequentist
	// backend is a missing capability, not a silent degradation.
	var bm ports.BayesianModel
	switch m.Kind() {
	case model.KindBayesian:
		var ok bool
		if bm, ok = m.(ports.BayesianModel); !ok {
			return nil, core.NewMissingCapabilityError(
				string(experiment.KindPrePostNEGD), "posterior coefficient draws")
		}
	case model.KindFrequentist:
		return nil, core.NewMissingCapabilityError(
			string(experiment.KindPrePostNEGD), "a Bayesian model with full posterior support")
	default:
		return nil, core.NewConfigurationError(fmt.Sprintf("model kind %q not recognized", m.Kind()))
	}

	enc, err := design.NewEncoder(formula, data)
	if err != nil {
		return nil, err
	}
	y, x, err := enc.Matrices(data)
	if err != nil {
		return nil, err
	}
	if err := bm.Fit(x, y, model.NewCoords(enc.Labels(), len(y))); err != nil {
		return nil, err
	}

	// Counterfactual grids: the pretreatment range interpolated at 200
	// points, once per group assignment, encoded by the fitted encoder.
	lo, hi, err := data.ColumnRange(pretreatmentVariable)
	if err != nil {
		return nil, err
	}
	grid := linspace(lo, hi, negdGridPoints)
	predUntreated, err := predictGrid(bm, enc, pretreatmentVariable, groupVariable, grid, 0)
	if err != nil {
		return nil, err
	}
	predTreated, err := predictGrid(bm, enc, pretreatmentVariable, groupVariable, grid, 1)
	if err != nil {
		return nil, err
	}

	impactLabel, err := treatmentEffectCoeff(enc.Labels(), groupVariable)
	if err != nil {
		return nil, err
	}
	causalImpact, err := bm.CoefficientDraws(impactLabel)
	if err != nil {
		return nil, err
	}

	return &PrePostNEGD{
		model: bm,
		enc:   enc,
		result: &experiment.NEGDResult{
			ID:                   core.NewExperimentID(),
			Kind:                 experiment.KindPrePostNEGD,
			Formula:              formula,
			Labels:               enc.Labels(),
			GroupVariable:        groupVariable,
			PretreatmentVariable: pretreatmentVariable,
			Data:                 data,
			Y:                    y,
			PredGrid:             grid,
			PredUntreated:        predUntreated,
			PredTreated:          predTreated,
			CausalImpactLabel:    impactLabel,
			CausalImpact:         causalImpact,
			CreatedAt:            core.Now(),
		},
	}, nil
}

// validateDummyCoded requires the group column to have exactly two distinct
// values drawn from {0, 1}.
func validateDummyCoded(data *dataset.Frame, column string) error {
	distinct, err := data.DistinctValues(column)
	if err != nil {
		return err
	}
	if len(distinct) != 2 {
		return core.NewDataValidationError(column,
			fmt.Sprintf("there must be 2 levels of the grouping variable, got %d", len(distinct)))
	}
	for v := range distinct {
		if v != 0 && v != 1 {
			return core.NewDataValidationError(column,
				fmt.Sprintf("grouping variable must be dummy coded as 0/1, got %v", v))
		}
	}
	return nil
}

// treatmentEffectCoeff finds the coefficient label for the group effect: a
// label containing the group variable's name that is not an interaction
// term. With multiple candidates the first in label order wins, matching
// dummy coding against a single reference level.
func treatmentEffectCoeff(labels []string, groupVariable string) (string, error) {
	for _, label := range labels {
		if strings.Contains(label, groupVariable) && !strings.Contains(label, ":") {
			return label, nil
		}
	}
	return "", core.NewCoefficientLookupError(groupVariable, labels)
}

// predictGrid evaluates the fitted model over the pretreatment grid with the
// group indicator held fixed, reusing the fitted encoder so the synthetic
// matrix is column-aligned with the training matrix.
func predictGrid(m ports.BayesianModel, enc *design.Encoder, pretreatmentVariable, groupVariable string, grid []float64, group float64) (*model.Distribution, error) {
	groupCol := make([]float64, len(grid))
	for i := range groupCol {
		groupCol[i] = group
	}
	frame, err := dataset.NewRowOrdered(
		[]string{pretreatmentVariable, groupVariable},
		map[string][]float64{
			pretreatmentVariable: grid,
			groupVariable:        groupCol,
		},
	)
	if err != nil {
		return nil, err
	}
	x, err := enc.Transform(frame)
	if err != nil {
		return nil, err
	}
	return m.Predict(x)
}

// linspace returns n evenly spaced points spanning [lo, hi] inclusive.
func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// Result returns the frozen result snapshot.
func (e *PrePostNEGD) Result() *experiment.NEGDResult { return e.result }

// Plot delegates rendering to the model's plot component.
func (e *PrePostNEGD) Plot(w io.Writer) error {
	return e.model.PlotComponent().PlotNEGD(w, e.result)
}

// PrintCoefficients delegates the coefficient report to the model.
func (e *PrePostNEGD) PrintCoefficients(w io.Writer, roundTo int) error {
	return e.model.PrintCoefficients(w, e.result.Labels, roundTo)
}

// CausalImpactStat renders the treatment effect's posterior mean with its
// two-sided 94% interval (3rd and 97th percentiles).
func (e *PrePostNEGD) CausalImpactStat(roundTo int) (string, error) {
	mean, err := stats.Mean(e.result.CausalImpact)
	if err != nil {
		return "", err
	}
	lo, err := stats.Percentile(e.result.CausalImpact, 3)
	if err != nil {
		return "", err
	}
	hi, err := stats.Percentile(e.result.CausalImpact, 97)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Causal impact = %s, $CI_{94%%}$[%s, %s]",
		core.FormatNum(mean, roundTo), core.FormatNum(lo, roundTo), core.FormatNum(hi, roundTo)), nil
}

// Summary writes the fixed-width titled report: formula, causal impact with
// its 94% interval, and per-coefficient estimates with theirs.
func (e *PrePostNEGD) Summary(w io.Writer, roundTo int) error {
	if _, err := fmt.Fprintln(w, titleBar(string(e.result.Kind))); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Formula: %s\n", e.result.Formula); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "\nResults:\n"); err != nil {
		return err
	}
	impact, err := e.CausalImpactStat(roundTo)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, impact); err != nil {
		return err
	}
	return e.PrintCoefficients(w, roundTo)
}
