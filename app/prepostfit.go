// Package app holds the experiment orchestrators: each one validates its
// input eagerly, builds design matrices, fits a model to a baseline subset,
// and derives counterfactual predictions and impact series. Construction is
// all-or-nothing; a failed fit leaves no partially initialized experiment.
package app

import (
	"fmt"
	"io"
	"math"
	"strings"

	"gocausal/domain/core"
	"gocausal/domain/dataset"
	"gocausal/domain/design"
	"gocausal/domain/experiment"
	"gocausal/domain/model"
	"gocausal/ports"
)

// PrePostFit fits a model to pre-intervention data and projects it past the
// intervention boundary as the counterfactual. The interrupted-time-series
// and synthetic-control designs are this orchestrator under different kind
// tags; their logic is identical.
type PrePostFit struct {
	model  ports.Model
	enc    *design.Encoder
	result *experiment.PrePostResult
}

// NewInterruptedTimeSeries runs the interrupted time series design.
func NewInterruptedTimeSeries(data *dataset.Frame, treatmentTime float64, formula string, m ports.Model) (*PrePostFit, error) {
	return newPrePostFit(data, treatmentTime, formula, m, experiment.KindInterruptedTimeSeries)
}

// NewSyntheticControl runs the synthetic control design.
func NewSyntheticControl(data *dataset.Frame, treatmentTime float64, formula string, m ports.Model) (*PrePostFit, error) {
	return newPrePostFit(data, treatmentTime, formula, m, experiment.KindSyntheticControl)
}

// NewPrePostFit runs the plain pre/post design.
func NewPrePostFit(data *dataset.Frame, treatmentTime float64, formula string, m ports.Model) (*PrePostFit, error) {
	return newPrePostFit(data, treatmentTime, formula, m, experiment.KindPrePostFit)
}

func newPrePostFit(data *dataset.Frame, treatmentTime float64, formula string, m ports.Model, kind experiment.Kind) (*PrePostFit, error) {
	if m == nil {
		return nil, core.NewConfigurationError("fitting model not set or passed")
	}
	if data == nil || data.Len() == 0 {
		return nil, core.NewDataValidationError("data", "frame is empty")
	}
	if math.IsNaN(treatmentTime) {
		return nil, core.NewDataValidationError("treatment_time", "not comparable to the index")
	}

	dataPre, dataPost := data.SplitAt(treatmentTime)
	if dataPre.Len() == 0 {
		return nil, core.NewDataValidationError("treatment_time",
			fmt.Sprintf("no pre-intervention observations before %v", treatmentTime))
	}
	if dataPost.Len() == 0 {
		return nil, core.NewDataValidationError("treatment_time",
			fmt.Sprintf("no post-intervention observations at or after %v", treatmentTime))
	}

	// The encoder is fitted on pre-intervention data only, then reapplied
	// to the post partition so categorical encodings stay column-aligned.
	enc, err := design.NewEncoder(formula, dataPre)
	if err != nil {
		return nil, err
	}
	preY, preX, err := enc.Matrices(dataPre)
	if err != nil {
		return nil, err
	}
	postY, postX, err := enc.Matrices(dataPost)
	if err != nil {
		return nil, err
	}

	if err := fitByKind(m, preX, preY, enc.Labels()); err != nil {
		return nil, err
	}

	score, err := m.Score(preX, preY)
	if err != nil {
		return nil, err
	}
	prePred, err := m.Predict(preX)
	if err != nil {
		return nil, err
	}
	postPred, err := m.Predict(postX)
	if err != nil {
		return nil, err
	}
	preImpact, err := m.CalculateImpact(preY, prePred)
	if err != nil {
		return nil, err
	}
	postImpact, err := m.CalculateImpact(postY, postPred)
	if err != nil {
		return nil, err
	}
	postImpactCumulative, err := m.CalculateCumulativeImpact(postImpact)
	if err != nil {
		return nil, err
	}

	return &PrePostFit{
		model: m,
		enc:   enc,
		result: &experiment.PrePostResult{
			ID:                   core.NewExperimentID(),
			Kind:                 kind,
			Formula:              formula,
			Labels:               enc.Labels(),
			TreatmentTime:        treatmentTime,
			DataPre:              dataPre,
			DataPost:             dataPost,
			PreY:                 preY,
			PostY:                postY,
			PrePred:              prePred,
			PostPred:             postPred,
			PreImpact:            preImpact,
			PostImpact:           postImpact,
			PostImpactCumulative: postImpactCumulative,
			Score:                score,
			CreatedAt:            core.Now(),
		},
	}, nil
}

// fitByKind dispatches the fit call on the model's capability tag: Bayesian
// backends receive coordinate labels, frequentist backends fit without, and
// anything else is a configuration error.
func fitByKind(m ports.Model, x [][]float64, y []float64, labels []string) error {
	switch m.Kind() {
	case model.KindBayesian:
		return m.Fit(x, y, model.NewCoords(labels, len(y)))
	case model.KindFrequentist:
		return m.Fit(x, y, nil)
	default:
		return core.NewConfigurationError(fmt.Sprintf("model kind %q not recognized", m.Kind()))
	}
}

// Result returns the frozen result snapshot.
func (e *PrePostFit) Result() *experiment.PrePostResult { return e.result }

// Plot delegates rendering to the model's plot component.
func (e *PrePostFit) Plot(w io.Writer) error {
	return e.model.PlotComponent().PlotPrePost(w, e.result)
}

// PrintCoefficients delegates the coefficient report to the model.
func (e *PrePostFit) PrintCoefficients(w io.Writer, roundTo int) error {
	return e.model.PrintCoefficients(w, e.result.Labels, roundTo)
}

// Summary writes the fixed-width titled report: design kind, formula,
// pre-period fit score, and the coefficient table.
func (e *PrePostFit) Summary(w io.Writer, roundTo int) error {
	if _, err := fmt.Fprintln(w, titleBar(string(e.result.Kind))); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Formula: %s\n", e.result.Formula); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "\nResults:\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Pre-period fit: %s\n", e.result.Score); err != nil {
		return err
	}
	return e.PrintCoefficients(w, roundTo)
}

// titleBar centers a title in a fixed 80-column bar of '=' characters.
func titleBar(title string) string {
	const width = 80
	if len(title) >= width {
		return title
	}
	pad := width - len(title)
	left := pad / 2
	return strings.Repeat("=", left) + title + strings.Repeat("=", pad-left)
}
