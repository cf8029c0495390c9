// Package ols implements the frequentist regression backend: an ordinary
// least squares fit with point-estimate predictions.
package ols

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"gocausal/domain/core"
	"gocausal/domain/model"
	"gocausal/ports"
)

// LinearRegression is a point-estimate least squares backend.
type LinearRegression struct {
	coef   []float64
	fitted bool
}

// NewLinearRegression creates an unfitted OLS backend.
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{}
}

// Kind reports the frequentist capability tag.
func (m *LinearRegression) Kind() model.Kind { return model.KindFrequentist }

// Fit solves the least squares problem via QR. Coords must be nil: a
// frequentist backend has no posterior dimensions to name.
func (m *LinearRegression) Fit(x [][]float64, y []float64, coords *model.Coords) error {
	if coords != nil {
		return core.NewConfigurationError("frequentist backend does not accept coords")
	}
	a, err := denseFrom(x)
	if err != nil {
		return err
	}
	rows, cols := a.Dims()
	if rows != len(y) {
		return core.NewDataValidationError("y",
			fmt.Sprintf("%d outcomes against %d matrix rows", len(y), rows))
	}
	if rows < cols {
		return core.NewDataValidationError("x",
			fmt.Sprintf("%d observations cannot identify %d coefficients", rows, cols))
	}

	var qr mat.QR
	qr.Factorize(a)
	var sol mat.Dense
	if err := qr.SolveTo(&sol, false, mat.NewDense(rows, 1, y)); err != nil {
		return fmt.Errorf("least squares solve: %w", err)
	}
	m.coef = make([]float64, cols)
	for j := 0; j < cols; j++ {
		m.coef[j] = sol.At(j, 0)
	}
	m.fitted = true
	return nil
}

// Predict evaluates the fitted coefficients on a covariate matrix.
func (m *LinearRegression) Predict(x [][]float64) (*model.Distribution, error) {
	if !m.fitted {
		return nil, core.NewConfigurationError("predict before fit")
	}
	point := make([]float64, len(x))
	for i, row := range x {
		if len(row) != len(m.coef) {
			return nil, core.NewDataValidationError("x",
				fmt.Sprintf("row %d has %d columns, fit used %d", i, len(row), len(m.coef)))
		}
		v := 0.0
		for j, c := range m.coef {
			v += c * row[j]
		}
		point[i] = v
	}
	return &model.Distribution{Point: point}, nil
}

// Score reports the coefficient of determination on the given data.
func (m *LinearRegression) Score(x [][]float64, y []float64) (model.GoodnessOfFit, error) {
	pred, err := m.Predict(x)
	if err != nil {
		return model.GoodnessOfFit{}, err
	}
	return model.GoodnessOfFit{
		Name:  "r2",
		Value: stat.RSquaredFrom(pred.Point, y, nil),
	}, nil
}

// CalculateImpact computes observed minus predicted.
func (m *LinearRegression) CalculateImpact(observed []float64, predicted *model.Distribution) (*model.Distribution, error) {
	return model.ImpactOf(observed, predicted)
}

// CalculateCumulativeImpact computes the running sum of an impact series.
func (m *LinearRegression) CalculateCumulativeImpact(impact *model.Distribution) (*model.Distribution, error) {
	return model.CumulativeOf(impact)
}

// PlotComponent returns the point-estimate renderer.
func (m *LinearRegression) PlotComponent() ports.PlotComponent {
	return &plotComponent{}
}

// PrintCoefficients writes the point estimates, one per label.
func (m *LinearRegression) PrintCoefficients(w io.Writer, labels []string, roundTo int) error {
	if !m.fitted {
		return core.NewConfigurationError("coefficients before fit")
	}
	if len(labels) != len(m.coef) {
		return core.NewDataValidationError("labels",
			fmt.Sprintf("%d labels for %d coefficients", len(labels), len(m.coef)))
	}
	if _, err := fmt.Fprintln(w, "Model coefficients:"); err != nil {
		return err
	}
	width := maxLabelWidth(labels)
	for i, label := range labels {
		_, err := fmt.Fprintf(w, "    %-*s  %s\n", width, label, core.FormatNum(m.coef[i], roundTo))
		if err != nil {
			return err
		}
	}
	return nil
}

func denseFrom(x [][]float64) (*mat.Dense, error) {
	if len(x) == 0 || len(x[0]) == 0 {
		return nil, core.NewDataValidationError("x", "empty covariate matrix")
	}
	cols := len(x[0])
	flat := make([]float64, 0, len(x)*cols)
	for i, row := range x {
		if len(row) != cols {
			return nil, core.NewDataValidationError("x",
				fmt.Sprintf("ragged matrix: row %d has %d columns, expected %d", i, len(row), cols))
		}
		flat = append(flat, row...)
	}
	return mat.NewDense(len(x), cols, flat), nil
}

func maxLabelWidth(labels []string) int {
	width := 0
	for _, l := range labels {
		if len(l) > width {
			width = len(l)
		}
	}
	return width
}
