package ols

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"gocausal/domain/core"
	"gocausal/domain/model"
)

// Exactly linear data: y = 2 + 3x.
func linearData() (x [][]float64, y []float64) {
	for i := 0; i < 10; i++ {
		xi := float64(i)
		x = append(x, []float64{1, xi})
		y = append(y, 2+3*xi)
	}
	return x, y
}

func TestFitRecoversCoefficients(t *testing.T) {
	m := NewLinearRegression()
	x, y := linearData()

	if err := m.Fit(x, y, nil); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	pred, err := m.Predict([][]float64{{1, 20}})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if math.Abs(pred.Point[0]-62) > 1e-9 {
		t.Errorf("Expected prediction 62 at x=20, got %v", pred.Point[0])
	}
	if pred.HasDraws() {
		t.Error("Expected no draws from a frequentist backend")
	}
}

func TestFitRejectsCoords(t *testing.T) {
	m := NewLinearRegression()
	x, y := linearData()

	err := m.Fit(x, y, model.NewCoords([]string{"Intercept", "x"}, len(y)))
	if !core.IsConfigurationError(err) {
		t.Errorf("Expected configuration error for coords, got %v", err)
	}
}

func TestScorePerfectFit(t *testing.T) {
	m := NewLinearRegression()
	x, y := linearData()
	if err := m.Fit(x, y, nil); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	score, err := m.Score(x, y)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score.Name != "r2" {
		t.Errorf("Expected score name 'r2', got %q", score.Name)
	}
	if math.Abs(score.Value-1) > 1e-9 {
		t.Errorf("Expected r2 = 1 for exact data, got %v", score.Value)
	}
}

func TestPredictBeforeFit(t *testing.T) {
	m := NewLinearRegression()
	if _, err := m.Predict([][]float64{{1, 2}}); !core.IsConfigurationError(err) {
		t.Errorf("Expected configuration error before fit, got %v", err)
	}
}

func TestFitValidation(t *testing.T) {
	m := NewLinearRegression()

	if err := m.Fit(nil, nil, nil); !core.IsDataValidationError(err) {
		t.Errorf("Expected data validation error for empty matrix, got %v", err)
	}
	if err := m.Fit([][]float64{{1, 2}, {1}}, []float64{1, 2}, nil); !core.IsDataValidationError(err) {
		t.Errorf("Expected data validation error for ragged matrix, got %v", err)
	}
	if err := m.Fit([][]float64{{1, 2}}, []float64{1, 2}, nil); !core.IsDataValidationError(err) {
		t.Errorf("Expected data validation error for y/x mismatch, got %v", err)
	}
}

func TestPrintCoefficients(t *testing.T) {
	m := NewLinearRegression()
	x, y := linearData()
	if err := m.Fit(x, y, nil); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	var buf bytes.Buffer
	if err := m.PrintCoefficients(&buf, []string{"Intercept", "x"}, 1); err != nil {
		t.Fatalf("PrintCoefficients failed: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "Model coefficients:") {
		t.Errorf("Expected header, got %q", out)
	}
	if !strings.Contains(out, "Intercept") || !strings.Contains(out, "3") {
		t.Errorf("Expected labels and estimates in output, got %q", out)
	}

	if err := m.PrintCoefficients(&buf, []string{"only-one"}, 1); err == nil {
		t.Error("Expected error for label/coefficient count mismatch")
	}
}
