package app

import (
	"context"
	"math"
	"testing"

	"gocausal/adapters/model/ols"
	"gocausal/ports"
)

func TestRunPlacebo(t *testing.T) {
	// A genuine step at t=30; the placebo boundaries sit before it.
	frame := stepData(t, 40, 30, 5)
	candidates := []float64{25, 20, 30, 15}

	points, err := RunPlacebo(context.Background(), frame, "y ~ 1 + t", candidates, func() ports.Model {
		return ols.NewLinearRegression()
	})
	if err != nil {
		t.Fatalf("RunPlacebo failed: %v", err)
	}

	if len(points) != len(candidates) {
		t.Fatalf("Expected %d points, got %d", len(candidates), len(points))
	}
	// Sorted by boundary regardless of input order.
	for i := 1; i < len(points); i++ {
		if points[i].TreatmentTime < points[i-1].TreatmentTime {
			t.Fatalf("Points not sorted by boundary: %v", points)
		}
	}

	// The true boundary carries the full effect.
	var atTrue, atPlacebo float64
	for _, p := range points {
		if p.TreatmentTime == 30 {
			atTrue = p.MeanImpact
		}
		if p.TreatmentTime == 15 {
			atPlacebo = p.MeanImpact
		}
	}
	if math.Abs(atTrue-5) > 1e-6 {
		t.Errorf("Expected impact 5 at the true boundary, got %v", atTrue)
	}
	// A placebo boundary mixes pre-step rows into its post window but still
	// shows less impact than the real one.
	if atPlacebo >= atTrue {
		t.Errorf("Expected placebo impact below the true impact, got %v >= %v", atPlacebo, atTrue)
	}
}

func TestRunPlaceboPropagatesFailures(t *testing.T) {
	frame := stepData(t, 10, 5, 1)

	// One candidate leaves no pre-intervention rows.
	_, err := RunPlacebo(context.Background(), frame, "y ~ 1 + t", []float64{5, -1}, func() ports.Model {
		return ols.NewLinearRegression()
	})
	if err == nil {
		t.Error("Expected error from the invalid candidate")
	}
}

func TestRunPlaceboHonorsCancellation(t *testing.T) {
	frame := stepData(t, 10, 5, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunPlacebo(ctx, frame, "y ~ 1 + t", []float64{5}, func() ports.Model {
		return ols.NewLinearRegression()
	})
	if err == nil {
		t.Error("Expected error from a cancelled context")
	}
}
