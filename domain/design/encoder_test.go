package design

import (
	"reflect"
	"testing"

	"gocausal/domain/core"
	"gocausal/domain/dataset"
)

func negdFrame(t *testing.T) *dataset.Frame {
	t.Helper()
	f, err := dataset.NewRowOrdered(
		[]string{"post", "group", "pre"},
		map[string][]float64{
			"post":  {10, 12, 14, 16, 18, 20},
			"group": {0, 0, 0, 1, 1, 1},
			"pre":   {1, 2, 3, 1, 2, 3},
		},
	)
	if err != nil {
		t.Fatalf("failed to build frame: %v", err)
	}
	return f
}

func TestEncoderLabels(t *testing.T) {
	enc, err := NewEncoder("post ~ 1 + C(group) + pre", negdFrame(t))
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	want := []string{"Intercept", "C(group)[T.1]", "pre"}
	if got := enc.Labels(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected labels %v, got %v", want, got)
	}
	if enc.Outcome() != "post" {
		t.Errorf("Expected outcome 'post', got %q", enc.Outcome())
	}
}

func TestEncoderInteractionLabels(t *testing.T) {
	enc, err := NewEncoder("post ~ 1 + C(group) + pre + C(group):pre", negdFrame(t))
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	want := []string{"Intercept", "C(group)[T.1]", "pre", "C(group)[T.1]:pre"}
	if got := enc.Labels(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected labels %v, got %v", want, got)
	}
}

func TestEncoderMatrices(t *testing.T) {
	frame := negdFrame(t)
	enc, err := NewEncoder("post ~ 1 + C(group) + pre", frame)
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	y, x, err := enc.Matrices(frame)
	if err != nil {
		t.Fatalf("Matrices failed: %v", err)
	}
	if len(y) != 6 || len(x) != 6 {
		t.Fatalf("Expected 6 rows, got %d outcomes and %d matrix rows", len(y), len(x))
	}
	// Row 0: control group, pre=1.
	if !reflect.DeepEqual(x[0], []float64{1, 0, 1}) {
		t.Errorf("Unexpected row 0: %v", x[0])
	}
	// Row 3: treated group, pre=1.
	if !reflect.DeepEqual(x[3], []float64{1, 1, 1}) {
		t.Errorf("Unexpected row 3: %v", x[3])
	}
}

func TestEncoderInterceptRemoval(t *testing.T) {
	enc, err := NewEncoder("post ~ 0 + pre", negdFrame(t))
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}
	if got := enc.Labels(); !reflect.DeepEqual(got, []string{"pre"}) {
		t.Errorf("Expected only 'pre', got %v", got)
	}
}

// The encoding is frozen at fit time: a frame seen later is expanded against
// the fit-time levels so its matrix stays column-aligned with training.
func TestEncoderTransformReappliesFitTimeEncoding(t *testing.T) {
	enc, err := NewEncoder("post ~ 1 + C(group) + pre", negdFrame(t))
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	// A grid frame without the outcome column, all treated.
	grid, err := dataset.NewRowOrdered(
		[]string{"pre", "group"},
		map[string][]float64{
			"pre":   {0.5, 1.5},
			"group": {1, 1},
		},
	)
	if err != nil {
		t.Fatalf("failed to build grid frame: %v", err)
	}

	x, err := enc.Transform(grid)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if len(x) != 2 || len(x[0]) != 3 {
		t.Fatalf("Expected a 2x3 matrix, got %dx%d", len(x), len(x[0]))
	}
	if !reflect.DeepEqual(x[0], []float64{1, 1, 0.5}) {
		t.Errorf("Unexpected grid row 0: %v", x[0])
	}
}

func TestEncoderTransformRejectsUnseenLevel(t *testing.T) {
	enc, err := NewEncoder("post ~ 1 + C(group) + pre", negdFrame(t))
	if err != nil {
		t.Fatalf("NewEncoder failed: %v", err)
	}

	unseen, err := dataset.NewRowOrdered(
		[]string{"pre", "group"},
		map[string][]float64{
			"pre":   {1},
			"group": {2}, // never observed at fit time
		},
	)
	if err != nil {
		t.Fatalf("failed to build frame: %v", err)
	}

	if _, err := enc.Transform(unseen); !core.IsDataValidationError(err) {
		t.Errorf("Expected data validation error for unseen level, got %v", err)
	}
}

func TestEncoderUnknownColumns(t *testing.T) {
	frame := negdFrame(t)

	if _, err := NewEncoder("missing ~ 1 + pre", frame); err == nil {
		t.Error("Expected error for unknown outcome column")
	}
	if _, err := NewEncoder("post ~ 1 + missing", frame); err == nil {
		t.Error("Expected error for unknown covariate column")
	}
}

func TestEncoderSingleLevelCategorical(t *testing.T) {
	frame, err := dataset.NewRowOrdered(
		[]string{"y", "g"},
		map[string][]float64{
			"y": {1, 2, 3},
			"g": {1, 1, 1},
		},
	)
	if err != nil {
		t.Fatalf("failed to build frame: %v", err)
	}

	if _, err := NewEncoder("y ~ 1 + C(g)", frame); !core.IsDataValidationError(err) {
		t.Errorf("Expected data validation error for single-level categorical, got %v", err)
	}
}
