package report

import (
	"strings"
	"testing"

	"gocausal/adapters/model/bayes"
	"gocausal/app"
	"gocausal/domain/dataset"
	"gocausal/domain/experiment"
)

func prePostResult(t *testing.T) *experiment.PrePostResult {
	t.Helper()
	n := 30
	index := make([]float64, n)
	ts := make([]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		ti := float64(i)
		index[i] = ti
		ts[i] = ti
		ys[i] = 1 + 2*ti
		if ti >= 20 {
			ys[i] += 5
		}
	}
	frame, err := dataset.New(index, []string{"y", "t"}, map[string][]float64{"y": ys, "t": ts})
	if err != nil {
		t.Fatalf("failed to build frame: %v", err)
	}
	exp, err := app.NewInterruptedTimeSeries(frame, 20, "y ~ 1 + t",
		bayes.NewLinearRegression(bayes.Config{Draws: 100, Seed: 42}))
	if err != nil {
		t.Fatalf("NewInterruptedTimeSeries failed: %v", err)
	}
	return exp.Result()
}

func negdResult(t *testing.T) *experiment.NEGDResult {
	t.Helper()
	var pre, group, post []float64
	for _, g := range []float64{0, 1} {
		for i := 1; i <= 10; i++ {
			pre = append(pre, float64(i))
			group = append(group, g)
			post = append(post, 2+1.5*float64(i)+2*g)
		}
	}
	frame, err := dataset.NewRowOrdered(
		[]string{"post", "group", "pre"},
		map[string][]float64{"post": post, "group": group, "pre": pre},
	)
	if err != nil {
		t.Fatalf("failed to build frame: %v", err)
	}
	exp, err := app.NewPrePostNEGD(frame, "post ~ 1 + C(group) + pre", "group", "pre",
		bayes.NewLinearRegression(bayes.Config{Draws: 100, Seed: 42}))
	if err != nil {
		t.Fatalf("NewPrePostNEGD failed: %v", err)
	}
	return exp.Result()
}

func TestPrePostMarkdown(t *testing.T) {
	md, err := PrePostMarkdown(prePostResult(t))
	if err != nil {
		t.Fatalf("PrePostMarkdown failed: %v", err)
	}
	if !strings.Contains(md, "# Interrupted Time Series") {
		t.Errorf("Expected design heading, got %q", md)
	}
	if !strings.Contains(md, "y ~ 1 + t") {
		t.Errorf("Expected formula, got %q", md)
	}
	if !strings.Contains(md, "94% HDI") {
		t.Errorf("Expected credible interval for a Bayesian result, got %q", md)
	}
	if !strings.Contains(md, "Cumulative impact") {
		t.Errorf("Expected cumulative impact, got %q", md)
	}
}

func TestNEGDMarkdown(t *testing.T) {
	md, err := NEGDMarkdown(negdResult(t))
	if err != nil {
		t.Fatalf("NEGDMarkdown failed: %v", err)
	}
	if !strings.Contains(md, "# Pretest/posttest Nonequivalent Group Design") {
		t.Errorf("Expected design heading, got %q", md)
	}
	if !strings.Contains(md, "C(group)[T.1]") {
		t.Errorf("Expected treatment label, got %q", md)
	}
}

func TestToHTML(t *testing.T) {
	html := string(ToHTML("# Title\n\nSome **bold** text.\n"))
	if !strings.Contains(html, "<h1") || !strings.Contains(html, "<strong>bold</strong>") {
		t.Errorf("Unexpected HTML: %q", html)
	}
	// CompletePage emits a standalone document.
	if !strings.Contains(html, "<html>") && !strings.Contains(html, "<html ") {
		t.Errorf("Expected a complete page, got %q", html)
	}
}

func TestPrePostRecordFlattening(t *testing.T) {
	res := prePostResult(t)
	rec, err := PrePostRecord(res)
	if err != nil {
		t.Fatalf("PrePostRecord failed: %v", err)
	}
	if rec.ID != res.ID {
		t.Errorf("Expected ID %v, got %v", res.ID, rec.ID)
	}
	if rec.Kind != string(res.Kind) || rec.Formula != res.Formula {
		t.Errorf("Unexpected record metadata: %+v", rec)
	}
	if rec.CausalImpact < 4 || rec.CausalImpact > 6 {
		t.Errorf("Expected mean impact near 5, got %v", rec.CausalImpact)
	}
	if rec.ImpactLower > rec.CausalImpact || rec.ImpactUpper < rec.CausalImpact {
		t.Errorf("Interval does not bracket the mean: [%v, %v] around %v",
			rec.ImpactLower, rec.ImpactUpper, rec.CausalImpact)
	}
	if rec.Summary == "" {
		t.Error("Expected markdown summary in the record")
	}
}

func TestNEGDRecordFlattening(t *testing.T) {
	rec, err := NEGDRecord(negdResult(t))
	if err != nil {
		t.Fatalf("NEGDRecord failed: %v", err)
	}
	if rec.ScoreName != "treatment_effect" {
		t.Errorf("Expected score name 'treatment_effect', got %q", rec.ScoreName)
	}
	if rec.CausalImpact < 1.9 || rec.CausalImpact > 2.1 {
		t.Errorf("Expected treatment effect near 2, got %v", rec.CausalImpact)
	}
}
