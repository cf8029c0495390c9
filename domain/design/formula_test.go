package design

import (
	"errors"
	"testing"

	"gocausal/domain/core"
)

func TestParseFormulaDefaults(t *testing.T) {
	parsed, err := parseFormula("y ~ 1 + x")
	if err != nil {
		t.Fatalf("parseFormula failed: %v", err)
	}
	if parsed.outcome != "y" {
		t.Errorf("Expected outcome 'y', got %q", parsed.outcome)
	}
	if !parsed.intercept {
		t.Error("Expected intercept on")
	}
	if len(parsed.terms) != 1 || parsed.terms[0].atoms[0].column != "x" {
		t.Errorf("Unexpected terms: %+v", parsed.terms)
	}
}

func TestParseFormulaImplicitIntercept(t *testing.T) {
	parsed, err := parseFormula("y ~ x")
	if err != nil {
		t.Fatalf("parseFormula failed: %v", err)
	}
	if !parsed.intercept {
		t.Error("Expected intercept on when not mentioned")
	}
}

func TestParseFormulaInterceptRemoval(t *testing.T) {
	for _, f := range []string{"y ~ 0 + a + b", "y ~ -1 + a + b"} {
		parsed, err := parseFormula(f)
		if err != nil {
			t.Fatalf("parseFormula(%q) failed: %v", f, err)
		}
		if parsed.intercept {
			t.Errorf("Expected intercept removed for %q", f)
		}
		if len(parsed.terms) != 2 {
			t.Errorf("Expected 2 terms for %q, got %d", f, len(parsed.terms))
		}
	}
}

func TestParseFormulaCategoricalAndInteraction(t *testing.T) {
	parsed, err := parseFormula("post ~ 1 + C(group) + pre + C(group):pre")
	if err != nil {
		t.Fatalf("parseFormula failed: %v", err)
	}
	if len(parsed.terms) != 3 {
		t.Fatalf("Expected 3 terms, got %d", len(parsed.terms))
	}
	if !parsed.terms[0].atoms[0].categorical || parsed.terms[0].atoms[0].column != "group" {
		t.Errorf("Expected categorical group term, got %+v", parsed.terms[0])
	}
	interaction := parsed.terms[2]
	if len(interaction.atoms) != 2 {
		t.Fatalf("Expected 2 interaction factors, got %d", len(interaction.atoms))
	}
	if !interaction.atoms[0].categorical || interaction.atoms[1].categorical {
		t.Errorf("Unexpected interaction factors: %+v", interaction.atoms)
	}
}

func TestParseFormulaErrors(t *testing.T) {
	cases := []string{
		"no separator",
		" ~ x",
		"y ~ x + ",
		"y ~ C(group",
		"y ~ C()",
		"y ~ 0",
		"y ~ a::b",
	}
	for _, f := range cases {
		_, err := parseFormula(f)
		if !errors.Is(err, core.ErrFormula) {
			t.Errorf("parseFormula(%q): expected formula error, got %v", f, err)
		}
	}
}
