package design

import (
	"fmt"
	"strings"

	"gocausal/domain/core"
)

// formula grammar:
//
//	formula     = outcome "~" term ("+" term)*
//	term        = atom (":" atom)*
//	atom        = "1" | "0" | "-1" | column | "C(" column ")"
//
// "1" names the intercept (present by default), "0" or "-1" removes it.
// "C(col)" dummy-codes a categorical column against its first observed
// level. ":" forms an interaction as the elementwise product of its atoms.
type parsedFormula struct {
	outcome   string
	intercept bool
	terms     []parsedTerm
}

type parsedTerm struct {
	atoms []parsedAtom
}

type parsedAtom struct {
	column      string
	categorical bool
}

func parseFormula(formula string) (*parsedFormula, error) {
	parts := strings.SplitN(formula, "~", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: %q has no outcome separator '~'", core.ErrFormula, formula)
	}
	outcome := strings.TrimSpace(parts[0])
	if outcome == "" {
		return nil, fmt.Errorf("%w: %q has an empty outcome", core.ErrFormula, formula)
	}

	parsed := &parsedFormula{outcome: outcome, intercept: true}
	for _, raw := range strings.Split(parts[1], "+") {
		raw = strings.TrimSpace(raw)
		switch raw {
		case "":
			return nil, fmt.Errorf("%w: %q has an empty term", core.ErrFormula, formula)
		case "1":
			continue // intercept is already on
		case "0", "-1":
			parsed.intercept = false
			continue
		}

		term := parsedTerm{}
		for _, rawAtom := range strings.Split(raw, ":") {
			atom, err := parseAtom(strings.TrimSpace(rawAtom), formula)
			if err != nil {
				return nil, err
			}
			term.atoms = append(term.atoms, atom)
		}
		parsed.terms = append(parsed.terms, term)
	}

	if !parsed.intercept && len(parsed.terms) == 0 {
		return nil, fmt.Errorf("%w: %q has no covariates", core.ErrFormula, formula)
	}
	return parsed, nil
}

func parseAtom(raw, formula string) (parsedAtom, error) {
	if raw == "" {
		return parsedAtom{}, fmt.Errorf("%w: %q has an empty interaction factor", core.ErrFormula, formula)
	}
	if strings.HasPrefix(raw, "C(") {
		if !strings.HasSuffix(raw, ")") {
			return parsedAtom{}, fmt.Errorf("%w: unterminated categorical term %q", core.ErrFormula, raw)
		}
		column := strings.TrimSpace(raw[2 : len(raw)-1])
		if column == "" {
			return parsedAtom{}, fmt.Errorf("%w: categorical term %q names no column", core.ErrFormula, raw)
		}
		return parsedAtom{column: column, categorical: true}, nil
	}
	if strings.ContainsAny(raw, "()~ ") {
		return parsedAtom{}, fmt.Errorf("%w: malformed term %q", core.ErrFormula, raw)
	}
	return parsedAtom{column: raw}, nil
}
