// Package design turns a model formula and a data frame into an outcome
// vector and a covariate matrix. The Encoder is fitted once, on baseline
// data, and then reapplied to new frames: categorical encodings are frozen
// at fit time so pre- and post-intervention matrices stay column-aligned.
package design

import (
	"fmt"
	"sort"
	"strconv"

	"gocausal/domain/core"
	"gocausal/domain/dataset"
)

// Encoder holds a parsed formula plus the per-term encoding metadata
// observed at fit time. Immutable after NewEncoder.
type Encoder struct {
	formula string
	parsed  *parsedFormula
	terms   []encodedTerm
	labels  []string
}

type encodedTerm struct {
	atoms []encodedAtom
}

type encodedAtom struct {
	column      string
	categorical bool
	levels      []float64 // sorted fit-time levels; dummies code levels[1:]
}

// NewEncoder parses the formula and fixes its encoding against the given
// frame. Every column the formula names must exist in the frame; categorical
// levels are the distinct values observed here, sorted ascending, with the
// first level as the reference.
func NewEncoder(formula string, frame *dataset.Frame) (*Encoder, error) {
	parsed, err := parseFormula(formula)
	if err != nil {
		return nil, err
	}
	if !frame.HasColumn(parsed.outcome) {
		return nil, core.NewColumnError(parsed.outcome)
	}

	enc := &Encoder{formula: formula, parsed: parsed}
	if parsed.intercept {
		enc.labels = append(enc.labels, "Intercept")
	}
	for _, pt := range parsed.terms {
		et := encodedTerm{}
		for _, atom := range pt.atoms {
			if !frame.HasColumn(atom.column) {
				return nil, core.NewColumnError(atom.column)
			}
			ea := encodedAtom{column: atom.column, categorical: atom.categorical}
			if atom.categorical {
				distinct, err := frame.DistinctValues(atom.column)
				if err != nil {
					return nil, err
				}
				for v := range distinct {
					ea.levels = append(ea.levels, v)
				}
				sort.Float64s(ea.levels)
				if len(ea.levels) < 2 {
					return nil, core.NewDataValidationError(atom.column,
						"categorical column has fewer than 2 levels")
				}
			}
			et.atoms = append(et.atoms, ea)
		}
		enc.terms = append(enc.terms, et)
		enc.labels = append(enc.labels, termLabels(et)...)
	}
	return enc, nil
}

// Formula returns the formula string the encoder was built from.
func (e *Encoder) Formula() string { return e.formula }

// Outcome returns the outcome column name.
func (e *Encoder) Outcome() string { return e.parsed.outcome }

// Labels returns the covariate column labels in matrix order.
func (e *Encoder) Labels() []string {
	return append([]string(nil), e.labels...)
}

// Matrices builds the outcome vector and covariate matrix from a frame that
// holds the outcome column.
func (e *Encoder) Matrices(frame *dataset.Frame) (y []float64, x [][]float64, err error) {
	y, err = frame.Column(e.parsed.outcome)
	if err != nil {
		return nil, nil, err
	}
	x, err = e.Transform(frame)
	if err != nil {
		return nil, nil, err
	}
	return y, x, nil
}

// Transform builds the covariate matrix for a frame under the fit-time
// encoding. The frame may lack the outcome column (prediction grids).
// A categorical value never observed at fit time is an error rather than a
// silent all-zero row.
func (e *Encoder) Transform(frame *dataset.Frame) ([][]float64, error) {
	n := frame.Len()
	x := make([][]float64, n)
	for i := range x {
		x[i] = make([]float64, 0, len(e.labels))
	}

	if e.parsed.intercept {
		for i := range x {
			x[i] = append(x[i], 1)
		}
	}
	for _, term := range e.terms {
		cols, err := e.termColumns(term, frame)
		if err != nil {
			return nil, err
		}
		for i := range x {
			for _, col := range cols {
				x[i] = append(x[i], col[i])
			}
		}
	}
	return x, nil
}

// termColumns expands one term into its encoded column(s): a single column
// for numeric atoms, one dummy per non-reference level for categorical
// atoms, and elementwise products across atoms for interactions.
func (e *Encoder) termColumns(term encodedTerm, frame *dataset.Frame) ([][]float64, error) {
	cols := [][]float64(nil)
	for _, atom := range term.atoms {
		atomCols, err := atomColumns(atom, frame)
		if err != nil {
			return nil, err
		}
		if cols == nil {
			cols = atomCols
			continue
		}
		// Interaction: cartesian product of the column sets so far.
		product := make([][]float64, 0, len(cols)*len(atomCols))
		for _, left := range cols {
			for _, right := range atomCols {
				combined := make([]float64, len(left))
				for i := range combined {
					combined[i] = left[i] * right[i]
				}
				product = append(product, combined)
			}
		}
		cols = product
	}
	return cols, nil
}

func atomColumns(atom encodedAtom, frame *dataset.Frame) ([][]float64, error) {
	values, err := frame.Column(atom.column)
	if err != nil {
		return nil, err
	}
	if !atom.categorical {
		return [][]float64{values}, nil
	}

	known := make(map[float64]struct{}, len(atom.levels))
	for _, level := range atom.levels {
		known[level] = struct{}{}
	}
	for i, v := range values {
		if _, ok := known[v]; !ok {
			return nil, core.NewDataValidationError(atom.column,
				fmt.Sprintf("level %s at row %d was not observed when the encoder was fitted",
					formatLevel(v), i))
		}
	}

	cols := make([][]float64, 0, len(atom.levels)-1)
	for _, level := range atom.levels[1:] {
		col := make([]float64, len(values))
		for i, v := range values {
			if v == level {
				col[i] = 1
			}
		}
		cols = append(cols, col)
	}
	return cols, nil
}

func termLabels(term encodedTerm) []string {
	labels := []string(nil)
	for _, atom := range term.atoms {
		atomLabels := []string{atom.column}
		if atom.categorical {
			atomLabels = atomLabels[:0]
			for _, level := range atom.levels[1:] {
				atomLabels = append(atomLabels,
					fmt.Sprintf("C(%s)[T.%s]", atom.column, formatLevel(level)))
			}
		}
		if labels == nil {
			labels = atomLabels
			continue
		}
		product := make([]string, 0, len(labels)*len(atomLabels))
		for _, left := range labels {
			for _, right := range atomLabels {
				product = append(product, left+":"+right)
			}
		}
		labels = product
	}
	return labels
}

func formatLevel(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
