package api

import (
	"gocausal/domain/core"
	"gocausal/domain/dataset"
)

// FramePayload is the wire form of a data frame. Index is optional; without
// it rows are indexed by position.
type FramePayload struct {
	Index   []float64       `json:"index,omitempty"`
	Columns []ColumnPayload `json:"columns"`
}

// ColumnPayload is one named column of observations.
type ColumnPayload struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// ToFrame validates and converts the payload.
func (p *FramePayload) ToFrame() (*dataset.Frame, error) {
	if len(p.Columns) == 0 {
		return nil, core.NewDataValidationError("columns", "no columns provided")
	}
	names := make([]string, len(p.Columns))
	columns := make(map[string][]float64, len(p.Columns))
	for i, col := range p.Columns {
		names[i] = col.Name
		columns[col.Name] = col.Values
	}
	if len(p.Index) == 0 {
		return dataset.NewRowOrdered(names, columns)
	}
	return dataset.New(p.Index, names, columns)
}

// PrePostRequest runs an interrupted-time-series or synthetic-control
// experiment.
type PrePostRequest struct {
	Data          FramePayload `json:"data"`
	TreatmentTime float64      `json:"treatment_time"`
	Formula       string       `json:"formula"`
}

// NEGDRequest runs a nonequivalent-group-design experiment.
type NEGDRequest struct {
	Data                 FramePayload `json:"data"`
	Formula              string       `json:"formula"`
	GroupVariable        string       `json:"group_variable"`
	PretreatmentVariable string       `json:"pretreatment_variable"`
}

// ExperimentResponse is the flattened outcome of a run.
type ExperimentResponse struct {
	ID           string  `json:"id"`
	Kind         string  `json:"kind"`
	Formula      string  `json:"formula"`
	ScoreName    string  `json:"score_name"`
	ScoreValue   float64 `json:"score_value"`
	CausalImpact float64 `json:"causal_impact"`
	ImpactLower  float64 `json:"impact_lower"`
	ImpactUpper  float64 `json:"impact_upper"`
	Summary      string  `json:"summary"`
}

// ErrorResponse carries a failed run's message.
type ErrorResponse struct {
	Error string `json:"error"`
}
