// Package experiment holds the immutable result snapshots produced by the
// experiment orchestrators. A result is created once, when an orchestrator
// is constructed, and is read-only thereafter.
package experiment

import (
	"gocausal/domain/core"
	"gocausal/domain/dataset"
	"gocausal/domain/model"
)

// Kind labels the quasi-experimental design a result came from. The
// interrupted-time-series and synthetic-control designs share one
// orchestrator and differ only in this tag.
type Kind string

const (
	KindPrePostFit            Kind = "Pre-Post Fit"
	KindInterruptedTimeSeries Kind = "Interrupted Time Series"
	KindSyntheticControl      Kind = "SyntheticControl"
	KindPrePostNEGD           Kind = "Pretest/posttest Nonequivalent Group Design"
)

// PrePostResult is the frozen snapshot of a pre/post-intervention fit:
// the partitioned data, the counterfactual predictions, and the derived
// impact series. Treat every field as read-only.
type PrePostResult struct {
	ID            core.ExperimentID
	Kind          Kind
	Formula       string
	Labels        []string
	TreatmentTime float64

	DataPre  *dataset.Frame
	DataPost *dataset.Frame

	PreY  []float64
	PostY []float64

	PrePred  *model.Distribution
	PostPred *model.Distribution

	PreImpact            *model.Distribution
	PostImpact           *model.Distribution
	PostImpactCumulative *model.Distribution

	Score     model.GoodnessOfFit
	CreatedAt core.Timestamp
}

// NEGDResult is the frozen snapshot of a pretest/posttest nonequivalent
// group design fit: the full-data fit, the treated/untreated prediction
// grids, and the treatment-effect posterior. Treat every field as read-only.
type NEGDResult struct {
	ID      core.ExperimentID
	Kind    Kind
	Formula string
	Labels  []string

	GroupVariable        string
	PretreatmentVariable string

	Data *dataset.Frame
	Y    []float64

	// PredGrid holds the 200 evenly spaced pretreatment values the
	// counterfactual grids are evaluated at.
	PredGrid      []float64
	PredUntreated *model.Distribution
	PredTreated   *model.Distribution

	// CausalImpactLabel is the coefficient the treatment effect was read
	// from; CausalImpact is its posterior draws.
	CausalImpactLabel string
	CausalImpact      []float64

	CreatedAt core.Timestamp
}
