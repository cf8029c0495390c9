package ports

import (
	"context"

	"gocausal/domain/core"
)

// ResultRecord is the persisted form of an experiment outcome: the scalar
// summary a downstream report needs, not the full arrays.
type ResultRecord struct {
	ID           core.ExperimentID `db:"id"`
	Kind         string            `db:"kind"`
	Formula      string            `db:"formula"`
	ScoreName    string            `db:"score_name"`
	ScoreValue   float64           `db:"score_value"`
	CausalImpact float64           `db:"causal_impact"`
	ImpactLower  float64           `db:"impact_lower"`
	ImpactUpper  float64           `db:"impact_upper"`
	Summary      string            `db:"summary"`
	CreatedAt    core.Timestamp    `db:"created_at"`
}

// ResultRepository persists experiment result records.
type ResultRepository interface {
	Save(ctx context.Context, rec *ResultRecord) error
	GetByID(ctx context.Context, id core.ExperimentID) (*ResultRecord, error)
	List(ctx context.Context, limit, offset int) ([]*ResultRecord, error)
}
