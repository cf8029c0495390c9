// Package postgres persists experiment result records.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"gocausal/domain/core"
	"gocausal/ports"
)

// Schema is the DDL for the experiment results table; mains apply it on
// startup.
const Schema = `
CREATE TABLE IF NOT EXISTS experiment_results (
	id            TEXT PRIMARY KEY,
	kind          TEXT NOT NULL,
	formula       TEXT NOT NULL,
	score_name    TEXT NOT NULL,
	score_value   DOUBLE PRECISION NOT NULL,
	causal_impact DOUBLE PRECISION NOT NULL,
	impact_lower  DOUBLE PRECISION NOT NULL,
	impact_upper  DOUBLE PRECISION NOT NULL,
	summary       TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
)`

// resultRepository implements ports.ResultRepository on PostgreSQL.
type resultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a result repository.
func NewResultRepository(db *sqlx.DB) ports.ResultRepository {
	return &resultRepository{db: db}
}

// Connect opens a PostgreSQL connection and ensures the schema exists.
func Connect(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return db, nil
}

// Save inserts an experiment result record.
func (r *resultRepository) Save(ctx context.Context, rec *ports.ResultRecord) error {
	query := `INSERT INTO experiment_results (
		id, kind, formula, score_name, score_value,
		causal_impact, impact_lower, impact_upper, summary, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Kind, rec.Formula, rec.ScoreName, rec.ScoreValue,
		rec.CausalImpact, rec.ImpactLower, rec.ImpactUpper, rec.Summary,
		rec.CreatedAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to save experiment result: %w", err)
	}
	return nil
}

// GetByID retrieves a result record by its experiment ID.
func (r *resultRepository) GetByID(ctx context.Context, id core.ExperimentID) (*ports.ResultRecord, error) {
	query := `SELECT id, kind, formula, score_name, score_value,
		causal_impact, impact_lower, impact_upper, summary, created_at
	FROM experiment_results WHERE id = $1`

	rec, err := scanRecord(r.db.QueryRowxContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: experiment result %s", core.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get experiment result: %w", err)
	}
	return rec, nil
}

// List returns result records newest first.
func (r *resultRepository) List(ctx context.Context, limit, offset int) ([]*ports.ResultRecord, error) {
	query := `SELECT id, kind, formula, score_name, score_value,
		causal_impact, impact_lower, impact_upper, summary, created_at
	FROM experiment_results ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryxContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiment results: %w", err)
	}
	defer rows.Close()

	var records []*ports.ResultRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan experiment result: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*ports.ResultRecord, error) {
	var rec ports.ResultRecord
	var createdAt sql.NullTime
	err := row.Scan(
		&rec.ID, &rec.Kind, &rec.Formula, &rec.ScoreName, &rec.ScoreValue,
		&rec.CausalImpact, &rec.ImpactLower, &rec.ImpactUpper, &rec.Summary,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	if createdAt.Valid {
		rec.CreatedAt = core.Timestamp(createdAt.Time)
	}
	return &rec, nil
}
