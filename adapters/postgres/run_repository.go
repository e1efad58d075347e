package postgres

import (
	"context"
	"database/sql"

	"pubstats/domain/core"
	"pubstats/models"
	"pubstats/ports"

	"github.com/jmoiron/sqlx"
)

// RunRepositoryImpl implements RunRepository for PostgreSQL
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// SaveRun persists a completed analysis run
func (r *RunRepositoryImpl) SaveRun(ctx context.Context, run *models.AnalysisRun) error {
	// JSONBDocument implements driver.Valuer, so it will be automatically converted
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO analysis_runs (id, family_hash, alpha, method, question_count, significant_count, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, run.ID, run.FamilyHash, run.Alpha, run.Method, run.QuestionCount, run.SignificantCount, run.Payload, run.CreatedAt)
	return err
}

// GetRun retrieves an archived run by ID
func (r *RunRepositoryImpl) GetRun(ctx context.Context, id core.RunID) (*models.AnalysisRun, error) {
	var run models.AnalysisRun
	err := r.db.GetContext(ctx, &run, `
		SELECT id, family_hash, alpha, method, question_count, significant_count, payload, created_at
		FROM analysis_runs
		WHERE id = $1
	`, id.String())

	if err == sql.ErrNoRows {
		return nil, core.ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the most recent runs, newest first
func (r *RunRepositoryImpl) ListRuns(ctx context.Context, limit int) ([]*models.AnalysisRun, error) {
	if limit <= 0 {
		limit = 50
	}
	runs := make([]*models.AnalysisRun, 0, limit)
	err := r.db.SelectContext(ctx, &runs, `
		SELECT id, family_hash, alpha, method, question_count, significant_count, payload, created_at
		FROM analysis_runs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return runs, nil
}
