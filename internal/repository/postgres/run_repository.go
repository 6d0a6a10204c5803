package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/toolboxbuxoro-web/toolbox-analyzer/internal/domain"
)

const runsSchema = `
CREATE TABLE IF NOT EXISTS report_runs (
	id          BIGSERIAL PRIMARY KEY,
	kind        TEXT NOT NULL,
	date_from   TEXT NOT NULL DEFAULT '',
	date_to     TEXT NOT NULL DEFAULT '',
	item_count  INTEGER NOT NULL DEFAULT 0,
	match_count INTEGER NOT NULL DEFAULT 0,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	error_text  TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// RunRepository records report runs. A nil repository is valid and drops
// every write, so callers never branch on whether the run log is enabled.
type RunRepository struct {
	db *sqlx.DB
}

func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// EnsureSchema creates the runs table when missing.
func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	if r == nil || r.db == nil {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, runsSchema); err != nil {
		return fmt.Errorf("create report_runs table: %w", err)
	}
	return nil
}

// SaveRun inserts one run record. Failures are logged, not returned; the
// audit log must never fail a report that already succeeded.
func (r *RunRepository) SaveRun(ctx context.Context, run domain.ReportRun) {
	if r == nil || r.db == nil {
		return
	}

	const query = `
		INSERT INTO report_runs (kind, date_from, date_to, item_count, match_count, duration_ms, error_text)
		VALUES (:kind, :date_from, :date_to, :item_count, :match_count, :duration_ms, :error_text)`

	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		log.Error().Err(err).Str("kind", run.Kind).Msg("failed to record report run")
	}
}

// RecentRuns returns the latest run records, newest first.
func (r *RunRepository) RecentRuns(ctx context.Context, limit int) ([]domain.ReportRun, error) {
	if r == nil || r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	var runs []domain.ReportRun
	err := r.db.SelectContext(ctx, &runs,
		`SELECT id, kind, date_from, date_to, item_count, match_count, duration_ms, error_text, created_at
		 FROM report_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("select report runs: %w", err)
	}
	return runs, nil
}
