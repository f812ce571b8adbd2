package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/reorden/backend-go/internal/domain"
	"github.com/reorden/backend-go/internal/reorder"
)

// PlanRepository is the postgres-backed plan-run history store.
type PlanRepository struct {
	db *DB
}

func NewPlanRepository(db *DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// SavePlanRun inserts one plan-run summary and returns its id.
func (r *PlanRepository) SavePlanRun(ctx context.Context, run *domain.PlanRun) (int64, error) {
	var id int64
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, `
			INSERT INTO plan_runs (
				outlet, window_start, window_end,
				reference_period_days, horizon_days,
				product_count, grand_total, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			RETURNING id`,
			reorder.NormalizeKey(run.Outlet),
			run.WindowStart,
			run.WindowEnd,
			run.ReferencePeriodDays,
			run.HorizonDays,
			run.ProductCount,
			run.GrandTotal,
		).Scan(&id)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to save plan run: %w", err)
	}
	return id, nil
}

// ListPlanRuns returns the most recent plan runs, optionally filtered by
// outlet.
func (r *PlanRepository) ListPlanRuns(ctx context.Context, outlet string, limit int) ([]domain.PlanRun, error) {
	if limit <= 0 {
		limit = 30
	}

	query := `
		SELECT id, outlet, window_start, window_end,
		       reference_period_days, horizon_days,
		       product_count, grand_total, created_at
		FROM plan_runs`
	args := []interface{}{}
	if outlet != "" {
		query += " WHERE outlet = $1"
		args = append(args, reorder.NormalizeKey(outlet))
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d", limit)

	runs := []domain.PlanRun{}
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list plan runs: %w", err)
	}
	return runs, nil
}
