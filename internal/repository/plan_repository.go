// internal/repository/plan_repository.go
package repository

import (
	"context"

	"github.com/reorden/backend-go/internal/domain"
)

// PlanRepository persists plan-run summaries for the history dashboard.
// Line-level plan data is never stored.
type PlanRepository interface {
	SavePlanRun(ctx context.Context, run *domain.PlanRun) (int64, error)
	ListPlanRuns(ctx context.Context, outlet string, limit int) ([]domain.PlanRun, error)
}
