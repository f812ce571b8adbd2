package main

import (
	"database/sql"
	"fmt"

	"github.com/reorden/backend-go/internal/domain"
	"github.com/reorden/backend-go/internal/export"
	"github.com/reorden/backend-go/internal/reorder"
	"github.com/urfave/cli/v2"
)

func runHistory(c *cli.Context) error {
	db, ok := c.Context.Value(dbKey).(*sql.DB)
	if !ok || db == nil {
		return fmt.Errorf("database connection not initialized")
	}

	query := `
		SELECT id, outlet, window_start, window_end,
		       reference_period_days, horizon_days,
		       product_count, grand_total, created_at
		FROM plan_runs`
	args := []interface{}{}
	if outlet := c.String("outlet"); outlet != "" {
		query += " WHERE outlet = $1"
		args = append(args, reorder.NormalizeKey(outlet))
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d", c.Int("limit"))

	rows, err := db.QueryContext(c.Context, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query plan runs: %w", err)
	}
	defer rows.Close()

	fmt.Printf("%-6s %-20s %-12s %-12s %8s %8s %8s %14s %-20s\n",
		"ID", "OUTLET", "START", "END", "REFDAYS", "HORIZON", "LINES", "TOTAL", "CREATED")

	for rows.Next() {
		var run domain.PlanRun
		if err := rows.Scan(
			&run.ID, &run.Outlet, &run.WindowStart, &run.WindowEnd,
			&run.ReferencePeriodDays, &run.HorizonDays,
			&run.ProductCount, &run.GrandTotal, &run.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to scan plan run: %w", err)
		}

		fmt.Printf("%-6d %-20s %-12s %-12s %8d %8d %8d %14s %-20s\n",
			run.ID,
			run.Outlet,
			run.WindowStart.Format("2006-01-02"),
			run.WindowEnd.Format("2006-01-02"),
			run.ReferencePeriodDays,
			run.HorizonDays,
			run.ProductCount,
			export.FormatMoney(run.GrandTotal),
			run.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	return rows.Err()
}
