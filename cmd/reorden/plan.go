package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/reorden/backend-go/internal/config"
	"github.com/reorden/backend-go/internal/domain"
	"github.com/reorden/backend-go/internal/export"
	"github.com/reorden/backend-go/internal/service"
	"github.com/urfave/cli/v2"
)

func runPlan(c *cli.Context) error {
	start, err := parseDateFlag(c, "start")
	if err != nil {
		return err
	}
	end, err := parseDateFlag(c, "end")
	if err != nil {
		return err
	}

	salesFile, err := os.Open(c.String("sales"))
	if err != nil {
		return fmt.Errorf("failed to open sales file: %w", err)
	}
	defer salesFile.Close()

	purchasesFile, err := os.Open(c.String("purchases"))
	if err != nil {
		return fmt.Errorf("failed to open purchases file: %w", err)
	}
	defer purchasesFile.Close()

	cfg := config.Load()
	svc := service.NewPlanService(cfg.Reorder, cfg.App.ExportDir, nil, nil, nil)

	datasets, err := svc.LoadDatasets(salesFile, purchasesFile)
	if err != nil {
		return err
	}
	for _, rowErr := range datasets.RowErrors {
		fmt.Fprintf(os.Stderr, "skipped row %d (%s=%q): %v\n", rowErr.Row, rowErr.Column, rowErr.Value, rowErr.Err)
	}

	req := domain.PlanRequest{
		Sales:               datasets.Sales,
		Purchases:           datasets.Purchases,
		Outlet:              c.String("outlet"),
		WindowStart:         start,
		WindowEnd:           end,
		ReferencePeriodDays: c.Int("ref-days"),
		JoinMode:            c.String("join-mode"),
	}
	if c.Bool("omit-zero") {
		include := false
		req.IncludeZeroQuantity = &include
	}

	plan, err := svc.ComputePlan(c.Context, req)
	if err != nil {
		if errors.Is(err, domain.ErrNoMatchingProducts) {
			fmt.Println("No sales product matches a purchase in the window; nothing to order.")
			return nil
		}
		return err
	}

	printPlan(plan)

	if path := c.String("export"); path != "" {
		out, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		defer out.Close()
		if err := export.WritePlanCSV(out, plan); err != nil {
			return err
		}
		fmt.Printf("Plan written to %s\n", path)
	}

	return nil
}

func printPlan(plan *domain.ReorderPlan) {
	fmt.Printf("%-40s %10s %12s %10s %14s %14s\n",
		"PRODUCTO", "DEMANDA", "INVENTARIO", "PEDIDO", "PRECIO", "TOTAL")
	for _, line := range plan.Lines {
		fmt.Printf("%-40s %10d %12v %10v %14s %14s\n",
			line.ProductKey,
			line.ProjectedDemand,
			line.AvailableInventory,
			line.OrderQuantity,
			export.FormatMoney(line.UnitPrice),
			export.FormatMoney(line.LineTotal))
	}
	fmt.Printf("\n%d lines over a %d-day horizon, total %s\n",
		plan.Summary.LineCount,
		plan.Summary.HorizonDays,
		export.FormatMoney(plan.Summary.GrandTotal))

	stats := plan.Stats
	if stats.SalesOnlyProducts > 0 || stats.PurchaseOnlyProducts > 0 || stats.LinesOutsideWindow > 0 {
		fmt.Printf("join: %d matched, %d sales-only, %d purchase-only, %d outside window\n",
			stats.MatchedProducts, stats.SalesOnlyProducts, stats.PurchaseOnlyProducts, stats.LinesOutsideWindow)
	}
}
