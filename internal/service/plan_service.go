package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/reorden/backend-go/internal/cache"
	"github.com/reorden/backend-go/internal/config"
	"github.com/reorden/backend-go/internal/domain"
	"github.com/reorden/backend-go/internal/export"
	"github.com/reorden/backend-go/internal/ingest"
	"github.com/reorden/backend-go/internal/reorder"
	"github.com/reorden/backend-go/internal/repository"
	"github.com/reorden/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
)

const defaultTopSellersLimit = 10

// PlanService orchestrates one plan computation end to end: parse the
// uploaded datasets, compute the plan (cache-aside), record the run summary
// and export the result. The repository and archive are optional; a nil value
// disables that concern without changing the computation.
type PlanService struct {
	defaults  config.ReorderConfig
	exportDir string
	cache     cache.PlanCache
	repo      repository.PlanRepository
	archive   storage.ObjectStorage
}

func NewPlanService(defaults config.ReorderConfig, exportDir string, cacheImpl cache.PlanCache, repo repository.PlanRepository, archive storage.ObjectStorage) *PlanService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopPlanCache()
	}
	return &PlanService{
		defaults:  defaults,
		exportDir: exportDir,
		cache:     cacheImpl,
		repo:      repo,
		archive:   archive,
	}
}

// Datasets is the parsed pair of uploads plus everything the caller needs to
// report about them: the outlet columns found in the sales file and every row
// that failed to parse.
type Datasets struct {
	Sales     []domain.SalesRecord
	Purchases []domain.PurchaseLine
	Outlets   []string
	RowErrors []domain.RowError
}

// LoadDatasets parses the sales and purchases CSVs. Row-level failures are
// collected on the result instead of aborting the load; only a missing
// required column or an unreadable file is fatal.
func (s *PlanService) LoadDatasets(salesR, purchasesR io.Reader) (*Datasets, error) {
	sales, err := ingest.ReadSales(salesR)
	if err != nil {
		return nil, fmt.Errorf("sales file: %w", err)
	}

	purchases, err := ingest.ReadPurchases(purchasesR)
	if err != nil {
		return nil, fmt.Errorf("purchases file: %w", err)
	}

	rowErrors := append([]domain.RowError{}, sales.RowErrors...)
	rowErrors = append(rowErrors, purchases.RowErrors...)

	return &Datasets{
		Sales:     sales.Records,
		Purchases: purchases.Lines,
		Outlets:   sales.Outlets,
		RowErrors: rowErrors,
	}, nil
}

// ComputePlan fills unset request fields from the configured defaults and
// computes the plan, consulting the cache first. When no sales product
// matches a purchase in strict mode, the empty plan is returned together
// with domain.ErrNoMatchingProducts so the caller can tell it apart from a
// genuinely empty order.
func (s *PlanService) ComputePlan(ctx context.Context, req domain.PlanRequest) (*domain.ReorderPlan, error) {
	s.applyDefaults(&req)

	if plan, ok, err := s.cache.GetPlan(ctx, req); err == nil && ok {
		return plan, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("plan: cache get failed")
	}

	snapshot, err := reorder.NewPlan(req)
	if err != nil && !errors.Is(err, domain.ErrNoMatchingProducts) {
		return nil, err
	}
	noMatch := err

	plan := &snapshot.Plan

	if noMatch == nil {
		if err := s.cache.SetPlan(ctx, req, plan); err != nil {
			log.Warn().Err(err).Msg("plan: cache set failed")
		}
		s.savePlanRun(ctx, req, plan)
	}

	return plan, noMatch
}

// TopSellers ranks products by historical units sold at the given outlet, or
// across all outlets when outlet is empty. Limit defaults to 10.
func (s *PlanService) TopSellers(sales []domain.SalesRecord, outlet string, limit int) []domain.TopSeller {
	if limit <= 0 {
		limit = defaultTopSellersLimit
	}
	outletKey := reorder.NormalizeKey(outlet)

	ranked := make([]domain.TopSeller, 0, len(sales))
	for _, record := range sales {
		var units float64
		if outletKey == "" {
			for _, u := range record.UnitsSoldByOutlet {
				units += u
			}
		} else {
			units = record.UnitsSoldByOutlet[outletKey]
		}
		if units <= 0 {
			continue
		}
		ranked = append(ranked, domain.TopSeller{
			ProductKey: reorder.NormalizeKey(record.ProductKey),
			UnitsSold:  units,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].UnitsSold > ranked[j].UnitsSold
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// ExportPlan writes the plan CSV to the export directory and, when an
// archive is configured, uploads a copy. The local path is returned; an
// archive failure is logged but does not fail the export.
func (s *PlanService) ExportPlan(ctx context.Context, plan *domain.ReorderPlan, outlet string) (string, error) {
	name := exportFileName(outlet, time.Now().UTC())
	path := filepath.Join(s.exportDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	if err := export.WritePlanCSV(f, plan); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	if s.archive != nil {
		data, err := os.ReadFile(path)
		if err == nil {
			err = s.archive.UploadObject(ctx, name, data)
		}
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("plan: archive upload failed")
		} else {
			log.Info().Str("file", name).Msg("plan: exported copy archived")
		}
	}

	return path, nil
}

// History lists recent plan runs, newest first. Without a repository it
// returns an empty list.
func (s *PlanService) History(ctx context.Context, outlet string, limit int) ([]domain.PlanRun, error) {
	if s.repo == nil {
		return []domain.PlanRun{}, nil
	}
	runs, err := s.repo.ListPlanRuns(ctx, outlet, limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []domain.PlanRun{}
	}
	return runs, nil
}

// InvalidateCache drops every cached plan.
func (s *PlanService) InvalidateCache(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}

func (s *PlanService) applyDefaults(req *domain.PlanRequest) {
	if req.ReferencePeriodDays <= 0 {
		req.ReferencePeriodDays = s.defaults.ReferencePeriodDays
	}
	if req.JoinMode == "" {
		req.JoinMode = s.defaults.JoinMode
	}
	if req.IncludeZeroQuantity == nil {
		include := s.defaults.IncludeZeroQuantity
		req.IncludeZeroQuantity = &include
	}
}

// savePlanRun records the run summary best effort; history must never block
// or fail a computation.
func (s *PlanService) savePlanRun(ctx context.Context, req domain.PlanRequest, plan *domain.ReorderPlan) {
	if s.repo == nil {
		return
	}

	run := &domain.PlanRun{
		Outlet:              reorder.NormalizeKey(req.Outlet),
		WindowStart:         req.WindowStart,
		WindowEnd:           req.WindowEnd,
		ReferencePeriodDays: req.ReferencePeriodDays,
		HorizonDays:         plan.Summary.HorizonDays,
		ProductCount:        plan.Summary.LineCount,
		GrandTotal:          plan.Summary.GrandTotal,
	}
	if _, err := s.repo.SavePlanRun(ctx, run); err != nil {
		log.Warn().Err(err).Msg("plan: failed to save run history")
	}
}

func exportFileName(outlet string, at time.Time) string {
	slug := reorder.NormalizeKey(outlet)
	if slug == "" {
		slug = "todos"
	}
	slug = sanitizeSlug(slug)
	return fmt.Sprintf("reorden_%s_%s.csv", slug, at.Format("20060102_150405"))
}

func sanitizeSlug(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
