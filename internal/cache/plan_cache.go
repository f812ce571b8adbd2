package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/reorden/backend-go/internal/config"
	"github.com/reorden/backend-go/internal/domain"
	"github.com/reorden/backend-go/internal/reorder"
)

const (
	planKeyPrefix     = "reorden:plan"
	planScanBatchSize = 100
)

// PlanCache fronts the plan computation. Plans are cheap to recompute, so a
// miss is never an error and the TTL stays short.
type PlanCache interface {
	GetPlan(ctx context.Context, req domain.PlanRequest) (*domain.ReorderPlan, bool, error)
	SetPlan(ctx context.Context, req domain.PlanRequest, plan *domain.ReorderPlan) error
	InvalidateAll(ctx context.Context) error
}

type redisPlanCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopPlanCache struct{}

func NewPlanCache(cfg config.CacheConfig) (PlanCache, error) {
	if !cfg.Enabled {
		return &noopPlanCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisPlanCache{client: client, ttl: ttl}, nil
}

func NewNoopPlanCache() PlanCache {
	return &noopPlanCache{}
}

func (c *redisPlanCache) GetPlan(ctx context.Context, req domain.PlanRequest) (*domain.ReorderPlan, bool, error) {
	payload, err := c.client.Get(ctx, buildPlanKey(req)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var plan domain.ReorderPlan
	if err := json.Unmarshal(payload, &plan); err != nil {
		return nil, false, fmt.Errorf("decode plan cache: %w", err)
	}
	return &plan, true, nil
}

func (c *redisPlanCache) SetPlan(ctx context.Context, req domain.PlanRequest, plan *domain.ReorderPlan) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("encode plan cache: %w", err)
	}
	if err := c.client.Set(ctx, buildPlanKey(req), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisPlanCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, planKeyPrefix, planScanBatchSize)
}

func (n *noopPlanCache) GetPlan(ctx context.Context, req domain.PlanRequest) (*domain.ReorderPlan, bool, error) {
	return nil, false, nil
}

func (n *noopPlanCache) SetPlan(ctx context.Context, req domain.PlanRequest, plan *domain.ReorderPlan) error {
	return nil
}

func (n *noopPlanCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildPlanKey(req domain.PlanRequest) string {
	return fmt.Sprintf("%s:%s", planKeyPrefix, planRequestHash(req))
}

// planRequestHash derives a stable key from everything that influences the
// computed plan, datasets included. Identical inputs must hit the same entry
// regardless of row order quirks upstream.
func planRequestHash(req domain.PlanRequest) string {
	parts := []string{
		"outlet=" + reorder.NormalizeKey(req.Outlet),
		"start=" + req.WindowStart.Format("2006-01-02"),
		"end=" + req.WindowEnd.Format("2006-01-02"),
		fmt.Sprintf("ref_days=%d", req.ReferencePeriodDays),
		"join=" + string(reorder.ParseJoinMode(req.JoinMode)),
		fmt.Sprintf("include_zero=%t", req.IncludesZeroQuantity()),
	}

	for _, record := range req.Sales {
		outlets := make([]string, 0, len(record.UnitsSoldByOutlet))
		for outlet, units := range record.UnitsSoldByOutlet {
			outlets = append(outlets, fmt.Sprintf("%s=%v", outlet, units))
		}
		sort.Strings(outlets)
		parts = append(parts, "s:"+reorder.NormalizeKey(record.ProductKey)+"|"+strings.Join(outlets, ","))
	}
	for _, line := range req.Purchases {
		parts = append(parts, fmt.Sprintf("p:%s|%s|%v|%s",
			reorder.NormalizeKey(line.ProductKey),
			line.PurchaseDate.Format("2006-01-02"),
			line.Quantity,
			line.UnitPrice))
	}
	for _, edit := range req.Edits {
		part := "e:" + reorder.NormalizeKey(edit.ProductKey)
		if edit.AvailableInventory != nil {
			part += fmt.Sprintf("|inv=%v", *edit.AvailableInventory)
		}
		if edit.OrderQuantity != nil {
			part += fmt.Sprintf("|qty=%v", *edit.OrderQuantity)
		}
		parts = append(parts, part)
	}

	sum := sha1.Sum([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(sum[:])
}
