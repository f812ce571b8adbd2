package reorder

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/reorden/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

// JoinMode controls what happens to products that sold but were never
// purchased inside the window. The source systems disagree on this, so it is
// explicit configuration instead of a guess.
type JoinMode string

const (
	// JoinStrict drops sales-only products (inner join).
	JoinStrict JoinMode = "strict"
	// JoinFillZero keeps sales-only products with zero purchased quantity and
	// zero price (left join).
	JoinFillZero JoinMode = "fill-zero"
)

// ParseJoinMode maps a config string onto a JoinMode, defaulting to strict.
func ParseJoinMode(s string) JoinMode {
	if strings.EqualFold(strings.TrimSpace(s), string(JoinFillZero)) {
		return JoinFillZero
	}
	return JoinStrict
}

// Options configures one reconciliation run.
type Options struct {
	ReferencePeriodDays int
	JoinMode            JoinMode
	Edits               []domain.LineEdit
}

// NormalizeKey folds a raw product name into the join key: trimmed,
// lower-cased, inner whitespace collapsed.
func NormalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// purchaseAgg accumulates the window-filtered purchase lines of one product.
type purchaseAgg struct {
	totalQuantity float64
	lastPrice     decimal.Decimal
	lastDate      time.Time
	priced        bool
}

// Reconcile joins projected demand against purchased stock per product and
// derives a non-negative available inventory and order quantity for each line.
// Line order follows the sales input order so reruns are reproducible.
func Reconcile(sales []domain.SalesRecord, purchases []domain.PurchaseLine, outlet string, windowStart, windowEnd time.Time, opts Options) ([]domain.ReorderLine, domain.JoinStats, error) {
	var stats domain.JoinStats

	// 1. Validate the window and the projection inputs up front; the whole
	// computation refuses to run on bad input, never partially.
	horizonDays, err := HorizonDays(windowStart, windowEnd)
	if err != nil {
		return nil, stats, err
	}
	if opts.ReferencePeriodDays <= 0 {
		return nil, stats, domain.NewValidationError("reference_period_days",
			fmt.Errorf("must be positive, got %d", opts.ReferencePeriodDays))
	}

	outletKey := NormalizeKey(outlet)
	if err := validateOutlet(sales, outletKey); err != nil {
		return nil, stats, err
	}

	// 2. Merge duplicate sales rows per normalized key, keeping first-seen
	// order (the exports occasionally repeat a product).
	merged, order := mergeSales(sales)

	// 3. Aggregate purchase lines inside the window: quantities sum, the
	// price comes from the latest line, ties resolved by input order
	// (last one wins).
	windowStart = truncateToDate(windowStart)
	windowEnd = truncateToDate(windowEnd)
	aggs := make(map[string]*purchaseAgg)
	for _, line := range purchases {
		day := truncateToDate(line.PurchaseDate)
		if day.Before(windowStart) || day.After(windowEnd) {
			stats.LinesOutsideWindow++
			continue
		}
		key := NormalizeKey(line.ProductKey)
		agg, ok := aggs[key]
		if !ok {
			agg = &purchaseAgg{}
			aggs[key] = agg
		}
		agg.totalQuantity += line.Quantity
		if !agg.priced || !day.Before(agg.lastDate) {
			agg.lastPrice = line.UnitPrice
			agg.lastDate = day
			agg.priced = true
		}
	}

	// 4. Build one line per sales product, joined by normalized key.
	lines := make([]domain.ReorderLine, 0, len(order))
	for _, key := range order {
		record := merged[key]

		demand, err := ProjectDemand(record.UnitsSoldByOutlet[outletKey], opts.ReferencePeriodDays, horizonDays)
		if err != nil {
			return nil, stats, err
		}

		agg, matched := aggs[key]
		if !matched {
			stats.SalesOnlyProducts++
			if opts.JoinMode != JoinFillZero {
				continue
			}
			agg = &purchaseAgg{lastPrice: decimal.Zero}
		} else {
			stats.MatchedProducts++
		}

		available := math.Max(agg.totalQuantity-float64(demand), 0)
		orderQty := math.Max(float64(demand)-available, 0)

		lines = append(lines, domain.ReorderLine{
			ProductKey:         key,
			ProjectedDemand:    demand,
			AvailableInventory: available,
			OrderQuantity:      orderQty,
			UnitPrice:          agg.lastPrice,
			PurchasedQuantity:  agg.totalQuantity,
		})
	}

	// Purchase-only products never reach the table; count them so callers can
	// surface the mismatch.
	for key := range aggs {
		if _, ok := merged[key]; !ok {
			stats.PurchaseOnlyProducts++
		}
	}

	// 5. Apply manual edits. Edits cascade forward only: an edited inventory
	// recomputes the order quantity, an edited quantity stands as given.
	if err := applyEdits(lines, opts.Edits); err != nil {
		return nil, stats, err
	}

	if len(sales) > 0 && len(lines) == 0 {
		return lines, stats, domain.ErrNoMatchingProducts
	}

	return lines, stats, nil
}

func validateOutlet(sales []domain.SalesRecord, outletKey string) error {
	if outletKey == "" {
		return domain.NewValidationError("outlet", fmt.Errorf("must not be empty"))
	}
	for _, record := range sales {
		for name := range record.UnitsSoldByOutlet {
			if NormalizeKey(name) == outletKey {
				return nil
			}
		}
	}
	if len(sales) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %q", domain.ErrUnknownOutlet, outletKey)
}

// mergeSales merges duplicate product rows by summing per-outlet units and
// returns the merged records plus the first-seen key order.
func mergeSales(sales []domain.SalesRecord) (map[string]domain.SalesRecord, []string) {
	merged := make(map[string]domain.SalesRecord, len(sales))
	order := make([]string, 0, len(sales))
	for _, record := range sales {
		key := NormalizeKey(record.ProductKey)
		if key == "" {
			continue
		}
		existing, ok := merged[key]
		if !ok {
			units := make(map[string]float64, len(record.UnitsSoldByOutlet))
			for outlet, sold := range record.UnitsSoldByOutlet {
				units[NormalizeKey(outlet)] += sold
			}
			merged[key] = domain.SalesRecord{ProductKey: key, UnitsSoldByOutlet: units}
			order = append(order, key)
			continue
		}
		for outlet, sold := range record.UnitsSoldByOutlet {
			existing.UnitsSoldByOutlet[NormalizeKey(outlet)] += sold
		}
	}
	return merged, order
}

func applyEdits(lines []domain.ReorderLine, edits []domain.LineEdit) error {
	if len(edits) == 0 {
		return nil
	}

	index := make(map[string]int, len(lines))
	for i, line := range lines {
		index[line.ProductKey] = i
	}

	for _, edit := range edits {
		key := NormalizeKey(edit.ProductKey)
		i, ok := index[key]
		if !ok {
			return fmt.Errorf("%w: %q", domain.ErrMissingJoinKey, key)
		}

		line := &lines[i]
		if edit.AvailableInventory != nil {
			line.AvailableInventory = math.Max(*edit.AvailableInventory, 0)
			line.OrderQuantity = math.Max(float64(line.ProjectedDemand)-line.AvailableInventory, 0)
			line.Overridden = true
		}
		if edit.OrderQuantity != nil {
			line.OrderQuantity = math.Max(*edit.OrderQuantity, 0)
			line.Overridden = true
		}
	}
	return nil
}
