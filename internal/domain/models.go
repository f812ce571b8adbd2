// internal/domain/models.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesRecord is one product row from a cleaned sales export.
// UnitsSoldByOutlet maps a normalized outlet name to the historical units sold
// at that outlet over the dataset's reference period. An outlet missing from
// the map counts as zero units.
type SalesRecord struct {
	ProductKey        string             `json:"product_key"`
	UnitsSoldByOutlet map[string]float64 `json:"units_sold_by_outlet"`
}

// PurchaseLine is one purchase-order line from a cleaned purchases export.
type PurchaseLine struct {
	ProductKey   string          `json:"product_key"`
	PurchaseDate time.Time       `json:"purchase_date"`
	Quantity     float64         `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

// ReorderLine is one product's computed demand/inventory/order tuple. It is
// ephemeral and fully recomputed whenever an input or an edit changes.
type ReorderLine struct {
	ProductKey         string          `json:"product_key"`
	ProjectedDemand    int             `json:"projected_demand"`
	AvailableInventory float64         `json:"available_inventory"`
	OrderQuantity      float64         `json:"order_quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	LineTotal          decimal.Decimal `json:"line_total"`
	PurchasedQuantity  float64         `json:"purchased_quantity"`
	Overridden         bool            `json:"overridden"`
}

// OrderSummary is the priced rollup over the included reorder lines.
type OrderSummary struct {
	GrandTotal  decimal.Decimal `json:"grand_total"`
	HorizonDays int             `json:"horizon_days"`
	LineCount   int             `json:"line_count"`
}

// LineEdit is a manual correction to one reorder line. Edits cascade forward
// only: an edited inventory recomputes the order quantity, an edited order
// quantity recomputes the line total, never the other way around.
type LineEdit struct {
	ProductKey         string   `json:"product_key"`
	AvailableInventory *float64 `json:"available_inventory,omitempty"`
	OrderQuantity      *float64 `json:"order_quantity,omitempty"`
}

// PlanRequest is everything the shell hands the core for one computation.
// IncludeZeroQuantity is tri-state: nil means "not specified", which the
// service resolves from configuration and the core resolves to including
// every line. Filtering to positive quantities is the opt-in.
type PlanRequest struct {
	Sales               []SalesRecord  `json:"sales"`
	Purchases           []PurchaseLine `json:"purchases"`
	Outlet              string         `json:"outlet"`
	WindowStart         time.Time      `json:"window_start"`
	WindowEnd           time.Time      `json:"window_end"`
	ReferencePeriodDays int            `json:"reference_period_days"`
	JoinMode            string         `json:"join_mode"`
	IncludeZeroQuantity *bool          `json:"include_zero_quantity,omitempty"`
	Edits               []LineEdit     `json:"edits,omitempty"`
}

// IncludesZeroQuantity resolves the tri-state inclusion flag: unset means
// every line is included.
func (r PlanRequest) IncludesZeroQuantity() bool {
	if r.IncludeZeroQuantity == nil {
		return true
	}
	return *r.IncludeZeroQuantity
}

// JoinStats makes join mismatches observable instead of silently dropped.
// Product counters count distinct product keys; LinesOutsideWindow counts
// individual purchase lines.
type JoinStats struct {
	MatchedProducts      int `json:"matched_products"`
	SalesOnlyProducts    int `json:"sales_only_products"`
	PurchaseOnlyProducts int `json:"purchase_only_products"`
	LinesOutsideWindow   int `json:"lines_outside_window"`
}

// ReorderPlan is the full computed result returned to the shell.
type ReorderPlan struct {
	Lines      []ReorderLine `json:"lines"`
	Summary    OrderSummary  `json:"summary"`
	Stats      JoinStats     `json:"stats"`
	ComputedAt time.Time     `json:"computed_at"`
}

// PlanRun is a persisted summary of one computed plan, kept for the history
// dashboard. The line-level data is ephemeral and never stored.
type PlanRun struct {
	ID                  int64           `json:"id" db:"id"`
	Outlet              string          `json:"outlet" db:"outlet"`
	WindowStart         time.Time       `json:"window_start" db:"window_start"`
	WindowEnd           time.Time       `json:"window_end" db:"window_end"`
	ReferencePeriodDays int             `json:"reference_period_days" db:"reference_period_days"`
	HorizonDays         int             `json:"horizon_days" db:"horizon_days"`
	ProductCount        int             `json:"product_count" db:"product_count"`
	GrandTotal          decimal.Decimal `json:"grand_total" db:"grand_total"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
}

// TopSeller is one row of the sales-ranking summary shown on the dashboard.
type TopSeller struct {
	ProductKey string  `json:"product_key"`
	UnitsSold  float64 `json:"units_sold"`
}
