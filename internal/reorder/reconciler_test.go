package reorder

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/reorden/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func salesRecord(product, outlet string, units float64) domain.SalesRecord {
	return domain.SalesRecord{
		ProductKey:        product,
		UnitsSoldByOutlet: map[string]float64{outlet: units},
	}
}

func purchaseLine(product, date string, qty float64, price string) domain.PurchaseLine {
	return domain.PurchaseLine{
		ProductKey:   product,
		PurchaseDate: day(date),
		Quantity:     qty,
		UnitPrice:    decimal.RequireFromString(price),
	}
}

func defaultOpts() Options {
	return Options{ReferencePeriodDays: 30, JoinMode: JoinStrict}
}

func TestReconcile_EndToEndScenario(t *testing.T) {
	sales := []domain.SalesRecord{salesRecord("soda-500ml", "centro", 900)}
	purchases := []domain.PurchaseLine{
		purchaseLine("soda-500ml", "2024-03-01", 20, "2.00"),
		purchaseLine("soda-500ml", "2024-03-05", 15, "2.20"),
	}

	lines, stats, err := Reconcile(sales, purchases, "centro", day("2024-03-01"), day("2024-03-07"), defaultOpts())
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}

	line := lines[0]
	if line.ProjectedDemand != 210 {
		t.Errorf("projected demand = %d, want 210", line.ProjectedDemand)
	}
	if line.PurchasedQuantity != 35 {
		t.Errorf("purchased quantity = %v, want 35", line.PurchasedQuantity)
	}
	if !line.UnitPrice.Equal(decimal.RequireFromString("2.20")) {
		t.Errorf("unit price = %s, want 2.20 (latest line)", line.UnitPrice)
	}
	if line.AvailableInventory != 0 {
		t.Errorf("available inventory = %v, want 0", line.AvailableInventory)
	}
	if line.OrderQuantity != 210 {
		t.Errorf("order quantity = %v, want 210", line.OrderQuantity)
	}
	if stats.MatchedProducts != 1 {
		t.Errorf("matched products = %d, want 1", stats.MatchedProducts)
	}

	total := Totalize(lines, false)
	if !total.GrandTotal.Equal(decimal.RequireFromString("462.00")) {
		t.Errorf("grand total = %s, want 462.00", total.GrandTotal)
	}
}

func TestReconcile_NonNegativityClamp(t *testing.T) {
	// purchased=10, demand=50 => inventory clamps to 0 and the full demand is ordered
	sales := []domain.SalesRecord{salesRecord("jabon", "norte", 50)}
	purchases := []domain.PurchaseLine{purchaseLine("jabon", "2024-03-02", 10, "1.00")}

	opts := defaultOpts()
	lines, _, err := Reconcile(sales, purchases, "norte", day("2024-03-01"), day("2024-03-30"), opts)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if lines[0].AvailableInventory != 0 {
		t.Errorf("available inventory = %v, want 0", lines[0].AvailableInventory)
	}
	if lines[0].OrderQuantity != 50 {
		t.Errorf("order quantity = %v, want 50", lines[0].OrderQuantity)
	}
}

func TestReconcile_SurplusBecomesInventory(t *testing.T) {
	// purchased=100, demand=30 => inventory 70, nothing to order
	sales := []domain.SalesRecord{salesRecord("arroz 1kg", "norte", 30)}
	purchases := []domain.PurchaseLine{purchaseLine("arroz 1kg", "2024-03-02", 100, "3.50")}

	lines, _, err := Reconcile(sales, purchases, "norte", day("2024-03-01"), day("2024-03-30"), defaultOpts())
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if lines[0].AvailableInventory != 70 {
		t.Errorf("available inventory = %v, want 70", lines[0].AvailableInventory)
	}
	if lines[0].OrderQuantity != 0 {
		t.Errorf("order quantity = %v, want 0", lines[0].OrderQuantity)
	}
}

func TestReconcile_Idempotence(t *testing.T) {
	sales := []domain.SalesRecord{
		salesRecord("soda-500ml", "centro", 900),
		salesRecord("jabon", "centro", 120),
	}
	purchases := []domain.PurchaseLine{
		purchaseLine("soda-500ml", "2024-03-01", 20, "2.00"),
		purchaseLine("jabon", "2024-03-03", 40, "1.10"),
	}

	first, _, err := Reconcile(sales, purchases, "centro", day("2024-03-01"), day("2024-03-07"), defaultOpts())
	if err != nil {
		t.Fatalf("first Reconcile failed: %v", err)
	}
	second, _, err := Reconcile(sales, purchases, "centro", day("2024-03-01"), day("2024-03-07"), defaultOpts())
	if err != nil {
		t.Fatalf("second Reconcile failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("reconciliation is not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestReconcile_KeyNormalization(t *testing.T) {
	sales := []domain.SalesRecord{salesRecord("  Soda-500ml ", "Centro", 300)}
	purchases := []domain.PurchaseLine{purchaseLine("SODA-500ML", "2024-03-02", 10, "2.00")}

	lines, stats, err := Reconcile(sales, purchases, " CENTRO ", day("2024-03-01"), day("2024-03-07"), defaultOpts())
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if stats.MatchedProducts != 1 {
		t.Fatalf("case/whitespace-insensitive join did not match: %+v", stats)
	}
	if lines[0].ProductKey != "soda-500ml" {
		t.Errorf("product key = %q, want normalized %q", lines[0].ProductKey, "soda-500ml")
	}
}

func TestReconcile_PriceTieBreakLastWins(t *testing.T) {
	sales := []domain.SalesRecord{salesRecord("soda", "centro", 300)}
	purchases := []domain.PurchaseLine{
		purchaseLine("soda", "2024-03-05", 10, "2.00"),
		purchaseLine("soda", "2024-03-05", 5, "2.35"),
	}

	lines, _, err := Reconcile(sales, purchases, "centro", day("2024-03-01"), day("2024-03-07"), defaultOpts())
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !lines[0].UnitPrice.Equal(decimal.RequireFromString("2.35")) {
		t.Errorf("unit price = %s, want 2.35 (last line on tied date)", lines[0].UnitPrice)
	}
}

func TestReconcile_WindowFiltering(t *testing.T) {
	sales := []domain.SalesRecord{salesRecord("soda", "centro", 300)}
	purchases := []domain.PurchaseLine{
		purchaseLine("soda", "2024-02-20", 100, "1.80"), // before window
		purchaseLine("soda", "2024-03-03", 25, "2.00"),
		purchaseLine("soda", "2024-03-09", 100, "2.50"), // after window
	}

	lines, stats, err := Reconcile(sales, purchases, "centro", day("2024-03-01"), day("2024-03-07"), defaultOpts())
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if lines[0].PurchasedQuantity != 25 {
		t.Errorf("purchased quantity = %v, want 25 (window filtered)", lines[0].PurchasedQuantity)
	}
	if !lines[0].UnitPrice.Equal(decimal.RequireFromString("2.00")) {
		t.Errorf("unit price = %s, want 2.00", lines[0].UnitPrice)
	}
	if stats.LinesOutsideWindow != 2 {
		t.Errorf("lines outside window = %d, want 2", stats.LinesOutsideWindow)
	}
}

func TestReconcile_JoinModes(t *testing.T) {
	sales := []domain.SalesRecord{
		salesRecord("soda", "centro", 300),
		salesRecord("galletas", "centro", 60), // never purchased
	}
	purchases := []domain.PurchaseLine{
		purchaseLine("soda", "2024-03-03", 25, "2.00"),
		purchaseLine("pilas", "2024-03-03", 10, "5.00"), // never sold
	}

	t.Run("strict drops sales-only products", func(t *testing.T) {
		lines, stats, err := Reconcile(sales, purchases, "centro", day("2024-03-01"), day("2024-03-07"), defaultOpts())
		if err != nil {
			t.Fatalf("Reconcile failed: %v", err)
		}
		if len(lines) != 1 || lines[0].ProductKey != "soda" {
			t.Fatalf("expected only soda, got %+v", lines)
		}
		if stats.SalesOnlyProducts != 1 {
			t.Errorf("sales-only count = %d, want 1", stats.SalesOnlyProducts)
		}
		if stats.PurchaseOnlyProducts != 1 {
			t.Errorf("purchase-only count = %d, want 1", stats.PurchaseOnlyProducts)
		}
	})

	t.Run("fill-zero keeps sales-only products", func(t *testing.T) {
		opts := defaultOpts()
		opts.JoinMode = JoinFillZero
		lines, _, err := Reconcile(sales, purchases, "centro", day("2024-03-01"), day("2024-03-07"), opts)
		if err != nil {
			t.Fatalf("Reconcile failed: %v", err)
		}
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %d", len(lines))
		}
		galletas := lines[1]
		if galletas.ProductKey != "galletas" {
			t.Fatalf("expected galletas second, got %q", galletas.ProductKey)
		}
		if galletas.PurchasedQuantity != 0 || !galletas.UnitPrice.IsZero() {
			t.Errorf("zero-fill line not zeroed: %+v", galletas)
		}
		// demand 60 over 30 days, 7-day horizon => 14 units, all to order
		if galletas.OrderQuantity != 14 {
			t.Errorf("order quantity = %v, want 14", galletas.OrderQuantity)
		}
	})
}

func TestReconcile_OverrideCascade(t *testing.T) {
	// demand 50, purchased 60 => available 10, order 40 at 2.50
	sales := []domain.SalesRecord{salesRecord("soda", "centro", 50)}
	purchases := []domain.PurchaseLine{purchaseLine("soda", "2024-03-02", 60, "2.50")}
	window := [2]time.Time{day("2024-03-01"), day("2024-03-30")}

	base, _, err := Reconcile(sales, purchases, "centro", window[0], window[1], defaultOpts())
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if base[0].AvailableInventory != 10 || base[0].OrderQuantity != 40 {
		t.Fatalf("unexpected base line: %+v", base[0])
	}

	inventory := 40.0
	opts := defaultOpts()
	opts.Edits = []domain.LineEdit{{ProductKey: "soda", AvailableInventory: &inventory}}

	edited, _, err := Reconcile(sales, purchases, "centro", window[0], window[1], opts)
	if err != nil {
		t.Fatalf("Reconcile with edit failed: %v", err)
	}

	line := edited[0]
	if line.AvailableInventory != 40 {
		t.Errorf("edited inventory = %v, want 40", line.AvailableInventory)
	}
	if line.OrderQuantity != 10 {
		t.Errorf("order quantity = %v, want 10 (recomputed from edit)", line.OrderQuantity)
	}
	if !line.Overridden {
		t.Error("line should be flagged as overridden")
	}

	// the cascade reaches the line total: 10 x 2.50 = 25.00, not the stale 100.00
	priced := Totalize(edited, false)
	if !priced.Lines[0].LineTotal.Equal(decimal.RequireFromString("25.00")) {
		t.Errorf("line total = %s, want 25.00", priced.Lines[0].LineTotal)
	}

	// re-applying the identical edit changes nothing
	again, _, err := Reconcile(sales, purchases, "centro", window[0], window[1], opts)
	if err != nil {
		t.Fatalf("Reconcile re-apply failed: %v", err)
	}
	if !reflect.DeepEqual(edited, again) {
		t.Errorf("override application is not idempotent")
	}
}

func TestReconcile_EditForUnknownProduct(t *testing.T) {
	sales := []domain.SalesRecord{salesRecord("soda", "centro", 50)}
	purchases := []domain.PurchaseLine{purchaseLine("soda", "2024-03-02", 60, "2.50")}

	qty := 5.0
	opts := defaultOpts()
	opts.Edits = []domain.LineEdit{{ProductKey: "no-existe", OrderQuantity: &qty}}

	_, _, err := Reconcile(sales, purchases, "centro", day("2024-03-01"), day("2024-03-30"), opts)
	if !errors.Is(err, domain.ErrMissingJoinKey) {
		t.Fatalf("expected ErrMissingJoinKey, got %v", err)
	}
}

func TestReconcile_InvalidDateRange(t *testing.T) {
	sales := []domain.SalesRecord{salesRecord("soda", "centro", 50)}

	_, _, err := Reconcile(sales, nil, "centro", day("2024-03-10"), day("2024-03-01"), defaultOpts())
	if !errors.Is(err, domain.ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
}

func TestReconcile_UnknownOutlet(t *testing.T) {
	sales := []domain.SalesRecord{salesRecord("soda", "centro", 50)}
	purchases := []domain.PurchaseLine{purchaseLine("soda", "2024-03-02", 60, "2.50")}

	_, _, err := Reconcile(sales, purchases, "sucursal-sur", day("2024-03-01"), day("2024-03-30"), defaultOpts())
	if !errors.Is(err, domain.ErrUnknownOutlet) {
		t.Fatalf("expected ErrUnknownOutlet, got %v", err)
	}
}

func TestReconcile_MissingOutletColumnCountsAsZero(t *testing.T) {
	sales := []domain.SalesRecord{
		salesRecord("soda", "centro", 300),
		salesRecord("jabon", "norte", 90), // no centro figure at all
	}
	purchases := []domain.PurchaseLine{
		purchaseLine("soda", "2024-03-02", 10, "2.00"),
		purchaseLine("jabon", "2024-03-02", 10, "1.00"),
	}

	lines, _, err := Reconcile(sales, purchases, "centro", day("2024-03-01"), day("2024-03-07"), defaultOpts())
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[1].ProjectedDemand != 0 {
		t.Errorf("missing outlet figure should project zero demand, got %d", lines[1].ProjectedDemand)
	}
	if lines[1].AvailableInventory != 10 {
		t.Errorf("available inventory = %v, want full purchased quantity", lines[1].AvailableInventory)
	}
}

func TestReconcile_PurchaseOnlyCountsDistinctProducts(t *testing.T) {
	sales := []domain.SalesRecord{salesRecord("soda", "centro", 50)}
	purchases := []domain.PurchaseLine{
		purchaseLine("soda", "2024-03-02", 60, "2.50"),
		purchaseLine("pilas", "2024-03-02", 10, "5.00"),
		purchaseLine("pilas", "2024-03-05", 20, "5.00"),
	}

	_, stats, err := Reconcile(sales, purchases, "centro", day("2024-03-01"), day("2024-03-30"), defaultOpts())
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if stats.PurchaseOnlyProducts != 1 {
		t.Errorf("purchase-only products = %d, want 1 (two lines, one product)", stats.PurchaseOnlyProducts)
	}
}

func TestReconcile_NoMatchingProducts(t *testing.T) {
	sales := []domain.SalesRecord{salesRecord("soda", "centro", 50)}
	purchases := []domain.PurchaseLine{purchaseLine("pilas", "2024-03-02", 60, "2.50")}

	lines, stats, err := Reconcile(sales, purchases, "centro", day("2024-03-01"), day("2024-03-30"), defaultOpts())
	if !errors.Is(err, domain.ErrNoMatchingProducts) {
		t.Fatalf("expected ErrNoMatchingProducts, got %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("expected empty table, got %d lines", len(lines))
	}
	if stats.SalesOnlyProducts != 1 || stats.PurchaseOnlyProducts != 1 {
		t.Errorf("mismatch counters not populated: %+v", stats)
	}
}

func TestReconcile_DuplicateSalesRowsAreMerged(t *testing.T) {
	sales := []domain.SalesRecord{
		salesRecord("soda", "centro", 200),
		salesRecord("Soda", "centro", 100),
	}
	purchases := []domain.PurchaseLine{purchaseLine("soda", "2024-03-02", 10, "2.00")}

	lines, _, err := Reconcile(sales, purchases, "centro", day("2024-03-01"), day("2024-03-30"), defaultOpts())
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected merged single line, got %d", len(lines))
	}
	// 300 units over 30 days across a 30-day horizon
	if lines[0].ProjectedDemand != 300 {
		t.Errorf("projected demand = %d, want 300", lines[0].ProjectedDemand)
	}
}
