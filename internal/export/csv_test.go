package export

import (
	"strings"
	"testing"
	"time"

	"github.com/reorden/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		name  string
		value decimal.Decimal
		want  string
	}{
		{name: "zero", value: decimal.Zero, want: "0,00"},
		{name: "small", value: decimal.NewFromFloat(2.5), want: "2,50"},
		{name: "thousands", value: decimal.NewFromFloat(1234.5), want: "1.234,50"},
		{name: "millions", value: decimal.NewFromFloat(1234567.89), want: "1.234.567,89"},
		{name: "exact group", value: decimal.NewFromInt(100000), want: "100.000,00"},
		{name: "negative", value: decimal.NewFromFloat(-1234.5), want: "-1.234,50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatMoney(tt.value); got != tt.want {
				t.Errorf("FormatMoney(%s) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestWritePlanCSV(t *testing.T) {
	plan := &domain.ReorderPlan{
		Lines: []domain.ReorderLine{
			{
				ProductKey:         "cafe molido 500g",
				ProjectedDemand:    210,
				AvailableInventory: 40,
				OrderQuantity:      170,
				UnitPrice:          decimal.NewFromFloat(12500),
				LineTotal:          decimal.NewFromFloat(2125000),
			},
			{
				ProductKey:         "panela x24",
				ProjectedDemand:    12,
				AvailableInventory: 0,
				OrderQuantity:      12.5,
				UnitPrice:          decimal.NewFromFloat(3.2),
				LineTotal:          decimal.NewFromFloat(40),
			},
		},
		Summary: domain.OrderSummary{
			GrandTotal:  decimal.NewFromFloat(2125040),
			HorizonDays: 7,
			LineCount:   2,
		},
		ComputedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}

	var sb strings.Builder
	if err := WritePlanCSV(&sb, plan); err != nil {
		t.Fatalf("WritePlanCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 csv rows, got %d: %q", len(lines), sb.String())
	}
	if lines[0] != "producto,demanda_proyectada,inventario_disponible,cantidad_pedido,precio_unitario,total_linea" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if lines[1] != "cafe molido 500g,210,40,170,\"12.500,00\",\"2.125.000,00\"" {
		t.Errorf("unexpected first line: %q", lines[1])
	}
	if lines[2] != "panela x24,12,0,12.5,\"3,20\",\"40,00\"" {
		t.Errorf("unexpected second line: %q", lines[2])
	}
	if lines[3] != "TOTAL,,,,,\"2.125.040,00\"" {
		t.Errorf("unexpected total row: %q", lines[3])
	}
}

func TestWritePlanCSVEmptyPlan(t *testing.T) {
	plan := &domain.ReorderPlan{}

	var sb strings.Builder
	if err := WritePlanCSV(&sb, plan); err != nil {
		t.Fatalf("WritePlanCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + total, got %d rows", len(lines))
	}
	if lines[1] != "TOTAL,,,,,\"0,00\"" {
		t.Errorf("unexpected total row: %q", lines[1])
	}
}
