package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestReadPurchases_ParsesLines(t *testing.T) {
	in := strings.Join([]string{
		"Producto,Fecha,Cantidad,Precio",
		`Soda-500ml,2024-03-01,20,"$ 2.00"`,
		"Soda-500ml,05/03/2024,15,$2.20",
	}, "\n")

	result, err := ReadPurchases(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadPurchases failed: %v", err)
	}
	if len(result.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(result.Lines))
	}

	first := result.Lines[0]
	if first.ProductKey != "soda-500ml" {
		t.Errorf("product key = %q", first.ProductKey)
	}
	if !first.PurchaseDate.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", first.PurchaseDate)
	}
	if first.Quantity != 20 {
		t.Errorf("quantity = %v", first.Quantity)
	}
	if !first.UnitPrice.Equal(decimal.RequireFromString("2.00")) {
		t.Errorf("price = %s", first.UnitPrice)
	}

	// day-first layout from the supplier file
	second := result.Lines[1]
	if !second.PurchaseDate.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("day-first date = %v, want 2024-03-05", second.PurchaseDate)
	}
}

func TestReadPurchases_CollectsRowErrors(t *testing.T) {
	in := strings.Join([]string{
		"producto,fecha,cantidad,precio",
		"soda,cuando sea,10,2.00", // bad date
		"jabon,2024-03-01,-3,1.00", // negative quantity
		"arroz,2024-03-01,5,gratis", // bad price
		"pilas,2024-03-02,4,5.00",
	}, "\n")

	result, err := ReadPurchases(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadPurchases failed: %v", err)
	}

	if len(result.RowErrors) != 3 {
		t.Fatalf("row errors = %v, want 3", result.RowErrors)
	}
	columns := []string{result.RowErrors[0].Column, result.RowErrors[1].Column, result.RowErrors[2].Column}
	want := []string{"fecha", "cantidad", "precio"}
	for i := range want {
		if columns[i] != want[i] {
			t.Errorf("error %d on column %q, want %q", i, columns[i], want[i])
		}
	}
	if len(result.Lines) != 1 || result.Lines[0].ProductKey != "pilas" {
		t.Errorf("only the clean row should survive, got %+v", result.Lines)
	}
}

func TestReadPurchases_MissingColumns(t *testing.T) {
	in := "producto,cantidad\nsoda,10\n"
	if _, err := ReadPurchases(strings.NewReader(in)); err == nil {
		t.Fatal("expected validation error for missing fecha/precio columns")
	}
}
