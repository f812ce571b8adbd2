package ingest

import (
	"bytes"
	"strings"
	"testing"
)

func TestCleanNumericString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"$ 1,234.50", "1234.50"},
		{"$2.00", "2.00"},
		{" 900 ", "900"},
		{"-15.5", "-15.5"},
		{"COP 12,000", "12000"},
		{"", ""},
		{"n/a", ""},
	}

	for _, tt := range tests {
		if got := cleanNumericString(tt.in); got != tt.want {
			t.Errorf("cleanNumericString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	if v, err := parseNumber("$ 1,250.75"); err != nil || v != 1250.75 {
		t.Errorf("parseNumber($ 1,250.75) = %v, %v", v, err)
	}
	if v, err := parseNumber(""); err != nil || v != 0 {
		t.Errorf("empty cell should parse as zero, got %v, %v", v, err)
	}
	if _, err := parseNumber("1.2.3"); err == nil {
		t.Error("expected error for value with stray separators")
	}
}

func TestCleanColumns(t *testing.T) {
	in := strings.Join([]string{
		"Producto,Total Neto,Costo,Notas",
		`soda,"$ 1,200.00","$ 800.00",ok`,
		`jabon,"$ 340.50","$ 210.00",revisar`,
	}, "\n")

	var out bytes.Buffer
	report, err := CleanColumns(strings.NewReader(in), &out,
		[]string{"Total Neto", "Costo", "Ganancia"})
	if err != nil {
		t.Fatalf("CleanColumns failed: %v", err)
	}

	if report.RowsWritten != 2 {
		t.Errorf("rows written = %d, want 2", report.RowsWritten)
	}
	if len(report.CleanedColumns) != 2 {
		t.Errorf("cleaned columns = %v, want Total Neto and Costo", report.CleanedColumns)
	}
	if len(report.MissingColumns) != 1 || report.MissingColumns[0] != "Ganancia" {
		t.Errorf("missing columns = %v, want [Ganancia]", report.MissingColumns)
	}

	got := out.String()
	if !strings.Contains(got, "soda,1200.00,800.00,ok") {
		t.Errorf("currency columns not cleaned:\n%s", got)
	}
	if !strings.Contains(got, "revisar") {
		t.Errorf("non-target columns must pass through untouched:\n%s", got)
	}
}
