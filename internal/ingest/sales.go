package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/reorden/backend-go/internal/domain"
	"github.com/reorden/backend-go/internal/reorder"
)

// productAliases are the header names the export revisions have used for the
// product column.
var productAliases = []string{"producto", "product", "articulo", "nombre", "descripcion", "sku"}

// nonOutletColumns are money/rollup columns that appear next to the per-outlet
// figures in some sales exports and must not be mistaken for an outlet.
var nonOutletColumns = []string{
	"descuentos", "total neto", "devoluciones", "total ajustado",
	"costo", "comision", "ganancia", "total ventas", "total",
}

// SalesResult is the outcome of normalizing one sales export. RowErrors
// collects every cell-level failure so the caller can report all bad rows at
// once; rows with errors are excluded from Records.
type SalesResult struct {
	Records   []domain.SalesRecord
	Outlets   []string
	RowErrors []domain.RowError
}

// ReadSales parses a sales CSV: one row per product, one column per outlet
// with the historical units sold there. The product column is required; the
// remaining columns (minus the known money rollups) are outlets.
func ReadSales(r io.Reader) (*SalesResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read sales header: %w", err)
	}

	productIdx := findColumn(header, productAliases...)
	if productIdx < 0 {
		return nil, domain.NewValidationError("producto",
			fmt.Errorf("required column missing, have %v", header))
	}

	skip := make(map[string]struct{}, len(nonOutletColumns))
	for _, c := range nonOutletColumns {
		skip[normalizeColumnName(c)] = struct{}{}
	}

	type outletCol struct {
		index int
		name  string
	}
	var outletCols []outletCol
	seen := make(map[string]struct{})
	result := &SalesResult{}
	for i, h := range header {
		if i == productIdx {
			continue
		}
		if _, ok := skip[normalizeColumnName(h)]; ok {
			continue
		}
		name := reorder.NormalizeKey(h)
		if name == "" {
			continue
		}
		outletCols = append(outletCols, outletCol{index: i, name: name})
		// Two headers can normalize to the same outlet; list it once.
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			result.Outlets = append(result.Outlets, name)
		}
	}
	if len(outletCols) == 0 {
		return nil, domain.NewValidationError("outlets",
			fmt.Errorf("sales file has no outlet columns"))
	}

	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read sales row %d: %w", row+1, err)
		}
		row++

		product := strings.TrimSpace(cell(record, productIdx))
		if product == "" {
			continue
		}

		units := make(map[string]float64, len(outletCols))
		bad := false
		for _, col := range outletCols {
			v, err := parseNumber(cell(record, col.index))
			if err != nil {
				result.RowErrors = append(result.RowErrors, domain.RowError{
					Row:    row,
					Column: col.name,
					Value:  cell(record, col.index),
					Err:    err,
				})
				bad = true
				continue
			}
			if v < 0 {
				result.RowErrors = append(result.RowErrors, domain.RowError{
					Row:    row,
					Column: col.name,
					Value:  cell(record, col.index),
					Err:    fmt.Errorf("units sold must be non-negative"),
				})
				bad = true
				continue
			}
			// Duplicate header columns for the same outlet accumulate.
			units[col.name] += v
		}
		if bad {
			continue
		}

		result.Records = append(result.Records, domain.SalesRecord{
			ProductKey:        reorder.NormalizeKey(product),
			UnitsSoldByOutlet: units,
		})
	}

	return result, nil
}

// findColumn returns the index of the first header matching any alias, or -1.
func findColumn(header []string, aliases ...string) int {
	targets := make(map[string]struct{}, len(aliases))
	for _, a := range aliases {
		targets[normalizeColumnName(a)] = struct{}{}
	}
	for i, h := range header {
		if _, ok := targets[normalizeColumnName(h)]; ok {
			return i
		}
	}
	return -1
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}
