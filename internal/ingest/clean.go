// Package ingest turns raw CSV exports into the typed records the reorder
// core consumes. The exports come from a point-of-sale system with currency
// formatting ("$ 1,234.50"), inconsistent header casing and ad-hoc renames,
// so every column goes through an explicit normalization step that fails per
// row instead of stopping at the first bad cell.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

// normalizeColumnName folds a header cell so "Total Neto", "total_neto" and
// "TOTAL NETO " all resolve to the same column.
func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// cleanNumericString strips everything that is not a digit, dot or minus from
// a currency-formatted cell ("$ 1,234.50" -> "1234.50"). Thousands-separator
// commas are dropped before the filter, matching how the exports are cleaned
// upstream.
func cleanNumericString(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// parseNumber cleans and parses one numeric cell. An empty cell counts as
// zero; a non-empty cell with nothing numeric left after cleaning is an
// error the caller records against the row.
func parseNumber(s string) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	cleaned := cleanNumericString(s)
	if cleaned == "" {
		return 0, fmt.Errorf("not numeric after cleaning")
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("not numeric after cleaning")
	}
	return v, nil
}

// CleanReport summarizes one run of the column cleaner.
type CleanReport struct {
	RowsWritten    int
	CleanedColumns []string
	MissingColumns []string
}

// CleanColumns reads a CSV, cleans the named currency columns in place and
// writes the result. Columns absent from the file are reported, not fatal,
// since every export revision renames something.
func CleanColumns(r io.Reader, w io.Writer, columns []string) (*CleanReport, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	targets := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		targets[normalizeColumnName(c)] = struct{}{}
	}

	report := &CleanReport{}
	cleanIdx := make(map[int]bool)
	found := make(map[string]bool)
	for i, h := range header {
		if _, ok := targets[normalizeColumnName(h)]; ok {
			cleanIdx[i] = true
			found[normalizeColumnName(h)] = true
			report.CleanedColumns = append(report.CleanedColumns, h)
		}
	}
	for _, c := range columns {
		if !found[normalizeColumnName(c)] {
			report.MissingColumns = append(report.MissingColumns, c)
		}
	}

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(header); err != nil {
		return nil, err
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		out := make([]string, len(record))
		for i, cell := range record {
			if cleanIdx[i] {
				out[i] = cleanNumericString(cell)
			} else {
				out[i] = cell
			}
		}
		if err := writer.Write(out); err != nil {
			return nil, err
		}
		report.RowsWritten++
	}

	return report, nil
}
