// Package export serializes a computed reorder plan for the collaborators
// that consume it read-only (spreadsheet hand-off, archive). It never feeds
// anything back into the computation.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/reorden/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

var planHeader = []string{
	"producto",
	"demanda_proyectada",
	"inventario_disponible",
	"cantidad_pedido",
	"precio_unitario",
	"total_linea",
}

// WritePlanCSV writes the plan lines plus a trailing TOTAL row. Money columns
// use the es-CO convention: dot as thousands separator, comma as decimals.
func WritePlanCSV(w io.Writer, plan *domain.ReorderPlan) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(planHeader); err != nil {
		return err
	}

	for _, line := range plan.Lines {
		record := []string{
			line.ProductKey,
			strconv.Itoa(line.ProjectedDemand),
			formatQuantity(line.AvailableInventory),
			formatQuantity(line.OrderQuantity),
			FormatMoney(line.UnitPrice),
			FormatMoney(line.LineTotal),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	total := []string{"TOTAL", "", "", "", "", FormatMoney(plan.Summary.GrandTotal)}
	if err := writer.Write(total); err != nil {
		return err
	}

	writer.Flush()
	return writer.Error()
}

// formatQuantity renders a quantity without trailing decimal noise.
func formatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatMoney renders a 2-decimal amount with dot thousands separators and a
// comma decimal separator: 1234.5 => "1.234,50".
func FormatMoney(v decimal.Decimal) string {
	fixed := v.StringFixed(2)

	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	if len(intPart) > 3 {
		var groups []string
		for len(intPart) > 3 {
			groups = append([]string{intPart[len(intPart)-3:]}, groups...)
			intPart = intPart[:len(intPart)-3]
		}
		groups = append([]string{intPart}, groups...)
		intPart = strings.Join(groups, ".")
	}

	out := fmt.Sprintf("%s,%s", intPart, fracPart)
	if neg {
		out = "-" + out
	}
	return out
}
