package reorder

import (
	"github.com/reorden/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

// PricedPlan is the totalizer output: the included lines with their totals
// filled in, plus the grand total.
type PricedPlan struct {
	Lines      []domain.ReorderLine
	GrandTotal decimal.Decimal
}

// Totalize prices every included line and sums the grand total. Some exports
// hide zero-quantity lines and some keep them, so inclusion is a flag rather
// than a rule. The input lines are not mutated.
func Totalize(lines []domain.ReorderLine, includeZeroQuantity bool) PricedPlan {
	priced := PricedPlan{
		Lines:      make([]domain.ReorderLine, 0, len(lines)),
		GrandTotal: decimal.Zero,
	}

	for _, line := range lines {
		if !includeZeroQuantity && line.OrderQuantity <= 0 {
			continue
		}
		line.LineTotal = decimal.NewFromFloat(line.OrderQuantity).Mul(line.UnitPrice).Round(2)
		priced.Lines = append(priced.Lines, line)
		priced.GrandTotal = priced.GrandTotal.Add(line.LineTotal)
	}

	return priced
}
