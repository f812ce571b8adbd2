package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/reorden/backend-go/internal/domain"
	"github.com/reorden/backend-go/internal/reorder"
	"github.com/shopspring/decimal"
)

var (
	purchaseDateAliases = []string{"fecha", "fecha compra", "fecha de compra", "date"}
	quantityAliases     = []string{"cantidad", "unidades", "qty", "quantity"}
	priceAliases        = []string{"precio", "precio unitario", "costo unitario", "valor unitario", "unit price"}
)

// dateLayouts are the formats seen across the purchase exports, tried in
// order. Day-first layouts come after ISO since the supplier files mix both.
var dateLayouts = []string{"2006-01-02", "02/01/2006", "2/1/2006", "02-01-2006"}

// PurchaseResult is the outcome of normalizing one purchases export.
// RowErrors collects every row-level failure; failing rows are excluded from
// Lines.
type PurchaseResult struct {
	Lines     []domain.PurchaseLine
	RowErrors []domain.RowError
}

// ReadPurchases parses a purchases CSV: one row per purchase-order line with
// product, date, quantity and unit price. All four columns are required.
func ReadPurchases(r io.Reader) (*PurchaseResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read purchases header: %w", err)
	}

	productIdx := findColumn(header, productAliases...)
	dateIdx := findColumn(header, purchaseDateAliases...)
	qtyIdx := findColumn(header, quantityAliases...)
	priceIdx := findColumn(header, priceAliases...)

	missing := func(field string, idx int) error {
		if idx >= 0 {
			return nil
		}
		return domain.NewValidationError(field,
			fmt.Errorf("required column missing, have %v", header))
	}
	for field, idx := range map[string]int{
		"producto": productIdx,
		"fecha":    dateIdx,
		"cantidad": qtyIdx,
		"precio":   priceIdx,
	} {
		if err := missing(field, idx); err != nil {
			return nil, err
		}
	}

	result := &PurchaseResult{}
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read purchases row %d: %w", row+1, err)
		}
		row++

		product := strings.TrimSpace(cell(record, productIdx))
		if product == "" {
			continue
		}

		addErr := func(column, value string, cause error) {
			result.RowErrors = append(result.RowErrors, domain.RowError{
				Row: row, Column: column, Value: value, Err: cause,
			})
		}

		rawDate := strings.TrimSpace(cell(record, dateIdx))
		date, err := parseDate(rawDate)
		if err != nil {
			addErr("fecha", rawDate, err)
			continue
		}

		rawQty := cell(record, qtyIdx)
		qty, err := parseNumber(rawQty)
		if err != nil {
			addErr("cantidad", rawQty, err)
			continue
		}
		if qty < 0 {
			addErr("cantidad", rawQty, fmt.Errorf("quantity must be non-negative"))
			continue
		}

		rawPrice := cell(record, priceIdx)
		price, err := parsePrice(rawPrice)
		if err != nil {
			addErr("precio", rawPrice, err)
			continue
		}
		if price.Sign() < 0 {
			addErr("precio", rawPrice, fmt.Errorf("unit price must be non-negative"))
			continue
		}

		result.Lines = append(result.Lines, domain.PurchaseLine{
			ProductKey:   reorder.NormalizeKey(product),
			PurchaseDate: date,
			Quantity:     qty,
			UnitPrice:    price,
		})
	}

	return result, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

// parsePrice keeps money in decimal from the start so two-decimal currency
// amounts never pick up float noise.
func parsePrice(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	cleaned := cleanNumericString(s)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("not numeric after cleaning")
	}
	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not numeric after cleaning")
	}
	return price.Round(2), nil
}
