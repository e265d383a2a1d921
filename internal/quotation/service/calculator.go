package service

import (
	"math"

	"buildportal/internal/quotation/repository"
	"buildportal/internal/quotation/transport"
)

// roundCents rounds a float to the nearest cent (integer)
func roundCents(v float64) int64 {
	return int64(math.Round(v))
}

// Totals holds the computed financial totals for a quotation or invoice.
type Totals struct {
	Items           []repository.LineItem
	SubtotalCents   int64
	TaxTotalCents   int64
	GrandTotalCents int64
}

// CalculateTotals computes per-line and aggregate totals for a set of line
// items. Tax is calculated per line and summed; all rounding happens at the
// aggregate boundaries so single-cent drift never compounds across lines.
func CalculateTotals(items []transport.LineItemRequest) Totals {
	var subtotalFloat, taxFloat float64
	lines := make([]repository.LineItem, 0, len(items))

	for _, item := range items {
		lineSubtotal := item.Quantity * float64(item.UnitPriceCents)
		lineTax := lineSubtotal * (float64(item.TaxRateBps) / 10000.0)

		lines = append(lines, repository.LineItem{
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TaxRateBps:     item.TaxRateBps,
			LineTotalCents: roundCents(lineSubtotal + lineTax),
		})

		subtotalFloat += lineSubtotal
		taxFloat += lineTax
	}

	subtotal := roundCents(subtotalFloat)
	tax := roundCents(taxFloat)
	return Totals{
		Items:           lines,
		SubtotalCents:   subtotal,
		TaxTotalCents:   tax,
		GrandTotalCents: subtotal + tax,
	}
}
