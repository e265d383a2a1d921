// Package adapters wires narrow cross-module interfaces so domain modules
// stay decoupled from each other's packages.
package adapters

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	invoicerepo "buildportal/internal/invoice/repository"
	invoiceservice "buildportal/internal/invoice/service"
	quotationrepo "buildportal/internal/quotation/repository"
	quotationtransport "buildportal/internal/quotation/transport"
	"buildportal/platform/apperr"
)

// QuotationSourceAdapter exposes accepted quotations to the invoice service.
type QuotationSourceAdapter struct {
	repo *quotationrepo.Repository
}

func NewQuotationSourceAdapter(repo *quotationrepo.Repository) *QuotationSourceAdapter {
	return &QuotationSourceAdapter{repo: repo}
}

func (a *QuotationSourceAdapter) GetAccepted(ctx context.Context, id uuid.UUID) (*invoiceservice.SourceQuotation, error) {
	q, err := a.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, apperr.NotFound("quotation")
	}
	if q.Status != quotationtransport.StatusClientAccepted {
		return nil, apperr.InvalidState(fmt.Sprintf("quotation in status %s cannot be converted to an invoice", q.Status))
	}

	items := make([]invoicerepo.LineItem, 0, len(q.Items))
	for _, item := range q.Items {
		items = append(items, invoicerepo.LineItem{
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TaxRateBps:     item.TaxRateBps,
			LineTotalCents: item.LineTotalCents,
		})
	}

	return &invoiceservice.SourceQuotation{
		ID:              q.ID,
		ProjectID:       q.ProjectID,
		ClientID:        q.ClientID,
		ContractorID:    q.ContractorID,
		ManagerID:       q.ManagerID,
		Items:           items,
		SubtotalCents:   q.SubtotalCents,
		TaxTotalCents:   q.TaxTotalCents,
		GrandTotalCents: q.GrandTotalCents,
	}, nil
}

// Compile-time check that the adapter satisfies the invoice port.
var _ invoiceservice.QuotationSource = (*QuotationSourceAdapter)(nil)
