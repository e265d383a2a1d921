package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	invoicetransport "buildportal/internal/invoice/transport"
	"buildportal/platform/httpkit"
)

// InvoiceConverter is the narrow interface the quotation handler needs to
// turn an accepted quotation into an invoice. Implemented by the invoice
// service; injected after construction to break circular deps.
type InvoiceConverter interface {
	CreateFromQuotation(ctx context.Context, quotationID uuid.UUID) (*invoicetransport.InvoiceResponse, error)
}

// SetInvoiceConverter injects the invoice conversion dependency.
func (h *Handler) SetInvoiceConverter(conv InvoiceConverter) {
	h.converter = conv
}

// Convert handles POST /api/v1/quotations/:id/convert. Converting the same
// quotation twice returns the existing invoice instead of creating another.
func (h *Handler) Convert(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if h.converter == nil {
		httpkit.Error(c, http.StatusNotImplemented, "invoice conversion not configured", nil)
		return
	}

	result, err := h.converter.CreateFromQuotation(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}
