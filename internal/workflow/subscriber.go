package workflow

import (
	"context"

	"buildportal/internal/events"
	"buildportal/internal/workflow/service"
	"buildportal/internal/workflow/transport"
)

// RegisterSubscribers wires the workflow notifier to the typed domain
// events, converting each into a normalized SystemEvent.
func RegisterSubscribers(bus events.Bus, svc *service.Service) {
	subscribe := func(name string, convert func(events.Event) (transport.SystemEvent, bool)) {
		bus.Subscribe(name, events.HandlerFunc(func(ctx context.Context, e events.Event) error {
			evt, ok := convert(e)
			if !ok {
				return nil
			}
			svc.Process(ctx, evt)
			return nil
		}))
	}

	subscribe("quotation.submitted", func(e events.Event) (transport.SystemEvent, bool) {
		ev, ok := e.(events.QuotationSubmitted)
		if !ok {
			return transport.SystemEvent{}, false
		}
		return transport.SystemEvent{
			WorkflowType: transport.TypeQuotationWorkflow,
			Action:       "submitted",
			EntityType:   "quotation",
			EntityID:     ev.QuotationID.String(),
			ProjectID:    ev.ProjectID,
			ClientID:     ev.ClientID,
			ManagerID:    ev.ManagerID,
			Data: map[string]transport.Value{
				"quotationId": transport.String(ev.QuotationID.String()),
				"projectId":   transport.String(ev.ProjectID.String()),
				"amount":      transport.Number(float64(ev.GrandTotalCents) / 100),
			},
		}, true
	})

	subscribe("quotation.approved", func(e events.Event) (transport.SystemEvent, bool) {
		ev, ok := e.(events.QuotationApproved)
		if !ok {
			return transport.SystemEvent{}, false
		}
		return transport.SystemEvent{
			WorkflowType: transport.TypeQuotationWorkflow,
			Action:       "approved",
			EntityType:   "quotation",
			EntityID:     ev.QuotationID.String(),
			ProjectID:    ev.ProjectID,
			ClientID:     ev.ClientID,
			ManagerID:    ev.ManagerID,
			Data: map[string]transport.Value{
				"quotationId": transport.String(ev.QuotationID.String()),
				"projectId":   transport.String(ev.ProjectID.String()),
				"amount":      transport.Number(float64(ev.GrandTotalCents) / 100),
			},
		}, true
	})

	subscribe("quotation.rejected", func(e events.Event) (transport.SystemEvent, bool) {
		ev, ok := e.(events.QuotationRejected)
		if !ok {
			return transport.SystemEvent{}, false
		}
		note := transport.Null()
		if ev.Note != "" {
			note = transport.String(ev.Note)
		}
		return transport.SystemEvent{
			WorkflowType: transport.TypeQuotationWorkflow,
			Action:       "rejected",
			EntityType:   "quotation",
			EntityID:     ev.QuotationID.String(),
			ProjectID:    ev.ProjectID,
			ClientID:     ev.ClientID,
			ManagerID:    ev.ManagerID,
			Data: map[string]transport.Value{
				"quotationId": transport.String(ev.QuotationID.String()),
				"projectId":   transport.String(ev.ProjectID.String()),
				"note":        note,
			},
		}, true
	})

	subscribe("quotation.sent", func(e events.Event) (transport.SystemEvent, bool) {
		ev, ok := e.(events.QuotationSent)
		if !ok {
			return transport.SystemEvent{}, false
		}
		validUntil := transport.Null()
		if ev.ValidUntil != nil {
			validUntil = transport.Date(*ev.ValidUntil)
		}
		return transport.SystemEvent{
			WorkflowType: transport.TypeQuotationWorkflow,
			Action:       "sent",
			EntityType:   "quotation",
			EntityID:     ev.QuotationID.String(),
			ProjectID:    ev.ProjectID,
			ClientID:     ev.ClientID,
			ManagerID:    ev.ManagerID,
			Data: map[string]transport.Value{
				"quotationId": transport.String(ev.QuotationID.String()),
				"projectId":   transport.String(ev.ProjectID.String()),
				"amount":      transport.Number(float64(ev.GrandTotalCents) / 100),
				"validUntil":  validUntil,
			},
		}, true
	})

	subscribe("quotation.accepted", func(e events.Event) (transport.SystemEvent, bool) {
		ev, ok := e.(events.QuotationAccepted)
		if !ok {
			return transport.SystemEvent{}, false
		}
		return transport.SystemEvent{
			WorkflowType: transport.TypeQuotationWorkflow,
			Action:       "accepted",
			EntityType:   "quotation",
			EntityID:     ev.QuotationID.String(),
			ProjectID:    ev.ProjectID,
			ClientID:     ev.ClientID,
			ManagerID:    ev.ManagerID,
			Data: map[string]transport.Value{
				"quotationId": transport.String(ev.QuotationID.String()),
				"projectId":   transport.String(ev.ProjectID.String()),
				"amount":      transport.Number(float64(ev.GrandTotalCents) / 100),
			},
		}, true
	})

	subscribe("quotation.declined", func(e events.Event) (transport.SystemEvent, bool) {
		ev, ok := e.(events.QuotationDeclined)
		if !ok {
			return transport.SystemEvent{}, false
		}
		note := transport.Null()
		if ev.Note != "" {
			note = transport.String(ev.Note)
		}
		return transport.SystemEvent{
			WorkflowType: transport.TypeQuotationWorkflow,
			Action:       "declined",
			EntityType:   "quotation",
			EntityID:     ev.QuotationID.String(),
			ProjectID:    ev.ProjectID,
			ClientID:     ev.ClientID,
			ManagerID:    ev.ManagerID,
			Data: map[string]transport.Value{
				"quotationId": transport.String(ev.QuotationID.String()),
				"projectId":   transport.String(ev.ProjectID.String()),
				"note":        note,
			},
		}, true
	})

	subscribe("invoice.issued", func(e events.Event) (transport.SystemEvent, bool) {
		ev, ok := e.(events.InvoiceIssued)
		if !ok {
			return transport.SystemEvent{}, false
		}
		return transport.SystemEvent{
			WorkflowType: transport.TypeInvoiceWorkflow,
			Action:       "issued",
			EntityType:   "invoice",
			EntityID:     ev.InvoiceID.String(),
			ProjectID:    ev.ProjectID,
			ClientID:     ev.ClientID,
			ManagerID:    ev.ManagerID,
			Data: map[string]transport.Value{
				"invoiceId": transport.String(ev.InvoiceID.String()),
				"projectId": transport.String(ev.ProjectID.String()),
				"amount":    transport.Number(float64(ev.GrandTotalCents) / 100),
				"dueDate":   transport.Date(ev.DueDate),
			},
		}, true
	})

	subscribe("invoice.paid", func(e events.Event) (transport.SystemEvent, bool) {
		ev, ok := e.(events.InvoicePaid)
		if !ok {
			return transport.SystemEvent{}, false
		}
		return transport.SystemEvent{
			WorkflowType: transport.TypeInvoiceWorkflow,
			Action:       "paid",
			EntityType:   "invoice",
			EntityID:     ev.InvoiceID.String(),
			ProjectID:    ev.ProjectID,
			ClientID:     ev.ClientID,
			ManagerID:    ev.ManagerID,
			Data: map[string]transport.Value{
				"invoiceId": transport.String(ev.InvoiceID.String()),
				"projectId": transport.String(ev.ProjectID.String()),
				"amount":    transport.Number(float64(ev.GrandTotalCents) / 100),
				"paidBy":    transport.String(ev.PaidBy),
				"paidAt":    transport.Date(ev.PaidAt),
			},
		}, true
	})

	subscribe("invoice.cancelled", func(e events.Event) (transport.SystemEvent, bool) {
		ev, ok := e.(events.InvoiceCancelled)
		if !ok {
			return transport.SystemEvent{}, false
		}
		return transport.SystemEvent{
			WorkflowType: transport.TypeInvoiceWorkflow,
			Action:       "cancelled",
			EntityType:   "invoice",
			EntityID:     ev.InvoiceID.String(),
			ProjectID:    ev.ProjectID,
			ClientID:     ev.ClientID,
			ManagerID:    ev.ManagerID,
			Data: map[string]transport.Value{
				"invoiceId": transport.String(ev.InvoiceID.String()),
				"projectId": transport.String(ev.ProjectID.String()),
			},
		}, true
	})
}
