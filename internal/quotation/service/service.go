package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"buildportal/internal/events"
	"buildportal/internal/quotation/repository"
	"buildportal/internal/quotation/transport"
	"buildportal/platform/apperr"
)

// Service provides business logic for the quotation lifecycle.
type Service struct {
	repo     *repository.Repository
	eventBus events.Bus // optional — nil means no event publication
}

// New creates a new quotation service.
func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// SetEventBus injects the event bus (set after construction to break circular deps).
func (s *Service) SetEventBus(bus events.Bus) {
	s.eventBus = bus
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, event)
	}
}

// Create creates a new draft quotation, computing totals server-side.
func (s *Service) Create(ctx context.Context, req transport.CreateQuotationRequest) (*transport.QuotationResponse, error) {
	totals := CalculateTotals(req.Items)
	now := time.Now().UTC()

	q := &repository.Quotation{
		ID:              uuid.New(),
		ProjectID:       req.ProjectID,
		ClientID:        req.ClientID,
		ContractorID:    req.ContractorID,
		ManagerID:       req.ManagerID,
		Status:          transport.StatusDraft,
		Items:           totals.Items,
		SubtotalCents:   totals.SubtotalCents,
		TaxTotalCents:   totals.TaxTotalCents,
		GrandTotalCents: totals.GrandTotalCents,
		ValidUntil:      req.ValidUntil,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create quotation: %w", err)
	}
	return toResponse(q), nil
}

// Get returns a single quotation by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*transport.QuotationResponse, error) {
	q, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(q), nil
}

// List returns all quotations.
func (s *Service) List(ctx context.Context) ([]transport.QuotationResponse, error) {
	quotations, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.QuotationResponse, 0, len(quotations))
	for i := range quotations {
		out = append(out, *toResponse(&quotations[i]))
	}
	return out, nil
}

// UpdateDraft replaces the line items and validity window of a draft
// quotation. Totals are recomputed server-side.
func (s *Service) UpdateDraft(ctx context.Context, id uuid.UUID, req transport.CreateQuotationRequest) (*transport.QuotationResponse, error) {
	q, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.Status != transport.StatusDraft {
		return nil, apperr.InvalidState(fmt.Sprintf("quotation in status %s cannot be edited", q.Status))
	}

	totals := CalculateTotals(req.Items)
	q.Items = totals.Items
	q.SubtotalCents = totals.SubtotalCents
	q.TaxTotalCents = totals.TaxTotalCents
	q.GrandTotalCents = totals.GrandTotalCents
	q.ValidUntil = req.ValidUntil
	q.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, q); err != nil {
		return nil, err
	}
	return toResponse(q), nil
}

// SubmitForApproval moves a draft quotation to PendingPMApproval. A
// quotation must have at least one line item and a positive grand total.
// Submitting an already-pending quotation is a no-op.
func (s *Service) SubmitForApproval(ctx context.Context, id uuid.UUID) (*transport.QuotationResponse, error) {
	q, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if q.Status == transport.StatusPendingPMApproval {
		return toResponse(q), nil
	}
	if q.Status != transport.StatusDraft {
		return nil, apperr.InvalidState(fmt.Sprintf("quotation in status %s cannot be submitted", q.Status))
	}
	if len(q.Items) == 0 {
		return nil, apperr.Validation("quotation must have at least one line item")
	}
	if q.GrandTotalCents <= 0 {
		return nil, apperr.Validation("quotation grand total must be positive")
	}

	now := time.Now().UTC()
	q.Status = transport.StatusPendingPMApproval
	q.SubmittedAt = &now
	q.UpdatedAt = now

	if err := s.repo.Update(ctx, q); err != nil {
		return nil, err
	}

	s.publish(ctx, events.QuotationSubmitted{
		BaseEvent:       events.NewBaseEvent(),
		QuotationID:     q.ID,
		ProjectID:       q.ProjectID,
		ClientID:        q.ClientID,
		ManagerID:       q.ManagerID,
		GrandTotalCents: q.GrandTotalCents,
	})
	return toResponse(q), nil
}

// Approve records project-manager approval and sends the quotation to the
// client in one step. Approving an already-sent quotation is a no-op.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*transport.QuotationResponse, error) {
	q, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.Status == transport.StatusSentToClient {
		return toResponse(q), nil
	}
	if q.Status != transport.StatusPendingPMApproval {
		return nil, apperr.InvalidState(fmt.Sprintf("quotation in status %s cannot be approved", q.Status))
	}

	now := time.Now().UTC()
	q.Status = transport.StatusSentToClient
	q.ApprovedAt = &now
	q.SentAt = &now
	q.UpdatedAt = now

	if err := s.repo.Update(ctx, q); err != nil {
		return nil, err
	}

	s.publish(ctx, events.QuotationApproved{
		BaseEvent:       events.NewBaseEvent(),
		QuotationID:     q.ID,
		ProjectID:       q.ProjectID,
		ClientID:        q.ClientID,
		ManagerID:       q.ManagerID,
		GrandTotalCents: q.GrandTotalCents,
	})
	s.publish(ctx, events.QuotationSent{
		BaseEvent:       events.NewBaseEvent(),
		QuotationID:     q.ID,
		ProjectID:       q.ProjectID,
		ClientID:        q.ClientID,
		ManagerID:       q.ManagerID,
		GrandTotalCents: q.GrandTotalCents,
		ValidUntil:      q.ValidUntil,
	})
	return toResponse(q), nil
}

// Reject records a project-manager rejection with an optional note.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, req transport.RejectRequest) (*transport.QuotationResponse, error) {
	q, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.Status != transport.StatusPendingPMApproval {
		return nil, apperr.InvalidState(fmt.Sprintf("quotation in status %s cannot be rejected", q.Status))
	}

	now := time.Now().UTC()
	q.Status = transport.StatusPMRejected
	q.RespondedAt = &now
	q.UpdatedAt = now
	if req.Note != "" {
		note := req.Note
		q.DecisionNote = &note
	}

	if err := s.repo.Update(ctx, q); err != nil {
		return nil, err
	}

	s.publish(ctx, events.QuotationRejected{
		BaseEvent:   events.NewBaseEvent(),
		QuotationID: q.ID,
		ProjectID:   q.ProjectID,
		ClientID:    q.ClientID,
		ManagerID:   q.ManagerID,
		Note:        req.Note,
	})
	return toResponse(q), nil
}

// SendToClient re-sends an already-sent quotation to the client, for
// example after correcting the client's email address. The send timestamp
// is refreshed and a fresh sent event goes out; downstream deduplication
// decides whether a notification is actually produced.
func (s *Service) SendToClient(ctx context.Context, id uuid.UUID) (*transport.QuotationResponse, error) {
	q, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.Status != transport.StatusSentToClient {
		return nil, apperr.InvalidState(fmt.Sprintf("quotation in status %s cannot be sent", q.Status))
	}

	now := time.Now().UTC()
	q.SentAt = &now
	q.UpdatedAt = now

	if err := s.repo.Update(ctx, q); err != nil {
		return nil, err
	}

	s.publish(ctx, events.QuotationSent{
		BaseEvent:       events.NewBaseEvent(),
		QuotationID:     q.ID,
		ProjectID:       q.ProjectID,
		ClientID:        q.ClientID,
		ManagerID:       q.ManagerID,
		GrandTotalCents: q.GrandTotalCents,
		ValidUntil:      q.ValidUntil,
	})
	return toResponse(q), nil
}

// ClientDecision records the client's accept or decline decision on a sent
// quotation. Accepting an expired quotation is rejected.
func (s *Service) ClientDecision(ctx context.Context, id uuid.UUID, req transport.ClientDecisionRequest) (*transport.QuotationResponse, error) {
	q, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.Status != transport.StatusSentToClient {
		return nil, apperr.InvalidState(fmt.Sprintf("quotation in status %s cannot receive a client decision", q.Status))
	}

	now := time.Now().UTC()
	if req.Decision == "accept" && q.ValidUntil != nil && now.After(*q.ValidUntil) {
		return nil, apperr.InvalidState("quotation validity window has passed")
	}

	q.RespondedAt = &now
	q.UpdatedAt = now
	if req.Note != "" {
		note := req.Note
		q.DecisionNote = &note
	}

	if req.Decision == "accept" {
		q.Status = transport.StatusClientAccepted
	} else {
		q.Status = transport.StatusClientDeclined
	}

	if err := s.repo.Update(ctx, q); err != nil {
		return nil, err
	}

	if req.Decision == "accept" {
		s.publish(ctx, events.QuotationAccepted{
			BaseEvent:       events.NewBaseEvent(),
			QuotationID:     q.ID,
			ProjectID:       q.ProjectID,
			ClientID:        q.ClientID,
			ManagerID:       q.ManagerID,
			GrandTotalCents: q.GrandTotalCents,
			Note:            req.Note,
		})
	} else {
		s.publish(ctx, events.QuotationDeclined{
			BaseEvent:   events.NewBaseEvent(),
			QuotationID: q.ID,
			ProjectID:   q.ProjectID,
			ClientID:    q.ClientID,
			ManagerID:   q.ManagerID,
			Note:        req.Note,
		})
	}
	return toResponse(q), nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*repository.Quotation, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, apperr.NotFound("quotation")
	}
	return q, nil
}

func toResponse(q *repository.Quotation) *transport.QuotationResponse {
	items := make([]transport.LineItemResponse, 0, len(q.Items))
	for _, item := range q.Items {
		items = append(items, transport.LineItemResponse{
			Name:           item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TaxRateBps:     item.TaxRateBps,
			LineTotalCents: item.LineTotalCents,
		})
	}
	return &transport.QuotationResponse{
		ID:              q.ID,
		ProjectID:       q.ProjectID,
		ClientID:        q.ClientID,
		ContractorID:    q.ContractorID,
		ManagerID:       q.ManagerID,
		Status:          q.Status,
		Items:           items,
		SubtotalCents:   q.SubtotalCents,
		TaxTotalCents:   q.TaxTotalCents,
		GrandTotalCents: q.GrandTotalCents,
		SubmittedAt:     q.SubmittedAt,
		ApprovedAt:      q.ApprovedAt,
		SentAt:          q.SentAt,
		RespondedAt:     q.RespondedAt,
		ValidUntil:      q.ValidUntil,
		DecisionNote:    q.DecisionNote,
		CreatedAt:       q.CreatedAt,
		UpdatedAt:       q.UpdatedAt,
	}
}
