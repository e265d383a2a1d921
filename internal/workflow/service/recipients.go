package service

import (
	"context"

	"github.com/google/uuid"

	"buildportal/internal/workflow/transport"
)

// resolveRecipients applies the routing rules for the event and intersects
// the result with the directory's active users. An empty slice means the
// event has nobody to notify.
func (s *Service) resolveRecipients(ctx context.Context, evt transport.SystemEvent) ([]uuid.UUID, error) {
	var candidates []uuid.UUID

	switch evt.WorkflowType {
	case transport.TypeTaskAssignment:
		if id, ok := dataUUID(evt.Data, "assigneeId"); ok {
			candidates = []uuid.UUID{id}
		}

	case transport.TypeQuotationWorkflow:
		switch evt.Action {
		case "sent":
			candidates = nonNil(evt.ClientID)
		default:
			// submitted, approved, rejected, accepted, declined all
			// concern the project manager.
			candidates = nonNil(evt.ManagerID)
		}

	case transport.TypeInvoiceWorkflow:
		switch evt.Action {
		case "issued":
			candidates = nonNil(evt.ClientID)
		default:
			// paid, cancelled go to the project manager.
			candidates = nonNil(evt.ManagerID)
		}

	case transport.TypeProjectUpdate:
		candidates = evt.ParticipantIDs

	case transport.TypeSystemAlert:
		candidates = evt.RecipientIDs
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.String())
	}
	activeIDs, err := s.directory.FilterActive(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]uuid.UUID, 0, len(activeIDs))
	for _, id := range activeIDs {
		parsed, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		out = append(out, parsed)
	}
	return out, nil
}

func nonNil(id uuid.UUID) []uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return []uuid.UUID{id}
}

func dataUUID(data map[string]transport.Value, key string) (uuid.UUID, bool) {
	v, ok := data[key]
	if !ok || v.Kind != transport.KindString {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(v.Str)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
