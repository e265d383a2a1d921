package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"buildportal/internal/directory"
	"buildportal/internal/workflow/repository"
	"buildportal/internal/workflow/transport"
	"buildportal/platform/apperr"
	"buildportal/platform/logger"
)

// DedupWindow is how long a processed event suppresses duplicates for the
// same entity and action.
const DedupWindow = 5 * time.Minute

// StatusSent is the status stamped on every persisted workflow message.
const StatusSent = "sent"

// Dispatcher hands a persisted workflow message to the delivery pipeline.
// Implemented by the dispatch module's asynq client.
type Dispatcher interface {
	EnqueueDelivery(ctx context.Context, messageID uuid.UUID) error
}

// Service turns system events into deduplicated workflow messages.
type Service struct {
	repo       *repository.Repository
	directory  *directory.Service
	log        *logger.Logger
	locks      keyedMutex
	dispatcher Dispatcher // optional — nil means no delivery pipeline
}

// New creates a workflow notifier service.
func New(repo *repository.Repository, dir *directory.Service, log *logger.Logger) *Service {
	return &Service{repo: repo, directory: dir, log: log}
}

// SetDispatcher injects the delivery pipeline (set after construction to
// break circular deps).
func (s *Service) SetDispatcher(d Dispatcher) {
	s.dispatcher = d
}

// Process handles one system event. It returns true when a workflow
// message was persisted or a duplicate was suppressed, false when the
// event was dropped (invalid event, unknown template, or no recipients).
// Expected business conditions never surface as errors.
func (s *Service) Process(ctx context.Context, evt transport.SystemEvent) bool {
	if evt.WorkflowType == "" || evt.Action == "" || evt.EntityType == "" || evt.EntityID == "" {
		s.log.WorkflowEvent(evt.WorkflowType, evt.Action, evt.EntityID, false, "invalid event")
		return false
	}

	// One mutex per entity+action: concurrent duplicates serialize here
	// so exactly one of them inserts.
	key := evt.EntityType + ":" + evt.EntityID + ":" + evt.Action
	unlock := s.locks.lock(key)
	defer unlock()

	since := time.Now().UTC().Add(-DedupWindow)
	existing, err := s.repo.FindRecent(ctx, evt.EntityType, evt.EntityID, evt.Action, since)
	if err != nil {
		s.log.StorageError("dedup lookup", err)
		return false
	}
	if existing != nil {
		s.log.WorkflowEvent(evt.WorkflowType, evt.Action, evt.EntityID, true, "duplicate suppressed")
		return true
	}

	tpl, ok := LookupTemplate(evt.WorkflowType, evt.Action)
	if !ok {
		s.log.WorkflowEvent(evt.WorkflowType, evt.Action, evt.EntityID, false, "no template")
		return false
	}

	recipients, err := s.resolveRecipients(ctx, evt)
	if err != nil {
		s.log.StorageError("recipient resolution", err)
		return false
	}
	if len(recipients) == 0 {
		s.log.WorkflowEvent(evt.WorkflowType, evt.Action, evt.EntityID, false, "no recipients")
		return false
	}

	now := time.Now().UTC()
	msg := &repository.WorkflowMessage{
		ID:           uuid.New(),
		WorkflowType: evt.WorkflowType,
		Action:       evt.Action,
		EntityType:   evt.EntityType,
		EntityID:     evt.EntityID,
		ProjectID:    evt.ProjectID,
		Subject:      Render(tpl.Subject, evt.Data),
		Content:      Render(tpl.Content, evt.Data),
		Priority:     tpl.Priority,
		Recipients:   recipients,
		Status:       StatusSent,
		SentAt:       now,
		CreatedAt:    now,
	}

	if err := s.repo.Create(ctx, msg); err != nil {
		s.log.StorageError("store workflow message", err)
		return false
	}

	if s.dispatcher != nil {
		if err := s.dispatcher.EnqueueDelivery(ctx, msg.ID); err != nil {
			s.log.Error("delivery enqueue failed", "messageId", msg.ID, "error", err)
		}
	}

	s.log.WorkflowEvent(evt.WorkflowType, evt.Action, evt.EntityID, true, "")
	return true
}

// Inbox returns all workflow messages addressed to the user.
func (s *Service) Inbox(ctx context.Context, userID uuid.UUID) ([]transport.WorkflowMessageResponse, error) {
	messages, err := s.repo.ListForRecipient(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.WorkflowMessageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, toResponse(&messages[i], userID))
	}
	return out, nil
}

// MarkRead records the user's read timestamp on an inbox message.
func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) (*transport.WorkflowMessageResponse, error) {
	msg, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	resp := toResponse(msg, userID)
	return &resp, nil
}

// Message returns a single workflow message by id, for delivery workers.
func (s *Service) Message(ctx context.Context, id uuid.UUID) (*repository.WorkflowMessage, error) {
	msg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, apperr.NotFound("workflow message")
	}
	return msg, nil
}

func toResponse(msg *repository.WorkflowMessage, userID uuid.UUID) transport.WorkflowMessageResponse {
	resp := transport.WorkflowMessageResponse{
		ID:           msg.ID,
		WorkflowType: msg.WorkflowType,
		Action:       msg.Action,
		EntityType:   msg.EntityType,
		EntityID:     msg.EntityID,
		ProjectID:    msg.ProjectID,
		Subject:      msg.Subject,
		Content:      msg.Content,
		Priority:     msg.Priority,
		Recipients:   msg.Recipients,
		Status:       msg.Status,
		SentAt:       msg.SentAt,
		CreatedAt:    msg.CreatedAt,
	}
	if readAt, ok := msg.ReadBy[userID.String()]; ok {
		at := readAt
		resp.Read = true
		resp.ReadAt = &at
	}
	return resp
}
