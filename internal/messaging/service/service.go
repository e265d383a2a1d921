package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"buildportal/internal/directory"
	"buildportal/internal/messaging/repository"
	"buildportal/internal/messaging/transport"
	"buildportal/platform/logger"
)

// Pusher delivers a persisted message to an external push channel.
// Optional; failures are logged and never fail a send.
type Pusher interface {
	PushMessage(ctx context.Context, receiverID uuid.UUID, subject, content string) error
}

// Service provides direct-message sending with validation.
type Service struct {
	repo      *repository.Repository
	directory *directory.Service
	limiter   RateLimiter
	log       *logger.Logger
	pusher    Pusher // optional
}

// New creates a messaging service.
func New(repo *repository.Repository, dir *directory.Service, limiter RateLimiter, log *logger.Logger) *Service {
	return &Service{repo: repo, directory: dir, limiter: limiter, log: log}
}

// SetPusher injects the push channel (set after construction to break
// circular deps).
func (s *Service) SetPusher(p Pusher) {
	s.pusher = p
}

// Send validates and persists a direct message or thread reply. A failed
// validation returns the structured result and persists nothing.
func (s *Service) Send(ctx context.Context, req transport.SendMessageRequest) (*transport.SendResponse, error) {
	var validation transport.ValidationResult
	if req.ThreadID != nil {
		validation = s.ValidateReply(ctx, req)
	} else {
		validation = s.ValidateMessage(ctx, req)
	}
	if !validation.Valid {
		return &transport.SendResponse{Validation: validation}, nil
	}

	// Replies inherit receiver, project, and subject from the thread root.
	if req.ThreadID != nil {
		root, err := s.repo.GetByID(ctx, *req.ThreadID)
		if err != nil {
			return nil, err
		}
		if root != nil {
			if req.ReceiverID == uuid.Nil {
				req.ReceiverID = counterparty(root, req.SenderID)
			}
			if req.ProjectID == uuid.Nil {
				req.ProjectID = root.ProjectID
			}
			if req.Subject == "" {
				req.Subject = root.Subject
			}
		}
	}

	msg := &repository.Message{
		ID:         uuid.New(),
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		ProjectID:  req.ProjectID,
		ThreadID:   req.ThreadID,
		Subject:    req.Subject,
		Content:    req.Content,
		SentAt:     time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}
	s.push(ctx, msg)

	resp := toResponse(msg)
	return &transport.SendResponse{Validation: validation, Message: &resp}, nil
}

// Broadcast validates and persists one message per project participant.
func (s *Service) Broadcast(ctx context.Context, req transport.BroadcastRequest) (*transport.SendResponse, error) {
	validation := s.ValidateBroadcast(ctx, req)
	if !validation.Valid {
		return &transport.SendResponse{Validation: validation}, nil
	}

	now := time.Now().UTC()
	out := make([]transport.MessageResponse, 0, len(req.ParticipantIDs))
	for _, receiver := range req.ParticipantIDs {
		if receiver == req.SenderID {
			continue
		}
		msg := &repository.Message{
			ID:         uuid.New(),
			SenderID:   req.SenderID,
			ReceiverID: receiver,
			ProjectID:  req.ProjectID,
			Subject:    req.Subject,
			Content:    req.Content,
			SentAt:     now,
		}
		if err := s.repo.Create(ctx, msg); err != nil {
			return nil, err
		}
		s.push(ctx, msg)
		out = append(out, toResponse(msg))
	}

	return &transport.SendResponse{Validation: validation, Messages: out}, nil
}

// Thread returns all messages of a thread in order.
func (s *Service) Thread(ctx context.Context, threadID uuid.UUID) ([]transport.MessageResponse, error) {
	messages, err := s.repo.ListThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.MessageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, toResponse(&messages[i]))
	}
	return out, nil
}

// Inbox returns all messages sent to or by the user.
func (s *Service) Inbox(ctx context.Context, userID uuid.UUID) ([]transport.MessageResponse, error) {
	messages, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]transport.MessageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, toResponse(&messages[i]))
	}
	return out, nil
}

// MarkRead flags a received message as read.
func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) (*transport.MessageResponse, error) {
	msg, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	resp := toResponse(msg)
	return &resp, nil
}

func (s *Service) push(ctx context.Context, msg *repository.Message) {
	if s.pusher == nil {
		return
	}
	if err := s.pusher.PushMessage(ctx, msg.ReceiverID, msg.Subject, msg.Content); err != nil {
		s.log.Error("message push failed", "messageId", msg.ID, "error", err)
	}
}

func counterparty(root *repository.Message, senderID uuid.UUID) uuid.UUID {
	if root.SenderID == senderID {
		return root.ReceiverID
	}
	return root.SenderID
}

func toResponse(msg *repository.Message) transport.MessageResponse {
	return transport.MessageResponse{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		ProjectID:  msg.ProjectID,
		ThreadID:   msg.ThreadID,
		Subject:    msg.Subject,
		Content:    msg.Content,
		IsRead:     msg.IsRead,
		SentAt:     msg.SentAt,
	}
}
