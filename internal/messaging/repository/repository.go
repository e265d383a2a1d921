package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"buildportal/internal/docstore"
	"buildportal/platform/apperr"
)

const collection = "messages"

// Message is a persisted direct message.
type Message struct {
	ID         uuid.UUID  `json:"id"`
	SenderID   uuid.UUID  `json:"senderId"`
	ReceiverID uuid.UUID  `json:"receiverId"`
	ProjectID  uuid.UUID  `json:"projectId"`
	ThreadID   *uuid.UUID `json:"threadId,omitempty"`
	Subject    string     `json:"subject"`
	Content    string     `json:"content"`
	IsRead     bool       `json:"isRead"`
	SentAt     time.Time  `json:"sentAt"`
}

// Repository persists direct messages in the document store.
type Repository struct {
	store docstore.Store
}

func New(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// GetByID returns the message or (nil, nil) when it does not exist.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Message, error) {
	raw, err := r.store.Get(ctx, collection, id.String())
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindInternal, "load message", err)
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "decode message", err)
	}
	return &msg, nil
}

// Create stores a new message under its ID.
func (r *Repository) Create(ctx context.Context, msg *Message) error {
	if err := r.store.AddWithID(ctx, collection, msg.ID.String(), msg); err != nil {
		return apperr.Wrap(apperr.KindInternal, "store message", err)
	}
	return nil
}

// ListRecentBySenderProject returns the sender's messages in the project
// sent at or after the cutoff, for spam detection.
func (r *Repository) ListRecentBySenderProject(ctx context.Context, senderID, projectID uuid.UUID, since time.Time) ([]Message, error) {
	messages, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0)
	for i := range messages {
		m := &messages[i]
		if m.SenderID == senderID && m.ProjectID == projectID && !m.SentAt.Before(since) {
			out = append(out, *m)
		}
	}
	return out, nil
}

// ListThread returns all messages in a thread in insertion order.
func (r *Repository) ListThread(ctx context.Context, threadID uuid.UUID) ([]Message, error) {
	messages, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0)
	for i := range messages {
		m := &messages[i]
		if m.ID == threadID || (m.ThreadID != nil && *m.ThreadID == threadID) {
			out = append(out, *m)
		}
	}
	return out, nil
}

// ListForUser returns all messages sent to or by the user.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]Message, error) {
	messages, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0)
	for i := range messages {
		if messages[i].SenderID == userID || messages[i].ReceiverID == userID {
			out = append(out, messages[i])
		}
	}
	return out, nil
}

// MarkRead flags the message as read by its receiver.
func (r *Repository) MarkRead(ctx context.Context, id, userID uuid.UUID) (*Message, error) {
	msg, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, apperr.NotFound("message")
	}
	if msg.ReceiverID != userID {
		return nil, apperr.Forbidden("message is not addressed to this user")
	}
	if !msg.IsRead {
		msg.IsRead = true
		if err := r.store.Update(ctx, collection, msg.ID.String(), msg); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "update message", err)
		}
	}
	return msg, nil
}

func (r *Repository) list(ctx context.Context) ([]Message, error) {
	docs, err := r.store.List(ctx, collection)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list messages", err)
	}
	out := make([]Message, 0, len(docs))
	for _, doc := range docs {
		var msg Message
		if err := json.Unmarshal(doc.Data, &msg); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "decode message", err)
		}
		out = append(out, msg)
	}
	return out, nil
}
