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

const collection = "workflow_messages"

// WorkflowMessage is a persisted notification produced by the workflow
// notifier.
type WorkflowMessage struct {
	ID           uuid.UUID            `json:"id"`
	WorkflowType string               `json:"workflowType"`
	Action       string               `json:"action"`
	EntityType   string               `json:"entityType"`
	EntityID     string               `json:"entityId"`
	ProjectID    uuid.UUID            `json:"projectId"`
	Subject      string               `json:"subject"`
	Content      string               `json:"content"`
	Priority     string               `json:"priority"`
	Recipients   []uuid.UUID          `json:"recipients"`
	Status       string               `json:"status"`
	ReadBy       map[string]time.Time `json:"readBy,omitempty"`
	SentAt       time.Time            `json:"sentAt"`
	CreatedAt    time.Time            `json:"createdAt"`
}

// IsRecipient reports whether the user is among the message recipients.
func (m *WorkflowMessage) IsRecipient(userID uuid.UUID) bool {
	for _, r := range m.Recipients {
		if r == userID {
			return true
		}
	}
	return false
}

// Repository persists workflow messages in the document store.
type Repository struct {
	store docstore.Store
}

func New(store docstore.Store) *Repository {
	return &Repository{store: store}
}

// GetByID returns the message or (nil, nil) when it does not exist.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*WorkflowMessage, error) {
	raw, err := r.store.Get(ctx, collection, id.String())
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindInternal, "load workflow message", err)
	}
	var msg WorkflowMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "decode workflow message", err)
	}
	return &msg, nil
}

// FindRecent returns a message for the same entity and action created at
// or after the cutoff, or (nil, nil) when none exists.
func (r *Repository) FindRecent(ctx context.Context, entityType, entityID, action string, since time.Time) (*WorkflowMessage, error) {
	messages, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	for i := range messages {
		m := &messages[i]
		if m.EntityType == entityType && m.EntityID == entityID && m.Action == action && !m.CreatedAt.Before(since) {
			return m, nil
		}
	}
	return nil, nil
}

// ListForRecipient returns all messages addressed to the given user, in
// insertion order.
func (r *Repository) ListForRecipient(ctx context.Context, userID uuid.UUID) ([]WorkflowMessage, error) {
	messages, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]WorkflowMessage, 0)
	for i := range messages {
		if messages[i].IsRecipient(userID) {
			out = append(out, messages[i])
		}
	}
	return out, nil
}

// Create stores a new workflow message under its ID.
func (r *Repository) Create(ctx context.Context, msg *WorkflowMessage) error {
	if err := r.store.AddWithID(ctx, collection, msg.ID.String(), msg); err != nil {
		return apperr.Wrap(apperr.KindInternal, "store workflow message", err)
	}
	return nil
}

// MarkRead records the user's read timestamp on the message. Marking an
// already-read message again keeps the original timestamp.
func (r *Repository) MarkRead(ctx context.Context, id, userID uuid.UUID) (*WorkflowMessage, error) {
	msg, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, apperr.NotFound("workflow message")
	}
	if !msg.IsRecipient(userID) {
		return nil, apperr.Forbidden("message is not addressed to this user")
	}

	if msg.ReadBy == nil {
		msg.ReadBy = make(map[string]time.Time)
	}
	if _, ok := msg.ReadBy[userID.String()]; !ok {
		msg.ReadBy[userID.String()] = time.Now().UTC()
		if err := r.store.Update(ctx, collection, msg.ID.String(), msg); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "update workflow message", err)
		}
	}
	return msg, nil
}

func (r *Repository) list(ctx context.Context) ([]WorkflowMessage, error) {
	docs, err := r.store.List(ctx, collection)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list workflow messages", err)
	}
	out := make([]WorkflowMessage, 0, len(docs))
	for _, doc := range docs {
		var msg WorkflowMessage
		if err := json.Unmarshal(doc.Data, &msg); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "decode workflow message", err)
		}
		out = append(out, msg)
	}
	return out, nil
}
