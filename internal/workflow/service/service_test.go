package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"buildportal/internal/directory"
	"buildportal/internal/docstore"
	"buildportal/internal/workflow/repository"
	"buildportal/internal/workflow/transport"
	"buildportal/platform/logger"
)

type fixture struct {
	svc   *Service
	repo  *repository.Repository
	store *docstore.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := docstore.NewMemoryStore()
	repo := repository.New(store)
	dir := directory.NewService(directory.NewRepository(store))
	return &fixture{
		svc:   New(repo, dir, logger.New("development")),
		repo:  repo,
		store: store,
	}
}

func (f *fixture) addUser(t *testing.T, id uuid.UUID, active bool) {
	t.Helper()
	user := directory.User{ID: id.String(), Name: "user " + id.String()[:8], Role: "member", Active: active}
	if err := f.store.AddWithID(context.Background(), "users", id.String(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func quotationSentEvent(clientID, managerID uuid.UUID) transport.SystemEvent {
	return transport.SystemEvent{
		WorkflowType: transport.TypeQuotationWorkflow,
		Action:       "sent",
		EntityType:   "quotation",
		EntityID:     uuid.NewString(),
		ProjectID:    uuid.New(),
		ClientID:     clientID,
		ManagerID:    managerID,
		Data: map[string]transport.Value{
			"projectId":  transport.String("riverside"),
			"amount":     transport.Number(287.5),
			"validUntil": transport.Date(time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)),
		},
	}
}

func TestProcess_PersistsRenderedMessage(t *testing.T) {
	f := newFixture(t)
	client := uuid.New()
	f.addUser(t, client, true)

	evt := quotationSentEvent(client, uuid.New())
	if !f.svc.Process(context.Background(), evt) {
		t.Fatal("expected event to be delivered")
	}

	inbox, err := f.svc.Inbox(context.Background(), client)
	if err != nil {
		t.Fatalf("inbox: %v", err)
	}
	if len(inbox) != 1 {
		t.Fatalf("expected 1 message, got %d", len(inbox))
	}
	msg := inbox[0]
	if msg.Subject != "New quotation received" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	want := "You received a quotation of 287.50 EUR for project riverside, valid until 2026-09-30."
	if msg.Content != want {
		t.Fatalf("content %q, want %q", msg.Content, want)
	}
	if msg.Priority != transport.PriorityNormal || msg.Status != StatusSent {
		t.Fatalf("unexpected priority/status %q/%q", msg.Priority, msg.Status)
	}
}

func TestProcess_DuplicateWithinWindowSuppressed(t *testing.T) {
	f := newFixture(t)
	client := uuid.New()
	f.addUser(t, client, true)
	evt := quotationSentEvent(client, uuid.New())

	if !f.svc.Process(context.Background(), evt) {
		t.Fatal("first event should deliver")
	}
	if !f.svc.Process(context.Background(), evt) {
		t.Fatal("duplicate should still report handled")
	}

	inbox, err := f.svc.Inbox(context.Background(), client)
	if err != nil {
		t.Fatalf("inbox: %v", err)
	}
	if len(inbox) != 1 {
		t.Fatalf("expected 1 message after duplicate, got %d", len(inbox))
	}
}

func TestProcess_OutsideWindowDeliversAgain(t *testing.T) {
	f := newFixture(t)
	client := uuid.New()
	f.addUser(t, client, true)
	evt := quotationSentEvent(client, uuid.New())

	// Seed a delivery that happened just beyond the dedup window.
	old := time.Now().UTC().Add(-DedupWindow - time.Minute)
	err := f.repo.Create(context.Background(), &repository.WorkflowMessage{
		ID:           uuid.New(),
		WorkflowType: evt.WorkflowType,
		Action:       evt.Action,
		EntityType:   evt.EntityType,
		EntityID:     evt.EntityID,
		Recipients:   []uuid.UUID{client},
		Status:       StatusSent,
		SentAt:       old,
		CreatedAt:    old,
	})
	if err != nil {
		t.Fatalf("seed old message: %v", err)
	}

	if !f.svc.Process(context.Background(), evt) {
		t.Fatal("expected re-delivery outside the window")
	}
	inbox, err := f.svc.Inbox(context.Background(), client)
	if err != nil {
		t.Fatalf("inbox: %v", err)
	}
	if len(inbox) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(inbox))
	}
}

func TestProcess_ConcurrentDuplicatesProduceOneMessage(t *testing.T) {
	f := newFixture(t)
	client := uuid.New()
	f.addUser(t, client, true)
	evt := quotationSentEvent(client, uuid.New())

	var g errgroup.Group
	for i := 0; i < 25; i++ {
		g.Go(func() error {
			f.svc.Process(context.Background(), evt)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}

	inbox, err := f.svc.Inbox(context.Background(), client)
	if err != nil {
		t.Fatalf("inbox: %v", err)
	}
	if len(inbox) != 1 {
		t.Fatalf("expected exactly 1 message from 25 concurrent events, got %d", len(inbox))
	}
}

func TestProcess_UnknownTemplateDropped(t *testing.T) {
	f := newFixture(t)
	client := uuid.New()
	f.addUser(t, client, true)

	evt := quotationSentEvent(client, uuid.New())
	evt.Action = "vanished"
	if f.svc.Process(context.Background(), evt) {
		t.Fatal("expected drop for unknown template")
	}
}

func TestProcess_InvalidEventDropped(t *testing.T) {
	f := newFixture(t)

	if f.svc.Process(context.Background(), transport.SystemEvent{WorkflowType: transport.TypeSystemAlert}) {
		t.Fatal("expected drop for event without action/entity")
	}
}

func TestProcess_InactiveRecipientsDropped(t *testing.T) {
	f := newFixture(t)
	client := uuid.New()
	f.addUser(t, client, false)

	evt := quotationSentEvent(client, uuid.New())
	if f.svc.Process(context.Background(), evt) {
		t.Fatal("expected drop when the only recipient is inactive")
	}
}

func TestProcess_RecipientRouting(t *testing.T) {
	f := newFixture(t)
	client := uuid.New()
	manager := uuid.New()
	assignee := uuid.New()
	f.addUser(t, client, true)
	f.addUser(t, manager, true)
	f.addUser(t, assignee, true)

	// approved goes to the manager, not the client.
	approved := quotationSentEvent(client, manager)
	approved.Action = "approved"
	if !f.svc.Process(context.Background(), approved) {
		t.Fatal("approved event should deliver")
	}
	if inbox, _ := f.svc.Inbox(context.Background(), client); len(inbox) != 0 {
		t.Fatalf("client should not receive approval notices, got %d", len(inbox))
	}
	if inbox, _ := f.svc.Inbox(context.Background(), manager); len(inbox) != 1 {
		t.Fatalf("manager should receive the approval notice, got %d", len(inbox))
	}

	// task assignment resolves the assignee from the data bag.
	task := transport.SystemEvent{
		WorkflowType: transport.TypeTaskAssignment,
		Action:       "assigned",
		EntityType:   "task",
		EntityID:     uuid.NewString(),
		Data: map[string]transport.Value{
			"assigneeId": transport.String(assignee.String()),
			"taskName":   transport.String("pour foundation"),
			"deadline":   transport.Date(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)),
		},
	}
	if !f.svc.Process(context.Background(), task) {
		t.Fatal("task event should deliver")
	}
	inbox, _ := f.svc.Inbox(context.Background(), assignee)
	if len(inbox) != 1 {
		t.Fatalf("assignee should receive the task notice, got %d", len(inbox))
	}
	if inbox[0].Content != "You were assigned the task pour foundation with deadline 2026-10-01." {
		t.Fatalf("unexpected content %q", inbox[0].Content)
	}

	// project updates fan out to active participants only.
	inactive := uuid.New()
	f.addUser(t, inactive, false)
	update := transport.SystemEvent{
		WorkflowType:   transport.TypeProjectUpdate,
		Action:         "updated",
		EntityType:     "project",
		EntityID:       uuid.NewString(),
		ParticipantIDs: []uuid.UUID{client, manager, inactive},
		Data: map[string]transport.Value{
			"projectName": transport.String("Riverside"),
			"summary":     transport.String("foundation complete"),
		},
	}
	if !f.svc.Process(context.Background(), update) {
		t.Fatal("project update should deliver")
	}
	clientInbox, _ := f.svc.Inbox(context.Background(), client)
	if len(clientInbox) != 1 {
		t.Fatalf("client should receive the project update, got %d", len(clientInbox))
	}
	if clientInbox[0].Recipients == nil || len(clientInbox[0].Recipients) != 2 {
		t.Fatalf("expected 2 active recipients, got %v", clientInbox[0].Recipients)
	}
}

func TestMarkRead_ScopedToRecipient(t *testing.T) {
	f := newFixture(t)
	client := uuid.New()
	f.addUser(t, client, true)
	evt := quotationSentEvent(client, uuid.New())

	if !f.svc.Process(context.Background(), evt) {
		t.Fatal("event should deliver")
	}
	inbox, _ := f.svc.Inbox(context.Background(), client)
	if len(inbox) != 1 || inbox[0].Read {
		t.Fatal("expected one unread message")
	}

	marked, err := f.svc.MarkRead(context.Background(), inbox[0].ID, client)
	if err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if !marked.Read || marked.ReadAt == nil {
		t.Fatal("expected message marked read")
	}

	// A non-recipient cannot mark the message.
	if _, err := f.svc.MarkRead(context.Background(), inbox[0].ID, uuid.New()); err == nil {
		t.Fatal("expected error marking someone else's message")
	}
}

// stubDispatcher records enqueued message ids.
type stubDispatcher struct {
	ids []uuid.UUID
}

func (s *stubDispatcher) EnqueueDelivery(_ context.Context, id uuid.UUID) error {
	s.ids = append(s.ids, id)
	return nil
}

func TestProcess_EnqueuesDelivery(t *testing.T) {
	f := newFixture(t)
	client := uuid.New()
	f.addUser(t, client, true)
	disp := &stubDispatcher{}
	f.svc.SetDispatcher(disp)

	if !f.svc.Process(context.Background(), quotationSentEvent(client, uuid.New())) {
		t.Fatal("event should deliver")
	}
	if len(disp.ids) != 1 {
		t.Fatalf("expected 1 enqueued delivery, got %d", len(disp.ids))
	}
}
