package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"buildportal/internal/directory"
	"buildportal/internal/docstore"
	"buildportal/internal/messaging/repository"
	"buildportal/internal/messaging/transport"
	"buildportal/platform/logger"
)

type fixture struct {
	svc     *Service
	store   *docstore.MemoryStore
	limiter *MemoryRateLimiter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := docstore.NewMemoryStore()
	repo := repository.New(store)
	dir := directory.NewService(directory.NewRepository(store))
	limiter := NewMemoryRateLimiter()
	return &fixture{
		svc:     New(repo, dir, limiter, logger.New("development")),
		store:   store,
		limiter: limiter,
	}
}

func (f *fixture) addUser(t *testing.T, id uuid.UUID) {
	t.Helper()
	user := directory.User{ID: id.String(), Name: "user", Role: "member", Active: true}
	if err := f.store.AddWithID(context.Background(), "users", id.String(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func validRequest(sender, receiver uuid.UUID) transport.SendMessageRequest {
	return transport.SendMessageRequest{
		SenderID:   sender,
		ReceiverID: receiver,
		ProjectID:  uuid.New(),
		Subject:    "Schedule question",
		Content:    "Can we move the site visit to Thursday?",
	}
}

func hasError(result transport.ValidationResult, fragment string) bool {
	for _, e := range result.Errors {
		if strings.Contains(e, fragment) {
			return true
		}
	}
	return false
}

func TestValidateMessage_RequiredFields(t *testing.T) {
	f := newFixture(t)

	result := f.svc.ValidateMessage(context.Background(), transport.SendMessageRequest{})
	if result.Valid {
		t.Fatal("expected empty message to be rejected")
	}
	for _, fragment := range []string{"Sender is required", "Receiver is required", "Project is required", "Subject is required", "Content cannot be empty"} {
		if !hasError(result, fragment) {
			t.Fatalf("missing error %q in %v", fragment, result.Errors)
		}
	}
	if result.Severity != transport.SeverityCritical {
		t.Fatalf("expected critical severity, got %s", result.Severity)
	}
}

func TestValidateMessage_UnknownPartiesRejected(t *testing.T) {
	f := newFixture(t)
	sender := uuid.New()
	f.addUser(t, sender)

	result := f.svc.ValidateMessage(context.Background(), validRequest(sender, uuid.New()))
	if result.Valid {
		t.Fatal("expected unknown receiver to be rejected")
	}
	if !hasError(result, "Receiver does not exist") {
		t.Fatalf("missing receiver error in %v", result.Errors)
	}
}

func TestValidateMessage_LengthLimits(t *testing.T) {
	f := newFixture(t)
	sender, receiver := uuid.New(), uuid.New()
	f.addUser(t, sender)
	f.addUser(t, receiver)

	req := validRequest(sender, receiver)
	req.Subject = strings.Repeat("s", MaxSubjectLength+1)
	req.Content = strings.Repeat("c", MaxContentLength+1)

	result := f.svc.ValidateMessage(context.Background(), req)
	if result.Valid {
		t.Fatal("expected oversize message to be rejected")
	}
	if !hasError(result, "Subject cannot exceed 200 characters") {
		t.Fatalf("missing subject error in %v", result.Errors)
	}
	if !hasError(result, "Content cannot exceed 5000 characters") {
		t.Fatalf("missing content error in %v", result.Errors)
	}
}

func TestSend_ThirdDuplicateRejectedAsSpam(t *testing.T) {
	f := newFixture(t)
	sender, receiver := uuid.New(), uuid.New()
	f.addUser(t, sender)
	f.addUser(t, receiver)

	req := validRequest(sender, receiver)
	for i := 0; i < 2; i++ {
		resp, err := f.svc.Send(context.Background(), req)
		if err != nil {
			t.Fatalf("send %d: %v", i+1, err)
		}
		if !resp.Validation.Valid {
			t.Fatalf("send %d unexpectedly rejected: %v", i+1, resp.Validation.Errors)
		}
	}

	resp, err := f.svc.Send(context.Background(), req)
	if err != nil {
		t.Fatalf("third send: %v", err)
	}
	if resp.Validation.Valid {
		t.Fatal("expected third identical message to be rejected")
	}
	if resp.Validation.Severity != transport.SeverityCritical {
		t.Fatalf("expected critical severity, got %s", resp.Validation.Severity)
	}
	if resp.Message != nil {
		t.Fatal("rejected message must not be persisted")
	}
}

func TestValidateMessage_NearDuplicateCountsAsSpam(t *testing.T) {
	f := newFixture(t)
	sender, receiver := uuid.New(), uuid.New()
	f.addUser(t, sender)
	f.addUser(t, receiver)

	req := validRequest(sender, receiver)
	req.Content = "please review the updated quotation for the riverside project today"
	if resp, _ := f.svc.Send(context.Background(), req); !resp.Validation.Valid {
		t.Fatalf("first send rejected: %v", resp.Validation.Errors)
	}

	// Same word set, one word reordered and one swapped: above 0.8 Jaccard.
	req.Content = "please review the updated quotation for the riverside project tomorrow"
	if resp, _ := f.svc.Send(context.Background(), req); !resp.Validation.Valid {
		t.Fatalf("second send rejected: %v", resp.Validation.Errors)
	}

	req.Content = "please review the updated quotation for the riverside project today"
	resp, _ := f.svc.Send(context.Background(), req)
	if resp.Validation.Valid {
		t.Fatal("expected near-duplicate to trip the spam threshold")
	}
}

func TestValidateMessage_DifferentContentNotSpam(t *testing.T) {
	f := newFixture(t)
	sender, receiver := uuid.New(), uuid.New()
	f.addUser(t, sender)
	f.addUser(t, receiver)

	texts := []string{
		"Can we move the site visit to Thursday?",
		"The drywall delivery arrived this morning.",
		"Final inspection is booked for next week.",
	}
	for _, text := range texts {
		req := validRequest(sender, receiver)
		req.Content = text
		resp, err := f.svc.Send(context.Background(), req)
		if err != nil {
			t.Fatalf("send: %v", err)
		}
		if !resp.Validation.Valid {
			t.Fatalf("distinct message rejected: %v", resp.Validation.Errors)
		}
	}
}

func TestValidateMessage_ContentWarningsDoNotBlock(t *testing.T) {
	f := newFixture(t)
	sender, receiver := uuid.New(), uuid.New()
	f.addUser(t, sender)
	f.addUser(t, receiver)

	req := validRequest(sender, receiver)
	req.Content = "URGENT BUY NOW!!! THE OFFER ENDS TODAY!!!"
	result := f.svc.ValidateMessage(context.Background(), req)

	if !result.Valid {
		t.Fatalf("warnings must not block: %v", result.Errors)
	}
	if len(result.Warnings) < 2 {
		t.Fatalf("expected uppercase and keyword warnings, got %v", result.Warnings)
	}
	if result.Severity != transport.SeverityWarning {
		t.Fatalf("expected warning severity, got %s", result.Severity)
	}
}

func TestValidateReply_RelaxedFieldsButRealThread(t *testing.T) {
	f := newFixture(t)
	sender, receiver := uuid.New(), uuid.New()
	f.addUser(t, sender)
	f.addUser(t, receiver)

	first, err := f.svc.Send(context.Background(), validRequest(sender, receiver))
	if err != nil || !first.Validation.Valid {
		t.Fatalf("thread start failed: %v %v", err, first.Validation.Errors)
	}
	threadID := first.Message.ID

	reply := transport.SendMessageRequest{
		SenderID: receiver,
		ThreadID: &threadID,
		Content:  "Thursday works for me.",
	}
	resp, err := f.svc.Send(context.Background(), reply)
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if !resp.Validation.Valid {
		t.Fatalf("reply rejected: %v", resp.Validation.Errors)
	}
	if resp.Message.ReceiverID != sender {
		t.Fatal("reply should go back to the thread counterparty")
	}
	if resp.Message.Subject != "Schedule question" {
		t.Fatalf("reply should inherit the thread subject, got %q", resp.Message.Subject)
	}

	// Replying into a non-existent thread is rejected.
	ghost := uuid.New()
	bad := transport.SendMessageRequest{SenderID: sender, ThreadID: &ghost, Content: "hello?"}
	result := f.svc.ValidateReply(context.Background(), bad)
	if result.Valid {
		t.Fatal("expected reply into missing thread to be rejected")
	}
}

func TestBroadcast_ValidatesParticipantsAndFansOut(t *testing.T) {
	f := newFixture(t)
	sender, alice, bob := uuid.New(), uuid.New(), uuid.New()
	f.addUser(t, sender)
	f.addUser(t, alice)
	f.addUser(t, bob)

	resp, err := f.svc.Broadcast(context.Background(), transport.BroadcastRequest{
		SenderID:       sender,
		ProjectID:      uuid.New(),
		ParticipantIDs: []uuid.UUID{sender, alice, bob},
		Subject:        "Site closed Friday",
		Content:        "The site is closed this Friday for the holiday.",
	})
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if !resp.Validation.Valid {
		t.Fatalf("broadcast rejected: %v", resp.Validation.Errors)
	}
	// The sender is skipped.
	if len(resp.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(resp.Messages))
	}

	bad := f.svc.ValidateBroadcast(context.Background(), transport.BroadcastRequest{
		SenderID:       sender,
		ProjectID:      uuid.New(),
		ParticipantIDs: []uuid.UUID{uuid.New()},
		Subject:        "hello",
		Content:        "content",
	})
	if bad.Valid {
		t.Fatal("expected unknown participant to be rejected")
	}
}

func TestJaccardSimilarity(t *testing.T) {
	if sim := jaccardSimilarity("hello world", "hello world"); sim != 1 {
		t.Fatalf("identical texts: got %f", sim)
	}
	if sim := jaccardSimilarity("alpha beta gamma", "delta epsilon zeta"); sim != 0 {
		t.Fatalf("disjoint texts: got %f", sim)
	}
	sim := jaccardSimilarity("one two three four", "one two three five")
	if sim < 0.59 || sim > 0.61 {
		t.Fatalf("expected 3/5 similarity, got %f", sim)
	}
}

func TestIsSpamPredicate(t *testing.T) {
	f := newFixture(t)
	sender, receiver := uuid.New(), uuid.New()
	f.addUser(t, sender)
	f.addUser(t, receiver)

	req := validRequest(sender, receiver)
	spam, err := f.svc.IsSpam(context.Background(), sender, req.ProjectID, req.Content)
	if err != nil {
		t.Fatalf("IsSpam failed: %v", err)
	}
	if spam {
		t.Fatal("first message flagged as spam")
	}

	for i := 0; i < 2; i++ {
		if _, err := f.svc.Send(context.Background(), req); err != nil {
			t.Fatalf("send %d failed: %v", i, err)
		}
	}

	spam, err = f.svc.IsSpam(context.Background(), sender, req.ProjectID, req.Content)
	if err != nil {
		t.Fatalf("IsSpam failed: %v", err)
	}
	if !spam {
		t.Fatal("third identical message not flagged as spam")
	}
}

func TestIsRateLimitedPredicate(t *testing.T) {
	f := newFixture(t)
	sender := uuid.New()

	for i := 0; i < HourlyMessageCap; i++ {
		limited, err := f.svc.IsRateLimited(context.Background(), sender)
		if err != nil {
			t.Fatalf("check %d failed: %v", i, err)
		}
		if limited {
			t.Fatalf("limited at message %d, cap is %d", i+1, HourlyMessageCap)
		}
	}

	limited, err := f.svc.IsRateLimited(context.Background(), sender)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !limited {
		t.Fatalf("expected message %d to exceed the hourly cap", HourlyMessageCap+1)
	}
}
