package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"buildportal/internal/messaging/transport"
)

// Validation constants.
const (
	MaxSubjectLength = 200
	MaxContentLength = 5000

	// SpamWindow is how far back near-duplicate detection looks.
	SpamWindow = 10 * time.Minute
	// DuplicateThreshold is the total number of near-identical messages
	// (including the one being validated) that triggers rejection.
	DuplicateThreshold = 3
	// SimilarityThreshold is the word-set Jaccard similarity above which
	// two messages count as duplicates.
	SimilarityThreshold = 0.8

	uppercaseWarnRatio   = 0.7
	punctuationWarnRatio = 0.3
)

// spamKeywords trigger a non-blocking warning on substring match.
var spamKeywords = []string{
	"buy now",
	"click here",
	"free money",
	"limited offer",
	"act immediately",
	"guaranteed winner",
}

// ValidateMessage checks a new direct message: required fields, directory
// existence, length limits, spam similarity, rate limits, and content
// heuristics.
func (s *Service) ValidateMessage(ctx context.Context, req transport.SendMessageRequest) transport.ValidationResult {
	result := transport.ValidationResult{Valid: true}
	isReply := req.ThreadID != nil

	s.validateParties(ctx, &result, req, isReply)
	validateContent(&result, req.Subject, req.Content, isReply)

	if result.Valid {
		s.checkSpam(ctx, &result, req.SenderID, req.ProjectID, req.Content)
	}
	s.checkRateLimit(ctx, &result, req.SenderID)
	analyzeContent(&result, req.Content)

	finalizeSeverity(&result)
	return result
}

// ValidateThread checks the first message of a new thread. Thread starts
// must carry receiver, project, and subject.
func (s *Service) ValidateThread(ctx context.Context, req transport.SendMessageRequest) transport.ValidationResult {
	req.ThreadID = nil
	return s.ValidateMessage(ctx, req)
}

// ValidateReply checks a reply inside an existing thread. Receiver,
// project, and subject are inherited from the thread.
func (s *Service) ValidateReply(ctx context.Context, req transport.SendMessageRequest) transport.ValidationResult {
	result := transport.ValidationResult{Valid: true}

	if req.ThreadID == nil {
		result.AddError("Reply must reference an existing thread")
	} else {
		thread, err := s.repo.ListThread(ctx, *req.ThreadID)
		if err != nil {
			result.AddError("Thread lookup failed")
		} else if len(thread) == 0 {
			result.AddError("Thread does not exist")
		}
	}

	s.validateParties(ctx, &result, req, true)
	validateContent(&result, req.Subject, req.Content, true)
	if result.Valid {
		s.checkSpam(ctx, &result, req.SenderID, req.ProjectID, req.Content)
	}
	s.checkRateLimit(ctx, &result, req.SenderID)
	analyzeContent(&result, req.Content)

	finalizeSeverity(&result)
	return result
}

// ValidateBroadcast checks a message addressed to all project
// participants.
func (s *Service) ValidateBroadcast(ctx context.Context, req transport.BroadcastRequest) transport.ValidationResult {
	result := transport.ValidationResult{Valid: true}

	if req.SenderID == uuid.Nil {
		result.AddError("Sender is required")
	} else if !s.userExists(ctx, req.SenderID) {
		result.AddError("Sender does not exist in the directory")
	}
	if req.ProjectID == uuid.Nil {
		result.AddError("Project is required")
	}
	if len(req.ParticipantIDs) == 0 {
		result.AddError("Broadcast requires at least one participant")
	}
	for _, id := range req.ParticipantIDs {
		if !s.userExists(ctx, id) {
			result.AddError(fmt.Sprintf("Participant %s does not exist in the directory", id))
		}
	}

	validateContent(&result, req.Subject, req.Content, false)
	if result.Valid {
		s.checkSpam(ctx, &result, req.SenderID, req.ProjectID, req.Content)
	}
	s.checkRateLimit(ctx, &result, req.SenderID)
	analyzeContent(&result, req.Content)

	finalizeSeverity(&result)
	return result
}

func (s *Service) validateParties(ctx context.Context, result *transport.ValidationResult, req transport.SendMessageRequest, isReply bool) {
	if req.SenderID == uuid.Nil {
		result.AddError("Sender is required")
	} else if !s.userExists(ctx, req.SenderID) {
		result.AddError("Sender does not exist in the directory")
	}

	if !isReply {
		if req.ReceiverID == uuid.Nil {
			result.AddError("Receiver is required")
		} else if !s.userExists(ctx, req.ReceiverID) {
			result.AddError("Receiver does not exist in the directory")
		}
		if req.ProjectID == uuid.Nil {
			result.AddError("Project is required")
		}
	} else if req.ReceiverID != uuid.Nil && !s.userExists(ctx, req.ReceiverID) {
		result.AddError("Receiver does not exist in the directory")
	}
}

func validateContent(result *transport.ValidationResult, subject, content string, isReply bool) {
	if !isReply && strings.TrimSpace(subject) == "" {
		result.AddError("Subject is required")
	}
	if len(subject) > MaxSubjectLength {
		result.AddError(fmt.Sprintf("Subject cannot exceed %d characters", MaxSubjectLength))
	}
	if len(strings.TrimSpace(content)) == 0 {
		result.AddError("Content cannot be empty")
	}
	if len(content) > MaxContentLength {
		result.AddError(fmt.Sprintf("Content cannot exceed %d characters", MaxContentLength))
	}
}

// IsSpam reports whether sending content now would cross the duplicate
// threshold for the sender within the project's spam window.
func (s *Service) IsSpam(ctx context.Context, senderID, projectID uuid.UUID, content string) (bool, error) {
	similar, err := s.countSimilar(ctx, senderID, projectID, content)
	if err != nil {
		return false, err
	}
	return similar+1 >= DuplicateThreshold, nil
}

// IsRateLimited reports whether the sender has exhausted the hourly or
// daily message budget. The check itself counts toward the budget.
func (s *Service) IsRateLimited(ctx context.Context, senderID uuid.UUID) (bool, error) {
	counts, err := s.limiter.Record(ctx, senderID.String())
	if err != nil {
		return false, err
	}
	return counts.HourlyExceeded() || counts.DailyExceeded(), nil
}

func (s *Service) countSimilar(ctx context.Context, senderID, projectID uuid.UUID, content string) (int, error) {
	since := time.Now().UTC().Add(-SpamWindow)
	recent, err := s.repo.ListRecentBySenderProject(ctx, senderID, projectID, since)
	if err != nil {
		return 0, err
	}

	similar := 0
	for i := range recent {
		if recent[i].Content == content || jaccardSimilarity(recent[i].Content, content) >= SimilarityThreshold {
			similar++
		}
	}
	return similar, nil
}

// checkSpam rejects the message when the sender already has enough
// near-identical messages in the project within the spam window.
func (s *Service) checkSpam(ctx context.Context, result *transport.ValidationResult, senderID, projectID uuid.UUID, content string) {
	if senderID == uuid.Nil {
		return
	}
	similar, err := s.countSimilar(ctx, senderID, projectID, content)
	if err != nil {
		s.log.StorageError("spam lookup", err)
		return
	}

	// The message being validated counts toward the threshold.
	if similar+1 >= DuplicateThreshold {
		result.AddError(fmt.Sprintf("Message looks like spam: %d near-identical messages within %s", similar+1, SpamWindow))
		result.Severity = transport.SeverityCritical
	}
}

func (s *Service) checkRateLimit(ctx context.Context, result *transport.ValidationResult, senderID uuid.UUID) {
	if senderID == uuid.Nil {
		return
	}
	counts, err := s.limiter.Record(ctx, senderID.String())
	if err != nil {
		s.log.StorageError("rate limit check", err)
		return
	}
	if counts.HourlyExceeded() {
		s.log.RateLimitExceeded(senderID.String(), "hourly")
		result.AddError(fmt.Sprintf("Hourly message limit of %d exceeded", HourlyMessageCap))
	} else if counts.DailyExceeded() {
		s.log.RateLimitExceeded(senderID.String(), "daily")
		result.AddError(fmt.Sprintf("Daily message limit of %d exceeded", DailyMessageCap))
	}
}

// analyzeContent adds non-blocking heuristics: shouting, excessive
// punctuation, and known spam phrases.
func analyzeContent(result *transport.ValidationResult, content string) {
	var letters, upper, punct int
	for _, r := range content {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
		if unicode.IsPunct(r) {
			punct++
		}
	}

	if letters > 0 && float64(upper)/float64(letters) > uppercaseWarnRatio {
		result.AddWarning("Content is mostly uppercase")
	}
	total := len([]rune(content))
	if total > 0 && float64(punct)/float64(total) > punctuationWarnRatio {
		result.AddWarning("Content contains excessive punctuation")
	}

	lowered := strings.ToLower(content)
	for _, kw := range spamKeywords {
		if strings.Contains(lowered, kw) {
			result.AddWarning(fmt.Sprintf("Content contains the phrase %q", kw))
			break
		}
	}
}

// finalizeSeverity grades the result: critical when rejected for content
// or spam reasons, warning when only rate limits or heuristics fired.
func finalizeSeverity(result *transport.ValidationResult) {
	switch {
	case result.Severity == transport.SeverityCritical:
	case !result.Valid && onlyRateLimitErrors(result.Errors):
		result.Severity = transport.SeverityWarning
	case !result.Valid:
		result.Severity = transport.SeverityCritical
	case len(result.Warnings) > 0:
		result.Severity = transport.SeverityWarning
	}
}

func onlyRateLimitErrors(errs []string) bool {
	for _, e := range errs {
		if !strings.Contains(e, "limit") {
			return false
		}
	}
	return len(errs) > 0
}

func (s *Service) userExists(ctx context.Context, id uuid.UUID) bool {
	ok, err := s.directory.Exists(ctx, id.String())
	if err != nil {
		s.log.StorageError("directory lookup", err)
		return false
	}
	return ok
}

// jaccardSimilarity computes word-set similarity between two texts,
// case-insensitive.
func jaccardSimilarity(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[strings.Trim(w, ".,!?;:\"'()")] = struct{}{}
	}
	delete(set, "")
	return set
}
