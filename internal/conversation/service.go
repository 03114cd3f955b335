package conversation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/attachments"
	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/docstore"
	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/llm"
	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/users"
)

const instrumentationName = "github.com/scsuvizlab/tiis-chatbot-sub000/internal/conversation"

// Service is the conversation session manager. Every mutation is one
// whole-document cycle: load, mutate in memory, save. The user's own
// message is always durably saved before the external model call, so a
// failure there loses only the pending reply, never user input.
type Service struct {
	docs     *docstore.Store
	users    *users.Store
	attach   *attachments.Store
	provider llm.Provider
	logger   *zap.Logger

	// Telemetry
	tracer        trace.Tracer
	meter         metric.Meter
	appendCounter metric.Int64Counter
	createCounter metric.Int64Counter
}

// NewService creates a conversation service.
func NewService(
	docs *docstore.Store,
	userStore *users.Store,
	attach *attachments.Store,
	provider llm.Provider,
	logger *zap.Logger,
) (*Service, error) {
	if docs == nil {
		return nil, errors.New("document store is required")
	}
	if userStore == nil {
		return nil, errors.New("user store is required")
	}
	if attach == nil {
		return nil, errors.New("attachment store is required")
	}
	if provider == nil {
		return nil, errors.New("llm provider is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		docs:     docs,
		users:    userStore,
		attach:   attach,
		provider: provider,
		logger:   logger,
		tracer:   otel.Tracer(instrumentationName),
		meter:    otel.Meter(instrumentationName),
	}

	s.initMetrics()

	return s, nil
}

// initMetrics initializes OpenTelemetry metrics.
func (s *Service) initMetrics() {
	var err error

	s.appendCounter, err = s.meter.Int64Counter(
		"tiis.conversation.appends_total",
		metric.WithDescription("Total number of message exchanges appended"),
		metric.WithUnit("{append}"),
	)
	if err != nil {
		s.logger.Warn("failed to create append counter", zap.Error(err))
	}

	s.createCounter, err = s.meter.Int64Counter(
		"tiis.conversation.creates_total",
		metric.WithDescription("Total number of conversations created"),
		metric.WithUnit("{conversation}"),
	)
	if err != nil {
		s.logger.Warn("failed to create create counter", zap.Error(err))
	}
}

// CreateOnboarding starts the singleton onboarding conversation for a user
// and returns it along with the greeting text the caller should display.
// The greeting is not part of the persisted message sequence. A second
// creation attempt is rejected with ErrOnboardingExists.
func (s *Service) CreateOnboarding(ctx context.Context, userID string) (*Conversation, string, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.create_onboarding")
	defer span.End()
	span.SetAttributes(attribute.String("user", userID))

	profile, err := s.users.Get(userID)
	if err != nil {
		span.RecordError(err)
		return nil, "", err
	}
	if profile.OnboardingComplete {
		return nil, "", ErrOnboardingExists
	}
	if _, err := s.load(userID, OnboardingConversationID); err == nil {
		return nil, "", ErrOnboardingExists
	} else if !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		return nil, "", err
	}

	now := time.Now().UTC()
	conv := &Conversation{
		ID:          OnboardingConversationID,
		Type:        TypeOnboarding,
		Status:      StatusInProgress,
		CreatedAt:   now,
		LastUpdated: now,
		Messages:    []Message{},
	}

	if err := s.save(userID, conv); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}

	if s.createCounter != nil {
		s.createCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(TypeOnboarding))))
	}
	s.logger.Info("created onboarding conversation", zap.String("user", userID))

	return conv, onboardingGreeting, nil
}

// AppendOnboardingMessage appends one user/assistant exchange to the
// onboarding conversation and reports whether the reply looks like a
// finished summary awaiting user approval.
func (s *Service) AppendOnboardingMessage(ctx context.Context, userID, text string, uploads []attachments.Upload) (*AppendResult, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.append_onboarding")
	defer span.End()
	span.SetAttributes(attribute.String("user", userID))

	conv, err := s.load(userID, OnboardingConversationID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	reply, err := s.appendExchange(ctx, userID, conv, text, uploads, onboardingSystemContext, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if s.appendCounter != nil {
		s.appendCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(TypeOnboarding))))
	}

	return &AppendResult{
		ReplyText:          reply,
		IsSummaryCandidate: IsSummaryCandidate(reply),
	}, nil
}

// CompleteOnboarding finalizes the onboarding conversation with the
// user-approved summary and flips the external onboarding flag.
//
// The document write and the profile-flag write are not atomic: a failure
// after the first leaves the two inconsistent until the reconciliation in
// onboardingComplete catches up on the next task creation.
func (s *Service) CompleteOnboarding(ctx context.Context, userID, approvedSummary string) error {
	ctx, span := s.tracer.Start(ctx, "conversation.complete_onboarding")
	defer span.End()
	span.SetAttributes(attribute.String("user", userID))

	conv, err := s.load(userID, OnboardingConversationID)
	if err != nil {
		span.RecordError(err)
		return err
	}

	now := time.Now().UTC()
	conv.Status = StatusComplete
	conv.Summary = &approvedSummary
	conv.CompletedAt = &now
	conv.LastUpdated = now

	if err := s.save(userID, conv); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := s.users.SetOnboardingComplete(userID, true); err != nil {
		span.RecordError(err)
		return fmt.Errorf("onboarding document completed but profile flag not updated: %w", err)
	}

	s.logger.Info("onboarding completed", zap.String("user", userID))
	return nil
}

// CreateTask starts a new task conversation, returning it and the greeting
// text to display. Refused until the user's onboarding is complete.
func (s *Service) CreateTask(ctx context.Context, userID string) (*Conversation, string, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.create_task")
	defer span.End()
	span.SetAttributes(attribute.String("user", userID))

	complete, err := s.onboardingComplete(userID)
	if err != nil {
		span.RecordError(err)
		return nil, "", err
	}
	if !complete {
		return nil, "", ErrOnboardingIncomplete
	}

	now := time.Now().UTC()
	conv := &Conversation{
		ID:          uuid.New().String(),
		Type:        TypeTask,
		Status:      StatusActive,
		CreatedAt:   now,
		LastUpdated: now,
		Messages:    []Message{},
	}

	if err := s.save(userID, conv); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, "", err
	}

	if s.createCounter != nil {
		s.createCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(TypeTask))))
	}
	s.logger.Info("created task conversation",
		zap.String("user", userID),
		zap.String("conversation_id", conv.ID),
	)

	return conv, taskGreeting, nil
}

// AppendTaskMessage appends one user/assistant exchange to a task
// conversation. The very first user message also triggers the one-time
// title derivation.
func (s *Service) AppendTaskMessage(ctx context.Context, userID, convID, text string, uploads []attachments.Upload) (*AppendResult, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.append_task")
	defer span.End()
	span.SetAttributes(
		attribute.String("user", userID),
		attribute.String("conversation_id", convID),
	)

	conv, err := s.load(userID, convID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if conv.Type != TypeTask {
		return nil, fmt.Errorf("%w: %s is not a task conversation", ErrNotFound, convID)
	}

	var derived *string
	reply, err := s.appendExchange(ctx, userID, conv, text, uploads, taskSystemContext, func(c *Conversation) {
		// Fires exactly once, normally when the sequence has just grown to
		// the first user message plus its paired reply. The >= keeps a
		// title from being skipped forever when an earlier model call
		// failed after the user message was already saved.
		if c.Title == nil && len(c.Messages) >= 2 {
			title := s.deriveTitle(ctx, c.FirstUserText())
			c.Title = &title
			derived = &title
		}
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if s.appendCounter != nil {
		s.appendCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("type", string(TypeTask))))
	}

	return &AppendResult{ReplyText: reply, DerivedTitle: derived}, nil
}

// List returns the user's conversations: onboarding first, then tasks by
// most recently updated.
func (s *Service) List(ctx context.Context, userID string) ([]ListEntry, error) {
	_, span := s.tracer.Start(ctx, "conversation.list")
	defer span.End()
	span.SetAttributes(attribute.String("user", userID))

	ids, err := s.docs.ListIDs(userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	entries := make([]ListEntry, 0, len(ids))
	for _, id := range ids {
		if id == users.ProfileDocID {
			continue
		}
		conv, err := s.load(userID, id)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		entries = append(entries, ListEntry{
			ID:             conv.ID,
			Type:           conv.Type,
			Title:          conv.DisplayTitle(),
			Status:         conv.Status,
			LastUpdated:    conv.LastUpdated,
			MessageCount:   len(conv.Messages),
			HasAttachments: s.attach.HasAny(userID, conv.ID),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Type != entries[j].Type {
			return entries[i].Type == TypeOnboarding
		}
		return entries[i].LastUpdated.After(entries[j].LastUpdated)
	})

	span.SetAttributes(attribute.Int("result_count", len(entries)))
	return entries, nil
}

// Get returns the full conversation document.
func (s *Service) Get(ctx context.Context, userID, convID string) (*Conversation, error) {
	_, span := s.tracer.Start(ctx, "conversation.get")
	defer span.End()
	span.SetAttributes(
		attribute.String("user", userID),
		attribute.String("conversation_id", convID),
	)

	return s.load(userID, convID)
}

// Delete removes a task conversation and releases its attachments, in that
// order. Document deletion must succeed; attachment release is best-effort
// (a failure leaves unreclaimed blobs, logged but not fatal). Onboarding
// conversations are never deletable.
func (s *Service) Delete(ctx context.Context, userID, convID string) error {
	_, span := s.tracer.Start(ctx, "conversation.delete")
	defer span.End()
	span.SetAttributes(
		attribute.String("user", userID),
		attribute.String("conversation_id", convID),
	)

	conv, err := s.load(userID, convID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if conv.Type == TypeOnboarding {
		return ErrOnboardingUndeletable
	}

	if err := s.docs.Delete(userID, convID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("deleting conversation document: %w", err)
	}

	if _, err := s.attach.Release(userID, convID); err != nil {
		s.logger.Warn("attachment release failed; blobs left unreclaimed",
			zap.String("user", userID),
			zap.String("conversation_id", convID),
			zap.Error(err),
		)
	}

	s.logger.Info("deleted task conversation",
		zap.String("user", userID),
		zap.String("conversation_id", convID),
	)
	return nil
}

// appendExchange runs the message-append protocol: build the user message's
// content parts (admitting attachments), append it, save the document
// durably, hand the full turn history to the model, append the reply, apply
// the optional pre-save mutation (title derivation), and save once more.
func (s *Service) appendExchange(
	ctx context.Context,
	userID string,
	conv *Conversation,
	text string,
	uploads []attachments.Upload,
	systemContext string,
	beforeReplySave func(*Conversation),
) (string, error) {
	msgID := uuid.New().String()

	parts := make([]ContentPart, 0, 1+len(uploads))
	if strings.TrimSpace(text) != "" {
		parts = append(parts, ContentPart{Kind: PartText, Text: text})
	}
	for _, up := range uploads {
		ref, admitted, err := s.attach.Admit(userID, conv.ID, msgID, up)
		if err != nil {
			return "", err
		}
		if !admitted {
			// Best-effort policy: the rejected part is dropped, the rest
			// of the message proceeds.
			continue
		}
		kind := PartImage
		if ref.Kind == attachments.KindDocument {
			kind = PartDocument
		}
		parts = append(parts, ContentPart{Kind: kind, Ref: ref.Ref, Name: ref.Name, MediaType: ref.MediaType})
	}
	if len(parts) == 0 {
		return "", ErrEmptyMessage
	}

	now := time.Now().UTC()
	conv.Messages = append(conv.Messages, Message{
		ID:        msgID,
		Role:      RoleUser,
		Parts:     parts,
		Timestamp: now,
	})
	conv.LastUpdated = now

	// The user's message must be durable before the external call; a crash
	// or model failure from here on loses only the pending reply.
	if err := s.save(userID, conv); err != nil {
		return "", err
	}

	reply, err := s.provider.SendTurn(ctx, turnHistory(conv), systemContext)
	if err != nil {
		return "", fmt.Errorf("model call failed: %w", err)
	}

	now = time.Now().UTC()
	conv.Messages = append(conv.Messages, newTextMessage(RoleAssistant, reply, now))
	conv.LastUpdated = now

	if beforeReplySave != nil {
		beforeReplySave(conv)
	}

	if err := s.save(userID, conv); err != nil {
		return "", err
	}

	return reply, nil
}

// deriveTitle asks the collaborator for a short title, truncating long
// output and falling back to a timestamp-based generic title when the
// derivation fails or yields nothing usable.
func (s *Service) deriveTitle(ctx context.Context, firstUserText string) string {
	title, err := s.provider.DeriveTitle(ctx, firstUserText)
	if err != nil {
		s.logger.Warn("title derivation failed; using generic title", zap.Error(err))
		return genericTitle(time.Now().UTC())
	}

	title = strings.TrimSpace(title)
	if len([]rune(title)) < 3 {
		return genericTitle(time.Now().UTC())
	}

	if runes := []rune(title); len(runes) > MaxTitleLength {
		title = string(runes[:MaxTitleLength]) + "..."
	}
	return title
}

func genericTitle(t time.Time) string {
	return "Task " + t.Format("2006-01-02 15:04")
}

// onboardingComplete resolves the user's onboarding state from the profile
// flag, reconciling the flag from the document status when the two have
// diverged (the completion write is not atomic across both).
func (s *Service) onboardingComplete(userID string) (bool, error) {
	profile, err := s.users.Get(userID)
	if err != nil {
		return false, err
	}
	if profile.OnboardingComplete {
		return true, nil
	}

	conv, err := s.load(userID, OnboardingConversationID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if conv.Status != StatusComplete {
		return false, nil
	}

	// Document says complete but the flag write was lost: sync it.
	if err := s.users.SetOnboardingComplete(userID, true); err != nil {
		return false, err
	}
	s.logger.Warn("reconciled onboarding flag from document status", zap.String("user", userID))
	return true, nil
}

func (s *Service) load(userID, convID string) (*Conversation, error) {
	var conv Conversation
	err := s.docs.Load(userID, convID, &conv)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, convID)
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *Service) save(userID string, conv *Conversation) error {
	return s.docs.Save(userID, conv.ID, conv)
}

func newTextMessage(role Role, text string, ts time.Time) Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      role,
		Parts:     []ContentPart{{Kind: PartText, Text: text}},
		Timestamp: ts,
	}
}

// turnHistory flattens the message sequence into the plain history handed
// to the model. Attachment parts contribute a short placeholder so the
// model sees that something was attached without receiving raw bytes.
func turnHistory(conv *Conversation) []llm.Turn {
	turns := make([]llm.Turn, 0, len(conv.Messages))
	for i := range conv.Messages {
		msg := &conv.Messages[i]
		content := msg.Text()
		for _, p := range msg.Parts {
			if p.Kind == PartImage || p.Kind == PartDocument {
				if content != "" {
					content += "\n"
				}
				content += "[attached " + string(p.Kind) + ": " + p.MediaType + "]"
			}
		}
		turns = append(turns, llm.Turn{Role: llm.Role(msg.Role), Content: content})
	}
	return turns
}
