package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"civic-chat/internal/domain"
	"civic-chat/internal/faq"
	"civic-chat/internal/logging"
)

// maxHistoryMessages bounds the conversation window handed to the generator.
const maxHistoryMessages = 10

const (
	SourceFAQ       = "faq"
	SourceGenerated = "generated"
)

type FAQSource interface {
	Match(message string) (string, bool)
	Entries() []faq.Entry
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type MessageStore interface {
	RecentMessages(ctx context.Context, ownerID string, limit int) ([]domain.Message, error)
	AppendMessage(ctx context.Context, msg domain.Message) error
}

type credentialError interface {
	CredentialMissing() bool
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

type ChatService struct {
	faqs  FAQSource
	llm   Generator
	store MessageStore
}

type ChatInput struct {
	UserID  string
	Message string
}

type ChatOutput struct {
	Response string
	Source   string
}

func NewChatService(faqs FAQSource, llm Generator, store MessageStore) (*ChatService, error) {
	if faqs == nil {
		return nil, errors.New("usecase: faq source must not be nil")
	}
	if llm == nil {
		return nil, errors.New("usecase: generator must not be nil")
	}
	if store == nil {
		return nil, errors.New("usecase: message store must not be nil")
	}
	return &ChatService{faqs: faqs, llm: llm, store: store}, nil
}

// Chat answers one user message. The history window is read before the new
// message is persisted, so it never contains the message being answered.
func (s *ChatService) Chat(ctx context.Context, in ChatInput) (ChatOutput, error) {
	ownerID := strings.TrimSpace(in.UserID)
	if ownerID == "" || strings.TrimSpace(in.Message) == "" {
		return ChatOutput{}, newError(ErrorInvalidInput, "missing_required_fields", nil)
	}
	logger := logging.From(ctx).With("user_id", ownerID)

	history, err := s.store.RecentMessages(ctx, ownerID, maxHistoryMessages)
	if err != nil {
		logger.Warn("history read failed, continuing without context", "err", err)
		history = nil
	}

	if err := s.store.AppendMessage(ctx, newMessage(ownerID, domain.RoleUser, in.Message)); err != nil {
		return ChatOutput{}, newError(ErrorInternal, "store_user_message_error", err)
	}

	out, err := s.respond(ctx, history, in.Message)
	if err != nil {
		return ChatOutput{}, err
	}
	logger.Info("reply produced", "source", out.Source, "history_len", len(history))

	if err := s.store.AppendMessage(ctx, newMessage(ownerID, domain.RoleAssistant, out.Response)); err != nil {
		return ChatOutput{}, newError(ErrorInternal, "store_assistant_message_error", err)
	}
	return out, nil
}

func (s *ChatService) respond(ctx context.Context, history []domain.Message, message string) (ChatOutput, error) {
	if answer, ok := s.faqs.Match(message); ok {
		return ChatOutput{Response: answer, Source: SourceFAQ}, nil
	}

	text, err := s.llm.Generate(ctx, buildPrompt(s.faqs.Entries(), history, message))
	if err != nil {
		if isCredentialMissing(err) {
			return ChatOutput{}, newError(ErrorConfiguration, "gemini_credential_missing", err)
		}
		if status, ok := upstreamStatusCode(err); ok {
			logging.From(ctx).Error("gemini call failed", "status", status, "err", err)
		}
		return ChatOutput{}, newError(ErrorUpstream, "gemini_error", err)
	}
	return ChatOutput{Response: text, Source: SourceGenerated}, nil
}

func newMessage(ownerID string, role domain.Role, content string) domain.Message {
	return domain.Message{
		OwnerID:   ownerID,
		Role:      role,
		Content:   content,
		CreatedAt: timeNow().UTC(),
	}
}

func isCredentialMissing(err error) bool {
	var ce credentialError
	return errors.As(err, &ce) && ce.CredentialMissing()
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}

var timeNow = time.Now
