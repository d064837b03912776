package core

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/career-agent/backend/internal/auth"
	"github.com/career-agent/backend/internal/store"
)

const (
	// titlePrefixLen is how much of the first user message becomes the
	// conversation title.
	titlePrefixLen = 30

	careerCoachInstruction = "You are a helpful and expert career coach. " +
		"Answer the user's question concisely and professionally. " +
		"Please use Markdown for formatting (like lists, bold text, and code blocks). " +
		"User's question: "
)

// ConversationStore is the durable, owner-scoped conversation log. Every
// operation is keyed by owner; no call may touch another owner's records.
type ConversationStore interface {
	ListConversations(ctx context.Context, ownerID string) ([]store.ConversationSummary, error)
	GetConversation(ctx context.Context, id, ownerID string) (*store.Conversation, error)
	AppendMessages(ctx context.Context, id, ownerID string, msgs []store.Message) error
	CreateConversation(ctx context.Context, ownerID, title string, msgs []store.Message) (*store.Conversation, error)
}

// Generator sends one prompt plus prior turn history to the AI provider
// and returns the generated reply text.
type Generator interface {
	Generate(ctx context.Context, prompt string, history []store.Message) (string, error)
}

type ConversationService struct {
	store  ConversationStore
	gen    Generator
	logger *zap.Logger
}

func NewConversationService(s ConversationStore, g Generator, logger *zap.Logger) *ConversationService {
	return &ConversationService{store: s, gen: g, logger: logger}
}

// List returns the principal's conversations, newest-updated first.
// Guests have no persisted state and get an empty list, not an error.
func (s *ConversationService) List(ctx context.Context, principal auth.Principal) ([]store.ConversationSummary, error) {
	if principal.IsGuest {
		return []store.ConversationSummary{}, nil
	}

	summaries, err := s.store.ListConversations(ctx, principal.UserID)
	if err != nil {
		return nil, newError(ErrorStorage, "conversation_list_error", err)
	}
	return summaries, nil
}

// GetHistory returns the full message log of one conversation, only if it
// exists and belongs to the caller.
func (s *ConversationService) GetHistory(ctx context.Context, principal auth.Principal, conversationID string) ([]store.Message, error) {
	if principal.IsGuest {
		return nil, newError(ErrorForbidden, "guest_has_no_history", nil)
	}
	if uuid.Validate(conversationID) != nil {
		return nil, newError(ErrorInvalidID, "malformed_conversation_id", nil)
	}

	conv, err := s.store.GetConversation(ctx, conversationID, principal.UserID)
	if err != nil {
		if errors.Is(err, store.ErrConversationNotFound) {
			return nil, newError(ErrorNotFound, "conversation_not_found", err)
		}
		return nil, newError(ErrorStorage, "conversation_read_error", err)
	}
	return conv.Messages, nil
}

type SendMessageRequest struct {
	Message        string
	ConversationID string
	History        []store.Message
}

type SendMessageResponse struct {
	Reply          string
	ConversationID string
}

// SendMessage runs one chat turn: validate, generate, then persist the
// user/model message pair for registered users.
//
// Generation and persistence are deliberately decoupled. Once the provider
// has produced a reply, a failure to append to an *existing* conversation
// is logged and swallowed so the answer (a paid external call) still
// reaches the caller. Creating a new conversation is the exception: if
// that write fails the returned id would be dangling, so it is an error.
func (s *ConversationService) SendMessage(ctx context.Context, principal auth.Principal, req SendMessageRequest) (SendMessageResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return SendMessageResponse{}, newError(ErrorInvalidInput, "empty_message", nil)
	}

	reply, err := s.gen.Generate(ctx, careerCoachInstruction+req.Message, req.History)
	if err != nil {
		return SendMessageResponse{}, newError(ErrorAIService, generateFailureReason(err), err)
	}

	if principal.IsGuest {
		// Guest turns leave no trace; the input id is echoed back.
		return SendMessageResponse{Reply: reply, ConversationID: req.ConversationID}, nil
	}

	pair := []store.Message{
		{Role: store.RoleUser, Parts: []string{req.Message}},
		{Role: store.RoleModel, Parts: []string{reply}},
	}

	if req.ConversationID != "" {
		if err := s.store.AppendMessages(ctx, req.ConversationID, principal.UserID, pair); err != nil {
			// The turn already succeeded from the caller's perspective.
			s.logger.Warn("failed to append turn to conversation",
				zap.String("conversation_id", req.ConversationID),
				zap.String("user_id", principal.UserID),
				zap.Error(err))
		}
		return SendMessageResponse{Reply: reply, ConversationID: req.ConversationID}, nil
	}

	conv, err := s.store.CreateConversation(ctx, principal.UserID, titleFor(req.Message), pair)
	if err != nil {
		return SendMessageResponse{}, newError(ErrorStorage, "conversation_create_error", err)
	}
	return SendMessageResponse{Reply: reply, ConversationID: conv.ID}, nil
}

func titleFor(message string) string {
	runes := []rune(message)
	if len(runes) > titlePrefixLen {
		runes = runes[:titlePrefixLen]
	}
	return string(runes)
}

func generateFailureReason(err error) string {
	if IsProviderConfigError(err) {
		return "ai_config_error"
	}
	return "ai_error"
}
