package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/career-agent/backend/internal/store"
)

const defaultChatModelName = "gemini-2.0-flash-exp"

// ProviderError is any transport, authentication, or malformed-response
// failure from the external generation service. ConfigIssue marks causes
// the operator has to fix (bad API key, missing permissions) rather than
// transient provider trouble.
type ProviderError struct {
	Reason      string
	ConfigIssue bool
	Err         error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("ai provider: %s", e.Reason)
	}
	return fmt.Sprintf("ai provider: %s: %v", e.Reason, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsProviderConfigError reports whether err traces back to provider
// configuration (invalid key, permissions) rather than a generic failure.
func IsProviderConfigError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.ConfigIssue
}

func wrapProviderError(reason string, err error) *ProviderError {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	configIssue := strings.Contains(msg, "API key not valid") ||
		strings.Contains(msg, "API_KEY_INVALID") ||
		strings.Contains(strings.ToLower(msg), "permission")
	return &ProviderError{Reason: reason, ConfigIssue: configIssue, Err: err}
}

// GeminiService is the stateless adapter in front of the Gemini API. It
// holds only the immutable client built at startup and never persists
// anything.
type GeminiService struct {
	client    *genai.Client
	modelName string
}

func NewGeminiService(ctx context.Context, apiKey string) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiService{client: client, modelName: defaultChatModelName}, nil
}

func (s *GeminiService) Close() error {
	return s.client.Close()
}

// Generate sends prompt with the supplied prior turns as chat history and
// returns the reply text. History is passed through unmodified.
func (s *GeminiService) Generate(ctx context.Context, prompt string, history []store.Message) (string, error) {
	model := s.client.GenerativeModel(s.modelName)

	session := model.StartChat()
	session.History = toGenaiHistory(history)

	resp, err := session.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return "", wrapProviderError("chat request failed", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return "", err
	}
	return text, nil
}

// GenerateContent runs a single standalone completion without chat
// history, used by the resume analysis pipeline.
func (s *GeminiService) GenerateContent(ctx context.Context, prompt string) (string, error) {
	model := s.client.GenerativeModel(s.modelName)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", wrapProviderError("content request failed", err)
	}

	return responseText(resp)
}

func toGenaiHistory(history []store.Message) []*genai.Content {
	var contents []*genai.Content
	for _, msg := range history {
		parts := make([]genai.Part, 0, len(msg.Parts))
		for _, p := range msg.Parts {
			parts = append(parts, genai.Text(p))
		}
		contents = append(contents, &genai.Content{
			Role:  msg.Role,
			Parts: parts,
		})
	}
	return contents
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &ProviderError{Reason: "empty response"}
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	if sb.Len() == 0 {
		return "", &ProviderError{Reason: "response contained no text parts"}
	}
	return sb.String(), nil
}
