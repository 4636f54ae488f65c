// Package ai forwards a question about a document to a generative model.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Lllllllleong/pdftools/internal/gcp"
)

// Provider names.
const (
	ProviderGoogle    = "google"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Message roles used in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	ErrUnknownProvider = errors.New("unsupported AI provider")
	ErrMissingAPIKey   = errors.New("AI provider API key is not configured")
	ErrEmptyAnswer     = errors.New("AI provider returned no answer")
)

// Message is one earlier turn of the conversation.
type Message struct {
	Role    string
	Content string
}

// Request is a question about a document's text.
type Request struct {
	Question string
	Context  string
	History  []Message
}

// Provider answers questions about documents.
type Provider interface {
	Name() string
	Answer(ctx context.Context, req Request) (string, error)
}

// ProviderError is a non-success response from an upstream model API.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s API error: %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s API error: %d - %s", e.Provider, e.StatusCode, e.Message)
}

// Config selects and tunes a provider.
type Config struct {
	Provider        string
	MaxOutputTokens int
	Temperature     float64
	MaxContextChars int

	GoogleProjectID string
	GoogleRegion    string
	GoogleModel     string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string
}

// LoadConfig reads provider settings from the environment.
func LoadConfig() Config {
	return Config{
		Provider:        strings.ToLower(gcp.GetEnv("AI_PROVIDER", ProviderGoogle)),
		MaxOutputTokens: gcp.GetEnvInt("AI_MAX_OUTPUT_TOKENS", 1000),
		Temperature:     gcp.GetEnvFloat("AI_TEMPERATURE", 0.7),
		MaxContextChars: gcp.GetEnvInt("AI_MAX_CONTEXT_CHARS", DefaultMaxContextChars),

		GoogleProjectID: gcp.GetEnv("PROJECT_ID", ""),
		GoogleRegion:    gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		GoogleModel:     gcp.GetEnv("GEMINI_MODEL", "gemini-1.5-flash"),

		OpenAIAPIKey:  gcp.GetEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   gcp.GetEnv("OPENAI_MODEL", "gpt-4"),
		OpenAIBaseURL: gcp.GetEnv("OPENAI_BASE_URL", "https://api.openai.com"),

		AnthropicAPIKey:  gcp.GetEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:   gcp.GetEnv("ANTHROPIC_MODEL", "claude-3-sonnet-20240229"),
		AnthropicBaseURL: gcp.GetEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
	}
}

// NewProvider builds the provider named in cfg.
func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Provider {
	case ProviderGoogle:
		return NewGoogle(ctx, cfg)
	case ProviderOpenAI:
		return NewOpenAI(cfg, nil)
	case ProviderAnthropic:
		return NewAnthropic(cfg, nil)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// alternating folds history into strictly alternating user/assistant turns that
// start with the user, as the chat APIs require. Consecutive messages from the
// same side are joined; anything before the first user message is dropped.
func alternating(history []Message) []Message {
	var out []Message
	for _, m := range history {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		role := RoleUser
		if m.Role != RoleUser {
			role = RoleAssistant
		}
		if len(out) == 0 && role != RoleUser {
			continue
		}
		if len(out) > 0 && out[len(out)-1].Role == role {
			out[len(out)-1].Content += "\n\n" + content
			continue
		}
		out = append(out, Message{Role: role, Content: content})
	}
	// The new question is a user turn, so history has to end with the assistant.
	if len(out) > 0 && out[len(out)-1].Role == RoleUser {
		out = out[:len(out)-1]
	}
	return out
}
