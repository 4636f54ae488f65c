package ai

import (
	"context"
	"net/http"
	"strings"
)

const anthropicVersion = "2023-06-01"

const anthropicSystemPrompt = "You answer questions about a PDF document using only the document content the user provides."

// Anthropic answers through the messages API.
type Anthropic struct {
	client          *http.Client
	apiKey          string
	model           string
	baseURL         string
	maxTokens       int
	temperature     float64
	maxContextChars int
}

// NewAnthropic builds an Anthropic provider. A nil client uses a client with a timeout.
func NewAnthropic(cfg Config, client *http.Client) (*Anthropic, error) {
	if cfg.AnthropicAPIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if client == nil {
		client = defaultHTTPClient()
	}
	return &Anthropic{
		client:          client,
		apiKey:          cfg.AnthropicAPIKey,
		model:           cfg.AnthropicModel,
		baseURL:         strings.TrimRight(cfg.AnthropicBaseURL, "/"),
		maxTokens:       cfg.MaxOutputTokens,
		temperature:     cfg.Temperature,
		maxContextChars: cfg.MaxContextChars,
	}, nil
}

func (p *Anthropic) Name() string { return ProviderAnthropic }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (p *Anthropic) Answer(ctx context.Context, req Request) (string, error) {
	var messages []anthropicMessage
	for _, m := range alternating(req.History) {
		messages = append(messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, anthropicMessage{Role: RoleUser, Content: BuildPrompt(req, p.maxContextChars)})

	body := anthropicRequest{
		Model:       p.model,
		MaxTokens:   p.maxTokens,
		System:      anthropicSystemPrompt,
		Messages:    messages,
		Temperature: p.temperature,
	}
	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": anthropicVersion,
	}

	var resp anthropicResponse
	if err := postJSON(ctx, p.client, "Anthropic", p.baseURL+"/v1/messages", headers, body, &resp); err != nil {
		return "", err
	}
	var answer strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			answer.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(answer.String()) == "" {
		return "", ErrEmptyAnswer
	}
	return strings.TrimSpace(answer.String()), nil
}
