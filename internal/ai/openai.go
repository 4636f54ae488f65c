package ai

import (
	"context"
	"net/http"
	"strings"
)

const openAISystemPrompt = "You are a helpful assistant that answers questions about PDF documents. Use the provided PDF content to answer questions accurately."

// OpenAI answers through the chat completions API.
type OpenAI struct {
	client          *http.Client
	apiKey          string
	model           string
	baseURL         string
	maxTokens       int
	temperature     float64
	maxContextChars int
}

// NewOpenAI builds an OpenAI provider. A nil client uses a client with a timeout.
func NewOpenAI(cfg Config, client *http.Client) (*OpenAI, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if client == nil {
		client = defaultHTTPClient()
	}
	return &OpenAI{
		client:          client,
		apiKey:          cfg.OpenAIAPIKey,
		model:           cfg.OpenAIModel,
		baseURL:         strings.TrimRight(cfg.OpenAIBaseURL, "/"),
		maxTokens:       cfg.MaxOutputTokens,
		temperature:     cfg.Temperature,
		maxContextChars: cfg.MaxContextChars,
	}, nil
}

func (p *OpenAI) Name() string { return ProviderOpenAI }

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

// Answer sends the system prompt, the conversation so far and the new question.
func (p *OpenAI) Answer(ctx context.Context, req Request) (string, error) {
	messages := []openAIMessage{{Role: "system", Content: openAISystemPrompt}}
	for _, m := range alternating(req.History) {
		messages = append(messages, openAIMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, openAIMessage{Role: RoleUser, Content: BuildPrompt(req, p.maxContextChars)})

	body := openAIRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	}
	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}

	var resp openAIResponse
	if err := postJSON(ctx, p.client, "OpenAI", p.baseURL+"/v1/chat/completions", headers, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyAnswer
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", ErrEmptyAnswer
	}
	return answer, nil
}
