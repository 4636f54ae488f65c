package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
)

// ChatSystemPrompt frames every document question.
const ChatSystemPrompt = "You are an AI assistant helping users understand their PDF documents. Use only the provided PDF content to answer questions accurately. If the answer cannot be found in the document, say so clearly. Keep your response concise and relevant."

// VertexModelConfig tunes the chat model.
type VertexModelConfig struct {
	Model           string
	Temperature     float32
	MaxOutputTokens int32
}

// VertexClient holds the pre-configured chat model.
type VertexClient struct {
	ChatModel  *genai.GenerativeModel
	baseClient *genai.Client
}

// NewVertexClient creates a new client holding the chat model.
func NewVertexClient(ctx context.Context, projectID, region string, cfg VertexModelConfig) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	chatModel := baseClient.GenerativeModel(cfg.Model)
	chatModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(ChatSystemPrompt)},
	}
	chatModel.SetTemperature(cfg.Temperature)
	chatModel.SetMaxOutputTokens(cfg.MaxOutputTokens)

	return &VertexClient{
		ChatModel:  chatModel,
		baseClient: baseClient,
	}, nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
