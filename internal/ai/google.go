package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Lllllllleong/pdftools/internal/gcp"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Google answers through a Gemini model on Vertex AI.
type Google struct {
	vertex          *gcp.VertexClient
	maxContextChars int
}

// NewGoogle creates the Vertex AI client and configures the chat model.
func NewGoogle(ctx context.Context, cfg Config) (*Google, error) {
	vertex, err := gcp.NewVertexClient(ctx, cfg.GoogleProjectID, cfg.GoogleRegion, gcp.VertexModelConfig{
		Model:           cfg.GoogleModel,
		Temperature:     float32(cfg.Temperature),
		MaxOutputTokens: int32(cfg.MaxOutputTokens),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}
	return &Google{vertex: vertex, maxContextChars: cfg.MaxContextChars}, nil
}

func (p *Google) Name() string { return ProviderGoogle }

// Close releases the underlying Vertex AI client.
func (p *Google) Close() error { return p.vertex.Close() }

func (p *Google) Answer(ctx context.Context, req Request) (string, error) {
	session := p.vertex.ChatModel.StartChat()
	for _, m := range alternating(req.History) {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		session.History = append(session.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}

	resp, err := session.SendMessage(ctx, genai.Text(BuildPrompt(req, p.maxContextChars)))
	if err != nil {
		return "", googleError(err)
	}
	answer := responseText(resp)
	if answer == "" {
		return "", ErrEmptyAnswer
	}
	return answer, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}

// googleError maps gRPC failures onto HTTP-style statuses in a ProviderError.
func googleError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		// Blocked prompts surface as *genai.BlockedError rather than a status.
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return &ProviderError{Provider: "Google AI", StatusCode: http.StatusBadRequest, Message: err.Error()}
		}
		return fmt.Errorf("vertex ai request failed: %w", err)
	}
	code := http.StatusServiceUnavailable
	switch st.Code() {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		code = http.StatusBadRequest
	case codes.PermissionDenied:
		code = http.StatusForbidden
	case codes.Unauthenticated:
		code = http.StatusUnauthorized
	case codes.ResourceExhausted:
		code = http.StatusTooManyRequests
	case codes.NotFound:
		code = http.StatusNotFound
	}
	return &ProviderError{Provider: "Google AI", StatusCode: code, Message: st.Message()}
}
