package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Lllllllleong/pdftools/internal/ai"
	"github.com/Lllllllleong/pdftools/internal/extract"
	"github.com/Lllllllleong/pdftools/internal/gcp"
	"github.com/Lllllllleong/pdftools/internal/models"
)

// maxHistoryMessages is how many earlier messages are forwarded to the model.
const maxHistoryMessages = 10

// freeDocuments is the number of documents shown in the usage text.
const freeDocuments = 1

// ChatConfig holds configuration for the chat-with-pdf function.
type ChatConfig struct {
	ExtractionConfig
	MinContentChars int
	FreeQuestions   int
}

// ChatFunction answers questions about a document's text.
type ChatFunction struct {
	provider  ai.Provider
	extractor *extract.Extractor
	config    ChatConfig
	now       func() time.Time
}

// NewChat creates a new ChatFunction with the provider selected by AI_PROVIDER.
func NewChat(ctx context.Context) (*ChatFunction, error) {
	extraction, err := loadExtractionConfig()
	if err != nil {
		return nil, err
	}
	config := ChatConfig{
		ExtractionConfig: extraction,
		MinContentChars:  gcp.GetEnvInt("CHAT_MIN_CONTENT_CHARS", 100),
		FreeQuestions:    gcp.GetEnvInt("CHAT_FREE_QUESTIONS", 3),
	}
	provider, err := ai.NewProvider(ctx, ai.LoadConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create AI provider: %w", err)
	}
	return newChatFunction(config, provider)
}

func newChatFunction(config ChatConfig, provider ai.Provider) (*ChatFunction, error) {
	extractor, err := config.newExtractor()
	if err != nil {
		return nil, fmt.Errorf("failed to configure extractor: %w", err)
	}
	slog.Info("Chat with PDF initialized.", "provider", provider.Name())
	return &ChatFunction{
		provider:  provider,
		extractor: extractor,
		config:    config,
		now:       time.Now,
	}, nil
}

// MaxUploadBytes is the request body limit.
func (f *ChatFunction) MaxUploadBytes() int64 { return f.config.MaxUploadBytes }

// Process answers a question about text the client already extracted.
func (f *ChatFunction) Process(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	logCtx := slog.With("provider", f.provider.Name())

	question := strings.TrimSpace(req.UserQuestion)
	if question == "" {
		return nil, badRequest("Please enter a question about the PDF.", nil)
	}
	content := strings.TrimSpace(req.PDFContent)
	if n := utf8.RuneCountInString(content); n < f.config.MinContentChars {
		return nil, badRequest("The PDF content is too short or empty. Please upload a PDF with readable text content.",
			fmt.Errorf("content has %d characters, minimum is %d", n, f.config.MinContentChars))
	}
	verdict := extract.Validate(extract.Normalize(content), f.extractor.Policy())
	if !verdict.Readable {
		return nil, chatMessages.classify(&extract.UnreadableError{Verdict: verdict})
	}

	session := f.session(req.Session)
	answer, err := f.provider.Answer(ctx, ai.Request{
		Question: question,
		Context:  content,
		History:  recentHistory(session.History, maxHistoryMessages),
	})
	if err != nil {
		logCtx.Error("AI provider call failed", "error", err)
		return nil, providerFailure(err)
	}
	if ai.LooksLikeRefusal(answer) {
		logCtx.Warn("AI answer looks like a refusal.")
	}

	now := f.now().UTC()
	session.QuestionsUsed++
	session.History = append(session.History,
		models.ChatMessage{Role: ai.RoleUser, Content: question, Timestamp: now},
		models.ChatMessage{Role: ai.RoleAssistant, Content: answer, Timestamp: now},
	)
	session.Usage = f.usage(session)
	logCtx.Info("Question answered.", "questionsUsed", session.QuestionsUsed, "answerChars", len(answer))

	return &models.ChatResponse{Response: answer, Session: session}, nil
}

// ProcessUpload extracts the text of an uploaded PDF, then answers the question.
func (f *ChatFunction) ProcessUpload(ctx context.Context, up *Upload, question string, session *models.ChatSession) (*models.ChatResponse, error) {
	if strings.TrimSpace(question) == "" {
		return nil, badRequest("Please enter a question about the PDF.", nil)
	}
	logCtx := slog.With("file", up.Filename, "size", len(up.Data))
	doc, err := extractDocument(logCtx, f.extractor, up.Filename, up.Data)
	if err != nil {
		return nil, chatMessages.classify(err)
	}
	return f.Process(ctx, &models.ChatRequest{
		PDFContent:   doc.Text,
		UserQuestion: question,
		Session:      session,
	})
}

// session copies the caller's session so the request value is never modified.
func (f *ChatFunction) session(in *models.ChatSession) *models.ChatSession {
	out := &models.ChatSession{}
	if in != nil {
		out.QuestionsUsed = in.QuestionsUsed
		out.Documents = in.Documents
		out.History = append([]models.ChatMessage(nil), in.History...)
	}
	if out.Documents < freeDocuments {
		out.Documents = freeDocuments
	}
	return out
}

// usage is display text only; nothing is enforced against it.
func (f *ChatFunction) usage(s *models.ChatSession) string {
	return fmt.Sprintf("Questions used: %d/%d, Documents: %d/%d", s.QuestionsUsed, f.config.FreeQuestions, s.Documents, freeDocuments)
}

func recentHistory(history []models.ChatMessage, limit int) []ai.Message {
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]ai.Message, 0, len(history))
	for _, m := range history {
		out = append(out, ai.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

// providerFailure maps an upstream error to what the user is told.
func providerFailure(err error) *RequestError {
	var perr *ai.ProviderError
	if errors.As(err, &perr) {
		switch perr.StatusCode {
		case http.StatusBadRequest:
			return badRequest("The question or PDF content contains unsupported content. Please try rephrasing your question.", err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return internalError("AI service access denied. Please check your API configuration.", err)
		}
	}
	if errors.Is(err, ai.ErrEmptyAnswer) {
		return internalError("AI service did not generate a response. Please try rephrasing your question.", err)
	}
	return internalError("AI service is temporarily unavailable. Please try again in a moment.", err)
}
