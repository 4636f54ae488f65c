package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/pdftools/internal/gcp"
	"github.com/Lllllllleong/pdftools/internal/models"
	"github.com/Lllllllleong/pdftools/internal/services"
)

// maxJSONBody bounds a JSON chat request, which carries the extracted text.
const maxJSONBody = 4 << 20

var (
	chatInstance *services.ChatFunction
	once         sync.Once
	initErr      error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleChatWithPDF", services.WithCORS(handleChatWithPDF))
}

// main serves the function locally; in GCP the framework calls the handler directly.
func main() {
	port := gcp.GetEnv("PORT", "8080")
	if err := funcframework.Start(port); err != nil {
		slog.Error("Failed to start function server", "error", err)
		os.Exit(1)
	}
}

// handleChatWithPDF accepts either JSON {pdfContent, userQuestion, session} or a
// multipart form with a "pdf" file, a "question" and an optional "session" JSON field.
func handleChatWithPDF(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		chatInstance, initErr = services.NewChat(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		services.WriteError(w, initErr)
		return
	}

	var (
		res *models.ChatResponse
		err error
	)
	if services.IsMultipart(r) {
		res, err = chatFromUpload(w, r)
	} else {
		res, err = chatFromJSON(w, r)
	}
	if err != nil {
		services.WriteError(w, err)
		return
	}
	services.WriteJSON(w, http.StatusOK, res)
}

func chatFromJSON(w http.ResponseWriter, r *http.Request) (*models.ChatResponse, error) {
	var req models.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		return nil, &services.RequestError{Status: http.StatusBadRequest, Message: "Could not parse JSON request", Err: err}
	}
	return chatInstance.Process(r.Context(), &req)
}

func chatFromUpload(w http.ResponseWriter, r *http.Request) (*models.ChatResponse, error) {
	upload, err := services.ParseUpload(w, r, services.FieldPDF, chatInstance.MaxUploadBytes())
	if err != nil {
		return nil, err
	}
	var session *models.ChatSession
	if raw := r.FormValue("session"); raw != "" {
		session = &models.ChatSession{}
		if err := json.Unmarshal([]byte(raw), session); err != nil {
			return nil, &services.RequestError{Status: http.StatusBadRequest, Message: "Could not parse session", Err: err}
		}
	}
	return chatInstance.ProcessUpload(r.Context(), upload, r.FormValue("question"), session)
}
