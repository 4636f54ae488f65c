package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/pdftools/internal/gcp"
	"github.com/Lllllllleong/pdftools/internal/services"
)

var (
	extractorInstance *services.ExtractorFunction
	once              sync.Once
	initErr           error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "HandleExtractText" is the entry point name configured in GCP.
	functions.HTTP("HandleExtractText", services.WithCORS(handleExtractText))
}

// main serves the function locally; in GCP the framework calls the handler directly.
func main() {
	port := gcp.GetEnv("PORT", "8080")
	if err := funcframework.Start(port); err != nil {
		slog.Error("Failed to start function server", "error", err)
		os.Exit(1)
	}
}

func handleExtractText(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		extractorInstance, initErr = services.NewExtractor(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		services.WriteError(w, initErr)
		return
	}

	upload, err := services.ParseUpload(w, r, services.FieldPDF, extractorInstance.MaxUploadBytes())
	if err != nil {
		services.WriteError(w, err)
		return
	}

	res, err := extractorInstance.Process(r.Context(), upload)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	services.WriteJSON(w, http.StatusOK, res)
}
