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
	converterInstance *services.ConverterFunction
	once              sync.Once
	initErr           error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleConvertToWord", services.WithCORS(handleConvertToWord))
}

// main serves the function locally; in GCP the framework calls the handler directly.
func main() {
	port := gcp.GetEnv("PORT", "8080")
	if err := funcframework.Start(port); err != nil {
		slog.Error("Failed to start function server", "error", err)
		os.Exit(1)
	}
}

// handleConvertToWord accepts a "pdf" file and an optional "format" field
// (docx or rtf) and returns the document base64 encoded in JSON.
func handleConvertToWord(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		converterInstance, initErr = services.NewConverter(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		services.WriteError(w, initErr)
		return
	}

	upload, err := services.ParseUpload(w, r, services.FieldPDF, converterInstance.MaxUploadBytes())
	if err != nil {
		services.WriteError(w, err)
		return
	}

	res, err := converterInstance.Process(r.Context(), upload, r.FormValue("format"))
	if err != nil {
		services.WriteError(w, err)
		return
	}
	services.WriteJSON(w, http.StatusOK, res)
}
