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

const maxJSONBody = 1 << 20

var (
	mergerInstance *services.MergerFunction
	once           sync.Once
	initErr        error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleMergePDF", services.WithCORS(handleMergePDF))
}

// main serves the function locally; in GCP the framework calls the handler directly.
func main() {
	port := gcp.GetEnv("PORT", "8080")
	if err := funcframework.Start(port); err != nil {
		slog.Error("Failed to start function server", "error", err)
		os.Exit(1)
	}
}

// handleMergePDF merges uploaded "files" or, for JSON requests, objects already
// in Cloud Storage. The response is the merged PDF.
func handleMergePDF(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		mergerInstance, initErr = services.NewMerger(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		services.WriteError(w, initErr)
		return
	}

	var (
		result *services.MergeResult
		err    error
	)
	if services.IsMultipart(r) {
		var uploads []services.Upload
		uploads, err = services.ParseUploads(w, r, services.FieldFiles, mergerInstance.MaxUploadBytes())
		if err == nil {
			result, err = mergerInstance.ProcessUploads(r.Context(), uploads)
		}
	} else {
		var req models.MergeRequest
		if decodeErr := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); decodeErr != nil {
			err = &services.RequestError{Status: http.StatusBadRequest, Message: "Could not parse JSON request", Err: decodeErr}
		} else {
			result, err = mergerInstance.ProcessGCS(r.Context(), &req)
		}
	}
	if err != nil {
		services.WriteError(w, err)
		return
	}
	services.WriteMergeResult(w, result)
}
