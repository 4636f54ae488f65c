package services

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Lllllllleong/pdftools/internal/models"
)

const allowedHeaders = "authorization, x-client-info, apikey, content-type"

// WithCORS adds the CORS headers the browser front-end needs and answers
// preflight requests.
func WithCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Output-Uri")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodPost {
			WriteError(w, &RequestError{Status: http.StatusMethodNotAllowed, Message: "Method not allowed"})
			return
		}
		next(w, r)
	}
}

// WriteJSON writes v as the JSON response body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// WriteError writes err as {success:false, error}. A *RequestError supplies the
// status and message; anything else is a 500.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		status = reqErr.Status
		message = reqErr.Message
	}
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "status", status, "error", err)
	} else {
		slog.Warn("Request rejected", "status", status, "error", err)
	}
	WriteJSON(w, status, models.ErrorResponse{Success: false, Error: message})
}
