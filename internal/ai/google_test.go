package ai

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestGoogleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid argument", status.Error(codes.InvalidArgument, "prompt too long"), http.StatusBadRequest},
		{"failed precondition", status.Error(codes.FailedPrecondition, "model not enabled"), http.StatusBadRequest},
		{"permission denied", status.Error(codes.PermissionDenied, "no access"), http.StatusForbidden},
		{"unauthenticated", status.Error(codes.Unauthenticated, "bad credentials"), http.StatusUnauthorized},
		{"quota", status.Error(codes.ResourceExhausted, "quota exceeded"), http.StatusTooManyRequests},
		{"not found", status.Error(codes.NotFound, "model not found"), http.StatusNotFound},
		{"unavailable", status.Error(codes.Unavailable, "try again"), http.StatusServiceUnavailable},
		{"internal", status.Error(codes.Internal, "backend error"), http.StatusServiceUnavailable},
		{"blocked", fmt.Errorf("generate: %w", &genai.BlockedError{}), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var perr *ProviderError
			if !errors.As(googleError(tt.err), &perr) {
				t.Fatalf("googleError(%v) is not a ProviderError", tt.err)
			}
			if perr.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", perr.StatusCode, tt.wantStatus)
			}
			if perr.Provider != "Google AI" {
				t.Errorf("provider = %q", perr.Provider)
			}
		})
	}
}

func TestGoogleErrorKeepsMessage(t *testing.T) {
	err := googleError(status.Error(codes.ResourceExhausted, "quota exceeded"))
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("not a ProviderError: %v", err)
	}
	if perr.Message != "quota exceeded" {
		t.Errorf("message = %q", perr.Message)
	}
}

func TestGoogleErrorPassesThroughOtherErrors(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := googleError(cause)
	var perr *ProviderError
	if errors.As(err, &perr) {
		t.Fatalf("unexpected ProviderError: %v", perr)
	}
	if !errors.Is(err, cause) {
		t.Errorf("cause not wrapped: %v", err)
	}
}
