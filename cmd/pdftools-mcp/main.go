package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"
)

// Server identity constants.
const (
	serverName    = "pdftools"
	serverVersion = "0.1.0"
)

func main() {
	// stdout carries the protocol, so logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	tools, err := newToolset(context.Background())
	if err != nil {
		slog.Error("Failed to initialize tools", "error", err)
		os.Exit(1)
	}

	s := server.NewMCPServer(serverName, serverVersion)
	registerTools(s, tools)

	if err := server.ServeStdio(s); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}
