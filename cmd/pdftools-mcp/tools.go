package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Lllllllleong/pdftools/internal/pdfdoc"
	"github.com/Lllllllleong/pdftools/internal/services"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCP tool parameter keys.
const (
	argPath     = "path"
	argPaths    = "paths"
	argOutput   = "output"
	argFormat   = "format"
	argQuestion = "question"
)

// toolset holds the services behind the MCP tools. The chat service needs a
// model provider and is only created when ask_pdf is first used.
type toolset struct {
	extractor *services.ExtractorFunction
	converter *services.ConverterFunction
	merger    *services.MergerFunction

	chatMu  sync.Mutex
	chat    *services.ChatFunction
	newChat func(ctx context.Context) (*services.ChatFunction, error)
}

func newToolset(ctx context.Context) (*toolset, error) {
	extractor, err := services.NewExtractor(ctx)
	if err != nil {
		return nil, err
	}
	converter, err := services.NewConverter(ctx)
	if err != nil {
		return nil, err
	}
	merger, err := services.NewMerger(ctx)
	if err != nil {
		return nil, err
	}
	return &toolset{
		extractor: extractor,
		converter: converter,
		merger:    merger,
		newChat:   services.NewChat,
	}, nil
}

// chatService returns the chat service, creating it on first use. Creation is
// retried after a failure and does not depend on the calling request.
func (t *toolset) chatService() (*services.ChatFunction, error) {
	t.chatMu.Lock()
	defer t.chatMu.Unlock()
	if t.chat != nil {
		return t.chat, nil
	}
	chat, err := t.newChat(context.Background())
	if err != nil {
		return nil, err
	}
	t.chat = chat
	return chat, nil
}

// registerTools binds MCP tool definitions to their handlers.
func registerTools(s *server.MCPServer, t *toolset) {
	s.AddTool(
		mcp.NewTool("extract_pdf_text",
			mcp.WithDescription("Extract the readable text and metadata of a PDF. "+
				"Scanned documents and PDFs with compressed content streams are reported as unreadable."),
			mcp.WithString(argPath, mcp.Required(), mcp.Description("Absolute path of the PDF file")),
		),
		t.extractText,
	)
	s.AddTool(
		mcp.NewTool("convert_pdf_to_word",
			mcp.WithDescription("Convert the text of a PDF into a Word (docx) or RTF document."),
			mcp.WithString(argPath, mcp.Required(), mcp.Description("Absolute path of the PDF file")),
			mcp.WithString(argOutput, mcp.Description("Output path. Defaults to the PDF path with the new extension.")),
			mcp.WithString(argFormat, mcp.Description("docx (default) or rtf")),
		),
		t.convertToWord,
	)
	s.AddTool(
		mcp.NewTool("merge_pdfs",
			mcp.WithDescription("Merge two or more PDFs, in the given order, into one file."),
			mcp.WithArray(argPaths, mcp.Required(), mcp.Description("Absolute paths of the PDFs to merge")),
			mcp.WithString(argOutput, mcp.Required(), mcp.Description("Path of the merged PDF")),
		),
		t.mergePDFs,
	)
	s.AddTool(
		mcp.NewTool("ask_pdf",
			mcp.WithDescription("Answer a question about the content of a PDF using the configured AI provider."),
			mcp.WithString(argPath, mcp.Required(), mcp.Description("Absolute path of the PDF file")),
			mcp.WithString(argQuestion, mcp.Required(), mcp.Description("Question about the document")),
		),
		t.askPDF,
	)
}

func (t *toolset) extractText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	up, errResult := readPDFArg(req)
	if errResult != nil {
		return errResult, nil
	}
	res, err := t.extractor.Process(ctx, up)
	if err != nil {
		return toolError(err), nil
	}
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (t *toolset) convertToWord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	up, errResult := readPDFArg(req)
	if errResult != nil {
		return errResult, nil
	}
	format, _ := req.Params.Arguments[argFormat].(string)
	doc, filename, err := t.converter.Convert(ctx, up, format)
	if err != nil {
		return toolError(err), nil
	}
	output, _ := req.Params.Arguments[argOutput].(string)
	if output == "" {
		output = filepath.Join(filepath.Dir(req.Params.Arguments[argPath].(string)), filename)
	}
	if err := os.WriteFile(output, doc.Data, 0o644); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to write %s: %v", output, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Wrote %s (%d bytes, %s)", output, len(doc.Data), doc.ContentType)), nil
}

func (t *toolset) mergePDFs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawPaths, _ := req.Params.Arguments[argPaths].([]interface{})
	output, _ := req.Params.Arguments[argOutput].(string)
	if output == "" {
		return mcp.NewToolResultError(argOutput + " is required"), nil
	}
	uploads := make([]services.Upload, 0, len(rawPaths))
	for _, raw := range rawPaths {
		path, ok := raw.(string)
		if !ok || path == "" {
			return mcp.NewToolResultError(argPaths + " must be a list of file paths"), nil
		}
		up, err := readPDF(path)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		uploads = append(uploads, *up)
	}
	result, err := t.merger.ProcessUploads(ctx, uploads)
	if err != nil {
		return toolError(err), nil
	}
	if err := os.WriteFile(output, result.Data, 0o644); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to write %s: %v", output, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Merged %d files into %s (%d pages)", len(uploads), output, result.PageCount)), nil
}

func (t *toolset) askPDF(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, _ := req.Params.Arguments[argQuestion].(string)
	if strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError(argQuestion + " is required"), nil
	}
	up, errResult := readPDFArg(req)
	if errResult != nil {
		return errResult, nil
	}
	chat, err := t.chatService()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("AI provider is not available: %v", err)), nil
	}
	res, err := chat.ProcessUpload(ctx, up, question, nil)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(res.Response), nil
}

func readPDFArg(req mcp.CallToolRequest) (*services.Upload, *mcp.CallToolResult) {
	path, ok := req.Params.Arguments[argPath].(string)
	if !ok || path == "" {
		return nil, mcp.NewToolResultError(argPath + " is required")
	}
	up, err := readPDF(path)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return up, nil
}

func readPDF(path string) (*services.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !pdfdoc.IsPDF(data) {
		return nil, fmt.Errorf("%s is not a PDF file", path)
	}
	return &services.Upload{Filename: filepath.Base(path), ContentType: "application/pdf", Data: data}, nil
}

// toolError reports the user-facing message of a service failure.
func toolError(err error) *mcp.CallToolResult {
	var reqErr *services.RequestError
	if errors.As(err, &reqErr) {
		return mcp.NewToolResultError(reqErr.Message)
	}
	return mcp.NewToolResultError(err.Error())
}
