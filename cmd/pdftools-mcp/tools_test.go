package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Lllllllleong/pdftools/internal/pdfdoc"
	"github.com/Lllllllleong/pdftools/internal/pdfdoc/pdftest"
	"github.com/Lllllllleong/pdftools/internal/services"
	"github.com/mark3labs/mcp-go/mcp"
)

const sentence = "The inspection report covers the roof and the drainage of the building in detail"

func newTestToolset(t *testing.T) *toolset {
	t.Helper()
	tools, err := newToolset(context.Background())
	if err != nil {
		t.Fatalf("newToolset: %v", err)
	}
	tools.newChat = func(context.Context) (*services.ChatFunction, error) {
		return nil, errors.New("no provider in tests")
	}
	return tools
}

func writePDF(t *testing.T, dir, name string, pages ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, pdftest.Build(nil, pages...), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return text.Text
}

func TestExtractTextTool(t *testing.T) {
	tools := newTestToolset(t)
	path := writePDF(t, t.TempDir(), "report.pdf", sentence)

	res, err := tools.extractText(context.Background(), callRequest(map[string]interface{}{argPath: path}))
	if err != nil {
		t.Fatalf("extractText: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if got := resultText(t, res); !strings.Contains(got, "drainage of the building") {
		t.Errorf("result does not contain the text: %s", got)
	}
}

func TestExtractTextToolErrors(t *testing.T) {
	tools := newTestToolset(t)
	dir := t.TempDir()
	notPDF := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notPDF, []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}
	scanned := writePDF(t, dir, "scan.pdf", strings.Repeat("#@!% ", 15))

	tests := []struct {
		name    string
		args    map[string]interface{}
		wantMsg string
	}{
		{"missing path", map[string]interface{}{}, "path is required"},
		{"missing file", map[string]interface{}{argPath: filepath.Join(dir, "nope.pdf")}, "failed to read"},
		{"not a pdf", map[string]interface{}{argPath: notPDF}, "not a PDF"},
		{"unreadable", map[string]interface{}{argPath: scanned}, "scanned or unreadable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tools.extractText(context.Background(), callRequest(tt.args))
			if err != nil {
				t.Fatalf("extractText: %v", err)
			}
			if !res.IsError {
				t.Fatal("expected a tool error")
			}
			if got := resultText(t, res); !strings.Contains(got, tt.wantMsg) {
				t.Errorf("message %q does not contain %q", got, tt.wantMsg)
			}
		})
	}
}

func TestConvertToWordTool(t *testing.T) {
	tools := newTestToolset(t)
	dir := t.TempDir()
	path := writePDF(t, dir, "Inspection.pdf", sentence)

	res, err := tools.convertToWord(context.Background(), callRequest(map[string]interface{}{argPath: path, argFormat: "rtf"}))
	if err != nil {
		t.Fatalf("convertToWord: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	data, err := os.ReadFile(filepath.Join(dir, "Inspection.rtf"))
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if !strings.HasPrefix(string(data), `{\rtf1`) {
		t.Errorf("output is not RTF: %.20q", data)
	}
}

func TestMergePDFsTool(t *testing.T) {
	tools := newTestToolset(t)
	dir := t.TempDir()
	a := writePDF(t, dir, "a.pdf", "one", "two")
	b := writePDF(t, dir, "b.pdf", "three")
	output := filepath.Join(dir, "merged.pdf")

	res, err := tools.mergePDFs(context.Background(), callRequest(map[string]interface{}{
		argPaths:  []interface{}{a, b},
		argOutput: output,
	}))
	if err != nil {
		t.Fatalf("mergePDFs: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if n, err := pdfdoc.PageCount(data); err != nil || n != 3 {
		t.Errorf("merged page count = %d, %v", n, err)
	}

	res, err = tools.mergePDFs(context.Background(), callRequest(map[string]interface{}{
		argPaths:  []interface{}{a},
		argOutput: output,
	}))
	if err != nil {
		t.Fatalf("mergePDFs: %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "at least 2") {
		t.Errorf("expected the two-file minimum to be reported")
	}
}

func TestAskPDFToolWithoutProvider(t *testing.T) {
	tools := newTestToolset(t)
	path := writePDF(t, t.TempDir(), "report.pdf", sentence)

	res, err := tools.askPDF(context.Background(), callRequest(map[string]interface{}{argPath: path}))
	if err != nil {
		t.Fatalf("askPDF: %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "question is required") {
		t.Errorf("expected a missing question error")
	}

	res, err = tools.askPDF(context.Background(), callRequest(map[string]interface{}{argPath: path, argQuestion: "What is covered?"}))
	if err != nil {
		t.Fatalf("askPDF: %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "AI provider is not available") {
		t.Errorf("expected the provider failure to be reported")
	}
}

func TestAskPDFToolRecoversProvider(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"The roof and the drainage."}}]}`)
	}))
	defer upstream.Close()
	t.Setenv("AI_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", upstream.URL)

	tools := newTestToolset(t)
	calls := 0
	tools.newChat = func(ctx context.Context) (*services.ChatFunction, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("provider not reachable")
		}
		if ctx.Err() != nil {
			t.Errorf("chat service built on a finished context: %v", ctx.Err())
		}
		return services.NewChat(ctx)
	}
	path := writePDF(t, t.TempDir(), "report.pdf", sentence+". "+sentence+".")
	args := map[string]interface{}{argPath: path, argQuestion: "What is covered?"}

	ctx, cancel := context.WithCancel(context.Background())
	res, err := tools.askPDF(ctx, callRequest(args))
	cancel()
	if err != nil {
		t.Fatalf("askPDF: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected the first provider failure to be reported")
	}

	for i := 0; i < 2; i++ {
		res, err = tools.askPDF(context.Background(), callRequest(args))
		if err != nil {
			t.Fatalf("askPDF: %v", err)
		}
		if res.IsError {
			t.Fatalf("tool error after recovery: %s", resultText(t, res))
		}
		if got := resultText(t, res); got != "The roof and the drainage." {
			t.Errorf("answer = %q", got)
		}
	}
	if calls != 2 {
		t.Errorf("chat service built %d times, want 2", calls)
	}
}
