// Package pdfdoc wraps the pdfcpu operations used on whole documents: merging,
// page counting and reading the document information dictionary.
package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrNotEnoughInputs is returned by Merge when fewer than two documents are given.
var ErrNotEnoughInputs = errors.New("at least 2 PDF files are required to merge")

var pdfHeader = []byte("%PDF-")

func init() {
	// Functions run on a read-only filesystem; pdfcpu must not create its config dir.
	api.DisableConfigDir()
}

// Info is the subset of document information the functions report.
type Info struct {
	PageCount int
	Title     string
	Author    string
	Subject   string
	Creator   string
	Producer  string
}

// relaxedConfig mirrors how uploads are treated everywhere: tolerate the small
// structural errors common in real-world files.
func relaxedConfig() *model.Configuration {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return cfg
}

// IsPDF reports whether data carries a PDF header within its first kilobyte.
func IsPDF(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, pdfHeader)
}

// Inspect reads and validates data and returns its page count and metadata.
func Inspect(data []byte) (Info, error) {
	ctx, err := api.ReadAndValidate(bytes.NewReader(data), relaxedConfig())
	if err != nil {
		return Info{}, fmt.Errorf("failed to read PDF: %w", err)
	}
	return Info{
		PageCount: ctx.PageCount,
		Title:     ctx.Title,
		Author:    ctx.Author,
		Subject:   ctx.Subject,
		Creator:   ctx.Creator,
		Producer:  ctx.Producer,
	}, nil
}

// PageCount returns the number of pages in data.
func PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), relaxedConfig())
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return n, nil
}

// Merge writes the concatenation of inputs, in order, to w.
func Merge(w io.Writer, inputs []io.ReadSeeker) error {
	if len(inputs) < 2 {
		return ErrNotEnoughInputs
	}
	if err := api.MergeRaw(inputs, w, false, relaxedConfig()); err != nil {
		return fmt.Errorf("failed to merge PDFs: %w", err)
	}
	return nil
}

// MergeBytes is Merge over in-memory documents.
func MergeBytes(docs [][]byte) ([]byte, error) {
	inputs := make([]io.ReadSeeker, 0, len(docs))
	for _, d := range docs {
		inputs = append(inputs, bytes.NewReader(d))
	}
	var out bytes.Buffer
	if err := Merge(&out, inputs); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
