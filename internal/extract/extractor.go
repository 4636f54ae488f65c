// Package extract pulls readable text out of PDF bytes with a heuristic scan of
// content stream operators.
//
// It does not implement the PDF object model: cross-reference tables, stream
// filters, font encodings and ToUnicode maps are all ignored. Documents whose
// content streams are compressed will usually come back as unreadable.
package extract

import (
	"fmt"
	"strings"
)

// Default tuning values.
const (
	DefaultFallbackThreshold  = 50
	DefaultMinFallbackLiteral = 2
)

// Result is the text extracted from one document.
type Result struct {
	Text    string
	Verdict Verdict
	// OperatorChars is the length of the operator scan output before fallback.
	OperatorChars int
	FallbackUsed  bool
}

// Extractor runs the extraction pipeline. The zero value is not usable; build
// one with New. An Extractor holds no per-call state and may be shared.
type Extractor struct {
	fallbackThreshold  int
	minFallbackLiteral int
	policy             Policy
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithFallbackThreshold sets the operator-scan length under which raw stream
// scanning kicks in.
func WithFallbackThreshold(n int) Option {
	return func(e *Extractor) {
		e.fallbackThreshold = n
	}
}

// WithMinFallbackLiteral sets the length a stream literal must exceed to be kept.
func WithMinFallbackLiteral(n int) Option {
	return func(e *Extractor) {
		e.minFallbackLiteral = n
	}
}

// WithPolicy replaces the readability policy.
func WithPolicy(p Policy) Option {
	return func(e *Extractor) {
		e.policy = p
	}
}

// New returns an Extractor with the lenient policy and default thresholds.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		fallbackThreshold:  DefaultFallbackThreshold,
		minFallbackLiteral: DefaultMinFallbackLiteral,
		policy:             LenientPolicy(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the readability policy in use.
func (e *Extractor) Policy() Policy { return e.policy }

// Extract returns the normalized text of data. Failures are always returned as
// errors: ErrNoFileProvided, *DecodeError or *UnreadableError.
func (e *Extractor) Extract(data []byte) (res *Result, err error) {
	if len(data) == 0 {
		return nil, ErrNoFileProvided
	}
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &DecodeError{Err: fmt.Errorf("panic during scan: %v", r)}
		}
	}()

	doc, err := decodeLatin1(data)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	text, operatorChars, fallbackUsed := e.scan(doc)
	text = Normalize(text)

	verdict := Validate(text, e.policy)
	if !verdict.Readable {
		return nil, &UnreadableError{Verdict: verdict, Text: text}
	}
	return &Result{
		Text:          text,
		Verdict:       verdict,
		OperatorChars: operatorChars,
		FallbackUsed:  fallbackUsed,
	}, nil
}

// scan runs the operator scanner and, when it finds too little, the stream
// scanner on top of it. The accumulator is only ever appended to.
func (e *Extractor) scan(doc string) (string, int, bool) {
	var out strings.Builder
	scanOperators(doc, &out)

	operatorChars := len(strings.TrimSpace(out.String()))
	if operatorChars >= e.fallbackThreshold {
		return out.String(), operatorChars, false
	}
	scanStreams(doc, e.minFallbackLiteral, &out)
	return out.String(), operatorChars, true
}

// Extract runs a default Extractor over data.
func Extract(data []byte) (*Result, error) {
	return New().Extract(data)
}
