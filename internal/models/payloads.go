package models

import "time"

// These structs define the JSON payloads exchanged with the browser front-end.

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Metadata describes an extracted document.
type Metadata struct {
	Title          string  `json:"title"`
	Author         string  `json:"author"`
	Subject        string  `json:"subject"`
	Creator        string  `json:"creator"`
	Producer       string  `json:"producer"`
	PageCount      int     `json:"page_count"`
	CharacterCount int     `json:"character_count"`
	ReadableRatio  float64 `json:"readable_ratio"`
}

// ExtractResponse is the output of the pdf-extractor function.
type ExtractResponse struct {
	Success  bool     `json:"success"`
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// ConvertResponse is the output of the pdf-to-word function.
type ConvertResponse struct {
	Success      bool   `json:"success"`
	WordDocument string `json:"wordDocument"`
	Filename     string `json:"filename"`
	ContentType  string `json:"contentType"`
}

// ChatMessage is one turn of a chat, kept by the client between requests.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession is the caller-owned chat state. The server never stores it; each
// request carries the current copy and the response returns the updated one.
type ChatSession struct {
	QuestionsUsed int           `json:"questionsUsed"`
	Documents     int           `json:"documents"`
	History       []ChatMessage `json:"history,omitempty"`
	// Usage is display text such as "Questions used: 1/3".
	Usage string `json:"usage,omitempty"`
}

// ChatRequest is the JSON input of the chat-with-pdf function.
type ChatRequest struct {
	PDFContent   string       `json:"pdfContent"`
	UserQuestion string       `json:"userQuestion"`
	Session      *ChatSession `json:"session,omitempty"`
}

// ChatResponse is the output of the chat-with-pdf function.
type ChatResponse struct {
	Response string       `json:"response"`
	Session  *ChatSession `json:"session,omitempty"`
}

// MergeRequest is the JSON input of the pdf-merger function when the sources
// already live in Cloud Storage.
type MergeRequest struct {
	Sources []string `json:"sources,omitempty"`
	Prefix  string   `json:"prefix,omitempty"`
}
