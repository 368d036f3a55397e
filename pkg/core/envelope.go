package core

import (
	"encoding/json"
	"time"
)

// Options configures a single Execute call.
type Options struct {
	// RequestID is an opaque correlation token copied onto every envelope.
	RequestID string

	// RestrictUpdate gates statements, see guard.IsPermitted.
	RestrictUpdate bool

	// TrimResult strips whitespace from string-like columns.
	TrimResult bool

	// PreviewLimit caps rows per statement; zero or negative means no limit.
	PreviewLimit int
}

// Message is a timestamped human-readable note attached to an envelope.
type Message struct {
	Date    time.Time `json:"date" yaml:"date"`
	Message string    `json:"message" yaml:"message"`
}

// Envelope is the result record produced for exactly one statement.
type Envelope struct {
	ResultID     string    `json:"resultId" yaml:"resultId"`
	RequestID    string    `json:"requestId" yaml:"requestId"`
	ConnectionID string    `json:"connId" yaml:"connId"`
	Query        string    `json:"query" yaml:"query"`
	Columns      []string  `json:"cols" yaml:"cols"`
	Rows         []Row     `json:"results" yaml:"results"`
	IsError      bool      `json:"error" yaml:"error"`
	Err          error     `json:"-" yaml:"-"`
	Messages     []Message `json:"messages" yaml:"messages"`
}

// Message returns the text of the first message, or "".
func (e Envelope) Message() string {
	if len(e.Messages) == 0 {
		return ""
	}
	return e.Messages[0].Message
}

// ErrorText returns the error detail, or "" for successful envelopes.
func (e Envelope) ErrorText() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// MarshalJSON adds the error detail as rawError.
func (e Envelope) MarshalJSON() ([]byte, error) {
	type plain Envelope
	return json.Marshal(struct {
		plain
		RawError string `json:"rawError,omitempty"`
	}{plain: plain(e), RawError: e.ErrorText()})
}
