package chat

import (
	"encoding/json"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxMessageLength is the upper bound on a chat message after trimming.
const MaxMessageLength = 1000

// ValidationError describes a rejected chat request. The reason is safe to
// return to the client verbatim.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// chatRequest is the expected POST /api/chat body.
type chatRequest struct {
	Message *string `json:"message"`
}

var (
	angleBrackets = regexp.MustCompile(`[<>]`)
	jsProtocol    = regexp.MustCompile(`(?i)javascript:`)
	eventHandlers = regexp.MustCompile(`(?i)on\w+=`)
)

// ParseMessage decodes and validates a chat request body, returning the
// sanitized message. All failures are *ValidationError; the raw body is never
// used downstream.
func ParseMessage(body io.Reader) (string, error) {
	var req chatRequest
	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		return "", &ValidationError{Reason: "Request body must be valid JSON with a string message field"}
	}
	if req.Message == nil {
		return "", &ValidationError{Reason: "Message is required"}
	}

	trimmed := strings.TrimSpace(*req.Message)
	if trimmed == "" {
		return "", &ValidationError{Reason: "Message cannot be empty"}
	}
	if utf8.RuneCountInString(trimmed) > MaxMessageLength {
		return "", &ValidationError{Reason: "Message cannot exceed 1000 characters"}
	}

	return Sanitize(trimmed), nil
}

// Sanitize strips markup-injection vectors from a message: angle brackets,
// the javascript: protocol, and inline event-handler fragments. The transform
// is lossy and idempotent; the sanitized text is what is sent upstream and
// logged.
func Sanitize(s string) string {
	s = angleBrackets.ReplaceAllString(s, "")
	s = jsProtocol.ReplaceAllString(s, "")
	s = eventHandlers.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
