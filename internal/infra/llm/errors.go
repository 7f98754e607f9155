package llm

import (
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// ErrorKind is the closed taxonomy of upstream failures. The relay branches
// exhaustively over these kinds instead of inspecting vendor string codes.
type ErrorKind int

const (
	// KindTransport covers network failures, timeouts and anything the
	// other kinds don't claim.
	KindTransport ErrorKind = iota
	// KindAuth means the configured credential was rejected upstream.
	KindAuth
	// KindQuota means the upstream account ran out of quota/billing.
	KindQuota
	// KindRateLimit means this caller exceeded the upstream's own rate limit.
	KindRateLimit
)

// String returns the kind name, for logs and metrics labels.
func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindQuota:
		return "quota"
	case KindRateLimit:
		return "rate_limit"
	default:
		return "transport"
	}
}

// UpstreamError wraps a raw upstream failure with its classified kind.
// The raw error is preserved for server-side logging; only UserMessage ever
// crosses the wire.
type UpstreamError struct {
	Kind ErrorKind
	Err  error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s error: %v", e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// vendor error codes as sent by the OpenAI API
const (
	codeInsufficientQuota = "insufficient_quota"
	codeInvalidAPIKey     = "invalid_api_key"
	codeRateLimitExceeded = "rate_limit_exceeded"
)

// Classify maps a raw provider error to the closed ErrorKind taxonomy.
// Vendor-specific string codes are decided here and nowhere else.
func Classify(err error) ErrorKind {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Kind
	}

	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return KindTransport
	}

	switch code := apiErr.Code.(type) {
	case string:
		switch code {
		case codeInsufficientQuota:
			return KindQuota
		case codeInvalidAPIKey:
			return KindAuth
		case codeRateLimitExceeded:
			return KindRateLimit
		}
	}

	switch apiErr.HTTPStatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusTooManyRequests:
		return KindRateLimit
	}
	return KindTransport
}

// classify wraps err with its kind unless it is already an UpstreamError.
func classify(err error) error {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return err
	}
	return &UpstreamError{Kind: Classify(err), Err: err}
}

// UserMessage returns the user-safe text for an error kind. Raw upstream
// detail never reaches the client.
func UserMessage(kind ErrorKind) string {
	switch kind {
	case KindQuota:
		return "OpenAI API quota exceeded. Please check your billing."
	case KindAuth:
		return "Invalid OpenAI API key. Please check your configuration."
	case KindRateLimit:
		return "Rate limit exceeded. Please wait a moment and try again."
	default:
		return "Sorry, I encountered an error. Please try again later."
	}
}
