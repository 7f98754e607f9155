// Package contact validates contact-form submissions and relays them to the
// site owner over Telegram. When no bot is configured the relay degrades to a
// polite "not configured" response instead of failing the request.
package contact

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Field length bounds for a submission.
const (
	MinNameLength    = 2
	MaxNameLength    = 100
	MinMessageLength = 10
	MaxMessageLength = 1000
)

// emailPattern is a shape check, not RFC 5322 validation. Good enough to
// catch typos; the address is only ever displayed, never mailed to.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Submission is a validated contact-form entry.
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// ValidationError reports why a submission was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Validate checks field presence, length bounds, and email shape. Fields are
// trimmed in place before checking.
func (s *Submission) Validate() error {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Message = strings.TrimSpace(s.Message)

	if s.Name == "" || s.Email == "" || s.Message == "" {
		return &ValidationError{Field: "all", Reason: "All fields are required"}
	}
	if n := utf8.RuneCountInString(s.Name); n < MinNameLength || n > MaxNameLength {
		return &ValidationError{
			Field:  "name",
			Reason: fmt.Sprintf("Name must be between %d and %d characters", MinNameLength, MaxNameLength),
		}
	}
	if !emailPattern.MatchString(s.Email) {
		return &ValidationError{Field: "email", Reason: "Please provide a valid email address"}
	}
	if n := utf8.RuneCountInString(s.Message); n < MinMessageLength || n > MaxMessageLength {
		return &ValidationError{
			Field:  "message",
			Reason: fmt.Sprintf("Message must be between %d and %d characters", MinMessageLength, MaxMessageLength),
		}
	}
	return nil
}

// Notifier delivers a formatted message to the site owner.
// *telegram.Client partially satisfies it via a small adapter at wiring time.
type Notifier interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// Result is the outcome reported back to the visitor.
type Result struct {
	Sent    bool
	Message string
}

// Visitor-facing outcome messages.
const (
	msgSent         = "Message sent successfully! I'll get back to you soon."
	msgUnconfigured = "Contact form is not fully configured. Please reach out via email or Telegram directly."
)

// Relay formats and forwards contact submissions.
type Relay struct {
	notifier Notifier
	chatID   string
	logger   *slog.Logger
	now      func() time.Time
}

// NewRelay creates a contact relay. A nil notifier or empty chatID puts the
// relay in unconfigured mode.
func NewRelay(notifier Notifier, chatID string, logger *slog.Logger) *Relay {
	return &Relay{
		notifier: notifier,
		chatID:   chatID,
		logger:   logger.With("component", "contact"),
		now:      time.Now,
	}
}

// Configured reports whether a delivery channel is wired up.
func (r *Relay) Configured() bool {
	return r.notifier != nil && r.chatID != ""
}

// Relay delivers a validated submission. In unconfigured mode it returns a
// non-error Result so the frontend can show the visitor an honest notice.
func (r *Relay) Relay(ctx context.Context, sub Submission) (Result, error) {
	if !r.Configured() {
		r.logger.Warn("contact submission received but no notifier configured", "name", sub.Name)
		return Result{Sent: false, Message: msgUnconfigured}, nil
	}

	if err := r.notifier.SendMessage(ctx, r.chatID, r.format(sub)); err != nil {
		return Result{}, fmt.Errorf("contact: relay submission: %w", err)
	}

	r.logger.Info("contact submission relayed", "name", sub.Name, "email", sub.Email)
	return Result{Sent: true, Message: msgSent}, nil
}

// format renders the Telegram Markdown card for a submission.
func (r *Relay) format(sub Submission) string {
	var b strings.Builder
	b.WriteString("🔔 *New Contact Form Message*\n\n")
	fmt.Fprintf(&b, "👤 *Name:* %s\n", sub.Name)
	fmt.Fprintf(&b, "📧 *Email:* %s\n", sub.Email)
	fmt.Fprintf(&b, "💬 *Message:*\n%s\n\n", sub.Message)
	fmt.Fprintf(&b, "⏰ *Time:* %s", r.now().UTC().Format("2006-01-02 15:04:05 MST"))
	return b.String()
}
