package chat

import (
	"errors"
	"strings"
	"testing"
)

func TestParseMessage_Valid(t *testing.T) {
	msg, err := ParseMessage(strings.NewReader(`{"message":"  hello there  "}`))
	if err != nil {
		t.Fatalf("ParseMessage error = %v", err)
	}
	if msg != "hello there" {
		t.Errorf("message = %q, want trimmed %q", msg, "hello there")
	}
}

func TestParseMessage_Rejections(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing field", `{}`},
		{"null message", `{"message":null}`},
		{"not a string", `{"message":42}`},
		{"empty", `{"message":""}`},
		{"whitespace only", `{"message":"   "}`},
		{"not json", `message=hi`},
		{"too long", `{"message":"` + strings.Repeat("a", MaxMessageLength+1) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMessage(strings.NewReader(tt.body))
			if err == nil {
				t.Fatal("expected validation error")
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error = %T, want *ValidationError", err)
			}
			if vErr.Reason == "" {
				t.Error("validation error has empty reason")
			}
		})
	}
}

func TestParseMessage_ExactlyMaxLengthAccepted(t *testing.T) {
	body := `{"message":"` + strings.Repeat("a", MaxMessageLength) + `"}`
	if _, err := ParseMessage(strings.NewReader(body)); err != nil {
		t.Errorf("message of exactly %d chars rejected: %v", MaxMessageLength, err)
	}
}

func TestSanitize_StripsAngleBrackets(t *testing.T) {
	got := Sanitize("hi <script>alert(1)</script> there")
	if strings.ContainsAny(got, "<>") {
		t.Errorf("Sanitize left angle brackets: %q", got)
	}
	if got != "hi scriptalert(1)/script there" {
		t.Errorf("Sanitize = %q", got)
	}
}

func TestSanitize_StripsInjectionVectors(t *testing.T) {
	tests := []struct {
		in   string
		deny string
	}{
		{"click javascript:alert(1)", "javascript:"},
		{"click JAVASCRIPT:alert(1)", "JAVASCRIPT:"},
		{"x onerror=alert(1)", "onerror="},
		{"x ONLOAD=alert(1)", "ONLOAD="},
	}

	for _, tt := range tests {
		got := Sanitize(tt.in)
		if strings.Contains(strings.ToLower(got), strings.ToLower(tt.deny)) {
			t.Errorf("Sanitize(%q) = %q, still contains %q", tt.in, got, tt.deny)
		}
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"plain question about skills",
		"<b>bold</b> javascript: onclick= text",
		"nested <<script>>",
	}

	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestParseMessage_SanitizesBeforeReturn(t *testing.T) {
	msg, err := ParseMessage(strings.NewReader(`{"message":"tell me about <him>"}`))
	if err != nil {
		t.Fatalf("ParseMessage error = %v", err)
	}
	if msg != "tell me about him" {
		t.Errorf("message = %q, want sanitized %q", msg, "tell me about him")
	}
}
