// Package llm defines the model-agnostic completion provider abstraction.
// All types here are shared between the provider interface and adapters.
package llm

// Role constants for conversation messages.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message represents a single turn in a conversation (role + content).
type Message struct {
	Role    string // "system" | "user"
	Content string
}

// Request is the input for a chat completion, streaming or not.
type Request struct {
	// Model overrides the provider default when non-empty.
	Model       string
	Messages    []Message
	MaxTokens   int     // caps generated length; 0 means provider default
	Temperature float32 // sampling randomness in [0,2]; higher = more varied
}

// Response is the output from a non-streaming chat completion.
type Response struct {
	Content      string // the assistant message text
	FinishReason string // "stop" | "length" | ...
}
