// Provider interface. Adapters (OpenAI today, others later) implement this
// interface so the chat relay is never coupled to a specific vendor.
package llm

import "context"

// Stream is a lazy, finite, non-restartable sequence of text fragments
// produced by the upstream model. Recv returns the next fragment, or io.EOF
// when the upstream signals completion, or a classifiable upstream error.
// Close releases the underlying connection; it is safe to call after Recv
// returned an error and must be called on early abandonment.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// Provider is the model-agnostic interface for completion operations.
type Provider interface {
	// Complete performs a whole-response chat completion.
	Complete(ctx context.Context, req Request) (*Response, error)

	// StreamComplete opens a streaming completion. One outbound connection
	// is held for the lifetime of the returned Stream.
	StreamComplete(ctx context.Context, req Request) (Stream, error)
}
