// Package chat implements the streaming chat relay: it validates an inbound
// message, forwards it with the fixed persona context to a completion
// provider, and produces an ordered stream of events for the transport layer.
// When no provider is configured the relay degrades to a simulated
// character-by-character stream with the same wire-visible shape.
package chat

// EventType tags a StreamEvent variant.
type EventType int

const (
	// EventContent carries one text fragment of the answer.
	EventContent EventType = iota
	// EventError carries a user-safe failure message, delivered in-band.
	EventError
	// EventDone is the terminal sentinel. Nothing follows it.
	EventDone
)

// String returns the wire-level name of the event type.
func (t EventType) String() string {
	switch t {
	case EventContent:
		return "content"
	case EventError:
		return "error"
	default:
		return "done"
	}
}

// StreamEvent is one unit of the relay's output sequence.
//
// Ordering invariant per request: zero or more Content events, optionally
// followed by at most one Error event, always followed by exactly one Done
// event; no events after Done.
type StreamEvent struct {
	Type EventType
	// Text is the content fragment (Content) or user-safe message (Error).
	// Unused for Done.
	Text string
	// Kind names the classified upstream failure on Error events produced
	// by the relay. Instrumentation only; it never crosses the wire.
	Kind string
}

// Content builds a content event.
func Content(text string) StreamEvent {
	return StreamEvent{Type: EventContent, Text: text}
}

// Error builds an in-band error event.
func Error(message string) StreamEvent {
	return StreamEvent{Type: EventError, Text: message}
}

// ClassifiedError builds an in-band error event tagged with the failure
// kind so callers can record it.
func ClassifiedError(message, kind string) StreamEvent {
	return StreamEvent{Type: EventError, Text: message, Kind: kind}
}

// Done builds the terminal sentinel event.
func Done() StreamEvent {
	return StreamEvent{Type: EventDone}
}
