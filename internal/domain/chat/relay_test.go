package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mohamednajdawi/portfolio-backend/internal/infra/llm"
)

// stubStream replays a fixed chunk sequence, then an optional error or EOF.
type stubStream struct {
	chunks []string
	err    error
	pos    int
	closed bool
}

func (s *stubStream) Recv() (string, error) {
	if s.pos < len(s.chunks) {
		c := s.chunks[s.pos]
		s.pos++
		return c, nil
	}
	if s.err != nil {
		return "", s.err
	}
	return "", io.EOF
}

func (s *stubStream) Close() error {
	s.closed = true
	return nil
}

// stubProvider hands out a single pre-built stream.
type stubProvider struct {
	stream  *stubStream
	openErr error
	lastReq llm.Request
}

func (p *stubProvider) Complete(_ context.Context, _ llm.Request) (*llm.Response, error) {
	return nil, errors.New("not used by the relay")
}

func (p *stubProvider) StreamComplete(_ context.Context, req llm.Request) (llm.Stream, error) {
	p.lastReq = req
	if p.openErr != nil {
		return nil, p.openErr
	}
	return p.stream, nil
}

func liveRelay(p llm.Provider) *Relay {
	return NewRelay(RelayConfig{
		Provider:    p,
		Persona:     "persona text",
		Model:       "test-model",
		MaxTokens:   100,
		Temperature: 0.7,
	})
}

func collect(t *testing.T, events <-chan StreamEvent) []StreamEvent {
	t.Helper()
	var got []StreamEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return got
			}
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("timed out collecting events; got %d so far", len(got))
		}
	}
}

// assertWellTerminated checks the ordering invariant: zero or more Content,
// at most one Error, exactly one terminal Done.
func assertWellTerminated(t *testing.T, events []StreamEvent) {
	t.Helper()
	if len(events) == 0 {
		t.Fatal("no events emitted")
	}
	last := events[len(events)-1]
	if last.Type != EventDone {
		t.Fatalf("last event = %v, want Done", last.Type)
	}
	errCount, doneCount := 0, 0
	for _, ev := range events {
		switch ev.Type {
		case EventError:
			errCount++
		case EventDone:
			doneCount++
		}
	}
	if doneCount != 1 {
		t.Errorf("Done events = %d, want exactly 1", doneCount)
	}
	if errCount > 1 {
		t.Errorf("Error events = %d, want at most 1", errCount)
	}
}

func concatContent(events []StreamEvent) string {
	var b strings.Builder
	for _, ev := range events {
		if ev.Type == EventContent {
			b.WriteString(ev.Text)
		}
	}
	return b.String()
}

func TestRelay_ModeSelection(t *testing.T) {
	if m := NewRelay(RelayConfig{}).Mode(); m != ModeDegraded {
		t.Errorf("Mode() = %v without provider, want degraded", m)
	}
	if m := liveRelay(&stubProvider{stream: &stubStream{}}).Mode(); m != ModeLive {
		t.Errorf("Mode() = %v with provider, want live", m)
	}
}

func TestRelay_DegradedStreamsFallbackPerCharacter(t *testing.T) {
	r := NewRelay(RelayConfig{FallbackPace: time.Microsecond})

	events := collect(t, r.Stream(context.Background(), "hello"))
	assertWellTerminated(t, events)

	contentCount := 0
	for _, ev := range events {
		if ev.Type == EventContent {
			contentCount++
			if utf8.RuneCountInString(ev.Text) != 1 {
				t.Errorf("degraded content event %q is not a single character", ev.Text)
			}
		}
	}
	if want := utf8.RuneCountInString(FallbackMessage); contentCount != want {
		t.Errorf("content events = %d, want one per fallback character (%d)", contentCount, want)
	}
	if got := concatContent(events); got != FallbackMessage {
		t.Errorf("concatenated content = %q, want fallback message", got)
	}
}

func TestRelay_LiveStreamsChunksInOrder(t *testing.T) {
	p := &stubProvider{stream: &stubStream{chunks: []string{"Hi", " there"}}}
	r := liveRelay(p)

	events := collect(t, r.Stream(context.Background(), "hello"))
	assertWellTerminated(t, events)

	if len(events) != 3 {
		t.Fatalf("events = %v, want Content, Content, Done", events)
	}
	if events[0].Text != "Hi" || events[1].Text != " there" {
		t.Errorf("content order = [%q, %q], want [Hi,  there]", events[0].Text, events[1].Text)
	}
	if !p.stream.closed {
		t.Error("upstream stream not closed after normal completion")
	}
}

func TestRelay_LiveSendsPersonaThenUserMessage(t *testing.T) {
	p := &stubProvider{stream: &stubStream{chunks: []string{"ok"}}}
	r := liveRelay(p)

	collect(t, r.Stream(context.Background(), "sanitized question"))

	msgs := p.lastReq.Messages
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	if msgs[0].Role != llm.RoleSystem || msgs[0].Content != "persona text" {
		t.Errorf("first message = %+v, want system persona", msgs[0])
	}
	if msgs[1].Role != llm.RoleUser || msgs[1].Content != "sanitized question" {
		t.Errorf("second message = %+v, want user message", msgs[1])
	}
	if p.lastReq.MaxTokens != 100 || p.lastReq.Temperature != 0.7 {
		t.Errorf("params = %+v, want configured maxTokens/temperature", p.lastReq)
	}
}

func TestRelay_EmptyDeltasSuppressed(t *testing.T) {
	p := &stubProvider{stream: &stubStream{chunks: []string{"", "a", "", "b", ""}}}
	r := liveRelay(p)

	events := collect(t, r.Stream(context.Background(), "hello"))
	assertWellTerminated(t, events)

	for _, ev := range events {
		if ev.Type == EventContent && ev.Text == "" {
			t.Error("empty content event forwarded")
		}
	}
	if got := concatContent(events); got != "ab" {
		t.Errorf("content = %q, want %q", got, "ab")
	}
}

func TestRelay_MidStreamQuotaError(t *testing.T) {
	quotaErr := &openai.APIError{Code: "insufficient_quota", Message: "billing hard limit"}
	p := &stubProvider{stream: &stubStream{chunks: []string{"Hi"}, err: quotaErr}}
	r := liveRelay(p)

	events := collect(t, r.Stream(context.Background(), "hello"))
	assertWellTerminated(t, events)

	if len(events) != 3 {
		t.Fatalf("events = %v, want Content, Error, Done", events)
	}
	if events[0].Type != EventContent || events[0].Text != "Hi" {
		t.Errorf("first event = %+v, want the delivered chunk", events[0])
	}
	if events[1].Type != EventError {
		t.Fatalf("second event = %+v, want Error", events[1])
	}
	if events[1].Text != llm.UserMessage(llm.KindQuota) {
		t.Errorf("error text = %q, want quota-specific user-safe message", events[1].Text)
	}
	if events[1].Kind != llm.KindQuota.String() {
		t.Errorf("error kind = %q, want %q", events[1].Kind, llm.KindQuota.String())
	}
	if strings.Contains(events[1].Text, "billing hard limit") {
		t.Error("raw upstream detail leaked to the client")
	}
	if !p.stream.closed {
		t.Error("upstream stream not closed after failure")
	}
}

func TestRelay_OpenStreamFailure(t *testing.T) {
	p := &stubProvider{openErr: &openai.APIError{Code: "invalid_api_key"}}
	r := liveRelay(p)

	events := collect(t, r.Stream(context.Background(), "hello"))
	assertWellTerminated(t, events)

	if len(events) != 2 {
		t.Fatalf("events = %v, want Error, Done", events)
	}
	if events[0].Type != EventError || events[0].Text != llm.UserMessage(llm.KindAuth) {
		t.Errorf("first event = %+v, want auth misconfiguration message", events[0])
	}
	if events[0].Kind != llm.KindAuth.String() {
		t.Errorf("error kind = %q, want %q", events[0].Kind, llm.KindAuth.String())
	}
}

func TestRelay_DegradedCancellationStopsPromptly(t *testing.T) {
	r := NewRelay(RelayConfig{FallbackPace: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())

	events := r.Stream(ctx, "hello")

	// First character arrives before the first pacing delay.
	select {
	case ev := <-events:
		if ev.Type != EventContent {
			t.Fatalf("first event = %v, want Content", ev.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first event")
	}

	cancel()

	select {
	case _, ok := <-events:
		if ok {
			// One in-flight event may race the cancel; the channel must
			// still close right after.
			if _, stillOpen := <-events; stillOpen {
				t.Fatal("stream kept producing after cancellation")
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream not torn down after cancellation")
	}
}

func TestRelay_ConcurrentStreamsAreIndependent(t *testing.T) {
	r := NewRelay(RelayConfig{FallbackPace: time.Microsecond})

	const n = 8
	results := make(chan string, n)
	for i := 0; i < n; i++ {
		go func() {
			var events []StreamEvent
			for ev := range r.Stream(context.Background(), "hello") {
				events = append(events, ev)
			}
			results <- concatContent(events)
		}()
	}

	for i := 0; i < n; i++ {
		select {
		case got := <-results:
			if got != FallbackMessage {
				t.Errorf("concurrent stream %d produced %q", i, got)
			}
		case <-time.After(10 * time.Second):
			t.Fatal("timed out waiting for concurrent streams")
		}
	}
}
