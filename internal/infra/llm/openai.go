// OpenAI adapter. Implements Provider against the Chat Completions API via
// the sashabaranov/go-openai client, in both whole-response and streaming
// modes. No retries and no explicit per-request deadline are applied here;
// callers bound the call through ctx.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider against the OpenAI Chat Completions API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// Option customizes the provider, mainly for tests pointing at a fake server.
type Option func(*openai.ClientConfig)

// WithBaseURL overrides the API base URL (e.g. an httptest server).
func WithBaseURL(baseURL string) Option {
	return func(cfg *openai.ClientConfig) {
		cfg.BaseURL = baseURL
	}
}

// NewOpenAIProvider creates a provider for the given credential and default
// model. The credential must be non-empty; mode selection (degraded vs live)
// happens at wiring time, not here.
func NewOpenAIProvider(apiKey, model string, opts ...Option) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, errors.New("llm: api key must not be empty")
	}
	if model == "" {
		return nil, errors.New("llm: model must not be empty")
	}
	cfg := openai.DefaultConfig(apiKey)
	for _, opt := range opts {
		opt(&cfg)
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// Complete performs a whole-response chat completion.
func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.buildRequest(req))
	if err != nil {
		return nil, classify(fmt.Errorf("openai chat completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		return nil, &UpstreamError{Kind: KindTransport, Err: errors.New("openai returned no choices")}
	}
	choice := resp.Choices[0]
	return &Response{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
	}, nil
}

// StreamComplete opens a streaming completion and returns the chunk sequence.
func (p *OpenAIProvider) StreamComplete(ctx context.Context, req Request) (Stream, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, p.buildRequest(req))
	if err != nil {
		return nil, classify(fmt.Errorf("openai open stream: %w", err))
	}
	return &openAIStream{inner: stream}, nil
}

// buildRequest converts the vendor-neutral Request to the OpenAI shape.
func (p *OpenAIProvider) buildRequest(req Request) openai.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = p.model
	}
	msgs := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
}

// openAIStream adapts the vendor stream to the Stream interface.
type openAIStream struct {
	inner *openai.ChatCompletionStream
}

// Recv returns the next chunk delta. io.EOF marks normal completion and is
// passed through unwrapped; every other failure is classified.
func (s *openAIStream) Recv() (string, error) {
	resp, err := s.inner.Recv()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		return "", classify(fmt.Errorf("openai stream recv: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Delta.Content, nil
}

// Close releases the upstream connection.
func (s *openAIStream) Close() error {
	return s.inner.Close()
}
