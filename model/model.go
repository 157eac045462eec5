package model

import (
	"context"
	"fmt"
)

// Message is one chat message in provider-neutral form.
type Message struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// Request captures the normalized model input for one generation call.
// Stream requests incremental chunks from providers that support them;
// either way the response channel ends with a final non-partial Response.
type Request struct {
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream,omitempty"`
}

// Response is a (partial or final) chunk emitted by a model backend. For
// partial responses Content is the delta text; the final response carries
// the finish reason and, for streaming backends, an empty Content (the
// caller has already seen every delta).
type Response struct {
	Content      string `json:"content"`
	Partial      bool   `json:"partial"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock"
}

// Model is the minimal interface the agent needs to drive generation.
// Implementations must close both channels when generation ends and must
// respect context cancellation promptly so an abandoned stream releases its
// backend connection.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests.
type MockModel struct {
	info      Info
	responses map[string]string
	failWith  error
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input
// prompt (matched against the last message's content).
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// FailWith makes every subsequent Generate call fail with err.
func (m *MockModel) FailWith(err error) { m.failWith = err }

// Generate implements Model; emits optional word-level chunks then the
// final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)
		if m.failWith != nil {
			errCh <- m.failWith
			return
		}
		if len(req.Messages) == 0 {
			errCh <- fmt.Errorf("no messages provided")
			return
		}
		input := req.Messages[len(req.Messages)-1].Content
		full := m.responses[input]
		if full == "" {
			full = fmt.Sprintf("Mock response to: %s", input)
		}
		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Content: string(r)}:
				}
			}
			respCh <- Response{FinishReason: "stop"}
			return
		}
		respCh <- Response{Content: full, FinishReason: "stop"}
	}()
	return respCh, errCh
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
