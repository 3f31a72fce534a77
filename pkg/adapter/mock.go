package adapter

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockClient returns deterministic responses for local runs and tests.
type MockClient struct {
	mu              sync.Mutex
	responses       map[string]string
	defaultResponse string
	usage           Usage
	failWith        error
	failFor         int // fail this many calls, then succeed
	calls           int
}

// NewMockClient creates a mock client with a default response.
func NewMockClient() *MockClient {
	return &MockClient{
		responses:       make(map[string]string),
		defaultResponse: "mock response:",
		usage:           Usage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30},
	}
}

// WithResponse registers a canned response for an exact prompt.
func (m *MockClient) WithResponse(prompt, response string) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
	return m
}

// WithUsage sets the usage reported on every completion.
func (m *MockClient) WithUsage(u Usage) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage = u
	return m
}

// FailWith makes every call fail with err. FailFor limits the failures to
// the first n calls.
func (m *MockClient) FailWith(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
	m.failFor = -1
	return m
}

// FailFor makes the first n calls fail with err, then succeed.
func (m *MockClient) FailFor(n int, err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
	m.failFor = n
	return m
}

// Calls returns the number of completion calls made.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Name returns the adapter identifier.
func (m *MockClient) Name() string {
	return "mock"
}

// Models returns the list of supported mock models.
func (m *MockClient) Models() []string {
	return []string{"mock-1"}
}

// GenerateCompletion returns a deterministic completion for the prompt.
func (m *MockClient) GenerateCompletion(_ context.Context, req Request) (*Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.failWith != nil && (m.failFor < 0 || m.calls <= m.failFor) {
		return nil, m.failWith
	}

	prompt := ""
	if len(req.Messages) > 0 {
		prompt = req.Messages[len(req.Messages)-1].Content
	}

	content, ok := m.responses[prompt]
	if !ok {
		content = fmt.Sprintf("%s\n%s", m.defaultResponse, prompt)
	}
	return &Completion{Content: content, Usage: m.usage}, nil
}

// StreamCompletion streams the canned response word by word.
func (m *MockClient) StreamCompletion(ctx context.Context, req Request, fn ChunkFunc) (*Completion, error) {
	completion, err := m.GenerateCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if fn != nil {
		for _, word := range strings.SplitAfter(completion.Content, " ") {
			fn(word)
		}
	}
	return completion, nil
}
