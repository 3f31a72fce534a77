// Package adapter defines the cloud AI client boundary and its provider
// implementations.
package adapter

import "context"

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// FunctionDef describes a function the model may call.
type FunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// FunctionCall is a model-requested function invocation.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON
}

// Request is a completion request.
type Request struct {
	Model     string
	Messages  []Message
	MaxTokens int
	Functions []FunctionDef
}

// Completion is a normalized completion response.
type Completion struct {
	Content      string
	Usage        Usage
	FunctionCall *FunctionCall
}

// ChunkFunc receives streamed text fragments in order. The stream is finite
// and cannot be restarted.
type ChunkFunc func(text string)

// Client is the cloud AI service boundary consumed by the router.
type Client interface {
	// Name returns the provider identifier.
	Name() string

	// Models returns the list of supported models.
	Models() []string

	// GenerateCompletion sends the conversation and returns the completion.
	GenerateCompletion(ctx context.Context, req Request) (*Completion, error)

	// StreamCompletion streams text chunks through fn and returns the
	// final completion with usage totals.
	StreamCompletion(ctx context.Context, req Request, fn ChunkFunc) (*Completion, error)
}
