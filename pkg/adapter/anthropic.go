package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicAdapter implements the Client interface for Claude models.
type AnthropicAdapter struct {
	client anthropic.Client
}

// NewAnthropicAdapter creates a new Anthropic adapter.
func NewAnthropicAdapter(apiKey string) (*AnthropicAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicAdapter{client: client}, nil
}

// Name returns the adapter identifier.
func (a *AnthropicAdapter) Name() string {
	return "anthropic"
}

// Models returns the list of supported Claude models.
func (a *AnthropicAdapter) Models() []string {
	return []string{
		"claude-sonnet-4-20250514",
		"claude-opus-4-20250514",
	}
}

// GenerateCompletion sends the conversation to Claude.
func (a *AnthropicAdapter) GenerateCompletion(ctx context.Context, req Request) (*Completion, error) {
	params := a.buildParams(req)

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, a.wrapError(err)
	}

	completion := &Completion{
		Usage: Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
		}.Normalize(),
	}
	for _, block := range resp.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			completion.Content += variant.Text
		case anthropic.ToolUseBlock:
			args, _ := json.Marshal(variant.Input)
			completion.FunctionCall = &FunctionCall{
				Name:      variant.Name,
				Arguments: string(args),
			}
		}
	}

	return completion, nil
}

// StreamCompletion streams Claude's response chunk by chunk.
func (a *AnthropicAdapter) StreamCompletion(ctx context.Context, req Request, fn ChunkFunc) (*Completion, error) {
	params := a.buildParams(req)

	stream := a.client.Messages.NewStreaming(ctx, params)
	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		_ = message.Accumulate(event)

		if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
			if delta.Delta.Text != "" && fn != nil {
				fn(delta.Delta.Text)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, a.wrapError(err)
	}

	completion := &Completion{
		Usage: Usage{
			PromptTokens:     int(message.Usage.InputTokens),
			CompletionTokens: int(message.Usage.OutputTokens),
		}.Normalize(),
	}
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			completion.Content += text.Text
		}
	}

	return completion, nil
}

func (a *AnthropicAdapter) buildParams(req Request) anthropic.MessageNewParams {
	maxTokens := int64(req.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: msg.Content})
		case RoleAssistant:
			params.Messages = append(params.Messages,
				anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			params.Messages = append(params.Messages,
				anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	for _, f := range req.Functions {
		tool := anthropic.ToolParam{
			Name:        f.Name,
			InputSchema: anthropic.ToolInputSchemaParam{Properties: f.Parameters["properties"]},
		}
		if f.Description != "" {
			tool.Description = anthropic.String(f.Description)
		}
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{OfTool: &tool})
	}
	return params
}

func (a *AnthropicAdapter) wrapError(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return classifyStatus(apierr.StatusCode, responseHeader(apierr.Response), fmt.Errorf("anthropic API error: %w", err))
	}
	return classifyTransport(fmt.Errorf("anthropic API error: %w", err))
}
