package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIAdapter implements the Client interface for OpenAI models.
type OpenAIAdapter struct {
	client openai.Client
}

// NewOpenAIAdapter creates a new OpenAI adapter.
func NewOpenAIAdapter(apiKey string) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIAdapter{client: client}, nil
}

// Name returns the adapter identifier.
func (a *OpenAIAdapter) Name() string {
	return "openai"
}

// Models returns the list of supported OpenAI models.
func (a *OpenAIAdapter) Models() []string {
	return []string{
		"gpt-5.2-instant",
		"gpt-5.2-thinking",
		"gpt-5.2-pro",
	}
}

// GenerateCompletion sends the conversation to OpenAI.
func (a *OpenAIAdapter) GenerateCompletion(ctx context.Context, req Request) (*Completion, error) {
	params := a.buildParams(req)

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, a.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, a.wrapError(fmt.Errorf("openai returned no choices"))
	}

	choice := resp.Choices[0]
	completion := &Completion{
		Content: choice.Message.Content,
		Usage: Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		}.Normalize(),
	}
	if len(choice.Message.ToolCalls) > 0 {
		call := choice.Message.ToolCalls[0]
		completion.FunctionCall = &FunctionCall{
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		}
	}

	return completion, nil
}

// StreamCompletion streams OpenAI's response chunk by chunk.
func (a *OpenAIAdapter) StreamCompletion(ctx context.Context, req Request, fn ChunkFunc) (*Completion, error) {
	params := a.buildParams(req)

	stream := a.client.Chat.Completions.NewStreaming(ctx, params)
	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" && fn != nil {
			fn(chunk.Choices[0].Delta.Content)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, a.wrapError(err)
	}

	completion := &Completion{
		Usage: Usage{
			PromptTokens:     int(acc.Usage.PromptTokens),
			CompletionTokens: int(acc.Usage.CompletionTokens),
			TotalTokens:      int(acc.Usage.TotalTokens),
		}.Normalize(),
	}
	if len(acc.Choices) > 0 {
		completion.Content = acc.Choices[0].Message.Content
	}

	return completion, nil
}

func (a *OpenAIAdapter) buildParams(req Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	} else {
		params.MaxCompletionTokens = openai.Int(4096)
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(msg.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(msg.Content))
		}
	}
	for _, f := range req.Functions {
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        f.Name,
				Description: openai.String(f.Description),
				Parameters:  openai.FunctionParameters(f.Parameters),
			},
		})
	}
	return params
}

func (a *OpenAIAdapter) wrapError(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return classifyStatus(apierr.StatusCode, responseHeader(apierr.Response), fmt.Errorf("openai API error: %w", err))
	}
	return classifyTransport(fmt.Errorf("openai API error: %w", err))
}
