package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zen-systems/relay/pkg/taskerr"
	"google.golang.org/genai"
)

// GoogleAdapter implements the Client interface for Gemini models.
type GoogleAdapter struct {
	client *genai.Client
}

// NewGoogleAdapter creates a new Google Gemini adapter.
func NewGoogleAdapter(apiKey string) (*GoogleAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google API key is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}

	return &GoogleAdapter{client: client}, nil
}

// Name returns the adapter identifier.
func (a *GoogleAdapter) Name() string {
	return "google"
}

// Models returns the list of supported Gemini models.
func (a *GoogleAdapter) Models() []string {
	return []string{
		"gemini-2.0-pro",
	}
}

// GenerateCompletion sends the conversation to Gemini.
func (a *GoogleAdapter) GenerateCompletion(ctx context.Context, req Request) (*Completion, error) {
	if len(req.Functions) > 0 {
		return nil, taskerr.New(taskerr.CodeValidation, "the google adapter does not support function calling")
	}

	resp, err := a.client.Models.GenerateContent(ctx, req.Model, genai.Text(flattenMessages(req.Messages)), nil)
	if err != nil {
		return nil, a.wrapError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, a.wrapError(fmt.Errorf("google returned no candidates"))
	}

	completion := &Completion{Usage: googleUsage(resp.UsageMetadata)}
	if resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				completion.Content += part.Text
			}
		}
	}

	return completion, nil
}

// StreamCompletion streams Gemini's response chunk by chunk.
func (a *GoogleAdapter) StreamCompletion(ctx context.Context, req Request, fn ChunkFunc) (*Completion, error) {
	if len(req.Functions) > 0 {
		return nil, taskerr.New(taskerr.CodeValidation, "the google adapter does not support function calling")
	}

	completion := &Completion{}
	for resp, err := range a.client.Models.GenerateContentStream(ctx, req.Model, genai.Text(flattenMessages(req.Messages)), nil) {
		if err != nil {
			return nil, a.wrapError(err)
		}
		if resp == nil {
			continue
		}
		if resp.UsageMetadata != nil {
			completion.Usage = googleUsage(resp.UsageMetadata)
		}
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					completion.Content += part.Text
					if fn != nil {
						fn(part.Text)
					}
				}
			}
		}
	}

	return completion, nil
}

// flattenMessages folds a conversation into a single prompt; Gemini's
// simple text API takes one input.
func flattenMessages(messages []Message) string {
	if len(messages) == 1 {
		return messages[0].Content
	}
	var sb strings.Builder
	for _, msg := range messages {
		sb.WriteString(string(msg.Role))
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

func googleUsage(meta *genai.GenerateContentResponseUsageMetadata) Usage {
	if meta == nil {
		return Usage{}
	}
	return Usage{
		PromptTokens:     int(meta.PromptTokenCount),
		CompletionTokens: int(meta.CandidatesTokenCount),
		TotalTokens:      int(meta.TotalTokenCount),
	}.Normalize()
}

func (a *GoogleAdapter) wrapError(err error) error {
	// genai.APIError carries no response headers, so rate limits fall back
	// to the default retry-after hint.
	var apierr genai.APIError
	if errors.As(err, &apierr) {
		return classifyStatus(apierr.Code, nil, fmt.Errorf("google API error: %w", err))
	}
	return classifyTransport(fmt.Errorf("google API error: %w", err))
}
