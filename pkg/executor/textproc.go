package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/zen-systems/relay/pkg/classify"
	"github.com/zen-systems/relay/pkg/taskerr"
)

// TextProcessingExecutor handles quick text transforms locally. Anything it
// can't do deterministically (summarize, rewrite, translate) belongs to the
// cloud path and yields a validation error so the router can report it.
type TextProcessingExecutor struct{}

// NewTextProcessingExecutor creates a text processing executor.
func NewTextProcessingExecutor() *TextProcessingExecutor {
	return &TextProcessingExecutor{}
}

// TaskType returns the handled task type.
func (e *TextProcessingExecutor) TaskType() classify.TaskType {
	return classify.TaskTextProcessing
}

// Execute applies the requested transform to the payload. The payload is
// the text after the first colon, or after the operation keyword.
func (e *TextProcessingExecutor) Execute(_ context.Context, params map[string]string) (string, error) {
	input := params[InputParam]
	lower := strings.ToLower(input)

	op := ""
	for _, candidate := range []string{"uppercase", "lowercase", "count words", "reverse"} {
		if strings.Contains(lower, candidate) {
			op = candidate
			break
		}
	}
	if op == "" {
		return "", taskerr.New(taskerr.CodeValidation, "this text operation needs the cloud assistant")
	}

	payload := extractPayload(input, op)
	if payload == "" {
		return "", taskerr.New(taskerr.CodeValidation, "no text to process; try \"uppercase: your text\"")
	}

	switch op {
	case "uppercase":
		return strings.ToUpper(payload), nil
	case "lowercase":
		return strings.ToLower(payload), nil
	case "count words":
		return fmt.Sprintf("%d words.", len(strings.Fields(payload))), nil
	case "reverse":
		runes := []rune(payload)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return string(runes), nil
	}
	return "", taskerr.New(taskerr.CodeValidation, "unsupported text operation")
}

// extractPayload finds the text to operate on: after a colon if present,
// otherwise everything after the operation keyword.
func extractPayload(input, op string) string {
	if idx := strings.Index(input, ":"); idx >= 0 {
		return strings.TrimSpace(input[idx+1:])
	}
	lower := strings.ToLower(input)
	if idx := strings.Index(lower, op); idx >= 0 {
		return strings.TrimSpace(input[idx+len(op):])
	}
	return strings.TrimSpace(input)
}
