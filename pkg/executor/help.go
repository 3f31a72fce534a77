package executor

import (
	"context"

	"github.com/zen-systems/relay/pkg/classify"
)

const helpText = `I can handle these kinds of requests:

  files     copy, move, rename or list files ("copy notes.txt to backup")
  system    ask about this machine ("what's my battery level", "disk space")
  apps      open or close applications ("open Safari")
  text      quick text transforms ("uppercase: hello world")
  anything  else gets sent to the cloud assistant

Requests touching passwords or credentials are always handled locally.`

// HelpExecutor answers help requests with a static capability summary.
// Its output is deterministic, which is what makes help results cacheable.
type HelpExecutor struct{}

// NewHelpExecutor creates a help executor.
func NewHelpExecutor() *HelpExecutor {
	return &HelpExecutor{}
}

// TaskType returns the handled task type.
func (e *HelpExecutor) TaskType() classify.TaskType {
	return classify.TaskHelp
}

// Execute returns the help text.
func (e *HelpExecutor) Execute(_ context.Context, _ map[string]string) (string, error) {
	return helpText, nil
}
