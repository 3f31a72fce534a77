package executor

import (
	"context"

	"github.com/zen-systems/relay/pkg/classify"
	"github.com/zen-systems/relay/pkg/taskerr"
)

// AppControlExecutor handles application launch and close requests. There is
// no portable way to drive desktop applications from here, so every request
// reports an integration error with the app the user asked about.
type AppControlExecutor struct{}

// NewAppControlExecutor creates an app control executor.
func NewAppControlExecutor() *AppControlExecutor {
	return &AppControlExecutor{}
}

// TaskType returns the handled task type.
func (e *AppControlExecutor) TaskType() classify.TaskType {
	return classify.TaskAppControl
}

// Execute reports that app control is not available on this platform.
func (e *AppControlExecutor) Execute(_ context.Context, params map[string]string) (string, error) {
	err := taskerr.New(taskerr.CodeAppIntegration, "app control is not available on this platform")
	if app := params["app"]; app != "" {
		err = err.WithDetail("app", app)
	}
	return "", err
}
