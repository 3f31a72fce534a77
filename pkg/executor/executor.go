// Package executor holds the local task executors: zero-cost handlers the
// router dispatches to when a request doesn't need the cloud.
package executor

import (
	"context"

	"github.com/zen-systems/relay/pkg/classify"
)

// InputParam is the parameter key under which the router passes the
// original (normalized) input text to an executor.
const InputParam = "input"

// Executor handles one local task type.
type Executor interface {
	// TaskType returns the task type this executor handles.
	TaskType() classify.TaskType

	// Execute runs the task with the extracted parameters and returns the
	// user-facing output.
	Execute(ctx context.Context, params map[string]string) (string, error)
}

// Registry maps task types to their executors.
type Registry map[classify.TaskType]Executor

// NewRegistry builds a registry from executors.
func NewRegistry(executors ...Executor) Registry {
	r := make(Registry, len(executors))
	for _, e := range executors {
		r[e.TaskType()] = e
	}
	return r
}

// Lookup returns the executor for a task type.
func (r Registry) Lookup(taskType classify.TaskType) (Executor, bool) {
	e, ok := r[taskType]
	return e, ok
}

// Defaults returns the standard local executors.
func Defaults() Registry {
	return NewRegistry(
		NewHelpExecutor(),
		NewSystemQueryExecutor(),
		NewTextProcessingExecutor(),
		NewFileOperationExecutor(""),
		NewAppControlExecutor(),
	)
}
