// Package store persists workflows and applies node edits to stored
// definitions.
package store

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkflowNotFound indicates no workflow exists with the given id.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrNoDefaultWorkflow indicates no workflow is flagged default.
	ErrNoDefaultWorkflow = errors.New("no default workflow")

	// ErrNodeNotFound indicates the definition has no node with the given id.
	ErrNodeNotFound = errors.New("node not found")

	// ErrInvalidDefinition indicates a definition was rejected on write.
	ErrInvalidDefinition = errors.New("invalid workflow definition")
)

// WorkflowError wraps workflow errors with the operation and target.
type WorkflowError struct {
	Op         string
	WorkflowID uint
	Err        error
}

func (e *WorkflowError) Error() string {
	if e.WorkflowID == 0 {
		return fmt.Sprintf("%s workflow: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s workflow %d: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

func (e *WorkflowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func newWorkflowError(op string, id uint, err error) error {
	return &WorkflowError{Op: op, WorkflowID: id, Err: err}
}
