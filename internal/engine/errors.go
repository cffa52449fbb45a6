package engine

import (
	"errors"
	"fmt"
)

var (
	ErrWorkflowNotFound = errors.New("workflow not found")
	ErrTaskNotFound     = errors.New("task not found")
	ErrProjectNotFound  = errors.New("project not found")
	ErrSubtaskNotFound  = errors.New("subtask not found")
)

// Error kinds reported by ErrorKind, used by callers to pick a response.
const (
	KindValidation         = "validation"
	KindConflict           = "conflict"
	KindTransitionRejected = "transition_rejected"
	KindOrphanWorkflow     = "orphan_workflow"
	KindNotFound           = "not_found"
)

// ErrorClassifier is implemented by every engine error.
type ErrorClassifier interface {
	ErrorKind() string
}

// ValidationError reports an empty or malformed required field. The write is
// rejected and prior state is left intact.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) ErrorKind() string { return KindValidation }

// ConflictError reports an operation refused because of current state,
// such as deleting the active workflow.
type ConflictError struct {
	Op      string
	ID      string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) ErrorKind() string { return KindConflict }

// OrphanWorkflowReference reports a task bound to a workflow that no longer exists.
type OrphanWorkflowReference struct {
	TaskID     string
	WorkflowID string
}

func (e *OrphanWorkflowReference) Error() string {
	return fmt.Sprintf("task %s is bound to unknown workflow %q", e.TaskID, e.WorkflowID)
}

func (e *OrphanWorkflowReference) ErrorKind() string { return KindOrphanWorkflow }

// TransitionRejected reports an illegal stage move. The task is unchanged.
type TransitionRejected struct {
	TaskID     string
	WorkflowID string
	From       string
	To         string
	FromName   string
	ToName     string
	Err        error // optional cause, e.g. *OrphanWorkflowReference
}

func (e *TransitionRejected) Error() string {
	msg := fmt.Sprintf("cannot move from %q to %q", e.FromName, e.ToName)
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *TransitionRejected) Unwrap() error { return e.Err }

func (e *TransitionRejected) ErrorKind() string { return KindTransitionRejected }

// KindOf classifies err; unknown errors return "".
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrWorkflowNotFound) || errors.Is(err, ErrTaskNotFound) || errors.Is(err, ErrProjectNotFound) ||
		errors.Is(err, ErrSubtaskNotFound) {
		return KindNotFound
	}
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	return ""
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

func IsTransitionRejected(err error) bool {
	var t *TransitionRejected
	return errors.As(err, &t)
}
