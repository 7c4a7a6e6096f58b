package pipeline

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	// ErrSubmission means an external submit call was rejected. Fatal, no retry.
	ErrSubmission ErrorKind = iota
	// ErrValidation means the run's own data is unusable (empty voice samples,
	// missing config fields). Fatal.
	ErrValidation
	// ErrExternal means a backend query or transfer failed.
	ErrExternal
	// ErrTimeout means a poll loop exhausted its attempts or the run deadline hit.
	ErrTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case ErrSubmission:
		return "Submission"
	case ErrValidation:
		return "Validation"
	case ErrExternal:
		return "External"
	case ErrTimeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}

// StageError carries the failing stage and failure class so the orchestrator
// and the run record can report a precise disposition.
type StageError struct {
	Stage   string
	Kind    ErrorKind
	Message string
	Cause   error
}

func newStageError(stage string, kind ErrorKind, message string) *StageError {
	return &StageError{
		Stage:   stage,
		Kind:    kind,
		Message: message,
	}
}

func wrapStageError(cause error, stage string, kind ErrorKind, message string) *StageError {
	return &StageError{
		Stage:   stage,
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

func (e *StageError) Error() string {
	msg := fmt.Sprintf("[%s] %s: %s", e.Kind, e.Stage, e.Message)
	if e.Cause != nil {
		msg += fmt.Sprintf(" | cause: %v", e.Cause)
	}
	return msg
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

// IsErrorKind reports whether err is a StageError of the given kind.
func IsErrorKind(err error, kind ErrorKind) bool {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Kind == kind
	}
	return false
}
