package service

import (
	"errors"
	"fmt"

	"taskTracker/internal/policy"
)

// Kind classifies a domain error so transports can map it to a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindPermissionDenied
	KindForbidden
	KindNotFound
	KindAuthentication
	KindConflict
	KindTaskNotCompleted
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPermissionDenied:
		return "permission_denied"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindAuthentication:
		return "authentication"
	case KindConflict:
		return "conflict"
	case KindTaskNotCompleted:
		return "task_not_completed"
	default:
		return "internal"
	}
}

// Error is a domain error with a client-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Messages shared by every entry point into the completion workflow.
const (
	MsgReportRequired   = "Completion report is required when marking completed."
	MsgHoursRequired    = "Worked hours are required when marking completed."
	MsgHoursInvalid     = "Worked hours must be a non-negative number with at most 2 decimal places."
	MsgNotCompleted     = "Task is not completed yet"
	MsgTaskNotFound     = "Task not found"
	MsgInvalidCreds     = "Invalid credentials"
	MsgConcurrentUpdate = "Task was modified by another request; reload and retry"
)

func validationError(msg string) error { return &Error{Kind: KindValidation, Message: msg} }

func notFound(msg string) error { return &Error{Kind: KindNotFound, Message: msg} }

func internal(op string, err error) error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Err: fmt.Errorf("%s: %w", op, err)}
}

// fromPolicy converts a policy denial into a domain error.
func fromPolicy(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	var d *policy.Denial
	if errors.As(err, &d) {
		msg = d.Message
	}
	if errors.Is(err, policy.ErrForbidden) {
		return &Error{Kind: KindForbidden, Message: msg}
	}
	return &Error{Kind: KindPermissionDenied, Message: msg}
}

// KindOf returns the kind of err, or KindInternal for errors that are not domain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the client-facing message of err. Non-domain errors never leak their text.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}
