// Package apperr defines the error kinds returned by the task, time and
// performance services. Every failure carries exactly one Kind so the HTTP
// layer can map it to a response without inspecting messages.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	Internal Kind = iota
	NotFound
	PermissionDenied
	InvalidArgument
	AlreadyPunchedIn
	AlreadyPunchedOut
	NotPunchedIn
	NoActiveTimer
	Conflict
	Unauthenticated
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case PermissionDenied:
		return "permission_denied"
	case InvalidArgument:
		return "invalid_argument"
	case AlreadyPunchedIn:
		return "already_punched_in"
	case AlreadyPunchedOut:
		return "already_punched_out"
	case NotPunchedIn:
		return "not_punched_in"
	case NoActiveTimer:
		return "no_active_timer"
	case Conflict:
		return "conflict"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "internal"
	}
}

// Sentinels for errors.Is checks. An *Error matches the sentinel of its kind.
var (
	ErrNotFound          = &Error{Kind: NotFound, Msg: "not found"}
	ErrPermissionDenied  = &Error{Kind: PermissionDenied, Msg: "permission denied"}
	ErrInvalidArgument   = &Error{Kind: InvalidArgument, Msg: "invalid argument"}
	ErrAlreadyPunchedIn  = &Error{Kind: AlreadyPunchedIn, Msg: "already punched in today"}
	ErrAlreadyPunchedOut = &Error{Kind: AlreadyPunchedOut, Msg: "already punched out today"}
	ErrNotPunchedIn      = &Error{Kind: NotPunchedIn, Msg: "not punched in today"}
	ErrNoActiveTimer     = &Error{Kind: NoActiveTimer, Msg: "no active timer for this task"}
	ErrConflict          = &Error{Kind: Conflict, Msg: "conflict"}
	ErrUnauthenticated   = &Error{Kind: Unauthenticated, Msg: "authentication required"}
)

// Error is a classified failure. Op names the operation that produced it,
// e.g. "tasks.UpdateProgress".
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New returns an error of the given kind.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Newf is New with a format string.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. Errors that already carry a kind keep it.
func Wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: Internal, Op: op, Err: err}
}

// KindOf returns the kind of err, Internal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Message returns the user facing message of err without the op prefix.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != Internal {
		if e.Msg != "" {
			return e.Msg
		}
		return e.Kind.String()
	}
	return "internal error"
}
