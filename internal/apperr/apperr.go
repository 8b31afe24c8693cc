package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error so the HTTP layer and the scheduler can react
// without string matching.
type Kind string

const (
	KindValidation Kind = "validation"
	KindState      Kind = "state"
	KindNotFound   Kind = "not_found"
	KindProvider   Kind = "provider"
	KindStorage    Kind = "storage"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func State(format string, args ...any) error {
	return &Error{Kind: KindState, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Provider(msg string, err error) error {
	return &Error{Kind: KindProvider, Msg: msg, Err: err}
}

func Storage(msg string, err error) error {
	return &Error{Kind: KindStorage, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or KindStorage for untagged errors:
// anything that escaped classification came from the persistence path.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
