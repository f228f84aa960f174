package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers. Business-rule kinds carry a
// user-facing message; KindInternal is surfaced generically.
type Kind string

const (
	KindDuplicateAction   Kind = "DUPLICATE_ACTION"
	KindNothingToUndo     Kind = "NOTHING_TO_UNDO"
	KindUndoWindowExpired Kind = "UNDO_WINDOW_EXPIRED"
	KindNotFound          Kind = "NOT_FOUND"
	KindInvalidFilter     Kind = "INVALID_FILTER"
	KindInvalidArgument   Kind = "INVALID_ARGUMENT"
	KindInternal          Kind = "INTERNAL"
)

// Error is the error type returned by the service layer.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindInternal {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so errors.Is(err, ErrDuplicateAction) works for any message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrDuplicateAction   = &Error{Kind: KindDuplicateAction, Message: "action already recorded"}
	ErrNothingToUndo     = &Error{Kind: KindNothingToUndo, Message: "nothing to undo"}
	ErrUndoWindowExpired = &Error{Kind: KindUndoWindowExpired, Message: "undo window expired"}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrInvalidFilter     = &Error{Kind: KindInvalidFilter, Message: "invalid filter"}
	ErrInvalidArgument   = &Error{Kind: KindInvalidArgument, Message: "invalid argument"}
	ErrInternal          = &Error{Kind: KindInternal, Message: "internal error"}
)

func DuplicateAction(senderID, receiverID uint64) error {
	return &Error{
		Kind:    KindDuplicateAction,
		Message: fmt.Sprintf("user %d already acted on user %d", senderID, receiverID),
	}
}

func NothingToUndo(userID uint64) error {
	return &Error{Kind: KindNothingToUndo, Message: fmt.Sprintf("user %d has no action to undo", userID)}
}

func UndoWindowExpired(age, window fmt.Stringer) error {
	return &Error{
		Kind:    KindUndoWindowExpired,
		Message: fmt.Sprintf("last action is %s old, undo is only allowed within %s", age, window),
	}
}

func NotFound(what string) error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func InvalidFilter(msg string) error {
	return &Error{Kind: KindInvalidFilter, Message: msg}
}

func InvalidArgument(msg string) error {
	return &Error{Kind: KindInvalidArgument, Message: msg}
}

// Internal wraps a persistence or infrastructure failure. Already-typed
// errors pass through unchanged so business rules raised inside a
// transaction keep their kind.
func Internal(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindInternal, Message: op, Err: err}
}

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
