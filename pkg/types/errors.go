package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of one upload attempt.
type ErrorKind int

const (
	KindInvalidType ErrorKind = iota + 1
	KindTooLarge
	KindRequestFailed
	KindMalformedResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidType:
		return "invalid_type"
	case KindTooLarge:
		return "too_large"
	case KindRequestFailed:
		return "request_failed"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is.
var (
	ErrInvalidType       = &Error{Kind: KindInvalidType}
	ErrTooLarge          = &Error{Kind: KindTooLarge}
	ErrRequestFailed     = &Error{Kind: KindRequestFailed}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}

	// ErrSuperseded resolves an attempt that was replaced by a newer upload.
	ErrSuperseded = errors.New("upload superseded by a newer file")
)

// Error is a classified upload failure. Message is safe to show to users.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Errorf builds an Error of the given kind.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind around cause.
func Wrap(kind ErrorKind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// UserMessage picks the most specific message available for err, falling
// back to fallback when err carries none.
func UserMessage(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
