// Package herr defines the typed error kinds shared across hotpot's
// components, in the same small-struct-plus-Error() idiom the teacher
// uses for its own validation errors.
package herr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the HTTP and CLI layers without them
// needing to know which package produced it.
type Kind int

const (
	KindUnknown Kind = iota
	KindDecode
	KindIO
	KindStore
	KindParse
	KindAuth
	KindProtocol
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "DecodeError"
	case KindIO:
		return "IoError"
	case KindStore:
		return "StoreError"
	case KindParse:
		return "ParseError"
	case KindAuth:
		return "AuthError"
	case KindProtocol:
		return "ProtocolError"
	case KindNotFound:
		return "NotFoundError"
	default:
		return "Error"
	}
}

// Error is hotpot's single typed error value. Field is optional context
// (a file path, a property key, a mask name, ...).
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func new_(k Kind, field, msg string, cause error) *Error {
	return &Error{Kind: k, Field: field, Message: msg, Cause: cause}
}

func Decode(field, msg string, cause error) *Error   { return new_(KindDecode, field, msg, cause) }
func IO(field, msg string, cause error) *Error        { return new_(KindIO, field, msg, cause) }
func Store(field, msg string, cause error) *Error     { return new_(KindStore, field, msg, cause) }
func Parse(field, msg string, cause error) *Error     { return new_(KindParse, field, msg, cause) }
func Auth(msg string) *Error                          { return new_(KindAuth, "", msg, nil) }
func Protocol(msg string) *Error                      { return new_(KindProtocol, "", msg, nil) }
func NotFound(field, msg string) *Error               { return new_(KindNotFound, field, msg, nil) }

// KindOf extracts the Kind from any error, defaulting to KindUnknown for
// errors not produced by this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
