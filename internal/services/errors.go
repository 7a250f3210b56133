package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies service failures so handlers can pick a status code.
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindValidation
	KindDuplicateUser
	KindDuplicateLocation
	KindNotFound
	KindInvalidCredential
	KindStoreUnavailable
	KindUpstream
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindDuplicateUser:
		return "DuplicateUser"
	case KindDuplicateLocation:
		return "DuplicateLocation"
	case KindNotFound:
		return "NotFound"
	case KindInvalidCredential:
		return "InvalidCredential"
	case KindStoreUnavailable:
		return "StoreUnavailable"
	case KindUpstream:
		return "Upstream"
	default:
		return "Unexpected"
	}
}

// Error is the error type returned by every service operation.
// Message is safe to show to the client; Err carries the internal cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or KindUnexpected for foreign errors.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnexpected
}

// MessageOf returns the client-facing message carried by err.
func MessageOf(err error) string {
	var se *Error
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return "Internal server error"
}

func validationError(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func notFoundError(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func storeError(msg string, err error) error {
	return &Error{Kind: KindStoreUnavailable, Message: msg, Err: err}
}
