// Package apperr is the error taxonomy shared by services and HTTP handlers.
// Every error a client can see carries a Kind (which decides the status code)
// and a stable machine-readable Code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindSoldOut
	KindPaymentDeclined
)

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeUsernameTaken      = "USERNAME_TAKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeForbidden          = "FORBIDDEN"
	CodeEventNotFound      = "EVENT_NOT_FOUND"
	CodeTicketNotFound     = "TICKET_NOT_FOUND"
	CodeSoldOut            = "SOLD_OUT"
	CodeAlreadyCheckedIn   = "ALREADY_CHECKED_IN"
	CodeInvalidQR          = "INVALID_QR"
	CodePaymentInProgress  = "PAYMENT_IN_PROGRESS"
	CodePaymentDeclined    = "PAYMENT_DECLINED"
	CodePasswordHash       = "PASSWORD_HASH_FAILED"
	CodeInternal           = "INTERNAL_ERROR"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status maps the error kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindSoldOut, KindPaymentDeclined:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func Unauthorized(code, message string) *Error {
	return &Error{Kind: KindUnauthorized, Code: code, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Code: CodeForbidden, Message: message}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func SoldOut(message string) *Error {
	return &Error{Kind: KindSoldOut, Code: CodeSoldOut, Message: message}
}

func Declined(message string, err error) *Error {
	return &Error{Kind: KindPaymentDeclined, Code: CodePaymentDeclined, Message: message, Err: err}
}

// Internal wraps err; only message is ever shown to clients.
func Internal(code, message string, err error) *Error {
	if code == "" {
		code = CodeInternal
	}
	return &Error{Kind: KindInternal, Code: code, Message: message, Err: err}
}

// From returns the *Error in err's chain, or an opaque internal error.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(CodeInternal, "Internal server error", err)
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
