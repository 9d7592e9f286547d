package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies core failures so callers can react without parsing
// messages. Collaborator failures (email, storage, notification) are never
// surfaced through this type; they are logged and swallowed.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindUnauthorized
	KindNotFound
	KindConflict
	KindInvariant
)

// Stable reason codes.
const (
	CodeInvalidInput      = "INVALID_INPUT"
	CodeNotFound          = "NOT_FOUND"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeStateConflict     = "STATE_CONFLICT"
	CodeItemOutOfStock    = "ITEM_OUT_OF_STOCK"
	CodeInvalidCode       = "INVALID_CODE"
	CodeNotStarted        = "NOT_STARTED"
	CodeExpired           = "EXPIRED"
	CodeBelowMinOrder     = "BELOW_MIN_ORDER"
	CodeOwnerNotMatch     = "OWNER_NOT_MATCH"
	CodeItemNotMatch      = "ITEM_NOT_MATCH"
	CodeNotAllowedUser    = "NOT_ALLOWED_USER"
	CodeUsageExceeded     = "USAGE_EXCEEDED"
	CodePendingExtension  = "PENDING_EXTENSION_EXISTS"
	CodeMaxDuration       = "MAX_RENTAL_DURATION_EXCEEDED"
	CodeContractExists    = "CONTRACT_EXISTS"
	CodeSignatureInUse    = "SIGNATURE_IN_USE"
	CodeInsufficientPoint = "INSUFFICIENT_POINTS"
	CodeCodeGeneration    = "CODE_GENERATION_FAILED"
)

type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(kind ErrorKind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Validationf(code, format string, args ...any) *Error {
	return newError(KindValidation, code, format, args...)
}

func Unauthorizedf(format string, args ...any) *Error {
	return newError(KindUnauthorized, CodeUnauthorized, format, args...)
}

func NotFoundf(format string, args ...any) *Error {
	return newError(KindNotFound, CodeNotFound, format, args...)
}

func Conflictf(code, format string, args ...any) *Error {
	return newError(KindConflict, code, format, args...)
}

func Invariantf(code, format string, args ...any) *Error {
	return newError(KindInvariant, code, format, args...)
}

// KindOf unwraps err to its domain kind; zero if err is not a domain error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// CodeOf unwraps err to its reason code; empty if err is not a domain error.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
