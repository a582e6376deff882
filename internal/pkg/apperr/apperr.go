package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Kind is the structured error code surfaced to callers. Every boundary
// (handler, service, store) returns one of these instead of raising.
type Kind string

const (
	KindValidation          Kind = "ValidationError"
	KindUnauthorized        Kind = "Unauthorized"
	KindForbidden           Kind = "Forbidden"
	KindNotFound            Kind = "NotFound"
	KindInvalidTransition   Kind = "InvalidTransition"
	KindAlreadyReserved     Kind = "AlreadyReserved"
	KindReservationConflict Kind = "ReservationConflict"
	KindConflict            Kind = "Conflict"
	KindRateLimited         Kind = "RateLimited"
	KindInternal            Kind = "Internal"
)

// Error carries a kind plus a short, PII-free message safe to return verbatim.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause (kept for logs, never serialized to clients).
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error { return New(KindValidation, message) }
func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }
func Forbidden(message string) *Error { return New(KindForbidden, message) }
func NotFound(message string) *Error { return New(KindNotFound, message) }
func InvalidTransition(message string) *Error { return New(KindInvalidTransition, message) }
func AlreadyReserved(message string) *Error { return New(KindAlreadyReserved, message) }
func ReservationConflict(message string) *Error { return New(KindReservationConflict, message) }
func Conflict(message string) *Error { return New(KindConflict, message) }
func RateLimited(message string) *Error { return New(KindRateLimited, message) }

// Internal wraps an unexpected error behind an opaque message.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal server error", Err: err}
}

// KindOf extracts the kind from any error; unknown errors are Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps kinds to HTTP status codes.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindUnauthorized:
		return fiber.StatusUnauthorized
	case KindForbidden:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	case KindInvalidTransition, KindAlreadyReserved, KindReservationConflict, KindConflict:
		return fiber.StatusConflict
	case KindRateLimited:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}
